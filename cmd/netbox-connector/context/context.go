// Package context provides the application context interface for
// netbox-connector commands.
//
// Commands accept Context rather than the concrete App so they can be built
// and executed in tests against a Mock:
//
//	mock := &context.Mock{
//	    Conn:    inventory.Stanza{NetBoxURL: server.URL + "/api/"},
//	    Streams: context.IOStreams{Out: &out},
//	}
//	cmd := get.NewCommand(mock)
//	cmd.SetArgs([]string{"dcim/devices"})
//	err := cmd.Execute()
package context

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/agentstation/netbox-connector/pkg/inventory"
	"github.com/agentstation/netbox-connector/pkg/metrics"
)

// IOStreams are the standard streams a command reads and writes.
type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// Context provides what commands need from the application. The App struct
// from cmd/netbox-connector/app implements it.
type Context interface {
	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// Metrics returns the process-wide metrics, written out on shutdown.
	Metrics() *metrics.Metrics

	// Defaults returns the top-level connection settings (URL, token, TLS
	// and timeout) that stanzas and ad-hoc commands fall back to.
	Defaults() inventory.Stanza

	// Stanzas returns the configured export jobs with defaults applied.
	Stanzas() []inventory.Stanza

	// IO returns the command's standard streams.
	IO() IOStreams
}
