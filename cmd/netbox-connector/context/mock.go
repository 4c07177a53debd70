package context

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/agentstation/netbox-connector/pkg/inventory"
	"github.com/agentstation/netbox-connector/pkg/metrics"
)

// Mock is a Context for tests. Zero fields fall back to a no-op logger, nil
// metrics and the process streams.
type Mock struct {
	Log      *zerolog.Logger
	Registry *metrics.Metrics
	Conn     inventory.Stanza
	Jobs     []inventory.Stanza
	Streams  IOStreams
}

var _ Context = (*Mock)(nil)

// Logger implements Context.
func (m *Mock) Logger() *zerolog.Logger {
	if m.Log == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return m.Log
}

// Metrics implements Context.
func (m *Mock) Metrics() *metrics.Metrics {
	return m.Registry
}

// Defaults implements Context.
func (m *Mock) Defaults() inventory.Stanza {
	return m.Conn
}

// Stanzas implements Context.
func (m *Mock) Stanzas() []inventory.Stanza {
	return m.Jobs
}

// IO implements Context.
func (m *Mock) IO() IOStreams {
	s := m.Streams
	if s.In == nil {
		s.In = os.Stdin
	}
	if s.Out == nil {
		s.Out = io.Discard
	}
	if s.ErrOut == nil {
		s.ErrOut = io.Discard
	}
	return s
}
