// Package sink writes exported events to their destination: JSON lines,
// CloudEvents JSON lines, or a SQLite events table.
package sink

import (
	"bufio"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/agentstation/netbox-connector/pkg/constants"
	"github.com/agentstation/netbox-connector/pkg/errors"
	"github.com/agentstation/netbox-connector/pkg/inventory"
)

// Kind names a sink implementation.
type Kind string

// Supported sink kinds.
const (
	KindJSONL       Kind = "jsonl"
	KindCloudEvents Kind = "cloudevents"
	KindSQLite      Kind = "sqlite"
)

// Stdout is the path that selects standard output.
const Stdout = "-"

// Kinds returns the supported sink kinds.
func Kinds() []Kind {
	return []Kind{KindJSONL, KindCloudEvents, KindSQLite}
}

// Sink is an inventory.Sink that holds a resource until closed.
type Sink interface {
	inventory.Sink
	Close() error
}

// Config selects and configures a sink.
type Config struct {
	Kind Kind
	// Path is a file for line sinks ("-" or empty for stdout) or a database file.
	Path string
	// Source is the CloudEvents source attribute.
	Source string
	// Stdout replaces os.Stdout for line sinks.
	Stdout io.Writer
}

// New opens the sink described by cfg. An unknown kind is a *errors.ConfigError.
func New(cfg Config) (Sink, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(string(cfg.Kind))))
	if kind == "" {
		kind = KindJSONL
	}
	if !slices.Contains(Kinds(), kind) {
		return nil, errors.NewConfigError("sink", "kind", "unknown sink "+string(cfg.Kind), nil)
	}

	if kind == KindSQLite {
		return OpenSQLite(cfg.Path)
	}

	w, closeFn, err := openLines(cfg)
	if err != nil {
		return nil, err
	}
	if kind == KindCloudEvents {
		return NewCloudEvents(w, cfg.Source, closeFn), nil
	}
	return NewJSONL(w, closeFn), nil
}

// openLines opens the destination of a line sink. The returned close function
// flushes and, for files, closes.
func openLines(cfg Config) (io.Writer, func() error, error) {
	if cfg.Path == "" || cfg.Path == Stdout {
		out := cfg.Stdout
		if out == nil {
			out = os.Stdout
		}
		bw := bufio.NewWriter(out)
		return bw, bw.Flush, nil
	}

	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.FilePermissions)
	if err != nil {
		return nil, nil, errors.WrapIO("open", cfg.Path, err)
	}
	bw := bufio.NewWriter(f)
	return bw, func() error {
		if err := bw.Flush(); err != nil {
			_ = f.Close()
			return errors.WrapIO("write", cfg.Path, err)
		}
		if err := f.Close(); err != nil {
			return errors.WrapIO("close", cfg.Path, err)
		}
		return nil
	}, nil
}
