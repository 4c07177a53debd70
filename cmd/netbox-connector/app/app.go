// Package app provides the application context and dependency management
// for the netbox-connector CLI. It centralizes configuration, logging,
// metrics and tracing, and the lifecycle of each.
package app

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	appcontext "github.com/agentstation/netbox-connector/cmd/netbox-connector/context"
	"github.com/agentstation/netbox-connector/pkg/errors"
	"github.com/agentstation/netbox-connector/pkg/inventory"
	"github.com/agentstation/netbox-connector/pkg/metrics"
	"github.com/agentstation/netbox-connector/pkg/tracing"
)

// ServiceName identifies the connector in metrics and traces.
const ServiceName = "netbox-connector"

// App represents the netbox-connector application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	metrics *metrics.Metrics
	tracer  *sdktrace.TracerProvider
	streams appcontext.IOStreams
}

var _ appcontext.Context = (*App)(nil)

// New creates a new App instance with the given version information.
// The app is initialized with configuration from the default locations that
// can be customized using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		streams: appcontext.IOStreams{In: os.Stdin, Out: os.Stdout, ErrOut: os.Stderr},
	}

	// Load configuration
	config, err := LoadConfig("")
	if err != nil {
		return nil, err
	}
	app.config = config

	// Initialize logger
	logger := NewLogger(config)
	app.logger = &logger

	// Apply any custom options
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	app.metrics = metrics.New(metrics.Config{Component: ServiceName, Version: version})

	tp, err := tracing.InitTracer(ServiceName, version, tracing.SampleRatio(app.logger))
	if err != nil {
		return nil, err
	}
	app.tracer = tp

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Metrics returns the application metrics.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// Defaults returns the top-level connection settings.
func (a *App) Defaults() inventory.Stanza {
	return a.config.Defaults
}

// Stanzas returns the configured export jobs.
func (a *App) Stanzas() []inventory.Stanza {
	return a.config.Stanzas
}

// IO returns the standard streams commands use.
func (a *App) IO() appcontext.IOStreams {
	return a.streams
}

// Shutdown flushes the tracer and writes the metrics file, if one is
// configured. Both are attempted; the first failure is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var firstErr error

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.Error().Err(err).Msg("Failed to shut down tracer provider")
			firstErr = err
		}
	}

	if path := a.config.MetricsFile; path != "" {
		if err := a.metrics.WriteTextfile(path); err != nil {
			a.logger.Error().Err(err).Str("path", path).Msg("Failed to write metrics file")
			if firstErr == nil {
				firstErr = err
			}
		} else {
			a.logger.Debug().Str("path", path).Msg("metrics written")
		}
	}

	return firstErr
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if config == nil {
			return errors.NewConfigError("app", "config", "config must not be nil", nil)
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithIO replaces the standard streams. Nil streams are left unchanged.
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(a *App) error {
		if in != nil {
			a.streams.In = in
		}
		if out != nil {
			a.streams.Out = out
		}
		if errOut != nil {
			a.streams.ErrOut = errOut
		}
		return nil
	}
}
