// Package inventory exports whole NetBox collections as timestamped events.
//
// Each configured stanza becomes a Job. The Exporter runs jobs one after
// another, draining every page of the job's resource into a Sink.
package inventory

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/netbox-connector/pkg/errors"
	"github.com/agentstation/netbox-connector/pkg/logging"
	"github.com/agentstation/netbox-connector/pkg/metrics"
	"github.com/agentstation/netbox-connector/pkg/netbox"
)

// Sink receives exported events.
type Sink interface {
	Write(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event) error

// Write implements Sink.
func (f SinkFunc) Write(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// JobSummary reports one job run.
type JobSummary struct {
	Name       string        `json:"name" yaml:"name"`
	Resource   string        `json:"resource" yaml:"resource"`
	Sourcetype string        `json:"sourcetype" yaml:"sourcetype"`
	Events     int           `json:"events" yaml:"events"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

// Summary reports a Run.
type Summary struct {
	Jobs   []JobSummary `json:"jobs" yaml:"jobs"`
	Events int          `json:"events" yaml:"events"`
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithMetrics records per-job event counters and client metrics.
func WithMetrics(m *metrics.Metrics) ExporterOption {
	return func(e *Exporter) {
		e.metrics = m
	}
}

// WithClientOptions passes options to every job's NetBox client.
func WithClientOptions(opts ...netbox.Option) ExporterOption {
	return func(e *Exporter) {
		e.clientOpts = append(e.clientOpts, opts...)
	}
}

// Exporter drives export jobs.
type Exporter struct {
	metrics    *metrics.Metrics
	clientOpts []netbox.Option
}

// NewExporter creates an exporter.
func NewExporter(opts ...ExporterOption) *Exporter {
	e := &Exporter{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes jobs in order. A job whose client cannot be built fails with
// *errors.JobError; enumeration and sink errors are returned as they are.
// The summary covers the jobs and events completed before any failure.
func (e *Exporter) Run(ctx context.Context, jobs []*Job, sink Sink) (Summary, error) {
	var summary Summary
	for _, job := range jobs {
		js, err := e.runJob(ctx, job, sink)
		summary.Jobs = append(summary.Jobs, js)
		summary.Events += js.Events
		if err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func (e *Exporter) runJob(ctx context.Context, job *Job, sink Sink) (JobSummary, error) {
	ctx = logging.WithResource(logging.WithJob(ctx, job.Name), job.Resource)
	log := logging.FromContext(ctx)
	start := time.Now()
	js := JobSummary{Name: job.Name, Resource: job.Resource, Sourcetype: job.Sourcetype}

	opts := append([]netbox.Option{netbox.WithMetrics(e.metrics)}, e.clientOpts...)
	client, err := netbox.New(job.Endpoint, opts...)
	if err != nil {
		return js, errors.NewJobError(job.Name, err)
	}

	log.Info().Str("url", client.BaseURL()).Msg("export started")

	for rec, err := range client.Iterate(ctx, job.Resource, job.Filters) {
		if err != nil {
			js.Duration = time.Since(start)
			logFailure(log, err)
			return js, err
		}
		if err := sink.Write(ctx, EventFromRecord(job.Name, job.Sourcetype, rec)); err != nil {
			js.Duration = time.Since(start)
			return js, err
		}
		js.Events++
		e.metrics.RecordEvents(job.Name, 1)
	}

	js.Duration = time.Since(start)
	e.metrics.RecordJobSuccess(job.Name)
	log.Info().Int("events", js.Events).Dur("elapsed", js.Duration).Msg("export finished")
	return js, nil
}

func logFailure(log *zerolog.Logger, err error) {
	ev := log.Error().Err(err)
	if apiErr, ok := errors.AsAPIError(err); ok {
		ev = ev.Int("status", apiErr.StatusCode).Interface("payload", apiErr.Payload)
	}
	if errors.IsTransport(err) {
		ev = ev.Bool("network", errors.IsNetworkError(err))
	}
	ev.Msg("export failed")
}
