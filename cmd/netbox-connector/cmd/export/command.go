// Package export provides the export command, which drains NetBox
// collections into an event sink.
package export

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/netbox-connector/cmd/netbox-connector/cmd/cmdutil"
	appcontext "github.com/agentstation/netbox-connector/cmd/netbox-connector/context"
	"github.com/agentstation/netbox-connector/internal/sink"
	"github.com/agentstation/netbox-connector/pkg/errors"
	"github.com/agentstation/netbox-connector/pkg/inventory"
	"github.com/agentstation/netbox-connector/pkg/logging"
	"github.com/agentstation/netbox-connector/pkg/netbox"
)

// AdhocName names the job built from --resource.
const AdhocName = "adhoc"

type options struct {
	sink     string
	sinkPath string
	source   string

	name     string
	resource string
	query    string
	conn     cmdutil.Connection
}

// NewCommand creates the export command.
func NewCommand(app appcontext.Context) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:     "export [job...]",
		GroupID: "core",
		Short:   "Export NetBox collections as events",
		Long: `Export walks every page of each job's NetBox resource and writes one
event per object to the selected sink.

Jobs come from the "jobs" map of the config file; name some to run only
those. With --resource a single ad-hoc job is run instead. Every job is
validated before the first request is made.`,
		Example: `  netbox-connector export
  netbox-connector export devices sites --sink sqlite --sink-path inventory.db
  netbox-connector export --resource dcim/devices --query '{"site": "nyc"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.sink, "sink", string(sink.KindJSONL), "event sink: jsonl, cloudevents, sqlite")
	cmd.Flags().StringVar(&opts.sinkPath, "sink-path", sink.Stdout, "output file, or database file for sqlite (- for stdout)")
	cmd.Flags().StringVar(&opts.source, "source", sink.DefaultSource, "CloudEvents source attribute")
	cmd.Flags().StringVar(&opts.name, "name", AdhocName, "stanza name of the ad-hoc job")
	cmd.Flags().StringVar(&opts.resource, "resource", "", "run one ad-hoc job for this resource, e.g. dcim/devices")
	cmd.Flags().StringVar(&opts.query, "query", "", "JSON object of filters for the ad-hoc job")
	opts.conn.Register(cmd.Flags())

	return cmd
}

func run(cmd *cobra.Command, app appcontext.Context, opts options, args []string) error {
	stanzas, err := selectStanzas(app, opts, args)
	if err != nil {
		return err
	}
	jobs, err := inventory.ParseStanzas(stanzas)
	if err != nil {
		return err
	}

	out, err := sink.New(sink.Config{
		Kind:   sink.Kind(opts.sink),
		Path:   opts.sinkPath,
		Source: opts.source,
		Stdout: app.IO().Out,
	})
	if err != nil {
		return err
	}

	logger := app.Logger()
	ctx := logging.WithLogger(cmd.Context(), logger)
	exporter := inventory.NewExporter(
		inventory.WithMetrics(app.Metrics()),
		inventory.WithClientOptions(netbox.WithLogger(logger)),
	)

	summary, runErr := exporter.Run(ctx, jobs, out)
	closeErr := out.Close()

	for _, js := range summary.Jobs {
		logger.Debug().
			Str("job", js.Name).
			Str("sourcetype", js.Sourcetype).
			Int("events", js.Events).
			Dur("elapsed", js.Duration).
			Msg("job summary")
	}
	if runErr != nil {
		return runErr
	}
	if closeErr != nil {
		return closeErr
	}

	logger.Info().Int("jobs", len(summary.Jobs)).Int("events", summary.Events).Msg("export complete")
	return nil
}

// selectStanzas picks the configured jobs named in args, or builds the ad-hoc job.
func selectStanzas(app appcontext.Context, opts options, args []string) ([]inventory.Stanza, error) {
	if opts.resource == "" {
		return cmdutil.SelectStanzas(app.Stanzas(), args)
	}
	if len(args) > 0 {
		return nil, errors.NewConfigError("export", "resource", "--resource cannot be combined with job names", nil)
	}
	adhoc := opts.conn.Resolve(app.Defaults())
	adhoc.Name = opts.name
	adhoc.Resource = opts.resource
	adhoc.Query = opts.query
	return []inventory.Stanza{adhoc}, nil
}
