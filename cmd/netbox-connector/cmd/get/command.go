// Package get provides the get command for browsing NetBox objects.
package get

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/netbox-connector/cmd/netbox-connector/cmd/cmdutil"
	appcontext "github.com/agentstation/netbox-connector/cmd/netbox-connector/context"
	"github.com/agentstation/netbox-connector/internal/output"
	"github.com/agentstation/netbox-connector/pkg/enrich"
	"github.com/agentstation/netbox-connector/pkg/errors"
	"github.com/agentstation/netbox-connector/pkg/inventory"
	"github.com/agentstation/netbox-connector/pkg/logging"
	"github.com/agentstation/netbox-connector/pkg/netbox"
)

// DefaultLimit caps listings unless --limit says otherwise.
const DefaultLimit = 50

type options struct {
	query   string
	limit   int
	format  string
	columns string
	conn    cmdutil.Connection
}

// NewCommand creates the get command.
func NewCommand(app appcontext.Context) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:     "get <resource> [id]",
		GroupID: "core",
		Short:   "Show NetBox objects",
		Long: `Get lists the objects of a NetBox resource, following pagination up to
--limit objects, or shows a single object when an id is given.`,
		Example: `  netbox-connector get dcim/devices
  netbox-connector get dcim/devices --query '{"site": "nyc"}' --columns id,name,status
  netbox-connector get dcim/devices 42 --format yaml`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.query, "query", "", "JSON object of filters")
	cmd.Flags().IntVar(&opts.limit, "limit", DefaultLimit, "maximum number of objects to list (0 for all)")
	cmd.Flags().StringVarP(&opts.format, "format", "o", "", "output format: table, json, yaml (default table on a terminal, json otherwise)")
	cmd.Flags().StringVar(&opts.columns, "columns", "", "comma separated table columns (default: keys of the first object)")
	opts.conn.Register(cmd.Flags())

	return cmd
}

func run(cmd *cobra.Command, app appcontext.Context, opts options, args []string) error {
	format, err := output.ParseFormat(opts.format)
	if err != nil {
		return errors.NewConfigError("get", "format", err.Error(), nil)
	}
	format = output.DetectFormat(string(format))

	resource := args[0]
	s := opts.conn.Resolve(app.Defaults())
	s.Name = "get"
	s.Resource = resource
	s.Query = opts.query
	// a stanza carries the same shape checks as an export job
	job, err := inventory.ParseStanza(s)
	if err != nil {
		return err
	}

	logger := app.Logger()
	client, err := netbox.New(job.Endpoint, netbox.WithMetrics(app.Metrics()), netbox.WithLogger(logger))
	if err != nil {
		return err
	}
	ctx := logging.WithResource(logging.WithLogger(cmd.Context(), logger), resource)

	var data any
	if len(args) == 2 {
		rec, err := client.GetByID(ctx, resource, args[1])
		if err != nil {
			return err
		}
		if rec == nil {
			return errors.NewNotFoundError(resource, args[1])
		}
		data = rec
	} else {
		records := make([]*netbox.Record, 0)
		for rec, err := range client.Iterate(ctx, resource, job.Filters) {
			if err != nil {
				return err
			}
			records = append(records, rec)
			if opts.limit > 0 && len(records) >= opts.limit {
				break
			}
		}
		data = records
		if format == output.FormatTable {
			data = output.RecordTable(records, enrich.ParseFields(opts.columns))
		}
	}

	return output.NewFormatter(format).Format(app.IO().Out, data)
}
