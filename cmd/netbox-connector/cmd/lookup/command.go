// Package lookup provides the lookup command, which enriches a stream of
// JSON records with NetBox data.
package lookup

import (
	"bufio"
	"bytes"
	"io"
	"iter"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/netbox-connector/cmd/netbox-connector/cmd/cmdutil"
	appcontext "github.com/agentstation/netbox-connector/cmd/netbox-connector/context"
	"github.com/agentstation/netbox-connector/pkg/constants"
	"github.com/agentstation/netbox-connector/pkg/enrich"
	"github.com/agentstation/netbox-connector/pkg/errors"
	"github.com/agentstation/netbox-connector/pkg/logging"
	"github.com/agentstation/netbox-connector/pkg/netbox"
)

// maxLineSize bounds one input record.
const maxLineSize = 16 << 20

type options struct {
	input       string
	resource    string
	matchField  string
	netboxField string
	fields      string
	query       string
	prefix      string
	conn        cmdutil.Connection
}

// NewCommand creates the lookup command.
func NewCommand(app appcontext.Context) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:     "lookup",
		GroupID: "core",
		Short:   "Enrich JSON lines records with NetBox objects",
		Long: `Lookup reads one JSON object per line, finds the NetBox object whose
--netbox-field equals the record's --match-field and writes the record back
out with the object's data added. Records without a match pass through
unchanged; output order follows input order.

With --fields each listed field is written as <prefix>_<field>. Without it
the whole object is written as <prefix>, unless the record already has it.
Each distinct value is looked up once.`,
		Example: `  netbox-connector lookup --resource dcim/devices < events.jsonl
  netbox-connector lookup --resource dcim/devices --match-field host --fields site,role
  netbox-connector lookup --resource ipam/ip-addresses --netbox-field address --match-field src_ip`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "-", "JSON lines input file (- for stdin)")
	cmd.Flags().StringVar(&opts.resource, "resource", "", "NetBox resource to search, e.g. dcim/devices (required)")
	cmd.Flags().StringVar(&opts.matchField, "match-field", constants.DefaultMatchField, "record field holding the value to look up")
	cmd.Flags().StringVar(&opts.netboxField, "netbox-field", constants.DefaultNetBoxField, "NetBox filter the value is matched against")
	cmd.Flags().StringVar(&opts.fields, "fields", "", "comma separated NetBox fields to copy (default: the whole object)")
	cmd.Flags().StringVar(&opts.query, "query", "", "JSON object of extra filters sent with every lookup")
	cmd.Flags().StringVar(&opts.prefix, "prefix", constants.DefaultPrefix, "name prefix of the fields written into records")
	opts.conn.Register(cmd.Flags())

	return cmd
}

func run(cmd *cobra.Command, app appcontext.Context, opts options) error {
	conn := opts.conn.Resolve(app.Defaults())
	logger := app.Logger()

	proc, err := enrich.New(enrich.Options{
		NetBoxURL:   conn.NetBoxURL,
		Token:       conn.Token,
		Resource:    opts.resource,
		MatchField:  opts.matchField,
		NetBoxField: opts.netboxField,
		Fields:      opts.fields,
		VerifySSL:   conn.VerifySSL,
		CABundle:    conn.CABundle,
		Timeout:     conn.Timeout,
		Query:       opts.query,
		Prefix:      opts.prefix,
	}, enrich.WithMetrics(app.Metrics()), enrich.WithLogger(logger))
	if err != nil {
		return err
	}

	in, source, closeIn, err := openInput(app, opts.input)
	if err != nil {
		return err
	}
	defer closeIn()

	ctx := logging.WithResource(logging.WithLogger(cmd.Context(), logger), opts.resource)
	out := bufio.NewWriter(app.IO().Out)
	for rec, err := range proc.Stream(ctx, ReadRecords(in, source)) {
		if err != nil {
			_ = out.Flush()
			return err
		}
		if _, err := out.Write(append(netbox.Compact(rec), '\n')); err != nil {
			return errors.WrapIO("write", "stdout", err)
		}
	}
	if err := out.Flush(); err != nil {
		return errors.WrapIO("write", "stdout", err)
	}

	stats := proc.Stats()
	logger.Info().
		Int("records", stats.Records).
		Int("lookups", stats.Lookups).
		Int("cache_hits", stats.CacheHits).
		Int("enriched", stats.Enriched).
		Int("passthrough", stats.Passthrough).
		Msg("lookup finished")
	return nil
}

func openInput(app appcontext.Context, path string) (io.Reader, string, func(), error) {
	if path == "" || path == "-" {
		return app.IO().In, "stdin", func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", nil, errors.WrapIO("open", path, err)
	}
	return f, path, func() { _ = f.Close() }, nil
}

// ReadRecords yields one record per non-blank line of r. A line that is not
// a JSON object is yielded as a *errors.ParseError and ends the sequence.
func ReadRecords(r io.Reader, source string) iter.Seq2[*netbox.Record, error] {
	return func(yield func(*netbox.Record, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

		line := 0
		for scanner.Scan() {
			line++
			text := scanner.Bytes()
			if len(bytes.TrimSpace(text)) == 0 {
				continue
			}
			v, err := netbox.DecodeJSON(text)
			if err != nil {
				yield(nil, errors.WrapParse("jsonl", source, line, err))
				return
			}
			rec, ok := v.(*netbox.Record)
			if !ok {
				yield(nil, errors.WrapParse("jsonl", source, line, errors.New("record is not a JSON object")))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(nil, errors.WrapIO("read", source, err))
		}
	}
}
