// Package validate provides the validate command, which checks export jobs
// without contacting NetBox.
package validate

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/netbox-connector/cmd/netbox-connector/cmd/cmdutil"
	appcontext "github.com/agentstation/netbox-connector/cmd/netbox-connector/context"
	"github.com/agentstation/netbox-connector/internal/output"
	"github.com/agentstation/netbox-connector/pkg/errors"
	"github.com/agentstation/netbox-connector/pkg/inventory"
)

// Result is the outcome for one job.
type Result struct {
	Job        string `json:"job" yaml:"job"`
	Resource   string `json:"resource" yaml:"resource"`
	Sourcetype string `json:"sourcetype" yaml:"sourcetype"`
	URL        string `json:"url" yaml:"url"`
	Status     string `json:"status" yaml:"status"`
}

// NewCommand creates the validate command.
func NewCommand(app appcontext.Context) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "validate [job...]",
		GroupID: "management",
		Short:   "Validate configured export jobs",
		Long: `Validate checks every configured job, or the named ones, the same way
export does before its first request: the resource must be set and
relative, the query a JSON object, the timeout an integer and the trust
bundle an existing file. No request is made.`,
		Example: `  netbox-connector validate
  netbox-connector validate devices --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return errors.NewConfigError("validate", "format", err.Error(), nil)
			}

			stanzas, err := cmdutil.SelectStanzas(app.Stanzas(), args)
			if err != nil {
				return err
			}

			results, firstErr := Check(stanzas)
			if err := output.NewFormatter(output.DetectFormat(string(f))).Format(app.IO().Out, results); err != nil {
				return err
			}
			return firstErr
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", "", "output format: table, json, yaml")

	return cmd
}

// Check validates every stanza and reports each outcome. The returned error
// is the first failure.
func Check(stanzas []inventory.Stanza) ([]Result, error) {
	var firstErr error
	results := make([]Result, 0, len(stanzas))
	for _, s := range stanzas {
		r := Result{Job: s.Name, Resource: s.Resource, Status: "ok"}
		job, err := inventory.ParseStanza(s)
		if err != nil {
			r.Status = err.Error()
			if firstErr == nil {
				firstErr = err
			}
		} else {
			r.Sourcetype = job.Sourcetype
			r.URL = job.Endpoint.BaseURL
		}
		results = append(results, r)
	}
	return results, firstErr
}
