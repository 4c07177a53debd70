package app

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/agentstation/netbox-connector/cmd/netbox-connector/cmd/export"
	"github.com/agentstation/netbox-connector/cmd/netbox-connector/cmd/get"
	"github.com/agentstation/netbox-connector/cmd/netbox-connector/cmd/lookup"
	"github.com/agentstation/netbox-connector/cmd/netbox-connector/cmd/validate"
)

// NewExportCommand creates the export command with app dependencies.
func (a *App) NewExportCommand() *cobra.Command {
	return export.NewCommand(a)
}

// NewLookupCommand creates the lookup command with app dependencies.
func (a *App) NewLookupCommand() *cobra.Command {
	return lookup.NewCommand(a)
}

// NewGetCommand creates the get command with app dependencies.
func (a *App) NewGetCommand() *cobra.Command {
	return get.NewCommand(a)
}

// NewValidateCommand creates the validate command with app dependencies.
func (a *App) NewValidateCommand() *cobra.Command {
	return validate.NewCommand(a)
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Show version information for the netbox-connector CLI.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "netbox-connector version %s\n", a.version)
			fmt.Fprintf(out, "commit: %s\n", a.commit)
			fmt.Fprintf(out, "built: %s\n", a.date)
			fmt.Fprintf(out, "built by: %s\n", a.builtBy)
			fmt.Fprintf(out, "go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// NewManCommand creates the man command.
func (a *App) NewManCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "man",
		Short:  "Generate man page",
		Long:   `Generate man page for the netbox-connector CLI tool.`,
		Hidden: true, // Hide from help output since it's mainly for packaging
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			header := &doc.GenManHeader{
				Title:   "NETBOX-CONNECTOR",
				Section: "1",
				Source:  "netbox-connector " + a.version,
				Manual:  "netbox-connector Manual",
			}
			return doc.GenMan(cmd.Root(), header, cmd.OutOrStdout())
		},
	}
}
