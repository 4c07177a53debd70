package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/netbox-connector/pkg/errors"
)

// Execute runs the netbox-connector CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(a.streams.In)
	rootCmd.SetOut(a.streams.Out)
	rootCmd.SetErr(a.streams.ErrOut)

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		logError(a, err)
	}
	return err
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "netbox-connector",
		Short:   "NetBox inventory export and enrichment",
		Version: a.version,
		Long: `netbox-connector reads a NetBox instance through its REST API.

It exports whole collections (devices, sites, prefixes, ...) as timestamped
events, enriches JSON records with the NetBox object they refer to, and
shows objects from the command line. Pagination is handled transparently.

Jobs and connection settings are read from $HOME/.netbox-connector.yaml or
./.netbox-connector.yaml, .env files and NETBOX_* environment variables.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})

	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands:",
	})

	rootCmd.PersistentFlags().String("config", "", "config file (default is $HOME/.netbox-connector.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	rootCmd.PersistentFlags().String("metrics-file", "", "write prometheus metrics to this file on exit")

	rootCmd.SetVersionTemplate("netbox-connector {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	// These flags are defined as persistent flags in createRootCommand, so errors indicate programming errors
	configFile := mustGetString(cmd, "config")
	verbose := mustGetBool(cmd, "verbose")
	quiet := mustGetBool(cmd, "quiet")
	noColor := mustGetBool(cmd, "no-color")
	logLevel := mustGetString(cmd, "log-level")
	metricsFile := mustGetString(cmd, "metrics-file")

	if configFile != "" {
		config, err := LoadConfig(configFile)
		if err != nil {
			return err
		}
		a.config = config
	}
	a.config.UpdateFromFlags(verbose, quiet, noColor, logLevel, metricsFile)

	// Reinitialize logger with updated config
	logger := NewLogger(a.config)
	a.logger = &logger

	a.logger.Debug().
		Str("config", a.config.ConfigFile).
		Int("jobs", len(a.config.Stanzas)).
		Msg("configuration loaded")
	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(a.NewExportCommand())
	rootCmd.AddCommand(a.NewLookupCommand())
	rootCmd.AddCommand(a.NewGetCommand())

	// Management commands
	rootCmd.AddCommand(a.NewValidateCommand())

	// Utility commands
	rootCmd.AddCommand(a.NewVersionCommand())
	rootCmd.AddCommand(a.NewManCommand())
}

// logError logs a failed command with the API status and payload when the
// failure came from NetBox, and whether a transport failure was network-level.
func logError(a *App, err error) {
	ev := a.logger.Error().Err(err)
	if apiErr, ok := errors.AsAPIError(err); ok {
		ev = ev.Int("status", apiErr.StatusCode).Interface("payload", apiErr.Payload)
	}
	if errors.IsTransport(err) {
		ev = ev.Bool("network", errors.IsNetworkError(err))
	}
	ev.Msg("command failed")
}

// ExitOnError is a helper that prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		//nolint:errcheck // Ignoring write error since we're exiting anyway
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
