// Package main provides the entry point for the netbox-connector CLI tool.
package main

import (
	"context"
	"os"

	"github.com/agentstation/netbox-connector/cmd/netbox-connector/app"
	"github.com/agentstation/netbox-connector/pkg/constants"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	application, err := app.New(version, commit, date, builtBy)
	if err != nil {
		app.ExitOnError(err)
	}

	// Create context with signal handling for graceful shutdown
	ctx, cancel := app.ContextWithSignals(context.Background())
	defer cancel()

	runErr := application.Execute(ctx, os.Args[1:])

	// Fresh context: the signal context may already be cancelled
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer shutdownCancel()

	if shutdownErr := application.Shutdown(shutdownCtx); shutdownErr != nil && runErr == nil {
		runErr = shutdownErr
	}
	app.ExitOnError(runErr)
}
