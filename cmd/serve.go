package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fedreg/ecfr-tracker/internal/app"
)

// newServeCmd creates the 'serve' subcommand, which runs the full service:
// the HTTP API, the daily refresh scheduler, and the initial data fetch.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the tracker service",
		Long: `Starts the HTTP API server along with the background scheduler.
If no snapshot exists on disk an initial fetch cycle is triggered at
startup, so fresh deployments become ready without waiting for the
next scheduled run.`,

		RunE: runServeCommand,
	}
	return cmd
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("init application: %w", err)
	}

	if err := a.Run(cmd.Context()); err != nil {
		logger.Error("service exited with error", zap.Error(err))
		return err
	}
	return nil
}
