package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fedreg/ecfr-tracker/internal/app"
)

// newFetchCmd creates the 'fetch' subcommand. It runs a single fetch and
// aggregation cycle, persists the snapshot, and exits. Useful for cron-style
// deployments and for warming the data file before starting the server.
func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Runs one fetch cycle and exits",
		Long: `Fetches the current size of every CFR title from the eCFR API,
aggregates the results per agency, writes the snapshot to the
configured data file, and exits.`,

		RunE: runFetchCommand,
	}
	return cmd
}

func runFetchCommand(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("init application: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snap, err := a.Coordinator().RunCycle(ctx)
	if err != nil {
		return fmt.Errorf("fetch cycle: %w", err)
	}

	logger.Info("fetch cycle complete",
		zap.Int("agencies", snap.TotalAgencies),
		zap.Float64("total_size_mb", snap.TotalSizeMB),
	)
	return nil
}
