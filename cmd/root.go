// Package cmd defines and implements the CLI commands for the ecfr-tracker executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fedreg/ecfr-tracker/internal/config"
	"github.com/fedreg/ecfr-tracker/internal/logging"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ecfr-tracker",
		Short: "Tracks the size of federal regulations per agency.",
		Long: `ecfr-tracker fetches every CFR title from the eCFR API, measures its
size, aggregates the results per federal agency, and serves the data
over a read-only HTTP API with a daily scheduled refresh.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yaml in the working directory)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newFetchCmd())

	return cmd
}

// bootstrap loads configuration and builds the logger shared by all subcommands.
func bootstrap() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return cfg, logger, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "command failed: %v\n", err)
		os.Exit(1)
	}
}
