// Command boolnet decides attractors of Boolean networks.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rfielding/boolnet-ctl/internal/config"
	"github.com/rfielding/boolnet-ctl/internal/logging"
	"github.com/rfielding/boolnet-ctl/internal/telemetry"
)

var (
	// Global flags
	cfgPath    string
	verbose    bool
	updateFlag string
	seedFlag   int64

	// Set up by PersistentPreRunE
	cfg      *config.Config
	logger   *zap.Logger
	runID    string
	shutdown telemetry.Shutdown
)

var rootCmd = &cobra.Command{
	Use:   "boolnet",
	Short: "Attractor analysis of Boolean networks",
	Long: `boolnet locates the attractors of Boolean networks through their minimal trap
spaces and decides, by CTL model checking, whether those trap spaces are
univocal, faithful and complete.

Networks are read from bnet files, primes JSON files, or the built-in
repository with "repo:NAME".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("update") {
			cfg.Update = updateFlag
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = seedFlag
		}
		if cfg.Seed == 0 {
			cfg.Seed = time.Now().UnixNano()
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		logger, err = logging.New(cfg.Logging, verbose)
		if err != nil {
			return err
		}
		runID = uuid.NewString()
		logger = logger.With(zap.String("run_id", runID))
		logger.Debug("configuration loaded",
			zap.String("update", cfg.Update),
			zap.String("checker", cfg.Checker),
			zap.Int64("seed", cfg.Seed),
		)

		shutdown, err = telemetry.Init(cmd.Context(), cfg.Telemetry, runID, logger)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if shutdown != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				logger.Warn("telemetry shutdown failed", zap.Error(err))
			}
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "boolnet.yaml", "configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&updateFlag, "update", "u", "", "update mode: synchronous, asynchronous or mixed")
	rootCmd.PersistentFlags().Int64Var(&seedFlag, "seed", 0, "random seed (0 picks one)")

	rootCmd.AddCommand(
		attractorsCmd,
		completenessCmd,
		univocalityCmd,
		faithfulnessCmd,
		trapspacesCmd,
		checkCmd,
		stgCmd,
		reachCmd,
		smvCmd,
		watchCmd,
		kernelCmd,
	)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
