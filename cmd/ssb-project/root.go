package main

import (
	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/statisticsnorway/ssb-project/internal/config"
	"github.com/statisticsnorway/ssb-project/internal/errlog"
	"github.com/statisticsnorway/ssb-project/internal/gitconfig"
	"github.com/statisticsnorway/ssb-project/internal/runner"
)

var (
	verbose bool

	// Assembled once per invocation in PersistentPreRunE. Package-level so
	// command implementations and tests share the same seams.
	cfg      *config.Config
	logger   *zap.Logger
	run      runner.Runner
	verifier gitconfig.Verifier
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ssb-project",
		Short:   "Create, build and clean data-science project environments",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c, err := config.Load()
			if err != nil {
				return err
			}
			cfg = c
			logger = errlog.NewLogger(cfg.HomeDir, verbose)
			run = runner.NewExec(logger)
			verifier = &gitconfig.Checker{Runner: run}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Trace tool invocations in the debug log")

	cmd.AddCommand(
		newCreateCmd(),
		newBuildCmd(),
		newCleanCmd(),
		newDoctorCmd(),
	)

	return cmd
}
