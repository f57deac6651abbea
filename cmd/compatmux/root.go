package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/backmassage/compatmux/internal/check"
	"github.com/backmassage/compatmux/internal/config"
	"github.com/backmassage/compatmux/internal/display"
	"github.com/backmassage/compatmux/internal/logging"
	"github.com/backmassage/compatmux/internal/pipeline"
	"github.com/backmassage/compatmux/internal/rules"
)

func newRootCommand() *cobra.Command {
	defaults := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "compatmux [flags] [input_dir]",
		Short: "Plan container-compatible conversions of mkv and mp4 files",
		Long: "compatmux probes every .mkv and .mp4 in input_dir, decides per stream how it\n" +
			"must be converted for the first output format that can hold it, and writes\n" +
			"one script per file with the ffmpeg commands to run.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := config.RegisterFlags(rootCmd.PersistentFlags(), &defaults)
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runPlan(cmd, flags, args)
	}

	rootCmd.AddCommand(newSanitizeCommand())
	rootCmd.AddCommand(newCompatTableCommand())
	rootCmd.AddCommand(newCheckCommand(flags))
	rootCmd.AddCommand(newAnalyzeCommand(flags))
	rootCmd.AddCommand(newConfigCommand(flags))
	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

// setup resolves the effective config for a command and opens the logger.
func setup(flags *config.Flags, args []string) (*config.Config, *logging.Logger, error) {
	cfg, err := flags.Resolve(args)
	if err != nil {
		return nil, nil, err
	}
	if exe, err := os.Executable(); err == nil {
		cfg.SelfPath = exe
	}
	log, err := logging.NewLogger(&cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	return &cfg, log, nil
}

func runPlan(cmd *cobra.Command, flags *config.Flags, args []string) error {
	cfg, log, err := setup(flags, args)
	if err != nil {
		return err
	}
	defer log.Close()

	display.PrintBanner(cmd.OutOrStdout(), version)

	if err := check.CheckDeps(cfg, log.Warn); err != nil {
		return err
	}

	fr, err := rules.LoadFormatRules(cfg.RulesFile)
	if err != nil {
		return err
	}
	compatPath := cfg.ResolveCompatTable(fileExists)
	compat, err := rules.LoadCompatibility(compatPath)
	if err != nil {
		return err
	}
	log.Debug("Compatibility table: %s", compatPath)

	runner, err := pipeline.NewRunner(cfg, log, fr, compat)
	if err != nil {
		return err
	}
	runner.Out = cmd.OutOrStdout()

	stats, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}
	if err := cmd.Context().Err(); err != nil {
		return err
	}
	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d files could not be planned", stats.Failed, stats.Total)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
