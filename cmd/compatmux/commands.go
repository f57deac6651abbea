package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backmassage/compatmux/internal/check"
	"github.com/backmassage/compatmux/internal/config"
	"github.com/backmassage/compatmux/internal/pipeline"
	"github.com/backmassage/compatmux/internal/probe"
)

func newCheckCommand(flags *config.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report ffprobe, ffmpeg, mkvmerge and dotnet availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(flags, nil)
			if err != nil {
				return err
			}
			defer log.Close()
			check.RunCheck(cfg, log)
			return nil
		},
	}
}

func newAnalyzeCommand(flags *config.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [input_dir]",
		Short: "Print per-file bitrates and flag streams above the bitrate limit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(flags, args)
			if err != nil {
				return err
			}
			defer log.Close()
			if err := check.CheckDeps(cfg, nil); err != nil {
				return err
			}
			return pipeline.Analyze(cmd.Context(), cfg, log, probe.New().Probe, cmd.OutOrStdout())
		},
	}
}

func newConfigCommand(flags *config.Flags) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "sample",
		Short: "Print a sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), config.SampleConfig())
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration given by --config and flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.Resolve(nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration OK: mode %s, formats %v, bitrate limit %s\n", cfg.Mode, cfg.Formats, cfg.BitrateLimit)
			return nil
		},
	})
	return configCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "compatmux %s\n", version)
			return nil
		},
	}
}
