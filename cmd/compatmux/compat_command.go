package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/backmassage/compatmux/internal/check"
	"github.com/backmassage/compatmux/internal/config"
	"github.com/backmassage/compatmux/internal/display"
	"github.com/backmassage/compatmux/internal/ffmpeg"
	"github.com/backmassage/compatmux/internal/logging"
	"github.com/backmassage/compatmux/internal/rules"
)

func newCompatTableCommand() *cobra.Command {
	var containers []string
	var output string
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "compat-table <sample>",
		Short: "Build the container compatibility table by test-encoding a sample",
		Long: "compat-table encodes a few seconds of sample with every encoder ffmpeg\n" +
			"lists, once per container, and records which codecs each container accepts.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := check.CheckTesterDeps(); err != nil {
				return err
			}
			cfg := config.DefaultConfig()
			log := logging.NewWriterLogger(cmd.ErrOrStderr(), false)

			tester := check.NewTester(ffmpeg.NewBuilder(&cfg), log)
			compat, err := tester.Build(cmd.Context(), args[0], containers, nil)
			if err != nil {
				return err
			}

			format := rules.FormatOf(output)
			if asYAML {
				format = "yaml"
			}
			data, err := rules.MarshalCompatibility(compat, format)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write compatibility table: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, display.RenderCompat(compat))
			fmt.Fprintf(out, "Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&containers, "container", []string{"mp4", "mkv"}, "Containers to test (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", config.DefaultConfig().CompatTable, "Table file to write")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Write YAML regardless of the output extension")
	return cmd
}
