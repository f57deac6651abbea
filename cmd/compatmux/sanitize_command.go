package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backmassage/compatmux/internal/vtt"
)

// newSanitizeCommand is the normalization step generated scripts call on
// WebVTT subtitles before converting them to mov_text.
func newSanitizeCommand() *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "sanitize-vtt -i <in.vtt> -o <out.vtt>",
		Short: "Rewrite overlapping WebVTT cues into a disjoint timeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if in == "" || out == "" {
				return errors.New("both -i and -o are required")
			}
			st, err := vtt.SanitizeFile(in, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d cues in, %d colliding pairs, %d cues out\n", out, st.In, st.Collisions, st.Out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&in, "input", "i", "", "WebVTT file to read")
	cmd.Flags().StringVarP(&out, "output", "o", "", "WebVTT file to write")
	return cmd
}
