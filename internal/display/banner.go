package display

import (
	"fmt"
	"io"

	"github.com/backmassage/compatmux/internal/term"
)

// PrintBanner prints the program banner to w; uses Magenta if colors are enabled.
func PrintBanner(w io.Writer, version string) {
	fmt.Fprint(w, term.Magenta)
	fmt.Fprint(w, `                            _
  ___ ___  _ __ ___  _ __   __ _| |_ _ __ ___  _   ___  __
 / __/ _ \| '_ `+"`"+` _ \| '_ \ / _`+"`"+` | __| '_ `+"`"+` _ \| | | \ \/ /
| (_| (_) | | | | | | |_) | (_| | |_| | | | | | |_| |>  <
 \___\___/|_| |_| |_| .__/ \__,_|\__|_| |_| |_|\__,_/_/\_\
                    |_|
`)
	fmt.Fprint(w, term.NC)
	if version != "" {
		fmt.Fprintf(w, "%52s\n", version)
	}
}
