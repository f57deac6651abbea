package planner

import (
	"strconv"
	"strings"

	"github.com/backmassage/compatmux/internal/probe"
)

const maxVideoWidth = 1920

// videoRule converts to 8-bit h264 no wider than 1080p, in one CRF pass or
// two bitrate-targeted passes.
func videoRule(o RuleOptions, log Logger) Rule {
	return func(s probe.StreamInfo, _ string) (Pipeline, error) {
		var params []Arg
		switch {
		case s.Width < 1 || s.Height < 1:
			log.Warn("Can't retrieve width or height for stream %d (video). Assuming resolution is <=1080p.", s.Index)
		case s.Width > maxVideoWidth:
			params = append(params, Bind("-filter:", SlotOutStream), Lit("scale=w="+strconv.Itoa(maxVideoWidth)+":h=-1"))
		}
		if isHighBitDepth(s.PixFmt) {
			params = append(params, Bind("-pix_fmt:", SlotOutStream), Lit("yuv420p"))
		}
		params = append(params, Lits("-preset", o.Preset)...)

		if o.TargetBitrate == "" {
			params = append(params, Lits("-crf", o.CRF)...)
			return Single(Convert{OutCodec: "h264", OutputFormat: "mp4", Params: params}), nil
		}

		params = append(params, Bind("-b:", SlotOutStream), Lit(o.TargetBitrate))
		return Pipeline{
			Convert{
				OutCodec:     "h264",
				OutputFormat: Discard,
				Params:       withArgs(params, Lits("-pass", "1", "-f", "mp4")),
				Note:         " (1/2 pass)",
			},
			Convert{
				OutCodec:     "h264",
				OutputFormat: "mp4",
				Params:       withArgs(params, Lits("-pass", "2")),
				Note:         " (2/2 pass)",
			},
		}, nil
	}
}

// isHighBitDepth matches 10- and 12-bit planar formats such as yuv420p10le.
func isHighBitDepth(pixFmt string) bool {
	for _, depth := range []string{"p10", "p12"} {
		if strings.Contains(pixFmt, depth) {
			return true
		}
	}
	return false
}

// withArgs returns a new slice holding base followed by extra, leaving base
// untouched.
func withArgs(base, extra []Arg) []Arg {
	out := make([]Arg, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}
