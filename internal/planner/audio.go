package planner

import (
	"fmt"

	"github.com/backmassage/compatmux/internal/probe"
)

// aacQuality is the native AAC encoder's VBR quality.
const aacQuality = "1.4"

// audioRule converts mono and stereo to AAC and anything wider to AC3.
func audioRule(o RuleOptions, log Logger) Rule {
	return func(s probe.StreamInfo, _ string) (Pipeline, error) {
		channels := s.Channels
		if channels < 1 {
			if o.StrictChannels {
				return nil, fmt.Errorf("%w: stream %d (audio) has no channel count", probe.ErrProbeFailure, s.Index)
			}
			log.Warn("Stream %d (audio) doesn't have a channel count. Assuming mono or stereo.", s.Index)
			channels = 2
		}
		if channels <= 2 {
			return Single(Convert{
				OutCodec: "aac",
				Params:   []Arg{Bind("-q:", SlotOutStream), Lit(aacQuality)},
			}), nil
		}
		return Single(Convert{OutCodec: "ac3"}), nil
	}
}
