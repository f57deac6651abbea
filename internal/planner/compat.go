package planner

import (
	"github.com/backmassage/compatmux/internal/probe"
	"github.com/backmassage/compatmux/internal/rules"
)

// CheckCompatibility verifies that container can hold what pl produces for
// stream s, and also the original codec when keepOriginal is set. Dropped
// streams never reach the output and always pass. The returned error is a
// *CompatibilityError.
func CheckCompatibility(s probe.StreamInfo, pl Pipeline, container string, compat *rules.Compatibility, keepOriginal bool) error {
	if pl.IsDrop() {
		return nil
	}
	if keepOriginal && !compat.Supports(container, s.Codec) {
		return &CompatibilityError{Stream: s.Index, Codec: s.Codec, Container: container, Original: true}
	}
	if c := pl.FinalCodec(); c != "" && !compat.Supports(container, c) {
		return &CompatibilityError{Stream: s.Index, Codec: c, Container: container}
	}
	return nil
}
