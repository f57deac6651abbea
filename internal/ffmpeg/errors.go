package ffmpeg

import "regexp"

// Pre-compiled regexes for classifying the stderr of a failed trial encode.
// [TrialState.Advance] checks the retryable ones in order.
var (
	reTextBitmapMismatch = regexp.MustCompile(
		`Subtitle encoding currently only possible from text to text or bitmap to bitmap`)

	reStrictRequired = regexp.MustCompile(
		`add '-strict -2'|add '-strict experimental'`)

	reContainerRejects = regexp.MustCompile(
		`is not supported by this format|` +
			`codec not currently supported in container|` +
			`No wav codec tag found for codec|` +
			`Could not find tag for codec .* in stream`)
)

// MatchTextBitmapMismatch reports whether a subtitle encoder was fed the
// wrong kind (text vs bitmap) of source subtitle.
func MatchTextBitmapMismatch(stderr string) bool {
	return reTextBitmapMismatch.MatchString(stderr)
}

// MatchStrictRequired reports whether the encoder is experimental and
// needs -strict -2.
func MatchStrictRequired(stderr string) bool {
	return reStrictRequired.MatchString(stderr)
}

// MatchContainerRejects reports the expected failure of a container that
// cannot hold the codec. Other failures are worth showing to the user.
func MatchContainerRejects(stderr string) bool {
	return reContainerRejects.MatchString(stderr)
}
