package ffmpeg

// RetryAction identifies which fix was applied (or none).
type RetryAction int

const (
	RetryNone       RetryAction = iota
	RetryNextStream             // Encode the second stream of the type instead.
	RetryStrict                 // Allow experimental encoders (-strict -2).
)

const maxTrialAttempts = 3

// TrialState tracks which fixes have been applied across the attempts of
// one trial encode.
type TrialState struct {
	Attempt     int
	MaxAttempts int

	Strict      bool
	StreamIndex int
}

// NewTrialState returns the state of a first attempt.
func NewTrialState() *TrialState {
	return &TrialState{MaxAttempts: maxTrialAttempts}
}

// Advance inspects stderr from a failed attempt, applies the first fix
// that matches and has not been applied yet, and returns it. Returns
// RetryNone when nothing matches or the attempt limit is reached.
//
// Pattern evaluation order: text/bitmap subtitle mismatch, then
// experimental encoder.
func (s *TrialState) Advance(stderr string) RetryAction {
	s.Attempt++
	if s.Attempt >= s.MaxAttempts {
		return RetryNone
	}
	if s.StreamIndex == 0 && MatchTextBitmapMismatch(stderr) {
		s.StreamIndex = 1
		return RetryNextStream
	}
	if !s.Strict && MatchStrictRequired(stderr) {
		s.Strict = true
		return RetryStrict
	}
	return RetryNone
}

// Apply copies the current fixes onto t.
func (s *TrialState) Apply(t *Trial) {
	t.Strict = s.Strict
	t.StreamIndex = s.StreamIndex
}
