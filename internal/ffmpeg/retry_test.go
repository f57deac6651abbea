package ffmpeg

import "testing"

const (
	stderrTextBitmap = "[dvdsub @ 0x55] Subtitle encoding currently only possible from text to text or bitmap to bitmap"
	stderrStrict     = "The encoder 'opus' is experimental but experimental codecs are not enabled, add '-strict -2' if you want to use it."
	stderrContainer  = "[mp4 @ 0x1] Could not find tag for codec pcm_s16le in stream #0, codec not currently supported in container"
)

func TestTrialState_Advance(t *testing.T) {
	tests := []struct {
		name   string
		stderr []string
		want   []RetryAction
	}{
		{"strict then give up", []string{stderrStrict, stderrStrict}, []RetryAction{RetryStrict, RetryNone}},
		{"next stream then strict", []string{stderrTextBitmap, stderrStrict}, []RetryAction{RetryNextStream, RetryStrict}},
		{"next stream once", []string{stderrTextBitmap, stderrTextBitmap}, []RetryAction{RetryNextStream, RetryNone}},
		{"container rejection is final", []string{stderrContainer}, []RetryAction{RetryNone}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewTrialState()
			for i, stderr := range tt.stderr {
				if got := s.Advance(stderr); got != tt.want[i] {
					t.Errorf("attempt %d: got %v, want %v", i+1, got, tt.want[i])
				}
			}
		})
	}
}

func TestTrialState_AttemptLimit(t *testing.T) {
	s := NewTrialState()
	s.Advance(stderrTextBitmap)
	s.Advance(stderrStrict)
	if got := s.Advance(stderrStrict); got != RetryNone {
		t.Errorf("third retry = %v, want RetryNone", got)
	}
	var tr Trial
	s.Apply(&tr)
	if !tr.Strict || tr.StreamIndex != 1 {
		t.Errorf("Apply() = %+v", tr)
	}
}

func TestMatchContainerRejects(t *testing.T) {
	if !MatchContainerRejects(stderrContainer) {
		t.Error("container rejection not recognized")
	}
	if MatchContainerRejects(stderrStrict) {
		t.Error("experimental encoder classified as container rejection")
	}
}
