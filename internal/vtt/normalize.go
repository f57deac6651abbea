package vtt

import (
	"fmt"
	"sort"
)

// Normalize returns cues sorted by start with no two cues colliding. Cues
// that collide with nothing are kept as they are. Every run of
// transitively colliding cues is replaced by one cue per window between
// consecutive start/end instants of the run. The input is not modified.
func Normalize(cues []Cue) ([]Cue, error) {
	sorted := make([]Cue, len(cues))
	copy(sorted, cues)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End > sorted[j].End
		}
		return sorted[i].Start < sorted[j].Start
	})

	out := make([]Cue, 0, len(sorted))
	for i := 0; i < len(sorted); {
		j, runEnd := i+1, sorted[i].End
		// Sorted by start, so a cue collides with an earlier one exactly
		// when it starts before the latest end seen so far.
		for j < len(sorted) && sorted[j].Start < runEnd {
			if sorted[j].End > runEnd {
				runEnd = sorted[j].End
			}
			j++
		}
		if j-i == 1 {
			out = append(out, sorted[i])
		} else {
			fused, err := fuse(sorted[i:j])
			if err != nil {
				return nil, err
			}
			out = append(out, fused...)
		}
		i = j
	}
	return out, nil
}

// fuse cuts a run at every start and end instant. run is sorted by start
// ascending, end descending.
func fuse(run []Cue) ([]Cue, error) {
	seen := make(map[int]bool, 2*len(run))
	var points []int
	for _, c := range run {
		for _, t := range []int{c.Start, c.End} {
			if !seen[t] {
				seen[t] = true
				points = append(points, t)
			}
		}
	}
	sort.Ints(points)

	out := make([]Cue, 0, len(points)-1)
	for k := 0; k+1 < len(points); k++ {
		a, b := points[k], points[k+1]
		var lines []string
		covered := false
		for i := len(run) - 1; i >= 0; i-- {
			if !run[i].covers(a, b) {
				continue
			}
			if covered {
				lines = append(lines, ParagraphBreak)
			}
			covered = true
			lines = append(lines, run[i].Lines...)
		}
		if !covered {
			return nil, fmt.Errorf("%w: [%s, %s)", ErrUncoveredWindow, FormatTimestamp(a), FormatTimestamp(b))
		}
		out = append(out, Cue{Start: a, End: b, Lines: lines})
	}
	return out, nil
}

// Collisions counts the pairs of colliding cues.
func Collisions(cues []Cue) int {
	n := 0
	for i := range cues {
		for j := i + 1; j < len(cues); j++ {
			if cues[i].Collides(cues[j]) {
				n++
			}
		}
	}
	return n
}
