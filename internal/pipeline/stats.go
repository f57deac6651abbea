package pipeline

// RunStats tracks aggregate counters and byte totals across a batch run.
type RunStats struct {
	Total           int
	Current         int
	Planned         int
	Skipped         int
	Failed          int
	TotalInputBytes int64
	Scripts         []string // Written scripts, in processing order.
	Formats         map[string]int
}

// record counts an accepted plan for format.
func (s *RunStats) record(format string, inputBytes int64) {
	if s.Formats == nil {
		s.Formats = make(map[string]int)
	}
	s.Planned++
	s.Formats[format]++
	s.TotalInputBytes += inputBytes
}
