package util

import "time"

// Stopwatch measures wall-clock time for simulation speed reporting.
type Stopwatch struct {
	start time.Time
}

func NewStopwatch() *Stopwatch {
	return &Stopwatch{start: time.Now()}
}

func (s *Stopwatch) Restart() {
	s.start = time.Now()
}

// Elapsed returns seconds since construction or the last Restart.
func (s *Stopwatch) Elapsed() float64 {
	return time.Since(s.start).Seconds()
}
