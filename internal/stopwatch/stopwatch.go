// Package stopwatch implements an elapsed-time stopwatch with laps.
//
// Elapsed time is never accumulated tick by tick. The stopwatch keeps the
// time banked by earlier runs plus the instant the current run started, and
// derives the display value from the clock on every read.
//
// A Stopwatch is not safe for concurrent use; callers serialize access.
package stopwatch

import (
	"time"

	"github.com/aelexs/timekeeper/internal/domain"
	"github.com/aelexs/timekeeper/internal/reconstruct"
)

// Lap is one recorded lap. Split is the time since the previous lap and
// Total the elapsed time when the lap was taken.
type Lap struct {
	Split time.Duration
	Total time.Duration
}

// Stats summarizes lap splits. Indices refer to the Laps order, most recent
// first; ties resolve to the lowest index.
type Stats struct {
	Fastest      time.Duration
	Slowest      time.Duration
	Average      time.Duration
	FastestIndex int
	SlowestIndex int
}

// Stopwatch is the stopwatch state machine.
type Stopwatch struct {
	clock domain.Clock

	running      bool
	accumulated  time.Duration
	startedAt    time.Time
	laps         []Lap // most recent first
	lastLapTotal time.Duration
}

// New creates a stopped Stopwatch at zero.
func New(clock domain.Clock) *Stopwatch {
	return &Stopwatch{clock: clock}
}

// Start begins a run. It is ignored while running.
func (s *Stopwatch) Start() bool {
	if s.running {
		return false
	}
	s.running = true
	s.startedAt = s.clock.Now()
	return true
}

// Stop banks the current run. It is ignored while stopped.
func (s *Stopwatch) Stop() bool {
	if !s.running {
		return false
	}
	s.accumulated = s.Elapsed()
	s.startedAt = time.Time{}
	s.running = false
	return true
}

// Toggle starts a stopped stopwatch or stops a running one.
func (s *Stopwatch) Toggle() {
	if s.running {
		s.Stop()
		return
	}
	s.Start()
}

// Lap records a lap at the current elapsed time. It is ignored unless
// running.
func (s *Stopwatch) Lap() (Lap, bool) {
	if !s.running {
		return Lap{}, false
	}
	total := s.Elapsed()
	lap := Lap{Split: total - s.lastLapTotal, Total: total}
	s.laps = append([]Lap{lap}, s.laps...)
	s.lastLapTotal = total
	return lap, true
}

// Reset stops the stopwatch and discards all elapsed time and laps.
func (s *Stopwatch) Reset() {
	s.running = false
	s.accumulated = 0
	s.startedAt = time.Time{}
	s.laps = nil
	s.lastLapTotal = 0
}

// Elapsed returns the total elapsed time. It never returns less than the
// time banked by previous runs, even if the wall clock steps backwards.
func (s *Stopwatch) Elapsed() time.Duration {
	return reconstruct.Elapsed(s.accumulated, s.startedAt, s.running, s.clock.Now())
}

// IsRunning reports whether a run is in progress.
func (s *Stopwatch) IsRunning() bool { return s.running }

// Laps returns a copy of the laps, most recent first.
func (s *Stopwatch) Laps() []Lap {
	out := make([]Lap, len(s.laps))
	copy(out, s.laps)
	return out
}

// LastLapTotal returns the elapsed time at the most recent lap.
func (s *Stopwatch) LastLapTotal() time.Duration { return s.lastLapTotal }

// Stats summarizes the lap splits. It reports false with fewer than two
// laps, where a fastest/slowest comparison is meaningless.
func (s *Stopwatch) Stats() (Stats, bool) {
	if len(s.laps) < 2 {
		return Stats{}, false
	}
	st := Stats{Fastest: s.laps[0].Split, Slowest: s.laps[0].Split}
	var sum time.Duration
	for i, l := range s.laps {
		sum += l.Split
		if l.Split < st.Fastest {
			st.Fastest = l.Split
			st.FastestIndex = i
		}
		if l.Split > st.Slowest {
			st.Slowest = l.Split
			st.SlowestIndex = i
		}
	}
	st.Average = sum / time.Duration(len(s.laps))
	return st, true
}
