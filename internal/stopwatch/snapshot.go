package stopwatch

import (
	"fmt"
	"time"

	"github.com/aelexs/timekeeper/internal/domain"
)

// LapRecord is the persisted form of a Lap, in milliseconds.
type LapRecord struct {
	SplitMs int64 `json:"split_ms"`
	TotalMs int64 `json:"total_ms"`
}

// Snapshot is the persisted form of a Stopwatch. Times are milliseconds;
// AnchorStartTime is epoch milliseconds and 0 when not running.
type Snapshot struct {
	AccumulatedMs   int64       `json:"accumulated_ms"`
	AnchorStartTime int64       `json:"anchor_start_time,omitempty"`
	IsRunning       bool        `json:"is_running"`
	Laps            []LapRecord `json:"laps"`
	LastLapTotalMs  int64       `json:"last_lap_total_ms"`
}

// Snapshot captures the stopwatch for persistence.
func (s *Stopwatch) Snapshot() Snapshot {
	snap := Snapshot{
		AccumulatedMs:  s.accumulated.Milliseconds(),
		IsRunning:      s.running,
		Laps:           make([]LapRecord, len(s.laps)),
		LastLapTotalMs: s.lastLapTotal.Milliseconds(),
	}
	if s.running {
		snap.AnchorStartTime = domain.ToMillis(s.startedAt)
	}
	for i, l := range s.laps {
		snap.Laps[i] = LapRecord{SplitMs: l.Split.Milliseconds(), TotalMs: l.Total.Milliseconds()}
	}
	return snap
}

// Restore replaces the stopwatch's state with snap.
//
// A running snapshot with a start anchor resumes, so elapsed time includes
// the period the process was not running. A running snapshot without an
// anchor is restored stopped at its banked time. Out-of-range fields and
// malformed laps are reset individually, and the returned error wraps
// domain.ErrCorruptState so callers can log it; the stopwatch is usable
// either way.
func (s *Stopwatch) Restore(snap Snapshot) error {
	s.Reset()

	var problems []string

	if !validMs(snap.AccumulatedMs) {
		problems = append(problems, fmt.Sprintf("accumulated_ms %d", snap.AccumulatedMs))
	} else {
		s.accumulated = ms(snap.AccumulatedMs)
	}

	if !validMs(snap.LastLapTotalMs) {
		problems = append(problems, fmt.Sprintf("last_lap_total_ms %d", snap.LastLapTotalMs))
	} else {
		s.lastLapTotal = ms(snap.LastLapTotalMs)
	}

	for i, l := range snap.Laps {
		if !validMs(l.SplitMs) || !validMs(l.TotalMs) || l.SplitMs > l.TotalMs {
			problems = append(problems, fmt.Sprintf("lap %d", i))
			s.laps = nil
			break
		}
		s.laps = append(s.laps, Lap{Split: ms(l.SplitMs), Total: ms(l.TotalMs)})
	}

	switch {
	case snap.IsRunning && snap.AnchorStartTime > 0:
		s.running = true
		s.startedAt = domain.FromMillis(snap.AnchorStartTime)
	case snap.AnchorStartTime < 0:
		problems = append(problems, fmt.Sprintf("anchor_start_time %d", snap.AnchorStartTime))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: stopwatch fields reset: %v", domain.ErrCorruptState, problems)
	}
	return nil
}

func validMs(v int64) bool {
	return v >= 0 && v <= domain.MaxStopwatchMs
}

func ms(v int64) time.Duration {
	return time.Duration(v) * time.Millisecond
}
