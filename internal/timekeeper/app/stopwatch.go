package app

import (
	"context"

	"github.com/aelexs/timekeeper/internal/domain"
	"github.com/aelexs/timekeeper/internal/stopwatch"
	"github.com/aelexs/timekeeper/pkg/protocol"
)

// StopwatchStatus returns the stopwatch's elapsed time, laps and lap stats.
func (s *Service) StopwatchStatus(ctx context.Context) protocol.StopwatchStatus {
	return mutate(ctx, s, s.stopwatchViewLocked)
}

// StartStopwatch starts the stopwatch.
func (s *Service) StartStopwatch(ctx context.Context) protocol.StopwatchStatus {
	return s.stopwatchOp(ctx, "start", (*stopwatch.Stopwatch).Start)
}

// StopStopwatch stops the stopwatch.
func (s *Service) StopStopwatch(ctx context.Context) protocol.StopwatchStatus {
	return s.stopwatchOp(ctx, "stop", (*stopwatch.Stopwatch).Stop)
}

// ToggleStopwatch starts a stopped stopwatch or stops a running one.
func (s *Service) ToggleStopwatch(ctx context.Context) protocol.StopwatchStatus {
	return s.stopwatchOp(ctx, "toggle", func(sw *stopwatch.Stopwatch) bool {
		sw.Toggle()
		return true
	})
}

// Lap records a lap. It is ignored unless the stopwatch is running.
func (s *Service) Lap(ctx context.Context) protocol.StopwatchStatus {
	return s.stopwatchOp(ctx, "lap", func(sw *stopwatch.Stopwatch) bool {
		_, ok := sw.Lap()
		return ok
	})
}

// ResetStopwatch zeroes the stopwatch and removes the saved record.
func (s *Service) ResetStopwatch(ctx context.Context) protocol.StopwatchStatus {
	ctx, span := tracer.Start(ctx, "stopwatch.reset")
	defer span.End()

	return mutate(ctx, s, func() protocol.StopwatchStatus {
		s.stopwatch.Reset()
		s.queueDeleteLocked(domain.StopwatchStateKey)
		s.changedLocked(protocol.ComponentStopwatch, "reset")
		return s.stopwatchViewLocked()
	})
}

func (s *Service) stopwatchOp(ctx context.Context, action string, op func(*stopwatch.Stopwatch) bool) protocol.StopwatchStatus {
	ctx, span := tracer.Start(ctx, "stopwatch."+action)
	defer span.End()

	return mutate(ctx, s, func() protocol.StopwatchStatus {
		if op(s.stopwatch) {
			s.saveStopwatchLocked()
			s.changedLocked(protocol.ComponentStopwatch, action)
		}
		return s.stopwatchViewLocked()
	})
}

func (s *Service) stopwatchViewLocked() protocol.StopwatchStatus {
	laps := s.stopwatch.Laps()
	view := protocol.StopwatchStatus{
		Running:        s.stopwatch.IsRunning(),
		ElapsedMs:      s.stopwatch.Elapsed().Milliseconds(),
		Laps:           make([]protocol.Lap, len(laps)),
		LastLapTotalMs: s.stopwatch.LastLapTotal().Milliseconds(),
	}
	for i, l := range laps {
		view.Laps[i] = protocol.Lap{
			Number:  len(laps) - i,
			SplitMs: l.Split.Milliseconds(),
			TotalMs: l.Total.Milliseconds(),
		}
	}
	if st, ok := s.stopwatch.Stats(); ok {
		view.Stats = &protocol.LapStats{
			FastestMs:    st.Fastest.Milliseconds(),
			SlowestMs:    st.Slowest.Milliseconds(),
			AverageMs:    st.Average.Milliseconds(),
			FastestIndex: st.FastestIndex,
			SlowestIndex: st.SlowestIndex,
		}
	}
	return view
}
