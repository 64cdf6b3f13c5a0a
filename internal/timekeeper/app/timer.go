package app

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/aelexs/timekeeper/internal/countdown"
	"github.com/aelexs/timekeeper/internal/domain"
	"github.com/aelexs/timekeeper/pkg/protocol"
)

// TimerStatus returns the countdown's current status.
func (s *Service) TimerStatus(ctx context.Context) protocol.TimerStatus {
	return mutate(ctx, s, s.timerViewLocked)
}

// ConfigureTimer sets a new countdown duration. It is ignored while the
// countdown is running.
func (s *Service) ConfigureTimer(ctx context.Context, seconds int64) (protocol.TimerStatus, error) {
	ctx, span := tracer.Start(ctx, "timer.configure", trace.WithAttributes(attribute.Int64("seconds", seconds)))
	defer span.End()

	if seconds <= 0 || seconds > domain.MaxTimerSeconds {
		return protocol.TimerStatus{}, fmt.Errorf("%w: %d seconds", domain.ErrInvalidDuration, seconds)
	}
	return s.timerOp(ctx, "configure", func(c *countdown.Countdown) bool {
		return c.Configure(seconds)
	}), nil
}

// StartTimer starts or resumes the countdown.
func (s *Service) StartTimer(ctx context.Context) protocol.TimerStatus {
	ctx, span := tracer.Start(ctx, "timer.start")
	defer span.End()
	return s.timerOp(ctx, "start", (*countdown.Countdown).Start)
}

// PauseTimer pauses a running countdown.
func (s *Service) PauseTimer(ctx context.Context) protocol.TimerStatus {
	ctx, span := tracer.Start(ctx, "timer.pause")
	defer span.End()
	return s.timerOp(ctx, "pause", (*countdown.Countdown).Pause)
}

// ResetTimer returns the countdown to its configured duration.
func (s *Service) ResetTimer(ctx context.Context) protocol.TimerStatus {
	ctx, span := tracer.Start(ctx, "timer.reset")
	defer span.End()
	return s.timerOp(ctx, "reset", func(c *countdown.Countdown) bool {
		c.Reset()
		return true
	})
}

// AddTime extends the countdown. Non-positive values are ignored; a total
// beyond the maximum duration is rejected.
func (s *Service) AddTime(ctx context.Context, seconds int64) (protocol.TimerStatus, error) {
	ctx, span := tracer.Start(ctx, "timer.add_time", trace.WithAttributes(attribute.Int64("seconds", seconds)))
	defer span.End()

	if seconds > domain.MaxTimerSeconds {
		return protocol.TimerStatus{}, fmt.Errorf("%w: %d seconds", domain.ErrInvalidDuration, seconds)
	}
	return s.timerOp(ctx, "add_time", func(c *countdown.Countdown) bool {
		if c.Status().Total+seconds > domain.MaxTimerSeconds {
			return false
		}
		return c.AddTime(seconds)
	}), nil
}

// ClearTimer restores the default duration, zeroes the session count and
// removes the saved record.
func (s *Service) ClearTimer(ctx context.Context) protocol.TimerStatus {
	ctx, span := tracer.Start(ctx, "timer.clear")
	defer span.End()

	return mutate(ctx, s, func() protocol.TimerStatus {
		s.countdown.Clear()
		s.syncTickerLocked()
		s.queueDeleteLocked(domain.TimerStateKey)
		s.changedLocked(protocol.ComponentTimer, "clear")
		return s.timerViewLocked()
	})
}

func (s *Service) timerOp(ctx context.Context, action string, op func(*countdown.Countdown) bool) protocol.TimerStatus {
	return mutate(ctx, s, func() protocol.TimerStatus {
		if op(s.countdown) {
			s.syncTickerLocked()
			s.saveTimerLocked()
			s.changedLocked(protocol.ComponentTimer, action)
		}
		return s.timerViewLocked()
	})
}

func (s *Service) timerViewLocked() protocol.TimerStatus {
	st := s.countdown.Status()
	return protocol.TimerStatus{
		State:            st.State.String(),
		RemainingSeconds: st.Remaining,
		TotalSeconds:     st.Total,
		Progress:         st.Progress,
		SessionCount:     st.SessionCount,
		EndTime:          domain.ToMillis(st.EndTime),
		Ringing:          st.State == countdown.Completed,
	}
}
