package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/codes"

	"github.com/aelexs/timekeeper/internal/alarm"
	"github.com/aelexs/timekeeper/internal/countdown"
	"github.com/aelexs/timekeeper/internal/domain"
	"github.com/aelexs/timekeeper/internal/observability"
	"github.com/aelexs/timekeeper/internal/stopwatch"
)

// Init loads the persisted records and applies their reload rules: a
// running countdown resumes (or completes, if it ran out while the process
// was down) and a running stopwatch keeps counting from its anchor. Missing
// or corrupt records fall back to defaults; a missing zone list means the
// default zones. Init only fails if ctx is done.
func (s *Service) Init(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "service.init")
	defer span.End()

	logger := observability.WithTraceID(ctx, s.logger)

	timerData := s.load(ctx, logger, domain.TimerStateKey)
	stopwatchData := s.load(ctx, logger, domain.StopwatchStateKey)
	alarmsData := s.load(ctx, logger, domain.AlarmsStateKey)
	zonesData := s.load(ctx, logger, domain.WorldClockKey)
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("init: %w", err)
	}

	mutate(ctx, s, func() struct{} {
		if timerData != nil {
			var snap countdown.Snapshot
			err := json.Unmarshal(timerData, &snap)
			if err == nil {
				err = s.countdown.Restore(snap)
			} else {
				s.countdown.Clear()
				err = fmt.Errorf("%w: %w", domain.ErrCorruptState, err)
			}
			if err != nil {
				logger.WarnContext(ctx, "timer state reset to defaults", slog.String("error", err.Error()))
			}
			s.syncTickerLocked()
		}

		if stopwatchData != nil {
			var snap stopwatch.Snapshot
			err := json.Unmarshal(stopwatchData, &snap)
			if err == nil {
				err = s.stopwatch.Restore(snap)
			} else {
				s.stopwatch.Reset()
				err = fmt.Errorf("%w: %w", domain.ErrCorruptState, err)
			}
			if err != nil {
				logger.WarnContext(ctx, "stopwatch state reset", slog.String("error", err.Error()))
			}
		}

		if alarmsData != nil {
			var list []alarm.Alarm
			err := json.Unmarshal(alarmsData, &list)
			if err == nil {
				err = s.alarms.Restore(list)
			} else {
				_ = s.alarms.Restore(nil)
				err = fmt.Errorf("%w: %w", domain.ErrCorruptState, err)
			}
			if err != nil {
				logger.WarnContext(ctx, "alarms partially restored", slog.String("error", err.Error()))
			}
		}

		if zonesData != nil {
			var zones []string
			err := json.Unmarshal(zonesData, &zones)
			if err == nil {
				err = s.zones.Restore(zones)
			} else {
				s.zones.Reset()
				err = fmt.Errorf("%w: %w", domain.ErrCorruptState, err)
			}
			if err != nil {
				logger.WarnContext(ctx, "world clock zones partially restored", slog.String("error", err.Error()))
			}
		}

		st := s.countdown.Status()
		logger.InfoContext(ctx, "state restored",
			slog.String("timer_state", st.State.String()),
			slog.Int64("timer_remaining", st.Remaining),
			slog.Bool("stopwatch_running", s.stopwatch.IsRunning()),
			slog.Int("alarms", len(s.alarms.List())),
			slog.Int("zones", len(s.zones.Zones())),
		)
		return struct{}{}
	})
	return nil
}

// load returns the stored record, or nil when it is absent or unreadable.
func (s *Service) load(ctx context.Context, logger *slog.Logger, key string) []byte {
	if s.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, domain.StoreOpTimeout)
	defer cancel()

	data, err := s.store.Load(ctx, key)
	switch {
	case err == nil:
		return data
	case errors.Is(err, domain.ErrNotFound):
		logger.DebugContext(ctx, "no saved state", slog.String("key", key))
	default:
		logger.WarnContext(ctx, "load state failed, using defaults",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
