package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/aelexs/timekeeper/internal/domain"
	"github.com/aelexs/timekeeper/pkg/protocol"
)

// effects are side effects queued under the service lock and applied after
// it is released.
type effects struct {
	writes []pendingWrite
	notes  []Notification
	frames []*protocol.Frame
}

type pendingWrite struct {
	key     string
	value   []byte // nil means delete
	version uint64
}

func (s *Service) queueWriteLocked(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		// Snapshots are plain structs; this only fails on a programming error.
		s.logger.Error("marshal state", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	s.version++
	s.pending.writes = append(s.pending.writes, pendingWrite{key: key, value: data, version: s.version})
}

func (s *Service) queueDeleteLocked(key string) {
	s.version++
	s.pending.writes = append(s.pending.writes, pendingWrite{key: key, version: s.version})
}

func (s *Service) saveTimerLocked() {
	s.queueWriteLocked(domain.TimerStateKey, s.countdown.Snapshot())
}

func (s *Service) saveStopwatchLocked() {
	s.queueWriteLocked(domain.StopwatchStateKey, s.stopwatch.Snapshot())
}

func (s *Service) saveAlarmsLocked() {
	s.queueWriteLocked(domain.AlarmsStateKey, s.alarms.Snapshot())
}

func (s *Service) saveZonesLocked() {
	s.queueWriteLocked(domain.WorldClockKey, s.zones.Snapshot())
}

func (s *Service) publishLocked(t protocol.FrameType, payload any) {
	frame, err := protocol.NewFrame(t, payload)
	if err != nil {
		s.logger.Error("build event frame", slog.String("type", string(t)), slog.String("error", err.Error()))
		return
	}
	s.pending.frames = append(s.pending.frames, frame)
}

func (s *Service) changedLocked(component, action string) {
	s.publishLocked(protocol.FrameTypeStateChanged, protocol.StateChanged{Component: component, Action: action})
}

func (s *Service) apply(ctx context.Context, fx effects) {
	for _, w := range fx.writes {
		s.persist(ctx, w)
	}
	for _, f := range fx.frames {
		if dropped := s.events.publish(f); dropped > 0 {
			eventsDroppedTotal.Add(ctx, int64(dropped))
		}
	}
	for _, n := range fx.notes {
		s.notify(ctx, n)
	}
}

// persist writes w unless a newer version of the same key was already
// written by a concurrent operation.
func (s *Service) persist(ctx context.Context, w pendingWrite) {
	if s.store == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if s.lastWritten[w.key] >= w.version {
		return
	}

	op := "save"
	if w.value == nil {
		op = "delete"
	}
	var err error
	for attempt := 1; attempt <= domain.StoreWriteAttempts; attempt++ {
		err = s.write(ctx, w)
		if err == nil || !domain.IsRetryable(err) {
			break
		}
	}
	if err != nil {
		persistErrorsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("key", w.key),
			attribute.String("op", op),
		))
		s.logger.WarnContext(ctx, "persist state failed",
			slog.String("key", w.key),
			slog.String("op", op),
			slog.Bool("retryable", domain.IsRetryable(err)),
			slog.String("error", err.Error()),
		)
		return
	}
	s.lastWritten[w.key] = w.version
}

// write performs a single store operation for w. A missing key on delete
// is success.
func (s *Service) write(ctx context.Context, w pendingWrite) error {
	ctx, cancel := context.WithTimeout(ctx, domain.StoreOpTimeout)
	defer cancel()

	if w.value != nil {
		return s.store.Save(ctx, w.key, w.value)
	}
	if err := s.store.Delete(ctx, w.key); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Service) notify(ctx context.Context, n Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.WarnContext(ctx, "notification failed",
			slog.String("kind", n.Kind),
			slog.String("error", err.Error()),
		)
	}
}
