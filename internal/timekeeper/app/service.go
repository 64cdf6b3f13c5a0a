// Package app is the timekeeper use-case layer. A Service owns one
// countdown, one stopwatch, one alarm book, the world clock zones and the
// drift-corrected ticker, serializes every operation on them, and persists each record after it
// changes.
package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/aelexs/timekeeper/internal/alarm"
	"github.com/aelexs/timekeeper/internal/countdown"
	"github.com/aelexs/timekeeper/internal/domain"
	"github.com/aelexs/timekeeper/internal/stopwatch"
	"github.com/aelexs/timekeeper/internal/ticker"
	"github.com/aelexs/timekeeper/internal/worldclock"
	"github.com/aelexs/timekeeper/pkg/protocol"
)

var tracer = otel.Tracer("timekeeper/app")

var (
	ticksTotal          metric.Int64Counter
	tickDriftMs         metric.Int64Histogram
	timerCompletedTotal metric.Int64Counter
	fallbackPollsTotal  metric.Int64Counter
	persistErrorsTotal  metric.Int64Counter
	alarmsRungTotal     metric.Int64Counter
	eventsDroppedTotal  metric.Int64Counter
)

func init() {
	m := otel.Meter("timekeeper/app")

	ticksTotal, _ = m.Int64Counter("timekeeper_ticks_total",
		metric.WithDescription("Total ticks delivered by the drift-corrected ticker"))
	tickDriftMs, _ = m.Int64Histogram("timekeeper_tick_drift_ms",
		metric.WithDescription("Observed tick drift in milliseconds"),
		metric.WithUnit("ms"))
	timerCompletedTotal, _ = m.Int64Counter("timekeeper_timer_completions_total",
		metric.WithDescription("Total countdown runs that reached zero"))
	fallbackPollsTotal, _ = m.Int64Counter("timekeeper_fallback_polls_total",
		metric.WithDescription("Total countdown updates driven by the foreground loop"))
	persistErrorsTotal, _ = m.Int64Counter("timekeeper_persist_errors_total",
		metric.WithDescription("Total failed state store writes"))
	alarmsRungTotal, _ = m.Int64Counter("timekeeper_alarms_rung_total",
		metric.WithDescription("Total alarms that started ringing"))
	eventsDroppedTotal, _ = m.Int64Counter("timekeeper_events_dropped_total",
		metric.WithDescription("Total event frames dropped for slow subscribers"))
}

// StateStore persists opaque records by key.
type StateStore interface {
	// Load returns domain.ErrNotFound when the key is absent.
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Notification kinds.
const (
	KindTimerComplete = "timer_complete"
	KindAlarm         = "alarm"
)

// Notification is a user-facing alert.
type Notification struct {
	Kind  string
	Title string
	Body  string
	Tag   string
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// ServiceConfig holds the dependencies for Service.
type ServiceConfig struct {
	Store     StateStore
	Notifier  Notifier
	Clock     domain.Clock
	Scheduler ticker.Scheduler
	Logger    *slog.Logger

	// Location is where alarm times are interpreted and what world clock
	// offsets are measured against. Nil means time.Local.
	Location *time.Location

	TickInterval   time.Duration
	StallTimeout   time.Duration
	PollInterval   time.Duration
	DefaultSeconds int64
	SnoozeMinutes  int
}

// Service coordinates the timekeeping state machines.
type Service struct {
	store    StateStore
	notifier Notifier
	clock    domain.Clock
	logger   *slog.Logger

	tickInterval  time.Duration
	pollInterval  time.Duration
	snoozeMinutes int

	// mu guards the state machines and pending effects. Store writes and
	// notifications happen after it is released.
	mu        sync.Mutex
	countdown *countdown.Countdown
	stopwatch *stopwatch.Stopwatch
	alarms    *alarm.Book
	zones     *worldclock.Book
	ticker    *ticker.Ticker
	watchdog  *ticker.Watchdog
	pending   effects
	version   uint64

	persistMu   sync.Mutex
	lastWritten map[string]uint64

	events *broker

	closeOnce sync.Once
}

// NewService creates a Service. Call Init before serving requests.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = domain.DefaultPollInterval
	}
	tickInterval := cfg.TickInterval
	if tickInterval <= 0 {
		tickInterval = domain.DefaultTickInterval
	}
	stallTimeout := cfg.StallTimeout
	if stallTimeout <= 0 {
		stallTimeout = domain.DefaultStallTimeout
	}
	snooze := cfg.SnoozeMinutes
	if snooze <= 0 {
		snooze = domain.DefaultSnoozeMinutes
	}

	s := &Service{
		store:         cfg.Store,
		notifier:      cfg.Notifier,
		clock:         cfg.Clock,
		logger:        logger,
		tickInterval:  tickInterval,
		pollInterval:  pollInterval,
		snoozeMinutes: snooze,
		lastWritten:   make(map[string]uint64),
		events:        newBroker(domain.EventBufferSize),
	}
	s.countdown = countdown.New(countdown.Config{
		Clock:          cfg.Clock,
		Observer:       countdown.ObserverFunc(s.onCompleteLocked),
		DefaultSeconds: cfg.DefaultSeconds,
	})
	s.stopwatch = stopwatch.New(cfg.Clock)
	s.alarms = alarm.NewBook(cfg.Clock, cfg.Location)
	s.zones = worldclock.NewBook(cfg.Location)
	s.ticker = ticker.New(ticker.Config{
		Clock:     cfg.Clock,
		Scheduler: cfg.Scheduler,
		Listener:  tickListener{s},
		Logger:    logger.With(slog.String("component", "ticker")),
	})
	s.watchdog = ticker.NewWatchdog(s.ticker, stallTimeout, logger.With(slog.String("component", "watchdog")))
	return s
}

// Run drives the foreground loop until ctx is cancelled: alarm checks,
// stopwatch display ticks, and countdown updates while the ticker is
// degraded. It stops the ticker and closes subscriber streams on return.
func (s *Service) Run(ctx context.Context) error {
	t := time.NewTicker(s.pollInterval)
	defer t.Stop()
	defer s.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.Poll(ctx)
		}
	}
}

// Close stops the ticker and ends all subscriptions. It is safe to call
// more than once.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		s.ticker.Stop()
		s.events.close()
	})
}

// Poll runs one iteration of the foreground loop.
func (s *Service) Poll(ctx context.Context) {
	mutate(ctx, s, func() struct{} {
		now := s.clock.Now()

		if s.countdown.IsRunning() && s.watchdog.Degraded(now) {
			fallbackPollsTotal.Add(ctx, 1)
			s.countdown.Tick()
			if s.countdown.IsRunning() {
				s.publishLocked(protocol.FrameTypeTick, protocol.Tick{
					Source:           protocol.TickSourceTimer,
					RemainingSeconds: s.countdown.Remaining(),
					Fallback:         true,
				})
			}
		}

		if a, ok := s.alarms.Check(now); ok {
			alarmsRungTotal.Add(ctx, 1)
			s.logger.InfoContext(ctx, "alarm ringing",
				slog.String("alarm_id", a.ID.String()),
				slog.String("time", a.Time.String()),
			)
			s.saveAlarmsLocked()
			s.publishLocked(protocol.FrameTypeAlarmRinging, protocol.AlarmRinging{Alarm: s.alarmViewLocked(a, now)})
			s.pending.notes = append(s.pending.notes, Notification{
				Kind:  KindAlarm,
				Title: "Alarm",
				Body:  a.Label,
				Tag:   "alarm",
			})
		}

		if s.stopwatch.IsRunning() {
			s.publishLocked(protocol.FrameTypeTick, protocol.Tick{
				Source:    protocol.TickSourceStopwatch,
				ElapsedMs: s.stopwatch.Elapsed().Milliseconds(),
			})
		}
		return struct{}{}
	})
}

// mutate runs fn under the service lock, then applies the effects fn
// queued: store writes, notifications, and event frames.
func mutate[T any](ctx context.Context, s *Service, fn func() T) T {
	s.mu.Lock()
	v := fn()
	fx := s.pending
	s.pending = effects{}
	s.mu.Unlock()

	s.apply(ctx, fx)
	return v
}

// tickListener adapts Service to ticker.Listener without exporting the
// callbacks.
type tickListener struct{ s *Service }

func (l tickListener) OnReady() {
	l.s.logger.Debug("ticker started")
}

func (l tickListener) OnStopped() {
	l.s.logger.Debug("ticker stopped")
}

func (l tickListener) OnTick(n int64, drift time.Duration) {
	s := l.s
	ctx := context.Background()
	ticksTotal.Add(ctx, 1)
	tickDriftMs.Record(ctx, drift.Milliseconds())

	mutate(ctx, s, func() struct{} {
		// Fires can race a pause or reset; the state decides, not the tick.
		if !s.countdown.IsRunning() {
			return struct{}{}
		}
		s.countdown.Tick()
		if s.countdown.IsRunning() {
			s.publishLocked(protocol.FrameTypeTick, protocol.Tick{
				Source:           protocol.TickSourceTimer,
				TickCount:        n,
				DriftMs:          drift.Milliseconds(),
				RemainingSeconds: s.countdown.Remaining(),
			})
		}
		return struct{}{}
	})
}

// onCompleteLocked is the countdown observer. It always runs with s.mu
// held because the countdown is only touched under the lock.
func (s *Service) onCompleteLocked(c countdown.Completion) {
	timerCompletedTotal.Add(context.Background(), 1)
	s.logger.Info("timer completed",
		slog.Int64("session", c.Session),
		slog.Int64("total_seconds", c.TotalSeconds),
		slog.Bool("while_away", c.WhileAway),
	)

	s.ticker.Stop()
	s.saveTimerLocked()
	s.publishLocked(protocol.FrameTypeTimerCompleted, protocol.TimerCompleted{
		CompletedAt:  domain.ToMillis(c.CompletedAt),
		TotalSeconds: c.TotalSeconds,
		Session:      c.Session,
		WhileAway:    c.WhileAway,
	})
	s.pending.notes = append(s.pending.notes, Notification{
		Kind:  KindTimerComplete,
		Title: "Timer complete",
		Body:  "Your focus session has ended.",
		Tag:   "timer-complete",
	})
}

// syncTickerLocked starts or stops the ticker to match the countdown.
func (s *Service) syncTickerLocked() {
	running := s.countdown.IsRunning()
	switch {
	case running && !s.ticker.Running():
		if err := s.ticker.Start(s.tickInterval); err != nil {
			s.logger.Warn("ticker unavailable, countdown continues in foreground loop",
				slog.String("error", err.Error()))
		}
	case !running && s.ticker.Running():
		s.ticker.Stop()
	}
}
