// Package ticker implements a drift-corrected periodic ticker.
//
// A naive loop that schedules each fire at now+interval accumulates every
// scheduling delay into the next tick. This ticker keeps an absolute
// expected fire time and shortens the next delay by the drift observed on
// the current fire, so scheduler jitter never compounds.
//
// The expected fire time advances by exactly one interval per tick, never by
// skipping. When a fire arrives an interval or more late (the process was
// suspended or heavily throttled) the next delay clamps to zero, so the
// ticker fires back to back until it is on its grid again. Tick counts and
// wall time still diverge under throttling; consumers recompute from
// absolute anchors instead of counting ticks.
package ticker

import (
	"log/slog"
	"sync"
	"time"

	"github.com/aelexs/timekeeper/internal/domain"
)

// Listener receives ticker events. Callbacks run on the scheduler's
// goroutine, outside the ticker's lock, and may call Start or Stop.
type Listener interface {
	OnReady()
	OnTick(tickCount int64, drift time.Duration)
	OnStopped()
}

// Config holds the dependencies for a Ticker.
type Config struct {
	Clock     domain.Clock
	Scheduler Scheduler
	Listener  Listener
	Logger    *slog.Logger
}

// State is a point-in-time view of the ticker, for diagnostics.
type State struct {
	Running   bool
	Stalled   bool
	Interval  time.Duration
	Expected  time.Time
	TickCount int64
	Late      int64 // fires that arrived one interval or more behind
	LastTick  time.Time
}

// Ticker fires a Listener at a nominal interval, correcting for drift.
type Ticker struct {
	clock     domain.Clock
	scheduler Scheduler
	listener  Listener
	logger    *slog.Logger

	mu       sync.Mutex
	running  bool
	stalled  bool
	interval time.Duration
	expected time.Time
	count    int64
	late     int64
	catching bool // inside a burst of zero-delay catch-up fires
	lastTick time.Time
	gen      uint64 // bumped on every Start/Stop; fires from older generations are discarded
	pending  Timer
}

// New creates a stopped Ticker.
func New(cfg Config) *Ticker {
	listener := cfg.Listener
	if listener == nil {
		listener = nopListener{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Ticker{
		clock:     cfg.Clock,
		scheduler: cfg.Scheduler,
		listener:  listener,
		logger:    logger,
	}
}

// NextDelay returns the delay before the next fire given the drift observed
// on the current one: max(0, interval - drift).
func NextDelay(interval, drift time.Duration) time.Duration {
	d := interval - drift
	if d < 0 {
		return 0
	}
	return d
}

// Start begins ticking every interval, replacing any cycle already running.
// A non-positive interval uses domain.DefaultTickInterval. It returns
// domain.ErrSchedulerUnavailable if the first fire cannot be scheduled; the
// ticker is then stalled and callers should fall back to polling.
func (t *Ticker) Start(interval time.Duration) error {
	if interval <= 0 {
		interval = domain.DefaultTickInterval
	}

	t.mu.Lock()
	t.stopLocked()

	now := t.clock.Now()
	t.running = true
	t.interval = interval
	t.expected = now.Add(interval)
	t.lastTick = now
	gen := t.gen

	if t.scheduler == nil {
		t.stalled = true
		t.mu.Unlock()
		t.logger.Warn("ticker has no scheduler, falling back to polling")
		return domain.ErrSchedulerUnavailable
	}

	t.pending = t.scheduler.AfterFunc(interval, func() { t.fire(gen) })
	if t.pending == nil {
		t.stalled = true
		t.mu.Unlock()
		t.logger.Warn("ticker could not schedule first fire",
			slog.Duration("interval", interval),
		)
		return domain.ErrSchedulerUnavailable
	}
	t.mu.Unlock()

	t.listener.OnReady()
	return nil
}

// Stop cancels any pending fire synchronously and resets the counters.
// A fire already in flight when Stop runs is discarded. OnStopped is
// emitted only if the ticker was running.
func (t *Ticker) Stop() {
	t.mu.Lock()
	wasRunning := t.stopLocked()
	t.mu.Unlock()

	if wasRunning {
		t.listener.OnStopped()
	}
}

func (t *Ticker) stopLocked() bool {
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	wasRunning := t.running
	t.gen++
	t.running = false
	t.stalled = false
	t.count = 0
	t.late = 0
	t.catching = false
	t.expected = time.Time{}
	return wasRunning
}

func (t *Ticker) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || !t.running {
		t.mu.Unlock()
		return
	}

	now := t.clock.Now()
	t.count++
	count := t.count
	drift := now.Sub(t.expected)

	interval := t.interval
	behind := drift >= interval
	if behind {
		t.late++
	}
	warnBehind := behind && !t.catching
	t.catching = behind
	t.expected = t.expected.Add(interval)
	t.lastTick = now

	delay := NextDelay(interval, drift)
	t.pending = t.scheduler.AfterFunc(delay, func() { t.fire(gen) })
	stalled := t.pending == nil
	if stalled {
		// Ticking stops silently; the watchdog reports the gap.
		t.stalled = true
	}
	t.mu.Unlock()

	if warnBehind {
		t.logger.Warn("ticker behind schedule, catching up",
			slog.Int64("tick", count),
			slog.Duration("drift", drift),
			slog.Int64("intervals_behind", int64(drift/interval)),
		)
	} else if !behind && drift > domain.DriftWarnThreshold {
		t.logger.Warn("ticker drift",
			slog.Int64("tick", count),
			slog.Duration("drift", drift),
		)
	}
	if stalled {
		t.logger.Warn("ticker could not schedule next fire", slog.Int64("tick", count))
	}

	t.listener.OnTick(count, drift)
}

// State returns a snapshot of the ticker's counters.
func (t *Ticker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return State{
		Running:   t.running,
		Stalled:   t.stalled,
		Interval:  t.interval,
		Expected:  t.expected,
		TickCount: t.count,
		Late:      t.late,
		LastTick:  t.lastTick,
	}
}

// Running reports whether the ticker has been started and not stopped.
// A stalled ticker is still running.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Stalled reports whether the ticker is running but could not schedule its
// next fire.
func (t *Ticker) Stalled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stalled
}

type nopListener struct{}

func (nopListener) OnReady() {}

func (nopListener) OnTick(int64, time.Duration) {}

func (nopListener) OnStopped() {}
