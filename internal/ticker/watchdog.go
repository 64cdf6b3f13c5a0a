package ticker

import (
	"log/slog"
	"sync"
	"time"
)

// Watchdog detects a ticker that is meant to be running but has stopped
// delivering ticks, either because scheduling failed or because fires are
// being throttled beyond the stall timeout.
type Watchdog struct {
	ticker  *Ticker
	timeout time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	degraded bool
}

// NewWatchdog creates a watchdog over t. A non-positive timeout uses three
// ticker intervals at check time.
func NewWatchdog(t *Ticker, timeout time.Duration, logger *slog.Logger) *Watchdog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watchdog{ticker: t, timeout: timeout, logger: logger}
}

// Degraded reports whether the ticker is running but has not ticked within
// the stall timeout as of now. Transitions are logged once each way.
func (w *Watchdog) Degraded(now time.Time) bool {
	st := w.ticker.State()

	degraded := false
	if st.Running {
		timeout := w.timeout
		if timeout <= 0 {
			timeout = 3 * st.Interval
		}
		degraded = st.Stalled || now.Sub(st.LastTick) > timeout
	}

	w.mu.Lock()
	changed := degraded != w.degraded
	w.degraded = degraded
	w.mu.Unlock()

	if changed {
		if degraded {
			w.logger.Warn("ticker degraded, polling in foreground",
				slog.Bool("stalled", st.Stalled),
				slog.Time("last_tick", st.LastTick),
			)
		} else {
			w.logger.Info("ticker recovered")
		}
	}
	return degraded
}
