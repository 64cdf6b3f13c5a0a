// Package countdown implements the countdown timer state machine.
//
// The remaining time is never decremented. While running the countdown holds
// an absolute end time, and every read recomputes remaining seconds from it,
// so a process that is suspended mid-run resumes with the correct value and
// completes exactly once.
//
// A Countdown is not safe for concurrent use; callers serialize access.
package countdown

import (
	"time"

	"github.com/aelexs/timekeeper/internal/domain"
	"github.com/aelexs/timekeeper/internal/reconstruct"
)

// Completion describes one run reaching zero.
type Completion struct {
	CompletedAt  time.Time
	TotalSeconds int64
	Session      int64
	// WhileAway is set when the run ended while the process was not
	// running and was detected on restore.
	WhileAway bool
}

// Observer is notified when a run completes.
type Observer interface {
	OnComplete(Completion)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Completion)

// OnComplete calls f(c).
func (f ObserverFunc) OnComplete(c Completion) { f(c) }

// Config holds the dependencies for a Countdown.
type Config struct {
	Clock    domain.Clock
	Observer Observer
	// DefaultSeconds is the duration used initially and by Clear.
	// Zero means domain.DefaultTimerSeconds.
	DefaultSeconds int64
}

// Status is a read-only view of a Countdown.
type Status struct {
	State        State
	Remaining    int64
	Total        int64
	EndTime      time.Time
	SessionCount int64
	Progress     float64
}

// Countdown is the countdown state machine.
type Countdown struct {
	clock          domain.Clock
	observer       Observer
	defaultSeconds int64

	state     State
	total     int64
	remaining int64 // authoritative only while not running
	endTime   time.Time
	sessions  int64
}

// New creates an idle Countdown at the default duration.
func New(cfg Config) *Countdown {
	def := cfg.DefaultSeconds
	if def <= 0 {
		def = domain.DefaultTimerSeconds
	}
	return &Countdown{
		clock:          cfg.Clock,
		observer:       cfg.Observer,
		defaultSeconds: def,
		state:          Idle,
		total:          def,
		remaining:      def,
	}
}

// Configure sets a new duration and returns to Idle. It is ignored while
// running or for a non-positive duration.
func (c *Countdown) Configure(totalSeconds int64) bool {
	if c.state == Running || totalSeconds <= 0 {
		return false
	}
	c.total = totalSeconds
	c.remaining = totalSeconds
	c.endTime = time.Time{}
	c.state = Idle
	return true
}

// Start begins or resumes the countdown. It is ignored when already running
// or when nothing remains.
func (c *Countdown) Start() bool {
	if c.state == Running || c.remaining <= 0 {
		return false
	}
	c.endTime = reconstruct.EndTime(c.clock.Now(), c.remaining)
	c.state = Running
	return true
}

// Pause freezes the remaining time. If the run has already reached zero it
// completes instead.
func (c *Countdown) Pause() bool {
	if c.state != Running {
		return false
	}
	now := c.clock.Now()
	rem := reconstruct.RemainingSeconds(c.endTime, now)
	if rem <= 0 {
		c.complete(now, false)
		return true
	}
	c.remaining = rem
	c.endTime = time.Time{}
	c.state = Paused
	return true
}

// Tick recomputes the remaining time from the end time and reports whether
// this call completed the run. Calls while not running are no-ops, so a run
// completes exactly once no matter how many ticks arrive.
func (c *Countdown) Tick() bool {
	if c.state != Running {
		return false
	}
	now := c.clock.Now()
	c.remaining = reconstruct.RemainingSeconds(c.endTime, now)
	if c.remaining > 0 {
		return false
	}
	c.complete(now, false)
	return true
}

// AddTime extends the countdown by deltaSeconds. A completed countdown is
// re-armed as Paused with deltaSeconds remaining.
func (c *Countdown) AddTime(deltaSeconds int64) bool {
	if deltaSeconds <= 0 {
		return false
	}
	c.total += deltaSeconds
	switch c.state {
	case Running:
		c.endTime = c.endTime.Add(time.Duration(deltaSeconds) * time.Second)
		c.remaining = reconstruct.RemainingSeconds(c.endTime, c.clock.Now())
	case Completed:
		c.remaining = deltaSeconds
		c.state = Paused
	default:
		c.remaining += deltaSeconds
	}
	return true
}

// Reset returns to Idle at the configured duration.
func (c *Countdown) Reset() {
	c.state = Idle
	c.remaining = c.total
	c.endTime = time.Time{}
}

// Clear restores the default duration and zeroes the session count.
func (c *Countdown) Clear() {
	c.total = c.defaultSeconds
	c.sessions = 0
	c.Reset()
}

func (c *Countdown) complete(now time.Time, whileAway bool) {
	completedAt := now
	if whileAway && !c.endTime.IsZero() {
		completedAt = c.endTime
	}
	c.state = Completed
	c.remaining = 0
	c.endTime = time.Time{}
	c.sessions++

	if c.observer != nil {
		c.observer.OnComplete(Completion{
			CompletedAt:  completedAt,
			TotalSeconds: c.total,
			Session:      c.sessions,
			WhileAway:    whileAway,
		})
	}
}

// Remaining returns the whole seconds left, computed from the end time while
// running. It does not change state.
func (c *Countdown) Remaining() int64 {
	if c.state == Running {
		return reconstruct.RemainingSeconds(c.endTime, c.clock.Now())
	}
	return c.remaining
}

// Progress returns remaining/total as a percentage, or 100 when the total
// is zero.
func (c *Countdown) Progress() float64 {
	if c.total <= 0 {
		return 100
	}
	return float64(c.Remaining()) / float64(c.total) * 100
}

// IsRunning reports whether the countdown is running.
func (c *Countdown) IsRunning() bool { return c.state == Running }

// State returns the lifecycle state.
func (c *Countdown) State() State { return c.state }

// Status returns a read-only view.
func (c *Countdown) Status() Status {
	return Status{
		State:        c.state,
		Remaining:    c.Remaining(),
		Total:        c.total,
		EndTime:      c.endTime,
		SessionCount: c.sessions,
		Progress:     c.Progress(),
	}
}
