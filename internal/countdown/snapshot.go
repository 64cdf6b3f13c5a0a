package countdown

import (
	"fmt"
	"time"

	"github.com/aelexs/timekeeper/internal/domain"
	"github.com/aelexs/timekeeper/internal/reconstruct"
)

// Snapshot is the persisted form of a Countdown. Times are epoch
// milliseconds.
type Snapshot struct {
	RemainingSeconds int64  `json:"remaining_seconds"`
	TotalSeconds     int64  `json:"total_seconds"`
	IsRunning        bool   `json:"is_running"`
	AnchorEndTime    int64  `json:"anchor_end_time,omitempty"`
	State            string `json:"state"`
	SessionCount     int64  `json:"session_count"`
	SavedAt          int64  `json:"saved_at"`
}

// Snapshot captures the countdown for persistence.
func (c *Countdown) Snapshot() Snapshot {
	s := Snapshot{
		RemainingSeconds: c.Remaining(),
		TotalSeconds:     c.total,
		IsRunning:        c.state == Running,
		State:            c.state.String(),
		SessionCount:     c.sessions,
		SavedAt:          domain.ToMillis(c.clock.Now()),
	}
	if c.state == Running {
		s.AnchorEndTime = domain.ToMillis(c.endTime)
	}
	return s
}

// Restore replaces the countdown's state with s.
//
// A running snapshot is recomputed from its end time. If that time has
// passed the countdown completes immediately and the observer is told the
// run finished while away. A running snapshot with no end time resumes as
// Paused at its stored remaining. An invalid snapshot resets the countdown
// to its idle default and returns an error wrapping domain.ErrCorruptState;
// the countdown is usable either way.
func (c *Countdown) Restore(s Snapshot) error {
	if err := validate(s); err != nil {
		c.total = c.defaultSeconds
		c.sessions = 0
		c.Reset()
		return err
	}

	state, _ := ParseState(s.State)
	c.total = s.TotalSeconds
	if c.total <= 0 {
		c.total = s.RemainingSeconds
	}
	c.sessions = s.SessionCount
	c.remaining = s.RemainingSeconds
	c.endTime = time.Time{}

	if s.IsRunning || state == Running {
		if s.AnchorEndTime > 0 {
			c.endTime = domain.FromMillis(s.AnchorEndTime)
			c.state = Running
			if reconstruct.RemainingSeconds(c.endTime, c.clock.Now()) <= 0 {
				c.complete(c.clock.Now(), true)
				return nil
			}
			c.remaining = reconstruct.RemainingSeconds(c.endTime, c.clock.Now())
			return nil
		}
		if c.remaining > 0 {
			c.state = Paused
		} else {
			c.Reset()
		}
		return nil
	}

	switch {
	case state == Completed:
		c.state = Completed
		c.remaining = 0
	case c.remaining == 0 && c.total > 0:
		// Saved at zero but not flagged complete: nothing to resume.
		c.Reset()
	case state == Paused || c.remaining < c.total:
		c.state = Paused
	default:
		c.state = Idle
	}
	return nil
}

func validate(s Snapshot) error {
	switch {
	case s.RemainingSeconds < 0 || s.RemainingSeconds > domain.MaxTimerSeconds:
		return fmt.Errorf("%w: remaining_seconds %d out of range", domain.ErrCorruptState, s.RemainingSeconds)
	case s.TotalSeconds < 0 || s.TotalSeconds > domain.MaxTimerSeconds:
		return fmt.Errorf("%w: total_seconds %d out of range", domain.ErrCorruptState, s.TotalSeconds)
	case s.SessionCount < 0:
		return fmt.Errorf("%w: session_count %d negative", domain.ErrCorruptState, s.SessionCount)
	case s.AnchorEndTime < 0:
		return fmt.Errorf("%w: anchor_end_time %d negative", domain.ErrCorruptState, s.AnchorEndTime)
	}
	if _, err := ParseState(s.State); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCorruptState, err)
	}
	if s.TotalSeconds == 0 && s.RemainingSeconds == 0 && !s.IsRunning && s.State != Completed.String() {
		return fmt.Errorf("%w: zero-length countdown", domain.ErrCorruptState)
	}
	return nil
}
