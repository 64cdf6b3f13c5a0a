// Package tickertest provides a manually driven ticker.Scheduler.
package tickertest

import (
	"sync"
	"time"

	"github.com/aelexs/timekeeper/internal/ticker"
)

// Scheduler records scheduled callbacks without running them. Tests fire
// them explicitly, usually after advancing a domaintest.FakeClock.
type Scheduler struct {
	mu          sync.Mutex
	entries     []*entry
	unavailable bool
}

type entry struct {
	s       *Scheduler
	delay   time.Duration
	fn      func()
	done    bool
	stopped bool
}

// Stop implements ticker.Timer.
func (e *entry) Stop() bool {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if e.done {
		return false
	}
	e.done = true
	e.stopped = true
	return true
}

// NewScheduler creates an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// AfterFunc records f. It returns nil while the scheduler is unavailable.
func (s *Scheduler) AfterFunc(d time.Duration, f func()) ticker.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable {
		return nil
	}
	e := &entry{s: s, delay: d, fn: f}
	s.entries = append(s.entries, e)
	return e
}

// SetUnavailable makes subsequent AfterFunc calls fail.
func (s *Scheduler) SetUnavailable(v bool) {
	s.mu.Lock()
	s.unavailable = v
	s.mu.Unlock()
}

// FireNext runs the oldest pending callback. It reports false if nothing
// is pending.
func (s *Scheduler) FireNext() bool {
	s.mu.Lock()
	var next *entry
	for _, e := range s.entries {
		if !e.done {
			next = e
			break
		}
	}
	if next == nil {
		s.mu.Unlock()
		return false
	}
	next.done = true
	s.mu.Unlock()

	next.fn()
	return true
}

// ForceFire runs the i-th recorded callback even if it was stopped,
// simulating a fire that was already in flight when Stop ran.
func (s *Scheduler) ForceFire(i int) {
	s.mu.Lock()
	fn := s.entries[i].fn
	s.mu.Unlock()
	fn()
}

// Pending returns the number of callbacks neither fired nor stopped.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if !e.done {
			n++
		}
	}
	return n
}

// Delays returns every recorded delay in scheduling order.
func (s *Scheduler) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.delay
	}
	return out
}

// LastDelay returns the most recently recorded delay, or -1 if none.
func (s *Scheduler) LastDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return -1
	}
	return s.entries[len(s.entries)-1].delay
}

// Len returns the number of recorded callbacks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

var _ ticker.Scheduler = (*Scheduler)(nil)
