package ticker

import "time"

// Timer is a pending scheduled callback.
type Timer interface {
	// Stop cancels the callback. It returns false if the callback already
	// ran or was already stopped.
	Stop() bool
}

// Scheduler runs f once after d. The Ticker depends on this interface
// rather than on time.AfterFunc so tests can fire callbacks by hand and so
// an execution context that cannot schedule can be modelled: a nil Timer
// return means scheduling is unavailable.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler implements Scheduler with time.AfterFunc.
type RealScheduler struct{}

// AfterFunc calls time.AfterFunc.
func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

var _ Scheduler = RealScheduler{}
