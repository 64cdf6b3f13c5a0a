package domain

import "time"

// Clock provides the current time. Implementations may be real (production)
// or deterministic (testing). State machines never call time.Now directly;
// every anchor they persist is read from an injected Clock.
type Clock interface {
	// Now returns the current time. The returned time includes both wall clock
	// and monotonic readings when using RealClock.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns time.Now().
func (RealClock) Now() time.Time {
	return time.Now()
}

// NowUTCMillis returns the current wall clock as UTC milliseconds since epoch.
// All persisted anchors use this representation.
func NowUTCMillis(c Clock) int64 {
	return c.Now().UTC().UnixMilli()
}

// FromMillis converts epoch milliseconds to time.Time.
// The returned time has no monotonic reading (safe for serialization/comparison).
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// ToMillis converts t to epoch milliseconds. The zero time maps to 0 so that
// absent anchors round-trip as "not set".
func ToMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMilli()
}

// Ensure RealClock implements Clock at compile time.
var _ Clock = RealClock{}
