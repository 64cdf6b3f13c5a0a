// Package reconstruct derives the authoritative value of a countdown or a
// stopwatch from wall-clock anchors. Nothing here depends on having run
// continuously: given an anchor and the current time the result is the same
// whether the process ticked every second or was suspended for an hour.
//
// All functions are pure and never return a negative duration.
package reconstruct

import "time"

// RemainingSeconds returns the whole seconds left until end, rounded up and
// clamped at zero: max(0, ceil((end - now) / 1s)).
func RemainingSeconds(end, now time.Time) int64 {
	return ceilSeconds(end.Sub(now))
}

// RemainingFromMillis is RemainingSeconds over epoch-millisecond anchors, the
// representation used by persisted records.
func RemainingFromMillis(endMs, nowMs int64) int64 {
	diff := endMs - nowMs
	if diff <= 0 {
		return 0
	}
	return (diff + 999) / 1000
}

// EndTime returns the instant a countdown with remainingSeconds left reaches
// zero when started at now.
func EndTime(now time.Time, remainingSeconds int64) time.Time {
	if remainingSeconds < 0 {
		remainingSeconds = 0
	}
	return now.Add(time.Duration(remainingSeconds) * time.Second)
}

// Elapsed returns accumulated + (now - anchor) while running, and accumulated
// alone otherwise. A missing anchor on a running stopwatch, a negative
// accumulated value, and a backwards wall-clock step all degrade to the
// accumulated value instead of producing a negative or shrinking result.
func Elapsed(accumulated time.Duration, anchor time.Time, running bool, now time.Time) time.Duration {
	if accumulated < 0 {
		accumulated = 0
	}
	if !running || anchor.IsZero() {
		return accumulated
	}
	gap := now.Sub(anchor)
	if gap < 0 {
		gap = 0
	}
	return accumulated + gap
}

// ElapsedFromMillis is Elapsed over epoch-millisecond values. An anchor of 0
// means "not set".
func ElapsedFromMillis(accumulatedMs, anchorMs int64, running bool, nowMs int64) int64 {
	if accumulatedMs < 0 {
		accumulatedMs = 0
	}
	if !running || anchorMs <= 0 {
		return accumulatedMs
	}
	gap := nowMs - anchorMs
	if gap < 0 {
		gap = 0
	}
	return accumulatedMs + gap
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}
