// Package alarm keeps the book of wall-clock alarms and decides when one
// rings.
//
// Alarms are matched at minute precision against local time. At most one
// alarm rings at a time; it stays ringing until dismissed or snoozed.
// A Book is not safe for concurrent use; callers serialize access.
package alarm

import (
	"fmt"
	"time"

	"github.com/aelexs/timekeeper/internal/domain"
)

// Defaults applied by Add when Options leave a field unset.
const (
	DefaultSoundID = "classic"
	DefaultVolume  = 80
)

// Alarm is one configured alarm. Times are epoch milliseconds.
type Alarm struct {
	ID          domain.AlarmID `json:"id"`
	Time        ClockTime      `json:"time"`
	Label       string         `json:"label"`
	Enabled     bool           `json:"enabled"`
	RepeatDays  []time.Weekday `json:"repeat_days"`
	SnoozeCount int            `json:"snooze_count"`
	SoundID     string         `json:"sound_id"`
	Volume      int            `json:"volume"`
	Vibration   bool           `json:"vibration"`
	CreatedAt   int64          `json:"created_at"`
	// LastFiredAt is the start of the minute the alarm last rang in, so it
	// rings at most once per matching minute.
	LastFiredAt int64 `json:"last_fired_at,omitempty"`
}

// Repeats reports whether the alarm has repeat days.
func (a Alarm) Repeats() bool { return len(a.RepeatDays) > 0 }

// RepeatsOn reports whether the alarm may ring on day. An alarm with no
// repeat days rings on any day.
func (a Alarm) RepeatsOn(day time.Weekday) bool {
	if !a.Repeats() {
		return true
	}
	for _, d := range a.RepeatDays {
		if d == day {
			return true
		}
	}
	return false
}

func (a Alarm) clone() Alarm {
	a.RepeatDays = append([]time.Weekday(nil), a.RepeatDays...)
	return a
}

// Options are the optional fields for Add.
type Options struct {
	Label      string
	RepeatDays []time.Weekday
	SoundID    string
	Volume     int
	Vibration  *bool
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Time       *ClockTime
	Label      *string
	Enabled    *bool
	RepeatDays *[]time.Weekday
	SoundID    *string
	Volume     *int
	Vibration  *bool
}

func validateRepeatDays(days []time.Weekday) error {
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("%w: repeat day %d", domain.ErrInvalidInput, int(d))
		}
	}
	return nil
}

func validateVolume(v int) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%w: volume %d not in 0..100", domain.ErrInvalidInput, v)
	}
	return nil
}

func validate(a Alarm) error {
	if a.ID.IsZero() {
		return fmt.Errorf("%w: alarm without id", domain.ErrCorruptState)
	}
	if a.Time.Hour < 0 || a.Time.Hour > 23 || a.Time.Minute < 0 || a.Time.Minute > 59 {
		return fmt.Errorf("%w: alarm %s time", domain.ErrCorruptState, a.ID)
	}
	if err := validateRepeatDays(a.RepeatDays); err != nil {
		return fmt.Errorf("%w: alarm %s: %w", domain.ErrCorruptState, a.ID, err)
	}
	if err := validateVolume(a.Volume); err != nil {
		return fmt.Errorf("%w: alarm %s: %w", domain.ErrCorruptState, a.ID, err)
	}
	if a.SnoozeCount < 0 {
		return fmt.Errorf("%w: alarm %s snooze_count", domain.ErrCorruptState, a.ID)
	}
	return nil
}
