package alarm

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aelexs/timekeeper/internal/domain"
)

// ClockTime is a local wall-clock time of day at minute precision.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses a 24-hour "HH:MM" string.
func ParseClockTime(s string) (ClockTime, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(h) != 2 || len(m) != 2 {
		return ClockTime{}, fmt.Errorf("%w: %q", domain.ErrInvalidClockTime, s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return ClockTime{}, fmt.Errorf("%w: hour in %q", domain.ErrInvalidClockTime, s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("%w: minute in %q", domain.ErrInvalidClockTime, s)
	}
	return ClockTime{Hour: hour, Minute: minute}, nil
}

// ClockTimeOf returns the time of day of t in t's location.
func ClockTimeOf(t time.Time) ClockTime {
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}
}

// String formats c as "HH:MM".
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Format12h formats c as "7:05 AM".
func (c ClockTime) Format12h() string {
	period := "AM"
	if c.Hour >= 12 {
		period = "PM"
	}
	h := c.Hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, c.Minute, period)
}

// Before reports whether c is earlier in the day than o.
func (c ClockTime) Before(o ClockTime) bool {
	return c.minutes() < o.minutes()
}

func (c ClockTime) minutes() int { return c.Hour*60 + c.Minute }

// MarshalText implements encoding.TextMarshaler.
func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ClockTime) UnmarshalText(b []byte) error {
	parsed, err := ParseClockTime(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// TimeUntil returns the duration from now to the next occurrence of c in
// now's location: later today, or tomorrow if c is now or already passed.
func TimeUntil(c ClockTime, now time.Time) time.Duration {
	y, mo, d := now.Date()
	next := time.Date(y, mo, d, c.Hour, c.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(y, mo, d+1, c.Hour, c.Minute, 0, 0, now.Location())
	}
	return next.Sub(now)
}

// FormatUntil renders a TimeUntil result as "45m" or "7h 5m".
func FormatUntil(d time.Duration) string {
	hours := int(d / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	if hours == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
