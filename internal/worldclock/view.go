package worldclock

import (
	"fmt"
	"time"
)

// Daytime runs from 06:00 up to, not including, 18:00 in the zone.
const (
	dayStartHour = 6
	dayEndHour   = 18
)

// View is one zone rendered at an instant.
type View struct {
	Info

	Time    string // "15:04:05"
	Time12h string // "03:04:05 PM"
	Date    string // "Mon, Jan 2"
	Hour    int
	Minute  int
	Second  int
	IsDay   bool
	IsLocal bool

	// OffsetSeconds is the zone's UTC offset at the instant.
	OffsetSeconds int
	// DiffSeconds is OffsetSeconds minus the local UTC offset.
	DiffSeconds int
	// Diff is DiffSeconds as text: "Same time", "+5h30m", "-3h".
	Diff string
}

// Describe renders loc at now, with offsets measured against local. DST is
// taken from the instant, so the difference between two zones can change
// over the year.
func Describe(loc, local *time.Location, now time.Time) View {
	t := now.In(loc)
	_, off := t.Zone()
	_, localOff := now.In(local).Zone()

	info := Lookup(loc.String())
	if loc == time.Local {
		info = Info{City: "Local", Zone: loc.String()}
	}
	diff := off - localOff
	return View{
		Info:          info,
		Time:          t.Format("15:04:05"),
		Time12h:       t.Format("03:04:05 PM"),
		Date:          t.Format("Mon, Jan 2"),
		Hour:          t.Hour(),
		Minute:        t.Minute(),
		Second:        t.Second(),
		IsDay:         t.Hour() >= dayStartHour && t.Hour() < dayEndHour,
		OffsetSeconds: off,
		DiffSeconds:   diff,
		Diff:          FormatDiff(diff),
	}
}

// FormatDiff renders a zone difference in seconds. Half-hour and
// quarter-hour zones keep their minutes.
func FormatDiff(seconds int) string {
	if seconds == 0 {
		return "Same time"
	}
	return signed(seconds, "%s%dh", "%s%dm", "%s%dh%02dm")
}

// FormatUTCOffset renders an offset in seconds as "UTC+5:30", "UTC-5" or
// "UTC+0".
func FormatUTCOffset(seconds int) string {
	if seconds == 0 {
		return "UTC+0"
	}
	return "UTC" + signed(seconds, "%s%d", "%s0:%02d", "%s%d:%02d")
}

func signed(seconds int, hoursOnly, minutesOnly, both string) string {
	sign := "+"
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	h, m := seconds/3600, seconds%3600/60
	switch {
	case m == 0:
		return fmt.Sprintf(hoursOnly, sign, h)
	case h == 0:
		return fmt.Sprintf(minutesOnly, sign, m)
	default:
		return fmt.Sprintf(both, sign, h, m)
	}
}
