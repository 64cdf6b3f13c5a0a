package alarm

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aelexs/timekeeper/internal/domain"
)

// Book holds the alarms, sorted by time of day, and the ringing alarm.
type Book struct {
	clock domain.Clock
	loc   *time.Location
	newID func() domain.AlarmID

	alarms  []Alarm
	ringing domain.AlarmID
}

// NewBook creates an empty Book matching alarms in loc. A nil loc means
// time.Local.
func NewBook(clock domain.Clock, loc *time.Location) *Book {
	if loc == nil {
		loc = time.Local
	}
	return &Book{clock: clock, loc: loc, newID: domain.GenerateAlarmID}
}

// Add creates an enabled alarm at t.
func (b *Book) Add(t ClockTime, opts Options) (Alarm, error) {
	if err := validateRepeatDays(opts.RepeatDays); err != nil {
		return Alarm{}, err
	}
	if err := validateVolume(opts.Volume); err != nil {
		return Alarm{}, err
	}

	a := Alarm{
		ID:         b.newID(),
		Time:       t,
		Label:      opts.Label,
		Enabled:    true,
		RepeatDays: append([]time.Weekday{}, opts.RepeatDays...),
		SoundID:    opts.SoundID,
		Volume:     opts.Volume,
		Vibration:  true,
		CreatedAt:  domain.ToMillis(b.clock.Now()),
	}
	if a.Label == "" {
		a.Label = "Alarm " + t.Format12h()
	}
	if a.SoundID == "" {
		a.SoundID = DefaultSoundID
	}
	if a.Volume == 0 {
		a.Volume = DefaultVolume
	}
	if opts.Vibration != nil {
		a.Vibration = *opts.Vibration
	}

	b.alarms = append(b.alarms, a)
	b.sort()
	return a.clone(), nil
}

// Delete removes an alarm. Deleting the ringing alarm silences it.
func (b *Book) Delete(id domain.AlarmID) error {
	i := b.index(id)
	if i < 0 {
		return fmt.Errorf("alarm %s: %w", id, domain.ErrNotFound)
	}
	b.alarms = append(b.alarms[:i], b.alarms[i+1:]...)
	if b.ringing == id {
		b.ringing = domain.AlarmID{}
	}
	return nil
}

// Toggle flips an alarm between enabled and disabled and clears its snooze
// count.
func (b *Book) Toggle(id domain.AlarmID) (Alarm, error) {
	i := b.index(id)
	if i < 0 {
		return Alarm{}, fmt.Errorf("alarm %s: %w", id, domain.ErrNotFound)
	}
	a := &b.alarms[i]
	a.Enabled = !a.Enabled
	a.SnoozeCount = 0
	a.LastFiredAt = 0
	return a.clone(), nil
}

// Update applies p to an alarm.
func (b *Book) Update(id domain.AlarmID, p Patch) (Alarm, error) {
	i := b.index(id)
	if i < 0 {
		return Alarm{}, fmt.Errorf("alarm %s: %w", id, domain.ErrNotFound)
	}
	if p.RepeatDays != nil {
		if err := validateRepeatDays(*p.RepeatDays); err != nil {
			return Alarm{}, err
		}
	}
	if p.Volume != nil {
		if err := validateVolume(*p.Volume); err != nil {
			return Alarm{}, err
		}
	}

	a := &b.alarms[i]
	if p.Time != nil {
		a.Time = *p.Time
		a.LastFiredAt = 0
	}
	if p.Label != nil {
		a.Label = *p.Label
	}
	if p.Enabled != nil {
		a.Enabled = *p.Enabled
	}
	if p.RepeatDays != nil {
		a.RepeatDays = append([]time.Weekday{}, (*p.RepeatDays)...)
	}
	if p.SoundID != nil {
		a.SoundID = *p.SoundID
	}
	if p.Volume != nil {
		a.Volume = *p.Volume
	}
	if p.Vibration != nil {
		a.Vibration = *p.Vibration
	}
	updated := a.clone()
	b.sort()
	return updated, nil
}

// Get returns the alarm with the given id.
func (b *Book) Get(id domain.AlarmID) (Alarm, error) {
	i := b.index(id)
	if i < 0 {
		return Alarm{}, fmt.Errorf("alarm %s: %w", id, domain.ErrNotFound)
	}
	return b.alarms[i].clone(), nil
}

// List returns all alarms sorted by time of day.
func (b *Book) List() []Alarm {
	out := make([]Alarm, len(b.alarms))
	for i, a := range b.alarms {
		out[i] = a.clone()
	}
	return out
}

// Ringing returns the alarm currently ringing, if any.
func (b *Book) Ringing() (Alarm, bool) {
	if b.ringing.IsZero() {
		return Alarm{}, false
	}
	i := b.index(b.ringing)
	if i < 0 {
		return Alarm{}, false
	}
	return b.alarms[i].clone(), true
}

// Check starts ringing the first enabled alarm due at now, unless one is
// already ringing. It reports the alarm that started ringing.
func (b *Book) Check(now time.Time) (Alarm, bool) {
	if !b.ringing.IsZero() {
		return Alarm{}, false
	}
	local := now.In(b.loc)
	current := ClockTimeOf(local)
	minute := domain.ToMillis(local.Truncate(time.Minute))

	for i := range b.alarms {
		a := &b.alarms[i]
		if !a.Enabled || a.Time != current || !a.RepeatsOn(local.Weekday()) {
			continue
		}
		if a.LastFiredAt == minute {
			continue
		}
		a.LastFiredAt = minute
		b.ringing = a.ID
		return a.clone(), true
	}
	return Alarm{}, false
}

// Dismiss silences the ringing alarm. A one-shot alarm is disabled; a
// repeating alarm stays enabled for its next day.
func (b *Book) Dismiss() (Alarm, bool) {
	i := b.ringingIndex()
	if i < 0 {
		return Alarm{}, false
	}
	a := &b.alarms[i]
	if !a.Repeats() {
		a.Enabled = false
	}
	a.SnoozeCount = 0
	b.ringing = domain.AlarmID{}
	return a.clone(), true
}

// Snooze silences the ringing alarm and moves it to now plus minutes.
// A non-positive minutes uses domain.DefaultSnoozeMinutes.
func (b *Book) Snooze(minutes int) (Alarm, error) {
	if minutes <= 0 {
		minutes = domain.DefaultSnoozeMinutes
	}
	if !domain.IsValidSnooze(minutes) {
		return Alarm{}, fmt.Errorf("%w: snooze %d minutes", domain.ErrInvalidInput, minutes)
	}
	i := b.ringingIndex()
	if i < 0 {
		return Alarm{}, fmt.Errorf("no alarm ringing: %w", domain.ErrNotFound)
	}
	a := &b.alarms[i]
	a.Time = ClockTimeOf(b.clock.Now().In(b.loc).Add(time.Duration(minutes) * time.Minute))
	a.SnoozeCount++
	b.ringing = domain.AlarmID{}
	snoozed := a.clone()
	b.sort()
	return snoozed, nil
}

// TimeUntil returns the duration until the alarm next reaches its time of
// day.
func (b *Book) TimeUntil(a Alarm, now time.Time) time.Duration {
	return TimeUntil(a.Time, now.In(b.loc))
}

// Snapshot returns the alarms for persistence.
func (b *Book) Snapshot() []Alarm {
	return b.List()
}

// Restore replaces the book's alarms. Invalid entries and duplicate ids are
// dropped and reported with an error wrapping domain.ErrCorruptState; the
// valid remainder is kept. Nothing is ringing after a restore.
func (b *Book) Restore(alarms []Alarm) error {
	b.alarms = b.alarms[:0]
	b.ringing = domain.AlarmID{}

	var errs []error
	seen := make(map[domain.AlarmID]bool, len(alarms))
	for _, a := range alarms {
		if err := validate(a); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[a.ID] {
			errs = append(errs, fmt.Errorf("%w: duplicate alarm %s", domain.ErrCorruptState, a.ID))
			continue
		}
		seen[a.ID] = true
		b.alarms = append(b.alarms, a.clone())
	}
	b.sort()
	return errors.Join(errs...)
}

func (b *Book) sort() {
	sort.SliceStable(b.alarms, func(i, j int) bool {
		return b.alarms[i].Time.Before(b.alarms[j].Time)
	})
}

func (b *Book) index(id domain.AlarmID) int {
	for i, a := range b.alarms {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (b *Book) ringingIndex() int {
	if b.ringing.IsZero() {
		return -1
	}
	return b.index(b.ringing)
}
