// Package worldclock keeps the ordered list of time zones shown next to the
// local clock and renders each one at a given instant.
package worldclock

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // zone names come from clients, not the host

	"github.com/aelexs/timekeeper/internal/domain"
)

type entry struct {
	name string
	loc  *time.Location
}

// Book is an ordered, duplicate-free list of IANA zones. It is not safe for
// concurrent use; the owner serializes access.
type Book struct {
	local *time.Location
	zones []entry
}

// NewBook returns a Book holding DefaultZones. Offsets are reported
// relative to local; a nil local means time.Local.
func NewBook(local *time.Location) *Book {
	if local == nil {
		local = time.Local
	}
	b := &Book{local: local}
	b.Reset()
	return b
}

// LoadZone resolves an IANA zone name. "UTC" is accepted; "Local" and the
// empty string are not, since they do not name a fixed zone.
func LoadZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "Local" {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidZone, name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidZone, name)
	}
	return loc, nil
}

// Add appends zone to the end of the list.
func (b *Book) Add(zone string) error {
	loc, err := LoadZone(zone)
	if err != nil {
		return err
	}
	if b.index(loc.String()) >= 0 {
		return fmt.Errorf("zone %s: %w", loc, domain.ErrAlreadyExists)
	}
	b.zones = append(b.zones, entry{name: loc.String(), loc: loc})
	return nil
}

// Remove deletes zone from the list.
func (b *Book) Remove(zone string) error {
	i := b.index(strings.TrimSpace(zone))
	if i < 0 {
		return fmt.Errorf("zone %s: %w", zone, domain.ErrNotFound)
	}
	b.zones = append(b.zones[:i], b.zones[i+1:]...)
	return nil
}

// Move takes the zone at index from and reinserts it at index to, shifting
// the zones in between.
func (b *Book) Move(from, to int) error {
	n := len(b.zones)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: move %d to %d with %d zones", domain.ErrInvalidInput, from, to, n)
	}
	if from == to {
		return nil
	}
	e := b.zones[from]
	b.zones = append(b.zones[:from], b.zones[from+1:]...)
	b.zones = append(b.zones[:to], append([]entry{e}, b.zones[to:]...)...)
	return nil
}

// Reset restores DefaultZones.
func (b *Book) Reset() {
	b.zones = b.zones[:0]
	for _, name := range DefaultZones {
		loc, err := LoadZone(name)
		if err != nil {
			continue
		}
		b.zones = append(b.zones, entry{name: name, loc: loc})
	}
}

// Zones returns the zone names in display order.
func (b *Book) Zones() []string {
	out := make([]string, len(b.zones))
	for i, e := range b.zones {
		out[i] = e.name
	}
	return out
}

// Local returns the location offsets are measured against.
func (b *Book) Local() *time.Location {
	return b.local
}

// Snapshot returns the zone names for persistence.
func (b *Book) Snapshot() []string {
	return b.Zones()
}

// Restore replaces the list with zones. Unknown and duplicate names are
// dropped and reported with an error wrapping domain.ErrCorruptState; the
// valid remainder is kept in order. An empty list stays empty.
func (b *Book) Restore(zones []string) error {
	b.zones = b.zones[:0]

	var errs []error
	for _, name := range zones {
		loc, err := LoadZone(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", domain.ErrCorruptState, err))
			continue
		}
		if b.index(loc.String()) >= 0 {
			errs = append(errs, fmt.Errorf("%w: duplicate zone %s", domain.ErrCorruptState, loc))
			continue
		}
		b.zones = append(b.zones, entry{name: loc.String(), loc: loc})
	}
	return errors.Join(errs...)
}

// Views renders every zone at now.
func (b *Book) Views(now time.Time) []View {
	out := make([]View, len(b.zones))
	for i, e := range b.zones {
		out[i] = Describe(e.loc, b.local, now)
	}
	return out
}

// LocalView renders the local clock at now.
func (b *Book) LocalView(now time.Time) View {
	v := Describe(b.local, b.local, now)
	v.IsLocal = true
	v.Diff = "Local"
	return v
}

func (b *Book) index(name string) int {
	for i, e := range b.zones {
		if e.name == name {
			return i
		}
	}
	return -1
}
