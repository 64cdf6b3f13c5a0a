// Package domain contains pure business logic and types shared by the
// timekeeping state machines and their adapters.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// AlarmID is a value object representing a unique alarm identifier.
// Always valid in memory - use NewAlarmID to construct.
type AlarmID struct {
	value string
}

// NewAlarmID creates an AlarmID from a raw string, validating it is a valid UUID.
func NewAlarmID(raw string) (AlarmID, error) {
	if raw == "" {
		return AlarmID{}, ErrEmptyID
	}
	if _, err := uuid.Parse(raw); err != nil {
		return AlarmID{}, fmt.Errorf("invalid alarm ID %q: %w", raw, ErrInvalidID)
	}
	return AlarmID{value: raw}, nil
}

// MustAlarmID creates an AlarmID, panicking on invalid input. Use only in tests.
func MustAlarmID(raw string) AlarmID {
	id, err := NewAlarmID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// GenerateAlarmID creates a new random AlarmID.
func GenerateAlarmID() AlarmID {
	return AlarmID{value: uuid.NewString()}
}

func (id AlarmID) String() string { return id.value }
func (id AlarmID) IsZero() bool   { return id.value == "" }

// MarshalText implements encoding.TextMarshaler.
func (id AlarmID) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Invalid IDs are rejected.
func (id *AlarmID) UnmarshalText(b []byte) error {
	parsed, err := NewAlarmID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
