package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aelexs/timekeeper/internal/domain"
)

func TestAlarmID(t *testing.T) {
	validUUID := "550e8400-e29b-41d4-a716-446655440000"

	t.Run("valid UUID", func(t *testing.T) {
		id, err := domain.NewAlarmID(validUUID)
		require.NoError(t, err)
		assert.Equal(t, validUUID, id.String())
		assert.False(t, id.IsZero())
	})

	t.Run("empty string returns error", func(t *testing.T) {
		_, err := domain.NewAlarmID("")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrEmptyID)
	})

	t.Run("invalid UUID returns error", func(t *testing.T) {
		_, err := domain.NewAlarmID("alarm_1700000000_abc")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidID)
	})

	t.Run("generate creates valid ID", func(t *testing.T) {
		id := domain.GenerateAlarmID()
		assert.False(t, id.IsZero())

		parsed, err := domain.NewAlarmID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})

	t.Run("zero value", func(t *testing.T) {
		var id domain.AlarmID
		assert.True(t, id.IsZero())
	})

	t.Run("must panics on invalid input", func(t *testing.T) {
		assert.Panics(t, func() { domain.MustAlarmID("nope") })
	})

	t.Run("text round trip", func(t *testing.T) {
		id := domain.MustAlarmID("6f1c2d3e-4b5a-4c7d-8e9f-0a1b2c3d4e5f")

		text, err := id.MarshalText()
		require.NoError(t, err)

		var got domain.AlarmID
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, id, got)
		assert.ErrorIs(t, got.UnmarshalText([]byte("bogus")), domain.ErrInvalidID)
	})
}
