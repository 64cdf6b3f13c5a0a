package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aelexs/timekeeper/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"ErrUnavailable", domain.ErrUnavailable, true},
		{"ErrStoreUnavailable", domain.ErrStoreUnavailable, true},
		{"ErrNotifierUnavailable", domain.ErrNotifierUnavailable, true},
		{"ErrNotFound", domain.ErrNotFound, false},
		{"ErrCorruptState", domain.ErrCorruptState, false},
		{"wrapped ErrStoreUnavailable", fmt.Errorf("redis: %w", domain.ErrStoreUnavailable), true},
		{"random error", errors.New("something else"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.IsRetryable(tt.err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsClientError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"ErrInvalidInput", domain.ErrInvalidInput, true},
		{"ErrInvalidClockTime", domain.ErrInvalidClockTime, true},
		{"ErrInvalidDuration", domain.ErrInvalidDuration, true},
		{"ErrInvalidZone", domain.ErrInvalidZone, true},
		{"ErrNotFound", domain.ErrNotFound, true},
		{"ErrAlreadyExists", domain.ErrAlreadyExists, true},
		{"ErrUnauthorized", domain.ErrUnauthorized, true},
		{"ErrEmptyID", domain.ErrEmptyID, true},
		{"ErrInvalidID", domain.ErrInvalidID, true},
		{"ErrUnavailable", domain.ErrUnavailable, false},
		{"ErrSchedulerUnavailable", domain.ErrSchedulerUnavailable, false},
		{"wrapped ErrNotFound", fmt.Errorf("alarm %s: %w", "123", domain.ErrNotFound), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.IsClientError(tt.err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"ErrNotFound", domain.ErrNotFound, true},
		{"ErrForbidden", domain.ErrForbidden, false},
		{"wrapped ErrNotFound", fmt.Errorf("alarm %s: %w", "123", domain.ErrNotFound), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.IsNotFound(tt.err)
			assert.Equal(t, tt.want, got)
		})
	}
}
