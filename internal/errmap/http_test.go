package errmap_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aelexs/timekeeper/internal/domain"
	"github.com/aelexs/timekeeper/internal/errmap"
	"github.com/aelexs/timekeeper/pkg/protocol"
)

func TestToHTTPError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantStatusCode int
		wantCode       string
	}{
		// Nil error
		{"nil error", nil, http.StatusOK, ""},

		// Resource errors
		{"ErrNotFound", domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"ErrAlreadyExists", domain.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},

		// Authorization errors
		{"ErrUnauthorized", domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"ErrForbidden", domain.ErrForbidden, http.StatusForbidden, "PERMISSION_DENIED"},

		// Validation errors
		{"ErrInvalidInput", domain.ErrInvalidInput, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"ErrInvalidClockTime", domain.ErrInvalidClockTime, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"ErrInvalidDuration", domain.ErrInvalidDuration, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"ErrInvalidZone", domain.ErrInvalidZone, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"ErrEmptyID", domain.ErrEmptyID, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"ErrInvalidID", domain.ErrInvalidID, http.StatusBadRequest, "INVALID_ARGUMENT"},

		// Operational errors
		{"ErrUnavailable", domain.ErrUnavailable, http.StatusServiceUnavailable, "UNAVAILABLE"},
		{"ErrStoreUnavailable", domain.ErrStoreUnavailable, http.StatusServiceUnavailable, "UNAVAILABLE"},
		{"ErrSchedulerUnavailable", domain.ErrSchedulerUnavailable, http.StatusServiceUnavailable, "UNAVAILABLE"},

		// Wrapped errors
		{"wrapped ErrNotFound", fmt.Errorf("alarm: %w", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"joined ErrInvalidDuration", errors.Join(errors.New("configure"), domain.ErrInvalidDuration), http.StatusBadRequest, "INVALID_ARGUMENT"},

		// Unknown errors map to Internal
		{"unknown error", fmt.Errorf("unexpected"), http.StatusInternalServerError, "INTERNAL"},
		{"corrupt state is internal", domain.ErrCorruptState, http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errmap.ToHTTPError(tt.err)
			assert.Equal(t, tt.wantStatusCode, got.StatusCode, "expected status %d, got %d", tt.wantStatusCode, got.StatusCode)
			assert.Equal(t, tt.wantCode, got.Code, "expected code %q, got %q", tt.wantCode, got.Code)
		})
	}
}

func TestToHTTPError_HidesInternalDetails(t *testing.T) {
	got := errmap.ToHTTPError(errors.New("sqlite: disk I/O error at /var/lib/timekeeper.db"))

	assert.Equal(t, "internal error", got.Message)
}

func TestToHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"invalid clock time", domain.ErrInvalidClockTime, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errmap.ToHTTPStatusCode(tt.err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHTTPErrorImplementsError(t *testing.T) {
	httpErr := errmap.ToHTTPError(domain.ErrNotFound)
	var err error = httpErr
	assert.NotEmpty(t, err.Error())
}

func TestWriteHTTPError(t *testing.T) {
	rec := httptest.NewRecorder()

	errmap.WriteHTTPError(rec, fmt.Errorf("snooze: %w", domain.ErrNotFound))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body protocol.Error
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body.Code)
	assert.Contains(t, body.Message, "snooze")
}

func TestWriteStatus(t *testing.T) {
	rec := httptest.NewRecorder()

	errmap.WriteStatus(rec, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"code":"METHOD_NOT_ALLOWED","message":"method not allowed"}`, rec.Body.String())
}
