// Package errmap translates domain errors into transport responses.
package errmap

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aelexs/timekeeper/internal/domain"
	"github.com/aelexs/timekeeper/pkg/protocol"
)

// HTTPError represents an HTTP error response.
type HTTPError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e HTTPError) Error() string {
	return e.Message
}

// httpMapping defines a domain error to HTTP status/code mapping.
type httpMapping struct {
	err        error
	statusCode int
	code       string
}

// httpMappings maps domain errors to HTTP status codes and error codes.
// Order matters: first match wins (via errors.Is). Codes follow the
// grpc-gateway status names so clients see one vocabulary.
var httpMappings = []httpMapping{
	// Resource errors
	{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{domain.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},

	// Auth errors
	{domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHENTICATED"},
	{domain.ErrForbidden, http.StatusForbidden, "PERMISSION_DENIED"},

	// Validation errors: 400
	{domain.ErrInvalidInput, http.StatusBadRequest, "INVALID_ARGUMENT"},
	{domain.ErrInvalidClockTime, http.StatusBadRequest, "INVALID_ARGUMENT"},
	{domain.ErrInvalidDuration, http.StatusBadRequest, "INVALID_ARGUMENT"},
	{domain.ErrInvalidZone, http.StatusBadRequest, "INVALID_ARGUMENT"},
	{domain.ErrEmptyID, http.StatusBadRequest, "INVALID_ARGUMENT"},
	{domain.ErrInvalidID, http.StatusBadRequest, "INVALID_ARGUMENT"},

	// Availability
	{domain.ErrUnavailable, http.StatusServiceUnavailable, "UNAVAILABLE"},
	{domain.ErrStoreUnavailable, http.StatusServiceUnavailable, "UNAVAILABLE"},
	{domain.ErrNotifierUnavailable, http.StatusServiceUnavailable, "UNAVAILABLE"},
	{domain.ErrSchedulerUnavailable, http.StatusServiceUnavailable, "UNAVAILABLE"},
}

// ToHTTPError converts a domain error to an HTTP error.
func ToHTTPError(err error) HTTPError {
	if err == nil {
		return HTTPError{StatusCode: http.StatusOK}
	}
	for _, m := range httpMappings {
		if errors.Is(err, m.err) {
			return HTTPError{StatusCode: m.statusCode, Code: m.code, Message: err.Error()}
		}
	}
	// Never expose internal error details to clients
	return HTTPError{StatusCode: http.StatusInternalServerError, Code: "INTERNAL", Message: "internal error"}
}

// ToHTTPStatusCode extracts just the HTTP status code for a domain error.
func ToHTTPStatusCode(err error) int {
	return ToHTTPError(err).StatusCode
}

// WriteHTTPError writes err as a JSON protocol.Error body with the mapped
// status code.
func WriteHTTPError(w http.ResponseWriter, err error) {
	he := ToHTTPError(err)
	WriteStatus(w, he.StatusCode, he.Code, he.Message)
}

// WriteStatus writes a JSON protocol.Error body with an explicit status.
func WriteStatus(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(protocol.Error{Code: code, Message: message})
}
