package domain

import "errors"

// Sentinel errors for domain error conditions.
// Use errors.Is() for matching - never compare error strings.
var (
	// ID validation errors
	ErrEmptyID   = errors.New("ID cannot be empty")
	ErrInvalidID = errors.New("invalid ID format")

	// Resource errors
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")

	// Authorization errors
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("permission denied")

	// Validation errors
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidClockTime = errors.New("invalid clock time, want HH:MM")
	ErrInvalidDuration  = errors.New("duration must be positive")
	ErrInvalidZone      = errors.New("unknown time zone")

	// State errors. ErrCorruptState is reported for logging only: the
	// affected machine has already been reset to its idle default.
	ErrCorruptState = errors.New("persisted state is corrupt")

	// Operational errors
	ErrUnavailable          = errors.New("service temporarily unavailable")
	ErrSchedulerUnavailable = errors.New("tick scheduler unavailable")
	ErrStoreUnavailable     = errors.New("state store unavailable")
	ErrNotifierUnavailable  = errors.New("notifier unavailable")

	// Configuration errors
	ErrConfigRequired = errors.New("required configuration key missing")
	ErrConfigInvalid  = errors.New("invalid configuration value")
)

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrNotifierUnavailable)
}

// clientErrors enumerates all domain errors that represent client-side issues.
var clientErrors = []error{
	ErrInvalidInput,
	ErrInvalidClockTime,
	ErrInvalidDuration,
	ErrInvalidZone,
	ErrNotFound,
	ErrAlreadyExists,
	ErrForbidden,
	ErrUnauthorized,
	ErrEmptyID,
	ErrInvalidID,
}

// IsClientError returns true if the error represents a client-side issue
// that will not succeed on retry without client-side changes.
func IsClientError(err error) bool {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound returns true if the error represents a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
