package domain

import "time"

// Compiled defaults. Most can be overridden via configuration.
const (
	// Ticker (drift-corrected scheduling loop)
	DefaultTickInterval = 1 * time.Second        // Nominal interval between ticks
	DriftWarnThreshold  = 100 * time.Millisecond // Drift above this is logged at WARN
	DefaultStallTimeout = 3 * time.Second        // No tick for this long means degraded accuracy
	DefaultPollInterval = 250 * time.Millisecond // Foreground loop period (alarms, fallback ticks)

	// Countdown
	DefaultTimerSeconds = 25 * 60 // Focus session length used for Clear and fresh installs
	MaxTimerSeconds     = 24 * 60 * 60 * 7

	// Stopwatch. Persisted times above this are corrupt; the bound keeps
	// millisecond values well inside time.Duration.
	MaxStopwatchMs = 10 * 365 * 24 * 60 * 60 * 1000

	// Alarms
	DefaultSnoozeMinutes = 5
	MaxSnoozeMinutes     = 24 * 60

	// Event stream
	EventBufferSize = 64 // Frames buffered per subscriber before drops

	// Timeout contracts
	DynamoDBTimeout = 5 * time.Second
	RedisTimeout    = 2 * time.Second
	SNSTimeout      = 5 * time.Second
	StoreOpTimeout  = 3 * time.Second // Max time a single persist/load may take

	// Persistence
	StoreWriteAttempts = 2 // Retryable store errors get one more attempt

	// Graceful shutdown
	GracefulShutdownTimeout = 30 * time.Second
	ShutdownDrainDelay      = 500 * time.Millisecond
	ShutdownHTTPTimeout     = 10 * time.Second
	ShutdownOTELTimeout     = 5 * time.Second

	// Control API tokens
	AccessTokenLifetime = 1 * time.Hour
	ControlScope        = "timekeeper"
)

// Persisted record keys. Each state machine owns exactly one record.
const (
	TimerStateKey     = "timer_state"
	StopwatchStateKey = "stopwatch_state"
	AlarmsStateKey    = "alarms_data"
	WorldClockKey     = "world_clock_zones"
)

// SnoozePresets are the snooze lengths offered to clients, in minutes.
// Any positive value up to MaxSnoozeMinutes is accepted.
var SnoozePresets = []int{5, 10, 15, 30}

// IsValidSnooze reports whether minutes is an acceptable snooze length.
func IsValidSnooze(minutes int) bool {
	return minutes > 0 && minutes <= MaxSnoozeMinutes
}

// StoreBackend names a persisted-state backend.
type StoreBackend string

const (
	StoreBackendMemory   StoreBackend = "memory"
	StoreBackendSQLite   StoreBackend = "sqlite"
	StoreBackendRedis    StoreBackend = "redis"
	StoreBackendDynamoDB StoreBackend = "dynamodb"
)

// IsValidStoreBackend checks if a store backend is supported.
func IsValidStoreBackend(b StoreBackend) bool {
	switch b {
	case StoreBackendMemory, StoreBackendSQLite, StoreBackendRedis, StoreBackendDynamoDB:
		return true
	}
	return false
}

// NotifyBackend names a completion/alarm notification backend.
type NotifyBackend string

const (
	NotifyBackendLog NotifyBackend = "log"
	NotifyBackendSNS NotifyBackend = "sns"
)

// IsValidNotifyBackend checks if a notify backend is supported.
func IsValidNotifyBackend(b NotifyBackend) bool {
	return b == NotifyBackendLog || b == NotifyBackendSNS
}
