// Package config provides configuration loading using koanf.
// Precedence: TIMEKEEPER_* environment variables, then compiled defaults.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/aelexs/timekeeper/internal/domain"
)

// EnvPrefix is stripped from environment variable names. A double
// underscore separates nesting levels: TIMEKEEPER_STORE__BACKEND sets
// store.backend.
const EnvPrefix = "TIMEKEEPER_"

// Config holds all daemon configuration.
type Config struct {
	// Environment identifier: "local", "dev", "prod"
	Environment string `koanf:"environment"`

	// Logging configuration
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	Daemon DaemonConfig `koanf:"daemon"`
	Timer  TimerConfig  `koanf:"timer"`
	Alarm  AlarmConfig  `koanf:"alarm"`
	Store  StoreConfig  `koanf:"store"`
	Notify NotifyConfig `koanf:"notify"`
	Auth   AuthConfig   `koanf:"auth"`

	// Infrastructure configurations
	DynamoDB DynamoDBConfig `koanf:"dynamodb"`
	Redis    RedisConfig    `koanf:"redis"`
	AWS      AWSConfig      `koanf:"aws"`

	// OpenTelemetry configuration
	OTEL OTELConfig `koanf:"otel"`
}

// DaemonConfig holds listener configuration.
type DaemonConfig struct {
	Addr     string `koanf:"addr"` // Bind host; empty binds all interfaces
	HTTPPort int    `koanf:"http_port"`
	GRPCPort int    `koanf:"grpc_port"`
}

// TimerConfig holds ticker and countdown configuration.
type TimerConfig struct {
	TickInterval   time.Duration `koanf:"tick_interval"`
	StallTimeout   time.Duration `koanf:"stall_timeout"`
	PollInterval   time.Duration `koanf:"poll_interval"`
	DefaultSeconds int64         `koanf:"default_seconds"`
}

// AlarmConfig holds alarm configuration.
type AlarmConfig struct {
	SnoozeMinutes int    `koanf:"snooze_minutes"`
	Timezone      string `koanf:"timezone"` // IANA name; "Local" uses the host zone
}

// StoreConfig selects and configures the state store.
type StoreConfig struct {
	Backend     domain.StoreBackend `koanf:"backend"`
	Namespace   string              `koanf:"namespace"`    // Redis key prefix
	SQLitePath  string              `koanf:"sqlite_path"`  // Required for sqlite
	DynamoTable string              `koanf:"dynamo_table"` // Required for dynamodb
}

// NotifyConfig selects and configures the notifier.
type NotifyConfig struct {
	Backend     domain.NotifyBackend `koanf:"backend"`
	SNSTopicARN string               `koanf:"sns_topic_arn"` // Required for sns
}

// AuthConfig holds control API token validation settings.
type AuthConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Issuer   string `koanf:"issuer"`
	Audience string `koanf:"audience"`
	KeyFile  string `koanf:"key_file"` // PEM RSA public or private key
	KeyID    string `koanf:"key_id"`
}

// DynamoDBConfig holds DynamoDB configuration.
type DynamoDBConfig struct {
	Endpoint string        `koanf:"endpoint"` // Empty for production (uses default AWS endpoint)
	Timeout  time.Duration `koanf:"timeout"`
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	Timeout  time.Duration `koanf:"timeout"`
}

// AWSConfig holds AWS SDK configuration.
type AWSConfig struct {
	Region   string `koanf:"region"`
	Endpoint string `koanf:"endpoint"` // LocalStack endpoint for development
}

// OTELConfig holds OpenTelemetry configuration.
type OTELConfig struct {
	Endpoint    string `koanf:"endpoint"` // Empty disables OTLP export
	ServiceName string `koanf:"service_name"`
}

// defaults returns a Config with compiled default values.
func defaults() *Config {
	return &Config{
		Environment: "local",
		LogLevel:    "info",
		LogFormat:   "json",

		Daemon: DaemonConfig{
			HTTPPort: 8080,
			GRPCPort: 9090,
		},
		Timer: TimerConfig{
			TickInterval:   domain.DefaultTickInterval,
			StallTimeout:   domain.DefaultStallTimeout,
			PollInterval:   domain.DefaultPollInterval,
			DefaultSeconds: domain.DefaultTimerSeconds,
		},
		Alarm: AlarmConfig{
			SnoozeMinutes: domain.DefaultSnoozeMinutes,
			Timezone:      "Local",
		},
		Store: StoreConfig{
			Backend:     domain.StoreBackendSQLite,
			Namespace:   "timekeeper",
			SQLitePath:  "timekeeper.db",
			DynamoTable: "timekeeper_state",
		},
		Notify: NotifyConfig{
			Backend: domain.NotifyBackendLog,
		},
		Auth: AuthConfig{
			Issuer:   "timekeeper",
			Audience: "timekeeper-api",
			KeyID:    "timekeeper-1",
		},

		DynamoDB: DynamoDBConfig{
			Timeout: domain.DynamoDBTimeout,
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			DB:      0,
			Timeout: domain.RedisTimeout,
		},
		AWS: AWSConfig{
			Region: "us-east-1",
		},
		OTEL: OTELConfig{
			ServiceName: "timekeeper",
		},
	}
}

// Load loads configuration following the precedence:
// 1. Environment variables with EnvPrefix (highest)
// 2. Compiled defaults (lowest)
//
// Invalid or missing required keys fail startup.
func Load(ctx context.Context) (*Config, error) {
	k := koanf.New(".")

	// Start with compiled defaults
	cfg := defaults()

	err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil)
	if err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	// Unmarshal into config struct
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envKey maps TIMEKEEPER_TIMER__TICK_INTERVAL to timer.tick_interval.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

// Validate checks value ranges and the keys each selected backend needs.
func (c *Config) Validate() error {
	if !domain.IsValidStoreBackend(c.Store.Backend) {
		return fmt.Errorf("%w: store.backend %q", domain.ErrConfigInvalid, c.Store.Backend)
	}
	if !domain.IsValidNotifyBackend(c.Notify.Backend) {
		return fmt.Errorf("%w: notify.backend %q", domain.ErrConfigInvalid, c.Notify.Backend)
	}
	if c.Timer.TickInterval <= 0 {
		return fmt.Errorf("%w: timer.tick_interval must be positive", domain.ErrConfigInvalid)
	}
	if c.Timer.PollInterval <= 0 {
		return fmt.Errorf("%w: timer.poll_interval must be positive", domain.ErrConfigInvalid)
	}
	if c.Timer.StallTimeout < 0 {
		return fmt.Errorf("%w: timer.stall_timeout must not be negative", domain.ErrConfigInvalid)
	}
	if c.Timer.DefaultSeconds <= 0 || c.Timer.DefaultSeconds > domain.MaxTimerSeconds {
		return fmt.Errorf("%w: timer.default_seconds out of range", domain.ErrConfigInvalid)
	}
	if !domain.IsValidSnooze(c.Alarm.SnoozeMinutes) {
		return fmt.Errorf("%w: alarm.snooze_minutes out of range", domain.ErrConfigInvalid)
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	switch c.Store.Backend {
	case domain.StoreBackendSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("%w: store.sqlite_path", domain.ErrConfigRequired)
		}
	case domain.StoreBackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("%w: redis.addr", domain.ErrConfigRequired)
		}
	case domain.StoreBackendDynamoDB:
		if c.Store.DynamoTable == "" {
			return fmt.Errorf("%w: store.dynamo_table", domain.ErrConfigRequired)
		}
	}

	if c.Notify.Backend == domain.NotifyBackendSNS && c.Notify.SNSTopicARN == "" {
		return fmt.Errorf("%w: notify.sns_topic_arn", domain.ErrConfigRequired)
	}

	if c.Auth.Enabled {
		if c.Auth.KeyFile == "" {
			return fmt.Errorf("%w: auth.key_file", domain.ErrConfigRequired)
		}
		if c.Auth.Issuer == "" || c.Auth.Audience == "" {
			return fmt.Errorf("%w: auth.issuer and auth.audience", domain.ErrConfigRequired)
		}
	}

	// In production, state must survive restarts and the API must be guarded.
	if c.IsProd() {
		if c.Store.Backend == domain.StoreBackendMemory {
			return fmt.Errorf("%w: store.backend must be durable in prod", domain.ErrConfigInvalid)
		}
		if !c.Auth.Enabled {
			return fmt.Errorf("%w: auth.enabled", domain.ErrConfigRequired)
		}
	}

	return nil
}

// Location resolves alarm.timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Alarm.Timezone == "" || c.Alarm.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Alarm.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: alarm.timezone %q: %w", domain.ErrConfigInvalid, c.Alarm.Timezone, err)
	}
	return loc, nil
}

// IsLocal returns true if running in local development environment.
func (c *Config) IsLocal() bool {
	return c.Environment == "local"
}

// IsProd returns true if running in production environment.
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}
