package adapter

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/aelexs/timekeeper/internal/domain"
	redisclient "github.com/aelexs/timekeeper/internal/redis"
	"github.com/aelexs/timekeeper/internal/timekeeper/app"
)

// DefaultNamespace prefixes every key when no namespace is configured.
const DefaultNamespace = "timekeeper"

var _ app.StateStore = (*RedisStore)(nil)

// RedisStore persists records as plain string keys of the form
// {namespace}:{key}. Records never expire.
type RedisStore struct {
	cmd       redisclient.Cmdable
	namespace string
}

// NewRedisStore creates a RedisStore that uses cmd for Redis operations.
func NewRedisStore(cmd redisclient.Cmdable, namespace string) *RedisStore {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &RedisStore{cmd: cmd, namespace: namespace}
}

// Load returns the value stored under key.
func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	ctx, span := startRedisSpan(ctx, "redis.state.load", "GET")
	defer span.End()

	v, err := s.cmd.Get(ctx, s.key(key)).Bytes()
	if redisclient.IsNil(err) {
		return nil, fmt.Errorf("redis store: load %q: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("redis store: load %q: %w: %w", key, domain.ErrStoreUnavailable, err)
	}
	return v, nil
}

// Save replaces the value stored under key.
func (s *RedisStore) Save(ctx context.Context, key string, value []byte) error {
	ctx, span := startRedisSpan(ctx, "redis.state.save", "SET")
	defer span.End()

	if err := s.cmd.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		recordSpanError(span, err)
		return fmt.Errorf("redis store: save %q: %w: %w", key, domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	ctx, span := startRedisSpan(ctx, "redis.state.delete", "DEL")
	defer span.End()

	if err := s.cmd.Del(ctx, s.key(key)).Err(); err != nil {
		recordSpanError(span, err)
		return fmt.Errorf("redis store: delete %q: %w: %w", key, domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) key(k string) string {
	return s.namespace + ":" + k
}

func startRedisSpan(ctx context.Context, name, op string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, name)
	span.SetAttributes(
		attribute.String("db.system", "redis"),
		attribute.String("db.operation", op),
	)
	return ctx, span
}
