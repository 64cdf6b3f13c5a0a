package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	// Registers the pure-Go "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/aelexs/timekeeper/internal/domain"
	"github.com/aelexs/timekeeper/internal/timekeeper/app"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);`

var _ app.StateStore = (*SQLiteStore)(nil)

// SQLiteStore persists records in a single-file SQLite database, one row per
// key in the kv table.
type SQLiteStore struct {
	db    *sql.DB
	path  string
	clock domain.Clock
}

// NewSQLiteStore opens (creating if needed) the database at path and ensures
// the schema exists. Use ":memory:" for a throwaway database.
func NewSQLiteStore(ctx context.Context, path string, clock domain.Clock) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store: path: %w", domain.ErrConfigRequired)
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite store: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases coherent and serializes
	// writers, which SQLite requires anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite store: create schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path, clock: clock}, nil
}

// Load returns the value stored under key.
func (s *SQLiteStore) Load(ctx context.Context, key string) ([]byte, error) {
	ctx, span := s.startSpan(ctx, "sqlite.state.load", "SELECT")
	defer span.End()

	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite store: load %q: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("sqlite store: load %q: %w", key, err)
	}
	return value, nil
}

// Save upserts the value stored under key.
func (s *SQLiteStore) Save(ctx context.Context, key string, value []byte) error {
	ctx, span := s.startSpan(ctx, "sqlite.state.save", "UPSERT")
	defer span.End()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, domain.NowUTCMillis(s.clock))
	if err != nil {
		recordSpanError(span, err)
		return fmt.Errorf("sqlite store: save %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	ctx, span := s.startSpan(ctx, "sqlite.state.delete", "DELETE")
	defer span.End()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		recordSpanError(span, err)
		return fmt.Errorf("sqlite store: delete %q: %w", key, err)
	}
	return nil
}

// Ping verifies the database is usable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) startSpan(ctx context.Context, name, op string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, name)
	span.SetAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.operation", op),
		attribute.String("db.name", s.path),
	)
	return ctx, span
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
