package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aelexs/timekeeper/internal/config"
	"github.com/aelexs/timekeeper/internal/domain"
	"github.com/aelexs/timekeeper/internal/server"
	"github.com/aelexs/timekeeper/internal/timekeeper/adapter"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "local",
		Timer: config.TimerConfig{
			TickInterval:   time.Second,
			StallTimeout:   3 * time.Second,
			PollInterval:   250 * time.Millisecond,
			DefaultSeconds: 1500,
		},
		Alarm:  config.AlarmConfig{SnoozeMinutes: 5, Timezone: "UTC"},
		Store:  config.StoreConfig{Backend: domain.StoreBackendMemory},
		Notify: config.NotifyConfig{Backend: domain.NotifyBackendLog},
		Auth:   config.AuthConfig{Issuer: "timekeeper", Audience: "timekeeper-api", KeyID: "timekeeper-1"},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeKeyFile(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "key.pem")
	data := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestSetup_MemoryStore(t *testing.T) {
	ctx := context.Background()
	comps, err := setup(ctx, server.Deps{Config: testConfig(t), Logger: discardLogger()})
	require.NoError(t, err)
	require.NotNil(t, comps.Handler)
	require.Len(t, comps.Workers, 1)

	rec := httptest.NewRecorder()
	comps.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/timer", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_seconds":1500`)

	require.NoError(t, comps.Close(ctx))
}

func TestSetup_AuthEnabled(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Auth.Enabled = true
	cfg.Auth.KeyFile = writeKeyFile(t)

	comps, err := setup(ctx, server.Deps{Config: cfg, Logger: discardLogger()})
	require.NoError(t, err)
	defer comps.Close(ctx)

	rec := httptest.NewRecorder()
	comps.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/timer", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSetup_MissingKeyFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.Enabled = true
	cfg.Auth.KeyFile = filepath.Join(t.TempDir(), "absent.pem")

	_, err := setup(context.Background(), server.Deps{Config: cfg, Logger: discardLogger()})
	assert.ErrorContains(t, err, "create validator")
}

func TestSetup_BadTimezone(t *testing.T) {
	cfg := testConfig(t)
	cfg.Alarm.Timezone = "Mars/Olympus_Mons"

	_, err := setup(context.Background(), server.Deps{Config: cfg, Logger: discardLogger()})
	assert.Error(t, err)
}

func TestCreateStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		s, closer, err := createStore(ctx, testConfig(t), domain.RealClock{}, discardLogger())
		require.NoError(t, err)
		assert.IsType(t, &adapter.MemoryStore{}, s)
		assert.Nil(t, closer)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Store.Backend = domain.StoreBackendSQLite
		cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "state.db")

		s, closer, err := createStore(ctx, cfg, domain.RealClock{}, discardLogger())
		require.NoError(t, err)
		require.NotNil(t, closer)
		defer closer()

		require.NoError(t, s.Save(ctx, domain.TimerStateKey, []byte(`{}`)))
		got, err := s.Load(ctx, domain.TimerStateKey)
		require.NoError(t, err)
		assert.Equal(t, []byte(`{}`), got)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := testConfig(t)
		cfg.Store.Backend = domain.StoreBackendRedis
		cfg.Store.Namespace = "tk"
		cfg.Redis.Addr = mr.Addr()

		s, closer, err := createStore(ctx, cfg, domain.RealClock{}, discardLogger())
		require.NoError(t, err)
		require.NotNil(t, closer)
		defer closer()

		require.NoError(t, s.Save(ctx, domain.AlarmsStateKey, []byte(`[]`)))
		assert.True(t, mr.Exists("tk:"+domain.AlarmsStateKey))
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := testConfig(t)
		cfg.Store.Backend = domain.StoreBackendRedis
		cfg.Redis.Addr = addr

		_, _, err := createStore(ctx, cfg, domain.RealClock{}, discardLogger())
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Store.Backend = "etcd"

		_, _, err := createStore(ctx, cfg, domain.RealClock{}, discardLogger())
		assert.ErrorIs(t, err, domain.ErrConfigInvalid)
	})
}

func TestCreateNotifier(t *testing.T) {
	ctx := context.Background()

	n, err := createNotifier(ctx, testConfig(t), discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &adapter.LogNotifier{}, n)

	cfg := testConfig(t)
	cfg.Notify.Backend = domain.NotifyBackendSNS
	cfg.Notify.SNSTopicARN = "arn:aws:sns:us-east-2:000000000000:timekeeper"
	cfg.AWS.Region = "us-east-2"
	cfg.AWS.Endpoint = "http://localhost:4566"
	n, err = createNotifier(ctx, cfg, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &adapter.SNSNotifier{}, n)

	cfg.Notify.Backend = "pager"
	_, err = createNotifier(ctx, cfg, discardLogger())
	assert.ErrorIs(t, err, domain.ErrConfigInvalid)
}
