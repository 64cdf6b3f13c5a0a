package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aelexs/timekeeper/internal/auth"
	"github.com/aelexs/timekeeper/internal/domain"
	"github.com/aelexs/timekeeper/internal/domain/domaintest"
	"github.com/aelexs/timekeeper/internal/ticker/tickertest"
	"github.com/aelexs/timekeeper/internal/timekeeper/adapter"
	"github.com/aelexs/timekeeper/internal/timekeeper/app"
	"github.com/aelexs/timekeeper/internal/timekeeper/port"
	"github.com/aelexs/timekeeper/pkg/protocol"
)

// newDaemon serves a real service over httptest and returns its URL.
func newDaemon(t *testing.T) string {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := domaintest.NewFakeClock(time.Date(2026, 3, 14, 6, 59, 0, 0, time.UTC))

	svc := app.NewService(app.ServiceConfig{
		Store:     adapter.NewMemoryStore(),
		Notifier:  adapter.NewLogNotifier(logger),
		Clock:     clock,
		Scheduler: tickertest.NewScheduler(),
		Logger:    logger,
		Location:  time.UTC,
	})
	require.NoError(t, svc.Init(context.Background()))

	h, err := port.NewHandler(port.HandlerConfig{
		Service:           svc,
		Logger:            logger,
		Clock:             clock,
		HeartbeatInterval: time.Hour,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		svc.Close()
		srv.Close()
	})
	return srv.URL
}

// runCLI executes tkctl with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestTimerCommands(t *testing.T) {
	url := newDaemon(t)

	out, err := runCLI(t, "--server", url, "timer", "configure", "90s")
	require.NoError(t, err)
	assert.Equal(t, "idle      1:30 of 1:30  sessions: 0\n", out)

	out, err = runCLI(t, "--server", url, "timer", "add", "1h")
	require.NoError(t, err)
	assert.Contains(t, out, "1:01:30 of 1:01:30")

	out, err = runCLI(t, "--server", url, "-o", "json", "timer", "start")
	require.NoError(t, err)
	var st protocol.TimerStatus
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, "running", st.State)
	assert.Equal(t, int64(3690), st.RemainingSeconds)

	out, err = runCLI(t, "--server", url, "timer", "pause")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "paused"), out)

	_, err = runCLI(t, "--server", url, "timer", "configure", "0")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "INVALID_ARGUMENT", apiErr.Code)
}

func TestStopwatchCommands(t *testing.T) {
	url := newDaemon(t)

	out, err := runCLI(t, "--server", url, "sw", "start")
	require.NoError(t, err)
	assert.Equal(t, "running   00:00.00\n", out)

	out, err = runCLI(t, "--server", url, "stopwatch", "reset")
	require.NoError(t, err)
	assert.Equal(t, "stopped   00:00.00\n", out)
}

func TestAlarmCommands(t *testing.T) {
	url := newDaemon(t)

	out, err := runCLI(t, "--server", url, "-o", "json", "alarm", "add", "07:30", "--label", "Gym", "--repeat", "weekdays")
	require.NoError(t, err)
	var a protocol.Alarm
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.Equal(t, "07:30", a.Time)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, a.RepeatDays)
	assert.True(t, a.Vibration)

	out, err = runCLI(t, "--server", url, "alarm", "update", a.ID, "--label", "Run", "--repeat", "none")
	require.NoError(t, err)
	assert.Contains(t, out, "Run")
	assert.Contains(t, out, "once")

	out, err = runCLI(t, "--server", url, "alarm", "toggle", a.ID)
	require.NoError(t, err)
	assert.Contains(t, out, " off ")

	out, err = runCLI(t, "--server", url, "alarm", "list")
	require.NoError(t, err)
	assert.Contains(t, out, a.ID)

	out, err = runCLI(t, "--server", url, "alarm", "rm", a.ID)
	require.NoError(t, err)
	assert.Equal(t, "deleted "+a.ID+"\n", out)

	out, err = runCLI(t, "--server", url, "alarm", "ls")
	require.NoError(t, err)
	assert.Equal(t, "no alarms\n", out)

	_, err = runCLI(t, "--server", url, "alarm", "dismiss")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)

	_, err = runCLI(t, "--server", url, "alarm", "snooze", "-3")
	assert.Error(t, err)
}

func TestZonesCommands(t *testing.T) {
	url := newDaemon(t)

	out, err := runCLI(t, "--server", url, "zones")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Contains(t, lines[0], "06:59:00")
	assert.Contains(t, lines[0], "Local")
	assert.Contains(t, lines[1], "New Delhi")
	assert.Contains(t, lines[1], "12:29:00")
	assert.Contains(t, lines[1], "UTC+5:30")
	assert.Contains(t, lines[1], "+5h30m")

	out, err = runCLI(t, "--server", url, "zones", "add", "America/Argentina/Buenos_Aires")
	require.NoError(t, err)
	assert.Contains(t, out, "Buenos Aires")

	_, err = runCLI(t, "--server", url, "zones", "add", "America/Argentina/Buenos_Aires")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)

	out, err = runCLI(t, "--server", url, "zones", "move", "7", "1", "--12h")
	require.NoError(t, err)
	lines = strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Contains(t, lines[1], "Buenos Aires")
	assert.Contains(t, lines[1], "03:59:00 AM")

	out, err = runCLI(t, "--server", url, "zones", "rm", "Asia/Kolkata")
	require.NoError(t, err)
	assert.NotContains(t, out, "New Delhi")

	out, err = runCLI(t, "--server", url, "-o", "json", "zones", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, `"zone": "Asia/Kolkata"`)

	_, err = runCLI(t, "--server", url, "zones", "move", "0", "1")
	require.Error(t, err)
}

func TestEventsCommand(t *testing.T) {
	url := newDaemon(t)

	out, err := runCLI(t, "--server", url, "-o", "json", "events", "-n", "1")
	require.NoError(t, err)

	var f protocol.Frame
	require.NoError(t, json.Unmarshal([]byte(out), &f))
	assert.Equal(t, protocol.FrameTypeConnectionAck, f.Type)
}

func TestUnknownOutputFormat(t *testing.T) {
	_, err := runCLI(t, "-o", "yaml", "timer", "status")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestTokenCommand(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "key.pem")
	require.NoError(t, os.WriteFile(path,
		pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}), 0o600))

	out, err := runCLI(t, "token", "--key-file", path, "--subject", "ops")
	require.NoError(t, err)

	validator := auth.NewValidator(auth.ValidatorConfig{
		KeyStore: auth.NewVerifyOnlyKeyStore(&key.PublicKey, "timekeeper-1"),
		Issuer:   "timekeeper",
		Audience: "timekeeper-api",
		Clock:    domain.RealClock{},
	})
	claims, err := validator.ValidateAccessToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)

	_, err = runCLI(t, "token")
	assert.ErrorContains(t, err, "--key-file is required")
}

func TestClient_Unreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "", time.Second)
	err := c.Do(context.Background(), "GET", "/v1/timer", nil, nil)
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "90", want: 90},
		{in: "25m", want: 1500},
		{in: "1h30m", want: 5400},
		{in: "1.5s", wantErr: true},
		{in: "soon", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSeconds(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDays(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "none", want: nil},
		{in: "daily", want: []int{0, 1, 2, 3, 4, 5, 6}},
		{in: "Weekends", want: []int{0, 6}},
		{in: "mon,wed,fri", want: []int{1, 3, 5}},
		{in: "monday, 0, mon", want: []int{1, 0}},
		{in: "7", wantErr: true},
		{in: "funday", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDays(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "0:00", formatClock(-5))
	assert.Equal(t, "25:00", formatClock(1500))
	assert.Equal(t, "1:00:01", formatClock(3601))

	assert.Equal(t, "00:01.23", formatMillis(1234))
	assert.Equal(t, "1:01:01.00", formatMillis(3661000))
}
