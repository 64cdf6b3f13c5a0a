package server_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/aelexs/timekeeper/internal/domain"
	"github.com/aelexs/timekeeper/internal/server"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type harness struct {
	httpAddr string
	grpcAddr string
	errCh    chan error
	cancel   context.CancelFunc
}

func startServer(t *testing.T, p server.Params) *harness {
	t.Helper()
	t.Setenv("TIMEKEEPER_STORE__BACKEND", "memory")

	ctx, cancel := context.WithCancel(context.Background())
	httpLn := newTestListener(t)
	grpcLn := newTestListener(t)

	h := &harness{
		httpAddr: httpLn.Addr().String(),
		grpcAddr: grpcLn.Addr().String(),
		errCh:    make(chan error, 1),
		cancel:   cancel,
	}
	go func() {
		h.errCh <- server.Run(ctx, p, server.Listeners{HTTP: httpLn, GRPC: grpcLn})
	}()
	return h
}

func (h *harness) stop(t *testing.T) error {
	t.Helper()
	h.cancel()
	select {
	case err := <-h.errCh:
		return err
	case <-time.After(domain.GracefulShutdownTimeout + 5*time.Second):
		t.Fatal("shutdown did not complete within budget")
		return nil
	}
}

func testParams(setup func(ctx context.Context, d server.Deps) (*server.Components, error)) server.Params {
	if setup == nil {
		setup = func(context.Context, server.Deps) (*server.Components, error) {
			return &server.Components{}, nil
		}
	}
	return server.Params{Name: "testservice", Version: "0.0.1", Setup: setup}
}

func TestRunGracefulShutdown(t *testing.T) {
	h := startServer(t, testParams(nil))
	waitForHealthy(t, h.httpAddr)

	start := time.Now()
	require.NoError(t, h.stop(t))
	assert.Less(t, time.Since(start), domain.GracefulShutdownTimeout)
}

func TestRunServesHandlerAndWorkers(t *testing.T) {
	var closed atomic.Bool
	workerStarted := make(chan struct{})

	h := startServer(t, testParams(func(_ context.Context, d server.Deps) (*server.Components, error) {
		assert.NotNil(t, d.Config)
		assert.NotNil(t, d.Logger)

		mux := http.NewServeMux()
		mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "pong")
		})
		return &server.Components{
			Handler: mux,
			Workers: []server.Worker{func(ctx context.Context) error {
				close(workerStarted)
				<-ctx.Done()
				return nil
			}},
			Close: func(context.Context) error {
				closed.Store(true)
				return nil
			},
		}, nil
	}))
	waitForHealthy(t, h.httpAddr)

	resp, err := httpGet(t, fmt.Sprintf("http://%s/v1/ping", h.httpAddr))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	select {
	case <-workerStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not start")
	}

	require.NoError(t, h.stop(t))
	assert.True(t, closed.Load(), "Close runs during shutdown")
}

func TestRunWorkerFailureStopsDaemon(t *testing.T) {
	boom := errors.New("boom")

	h := startServer(t, testParams(func(context.Context, server.Deps) (*server.Components, error) {
		return &server.Components{
			Workers: []server.Worker{func(context.Context) error { return boom }},
		}, nil
	}))

	select {
	case err := <-h.errCh:
		assert.ErrorIs(t, err, boom)
	case <-time.After(domain.GracefulShutdownTimeout + 5*time.Second):
		t.Fatal("daemon did not stop after worker failure")
	}
	h.cancel()
}

func TestRunSetupFailure(t *testing.T) {
	boom := errors.New("no store")
	httpLn := newTestListener(t)
	grpcLn := newTestListener(t)
	t.Cleanup(func() {
		_ = httpLn.Close()
		_ = grpcLn.Close()
	})
	t.Setenv("TIMEKEEPER_STORE__BACKEND", "memory")

	err := server.Run(context.Background(), testParams(func(context.Context, server.Deps) (*server.Components, error) {
		return nil, boom
	}), server.Listeners{HTTP: httpLn, GRPC: grpcLn})

	assert.ErrorIs(t, err, boom)
}

func TestRunConfigFailure(t *testing.T) {
	t.Setenv("TIMEKEEPER_STORE__BACKEND", "etcd")

	err := server.Run(context.Background(), testParams(nil), server.Listeners{})

	assert.ErrorIs(t, err, domain.ErrConfigInvalid)
}

func TestGRPCHealth(t *testing.T) {
	h := startServer(t, testParams(nil))
	waitForHealthy(t, h.httpAddr)

	conn, err := grpc.NewClient(h.grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := healthpb.NewHealthClient(conn)
	for _, svc := range []string{"", "testservice"} {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: svc})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus(), "service %q", svc)
	}

	require.NoError(t, conn.Close())
	require.NoError(t, h.stop(t))
}

func TestHealthCheckReturns503DuringShutdown(t *testing.T) {
	h := startServer(t, testParams(nil))
	waitForHealthy(t, h.httpAddr)

	h.cancel()

	// Health check should return 503 during drain delay (before server stops).
	eventually(t, 2*time.Second, func() bool {
		resp, err := httpGet(t, fmt.Sprintf("http://%s/healthz", h.httpAddr))
		if err != nil {
			return false // server may have already stopped
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusServiceUnavailable
	})

	<-h.errCh // wait for clean exit
}

func TestStreamingRequestEndsOnShutdown(t *testing.T) {
	streamEnded := make(chan struct{})

	h := startServer(t, testParams(func(context.Context, server.Deps) (*server.Components, error) {
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/stream", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.(http.Flusher).Flush()
			<-r.Context().Done()
			close(streamEnded)
		})
		return &server.Components{Handler: mux}, nil
	}))
	waitForHealthy(t, h.httpAddr)

	resp, err := httpGet(t, fmt.Sprintf("http://%s/v1/stream", h.httpAddr))
	require.NoError(t, err)
	defer resp.Body.Close()

	start := time.Now()
	require.NoError(t, h.stop(t))
	assert.Less(t, time.Since(start), domain.ShutdownHTTPTimeout, "stream must not hold shutdown open")

	select {
	case <-streamEnded:
	default:
		t.Fatal("stream handler still running after shutdown")
	}
}

// newTestListener creates a TCP listener on an OS-assigned port.
func newTestListener(t *testing.T) net.Listener {
	t.Helper()
	ln, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create test listener: %v", err)
	}
	return ln
}

// waitForHealthy polls the health endpoint until it returns 200.
func waitForHealthy(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := httpGet(t, fmt.Sprintf("http://%s/healthz", addr))
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("server at %s not healthy within 5s", addr)
}

// httpGet performs an HTTP GET with a background context (satisfies noctx linter).
func httpGet(t *testing.T, url string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return http.DefaultClient.Do(req)
}

// eventually retries f until it returns true or timeout expires.
func eventually(t *testing.T, timeout time.Duration, f func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if f() {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}
