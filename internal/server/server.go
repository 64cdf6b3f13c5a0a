// Package server provides the daemon lifecycle runner: signal handling,
// config loading, observability init, HTTP and gRPC listeners with health
// checks, background workers, and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/aelexs/timekeeper/internal/config"
	"github.com/aelexs/timekeeper/internal/domain"
	"github.com/aelexs/timekeeper/internal/observability"
)

// Deps is what the runner hands to Params.Setup.
type Deps struct {
	Config *config.Config
	Logger *slog.Logger
}

// Worker is a long-running task. It must return once ctx is done.
type Worker func(ctx context.Context) error

// Components is what a service contributes to the lifecycle.
type Components struct {
	// Handler serves every HTTP path except /healthz.
	Handler http.Handler

	// Workers run alongside the listeners. The first error stops the daemon.
	Workers []Worker

	// Close releases resources after listeners have drained.
	Close func(ctx context.Context) error
}

// Params configures the lifecycle runner.
type Params struct {
	// Name identifies the service in logs, traces, and health responses.
	Name    string
	Version string

	// Setup builds the service from loaded config. It runs after logging
	// and telemetry are initialized and before any listener accepts.
	Setup func(ctx context.Context, d Deps) (*Components, error)
}

// Listeners optionally injects pre-bound listeners. A nil field is bound
// from config (enables port-0 testing).
type Listeners struct {
	HTTP net.Listener
	GRPC net.Listener
}

// Run executes the full service lifecycle and blocks until ctx is cancelled,
// SIGTERM/SIGINT arrives, or a listener or worker fails.
func Run(ctx context.Context, p Params, ls Listeners) error {
	// Signal-based cancellation: ctx.Done() closes on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: p.Name,
		Environment: cfg.Environment,
	})

	// --- Startup order: telemetry -> service -> listeners ---

	providers, err := observability.Setup(ctx, observability.Config{
		ServiceName:    p.Name,
		ServiceVersion: p.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTEL.Endpoint,
	})
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	flushTelemetry := func() {
		otelCtx, cancel := context.WithTimeout(context.Background(), domain.ShutdownOTELTimeout)
		defer cancel()
		if shutdownErr := providers.Shutdown(otelCtx); shutdownErr != nil {
			logger.Error("failed to shutdown telemetry", slog.String("error", shutdownErr.Error()))
		}
	}

	comps, err := p.Setup(ctx, Deps{Config: cfg, Logger: logger})
	if err != nil {
		flushTelemetry()
		return fmt.Errorf("setup %s: %w", p.Name, err)
	}

	if err := bindListeners(ctx, cfg, &ls); err != nil {
		closeComponents(comps, logger)
		flushTelemetry()
		return err
	}

	// Health check shutdown coordination via atomic flag.
	var shuttingDown atomic.Bool

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if shuttingDown.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"shutting_down","service":%q}`, p.Name)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","service":%q}`, p.Name)
	})
	if comps.Handler != nil {
		mux.Handle("/", comps.Handler)
	}

	// Request contexts derive from baseCtx so long-lived streams end as soon
	// as draining starts instead of holding Shutdown open.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	httpServer := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(p.Name, healthpb.HealthCheckResponse_SERVING)

	// --- Structured concurrency via errgroup ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting HTTP server", slog.String("addr", ls.HTTP.Addr().String()))
		if serveErr := httpServer.Serve(ls.HTTP); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("http serve: %w", serveErr)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("starting gRPC server", slog.String("addr", ls.GRPC.Addr().String()))
		if serveErr := grpcServer.Serve(ls.GRPC); serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc serve: %w", serveErr)
		}
		return nil
	})

	for _, w := range comps.Workers {
		w := w
		g.Go(func() error {
			return w(gctx)
		})
	}

	// Shutdown trigger: waits for cancellation, then drains in reverse
	// startup order (listeners -> service -> telemetry).
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("received shutdown signal, starting graceful shutdown")

		// 1. Mark shutting down: health checks report unavailable
		shuttingDown.Store(true)
		healthServer.Shutdown()

		// 2. Drain delay: let load balancers observe the health change
		time.Sleep(domain.ShutdownDrainDelay)

		// 3. Drain listeners
		cancelBase()
		httpCtx, httpCancel := context.WithTimeout(context.Background(), domain.ShutdownHTTPTimeout)
		defer httpCancel()
		if shutdownErr := httpServer.Shutdown(httpCtx); shutdownErr != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", shutdownErr.Error()))
		}
		grpcServer.GracefulStop()

		// 4. Release service resources, then flush telemetry
		closeComponents(comps, logger)
		flushTelemetry()

		logger.Info("shutdown complete")
		return nil
	})

	return g.Wait()
}

func bindListeners(ctx context.Context, cfg *config.Config, ls *Listeners) error {
	lc := &net.ListenConfig{}
	if ls.HTTP == nil {
		ln, err := lc.Listen(ctx, "tcp", net.JoinHostPort(cfg.Daemon.Addr, fmt.Sprint(cfg.Daemon.HTTPPort)))
		if err != nil {
			return fmt.Errorf("listen http: %w", err)
		}
		ls.HTTP = ln
	}
	if ls.GRPC == nil {
		ln, err := lc.Listen(ctx, "tcp", net.JoinHostPort(cfg.Daemon.Addr, fmt.Sprint(cfg.Daemon.GRPCPort)))
		if err != nil {
			_ = ls.HTTP.Close()
			return fmt.Errorf("listen grpc: %w", err)
		}
		ls.GRPC = ln
	}
	return nil
}

func closeComponents(c *Components, logger *slog.Logger) {
	if c == nil || c.Close == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), domain.ShutdownHTTPTimeout)
	defer cancel()
	if err := c.Close(ctx); err != nil {
		logger.Error("service close error", slog.String("error", err.Error()))
	}
}
