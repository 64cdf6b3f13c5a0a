package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/aelexs/timekeeper/internal/auth"
	"github.com/aelexs/timekeeper/internal/config"
	"github.com/aelexs/timekeeper/internal/domain"
	"github.com/aelexs/timekeeper/internal/dynamo"
	"github.com/aelexs/timekeeper/internal/redis"
	"github.com/aelexs/timekeeper/internal/server"
	"github.com/aelexs/timekeeper/internal/ticker"
	"github.com/aelexs/timekeeper/internal/timekeeper/adapter"
	"github.com/aelexs/timekeeper/internal/timekeeper/app"
	"github.com/aelexs/timekeeper/internal/timekeeper/port"
)

// setup is the daemon composition root. It creates the state store and
// notifier for the configured backends, restores persisted state, and
// builds the HTTP handler.
func setup(ctx context.Context, deps server.Deps) (*server.Components, error) {
	cfg := deps.Config
	logger := deps.Logger
	clock := domain.RealClock{}

	// Closers run in reverse order on shutdown.
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	// 1. State store.
	store, closeStore, err := createStore(ctx, cfg, clock, logger)
	if err != nil {
		return nil, fmt.Errorf("timekeeperd setup: create store: %w", err)
	}
	if closeStore != nil {
		closers = append(closers, closeStore)
	}

	// 2. Notifier.
	notifier, err := createNotifier(ctx, cfg, logger)
	if err != nil {
		_ = closeAll()
		return nil, fmt.Errorf("timekeeperd setup: create notifier: %w", err)
	}

	// 3. Service.
	loc, err := cfg.Location()
	if err != nil {
		_ = closeAll()
		return nil, fmt.Errorf("timekeeperd setup: %w", err)
	}

	svc := app.NewService(app.ServiceConfig{
		Store:          store,
		Notifier:       notifier,
		Clock:          clock,
		Scheduler:      ticker.RealScheduler{},
		Logger:         logger,
		Location:       loc,
		TickInterval:   cfg.Timer.TickInterval,
		StallTimeout:   cfg.Timer.StallTimeout,
		PollInterval:   cfg.Timer.PollInterval,
		DefaultSeconds: cfg.Timer.DefaultSeconds,
		SnoozeMinutes:  cfg.Alarm.SnoozeMinutes,
	})
	closers = append(closers, func() error {
		svc.Close()
		return nil
	})

	if err := svc.Init(ctx); err != nil {
		_ = closeAll()
		return nil, fmt.Errorf("timekeeperd setup: restore state: %w", err)
	}

	// 4. HTTP handler.
	validator, err := createValidator(cfg, clock, logger)
	if err != nil {
		_ = closeAll()
		return nil, fmt.Errorf("timekeeperd setup: create validator: %w", err)
	}

	hcfg := port.HandlerConfig{
		Service: svc,
		Logger:  logger,
		Clock:   clock,
	}
	if validator != nil {
		hcfg.Validator = validator
	}
	handler, err := port.NewHandler(hcfg)
	if err != nil {
		_ = closeAll()
		return nil, fmt.Errorf("timekeeperd setup: create handler: %w", err)
	}

	logger.Info("timekeeper ready",
		slog.String("store", string(cfg.Store.Backend)),
		slog.String("notify", string(cfg.Notify.Backend)),
		slog.String("timezone", loc.String()),
		slog.Bool("auth", validator != nil),
	)

	return &server.Components{
		Handler: handler,
		Workers: []server.Worker{svc.Run},
		Close: func(context.Context) error {
			return closeAll()
		},
	}, nil
}

// createStore returns the state store for the configured backend and a
// closer for any connection it owns.
func createStore(ctx context.Context, cfg *config.Config, clock domain.Clock, logger *slog.Logger) (app.StateStore, func() error, error) {
	switch cfg.Store.Backend {
	case domain.StoreBackendMemory:
		logger.Warn("using in-memory state store; state is lost on restart")
		return adapter.NewMemoryStore(), nil, nil

	case domain.StoreBackendSQLite:
		s, err := adapter.NewSQLiteStore(ctx, cfg.Store.SQLitePath, clock)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case domain.StoreBackendRedis:
		client := redis.NewClient(redis.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			ReadTimeout:  cfg.Redis.Timeout,
			WriteTimeout: cfg.Redis.Timeout,
		})
		pingCtx, cancel := context.WithTimeout(ctx, domain.RedisTimeout)
		defer cancel()
		if err := client.Ping(pingCtx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return adapter.NewRedisStore(client.RDB, cfg.Store.Namespace), client.Close, nil

	case domain.StoreBackendDynamoDB:
		client, err := dynamo.NewClient(ctx, dynamo.Config{
			Endpoint: cfg.DynamoDB.Endpoint,
			Region:   cfg.AWS.Region,
			Timeout:  cfg.DynamoDB.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return adapter.NewDynamoStore(client.DB, cfg.Store.DynamoTable, clock), nil, nil
	}
	return nil, nil, fmt.Errorf("%w: store backend %q", domain.ErrConfigInvalid, cfg.Store.Backend)
}

// createNotifier returns the notifier for the configured backend.
func createNotifier(ctx context.Context, cfg *config.Config, logger *slog.Logger) (app.Notifier, error) {
	switch cfg.Notify.Backend {
	case domain.NotifyBackendLog:
		return adapter.NewLogNotifier(logger), nil

	case domain.NotifyBackendSNS:
		client, err := newSNSClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return adapter.NewSNSNotifier(client, cfg.Notify.SNSTopicARN), nil
	}
	return nil, fmt.Errorf("%w: notify backend %q", domain.ErrConfigInvalid, cfg.Notify.Backend)
}

// newSNSClient creates an SNS client. A non-empty AWS endpoint targets
// LocalStack with static test credentials.
func newSNSClient(ctx context.Context, cfg *config.Config) (*sns.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWS.Region),
	}
	if cfg.AWS.Endpoint != "" {
		opts = append(opts,
			awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider("test", "test", ""),
			),
		)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	awsCfg.HTTPClient = &http.Client{Timeout: domain.SNSTimeout}

	var snsOpts []func(*sns.Options)
	if cfg.AWS.Endpoint != "" {
		snsOpts = append(snsOpts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.AWS.Endpoint)
		})
	}
	return sns.NewFromConfig(awsCfg, snsOpts...), nil
}

// createValidator returns nil when auth is disabled.
func createValidator(cfg *config.Config, clock domain.Clock, logger *slog.Logger) (*auth.Validator, error) {
	if !cfg.Auth.Enabled {
		if !cfg.IsLocal() {
			logger.Warn("control API authentication disabled")
		}
		return nil, nil
	}

	keyStore, err := auth.LoadKeyStoreFile(cfg.Auth.KeyFile, cfg.Auth.KeyID)
	if err != nil {
		return nil, err
	}
	return auth.NewValidator(auth.ValidatorConfig{
		KeyStore: keyStore,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		Clock:    clock,
	}), nil
}
