package observability

import (
	"context"
	"errors"
	"fmt"
)

// Config is the combined tracing and metrics configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
}

// Providers holds the installed tracer and meter providers.
type Providers struct {
	Tracer  *TracerProvider
	Metrics *MetricsProvider
}

// Setup installs tracer and meter providers. On failure nothing is left
// running.
func Setup(ctx context.Context, cfg Config) (*Providers, error) {
	tp, err := InitTracer(ctx, TracerConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	mp, err := InitMetrics(ctx, MetricsConfig(cfg))
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return &Providers{Tracer: tp, Metrics: mp}, nil
}

// Shutdown flushes and stops both providers, reporting every failure.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if p.Tracer != nil {
		if err := p.Tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer: %w", err))
		}
	}
	if p.Metrics != nil {
		if err := p.Metrics.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown metrics: %w", err))
		}
	}
	return errors.Join(errs...)
}
