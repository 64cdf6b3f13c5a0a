package observability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aelexs/timekeeper/internal/observability"
)

func TestInitMetrics_NoEndpoint(t *testing.T) {
	cfg := observability.MetricsConfig{
		ServiceName:    "test-service",
		ServiceVersion: "0.0.1",
		Environment:    "test",
		OTLPEndpoint:   "",
	}

	mp, err := observability.InitMetrics(context.Background(), cfg)

	require.NoError(t, err)
	require.NotNil(t, mp)
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestMetricsProvider_ShutdownNilProvider(t *testing.T) {
	mp := &observability.MetricsProvider{}

	err := mp.Shutdown(context.Background())

	assert.NoError(t, err)
}

func TestSetup(t *testing.T) {
	p, err := observability.Setup(context.Background(), observability.Config{
		ServiceName:    "timekeeperd",
		ServiceVersion: "0.0.1",
		Environment:    "test",
	})

	require.NoError(t, err)
	require.NotNil(t, p.Tracer)
	require.NotNil(t, p.Metrics)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestProviders_ShutdownEmpty(t *testing.T) {
	p := &observability.Providers{}

	assert.NoError(t, p.Shutdown(context.Background()))
}
