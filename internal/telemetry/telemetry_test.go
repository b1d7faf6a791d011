package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/haulroute/haulroute/internal/telemetry"
)

func TestInit_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "haulroute-api",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		OTLPEndpoint:   "localhost:4317",
		Enabled:        false,
	})

	require.NoError(t, err)
	assert.False(t, provider.Enabled())
	assert.Nil(t, provider.TracerProvider)
	assert.Nil(t, provider.MeterProvider)
	assert.NoError(t, provider.Shutdown(ctx))
}

func TestInit_InstallsPropagator(t *testing.T) {
	_, err := telemetry.Init(context.Background(), telemetry.Config{Enabled: false})
	require.NoError(t, err)

	fields := otel.GetTextMapPropagator().Fields()
	assert.Contains(t, fields, "traceparent")
	assert.Contains(t, fields, "baggage")
}

func TestInit_Enabled(t *testing.T) {
	ctx := context.Background()

	// Exporters connect lazily, so no collector is needed to build them.
	provider, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:  "haulroute-api",
		OTLPEndpoint: "127.0.0.1:4317",
		Enabled:      true,
	})
	require.NoError(t, err)
	assert.True(t, provider.Enabled())
	assert.NotNil(t, provider.MeterProvider)

	shutdownCtx, cancel := context.WithCancel(ctx)
	cancel()
	_ = provider.Shutdown(shutdownCtx)
}

func TestProvider_Shutdown_NilProviders(t *testing.T) {
	provider := &telemetry.Provider{}
	assert.NoError(t, provider.Shutdown(context.Background()))
}
