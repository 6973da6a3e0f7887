package telemetry_test

import (
	"context"
	"testing"

	"ewm-participation/internal/config"
	"ewm-participation/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := telemetry.Setup(context.Background(), config.TelemetryConfig{Enabled: false}, "event-service")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
}

func TestSetup_Enabled(t *testing.T) {
	ctx := context.Background()
	shutdown, err := telemetry.Setup(ctx, config.TelemetryConfig{Enabled: true, Endpoint: "http://127.0.0.1:4318"}, "event-service")
	require.NoError(t, err)
	assert.NoError(t, shutdown(ctx))
}
