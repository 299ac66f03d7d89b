package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
)

func apply(opts []opt) *config {
	c := &config{}
	for _, opt := range opts {
		c = opt(c)
	}
	return c
}

func TestConfigOptions(t *testing.T) {
	cfg := Config{
		ServiceName:       "svc",
		Environment:       "test",
		CollectorEndpoint: "collector:4317",
		Insecure:          true,
		SamplingRatio:     0.25,
		Trace:             true,
	}

	c := apply(cfg.Options())

	assert.Equal(t, "svc", c.serviceName)
	assert.Equal(t, "collector:4317", c.collectorEndpoint)
	assert.True(t, c.insecure)
	assert.Equal(t, 0.25, c.samplingRatio)
	assert.True(t, c.enabledTraceProvider)
	assert.False(t, c.enabledMeterProvider)
	assert.False(t, c.enabledLoggerProvider)

	keys := map[attribute.Key]bool{}
	for _, kv := range c.attributes {
		keys[kv.Key] = true
	}
	assert.True(t, keys["service.name"])
	assert.True(t, keys["deployment.environment.name"])
}

func TestWithSamplingRatio(t *testing.T) {
	tests := []struct {
		ratio float64
		want  float64
	}{
		{ratio: 0, want: 1},
		{ratio: -1, want: 1},
		{ratio: 2, want: 1},
		{ratio: 0.5, want: 0.5},
	}

	for _, tt := range tests {
		c := apply([]opt{WithSamplingRatio(tt.ratio)})
		assert.Equal(t, tt.want, c.samplingRatio)
	}
}

func TestNewWithoutSignals(t *testing.T) {
	require.NoError(t, New(context.Background(), WithServiceName("test")))
	require.NotNil(t, telemetryInstance)
	assert.Nil(t, telemetryInstance.tracerProvider)
	assert.IsType(t, noopmetric.MeterProvider{}, otel.GetMeterProvider())

	assert.NoError(t, Shutdown(context.Background()))
	assert.Nil(t, telemetryInstance)
	assert.NoError(t, Shutdown(context.Background()))
}
