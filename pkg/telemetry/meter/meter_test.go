package meter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/lccmrx/go-context-kit/pkg/baggage"
	"github.com/lccmrx/go-context-kit/pkg/metadata/fields"
)

func setupReader(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter = mp.Meter("test")
	t.Cleanup(func() {
		meter = nil
		_ = mp.Shutdown(context.Background())
	})

	return reader
}

func sumOf(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Sum[int64] {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				sum, ok := m.Data.(metricdata.Sum[int64])
				require.True(t, ok)
				return sum
			}
		}
	}
	t.Fatalf("metric %q not found", name)
	return metricdata.Sum[int64]{}
}

func TestTODOHookCounts(t *testing.T) {
	reader := setupReader(t)

	f := baggage.NewFactory(baggage.Config{}, baggage.WithTODOHook(TODOHook(context.Background())))
	f.TODOAt("first", baggage.SourceLocation{File: "a.go", Line: 3})
	f.TODOAt("again", baggage.SourceLocation{File: "a.go", Line: 3})
	f.TODOAt("other", baggage.SourceLocation{File: "b.go", Line: 9})

	sum := sumOf(t, reader, TODOCounterName)
	require.Len(t, sum.DataPoints, 2)

	byFile := map[string]int64{}
	for _, dp := range sum.DataPoints {
		file, _ := dp.Attributes.Value("file")
		byFile[file.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"a.go": 2, "b.go": 1}, byFile)
}

func TestCounterWithBaggage(t *testing.T) {
	reader := setupReader(t)

	b := baggage.TopLevel()
	fields.SetRequestID(&b, "req-1")
	fields.SetUserID(&b, "user-1")

	Counter(context.Background(), "requests", 1, WithBaggage(b), WithAttribute("route", "/x"))

	sum := sumOf(t, reader, "requests")
	require.Len(t, sum.DataPoints, 1)

	attrs := sum.DataPoints[0].Attributes
	v, ok := attrs.Value("request-id")
	require.True(t, ok)
	assert.Equal(t, "req-1", v.AsString())
	_, ok = attrs.Value("user-id")
	assert.False(t, ok)
	v, _ = attrs.Value("route")
	assert.Equal(t, "/x", v.AsString())
}

func TestWithAttributes(t *testing.T) {
	kvs := WithAttributes("a", 1, "b", "two")()
	assert.Equal(t, []KeyValue{{Key: "a", Value: 1}, {Key: "b", Value: "two"}}, kvs)

	assert.Panics(t, func() { WithAttributes("odd") })
}

func TestTransformKeyValue(t *testing.T) {
	set := transformKeyValue(
		KeyValue{Key: "s", Value: "v"},
		KeyValue{Key: "i", Value: 2},
		KeyValue{Key: "f", Value: 1.5},
		KeyValue{Key: "b", Value: true},
		KeyValue{Key: "p", Value: baggage.Public},
	)

	assert.Equal(t, 5, set.Len())
	v, _ := set.Value("p")
	assert.Equal(t, attribute.StringValue("public"), v)
}

func TestNoMeterIsNoop(t *testing.T) {
	meter = nil
	assert.NotPanics(t, func() {
		Counter(context.Background(), "x", 1)
		Histogram(context.Background(), "y", 1)
	})
}
