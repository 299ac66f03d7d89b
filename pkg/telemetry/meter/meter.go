package meter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/lccmrx/go-context-kit/pkg/baggage"
)

const TODOCounterName = "baggage.todo.created"

var (
	meter metric.Meter
)

func New(name string) {
	meter = otel.Meter(name)
}

type KeyValue struct {
	Key   string
	Value any
}

func transformKeyValue(attrs ...KeyValue) attribute.Set {
	otelAttrs := make([]attribute.KeyValue, 0, len(attrs))

	for _, attr := range attrs {
		k := attribute.Key(attr.Key)
		switch v := attr.Value.(type) {
		case string:
			otelAttrs = append(otelAttrs, k.String(v))
		case int:
			otelAttrs = append(otelAttrs, k.Int(v))
		case float64:
			otelAttrs = append(otelAttrs, k.Float64(v))
		case bool:
			otelAttrs = append(otelAttrs, k.Bool(v))
		default:
			otelAttrs = append(otelAttrs, k.String(fmt.Sprintf("%v", v)))
		}
	}

	return attribute.NewSet(otelAttrs...)
}

type AttributeGenerator func() []KeyValue

func WithAttribute(key string, value any) AttributeGenerator {
	return func() []KeyValue {
		return []KeyValue{
			{
				Key:   key,
				Value: value,
			},
		}
	}
}

func WithAttributes(attrs ...any) AttributeGenerator {
	if len(attrs)%2 != 0 {
		panic(errors.New("`WithAttributes` needs to receive even number of params, being the first a string key and any value"))
	}
	return func() []KeyValue {
		attrsKeyValues := make([]KeyValue, 0, len(attrs)/2)
		for i := 0; i < len(attrs); i += 2 {
			attrsKeyValues = append(attrsKeyValues, KeyValue{
				Key:   attrs[i].(string),
				Value: attrs[i+1],
			})
		}
		return attrsKeyValues
	}
}

// WithBaggage turns the Public entries of b into metric attributes.
func WithBaggage(b baggage.Baggage) AttributeGenerator {
	return func() []KeyValue {
		kvs := make([]KeyValue, 0, b.Count())
		b.ForEachAccess(baggage.AccessLogging, func(k baggage.ErasedKey, v any) {
			kvs = append(kvs, KeyValue{Key: k.Name(), Value: v})
		})
		return kvs
	}
}

func collect(attrsGens []AttributeGenerator) attribute.Set {
	attributes := make([]KeyValue, 0)
	for _, gen := range attrsGens {
		attributes = append(attributes, gen()...)
	}
	return transformKeyValue(attributes...)
}

func Counter(ctx context.Context, name string, incr int64, attrsGens ...AttributeGenerator) {
	if meter == nil {
		return
	}

	counter, err := meter.Int64Counter(name)
	if err != nil {
		slog.Error("failed to use meter", "error", err)
		return
	}

	counter.Add(ctx, incr, metric.WithAttributeSet(collect(attrsGens)))
}

func Histogram(ctx context.Context, name string, value int64, attrsGens ...AttributeGenerator) {
	if meter == nil {
		return
	}

	histogram, err := meter.Int64Histogram(name)
	if err != nil {
		slog.Error("failed to use meter", "error", err)
		return
	}

	histogram.Record(ctx, value, metric.WithAttributeSet(collect(attrsGens)))
}

// TODOHook counts TODO baggage creation per call site. Register it with
// baggage.WithTODOHook.
func TODOHook(ctx context.Context) func(baggage.TODOLocation) {
	return func(todo baggage.TODOLocation) {
		slog.WarnContext(ctx, "baggage created with TODO",
			"location", todo.SourceLocation.String(),
			"reason", todo.Reason,
		)
		Counter(ctx, TODOCounterName, 1,
			WithAttributes("file", todo.File, "line", todo.Line),
		)
	}
}
