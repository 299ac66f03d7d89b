package tracer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/lccmrx/go-context-kit/pkg/baggage"
	"github.com/lccmrx/go-context-kit/pkg/metadata"
	"github.com/lccmrx/go-context-kit/pkg/metadata/fields"
)

const attributePrefix = "baggage."

// BaggageSpanProcessor copies the baggage of the parent context onto every
// span it sees. Private entries are skipped; PublicExceptLogging ones are
// exported. Trace and span ids are skipped as the span already carries them.
type BaggageSpanProcessor struct{}

var _ sdktrace.SpanProcessor = BaggageSpanProcessor{}

func NewBaggageSpanProcessor() BaggageSpanProcessor {
	return BaggageSpanProcessor{}
}

func (BaggageSpanProcessor) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	b := metadata.FromContext(parent)
	if b.IsEmpty() {
		return
	}

	attrs := make([]attribute.KeyValue, 0, b.Count())
	b.ForEach(func(k baggage.ErasedKey, v any) {
		if k.Equal(traceIDKey) || k.Equal(spanIDKey) {
			return
		}
		attrs = append(attrs, toAttribute(attributePrefix+k.Name(), v))
	})
	s.SetAttributes(attrs...)
}

func (BaggageSpanProcessor) OnEnd(sdktrace.ReadOnlySpan) {}

func (BaggageSpanProcessor) Shutdown(context.Context) error { return nil }

func (BaggageSpanProcessor) ForceFlush(context.Context) error { return nil }

var (
	traceIDKey = baggage.KeyOf[fields.TraceIDKey, string]()
	spanIDKey  = baggage.KeyOf[fields.SpanIDKey, string]()
)

func toAttribute(key string, value any) attribute.KeyValue {
	k := attribute.Key(key)
	switch v := value.(type) {
	case string:
		return k.String(v)
	case int:
		return k.Int(v)
	case int64:
		return k.Int64(v)
	case float64:
		return k.Float64(v)
	case bool:
		return k.Bool(v)
	case []string:
		return k.StringSlice(v)
	case fmt.Stringer:
		return k.String(v.String())
	default:
		return k.String(fmt.Sprintf("%v", v))
	}
}
