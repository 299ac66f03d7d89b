package tracer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/lccmrx/go-context-kit/pkg/baggage"
	"github.com/lccmrx/go-context-kit/pkg/metadata"
	"github.com/lccmrx/go-context-kit/pkg/metadata/fields"
)

var (
	tracer trace.Tracer
)

func New(name string) {
	tracer = otel.Tracer(name)
}

// Start starts a span and records its trace and span ids in the baggage of
// the returned context.
func Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, noop.Span{}
	}

	ctx, span := tracer.Start(ctx, spanName, opts...)

	sc := span.SpanContext()
	if !sc.IsValid() {
		return ctx, span
	}

	ctx = metadata.With(ctx, func(b *baggage.Baggage) {
		fields.SetTraceID(b, sc.TraceID().String())
		fields.SetSpanID(b, sc.SpanID().String())
	})
	return ctx, span
}
