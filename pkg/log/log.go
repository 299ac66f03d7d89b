package log

import (
	"context"
	"log/slog"

	"github.com/lccmrx/go-context-kit/pkg/baggage"
	"github.com/lccmrx/go-context-kit/pkg/metadata"
	"github.com/lccmrx/go-context-kit/pkg/metadata/fields"
)

// NewHandler returns a slog.Handler that adds the Public entries of the
// record's baggage before delegating to the fallback handler. Correlation
// fields go to the top level, everything else under the "additional" group.
func NewHandler(opts ...opt) slog.Handler {
	p := defaultParams()
	for _, opt := range opts {
		p = opt(p)
	}

	return &handler{
		fallbackHandler: p.fallbackHandler,
		group:           p.additionalGroup,
	}
}

type handler struct {
	fallbackHandler slog.Handler
	group           string
}

func (h *handler) Handle(ctx context.Context, record slog.Record) error {
	b := metadata.FromContext(ctx)
	if b.IsEmpty() {
		return h.fallbackHandler.Handle(ctx, record)
	}

	attrs := make([]slog.Attr, 0, b.Count())
	additionalAttrs := make([]slog.Attr, 0, b.Count())
	b.ForEachAccess(baggage.AccessLogging, func(k baggage.ErasedKey, v any) {
		attr := slog.Any(k.Name(), v)
		if !fields.IsCorrelation(k) {
			additionalAttrs = append(additionalAttrs, attr)
			return
		}
		attrs = append(attrs, attr)
	})

	record = record.Clone()
	record.AddAttrs(attrs...)
	if len(additionalAttrs) > 0 {
		record.AddAttrs(slog.GroupAttrs(h.group, additionalAttrs...))
	}

	return h.fallbackHandler.Handle(ctx, record)
}

func (h *handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.fallbackHandler.Enabled(ctx, level)
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &handler{
		fallbackHandler: h.fallbackHandler.WithAttrs(attrs),
		group:           h.group,
	}
}

func (h *handler) WithGroup(name string) slog.Handler {
	return &handler{
		fallbackHandler: h.fallbackHandler.WithGroup(name),
		group:           h.group,
	}
}
