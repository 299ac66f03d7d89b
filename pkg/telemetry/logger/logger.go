package logger

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/log"

	"github.com/lccmrx/go-context-kit/pkg/baggage"
	"github.com/lccmrx/go-context-kit/pkg/metadata"
)

// otelHandler tees records to logHandler and to an OpenTelemetry logger.
// The OpenTelemetry record carries the Public baggage entries as attributes.
type otelHandler struct {
	otelLogger log.Logger
	logHandler slog.Handler

	attrs  []log.KeyValue
	prefix string
}

func (h *otelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.logHandler.Enabled(ctx, level)
}

func (h *otelHandler) Handle(ctx context.Context, r slog.Record) error {
	err := h.logHandler.Handle(ctx, r)

	attrs := make([]log.KeyValue, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, log.String(h.prefix+a.Key, a.Value.String()))
		return true
	})
	metadata.FromContext(ctx).ForEachAccess(baggage.AccessLogging, func(k baggage.ErasedKey, v any) {
		attrs = append(attrs, log.String(k.Name(), fmt.Sprintf("%v", v)))
	})

	otelRecord := log.Record{}
	otelRecord.SetTimestamp(r.Time)
	otelRecord.SetSeverity(severity(r.Level))
	otelRecord.SetSeverityText(r.Level.String())
	otelRecord.SetBody(log.StringValue(r.Message))
	otelRecord.AddAttributes(attrs...)

	h.otelLogger.Emit(ctx, otelRecord)
	return err
}

func (h *otelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.clone()
	next.logHandler = h.logHandler.WithAttrs(attrs)
	for _, a := range attrs {
		next.attrs = append(next.attrs, log.String(h.prefix+a.Key, a.Value.String()))
	}
	return next
}

func (h *otelHandler) WithGroup(name string) slog.Handler {
	next := h.clone()
	next.logHandler = h.logHandler.WithGroup(name)
	next.prefix = h.prefix + name + "."
	return next
}

func (h *otelHandler) clone() *otelHandler {
	return &otelHandler{
		otelLogger: h.otelLogger,
		logHandler: h.logHandler,
		attrs:      append([]log.KeyValue(nil), h.attrs...),
		prefix:     h.prefix,
	}
}

func severity(l slog.Level) log.Severity {
	switch {
	case l >= slog.LevelError:
		return log.SeverityError
	case l >= slog.LevelWarn:
		return log.SeverityWarn
	case l >= slog.LevelInfo:
		return log.SeverityInfo
	default:
		return log.SeverityDebug
	}
}

func NewOtelHandler(otelLogger log.Logger, logHandler slog.Handler) slog.Handler {
	return &otelHandler{otelLogger: otelLogger, logHandler: logHandler}
}

// SetDefault installs the OpenTelemetry tee as the slog default.
func SetDefault(otelLogger log.Logger, logHandler slog.Handler) {
	slog.SetDefault(slog.New(NewOtelHandler(otelLogger, logHandler)))
}
