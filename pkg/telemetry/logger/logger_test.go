package logger

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"

	"github.com/lccmrx/go-context-kit/pkg/baggage"
	"github.com/lccmrx/go-context-kit/pkg/metadata"
	"github.com/lccmrx/go-context-kit/pkg/metadata/fields"
)

type recordingLogger struct {
	embedded.Logger

	mu      sync.Mutex
	records []log.Record
}

func (l *recordingLogger) Emit(_ context.Context, r log.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, r.Clone())
}

func (l *recordingLogger) Enabled(context.Context, log.EnabledParameters) bool {
	return true
}

func attrsOf(r log.Record) map[string]string {
	out := map[string]string{}
	r.WalkAttributes(func(kv log.KeyValue) bool {
		out[kv.Key] = kv.Value.AsString()
		return true
	})
	return out
}

func TestOtelHandler(t *testing.T) {
	var buf bytes.Buffer
	otelLogger := &recordingLogger{}
	h := NewOtelHandler(otelLogger, slog.NewTextHandler(&buf, nil))
	logger := slog.New(h).With("component", "test").WithGroup("req")

	b := baggage.TopLevel()
	fields.SetRequestID(&b, "req-1")
	fields.SetAuthToken(&b, "secret")
	ctx := metadata.NewContext(context.Background(), b)

	logger.WarnContext(ctx, "hello", "path", "/x")

	assert.Contains(t, buf.String(), "hello")

	require.Len(t, otelLogger.records, 1)
	r := otelLogger.records[0]
	assert.Equal(t, "hello", r.Body().AsString())
	assert.Equal(t, log.SeverityWarn, r.Severity())

	attrs := attrsOf(r)
	assert.Equal(t, "test", attrs["component"])
	assert.Equal(t, "/x", attrs["req.path"])
	assert.Equal(t, "req-1", attrs["request-id"])
	assert.NotContains(t, attrs, "auth-token")
}

func TestOtelHandlerEnabledFollowsLogHandler(t *testing.T) {
	h := NewOtelHandler(&recordingLogger{}, slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}))

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, log.SeverityDebug, severity(slog.LevelDebug))
	assert.Equal(t, log.SeverityInfo, severity(slog.LevelInfo))
	assert.Equal(t, log.SeverityWarn, severity(slog.LevelWarn))
	assert.Equal(t, log.SeverityError, severity(slog.LevelError+4))
}
