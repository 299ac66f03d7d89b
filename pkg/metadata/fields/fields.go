package fields

import (
	"context"

	"github.com/google/uuid"

	"github.com/lccmrx/go-context-kit/pkg/baggage"
	"github.com/lccmrx/go-context-kit/pkg/metadata"
)

type RequestIDKey struct{ baggage.Of[string] }

func (RequestIDKey) Name() string { return "request-id" }

type TraceIDKey struct{ baggage.Of[string] }

func (TraceIDKey) Name() string { return "trace-id" }

type SpanIDKey struct{ baggage.Of[string] }

func (SpanIDKey) Name() string { return "span-id" }

type TaskIDKey struct{ baggage.Of[uuid.UUID] }

func (TaskIDKey) Name() string { return "task-id" }

// UserIDKey is exported to traces but kept out of logs.
type UserIDKey struct{ baggage.Of[string] }

func (UserIDKey) Name() string { return "user-id" }

func (UserIDKey) AccessPolicy() baggage.AccessPolicy { return baggage.PublicExceptLogging }

// AuthTokenKey is never enumerated.
type AuthTokenKey struct{ baggage.Of[string] }

func (AuthTokenKey) Name() string { return "auth-token" }

func (AuthTokenKey) AccessPolicy() baggage.AccessPolicy { return baggage.Private }

// Correlation holds the keys loggers lift to the top level of a record.
var Correlation = []baggage.ErasedKey{
	baggage.KeyOf[RequestIDKey, string](),
	baggage.KeyOf[TraceIDKey, string](),
	baggage.KeyOf[SpanIDKey, string](),
	baggage.KeyOf[TaskIDKey, uuid.UUID](),
}

func IsCorrelation(k baggage.ErasedKey) bool {
	for _, c := range Correlation {
		if c.Equal(k) {
			return true
		}
	}
	return false
}

func RequestID(b baggage.Baggage) (string, bool) {
	return baggage.Get[RequestIDKey, string](b)
}

func SetRequestID(b *baggage.Baggage, id string) {
	baggage.Set[RequestIDKey](b, id)
}

func TraceID(b baggage.Baggage) (string, bool) {
	return baggage.Get[TraceIDKey, string](b)
}

func SetTraceID(b *baggage.Baggage, id string) {
	baggage.Set[TraceIDKey](b, id)
}

func SpanID(b baggage.Baggage) (string, bool) {
	return baggage.Get[SpanIDKey, string](b)
}

func SetSpanID(b *baggage.Baggage, id string) {
	baggage.Set[SpanIDKey](b, id)
}

func TaskID(b baggage.Baggage) (uuid.UUID, bool) {
	return baggage.Get[TaskIDKey, uuid.UUID](b)
}

func SetTaskID(b *baggage.Baggage, id uuid.UUID) {
	baggage.Set[TaskIDKey](b, id)
}

func UserID(b baggage.Baggage) (string, bool) {
	return baggage.Get[UserIDKey, string](b)
}

func SetUserID(b *baggage.Baggage, id string) {
	baggage.Set[UserIDKey](b, id)
}

func AuthToken(b baggage.Baggage) (string, bool) {
	return baggage.Get[AuthTokenKey, string](b)
}

func SetAuthToken(b *baggage.Baggage, token string) {
	baggage.Set[AuthTokenKey](b, token)
}

// RequestIDFromContext returns the request id carried by ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := RequestID(metadata.FromContext(ctx))
	return id
}

// WithRequestID attaches a request id to ctx, generating one when id is empty.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return metadata.With(ctx, func(b *baggage.Baggage) {
		SetRequestID(b, id)
	})
}
