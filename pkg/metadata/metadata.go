package metadata

import (
	"context"
	"errors"

	"github.com/lccmrx/go-context-kit/pkg/baggage"
)

var ErrNoBaggage = errors.New("no baggage found in context")

type contextBaggageKey struct{}

// FromContext returns the baggage carried by ctx, or an empty one.
func FromContext(ctx context.Context) baggage.Baggage {
	b, _ := Lookup(ctx)
	return b
}

func Lookup(ctx context.Context) (baggage.Baggage, bool) {
	if ctx == nil {
		return baggage.TopLevel(), false
	}
	if b, ok := ctx.Value(contextBaggageKey{}).(baggage.Baggage); ok {
		return b, true
	}
	return baggage.TopLevel(), false
}

// MustFromContext panics with ErrNoBaggage when ctx carries none.
func MustFromContext(ctx context.Context) baggage.Baggage {
	b, ok := Lookup(ctx)
	if !ok {
		panic(ErrNoBaggage)
	}
	return b
}

func NewContext(ctx context.Context, b baggage.Baggage) context.Context {
	return context.WithValue(ctx, contextBaggageKey{}, b)
}

// With returns a context whose baggage is ctx's baggage after fn ran on a copy
// of it. The baggage of ctx itself is left as is.
func With(ctx context.Context, fn func(b *baggage.Baggage)) context.Context {
	b := FromContext(ctx)
	fn(&b)
	return NewContext(ctx, b)
}
