package log

import (
	"log/slog"
	"os"
)

type opt func(*params) *params

type params struct {
	fallbackHandler slog.Handler
	additionalGroup string
}

func defaultParams() *params {
	return &params{
		fallbackHandler: slog.NewJSONHandler(os.Stdout, nil),
		additionalGroup: "additional",
	}
}

func WithFallbackHandler(handler slog.Handler) opt {
	return func(p *params) *params {
		p.fallbackHandler = handler
		return p
	}
}

// WithAdditionalGroup renames the group holding non-correlation entries.
func WithAdditionalGroup(name string) opt {
	return func(p *params) *params {
		p.additionalGroup = name
		return p
	}
}
