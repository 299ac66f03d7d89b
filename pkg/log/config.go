package log

import (
	"io"
	"log/slog"
	"strings"
)

type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

type Format string

const (
	TextFormat Format = "text"
	JSONFormat Format = "json"
)

type Config struct {
	Level  Level  `yaml:"level" mapstructure:"level"`
	Format Format `yaml:"format" mapstructure:"format"`
}

func DefaultConfig() Config {
	return Config{
		Level:  InfoLevel,
		Format: JSONFormat,
	}
}

func (c Config) slogLevel() slog.Level {
	switch Level(strings.ToLower(string(c.Level))) {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds a baggage-aware logger writing to w and installs it as the
// slog default.
func Setup(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.slogLevel()}

	var fallback slog.Handler
	switch Format(strings.ToLower(string(cfg.Format))) {
	case TextFormat:
		fallback = slog.NewTextHandler(w, opts)
	default:
		fallback = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(NewHandler(WithFallbackHandler(fallback)))
	slog.SetDefault(logger)

	return logger
}
