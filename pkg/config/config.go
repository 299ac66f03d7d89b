package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lccmrx/go-context-kit/pkg/baggage"
	"github.com/lccmrx/go-context-kit/pkg/log"
	"github.com/lccmrx/go-context-kit/pkg/telemetry"
	"github.com/lccmrx/go-context-kit/pkg/worker"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Baggage   baggage.Config   `yaml:"baggage" mapstructure:"baggage"`
	Log       log.Config       `yaml:"log" mapstructure:"log"`
	Telemetry telemetry.Config `yaml:"telemetry" mapstructure:"telemetry"`
	Worker    worker.Config    `yaml:"worker" mapstructure:"worker"`
}

func (c *Config) Validate() error {
	switch log.Level(strings.ToLower(string(c.Log.Level))) {
	case log.DebugLevel, log.InfoLevel, log.WarnLevel, log.ErrorLevel:
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Log.Level)
	}

	switch log.Format(strings.ToLower(string(c.Log.Format))) {
	case log.TextFormat, log.JSONFormat:
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Log.Format)
	}

	if r := c.Telemetry.SamplingRatio; r < 0 || r > 1 {
		return fmt.Errorf("%w: telemetry sampling ratio %v not in [0, 1]", ErrInvalidConfig, r)
	}

	if c.Worker.PoolSize == 0 {
		return fmt.Errorf("%w: worker pool size must be positive", ErrInvalidConfig)
	}

	return nil
}
