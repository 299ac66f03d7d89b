package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// Config is the file/env rendition of the options below.
type Config struct {
	ServiceName       string  `yaml:"service_name" mapstructure:"service_name"`
	Environment       string  `yaml:"environment" mapstructure:"environment"`
	CollectorEndpoint string  `yaml:"collector_endpoint" mapstructure:"collector_endpoint"`
	Insecure          bool    `yaml:"insecure" mapstructure:"insecure"`
	SamplingRatio     float64 `yaml:"sampling_ratio" mapstructure:"sampling_ratio"`
	Meter             bool    `yaml:"meter" mapstructure:"meter"`
	Trace             bool    `yaml:"trace" mapstructure:"trace"`
	Logger            bool    `yaml:"logger" mapstructure:"logger"`
}

func (c Config) Options() []opt {
	opts := []opt{
		WithServiceName(c.ServiceName),
		WithSamplingRatio(c.SamplingRatio),
	}
	if c.Environment != "" {
		opts = append(opts, WithEnvironment(c.Environment))
	}
	if c.CollectorEndpoint != "" {
		opts = append(opts, WithCollectorEndpoint(c.CollectorEndpoint))
	}
	if c.Insecure {
		opts = append(opts, WithInsecure())
	}
	if c.Meter {
		opts = append(opts, WithEnabledMeterProvider())
	}
	if c.Trace {
		opts = append(opts, WithEnabledTraceProvider())
	}
	if c.Logger {
		opts = append(opts, WithEnabledLoggerProvider())
	}
	return opts
}

type opt func(*config) *config

type config struct {
	serviceName       string
	attributes        []attribute.KeyValue
	collectorEndpoint string
	insecure          bool
	samplingRatio     float64

	enabledMeterProvider  bool
	enabledTraceProvider  bool
	enabledLoggerProvider bool
}

func WithServiceName(name string) opt {
	return func(config *config) *config {
		config.serviceName = name
		if name != "" {
			config.attributes = append(config.attributes, semconv.ServiceName(name))
		}
		return config
	}
}

func WithResourceAttributes(attrs ...attribute.KeyValue) opt {
	return func(config *config) *config {
		config.attributes = append(config.attributes, attrs...)
		return config
	}
}

func WithEnvironment(env string) opt {
	return func(config *config) *config {
		config.attributes = append(config.attributes,
			semconv.DeploymentEnvironmentName(env),
		)
		return config
	}
}

func WithCollectorEndpoint(endpoint string) opt {
	return func(config *config) *config {
		config.collectorEndpoint = endpoint
		return config
	}
}

func WithInsecure() opt {
	return func(config *config) *config {
		config.insecure = true
		return config
	}
}

// WithSamplingRatio sets the ratio of root spans sampled. Values outside
// (0, 1] sample everything.
func WithSamplingRatio(ratio float64) opt {
	return func(config *config) *config {
		if ratio <= 0 || ratio > 1 {
			ratio = 1
		}
		config.samplingRatio = ratio
		return config
	}
}

func WithEnabledMeterProvider() opt {
	return func(config *config) *config {
		config.enabledMeterProvider = true
		return config
	}
}

func WithEnabledTraceProvider() opt {
	return func(config *config) *config {
		config.enabledTraceProvider = true
		return config
	}
}

func WithEnabledLoggerProvider() opt {
	return func(config *config) *config {
		config.enabledLoggerProvider = true
		return config
	}
}
