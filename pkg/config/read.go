package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

const (
	EnvPrefix    = "CTXKIT"
	ConfigName   = "config"
	ConfigFormat = "yaml"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("baggage.crash_on_todo", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("telemetry.service_name", "ctxkit")
	v.SetDefault("telemetry.environment", "")
	v.SetDefault("telemetry.collector_endpoint", "localhost:4317")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.sampling_ratio", 1.0)
	v.SetDefault("telemetry.meter", false)
	v.SetDefault("telemetry.trace", false)
	v.SetDefault("telemetry.logger", false)

	v.SetDefault("worker.pool_size", 100)
	v.SetDefault("worker.queue_multiplier", 100)
	v.SetDefault("worker.stats_interval", "15s")
}

// ReadConfig reads path (a yaml file, or a directory holding config.yaml) and
// applies CTXKIT_* environment overrides, e.g. CTXKIT_BAGGAGE_CRASH_ON_TODO
// overrides baggage.crash_on_todo. A missing file is not an error.
func ReadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType(ConfigFormat)
		if path != "" {
			v.AddConfigPath(path)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit SetConfigFile path reports a missing file as an fs error.
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func MustReadConfig(path string) *Config {
	config, err := ReadConfig(path)
	if err != nil {
		panic(err)
	}
	return config
}
