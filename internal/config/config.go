// Package config loads command line settings from an optional file and
// GQLMODULES_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, so that log.level is read
// from GQLMODULES_LOG_LEVEL.
const EnvPrefix = "GQLMODULES"

// Config holds command line settings.
type Config struct {
	Env      string        `mapstructure:"env"`
	Manifest string        `mapstructure:"manifest"`
	Log      LogConfig     `mapstructure:"log"`
	Otel     OtelConfig    `mapstructure:"otel"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
	Schema   SchemaConfig  `mapstructure:"schema"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// OtelConfig configures tracing. An empty endpoint disables it.
type OtelConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Service  string `mapstructure:"service"`
}

// MetricsConfig configures the metrics dump written on exit. An empty file
// disables it.
type MetricsConfig struct {
	File string `mapstructure:"file"`
}

// SchemaConfig holds schema builder settings.
type SchemaConfig struct {
	// ResolverValidation is error, warn or ignore.
	ResolverValidation string `mapstructure:"resolver_validation"`
	InheritResolvers   bool   `mapstructure:"inherit_resolvers"`
}

// Load reads configPath, or gqlmodules.{yaml,toml,json} from the working
// directory when configPath is empty. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("gqlmodules")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("manifest", "")
	v.SetDefault("log.level", "")
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.service", "gqlmodules")
	v.SetDefault("metrics.file", "")
	v.SetDefault("schema.resolver_validation", "error")
	v.SetDefault("schema.inherit_resolvers", false)
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	switch c.Schema.ResolverValidation {
	case "error", "warn", "ignore":
	default:
		return fmt.Errorf("invalid schema.resolver_validation: %q (must be error, warn, or ignore)", c.Schema.ResolverValidation)
	}
	return nil
}
