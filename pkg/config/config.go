// Package config provides configuration loading and validation for ranktest.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidThreshold   = errors.New("approximation threshold must be positive")
	ErrInvalidFormat      = errors.New("invalid output format")
	ErrInvalidColor       = errors.New("invalid color mode")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidLogFormat   = errors.New("invalid log format")
	ErrInvalidSampleRatio = errors.New("trace sample ratio must be in [0, 1]")
)

const (
	configName = "ranktest"
	envPrefix  = "RANKTEST"
)

// Config holds all configuration for ranktest.
type Config struct {
	Analysis      AnalysisConfig      `mapstructure:"analysis"`
	Output        OutputConfig        `mapstructure:"output"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AnalysisConfig holds test configuration.
type AnalysisConfig struct {
	// ApproximationThreshold is the sample size above which the normal
	// approximation is reported as reliable.
	ApproximationThreshold int `mapstructure:"approximation_threshold"`
}

// OutputConfig holds report output configuration.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Color  string `mapstructure:"color"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ObservabilityConfig holds tracing and metrics export configuration.
type ObservabilityConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	MetricsAddr  string  `mapstructure:"metrics_addr"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	Environment  string  `mapstructure:"environment"`
}

// LoadConfig loads configuration from file and environment variables.
// An empty configPath searches ranktest.yaml in the working directory,
// ./config and /etc/ranktest; a missing file there is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/ranktest")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// Default returns the configuration used when no file or environment is set.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{ApproximationThreshold: DefaultApproximationThreshold},
		Output:   OutputConfig{Format: DefaultOutputFormat, Color: DefaultOutputColor},
		Logging:  LoggingConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Observability: ObservabilityConfig{
			OTLPEndpoint: DefaultOTLPEndpoint,
			OTLPInsecure: DefaultOTLPInsecure,
			MetricsAddr:  DefaultMetricsAddr,
			SampleRatio:  DefaultSampleRatio,
		},
	}
}

func setDefaults(viperCfg *viper.Viper) {
	def := Default()

	viperCfg.SetDefault("analysis.approximation_threshold", def.Analysis.ApproximationThreshold)

	viperCfg.SetDefault("output.format", def.Output.Format)
	viperCfg.SetDefault("output.color", def.Output.Color)

	viperCfg.SetDefault("logging.level", def.Logging.Level)
	viperCfg.SetDefault("logging.format", def.Logging.Format)

	viperCfg.SetDefault("observability.otlp_endpoint", def.Observability.OTLPEndpoint)
	viperCfg.SetDefault("observability.otlp_headers", "")
	viperCfg.SetDefault("observability.otlp_insecure", def.Observability.OTLPInsecure)
	viperCfg.SetDefault("observability.metrics_addr", def.Observability.MetricsAddr)
	viperCfg.SetDefault("observability.sample_ratio", def.Observability.SampleRatio)
	viperCfg.SetDefault("observability.environment", "")
}

// Validate checks every field against its allowed values.
func (c *Config) Validate() error {
	if c.Analysis.ApproximationThreshold <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidThreshold, c.Analysis.ApproximationThreshold)
	}

	if !slices.Contains(validOutputFormats, c.Output.Format) {
		return fmt.Errorf("%w: %q (want one of %s)", ErrInvalidFormat, c.Output.Format, strings.Join(validOutputFormats, ", "))
	}

	if !slices.Contains(validColorModes, c.Output.Color) {
		return fmt.Errorf("%w: %q (want one of %s)", ErrInvalidColor, c.Output.Color, strings.Join(validColorModes, ", "))
	}

	if !slices.Contains(validLogLevels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	if !slices.Contains(validLogFormats, c.Logging.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	if c.Observability.SampleRatio < 0 || c.Observability.SampleRatio > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidSampleRatio, c.Observability.SampleRatio)
	}

	return nil
}

// SlogLevel maps Logging.Level to a [slog.Level]. Unknown levels map to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
