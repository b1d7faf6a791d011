// Package config loads gateway configuration from the environment and an
// optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config holds all configuration for the gateway.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	MapTiler  ProviderConfig
	Routing   ProviderConfig
	Upstream  UpstreamConfig
	Telemetry TelemetryConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int
	Env             string
	ShutdownTimeout time.Duration
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string
}

// ProviderConfig holds credentials and endpoint for one upstream provider.
type ProviderConfig struct {
	APIKey  string
	BaseURL string
}

// UpstreamConfig controls outbound call behavior shared by all providers.
type UpstreamConfig struct {
	Timeout        time.Duration
	MaxRetries     uint64
	CircuitBreaker bool
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
}

// Load reads configuration from config.yaml (if present) and the environment.
// Environment variables win over the file.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("app_port", 8080)
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("maptiler_api_key", "")
	v.SetDefault("maptiler_base_url", "https://api.maptiler.com")
	v.SetDefault("open_route_api_key", "")
	v.SetDefault("open_route_base_url", "https://api.openrouteservice.org")
	v.SetDefault("upstream_timeout", 10*time.Second)
	v.SetDefault("upstream_max_retries", 0)
	v.SetDefault("upstream_circuit_breaker", false)
	v.SetDefault("otel_enabled", false)
	v.SetDefault("otel_exporter_otlp_endpoint", "localhost:4317")
	v.SetDefault("shutdown_timeout", 30*time.Second)

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("app_port"),
			Env:             v.GetString("app_env"),
			ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		},
		Log: LogConfig{
			Level: v.GetString("log_level"),
		},
		MapTiler: ProviderConfig{
			APIKey:  v.GetString("maptiler_api_key"),
			BaseURL: v.GetString("maptiler_base_url"),
		},
		Routing: ProviderConfig{
			APIKey:  v.GetString("open_route_api_key"),
			BaseURL: v.GetString("open_route_base_url"),
		},
		Upstream: UpstreamConfig{
			Timeout:        v.GetDuration("upstream_timeout"),
			MaxRetries:     v.GetUint64("upstream_max_retries"),
			CircuitBreaker: v.GetBool("upstream_circuit_breaker"),
		},
		Telemetry: TelemetryConfig{
			Enabled:      v.GetBool("otel_enabled"),
			OTLPEndpoint: v.GetString("otel_exporter_otlp_endpoint"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with. Missing API keys
// are allowed; see MissingKeys.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid APP_PORT %d", c.Server.Port)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("invalid UPSTREAM_TIMEOUT %s", c.Upstream.Timeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid SHUTDOWN_TIMEOUT %s", c.Server.ShutdownTimeout)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.Log.Level, err)
	}
	return nil
}

// MissingKeys lists the environment names of unset provider API keys.
func (c *Config) MissingKeys() []string {
	var missing []string
	if c.MapTiler.APIKey == "" {
		missing = append(missing, "MAPTILER_API_KEY")
	}
	if c.Routing.APIKey == "" {
		missing = append(missing, "OPEN_ROUTE_API_KEY")
	}
	return missing
}

// Addr returns the server listen address in the format ":port".
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// LogLevel returns the parsed log level, defaulting to info.
func (c *Config) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
