// Package config provides configuration loading and validation for the service.
// Configuration is loaded from YAML files with environment variable overrides
// using a layered system: defaults -> base.yaml -> {profile}.yaml -> env vars.
package config

import "time"

// Config holds all configuration for the service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Market    MarketConfig    `koanf:"market"`
	Quotes    QuotesConfig    `koanf:"quotes"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Mail      MailConfig      `koanf:"mail"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MarketConfig holds feed settings: which symbols to serve and how.
type MarketConfig struct {
	// Symbols are preloaded at startup. Other symbols get a feed on the
	// first request that names them.
	Symbols []string `koanf:"symbols"`

	// DataDir is the root of the per-symbol CSV cache.
	DataDir string `koanf:"data_dir"`

	// PollInterval is the feed loop period.
	PollInterval time.Duration `koanf:"poll_interval"`

	// PreloadWorkers bounds concurrent symbol preloading at startup.
	PreloadWorkers int `koanf:"preload_workers"`
}

// QuotesConfig holds upstream chart-API client settings.
type QuotesConfig struct {
	BaseURL        string               `koanf:"base_url"`
	Timeout        time.Duration        `koanf:"timeout"`
	Retry          RetryConfig          `koanf:"retry"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
	RateLimit      RateLimitConfig      `koanf:"rate_limit"`
}

// RetryConfig holds retry policy settings with exponential backoff.
type RetryConfig struct {
	MaxAttempts     int           `koanf:"max_attempts"`
	InitialInterval time.Duration `koanf:"initial_interval"`
	MaxInterval     time.Duration `koanf:"max_interval"`
	Multiplier      float64       `koanf:"multiplier"`
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	MaxFailures   int           `koanf:"max_failures"`
	Timeout       time.Duration `koanf:"timeout"`
	HalfOpenLimit int           `koanf:"half_open_limit"`
}

// RateLimitConfig holds outbound request rate limiting settings.
// A zero RequestsPerSecond disables rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	BurstSize         int     `koanf:"burst_size"`
}

// AnalyticsConfig holds strategy parameters.
type AnalyticsConfig struct {
	SMA SMAConfig `koanf:"sma"`
}

// SMAConfig holds the simple-moving-average strategy parameters.
type SMAConfig struct {
	Window       int     `koanf:"window"`
	ThresholdPct float64 `koanf:"threshold_pct"`
}

// MailConfig holds SMTP relay settings for outbound notifications.
// Password is redacted by the logging layer.
type MailConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Host     string        `koanf:"host"`
	Port     int           `koanf:"port"`
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	From     string        `koanf:"from"`
	To       []string      `koanf:"to"`
	Cooldown time.Duration `koanf:"cooldown"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Exporter    string `koanf:"exporter"`
	Endpoint    string `koanf:"endpoint"`
	ServiceName string `koanf:"service_name"`
}
