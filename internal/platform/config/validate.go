package config

import (
	"errors"
	"fmt"

	"github.com/quantstream/marketd/internal/domain/market"
)

// Validate checks all configuration values and returns aggregated errors.
func (c *Config) Validate() error {
	return errors.Join(
		c.Server.validate(),
		c.Log.validate(),
		c.Market.validate(),
		c.Quotes.validate(),
		c.Analytics.validate(),
		c.Mail.validate(),
		c.Telemetry.validate(),
	)
}

func (s *ServerConfig) validate() error {
	var errs []error

	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", s.Port))
	}
	if s.ReadTimeout <= 0 {
		errs = append(errs, errors.New("server.read_timeout must be positive"))
	}
	if s.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server.write_timeout must be positive"))
	}

	return errors.Join(errs...)
}

func (l *LogConfig) validate() error {
	var errs []error

	switch l.Level {
	case "debug", "info", "warn", "error":
		// Valid levels.
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", l.Level))
	}

	switch l.Format {
	case "json", "text":
		// Valid formats.
	default:
		errs = append(errs, fmt.Errorf("log.format must be one of: json, text; got %q", l.Format))
	}

	return errors.Join(errs...)
}

func (m *MarketConfig) validate() error {
	var errs []error

	if m.DataDir == "" {
		errs = append(errs, errors.New("market.data_dir must not be empty"))
	}
	if m.PollInterval <= 0 {
		errs = append(errs, errors.New("market.poll_interval must be positive"))
	}
	if m.PreloadWorkers < 1 {
		errs = append(errs, fmt.Errorf("market.preload_workers must be >= 1, got %d", m.PreloadWorkers))
	}
	for _, sym := range m.Symbols {
		if err := market.ValidateSymbol(sym); err != nil {
			errs = append(errs, fmt.Errorf("market.symbols: %q is not a valid symbol", sym))
		}
	}

	return errors.Join(errs...)
}

func (q *QuotesConfig) validate() error {
	var errs []error

	if q.BaseURL == "" {
		errs = append(errs, errors.New("quotes.base_url must not be empty"))
	}
	if q.Timeout <= 0 {
		errs = append(errs, errors.New("quotes.timeout must be positive"))
	}
	if q.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("quotes.retry.max_attempts must be >= 1, got %d", q.Retry.MaxAttempts))
	}
	if q.Retry.Multiplier <= 0 {
		errs = append(errs, fmt.Errorf("quotes.retry.multiplier must be positive, got %f", q.Retry.Multiplier))
	}
	if q.CircuitBreaker.MaxFailures < 1 {
		errs = append(errs, fmt.Errorf("quotes.circuit_breaker.max_failures must be >= 1, got %d",
			q.CircuitBreaker.MaxFailures))
	}
	if q.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("quotes.rate_limit.requests_per_second must not be negative, got %f",
			q.RateLimit.RequestsPerSecond))
	}

	return errors.Join(errs...)
}

func (a *AnalyticsConfig) validate() error {
	var errs []error

	if a.SMA.Window < 1 {
		errs = append(errs, fmt.Errorf("analytics.sma.window must be >= 1, got %d", a.SMA.Window))
	}
	if a.SMA.ThresholdPct < 0 {
		errs = append(errs, fmt.Errorf("analytics.sma.threshold_pct must not be negative, got %f", a.SMA.ThresholdPct))
	}

	return errors.Join(errs...)
}

func (m *MailConfig) validate() error {
	if !m.Enabled {
		return nil
	}

	var errs []error

	if m.Host == "" {
		errs = append(errs, errors.New("mail.host must not be empty when mail is enabled"))
	}
	if m.Port < 1 || m.Port > 65535 {
		errs = append(errs, fmt.Errorf("mail.port must be between 1 and 65535, got %d", m.Port))
	}
	if m.From == "" {
		errs = append(errs, errors.New("mail.from must not be empty when mail is enabled"))
	}
	if len(m.To) == 0 {
		errs = append(errs, errors.New("mail.to must list at least one recipient when mail is enabled"))
	}
	if m.Cooldown <= 0 {
		errs = append(errs, errors.New("mail.cooldown must be positive"))
	}

	return errors.Join(errs...)
}

func (t *TelemetryConfig) validate() error {
	if !t.Enabled {
		return nil
	}

	var errs []error

	switch t.Exporter {
	case "stdout", "otlp":
		// Valid exporters.
	default:
		errs = append(errs, fmt.Errorf("telemetry.exporter must be one of: stdout, otlp; got %q", t.Exporter))
	}

	if t.Exporter == "otlp" && t.Endpoint == "" {
		errs = append(errs, errors.New("telemetry.endpoint must not be empty when exporter is otlp"))
	}

	return errors.Join(errs...)
}
