package config

const (
	// The container contract exposes the service on port 8000.
	defaultServerPort = 8000

	defaultRetryMaxAttempts = 3
	defaultRetryMultiplier  = 2.0

	defaultCircuitBreakerMaxFailures = 5
	defaultCircuitBreakerHalfOpen    = 1

	defaultPreloadWorkers = 4

	defaultSMAWindow       = 200
	defaultSMAThresholdPct = 0.02
)

// defaults returns the default configuration values.
// These are loaded first and can be overridden by base.yaml, profile YAML, and env vars.
func defaults() map[string]any {
	return map[string]any{
		"server.host":          "0.0.0.0",
		"server.port":          defaultServerPort,
		"server.read_timeout":  "5s",
		"server.write_timeout": "10s",
		"server.idle_timeout":  "120s",

		"log.level":  "info",
		"log.format": "json",

		"market.symbols":         []string{},
		"market.data_dir":        "data",
		"market.poll_interval":   "60s",
		"market.preload_workers": defaultPreloadWorkers,

		"quotes.base_url":                        "https://query1.finance.yahoo.com",
		"quotes.timeout":                         "30s",
		"quotes.retry.max_attempts":              defaultRetryMaxAttempts,
		"quotes.retry.initial_interval":          "100ms",
		"quotes.retry.max_interval":              "10s",
		"quotes.retry.multiplier":                defaultRetryMultiplier,
		"quotes.circuit_breaker.max_failures":    defaultCircuitBreakerMaxFailures,
		"quotes.circuit_breaker.timeout":         "30s",
		"quotes.circuit_breaker.half_open_limit": defaultCircuitBreakerHalfOpen,
		"quotes.rate_limit.requests_per_second":  2.0,
		"quotes.rate_limit.burst_size":           5,

		"analytics.sma.window":        defaultSMAWindow,
		"analytics.sma.threshold_pct": defaultSMAThresholdPct,

		"mail.enabled":  false,
		"mail.port":     587,
		"mail.cooldown": "2h",

		"telemetry.enabled":  false,
		"telemetry.exporter": "stdout",
		"telemetry.endpoint": "",
	}
}
