package config

import "time"

// Defaults used when neither a file nor the environment sets a value.
const (
	DefaultServerPort     = 8080
	DefaultMaxRequestSize = 1 << 20

	DefaultRemoteFetchLimit   = 10
	DefaultForwardConcurrency = 4

	DefaultClientRetryMaxAttempts     = 3
	DefaultClientRetryMultiplier      = 2.0
	DefaultClientRetryJitterFactor    = 0.25
	DefaultClientCircuitMaxFailures   = 5
	DefaultClientCircuitHalfOpenLimit = 3

	DefaultTransportMaxIdleConns        = 100
	DefaultTransportMaxIdleConnsPerHost = 10
	DefaultTransportIdleConnTimeout     = 90 * time.Second

	DefaultLogFileMaxSizeMB  = 100
	DefaultLogFileMaxBackups = 3
	DefaultLogFileMaxAgeDays = 28
)

// Storage keys shared with earlier releases of the quote collection.
const (
	DefaultQuotesKey     = "dqg_quotes_v1"
	DefaultFilterKey     = "dqg_selected_category_v1"
	DefaultLastViewedKey = "dqg_last_quote_v1"
)

// defaults is the lowest configuration layer, nested the way the YAML
// files are.
func defaults() map[string]any {
	return map[string]any{
		"app": map[string]any{
			"name":        "quote-generator",
			"version":     "dev",
			"environment": "local",
		},
		"server": map[string]any{
			"host":             "0.0.0.0",
			"port":             DefaultServerPort,
			"read_timeout":     "30s",
			"write_timeout":    "30s",
			"idle_timeout":     "120s",
			"shutdown_timeout": "10s",
			"max_request_size": DefaultMaxRequestSize,
		},
		"log": map[string]any{
			"level":  "info",
			"format": "json",
			"file": map[string]any{
				"enabled":     false,
				"path":        "./logs/quote-generator.log",
				"max_size":    DefaultLogFileMaxSizeMB,
				"max_backups": DefaultLogFileMaxBackups,
				"max_age":     DefaultLogFileMaxAgeDays,
				"compress":    true,
			},
		},
		"telemetry": map[string]any{
			"enabled":       false,
			"endpoint":      "",
			"service_name":  "quote-generator",
			"sampling_rate": 1.0,
		},
		"auth": map[string]any{
			"enabled":        false,
			"jwks_endpoint":  "",
			"issuer":         "",
			"audience":       "",
			"claims_header":  "X-User-Claims",
			"roles_header":   "X-User-Roles",
			"scopes_header":  "X-User-Scopes",
			"subject_header": "X-User-ID",
		},
		"client": map[string]any{
			"timeout": "10s",
			"retry": map[string]any{
				"max_attempts":     DefaultClientRetryMaxAttempts,
				"initial_interval": "100ms",
				"max_interval":     "5s",
				"multiplier":       DefaultClientRetryMultiplier,
				"jitter_factor":    DefaultClientRetryJitterFactor,
			},
			"circuit_breaker": map[string]any{
				"max_failures":    DefaultClientCircuitMaxFailures,
				"timeout":         "30s",
				"half_open_limit": DefaultClientCircuitHalfOpenLimit,
			},
			"transport": map[string]any{
				"max_idle_conns":          DefaultTransportMaxIdleConns,
				"max_idle_conns_per_host": DefaultTransportMaxIdleConnsPerHost,
				"idle_conn_timeout":       DefaultTransportIdleConnTimeout.String(),
			},
		},
		"services": map[string]any{
			"quote": map[string]any{
				"base_url":            "https://jsonplaceholder.typicode.com",
				"name":                "remote-quotes",
				"fetch_limit":         DefaultRemoteFetchLimit,
				"forward_new_quotes":  true,
				"forward_concurrency": DefaultForwardConcurrency,
			},
		},
		"storage": map[string]any{
			"driver":          "sqlite",
			"dsn":             "./data/quotes.db",
			"quotes_key":      DefaultQuotesKey,
			"filter_key":      DefaultFilterKey,
			"last_viewed_key": DefaultLastViewedKey,
		},
		"session": map[string]any{
			"ttl":    "30m",
			"header": "X-Session-ID",
		},
		"sync": map[string]any{
			"enabled":  true,
			"interval": "30s",
		},
		"export": map[string]any{
			"archive": map[string]any{
				"driver":   "none",
				"dir":      "./data/exports",
				"bucket":   "",
				"prefix":   "exports/",
				"region":   "",
				"endpoint": "",
			},
		},
	}
}
