package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig is the built-in default configuration.
func validConfig(t *testing.T) *Config {
	t.Helper()

	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	require.NoError(t, validConfig(t).Validate())
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "unknown environment",
			mutate: func(c *Config) { c.App.Environment = "staging" },
			want:   `app.environment must be one of [local dev qa prod test], got "staging"`,
		},
		{
			name:   "port out of range",
			mutate: func(c *Config) { c.Server.Port = 70000 },
			want:   "server.port must be at most 65535",
		},
		{
			name:   "missing host",
			mutate: func(c *Config) { c.Server.Host = "" },
			want:   "server.host is required",
		},
		{
			name:   "short read timeout",
			mutate: func(c *Config) { c.Server.ReadTimeout = time.Millisecond },
			want:   "server.read_timeout must be at least 1s",
		},
		{
			name:   "log level is case sensitive",
			mutate: func(c *Config) { c.Log.Level = "INFO" },
			want:   "log.level must be one of",
		},
		{
			name:   "file sink without a path",
			mutate: func(c *Config) { c.Log.File.Enabled, c.Log.File.Path = true, "" },
			want:   "log.file.path is required when log.file.enabled=true",
		},
		{
			name:   "telemetry without endpoint",
			mutate: func(c *Config) { c.Telemetry.Enabled = true },
			want:   "telemetry.endpoint is required when telemetry.enabled=true",
		},
		{
			name:   "sampling rate above one",
			mutate: func(c *Config) { c.Telemetry.SamplingRate = 1.5 },
			want:   "telemetry.sampling_rate must be at most 1",
		},
		{
			name:   "auth without issuer",
			mutate: func(c *Config) { c.Auth.Enabled, c.Auth.JWKSEndpoint, c.Auth.Audience = true, "https://idp/jwks", "quotes" },
			want:   "auth.issuer is required when auth.enabled=true",
		},
		{
			name:   "retry ceiling below the first interval",
			mutate: func(c *Config) { c.Client.Retry.InitialInterval, c.Client.Retry.MaxInterval = 2*time.Second, time.Second },
			want:   "client.retry.max_interval must not be below client.retry.initial_interval",
		},
		{
			name:   "too many retries",
			mutate: func(c *Config) { c.Client.Retry.MaxAttempts = 11 },
			want:   "client.retry.max_attempts must be at most 10",
		},
		{
			name:   "client timeout too short",
			mutate: func(c *Config) { c.Client.Timeout = 50 * time.Millisecond },
			want:   "client.timeout must be at least 100ms",
		},
		{
			name:   "remote base url",
			mutate: func(c *Config) { c.Services.Quote.BaseURL = "not a url" },
			want:   "services.quote.base_url must be a URL",
		},
		{
			name:   "fetch limit",
			mutate: func(c *Config) { c.Services.Quote.FetchLimit = 0 },
			want:   "services.quote.fetch_limit is required",
		},
		{
			name:   "unknown storage driver",
			mutate: func(c *Config) { c.Storage.Driver = "redis" },
			want:   `storage.driver must be one of [sqlite postgres memory], got "redis"`,
		},
		{
			name:   "sqlite without dsn",
			mutate: func(c *Config) { c.Storage.DSN = "" },
			want:   "storage.dsn is required unless storage.driver=memory",
		},
		{
			name:   "colliding storage keys",
			mutate: func(c *Config) { c.Storage.FilterKey = c.Storage.QuotesKey },
			want:   "storage.quotes_key must differ from storage.filter_key",
		},
		{
			name:   "session ttl",
			mutate: func(c *Config) { c.Session.TTL = 0 },
			want:   "session.ttl is required",
		},
		{
			name:   "sync interval",
			mutate: func(c *Config) { c.Sync.Interval = 10 * time.Millisecond },
			want:   "sync.interval must be at least 1s",
		},
		{
			name:   "s3 archive without bucket",
			mutate: func(c *Config) { c.Export.Archive.Driver = "s3" },
			want:   "export.archive.bucket is required when export.archive.driver=s3",
		},
		{
			name:   "file archive without dir",
			mutate: func(c *Config) { c.Export.Archive.Driver, c.Export.Archive.Dir = "file", "" },
			want:   "export.archive.dir is required when export.archive.driver=file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_OptionalSections(t *testing.T) {
	cfg := validConfig(t)
	cfg.Storage.Driver, cfg.Storage.DSN = "memory", ""
	cfg.Sync.Enabled, cfg.Sync.Interval = false, 0
	cfg.Export.Archive.Driver, cfg.Export.Archive.Dir = "none", ""

	assert.NoError(t, cfg.Validate())
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg := validConfig(t)
	cfg.App.Name = ""
	cfg.Server.Port = 0
	cfg.Session.Header = ""

	err := cfg.Validate()

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 3)
	assert.Contains(t, err.Error(), "invalid configuration:")
	assert.Contains(t, err.Error(), "app.name is required")
	assert.Contains(t, err.Error(), "server.port is required")
	assert.Contains(t, err.Error(), "session.header is required")
}

func TestKeyPath(t *testing.T) {
	tests := map[string]string{
		"Config.server.port":             "server.port",
		"Config.storage.FilterKey":       "storage.filter_key",
		"Config.client.retry.MaxAttempt": "client.retry.max_attempt",
		"Config":                         "Config",
	}

	for in, want := range tests {
		assert.Equal(t, want, keyPath(in), in)
	}
}
