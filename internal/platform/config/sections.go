package config

import "time"

// AppConfig identifies the running build.
type AppConfig struct {
	Name        string `koanf:"name"        validate:"required"`
	Version     string `koanf:"version"     validate:"required"`
	Environment string `koanf:"environment" validate:"required,oneof=local dev qa prod test"`
}

// StorageConfig selects the durable key-value backend and the keys the
// collection, the category filter and the last viewed quote live under.
type StorageConfig struct {
	Driver        string `koanf:"driver"          validate:"required,oneof=sqlite postgres memory"`
	DSN           string `koanf:"dsn"             validate:"required_unless=Driver memory"`
	QuotesKey     string `koanf:"quotes_key"      validate:"required,nefield=FilterKey,nefield=LastViewedKey"`
	FilterKey     string `koanf:"filter_key"      validate:"required,nefield=LastViewedKey"`
	LastViewedKey string `koanf:"last_viewed_key" validate:"required"`
}

// SessionConfig scopes last viewed quotes to callers.
type SessionConfig struct {
	TTL    time.Duration `koanf:"ttl"    validate:"required,min=1s"`
	Header string        `koanf:"header" validate:"required"`
}

// SyncConfig drives the background pull from the remote source.
type SyncConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval" validate:"required_if=Enabled true,omitempty,min=1s"`
}

// ExportConfig controls exported snapshots.
type ExportConfig struct {
	Archive ArchiveConfig `koanf:"archive"`
}

// ArchiveConfig picks where export snapshots are copied. Driver "none"
// turns archiving off.
type ArchiveConfig struct {
	Driver   string `koanf:"driver"   validate:"required,oneof=none file s3"`
	Dir      string `koanf:"dir"      validate:"required_if=Driver file"`
	Bucket   string `koanf:"bucket"   validate:"required_if=Driver s3"`
	Prefix   string `koanf:"prefix"`
	Region   string `koanf:"region"`
	Endpoint string `koanf:"endpoint" validate:"omitempty,url"`
}

// ServicesConfig lists downstream services.
type ServicesConfig struct {
	Quote ServiceEndpointConfig `koanf:"quote" validate:"required"`
}

// ServiceEndpointConfig describes the remote quote source.
type ServiceEndpointConfig struct {
	BaseURL            string `koanf:"base_url"            validate:"required,url"`
	Name               string `koanf:"name"                validate:"required"`
	FetchLimit         int    `koanf:"fetch_limit"         validate:"required,min=1,max=100"`
	ForwardNewQuotes   bool   `koanf:"forward_new_quotes"`
	ForwardConcurrency int    `koanf:"forward_concurrency" validate:"required,min=1,max=64"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"             validate:"required"`
	Port            int           `koanf:"port"             validate:"required,min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"required,min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"required,min=1s"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"required,min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required,min=1s"`

	// MaxRequestSize caps request bodies, import payloads included.
	MaxRequestSize int64 `koanf:"max_request_size" validate:"required,min=1"`
}

// LogConfig configures the console logger and its optional file sink.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=trace debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig configures the rotated JSON log file.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig configures OTLP export.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true,omitempty,url"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
}

// AuthConfig guards the mutating quote routes with claims forwarded by an
// API gateway.
type AuthConfig struct {
	Enabled       bool   `koanf:"enabled"`
	JWKSEndpoint  string `koanf:"jwks_endpoint"  validate:"required_if=Enabled true,omitempty,url"`
	Issuer        string `koanf:"issuer"         validate:"required_if=Enabled true"`
	Audience      string `koanf:"audience"       validate:"required_if=Enabled true"`
	ClaimsHeader  string `koanf:"claims_header"`
	RolesHeader   string `koanf:"roles_header"`
	ScopesHeader  string `koanf:"scopes_header"`
	SubjectHeader string `koanf:"subject_header"`
}

// ClientConfig configures the resilient client used for the remote source.
type ClientConfig struct {
	Timeout        time.Duration        `koanf:"timeout"         validate:"required,min=100ms"`
	Retry          RetryConfig          `koanf:"retry"           validate:"required"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker" validate:"required"`
	Transport      TransportConfig      `koanf:"transport"       validate:"required"`
}

// RetryConfig configures exponential backoff with jitter.
type RetryConfig struct {
	MaxAttempts     int           `koanf:"max_attempts"     validate:"required,min=1,max=10"`
	InitialInterval time.Duration `koanf:"initial_interval" validate:"required,min=10ms"`
	MaxInterval     time.Duration `koanf:"max_interval"     validate:"required,min=100ms,gtefield=InitialInterval"`
	Multiplier      float64       `koanf:"multiplier"       validate:"required,min=1.1,max=10"`
	JitterFactor    float64       `koanf:"jitter_factor"    validate:"min=0,max=1"`
}

// CircuitBreakerConfig configures when the remote source is short-circuited.
type CircuitBreakerConfig struct {
	MaxFailures   int           `koanf:"max_failures"    validate:"required,min=1"`
	Timeout       time.Duration `koanf:"timeout"         validate:"required,min=1s"`
	HalfOpenLimit int           `koanf:"half_open_limit" validate:"required,min=1"`
}

// TransportConfig sizes the connection pool.
type TransportConfig struct {
	MaxIdleConns        int           `koanf:"max_idle_conns"          validate:"required,min=1"`
	MaxIdleConnsPerHost int           `koanf:"max_idle_conns_per_host" validate:"required,min=1"`
	IdleConnTimeout     time.Duration `koanf:"idle_conn_timeout"       validate:"required,min=1s"`
}
