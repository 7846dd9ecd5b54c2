package models

// Config holds the application configuration
type Config struct {
	Remote       RemoteConfig       `json:"remote"`
	Database     DatabaseConfig     `json:"database"`
	Connectivity ConnectivityConfig `json:"connectivity"`
	Retry        RetryConfig        `json:"retry"`
	Tracing      TracingConfig      `json:"tracing"`
	Server       ServerConfig       `json:"server"`
	LogLevel     string             `json:"log_level"`
	// ContentFilter toggles the spam/abuse screen on submitted questions.
	// Nil means enabled, mirroring the hosted settings default.
	ContentFilter *bool `json:"content_filter_enabled,omitempty"`
}

// RemoteConfig holds the remote question collection endpoint configuration
type RemoteConfig struct {
	BaseURL    string `json:"base_url"`
	APIKey     string `json:"api_key"`
	Table      string `json:"table"`
	TimeoutSec int    `json:"timeout_sec"`
}

// DatabaseConfig holds the local queue database configuration
type DatabaseConfig struct {
	Path string `json:"path"`
}

// ConnectivityConfig holds connectivity monitor configuration
type ConnectivityConfig struct {
	CheckIntervalSec int `json:"check_interval_sec"`
	ProbeTimeoutSec  int `json:"probe_timeout_sec"`
}

// RetryConfig holds startup retry configuration
type RetryConfig struct {
	InitialBackoffMs int `json:"initial_backoff_ms"`
	MaxBackoffMs     int `json:"max_backoff_ms"`
	MaxAttempts      int `json:"max_attempts"`
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	ServiceName    string  `json:"service_name"`
	ServiceVersion string  `json:"service_version"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlp_endpoint"`
	SampleRate     float64 `json:"sample_rate"`
	Enabled        bool    `json:"enabled"`
	UseStdout      bool    `json:"use_stdout"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int `json:"port"`
}

// ContentFilterEnabled reports whether submissions should be screened.
func (c *Config) ContentFilterEnabled() bool {
	return c.ContentFilter == nil || *c.ContentFilter
}

type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}
