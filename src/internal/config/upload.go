// FILE: src/internal/config/upload.go
package config

// UploadConfig controls the batch upload pipeline.
type UploadConfig struct {
	// Transport type: "http" or "file"
	Transport string `toml:"transport"`

	// Destination endpoint (http transport)
	URL string `toml:"url"`

	// Routing identity attached to every request
	Tenant    string `toml:"tenant"`
	Account   string `toml:"account"`
	Namespace string `toml:"namespace"`

	// Output directory (file transport)
	Directory string `toml:"directory"`

	// Most batches in flight at once
	MaxConcurrent int64 `toml:"max_concurrent"`

	// Pending queue capacity; submission blocks when full
	QueueSize int64 `toml:"queue_size"`

	// Retries after the first attempt for transient failures
	MaxRetries int64 `toml:"max_retries"`

	// Initial retry delay in milliseconds
	RetryDelayMS int64 `toml:"retry_delay_ms"`

	// Retry delay cap in milliseconds
	MaxRetryDelayMS int64 `toml:"max_retry_delay_ms"`

	// Delay growth factor between attempts
	RetryBackoff float64 `toml:"retry_backoff"`

	// Random fraction added to each delay, 0..1
	RetryJitter float64 `toml:"retry_jitter"`

	// Per-attempt timeout in seconds
	TimeoutSeconds int64 `toml:"timeout_seconds"`

	// Upload rate limit in requests per second, 0 disables
	RateLimit float64 `toml:"rate_limit"`

	// Rate limiter burst size
	RateBurst int64 `toml:"rate_burst"`

	// Authentication for outbound requests
	Auth *AuthConfig `toml:"auth"`

	// TLS client options (https endpoints)
	TLS *TLSClientConfig `toml:"tls"`

	// Skip server certificate verification without a full TLS section
	InsecureSkipVerify bool `toml:"insecure_skip_verify"`
}

// AuthConfig configures outbound request authentication.
type AuthConfig struct {
	// Authentication type: "none", "token", "token_file"
	Type string `toml:"type"`

	// Static bearer token
	Token string `toml:"token"`

	// File containing the bearer token, re-read when near expiry
	TokenFile string `toml:"token_file"`

	// Reload margin before JWT expiry in seconds
	RefreshMarginSeconds int64 `toml:"refresh_margin_seconds"`
}

// TLSClientConfig holds TLS settings for outbound connections.
type TLSClientConfig struct {
	Enabled bool `toml:"enabled"`

	// Client certificate for mTLS
	ClientCertFile string `toml:"client_cert_file"`
	ClientKeyFile  string `toml:"client_key_file"`

	// CA bundle to trust for server verification
	ServerCAFile string `toml:"server_ca_file"`

	// Skip server certificate verification
	InsecureSkipVerify bool `toml:"insecure_skip_verify"`

	// Override server name for verification
	ServerName string `toml:"server_name"`

	// TLS version constraints: "TLS1.2", "TLS1.3"
	MinVersion string `toml:"min_version"`
	MaxVersion string `toml:"max_version"`

	// Comma-separated cipher suite names
	CipherSuites string `toml:"cipher_suites"`
}
