// FILE: src/internal/config/validation.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	lconfig "github.com/lixenwraith/config"
)

// validateConfig is the centralized validator for the entire configuration.
// It also normalizes unset fields to their defaults.
func validateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if cfg.Logging == nil {
		cfg.Logging = DefaultLogConfig()
	}
	if err := validateLogConfig(cfg.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := validateSourceConfig(&cfg.Source); err != nil {
		return fmt.Errorf("source config: %w", err)
	}

	if err := validateExportConfig(&cfg.Export); err != nil {
		return fmt.Errorf("export config: %w", err)
	}

	if err := validateUploadConfig(&cfg.Upload); err != nil {
		return fmt.Errorf("upload config: %w", err)
	}

	if cfg.StatusIntervalSeconds < 0 {
		return fmt.Errorf("status_interval_seconds cannot be negative: %d", cfg.StatusIntervalSeconds)
	}

	return nil
}

func validateLogConfig(cfg *LogConfig) error {
	validOutputs := map[string]bool{
		"file": true, "stdout": true, "stderr": true,
		"both": true, "none": true,
	}
	if !validOutputs[cfg.Output] {
		return fmt.Errorf("invalid log output mode: %s", cfg.Output)
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	if cfg.Console != nil {
		validTargets := map[string]bool{
			"stdout": true, "stderr": true, "split": true,
		}
		if !validTargets[cfg.Console.Target] {
			return fmt.Errorf("invalid console target: %s", cfg.Console.Target)
		}

		validFormats := map[string]bool{
			"txt": true, "json": true, "": true,
		}
		if !validFormats[cfg.Console.Format] {
			return fmt.Errorf("invalid console format: %s", cfg.Console.Format)
		}
	}

	return nil
}

func validateSourceConfig(cfg *SourceConfig) error {
	if cfg.DefaultEvent == "" {
		cfg.DefaultEvent = "Log"
	}

	switch cfg.Type {
	case "ipc":
		if cfg.IPC == nil {
			return fmt.Errorf("ipc source requires an [source.ipc] section")
		}
		if err := lconfig.NonEmpty(cfg.IPC.LogsFile); err != nil {
			return fmt.Errorf("ipc source requires 'logs_file'")
		}
		if strings.Contains(cfg.IPC.LogsFile, "..") {
			return fmt.Errorf("logs_file contains directory traversal")
		}

	case "gen":
		if cfg.Gen == nil {
			cfg.Gen = &GenSourceConfig{}
		}
		if cfg.Gen.Batches <= 0 {
			cfg.Gen.Batches = 10
		}
		if cfg.Gen.RowsPerBatch <= 0 {
			cfg.Gen.RowsPerBatch = 100
		}
		if cfg.Gen.AttrsPerRow < 0 {
			return fmt.Errorf("gen source attrs_per_row cannot be negative: %d", cfg.Gen.AttrsPerRow)
		}
		if cfg.Gen.AttrsPerRow == 0 {
			cfg.Gen.AttrsPerRow = 4
		}
		if len(cfg.Gen.Events) == 0 {
			cfg.Gen.Events = []string{"AppLog"}
		}

	default:
		return fmt.Errorf("unknown source type '%s' (must be 'ipc' or 'gen')", cfg.Type)
	}

	return nil
}

func validateExportConfig(cfg *ExportConfig) error {
	if cfg.MaxBatchBytes <= 0 {
		cfg.MaxBatchBytes = 1 << 20
	}
	if cfg.MaxBatchRows <= 0 {
		cfg.MaxBatchRows = 4096
	}

	for i := range cfg.Filters {
		if err := validateFilter(i, &cfg.Filters[i]); err != nil {
			return err
		}
	}

	return nil
}

func validateFilter(index int, cfg *FilterConfig) error {
	switch cfg.Type {
	case FilterTypeInclude, FilterTypeExclude, "":
		// Valid types
	default:
		return fmt.Errorf("filter[%d]: invalid type '%s' (must be 'include' or 'exclude')",
			index, cfg.Type)
	}

	switch cfg.Logic {
	case FilterLogicOr, FilterLogicAnd, "":
		// Valid logic
	default:
		return fmt.Errorf("filter[%d]: invalid logic '%s' (must be 'or' or 'and')",
			index, cfg.Logic)
	}

	// Empty patterns is valid - passes everything
	for i, pattern := range cfg.Patterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("filter[%d] pattern[%d] '%s': invalid regex: %w",
				index, i, pattern, err)
		}
	}

	return nil
}

func validateUploadConfig(cfg *UploadConfig) error {
	// Set defaults for unspecified fields
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayMS <= 0 {
		cfg.RetryDelayMS = 100
	}
	if cfg.MaxRetryDelayMS < cfg.RetryDelayMS {
		cfg.MaxRetryDelayMS = 5000
	}
	if cfg.RetryBackoff < 1.0 {
		cfg.RetryBackoff = 2.0
	}
	if cfg.RetryJitter < 0 || cfg.RetryJitter > 1.0 {
		return fmt.Errorf("retry_jitter must be in [0, 1]: %f", cfg.RetryJitter)
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}
	if cfg.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative: %f", cfg.RateLimit)
	}
	if cfg.RateLimit > 0 && cfg.RateBurst <= 0 {
		cfg.RateBurst = 1
	}

	switch cfg.Transport {
	case "http":
		if err := lconfig.NonEmpty(cfg.URL); err != nil {
			return fmt.Errorf("http transport requires 'url'")
		}

		parsedURL, err := url.Parse(cfg.URL)
		if err != nil {
			return fmt.Errorf("invalid URL: %w", err)
		}
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("URL must use http or https scheme")
		}
		isHTTPS := parsedURL.Scheme == "https"

		if err := validateUploadAuth(cfg.Auth, isHTTPS, cfg.InsecureSkipVerify); err != nil {
			return err
		}

		if cfg.TLS != nil && cfg.TLS.Enabled {
			if err := validateClientTLS(cfg.TLS); err != nil {
				return err
			}
		}

	case "file":
		if err := lconfig.NonEmpty(cfg.Directory); err != nil {
			return fmt.Errorf("file transport requires 'directory'")
		}
		if strings.Contains(cfg.Directory, "..") {
			return fmt.Errorf("directory contains directory traversal")
		}

	default:
		return fmt.Errorf("unknown transport '%s' (must be 'http' or 'file')", cfg.Transport)
	}

	return nil
}

func validateUploadAuth(auth *AuthConfig, isHTTPS, insecure bool) error {
	if auth == nil {
		return nil
	}

	switch auth.Type {
	case "", "none":
		// No credentials to check

	case "token":
		if auth.Token == "" {
			return fmt.Errorf("token required for token auth")
		}
		if !isHTTPS && !insecure {
			return fmt.Errorf("token auth requires HTTPS (security: token would be sent in plaintext)")
		}

	case "token_file":
		if auth.TokenFile == "" {
			return fmt.Errorf("token_file required for token_file auth")
		}
		if _, err := os.Stat(auth.TokenFile); err != nil {
			return fmt.Errorf("token_file is not accessible: %w", err)
		}
		if !isHTTPS && !insecure {
			return fmt.Errorf("token_file auth requires HTTPS (security: token would be sent in plaintext)")
		}

	default:
		return fmt.Errorf("invalid auth type: %s", auth.Type)
	}

	if auth.RefreshMarginSeconds < 0 {
		return fmt.Errorf("refresh_margin_seconds cannot be negative: %d", auth.RefreshMarginSeconds)
	}
	if auth.RefreshMarginSeconds == 0 {
		auth.RefreshMarginSeconds = 60
	}

	return nil
}

func validateClientTLS(cfg *TLSClientConfig) error {
	if cfg.ClientCertFile != "" || cfg.ClientKeyFile != "" {
		if cfg.ClientCertFile == "" || cfg.ClientKeyFile == "" {
			return fmt.Errorf("both client_cert_file and client_key_file must be provided for mTLS")
		}
		if _, err := os.Stat(cfg.ClientCertFile); err != nil {
			return fmt.Errorf("client_cert_file is not accessible: %w", err)
		}
		if _, err := os.Stat(cfg.ClientKeyFile); err != nil {
			return fmt.Errorf("client_key_file is not accessible: %w", err)
		}
	}

	if cfg.ServerCAFile != "" {
		if _, err := os.Stat(cfg.ServerCAFile); err != nil {
			return fmt.Errorf("server_ca_file is not accessible: %w", err)
		}
	}

	validVersions := map[string]bool{"": true, "TLS1.2": true, "TLS1.3": true}
	if !validVersions[cfg.MinVersion] {
		return fmt.Errorf("invalid min TLS version: %s", cfg.MinVersion)
	}
	if !validVersions[cfg.MaxVersion] {
		return fmt.Errorf("invalid max TLS version: %s", cfg.MaxVersion)
	}

	return nil
}
