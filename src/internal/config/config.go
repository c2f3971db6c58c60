// FILE: src/internal/config/config.go
package config

// Config is the root configuration for the arrowship exporter.
// It is built once at startup and treated as immutable afterwards.
type Config struct {
	// Logging configuration
	Logging *LogConfig `toml:"logging"`

	// Input source configuration
	Source SourceConfig `toml:"source"`

	// Encoding and batching configuration
	Export ExportConfig `toml:"export"`

	// Upload pipeline configuration
	Upload UploadConfig `toml:"upload"`

	// Suppress all console output
	Quiet bool `toml:"quiet"`

	// Per-row diagnostics (debug-level log volume)
	Verbose bool `toml:"verbose"`

	// Interval for periodic status reports, 0 disables
	StatusIntervalSeconds int64 `toml:"status_interval_seconds"`
}
