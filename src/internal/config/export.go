// FILE: src/internal/config/export.go
package config

// Filter type constants
const (
	FilterTypeInclude = "include"
	FilterTypeExclude = "exclude"
)

// Filter logic constants
const (
	FilterLogicOr  = "or"
	FilterLogicAnd = "and"
)

// ExportConfig controls schema derivation, encoding and batching.
type ExportConfig struct {
	// Largest uncompressed envelope per batch in bytes
	MaxBatchBytes int64 `toml:"max_batch_bytes"`

	// Most rows per batch
	MaxBatchRows int64 `toml:"max_batch_rows"`

	// LZ4 block compression for assembled batches
	Compression bool `toml:"compression"`

	// Event name filters, applied in order
	Filters []FilterConfig `toml:"filters"`
}

// FilterConfig is a single event-name filter stage.
type FilterConfig struct {
	// Filter type: "include" or "exclude"
	Type string `toml:"type"`

	// Pattern combination: "or" (any match) or "and" (all match)
	Logic string `toml:"logic"`

	// Regex patterns matched against the event name
	Patterns []string `toml:"patterns"`
}
