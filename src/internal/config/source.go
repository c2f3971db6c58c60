// FILE: src/internal/config/source.go
package config

// SourceConfig selects and configures the record input.
type SourceConfig struct {
	// Source type: "ipc" or "gen"
	Type string `toml:"type"`

	// Event name used when a record carries none
	DefaultEvent string `toml:"default_event"`

	// Arrow IPC stream input
	IPC *IPCSourceConfig `toml:"ipc"`

	// Synthetic load generator
	Gen *GenSourceConfig `toml:"gen"`
}

// IPCSourceConfig reads record batches from Arrow IPC stream files.
type IPCSourceConfig struct {
	// Log record stream
	LogsFile string `toml:"logs_file"`

	// Optional attribute sidecars, batch-aligned with the log stream
	LogAttrsFile      string `toml:"log_attrs_file"`
	ResourceAttrsFile string `toml:"resource_attrs_file"`
}

// GenSourceConfig produces deterministic synthetic batches.
type GenSourceConfig struct {
	// Number of batches to emit before EOF
	Batches int64 `toml:"batches"`

	// Rows per generated batch
	RowsPerBatch int64 `toml:"rows_per_batch"`

	// Attribute rows per log row
	AttrsPerRow int64 `toml:"attrs_per_row"`

	// Event names cycled across rows
	Events []string `toml:"events"`

	// PRNG seed, same seed same batches
	Seed int64 `toml:"seed"`
}
