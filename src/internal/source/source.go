// FILE: src/internal/source/source.go
package source

import (
	"fmt"
	"time"

	"arrowship/src/internal/columns"
	"arrowship/src/internal/config"

	"github.com/lixenwraith/log"
)

// Produces columnar input batches
type Source interface {
	// Returns the channel batches arrive on, closed at end of input
	Batches() <-chan *columns.BatchSet

	// Begins reading from the source
	Start() error

	// Gracefully shuts down the source
	Stop()

	// Returns source statistics
	GetStats() SourceStats
}

// Contains statistics about a source
type SourceStats struct {
	Type          string
	TotalBatches  uint64
	TotalRows     uint64
	StartTime     time.Time
	LastBatchTime time.Time
	Details       map[string]any
}

// New builds the source selected by cfg.Type.
func New(cfg *config.SourceConfig, logger *log.Logger) (Source, error) {
	switch cfg.Type {
	case "ipc":
		return NewIPCSource(cfg.IPC, logger)
	case "gen":
		return NewGenSource(cfg.Gen, logger)
	default:
		return nil, fmt.Errorf("unknown source type: %q", cfg.Type)
	}
}
