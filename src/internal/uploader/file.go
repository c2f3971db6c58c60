// FILE: src/internal/uploader/file.go
package uploader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"arrowship/src/internal/config"
	"arrowship/src/internal/core"

	"github.com/lixenwraith/log"
)

// FileTransport writes frames into a directory, one file per batch.
// Used for offline runs and replay into a collector later.
type FileTransport struct {
	// Configuration
	dir    string
	logger *log.Logger

	// Runtime
	seq atomic.Uint64

	// Statistics
	totalWritten atomic.Uint64
	totalBytes   atomic.Uint64
}

// NewFileTransport creates the directory transport.
func NewFileTransport(cfg *config.UploadConfig, logger *log.Logger) (*FileTransport, error) {
	if cfg == nil || cfg.Directory == "" {
		return nil, fmt.Errorf("file transport requires a directory")
	}
	if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	logger.Info("msg", "File transport created",
		"component", "uploader",
		"directory", cfg.Directory)
	return &FileTransport{dir: cfg.Directory, logger: logger}, nil
}

// Send writes one frame. The file appears under its final name only
// once fully written.
func (t *FileTransport) Send(ctx context.Context, batch *core.EncodedBatch) error {
	if err := ctx.Err(); err != nil {
		return &core.UploadError{Transient: true, Err: err}
	}

	name := fmt.Sprintf("%d-%06d-%s-%016x.ashf",
		time.Now().UnixNano(), t.seq.Add(1), sanitizeEvent(batch.EventName), batch.SchemaID)
	final := filepath.Join(t.dir, name)
	tmp := final + ".tmp"

	if err := os.WriteFile(tmp, batch.Payload, 0644); err != nil {
		return &core.UploadError{Transient: true, Err: fmt.Errorf("write frame: %w", err)}
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return &core.UploadError{Transient: true, Err: fmt.Errorf("publish frame: %w", err)}
	}

	t.totalWritten.Add(1)
	t.totalBytes.Add(uint64(len(batch.Payload)))
	return nil
}

func (t *FileTransport) Close() error {
	return nil
}

// Stats returns transport statistics.
func (t *FileTransport) Stats() map[string]any {
	return map[string]any{
		"type":          "file",
		"directory":     t.dir,
		"total_written": t.totalWritten.Load(),
		"total_bytes":   t.totalBytes.Load(),
	}
}

// sanitizeEvent keeps event names filesystem-safe.
func sanitizeEvent(event string) string {
	if event == "" {
		return "unnamed"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, event)
}
