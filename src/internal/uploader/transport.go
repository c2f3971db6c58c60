// FILE: src/internal/uploader/transport.go
package uploader

import (
	"context"

	"arrowship/src/internal/core"
)

// Transport performs one delivery attempt per call. Implementations
// classify failures via *core.UploadError so the uploader can decide
// between retry and terminal failure.
type Transport interface {
	// Send delivers one encoded batch. A nil return means the batch
	// was accepted by the destination.
	Send(ctx context.Context, batch *core.EncodedBatch) error

	// Close releases transport resources.
	Close() error

	// Stats returns transport statistics for status reporting.
	Stats() map[string]any
}
