// FILE: arrowship/src/internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// ErrCancelled marks batches that were still pending or waiting to
// retry when the pipeline shut down.
var ErrCancelled = errors.New("upload cancelled: pipeline shutting down")

// MalformedInputError reports a structurally invalid columnar table.
// It fails the whole input batch and is never retried.
type MalformedInputError struct {
	Table  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed %s table: %s", e.Table, e.Reason)
}

// UnsupportedTypeError reports an attribute row whose type
// discriminant has no wire representation.
type UnsupportedTypeError struct {
	Row  int
	Type uint8
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("attribute row %d: unsupported value type %d", e.Row, e.Type)
}

// RowError wraps a per-row encoding failure. The row is skipped and
// counted; the rest of the batch continues.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("record row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// CompressionError drops the affected batch before upload.
type CompressionError struct {
	EventName string
	SchemaID  uint64
	Rows      int
	Err       error
}

func (e *CompressionError) Error() string {
	return fmt.Sprintf("compress batch event=%q schema=%016x rows=%d: %v", e.EventName, e.SchemaID, e.Rows, e.Err)
}

func (e *CompressionError) Unwrap() error {
	return e.Err
}

// UploadError classifies one failed upload attempt. Transient errors
// are retried per the backoff policy; terminal errors are not.
type UploadError struct {
	Status    int // HTTP status, 0 for network-level failures
	Transient bool
	Body      string
	Err       error
}

func (e *UploadError) Error() string {
	class := "terminal"
	if e.Transient {
		class = "transient"
	}
	if e.Status != 0 {
		if e.Body != "" {
			return fmt.Sprintf("upload failed (%s): status %d: %s", class, e.Status, e.Body)
		}
		return fmt.Sprintf("upload failed (%s): status %d", class, e.Status)
	}
	return fmt.Sprintf("upload failed (%s): %v", class, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err represents a retryable upload
// failure. Errors outside the upload taxonomy are not retried.
func IsTransient(err error) bool {
	var ue *UploadError
	if errors.As(err, &ue) {
		return ue.Transient
	}
	return false
}
