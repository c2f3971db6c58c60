// FILE: arrowship/src/internal/core/batch.go
package core

// EncodedBatch is one finalized batch: the framed (and usually
// compressed) envelope for a run of rows sharing an event name and
// schema. Immutable once produced; consumed exactly once by the
// upload pipeline.
type EncodedBatch struct {
	EventName string
	SchemaID  uint64
	Rows      int
	Payload   []byte
	RawSize   int
}

// Size returns the framed payload size in bytes.
func (b *EncodedBatch) Size() int {
	return len(b.Payload)
}

// UploadState tracks a batch through the upload pipeline.
type UploadState uint8

const (
	StatePending UploadState = iota
	StateInFlight
	StateRetrying
	StateSucceeded
	StateFailedTerminal
)

func (s UploadState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateInFlight:
		return "in_flight"
	case StateRetrying:
		return "retrying"
	case StateSucceeded:
		return "succeeded"
	case StateFailedTerminal:
		return "failed_terminal"
	default:
		return "unknown"
	}
}

// UploadOutcome is the final disposition of one batch. Every batch
// handed to the pipeline produces exactly one outcome.
type UploadOutcome struct {
	EventName string
	SchemaID  uint64
	Rows      int
	State     UploadState
	Attempts  int
	Err       error
}
