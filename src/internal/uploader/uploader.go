// FILE: src/internal/uploader/uploader.go
// Package uploader drives encoded batches through a bounded,
// retrying upload pipeline. Batches are admitted in submission
// order, at most MaxConcurrent are attempted at once, transient
// failures back off and retry, and every batch produces exactly one
// outcome.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"arrowship/src/internal/config"
	"arrowship/src/internal/core"

	"github.com/lixenwraith/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Uploader is the batch upload pipeline.
type Uploader struct {
	// Configuration
	config *config.UploadConfig
	policy Policy

	// Transport
	transport Transport

	// Application
	input    chan *core.EncodedBatch
	outcomes chan core.UploadOutcome
	logger   *log.Logger

	// Admission
	sem     *semaphore.Weighted
	limiter *rate.Limiter

	// Runtime
	admitCtx  context.Context
	admitStop context.CancelFunc
	done      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup // dispatcher
	workerWg  sync.WaitGroup // in-flight batches
	startTime time.Time

	// Statistics
	totalSubmitted atomic.Uint64
	totalSucceeded atomic.Uint64
	totalFailed    atomic.Uint64
	totalCancelled atomic.Uint64
	totalRetries   atomic.Uint64
	inFlight       atomic.Int64
}

// Stats is a point-in-time snapshot of pipeline counters.
type Stats struct {
	Submitted uint64
	Succeeded uint64
	Failed    uint64
	Cancelled uint64
	Retries   uint64
	InFlight  int64
	Pending   int
	StartTime time.Time
	Details   map[string]any
}

// New creates an uploader over the given transport.
func New(cfg *config.UploadConfig, transport Transport, logger *log.Logger) *Uploader {
	u := &Uploader{
		config:    cfg,
		transport: transport,
		policy: Policy{
			Initial:    time.Duration(cfg.RetryDelayMS) * time.Millisecond,
			Max:        time.Duration(cfg.MaxRetryDelayMS) * time.Millisecond,
			Multiplier: cfg.RetryBackoff,
			Jitter:     cfg.RetryJitter,
		},
		input:     make(chan *core.EncodedBatch, cfg.QueueSize),
		outcomes:  make(chan core.UploadOutcome, int(cfg.QueueSize+cfg.MaxConcurrent)),
		sem:       semaphore.NewWeighted(cfg.MaxConcurrent),
		done:      make(chan struct{}),
		startTime: time.Now(),
		logger:    logger,
	}

	if cfg.RateLimit > 0 {
		u.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), int(cfg.RateBurst))
	}

	return u
}

// Start launches the dispatcher. The context bounds the pipeline's
// lifetime; cancelling it behaves like Stop.
func (u *Uploader) Start(ctx context.Context) error {
	u.admitCtx, u.admitStop = context.WithCancel(ctx)

	u.wg.Add(1)
	go u.dispatchLoop()

	u.logger.Info("msg", "Uploader started",
		"component", "uploader",
		"max_concurrent", u.config.MaxConcurrent,
		"queue_size", u.config.QueueSize,
		"max_retries", u.config.MaxRetries)
	return nil
}

// Submit queues one batch for upload. It blocks while the pending
// queue is full and fails once the pipeline is shutting down.
func (u *Uploader) Submit(ctx context.Context, batch *core.EncodedBatch) error {
	select {
	case <-u.done:
		return core.ErrCancelled
	default:
	}

	select {
	case u.input <- batch:
		u.totalSubmitted.Add(1)
		return nil
	case <-u.done:
		return core.ErrCancelled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Outcomes delivers exactly one outcome per submitted batch. The
// channel is closed by Stop once all workers have finished.
func (u *Uploader) Outcomes() <-chan core.UploadOutcome {
	return u.outcomes
}

// Stop shuts the pipeline down. Queued and mid-retry batches are
// reported as FailedTerminal with a cancellation error. Callers must
// stop submitting before calling Stop.
func (u *Uploader) Stop() {
	u.stopOnce.Do(func() {
		u.logger.Info("msg", "Stopping uploader", "component", "uploader")
		close(u.done)
		if u.admitStop != nil {
			u.admitStop()
		}
		u.wg.Wait()
		u.workerWg.Wait()
		u.drainPending()
		close(u.outcomes)
		u.transport.Close()

		u.logger.Info("msg", "Uploader stopped",
			"component", "uploader",
			"succeeded", u.totalSucceeded.Load(),
			"failed", u.totalFailed.Load(),
			"cancelled", u.totalCancelled.Load(),
			"retries", u.totalRetries.Load())
	})
}

// GetStats returns the pipeline's statistics.
func (u *Uploader) GetStats() Stats {
	return Stats{
		Submitted: u.totalSubmitted.Load(),
		Succeeded: u.totalSucceeded.Load(),
		Failed:    u.totalFailed.Load(),
		Cancelled: u.totalCancelled.Load(),
		Retries:   u.totalRetries.Load(),
		InFlight:  u.inFlight.Load(),
		Pending:   len(u.input),
		StartTime: u.startTime,
		Details: map[string]any{
			"transport":      u.transport.Stats(),
			"max_concurrent": u.config.MaxConcurrent,
			"queue_size":     u.config.QueueSize,
		},
	}
}

// dispatchLoop admits queued batches in arrival order.
func (u *Uploader) dispatchLoop() {
	defer u.wg.Done()

	for {
		select {
		case <-u.done:
			u.drainPending()
			return
		case <-u.admitCtx.Done():
			u.drainPending()
			return
		case batch := <-u.input:
			if !u.admit(batch) {
				u.drainPending()
				return
			}
		}
	}
}

// admit waits for a concurrency slot, then hands the batch to a
// worker. Returns false when shutdown interrupted admission.
func (u *Uploader) admit(batch *core.EncodedBatch) bool {
	if u.limiter != nil {
		if err := u.limiter.Wait(u.admitCtx); err != nil {
			u.finish(batch, 0, core.ErrCancelled)
			return false
		}
	}

	if err := u.sem.Acquire(u.admitCtx, 1); err != nil {
		u.finish(batch, 0, core.ErrCancelled)
		return false
	}

	u.workerWg.Add(1)
	go u.run(batch)
	return true
}

// drainPending fails whatever is still queued.
func (u *Uploader) drainPending() {
	for {
		select {
		case batch := <-u.input:
			u.finish(batch, 0, core.ErrCancelled)
		default:
			return
		}
	}
}

// run drives one batch until success, terminal failure, exhausted
// retries or shutdown. The concurrency slot acquired at admission is
// held during attempts and released across backoff waits, so waiting
// batches are not blocked by sleeping ones.
func (u *Uploader) run(batch *core.EncodedBatch) {
	defer u.workerWg.Done()

	attempts := 0
	for {
		attempts++
		u.inFlight.Add(1)
		err := u.transport.Send(u.admitCtx, batch)
		u.inFlight.Add(-1)
		u.sem.Release(1)

		if err == nil {
			u.logger.Debug("msg", "Batch uploaded",
				"component", "uploader",
				"event", batch.EventName,
				"rows", batch.Rows,
				"attempt", attempts)
			u.finish(batch, attempts, nil)
			return
		}

		if !core.IsTransient(err) {
			u.logger.Error("msg", "Batch rejected",
				"component", "uploader",
				"event", batch.EventName,
				"rows", batch.Rows,
				"attempt", attempts,
				"error", err)
			u.finish(batch, attempts, err)
			return
		}

		if int64(attempts) > u.config.MaxRetries {
			u.logger.Error("msg", "Upload failed after all retries",
				"component", "uploader",
				"event", batch.EventName,
				"rows", batch.Rows,
				"attempts", attempts,
				"last_error", err)
			u.finish(batch, attempts, fmt.Errorf("retries exhausted: %w", err))
			return
		}

		delay := u.policy.Delay(attempts - 1)
		u.totalRetries.Add(1)
		u.logger.Warn("msg", "Upload attempt failed, retrying",
			"component", "uploader",
			"event", batch.EventName,
			"attempt", attempts,
			"retry_in", delay.String(),
			"error", err)

		select {
		case <-time.After(delay):
		case <-u.admitCtx.Done():
			u.finish(batch, attempts, fmt.Errorf("%w (last error: %v)", core.ErrCancelled, err))
			return
		}

		// Re-acquire a slot for the retry attempt
		if acquireErr := u.sem.Acquire(u.admitCtx, 1); acquireErr != nil {
			u.finish(batch, attempts, fmt.Errorf("%w (last error: %v)", core.ErrCancelled, err))
			return
		}
	}
}

// finish emits the single outcome for a batch.
func (u *Uploader) finish(batch *core.EncodedBatch, attempts int, err error) {
	state := core.StateSucceeded
	if err != nil {
		state = core.StateFailedTerminal
		if errors.Is(err, core.ErrCancelled) {
			u.totalCancelled.Add(1)
		} else {
			u.totalFailed.Add(1)
		}
	} else {
		u.totalSucceeded.Add(1)
	}

	u.outcomes <- core.UploadOutcome{
		EventName: batch.EventName,
		SchemaID:  batch.SchemaID,
		Rows:      batch.Rows,
		State:     state,
		Attempts:  attempts,
		Err:       err,
	}
}
