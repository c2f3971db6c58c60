// FILE: src/internal/uploader/uploader_test.go
package uploader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"arrowship/src/internal/config"
	"arrowship/src/internal/core"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func newTestConfig() *config.UploadConfig {
	return &config.UploadConfig{
		Transport:       "http",
		MaxConcurrent:   2,
		QueueSize:       16,
		MaxRetries:      3,
		RetryDelayMS:    20,
		MaxRetryDelayMS: 200,
		RetryBackoff:    2.0,
		RetryJitter:     0,
		TimeoutSeconds:  2,
	}
}

// stubTransport scripts failures per batch and records attempt
// timing and concurrency.
type stubTransport struct {
	mu           sync.Mutex
	failures     map[string]int   // event -> failing attempts before success
	failWith     func(event string) error
	attempts     map[string]int
	attemptTimes map[string][]time.Time
	order        []string // events in first-attempt order
	sendDelay    time.Duration

	current atomic.Int64
	maxSeen atomic.Int64
}

func newStubTransport() *stubTransport {
	return &stubTransport{
		failures:     map[string]int{},
		attempts:     map[string]int{},
		attemptTimes: map[string][]time.Time{},
		failWith: func(string) error {
			return &core.UploadError{Status: 503, Transient: true}
		},
	}
}

func (s *stubTransport) Send(ctx context.Context, b *core.EncodedBatch) error {
	cur := s.current.Add(1)
	for {
		max := s.maxSeen.Load()
		if cur <= max || s.maxSeen.CompareAndSwap(max, cur) {
			break
		}
	}
	defer s.current.Add(-1)

	s.mu.Lock()
	s.attempts[b.EventName]++
	n := s.attempts[b.EventName]
	if n == 1 {
		s.order = append(s.order, b.EventName)
	}
	s.attemptTimes[b.EventName] = append(s.attemptTimes[b.EventName], time.Now())
	failing := n <= s.failures[b.EventName]
	s.mu.Unlock()

	if s.sendDelay > 0 {
		time.Sleep(s.sendDelay)
	}

	if failing {
		return s.failWith(b.EventName)
	}
	return nil
}

func (s *stubTransport) Close() error { return nil }

func (s *stubTransport) Stats() map[string]any {
	return map[string]any{"type": "stub"}
}

func (s *stubTransport) attemptCount(event string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts[event]
}

func (s *stubTransport) attemptGap(event string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	times := s.attemptTimes[event]
	if len(times) < 2 {
		return 0
	}
	return times[1].Sub(times[0])
}

func testBatch(event string) *core.EncodedBatch {
	return &core.EncodedBatch{
		EventName: event,
		SchemaID:  0xfeedface,
		Rows:      3,
		Payload:   []byte{'A', 'S', 'H', 'B', 1, 0, 0},
		RawSize:   7,
	}
}

func collectOutcomes(t *testing.T, u *Uploader, n int) []core.UploadOutcome {
	t.Helper()

	outs := make([]core.UploadOutcome, 0, n)
	timeout := time.After(10 * time.Second)
	for len(outs) < n {
		select {
		case o, ok := <-u.Outcomes():
			if !ok {
				t.Fatalf("outcomes closed after %d of %d", len(outs), n)
			}
			outs = append(outs, o)
		case <-timeout:
			t.Fatalf("timed out waiting for outcomes: got %d of %d", len(outs), n)
		}
	}
	return outs
}

func TestUploaderConcurrencyBound(t *testing.T) {
	stub := newStubTransport()
	stub.sendDelay = 10 * time.Millisecond
	for i := 0; i < 5; i++ {
		// Every batch fails its first attempt, succeeds on the second
		stub.failures[fmt.Sprintf("batch-%d", i)] = 1
	}

	u := New(newTestConfig(), stub, newTestLogger())
	require.NoError(t, u.Start(context.Background()))

	for i := 0; i < 5; i++ {
		require.NoError(t, u.Submit(context.Background(), testBatch(fmt.Sprintf("batch-%d", i))))
	}

	outs := collectOutcomes(t, u, 5)
	u.Stop()

	for _, o := range outs {
		assert.Equal(t, core.StateSucceeded, o.State, "batch %s", o.EventName)
		assert.Equal(t, 2, o.Attempts, "batch %s", o.EventName)
		assert.NoError(t, o.Err)
	}

	// Never more simultaneous attempts than the configured bound
	assert.LessOrEqual(t, stub.maxSeen.Load(), int64(2))

	// Retries waited at least the initial interval
	for i := 0; i < 5; i++ {
		event := fmt.Sprintf("batch-%d", i)
		assert.GreaterOrEqual(t, stub.attemptGap(event), 20*time.Millisecond, "batch %s", event)
	}

	stats := u.GetStats()
	assert.Equal(t, uint64(5), stats.Submitted)
	assert.Equal(t, uint64(5), stats.Succeeded)
	assert.Equal(t, uint64(5), stats.Retries)
	assert.Equal(t, uint64(0), stats.Failed)
}

func TestUploaderTerminalFailure(t *testing.T) {
	stub := newStubTransport()
	stub.failures["rejected"] = 100
	stub.failWith = func(string) error {
		return &core.UploadError{Status: 400, Transient: false, Body: "schema mismatch"}
	}

	u := New(newTestConfig(), stub, newTestLogger())
	require.NoError(t, u.Start(context.Background()))
	require.NoError(t, u.Submit(context.Background(), testBatch("rejected")))

	outs := collectOutcomes(t, u, 1)
	u.Stop()

	// Terminal errors never reach the retry path
	assert.Equal(t, core.StateFailedTerminal, outs[0].State)
	assert.Equal(t, 1, outs[0].Attempts)
	assert.Equal(t, 1, stub.attemptCount("rejected"))

	var ue *core.UploadError
	require.ErrorAs(t, outs[0].Err, &ue)
	assert.Equal(t, 400, ue.Status)

	stats := u.GetStats()
	assert.Equal(t, uint64(1), stats.Failed)
	assert.Equal(t, uint64(0), stats.Retries)
}

func TestUploaderRetriesExhausted(t *testing.T) {
	stub := newStubTransport()
	stub.failures["flaky"] = 100

	cfg := newTestConfig()
	cfg.MaxRetries = 2

	u := New(cfg, stub, newTestLogger())
	require.NoError(t, u.Start(context.Background()))
	require.NoError(t, u.Submit(context.Background(), testBatch("flaky")))

	outs := collectOutcomes(t, u, 1)
	u.Stop()

	assert.Equal(t, core.StateFailedTerminal, outs[0].State)
	assert.Equal(t, 3, outs[0].Attempts) // first attempt plus two retries
	require.Error(t, outs[0].Err)
	assert.Contains(t, outs[0].Err.Error(), "retries exhausted")
	assert.True(t, core.IsTransient(outs[0].Err))
}

func TestUploaderFIFOAdmission(t *testing.T) {
	stub := newStubTransport()

	cfg := newTestConfig()
	cfg.MaxConcurrent = 1

	u := New(cfg, stub, newTestLogger())
	require.NoError(t, u.Start(context.Background()))

	want := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		event := fmt.Sprintf("seq-%d", i)
		want = append(want, event)
		require.NoError(t, u.Submit(context.Background(), testBatch(event)))
	}

	collectOutcomes(t, u, 6)
	u.Stop()

	stub.mu.Lock()
	defer stub.mu.Unlock()
	assert.Equal(t, want, stub.order)
}

func TestUploaderShutdownCancelsPending(t *testing.T) {
	stub := newStubTransport()
	stub.sendDelay = 150 * time.Millisecond

	cfg := newTestConfig()
	cfg.MaxConcurrent = 1

	u := New(cfg, stub, newTestLogger())
	require.NoError(t, u.Start(context.Background()))

	require.NoError(t, u.Submit(context.Background(), testBatch("first")))
	require.NoError(t, u.Submit(context.Background(), testBatch("second")))
	require.NoError(t, u.Submit(context.Background(), testBatch("third")))

	// Let the first batch enter its attempt, then shut down under it
	time.Sleep(50 * time.Millisecond)
	u.Stop()

	var outs []core.UploadOutcome
	for o := range u.Outcomes() {
		outs = append(outs, o)
	}
	require.Len(t, outs, 3)

	byEvent := map[string]core.UploadOutcome{}
	for _, o := range outs {
		byEvent[o.EventName] = o
	}

	// The in-flight batch finished, the rest were cancelled
	assert.Equal(t, core.StateSucceeded, byEvent["first"].State)
	for _, event := range []string{"second", "third"} {
		o := byEvent[event]
		assert.Equal(t, core.StateFailedTerminal, o.State, "batch %s", event)
		assert.Equal(t, 0, o.Attempts, "batch %s", event)
		assert.True(t, errors.Is(o.Err, core.ErrCancelled), "batch %s: %v", event, o.Err)
	}

	stats := u.GetStats()
	assert.Equal(t, uint64(1), stats.Succeeded)
	assert.Equal(t, uint64(2), stats.Cancelled)
}

func TestUploaderSubmitAfterStop(t *testing.T) {
	u := New(newTestConfig(), newStubTransport(), newTestLogger())
	require.NoError(t, u.Start(context.Background()))
	u.Stop()

	err := u.Submit(context.Background(), testBatch("late"))
	assert.True(t, errors.Is(err, core.ErrCancelled))
}
