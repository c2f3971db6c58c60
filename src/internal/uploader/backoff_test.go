// FILE: src/internal/uploader/backoff_test.go
package uploader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicyDelayGrowth(t *testing.T) {
	p := Policy{
		Initial:    100 * time.Millisecond,
		Max:        5 * time.Second,
		Multiplier: 2.0,
	}

	assert.Equal(t, 100*time.Millisecond, p.Delay(0))
	assert.Equal(t, 200*time.Millisecond, p.Delay(1))
	assert.Equal(t, 400*time.Millisecond, p.Delay(2))
	assert.Equal(t, 800*time.Millisecond, p.Delay(3))

	// Growth is capped at the maximum
	assert.Equal(t, 5*time.Second, p.Delay(6))
	assert.Equal(t, 5*time.Second, p.Delay(50))
}

func TestPolicyDelayJitterBounds(t *testing.T) {
	p := Policy{
		Initial:    100 * time.Millisecond,
		Max:        5 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.5,
	}

	for i := 0; i < 100; i++ {
		d := p.Delay(1)
		assert.GreaterOrEqual(t, d, 200*time.Millisecond)
		assert.LessOrEqual(t, d, 300*time.Millisecond)
	}
}

func TestPolicyDelayOverflow(t *testing.T) {
	p := Policy{
		Initial:    time.Hour,
		Max:        24 * time.Hour,
		Multiplier: 1e12,
	}

	// A single growth step would overflow int64 nanoseconds
	assert.Equal(t, 24*time.Hour, p.Delay(1))
	assert.Equal(t, 24*time.Hour, p.Delay(9))
}
