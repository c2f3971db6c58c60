// FILE: src/internal/uploader/backoff.go
package uploader

import (
	"math/rand"
	"time"
)

// Policy computes retry delays: the initial interval grown by the
// multiplier per attempt, capped at the maximum, plus a random
// jitter fraction so synchronized retries spread out.
type Policy struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

// Delay returns the wait before the given retry, 0-based: Delay(0)
// precedes the second attempt.
func (p Policy) Delay(retry int) time.Duration {
	d := p.Initial
	for i := 0; i < retry; i++ {
		next := time.Duration(float64(d) * p.Multiplier)

		// Cap at maximum to prevent integer overflow
		if next > p.Max || next < d {
			d = p.Max
			break
		}
		d = next
	}
	if d > p.Max {
		d = p.Max
	}

	if p.Jitter > 0 {
		d += time.Duration(rand.Float64() * p.Jitter * float64(d))
	}
	return d
}
