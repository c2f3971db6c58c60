// FILE: arrowship/src/internal/compress/codec.go
// Package compress frames finalized envelopes, lz4 block compression
// when enabled.
package compress

import (
	"fmt"

	"arrowship/src/internal/wire"

	"github.com/pierrec/lz4/v4"
)

// Codec produces framed batch payloads. Single-threaded, matching the
// encoding pass that feeds it.
type Codec struct {
	enabled bool
}

func New(enabled bool) *Codec {
	return &Codec{enabled: enabled}
}

// Enabled reports whether lz4 compression is attempted.
func (c *Codec) Enabled() bool {
	return c.enabled
}

// Frame wraps env in the outer frame. When compression is enabled the
// payload is lz4 block-compressed; incompressible envelopes fall back
// to the stored form, which is not an error.
func (c *Codec) Frame(env []byte) ([]byte, error) {
	if !c.enabled {
		return c.stored(env), nil
	}

	bound := lz4.CompressBlockBound(len(env))
	dst := make([]byte, bound)
	written, err := lz4.CompressBlock(env, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 when the input is incompressible; a
	// result no smaller than the input is not worth carrying either.
	if written == 0 || written >= len(env) {
		return c.stored(env), nil
	}

	frame := make([]byte, 0, frameOverhead+written)
	return wire.AppendFrame(frame, wire.CodecLZ4, len(env), dst[:written]), nil
}

func (c *Codec) stored(env []byte) []byte {
	frame := make([]byte, 0, frameOverhead+len(env))
	return wire.AppendFrame(frame, wire.CodecNone, len(env), env)
}

// Magic, version, codec, and a maximal uvarint length.
const frameOverhead = len(wire.Magic) + 2 + 10
