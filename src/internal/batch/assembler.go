// FILE: arrowship/src/internal/batch/assembler.go
// Package batch groups encoded rows into size-bounded batches, one
// open accumulation per event name.
package batch

import (
	"sort"

	"arrowship/src/internal/compress"
	"arrowship/src/internal/core"
	"arrowship/src/internal/schema"
	"arrowship/src/internal/wire"
)

const (
	DefaultMaxBytes = 1 << 20
	DefaultMaxRows  = 4096
)

// Assembler accumulates encoded rows per event name and finalizes a
// batch when the accumulation crosses the byte or row bound, when the
// event's schema changes, or at FlushAll. Single-threaded alongside
// the encoder that feeds it.
type Assembler struct {
	maxBytes int
	maxRows  int
	codec    *compress.Codec

	open map[string]*accumulation

	// Statistics
	built    uint64
	rawBytes uint64
	outBytes uint64
}

type accumulation struct {
	schema *schema.Schema
	rows   int
	buf    []byte
}

func New(maxBytes, maxRows int, codec *compress.Codec) *Assembler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Assembler{
		maxBytes: maxBytes,
		maxRows:  maxRows,
		codec:    codec,
		open:     make(map[string]*accumulation),
	}
}

// Push appends one encoded row under sch, copying it out of the
// encoder's reused buffer. Returns any batches finalized by this
// push; a compression failure surfaces as a CompressionError while
// the new row is still accumulated.
func (a *Assembler) Push(sch *schema.Schema, row []byte) ([]*core.EncodedBatch, error) {
	var out []*core.EncodedBatch
	var err error

	acc := a.open[sch.EventName]
	if acc != nil && acc.schema != sch {
		// The field set changed mid-stream. Close the old layout so
		// every row within a batch shares one schema.
		b, ferr := a.finalize(acc)
		delete(a.open, sch.EventName)
		if ferr != nil {
			err = ferr
		} else {
			out = append(out, b)
		}
		acc = nil
	}
	if acc == nil {
		acc = &accumulation{schema: sch, buf: make([]byte, 0, 4096)}
		a.open[sch.EventName] = acc
	}

	acc.buf = append(acc.buf, row...)
	acc.rows++

	if len(acc.buf) >= a.maxBytes || acc.rows >= a.maxRows {
		b, ferr := a.finalize(acc)
		delete(a.open, sch.EventName)
		if ferr != nil {
			err = ferr
		} else {
			out = append(out, b)
		}
	}
	return out, err
}

// FlushAll finalizes every open accumulation at end of input, in
// event-name order. Compression failures are returned per batch; the
// remaining batches are unaffected.
func (a *Assembler) FlushAll() ([]*core.EncodedBatch, []error) {
	if len(a.open) == 0 {
		return nil, nil
	}
	events := make([]string, 0, len(a.open))
	for event := range a.open {
		events = append(events, event)
	}
	sort.Strings(events)

	var out []*core.EncodedBatch
	var errs []error
	for _, event := range events {
		b, err := a.finalize(a.open[event])
		delete(a.open, event)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, b)
	}
	return out, errs
}

// Open returns how many accumulations are currently open.
func (a *Assembler) Open() int {
	return len(a.open)
}

// Stats returns batches built plus cumulative raw and framed bytes.
func (a *Assembler) Stats() (built, rawBytes, outBytes uint64) {
	return a.built, a.rawBytes, a.outBytes
}

func (a *Assembler) finalize(acc *accumulation) (*core.EncodedBatch, error) {
	env := make([]byte, 0, wire.EnvelopeOverhead(acc.schema)+len(acc.buf))
	env = wire.AppendEnvelope(env, acc.schema, acc.rows, acc.buf)

	payload, err := a.codec.Frame(env)
	if err != nil {
		return nil, &core.CompressionError{
			EventName: acc.schema.EventName,
			SchemaID:  acc.schema.ID,
			Rows:      acc.rows,
			Err:       err,
		}
	}

	a.built++
	a.rawBytes += uint64(len(env))
	a.outBytes += uint64(len(payload))
	return &core.EncodedBatch{
		EventName: acc.schema.EventName,
		SchemaID:  acc.schema.ID,
		Rows:      acc.rows,
		Payload:   payload,
		RawSize:   len(env),
	}, nil
}
