// FILE: arrowship/src/internal/wire/envelope.go
// Package wire implements the positional binary batch format.
//
// Outer frame:
//
//	magic "ASHB" | version | codec | uvarint uncompressed size | payload
//
// Envelope (the uncompressed payload):
//
//	uvarint event-name length | event name
//	schema id, 8 bytes little endian
//	uvarint field count | per field: uvarint name length, name, type byte
//	uvarint row count | rows
//
// Each row holds one marker byte per schema field: FieldPresent
// followed by the value, or FieldAbsent alone. Rows are positional;
// every row of a schema has identical field cardinality.
package wire

import (
	"encoding/binary"

	"arrowship/src/internal/schema"
)

const (
	Magic   = "ASHB"
	Version = 0x01

	CodecNone uint8 = 0
	CodecLZ4  uint8 = 1

	FieldAbsent  = 0x00
	FieldPresent = 0x01
)

// AppendEnvelope appends the envelope for one finalized batch: header
// plus the pre-encoded row bytes.
func AppendEnvelope(dst []byte, sch *schema.Schema, rowCount int, rows []byte) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(sch.EventName)))
	dst = append(dst, sch.EventName...)
	dst = binary.LittleEndian.AppendUint64(dst, sch.ID)
	dst = binary.AppendUvarint(dst, uint64(len(sch.Fields)))
	for _, f := range sch.Fields {
		dst = binary.AppendUvarint(dst, uint64(len(f.Name)))
		dst = append(dst, f.Name...)
		dst = append(dst, byte(f.Type))
	}
	dst = binary.AppendUvarint(dst, uint64(rowCount))
	dst = append(dst, rows...)
	return dst
}

// AppendFrame wraps a payload in the outer frame. rawSize is the
// uncompressed envelope size regardless of codec.
func AppendFrame(dst []byte, codec uint8, rawSize int, payload []byte) []byte {
	dst = append(dst, Magic...)
	dst = append(dst, Version, codec)
	dst = binary.AppendUvarint(dst, uint64(rawSize))
	dst = append(dst, payload...)
	return dst
}

// EnvelopeOverhead estimates the header bytes an envelope adds for
// sizing accumulation buffers.
func EnvelopeOverhead(sch *schema.Schema) int {
	n := binary.MaxVarintLen64 + len(sch.EventName) + 8 + binary.MaxVarintLen64
	for _, f := range sch.Fields {
		n += binary.MaxVarintLen64 + len(f.Name) + 1
	}
	return n + binary.MaxVarintLen64
}
