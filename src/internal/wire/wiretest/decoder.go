// FILE: arrowship/src/internal/wire/wiretest/decoder.go
// Package wiretest decodes framed batches so tests can verify the
// wire format round-trips. Nothing outside tests may depend on it.
package wiretest

import (
	"encoding/binary"
	"fmt"
	"math"

	"arrowship/src/internal/schema"
	"arrowship/src/internal/wire"

	"github.com/pierrec/lz4/v4"
)

// Value is one decoded field slot.
type Value struct {
	Present bool
	Str     string
	Bytes   []byte
	Int     int64
	Uint    uint64
	Float   float64
	Bool    bool
}

// Decoded is one fully parsed batch.
type Decoded struct {
	Codec     uint8
	RawSize   int
	EventName string
	SchemaID  uint64
	Fields    []schema.Field
	Rows      [][]Value
}

// Field returns the decoded value at row for the named field.
func (d *Decoded) Field(row int, name string) (Value, error) {
	for i, f := range d.Fields {
		if f.Name == name {
			return d.Rows[row][i], nil
		}
	}
	return Value{}, fmt.Errorf("no field %q", name)
}

// Decode parses one framed batch, decompressing when needed.
func Decode(frame []byte) (*Decoded, error) {
	c := &cursor{buf: frame}
	magic, err := c.take(len(wire.Magic))
	if err != nil {
		return nil, err
	}
	if string(magic) != wire.Magic {
		return nil, fmt.Errorf("bad magic %q", magic)
	}
	version, err := c.byte()
	if err != nil {
		return nil, err
	}
	if version != wire.Version {
		return nil, fmt.Errorf("unknown version %d", version)
	}
	codec, err := c.byte()
	if err != nil {
		return nil, err
	}
	rawSize, err := c.uvarint()
	if err != nil {
		return nil, err
	}

	payload := c.rest()
	var env []byte
	switch codec {
	case wire.CodecNone:
		if uint64(len(payload)) != rawSize {
			return nil, fmt.Errorf("stored payload is %d bytes, frame declares %d", len(payload), rawSize)
		}
		env = payload
	case wire.CodecLZ4:
		env = make([]byte, rawSize)
		n, err := lz4.UncompressBlock(payload, env)
		if err != nil {
			return nil, fmt.Errorf("lz4: %w", err)
		}
		if uint64(n) != rawSize {
			return nil, fmt.Errorf("decompressed to %d bytes, frame declares %d", n, rawSize)
		}
	default:
		return nil, fmt.Errorf("unknown codec %d", codec)
	}

	d := &Decoded{Codec: codec, RawSize: int(rawSize)}
	e := &cursor{buf: env}
	if d.EventName, err = e.string(); err != nil {
		return nil, err
	}
	id, err := e.take(8)
	if err != nil {
		return nil, err
	}
	d.SchemaID = binary.LittleEndian.Uint64(id)

	fieldCount, err := e.uvarint()
	if err != nil {
		return nil, err
	}
	d.Fields = make([]schema.Field, fieldCount)
	for i := range d.Fields {
		name, err := e.string()
		if err != nil {
			return nil, err
		}
		t, err := e.byte()
		if err != nil {
			return nil, err
		}
		d.Fields[i] = schema.Field{Name: name, Type: schema.FieldType(t)}
	}

	rowCount, err := e.uvarint()
	if err != nil {
		return nil, err
	}
	d.Rows = make([][]Value, rowCount)
	for r := range d.Rows {
		row := make([]Value, fieldCount)
		for i, f := range d.Fields {
			marker, err := e.byte()
			if err != nil {
				return nil, err
			}
			if marker == wire.FieldAbsent {
				continue
			}
			if marker != wire.FieldPresent {
				return nil, fmt.Errorf("row %d field %q: bad marker %#x", r, f.Name, marker)
			}
			v, err := decodeValue(e, f.Type)
			if err != nil {
				return nil, fmt.Errorf("row %d field %q: %w", r, f.Name, err)
			}
			row[i] = v
		}
		d.Rows[r] = row
	}
	if len(e.rest()) != 0 {
		return nil, fmt.Errorf("%d trailing bytes after last row", len(e.rest()))
	}
	return d, nil
}

func decodeValue(c *cursor, t schema.FieldType) (Value, error) {
	v := Value{Present: true}
	switch t {
	case schema.TypeString:
		s, err := c.string()
		if err != nil {
			return v, err
		}
		v.Str = s
	case schema.TypeBytes:
		n, err := c.uvarint()
		if err != nil {
			return v, err
		}
		b, err := c.take(int(n))
		if err != nil {
			return v, err
		}
		v.Bytes = b
	case schema.TypeInt64, schema.TypeTimestamp:
		b, err := c.take(8)
		if err != nil {
			return v, err
		}
		v.Int = int64(binary.LittleEndian.Uint64(b))
	case schema.TypeFloat64:
		b, err := c.take(8)
		if err != nil {
			return v, err
		}
		v.Float = math.Float64frombits(binary.LittleEndian.Uint64(b))
	case schema.TypeInt32:
		b, err := c.take(4)
		if err != nil {
			return v, err
		}
		v.Int = int64(int32(binary.LittleEndian.Uint32(b)))
	case schema.TypeUint32:
		b, err := c.take(4)
		if err != nil {
			return v, err
		}
		v.Uint = uint64(binary.LittleEndian.Uint32(b))
	case schema.TypeBool:
		b, err := c.byte()
		if err != nil {
			return v, err
		}
		v.Bool = b != 0
	default:
		return v, fmt.Errorf("unknown field type %d", t)
	}
	return v, nil
}

type cursor struct {
	buf []byte
	off int
}

func (c *cursor) take(n int) ([]byte, error) {
	if c.off+n > len(c.buf) {
		return nil, fmt.Errorf("truncated: want %d bytes at offset %d of %d", n, c.off, len(c.buf))
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *cursor) byte() (byte, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) uvarint() (uint64, error) {
	v, n := binary.Uvarint(c.buf[c.off:])
	if n <= 0 {
		return 0, fmt.Errorf("bad uvarint at offset %d", c.off)
	}
	c.off += n
	return v, nil
}

func (c *cursor) string() (string, error) {
	n, err := c.uvarint()
	if err != nil {
		return "", err
	}
	b, err := c.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *cursor) rest() []byte {
	return c.buf[c.off:]
}
