// FILE: arrowship/src/internal/wire/encoder.go
package wire

import (
	"encoding/binary"
	"math"

	"arrowship/src/internal/columns"
	"arrowship/src/internal/core"
	"arrowship/src/internal/schema"
)

// AttrSource pairs an attribute view with the row positions belonging
// to the record being encoded. Sources are scanned in slice order, so
// record-level attributes placed before resource-level ones take
// precedence on key collisions.
type AttrSource struct {
	View *columns.Attrs
	Rows []int32
}

// Encoder serializes log records into positional rows. The row buffer
// is reused across calls; not safe for concurrent use.
type Encoder struct {
	row []byte
}

func NewEncoder() *Encoder {
	return &Encoder{row: make([]byte, 0, 512)}
}

// EncodeRow serializes one record against sch. The returned fragment
// is valid until the next call. dropped counts attributes whose value
// could not be represented under the schema's committed field type.
// A row touching an unsupported attribute type fails whole, with no
// partial fragment.
func (e *Encoder) EncodeRow(sch *schema.Schema, logs *columns.Logs, row int, attrs []AttrSource) (frag []byte, dropped int, err error) {
	// An unsupported attribute type poisons the whole row, even when
	// the key never made it into the schema.
	for _, src := range attrs {
		for _, pos := range src.Rows {
			if _, terr := src.View.FieldType(int(pos)); terr != nil {
				return nil, 0, &core.RowError{Row: row, Err: terr}
			}
		}
	}

	e.row = e.row[:0]

	if v, ok := logs.Time(row); ok {
		e.present()
		e.row = binary.LittleEndian.AppendUint64(e.row, uint64(v))
	} else {
		e.absent()
	}
	if v, ok := logs.ObservedTime(row); ok {
		e.present()
		e.row = binary.LittleEndian.AppendUint64(e.row, uint64(v))
	} else {
		e.absent()
	}
	if v, ok := logs.SeverityNumber(row); ok {
		e.present()
		e.row = binary.LittleEndian.AppendUint32(e.row, uint32(v))
	} else {
		e.absent()
	}
	if v, ok := logs.SeverityText(row); ok {
		e.present()
		e.appendString(v)
	} else {
		e.absent()
	}
	if v, ok := logs.Body(row); ok {
		e.present()
		e.appendString(v)
	} else {
		e.absent()
	}
	if v, ok := logs.TraceID(row); ok {
		e.present()
		e.appendBytes(v)
	} else {
		e.absent()
	}
	if v, ok := logs.SpanID(row); ok {
		e.present()
		e.appendBytes(v)
	} else {
		e.absent()
	}
	if v, ok := logs.Flags(row); ok {
		e.present()
		e.row = binary.LittleEndian.AppendUint32(e.row, v)
	} else {
		e.absent()
	}

	for _, f := range sch.Fields[schema.NumFixedFields:] {
		v, ok, verr := lookupAttr(attrs, f.Name)
		if verr != nil {
			return nil, 0, &core.RowError{Row: row, Err: verr}
		}
		if !ok {
			e.absent()
			continue
		}
		if !v.Type.CoercibleTo(f.Type) {
			// First-seen type won the schema slot; this row's value
			// cannot be written losslessly.
			dropped++
			e.absent()
			continue
		}
		e.present()
		e.appendValue(f.Type, v)
	}
	return e.row, dropped, nil
}

// lookupAttr returns the first value for key across the sources.
func lookupAttr(attrs []AttrSource, key string) (columns.Value, bool, error) {
	for _, src := range attrs {
		for _, pos := range src.Rows {
			if src.View.Key(int(pos)) != key {
				continue
			}
			v, err := src.View.ValueAt(int(pos))
			if err != nil {
				return columns.Value{}, false, err
			}
			return v, true, nil
		}
	}
	return columns.Value{}, false, nil
}

func (e *Encoder) present() {
	e.row = append(e.row, FieldPresent)
}

func (e *Encoder) absent() {
	e.row = append(e.row, FieldAbsent)
}

func (e *Encoder) appendString(s string) {
	e.row = binary.AppendUvarint(e.row, uint64(len(s)))
	e.row = append(e.row, s...)
}

func (e *Encoder) appendBytes(b []byte) {
	e.row = binary.AppendUvarint(e.row, uint64(len(b)))
	e.row = append(e.row, b...)
}

func (e *Encoder) appendValue(t schema.FieldType, v columns.Value) {
	switch t {
	case schema.TypeString:
		e.appendString(v.Str)
	case schema.TypeInt64:
		e.row = binary.LittleEndian.AppendUint64(e.row, uint64(v.Int))
	case schema.TypeFloat64:
		f := v.Float
		if v.Type == schema.TypeInt64 {
			f = float64(v.Int)
		}
		e.row = binary.LittleEndian.AppendUint64(e.row, math.Float64bits(f))
	case schema.TypeBool:
		if v.Bool {
			e.row = append(e.row, 1)
		} else {
			e.row = append(e.row, 0)
		}
	default:
		e.appendBytes(v.Bytes)
	}
}
