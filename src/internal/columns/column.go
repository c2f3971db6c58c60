// FILE: arrowship/src/internal/columns/column.go
package columns

import (
	"fmt"

	"arrowship/src/internal/core"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/array"
)

// Column helpers resolving plain or dictionary-encoded arrays to
// borrowed values. A nil helper behaves as an all-null column so
// optional columns need no call-site checks.

type stringColumn struct {
	plain *array.String
	dict  *array.Dictionary
	vals  *array.String
}

func newStringColumn(a arrow.Array, table, name string) (*stringColumn, error) {
	switch c := a.(type) {
	case *array.String:
		return &stringColumn{plain: c}, nil
	case *array.Dictionary:
		vals, ok := c.Dictionary().(*array.String)
		if !ok {
			return nil, &core.MalformedInputError{Table: table, Reason: fmt.Sprintf("column %q: dictionary values are %s, want utf8", name, c.Dictionary().DataType())}
		}
		return &stringColumn{dict: c, vals: vals}, nil
	default:
		return nil, &core.MalformedInputError{Table: table, Reason: fmt.Sprintf("column %q: unexpected type %s, want utf8", name, a.DataType())}
	}
}

func (c *stringColumn) isNull(i int) bool {
	if c == nil {
		return true
	}
	if c.plain != nil {
		return c.plain.IsNull(i)
	}
	return c.dict.IsNull(i)
}

func (c *stringColumn) value(i int) string {
	if c.plain != nil {
		return c.plain.Value(i)
	}
	return c.vals.Value(c.dict.GetValueIndex(i))
}

type binaryColumn struct {
	plain *array.Binary
	fixed *array.FixedSizeBinary
	dict  *array.Dictionary
	vals  *array.Binary
}

func newBinaryColumn(a arrow.Array, table, name string) (*binaryColumn, error) {
	switch c := a.(type) {
	case *array.Binary:
		return &binaryColumn{plain: c}, nil
	case *array.FixedSizeBinary:
		return &binaryColumn{fixed: c}, nil
	case *array.Dictionary:
		vals, ok := c.Dictionary().(*array.Binary)
		if !ok {
			return nil, &core.MalformedInputError{Table: table, Reason: fmt.Sprintf("column %q: dictionary values are %s, want binary", name, c.Dictionary().DataType())}
		}
		return &binaryColumn{dict: c, vals: vals}, nil
	default:
		return nil, &core.MalformedInputError{Table: table, Reason: fmt.Sprintf("column %q: unexpected type %s, want binary", name, a.DataType())}
	}
}

func (c *binaryColumn) isNull(i int) bool {
	if c == nil {
		return true
	}
	switch {
	case c.plain != nil:
		return c.plain.IsNull(i)
	case c.fixed != nil:
		return c.fixed.IsNull(i)
	default:
		return c.dict.IsNull(i)
	}
}

func (c *binaryColumn) value(i int) []byte {
	switch {
	case c.plain != nil:
		return c.plain.Value(i)
	case c.fixed != nil:
		return c.fixed.Value(i)
	default:
		return c.vals.Value(c.dict.GetValueIndex(i))
	}
}

type int64Column struct {
	plain *array.Int64
	dict  *array.Dictionary
	vals  *array.Int64
}

func newInt64Column(a arrow.Array, table, name string) (*int64Column, error) {
	switch c := a.(type) {
	case *array.Int64:
		return &int64Column{plain: c}, nil
	case *array.Dictionary:
		vals, ok := c.Dictionary().(*array.Int64)
		if !ok {
			return nil, &core.MalformedInputError{Table: table, Reason: fmt.Sprintf("column %q: dictionary values are %s, want int64", name, c.Dictionary().DataType())}
		}
		return &int64Column{dict: c, vals: vals}, nil
	default:
		return nil, &core.MalformedInputError{Table: table, Reason: fmt.Sprintf("column %q: unexpected type %s, want int64", name, a.DataType())}
	}
}

func (c *int64Column) isNull(i int) bool {
	if c == nil {
		return true
	}
	if c.plain != nil {
		return c.plain.IsNull(i)
	}
	return c.dict.IsNull(i)
}

func (c *int64Column) value(i int) int64 {
	if c.plain != nil {
		return c.plain.Value(i)
	}
	return c.vals.Value(c.dict.GetValueIndex(i))
}

type int32Column struct {
	plain *array.Int32
	dict  *array.Dictionary
	vals  *array.Int32
}

func newInt32Column(a arrow.Array, table, name string) (*int32Column, error) {
	switch c := a.(type) {
	case *array.Int32:
		return &int32Column{plain: c}, nil
	case *array.Dictionary:
		vals, ok := c.Dictionary().(*array.Int32)
		if !ok {
			return nil, &core.MalformedInputError{Table: table, Reason: fmt.Sprintf("column %q: dictionary values are %s, want int32", name, c.Dictionary().DataType())}
		}
		return &int32Column{dict: c, vals: vals}, nil
	default:
		return nil, &core.MalformedInputError{Table: table, Reason: fmt.Sprintf("column %q: unexpected type %s, want int32", name, a.DataType())}
	}
}

func (c *int32Column) isNull(i int) bool {
	if c == nil {
		return true
	}
	if c.plain != nil {
		return c.plain.IsNull(i)
	}
	return c.dict.IsNull(i)
}

func (c *int32Column) value(i int) int32 {
	if c.plain != nil {
		return c.plain.Value(i)
	}
	return c.vals.Value(c.dict.GetValueIndex(i))
}

type float64Column struct {
	plain *array.Float64
	dict  *array.Dictionary
	vals  *array.Float64
}

func newFloat64Column(a arrow.Array, table, name string) (*float64Column, error) {
	switch c := a.(type) {
	case *array.Float64:
		return &float64Column{plain: c}, nil
	case *array.Dictionary:
		vals, ok := c.Dictionary().(*array.Float64)
		if !ok {
			return nil, &core.MalformedInputError{Table: table, Reason: fmt.Sprintf("column %q: dictionary values are %s, want float64", name, c.Dictionary().DataType())}
		}
		return &float64Column{dict: c, vals: vals}, nil
	default:
		return nil, &core.MalformedInputError{Table: table, Reason: fmt.Sprintf("column %q: unexpected type %s, want float64", name, a.DataType())}
	}
}

func (c *float64Column) isNull(i int) bool {
	if c == nil {
		return true
	}
	if c.plain != nil {
		return c.plain.IsNull(i)
	}
	return c.dict.IsNull(i)
}

func (c *float64Column) value(i int) float64 {
	if c.plain != nil {
		return c.plain.Value(i)
	}
	return c.vals.Value(c.dict.GetValueIndex(i))
}

type timestampColumn struct {
	ts    *array.Timestamp
	plain *array.Int64
	unit  arrow.TimeUnit
}

func newTimestampColumn(a arrow.Array, table, name string) (*timestampColumn, error) {
	switch c := a.(type) {
	case *array.Timestamp:
		unit := c.DataType().(*arrow.TimestampType).Unit
		return &timestampColumn{ts: c, unit: unit}, nil
	case *array.Int64:
		return &timestampColumn{plain: c}, nil
	default:
		return nil, &core.MalformedInputError{Table: table, Reason: fmt.Sprintf("column %q: unexpected type %s, want timestamp", name, a.DataType())}
	}
}

func (c *timestampColumn) isNull(i int) bool {
	if c == nil {
		return true
	}
	if c.ts != nil {
		return c.ts.IsNull(i)
	}
	return c.plain.IsNull(i)
}

// nanos returns the value normalized to Unix nanoseconds.
func (c *timestampColumn) nanos(i int) int64 {
	if c.plain != nil {
		return c.plain.Value(i)
	}
	v := int64(c.ts.Value(i))
	switch c.unit {
	case arrow.Second:
		return v * 1e9
	case arrow.Millisecond:
		return v * 1e6
	case arrow.Microsecond:
		return v * 1e3
	default:
		return v
	}
}

func asUint16(a arrow.Array, table, name string) (*array.Uint16, error) {
	c, ok := a.(*array.Uint16)
	if !ok {
		return nil, &core.MalformedInputError{Table: table, Reason: fmt.Sprintf("column %q: unexpected type %s, want uint16", name, a.DataType())}
	}
	return c, nil
}

func asUint32(a arrow.Array, table, name string) (*array.Uint32, error) {
	c, ok := a.(*array.Uint32)
	if !ok {
		return nil, &core.MalformedInputError{Table: table, Reason: fmt.Sprintf("column %q: unexpected type %s, want uint32", name, a.DataType())}
	}
	return c, nil
}

func asUint8(a arrow.Array, table, name string) (*array.Uint8, error) {
	c, ok := a.(*array.Uint8)
	if !ok {
		return nil, &core.MalformedInputError{Table: table, Reason: fmt.Sprintf("column %q: unexpected type %s, want uint8", name, a.DataType())}
	}
	return c, nil
}
