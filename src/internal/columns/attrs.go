// FILE: arrowship/src/internal/columns/attrs.go
package columns

import (
	"fmt"

	"arrowship/src/internal/core"
	"arrowship/src/internal/schema"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/array"
)

// Column names of an attribute table.
const (
	ColParentID = "parent_id"
	ColKey      = "key"
	ColType     = "type"
	ColStr      = "str"
	ColInt      = "int"
	ColDouble   = "double"
	ColBool     = "bool"
	ColBytes    = "bytes"
)

// Attribute type discriminants as stored in the type column.
const (
	AttrTypeEmpty  uint8 = 0
	AttrTypeString uint8 = 1
	AttrTypeInt    uint8 = 2
	AttrTypeDouble uint8 = 3
	AttrTypeBool   uint8 = 4
	AttrTypeBytes  uint8 = 5
)

// Value is one attribute value borrowed from the table. Only the
// slot matching Type is meaningful.
type Value struct {
	Type  schema.FieldType
	Str   string
	Bytes []byte
	Int   int64
	Float float64
	Bool  bool
}

// Attrs is the typed view over one attribute table. parent_id, key
// and type are required; the per-type value columns are each
// optional.
type Attrs struct {
	table  string
	rows   int
	parent *array.Uint16
	key    *stringColumn
	typ    *array.Uint8
	str    *stringColumn
	intv   *int64Column
	double *float64Column
	boolv  *array.Boolean
	bytes  *binaryColumn
}

// NewAttrs validates and wraps one attribute record. table names the
// record in errors ("log_attrs", "resource_attrs").
func NewAttrs(rec arrow.Record, table string) (*Attrs, error) {
	if rec == nil {
		return nil, &core.MalformedInputError{Table: table, Reason: "missing record"}
	}
	a := &Attrs{table: table, rows: int(rec.NumRows())}

	var err error
	for i := 0; i < int(rec.NumCols()); i++ {
		name := rec.Schema().Field(i).Name
		col := rec.Column(i)
		switch name {
		case ColParentID:
			a.parent, err = asUint16(col, table, name)
		case ColKey:
			a.key, err = newStringColumn(col, table, name)
		case ColType:
			a.typ, err = asUint8(col, table, name)
		case ColStr:
			a.str, err = newStringColumn(col, table, name)
		case ColInt:
			a.intv, err = newInt64Column(col, table, name)
		case ColDouble:
			a.double, err = newFloat64Column(col, table, name)
		case ColBool:
			b, ok := col.(*array.Boolean)
			if !ok {
				err = &core.MalformedInputError{Table: table, Reason: fmt.Sprintf("column %q: unexpected type %s, want bool", name, col.DataType())}
			}
			a.boolv = b
		case ColBytes:
			a.bytes, err = newBinaryColumn(col, table, name)
		}
		if err != nil {
			return nil, err
		}
	}

	switch {
	case a.parent == nil:
		return nil, &core.MalformedInputError{Table: table, Reason: "missing parent_id column"}
	case a.key == nil:
		return nil, &core.MalformedInputError{Table: table, Reason: "missing key column"}
	case a.typ == nil:
		return nil, &core.MalformedInputError{Table: table, Reason: "missing type column"}
	}
	return a, nil
}

func (a *Attrs) NumRows() int {
	return a.rows
}

func (a *Attrs) ParentID(row int) uint16 {
	if a.parent.IsNull(row) {
		return 0
	}
	return a.parent.Value(row)
}

// Key returns the attribute key, borrowed from the key column.
func (a *Attrs) Key(row int) string {
	if a.key.isNull(row) {
		return ""
	}
	return a.key.value(row)
}

// TypeOf returns the raw type discriminant at row.
func (a *Attrs) TypeOf(row int) uint8 {
	if a.typ.IsNull(row) {
		return AttrTypeEmpty
	}
	return a.typ.Value(row)
}

// FieldType maps the row's discriminant to its wire type. Empty and
// unknown discriminants have no wire representation.
func (a *Attrs) FieldType(row int) (schema.FieldType, error) {
	d := a.TypeOf(row)
	switch d {
	case AttrTypeString:
		return schema.TypeString, nil
	case AttrTypeInt:
		return schema.TypeInt64, nil
	case AttrTypeDouble:
		return schema.TypeFloat64, nil
	case AttrTypeBool:
		return schema.TypeBool, nil
	case AttrTypeBytes:
		return schema.TypeBytes, nil
	default:
		return schema.TypeInvalid, &core.UnsupportedTypeError{Row: row, Type: d}
	}
}

// ValueAt resolves the row's typed value. The returned Value borrows
// from the table and is valid only while the source record is
// retained.
func (a *Attrs) ValueAt(row int) (Value, error) {
	t, err := a.FieldType(row)
	if err != nil {
		return Value{}, err
	}
	switch t {
	case schema.TypeString:
		if a.str.isNull(row) {
			return Value{}, a.missingValue(row, t)
		}
		return Value{Type: t, Str: a.str.value(row)}, nil
	case schema.TypeInt64:
		if a.intv.isNull(row) {
			return Value{}, a.missingValue(row, t)
		}
		return Value{Type: t, Int: a.intv.value(row)}, nil
	case schema.TypeFloat64:
		if a.double.isNull(row) {
			return Value{}, a.missingValue(row, t)
		}
		return Value{Type: t, Float: a.double.value(row)}, nil
	case schema.TypeBool:
		if a.boolv == nil || a.boolv.IsNull(row) {
			return Value{}, a.missingValue(row, t)
		}
		return Value{Type: t, Bool: a.boolv.Value(row)}, nil
	default:
		if a.bytes.isNull(row) {
			return Value{}, a.missingValue(row, t)
		}
		return Value{Type: t, Bytes: a.bytes.value(row)}, nil
	}
}

func (a *Attrs) missingValue(row int, t schema.FieldType) error {
	return fmt.Errorf("%s row %d: declared %s but value column is null", a.table, row, t)
}
