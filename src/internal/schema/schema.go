// FILE: arrowship/src/internal/schema/schema.go
package schema

// FieldType is the wire type discriminant of one schema field.
type FieldType uint8

// TypeString through TypeBytes match the attribute table's type
// column values, so attribute rows map onto wire types directly.
// The remaining types only occur in the fixed record fields.
const (
	TypeInvalid   FieldType = 0
	TypeString    FieldType = 1
	TypeInt64     FieldType = 2
	TypeFloat64   FieldType = 3
	TypeBool      FieldType = 4
	TypeBytes     FieldType = 5
	TypeTimestamp FieldType = 6
	TypeInt32     FieldType = 7
	TypeUint32    FieldType = 8
)

func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt64:
		return "int64"
	case TypeFloat64:
		return "float64"
	case TypeBool:
		return "bool"
	case TypeBytes:
		return "bytes"
	case TypeTimestamp:
		return "timestamp"
	case TypeInt32:
		return "int32"
	case TypeUint32:
		return "uint32"
	default:
		return "invalid"
	}
}

// Valid reports whether t is a representable wire type.
func (t FieldType) Valid() bool {
	return t >= TypeString && t <= TypeUint32
}

// CoercibleTo reports whether a value of type t can be written as
// target without loss. Integers widen to float; nothing else coerces.
func (t FieldType) CoercibleTo(target FieldType) bool {
	if t == target {
		return true
	}
	return t == TypeInt64 && target == TypeFloat64
}

// Field is one named, typed slot in a schema.
type Field struct {
	Name string
	Type FieldType
}

// NumFixedFields is the count of record fields that lead every
// schema, in the order of fixedFields. Attribute fields follow.
const NumFixedFields = 8

var fixedFields = [NumFixedFields]Field{
	{Name: "timestamp", Type: TypeTimestamp},
	{Name: "observed_timestamp", Type: TypeTimestamp},
	{Name: "severity_number", Type: TypeInt32},
	{Name: "severity_text", Type: TypeString},
	{Name: "body", Type: TypeString},
	{Name: "trace_id", Type: TypeBytes},
	{Name: "span_id", Type: TypeBytes},
	{Name: "flags", Type: TypeUint32},
}

// Schema is the resolved, ordered field layout for one event name.
// Field order is fixed for the lifetime of every batch encoded
// against it; rows are positional, so order is part of the identity.
type Schema struct {
	EventName string
	ID        uint64
	Fields    []Field
}

// AttrFields returns the attribute fields, excluding the fixed
// record fields.
func (s *Schema) AttrFields() []Field {
	return s.Fields[NumFixedFields:]
}
