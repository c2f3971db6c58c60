// FILE: arrowship/src/internal/columns/coltest/coltest.go
// Package coltest builds small arrow records shaped like the log and
// attribute tables, for tests.
package coltest

import (
	"fmt"

	"arrowship/src/internal/columns"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/array"
	"github.com/apache/arrow/go/v11/arrow/memory"
)

// LogRow is one log record; nil fields become nulls.
type LogRow struct {
	ID             *uint16
	Time           *int64
	Observed       *int64
	SeverityNumber *int32
	SeverityText   *string
	Body           *string
	TraceID        []byte // 16 bytes
	SpanID         []byte // 8 bytes
	Flags          *uint32
	Event          *string
	Resource       *uint16
}

// AttrRow is one attribute table row. The value slot matching Type is
// written; the others stay null.
type AttrRow struct {
	Parent uint16
	Key    string
	Type   uint8
	Str    string
	Int    int64
	Double float64
	Bool   bool
	Bytes  []byte
}

func dictOf(index, value arrow.DataType) *arrow.DictionaryType {
	return &arrow.DictionaryType{IndexType: index, ValueType: value}
}

// LogsRecord builds a log table in the full production shape:
// dictionary-encoded severity and event columns, struct body, fixed
// size trace and span ids. The caller releases the record.
func LogsRecord(rows []LogRow) arrow.Record {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: columns.ColID, Type: arrow.PrimitiveTypes.Uint16, Nullable: true},
		{Name: columns.ColTime, Type: arrow.FixedWidthTypes.Timestamp_ns, Nullable: true},
		{Name: columns.ColObservedTime, Type: arrow.FixedWidthTypes.Timestamp_ns, Nullable: true},
		{Name: columns.ColSeverityNum, Type: dictOf(arrow.PrimitiveTypes.Uint8, arrow.PrimitiveTypes.Int32), Nullable: true},
		{Name: columns.ColSeverityText, Type: dictOf(arrow.PrimitiveTypes.Uint8, arrow.BinaryTypes.String), Nullable: true},
		{Name: columns.ColBody, Type: arrow.StructOf(arrow.Field{Name: "str", Type: arrow.BinaryTypes.String, Nullable: true}), Nullable: true},
		{Name: columns.ColTraceID, Type: &arrow.FixedSizeBinaryType{ByteWidth: 16}, Nullable: true},
		{Name: columns.ColSpanID, Type: &arrow.FixedSizeBinaryType{ByteWidth: 8}, Nullable: true},
		{Name: columns.ColFlags, Type: arrow.PrimitiveTypes.Uint32, Nullable: true},
		{Name: columns.ColEventName, Type: dictOf(arrow.PrimitiveTypes.Uint8, arrow.BinaryTypes.String), Nullable: true},
		{Name: columns.ColResource, Type: arrow.StructOf(arrow.Field{Name: "id", Type: arrow.PrimitiveTypes.Uint16, Nullable: true}), Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()

	id := b.Field(0).(*array.Uint16Builder)
	ts := b.Field(1).(*array.TimestampBuilder)
	obs := b.Field(2).(*array.TimestampBuilder)
	sevNum := b.Field(3).(*array.Int32DictionaryBuilder)
	sevText := b.Field(4).(*array.BinaryDictionaryBuilder)
	body := b.Field(5).(*array.StructBuilder)
	bodyStr := body.FieldBuilder(0).(*array.StringBuilder)
	traceID := b.Field(6).(*array.FixedSizeBinaryBuilder)
	spanID := b.Field(7).(*array.FixedSizeBinaryBuilder)
	flags := b.Field(8).(*array.Uint32Builder)
	event := b.Field(9).(*array.BinaryDictionaryBuilder)
	resource := b.Field(10).(*array.StructBuilder)
	resourceID := resource.FieldBuilder(0).(*array.Uint16Builder)

	for _, r := range rows {
		appendOrNull(id, r.ID, func(v uint16) { id.Append(v) })
		appendOrNull(ts, r.Time, func(v int64) { ts.Append(arrow.Timestamp(v)) })
		appendOrNull(obs, r.Observed, func(v int64) { obs.Append(arrow.Timestamp(v)) })
		if r.SeverityNumber != nil {
			must(sevNum.Append(*r.SeverityNumber))
		} else {
			sevNum.AppendNull()
		}
		if r.SeverityText != nil {
			must(sevText.AppendString(*r.SeverityText))
		} else {
			sevText.AppendNull()
		}
		// Null bodies are modeled as a valid struct with a null str
		// child, matching how the converter emits them.
		body.Append(true)
		if r.Body != nil {
			bodyStr.Append(*r.Body)
		} else {
			bodyStr.AppendNull()
		}
		if r.TraceID != nil {
			traceID.Append(r.TraceID)
		} else {
			traceID.AppendNull()
		}
		if r.SpanID != nil {
			spanID.Append(r.SpanID)
		} else {
			spanID.AppendNull()
		}
		appendOrNull(flags, r.Flags, func(v uint32) { flags.Append(v) })
		if r.Event != nil {
			must(event.AppendString(*r.Event))
		} else {
			event.AppendNull()
		}
		resource.Append(true)
		appendOrNull(resourceID, r.Resource, func(v uint16) { resourceID.Append(v) })
	}
	return b.NewRecord()
}

// AttrsRecord builds an attribute table with a dictionary-encoded key
// column and one value column per supported type. The caller releases
// the record.
func AttrsRecord(rows []AttrRow) arrow.Record {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: columns.ColParentID, Type: arrow.PrimitiveTypes.Uint16},
		{Name: columns.ColKey, Type: dictOf(arrow.PrimitiveTypes.Uint8, arrow.BinaryTypes.String)},
		{Name: columns.ColType, Type: arrow.PrimitiveTypes.Uint8},
		{Name: columns.ColStr, Type: dictOf(arrow.PrimitiveTypes.Uint16, arrow.BinaryTypes.String), Nullable: true},
		{Name: columns.ColInt, Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: columns.ColDouble, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: columns.ColBool, Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
		{Name: columns.ColBytes, Type: arrow.BinaryTypes.Binary, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()

	parent := b.Field(0).(*array.Uint16Builder)
	key := b.Field(1).(*array.BinaryDictionaryBuilder)
	typ := b.Field(2).(*array.Uint8Builder)
	str := b.Field(3).(*array.BinaryDictionaryBuilder)
	intv := b.Field(4).(*array.Int64Builder)
	double := b.Field(5).(*array.Float64Builder)
	boolv := b.Field(6).(*array.BooleanBuilder)
	bytes := b.Field(7).(*array.BinaryBuilder)

	for _, r := range rows {
		parent.Append(r.Parent)
		must(key.AppendString(r.Key))
		typ.Append(r.Type)
		if r.Type == columns.AttrTypeString {
			must(str.AppendString(r.Str))
		} else {
			str.AppendNull()
		}
		if r.Type == columns.AttrTypeInt {
			intv.Append(r.Int)
		} else {
			intv.AppendNull()
		}
		if r.Type == columns.AttrTypeDouble {
			double.Append(r.Double)
		} else {
			double.AppendNull()
		}
		if r.Type == columns.AttrTypeBool {
			boolv.Append(r.Bool)
		} else {
			boolv.AppendNull()
		}
		if r.Type == columns.AttrTypeBytes {
			bytes.Append(r.Bytes)
		} else {
			bytes.AppendNull()
		}
	}
	return b.NewRecord()
}

func appendOrNull[T any](b array.Builder, v *T, append func(T)) {
	if v == nil {
		b.AppendNull()
		return
	}
	append(*v)
}

func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("coltest: %v", err))
	}
}

// Ptr returns a pointer to v, for row literals.
func Ptr[T any](v T) *T {
	return &v
}
