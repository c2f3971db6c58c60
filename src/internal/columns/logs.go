// FILE: arrowship/src/internal/columns/logs.go
// Package columns provides read-only typed views over the columnar
// log and attribute tables. Views borrow from the underlying arrow
// buffers; every value they return is valid only while the source
// record is retained.
package columns

import (
	"arrowship/src/internal/core"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/array"
)

// Column names of the log record table.
const (
	ColID           = "id"
	ColTime         = "time_unix_nano"
	ColObservedTime = "observed_time_unix_nano"
	ColSeverityNum  = "severity_number"
	ColSeverityText = "severity_text"
	ColBody         = "body"
	ColTraceID      = "trace_id"
	ColSpanID       = "span_id"
	ColFlags        = "flags"
	ColEventName    = "event_name"
	ColResource     = "resource"
)

// BatchSet is one input batch: the log record table plus its optional
// attribute sidecar tables. Release must be called once processing is
// complete.
type BatchSet struct {
	Logs          arrow.Record
	LogAttrs      arrow.Record
	ResourceAttrs arrow.Record
}

func (s *BatchSet) Release() {
	if s == nil {
		return
	}
	if s.Logs != nil {
		s.Logs.Release()
	}
	if s.LogAttrs != nil {
		s.LogAttrs.Release()
	}
	if s.ResourceAttrs != nil {
		s.ResourceAttrs.Release()
	}
}

// Logs is the typed view over one log record table. All columns are
// optional and individually nullable; missing columns read as null on
// every row.
type Logs struct {
	rows     int
	id       *array.Uint16
	time     *timestampColumn
	observed *timestampColumn
	sevNum   *int32Column
	sevText  *stringColumn
	bodyOk   *array.Struct
	body     *stringColumn
	traceID  *binaryColumn
	spanID   *binaryColumn
	flags    *array.Uint32
	event    *stringColumn
	resID    *array.Uint16
}

// NewLogs validates the record's column types and wraps it. Unknown
// columns are ignored.
func NewLogs(rec arrow.Record) (*Logs, error) {
	if rec == nil {
		return nil, &core.MalformedInputError{Table: "logs", Reason: "missing record"}
	}
	l := &Logs{rows: int(rec.NumRows())}

	var err error
	for i := 0; i < int(rec.NumCols()); i++ {
		name := rec.Schema().Field(i).Name
		col := rec.Column(i)
		switch name {
		case ColID:
			l.id, err = asUint16(col, "logs", name)
		case ColTime:
			l.time, err = newTimestampColumn(col, "logs", name)
		case ColObservedTime:
			l.observed, err = newTimestampColumn(col, "logs", name)
		case ColSeverityNum:
			l.sevNum, err = newInt32Column(col, "logs", name)
		case ColSeverityText:
			l.sevText, err = newStringColumn(col, "logs", name)
		case ColBody:
			err = l.setBody(col)
		case ColTraceID:
			l.traceID, err = newBinaryColumn(col, "logs", name)
		case ColSpanID:
			l.spanID, err = newBinaryColumn(col, "logs", name)
		case ColFlags:
			l.flags, err = asUint32(col, "logs", name)
		case ColEventName:
			l.event, err = newStringColumn(col, "logs", name)
		case ColResource:
			err = l.setResource(col)
		}
		if err != nil {
			return nil, err
		}
	}
	return l, nil
}

// setBody accepts either a plain/dictionary string column or the
// struct form whose "str" child carries the text.
func (l *Logs) setBody(col arrow.Array) error {
	st, ok := col.(*array.Struct)
	if !ok {
		body, err := newStringColumn(col, "logs", ColBody)
		l.body = body
		return err
	}
	typ := st.DataType().(*arrow.StructType)
	for i := 0; i < st.NumField(); i++ {
		if typ.Field(i).Name != "str" {
			continue
		}
		body, err := newStringColumn(st.Field(i), "logs", ColBody)
		if err != nil {
			return err
		}
		l.bodyOk = st
		l.body = body
		return nil
	}
	return &core.MalformedInputError{Table: "logs", Reason: "body struct has no str child"}
}

func (l *Logs) setResource(col arrow.Array) error {
	st, ok := col.(*array.Struct)
	if !ok {
		return &core.MalformedInputError{Table: "logs", Reason: "resource column is not a struct"}
	}
	typ := st.DataType().(*arrow.StructType)
	for i := 0; i < st.NumField(); i++ {
		if typ.Field(i).Name != ColID {
			continue
		}
		id, err := asUint16(st.Field(i), "logs", "resource.id")
		if err != nil {
			return err
		}
		l.resID = id
		return nil
	}
	// A resource struct without an id carries nothing we can join on.
	return nil
}

func (l *Logs) NumRows() int {
	return l.rows
}

// ParentID returns the identifier attribute rows use to reference
// this record: the id column when present, the row position
// otherwise.
func (l *Logs) ParentID(row int) uint16 {
	if l.id != nil && !l.id.IsNull(row) {
		return l.id.Value(row)
	}
	return uint16(row)
}

// EventName returns the record's event name, or fallback when the
// column is absent or null.
func (l *Logs) EventName(row int, fallback string) string {
	if l.event.isNull(row) {
		return fallback
	}
	if name := l.event.value(row); name != "" {
		return name
	}
	return fallback
}

func (l *Logs) Time(row int) (int64, bool) {
	if l.time.isNull(row) {
		return 0, false
	}
	return l.time.nanos(row), true
}

func (l *Logs) ObservedTime(row int) (int64, bool) {
	if l.observed.isNull(row) {
		return 0, false
	}
	return l.observed.nanos(row), true
}

func (l *Logs) SeverityNumber(row int) (int32, bool) {
	if l.sevNum.isNull(row) {
		return 0, false
	}
	return l.sevNum.value(row), true
}

func (l *Logs) SeverityText(row int) (string, bool) {
	if l.sevText.isNull(row) {
		return "", false
	}
	return l.sevText.value(row), true
}

func (l *Logs) Body(row int) (string, bool) {
	if l.bodyOk != nil && l.bodyOk.IsNull(row) {
		return "", false
	}
	if l.body.isNull(row) {
		return "", false
	}
	return l.body.value(row), true
}

func (l *Logs) TraceID(row int) ([]byte, bool) {
	if l.traceID.isNull(row) {
		return nil, false
	}
	return l.traceID.value(row), true
}

func (l *Logs) SpanID(row int) ([]byte, bool) {
	if l.spanID.isNull(row) {
		return nil, false
	}
	return l.spanID.value(row), true
}

func (l *Logs) Flags(row int) (uint32, bool) {
	if l.flags == nil || l.flags.IsNull(row) {
		return 0, false
	}
	return l.flags.Value(row), true
}

// ResourceID returns the resource identifier used to join
// resource-level attributes.
func (l *Logs) ResourceID(row int) (uint16, bool) {
	if l.resID == nil || l.resID.IsNull(row) {
		return 0, false
	}
	return l.resID.Value(row), true
}
