// FILE: arrowship/src/internal/wire/encoder_test.go
package wire_test

import (
	"testing"

	"arrowship/src/internal/columns"
	"arrowship/src/internal/columns/coltest"
	"arrowship/src/internal/core"
	"arrowship/src/internal/schema"
	"arrowship/src/internal/wire"
	"arrowship/src/internal/wire/wiretest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeOne frames a single encoded row uncompressed and decodes it
// back.
func encodeOne(t *testing.T, sch *schema.Schema, logs *columns.Logs, row int, attrs []wire.AttrSource) *wiretest.Decoded {
	t.Helper()
	enc := wire.NewEncoder()
	frag, dropped, err := enc.EncodeRow(sch, logs, row, attrs)
	require.NoError(t, err)
	require.Zero(t, dropped)

	env := wire.AppendEnvelope(nil, sch, 1, frag)
	frame := wire.AppendFrame(nil, wire.CodecNone, len(env), env)
	decoded, err := wiretest.Decode(frame)
	require.NoError(t, err)
	return decoded
}

func TestEncodeRowRoundTrip(t *testing.T) {
	trace := []byte("0123456789abcdef")
	span := []byte("01234567")
	logsRec := coltest.LogsRecord([]coltest.LogRow{{
		ID:             coltest.Ptr(uint16(0)),
		Time:           coltest.Ptr(int64(1700000000000000001)),
		Observed:       coltest.Ptr(int64(1700000000000000002)),
		SeverityNumber: coltest.Ptr(int32(13)),
		SeverityText:   coltest.Ptr("WARN"),
		Body:           coltest.Ptr("disk nearly full"),
		TraceID:        trace,
		SpanID:         span,
		Flags:          coltest.Ptr(uint32(1)),
	}})
	defer logsRec.Release()
	attrsRec := coltest.AttrsRecord([]coltest.AttrRow{
		{Parent: 0, Key: "host", Type: columns.AttrTypeString, Str: "web-1"},
		{Parent: 0, Key: "free_pct", Type: columns.AttrTypeDouble, Double: 3.5},
		{Parent: 0, Key: "inodes", Type: columns.AttrTypeInt, Int: 1 << 40},
		{Parent: 0, Key: "readonly", Type: columns.AttrTypeBool, Bool: false},
		{Parent: 0, Key: "digest", Type: columns.AttrTypeBytes, Bytes: []byte{1, 2, 3}},
	})
	defer attrsRec.Release()

	logs, err := columns.NewLogs(logsRec)
	require.NoError(t, err)
	attrs, err := columns.NewAttrs(attrsRec, "log_attrs")
	require.NoError(t, err)
	ix, err := columns.BuildIndex(attrs)
	require.NoError(t, err)

	c := schema.NewCollector()
	for _, pos := range ix.Rows(0) {
		ft, err := attrs.FieldType(int(pos))
		require.NoError(t, err)
		c.Add(attrs.Key(int(pos)), ft)
	}
	sch := schema.NewDeriver().DeriveOrReuse("AppLog", c.Fields())
	require.Len(t, sch.Fields, schema.NumFixedFields+5)

	decoded := encodeOne(t, sch, logs, 0, []wire.AttrSource{{View: attrs, Rows: ix.Rows(0)}})

	assert.Equal(t, "AppLog", decoded.EventName)
	assert.Equal(t, sch.ID, decoded.SchemaID)
	assert.Equal(t, sch.Fields, decoded.Fields)
	require.Len(t, decoded.Rows, 1)

	expect := map[string]wiretest.Value{
		"timestamp":          {Present: true, Int: 1700000000000000001},
		"observed_timestamp": {Present: true, Int: 1700000000000000002},
		"severity_number":    {Present: true, Int: 13},
		"severity_text":      {Present: true, Str: "WARN"},
		"body":               {Present: true, Str: "disk nearly full"},
		"trace_id":           {Present: true, Bytes: trace},
		"span_id":            {Present: true, Bytes: span},
		"flags":              {Present: true, Uint: 1},
		"host":               {Present: true, Str: "web-1"},
		"free_pct":           {Present: true, Float: 3.5},
		"inodes":             {Present: true, Int: 1 << 40},
		"readonly":           {Present: true, Bool: false},
		"digest":             {Present: true, Bytes: []byte{1, 2, 3}},
	}
	for name, want := range expect {
		got, err := decoded.Field(0, name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestEncodeRowAllAbsent(t *testing.T) {
	logsRec := coltest.LogsRecord([]coltest.LogRow{{}})
	defer logsRec.Release()
	logs, err := columns.NewLogs(logsRec)
	require.NoError(t, err)

	sch := schema.NewDeriver().DeriveOrReuse("Bare", []schema.Field{{Name: "missing", Type: schema.TypeString}})
	decoded := encodeOne(t, sch, logs, 0, nil)

	require.Len(t, decoded.Rows, 1)
	for i, f := range decoded.Fields {
		assert.False(t, decoded.Rows[0][i].Present, f.Name)
	}
}

func TestEncodeRowUnsupportedAttrFailsRow(t *testing.T) {
	logsRec := coltest.LogsRecord([]coltest.LogRow{{Body: coltest.Ptr("x")}})
	defer logsRec.Release()
	attrsRec := coltest.AttrsRecord([]coltest.AttrRow{
		{Parent: 0, Key: "good", Type: columns.AttrTypeInt, Int: 1},
		{Parent: 0, Key: "bad", Type: 9},
	})
	defer attrsRec.Release()

	logs, err := columns.NewLogs(logsRec)
	require.NoError(t, err)
	attrs, err := columns.NewAttrs(attrsRec, "log_attrs")
	require.NoError(t, err)
	ix, err := columns.BuildIndex(attrs)
	require.NoError(t, err)

	sch := schema.NewDeriver().DeriveOrReuse("AppLog", []schema.Field{{Name: "good", Type: schema.TypeInt64}})
	enc := wire.NewEncoder()
	_, _, err = enc.EncodeRow(sch, logs, 0, []wire.AttrSource{{View: attrs, Rows: ix.Rows(0)}})
	require.Error(t, err)

	var rowErr *core.RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 0, rowErr.Row)
	var unsupported *core.UnsupportedTypeError
	assert.ErrorAs(t, err, &unsupported)
}

func TestEncodeRowTypeCoercion(t *testing.T) {
	logsRec := coltest.LogsRecord([]coltest.LogRow{{}, {}})
	defer logsRec.Release()
	attrsRec := coltest.AttrsRecord([]coltest.AttrRow{
		{Parent: 0, Key: "v", Type: columns.AttrTypeInt, Int: 7},
		{Parent: 1, Key: "v", Type: columns.AttrTypeDouble, Double: 7.5},
	})
	defer attrsRec.Release()

	logs, err := columns.NewLogs(logsRec)
	require.NoError(t, err)
	attrs, err := columns.NewAttrs(attrsRec, "log_attrs")
	require.NoError(t, err)
	ix, err := columns.BuildIndex(attrs)
	require.NoError(t, err)
	enc := wire.NewEncoder()

	t.Run("IntWidensUnderFloatSchema", func(t *testing.T) {
		sch := schema.NewDeriver().DeriveOrReuse("E", []schema.Field{{Name: "v", Type: schema.TypeFloat64}})
		frag, dropped, err := enc.EncodeRow(sch, logs, 0, []wire.AttrSource{{View: attrs, Rows: ix.Rows(0)}})
		require.NoError(t, err)
		assert.Zero(t, dropped)

		env := wire.AppendEnvelope(nil, sch, 1, frag)
		decoded, err := wiretest.Decode(wire.AppendFrame(nil, wire.CodecNone, len(env), env))
		require.NoError(t, err)
		got, err := decoded.Field(0, "v")
		require.NoError(t, err)
		assert.Equal(t, wiretest.Value{Present: true, Float: 7.0}, got)
	})

	t.Run("FloatDroppedUnderIntSchema", func(t *testing.T) {
		sch := schema.NewDeriver().DeriveOrReuse("E", []schema.Field{{Name: "v", Type: schema.TypeInt64}})
		frag, dropped, err := enc.EncodeRow(sch, logs, 1, []wire.AttrSource{{View: attrs, Rows: ix.Rows(1)}})
		require.NoError(t, err)
		assert.Equal(t, 1, dropped)

		env := wire.AppendEnvelope(nil, sch, 1, frag)
		decoded, err := wiretest.Decode(wire.AppendFrame(nil, wire.CodecNone, len(env), env))
		require.NoError(t, err)
		got, err := decoded.Field(0, "v")
		require.NoError(t, err)
		assert.False(t, got.Present)
	})
}

func TestEncodeRowSourcePrecedence(t *testing.T) {
	logsRec := coltest.LogsRecord([]coltest.LogRow{{Resource: coltest.Ptr(uint16(0))}})
	defer logsRec.Release()
	logAttrsRec := coltest.AttrsRecord([]coltest.AttrRow{
		{Parent: 0, Key: "env", Type: columns.AttrTypeString, Str: "record"},
	})
	defer logAttrsRec.Release()
	resAttrsRec := coltest.AttrsRecord([]coltest.AttrRow{
		{Parent: 0, Key: "env", Type: columns.AttrTypeString, Str: "resource"},
		{Parent: 0, Key: "region", Type: columns.AttrTypeString, Str: "eu-1"},
	})
	defer resAttrsRec.Release()

	logs, err := columns.NewLogs(logsRec)
	require.NoError(t, err)
	logAttrs, err := columns.NewAttrs(logAttrsRec, "log_attrs")
	require.NoError(t, err)
	resAttrs, err := columns.NewAttrs(resAttrsRec, "resource_attrs")
	require.NoError(t, err)
	logIx, err := columns.BuildIndex(logAttrs)
	require.NoError(t, err)
	resIx, err := columns.BuildIndex(resAttrs)
	require.NoError(t, err)

	sch := schema.NewDeriver().DeriveOrReuse("E", []schema.Field{
		{Name: "env", Type: schema.TypeString},
		{Name: "region", Type: schema.TypeString},
	})
	sources := []wire.AttrSource{
		{View: logAttrs, Rows: logIx.Rows(0)},
		{View: resAttrs, Rows: resIx.Rows(0)},
	}
	decoded := encodeOne(t, sch, logs, 0, sources)

	env, err := decoded.Field(0, "env")
	require.NoError(t, err)
	assert.Equal(t, "record", env.Str)

	region, err := decoded.Field(0, "region")
	require.NoError(t, err)
	assert.Equal(t, "eu-1", region.Str)
}
