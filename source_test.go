// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package pqingest

import (
	"bytes"
	"context"
	"testing"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/apache/arrow/go/v10/parquet"
	"github.com/apache/arrow/go/v10/parquet/pqarrow"
	"github.com/stretchr/testify/require"
)

// writeTestParquet serializes one record into parquet bytes, chunkSize
// rows per row group.
func writeTestParquet(t *testing.T, sch *arrow.Schema, build func(*array.RecordBuilder), chunkSize int64) []byte {
	t.Helper()
	mem := memory.NewGoAllocator()
	bld := array.NewRecordBuilder(mem, sch)
	defer bld.Release()
	build(bld)
	rec := bld.NewRecord()
	defer rec.Release()
	tbl := array.NewTableFromRecords(sch, []arrow.Record{rec})
	defer tbl.Release()

	var buf bytes.Buffer
	err := pqarrow.WriteTable(tbl, &buf, chunkSize, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	require.NoError(t, err)
	return buf.Bytes()
}

func TestIngestReaderRoundTrip(t *testing.T) {
	sch := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "val", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "ts", Type: arrow.FixedWidthTypes.Timestamp_ms, Nullable: true},
	}, nil)

	data := writeTestParquet(t, sch, func(bld *array.RecordBuilder) {
		bld.Field(0).(*array.Int64Builder).AppendValues(
			[]int64{1, 2, 0, 4}, []bool{true, true, false, true})
		bld.Field(1).(*array.StringBuilder).AppendValues(
			[]string{"alpha", "", "gamma", "delta"}, []bool{true, false, true, true})
		bld.Field(2).(*array.Float64Builder).AppendValues(
			[]float64{1.5, 0, -2.25, 0}, []bool{true, false, true, true})
		bld.Field(3).(*array.TimestampBuilder).AppendValues(
			[]arrow.Timestamp{1700000000000, 0, 1700000000001, 0}, []bool{true, false, true, false})
	}, 2) // two row groups of two rows each

	buf := NewRowBuffer(4)
	// batch size under the row group size exercises refills
	ing := Ingester{BatchSize: 1}
	n, err := ing.IngestReader(context.Background(), bytes.NewReader(data), buf)
	require.NoError(t, err)
	require.Equal(t, int64(4), n)

	exp := [][]interface{}{
		{int64(1), "alpha", 1.5, int64(1700000000000)},
		{int64(2), nil, nil, nil},
		{nil, "gamma", -2.25, int64(1700000000001)},
		{int64(4), "delta", float64(0), nil},
	}
	require.Equal(t, exp, buf.Rows())
}

func TestIngestReaderRejectsNested(t *testing.T) {
	sch := arrow.NewSchema([]arrow.Field{
		{Name: "tags", Type: arrow.ListOf(arrow.PrimitiveTypes.Int64), Nullable: true},
	}, nil)

	data := writeTestParquet(t, sch, func(bld *array.RecordBuilder) {
		lb := bld.Field(0).(*array.ListBuilder)
		lb.Append(true)
		lb.ValueBuilder().(*array.Int64Builder).Append(1)
	}, 1)

	_, err := Ingester{}.IngestReader(context.Background(), bytes.NewReader(data), NewRowBuffer(1))
	require.Error(t, err)
	require.Contains(t, err.Error(), "nested")
}

func TestIngestReaderCanceledContext(t *testing.T) {
	sch := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	}, nil)
	data := writeTestParquet(t, sch, func(bld *array.RecordBuilder) {
		bld.Field(0).(*array.Int64Builder).Append(1)
	}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := Ingester{}.IngestReader(ctx, bytes.NewReader(data), NewRowBuffer(1))
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, n)
}

func TestIngestReaderOverflowAcrossRowGroups(t *testing.T) {
	// the per-column string budget is a session (row group) property: a
	// column silenced in one row group starts fresh in the next
	sch := arrow.NewSchema([]arrow.Field{
		{Name: "s", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)
	data := writeTestParquet(t, sch, func(bld *array.RecordBuilder) {
		bld.Field(0).(*array.StringBuilder).AppendValues(
			[]string{"aaaa", "bbbb", "cccc", "dddd"}, nil)
	}, 2)

	buf := NewRowBuffer(1)
	ing := Ingester{MaxStrLen: 6}
	n, err := ing.IngestReader(context.Background(), bytes.NewReader(data), buf)
	require.NoError(t, err)
	require.Equal(t, int64(4), n)

	exp := [][]interface{}{
		{"aaaa"}, // 4 of 6
		{"bb"},   // truncated to land on the budget
		{"cccc"}, // new row group, new session
		{"dd"},
	}
	require.Equal(t, exp, buf.Rows())
}
