// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package pqingest

import (
	"math"
	"strconv"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/memory"
)

// defaultChunkSize is the number of rows per emitted arrow record.
const defaultChunkSize = 8192

// ArrowWriter is a RowWriter that buffers rows into arrow record batches.
// Numeric targets map to float64 columns, timestamps to timestamp[ms],
// and everything string-like to utf8. Invalid markers become
// nulls. Values whose write kind does not match the column (the number
// converter's text fallback, for one) are coerced, nulled when they can't
// be.
type ArrowWriter struct {
	mem      memory.Allocator
	schema   *arrow.Schema
	builders []array.Builder

	chunkSize int64
	inChunk   int64
	rows      int64
	recs      []arrow.Record
}

// NewArrowWriter builds a writer with one column per entry of names and
// types. chunkSize <= 0 means defaultChunkSize, mem nil means the Go
// allocator.
func NewArrowWriter(names []string, types []ColType, chunkSize int64, mem memory.Allocator) *ArrowWriter {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	fields := make([]arrow.Field, len(types))
	builders := make([]array.Builder, len(types))
	for i, typ := range types {
		var dt arrow.DataType
		switch typ {
		case ColTypeNum:
			dt = arrow.PrimitiveTypes.Float64
		case ColTypeTime:
			dt = arrow.FixedWidthTypes.Timestamp_ms
		default:
			dt = arrow.BinaryTypes.String
		}
		fields[i] = arrow.Field{Name: names[i], Type: dt, Nullable: true}
		builders[i] = array.NewBuilder(mem, dt)
	}

	return &ArrowWriter{
		mem:       mem,
		schema:    arrow.NewSchema(fields, nil),
		builders:  builders,
		chunkSize: chunkSize,
	}
}

func (w *ArrowWriter) Schema() *arrow.Schema { return w.schema }

func (w *ArrowWriter) AddInvalidCol(col int) {
	w.builders[col].AppendNull()
}

func (w *ArrowWriter) AddIntCol(col int, val int64, exp int) {
	switch b := w.builders[col].(type) {
	case *array.TimestampBuilder:
		if exp == 0 {
			b.Append(arrow.Timestamp(val))
		} else {
			b.Append(arrow.Timestamp(float64(val) * math.Pow10(exp)))
		}
	case *array.Float64Builder:
		b.Append(float64(val) * math.Pow10(exp))
	case *array.StringBuilder:
		if exp == 0 {
			b.Append(strconv.FormatInt(val, 10))
		} else {
			b.Append(strconv.FormatFloat(float64(val)*math.Pow10(exp), 'g', -1, 64))
		}
	}
}

func (w *ArrowWriter) AddFloatCol(col int, val float64) {
	switch b := w.builders[col].(type) {
	case *array.TimestampBuilder:
		b.Append(arrow.Timestamp(int64(val)))
	case *array.Float64Builder:
		b.Append(val)
	case *array.StringBuilder:
		b.Append(strconv.FormatFloat(val, 'g', -1, 64))
	}
}

func (w *ArrowWriter) AddStrCol(col int, val []byte) {
	switch b := w.builders[col].(type) {
	case *array.TimestampBuilder:
		if ms, err := strconv.ParseInt(string(val), 10, 64); err == nil {
			b.Append(arrow.Timestamp(ms))
		} else {
			b.AppendNull()
		}
	case *array.Float64Builder:
		if f, err := strconv.ParseFloat(string(val), 64); err == nil {
			b.Append(f)
		} else {
			b.AppendNull()
		}
	case *array.StringBuilder:
		b.Append(string(val))
	}
}

func (w *ArrowWriter) FinishRow() {
	w.rows++
	w.inChunk++
	if w.inChunk >= w.chunkSize {
		w.flush()
	}
}

func (w *ArrowWriter) RowCount() int64 {
	return w.rows
}

// Flush emits the partially filled chunk, if any. Call once after the
// last row.
func (w *ArrowWriter) Flush() {
	w.flush()
}

// Records returns every record emitted so far. The writer keeps its
// references; call Release when done with the writer and all records.
func (w *ArrowWriter) Records() []arrow.Record {
	return w.recs
}

// Release frees all buffered records and builders.
func (w *ArrowWriter) Release() {
	for _, rec := range w.recs {
		rec.Release()
	}
	w.recs = nil
	for _, b := range w.builders {
		b.Release()
	}
}

func (w *ArrowWriter) flush() {
	if w.inChunk == 0 {
		return
	}
	cols := make([]arrow.Array, len(w.builders))
	for i, b := range w.builders {
		cols[i] = b.NewArray()
	}
	rec := array.NewRecord(w.schema, cols, w.inChunk)
	for _, c := range cols {
		c.Release()
	}
	w.recs = append(w.recs, rec)
	w.inChunk = 0
}
