// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package pqingest

import (
	"context"
	"os"

	"github.com/apache/arrow/go/v10/parquet"
	"github.com/apache/arrow/go/v10/parquet/file"
	"github.com/apache/arrow/go/v10/parquet/schema"
	"github.com/pkg/errors"

	"github.com/featurebasedb/pqingest/logger"
)

// defaultBatchSize is the number of levels read from a column chunk per
// ReadBatch call.
const defaultBatchSize = 1024

// Ingester reads parquet data and writes one row per record to a
// RowWriter. Each row group gets its own conversion session. An Ingester
// holds no state across calls; concurrent callers need independent
// RowWriters but may share the Ingester.
type Ingester struct {
	// BatchSize is the column read batch size, defaultBatchSize if zero.
	BatchSize int64
	// MaxStrLen caps cumulative string bytes per column per session,
	// MaxStrLen (the package constant) if zero.
	MaxStrLen int
	// Types are the per-column target types. Derived with TypesFromSchema
	// when nil.
	Types []ColType

	Log logger.Logger
}

// IngestFile converts the parquet file at path. It returns the number of
// rows written, which on error counts only the fully converted row groups.
func (ing Ingester) IngestFile(ctx context.Context, path string, w RowWriter) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "opening parquet file")
	}
	defer f.Close()
	return ing.IngestReader(ctx, f, w)
}

// IngestReader converts parquet data from r.
func (ing Ingester) IngestReader(ctx context.Context, r parquet.ReaderAtSeeker, w RowWriter) (int64, error) {
	rdr, err := file.NewParquetReader(r)
	if err != nil {
		return 0, errors.Wrap(err, "reading parquet footer")
	}
	defer rdr.Close()
	return ing.IngestParquet(ctx, rdr, w)
}

// IngestParquet converts every row group of an already opened parquet
// reader. The reader is left open.
func (ing Ingester) IngestParquet(ctx context.Context, rdr *file.Reader, w RowWriter) (int64, error) {
	sch := rdr.MetaData().Schema
	types := ing.Types
	if types == nil {
		types = TypesFromSchema(sch)
	}
	for c := 0; c < sch.NumColumns(); c++ {
		col := sch.Column(c)
		if col.MaxRepetitionLevel() > 0 || col.MaxDefinitionLevel() > 1 {
			return 0, errors.Errorf("column %q is nested or repeated, only flat optional and required columns are supported", col.Name())
		}
	}

	log := ing.Log
	if log == nil {
		log = logger.NopLogger
	}

	var total int64
	for g := 0; g < rdr.NumRowGroups(); g++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := ing.ingestRowGroup(rdr.RowGroup(g), sch, types, w, log)
		total += n
		if err != nil {
			return total, errors.Wrapf(err, "row group %d", g)
		}
	}
	return total, nil
}

func (ing Ingester) ingestRowGroup(rg *file.RowGroupReader, sch *schema.Schema, types []ColType, w RowWriter, log logger.Logger) (int64, error) {
	rc, err := NewRecordConverter(sch, types, w, ing.MaxStrLen, log)
	if err != nil {
		return 0, err
	}

	batch := ing.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	iters := make([]*columnIter, sch.NumColumns())
	for c := range iters {
		cr, err := rg.Column(c)
		if err != nil {
			return 0, errors.Wrapf(err, "opening column %d", c)
		}
		iters[c] = newColumnIter(cr, sch.Column(c).MaxDefinitionLevel(), batch, rc.Converter(c))
	}

	nRows := rg.NumRows()
	for row := int64(0); row < nRows; row++ {
		rc.Start()
		for c, it := range iters {
			if err := it.pushNext(); err != nil {
				return row, errors.Wrapf(err, "column %d row %d", c, row)
			}
		}
		rc.End()
	}
	return nRows, nil
}

// columnIter walks one column chunk level by level, pushing each present
// value into the column's converter and skipping absent ones so the
// cursor layer fills the gap.
type columnIter struct {
	reader file.ColumnChunkReader
	conv   PrimitiveConverter
	maxDef int16
	batch  int64

	defs []int16
	n    int // buffered levels
	i    int // next level
	vi   int // next value

	bools  []bool
	int32s []int32
	int64s []int64
	int96s []parquet.Int96
	f32s   []float32
	f64s   []float64
	bas    []parquet.ByteArray
	flbas  []parquet.FixedLenByteArray
}

func newColumnIter(cr file.ColumnChunkReader, maxDef int16, batch int64, conv PrimitiveConverter) *columnIter {
	it := &columnIter{
		reader: cr,
		conv:   conv,
		maxDef: maxDef,
		batch:  batch,
	}
	if maxDef > 0 {
		it.defs = make([]int16, batch)
	}
	switch cr.(type) {
	case *file.BooleanColumnChunkReader:
		it.bools = make([]bool, batch)
	case *file.Int32ColumnChunkReader:
		it.int32s = make([]int32, batch)
	case *file.Int64ColumnChunkReader:
		it.int64s = make([]int64, batch)
	case *file.Int96ColumnChunkReader:
		it.int96s = make([]parquet.Int96, batch)
	case *file.Float32ColumnChunkReader:
		it.f32s = make([]float32, batch)
	case *file.Float64ColumnChunkReader:
		it.f64s = make([]float64, batch)
	case *file.ByteArrayColumnChunkReader:
		it.bas = make([]parquet.ByteArray, batch)
	case *file.FixedLenByteArrayColumnChunkReader:
		it.flbas = make([]parquet.FixedLenByteArray, batch)
	}
	return it
}

// pushNext consumes one level. Present values go to the converter; absent
// ones leave it untouched, which is what produces a gap for the cursor to
// fill.
func (it *columnIter) pushNext() error {
	if it.i >= it.n {
		if err := it.refill(); err != nil {
			return err
		}
		if it.n == 0 {
			return errors.New("column chunk exhausted before the row group's row count")
		}
	}
	present := it.maxDef == 0 || it.defs[it.i] == it.maxDef
	it.i++
	if !present {
		return nil
	}
	it.pushValue(it.vi)
	it.vi++
	return nil
}

func (it *columnIter) pushValue(i int) {
	switch {
	case it.bools != nil:
		it.conv.AddBoolean(it.bools[i])
	case it.int32s != nil:
		it.conv.AddInt32(it.int32s[i])
	case it.int64s != nil:
		it.conv.AddInt64(it.int64s[i])
	case it.int96s != nil:
		it.conv.AddByteArray(it.int96s[i][:])
	case it.f32s != nil:
		it.conv.AddFloat32(it.f32s[i])
	case it.f64s != nil:
		it.conv.AddFloat64(it.f64s[i])
	case it.bas != nil:
		it.conv.AddByteArray(it.bas[i])
	case it.flbas != nil:
		it.conv.AddByteArray(it.flbas[i])
	}
}

func (it *columnIter) refill() error {
	var (
		total int64
		err   error
	)
	switch r := it.reader.(type) {
	case *file.BooleanColumnChunkReader:
		total, _, err = r.ReadBatch(it.batch, it.bools, it.defs, nil)
	case *file.Int32ColumnChunkReader:
		total, _, err = r.ReadBatch(it.batch, it.int32s, it.defs, nil)
	case *file.Int64ColumnChunkReader:
		total, _, err = r.ReadBatch(it.batch, it.int64s, it.defs, nil)
	case *file.Int96ColumnChunkReader:
		total, _, err = r.ReadBatch(it.batch, it.int96s, it.defs, nil)
	case *file.Float32ColumnChunkReader:
		total, _, err = r.ReadBatch(it.batch, it.f32s, it.defs, nil)
	case *file.Float64ColumnChunkReader:
		total, _, err = r.ReadBatch(it.batch, it.f64s, it.defs, nil)
	case *file.ByteArrayColumnChunkReader:
		total, _, err = r.ReadBatch(it.batch, it.bas, it.defs, nil)
	case *file.FixedLenByteArrayColumnChunkReader:
		total, _, err = r.ReadBatch(it.batch, it.flbas, it.defs, nil)
	default:
		return errors.Errorf("unhandled column chunk reader %T", it.reader)
	}
	if err != nil {
		return errors.Wrap(err, "reading column batch")
	}
	it.n = int(total)
	it.i = 0
	it.vi = 0
	return nil
}
