// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package pqingest

import (
	"fmt"

	"github.com/apache/arrow/go/v10/parquet"
	"github.com/apache/arrow/go/v10/parquet/schema"
	"github.com/pkg/errors"

	"github.com/featurebasedb/pqingest/logger"
)

// RecordConverter is the root of the conversion. The source traversal
// drives it with a strict sequence per record: Start, zero or more field
// pushes in ascending column order, then End. It emits exactly one
// complete row per record into the RowWriter, with every skipped column
// filled by an invalid marker. One RecordConverter serves one session
// (one row group) and is not safe for concurrent use.
type RecordConverter struct {
	writer     *writerDelegate
	converters []PrimitiveConverter

	recordIdx int64
}

// NewRecordConverter builds a converter for every output column, pairing
// the column's target type with its parquet descriptor. maxStrLen is the
// cumulative per-column string byte budget; <= 0 means MaxStrLen. A target
// type with no defined conversion fails construction.
func NewRecordConverter(sch *schema.Schema, colTypes []ColType, w RowWriter, maxStrLen int, log logger.Logger) (*RecordConverter, error) {
	if sch.NumColumns() != len(colTypes) {
		return nil, errors.Errorf("schema has %d columns but %d column types were given", sch.NumColumns(), len(colTypes))
	}
	if maxStrLen <= 0 {
		maxStrLen = MaxStrLen
	}
	if log == nil {
		log = logger.NopLogger
	}

	rc := &RecordConverter{
		writer:     newWriterDelegate(w, len(colTypes)),
		converters: make([]PrimitiveConverter, len(colTypes)),
		recordIdx:  -1,
	}
	for i, colType := range colTypes {
		conv, err := newConverter(i, colType, sch.Column(i), rc.writer, maxStrLen, log)
		if err != nil {
			return nil, errors.Wrapf(err, "column %d (%s)", i, sch.Column(i).Name())
		}
		rc.converters[i] = conv
	}
	return rc, nil
}

// Converter returns the converter bound to the given column.
func (rc *RecordConverter) Converter(col int) PrimitiveConverter {
	return rc.converters[col]
}

// Start begins a new record.
func (rc *RecordConverter) Start() {
	rc.recordIdx++
	rc.writer.startRow()
}

// End finishes the current record, filling all trailing columns with
// invalid markers. The number of rows the sink finished during this
// session must then match the number of records started; anything else
// means the start/end pairing broke and continuing would misalign data,
// so End panics.
func (rc *RecordConverter) End() {
	rc.writer.endRow()
	if rows := rc.writer.rowCount(); rows-1 != rc.recordIdx {
		panic(fmt.Sprintf("record converter out of sync with writer: finished record %d but writer has %d rows", rc.recordIdx, rows))
	}
}

// CurrentRecordIdx returns the ordinal of the record currently (or most
// recently) being converted, -1 before the first Start.
func (rc *RecordConverter) CurrentRecordIdx() int64 {
	return rc.recordIdx
}

// newConverter picks the converter implementation for one column, first
// match wins: string-like targets become timestamp converters when the
// source column carries millisecond timestamps (or raw INT96), otherwise
// string converters with dictionary support for UTF8/ENUM columns; numeric
// targets always get the number converter.
func newConverter(colIdx int, colType ColType, col *schema.Column, w *writerDelegate, maxStrLen int, log logger.Logger) (PrimitiveConverter, error) {
	switch colType {
	case ColTypeBad, ColTypeCat, ColTypeStr, ColTypeUUID, ColTypeTime:
		if isTimestampMillis(col) || col.PhysicalType() == parquet.Types.Int96 {
			return &timestampConverter{
				unsupported: unsupported{"timestamp"},
				colIdx:      colIdx,
				writer:      w,
			}, nil
		}
		return &stringConverter{
			unsupported: unsupported{"string"},
			colIdx:      colIdx,
			writer:      w,
			dictSupport: isUTF8(col) || isEnum(col),
			maxLen:      maxStrLen,
			log:         log,
		}, nil
	case ColTypeNum:
		return &numberConverter{
			unsupported: unsupported{"number"},
			colIdx:      colIdx,
			writer:      w,
		}, nil
	default:
		return nil, errors.Errorf("unsupported column type %d", colType)
	}
}

func isTimestampMillis(col *schema.Column) bool {
	if col.ConvertedType() == schema.ConvertedTypes.TimestampMillis {
		return true
	}
	if ts, ok := col.LogicalType().(*schema.TimestampLogicalType); ok {
		return ts.TimeUnit() == schema.TimeUnitMillis
	}
	return false
}

func isUTF8(col *schema.Column) bool {
	if col.ConvertedType() == schema.ConvertedTypes.UTF8 {
		return true
	}
	_, ok := col.LogicalType().(*schema.StringLogicalType)
	return ok
}

func isEnum(col *schema.Column) bool {
	if col.ConvertedType() == schema.ConvertedTypes.Enum {
		return true
	}
	_, ok := col.LogicalType().(*schema.EnumLogicalType)
	return ok
}

// unsupported is the base of every converter. Payload kinds the concrete
// converter does not override are programming errors: the selector bound
// the converter to a column that can never produce them.
type unsupported struct {
	kind string
}

func (u unsupported) fail(payload string) {
	panic(fmt.Sprintf("%s converter got unexpected %s payload", u.kind, payload))
}

func (u unsupported) AddBoolean(bool)            { u.fail("boolean") }
func (u unsupported) AddInt32(int32)             { u.fail("int32") }
func (u unsupported) AddInt64(int64)             { u.fail("int64") }
func (u unsupported) AddFloat32(float32)         { u.fail("float32") }
func (u unsupported) AddFloat64(float64)         { u.fail("float64") }
func (u unsupported) AddByteArray([]byte)        { u.fail("byte array") }
func (u unsupported) HasDictionarySupport() bool { return false }
func (u unsupported) SetDictionary(Dictionary)   { u.fail("dictionary") }
func (u unsupported) AddValueFromDictionary(int) { u.fail("dictionary value") }

// stringConverter forwards UTF-8 text payloads, literal or dictionary
// coded. It tracks the cumulative bytes written for its column across the
// whole session; the value that would push the total past maxLen is
// truncated to land exactly on it, and every value after that is silently
// dropped so the column stays invalid for the remaining rows.
type stringConverter struct {
	unsupported
	colIdx      int
	writer      *writerDelegate
	dictSupport bool

	dict     []string
	written  int
	maxLen   int
	overflew bool
	log      logger.Logger
}

func (c *stringConverter) AddByteArray(v []byte) {
	c.write(v)
}

func (c *stringConverter) HasDictionarySupport() bool {
	return c.dictSupport
}

func (c *stringConverter) SetDictionary(dict Dictionary) {
	c.dict = make([]string, dict.MaxID()+1)
	for i := range c.dict {
		c.dict[i] = dict.Decode(i)
	}
}

func (c *stringConverter) AddValueFromDictionary(id int) {
	c.write([]byte(c.dict[id]))
}

func (c *stringConverter) write(v []byte) {
	if c.overflew {
		return
	}
	c.written += len(v)
	if over := c.written - c.maxLen; over > 0 {
		v = v[:len(v)-over]
		c.written = c.maxLen
		c.overflew = true
		c.log.Warnf("string value overflew the maximum allowed size for column %d by %d bytes, truncating and dropping the column's remaining values", c.colIdx, over)
	}
	c.writer.addStrCol(c.colIdx, v)
}

// numberConverter forwards any numeric payload. Integers keep a zero
// decimal exponent, booleans map to 1/0. A byte array payload here means
// the file's declared type disagrees with the target schema; it is carried
// through as text rather than failing the row.
type numberConverter struct {
	unsupported
	colIdx int
	writer *writerDelegate
}

func (c *numberConverter) AddBoolean(v bool) {
	if v {
		c.writer.addIntCol(c.colIdx, 1, 0)
	} else {
		c.writer.addIntCol(c.colIdx, 0, 0)
	}
}

func (c *numberConverter) AddInt32(v int32) {
	c.writer.addIntCol(c.colIdx, int64(v), 0)
}

func (c *numberConverter) AddInt64(v int64) {
	c.writer.addIntCol(c.colIdx, v, 0)
}

func (c *numberConverter) AddFloat32(v float32) {
	c.writer.addFloatCol(c.colIdx, float64(v))
}

func (c *numberConverter) AddFloat64(v float64) {
	c.writer.addFloatCol(c.colIdx, v)
}

func (c *numberConverter) AddByteArray(v []byte) {
	c.writer.addStrCol(c.colIdx, v)
}

// timestampConverter forwards epoch milliseconds. An int64 payload is
// already milliseconds; a 12-byte INT96 payload is normalized first.
type timestampConverter struct {
	unsupported
	colIdx int
	writer *writerDelegate
}

func (c *timestampConverter) AddInt64(v int64) {
	c.writer.addIntCol(c.colIdx, v, 0)
}

func (c *timestampConverter) AddByteArray(v []byte) {
	c.writer.addIntCol(c.colIdx, int96Millis(v), 0)
}

// int96Millis normalizes the legacy INT96 timestamp layout (8 bytes
// little-endian nanoseconds-of-day, 4 bytes little-endian julian day) to
// epoch milliseconds.
func int96Millis(v []byte) int64 {
	var i96 parquet.Int96
	copy(i96[:], v)
	return i96.ToTime().UnixMilli()
}

// writerDelegate positions column writes within the current row. Columns
// arrive in non-decreasing index order; every index skipped between two
// writes, and every index left after the last write of a row, gets an
// explicit invalid marker before the row is finished. The sink may carry
// rows from earlier sessions, so the row count it reports is rebased to
// the session start.
type writerDelegate struct {
	writer  RowWriter
	numCols int
	col     int
	base    int64
}

func newWriterDelegate(w RowWriter, numCols int) *writerDelegate {
	return &writerDelegate{
		writer:  w,
		numCols: numCols,
		col:     numCols, // unusable until startRow
		base:    w.RowCount(),
	}
}

func (w *writerDelegate) startRow() {
	w.col = -1
}

func (w *writerDelegate) endRow() {
	w.moveTo(w.numCols)
	w.writer.FinishRow()
}

func (w *writerDelegate) moveTo(col int) int {
	for c := w.col + 1; c < col; c++ {
		w.writer.AddInvalidCol(c)
	}
	w.col = col
	return col
}

func (w *writerDelegate) addIntCol(col int, val int64, exp int) {
	w.writer.AddIntCol(w.moveTo(col), val, exp)
}

func (w *writerDelegate) addFloatCol(col int, val float64) {
	w.writer.AddFloatCol(w.moveTo(col), val)
}

func (w *writerDelegate) addStrCol(col int, val []byte) {
	w.writer.AddStrCol(w.moveTo(col), val)
}

func (w *writerDelegate) rowCount() int64 {
	return w.writer.RowCount() - w.base
}
