// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package pqingest converts parquet files into flat, row-major, typed
// column writes against a caller-supplied row sink. The record converter
// consumes the per-field decode events of one row group and emits exactly
// one fully-populated row per record, filling absent fields with explicit
// invalid markers.
package pqingest

import "math"

// ColType is the target semantic type of one output column.
type ColType byte

const (
	// ColTypeBad marks a column whose declared type could not be parsed;
	// its values are carried through as text.
	ColTypeBad ColType = iota
	ColTypeCat
	ColTypeStr
	ColTypeNum
	ColTypeTime
	ColTypeUUID
)

func (t ColType) String() string {
	switch t {
	case ColTypeBad:
		return "bad"
	case ColTypeCat:
		return "cat"
	case ColTypeStr:
		return "str"
	case ColTypeNum:
		return "num"
	case ColTypeTime:
		return "time"
	case ColTypeUUID:
		return "uuid"
	}
	return "unknown"
}

// MaxStrLen is the default cumulative byte budget for all string values
// written to a single column within one session. It matches the sink-side
// maximum string payload: the largest addressable array minus one place
// for a trailing zero.
const MaxStrLen = math.MaxInt32 - 9

// RowWriter is the row/column sink this package writes into. Columns of a
// row are delivered in strictly ascending index order, every index exactly
// once, followed by FinishRow. RowCount reports the number of finished
// rows and is only read for consistency checking.
type RowWriter interface {
	// AddInvalidCol marks column col of the current row as having no value.
	AddInvalidCol(col int)
	// AddIntCol writes an integral numeric value scaled by 10^exp.
	AddIntCol(col int, val int64, exp int)
	// AddFloatCol writes a floating point numeric value.
	AddFloatCol(col int, val float64)
	// AddStrCol writes a UTF-8 string value. The sink must not retain val.
	AddStrCol(col int, val []byte)
	// FinishRow completes the current row.
	FinishRow()
	// RowCount returns the number of rows finished so far.
	RowCount() int64
}

// Dictionary exposes a decoded parquet dictionary page, mapping dense
// non-negative ids to string values.
type Dictionary interface {
	MaxID() int
	Decode(id int) string
}

// PrimitiveConverter consumes decoded primitive values for a single
// column. The source traversal calls at most one Add method per record per
// column; omitting the call entirely marks the column absent for that row.
// Payload kinds a concrete converter does not support panic, since the
// selector only ever pairs a converter with a column that produces the
// kinds it handles.
type PrimitiveConverter interface {
	AddBoolean(v bool)
	AddInt32(v int32)
	AddInt64(v int64)
	AddFloat32(v float32)
	AddFloat64(v float64)
	AddByteArray(v []byte)

	// HasDictionarySupport reports whether the column's values may be
	// delivered as dictionary ids.
	HasDictionarySupport() bool
	// SetDictionary replaces the cached lookup table. Announced by the
	// source whenever the column's dictionary changes.
	SetDictionary(dict Dictionary)
	// AddValueFromDictionary consumes a dictionary-coded value.
	AddValueFromDictionary(id int)
}
