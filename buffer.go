// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package pqingest

import (
	"fmt"
	"math"
)

// RowBuffer is an in-memory RowWriter. Cells are stored as nil for
// invalid markers, int64 for zero-exponent integral values, float64 for
// floating point or scaled values, and string for text.
//
// RowBuffer is strict: a column write out of order, or a row finished with
// the wrong number of columns, panics. That makes it a useful harness for
// anything claiming to uphold the writer's ordering contract.
type RowBuffer struct {
	numCols int
	rows    [][]interface{}
	cur     []interface{}
}

func NewRowBuffer(numCols int) *RowBuffer {
	return &RowBuffer{numCols: numCols}
}

func (b *RowBuffer) AddInvalidCol(col int) {
	b.set(col, nil)
}

func (b *RowBuffer) AddIntCol(col int, val int64, exp int) {
	if exp == 0 {
		b.set(col, val)
		return
	}
	b.set(col, float64(val)*math.Pow10(exp))
}

func (b *RowBuffer) AddFloatCol(col int, val float64) {
	b.set(col, val)
}

func (b *RowBuffer) AddStrCol(col int, val []byte) {
	b.set(col, string(val))
}

func (b *RowBuffer) FinishRow() {
	if len(b.cur) != b.numCols {
		panic(fmt.Sprintf("row finished with %d columns, want %d", len(b.cur), b.numCols))
	}
	b.rows = append(b.rows, b.cur)
	b.cur = nil
}

func (b *RowBuffer) RowCount() int64 {
	return int64(len(b.rows))
}

// Rows returns all finished rows.
func (b *RowBuffer) Rows() [][]interface{} {
	return b.rows
}

func (b *RowBuffer) set(col int, val interface{}) {
	if col != len(b.cur) {
		panic(fmt.Sprintf("column %d written out of order, expected column %d next", col, len(b.cur)))
	}
	b.cur = append(b.cur, val)
}
