// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package pqingest

import (
	"testing"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrowWriterChunks(t *testing.T) {
	w := NewArrowWriter(
		[]string{"n", "s", "ts"},
		[]ColType{ColTypeNum, ColTypeStr, ColTypeTime},
		2, nil)
	defer w.Release()

	w.AddIntCol(0, 3, 0)
	w.AddStrCol(1, []byte("a"))
	w.AddIntCol(2, 1700000000000, 0)
	w.FinishRow()

	// the number converter's text fallback lands on a float column
	w.AddStrCol(0, []byte("2.5"))
	w.AddInvalidCol(1)
	w.AddFloatCol(2, 123)
	w.FinishRow()

	w.AddFloatCol(0, 1.5)
	w.AddStrCol(1, []byte("zz"))
	w.AddInvalidCol(2)
	w.FinishRow()

	// unparseable text on a float column becomes null
	w.AddStrCol(0, []byte("junk"))
	w.AddIntCol(1, 7, 0)
	w.AddStrCol(2, []byte("88"))
	w.FinishRow()

	w.Flush()

	require.Equal(t, int64(4), w.RowCount())
	recs := w.Records()
	require.Len(t, recs, 2)
	for _, rec := range recs {
		assert.Equal(t, int64(2), rec.NumRows())
		assert.Equal(t, int64(3), rec.NumCols())
	}

	first := recs[0]
	n := first.Column(0).(*array.Float64)
	assert.Equal(t, 3.0, n.Value(0))
	assert.Equal(t, 2.5, n.Value(1))
	s := first.Column(1).(*array.String)
	assert.Equal(t, "a", s.Value(0))
	assert.True(t, s.IsNull(1))
	ts := first.Column(2).(*array.Timestamp)
	assert.Equal(t, arrow.Timestamp(1700000000000), ts.Value(0))
	assert.Equal(t, arrow.Timestamp(123), ts.Value(1))

	second := recs[1]
	n = second.Column(0).(*array.Float64)
	assert.Equal(t, 1.5, n.Value(0))
	assert.True(t, n.IsNull(1))
	s = second.Column(1).(*array.String)
	assert.Equal(t, "zz", s.Value(0))
	assert.Equal(t, "7", s.Value(1))
	ts = second.Column(2).(*array.Timestamp)
	assert.True(t, ts.IsNull(0))
	assert.Equal(t, arrow.Timestamp(88), ts.Value(1))
}

func TestArrowWriterScaledInts(t *testing.T) {
	// scaled integral writes go through float space on every column kind,
	// mirroring RowBuffer
	w := NewArrowWriter(
		[]string{"n", "ts"},
		[]ColType{ColTypeNum, ColTypeTime},
		0, nil)
	defer w.Release()

	w.AddIntCol(0, 12, -1)
	w.AddIntCol(1, 17, 2)
	w.FinishRow()
	w.Flush()

	recs := w.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, 1.2000000000000002, recs[0].Column(0).(*array.Float64).Value(0))
	assert.Equal(t, arrow.Timestamp(1700), recs[0].Column(1).(*array.Timestamp).Value(0))
}

func TestArrowWriterFlushEmpty(t *testing.T) {
	w := NewArrowWriter([]string{"a"}, []ColType{ColTypeNum}, 0, nil)
	defer w.Release()
	w.Flush()
	assert.Empty(t, w.Records())
}
