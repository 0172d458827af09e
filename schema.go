// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package pqingest

import (
	"github.com/apache/arrow/go/v10/parquet"
	"github.com/apache/arrow/go/v10/parquet/schema"
)

// TypesFromSchema derives a default target type for every column of a
// parquet schema. Callers with their own schema negotiation pass their own
// types to NewRecordConverter instead.
func TypesFromSchema(sch *schema.Schema) []ColType {
	types := make([]ColType, sch.NumColumns())
	for i := range types {
		types[i] = typeFromColumn(sch.Column(i))
	}
	return types
}

func typeFromColumn(col *schema.Column) ColType {
	if isTimestampMillis(col) || col.PhysicalType() == parquet.Types.Int96 {
		return ColTypeTime
	}
	switch col.PhysicalType() {
	case parquet.Types.Boolean, parquet.Types.Int32, parquet.Types.Int64,
		parquet.Types.Float, parquet.Types.Double:
		return ColTypeNum
	case parquet.Types.ByteArray:
		if isEnum(col) {
			return ColTypeCat
		}
		return ColTypeStr
	case parquet.Types.FixedLenByteArray:
		return ColTypeStr
	}
	return ColTypeBad
}
