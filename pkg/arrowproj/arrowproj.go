// Package arrowproj projects a dataframe.DataFrame into an Arrow schema and a
// sequence of record batches (spec.md §4.3, df_to_arrow; §6, the Flight
// DoGet wire format), using github.com/apache/arrow/go/v18.
package arrowproj

import (
	"fmt"
	"math"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"

	"github.com/ghhag/stonkinator-dfservice/pkg/dataframe"
)

// DefaultBatchSize bounds the row count of any one emitted record batch. Row
// order is preserved across batches; the contract (spec.md §4.3) only
// requires "one or more" batches, not a specific size.
const DefaultBatchSize = 1024

func arrowType(dtype dataframe.DType) (arrow.DataType, error) {
	switch dtype {
	case dataframe.Bool:
		return arrow.FixedWidthTypes.Boolean, nil
	case dataframe.Int8:
		return arrow.PrimitiveTypes.Int8, nil
	case dataframe.Int32:
		return arrow.PrimitiveTypes.Int32, nil
	case dataframe.UInt32:
		return arrow.PrimitiveTypes.Uint32, nil
	case dataframe.UInt64:
		return arrow.PrimitiveTypes.Uint64, nil
	case dataframe.Float64:
		return arrow.PrimitiveTypes.Float64, nil
	case dataframe.String:
		return arrow.BinaryTypes.String, nil
	default:
		return nil, fmt.Errorf("no arrow type for dtype %s", dtype)
	}
}

// Schema builds the arrow.Schema corresponding to df's current field list
// (spec.md P2: equals schematic.schema_fields minus exclude_columns, in
// order — df is expected to already be the excluded/row-limited projection).
func Schema(df *dataframe.DataFrame) (*arrow.Schema, error) {
	fields := df.Fields()
	arrowFields := make([]arrow.Field, len(fields))
	for i, f := range fields {
		dt, err := arrowType(f.DType)
		if err != nil {
			return nil, err
		}
		arrowFields[i] = arrow.Field{Name: f.Name, Type: dt, Nullable: true}
	}
	return arrow.NewSchema(arrowFields, nil), nil
}

// ToRecords converts df into a schema plus one or more record batches of at
// most batchSize rows each, row order preserved (spec.md §4.3, df_to_arrow;
// §6, DoGet). batchSize <= 0 uses DefaultBatchSize.
func ToRecords(df *dataframe.DataFrame, batchSize int) (*arrow.Schema, []arrow.Record, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	schema, err := Schema(df)
	if err != nil {
		return nil, nil, err
	}

	height := df.Height()
	if height == 0 {
		return schema, nil, nil
	}

	mem := memory.NewGoAllocator()
	var records []arrow.Record
	for from := 0; from < height; from += batchSize {
		to := from + batchSize
		if to > height {
			to = height
		}
		rec, err := buildRecord(mem, schema, df, from, to)
		if err != nil {
			return nil, nil, err
		}
		records = append(records, rec)
	}
	return schema, records, nil
}

func buildRecord(mem memory.Allocator, schema *arrow.Schema, df *dataframe.DataFrame, from, to int) (arrow.Record, error) {
	cols := df.Columns()
	arrays := make([]arrow.Array, len(cols))
	for i, col := range cols {
		arr, err := buildArray(mem, col, from, to)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		arrays[i] = arr
	}
	return array.NewRecord(schema, arrays, int64(to-from)), nil
}

func buildArray(mem memory.Allocator, col *dataframe.Series, from, to int) (arrow.Array, error) {
	switch col.DType {
	case dataframe.Bool:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		for i := from; i < to; i++ {
			if !col.IsValid(i) {
				b.AppendNull()
				continue
			}
			b.Append(col.Bools[i])
		}
		return b.NewArray(), nil
	case dataframe.Int8:
		b := array.NewInt8Builder(mem)
		defer b.Release()
		for i := from; i < to; i++ {
			if !col.IsValid(i) {
				b.AppendNull()
				continue
			}
			b.Append(col.Int8s[i])
		}
		return b.NewArray(), nil
	case dataframe.Int32:
		b := array.NewInt32Builder(mem)
		defer b.Release()
		for i := from; i < to; i++ {
			if !col.IsValid(i) {
				b.AppendNull()
				continue
			}
			b.Append(col.Int32s[i])
		}
		return b.NewArray(), nil
	case dataframe.UInt32:
		b := array.NewUint32Builder(mem)
		defer b.Release()
		for i := from; i < to; i++ {
			if !col.IsValid(i) {
				b.AppendNull()
				continue
			}
			b.Append(col.UInt32s[i])
		}
		return b.NewArray(), nil
	case dataframe.UInt64:
		b := array.NewUint64Builder(mem)
		defer b.Release()
		for i := from; i < to; i++ {
			if !col.IsValid(i) {
				b.AppendNull()
				continue
			}
			b.Append(col.UInt64s[i])
		}
		return b.NewArray(), nil
	case dataframe.Float64:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		for i := from; i < to; i++ {
			// Derived feature columns carry the null sentinel as NaN rather
			// than through the validity mask (pkg/feature's NaN-as-null
			// convention), so a NaN value is emitted as an Arrow null even
			// when the column itself reports the row valid.
			if !col.IsValid(i) || math.IsNaN(col.Float64s[i]) {
				b.AppendNull()
				continue
			}
			b.Append(col.Float64s[i])
		}
		return b.NewArray(), nil
	case dataframe.String:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		for i := from; i < to; i++ {
			if !col.IsValid(i) {
				b.AppendNull()
				continue
			}
			b.Append(col.Strings[i])
		}
		return b.NewArray(), nil
	default:
		return nil, fmt.Errorf("unsupported dtype %s", col.DType)
	}
}
