package dataframe

import (
	"fmt"
	"math"
)

var nan = math.NaN()

// DataFrame is the ordered columnar table for one (instrument, trading_system)
// pair (spec.md §3). Rows are ordered by insertion; column order and dtypes
// always match the owning schematic's schema_fields (invariant I1).
type DataFrame struct {
	fields  []Field
	columns []*Series
	index   map[string]int
}

// New allocates an empty DataFrame with the given schema. The frame starts at
// height 0 and grows only via the Append* methods.
func New(fields []Field) *DataFrame {
	df := &DataFrame{
		fields:  append([]Field(nil), fields...),
		columns: make([]*Series, len(fields)),
		index:   make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		df.columns[i] = NewSeries(f.Name, f.DType)
		df.index[f.Name] = i
	}
	return df
}

// Fields returns the frame's declared schema, in column order.
func (df *DataFrame) Fields() []Field {
	return append([]Field(nil), df.fields...)
}

// Height returns the number of rows currently stored.
func (df *DataFrame) Height() int {
	if len(df.columns) == 0 {
		return 0
	}
	return df.columns[0].Len()
}

// Column returns the named column and whether it exists.
func (df *DataFrame) Column(name string) (*Series, bool) {
	i, ok := df.index[name]
	if !ok {
		return nil, false
	}
	return df.columns[i], true
}

// Columns returns every column, in schema order.
func (df *DataFrame) Columns() []*Series {
	return df.columns
}

// HasColumn reports whether name is a declared column.
func (df *DataFrame) HasColumn(name string) bool {
	_, ok := df.index[name]
	return ok
}

// LastValue returns the value of the named column at the final row, and
// whether the column exists and the frame is non-empty.
func (df *DataFrame) LastValue(name string) (any, bool) {
	col, ok := df.Column(name)
	if !ok || col.Len() == 0 {
		return nil, false
	}
	v, valid := col.At(col.Len() - 1)
	if !valid {
		return nil, true
	}
	return v, true
}

// AppendRow appends one row described as column name -> boxed value. Every
// declared column must be present in row; extra keys are ignored. All columns
// are appended atomically: if any value fails to convert, the frame is left
// unchanged.
func (df *DataFrame) AppendRow(row map[string]any) error {
	for _, f := range df.fields {
		if _, ok := row[f.Name]; !ok {
			return fmt.Errorf("append row: missing value for column %q", f.Name)
		}
	}
	// Validate every value converts before mutating any column.
	for _, f := range df.fields {
		col, _ := df.Column(f.Name)
		if err := validateAny(col.DType, row[f.Name]); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}
	for _, f := range df.fields {
		col, _ := df.Column(f.Name)
		_ = col.AppendAny(row[f.Name])
	}
	return nil
}

// AppendPartialRow appends one row where only a subset of columns (typically
// the raw, producer-supplied columns) carry known values; every other
// declared column receives a null placeholder. Used by append_data_point:
// the schematic's derived columns are unknown until the layers are
// reapplied, but every column must grow in lockstep so all columns keep the
// same length while that reapplication runs.
func (df *DataFrame) AppendPartialRow(values map[string]any) error {
	for _, f := range df.fields {
		col, _ := df.Column(f.Name)
		if v, ok := values[f.Name]; ok {
			if err := validateAny(col.DType, v); err != nil {
				return fmt.Errorf("append partial row: column %q: %w", f.Name, err)
			}
		}
	}
	for _, f := range df.fields {
		col, _ := df.Column(f.Name)
		if v, ok := values[f.Name]; ok {
			_ = col.AppendAny(v)
		} else {
			_ = col.AppendAny(nil)
		}
	}
	return nil
}

func validateAny(dtype DType, v any) error {
	if v == nil {
		return nil
	}
	switch dtype {
	case Bool:
		_, ok := v.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", v)
		}
	case Int8:
		_, ok := v.(int8)
		if !ok {
			return fmt.Errorf("expected int8, got %T", v)
		}
	case Int32:
		_, ok := v.(int32)
		if !ok {
			return fmt.Errorf("expected int32, got %T", v)
		}
	case UInt32:
		_, ok := v.(uint32)
		if !ok {
			return fmt.Errorf("expected uint32, got %T", v)
		}
	case UInt64:
		_, ok := v.(uint64)
		if !ok {
			return fmt.Errorf("expected uint64, got %T", v)
		}
	case Float64:
		_, ok := v.(float64)
		if !ok {
			return fmt.Errorf("expected float64, got %T", v)
		}
	case String:
		_, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
	}
	return nil
}

// AppendSeries appends n rows in bulk from a name -> column-vector mapping.
// Every declared column must be present with length n. All-or-nothing: if any
// column is missing or mis-lengthed, the frame is left unchanged.
func (df *DataFrame) AppendSeries(seriesMap map[string]*Series, n int) error {
	for _, f := range df.fields {
		s, ok := seriesMap[f.Name]
		if !ok {
			return fmt.Errorf("append series: missing column %q", f.Name)
		}
		if s.Len() != n {
			return fmt.Errorf("append series: column %q has length %d, want %d", f.Name, s.Len(), n)
		}
		if s.DType != f.DType {
			return fmt.Errorf("append series: column %q has dtype %s, want %s", f.Name, s.DType, f.DType)
		}
	}
	for i := 0; i < n; i++ {
		for _, f := range df.fields {
			col, _ := df.Column(f.Name)
			v, valid := seriesMap[f.Name].At(i)
			if !valid {
				_ = col.AppendAny(nil)
			} else {
				_ = col.AppendAny(v)
			}
		}
	}
	return nil
}

// AppendPartialSeries appends n rows in bulk where only a subset of columns
// (the raw, producer-supplied columns) carry known vectors; every other
// declared column receives n null placeholders. Mirrors AppendPartialRow for
// the bulk append_series path: derived columns are filled in afterward by
// reapplying the schematic.
func (df *DataFrame) AppendPartialSeries(seriesMap map[string]*Series, n int) error {
	for name, s := range seriesMap {
		if !df.HasColumn(name) {
			return fmt.Errorf("append partial series: unknown column %q", name)
		}
		if s.Len() != n {
			return fmt.Errorf("append partial series: column %q has length %d, want %d", name, s.Len(), n)
		}
	}
	for i := 0; i < n; i++ {
		for _, f := range df.fields {
			col, _ := df.Column(f.Name)
			s, ok := seriesMap[f.Name]
			if !ok {
				_ = col.AppendAny(nil)
				continue
			}
			v, valid := s.At(i)
			if !valid {
				_ = col.AppendAny(nil)
			} else {
				_ = col.AppendAny(v)
			}
		}
	}
	return nil
}

// Tail returns a new DataFrame sharing the same schema, containing only the
// last n rows (n >= Height() returns a full copy). The append path does not
// use it: the schematic is reapplied over the whole frame.
func (df *DataFrame) Tail(n int) *DataFrame {
	out := New(df.fields)
	for i, f := range df.fields {
		out.columns[i] = df.columns[i].Tail(n)
		_ = f
	}
	return out
}

// Truncate drops every row but keeps the schema (eviction, spec.md I4/§4.3
// evict_df/evict_inner/evict_outer).
func (df *DataFrame) Truncate() {
	for _, col := range df.columns {
		col.Truncate()
	}
}

// Project returns a new DataFrame retaining the same row set but dropping the
// named columns (missing names are ignored), preserving relative order.
// num_rows, if non-negative, limits the result to the last num_rows rows.
func (df *DataFrame) Project(excludeColumns []string, numRows int) *DataFrame {
	exclude := make(map[string]bool, len(excludeColumns))
	for _, c := range excludeColumns {
		exclude[c] = true
	}

	var fields []Field
	for _, f := range df.fields {
		if !exclude[f.Name] {
			fields = append(fields, f)
		}
	}

	height := df.Height()
	from := 0
	if numRows >= 0 && numRows < height {
		from = height - numRows
	}

	out := New(fields)
	for i, f := range fields {
		src, _ := df.Column(f.Name)
		out.columns[i] = src.Tail(height - from)
	}
	return out
}
