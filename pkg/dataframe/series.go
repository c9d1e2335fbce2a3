package dataframe

import "fmt"

// Series is a single typed column. Only the slice matching DType is
// populated; the others stay nil. Valid is nil when every row is present,
// otherwise it carries one entry per row (false meaning null).
type Series struct {
	Name  string
	DType DType

	Bools    []bool
	Int8s    []int8
	Int32s   []int32
	UInt32s  []uint32
	UInt64s  []uint64
	Float64s []float64
	Strings  []string

	Valid []bool
}

// NewSeries allocates an empty, zero-length Series of the given dtype.
func NewSeries(name string, dtype DType) *Series {
	return &Series{Name: name, DType: dtype}
}

// Len reports the number of rows currently stored.
func (s *Series) Len() int {
	switch s.DType {
	case Bool:
		return len(s.Bools)
	case Int8:
		return len(s.Int8s)
	case Int32:
		return len(s.Int32s)
	case UInt32:
		return len(s.UInt32s)
	case UInt64:
		return len(s.UInt64s)
	case Float64:
		return len(s.Float64s)
	case String:
		return len(s.Strings)
	default:
		return 0
	}
}

// IsValid reports whether row i holds a non-null value.
func (s *Series) IsValid(i int) bool {
	if s.Valid == nil {
		return true
	}
	return s.Valid[i]
}

// markValid grows the Valid mask lazily and records validity for row i. It is
// only materialised the first time a null is appended, keeping the common
// all-valid case allocation-free.
func (s *Series) markValid(i int, valid bool) {
	if valid && s.Valid == nil {
		return
	}
	if s.Valid == nil {
		s.Valid = make([]bool, i)
		for j := range s.Valid {
			s.Valid[j] = true
		}
	}
	for len(s.Valid) <= i {
		s.Valid = append(s.Valid, true)
	}
	s.Valid[i] = valid
}

// At returns the value stored at row i boxed as any, and whether it is valid.
// Null entries return (nil, false).
func (s *Series) At(i int) (any, bool) {
	if !s.IsValid(i) {
		return nil, false
	}
	switch s.DType {
	case Bool:
		return s.Bools[i], true
	case Int8:
		return s.Int8s[i], true
	case Int32:
		return s.Int32s[i], true
	case UInt32:
		return s.UInt32s[i], true
	case UInt64:
		return s.UInt64s[i], true
	case Float64:
		return s.Float64s[i], true
	case String:
		return s.Strings[i], true
	default:
		return nil, false
	}
}

// AppendAny appends a boxed value, converting nil to a null entry of this
// series' dtype. Returns an error if v's type does not match dtype.
func (s *Series) AppendAny(v any) error {
	if v == nil {
		s.appendZero()
		s.markValid(s.Len()-1, false)
		return nil
	}
	switch s.DType {
	case Bool:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("series %q: expected bool, got %T", s.Name, v)
		}
		s.Bools = append(s.Bools, b)
	case Int8:
		n, ok := v.(int8)
		if !ok {
			return fmt.Errorf("series %q: expected int8, got %T", s.Name, v)
		}
		s.Int8s = append(s.Int8s, n)
	case Int32:
		n, ok := v.(int32)
		if !ok {
			return fmt.Errorf("series %q: expected int32, got %T", s.Name, v)
		}
		s.Int32s = append(s.Int32s, n)
	case UInt32:
		n, ok := v.(uint32)
		if !ok {
			return fmt.Errorf("series %q: expected uint32, got %T", s.Name, v)
		}
		s.UInt32s = append(s.UInt32s, n)
	case UInt64:
		n, ok := v.(uint64)
		if !ok {
			return fmt.Errorf("series %q: expected uint64, got %T", s.Name, v)
		}
		s.UInt64s = append(s.UInt64s, n)
	case Float64:
		n, ok := v.(float64)
		if !ok {
			return fmt.Errorf("series %q: expected float64, got %T", s.Name, v)
		}
		s.Float64s = append(s.Float64s, n)
	case String:
		str, ok := v.(string)
		if !ok {
			return fmt.Errorf("series %q: expected string, got %T", s.Name, v)
		}
		s.Strings = append(s.Strings, str)
	default:
		return fmt.Errorf("series %q: unsupported dtype", s.Name)
	}
	if s.Valid != nil {
		s.Valid = append(s.Valid, true)
	}
	return nil
}

func (s *Series) appendZero() {
	switch s.DType {
	case Bool:
		s.Bools = append(s.Bools, false)
	case Int8:
		s.Int8s = append(s.Int8s, 0)
	case Int32:
		s.Int32s = append(s.Int32s, 0)
	case UInt32:
		s.UInt32s = append(s.UInt32s, 0)
	case UInt64:
		s.UInt64s = append(s.UInt64s, 0)
	case Float64:
		s.Float64s = append(s.Float64s, 0)
	case String:
		s.Strings = append(s.Strings, "")
	}
}

// Truncate drops every row, keeping the dtype (and thus the shell) intact.
// Used by eviction (spec.md §4.3, evict_* operations).
func (s *Series) Truncate() {
	s.Bools = s.Bools[:0]
	s.Int8s = s.Int8s[:0]
	s.Int32s = s.Int32s[:0]
	s.UInt32s = s.UInt32s[:0]
	s.UInt64s = s.UInt64s[:0]
	s.Float64s = s.Float64s[:0]
	s.Strings = s.Strings[:0]
	s.Valid = nil
}

// Tail returns a new Series containing only the last n rows (n >= Len()
// returns a full copy). Used by DataFrame.Project and DataFrame.Tail.
func (s *Series) Tail(n int) *Series {
	l := s.Len()
	if n > l {
		n = l
	}
	out := NewSeries(s.Name, s.DType)
	for i := l - n; i < l; i++ {
		v, valid := s.At(i)
		_ = out.AppendAny(v)
		if !valid {
			out.markValid(out.Len()-1, false)
		}
	}
	return out
}

// Float64Values returns the column as a []float64 with nulls represented as
// NaN, regardless of the series' own null-tracking strategy. Non-numeric
// dtypes return an error; feature expressions operate exclusively on this
// view.
func (s *Series) Float64Values() ([]float64, error) {
	switch s.DType {
	case Float64:
		out := make([]float64, len(s.Float64s))
		copy(out, s.Float64s)
		for i := range out {
			if !s.IsValid(i) {
				out[i] = nan
			}
		}
		return out, nil
	case Int32:
		out := make([]float64, len(s.Int32s))
		for i, v := range s.Int32s {
			if s.IsValid(i) {
				out[i] = float64(v)
			} else {
				out[i] = nan
			}
		}
		return out, nil
	case UInt32:
		out := make([]float64, len(s.UInt32s))
		for i, v := range s.UInt32s {
			if s.IsValid(i) {
				out[i] = float64(v)
			} else {
				out[i] = nan
			}
		}
		return out, nil
	case UInt64:
		out := make([]float64, len(s.UInt64s))
		for i, v := range s.UInt64s {
			if s.IsValid(i) {
				out[i] = float64(v)
			} else {
				out[i] = nan
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("series %q: dtype %s has no float64 view", s.Name, s.DType)
	}
}
