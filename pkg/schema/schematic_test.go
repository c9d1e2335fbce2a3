package schema

import (
	"testing"

	"github.com/ghhag/stonkinator-dfservice/pkg/dataframe"
	"github.com/ghhag/stonkinator-dfservice/pkg/dferr"
)

func priceFields() []dataframe.Field {
	return []dataframe.Field{
		{Name: "instrument_id", DType: dataframe.String},
		{Name: "close", DType: dataframe.Float64},
	}
}

func TestNewRejectsUndeclaredOutput(t *testing.T) {
	fields := priceFields()
	layers := []Layer{{RollingMax("close", "undeclared_col", 3, 3)}}
	_, err := New(fields, layers)
	if !dferr.Is(err, dferr.KindSchema) {
		t.Fatalf("expected a KindSchema error, got %v", err)
	}
}

func TestNewRejectsUndefinedInput(t *testing.T) {
	fields := append(priceFields(), dataframe.Field{Name: "out", DType: dataframe.Float64})
	layers := []Layer{{RollingMax("does_not_exist", "out", 3, 3)}}
	_, err := New(fields, layers)
	if !dferr.Is(err, dferr.KindSchema) {
		t.Fatalf("expected a KindSchema error, got %v", err)
	}
}

func TestNewRejectsDuplicateFieldNames(t *testing.T) {
	fields := []dataframe.Field{
		{Name: "close", DType: dataframe.Float64},
		{Name: "close", DType: dataframe.Float64},
	}
	_, err := New(fields, nil)
	if !dferr.Is(err, dferr.KindSchema) {
		t.Fatalf("expected a KindSchema error, got %v", err)
	}
}

func TestApplyMomentumLikePipeline(t *testing.T) {
	fields := append(priceFields(),
		dataframe.Field{Name: "5_period_high_close", DType: dataframe.Float64},
		dataframe.Field{Name: "5_period_highest_close", DType: dataframe.Bool},
	)
	layers := []Layer{
		{RollingMax("close", "5_period_high_close", 5, 5)},
		{NPeriodHigh("close", "5_period_high_close", "5_period_highest_close")},
	}
	s, err := New(fields, layers)
	if err != nil {
		t.Fatalf("unexpected schema error: %v", err)
	}

	df := s.NewEmptyFrame()
	closes := []float64{10, 11, 12, 13, 14}
	for _, c := range closes {
		_ = df.AppendRow(map[string]any{"instrument_id": "AAA", "close": c, "5_period_high_close": 0.0, "5_period_highest_close": false})
	}

	if err := s.Apply(df); err != nil {
		t.Fatalf("unexpected apply error: %v", err)
	}

	highestCol, _ := df.Column("5_period_highest_close")
	for i := 0; i < 4; i++ {
		if highestCol.IsValid(i) {
			t.Fatalf("index %d: expected null before the window fills, got %v", i, highestCol.Bools[i])
		}
	}
	v, valid := highestCol.At(4)
	if !valid || v.(bool) != true {
		t.Fatalf("expected row 4 to flag a new 5-period high, got %v (valid=%v)", v, valid)
	}
}

func TestApplyConcurrentLayerIsOrderIndependent(t *testing.T) {
	fields := append(priceFields(),
		dataframe.Field{Name: "lag_1", DType: dataframe.Float64},
		dataframe.Field{Name: "lag_2", DType: dataframe.Float64},
	)
	layers := []Layer{{Shift("close", "lag_1", 1), Shift("close", "lag_2", 2)}}
	s, err := New(fields, layers)
	if err != nil {
		t.Fatalf("unexpected schema error: %v", err)
	}

	df := s.NewEmptyFrame()
	for _, c := range []float64{1, 2, 3, 4} {
		_ = df.AppendRow(map[string]any{"instrument_id": "AAA", "close": c, "lag_1": 0.0, "lag_2": 0.0})
	}
	if err := s.Apply(df); err != nil {
		t.Fatalf("unexpected apply error: %v", err)
	}

	lag1, _ := df.Column("lag_1")
	lag2, _ := df.Column("lag_2")
	v1, _ := lag1.At(3)
	v2, _ := lag2.At(3)
	if v1.(float64) != 3 || v2.(float64) != 2 {
		t.Fatalf("expected lag_1=3, lag_2=2 at the last row, got lag_1=%v lag_2=%v", v1, v2)
	}
}
