// Package schema implements DataFrameSchematic: a schema declaration plus an
// ordered sequence of expression layers that extend raw input columns into
// derived columns (spec.md §4.2). Expressions wrap the pure functions in
// pkg/feature with the column-naming and dtype bookkeeping a schematic needs
// to validate and apply them.
package schema

import (
	"fmt"
	"math"

	"github.com/ghhag/stonkinator-dfservice/pkg/dataframe"
	"github.com/ghhag/stonkinator-dfservice/pkg/feature"
)

// Expression produces one or more named output columns from named input
// columns. Every expression has a deterministic, fixed set of inputs and
// outputs fixed at construction time (spec.md §3, "Expression").
type Expression struct {
	label   string
	inputs  []string
	outputs []string
	eval    func(df *dataframe.DataFrame) (map[string]*dataframe.Series, error)
}

// Inputs returns the column names this expression reads.
func (e *Expression) Inputs() []string { return e.inputs }

// Outputs returns the column names this expression produces.
func (e *Expression) Outputs() []string { return e.outputs }

// String returns a short diagnostic label ("rolling_mean -> [ma_10]"), used by
// Describe and schema error messages.
func (e *Expression) String() string {
	return fmt.Sprintf("%s -> %v", e.label, e.outputs)
}

func floatColumn(df *dataframe.DataFrame, name string) ([]float64, error) {
	col, ok := df.Column(name)
	if !ok {
		return nil, fmt.Errorf("column %q not found", name)
	}
	return col.Float64Values()
}

func newFloatSeries(name string, values []float64) *dataframe.Series {
	s := dataframe.NewSeries(name, dataframe.Float64)
	s.Float64s = append(s.Float64s, values...)
	return s
}

func newBoolSeriesFromFloat(name string, values []float64) *dataframe.Series {
	s := dataframe.NewSeries(name, dataframe.Bool)
	for _, v := range values {
		if v != v { // NaN
			_ = s.AppendAny(nil)
			continue
		}
		_ = s.AppendAny(v != 0)
	}
	return s
}

func newInt32SeriesFromFloat(name string, values []float64) *dataframe.Series {
	s := dataframe.NewSeries(name, dataframe.Int32)
	for _, v := range values {
		if v != v {
			_ = s.AppendAny(nil)
			continue
		}
		_ = s.AppendAny(int32(v))
	}
	return s
}

// RollingMean builds the rolling_mean(w, src) expression (spec.md §4.1).
// minPeriods <= 0 defaults to w.
func RollingMean(src, name string, w, minPeriods int) *Expression {
	return &Expression{
		label:   "rolling_mean", inputs: []string{src}, outputs: []string{name},
		eval: func(df *dataframe.DataFrame) (map[string]*dataframe.Series, error) {
			vals, err := floatColumn(df, src)
			if err != nil {
				return nil, err
			}
			return oneFloat(name, feature.RollingMean(vals, w, minPeriods)), nil
		},
	}
}

// RollingMax builds the rolling_max(w, src) expression.
func RollingMax(src, name string, w, minPeriods int) *Expression {
	return &Expression{
		label: "rolling_max", inputs: []string{src}, outputs: []string{name},
		eval: func(df *dataframe.DataFrame) (map[string]*dataframe.Series, error) {
			vals, err := floatColumn(df, src)
			if err != nil {
				return nil, err
			}
			return oneFloat(name, feature.RollingMax(vals, w, minPeriods)), nil
		},
	}
}

// RollingMin builds the rolling_min(w, src) expression.
func RollingMin(src, name string, w, minPeriods int) *Expression {
	return &Expression{
		label: "rolling_min", inputs: []string{src}, outputs: []string{name},
		eval: func(df *dataframe.DataFrame) (map[string]*dataframe.Series, error) {
			vals, err := floatColumn(df, src)
			if err != nil {
				return nil, err
			}
			return oneFloat(name, feature.RollingMin(vals, w, minPeriods)), nil
		},
	}
}

// RollingStd builds the rolling_std(w, src) expression (ddof=1).
func RollingStd(src, name string, w, minPeriods int) *Expression {
	return &Expression{
		label: "rolling_std", inputs: []string{src}, outputs: []string{name},
		eval: func(df *dataframe.DataFrame) (map[string]*dataframe.Series, error) {
			vals, err := floatColumn(df, src)
			if err != nil {
				return nil, err
			}
			return oneFloat(name, feature.RollingStd(vals, w, minPeriods)), nil
		},
	}
}

// EWMMean builds the ewm_mean(alpha, adjust=false, src) expression.
func EWMMean(src, name string, alpha float64) *Expression {
	return &Expression{
		label: "ewm_mean", inputs: []string{src}, outputs: []string{name},
		eval: func(df *dataframe.DataFrame) (map[string]*dataframe.Series, error) {
			vals, err := floatColumn(df, src)
			if err != nil {
				return nil, err
			}
			return oneFloat(name, feature.EWMMean(vals, alpha)), nil
		},
	}
}

// ATR builds the atr(p, high, low, close) expression.
func ATR(high, low, close, name string, periods float64) *Expression {
	return &Expression{
		label: "atr", inputs: []string{high, low, close}, outputs: []string{name},
		eval: func(df *dataframe.DataFrame) (map[string]*dataframe.Series, error) {
			h, err := floatColumn(df, high)
			if err != nil {
				return nil, err
			}
			l, err := floatColumn(df, low)
			if err != nil {
				return nil, err
			}
			c, err := floatColumn(df, close)
			if err != nil {
				return nil, err
			}
			return oneFloat(name, feature.ATR(h, l, c, periods)), nil
		},
	}
}

// ADR builds the adr(atr, close) expression.
func ADR(atr, close, name string) *Expression {
	return &Expression{
		label: "adr", inputs: []string{atr, close}, outputs: []string{name},
		eval: func(df *dataframe.DataFrame) (map[string]*dataframe.Series, error) {
			a, err := floatColumn(df, atr)
			if err != nil {
				return nil, err
			}
			c, err := floatColumn(df, close)
			if err != nil {
				return nil, err
			}
			return oneFloat(name, feature.ADR(a, c)), nil
		},
	}
}

// RSI builds the rsi(p, close) expression.
func RSI(close, name string, periods float64) *Expression {
	return &Expression{
		label: "rsi", inputs: []string{close}, outputs: []string{name},
		eval: func(df *dataframe.DataFrame) (map[string]*dataframe.Series, error) {
			c, err := floatColumn(df, close)
			if err != nil {
				return nil, err
			}
			return oneFloat(name, feature.RSI(c, periods)), nil
		},
	}
}

// BollingerBands builds the bollinger_bands(w, k, close, ma) expression,
// producing name_upper, name_lower, name_distance.
func BollingerBands(close, ma, name string, w, minPeriods int, k float64) *Expression {
	upper, lower, distance := name+"_upper", name+"_lower", name+"_distance"
	return &Expression{
		label: "bollinger_bands", inputs: []string{close, ma}, outputs: []string{upper, lower, distance},
		eval: func(df *dataframe.DataFrame) (map[string]*dataframe.Series, error) {
			c, err := floatColumn(df, close)
			if err != nil {
				return nil, err
			}
			m, err := floatColumn(df, ma)
			if err != nil {
				return nil, err
			}
			res := feature.BollingerBands(c, m, w, minPeriods, k)
			return map[string]*dataframe.Series{
				upper:    newFloatSeries(upper, res.Upper),
				lower:    newFloatSeries(lower, res.Lower),
				distance: newFloatSeries(distance, res.Distance),
			}, nil
		},
	}
}

// KeltnerChannels builds the keltner_channels(k, ema, atr) expression,
// producing name_upper, name_lower.
func KeltnerChannels(ema, atr, name string, multiplier float64) *Expression {
	upper, lower := name+"_upper", name+"_lower"
	return &Expression{
		label: "keltner_channels", inputs: []string{ema, atr}, outputs: []string{upper, lower},
		eval: func(df *dataframe.DataFrame) (map[string]*dataframe.Series, error) {
			e, err := floatColumn(df, ema)
			if err != nil {
				return nil, err
			}
			a, err := floatColumn(df, atr)
			if err != nil {
				return nil, err
			}
			res := feature.KeltnerChannels(e, a, multiplier)
			return map[string]*dataframe.Series{
				upper: newFloatSeries(upper, res.Upper),
				lower: newFloatSeries(lower, res.Lower),
			}, nil
		},
	}
}

// PercentRank builds the percent_rank(w, src) expression.
func PercentRank(src, name string, w int) *Expression {
	return &Expression{
		label: "percent_rank", inputs: []string{src}, outputs: []string{name},
		eval: func(df *dataframe.DataFrame) (map[string]*dataframe.Series, error) {
			vals, err := floatColumn(df, src)
			if err != nil {
				return nil, err
			}
			return oneFloat(name, feature.PercentRank(vals, w)), nil
		},
	}
}

// HigherHighLowerLow builds the higher_high_lower_low(w, src) expression.
func HigherHighLowerLow(src, name string, w int) *Expression {
	return &Expression{
		label: "higher_high_lower_low", inputs: []string{src}, outputs: []string{name},
		eval: func(df *dataframe.DataFrame) (map[string]*dataframe.Series, error) {
			vals, err := floatColumn(df, src)
			if err != nil {
				return nil, err
			}
			out := feature.HigherHighLowerLow(vals, w)
			return map[string]*dataframe.Series{name: newBoolSeriesFromFloat(name, out)}, nil
		},
	}
}

// ComparativeRelativeStrength builds the comparative_relative_strength(a, b)
// expression.
func ComparativeRelativeStrength(a, b, name string) *Expression {
	return &Expression{
		label: "comparative_relative_strength", inputs: []string{a, b}, outputs: []string{name},
		eval: func(df *dataframe.DataFrame) (map[string]*dataframe.Series, error) {
			av, err := floatColumn(df, a)
			if err != nil {
				return nil, err
			}
			bv, err := floatColumn(df, b)
			if err != nil {
				return nil, err
			}
			return oneFloat(name, feature.ComparativeRelativeStrength(av, bv)), nil
		},
	}
}

// RelativeValue builds the relative_value(to, from) expression.
func RelativeValue(to, from, name string) *Expression {
	return &Expression{
		label: "relative_value", inputs: []string{to, from}, outputs: []string{name},
		eval: func(df *dataframe.DataFrame) (map[string]*dataframe.Series, error) {
			toV, err := floatColumn(df, to)
			if err != nil {
				return nil, err
			}
			fromV, err := floatColumn(df, from)
			if err != nil {
				return nil, err
			}
			return oneFloat(name, feature.RelativeValue(toV, fromV)), nil
		},
	}
}

// ValueBalance builds the value_balance(w, cmp, bal) expression, producing an
// Int32 output column.
func ValueBalance(cmp, bal, name string, w, minPeriods int) *Expression {
	return &Expression{
		label: "value_balance", inputs: []string{cmp, bal}, outputs: []string{name},
		eval: func(df *dataframe.DataFrame) (map[string]*dataframe.Series, error) {
			cmpV, err := floatColumn(df, cmp)
			if err != nil {
				return nil, err
			}
			balV, err := floatColumn(df, bal)
			if err != nil {
				return nil, err
			}
			out := feature.ValueBalance(cmpV, balV, w, minPeriods)
			return map[string]*dataframe.Series{name: newInt32SeriesFromFloat(name, out)}, nil
		},
	}
}

// CompositePctChange builds the composite_pct_change([p1,p2,p3], src)
// expression.
func CompositePctChange(src, name string, periods [3]int) *Expression {
	return &Expression{
		label: "composite_pct_change", inputs: []string{src}, outputs: []string{name},
		eval: func(df *dataframe.DataFrame) (map[string]*dataframe.Series, error) {
			vals, err := floatColumn(df, src)
			if err != nil {
				return nil, err
			}
			return oneFloat(name, feature.CompositePctChange(vals, periods)), nil
		},
	}
}

// RollingCorr builds the rolling_corr(w, ddof, x, y) expression.
func RollingCorr(x, y, name string, w, ddof, minPeriods int) *Expression {
	return &Expression{
		label: "rolling_corr", inputs: []string{x, y}, outputs: []string{name},
		eval: func(df *dataframe.DataFrame) (map[string]*dataframe.Series, error) {
			xv, err := floatColumn(df, x)
			if err != nil {
				return nil, err
			}
			yv, err := floatColumn(df, y)
			if err != nil {
				return nil, err
			}
			return oneFloat(name, feature.RollingCorr(xv, yv, w, ddof, minPeriods)), nil
		},
	}
}

// Shift builds the shift(src, n) expression.
func Shift(src, name string, n int) *Expression {
	return &Expression{
		label: "shift", inputs: []string{src}, outputs: []string{name},
		eval: func(df *dataframe.DataFrame) (map[string]*dataframe.Series, error) {
			vals, err := floatColumn(df, src)
			if err != nil {
				return nil, err
			}
			return oneFloat(name, feature.Shift(vals, n)), nil
		},
	}
}

// PctChange builds the pct_change(src, w, shift_n) expression.
func PctChange(src, name string, w, shiftN int) *Expression {
	return &Expression{
		label: "pct_change", inputs: []string{src}, outputs: []string{name},
		eval: func(df *dataframe.DataFrame) (map[string]*dataframe.Series, error) {
			vals, err := floatColumn(df, src)
			if err != nil {
				return nil, err
			}
			return oneFloat(name, feature.PctChange(vals, w, shiftN)), nil
		},
	}
}

// NPeriodHigh builds the n_period_high(src, rolling_max_of_src) expression.
func NPeriodHigh(src, rollingMaxOfSrc, name string) *Expression {
	return &Expression{
		label: "n_period_high", inputs: []string{src, rollingMaxOfSrc}, outputs: []string{name},
		eval: func(df *dataframe.DataFrame) (map[string]*dataframe.Series, error) {
			s, err := floatColumn(df, src)
			if err != nil {
				return nil, err
			}
			m, err := floatColumn(df, rollingMaxOfSrc)
			if err != nil {
				return nil, err
			}
			out := feature.NPeriodHigh(s, m)
			return map[string]*dataframe.Series{name: newBoolSeriesFromFloat(name, out)}, nil
		},
	}
}

// DiffScore builds the supplemented diff_score(w, x, y) expression (grounded
// on the original apply_diff_score; not one of the enumerated §4.1
// operations but carried forward since no Non-goal excludes it).
func DiffScore(x, y, name string, w, minPeriods int) *Expression {
	return &Expression{
		label: "diff_score", inputs: []string{x, y}, outputs: []string{name},
		eval: func(df *dataframe.DataFrame) (map[string]*dataframe.Series, error) {
			xv, err := floatColumn(df, x)
			if err != nil {
				return nil, err
			}
			yv, err := floatColumn(df, y)
			if err != nil {
				return nil, err
			}
			return oneFloat(name, feature.DiffScore(xv, yv, w, minPeriods)), nil
		},
	}
}

func oneFloat(name string, values []float64) map[string]*dataframe.Series {
	return map[string]*dataframe.Series{name: newFloatSeries(name, values)}
}

// Custom builds an expression from a caller-supplied evaluator. Blueprints
// use this for the small amount of glue logic (e.g. thresholding a derived
// column into a label) that sits outside the enumerated §4.1 operations but
// is still a pure function of named columns.
func Custom(label string, inputs, outputs []string, eval func(df *dataframe.DataFrame) (map[string]*dataframe.Series, error)) *Expression {
	return &Expression{label: label, inputs: inputs, outputs: outputs, eval: eval}
}

// GteZeroInt8 builds an expression producing an Int8 column that is 1 where
// src >= 0 and 0 otherwise (NaN propagates as null), grounded on
// MLTradingSystemExample's target-label derivation.
func GteZeroInt8(src, name string) *Expression {
	return Custom("gte_zero_int8", []string{src}, []string{name},
		func(df *dataframe.DataFrame) (map[string]*dataframe.Series, error) {
			vals, err := floatColumn(df, src)
			if err != nil {
				return nil, err
			}
			out := make([]float64, len(vals))
			for i, v := range vals {
				if v != v {
					out[i] = nan
					continue
				}
				if v >= 0 {
					out[i] = 1
				} else {
					out[i] = 0
				}
			}
			return map[string]*dataframe.Series{name: newInt32SeriesFromFloatAsInt8(name, out)}, nil
		},
	)
}

func newInt32SeriesFromFloatAsInt8(name string, values []float64) *dataframe.Series {
	s := dataframe.NewSeries(name, dataframe.Int8)
	for _, v := range values {
		if v != v {
			_ = s.AppendAny(nil)
			continue
		}
		_ = s.AppendAny(int8(v))
	}
	return s
}

var nan = math.NaN()
