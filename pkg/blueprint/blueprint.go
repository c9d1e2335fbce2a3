// Package blueprint registers the built-in trading-system blueprints — the
// recipe bundles of (trading_system_id, schematic) wired at startup. The
// catalog of example systems is explicitly non-normative (spec.md §1); this
// package ships the two worked examples needed to exercise the pipeline
// end-to-end, grounded on original_source/blueprint.rs's momentum and ml
// modules.
package blueprint

import (
	"github.com/ghhag/stonkinator-dfservice/pkg/dataframe"
	"github.com/ghhag/stonkinator-dfservice/pkg/rawdata"
	"github.com/ghhag/stonkinator-dfservice/pkg/schema"
)

// Blueprint bundles a trading_system_id with its compiled schematic and the
// minimum row count that should be configured for it at boot.
type Blueprint struct {
	ID          string
	Schematic   *schema.DataFrameSchematic
	MinimumRows uint32
}

const (
	momentumTradingSystemName = "trading_system_example"
	momentumNPeriodHigh       = 5
	momentumHighCloseCol      = "5_period_high_close"
	momentumEntryConditionCol = "5_period_highest_close"
)

// Momentum builds the 5-period high/close momentum example blueprint
// (original_source/blueprint.rs, momentum::TradingSystemExample):
// schema = Price raw columns + 5_period_high_close (f64) +
// 5_period_highest_close (bool); layer 1 computes the rolling max of close,
// layer 2 computes the n_period_high boolean against it.
func Momentum() (*Blueprint, error) {
	fields := append(rawdata.SchemaFields(),
		dataframe.Field{Name: momentumHighCloseCol, DType: dataframe.Float64},
		dataframe.Field{Name: momentumEntryConditionCol, DType: dataframe.Bool},
	)

	layers := []schema.Layer{
		{
			schema.RollingMax(rawdata.Close, momentumHighCloseCol, momentumNPeriodHigh, momentumNPeriodHigh),
		},
		{
			schema.NPeriodHigh(rawdata.Close, momentumHighCloseCol, momentumEntryConditionCol),
		},
	}

	s, err := schema.New(fields, layers)
	if err != nil {
		return nil, err
	}
	return &Blueprint{ID: momentumTradingSystemName, Schematic: s, MinimumRows: momentumNPeriodHigh}, nil
}

const (
	laggedReturnsTradingSystemName = "ml_trading_system_example"
	laggedReturnsMinimumRows       = 5
	lag1Col                        = "lag_1"
	lag2Col                        = "lag_2"
	lag5Col                        = "lag_5"
	pctChangeShiftedCol            = "pct_change_shifted"
	targetCol                      = "target"
	targetPeriod                   = 1
)

// LaggedReturns builds the simplified lagged-returns example blueprint
// (original_source/blueprint.rs, ml::MLTradingSystemExample, without its
// sibling MetaLabelingExample's much larger feature catalog): lag_1, lag_2,
// lag_5 of close, a forward-shifted 5-period percent change, and an Int8
// target label that is 1 when that percent change is non-negative.
func LaggedReturns() (*Blueprint, error) {
	fields := append(rawdata.SchemaFields(),
		dataframe.Field{Name: lag1Col, DType: dataframe.Float64},
		dataframe.Field{Name: lag2Col, DType: dataframe.Float64},
		dataframe.Field{Name: lag5Col, DType: dataframe.Float64},
		dataframe.Field{Name: pctChangeShiftedCol, DType: dataframe.Float64},
		dataframe.Field{Name: targetCol, DType: dataframe.Int8},
	)

	layers := []schema.Layer{
		{
			schema.Shift(rawdata.Close, lag1Col, 1),
			schema.Shift(rawdata.Close, lag2Col, 2),
			schema.Shift(rawdata.Close, lag5Col, 5),
			schema.PctChange(rawdata.Close, pctChangeShiftedCol, 5, -targetPeriod),
		},
		{
			schema.GteZeroInt8(pctChangeShiftedCol, targetCol),
		},
	}

	s, err := schema.New(fields, layers)
	if err != nil {
		return nil, err
	}
	return &Blueprint{ID: laggedReturnsTradingSystemName, Schematic: s, MinimumRows: laggedReturnsMinimumRows}, nil
}

// Catalog returns every built-in blueprint. cmd/dfserviced registers each
// one's schematic with the collection and applies its minimum-rows setting.
func Catalog() ([]*Blueprint, error) {
	momentum, err := Momentum()
	if err != nil {
		return nil, err
	}
	laggedReturns, err := LaggedReturns()
	if err != nil {
		return nil, err
	}
	return []*Blueprint{momentum, laggedReturns}, nil
}
