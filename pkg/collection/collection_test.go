package collection

import (
	"testing"

	"github.com/ghhag/stonkinator-dfservice/pkg/dataframe"
	"github.com/ghhag/stonkinator-dfservice/pkg/dferr"
	"github.com/ghhag/stonkinator-dfservice/pkg/rawdata"
	"github.com/ghhag/stonkinator-dfservice/pkg/schema"
)

const tradingSystemID = "trading_system_example"
const instrumentID = "AAA"

func momentumSchematic(t *testing.T) *schema.DataFrameSchematic {
	t.Helper()
	fields := append(rawdata.SchemaFields(),
		dataframe.Field{Name: "5_period_high_close", DType: dataframe.Float64},
		dataframe.Field{Name: "5_period_highest_close", DType: dataframe.Bool},
	)
	layers := []schema.Layer{
		{schema.RollingMax(rawdata.Close, "5_period_high_close", 5, 5)},
		{schema.NPeriodHigh(rawdata.Close, "5_period_high_close", "5_period_highest_close")},
	}
	s, err := schema.New(fields, layers)
	if err != nil {
		t.Fatalf("unexpected schema error: %v", err)
	}
	return s
}

func newTestCollection(t *testing.T) *DataFrameCollection {
	t.Helper()
	schematics := map[string]*schema.DataFrameSchematic{tradingSystemID: momentumSchematic(t)}
	c := New(schematics)
	c.SetMinimumRows(tradingSystemID, 5)
	return c
}

func price(close float64, ts uint64) *rawdata.Price {
	return &rawdata.Price{
		InstrumentID: instrumentID,
		Open:         close,
		High:         close,
		Low:          close,
		Close:        close,
		Volume:       100,
		Timestamp:    ts,
	}
}

func TestProjectEnforcesMinimumRows(t *testing.T) {
	c := newTestCollection(t)
	if _, err := c.InsertInnerMap(instrumentID, tradingSystemID); err != nil {
		t.Fatalf("unexpected error mapping pair: %v", err)
	}
	for i, close := range []float64{10, 11, 12} {
		if _, err := c.AppendDataPoint(instrumentID, price(close, uint64(i+1))); err != nil {
			t.Fatalf("unexpected append error: %v", err)
		}
	}

	_, err := c.Project(instrumentID, tradingSystemID, -1, nil)
	if !dferr.Is(err, dferr.KindNotReady) {
		t.Fatalf("expected NotReady below minimum rows, got %v", err)
	}

	if _, err := c.AppendDataPoint(instrumentID, price(13, 4)); err != nil {
		t.Fatalf("unexpected append error: %v", err)
	}
	if _, err := c.AppendDataPoint(instrumentID, price(14, 5)); err != nil {
		t.Fatalf("unexpected append error: %v", err)
	}

	df, err := c.Project(instrumentID, tradingSystemID, -1, nil)
	if err != nil {
		t.Fatalf("unexpected error once minimum rows is met: %v", err)
	}
	highest, ok := df.Column("5_period_highest_close")
	if !ok {
		t.Fatal("expected 5_period_highest_close column in the projection")
	}
	v, valid := highest.At(4)
	if !valid || v.(bool) != true {
		t.Fatalf("expected the fifth row to flag a new 5-period high, got %v (valid=%v)", v, valid)
	}
}

func TestAppendDataPointRejectsNonIncreasingTimestamp(t *testing.T) {
	c := newTestCollection(t)
	if _, err := c.InsertInnerMap(instrumentID, tradingSystemID); err != nil {
		t.Fatalf("unexpected error mapping pair: %v", err)
	}
	if _, err := c.AppendDataPoint(instrumentID, price(10, 5)); err != nil {
		t.Fatalf("unexpected append error: %v", err)
	}
	_, err := c.AppendDataPoint(instrumentID, price(11, 5))
	if !dferr.Is(err, dferr.KindOrderingViolation) {
		t.Fatalf("expected OrderingViolation for a non-increasing timestamp, got %v", err)
	}
}

func TestAppendDataPointUnmappedInstrumentIsNotFound(t *testing.T) {
	c := newTestCollection(t)
	_, err := c.AppendDataPoint("unmapped", price(10, 1))
	if !dferr.Is(err, dferr.KindNotFound) {
		t.Fatalf("expected NotFound for an unmapped instrument, got %v", err)
	}
}

func TestEvictDfRetainsMappingAndSchema(t *testing.T) {
	c := newTestCollection(t)
	if _, err := c.InsertInnerMap(instrumentID, tradingSystemID); err != nil {
		t.Fatalf("unexpected error mapping pair: %v", err)
	}
	for i, close := range []float64{10, 11, 12, 13, 14} {
		if _, err := c.AppendDataPoint(instrumentID, price(close, uint64(i+1))); err != nil {
			t.Fatalf("unexpected append error: %v", err)
		}
	}

	ok, err := c.EvictDf(instrumentID, tradingSystemID)
	if err != nil || !ok {
		t.Fatalf("expected eviction to succeed, ok=%v err=%v", ok, err)
	}

	_, err = c.Project(instrumentID, tradingSystemID, -1, nil)
	if !dferr.Is(err, dferr.KindNotReady) {
		t.Fatalf("expected NotReady after eviction drops height below minimum, got %v", err)
	}

	tsIDs, mapped := c.InnerKeysOfOuter(instrumentID)
	if !mapped || len(tsIDs) != 1 || tsIDs[0] != tradingSystemID {
		t.Fatalf("expected the mapping to survive eviction, got %v mapped=%v", tsIDs, mapped)
	}
}

func TestStatsReportsMaterializedCells(t *testing.T) {
	c := newTestCollection(t)
	if _, err := c.InsertInnerMap(instrumentID, tradingSystemID); err != nil {
		t.Fatalf("unexpected error mapping pair: %v", err)
	}

	stats := c.Stats()
	if len(stats) != 1 || stats[0].Materialized {
		t.Fatalf("expected one unmaterialized cell, got %+v", stats)
	}

	if _, err := c.AppendDataPoint(instrumentID, price(10, 1)); err != nil {
		t.Fatalf("unexpected append error: %v", err)
	}

	stats = c.Stats()
	if len(stats) != 1 || !stats[0].Materialized || stats[0].Height != 1 {
		t.Fatalf("expected one materialized cell at height 1, got %+v", stats)
	}
}
