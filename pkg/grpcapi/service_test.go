package grpcapi

import (
	"testing"
	"time"

	"github.com/ghhag/stonkinator-dfservice/pkg/collection"
	"github.com/ghhag/stonkinator-dfservice/pkg/dataframe"
	"github.com/ghhag/stonkinator-dfservice/pkg/dferr"
	"github.com/ghhag/stonkinator-dfservice/pkg/rawdata"
	"github.com/ghhag/stonkinator-dfservice/pkg/schema"
)

const testTradingSystemID = "trading_system_example"

func testService(t *testing.T) *DataFrameService {
	t.Helper()
	fields := append(rawdata.SchemaFields(), dataframe.Field{Name: "lag_1", DType: dataframe.Float64})
	layers := []schema.Layer{{schema.Shift(rawdata.Close, "lag_1", 1)}}
	s, err := schema.New(fields, layers)
	if err != nil {
		t.Fatalf("unexpected schema error: %v", err)
	}
	coll := collection.New(map[string]*schema.DataFrameSchematic{testTradingSystemID: s})
	return NewDataFrameService(coll, nil)
}

func wirePrice(instrumentID string, close float64, ts time.Time) *Price {
	return &Price{
		InstrumentID: instrumentID,
		Open:         close,
		High:         close,
		Low:          close,
		Close:        close,
		Volume:       100,
		Timestamp:    &ts,
	}
}

func TestMapTradingSystemInstrumentCreatesMapping(t *testing.T) {
	s := testService(t)
	req := OperateOn{Identifier: StrIdentifier(testTradingSystemID), AltIdentifier: StrIdentifier("AAA")}

	cud, err := s.MapTradingSystemInstrument(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cud.NumAffected != 1 {
		t.Fatalf("expected 1 affected, got %d", cud.NumAffected)
	}

	if _, ok := s.Collection.InnerKeysOfOuter("AAA"); !ok {
		t.Fatal("expected the mapping to be visible afterwards")
	}
}

func TestMapTradingSystemInstrumentRejectsIntegerID(t *testing.T) {
	s := testService(t)
	req := OperateOn{Identifier: IntIdentifier(1), AltIdentifier: StrIdentifier("AAA")}

	_, err := s.MapTradingSystemInstrument(req)
	if !dferr.Is(err, dferr.KindInvalidArgument) {
		t.Fatalf("expected InvalidArgument for an integer id, got %v", err)
	}
}

func TestPushPriceAppendsATick(t *testing.T) {
	s := testService(t)
	if _, err := s.MapTradingSystemInstrument(OperateOn{
		Identifier:    StrIdentifier(testTradingSystemID),
		AltIdentifier: StrIdentifier("AAA"),
	}); err != nil {
		t.Fatalf("unexpected mapping error: %v", err)
	}

	cud, err := s.PushPrice(wirePrice("AAA", 10, time.Unix(1, 0)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cud.NumAffected != 1 {
		t.Fatalf("expected 1 frame extended, got %d", cud.NumAffected)
	}
}

func TestPushPriceRejectsMissingTimestamp(t *testing.T) {
	s := testService(t)
	if _, err := s.MapTradingSystemInstrument(OperateOn{
		Identifier:    StrIdentifier(testTradingSystemID),
		AltIdentifier: StrIdentifier("AAA"),
	}); err != nil {
		t.Fatalf("unexpected mapping error: %v", err)
	}

	_, err := s.PushPrice(&Price{InstrumentID: "AAA", Close: 10})
	if !dferr.Is(err, dferr.KindInvalidArgument) {
		t.Fatalf("expected InvalidArgument for a missing timestamp, got %v", err)
	}
}

func TestPushPriceStreamAppendsEveryRow(t *testing.T) {
	s := testService(t)
	if _, err := s.MapTradingSystemInstrument(OperateOn{
		Identifier:    StrIdentifier(testTradingSystemID),
		AltIdentifier: StrIdentifier("AAA"),
	}); err != nil {
		t.Fatalf("unexpected mapping error: %v", err)
	}

	prices := []*Price{
		wirePrice("AAA", 10, time.Unix(1, 0)),
		wirePrice("AAA", 11, time.Unix(2, 0)),
		wirePrice("AAA", 12, time.Unix(3, 0)),
	}
	cud, err := s.PushPriceStream(prices)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cud.NumAffected != 1 {
		t.Fatalf("expected 1 frame extended, got %d", cud.NumAffected)
	}
	stats := s.Collection.Stats()
	if len(stats) != 1 || stats[0].Height != 3 {
		t.Fatalf("expected one frame of height 3, got %+v", stats)
	}
}

func TestSetMinimumRowsAcceptsRegisteredTradingSystem(t *testing.T) {
	s := testService(t)
	if _, err := s.MapTradingSystemInstrument(OperateOn{
		Identifier:    StrIdentifier(testTradingSystemID),
		AltIdentifier: StrIdentifier("AAA"),
	}); err != nil {
		t.Fatalf("unexpected mapping error: %v", err)
	}

	cud, err := s.SetMinimumRows(MinimumRows{
		OperateOn: OperateOn{Identifier: StrIdentifier(testTradingSystemID)},
		NumRows:   3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cud.NumAffected != 1 {
		t.Fatalf("expected 1 affected, got %d", cud.NumAffected)
	}
}

func TestCheckPresenceReportsMappedPair(t *testing.T) {
	s := testService(t)
	req := OperateOn{Identifier: StrIdentifier(testTradingSystemID), AltIdentifier: StrIdentifier("AAA")}
	if _, err := s.MapTradingSystemInstrument(req); err != nil {
		t.Fatalf("unexpected mapping error: %v", err)
	}

	present, err := s.CheckPresence(GetBy{Identifier: StrIdentifier(testTradingSystemID), AltIdentifier: StrIdentifier("AAA")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !present.IsPresent {
		t.Fatal("expected the mapped pair to be reported present")
	}

	absent, err := s.CheckPresence(GetBy{Identifier: StrIdentifier(testTradingSystemID), AltIdentifier: StrIdentifier("BBB")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if absent.IsPresent {
		t.Fatal("expected an unmapped pair to be reported absent")
	}
}

func TestEvictInstrumentOnlyClearsEveryMappedCell(t *testing.T) {
	s := testService(t)
	req := OperateOn{Identifier: StrIdentifier(testTradingSystemID), AltIdentifier: StrIdentifier("AAA")}
	if _, err := s.MapTradingSystemInstrument(req); err != nil {
		t.Fatalf("unexpected mapping error: %v", err)
	}
	if _, err := s.PushPrice(wirePrice("AAA", 10, time.Unix(1, 0))); err != nil {
		t.Fatalf("unexpected push error: %v", err)
	}

	cud, err := s.Evict(OperateOn{AltIdentifier: StrIdentifier("AAA")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cud.NumAffected != 1 {
		t.Fatalf("expected 1 cell evicted, got %d", cud.NumAffected)
	}
}

func TestDropDataFrameCollectionEntryRemovesMapping(t *testing.T) {
	s := testService(t)
	req := OperateOn{Identifier: StrIdentifier(testTradingSystemID), AltIdentifier: StrIdentifier("AAA")}
	if _, err := s.MapTradingSystemInstrument(req); err != nil {
		t.Fatalf("unexpected mapping error: %v", err)
	}

	cud, err := s.DropDataFrameCollectionEntry(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cud.NumAffected != 1 {
		t.Fatalf("expected 1 affected, got %d", cud.NumAffected)
	}
	if _, ok := s.Collection.InnerKeysOfOuter("AAA"); ok {
		t.Fatal("expected the mapping to be gone")
	}
}
