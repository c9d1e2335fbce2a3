package command

import (
	"testing"

	"github.com/ghhag/stonkinator-dfservice/pkg/collection"
	"github.com/ghhag/stonkinator-dfservice/pkg/dataframe"
	"github.com/ghhag/stonkinator-dfservice/pkg/rawdata"
	"github.com/ghhag/stonkinator-dfservice/pkg/schema"
)

func testCollection(t *testing.T) *collection.DataFrameCollection {
	t.Helper()
	fields := append(rawdata.SchemaFields(), dataframe.Field{Name: "lag_1", DType: dataframe.Float64})
	layers := []schema.Layer{{schema.Shift(rawdata.Close, "lag_1", 1)}}
	s, err := schema.New(fields, layers)
	if err != nil {
		t.Fatalf("unexpected schema error: %v", err)
	}
	c := collection.New(map[string]*schema.DataFrameSchematic{"trading_system_example": s})
	if _, err := c.InsertInnerMap("AAA", "trading_system_example"); err != nil {
		t.Fatalf("unexpected error mapping pair: %v", err)
	}
	return c
}

func TestDispatchInfoTradingSystems(t *testing.T) {
	c := testCollection(t)
	cmd := ParseInfoCommand("trading_system")
	tickets := DispatchInfo(c, cmd)
	if len(tickets) != 1 || tickets[0] != "trading_system:trading_system_example" {
		t.Fatalf("unexpected tickets: %v", tickets)
	}
}

func TestDispatchInfoInstrumentReturnsRawTradingSystemIDs(t *testing.T) {
	c := testCollection(t)
	cmd := ParseInfoCommand("instrument:AAA")
	got := DispatchInfo(c, cmd)
	if len(got) != 1 || got[0] != "trading_system_example" {
		t.Fatalf("expected the raw trading_system_id list, got %v", got)
	}
}

func TestDispatchTicketOneToManyIsUnsupported(t *testing.T) {
	c := testCollection(t)
	cmd := ParseTicketCommand("trading_system:trading_system_example:instrument:AAA:BBB")
	_, err := DispatchTicket(c, cmd, -1, nil)
	if err == nil {
		t.Fatal("expected an error for a ticket form this version does not serve")
	}
}

func TestDispatchTicketOnePairServesData(t *testing.T) {
	c := testCollection(t)
	raw := &rawdata.Price{InstrumentID: "AAA", Open: 1, High: 1, Low: 1, Close: 1, Volume: 1, Timestamp: 1}
	if _, err := c.AppendDataPoint("AAA", raw); err != nil {
		t.Fatalf("unexpected append error: %v", err)
	}

	cmd := ParseTicketCommand("trading_system:trading_system_example:instrument:AAA")
	df, err := DispatchTicket(c, cmd, -1, nil)
	if err != nil {
		t.Fatalf("unexpected dispatch error: %v", err)
	}
	if df.Height() != 1 {
		t.Fatalf("expected 1 row, got %d", df.Height())
	}
}
