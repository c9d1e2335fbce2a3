package command

import "testing"

func TestParseInfoCommandRoundTrip(t *testing.T) {
	cases := []string{
		"trading_system",
		"trading_system:trading_system_example",
		"instrument:AAA",
	}
	for _, in := range cases {
		cmd := ParseInfoCommand(in)
		if cmd.Kind == InfoUnknown {
			t.Fatalf("expected %q to parse, got Unknown", in)
		}
		if got := cmd.String(); got != in {
			t.Fatalf("round-trip mismatch for %q: got %q", in, got)
		}
	}
}

func TestParseInfoCommandUnknownIsTotal(t *testing.T) {
	cmd := ParseInfoCommand("not:a:valid:command:at:all")
	if cmd.Kind != InfoUnknown {
		t.Fatalf("expected InfoUnknown for malformed input, got %v", cmd.Kind)
	}
}

func TestParseTicketCommandOnePair(t *testing.T) {
	in := "trading_system:trading_system_example:instrument:AAA"
	cmd := ParseTicketCommand(in)
	if cmd.Kind != TicketOnePair {
		t.Fatalf("expected TicketOnePair, got %v", cmd.Kind)
	}
	if cmd.TradingSystemID != "trading_system_example" || cmd.InstrumentID != "AAA" {
		t.Fatalf("unexpected parse result: %+v", cmd)
	}
	if got := cmd.String(); got != in {
		t.Fatalf("round-trip mismatch: got %q, want %q", got, in)
	}
}

func TestParseTicketCommandOneToMany(t *testing.T) {
	in := "trading_system:trading_system_example:instrument:AAA:BBB"
	cmd := ParseTicketCommand(in)
	if cmd.Kind != TicketOneToMany {
		t.Fatalf("expected TicketOneToMany, got %v", cmd.Kind)
	}
	if len(cmd.IDs) != 2 || cmd.IDs[0] != "AAA" || cmd.IDs[1] != "BBB" {
		t.Fatalf("unexpected ids: %v", cmd.IDs)
	}
}

func TestParseTicketCommandUnknownIsTotal(t *testing.T) {
	cmd := ParseTicketCommand("garbage")
	if cmd.Kind != TicketUnknown {
		t.Fatalf("expected TicketUnknown, got %v", cmd.Kind)
	}
	if cmd.String() != "" {
		t.Fatalf("expected empty canonical form for Unknown, got %q", cmd.String())
	}
}
