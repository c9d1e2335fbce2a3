// Package command implements the string-command grammar for listing and
// ticketing flights (spec.md §4.4): InfoCommand for discovery, TicketCommand
// for projection dispatch.
package command

import "strings"

// Reserved grammar tokens (spec.md §4.4).
const (
	TradingSystem = "trading_system"
	Instrument    = "instrument"
	Delimiter     = ":"
)

// InfoKind identifies one of the parsed InfoCommand variants.
type InfoKind int

const (
	// InfoUnknown is any string that does not match the InfoCommand grammar.
	InfoUnknown InfoKind = iota
	// InfoTradingSystems is the bare "trading_system" command.
	InfoTradingSystems
	// InfoTradingSystem is "trading_system:<id>".
	InfoTradingSystem
	// InfoInstrument is "instrument:<id>".
	InfoInstrument
)

// InfoCommand is a parsed InfoCommand grammar value.
type InfoCommand struct {
	Kind InfoKind
	ID   string
}

// ParseInfoCommand is a total function over the InfoCommand grammar
// (spec.md P4): every input string parses to some InfoCommand, defaulting to
// InfoUnknown.
func ParseInfoCommand(input string) InfoCommand {
	parts := strings.Split(input, Delimiter)
	switch {
	case len(parts) == 1 && parts[0] == TradingSystem:
		return InfoCommand{Kind: InfoTradingSystems}
	case len(parts) == 2 && parts[0] == TradingSystem:
		return InfoCommand{Kind: InfoTradingSystem, ID: parts[1]}
	case len(parts) == 2 && parts[0] == Instrument:
		return InfoCommand{Kind: InfoInstrument, ID: parts[1]}
	default:
		return InfoCommand{Kind: InfoUnknown}
	}
}

// String renders the canonical grammar form of a non-Unknown InfoCommand
// (spec.md P4, round-trip property).
func (c InfoCommand) String() string {
	switch c.Kind {
	case InfoTradingSystems:
		return TradingSystem
	case InfoTradingSystem:
		return TradingSystem + Delimiter + c.ID
	case InfoInstrument:
		return Instrument + Delimiter + c.ID
	default:
		return ""
	}
}

// TicketKind identifies one of the parsed TicketCommand variants.
type TicketKind int

const (
	// TicketUnknown is any string that does not match the TicketCommand
	// grammar.
	TicketUnknown TicketKind = iota
	// TicketOnePair is "trading_system:<t>:instrument:<i>" — the only form
	// that produces Arrow data in this version.
	TicketOnePair
	// TicketOneToMany is "trading_system:<t>:instrument:<i1>:...:<in>"
	// (n>=2). Parses but dispatch returns Unsupported.
	TicketOneToMany
	// TicketOnePairRev is "instrument:<i>:trading_system:<t>".
	TicketOnePairRev
	// TicketManyToOneRev is "instrument:<i>:trading_system:<t1>:...:<tn>"
	// (n>=2). Parses but dispatch returns Unsupported.
	TicketManyToOneRev
)

// TicketCommand is a parsed TicketCommand grammar value. TradingSystemID and
// InstrumentID hold the single-identifier forms; IDs holds the many-valued
// tail for the OneToMany/ManyToOneRev forms.
type TicketCommand struct {
	Kind            TicketKind
	TradingSystemID string
	InstrumentID    string
	IDs             []string
}

// ParseTicketCommand is a total function over the TicketCommand grammar
// (spec.md P4): every input string parses to some TicketCommand, defaulting
// to TicketUnknown.
func ParseTicketCommand(input string) TicketCommand {
	parts := strings.Split(input, Delimiter)

	switch {
	case len(parts) == 4 && parts[0] == TradingSystem && parts[2] == Instrument:
		return TicketCommand{Kind: TicketOnePair, TradingSystemID: parts[1], InstrumentID: parts[3]}

	case len(parts) > 4 && parts[0] == TradingSystem && parts[2] == Instrument:
		return TicketCommand{Kind: TicketOneToMany, TradingSystemID: parts[1], IDs: append([]string(nil), parts[3:]...)}

	case len(parts) == 4 && parts[0] == Instrument && parts[2] == TradingSystem:
		return TicketCommand{Kind: TicketOnePairRev, InstrumentID: parts[1], TradingSystemID: parts[3]}

	case len(parts) > 4 && parts[0] == Instrument && parts[2] == TradingSystem:
		return TicketCommand{Kind: TicketManyToOneRev, InstrumentID: parts[1], IDs: append([]string(nil), parts[3:]...)}

	default:
		return TicketCommand{Kind: TicketUnknown}
	}
}

// String renders the canonical grammar form of a non-Unknown TicketCommand
// (spec.md P4, round-trip property).
func (c TicketCommand) String() string {
	switch c.Kind {
	case TicketOnePair:
		return strings.Join([]string{TradingSystem, c.TradingSystemID, Instrument, c.InstrumentID}, Delimiter)
	case TicketOneToMany:
		parts := append([]string{TradingSystem, c.TradingSystemID, Instrument}, c.IDs...)
		return strings.Join(parts, Delimiter)
	case TicketOnePairRev:
		return strings.Join([]string{Instrument, c.InstrumentID, TradingSystem, c.TradingSystemID}, Delimiter)
	case TicketManyToOneRev:
		parts := append([]string{Instrument, c.InstrumentID, TradingSystem}, c.IDs...)
		return strings.Join(parts, Delimiter)
	default:
		return ""
	}
}
