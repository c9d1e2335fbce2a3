package command

import (
	"strings"

	"github.com/ghhag/stonkinator-dfservice/pkg/collection"
	"github.com/ghhag/stonkinator-dfservice/pkg/dataframe"
	"github.com/ghhag/stonkinator-dfservice/pkg/dferr"
)

// DispatchInfo maps a parsed InfoCommand to a list of ticket strings
// (spec.md §4.4), except for InfoInstrument, which returns the raw
// trading_system_id list without a ticket prefix. Unknown commands produce
// an empty list, not an error.
func DispatchInfo(c *collection.DataFrameCollection, cmd InfoCommand) []string {
	switch cmd.Kind {
	case InfoTradingSystems:
		var tickets []string
		for _, tsID := range c.DfSchematicKeys() {
			tickets = append(tickets, strings.Join([]string{TradingSystem, tsID}, Delimiter))
		}
		return tickets

	case InfoTradingSystem:
		instrumentIDs, err := c.OuterKeysOfInner(cmd.ID)
		if err != nil {
			return nil
		}
		tickets := make([]string, 0, len(instrumentIDs))
		for _, instrumentID := range instrumentIDs {
			tickets = append(tickets, strings.Join([]string{TradingSystem, cmd.ID, Instrument, instrumentID}, Delimiter))
		}
		return tickets

	case InfoInstrument:
		tradingSystemIDs, ok := c.InnerKeysOfOuter(cmd.ID)
		if !ok {
			return nil
		}
		return tradingSystemIDs

	default:
		return nil
	}
}

// DispatchTicket maps a parsed TicketCommand to a projected frame.
// TicketOnePair is the only form that produces Arrow data in this version;
// every other form (including the ones that parse successfully,
// TicketOnePairRev, TicketOneToMany and TicketManyToOneRev) returns InvalidArgument
// ("Unsupported", spec.md §4.4 Open Question).
func DispatchTicket(c *collection.DataFrameCollection, cmd TicketCommand, numRows int, excludeColumns []string) (*dataframe.DataFrame, error) {
	if cmd.Kind != TicketOnePair {
		return nil, dferr.New(dferr.KindInvalidArgument, "unsupported ticket command %q", cmd)
	}
	return c.Project(cmd.InstrumentID, cmd.TradingSystemID, numRows, excludeColumns)
}
