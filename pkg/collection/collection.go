// Package collection implements DataFrameCollection, the concurrent
// two-level indexed store of columnar frames (spec.md §4.3): append,
// eviction, presence, and projection-to-Arrow operations over one FrameCell
// per (instrument_id, trading_system_id) pair.
package collection

import (
	"sort"
	"sync"

	"github.com/ghhag/stonkinator-dfservice/pkg/dataframe"
	"github.com/ghhag/stonkinator-dfservice/pkg/dferr"
	"github.com/ghhag/stonkinator-dfservice/pkg/rawdata"
	"github.com/ghhag/stonkinator-dfservice/pkg/schema"
)

// DataFrameCollection is the process-wide, two-level indexed store of
// frames. Schematics are registered once at construction and never mutated
// afterward; schematics itself is read without locking on that basis
// (spec.md §3, "Lifecycle").
type DataFrameCollection struct {
	mu sync.RWMutex

	schematics map[string]*schema.DataFrameSchematic

	// frames[instrument_id][trading_system_id] == nil means the pair is
	// mapped (insert_inner_map has run) but no frame has been materialized
	// yet (spec.md I4).
	frames map[string]map[string]*FrameCell

	// pairIndex[trading_system_id] is the set of mapped instrument_id,
	// maintained coherently with frames (spec.md I3).
	pairIndex map[string]map[string]bool

	minRowsOverrides map[string]uint32
}

// New constructs a collection with the given boot-time schematic registry.
// schematics is retained as-is and must not be mutated by the caller
// afterward.
func New(schematics map[string]*schema.DataFrameSchematic) *DataFrameCollection {
	return &DataFrameCollection{
		schematics:       schematics,
		frames:           make(map[string]map[string]*FrameCell),
		pairIndex:        make(map[string]map[string]bool),
		minRowsOverrides: make(map[string]uint32),
	}
}

// InsertInnerMap records that (instrumentID, tradingSystemID) is a valid
// pair. Returns true iff newly created; duplicates are a no-op returning
// false. Fails if tradingSystemID is not registered.
func (c *DataFrameCollection) InsertInnerMap(instrumentID, tradingSystemID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.schematics[tradingSystemID]; !ok {
		return false, dferr.New(dferr.KindNotFound, "trading_system_id %q is not registered", tradingSystemID)
	}

	inner, ok := c.frames[instrumentID]
	if !ok {
		inner = make(map[string]*FrameCell)
		c.frames[instrumentID] = inner
	}
	if _, exists := inner[tradingSystemID]; exists {
		return false, nil
	}
	inner[tradingSystemID] = nil

	set, ok := c.pairIndex[tradingSystemID]
	if !ok {
		set = make(map[string]bool)
		c.pairIndex[tradingSystemID] = set
	}
	set[instrumentID] = true

	return true, nil
}

// mappedTradingSystems returns a snapshot of the trading_system_ids mapped
// to instrumentID, or nil if the instrument is entirely unmapped.
func (c *DataFrameCollection) mappedTradingSystems(instrumentID string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	inner, ok := c.frames[instrumentID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(inner))
	for tsID := range inner {
		out = append(out, tsID)
	}
	return out
}

// getOrCreateCell returns the cell for an already-mapped pair, lazily
// materializing it on first use (spec.md I4). The common case (cell already
// exists) only needs the collection's read lock; creation escalates to the
// write lock with a double-check.
func (c *DataFrameCollection) getOrCreateCell(instrumentID, tradingSystemID string) (*FrameCell, error) {
	c.mu.RLock()
	if inner, ok := c.frames[instrumentID]; ok {
		if cell, ok := inner[tradingSystemID]; ok && cell != nil {
			c.mu.RUnlock()
			return cell, nil
		}
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	inner, ok := c.frames[instrumentID]
	if !ok {
		return nil, dferr.New(dferr.KindNotFound, "instrument %q is not mapped to trading_system %q", instrumentID, tradingSystemID)
	}
	if cell, ok := inner[tradingSystemID]; ok && cell != nil {
		return cell, nil
	}
	if _, ok := inner[tradingSystemID]; !ok {
		return nil, dferr.New(dferr.KindNotFound, "instrument %q is not mapped to trading_system %q", instrumentID, tradingSystemID)
	}

	s, ok := c.schematics[tradingSystemID]
	if !ok {
		return nil, dferr.New(dferr.KindNotFound, "trading_system_id %q is not registered", tradingSystemID)
	}
	cell := newFrameCell(s.NewEmptyFrame(), c.minRowsOverrides[tradingSystemID])
	inner[tradingSystemID] = cell
	return cell, nil
}

// lookupExistingCell returns an already-materialized cell without creating
// one; used by read-only operations (project, evict) where a missing frame
// is simply NotFound.
func (c *DataFrameCollection) lookupExistingCell(instrumentID, tradingSystemID string) (*FrameCell, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	inner, ok := c.frames[instrumentID]
	if !ok {
		return nil, dferr.New(dferr.KindNotFound, "no such (instrument, trading_system) cell")
	}
	cell, ok := inner[tradingSystemID]
	if !ok || cell == nil {
		return nil, dferr.New(dferr.KindNotFound, "no such (instrument, trading_system) cell")
	}
	return cell, nil
}

// AppendDataPoint lazily materializes a FrameCell for every trading_system_id
// mapped to instrumentID, validates and appends raw to each, and returns the
// number of frames successfully extended. Errors are per-frame and
// accumulated; the aggregate succeeds as long as at least one frame
// advanced, otherwise the first error is returned.
func (c *DataFrameCollection) AppendDataPoint(instrumentID string, raw rawdata.RawData) (uint32, error) {
	tsIDs := c.mappedTradingSystems(instrumentID)
	if len(tsIDs) == 0 {
		return 0, dferr.New(dferr.KindNotFound, "instrument %q is not mapped to any trading system", instrumentID)
	}

	var count uint32
	var firstErr error
	for _, tsID := range tsIDs {
		cell, err := c.getOrCreateCell(instrumentID, tsID)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s := c.schematics[tsID]
		if err := cell.appendDataPoint(s, raw); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		count++
	}

	if count == 0 && firstErr != nil {
		return 0, firstErr
	}
	return count, nil
}

// AppendSeries is the bulk variant of AppendDataPoint: seriesMap maps column
// name to column vector, all of length n. Appends are atomic per frame under
// that frame's cell lock.
func (c *DataFrameCollection) AppendSeries(instrumentID string, seriesMap map[string]*dataframe.Series, n int, exemplar rawdata.RawData) (uint32, error) {
	tsIDs := c.mappedTradingSystems(instrumentID)
	if len(tsIDs) == 0 {
		return 0, dferr.New(dferr.KindNotFound, "instrument %q is not mapped to any trading system", instrumentID)
	}

	var count uint32
	var firstErr error
	for _, tsID := range tsIDs {
		cell, err := c.getOrCreateCell(instrumentID, tsID)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s := c.schematics[tsID]
		if err := cell.appendSeries(s, seriesMap, n, exemplar); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		count++
	}

	if count == 0 && firstErr != nil {
		return 0, firstErr
	}
	return count, nil
}

// SetMinimumRows updates the minimum-rows override for tradingSystemID and
// propagates it to every already-materialized cell under that trading
// system. Returns false if tradingSystemID is not registered.
func (c *DataFrameCollection) SetMinimumRows(tradingSystemID string, n uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.schematics[tradingSystemID]; !ok {
		return false
	}
	c.minRowsOverrides[tradingSystemID] = n

	for instrumentID := range c.pairIndex[tradingSystemID] {
		if inner, ok := c.frames[instrumentID]; ok {
			if cell, ok := inner[tradingSystemID]; ok && cell != nil {
				cell.setMinRows(n)
			}
		}
	}
	return true
}

// InnerKeysOfOuter returns a snapshot of trading_system_ids mapped to
// instrumentID, and whether instrumentID is mapped at all.
func (c *DataFrameCollection) InnerKeysOfOuter(instrumentID string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	inner, ok := c.frames[instrumentID]
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(inner))
	for tsID := range inner {
		out = append(out, tsID)
	}
	sort.Strings(out)
	return out, true
}

// OuterKeysOfInner returns a snapshot of instrument_ids mapped to
// tradingSystemID. Errors NotFound if tradingSystemID is not registered.
func (c *DataFrameCollection) OuterKeysOfInner(tradingSystemID string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.schematics[tradingSystemID]; !ok {
		return nil, dferr.New(dferr.KindNotFound, "trading_system_id %q is not registered", tradingSystemID)
	}
	set := c.pairIndex[tradingSystemID]
	out := make([]string, 0, len(set))
	for instrumentID := range set {
		out = append(out, instrumentID)
	}
	sort.Strings(out)
	return out, nil
}

// DfSchematicKeys returns a snapshot of every registered trading_system_id.
func (c *DataFrameCollection) DfSchematicKeys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.schematics))
	for tsID := range c.schematics {
		out = append(out, tsID)
	}
	sort.Strings(out)
	return out
}

// EvictDf empties the (instrumentID, tradingSystemID) frame, retaining the
// mapping and schema shell. Returns false if no such cell exists.
func (c *DataFrameCollection) EvictDf(instrumentID, tradingSystemID string) (bool, error) {
	cell, err := c.lookupExistingCell(instrumentID, tradingSystemID)
	if err != nil {
		return false, nil
	}
	cell.evict()
	return true, nil
}

// EvictInner empties every frame mapped to tradingSystemID. Returns the
// count of frames emptied.
func (c *DataFrameCollection) EvictInner(tradingSystemID string) (uint32, error) {
	instrumentIDs, err := c.OuterKeysOfInner(tradingSystemID)
	if err != nil {
		return 0, err
	}
	var count uint32
	for _, instrumentID := range instrumentIDs {
		if ok, _ := c.EvictDf(instrumentID, tradingSystemID); ok {
			count++
		}
	}
	return count, nil
}

// EvictOuter empties every frame mapped to instrumentID. Returns the count
// of frames emptied.
func (c *DataFrameCollection) EvictOuter(instrumentID string) (uint32, error) {
	tsIDs, ok := c.InnerKeysOfOuter(instrumentID)
	if !ok {
		return 0, dferr.New(dferr.KindNotFound, "instrument %q is not mapped to any trading system", instrumentID)
	}
	var count uint32
	for _, tsID := range tsIDs {
		if ok, _ := c.EvictDf(instrumentID, tsID); ok {
			count++
		}
	}
	return count, nil
}

// RemoveDfMapEntry removes the cell entirely and updates pair_index. Returns
// true iff it existed.
func (c *DataFrameCollection) RemoveDfMapEntry(instrumentID, tradingSystemID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inner, ok := c.frames[instrumentID]
	if !ok {
		return false, nil
	}
	if _, ok := inner[tradingSystemID]; !ok {
		return false, nil
	}
	delete(inner, tradingSystemID)
	if len(inner) == 0 {
		delete(c.frames, instrumentID)
	}
	if set, ok := c.pairIndex[tradingSystemID]; ok {
		delete(set, instrumentID)
		if len(set) == 0 {
			delete(c.pairIndex, tradingSystemID)
		}
	}
	return true, nil
}

// Project returns a snapshot projection of the (instrumentID,
// tradingSystemID) frame, dropping excludeColumns (missing names ignored)
// and keeping only the last numRows rows (numRows < 0 means all rows).
// Enforces I6 (NotReady) and NotFound for a missing cell.
func (c *DataFrameCollection) Project(instrumentID, tradingSystemID string, numRows int, excludeColumns []string) (*dataframe.DataFrame, error) {
	cell, err := c.lookupExistingCell(instrumentID, tradingSystemID)
	if err != nil {
		return nil, err
	}
	return cell.project(numRows, excludeColumns)
}

// Stats is a read-only diagnostic snapshot of one cell's row count and
// configured minimum rows, supplementing §4.3 (not a new mutation path).
type Stats struct {
	InstrumentID    string
	TradingSystemID string
	Height          int
	MinRows         uint32
	Materialized    bool
}

// Stats returns a diagnostic snapshot for every mapped (instrument,
// trading_system) pair.
func (c *DataFrameCollection) Stats() []Stats {
	c.mu.RLock()
	type pair struct{ instrumentID, tradingSystemID string }
	var pairs []pair
	cells := make(map[pair]*FrameCell)
	for instrumentID, inner := range c.frames {
		for tradingSystemID, cell := range inner {
			p := pair{instrumentID, tradingSystemID}
			pairs = append(pairs, p)
			cells[p] = cell
		}
	}
	minRows := make(map[string]uint32, len(c.minRowsOverrides))
	for k, v := range c.minRowsOverrides {
		minRows[k] = v
	}
	c.mu.RUnlock()

	out := make([]Stats, 0, len(pairs))
	for _, p := range pairs {
		cell := cells[p]
		st := Stats{
			InstrumentID:    p.instrumentID,
			TradingSystemID: p.tradingSystemID,
			MinRows:         minRows[p.tradingSystemID],
			Materialized:    cell != nil,
		}
		if cell != nil {
			st.Height = cell.height()
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TradingSystemID != out[j].TradingSystemID {
			return out[i].TradingSystemID < out[j].TradingSystemID
		}
		return out[i].InstrumentID < out[j].InstrumentID
	})
	return out
}
