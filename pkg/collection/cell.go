package collection

import (
	"sync"

	"github.com/ghhag/stonkinator-dfservice/pkg/dataframe"
	"github.com/ghhag/stonkinator-dfservice/pkg/dferr"
	"github.com/ghhag/stonkinator-dfservice/pkg/rawdata"
	"github.com/ghhag/stonkinator-dfservice/pkg/schema"
)

// FrameCell is the per-frame storage slot plus its exclusive-mutation lock
// (spec.md §3, "FrameCell"). The collection looks up a cell's pointer under
// its own read lock, then releases that lock before acquiring cell.mu — the
// collection lock never stays held across frame work (spec.md §5).
type FrameCell struct {
	mu      sync.RWMutex
	frame   *dataframe.DataFrame
	minRows uint32
}

func newFrameCell(frame *dataframe.DataFrame, minRows uint32) *FrameCell {
	return &FrameCell{frame: frame, minRows: minRows}
}

func (c *FrameCell) setMinRows(n uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.minRows = n
}

// appendDataPoint validates, appends, and reapplies the schematic under the
// cell's exclusive lock, atomically: a validation failure leaves the frame
// untouched.
func (c *FrameCell) appendDataPoint(s *schema.DataFrameSchematic, raw rawdata.RawData) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	valid, err := raw.Validate(c.frame)
	if err != nil {
		return dferr.Wrap(dferr.KindCompute, err, "validating raw data point")
	}
	if !valid {
		return dferr.New(dferr.KindOrderingViolation, "timestamp does not exceed the frame's last stored timestamp")
	}

	row, err := raw.Format()
	if err != nil {
		return dferr.Wrap(dferr.KindCompute, err, "formatting raw data point")
	}
	if err := c.frame.AppendPartialRow(row); err != nil {
		return dferr.Wrap(dferr.KindCompute, err, "appending raw row")
	}
	if err := s.Apply(c.frame); err != nil {
		return err
	}
	return nil
}

// appendSeries validates, bulk-appends, and reapplies the schematic under
// the cell's exclusive lock, atomically: the entire batch is rejected (frame
// left unchanged) if validation fails.
func (c *FrameCell) appendSeries(s *schema.DataFrameSchematic, seriesMap map[string]*dataframe.Series, n int, exemplar rawdata.RawData) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	valid, err := exemplar.ValidateSeries(seriesMap, c.frame)
	if err != nil {
		return dferr.Wrap(dferr.KindCompute, err, "validating raw series")
	}
	if !valid {
		return dferr.New(dferr.KindOrderingViolation, "series head timestamp does not exceed the frame's last stored timestamp")
	}

	if err := c.frame.AppendPartialSeries(seriesMap, n); err != nil {
		return dferr.Wrap(dferr.KindCompute, err, "appending raw series")
	}
	if err := s.Apply(c.frame); err != nil {
		return err
	}
	return nil
}

// evict drops every row, keeping the schema shell (spec.md I6/eviction).
func (c *FrameCell) evict() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame.Truncate()
}

// project returns a snapshot projection of the frame under the cell's read
// lock, enforcing I6 (minimum rows).
func (c *FrameCell) project(numRows int, excludeColumns []string) (*dataframe.DataFrame, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if uint32(c.frame.Height()) < c.minRows {
		return nil, dferr.New(dferr.KindNotReady, "frame height %d is below the configured minimum of %d rows", c.frame.Height(), c.minRows)
	}
	return c.frame.Project(excludeColumns, numRows), nil
}

// height returns the current row count under the cell's read lock, used by
// diagnostics (Stats).
func (c *FrameCell) height() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frame.Height()
}
