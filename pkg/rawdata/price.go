// Package rawdata defines the RawData contract that couples a producer's
// wire payload type to DataFrameCollection storage (spec.md §4.3,
// "Validation hook (RawData contract)"), and Price, the one canonical raw
// data point the service accepts.
package rawdata

import (
	"fmt"

	"github.com/ghhag/stonkinator-dfservice/pkg/dataframe"
)

// Canonical raw column names, fixed by spec.md §3.
const (
	InstrumentID = "instrument_id"
	Open         = "open"
	High         = "high"
	Low          = "low"
	Close        = "close"
	Volume       = "volume"
	Timestamp    = "timestamp"
)

// RawData is the only point of coupling between a producer payload type and
// frame storage. Implementations must be side-effect free.
type RawData interface {
	// Validate reports whether appending this row to frame would preserve
	// I2 (strictly increasing timestamps); an empty frame always validates.
	Validate(frame *dataframe.DataFrame) (bool, error)
	// ValidateSeries reports whether appending n rows described by
	// seriesMap would preserve I2, checking the head timestamp against the
	// frame's current last timestamp.
	ValidateSeries(seriesMap map[string]*dataframe.Series, frame *dataframe.DataFrame) (bool, error)
	// Format returns the canonical row as column name -> boxed value.
	Format() (map[string]any, error)
}

// Price is the raw price tick producers push: instrument_id, OHLC, volume,
// and a Unix-seconds timestamp.
type Price struct {
	InstrumentID string
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       uint64
	Timestamp    uint64
}

// SchemaFields returns Price's raw columns in canonical order — the prefix
// every schematic's schema_fields must begin with.
func SchemaFields() []dataframe.Field {
	return []dataframe.Field{
		{Name: InstrumentID, DType: dataframe.String},
		{Name: Open, DType: dataframe.Float64},
		{Name: High, DType: dataframe.Float64},
		{Name: Low, DType: dataframe.Float64},
		{Name: Close, DType: dataframe.Float64},
		{Name: Volume, DType: dataframe.UInt64},
		{Name: Timestamp, DType: dataframe.UInt64},
	}
}

// Validate rejects a timestamp at or before the frame's current last
// timestamp; an empty frame always validates (spec.md §4.3, §8 boundary
// behavior).
func (p *Price) Validate(frame *dataframe.DataFrame) (bool, error) {
	if frame.Height() == 0 {
		return true, nil
	}
	last, ok := frame.LastValue(Timestamp)
	if !ok {
		return false, fmt.Errorf("failed to read last timestamp")
	}
	lastTs, ok := last.(uint64)
	if !ok {
		return false, fmt.Errorf("failed to parse timestamp")
	}
	return p.Timestamp > lastTs, nil
}

// ValidateSeries checks the same I2 ordering constraint ahead of a bulk
// append; the head row of the series is what must exceed the frame's
// current last timestamp, which is exactly what Validate checks against
// this exemplar Price (the caller passes the series' first row as p).
func (p *Price) ValidateSeries(_ map[string]*dataframe.Series, frame *dataframe.DataFrame) (bool, error) {
	return p.Validate(frame)
}

// Format returns the canonical row: instrument_id, open, high, low, close,
// volume, timestamp.
func (p *Price) Format() (map[string]any, error) {
	return map[string]any{
		InstrumentID: p.InstrumentID,
		Open:         p.Open,
		High:         p.High,
		Low:          p.Low,
		Close:        p.Close,
		Volume:       p.Volume,
		Timestamp:    p.Timestamp,
	}, nil
}
