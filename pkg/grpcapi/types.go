// Package grpcapi implements the push/admin side of the data frame service
// (spec.md §4.2, §4.3) against the wire contract in proto/stonkinator.proto.
// That IDL names pkg/grpcapi/stonkinatorpb as the protoc-gen-go output
// package; no generated package is in this tree, and the hand-written types
// below stand in for its messages. This package is the business logic
// generated stubs would call into, grounded on original_source/grpc_service.rs.
package grpcapi

import (
	"time"

	"github.com/ghhag/stonkinator-dfservice/pkg/dataframe"
	"github.com/ghhag/stonkinator-dfservice/pkg/dferr"
	"github.com/ghhag/stonkinator-dfservice/pkg/rawdata"
)

// Price mirrors the generated stonkinatorpb.Price message.
type Price struct {
	InstrumentID string
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       uint64
	Timestamp    *time.Time
}

// ToRawPrice converts the wire message into the domain rawdata.Price value,
// rejecting a missing timestamp (original_source/grpc_service.rs, Price::format).
func (p *Price) ToRawPrice() (*rawdata.Price, error) {
	if p.Timestamp == nil {
		return nil, dferr.New(dferr.KindInvalidArgument, "price for instrument %q has no timestamp", p.InstrumentID)
	}
	return &rawdata.Price{
		InstrumentID: p.InstrumentID,
		Open:         p.Open,
		High:         p.High,
		Low:          p.Low,
		Close:        p.Close,
		Volume:       p.Volume,
		Timestamp:    uint64(p.Timestamp.Unix()),
	}, nil
}

// Identifier is the oneof variant of OperateOn/GetBy's "identifier" and
// "alt_identifier" fields. Only StrIdentifier is supported; IntIdentifier
// exists so that a client sending one gets a typed InvalidArgument instead of
// silent misbehavior (original_source/grpc_service.rs, OperateOn::parse).
type Identifier interface{ isIdentifier() }

type StrIdentifier string

func (StrIdentifier) isIdentifier() {}

type IntIdentifier int64

func (IntIdentifier) isIdentifier() {}

// OperateOn identifies a (trading_system_id, instrument_id) pair, or either
// half alone.
type OperateOn struct {
	Identifier    Identifier
	AltIdentifier Identifier
}

// Parse extracts (trading_system_id, instrument_id) as plain strings,
// returning InvalidArgument if either populated identifier is an
// IntIdentifier (original_source/grpc_service.rs: "integer id is not
// supported").
func (o OperateOn) Parse() (tradingSystemID, instrumentID string, err error) {
	tradingSystemID, err = stringOf(o.Identifier)
	if err != nil {
		return "", "", err
	}
	instrumentID, err = stringOf(o.AltIdentifier)
	if err != nil {
		return "", "", err
	}
	return tradingSystemID, instrumentID, nil
}

// GetBy identifies a (trading_system_id, instrument_id) pair, or a bare
// trading_system_id, for a presence check.
type GetBy struct {
	Identifier    Identifier
	AltIdentifier Identifier
}

func (g GetBy) Parse() (tradingSystemID, instrumentID string, err error) {
	tradingSystemID, err = stringOf(g.Identifier)
	if err != nil {
		return "", "", err
	}
	instrumentID, err = stringOf(g.AltIdentifier)
	if err != nil {
		return "", "", err
	}
	return tradingSystemID, instrumentID, nil
}

func stringOf(id Identifier) (string, error) {
	switch v := id.(type) {
	case nil:
		return "", nil
	case StrIdentifier:
		return string(v), nil
	case IntIdentifier:
		return "", dferr.New(dferr.KindInvalidArgument, "integer id is not supported")
	default:
		return "", dferr.New(dferr.KindInvalidArgument, "unrecognized identifier variant %T", id)
	}
}

// MinimumRows mirrors the generated stonkinatorpb.MinimumRows message.
// OperateOn.Identifier must be a StrIdentifier carrying the trading_system_id;
// OperateOn.AltIdentifier is ignored.
type MinimumRows struct {
	OperateOn OperateOn
	NumRows   uint32
}

// Cud ("created/updated/deleted") reports the number of entities an
// operation affected.
type Cud struct {
	NumAffected uint32
}

// Presence reports whether a queried pair exists in the collection.
type Presence struct {
	IsPresent bool
}

// seriesFromPrices bulk-converts a slice of wire Price messages into the
// column-vector form AppendSeries expects (original_source/grpc_service.rs,
// Price::pl_series_format).
func seriesFromPrices(prices []*Price) (map[string]*dataframe.Series, int, *rawdata.Price, error) {
	n := len(prices)
	if n == 0 {
		return nil, 0, nil, dferr.New(dferr.KindInvalidArgument, "price stream was empty")
	}

	instrumentIDs := make([]string, n)
	opens := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	volumes := make([]uint64, n)
	timestamps := make([]uint64, n)

	var exemplar *rawdata.Price
	for i, p := range prices {
		raw, err := p.ToRawPrice()
		if err != nil {
			return nil, 0, nil, err
		}
		if i == 0 {
			exemplar = raw
		}
		instrumentIDs[i] = raw.InstrumentID
		opens[i] = raw.Open
		highs[i] = raw.High
		lows[i] = raw.Low
		closes[i] = raw.Close
		volumes[i] = raw.Volume
		timestamps[i] = raw.Timestamp
	}

	seriesMap := map[string]*dataframe.Series{
		rawdata.InstrumentID: {Name: rawdata.InstrumentID, DType: dataframe.String, Strings: instrumentIDs},
		rawdata.Open:         {Name: rawdata.Open, DType: dataframe.Float64, Float64s: opens},
		rawdata.High:         {Name: rawdata.High, DType: dataframe.Float64, Float64s: highs},
		rawdata.Low:          {Name: rawdata.Low, DType: dataframe.Float64, Float64s: lows},
		rawdata.Close:        {Name: rawdata.Close, DType: dataframe.Float64, Float64s: closes},
		rawdata.Volume:       {Name: rawdata.Volume, DType: dataframe.UInt64, UInt64s: volumes},
		rawdata.Timestamp:    {Name: rawdata.Timestamp, DType: dataframe.UInt64, UInt64s: timestamps},
	}
	return seriesMap, n, exemplar, nil
}
