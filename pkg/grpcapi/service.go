package grpcapi

import (
	"github.com/sirupsen/logrus"

	"github.com/ghhag/stonkinator-dfservice/pkg/collection"
	"github.com/ghhag/stonkinator-dfservice/pkg/dferr"
)

// DataFrameService implements the business logic behind each
// DataFrameService RPC (proto/stonkinator.proto), independent of the grpc
// transport binding so it can be exercised directly in tests. Grounded on
// original_source/grpc_service.rs's DataFrameServiceImpl.
type DataFrameService struct {
	Collection *collection.DataFrameCollection
	Log        *logrus.Logger
}

// NewDataFrameService constructs a service bound to collection. log may be
// nil, in which case a default logrus logger (writing to stderr) is used.
func NewDataFrameService(coll *collection.DataFrameCollection, log *logrus.Logger) *DataFrameService {
	if log == nil {
		log = logrus.New()
	}
	return &DataFrameService{Collection: coll, Log: log}
}

// MapTradingSystemInstrument registers a (trading_system_id, instrument_id)
// pair (spec.md §4.3, insert_inner_map).
func (s *DataFrameService) MapTradingSystemInstrument(req OperateOn) (Cud, error) {
	tradingSystemID, instrumentID, err := req.Parse()
	if err != nil {
		return Cud{}, err
	}
	if tradingSystemID == "" || instrumentID == "" {
		return Cud{}, dferr.New(dferr.KindInvalidArgument, "failed to parse identifiers")
	}

	created, err := s.Collection.InsertInnerMap(instrumentID, tradingSystemID)
	if err != nil {
		return Cud{}, err
	}
	return cudOf(created), nil
}

// PushPrice appends a single price tick (spec.md §4.3, append_data_point).
func (s *DataFrameService) PushPrice(req *Price) (Cud, error) {
	raw, err := req.ToRawPrice()
	if err != nil {
		return Cud{}, err
	}
	n, err := s.Collection.AppendDataPoint(raw.InstrumentID, raw)
	if err != nil {
		s.Log.WithError(err).WithField("instrument_id", raw.InstrumentID).Warn("failed to append data point")
		return Cud{}, err
	}
	return Cud{NumAffected: n}, nil
}

// PushPriceStream appends a batch of price ticks atomically per frame
// (spec.md §4.3, append_series; original_source/grpc_service.rs,
// handle_price_data).
func (s *DataFrameService) PushPriceStream(prices []*Price) (Cud, error) {
	seriesMap, n, exemplar, err := seriesFromPrices(prices)
	if err != nil {
		return Cud{}, err
	}
	appended, err := s.Collection.AppendSeries(exemplar.InstrumentID, seriesMap, n, exemplar)
	if err != nil {
		s.Log.WithError(err).WithField("instrument_id", exemplar.InstrumentID).Warn("failed to append price series")
		return Cud{}, err
	}
	return Cud{NumAffected: appended}, nil
}

// SetMinimumRows configures the minimum row threshold for a trading_system_id
// (spec.md §4.3, set_minimum_rows).
func (s *DataFrameService) SetMinimumRows(req MinimumRows) (Cud, error) {
	tradingSystemID, _, err := req.OperateOn.Parse()
	if err != nil {
		return Cud{}, err
	}
	if tradingSystemID == "" {
		return Cud{}, nil
	}
	ok := s.Collection.SetMinimumRows(tradingSystemID, req.NumRows)
	return cudOf(ok), nil
}

// CheckPresence reports whether a (trading_system_id, instrument_id) pair
// is mapped, or whether a bare trading_system_id is registered
// (original_source/grpc_service.rs, check_df_collection_presence).
func (s *DataFrameService) CheckPresence(req GetBy) (Presence, error) {
	tradingSystemID, instrumentID, err := req.Parse()
	if err != nil {
		return Presence{}, err
	}

	switch {
	case tradingSystemID != "" && instrumentID != "":
		tsIDs, ok := s.Collection.InnerKeysOfOuter(instrumentID)
		if !ok {
			return Presence{}, nil
		}
		for _, id := range tsIDs {
			if id == tradingSystemID {
				return Presence{IsPresent: true}, nil
			}
		}
		return Presence{}, nil

	case tradingSystemID != "" && instrumentID == "":
		for _, id := range s.Collection.DfSchematicKeys() {
			if id == tradingSystemID {
				return Presence{IsPresent: true}, nil
			}
		}
		return Presence{}, nil

	default:
		return Presence{}, dferr.New(dferr.KindInvalidArgument, "no valid id pattern in input parameters")
	}
}

// Evict empties the frame(s) selected by identifiers: both ids empties one
// cell, trading_system_id alone empties every cell under it, instrument_id
// alone empties every cell mapped to it (original_source/grpc_service.rs,
// evict_df_on).
func (s *DataFrameService) Evict(req OperateOn) (Cud, error) {
	tradingSystemID, instrumentID, err := req.Parse()
	if err != nil {
		return Cud{}, err
	}

	switch {
	case tradingSystemID != "" && instrumentID != "":
		ok, err := s.Collection.EvictDf(instrumentID, tradingSystemID)
		if err != nil {
			return Cud{}, err
		}
		return cudOf(ok), nil

	case tradingSystemID != "" && instrumentID == "":
		n, err := s.Collection.EvictInner(tradingSystemID)
		if err != nil {
			return Cud{}, err
		}
		return Cud{NumAffected: n}, nil

	case tradingSystemID == "" && instrumentID != "":
		n, err := s.Collection.EvictOuter(instrumentID)
		if err != nil {
			return Cud{}, err
		}
		return Cud{NumAffected: n}, nil

	default:
		return Cud{}, dferr.New(dferr.KindInvalidArgument, "no valid id pattern in input parameters")
	}
}

// DropDataFrameCollectionEntry removes a (trading_system_id, instrument_id)
// mapping entirely (spec.md §4.3, remove_df_map_entry).
func (s *DataFrameService) DropDataFrameCollectionEntry(req OperateOn) (Cud, error) {
	tradingSystemID, instrumentID, err := req.Parse()
	if err != nil {
		return Cud{}, err
	}
	if tradingSystemID == "" || instrumentID == "" {
		return Cud{}, dferr.New(dferr.KindInvalidArgument, "invalid id input value")
	}
	ok, err := s.Collection.RemoveDfMapEntry(instrumentID, tradingSystemID)
	if err != nil {
		return Cud{}, err
	}
	return cudOf(ok), nil
}

func cudOf(affected bool) Cud {
	if affected {
		return Cud{NumAffected: 1}
	}
	return Cud{}
}
