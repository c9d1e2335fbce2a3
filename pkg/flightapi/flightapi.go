// Package flightapi implements the Arrow Flight side of the discovery and
// retrieval protocol (spec.md §6): ListFlights/GetFlightInfo resolve an
// InfoCommand into ticket endpoints, DoGet resolves a TicketCommand into a
// stream of record batches. Every other Flight RPC is left Unimplemented,
// grounded on original_source/flight_service.rs.
package flightapi

import (
	"context"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v18/arrow/flight"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/ghhag/stonkinator-dfservice/pkg/arrowproj"
	"github.com/ghhag/stonkinator-dfservice/pkg/collection"
	"github.com/ghhag/stonkinator-dfservice/pkg/command"
	"github.com/ghhag/stonkinator-dfservice/pkg/dferr"
)

// Service is the Flight server implementation. It embeds
// flight.BaseFlightServer so unimplemented RPCs (Handshake, PollFlightInfo,
// GetSchema, DoPut, DoExchange, DoAction, ListActions) answer Unimplemented
// without any code here, exactly as the original service leaves them.
type Service struct {
	flight.BaseFlightServer

	Collection *collection.DataFrameCollection
	Log        *logrus.Logger
}

// NewService constructs a Flight service bound to coll. log may be nil.
func NewService(coll *collection.DataFrameCollection, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{Collection: coll, Log: log}
}

// ListFlights resolves Criteria.Expression as an InfoCommand and streams back
// a single FlightInfo describing the matching tickets
// (original_source/flight_service.rs, list_flights).
func (s *Service) ListFlights(criteria *flight.Criteria, stream flight.FlightService_ListFlightsServer) error {
	cmd := command.ParseInfoCommand(string(criteria.GetExpression()))
	info := s.buildFlightInfo(cmd)
	return stream.Send(info)
}

// GetFlightInfo resolves a Cmd-type FlightDescriptor as an InfoCommand
// (original_source/flight_service.rs, get_flight_info). Path-type and
// Unknown-type descriptors are rejected as Unimplemented, matching the
// original.
func (s *Service) GetFlightInfo(ctx context.Context, descriptor *flight.FlightDescriptor) (*flight.FlightInfo, error) {
	switch descriptor.GetType() {
	case flight.FlightDescriptor_CMD:
		cmd := command.ParseInfoCommand(string(descriptor.GetCmd()))
		return s.buildFlightInfo(cmd), nil
	case flight.FlightDescriptor_PATH:
		return nil, status.Error(codes.Unimplemented, "descriptor type Path not supported")
	default:
		return nil, status.Error(codes.Unimplemented, "descriptor type Unknown not supported")
	}
}

func (s *Service) buildFlightInfo(cmd command.InfoCommand) *flight.FlightInfo {
	tickets := command.DispatchInfo(s.Collection, cmd)

	endpoints := make([]*flight.FlightEndpoint, 0, len(tickets))
	for _, ticket := range tickets {
		endpoints = append(endpoints, &flight.FlightEndpoint{
			Ticket: &flight.Ticket{Ticket: []byte(ticket)},
		})
	}

	return &flight.FlightInfo{
		Endpoint:     endpoints,
		TotalRecords: int64(len(endpoints)),
		TotalBytes:   -1,
		Ordered:      true,
	}
}

// DoGet resolves the ticket as a TicketCommand, projects the corresponding
// frame, and streams it as Arrow record batches
// (original_source/flight_service.rs, do_get; hit_endpoint).
// "n-rows" and "exclude" incoming metadata bound the row count and drop
// columns, mirroring the original's per-request metadata lookup.
func (s *Service) DoGet(ticket *flight.Ticket, stream flight.FlightService_DoGetServer) error {
	cmd := command.ParseTicketCommand(string(ticket.GetTicket()))

	numRows := -1
	var excludeColumns []string
	if md, ok := metadata.FromIncomingContext(stream.Context()); ok {
		if vals := md.Get("n-rows"); len(vals) > 0 {
			if n, err := strconv.Atoi(vals[0]); err == nil {
				numRows = n
			}
		}
		if vals := md.Get("exclude"); len(vals) > 0 {
			excludeColumns = strings.Split(vals[0], command.Delimiter)
		}
	}

	df, err := command.DispatchTicket(s.Collection, cmd, numRows, excludeColumns)
	if err != nil {
		return translateError(err)
	}

	schema, records, err := arrowproj.ToRecords(df, arrowproj.DefaultBatchSize)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to project frame to arrow: %v", err)
	}

	writer := flight.NewRecordWriter(stream, flight.WithSchema(schema))
	defer writer.Close()

	for _, rec := range records {
		if err := writer.Write(rec); err != nil {
			return status.Errorf(codes.Internal, "failed to write record batch: %v", err)
		}
		rec.Release()
	}
	return nil
}

func translateError(err error) error {
	switch {
	case dferr.Is(err, dferr.KindNotFound):
		return status.Error(codes.NotFound, err.Error())
	case dferr.Is(err, dferr.KindNotReady):
		// hit_endpoint in the original service maps every lookup failure,
		// including below-minimum-rows, to NotFound — there is no
		// distinct wire status for "exists but not ready" at this boundary.
		return status.Error(codes.NotFound, err.Error())
	case dferr.Is(err, dferr.KindInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
