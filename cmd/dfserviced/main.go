// Command dfserviced runs the stonkinator data frame service: it boots a
// DataFrameCollection from the built-in blueprint catalog, then serves the
// Arrow Flight discovery/retrieval API (spec.md §6). The push/admin gRPC
// service is not registered on the listener.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/apache/arrow/go/v18/arrow/flight"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/ghhag/stonkinator-dfservice/pkg/blueprint"
	"github.com/ghhag/stonkinator-dfservice/pkg/collection"
	"github.com/ghhag/stonkinator-dfservice/pkg/flightapi"
	"github.com/ghhag/stonkinator-dfservice/pkg/schema"
)

var rootCmd = &cobra.Command{
	Use:   "dfserviced",
	Short: "Serve the stonkinator data frame collection.",
	Long:  "dfserviced boots a DataFrameCollection from the built-in blueprint catalog and serves it over Arrow Flight.",
	Run:   runServe,
}

func init() {
	rootCmd.PersistentFlags().String("host", envOr("DF_SERVICE_HOST", "0.0.0.0"), "interface to bind")
	// 8815 is the Arrow Flight convention port, not the 50051 default
	// named elsewhere for the push/admin gRPC surface.
	rootCmd.PersistentFlags().String("port", envOr("DF_SERVICE_PORT", "8815"), "port to bind")
	rootCmd.PersistentFlags().String("log-level", envOr("DF_LOG_LEVEL", "info"), "logrus level: trace, debug, info, warn, error")
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return ""
	}
	return v
}

func runServe(cmd *cobra.Command, args []string) {
	logger := log.New()
	level, err := log.ParseLevel(getString(cmd, "log-level"))
	if err != nil {
		logger.WithError(err).Warn("invalid log level, defaulting to info")
		level = log.InfoLevel
	}
	logger.SetLevel(level)

	catalog, err := blueprint.Catalog()
	if err != nil {
		logger.WithError(err).Fatal("failed to build blueprint catalog")
	}

	schematics := make(map[string]*schema.DataFrameSchematic, len(catalog))
	for _, bp := range catalog {
		schematics[bp.ID] = bp.Schematic
	}
	coll := collection.New(schematics)
	for _, bp := range catalog {
		coll.SetMinimumRows(bp.ID, bp.MinimumRows)
		logger.WithFields(log.Fields{
			"trading_system_id": bp.ID,
			"minimum_rows":      bp.MinimumRows,
		}).Info("registered blueprint")
	}

	addr := fmt.Sprintf("%s:%s", getString(cmd, "host"), getString(cmd, "port"))
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.WithError(err).Fatal("failed to bind listener")
	}

	grpcServer := grpc.NewServer()
	flightSvc := flightapi.NewService(coll, logger)
	flight.RegisterFlightServiceServer(grpcServer, flightSvc)

	// pkg/grpcapi.DataFrameService carries the push/admin business logic for
	// the RPCs in proto/stonkinator.proto. Its generated stubs
	// (protoc-gen-go-grpc, registered here alongside the Flight service in a
	// full build) aren't produced in this exercise, so it isn't bound to
	// grpcServer; pkg/grpcapi/service_test.go drives it directly against a
	// live DataFrameCollection instead.

	logger.WithField("addr", addr).Info("dfserviced listening")
	if err := grpcServer.Serve(lis); err != nil {
		logger.WithError(err).Fatal("server exited with error")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
