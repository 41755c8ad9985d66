package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/exp/slog"

	"ev_router/pkg/api"
	"ev_router/pkg/config"
	"ev_router/pkg/dataset"
	"ev_router/pkg/logging"
	"ev_router/pkg/routing"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (empty = defaults)")
	stationsPath := flag.String("stations", "", "Station file, overrides dataset.stations")
	cachePath := flag.String("cache", "", "Binary network cache, overrides dataset.cache")
	port := flag.Int("port", 0, "HTTP port, overrides server.addr")
	corsOrigin := flag.String("cors-origin", "", "Additional CORS allowed origin")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	if err := logging.Setup(os.Stderr, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if *stationsPath != "" {
		cfg.Dataset.Stations = *stationsPath
	}
	if *cachePath != "" {
		cfg.Dataset.Cache = *cachePath
	}
	if *port != 0 {
		cfg.Server.Addr = fmt.Sprintf(":%d", *port)
	}
	if *corsOrigin != "" {
		cfg.Server.CORSOrigins = append(cfg.Server.CORSOrigins, *corsOrigin)
	}

	start := time.Now()

	// Load stations and build the range graph.
	model := cfg.Model()
	net, g, err := dataset.Load(context.Background(), cfg.Dataset, model)
	if err != nil {
		slog.Error("failed to load dataset", "err", err)
		os.Exit(1)
	}

	// Build routing engine.
	engine, err := routing.NewEngine(net, g, model)
	if err != nil {
		slog.Error("failed to build engine", "err", err)
		os.Exit(1)
	}
	slog.Info("ready", "elapsed", time.Since(start).Round(time.Millisecond))

	// Setup HTTP server.
	st := engine.Stats()
	stats := api.StatsResponse{
		Stations:     st.Stations,
		Edges:        st.Edges,
		Components:   st.Components,
		MaxRangeKm:   st.MaxRangeKm,
		RoadSpeedKmh: model.RoadSpeedKmh,
	}

	handlers := api.NewHandlers(engine, net, stats)
	srv := api.NewServer(api.ConfigFrom(cfg.Server), handlers)

	if err := api.ListenAndServe(srv); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
