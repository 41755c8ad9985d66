package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/exp/slog"

	"ev_router/pkg/config"
	"ev_router/pkg/graph"
	"ev_router/pkg/logging"
	osmparser "ev_router/pkg/osm"
	"ev_router/pkg/station"
)

func main() {
	input := flag.String("input", "", "Path to .osm.pbf, or a .yaml/.json station file")
	configPath := flag.String("config", "", "Path to YAML config file (vehicle range)")
	output := flag.String("output", "network.bin", "Output binary network cache")
	stationsOut := flag.String("stations-out", "", "Also write the validated station list as YAML")
	bbox := flag.String("bbox", "", "Bounding box filter for OSM input: minLat,minLng,maxLat,maxLng")
	defaultRate := flag.Float64("default-rate", osmparser.DefaultRateKmh, "Charge rate (km/h) for OSM stations without rate tags")
	kmPerKWh := flag.Float64("km-per-kwh", 0, "Derive OSM charge rates from socket output tags (0 = off)")
	largest := flag.Bool("largest-component", false, "Keep only the largest connected component")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	if err := logging.Setup(os.Stderr, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: preprocess --input <file.osm.pbf|stations.yaml> [--output network.bin] [--stations-out stations.yaml] [--bbox minLat,minLng,maxLat,maxLng] [--largest-component]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal("failed to load config", err)
	}
	maxRange := cfg.Vehicle.MaxRangeKm

	// Parse bbox option.
	opts := osmparser.ParseOptions{DefaultRate: *defaultRate, KmPerKWh: *kmPerKWh}
	if *bbox != "" {
		var minLat, minLng, maxLat, maxLng float64
		_, err := fmt.Sscanf(*bbox, "%f,%f,%f,%f", &minLat, &minLng, &maxLat, &maxLng)
		if err != nil {
			fatal("invalid bbox format (expected minLat,minLng,maxLat,maxLng)", err)
		}
		opts.BBox = osmparser.BBox{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}
		slog.Info("using bounding box filter", "lat", [2]float64{minLat, maxLat}, "lng", [2]float64{minLng, maxLng})
	}

	start := time.Now()
	ctx := context.Background()

	// Step 1: Load stations.
	stations, err := loadStations(ctx, *input, opts)
	if err != nil {
		fatal("failed to load stations", err)
	}
	net, err := station.NewNetwork(stations)
	if err != nil {
		fatal("invalid station dataset", err)
	}
	slog.Info("stations loaded", "count", net.Len())

	// Step 2: Build graph.
	g := graph.Build(net, maxRange)
	slog.Info("graph built", "nodes", g.NumNodes, "edges", g.NumEdges/2, "max_range_km", maxRange)

	// Step 3: Optionally keep the largest connected component.
	if *largest && g.NumNodes > 0 {
		nodes := graph.LargestComponent(g)
		slog.Info("largest component", "nodes", len(nodes),
			"percent", fmt.Sprintf("%.1f", float64(len(nodes))/float64(g.NumNodes)*100))
		kept := make([]station.Station, len(nodes))
		for i, id := range nodes {
			kept[i] = net.At(id)
		}
		if net, err = station.NewNetwork(kept); err != nil {
			fatal("filter component", err)
		}
		g = graph.Build(net, maxRange)
	}

	// Step 4: Write outputs.
	if *stationsOut != "" {
		if err := station.WriteFile(*stationsOut, net.Stations()); err != nil {
			fatal("failed to write stations", err)
		}
		slog.Info("wrote stations", "path", *stationsOut)
	}
	if err := graph.WriteBinary(*output, net, g, maxRange); err != nil {
		fatal("failed to write binary", err)
	}

	info, _ := os.Stat(*output)
	slog.Info("done", "elapsed", time.Since(start).Round(time.Millisecond), "output", *output,
		"size_kb", fmt.Sprintf("%.1f", float64(info.Size())/1024))
}

// loadStations reads a station file directly, or extracts stations from an
// OSM PBF extract.
func loadStations(ctx context.Context, path string, opts osmparser.ParseOptions) ([]station.Station, error) {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".json") {
		return station.FileSource{Path: path}.Load(ctx)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return osmparser.Parse(ctx, f, opts)
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
