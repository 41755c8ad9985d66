// Package dataset resolves the configured station source into a validated
// network and its range graph, using the binary cache when one is present.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"golang.org/x/exp/slog"

	"ev_router/pkg/config"
	"ev_router/pkg/cost"
	"ev_router/pkg/graph"
	"ev_router/pkg/station"
)

// Load returns the network and the graph for model.MaxRangeKm.
//
// A readable cache is used as-is when it was built with the same range and
// its graph is rebuilt otherwise. A missing cache is built from the station
// source and written back. A corrupt cache is an error.
func Load(ctx context.Context, ds config.Dataset, model cost.Model) (*station.Network, *graph.Graph, error) {
	start := time.Now()

	if ds.Cache != "" {
		c, err := graph.ReadBinary(ds.Cache)
		switch {
		case err == nil:
			g := c.Graph
			if c.MaxRangeKm != model.MaxRangeKm {
				slog.Warn("cache built for a different range, rebuilding graph",
					"cache_km", c.MaxRangeKm, "model_km", model.MaxRangeKm)
				g = graph.Build(c.Network, model.MaxRangeKm)
			}
			slog.Info("loaded network cache", "path", ds.Cache, "stations", c.Network.Len(),
				"elapsed", time.Since(start).Round(time.Millisecond))
			return c.Network, g, nil
		case errors.Is(err, fs.ErrNotExist):
			slog.Info("no network cache yet", "path", ds.Cache)
		default:
			return nil, nil, fmt.Errorf("load cache %s: %w", ds.Cache, err)
		}
	}

	net, err := loadSource(ctx, ds)
	if err != nil {
		return nil, nil, err
	}
	g := graph.Build(net, model.MaxRangeKm)
	slog.Info("built range graph", "stations", net.Len(), "edges", g.NumEdges/2,
		"elapsed", time.Since(start).Round(time.Millisecond))

	if ds.Cache != "" {
		if err := graph.WriteBinary(ds.Cache, net, g, model.MaxRangeKm); err != nil {
			slog.Warn("could not write network cache", "path", ds.Cache, "err", err)
		}
	}
	return net, g, nil
}

func loadSource(ctx context.Context, ds config.Dataset) (*station.Network, error) {
	if ds.Neo4j.Enabled() {
		src, err := station.NewNeo4jSource(ctx, ds.Neo4j.URI, ds.Neo4j.User, ds.Neo4j.Password, ds.Neo4j.Database)
		if err != nil {
			return nil, err
		}
		defer src.Close(ctx)
		slog.Info("loading stations from neo4j", "uri", ds.Neo4j.URI)
		return station.LoadNetwork(ctx, src)
	}

	if ds.Stations == "" {
		return nil, errors.New("no station source configured")
	}
	slog.Info("loading stations", "path", ds.Stations)
	return station.LoadNetwork(ctx, station.FileSource{Path: ds.Stations})
}
