package graph

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ev_router/pkg/geo"
	"ev_router/pkg/station"
)

// bruteForce builds the range graph straight from its definition.
func bruteForce(net *station.Network, maxRangeKm float64) map[[2]uint32]float64 {
	edges := make(map[[2]uint32]float64)
	n := uint32(net.Len())
	for i := uint32(0); i < n; i++ {
		for j := uint32(0); j < n; j++ {
			if i == j {
				continue
			}
			a, b := net.At(i), net.At(j)
			if d := geo.Haversine(a.Lat, a.Lon, b.Lat, b.Lon); d <= maxRangeKm {
				edges[[2]uint32{i, j}] = d
			}
		}
	}
	return edges
}

func edgeSet(g *Graph) map[[2]uint32]float64 {
	edges := make(map[[2]uint32]float64)
	for u := uint32(0); u < g.NumNodes; u++ {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			edges[[2]uint32{u, g.Head[e]}] = g.Dist[e]
		}
	}
	return edges
}

func randomNetwork(t *testing.T, rng *rand.Rand, n int, minLat, maxLat, minLon, maxLon float64) *station.Network {
	t.Helper()
	stations := make([]station.Station, n)
	for i := range stations {
		stations[i] = station.Station{
			Name: fmt.Sprintf("S%03d", i),
			Lat:  minLat + rng.Float64()*(maxLat-minLat),
			Lon:  minLon + rng.Float64()*(maxLon-minLon),
			Rate: 50 + rng.Float64()*100,
		}
	}
	net, err := station.NewNetwork(stations)
	require.NoError(t, err)
	return net
}

func TestBuildMatchesDefinition(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	tests := []struct {
		name                           string
		minLat, maxLat, minLon, maxLon float64
	}{
		{"continental US", 25, 49, -124, -67},
		{"dense region", 44, 46, -124, -121},
		{"antimeridian", -20, 20, 170, 180},
		{"high latitude", 80, 89.9, -180, 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net := randomNetwork(t, rng, 150, tt.minLat, tt.maxLat, tt.minLon, tt.maxLon)
			if tt.name == "antimeridian" {
				// Mirror half the points across the antimeridian.
				stations := net.Stations()
				for i := 0; i < len(stations); i += 2 {
					stations[i].Lon -= 360 - 10
				}
				var err error
				net, err = station.NewNetwork(stations)
				require.NoError(t, err)
			}

			g := Build(net, 320)
			assert.Equal(t, bruteForce(net, 320), edgeSet(g))
		})
	}
}

func TestBuildSymmetricNoSelfLoops(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	net := randomNetwork(t, rng, 80, 30, 40, -120, -110)
	g := Build(net, 320)

	edges := edgeSet(g)
	for k, d := range edges {
		assert.NotEqual(t, k[0], k[1], "self-loop on %d", k[0])
		back, ok := edges[[2]uint32{k[1], k[0]}]
		assert.True(t, ok, "edge %d-%d missing reverse", k[0], k[1])
		assert.Equal(t, d, back)
		assert.LessOrEqual(t, d, 320.0)
	}
}

func TestBuildCSRInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	g := Build(randomNetwork(t, rng, 60, 35, 40, -100, -95), 200)

	require.Len(t, g.FirstOut, int(g.NumNodes)+1)
	assert.Equal(t, g.NumEdges, g.FirstOut[g.NumNodes])
	assert.Zero(t, g.NumEdges%2)
	require.NoError(t, validateCSR(g.FirstOut, g.Head, g.NumNodes))

	// Adjacency lists are sorted so builds are deterministic.
	for u := uint32(0); u < g.NumNodes; u++ {
		start, end := g.EdgesFrom(u)
		for e := start + 1; e < end; e++ {
			assert.Less(t, g.Head[e-1], g.Head[e])
		}
	}
}

func TestBuildEmptyNetwork(t *testing.T) {
	net, err := station.NewNetwork(nil)
	require.NoError(t, err)

	g := Build(net, 320)
	assert.Zero(t, g.NumNodes)
	assert.Zero(t, g.NumEdges)
	assert.Equal(t, []uint32{0}, g.FirstOut)
}

func TestFromEdges(t *testing.T) {
	g, err := FromEdges(3, []Edge{{U: 0, V: 1, Km: 300}, {U: 2, V: 1, Km: 300}})
	require.NoError(t, err)

	assert.Equal(t, uint32(4), g.NumEdges)
	assert.Equal(t, 1, g.Degree(0))
	assert.Equal(t, 2, g.Degree(1))
	assert.Equal(t, 1, g.Degree(2))

	start, end := g.EdgesFrom(1)
	assert.Equal(t, []uint32{0, 2}, g.Head[start:end])
	assert.Equal(t, []float64{300, 300}, g.Dist[start:end])
}

func TestFindEdge(t *testing.T) {
	g, err := FromEdges(4, []Edge{{U: 0, V: 1, Km: 10}, {U: 0, V: 3, Km: 30}, {U: 1, V: 2, Km: 20}})
	require.NoError(t, err)

	e, ok := g.FindEdge(0, 3)
	require.True(t, ok)
	assert.Equal(t, 30.0, g.Dist[e])

	e, ok = g.FindEdge(2, 1)
	require.True(t, ok)
	assert.Equal(t, 20.0, g.Dist[e])

	_, ok = g.FindEdge(0, 2)
	assert.False(t, ok)
	_, ok = g.FindEdge(3, 1)
	assert.False(t, ok)
}

func TestFromEdgesRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		edges []Edge
	}{
		{"self-loop", []Edge{{U: 1, V: 1, Km: 5}}},
		{"unknown node", []Edge{{U: 0, V: 3, Km: 5}}},
		{"negative distance", []Edge{{U: 0, V: 1, Km: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEdges(3, tt.edges)
			assert.True(t, errors.Is(err, ErrInvalidEdge), "got %v", err)
		})
	}
}

func BenchmarkBuild(b *testing.B) {
	rng := rand.New(rand.NewSource(9))
	stations := make([]station.Station, 400)
	for i := range stations {
		stations[i] = station.Station{
			Name: fmt.Sprintf("S%03d", i),
			Lat:  25 + rng.Float64()*24,
			Lon:  -124 + rng.Float64()*57,
			Rate: 120,
		}
	}
	net, err := station.NewNetwork(stations)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Build(net, 320)
	}
}
