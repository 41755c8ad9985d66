package graph

import (
	"errors"
	"fmt"
	"sort"

	"ev_router/pkg/station"
)

// ErrInvalidEdge is returned by FromEdges for self-loops and unknown nodes.
var ErrInvalidEdge = errors.New("invalid edge")

// Build creates the range graph of net: stations i and j are adjacent iff
// their great-circle distance is at most maxRangeKm. Candidate pairs come
// from an R-tree range query, so the cost is far below O(N²) when stations
// are spread out relative to the range.
func Build(net *station.Network, maxRangeKm float64) *Graph {
	n := uint32(net.Len())
	if n == 0 {
		return &Graph{FirstOut: make([]uint32, 1)}
	}

	idx := station.NewIndex(net)

	// Step 1: Collect each undirected edge once, from its lower endpoint.
	var edges []Edge
	for u := uint32(0); u < n; u++ {
		s := net.At(u)
		idx.Within(s.Lat, s.Lon, maxRangeKm, func(v uint32, km float64) bool {
			if v > u {
				edges = append(edges, Edge{U: u, V: v, Km: km})
			}
			return true
		})
	}

	// Step 2: Build CSR arrays.
	return assemble(n, edges)
}

// FromEdges creates a graph from an explicit undirected edge list, e.g. road
// distances or synthetic test networks.
func FromEdges(numNodes uint32, edges []Edge) (*Graph, error) {
	for i, e := range edges {
		if e.U >= numNodes || e.V >= numNodes {
			return nil, fmt.Errorf("%w: edge %d (%d-%d) outside %d nodes", ErrInvalidEdge, i, e.U, e.V, numNodes)
		}
		if e.U == e.V {
			return nil, fmt.Errorf("%w: edge %d is a self-loop on %d", ErrInvalidEdge, i, e.U)
		}
		if !(e.Km >= 0) {
			return nil, fmt.Errorf("%w: edge %d has distance %v", ErrInvalidEdge, i, e.Km)
		}
	}
	return assemble(numNodes, edges), nil
}

// assemble writes both directions of every edge into CSR form with each
// adjacency list sorted by neighbor.
func assemble(numNodes uint32, edges []Edge) *Graph {
	type half struct {
		from, to uint32
		km       float64
	}
	halves := make([]half, 0, 2*len(edges))
	for _, e := range edges {
		halves = append(halves, half{e.U, e.V, e.Km}, half{e.V, e.U, e.Km})
	}

	sort.Slice(halves, func(i, j int) bool {
		if halves[i].from != halves[j].from {
			return halves[i].from < halves[j].from
		}
		return halves[i].to < halves[j].to
	})

	numEdges := uint32(len(halves))
	firstOut := make([]uint32, numNodes+1)
	head := make([]uint32, numEdges)
	dist := make([]float64, numEdges)

	for i, h := range halves {
		head[i] = h.to
		dist[i] = h.km
		firstOut[h.from+1]++
	}
	// Prefix sum.
	for i := uint32(1); i <= numNodes; i++ {
		firstOut[i] += firstOut[i-1]
	}

	return &Graph{
		NumNodes: numNodes,
		NumEdges: numEdges,
		FirstOut: firstOut,
		Head:     head,
		Dist:     dist,
	}
}
