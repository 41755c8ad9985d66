package graph

import "sort"

// Graph is an undirected station graph in CSR (Compressed Sparse Row) format.
// Every undirected edge is stored twice, once from each endpoint.
type Graph struct {
	NumNodes uint32
	NumEdges uint32    // directed entries, twice the undirected edge count
	FirstOut []uint32  // len: NumNodes + 1; FirstOut[i]..FirstOut[i+1] are edges from node i
	Head     []uint32  // len: NumEdges; neighbor node for each edge, ascending per node
	Dist     []float64 // len: NumEdges; great-circle distance in km
}

// Edge is an undirected edge between two nodes.
type Edge struct {
	U, V uint32
	Km   float64
}

// EdgesFrom returns the range of edge indices for edges originating from node u.
func (g *Graph) EdgesFrom(u uint32) (start, end uint32) {
	return g.FirstOut[u], g.FirstOut[u+1]
}

// Degree returns the number of neighbors of u.
func (g *Graph) Degree(u uint32) int {
	return int(g.FirstOut[u+1] - g.FirstOut[u])
}

// FindEdge returns the index of the edge u→v, or ok=false if there is none.
// Adjacency lists are sorted, so this is a binary search.
func (g *Graph) FindEdge(u, v uint32) (e uint32, ok bool) {
	start, end := g.EdgesFrom(u)
	i := sort.Search(int(end-start), func(i int) bool { return g.Head[start+uint32(i)] >= v })
	e = start + uint32(i)
	if e < end && g.Head[e] == v {
		return e, true
	}
	return 0, false
}
