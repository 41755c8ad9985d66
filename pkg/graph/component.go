package graph

// UnionFind implements a disjoint-set data structure with path compression
// and union by rank.
type UnionFind struct {
	parent []uint32
	rank   []byte // max rank stays below 32 for any uint32 node count
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n uint32) *UnionFind {
	parent := make([]uint32, n)
	for i := uint32(0); i < n; i++ {
		parent[i] = i
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
	}
}

// Find returns the representative of the set containing x, with path halving.
func (uf *UnionFind) Find(x uint32) uint32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y uint32) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}

	// Union by rank.
	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// Components returns a component label for every node: two nodes share a
// label iff a chain of edges connects them. Labels are the smallest node ID
// in each component, so they do not depend on union order.
func Components(g *Graph) []uint32 {
	uf := NewUnionFind(g.NumNodes)
	for u := uint32(0); u < g.NumNodes; u++ {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			uf.Union(u, g.Head[e])
		}
	}

	// Map each root to the first (smallest) node that reaches it.
	minOf := make(map[uint32]uint32)
	labels := make([]uint32, g.NumNodes)
	for i := uint32(0); i < g.NumNodes; i++ {
		root := uf.Find(i)
		if _, ok := minOf[root]; !ok {
			minOf[root] = i
		}
		labels[i] = minOf[root]
	}
	return labels
}

// LargestComponent returns the node indices belonging to the largest
// connected component, in ascending order.
func LargestComponent(g *Graph) []uint32 {
	if g.NumNodes == 0 {
		return nil
	}

	labels := Components(g)
	sizes := make(map[uint32]uint32)
	for _, l := range labels {
		sizes[l]++
	}

	// Ties go to the component containing the smaller node ID.
	bestLabel := uint32(0)
	bestSize := uint32(0)
	for i := uint32(0); i < g.NumNodes; i++ {
		if labels[i] != i {
			continue
		}
		if sizes[i] > bestSize {
			bestLabel = i
			bestSize = sizes[i]
		}
	}

	nodes := make([]uint32, 0, bestSize)
	for i, l := range labels {
		if l == bestLabel {
			nodes = append(nodes, uint32(i))
		}
	}
	return nodes
}
