package routing

import "time"

// MinHeap is a concrete-typed min-heap on label cost.
// Avoids interface boxing overhead of container/heap.
type MinHeap struct {
	items []PQItem
}

// PQItem is a priority queue entry.
type PQItem struct {
	ID   uint32 // label arena index
	Node uint32
	Cost time.Duration
}

func (h *MinHeap) Len() int { return len(h.items) }

func (h *MinHeap) Push(item PQItem) {
	h.items = append(h.items, item)
	h.siftUp(len(h.items) - 1)
}

func (h *MinHeap) Pop() PQItem {
	n := len(h.items)
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item
}

func (h *MinHeap) Reset() {
	h.items = h.items[:0]
}

func (h *MinHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[i].Cost >= h.items[parent].Cost {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *MinHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2
		if left < n && h.items[left].Cost < h.items[smallest].Cost {
			smallest = left
		}
		if right < n && h.items[right].Cost < h.items[smallest].Cost {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}

// Frontier is the search priority queue. Superseded entries are never
// removed eagerly; PopBestValid skips them instead.
type Frontier struct {
	heap    MinHeap
	store   *LabelStore
	settled []uint32 // node -> settled label id, or noLabel
}

// NewFrontier creates a frontier that consults store for stale labels and
// settled for settled nodes.
func NewFrontier(store *LabelStore, settled []uint32) *Frontier {
	return &Frontier{
		heap:    MinHeap{items: make([]PQItem, 0, 256)},
		store:   store,
		settled: settled,
	}
}

// Push adds a label.
func (f *Frontier) Push(l Label) {
	f.heap.Push(PQItem{ID: l.ID, Node: l.Node, Cost: l.Cost})
}

// Len returns the number of entries, including ones PopBestValid would skip.
func (f *Frontier) Len() int { return f.heap.Len() }

// PopBestValid removes entries in cost order and returns the first whose
// label is not stale and whose node is not settled. ok is false when the
// frontier runs empty first.
func (f *Frontier) PopBestValid() (item PQItem, ok bool) {
	for f.heap.Len() > 0 {
		item = f.heap.Pop()
		if f.store.Stale(item.ID) || f.settled[item.Node] != noLabel {
			continue
		}
		return item, true
	}
	return PQItem{}, false
}
