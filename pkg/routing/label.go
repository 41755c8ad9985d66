package routing

import (
	"math"
	"time"
)

// noLabel marks a node without a settled label.
const noLabel = math.MaxUint32

// Label is one way of arriving at a node: the elapsed time so far, the
// range left on arrival, and the time spent charging at the previous stop.
// ID and Parent are indices into the per-query label arena; the source
// label is its own parent.
type Label struct {
	Node           uint32
	ID             uint32
	Cost           time.Duration // total time from the source
	ChargeAtParent time.Duration // time charged at the parent node before departing
	Range          float64       // km left on arrival
	Parent         uint32
}

// Dominates reports whether l is strictly better than other on both time
// and remaining range. Equal labels do not dominate each other.
func (l Label) Dominates(other Label) bool {
	return l.Cost < other.Cost && l.Range > other.Range
}
