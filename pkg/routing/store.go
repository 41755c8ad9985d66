package routing

// LabelStore owns the label arena of one query and keeps, per node, the
// set of live labels that no other live label at that node dominates.
// Labels evicted by a dominating newcomer are marked stale so their
// frontier entries can be skipped.
type LabelStore struct {
	labels []Label
	stale  []bool
	live   [][]uint32 // node -> live label ids
}

// NewLabelStore creates an empty store for a graph with n nodes.
func NewLabelStore(n uint32) *LabelStore {
	return &LabelStore{
		labels: make([]Label, 0, 256),
		stale:  make([]bool, 0, 256),
		live:   make([][]uint32, n),
	}
}

// Seed adds the source label. It references itself as parent.
func (s *LabelStore) Seed(node uint32, maxRange float64) Label {
	l := Label{Node: node, Range: maxRange}
	s.append(&l)
	l.Parent = l.ID
	s.labels[l.ID] = l
	s.live[node] = append(s.live[node], l.ID)
	return l
}

// Insert offers cand to the live set at cand.Node. A dominated candidate is
// discarded without touching the store. Otherwise every live label cand
// dominates is evicted and marked stale, cand gets a fresh ID and is added.
// The returned label carries the assigned ID.
func (s *LabelStore) Insert(cand Label) (Label, bool) {
	ids := s.live[cand.Node]
	for _, id := range ids {
		if s.labels[id].Dominates(cand) {
			return cand, false
		}
	}

	kept := ids[:0]
	for _, id := range ids {
		if cand.Dominates(s.labels[id]) {
			s.stale[id] = true
			continue
		}
		kept = append(kept, id)
	}

	s.append(&cand)
	s.live[cand.Node] = append(kept, cand.ID)
	return cand, true
}

func (s *LabelStore) append(l *Label) {
	l.ID = uint32(len(s.labels))
	s.labels = append(s.labels, *l)
	s.stale = append(s.stale, false)
}

// Label returns the label with the given arena index.
func (s *LabelStore) Label(id uint32) Label { return s.labels[id] }

// Stale reports whether the label was evicted by a dominating label.
func (s *LabelStore) Stale(id uint32) bool { return s.stale[id] }

// Live returns the live label ids at node. The slice must not be modified.
func (s *LabelStore) Live(node uint32) []uint32 { return s.live[node] }

// Len returns the number of labels ever accepted, including the source.
func (s *LabelStore) Len() int { return len(s.labels) }
