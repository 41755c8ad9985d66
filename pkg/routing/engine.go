package routing

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"

	"ev_router/pkg/cost"
	"ev_router/pkg/graph"
	"ev_router/pkg/station"
)

var (
	// ErrUnknownStation is returned when a source or target name has no
	// matching station. The concrete error is an *UnknownStationError.
	ErrUnknownStation = station.ErrUnknownStation

	// ErrIdenticalEndpoints is returned when source and target are the same.
	ErrIdenticalEndpoints = errors.New("source and target are identical")

	// ErrUnreachable is returned when no sequence of hops within range
	// connects source and target.
	ErrUnreachable = errors.New("target unreachable from source")

	// ErrGraphMismatch is returned by NewEngine when the graph was not built
	// for the given network and model.
	ErrGraphMismatch = errors.New("graph does not match network")
)

// UnknownStationError names the endpoint that failed to resolve.
type UnknownStationError struct {
	Field string // "source" or "target"
	Name  string
}

func (e *UnknownStationError) Error() string {
	return fmt.Sprintf("%v: %s %q", ErrUnknownStation, e.Field, e.Name)
}

func (e *UnknownStationError) Unwrap() error { return ErrUnknownStation }

// InvariantError is the panic value for internal defects in the search.
// It is never returned as an error.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return "routing invariant violated: " + e.Msg }

func invariant(format string, args ...any) {
	panic(&InvariantError{Msg: fmt.Sprintf(format, args...)})
}

// Router is the interface for route queries.
type Router interface {
	Route(ctx context.Context, source, target string) (*Route, error)
}

// Stats describes the loaded network.
type Stats struct {
	Stations   int
	Edges      int // undirected
	Components int
	MaxRangeKm float64
}

// Engine implements Router over an immutable station network.
// It is safe for concurrent use; every query allocates its own state.
type Engine struct {
	net   *station.Network
	g     *graph.Graph
	model cost.Model
	comp  []uint32 // component label per node
	stats Stats
}

// NewEngine creates a routing engine. g must have been built from net with
// a range no larger than model.MaxRangeKm.
func NewEngine(net *station.Network, g *graph.Graph, model cost.Model) (*Engine, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}
	if uint32(net.Len()) != g.NumNodes {
		return nil, fmt.Errorf("%w: %d stations, %d nodes", ErrGraphMismatch, net.Len(), g.NumNodes)
	}
	for e, d := range g.Dist {
		if d > model.MaxRangeKm {
			return nil, fmt.Errorf("%w: edge %d is %.3f km, max range is %.3f km", ErrGraphMismatch, e, d, model.MaxRangeKm)
		}
	}

	comp := graph.Components(g)
	numComp := 0
	for i, c := range comp {
		if c == uint32(i) {
			numComp++
		}
	}

	e := &Engine{
		net:   net,
		g:     g,
		model: model,
		comp:  comp,
		stats: Stats{
			Stations:   net.Len(),
			Edges:      int(g.NumEdges / 2),
			Components: numComp,
			MaxRangeKm: model.MaxRangeKm,
		},
	}
	slog.Info("routing engine ready",
		"stations", e.stats.Stations,
		"edges", e.stats.Edges,
		"components", e.stats.Components,
		"max_range_km", model.MaxRangeKm,
		"road_speed_kmh", model.RoadSpeedKmh,
	)
	return e, nil
}

// Network returns the station table the engine routes over.
func (e *Engine) Network() *station.Network { return e.net }

// Stats returns network statistics.
func (e *Engine) Stats() Stats { return e.stats }

// Route computes the minimum-time route from source to target, including
// how long to charge at every intermediate station.
func (e *Engine) Route(ctx context.Context, source, target string) (*Route, error) {
	if source == target {
		return nil, fmt.Errorf("%w: %q", ErrIdenticalEndpoints, source)
	}
	s, err := e.net.Lookup(source)
	if err != nil {
		return nil, &UnknownStationError{Field: "source", Name: source}
	}
	t, err := e.net.Lookup(target)
	if err != nil {
		return nil, &UnknownStationError{Field: "target", Name: target}
	}

	// Every station can charge to full, so any chain of in-range hops is
	// drivable and components decide reachability.
	if e.comp[s] != e.comp[t] {
		return nil, fmt.Errorf("%w: %q and %q are not connected within %.0f km hops", ErrUnreachable, source, target, e.model.MaxRangeKm)
	}

	srch := e.newSearch(s)
	final, err := srch.run(ctx, t)
	if err != nil {
		if errors.Is(err, ErrUnreachable) {
			return nil, fmt.Errorf("%w: search from %q exhausted before reaching %q", err, source, target)
		}
		return nil, err
	}
	return e.extract(srch.store, s, final), nil
}

// search is the state of one query.
type search struct {
	e        *Engine
	store    *LabelStore
	settled  []uint32 // node -> settled label id, or noLabel
	frontier *Frontier

	onSettle func(Label) // test hook
}

func (e *Engine) newSearch(source uint32) *search {
	settled := make([]uint32, e.g.NumNodes)
	for i := range settled {
		settled[i] = noLabel
	}
	store := NewLabelStore(e.g.NumNodes)
	srch := &search{
		e:        e,
		store:    store,
		settled:  settled,
		frontier: NewFrontier(store, settled),
	}
	srch.frontier.Push(store.Seed(source, e.model.MaxRangeKm))
	return srch
}

// run settles nodes in cost order until target is settled.
func (s *search) run(ctx context.Context, target uint32) (Label, error) {
	iterations := 0
	for {
		// Check context cancellation periodically.
		iterations++
		if iterations%100 == 0 {
			if err := ctx.Err(); err != nil {
				return Label{}, err
			}
		}

		item, ok := s.frontier.PopBestValid()
		if !ok {
			return Label{}, ErrUnreachable
		}

		l := s.store.Label(item.ID)
		if s.settled[l.Node] != noLabel {
			invariant("node %d popped after being settled", l.Node)
		}
		s.settled[l.Node] = l.ID
		if s.onSettle != nil {
			s.onSettle(l)
		}

		if l.Node == target {
			return l, nil
		}
		s.expand(l)
	}
}

// expand generates up to three candidate labels for every unsettled
// neighbor of l: drive on the current range, charge to full first, or
// charge just enough to arrive empty.
func (s *search) expand(l Label) {
	g, m := s.e.g, s.e.model
	rate := s.e.net.At(l.Node).Rate

	start, end := g.EdgesFrom(l.Node)
	for i := start; i < end; i++ {
		v := g.Head[i]
		if s.settled[v] != noLabel {
			continue
		}
		d := g.Dist[i]
		travel := m.TravelTime(d)

		if d <= l.Range {
			s.offer(Label{
				Node:   v,
				Cost:   l.Cost + travel,
				Range:  l.Range - d,
				Parent: l.ID,
			})
		}

		if l.Range >= m.MaxRangeKm {
			continue
		}

		full := m.TimeToFullCharge(l.Range, rate)
		s.offer(Label{
			Node:           v,
			Cost:           l.Cost + travel + full,
			ChargeAtParent: full,
			Range:          m.MaxRangeKm - d,
			Parent:         l.ID,
		})

		if l.Range < d {
			partial := m.TimeToPartialCharge(l.Range, d, rate)
			s.offer(Label{
				Node:           v,
				Cost:           l.Cost + travel + partial,
				ChargeAtParent: partial,
				Range:          0,
				Parent:         l.ID,
			})
		}
	}
}

func (s *search) offer(cand Label) {
	if l, ok := s.store.Insert(cand); ok {
		s.frontier.Push(l)
	}
}
