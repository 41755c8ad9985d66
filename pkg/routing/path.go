package routing

import (
	"strconv"
	"strings"
	"time"
)

// Stop is one station on a route.
type Stop struct {
	Name         string
	Lat, Lon     float64
	Charge       time.Duration // time charged here before departing; 0 at source and target
	ChargeHours  float64
	ArrivalRange float64 // km left on arrival
}

// Route is the result of a query.
type Route struct {
	Stops      []Stop
	TotalTime  time.Duration
	DriveTime  time.Duration
	ChargeTime time.Duration
	DistanceKm float64
}

// String renders the route as the source name followed by each later
// station, with the charging hours after every intermediate stop:
//
//	S, A, 1.234567, B, 0.500000, T
func (r *Route) String() string {
	var b strings.Builder
	for i, s := range r.Stops {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(s.Name)
		if i > 0 && i < len(r.Stops)-1 {
			b.WriteString(", ")
			b.WriteString(strconv.FormatFloat(s.ChargeHours, 'f', 6, 64))
		}
	}
	return b.String()
}

// extract walks parent links from the target's settled label back to the
// self-referential source label.
func (e *Engine) extract(store *LabelStore, source uint32, final Label) *Route {
	var chain []Label
	for l := final; ; l = store.Label(l.Parent) {
		chain = append(chain, l)
		if l.Parent == l.ID {
			break
		}
		if len(chain) > int(e.g.NumNodes) {
			invariant("parent chain from label %d longer than %d nodes", final.ID, e.g.NumNodes)
		}
	}
	if chain[len(chain)-1].Node != source {
		invariant("parent chain ends at node %d, want source %d", chain[len(chain)-1].Node, source)
	}

	// Reverse to source → target order.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	r := &Route{
		Stops:     make([]Stop, len(chain)),
		TotalTime: final.Cost,
	}
	for i, l := range chain {
		st := e.net.At(l.Node)
		stop := Stop{
			Name:         st.Name,
			Lat:          st.Lat,
			Lon:          st.Lon,
			ArrivalRange: l.Range,
		}
		if i+1 < len(chain) {
			next := chain[i+1]
			stop.Charge = next.ChargeAtParent
			edge, ok := e.g.FindEdge(l.Node, next.Node)
			if !ok {
				invariant("no edge %d-%d on extracted path", l.Node, next.Node)
			}
			r.DistanceKm += e.g.Dist[edge]
		}
		stop.ChargeHours = e.model.Hours(stop.Charge)
		r.ChargeTime += stop.Charge
		r.Stops[i] = stop
	}
	r.DriveTime = r.TotalTime - r.ChargeTime
	return r
}
