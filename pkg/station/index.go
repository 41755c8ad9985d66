package station

import (
	"math"

	"github.com/tidwall/rtree"

	"ev_router/pkg/geo"
)

// initialSearchKm is the first radius tried by Nearest; it doubles until a
// station is found inside the searched cap.
const initialSearchKm = 25.0

// Index is a spatial index over a Network's station points.
// Points are stored as [lat, lon].
type Index struct {
	tr  rtree.RTreeG[uint32]
	net *Network
}

// NewIndex builds an R-tree over every station in net.
func NewIndex(net *Network) *Index {
	idx := &Index{net: net}
	for i, s := range net.stations {
		p := [2]float64{s.Lat, s.Lon}
		idx.tr.Insert(p, p, uint32(i))
	}
	return idx
}

// Within calls fn for every station whose great-circle distance from
// (lat, lon) is at most km. Iteration stops when fn returns false.
func (idx *Index) Within(lat, lon, km float64, fn func(id uint32, distKm float64) bool) {
	for _, b := range geo.RangeBox(lat, lon, km) {
		keepGoing := true
		idx.tr.Search([2]float64{b.MinLat, b.MinLon}, [2]float64{b.MaxLat, b.MaxLon},
			func(min, _ [2]float64, id uint32) bool {
				d := geo.Haversine(lat, lon, min[0], min[1])
				if d > km {
					return true
				}
				keepGoing = fn(id, d)
				return keepGoing
			})
		if !keepGoing {
			return
		}
	}
}

// Nearest returns the station closest to (lat, lon) and its distance in km.
// ok is false only for an empty network.
func (idx *Index) Nearest(lat, lon float64) (id uint32, distKm float64, ok bool) {
	if idx.tr.Len() == 0 {
		return 0, 0, false
	}

	best := math.Inf(1)
	for radius := initialSearchKm; ; radius *= 2 {
		idx.Within(lat, lon, radius, func(cand uint32, d float64) bool {
			if d < best || (d == best && cand < id) {
				best = d
				id = cand
			}
			return true
		})
		// Any closer station lies inside the cap just searched.
		if !math.IsInf(best, 1) {
			return id, best, true
		}
		if radius > math.Pi*geo.EarthRadiusKm {
			// Unreachable for a non-empty index: the last cap was the globe.
			return 0, 0, false
		}
	}
}
