package osm

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"golang.org/x/exp/slog"

	"ev_router/pkg/station"
)

// DefaultRateKmh is the charging rate assumed when a station carries no
// usable rate or power tag.
const DefaultRateKmh = 120.0

// BBox defines a geographic bounding box for filtering.
// If non-zero, only stations inside the box are kept.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// IsZero returns true if the bbox is unset.
func (b BBox) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLng == 0 && b.MaxLng == 0
}

// Contains returns true if the point is inside the bounding box.
func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// ParseOptions configures the OSM parser.
type ParseOptions struct {
	BBox        BBox    // if non-zero, filter stations to this bounding box
	DefaultRate float64 // km of range per hour; DefaultRateKmh if zero
	KmPerKWh    float64 // if positive, socket output tags are converted to a rate
}

// isChargingStation returns true for amenity=charging_station objects that
// are usable by the public.
func isChargingStation(tags osm.Tags) bool {
	if tags.Find("amenity") != "charging_station" {
		return false
	}
	access := tags.Find("access")
	if access == "no" || access == "private" {
		return false
	}
	if tags.Find("motorcar") == "no" {
		return false
	}
	return true
}

// stationName picks a display name; uniqueness is enforced by the caller.
func stationName(tags osm.Tags, typ string, id int64) string {
	for _, key := range []string{"name", "brand", "operator"} {
		if v := strings.TrimSpace(tags.Find(key)); v != "" {
			return v
		}
	}
	return fmt.Sprintf("charging_station_%s%d", typ, id)
}

// parseKW parses power values such as "150 kW", "22kW" or "50".
func parseKW(v string) (float64, bool) {
	v = strings.TrimSpace(strings.ToLower(v))
	v = strings.TrimSuffix(v, "kw")
	kw, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || !(kw > 0) {
		return 0, false
	}
	return kw, true
}

// chargeRate returns the station's charging rate in km/h.
func chargeRate(tags osm.Tags, opt ParseOptions) float64 {
	if v := tags.Find("charge_rate_kmh"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil && rate > 0 {
			return rate
		}
	}

	if opt.KmPerKWh > 0 {
		best := 0.0
		for _, t := range tags {
			if strings.HasPrefix(t.Key, "socket:") && strings.HasSuffix(t.Key, ":output") {
				if kw, ok := parseKW(t.Value); ok && kw > best {
					best = kw
				}
			}
		}
		if best > 0 {
			return best * opt.KmPerKWh
		}
	}

	if opt.DefaultRate > 0 {
		return opt.DefaultRate
	}
	return DefaultRateKmh
}

// wayInfo holds a charging station mapped as an area, collected in Pass 1.
type wayInfo struct {
	ID      osm.WayID
	NodeIDs []osm.NodeID
	Tags    osm.Tags
}

// Parse reads an OSM PBF file and returns its charging stations, sorted by
// name. Stations mapped as closed ways are placed at the mean of their
// nodes. The reader is consumed twice, so it must implement io.ReadSeeker.
func Parse(ctx context.Context, rs io.ReadSeeker, opts ...ParseOptions) ([]station.Station, error) {
	var opt ParseOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	// Pass 1: Scan ways for stations mapped as areas.
	referencedNodes := make(map[osm.NodeID]struct{})
	var ways []wayInfo

	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok || !isChargingStation(w.Tags) || len(w.Nodes) == 0 {
			continue
		}
		nodeIDs := make([]osm.NodeID, len(w.Nodes))
		for i, wn := range w.Nodes {
			nodeIDs[i] = wn.ID
			referencedNodes[wn.ID] = struct{}{}
		}
		ways = append(ways, wayInfo{ID: w.ID, NodeIDs: nodeIDs, Tags: w.Tags})
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 1 (ways): %w", err)
	}
	scanner.Close()

	slog.Info("pass 1 complete", "station_ways", len(ways), "referenced_nodes", len(referencedNodes))

	// Pass 2: Scan nodes for point stations and way coordinates.
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	nodeLat := make(map[osm.NodeID]float64, len(referencedNodes))
	nodeLon := make(map[osm.NodeID]float64, len(referencedNodes))
	var found []candidate

	scanner = osmpbf.New(ctx, rs, 1)
	scanner.SkipWays = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, needed := referencedNodes[n.ID]; needed {
			nodeLat[n.ID] = n.Lat
			nodeLon[n.ID] = n.Lon
		}
		if isChargingStation(n.Tags) {
			found = append(found, candidate{
				name: stationName(n.Tags, "n", int64(n.ID)),
				ref:  fmt.Sprintf("n%d", n.ID),
				lat:  n.Lat,
				lon:  n.Lon,
				rate: chargeRate(n.Tags, opt),
			})
		}
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	scanner.Close()

	var skippedWays int
	for _, w := range ways {
		lat, lon, ok := centroid(w.NodeIDs, nodeLat, nodeLon)
		if !ok {
			skippedWays++
			continue
		}
		found = append(found, candidate{
			name: stationName(w.Tags, "w", int64(w.ID)),
			ref:  fmt.Sprintf("w%d", w.ID),
			lat:  lat,
			lon:  lon,
			rate: chargeRate(w.Tags, opt),
		})
	}
	if skippedWays > 0 {
		slog.Warn("skipped station ways with missing node coordinates", "count", skippedWays)
	}

	stations := finalize(found, opt.BBox)
	slog.Info("extracted charging stations", "count", len(stations))
	return stations, nil
}

type candidate struct {
	name     string
	ref      string // OSM type+id, used to disambiguate names
	lat, lon float64
	rate     float64
}

// centroid averages the coordinates of a way's nodes, ignoring the repeated
// closing node. ok is false if any coordinate is missing.
func centroid(ids []osm.NodeID, lat, lon map[osm.NodeID]float64) (float64, float64, bool) {
	if len(ids) > 1 && ids[0] == ids[len(ids)-1] {
		ids = ids[:len(ids)-1]
	}
	var sumLat, sumLon float64
	for _, id := range ids {
		la, ok := lat[id]
		if !ok {
			return 0, 0, false
		}
		sumLat += la
		sumLon += lon[id]
	}
	n := float64(len(ids))
	return sumLat / n, sumLon / n, true
}

// finalize applies the bounding box, makes names unique and sorts by name.
func finalize(found []candidate, bbox BBox) []station.Station {
	useBBox := !bbox.IsZero()
	counts := make(map[string]int)
	kept := found[:0]
	for _, c := range found {
		if useBBox && !bbox.Contains(c.lat, c.lon) {
			continue
		}
		counts[c.name]++
		kept = append(kept, c)
	}

	stations := make([]station.Station, 0, len(kept))
	for _, c := range kept {
		name := c.name
		if counts[name] > 1 {
			name = name + " #" + c.ref
		}
		stations = append(stations, station.Station{Name: name, Lat: c.lat, Lon: c.lon, Rate: c.rate})
	}
	sort.Slice(stations, func(i, j int) bool { return stations[i].Name < stations[j].Name })
	return stations
}
