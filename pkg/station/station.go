package station

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUnknownStation is returned when a name has no matching record.
	ErrUnknownStation = errors.New("unknown station")

	// ErrMalformedDataset is returned when a station table fails validation.
	ErrMalformedDataset = errors.New("malformed station dataset")
)

// Station is a charging location. Rate is the range gained per hour of
// charging, in km/h.
type Station struct {
	Name string  `yaml:"name" json:"name"`
	Lat  float64 `yaml:"lat" json:"lat"`
	Lon  float64 `yaml:"lon" json:"lon"`
	Rate float64 `yaml:"rate" json:"rate"`
}

// Network is an immutable, validated station table. Node IDs are indices
// into the table and stay stable for the lifetime of the Network.
// A Network is safe for concurrent use.
type Network struct {
	stations []Station
	byName   map[string]uint32
}

// NewNetwork validates the stations and builds the name index.
// The input slice is copied.
func NewNetwork(stations []Station) (*Network, error) {
	if uint64(len(stations)) >= math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d stations exceeds node id space", ErrMalformedDataset, len(stations))
	}

	byName := make(map[string]uint32, len(stations))
	for i, s := range stations {
		if err := validate(s); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformedDataset, i, err)
		}
		if prev, dup := byName[s.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q (records %d and %d)", ErrMalformedDataset, s.Name, prev, i)
		}
		byName[s.Name] = uint32(i)
	}

	return &Network{
		stations: append([]Station(nil), stations...),
		byName:   byName,
	}, nil
}

func validate(s Station) error {
	if s.Name == "" {
		return errors.New("empty name")
	}
	if math.IsNaN(s.Lat) || s.Lat < -90 || s.Lat > 90 {
		return fmt.Errorf("%q: latitude %v out of range", s.Name, s.Lat)
	}
	if math.IsNaN(s.Lon) || s.Lon < -180 || s.Lon > 180 {
		return fmt.Errorf("%q: longitude %v out of range", s.Name, s.Lon)
	}
	if !(s.Rate > 0) || math.IsInf(s.Rate, 0) {
		return fmt.Errorf("%q: charge rate %v must be positive", s.Name, s.Rate)
	}
	return nil
}

// Len returns the number of stations.
func (n *Network) Len() int { return len(n.stations) }

// At returns the station with the given node ID.
func (n *Network) At(id uint32) Station { return n.stations[id] }

// Stations returns a copy of the station table in node ID order.
func (n *Network) Stations() []Station {
	return append([]Station(nil), n.stations...)
}

// Lookup returns the node ID for a station name.
func (n *Network) Lookup(name string) (uint32, error) {
	id, ok := n.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownStation, name)
	}
	return id, nil
}
