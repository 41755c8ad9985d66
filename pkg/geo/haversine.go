package geo

import "math"

// EarthRadiusKm is the spherical earth radius used for every distance in the
// router. It matches the reference station dataset, not the WGS84 mean.
const EarthRadiusKm = 6356.752

// boxPadDeg widens range boxes so floating-point noise in the trig below can
// never exclude a point that Haversine places exactly on the boundary.
const boxPadDeg = 1e-9

func degToRad(deg float64) float64 { return deg * math.Pi / 180 }

func radToDeg(rad float64) float64 { return rad * 180 / math.Pi }

// Haversine returns the great-circle distance in kilometers between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := degToRad(lat1)
	lat2r := degToRad(lat2)
	dLat := lat2r - lat1r
	dLon := degToRad(lon2) - degToRad(lon1)

	u := math.Sin(dLat / 2)
	v := math.Sin(dLon / 2)

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(u*u+math.Cos(lat1r)*math.Cos(lat2r)*v*v))
}

// Box is an axis-aligned latitude/longitude rectangle in degrees.
type Box struct {
	MinLat, MinLon float64
	MaxLat, MaxLon float64
}

// Contains returns true if the point lies inside the box (edges included).
func (b Box) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// RangeBox returns boxes that together cover every point within km of
// (lat, lon). A window crossing the antimeridian is split in two; a window
// reaching a pole spans all longitudes.
func RangeBox(lat, lon, km float64) []Box {
	r := km / EarthRadiusKm
	if r >= math.Pi {
		return []Box{{MinLat: -90, MinLon: -180, MaxLat: 90, MaxLon: 180}}
	}

	dLat := radToDeg(r) + boxPadDeg
	minLat := lat - dLat
	maxLat := lat + dLat
	if minLat <= -90 || maxLat >= 90 {
		return []Box{{
			MinLat: math.Max(minLat, -90),
			MinLon: -180,
			MaxLat: math.Min(maxLat, 90),
			MaxLon: 180,
		}}
	}

	// Widest longitude offset of a spherical cap with angular radius r.
	ratio := math.Sin(r) / math.Cos(degToRad(lat))
	if ratio >= 1 {
		return []Box{{MinLat: minLat, MinLon: -180, MaxLat: maxLat, MaxLon: 180}}
	}
	dLon := radToDeg(math.Asin(ratio)) + boxPadDeg
	minLon := lon - dLon
	maxLon := lon + dLon

	switch {
	case minLon < -180:
		return []Box{
			{MinLat: minLat, MinLon: -180, MaxLat: maxLat, MaxLon: maxLon},
			{MinLat: minLat, MinLon: minLon + 360, MaxLat: maxLat, MaxLon: 180},
		}
	case maxLon > 180:
		return []Box{
			{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: 180},
			{MinLat: minLat, MinLon: -180, MaxLat: maxLat, MaxLon: maxLon - 360},
		}
	}
	return []Box{{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}}
}

// EquirectangularDist returns an approximate distance in kilometers.
// Cheaper than Haversine; use it to rank candidates, not for edge weights.
func EquirectangularDist(lat1, lon1, lat2, lon2 float64) float64 {
	dLon := lon2 - lon1
	if dLon > 180 {
		dLon -= 360
	} else if dLon < -180 {
		dLon += 360
	}
	x := degToRad(dLon) * math.Cos(degToRad((lat1+lat2)/2))
	y := degToRad(lat2 - lat1)
	return math.Sqrt(x*x+y*y) * EarthRadiusKm
}
