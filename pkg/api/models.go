package api

// RouteRequest is the JSON body for POST /api/v1/route.
type RouteRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// RouteResponse is the JSON response for a successful route query.
type RouteResponse struct {
	Route       string     `json:"route"`
	TotalHours  float64    `json:"total_hours"`
	DriveHours  float64    `json:"drive_hours"`
	ChargeHours float64    `json:"charge_hours"`
	DistanceKm  float64    `json:"distance_km"`
	Stops       []StopJSON `json:"stops"`
}

// StopJSON is one station on a route.
type StopJSON struct {
	Name           string  `json:"name"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	ChargeHours    float64 `json:"charge_hours"`
	ArrivalRangeKm float64 `json:"arrival_range_km"`
}

// StationJSON is a station in the dataset.
type StationJSON struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	RateKmh float64 `json:"rate_kmh"`
}

// StationsResponse is the JSON response for GET /api/v1/stations.
type StationsResponse struct {
	Stations []StationJSON `json:"stations"`
}

// NearestResponse is the JSON response for GET /api/v1/stations/nearest.
type NearestResponse struct {
	Station    StationJSON `json:"station"`
	DistanceKm float64     `json:"distance_km"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	Stations     int     `json:"stations"`
	Edges        int     `json:"edges"`
	Components   int     `json:"components"`
	MaxRangeKm   float64 `json:"max_range_km"`
	RoadSpeedKmh float64 `json:"road_speed_kmh"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
