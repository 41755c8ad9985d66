package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"mime"
	"net/http"
	"strconv"

	"golang.org/x/exp/slog"

	"ev_router/pkg/routing"
	"ev_router/pkg/station"
)

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	router   routing.Router
	net      *station.Network
	index    *station.Index
	stations StationsResponse
	stats    StatsResponse
}

// NewHandlers creates handlers with the given router over net.
func NewHandlers(router routing.Router, net *station.Network, stats StatsResponse) *Handlers {
	list := make([]StationJSON, 0, net.Len())
	for _, s := range net.Stations() {
		list = append(list, stationJSON(s))
	}
	return &Handlers{
		router:   router,
		net:      net,
		index:    station.NewIndex(net),
		stations: StationsResponse{Stations: list},
		stats:    stats,
	}
}

// HandleRoute handles POST /api/v1/route.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	// Enforce Content-Type.
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	// Parse request.
	var req RouteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}
	if req.Source == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "source")
		return
	}
	if req.Target == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "target")
		return
	}

	// Route.
	result, err := h.router.Route(r.Context(), req.Source, req.Target)
	if err != nil {
		var unknown *routing.UnknownStationError
		switch {
		case errors.As(err, &unknown):
			writeError(w, http.StatusNotFound, "unknown_station", unknown.Field)
		case errors.Is(err, routing.ErrIdenticalEndpoints):
			writeError(w, http.StatusBadRequest, "identical_endpoints", "")
		case errors.Is(err, routing.ErrUnreachable):
			writeError(w, http.StatusUnprocessableEntity, "unreachable", "")
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusServiceUnavailable, "request_timeout", "")
		default:
			slog.Error("route failed", "source", req.Source, "target", req.Target, "err", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "")
		}
		return
	}

	// Build response.
	resp := RouteResponse{
		Route:       result.String(),
		TotalHours:  result.TotalTime.Hours(),
		DriveHours:  result.DriveTime.Hours(),
		ChargeHours: result.ChargeTime.Hours(),
		DistanceKm:  result.DistanceKm,
		Stops:       make([]StopJSON, len(result.Stops)),
	}
	for i, s := range result.Stops {
		resp.Stops[i] = StopJSON{
			Name:           s.Name,
			Lat:            s.Lat,
			Lng:            s.Lon,
			ChargeHours:    s.ChargeHours,
			ArrivalRangeKm: s.ArrivalRange,
		}
	}

	writeJSON(w, resp)
}

// HandleStations handles GET /api/v1/stations.
func (h *Handlers) HandleStations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.stations)
}

// HandleNearest handles GET /api/v1/stations/nearest?lat=&lng=.
func (h *Handlers) HandleNearest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "lat")
		return
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "lng")
		return
	}
	if err := validateCoord(lat, lng); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "")
		return
	}

	id, dist, ok := h.index.Nearest(lat, lng)
	if !ok {
		writeError(w, http.StatusNotFound, "no_stations", "")
		return
	}
	writeJSON(w, NearestResponse{Station: stationJSON(h.net.At(id)), DistanceKm: dist})
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.stats)
}

func stationJSON(s station.Station) StationJSON {
	return StationJSON{Name: s.Name, Lat: s.Lat, Lng: s.Lon, RateKmh: s.Rate}
}

func validateCoord(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return errors.New("coordinates must be finite numbers")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return errors.New("coordinates out of range")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code, Field: field})
}
