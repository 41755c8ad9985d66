package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ev_router/pkg/routing"
	"ev_router/pkg/station"
)

// mockRouter implements routing.Router for testing.
type mockRouter struct {
	result *routing.Route
	err    error
	panics bool
}

func (m *mockRouter) Route(ctx context.Context, source, target string) (*routing.Route, error) {
	if m.panics {
		panic(&routing.InvariantError{Msg: "test"})
	}
	return m.result, m.err
}

func testNetwork(t *testing.T) *station.Network {
	t.Helper()
	net, err := station.NewNetwork([]station.Station{
		{Name: "Barstow_CA", Lat: 34.8958, Lon: -117.0173, Rate: 120},
		{Name: "Baker_CA", Lat: 35.2652, Lon: -116.0747, Rate: 90},
		{Name: "Primm_NV", Lat: 35.6105, Lon: -115.3889, Rate: 120},
	})
	if err != nil {
		t.Fatal(err)
	}
	return net
}

func postRoute(h *Handlers, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.HandleRoute(w, req)
	return w
}

func TestHandleRoute_Success(t *testing.T) {
	mock := &mockRouter{
		result: &routing.Route{
			Stops: []routing.Stop{
				{Name: "Barstow_CA", Lat: 34.8958, Lon: -117.0173, ArrivalRange: 320},
				{Name: "Baker_CA", Lat: 35.2652, Lon: -116.0747, Charge: 30 * time.Minute, ChargeHours: 0.5, ArrivalRange: 10},
				{Name: "Primm_NV", Lat: 35.6105, Lon: -115.3889, ArrivalRange: 200},
			},
			TotalTime:  3 * time.Hour,
			DriveTime:  150 * time.Minute,
			ChargeTime: 30 * time.Minute,
			DistanceKm: 262.5,
		},
	}
	h := NewHandlers(mock, testNetwork(t), StatsResponse{})

	w := postRoute(h, `{"source":"Barstow_CA","target":"Primm_NV"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}

	var resp RouteResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Route != "Barstow_CA, Baker_CA, 0.500000, Primm_NV" {
		t.Errorf("Route = %q", resp.Route)
	}
	if resp.TotalHours != 3 || resp.DriveHours != 2.5 || resp.ChargeHours != 0.5 {
		t.Errorf("hours = %v/%v/%v, want 3/2.5/0.5", resp.TotalHours, resp.DriveHours, resp.ChargeHours)
	}
	if resp.DistanceKm != 262.5 {
		t.Errorf("DistanceKm = %f, want 262.5", resp.DistanceKm)
	}
	if len(resp.Stops) != 3 || resp.Stops[1].ChargeHours != 0.5 || resp.Stops[1].Lng != -116.0747 {
		t.Errorf("Stops = %+v", resp.Stops)
	}
}

func TestHandleRoute_BadRequests(t *testing.T) {
	h := NewHandlers(&mockRouter{}, testNetwork(t), StatsResponse{})

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"invalid json", "not json", ""},
		{"missing source", `{"target":"Baker_CA"}`, "source"},
		{"missing target", `{"source":"Baker_CA"}`, "target"},
		{"oversized body", `{"source":"` + strings.Repeat("x", 5000) + `","target":"Baker_CA"}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postRoute(h, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			var resp ErrorResponse
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Error != "invalid_request" || resp.Field != tt.wantField {
				t.Errorf("error = %+v, want invalid_request/%q", resp, tt.wantField)
			}
		})
	}
}

func TestHandleRoute_MissingContentType(t *testing.T) {
	h := NewHandlers(&mockRouter{}, testNetwork(t), StatsResponse{})

	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(`{"source":"A","target":"B"}`))
	w := httptest.NewRecorder()

	h.HandleRoute(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleRoute_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{"unknown target", &routing.UnknownStationError{Field: "target", Name: "Nowhere"}, http.StatusNotFound, "unknown_station", "target"},
		{"wrapped unknown", fmt.Errorf("lookup: %w", &routing.UnknownStationError{Field: "source", Name: "X"}), http.StatusNotFound, "unknown_station", "source"},
		{"identical", fmt.Errorf("%w: %q", routing.ErrIdenticalEndpoints, "A"), http.StatusBadRequest, "identical_endpoints", ""},
		{"unreachable", fmt.Errorf("%w: far", routing.ErrUnreachable), http.StatusUnprocessableEntity, "unreachable", ""},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable, "request_timeout", ""},
		{"canceled", context.Canceled, http.StatusServiceUnavailable, "request_timeout", ""},
		{"other", fmt.Errorf("disk on fire"), http.StatusInternalServerError, "internal_error", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandlers(&mockRouter{err: tt.err}, testNetwork(t), StatsResponse{})
			w := postRoute(h, `{"source":"A","target":"B"}`)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp ErrorResponse
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Error != tt.wantCode || resp.Field != tt.wantField {
				t.Errorf("error = %+v, want %s/%q", resp, tt.wantCode, tt.wantField)
			}
		})
	}
}

func TestHandleStations(t *testing.T) {
	h := NewHandlers(&mockRouter{}, testNetwork(t), StatsResponse{})

	req := httptest.NewRequest("GET", "/api/v1/stations", nil)
	w := httptest.NewRecorder()
	h.HandleStations(w, req)

	var resp StationsResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Stations) != 3 {
		t.Fatalf("len(Stations) = %d, want 3", len(resp.Stations))
	}
	if resp.Stations[1] != (StationJSON{Name: "Baker_CA", Lat: 35.2652, Lng: -116.0747, RateKmh: 90}) {
		t.Errorf("Stations[1] = %+v", resp.Stations[1])
	}
}

func TestHandleNearest(t *testing.T) {
	h := NewHandlers(&mockRouter{}, testNetwork(t), StatsResponse{})

	tests := []struct {
		query      string
		wantStatus int
		wantName   string
	}{
		{"lat=35.3&lng=-116.1", http.StatusOK, "Baker_CA"},
		{"lat=35.6&lng=-115.3", http.StatusOK, "Primm_NV"},
		{"lat=abc&lng=-115.3", http.StatusBadRequest, ""},
		{"lat=35.6", http.StatusBadRequest, ""},
		{"lat=95&lng=0", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/stations/nearest?"+tt.query, nil)
			w := httptest.NewRecorder()
			h.HandleNearest(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantName == "" {
				return
			}
			var resp NearestResponse
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Station.Name != tt.wantName {
				t.Errorf("Station = %q, want %q", resp.Station.Name, tt.wantName)
			}
			if resp.DistanceKm <= 0 || resp.DistanceKm > 20 {
				t.Errorf("DistanceKm = %f", resp.DistanceKm)
			}
		})
	}
}

func TestHandleNearest_EmptyNetwork(t *testing.T) {
	net, err := station.NewNetwork(nil)
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandlers(&mockRouter{}, net, StatsResponse{})

	req := httptest.NewRequest("GET", "/api/v1/stations/nearest?lat=0&lng=0", nil)
	w := httptest.NewRecorder()
	h.HandleNearest(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	h := NewHandlers(&mockRouter{}, testNetwork(t), StatsResponse{})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()

	h.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	var resp HealthResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != "ok" {
		t.Errorf("status = %q, want 'ok'", resp.Status)
	}
}

func TestHandleStats(t *testing.T) {
	stats := StatsResponse{Stations: 3, Edges: 3, Components: 1, MaxRangeKm: 320, RoadSpeedKmh: 105}
	h := NewHandlers(&mockRouter{}, testNetwork(t), stats)

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	w := httptest.NewRecorder()

	h.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	var resp StatsResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp != stats {
		t.Errorf("stats = %+v, want %+v", resp, stats)
	}
}
