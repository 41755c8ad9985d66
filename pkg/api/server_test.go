package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ev_router/pkg/config"
	"ev_router/pkg/routing"
)

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.Server{
		Addr:           ":9000",
		RequestTimeout: 2 * time.Second,
		CORSOrigins:    []string{"https://maps.example.com"},
	})

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Positive(t, cfg.MaxConcurrent)
	assert.Equal(t, []string{"https://maps.example.com"}, cfg.CORSOrigins)
}

func TestHandlerRoutesAndHeaders(t *testing.T) {
	h := NewHandlers(&mockRouter{}, testNetwork(t), StatsResponse{})
	srv := NewHandler(DefaultConfig(":0"), h)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	// Method patterns reject the wrong verb.
	req = httptest.NewRequest("GET", "/api/v1/route", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandlerCORS(t *testing.T) {
	h := NewHandlers(&mockRouter{}, testNetwork(t), StatsResponse{})
	cfg := DefaultConfig(":0")
	cfg.CORSOrigins = []string{"https://maps.example.com"}
	srv := NewHandler(cfg, h)

	req := httptest.NewRequest("GET", "/api/v1/stations", nil)
	req.Header.Set("Origin", "https://maps.example.com")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, "https://maps.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/api/v1/stations", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMiddlewareRecoversPanic(t *testing.T) {
	h := NewHandlers(&mockRouter{panics: true}, testNetwork(t), StatsResponse{})
	srv := NewHandler(DefaultConfig(":0"), h)

	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(`{"source":"A","target":"B"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal_error")
}

// deadlineRouter reports whether its context carried a deadline.
type deadlineRouter struct{ sawDeadline bool }

func (d *deadlineRouter) Route(ctx context.Context, source, target string) (*routing.Route, error) {
	_, d.sawDeadline = ctx.Deadline()
	return nil, routing.ErrUnreachable
}

func TestMiddlewareAppliesRequestTimeout(t *testing.T) {
	router := &deadlineRouter{}
	h := NewHandlers(router, testNetwork(t), StatsResponse{})
	srv := NewHandler(DefaultConfig(":0"), h)

	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(`{"source":"A","target":"B"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.True(t, router.sawDeadline)
}

func TestMiddlewareConcurrencyLimit(t *testing.T) {
	sem := make(chan struct{}, 1)
	sem <- struct{}{} // fully occupied

	handler := withMiddleware(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler ran despite full semaphore")
	}, sem, DefaultConfig(":0"))

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest("GET", "/api/v1/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}
