package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mockmate/internal/services/health"
	"mockmate/internal/shared/metrics"
)

type pingHandler struct{}

func (pingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/interviews", func(c *gin.Context) { c.JSON(http.StatusCreated, gin.H{"ok": true}) })
	rg.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"pong": true}) })
}

func TestRouterRegistersHandlersAndHealth(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewMetrics(reg).IncStarted()
	r := NewRouter(RouterDeps{
		Gatherer: reg,
		Health:   health.NewService("v1", func() int { return 5 }, nil),
		Handlers: []RouteRegistrar{pingHandler{}},
	})

	for _, path := range []string{"/health", "/api/v1/health", "/api/v1/ping"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
		if w.Header().Get("X-Request-Id") == "" {
			t.Fatalf("%s: expected request id header", path)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "mockmate_interviews_started_total 1") {
		t.Fatalf("metrics output missing counter:\n%s", w.Body.String())
	}
}

func TestRouterHealthReportsFailure(t *testing.T) {
	r := NewRouter(RouterDeps{Health: health.NewService("v1", func() int { return 0 }, nil)})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestRouterLimitsInterviewStarts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	r := NewRouter(RouterDeps{StartRatePerMin: 6, Metrics: m, Handlers: []RouteRegistrar{pingHandler{}}})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/interviews", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusCreated || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
	if got := testutil.ToFloat64(m.RateLimited.WithLabelValues("start")); got != 2 {
		t.Fatalf("expected 2 rejected starts, got %v", got)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("non-start routes must not be limited, got %d", w.Code)
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
