package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordInterviewLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.IncStarted()
	m.IncDispensed("warmup")
	m.IncDispensed("warmup")
	m.IncAnswer(OutcomeAnswered)
	m.IncAnswer(OutcomeMismatch)
	m.IncRecycled("technical")
	m.SetActive(3)
	m.ObserveCompleted(27)

	if got := testutil.ToFloat64(m.InterviewsStarted); got != 1 {
		t.Fatalf("expected 1 started, got %v", got)
	}
	if got := testutil.ToFloat64(m.QuestionsDispensed.WithLabelValues("warmup")); got != 2 {
		t.Fatalf("expected 2 warmup dispensed, got %v", got)
	}
	if got := testutil.ToFloat64(m.AnswersSubmitted.WithLabelValues(OutcomeMismatch)); got != 1 {
		t.Fatalf("expected 1 mismatch, got %v", got)
	}
	if got := testutil.ToFloat64(m.PoolRecycled.WithLabelValues("technical")); got != 1 {
		t.Fatalf("expected 1 recycle, got %v", got)
	}
	if got := testutil.ToFloat64(m.ActiveSessions); got != 3 {
		t.Fatalf("expected 3 active, got %v", got)
	}
	if got := testutil.ToFloat64(m.InterviewsCompleted); got != 1 {
		t.Fatalf("expected 1 completed, got %v", got)
	}
	if n := testutil.CollectAndCount(m.InterviewDuration); n != 1 {
		t.Fatalf("expected duration histogram collected, got %d", n)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.IncStarted()
	m.IncDispensed("warmup")
	m.IncAnswer(OutcomeSkipped)
	m.IncRecycled("warmup")
	m.SetActive(1)
	m.SetCatalog(map[string]int{"warmup": 1})
	m.ObserveCompleted(1)
}

func TestHandlerServesRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.SetCatalog(map[string]int{"technical": 12})

	r := gin.New()
	r.GET("/metrics", Handler(reg))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `mockmate_catalog_questions{stage="technical"} 12`) {
		t.Fatalf("expected catalog gauge in output, got:\n%s", resp.Body.String())
	}
}
