package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Answer outcomes recorded by AnswersSubmitted.
const (
	OutcomeAnswered = "answered"
	OutcomeSkipped  = "skipped"
	OutcomeMismatch = "mismatch"
)

// Metrics holds the Prometheus collectors for interviews and the catalog.
// Every method is safe on a nil receiver so components can run without metrics.
type Metrics struct {
	InterviewsStarted   prometheus.Counter
	InterviewsCompleted prometheus.Counter
	QuestionsDispensed  *prometheus.CounterVec
	AnswersSubmitted    *prometheus.CounterVec
	PoolRecycled        *prometheus.CounterVec
	ActiveSessions      prometheus.Gauge
	InterviewDuration   prometheus.Histogram
	CatalogQuestions    *prometheus.GaugeVec
	RateLimited         *prometheus.CounterVec
}

// NewMetrics registers every collector on registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		InterviewsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "mockmate_interviews_started_total",
			Help: "Total number of interviews started",
		}),
		InterviewsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "mockmate_interviews_completed_total",
			Help: "Total number of interviews sealed with a summary",
		}),
		QuestionsDispensed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mockmate_questions_dispensed_total",
			Help: "Questions handed to candidates, by stage",
		}, []string{"stage"}),
		AnswersSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mockmate_answers_submitted_total",
			Help: "Answer submissions by outcome",
		}, []string{"outcome"}),
		PoolRecycled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mockmate_pool_recycled_total",
			Help: "Selections that had to reuse already asked questions, by stage",
		}, []string{"stage"}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mockmate_active_sessions",
			Help: "Interview engines currently held in memory",
		}),
		InterviewDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mockmate_interview_duration_minutes",
			Help:    "Interview duration in minutes at completion",
			Buckets: []float64{5, 10, 15, 20, 30, 45, 60, 90, 120},
		}),
		CatalogQuestions: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mockmate_catalog_questions",
			Help: "Questions loaded into the catalog, by stage",
		}, []string{"stage"}),
		RateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mockmate_rate_limited_total",
			Help: "Requests rejected by the rate limiter, by group",
		}, []string{"group"}),
	}
}

// IncStarted counts a started interview.
func (m *Metrics) IncStarted() {
	if m == nil {
		return
	}
	m.InterviewsStarted.Inc()
}

// ObserveCompleted counts a completed interview and its duration.
func (m *Metrics) ObserveCompleted(durationMinutes int) {
	if m == nil {
		return
	}
	m.InterviewsCompleted.Inc()
	m.InterviewDuration.Observe(float64(durationMinutes))
}

// IncDispensed counts a question handed out for stage.
func (m *Metrics) IncDispensed(stage string) {
	if m == nil {
		return
	}
	m.QuestionsDispensed.WithLabelValues(stage).Inc()
}

// IncAnswer counts a submission with outcome.
func (m *Metrics) IncAnswer(outcome string) {
	if m == nil {
		return
	}
	m.AnswersSubmitted.WithLabelValues(outcome).Inc()
}

// IncRecycled counts a recycle fallback in stage.
func (m *Metrics) IncRecycled(stage string) {
	if m == nil {
		return
	}
	m.PoolRecycled.WithLabelValues(stage).Inc()
}

// SetActive reports the number of in-memory engines.
func (m *Metrics) SetActive(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

// SetCatalog reports catalog size per stage.
func (m *Metrics) SetCatalog(perStage map[string]int) {
	if m == nil {
		return
	}
	for stage, n := range perStage {
		m.CatalogQuestions.WithLabelValues(stage).Set(float64(n))
	}
}

// IncRateLimited counts a request rejected in group.
func (m *Metrics) IncRateLimited(group string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(group).Inc()
}

// Handler exposes the registry in Prometheus text format.
func Handler(gatherer prometheus.Gatherer) gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
