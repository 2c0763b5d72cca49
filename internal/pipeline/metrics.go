package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the pipeline's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	requests      *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	fallbacks     prometheus.Counter
	degradations  prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsrag_pipeline_requests_total",
			Help: "Pipeline runs by outcome (done or the failing error kind).",
		}, []string{"outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "newsrag_pipeline_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"stage"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsrag_fetch_fallbacks_total",
			Help: "Pages replaced by their search snippet after a failed fetch.",
		}),
		degradations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsrag_retrieval_degradations_total",
			Help: "Documents emptied because retrieval failed for them.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.stageDuration, m.fallbacks, m.degradations)
	}
	return m
}

func (m *Metrics) observeStage(stage State, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage.String()).Observe(d.Seconds())
}

func (m *Metrics) outcome(label string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(label).Inc()
}

func (m *Metrics) addFallbacks(n int) {
	if m == nil || n == 0 {
		return
	}
	m.fallbacks.Add(float64(n))
}

func (m *Metrics) addDegradations(n int) {
	if m == nil || n == 0 {
		return
	}
	m.degradations.Add(float64(n))
}
