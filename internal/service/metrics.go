package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sentinel-Gate/intentresolver/internal/domain/action"
)

const metricsNamespace = "intent_resolver"

// Metrics holds the Prometheus metrics of the resolution service.
// A nil *Metrics records nothing.
type Metrics struct {
	ResolutionsTotal   *prometheus.CounterVec
	ResolutionDuration prometheus.Histogram
	ActionsTotal       *prometheus.CounterVec
	IssuesTotal        *prometheus.CounterVec
	TimeNormalizations *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		ResolutionsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "resolutions_total",
				Help:      "Total number of resolution requests",
			},
			[]string{"status"}, // status=success/validation_failed/error
		),
		ResolutionDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "resolution_duration_seconds",
				Help:      "Resolution duration in seconds, including time resolver calls",
				Buckets:   prometheus.DefBuckets,
			},
		),
		ActionsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "actions_total",
				Help:      "Draft actions processed, by canonical operation and outcome",
			},
			[]string{"operation", "outcome"}, // outcome=normalized/rejected
		),
		IssuesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "issues_total",
				Help:      "Issues reported, by kind",
			},
			[]string{"kind"},
		),
		TimeNormalizations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "time_normalizations_total",
				Help:      "Time normalization attempts, by result",
			},
			[]string{"result"}, // result=ok/missing/unresolvable/malformed
		),
	}
}

func (m *Metrics) observeResolution(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ResolutionsTotal.WithLabelValues(status).Inc()
	m.ResolutionDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeAction(op, outcome string) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	m.ActionsTotal.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) observeReport(r *action.IssueReport) {
	if m == nil {
		return
	}
	for _, e := range r.Errors {
		m.IssuesTotal.WithLabelValues(string(e.Kind)).Inc()
	}
	if n := len(r.Ambiguous); n > 0 {
		m.IssuesTotal.WithLabelValues(issueAmbiguous).Add(float64(n))
	}
}

func (m *Metrics) observeTime(result string) {
	if m == nil {
		return
	}
	m.TimeNormalizations.WithLabelValues(result).Inc()
}
