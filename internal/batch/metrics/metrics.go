// Package metrics provides observability for the batch audit pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the batch module's Prometheus metrics. All methods are
// nil-safe so tests can pass a nil receiver.
type Metrics struct {
	// Judgment calls currently in flight; bounded by the concurrency cap.
	InFlightJudgments prometheus.Gauge

	// Document outcomes by verdict status.
	DocumentOutcome *prometheus.CounterVec

	ExtractLatency prometheus.Histogram
	JudgeLatency   prometheus.Histogram
	BatchDuration  prometheus.Histogram
}

// New creates and registers all batch metrics.
func New() *Metrics {
	return &Metrics{
		InFlightJudgments: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "docaudit_batch_judgments_in_flight",
			Help: "Number of judgment calls currently in flight",
		}),
		DocumentOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docaudit_batch_document_outcomes_total",
			Help: "Total per-document batch outcomes by verdict status",
		}, []string{"status"}),
		ExtractLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "docaudit_batch_extract_duration_seconds",
			Help:    "Duration of content extraction per document",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		JudgeLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "docaudit_batch_judge_duration_seconds",
			Help:    "Duration of judgment calls per document",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "docaudit_batch_run_duration_seconds",
			Help:    "Duration of whole batch runs",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}
}

func (m *Metrics) JudgmentStarted() {
	if m != nil {
		m.InFlightJudgments.Inc()
	}
}

func (m *Metrics) JudgmentFinished(d time.Duration) {
	if m != nil {
		m.InFlightJudgments.Dec()
		m.JudgeLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveExtract(d time.Duration) {
	if m != nil {
		m.ExtractLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementOutcome(status string) {
	if m != nil {
		m.DocumentOutcome.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) ObserveBatch(d time.Duration) {
	if m != nil {
		m.BatchDuration.Observe(d.Seconds())
	}
}
