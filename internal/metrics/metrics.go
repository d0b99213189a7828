// Package metrics exposes Prometheus instrumentation for the admission
// pipeline and the HTTP API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "threatwatch"

// Metrics holds all pipeline Prometheus metrics. A nil *Metrics records
// nothing.
type Metrics struct {
	// Admission
	RawSubmissions *prometheus.CounterVec
	InstantResults *prometheus.CounterVec
	BatchRows      *prometheus.CounterVec

	// Classifier
	ClassifyDuration prometheus.Histogram
	ClassifyFailures prometheus.Counter
	ClassifierUp     prometheus.Gauge

	// HTTP
	RequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers the metrics with reg. reg must also be a Gatherer for
// Handler to serve it.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{}

	m.RawSubmissions = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "raw_submissions_total",
		Help:      "Raw record submissions by result (added, duplicate, invalid)",
	}, []string{"result"})

	m.InstantResults = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "classification_results_total",
		Help:      "Classification path outcomes (out_of_range, unrelated, nonnegative, threat)",
	}, []string{"outcome"})

	m.BatchRows = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_rows_total",
		Help:      "Bulk upload rows by status",
	}, []string{"status"})

	m.ClassifyDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "classify_duration_seconds",
		Help:      "Time spent in the sentiment classifier",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
	})

	m.ClassifyFailures = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "classify_failures_total",
		Help:      "Sentiment classifications that returned an error",
	})

	m.ClassifierUp = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "classifier_up",
		Help:      "1 when the last classifier health probe succeeded",
	})

	m.RequestDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// Handler serves the registry m was created with.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) RawSubmitted(result string) {
	if m == nil {
		return
	}
	m.RawSubmissions.WithLabelValues(result).Inc()
}

func (m *Metrics) ClassificationOutcome(outcome string) {
	if m == nil {
		return
	}
	m.InstantResults.WithLabelValues(outcome).Inc()
}

func (m *Metrics) BatchRow(status string) {
	if m == nil {
		return
	}
	m.BatchRows.WithLabelValues(status).Inc()
}

func (m *Metrics) Classified(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.ClassifyDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.ClassifyFailures.Inc()
	}
}

func (m *Metrics) SetClassifierUp(up bool) {
	if m == nil {
		return
	}
	if up {
		m.ClassifierUp.Set(1)
	} else {
		m.ClassifierUp.Set(0)
	}
}

func (m *Metrics) ObserveRequest(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}
