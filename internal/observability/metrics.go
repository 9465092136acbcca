package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the assistant. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	messagesTotal       *prometheus.CounterVec
	biasDetectionsTotal *prometheus.CounterVec
	pipelineDuration    prometheus.Histogram
	providerErrorsTotal *prometheus.CounterVec
	httpRequestsTotal   *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// Labels: intent
		messagesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asha",
			Name:      "messages_total",
			Help:      "Chat messages processed by detected intent",
		}, []string{"intent"}),

		// Labels: type (biased_term, biased_phrase, stereotypical_assumption)
		biasDetectionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asha",
			Name:      "bias_detections_total",
			Help:      "Bias findings in user messages by finding type",
		}, []string{"type"}),

		pipelineDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "asha",
			Name:      "pipeline_duration_seconds",
			Help:      "End-to-end message pipeline latency",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		// Labels: variant
		providerErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asha",
			Name:      "provider_errors_total",
			Help:      "Catalog provider failures by candidate variant",
		}, []string{"variant"}),

		// Labels: route, status
		httpRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asha",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern and status code",
		}, []string{"route", "status"}),

		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "asha",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (m *Metrics) RecordMessage(intent string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(intent).Inc()
	m.pipelineDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) RecordBias(findingType string) {
	if m == nil {
		return
	}
	m.biasDetectionsTotal.WithLabelValues(findingType).Inc()
}

func (m *Metrics) RecordProviderError(variant string) {
	if m == nil {
		return
	}
	m.providerErrorsTotal.WithLabelValues(variant).Inc()
}

func (m *Metrics) RecordHTTP(route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
