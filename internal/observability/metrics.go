package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Generate outcomes recorded in sqlbud_generate_requests_total.
const (
	OutcomeSuccess        = "success"
	OutcomeInvalidRequest = "invalid_request"
	OutcomeNoCredential   = "no_credential"
	OutcomeClientError    = "client_error"
	OutcomeBackendError   = "backend_error"
	OutcomeEmptyResponse  = "empty_response"
	OutcomeRejected       = "rejected"
)

// noProvider labels requests that failed before a provider was chosen.
const noProvider = "none"

// Metrics holds the collectors for one registry. A nil *Metrics records
// nothing.
type Metrics struct {
	generateRequests *prometheus.CounterVec
	backendLatency   *prometheus.HistogramVec
	extractionStages *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		generateRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlbud_generate_requests_total",
				Help: "Total number of generate requests by provider and outcome.",
			},
			[]string{"provider", "outcome"},
		),
		backendLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sqlbud_backend_latency_seconds",
				Help:    "Latency of backend generate calls, retries included.",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
			},
			[]string{"provider"},
		),
		extractionStages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlbud_response_extraction_total",
				Help: "Backend replies by the extraction stage that produced the document.",
			},
			[]string{"stage"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlbud_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sqlbud_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.generateRequests,
		m.backendLatency,
		m.extractionStages,
		m.httpRequests,
		m.httpDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) ObserveGenerate(provider, outcome string) {
	if m == nil {
		return
	}
	if provider == "" {
		provider = noProvider
	}
	m.generateRequests.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) ObserveBackendLatency(provider string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.backendLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveExtraction(stage string) {
	if m == nil {
		return
	}
	m.extractionStages.WithLabelValues(stage).Inc()
}

// WriteTextfile dumps every metric gathered by g to path in the Prometheus
// text format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
