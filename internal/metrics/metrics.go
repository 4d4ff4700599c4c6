package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Document metrics
	UploadsTotal       *prometheus.CounterVec
	DocumentChars      prometheus.Histogram
	DocumentsTruncated prometheus.Counter

	// Chat metrics
	ChatTurnsTotal *prometheus.CounterVec

	// Model metrics
	ModelRequestsTotal   *prometheus.CounterVec
	ModelRequestDuration *prometheus.HistogramVec

	// Session metrics
	SessionsCreated prometheus.Counter
	SessionsReset   prometheus.Counter
	SessionsExpired prometheus.Counter
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		UploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdf_uploads_total",
				Help: "Total number of PDF uploads by outcome",
			},
			[]string{"status"},
		),
		DocumentChars: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pdf_document_chars",
				Help:    "Characters extracted per document before truncation",
				Buckets: prometheus.ExponentialBuckets(500, 2, 10),
			},
		),
		DocumentsTruncated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pdf_documents_truncated_total",
				Help: "Total number of documents truncated to the character budget",
			},
		),

		ChatTurnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_turns_total",
				Help: "Total number of chat turns by outcome",
			},
			[]string{"status"},
		),

		ModelRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Total number of model requests",
			},
			[]string{"provider", "status"},
		),
		ModelRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_request_duration_seconds",
				Help:    "Duration of model requests in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
			},
			[]string{"provider"},
		),

		SessionsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sessions_created_total",
				Help: "Total number of sessions created",
			},
		),
		SessionsReset: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sessions_reset_total",
				Help: "Total number of sessions reset by clients",
			},
		),
		SessionsExpired: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sessions_expired_total",
				Help: "Total number of sessions removed by expiry sweeps",
			},
		),
	}

	m.registerMetrics()

	return m
}

func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(collectors.NewGoCollector())
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m.registry.MustRegister(m.HTTPRequestsTotal)
	m.registry.MustRegister(m.HTTPRequestDuration)

	m.registry.MustRegister(m.UploadsTotal)
	m.registry.MustRegister(m.DocumentChars)
	m.registry.MustRegister(m.DocumentsTruncated)

	m.registry.MustRegister(m.ChatTurnsTotal)

	m.registry.MustRegister(m.ModelRequestsTotal)
	m.registry.MustRegister(m.ModelRequestDuration)

	m.registry.MustRegister(m.SessionsCreated)
	m.registry.MustRegister(m.SessionsReset)
	m.registry.MustRegister(m.SessionsExpired)
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
