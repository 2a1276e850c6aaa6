package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusMetrics struct {
	importsTotal              *prometheus.CounterVec
	importRows                *prometheus.CounterVec
	importDuration            prometheus.Histogram
	llmRequests               *prometheus.CounterVec
	llmDuration               prometheus.Histogram
	circuitBreakerState       *prometheus.GaugeVec
	receiptsProcessed         *prometheus.CounterVec
	suggestionsTotal          *prometheus.CounterVec
	categoryCacheLoads        prometheus.Counter
	authenticationEventsTotal *prometheus.CounterVec
}

// NewPrometheusMetrics registers the service metrics with reg.
// Pass prometheus.DefaultRegisterer to expose them on the default /metrics handler.
func NewPrometheusMetrics(reg prometheus.Registerer) MetricsRecorderInterface {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		importsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_imports_total",
				Help: "Total number of file imports by outcome",
			},
			[]string{"format", "status"},
		),
		importRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_import_rows_total",
				Help: "Imported file rows by result",
			},
			[]string{"result"},
		),
		importDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "finance_import_duration_seconds",
				Help:    "Duration of a complete file import in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		llmRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_llm_requests_total",
				Help: "Total number of language model requests",
			},
			[]string{"operation", "status"},
		),
		llmDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "finance_llm_request_duration_seconds",
				Help:    "Language model request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		circuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"service"},
		),
		receiptsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_receipts_processed_total",
				Help: "Total number of receipt OCR runs by status",
			},
			[]string{"status"},
		),
		suggestionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_category_suggestions_total",
				Help: "Category suggestions by source",
			},
			[]string{"source"},
		),
		categoryCacheLoads: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "finance_category_cache_loads_total",
				Help: "Number of times the category cache was loaded from the database",
			},
		),
		authenticationEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authentication_events_total",
				Help: "Total number of authentication events",
			},
			[]string{"event_type"},
		),
	}
}

func (m *PrometheusMetrics) IncrementCounter(name string, tags map[string]string) {
	status := tags["status"]

	switch name {
	case "import_completed":
		m.importsTotal.WithLabelValues(tags["format"], status).Inc()
	case "llm_requests_total":
		m.llmRequests.WithLabelValues(tags["operation"], status).Inc()
	case "receipt_processed":
		if status != "" {
			m.receiptsProcessed.WithLabelValues(status).Inc()
		}
	case "category_suggestion":
		if source := tags["source"]; source != "" {
			m.suggestionsTotal.WithLabelValues(source).Inc()
		}
	case "category_cache_load":
		m.categoryCacheLoads.Inc()
	case "authentication_event":
		if eventType := tags["event_type"]; eventType != "" {
			m.authenticationEventsTotal.WithLabelValues(eventType).Inc()
		}
	}
}

func (m *PrometheusMetrics) RecordProcessingTime(name string, duration time.Duration) {
	switch name {
	case "import_duration":
		m.importDuration.Observe(duration.Seconds())
	case "llm_request":
		m.llmDuration.Observe(duration.Seconds())
	}
}

func (m *PrometheusMetrics) RecordGauge(name string, value float64, tags map[string]string) {
	switch name {
	case "import_rows":
		if result := tags["result"]; result != "" && value > 0 {
			m.importRows.WithLabelValues(result).Add(value)
		}
	case "circuit_breaker_state":
		m.circuitBreakerState.WithLabelValues(tags["service"]).Set(value)
	}
}
