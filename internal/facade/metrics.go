package facade

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "fornecedor"
	metricsSubsystem = "facade"
)

// Metrics holds the Prometheus instrumentation exposed at /metrics,
// alongside the per-queue JSON metrics endpoints. Each Facade owns its own
// registry rather than registering against the global default, so tests
// (and any future second facade instance in the same process) don't
// collide on duplicate collector names.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ScrapeChunks    prometheus.Histogram
}

// NewMetrics builds a fresh registry and registers the facade's collectors
// against it. Call once per Facade.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "requests_total",
				Help:      "Total HTTP requests handled by the orchestration facade.",
			},
			[]string{"route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "request_duration_seconds",
				Help:      "Facade request latency in seconds.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"route"},
		),
		ScrapeChunks: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "scrape_chunks_saved",
				Help:      "Chunks saved per synchronous scrape call.",
				Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
			},
		),
	}
}

func (m *Metrics) observe(route, status string, seconds float64) {
	m.RequestsTotal.WithLabelValues(route, status).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(seconds)
}
