package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all client metrics
type Metrics struct {
	// API client metrics
	APIRequests *prometheus.CounterVec
	APILatency  *prometheus.HistogramVec

	// Session metrics
	SessionTransitions *prometheus.CounterVec

	// Token store metrics
	TokenStoreOperations *prometheus.CounterVec

	// Local collection metrics
	CollectionSize *prometheus.GaugeVec
}

// NewMetrics creates all client metrics and registers them on reg.
// A nil reg leaves the collectors unregistered.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		APIRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of backend requests by outcome",
		}, []string{"method", "resource", "outcome"}),
		APILatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Duration of backend requests",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "resource"}),

		SessionTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Total number of committed session transitions",
		}, []string{"state", "reason"}),

		TokenStoreOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "token_store",
			Name:      "operations_total",
			Help:      "Total number of token store operations",
		}, []string{"backend", "operation", "status"}),

		CollectionSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "collection",
			Name:      "items",
			Help:      "Current number of items held in a local collection",
		}, []string{"resource"}),
	}
}

// New returns unregistered metrics, handy for tests and embedding.
func New(namespace string) *Metrics {
	return NewMetrics(namespace, nil)
}
