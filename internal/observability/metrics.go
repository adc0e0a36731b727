package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "disaster_dashboard"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard client.
type Metrics struct {
	// Backend API metrics.
	BackendRequests *prometheus.CounterVec   // labels: endpoint, outcome={success,network_error,backend_error,decode_error}
	BackendDuration *prometheus.HistogramVec // labels: endpoint
	ResponseCache   *prometheus.CounterVec   // labels: endpoint, result={hit,miss}

	// Screen fetch metrics.
	FetchOutcomes *prometheus.CounterVec // labels: screen, outcome={success,empty,error}
	FetchStale    *prometheus.CounterVec // labels: screen

	// Map locator metrics.
	LocatorRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	LocatorCache    *prometheus.CounterVec // labels: result={hit,miss}

	SavedViewOps    *prometheus.CounterVec // labels: op={save,list,rename,delete}, outcome={success,error}
	EventsPublished prometheus.Counter
	SessionActive   prometheus.Gauge
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      help("Backend API requests by endpoint and outcome."),
		}, []string{"endpoint", "outcome"}),
		BackendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      help("Backend API request duration in seconds."),
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"endpoint"}),
		ResponseCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_cache_total",
			Help:      help("Response cache lookups by endpoint and result."),
		}, []string{"endpoint", "result"}),
		FetchOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_outcomes_total",
			Help:      help("Completed screen fetches by screen and outcome."),
		}, []string{"screen", "outcome"}),
		FetchStale: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_stale_total",
			Help:      help("Responses discarded because a newer request superseded them."),
		}, []string{"screen"}),
		LocatorRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "locator_requests_total",
			Help:      help("Map locator API requests by outcome."),
		}, []string{"outcome"}),
		LocatorCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "locator_cache_total",
			Help:      help("Map locator cache lookups by result."),
		}, []string{"result"}),
		SavedViewOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saved_view_operations_total",
			Help:      help("Saved view operations by kind and outcome."),
		}, []string{"op", "outcome"}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saved_view_events_published_total",
			Help:      help("Saved view events written to Kafka."),
		}),
		SessionActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_active",
			Help:      help("1 when a user is logged in, 0 otherwise."),
		}),
	}
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.BackendRequests,
		m.BackendDuration,
		m.ResponseCache,
		m.FetchOutcomes,
		m.FetchStale,
		m.LocatorRequests,
		m.LocatorCache,
		m.SavedViewOps,
		m.EventsPublished,
		m.SessionActive,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}
