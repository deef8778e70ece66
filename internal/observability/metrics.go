package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion and analysis pipelines.
type Metrics struct {
	// Ingestion metrics.
	CacheHits           prometheus.Counter
	CacheMisses         prometheus.Counter
	ProviderCalls       prometheus.Counter
	ProviderErrors      prometheus.Counter
	ObservationsWritten prometheus.Counter

	// Analysis metrics.
	EventsCreated         prometheus.Counter
	EventsDeduplicated    prometheus.Counter
	InferenceDegradations prometheus.Counter
	PublishErrors         prometheus.Counter

	// Run metrics, labeled by pipeline={ingestion,analysis}.
	RunsStarted      *prometheus.CounterVec
	LocationFailures *prometheus.CounterVec
	RunDuration      *prometheus.HistogramVec

	SchedulerEnabled prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_watch",
			Name:      "cache_hits_total",
			Help:      "Total observation cache reads that found a live entry.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_watch",
			Name:      "cache_misses_total",
			Help:      "Total observation cache reads of expired or unknown keys.",
		}),
		ProviderCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_watch",
			Name:      "provider_calls_total",
			Help:      "Total weather provider fetches attempted.",
		}),
		ProviderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_watch",
			Name:      "provider_errors_total",
			Help:      "Total weather provider fetches that failed.",
		}),
		ObservationsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_watch",
			Name:      "observations_written_total",
			Help:      "Total observation rows appended to history.",
		}),
		EventsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_watch",
			Name:      "events_created_total",
			Help:      "Total extreme events persisted.",
		}),
		EventsDeduplicated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_watch",
			Name:      "events_deduplicated_total",
			Help:      "Total candidates dropped because an overlapping event existed.",
		}),
		InferenceDegradations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_watch",
			Name:      "inference_degradations_total",
			Help:      "Total per-location analyses that fell back to threshold-only classification.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_watch",
			Name:      "publish_errors_total",
			Help:      "Total alert publish failures.",
		}),
		RunsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_watch",
			Name:      "runs_started_total",
			Help:      "Pipeline runs started, by pipeline.",
		}, []string{"pipeline"}),
		LocationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_watch",
			Name:      "location_failures_total",
			Help:      "Per-location failures inside a run, by pipeline.",
		}, []string{"pipeline"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "weather_watch",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete pipeline run, by pipeline.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"pipeline"}),
		SchedulerEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_watch",
			Name:      "scheduler_enabled",
			Help:      "1 when the interval scheduler is running, 0 otherwise.",
		}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.CacheHits,
		m.CacheMisses,
		m.ProviderCalls,
		m.ProviderErrors,
		m.ObservationsWritten,
		m.EventsCreated,
		m.EventsDeduplicated,
		m.InferenceDegradations,
		m.PublishErrors,
		m.RunsStarted,
		m.LocationFailures,
		m.RunDuration,
		m.SchedulerEnabled,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
