package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion task. Runs are short-lived, so gauges record wall-clock facts
// (last success time) rather than in-flight state.
type Metrics struct {
	Runs         *prometheus.CounterVec // labels: outcome={success,failure}
	RowsIngested prometheus.Counter
	RunDuration  prometheus.Histogram
	LastSuccess  prometheus.Gauge
}

// NewMetrics creates and registers all task metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_ingest",
			Name:      "runs_total",
			Help:      "Ingestion runs by outcome.",
		}, []string{"outcome"}),
		RowsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_ingest",
			Name:      "rows_ingested_total",
			Help:      "Total rows copied to the raw layer.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake_ingest",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-and-load run.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quake_ingest",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}

	prometheus.MustRegister(
		m.Runs,
		m.RowsIngested,
		m.RunDuration,
		m.LastSuccess,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		Runs:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quake_ingest", Name: "runs_total"}, []string{"outcome"}),
		RowsIngested: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quake_ingest", Name: "rows_ingested_total"}),
		RunDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "quake_ingest", Name: "run_duration_seconds"}),
		LastSuccess:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "quake_ingest", Name: "last_success_timestamp_seconds"}),
	}
}
