package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "regime"

// Metrics holds the Prometheus counters and histograms of the downscaling engine.
type Metrics struct {
	// Clustering metrics.
	GeneratorRuns       prometheus.Counter
	GeneratorIterations prometheus.Histogram
	UnconvergedRuns     prometheus.Counter
	SelectionDuration   prometheus.Histogram

	// Regression metrics.
	PointsFitted  prometheus.Counter
	PointFailures *prometheus.CounterVec // labels: stage={fit,reconstruct}
	HighVIF       prometheus.Counter
}

// NewMetricsWithRegistry creates the metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GeneratorRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generator_runs_total",
			Help:      "Total clustering attempts run.",
		}),
		GeneratorIterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generator_iterations",
			Help:      "Iterations consumed by one clustering attempt.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 250, 500, 1000},
		}),
		UnconvergedRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generator_unconverged_total",
			Help:      "Clustering attempts that reached the iteration cap without converging.",
		}),
		SelectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "selection_duration_seconds",
			Help:      "Duration of generating and selecting a representative partition.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
		PointsFitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_fitted_total",
			Help:      "Regression points fitted successfully.",
		}),
		PointFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "point_failures_total",
			Help:      "Regression points that failed, by stage.",
		}, []string{"stage"}),
		HighVIF: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "high_vif_predictors_total",
			Help:      "Predictors whose variance inflation factor exceeded the warning threshold.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.GeneratorRuns,
			m.GeneratorIterations,
			m.UnconvergedRuns,
			m.SelectionDuration,
			m.PointsFitted,
			m.PointFailures,
			m.HighVIF,
		)
	}

	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere.
func NewMetricsForTesting() *Metrics {
	return NewMetricsWithRegistry(nil)
}
