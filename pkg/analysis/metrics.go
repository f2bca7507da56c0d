package analysis

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var (
	chainsTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "fixturedrc_chains_total",
		Help: "Chains produced by stitching, by closure",
	}, []string{"closed"})

	violationsTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "fixturedrc_violations_total",
		Help: "Violation markers emitted, by check",
	}, []string{"check"})

	indexDroppedTotal = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "fixturedrc_index_dropped_total",
		Help: "Candidate features that fell outside their index bounds",
	})

	runDuration = promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fixturedrc_run_duration_seconds",
		Help:    "Analysis run duration",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	}, []string{"mode"})
)

// Registry returns the registry holding the analysis collectors.
func Registry() *prometheus.Registry {
	return registry
}

func countChains(closed, open int) {
	chainsTotal.WithLabelValues(strconv.FormatBool(true)).Add(float64(closed))
	chainsTotal.WithLabelValues(strconv.FormatBool(false)).Add(float64(open))
}
