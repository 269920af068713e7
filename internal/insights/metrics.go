package insights

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// classifierCalls: исход каждого обращения: parsed | repaired | fallback.
	classifierCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sabha",
		Subsystem: "classifier",
		Name:      "calls_total",
		Help:      "Classifier calls by prompt kind and outcome.",
	}, []string{"kind", "outcome"})

	classifierDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sabha",
		Subsystem: "classifier",
		Name:      "duration_seconds",
		Help:      "Classifier round-trip latency by prompt kind.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
	}, []string{"kind"})
)
