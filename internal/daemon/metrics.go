package daemon

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// scheduledRuns counts loop iterations.
	// Labels: reason ("start", "interval", "trigger"), status ("ok", "error")
	scheduledRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codex67",
		Name:      "scheduled_runs_total",
		Help:      "Background runs by trigger reason and outcome",
	}, []string{"reason", "status"})

	scheduledDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "codex67",
		Name:      "scheduled_run_duration_seconds",
		Help:      "Wall time of one background run",
		Buckets:   prometheus.DefBuckets,
	})
)
