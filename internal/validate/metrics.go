package validate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/pkg/model"
)

const metricsNamespace = "codex67"

var (
	// runsTotal counts evaluated datasets.
	// Labels: result ("validated", "not_validated")
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "validation_runs_total",
		Help:      "Datasets evaluated by overall verdict",
	}, []string{"result"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "validation_duration_seconds",
		Help:      "Wall time of one dataset evaluation",
		Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
	})

	lastScore = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "validation_score",
		Help:      "Aggregate score of the most recent evaluation",
	})

	componentConfidence = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "component_confidence",
		Help:      "Confidence of each component in the most recent evaluation",
	}, []string{"component"})
)

func recordResult(res model.ValidationResult, seconds float64) {
	result := "not_validated"
	if res.Validated {
		result = "validated"
	}
	runsTotal.WithLabelValues(result).Inc()
	runDuration.Observe(seconds)
	lastScore.Set(res.Score)
	for _, c := range res.Components {
		componentConfidence.WithLabelValues(c.ClaimID).Set(c.Confidence)
	}
}
