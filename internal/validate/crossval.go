package validate

import (
	"context"
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/pkg/model"
)

// crossValidate re-evaluates k perturbed copies of ds. Fold i adds
// N(0,1)·FoldNoiseScale·(i+1) noise to the coherence signal and leaves
// every other section untouched. This is a stability check, not a k-fold
// split of the data.
func (r *Runner) crossValidate(ctx context.Context, ds model.Dataset) (*model.CrossValidationResult, error) {
	k := r.Config.CrossValidationFolds
	scores := make([]float64, 0, k)
	statuses := make([]bool, 0, k)

	for i := 0; i < k; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fold := r.foldData(ds, i)
		ev, err := r.evaluate(ctx, fold)
		if err != nil {
			return nil, err
		}
		r.Logger.Debug("fold evaluated",
			slog.Int("fold", i+1),
			slog.Int("folds", k),
			slog.Float64("score", ev.result.Score))

		scores = append(scores, ev.result.Score)
		statuses = append(statuses, ev.result.Validated)
	}

	cv := AggregateFolds(scores, statuses)
	r.Logger.Info("cross-validation complete",
		slog.Int("folds", cv.Folds),
		slog.Float64("mean_score", cv.MeanScore),
		slog.Float64("std_score", cv.StdScore))
	return &cv, nil
}

func (r *Runner) foldData(ds model.Dataset, fold int) model.Dataset {
	out := ds.Clone()
	scale := r.Config.FoldNoiseScale * float64(fold+1)
	for j := range out.Telemetry.CoherenceSignal {
		out.Telemetry.CoherenceSignal[j] += r.Rand.NormFloat64() * scale
	}
	return out
}

// AggregateFolds summarizes per-fold scores and statuses. Statistics are
// computed over the sorted scores, so the summary does not depend on the
// order the folds ran in; Scores and Statuses keep the given order.
func AggregateFolds(scores []float64, statuses []bool) model.CrossValidationResult {
	cv := model.CrossValidationResult{
		Folds:    len(scores),
		Scores:   slices.Clone(scores),
		Statuses: slices.Clone(statuses),
	}
	if len(scores) == 0 {
		return cv
	}

	sorted := slices.Clone(scores)
	slices.Sort(sorted)
	cv.MeanScore, cv.StdScore = stat.PopMeanStdDev(sorted, nil)
	cv.MinScore = sorted[0]
	cv.MaxScore = sorted[len(sorted)-1]

	if len(statuses) > 0 {
		passed := 0
		for _, ok := range statuses {
			if ok {
				passed++
			}
		}
		cv.Consistency = float64(passed) / float64(len(statuses))
	}
	return cv
}
