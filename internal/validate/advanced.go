package validate

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/overlap"
	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/spectrum"
	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/pkg/model"
)

// ChannelDetection is the detector verdict for one telemetry channel.
type ChannelDetection struct {
	ChannelID string                 `json:"channel_id" yaml:"channel_id"`
	Result    *model.FrequencyResult `json:"result,omitempty" yaml:"result,omitempty"`
	Error     string                 `json:"error,omitempty" yaml:"error,omitempty"`
}

// Distribution describes the spread of the pairwise pattern scores.
type Distribution struct {
	Pairs      int               `json:"pairs" yaml:"pairs"`
	Min        float64           `json:"min" yaml:"min"`
	Max        float64           `json:"max" yaml:"max"`
	Std        float64           `json:"std" yaml:"std"`
	Bootstrap  *overlap.Interval `json:"bootstrap_ci,omitempty" yaml:"bootstrap_ci,omitempty"`
	Iterations int               `json:"bootstrap_iterations" yaml:"bootstrap_iterations"`
}

// AdvancedResult holds the optional per-channel and distribution analyses.
type AdvancedResult struct {
	Channels        []ChannelDetection `json:"channels" yaml:"channels"`
	ChannelsPassing int                `json:"channels_significant" yaml:"channels_significant"`
	PatternScores   Distribution       `json:"pattern_scores" yaml:"pattern_scores"`
}

func (r *Runner) advanced(ctx context.Context, ds model.Dataset, ev evaluation) (*AdvancedResult, error) {
	adv := &AdvancedResult{}

	for _, sig := range ds.Telemetry.Signals() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		det := ChannelDetection{ChannelID: sig.ID}
		res, err := r.detector.Detect(sig.Samples, sig.SamplingRate)
		switch {
		case errors.Is(err, spectrum.ErrInvalidInput):
			det.Error = err.Error()
		case err != nil:
			return nil, err
		default:
			det.Result = &res
			if res.Significant {
				adv.ChannelsPassing++
			}
		}
		adv.Channels = append(adv.Channels, det)
	}

	scores := ev.patterns.Scores()
	adv.PatternScores = Distribution{Pairs: len(scores), Iterations: r.Config.BootstrapIterations}
	if len(scores) > 0 {
		adv.PatternScores.Min = slices.Min(scores)
		adv.PatternScores.Max = slices.Max(scores)
		_, adv.PatternScores.Std = stat.PopMeanStdDev(scores, nil)
		if iv, ok := overlap.Bootstrap(scores, r.Config.BootstrapIterations, r.Rand); ok {
			adv.PatternScores.Bootstrap = &iv
		}
	}

	r.Logger.Info("advanced analysis complete",
		slog.Int("channels", len(adv.Channels)),
		slog.Int("channels_significant", adv.ChannelsPassing),
		slog.Int("pairs", adv.PatternScores.Pairs))
	return adv, nil
}
