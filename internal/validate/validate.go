// Package validate runs the statistical components over a dataset and
// combines their verdicts into one scored result.
package validate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/overlap"
	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/spectrum"
	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/pkg/model"
)

// Options selects the optional stages of a run.
type Options struct {
	Advanced        bool
	CrossValidation bool
}

// Outcome contains everything a run produced.
type Outcome struct {
	Result          model.ValidationResult
	Frequency       *model.FrequencyResult
	Advanced        *AdvancedResult
	CrossValidation *model.CrossValidationResult

	// Raw data, exported only when the config asks for it.
	Pairs    []model.PairScore
	Spectrum spectrum.Spectrum
}

// Runner evaluates datasets under one configuration. Stochastic steps draw
// from Rand only, so two runners built with the same seed agree.
type Runner struct {
	Config model.Config
	Logger *slog.Logger
	Rand   *rand.Rand

	detector *spectrum.Detector
}

// NewRunner builds a Runner seeded from cfg.RandomSeed.
func NewRunner(cfg model.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		Config:   cfg,
		Logger:   logger,
		Rand:     rand.New(rand.NewSource(cfg.RandomSeed)),
		detector: spectrum.NewDetector(cfg),
	}
}

// Run evaluates ds and, when requested, the advanced and cross-validation
// stages.
func (r *Runner) Run(ctx context.Context, ds model.Dataset, opts Options) (*Outcome, error) {
	if err := r.Config.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	ev, err := r.evaluate(ctx, ds)
	if err != nil {
		return nil, err
	}
	recordResult(ev.result, time.Since(start).Seconds())
	out := &Outcome{
		Result:    ev.result,
		Frequency: ev.frequency,
		Pairs:     ev.patterns.Pairs,
		Spectrum:  ev.spectrum,
	}
	r.Logger.Info("validation evaluated",
		slog.Float64("score", out.Result.Score),
		slog.Bool("validated", out.Result.Validated),
		slog.Bool("meta_validated", out.Result.MetaValidated))

	if opts.Advanced {
		adv, err := r.advanced(ctx, ds, ev)
		if err != nil {
			return nil, fmt.Errorf("advanced analysis: %w", err)
		}
		out.Advanced = adv
	}

	if opts.CrossValidation {
		cv, err := r.crossValidate(ctx, ds)
		if err != nil {
			return nil, fmt.Errorf("cross-validation: %w", err)
		}
		out.CrossValidation = cv
	}

	return out, nil
}

// evaluation carries intermediate values that later stages reuse.
type evaluation struct {
	result    model.ValidationResult
	frequency *model.FrequencyResult
	spectrum  spectrum.Spectrum
	patterns  overlap.CorpusResult
}

func (r *Runner) evaluate(ctx context.Context, ds model.Dataset) (evaluation, error) {
	var ev evaluation

	freq, err := r.frequencyComponent(ds.Telemetry, &ev)
	if err != nil {
		return ev, err
	}
	if err := ctx.Err(); err != nil {
		return ev, err
	}

	patterns, err := r.patternComponent(ctx, ds, &ev)
	if err != nil {
		return ev, fmt.Errorf("pattern overlap: %w", err)
	}

	vocab, err := r.vocabularyComponent(ctx, ds.ConversationData)
	if err != nil {
		return ev, fmt.Errorf("vocabulary overlap: %w", err)
	}

	components := []model.ComponentResult{freq, patterns, vocab}
	confidences := make([]float64, len(components))
	validated := true
	for i, c := range components {
		confidences[i] = c.Confidence
		validated = validated && c.Validated
	}

	ev.result = model.ValidationResult{
		Score:         stat.Mean(confidences, nil),
		Validated:     validated,
		MetaValidated: patterns.MetaValidation,
		Components:    components,
	}
	return ev, nil
}

func (r *Runner) frequencyComponent(tel model.Telemetry, ev *evaluation) (model.ComponentResult, error) {
	c := model.ComponentResult{
		ClaimID: model.ClaimFrequency,
		Details: map[string]any{
			"target_frequency": r.detector.Target(),
			"sampling_rate":    tel.SamplingRate,
			"samples":          len(tel.CoherenceSignal),
		},
	}

	if len(tel.CoherenceSignal) == 0 {
		c.Details["status"] = "no data"
		c.ValidationLevel = model.LevelFor(0)
		return c, nil
	}

	sp, err := spectrum.Periodogram(tel.CoherenceSignal, tel.SamplingRate)
	if errors.Is(err, spectrum.ErrInvalidInput) {
		r.Logger.Warn("telemetry cannot be analysed", slog.String("error", err.Error()))
		c.Details["status"] = err.Error()
		c.ValidationLevel = model.LevelFor(0)
		return c, nil
	}
	if err != nil {
		return c, err
	}

	res := r.detector.Evaluate(sp)
	ev.frequency = &res
	ev.spectrum = sp

	c.Validated = res.Significant
	c.Confidence = frequencyConfidence(res, r.Config.SNRThreshold)
	c.ValidationLevel = model.LevelFor(c.Confidence)
	p := res.PValue
	c.Significance = &p
	c.Details["detected_frequency"] = res.DetectedFrequency
	c.Details["power"] = res.Power
	c.Details["snr"] = res.SNR
	c.Details["in_band"] = res.InBand
	return c, nil
}

// frequencyConfidence is 1-p scaled down while the SNR is below its
// threshold.
func frequencyConfidence(res model.FrequencyResult, snrThreshold float64) float64 {
	conf := 1 - res.PValue
	if snrThreshold > 0 {
		conf *= math.Min(1, res.SNR/snrThreshold)
	}
	return clamp01(conf)
}

func (r *Runner) patternComponent(ctx context.Context, ds model.Dataset, ev *evaluation) (model.ComponentResult, error) {
	sessions := ds.PatternData.List()
	ok, res, err := overlap.Validate(ctx, sessions, r.Config.ValidationThreshold, r.Config.Workers)
	if err != nil {
		return model.ComponentResult{}, err
	}
	ev.patterns = res

	c := model.ComponentResult{
		ClaimID:         model.ClaimPatternOverlap,
		Validated:       ok,
		Confidence:      clamp01(res.Mean),
		ValidationLevel: model.LevelFor(res.Mean),
		Details: map[string]any{
			"sessions":     len(sessions),
			"pairs":        len(res.Pairs),
			"mean_overlap": res.Mean,
			"threshold":    r.Config.ValidationThreshold,
		},
	}

	transcript := ds.ValidationTranscript.List()
	if r.Config.EnableMetaDetection && len(transcript) > 0 && len(sessions) > 0 {
		var total float64
		for _, s := range transcript {
			total += overlap.MeanAgainst(s.Tokens, sessions, overlap.Fingerprints)
		}
		meta := total / float64(len(transcript))
		c.MetaValidation = meta > r.Config.ValidationThreshold
		c.Details["meta_overlap"] = meta
	}
	return c, nil
}

func (r *Runner) vocabularyComponent(ctx context.Context, corpus model.Corpus) (model.ComponentResult, error) {
	sessions := corpus.List()
	res, err := overlap.Pairwise(ctx, sessions, overlap.Vocabulary, r.Config.Workers)
	if err != nil {
		return model.ComponentResult{}, err
	}
	return model.ComponentResult{
		ClaimID:         model.ClaimVocabularyOverlap,
		Validated:       len(res.Pairs) > 0 && res.Mean > r.Config.VocabularyThreshold,
		Confidence:      clamp01(res.Mean),
		ValidationLevel: model.LevelFor(res.Mean),
		Details: map[string]any{
			"sessions":     len(sessions),
			"pairs":        len(res.Pairs),
			"mean_overlap": res.Mean,
			"threshold":    r.Config.VocabularyThreshold,
		},
	}, nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
