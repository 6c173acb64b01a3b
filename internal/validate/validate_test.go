package validate

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/store"
	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/pkg/model"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func tone(n int, rate, freq, sigma float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2*math.Pi*freq*float64(i)/rate) + sigma*rng.NormFloat64()
	}
	return out
}

func tokens(s string) model.Tokens { return strings.Fields(s) }

func strongDataset() model.Dataset {
	text := "we logged every session and compared the recurring phrases across the whole corpus"
	return model.Dataset{
		Telemetry: model.Telemetry{
			SamplingRate:    10,
			CoherenceSignal: tone(1000, 10, 0.67, 0.05, 1),
			Channels:        map[string][]float64{"aux": tone(1000, 10, 3.1, 0.05, 2)},
		},
		PatternData:          model.Corpus{Sessions: map[string]model.Tokens{"a": tokens(text), "b": tokens(text), "c": tokens(text)}},
		ConversationData:     model.Corpus{Sessions: map[string]model.Tokens{"x": tokens(text), "y": tokens(text)}},
		ValidationTranscript: model.Corpus{Sessions: map[string]model.Tokens{"t": tokens(text)}},
	}
}

func TestRunStrongDataset(t *testing.T) {
	r := NewRunner(model.DefaultConfig(), quietLogger())

	out, err := r.Run(context.Background(), strongDataset(), Options{})
	require.NoError(t, err)

	res := out.Result
	require.Len(t, res.Components, 3)
	assert.Equal(t, model.ClaimFrequency, res.Components[0].ClaimID)
	assert.Equal(t, model.ClaimPatternOverlap, res.Components[1].ClaimID)
	assert.Equal(t, model.ClaimVocabularyOverlap, res.Components[2].ClaimID)

	for _, c := range res.Components {
		assert.True(t, c.Validated, "component %s", c.ClaimID)
	}
	assert.True(t, res.Validated)
	assert.True(t, res.MetaValidated)
	assert.InDelta(t, 1.0, res.Score, 1e-6)

	require.NotNil(t, out.Frequency)
	assert.InDelta(t, 0.67, out.Frequency.DetectedFrequency, 0.01)
	require.NotNil(t, res.Components[0].Significance)
	assert.Less(t, *res.Components[0].Significance, 0.05)

	assert.Len(t, out.Pairs, 3)
	assert.Equal(t, 501, out.Spectrum.Len())
	assert.Nil(t, out.Advanced)
	assert.Nil(t, out.CrossValidation)
}

func TestRunMissingSections(t *testing.T) {
	r := NewRunner(model.DefaultConfig(), quietLogger())

	out, err := r.Run(context.Background(), model.Dataset{}, Options{Advanced: true, CrossValidation: true})
	require.NoError(t, err)

	assert.False(t, out.Result.Validated)
	assert.False(t, out.Result.MetaValidated)
	assert.Equal(t, 0.0, out.Result.Score)
	assert.Nil(t, out.Frequency)
	assert.Equal(t, "no data", out.Result.Components[0].Details["status"])
	assert.Equal(t, "WEAK", out.Result.Components[0].ValidationLevel)

	require.NotNil(t, out.CrossValidation)
	assert.Equal(t, 5, out.CrossValidation.Folds)
	assert.Equal(t, 0.0, out.CrossValidation.Consistency)
}

func TestRunInvalidTelemetryIsNotFatal(t *testing.T) {
	var logs bytes.Buffer
	r := NewRunner(model.DefaultConfig(), slog.New(slog.NewTextHandler(&logs, nil)))

	ds := strongDataset()
	ds.Telemetry.CoherenceSignal = []float64{1}

	out, err := r.Run(context.Background(), ds, Options{})
	require.NoError(t, err)

	freq := out.Result.Components[0]
	assert.False(t, freq.Validated)
	assert.Equal(t, 0.0, freq.Confidence)
	assert.Contains(t, freq.Details["status"], "invalid input")
	assert.Contains(t, logs.String(), "telemetry cannot be analysed")
	assert.False(t, out.Result.Validated)
}

func TestRunMetaDetectionDisabled(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.EnableMetaDetection = false

	out, err := NewRunner(cfg, quietLogger()).Run(context.Background(), strongDataset(), Options{})
	require.NoError(t, err)
	assert.False(t, out.Result.MetaValidated)
	assert.NotContains(t, out.Result.Components[1].Details, "meta_overlap")
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.SignificanceAlpha = 2

	_, err := NewRunner(cfg, quietLogger()).Run(context.Background(), strongDataset(), Options{})
	assert.Error(t, err)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(model.DefaultConfig(), quietLogger()).Run(ctx, strongDataset(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunAdvanced(t *testing.T) {
	out, err := NewRunner(model.DefaultConfig(), quietLogger()).Run(context.Background(), strongDataset(), Options{Advanced: true})
	require.NoError(t, err)
	require.NotNil(t, out.Advanced)

	adv := out.Advanced
	require.Len(t, adv.Channels, 2)
	assert.Equal(t, model.CoherenceSignalID, adv.Channels[0].ChannelID)
	assert.Equal(t, "aux", adv.Channels[1].ChannelID)
	require.NotNil(t, adv.Channels[0].Result)
	assert.True(t, adv.Channels[0].Result.Significant)
	assert.False(t, adv.Channels[1].Result.Significant)
	assert.Equal(t, 1, adv.ChannelsPassing)

	assert.Equal(t, 3, adv.PatternScores.Pairs)
	assert.Equal(t, 1.0, adv.PatternScores.Min)
	assert.Equal(t, 1.0, adv.PatternScores.Max)
	require.NotNil(t, adv.PatternScores.Bootstrap)
	assert.Equal(t, overlapInterval(1, 1), *adv.PatternScores.Bootstrap)
}

func TestRunCrossValidationIsReproducible(t *testing.T) {
	run := func() *model.CrossValidationResult {
		out, err := NewRunner(model.DefaultConfig(), quietLogger()).Run(context.Background(), strongDataset(), Options{CrossValidation: true})
		require.NoError(t, err)
		require.NotNil(t, out.CrossValidation)
		return out.CrossValidation
	}

	first, second := run(), run()
	assert.Equal(t, first, second)
	assert.Equal(t, 5, first.Folds)
	assert.Len(t, first.Scores, 5)
	assert.Equal(t, 1.0, first.Consistency)
}

func TestCrossValidationLeavesInputUntouched(t *testing.T) {
	ds := strongDataset()
	orig := append([]float64(nil), ds.Telemetry.CoherenceSignal...)

	_, err := NewRunner(model.DefaultConfig(), quietLogger()).Run(context.Background(), ds, Options{CrossValidation: true})
	require.NoError(t, err)
	assert.Equal(t, orig, ds.Telemetry.CoherenceSignal)
}

func TestAggregateFoldsOrderInvariant(t *testing.T) {
	scores := []float64{0.91, 0.42, 0.77, 0.1337, 0.6, 0.58}
	statuses := []bool{true, false, true, false, false, true}
	want := AggregateFolds(scores, statuses)

	assert.InDelta(t, 0.56895, want.MeanScore, 1e-9)
	assert.Equal(t, 0.1337, want.MinScore)
	assert.Equal(t, 0.91, want.MaxScore)
	assert.Equal(t, 0.5, want.Consistency)

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 20; i++ {
		perm := rng.Perm(len(scores))
		s := make([]float64, len(scores))
		st := make([]bool, len(statuses))
		for j, p := range perm {
			s[j] = scores[p]
			st[j] = statuses[p]
		}
		got := AggregateFolds(s, st)
		assert.Equal(t, want.MeanScore, got.MeanScore)
		assert.Equal(t, want.StdScore, got.StdScore)
		assert.Equal(t, want.MinScore, got.MinScore)
		assert.Equal(t, want.MaxScore, got.MaxScore)
		assert.Equal(t, want.Consistency, got.Consistency)
	}

	empty := AggregateFolds(nil, nil)
	assert.Equal(t, 0, empty.Folds)
	assert.Equal(t, 0.0, empty.MeanScore)
}

func TestSaveRawData(t *testing.T) {
	out, err := NewRunner(model.DefaultConfig(), quietLogger()).Run(context.Background(), strongDataset(), Options{})
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "raw")
	paths, err := out.SaveRawData(dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	pairs, err := store.ReadPairScores(filepath.Join(dir, PairScoresFile))
	require.NoError(t, err)
	assert.Equal(t, out.Pairs, pairs)
	assert.FileExists(t, filepath.Join(dir, SpectrumFile))
}

func TestFrequencyConfidence(t *testing.T) {
	assert.Equal(t, 1.0, frequencyConfidence(model.FrequencyResult{PValue: 0, SNR: 10}, 2))
	assert.InDelta(t, 0.45, frequencyConfidence(model.FrequencyResult{PValue: 0.1, SNR: 1}, 2), 1e-12)
	assert.Equal(t, 0.0, frequencyConfidence(model.FrequencyResult{PValue: 1, SNR: 0}, 2))
}

func TestRunRecordsMetrics(t *testing.T) {
	before := testutil.ToFloat64(runsTotal.WithLabelValues("validated"))

	r := NewRunner(model.DefaultConfig(), quietLogger())
	out, err := r.Run(context.Background(), strongDataset(), Options{CrossValidation: true})
	require.NoError(t, err)
	require.True(t, out.Result.Validated)

	// Folds are not counted as runs.
	assert.Equal(t, before+1, testutil.ToFloat64(runsTotal.WithLabelValues("validated")))
	assert.InDelta(t, out.Result.Score, testutil.ToFloat64(lastScore), 1e-12)
	assert.InDelta(t, out.Result.Components[1].Confidence,
		testutil.ToFloat64(componentConfidence.WithLabelValues(model.ClaimPatternOverlap)), 1e-12)
}
