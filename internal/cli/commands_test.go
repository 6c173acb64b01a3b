package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/store"
	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/pkg/model"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func toneSamples(n int, rate, freq float64) []float64 {
	rng := rand.New(rand.NewSource(1))
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2*math.Pi*freq*float64(i)/rate) + 0.05*rng.NormFloat64()
	}
	return out
}

func writeDataset(t *testing.T, dir string) string {
	t.Helper()
	text := model.Tokens(strings.Fields("the same recurring phrases appear in every logged session of the corpus"))
	ds := model.Dataset{
		Telemetry: model.Telemetry{
			SamplingRate:    10,
			CoherenceSignal: toneSamples(1000, 10, 0.67),
		},
		PatternData:          model.Corpus{Sessions: map[string]model.Tokens{"a": text, "b": text}},
		ConversationData:     model.Corpus{Sessions: map[string]model.Tokens{"x": text, "y": text}},
		ValidationTranscript: model.Corpus{Sessions: map[string]model.Tokens{"t": text}},
	}
	data, err := json.Marshal(ds)
	require.NoError(t, err)
	return writeFile(t, filepath.Join(dir, "dataset.json"), string(data))
}

func TestValidateCmd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeDataset(t, dir)
	outDir := filepath.Join(dir, "reports")
	cfgPath := writeFile(t, filepath.Join(dir, "config.yaml"), "save_raw_data: true\noutput_format: yaml\n")

	out, _, err := runCmd(t, "validate", "--input", input, "--config", cfgPath, "--output", outDir,
		"--run-advanced", "--run-cross", "--quick", "--seed", "7", "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "FINAL VALIDATION RESULTS")
	assert.Contains(t, out, "Overall Validated: YES")
	assert.Contains(t, out, "Cross-Validation:")

	reports, err := filepath.Glob(filepath.Join(outDir, "validation_report_*.yaml"))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	summaries, err := filepath.Glob(filepath.Join(outDir, "validation_summary_*.txt"))
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	data, err := os.ReadFile(reports[0])
	require.NoError(t, err)
	var rep map[string]any
	require.NoError(t, yaml.Unmarshal(data, &rep))
	assert.Equal(t, true, rep["overall_validated"])
	assert.Contains(t, rep, "cross_validation")
	assert.Contains(t, rep, "advanced_analysis")
	cfg := rep["config_used"].(map[string]any)
	assert.Equal(t, 7, cfg["random_seed"])
	assert.Equal(t, "quick", cfg["validation_mode"])

	pairs, err := store.ReadPairScores(filepath.Join(outDir, "pair-scores.tsv"))
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, 1.0, pairs[0].Score)
	assert.FileExists(t, filepath.Join(outDir, "spectrum.tsv"))
}

func TestValidateCmdOutputFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeDataset(t, dir)
	reportPath := filepath.Join(dir, "results", "full_validation.json")

	_, _, err := runCmd(t, "validate", "--input", input, "--output", reportPath, "--quick")
	require.NoError(t, err)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var rep map[string]any
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.NotEmpty(t, rep["report_id"])
	assert.Equal(t, "json", rep["config_used"].(map[string]any)["output_format"])

	summaries, err := filepath.Glob(filepath.Join(dir, "results", "validation_summary_*.txt"))
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
	stamped, err := filepath.Glob(filepath.Join(dir, "results", "validation_report_*"))
	require.NoError(t, err)
	assert.Empty(t, stamped)
}

func TestValidateCmdWithoutReport(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeDataset(t, dir)
	cfgPath := writeFile(t, filepath.Join(dir, "config.yaml"), "generate_report: false\n")

	_, _, err := runCmd(t, "validate", "--input", input, "--config", cfgPath, "--output", dir)
	require.NoError(t, err)

	reports, err := filepath.Glob(filepath.Join(dir, "validation_*"))
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestValidateCmdErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeDataset(t, dir)
	badCfg := writeFile(t, filepath.Join(dir, "bad.yaml"), "significance_alpha: 2\n")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing input flag", []string{"validate"}, "input"},
		{"missing dataset", []string{"validate", "--input", filepath.Join(dir, "nope.json")}, "load dataset"},
		{"invalid config", []string{"validate", "--input", input, "--config", badCfg}, "invalid config"},
		{"invalid workers", []string{"validate", "--input", input, "--workers", "-1"}, "invalid config"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := runCmd(t, tt.args...)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestScoreCmd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "a.txt"), "one two three four")
	b := writeFile(t, filepath.Join(dir, "b.txt"), "one two three five")

	out, _, err := runCmd(t, "score", a, b)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	// {123, 234, 1234} against {123, 235, 1235}: one shared of five.
	assert.Equal(t, "pattern_overlap\t0.200000", lines[0])
	// {one, two, three, four} against {one, two, three, five}: three of five.
	assert.Equal(t, "vocabulary_overlap\t0.600000", lines[1])
}

func TestScoreCmdArgs(t *testing.T) {
	t.Parallel()

	_, _, err := runCmd(t, "score", "only-one")
	assert.Error(t, err)

	_, _, err = runCmd(t, "score", "missing-a.txt", "missing-b.txt")
	assert.Error(t, err)
}

func TestScoreCmdDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.jsonl"), `{"text": "one two three four"}`+"\n")
	writeFile(t, filepath.Join(dir, "b.jsonl"), `{"text": "one two three four"}`+"\n")
	writeFile(t, filepath.Join(dir, "c.jsonl"), `{"text": "seven eight nine ten"}`+"\n")

	out, _, err := runCmd(t, "score", "--dir", dir, "--workers", "2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, store.PairScoresTSVHeader, lines[0])

	want := []struct {
		a, b  string
		score float64
	}{
		{"a", "b", 1},
		{"a", "c", 0},
		{"b", "c", 0},
	}
	for i, w := range want {
		p, err := store.UnmarshalPairScore(lines[i+1])
		require.NoError(t, err)
		assert.Equal(t, w.a, p.A)
		assert.Equal(t, w.b, p.B)
		assert.InDelta(t, w.score, p.Score, 1e-9)
	}
	assert.True(t, strings.HasPrefix(lines[4], "# mean\t0.33"), lines[4])

	_, _, err = runCmd(t, "score", "--dir", dir, "extra")
	assert.Error(t, err)
}

func TestDetectCmd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	samples := toneSamples(1000, 10, 0.67)
	parts := make([]string, len(samples))
	for i, v := range samples {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	input := writeFile(t, filepath.Join(dir, "series.csv"), strings.Join(parts, ",")+"\n")

	out, _, err := runCmd(t, "detect", "--input", input, "--rate", "10")
	require.NoError(t, err)

	var res model.FrequencyResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.InDelta(t, 0.67, res.DetectedFrequency, 1e-9)
	assert.True(t, res.Significant)
	assert.True(t, res.InBand)
}

func TestDetectCmdInvalidSeries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeFile(t, filepath.Join(dir, "series.csv"), "1.5\n")

	_, _, err := runCmd(t, "detect", "--input", input)
	assert.ErrorContains(t, err, "invalid input")
}

func TestDetectCmdOverflowingSeries(t *testing.T) {
	t.Parallel()

	parts := make([]string, 64)
	for i := range parts {
		parts[i] = "1e200"
		if i%2 == 1 {
			parts[i] = "-1e200"
		}
	}
	input := writeFile(t, filepath.Join(t.TempDir(), "series.csv"), strings.Join(parts, ",")+"\n")

	_, _, err := runCmd(t, "detect", "--input", input, "--rate", "10")
	assert.ErrorContains(t, err, "invalid input")
}

func TestPairsCmd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "pair-scores.tsv")
	require.NoError(t, store.WritePairScores(path, []model.PairScore{
		{A: "a", B: "b", Score: 0.2},
		{A: "a", B: "c", Score: 0.9},
		{A: "b", B: "c", Score: 0.5},
	}))

	out, _, err := runCmd(t, "pairs", "--file", path, "--top", "2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, store.PairScoresTSVHeader, lines[0])
	assert.Equal(t, "a\tc\t0.9", lines[1])
	assert.Equal(t, "b\tc\t0.5", lines[2])
}

func TestPairsCmdMissingFile(t *testing.T) {
	t.Parallel()

	_, _, err := runCmd(t, "pairs", "--file", filepath.Join(t.TempDir(), "nope.tsv"))
	assert.Error(t, err)
}

func TestPeaksCmd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "spectrum.tsv")
	require.NoError(t, store.WriteSpectrum(path, []store.SpectrumBin{
		{SignalID: "a", Frequency: 0.33, Power: 1},
		{SignalID: "a", Frequency: 0.67, Power: 8},
		{SignalID: "b", Frequency: 0.67, Power: 9},
		{SignalID: "a", Frequency: 1, Power: 3},
	}))

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "top across signals",
			args: []string{"--top", "2"},
			want: []string{"b\t0.67\t9", "a\t0.67\t8"},
		},
		{
			name: "one signal",
			args: []string{"--signal", "a", "--top", "0"},
			want: []string{"a\t0.67\t8", "a\t1\t3", "a\t0.33\t1"},
		},
		{
			name: "unknown signal",
			args: []string{"--signal", "zzz"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runCmd(t, append([]string{"peaks", "--file", path}, tt.args...)...)
			require.NoError(t, err)

			lines := strings.Split(strings.TrimSpace(out), "\n")
			assert.Equal(t, store.SpectrumTSVHeader, lines[0])
			assert.Equal(t, tt.want, nonEmpty(lines[1:]))
		})
	}

	_, _, err := runCmd(t, "peaks", "--file", filepath.Join(dir, "nope.tsv"))
	assert.Error(t, err)
}

func nonEmpty(lines []string) []string {
	var out []string
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func TestConfigCmd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := writeFile(t, filepath.Join(dir, "config.json"), `{"target_frequency": 1.5, "workers": 4}`)

	out, _, err := runCmd(t, "config", "--config", cfgPath, "--quick")
	require.NoError(t, err)

	var cfg model.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, 1.5, cfg.TargetFrequency)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, model.ModeQuick, cfg.ValidationMode)
	assert.Equal(t, model.QuickBootstrapIterations, cfg.BootstrapIterations)
	assert.Equal(t, 0.7, cfg.ValidationThreshold)
}

func TestServeCmdFlags(t *testing.T) {
	t.Parallel()

	cmd := newServeCmd(&globalFlags{})

	portFlag := cmd.Flags().Lookup("port")
	require.NotNil(t, portFlag)
	assert.Equal(t, "8765", portFlag.DefValue)

	dirFlag := cmd.Flags().Lookup("dir")
	require.NotNil(t, dirFlag)
	assert.Equal(t, ".", dirFlag.DefValue)
}

func TestCollectCmd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	patterns := filepath.Join(dir, "patterns")
	require.NoError(t, os.MkdirAll(patterns, 0755))
	writeFile(t, filepath.Join(patterns, "a.jsonl"), `{"text":"one two three four"}`+"\n")
	writeFile(t, filepath.Join(patterns, "b.jsonl"), `{"text":"one two three four"}`+"\n")
	writeFile(t, filepath.Join(patterns, "c.jsonl"), `{"text":"one two three five"}`+"\n")
	series := writeFile(t, filepath.Join(dir, "series.csv"), "0 1 0 -1 0 1 0 -1\n")
	outDir := filepath.Join(dir, "out")

	out, _, err := runCmd(t, "collect", "--patterns", patterns, "--series", series, "--rate", "4", "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "collect: 2 sessions from 3 files (1 duplicates), 8 samples, 0 channels")

	data, err := os.ReadFile(filepath.Join(outDir, "dataset.json"))
	require.NoError(t, err)
	var ds model.Dataset
	require.NoError(t, json.Unmarshal(data, &ds))
	assert.Len(t, ds.PatternData.Sessions, 2)
	assert.Equal(t, 4.0, ds.Telemetry.SamplingRate)
}

func TestStatusCmd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "validation_report_20250101_000000.json"), "{}")
	writeFile(t, filepath.Join(dir, "validation_report_20250102_000000.json"), "{}")
	writeFile(t, filepath.Join(dir, "heartbeat.txt"), "1000000000,60,42,ok\n")

	out, _, err := runCmd(t, "status", "--dir", dir, "--last", "1")
	require.NoError(t, err)

	var status statusOutput
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	require.Len(t, status.Reports, 1)
	assert.Equal(t, "validation_report_20250102_000000.json", status.Reports[0].Name)
	require.NotNil(t, status.Background)
	assert.Equal(t, "stale", status.Background.Mode)
	assert.Equal(t, "42", status.Background.PID)
}

func TestStatusCmdEmptyDir(t *testing.T) {
	t.Parallel()

	out, _, err := runCmd(t, "status", "--dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, `"background_validation": null`)
	assert.Contains(t, out, `"reports": []`)
}

func TestServeCmdBackgroundValidation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeDataset(t, dir)
	reports := filepath.Join(dir, "reports")

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"serve", "--port", "0", "--dir", reports, "--input", input, "--interval", "0"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		matches, _ := filepath.Glob(filepath.Join(reports, "validation_report_*.json"))
		return len(matches) == 1
	}, 10*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.FileExists(t, filepath.Join(reports, "heartbeat.txt"))
}
