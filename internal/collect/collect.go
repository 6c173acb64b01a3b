// Package collect assembles a dataset document from chat session logs and
// telemetry series files.
package collect

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/parser"
	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/store"
	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/pkg/model"
)

// Output file names.
const (
	DatasetFile = "dataset.json"
	StatusFile  = "collect-status.json"
)

// Options selects the sources of a dataset. Empty fields leave the
// corresponding section empty.
type Options struct {
	PatternDir      string
	ConversationDir string
	TranscriptDir   string

	// SeriesPath holds the coherence signal; ChannelPaths hold extra
	// channels named after their file.
	SeriesPath   string
	ChannelPaths []string
	// SamplingRate overrides the rate stated by the series files.
	SamplingRate float64

	OutDir string
}

// Result contains the outcome of a collect operation.
type Result struct {
	SessionFiles      int
	Sessions          int
	DuplicateSessions int
	Samples           int
	Channels          int
	DatasetPath       string
}

// Run builds the dataset and writes it with a status file under
// opts.OutDir.
func Run(opts Options, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", opts.OutDir, err)
	}

	result := &Result{DatasetPath: filepath.Join(opts.OutDir, DatasetFile)}
	var ds model.Dataset

	sections := []struct {
		name   string
		dir    string
		corpus *model.Corpus
	}{
		{parser.SectionPatterns, opts.PatternDir, &ds.PatternData},
		{parser.SectionDialogue, opts.ConversationDir, &ds.ConversationData},
		{parser.SectionTranscript, opts.TranscriptDir, &ds.ValidationTranscript},
	}
	for _, sec := range sections {
		corpus, files, dups, err := collectSessions(sec.dir)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sec.name, err)
		}
		*sec.corpus = corpus
		result.SessionFiles += files
		result.Sessions += len(corpus.Sessions)
		result.DuplicateSessions += dups
		logger.Debug("sessions collected",
			slog.String("section", sec.name),
			slog.Int("files", files),
			slog.Int("sessions", len(corpus.Sessions)),
			slog.Int("duplicates", dups))
	}

	tel, err := collectTelemetry(opts)
	if err != nil {
		return nil, err
	}
	ds.Telemetry = tel
	result.Samples = len(tel.CoherenceSignal)
	result.Channels = len(tel.Channels)

	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := store.AtomicWriteFile(result.DatasetPath, append(data, '\n')); err != nil {
		return nil, fmt.Errorf("write %s: %w", DatasetFile, err)
	}
	if err := writeStatus(filepath.Join(opts.OutDir, StatusFile), time.Now(), result); err != nil {
		return nil, fmt.Errorf("write %s: %w", StatusFile, err)
	}

	logger.Info("dataset collected",
		slog.String("path", result.DatasetPath),
		slog.Int("sessions", result.Sessions),
		slog.Int("duplicates", result.DuplicateSessions),
		slog.Int("samples", result.Samples))
	return result, nil
}

// DiscoverSessionFiles lists the *.jsonl files directly under dir and one
// level below it, sorted. A missing dir lists nothing.
func DiscoverSessionFiles(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	var matches []string
	for _, pattern := range []string{"*.jsonl", filepath.Join("*", "*.jsonl")} {
		m, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		matches = append(matches, m...)
	}
	sort.Strings(matches)
	return matches, nil
}

// sessionID names a session file relative to its collection root.
func sessionID(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return strings.TrimSuffix(filepath.ToSlash(rel), ".jsonl")
}

func collectSessions(dir string) (model.Corpus, int, int, error) {
	corpus := model.Corpus{Sessions: map[string]model.Tokens{}}
	files, err := DiscoverSessionFiles(dir)
	if err != nil {
		return corpus, 0, 0, err
	}

	seen := make(map[uint64]bool)
	dups := 0
	for _, path := range files {
		s, err := parser.ParseSessionFile(path, sessionID(dir, path))
		if err != nil || len(s.Tokens) == 0 {
			continue
		}
		// Sessions are deduplicated on content; the first file wins.
		sig := xxhash.Sum64String(strings.Join(s.Tokens, " "))
		if seen[sig] {
			dups++
			continue
		}
		seen[sig] = true
		corpus.Sessions[s.ID] = s.Tokens
	}
	return corpus, len(files), dups, nil
}

func collectTelemetry(opts Options) (model.Telemetry, error) {
	var tel model.Telemetry
	rate := opts.SamplingRate

	if opts.SeriesPath != "" {
		sig, err := parser.ReadSeries(opts.SeriesPath)
		if err != nil {
			return tel, fmt.Errorf("read series: %w", err)
		}
		tel.CoherenceSignal = sig.Samples
		if rate == 0 {
			rate = sig.SamplingRate
		}
	}

	for _, path := range opts.ChannelPaths {
		sig, err := parser.ReadSeries(path)
		if err != nil {
			return tel, fmt.Errorf("read channel: %w", err)
		}
		if rate == 0 {
			rate = sig.SamplingRate
		} else if opts.SamplingRate == 0 && sig.SamplingRate != 0 && sig.SamplingRate != rate {
			return tel, fmt.Errorf("channel %s: sampling rate %g differs from %g", sig.ID, sig.SamplingRate, rate)
		}
		if tel.Channels == nil {
			tel.Channels = make(map[string][]float64)
		}
		if _, ok := tel.Channels[sig.ID]; ok {
			return tel, fmt.Errorf("duplicate channel %s", sig.ID)
		}
		tel.Channels[sig.ID] = sig.Samples
	}

	tel.SamplingRate = rate
	return tel, nil
}

func writeStatus(path string, now time.Time, result *Result) error {
	status := map[string]any{
		"last_collect_epoch": now.Unix(),
		"last_collect_iso":   now.UTC().Format("2006-01-02T15:04:05Z"),
		"session_files":      result.SessionFiles,
		"sessions":           result.Sessions,
		"duplicate_sessions": result.DuplicateSessions,
		"samples":            result.Samples,
		"channels":           result.Channels,
		"dataset":            result.DatasetPath,
	}
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}
	return store.AtomicWriteFile(path, append(data, '\n'))
}
