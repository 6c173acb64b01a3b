package store

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/pkg/model"
)

// TSV header for pair-scores.tsv
const PairScoresTSVHeader = "session_a\tsession_b\tscore"

// TSV header for spectrum.tsv
const SpectrumTSVHeader = "signal_id\tfrequency\tpower"

// SpectrumBin is one row of an exported spectrum.
type SpectrumBin struct {
	SignalID  string
	Frequency float64
	Power     float64
}

// MarshalPairScore serializes a PairScore to a TSV line.
func MarshalPairScore(p model.PairScore) string {
	return fmt.Sprintf("%s\t%s\t%s", p.A, p.B, formatFloat(p.Score))
}

// UnmarshalPairScore parses a TSV line into a PairScore.
func UnmarshalPairScore(line string) (model.PairScore, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 3 {
		return model.PairScore{}, fmt.Errorf("expected 3 fields, got %d", len(fields))
	}

	score, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return model.PairScore{}, fmt.Errorf("invalid score: %w", err)
	}

	return model.PairScore{A: fields[0], B: fields[1], Score: score}, nil
}

// MarshalSpectrumBin serializes a SpectrumBin to a TSV line.
func MarshalSpectrumBin(b SpectrumBin) string {
	return fmt.Sprintf("%s\t%s\t%s", b.SignalID, formatFloat(b.Frequency), formatFloat(b.Power))
}

// UnmarshalSpectrumBin parses a TSV line into a SpectrumBin.
func UnmarshalSpectrumBin(line string) (SpectrumBin, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 3 {
		return SpectrumBin{}, fmt.Errorf("expected 3 fields, got %d", len(fields))
	}

	freq, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return SpectrumBin{}, fmt.Errorf("invalid frequency: %w", err)
	}

	power, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return SpectrumBin{}, fmt.Errorf("invalid power: %w", err)
	}

	return SpectrumBin{SignalID: fields[0], Frequency: freq, Power: power}, nil
}

// WritePairScores writes a header and one line per pair, atomically.
func WritePairScores(path string, pairs []model.PairScore) error {
	var b strings.Builder
	b.WriteString(PairScoresTSVHeader)
	b.WriteByte('\n')
	for _, p := range pairs {
		b.WriteString(MarshalPairScore(p))
		b.WriteByte('\n')
	}
	return AtomicWriteFile(path, []byte(b.String()))
}

// WriteSpectrum writes a header and one line per bin, atomically.
func WriteSpectrum(path string, bins []SpectrumBin) error {
	var b strings.Builder
	b.WriteString(SpectrumTSVHeader)
	b.WriteByte('\n')
	for _, bin := range bins {
		b.WriteString(MarshalSpectrumBin(bin))
		b.WriteByte('\n')
	}
	return AtomicWriteFile(path, []byte(b.String()))
}

// ReadPairScores reads all pair scores from a TSV file, skipping the
// header, blank lines and malformed lines.
func ReadPairScores(path string) ([]model.PairScore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pairs []model.PairScore
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	// Skip header
	scanner.Scan()

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		p, err := UnmarshalPairScore(line)
		if err != nil {
			continue
		}
		pairs = append(pairs, p)
	}

	return pairs, scanner.Err()
}

// ReadSpectrum reads all spectrum bins from a TSV file, skipping the
// header, blank lines and malformed lines.
func ReadSpectrum(path string) ([]SpectrumBin, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var bins []SpectrumBin
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Scan()

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		b, err := UnmarshalSpectrumBin(line)
		if err != nil {
			continue
		}
		bins = append(bins, b)
	}

	return bins, scanner.Err()
}

// AtomicWriteFile writes data to a temp file then renames it over path.
func AtomicWriteFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
