package validate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/store"
	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/pkg/model"
)

// Raw data file names.
const (
	PairScoresFile = "pair-scores.tsv"
	SpectrumFile   = "spectrum.tsv"
)

// SaveRawData writes the pairwise pattern scores and the coherence signal
// spectrum as TSV files under dir and returns the written paths.
func (o *Outcome) SaveRawData(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	pairsPath := filepath.Join(dir, PairScoresFile)
	if err := store.WritePairScores(pairsPath, o.Pairs); err != nil {
		return nil, fmt.Errorf("write %s: %w", PairScoresFile, err)
	}

	bins := make([]store.SpectrumBin, o.Spectrum.Len())
	for i := range bins {
		bins[i] = store.SpectrumBin{
			SignalID:  model.CoherenceSignalID,
			Frequency: o.Spectrum.Frequencies[i],
			Power:     o.Spectrum.Power[i],
		}
	}
	spectrumPath := filepath.Join(dir, SpectrumFile)
	if err := store.WriteSpectrum(spectrumPath, bins); err != nil {
		return nil, fmt.Errorf("write %s: %w", SpectrumFile, err)
	}

	return []string{pairsPath, spectrumPath}, nil
}
