// Package spectrum estimates power spectra of sampled signals and detects
// whether a target frequency stands out from the background.
package spectrum

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Spectrum is a one-sided power spectral density. Frequencies and Power
// are parallel and ordered by increasing frequency.
type Spectrum struct {
	Frequencies []float64
	Power       []float64
}

// Len returns the number of frequency bins.
func (s Spectrum) Len() int { return len(s.Frequencies) }

// Nearest returns the index of the bin closest to f. Ties resolve to the
// lower frequency.
func (s Spectrum) Nearest(f float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, bin := range s.Frequencies {
		if d := math.Abs(bin - f); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Periodogram estimates the power spectral density of series sampled at
// rate Hz. The mean is removed first, no window is applied, and the result
// is density-scaled: P[k] = |X[k]|² / (rate·n), doubled for every bin that
// has a negative-frequency mirror (all but DC and, for even n, Nyquist).
// Bin k sits at k·rate/n. Samples large enough to overflow a power bin are
// rejected with ErrInvalidInput.
func Periodogram(series []float64, rate float64) (Spectrum, error) {
	n := len(series)
	if n < 2 {
		return Spectrum{}, fmt.Errorf("%w: series has %d samples, need at least 2", ErrInvalidInput, n)
	}
	if !(rate > 0) || math.IsInf(rate, 1) {
		return Spectrum{}, fmt.Errorf("%w: sampling rate %v must be positive", ErrInvalidInput, rate)
	}
	if floats.HasNaN(series) || hasInf(series) {
		return Spectrum{}, fmt.Errorf("%w: series contains non-finite samples", ErrInvalidInput)
	}

	detrended := make([]float64, n)
	copy(detrended, series)
	floats.AddConst(-stat.Mean(detrended, nil), detrended)

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, detrended)

	scale := 1 / (rate * float64(n))
	sp := Spectrum{
		Frequencies: make([]float64, len(coeffs)),
		Power:       make([]float64, len(coeffs)),
	}
	for k, c := range coeffs {
		sp.Frequencies[k] = fft.Freq(k) * rate
		p := cmplx.Abs(c)
		p = p * p * scale
		if k != 0 && !(n%2 == 0 && k == n/2) {
			p *= 2
		}
		sp.Power[k] = p
	}
	if hasInf(sp.Power) {
		return Spectrum{}, fmt.Errorf("%w: sample magnitudes overflow the power spectrum", ErrInvalidInput)
	}
	return sp, nil
}

func hasInf(xs []float64) bool {
	for _, x := range xs {
		if math.IsInf(x, 0) {
			return true
		}
	}
	return false
}
