package spectrum

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/pkg/model"
)

// Detection defaults.
const (
	DefaultTargetFrequency = 0.67
	DefaultTolerance       = 0.01
	DefaultAlpha           = 0.05
	DefaultSNRThreshold    = 2.0
)

// Detector looks for a target frequency in sampled signals. The two
// detection thresholds are fixed when the detector is built; a detection
// requires both p < Alpha and SNR > SNRThreshold.
type Detector struct {
	target       float64
	tolerance    float64
	alpha        float64
	snrThreshold float64
}

// NewDetector builds a Detector from the frequency settings of cfg.
func NewDetector(cfg model.Config) *Detector {
	return &Detector{
		target:       cfg.TargetFrequency,
		tolerance:    cfg.Tolerance,
		alpha:        cfg.SignificanceAlpha,
		snrThreshold: cfg.SNRThreshold,
	}
}

// Target returns the frequency the detector looks for.
func (d *Detector) Target() float64 { return d.target }

// Detect computes the periodogram of series and evaluates the bin nearest
// the target frequency against the rest of the spectrum.
func (d *Detector) Detect(series []float64, rate float64) (model.FrequencyResult, error) {
	sp, err := Periodogram(series, rate)
	if err != nil {
		return model.FrequencyResult{}, err
	}
	return d.Evaluate(sp), nil
}

// Evaluate runs the peak, noise-floor and significance steps on an already
// computed spectrum.
func (d *Detector) Evaluate(sp Spectrum) model.FrequencyResult {
	peak := sp.Nearest(d.target)
	peakPower := sp.Power[peak]

	floor := Median(sp.Power)
	snr := 0.0
	if floor > 0 {
		snr = peakPower / floor
	}
	switch {
	case math.IsNaN(snr):
		snr = 0
	case math.IsInf(snr, 1):
		snr = math.MaxFloat64
	}

	p := Significance(sp.Power, peak)

	return model.FrequencyResult{
		DetectedFrequency: sp.Frequencies[peak],
		Power:             peakPower,
		SNR:               snr,
		PValue:            p,
		Significant:       p < d.alpha && snr > d.snrThreshold,
		InBand:            math.Abs(sp.Frequencies[peak]-d.target) <= d.tolerance,
	}
}

// DetectFrequency runs a detector with default thresholds for the given
// target and tolerance.
func DetectFrequency(series []float64, rate, target, tolerance float64) (model.FrequencyResult, error) {
	cfg := model.DefaultConfig()
	cfg.TargetFrequency = target
	cfg.Tolerance = tolerance
	return NewDetector(cfg).Detect(series, rate)
}

// Median returns the median of xs, averaging the two middle values for an
// even count. xs is not modified. The median of an empty slice is 0.
func Median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Significance is the two-sided p-value of a one-sample t-test comparing
// the power spectrum without bin peak against the power at peak.
//
// A background of fewer than two bins carries no variance estimate and
// yields 1. A background with zero variance yields 0 when its mean differs
// from the peak power and 1 otherwise. A non-finite background mean or
// deviation also yields 1.
func Significance(power []float64, peak int) float64 {
	background := make([]float64, 0, len(power))
	background = append(background, power[:peak]...)
	background = append(background, power[peak+1:]...)
	if len(background) < 2 {
		return 1
	}

	mean, sd := stat.MeanStdDev(background, nil)
	diff := mean - power[peak]
	if math.IsNaN(diff) || math.IsInf(diff, 0) || math.IsNaN(sd) || math.IsInf(sd, 0) {
		return 1
	}
	if sd == 0 {
		if diff == 0 {
			return 1
		}
		return 0
	}

	n := float64(len(background))
	t := diff / (sd / math.Sqrt(n))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 1}
	return math.Min(1, 2*dist.Survival(math.Abs(t)))
}
