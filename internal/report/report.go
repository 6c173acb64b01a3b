// Package report turns a validation outcome into the persisted JSON/YAML
// report, a plain-text summary and a terminal rendering.
package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/validate"
	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/pkg/model"
)

// ComponentSummary is the per-component digest of a report.
type ComponentSummary struct {
	Validated       bool    `json:"validated" yaml:"validated"`
	Confidence      float64 `json:"confidence" yaml:"confidence"`
	ValidationLevel string  `json:"validation_level" yaml:"validation_level"`
	MetaValidation  bool    `json:"meta_validation" yaml:"meta_validation"`
}

// StatisticalSummary aggregates the component results.
type StatisticalSummary struct {
	Score               float64 `json:"score" yaml:"score"`
	ComponentsTested    int     `json:"n_components_tested" yaml:"n_components_tested"`
	ComponentsValidated int     `json:"n_components_validated" yaml:"n_components_validated"`
	MeanConfidence      float64 `json:"mean_confidence" yaml:"mean_confidence"`
	StdConfidence       float64 `json:"std_confidence" yaml:"std_confidence"`
	MeanSignificance    float64 `json:"mean_significance" yaml:"mean_significance"`
	MetaValidationRate  float64 `json:"meta_validation_rate" yaml:"meta_validation_rate"`
}

// Report is the complete, serializable record of one run.
type Report struct {
	ReportID            string                       `json:"report_id" yaml:"report_id"`
	Timestamp           string                       `json:"timestamp" yaml:"timestamp"`
	ValidatorVersion    string                       `json:"validator_version" yaml:"validator_version"`
	Config              model.Config                 `json:"config_used" yaml:"config_used"`
	ExecutiveSummary    string                       `json:"executive_summary" yaml:"executive_summary"`
	Score               float64                      `json:"score" yaml:"score"`
	ValidationLevel     string                       `json:"validation_level" yaml:"validation_level"`
	OverallValidated    bool                         `json:"overall_validated" yaml:"overall_validated"`
	MetaValidated       bool                         `json:"meta_validated" yaml:"meta_validated"`
	Frequency           *model.FrequencyResult       `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	DetailedResults     []model.ComponentResult      `json:"detailed_results" yaml:"detailed_results"`
	ComponentValidation map[string]ComponentSummary  `json:"component_validation" yaml:"component_validation"`
	StatisticalSummary  StatisticalSummary           `json:"statistical_summary" yaml:"statistical_summary"`
	Recommendations     []string                     `json:"recommendations" yaml:"recommendations"`
	NextSteps           []string                     `json:"next_steps" yaml:"next_steps"`
	CrossValidation     *model.CrossValidationResult `json:"cross_validation,omitempty" yaml:"cross_validation,omitempty"`
	Advanced            *validate.AdvancedResult     `json:"advanced_analysis,omitempty" yaml:"advanced_analysis,omitempty"`
}

// Build assembles the report of out. now stamps the report and names its
// files; version is recorded as the validator version.
func Build(cfg model.Config, out *validate.Outcome, now time.Time, version string) Report {
	res := out.Result
	level := model.LevelFor(res.Score)

	rep := Report{
		ReportID:            fmt.Sprintf("validation_%s_%s", Stamp(now), uuid.NewString()[:8]),
		Timestamp:           now.UTC().Format(time.RFC3339),
		ValidatorVersion:    version,
		Config:              cfg,
		ExecutiveSummary:    executiveSummary(res),
		Score:               res.Score,
		ValidationLevel:     level,
		OverallValidated:    res.Validated,
		MetaValidated:       res.MetaValidated,
		Frequency:           out.Frequency,
		DetailedResults:     res.Components,
		ComponentValidation: summarizeComponents(res.Components),
		StatisticalSummary:  statisticalSummary(res),
		Recommendations:     recommendations(level),
		NextSteps:           nextSteps(res.Components, cfg.ConfidenceThreshold),
		CrossValidation:     out.CrossValidation,
		Advanced:            out.Advanced,
	}
	return rep
}

// Stamp formats t the way report file names carry it.
func Stamp(t time.Time) string {
	return t.UTC().Format("20060102_150405")
}

func executiveSummary(res model.ValidationResult) string {
	score := res.Score
	switch {
	case score >= 0.9 && res.Validated && res.MetaValidated:
		return fmt.Sprintf("STRONG RESULT WITH META-VALIDATION. The dataset scores %.3f. "+
			"Every component passed its threshold, and the validation transcript reproduces the pattern corpus.", score)
	case score >= 0.75 && res.Validated:
		return fmt.Sprintf("GOOD RESULT. The dataset scores %.3f and every component passed its threshold.", score)
	case score >= 0.6:
		return fmt.Sprintf("MODERATE RESULT. The dataset scores %.3f. Some components passed; "+
			"further data is recommended before drawing conclusions.", score)
	default:
		return fmt.Sprintf("WEAK RESULT. The dataset scores %.3f. The evidence is limited "+
			"and the components mostly failed their thresholds.", score)
	}
}

func summarizeComponents(components []model.ComponentResult) map[string]ComponentSummary {
	out := make(map[string]ComponentSummary, len(components))
	for _, c := range components {
		out[c.ClaimID] = ComponentSummary{
			Validated:       c.Validated,
			Confidence:      c.Confidence,
			ValidationLevel: c.ValidationLevel,
			MetaValidation:  c.MetaValidation,
		}
	}
	return out
}

func statisticalSummary(res model.ValidationResult) StatisticalSummary {
	s := StatisticalSummary{
		Score:            res.Score,
		ComponentsTested: len(res.Components),
		MeanSignificance: 1,
	}
	if len(res.Components) == 0 {
		return s
	}

	confidences := make([]float64, 0, len(res.Components))
	var significances []float64
	meta := 0
	for _, c := range res.Components {
		if c.Validated {
			s.ComponentsValidated++
		}
		if c.MetaValidation {
			meta++
		}
		confidences = append(confidences, c.Confidence)
		if c.Significance != nil {
			significances = append(significances, *c.Significance)
		}
	}

	s.MeanConfidence, s.StdConfidence = stat.PopMeanStdDev(confidences, nil)
	if len(confidences) < 2 {
		s.StdConfidence = 0
	}
	if len(significances) > 0 {
		s.MeanSignificance = stat.Mean(significances, nil)
	}
	s.MetaValidationRate = float64(meta) / float64(len(res.Components))
	return s
}

var levelRecommendations = map[string][]string{
	"EXCEPTIONAL": {
		"Replicate the run on an independent dataset before relying on it",
		"Publish the configuration alongside the report",
		"Archive the raw pair scores and spectrum for audit",
	},
	"STRONG": {
		"Replicate the run on an independent dataset",
		"Review the weakest component for hidden data issues",
		"Archive the raw pair scores and spectrum for audit",
	},
	"GOOD": {
		"Collect additional sessions and telemetry to tighten the estimates",
		"Address any component below the confidence threshold",
		"Compare against a shuffled-corpus baseline",
	},
	"MODERATE": {
		"Strengthen the components that failed their thresholds",
		"Collect more comprehensive input data",
		"Check sampling rate and signal length against the target frequency resolution",
	},
	"WEAK": {
		"Re-examine the input data for formatting or coverage problems",
		"Check that the target frequency lies within the sampled band",
		"Consider whether the thresholds suit this dataset",
	},
}

func recommendations(level string) []string {
	out := append([]string(nil), levelRecommendations[level]...)
	return append(out,
		"Keep the random seed and configuration with every report",
		"Report negative results as well as positive ones",
	)
}

func nextSteps(components []model.ComponentResult, confidenceThreshold float64) []string {
	var steps []string
	for _, c := range components {
		if !c.Validated {
			steps = append(steps, "Improve validation methodology for "+c.ClaimID)
		}
		if c.Confidence < confidenceThreshold {
			steps = append(steps, "Strengthen evidence for "+c.ClaimID)
		}
	}
	return append(steps,
		"Run validation on additional independent datasets",
		"Run with cross-validation enabled to check score stability",
		"Automate the validation run in the data pipeline",
	)
}
