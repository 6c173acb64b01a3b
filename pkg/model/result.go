package model

// Component claim identifiers.
const (
	ClaimFrequency         = "frequency_detection"
	ClaimPatternOverlap    = "pattern_overlap"
	ClaimVocabularyOverlap = "vocabulary_overlap"
)

// FrequencyResult is the outcome of a single frequency detection.
type FrequencyResult struct {
	DetectedFrequency float64 `json:"detected_frequency" yaml:"detected_frequency"`
	Power             float64 `json:"power" yaml:"power"`
	SNR               float64 `json:"snr" yaml:"snr"`
	PValue            float64 `json:"p_value" yaml:"p_value"`
	Significant       bool    `json:"significant" yaml:"significant"`
	InBand            bool    `json:"in_band" yaml:"in_band"` // detected bin within tolerance of the target
}

// PairScore is the overlap score of one unordered session pair (A < B).
type PairScore struct {
	A     string  `json:"session_a" yaml:"session_a"`
	B     string  `json:"session_b" yaml:"session_b"`
	Score float64 `json:"score" yaml:"score"`
}

// ComponentResult records the verdict of one validation component.
type ComponentResult struct {
	ClaimID         string         `json:"claim_id" yaml:"claim_id"`
	Validated       bool           `json:"validated" yaml:"validated"`
	Confidence      float64        `json:"confidence" yaml:"confidence"`
	ValidationLevel string         `json:"validation_level" yaml:"validation_level"`
	Significance    *float64       `json:"statistical_significance,omitempty" yaml:"statistical_significance,omitempty"`
	MetaValidation  bool           `json:"meta_validation" yaml:"meta_validation"`
	Details         map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
}

// ValidationResult is produced once per run and never modified afterwards.
type ValidationResult struct {
	Score         float64           `json:"score" yaml:"score"`
	Validated     bool              `json:"overall_validated" yaml:"overall_validated"`
	MetaValidated bool              `json:"meta_validated" yaml:"meta_validated"`
	Components    []ComponentResult `json:"detailed_results" yaml:"detailed_results"`
}

// CrossValidationResult aggregates the per-fold scores of a run.
type CrossValidationResult struct {
	Folds       int       `json:"n_folds" yaml:"n_folds"`
	MeanScore   float64   `json:"mean_score" yaml:"mean_score"`
	StdScore    float64   `json:"std_score" yaml:"std_score"`
	MinScore    float64   `json:"min_score" yaml:"min_score"`
	MaxScore    float64   `json:"max_score" yaml:"max_score"`
	Consistency float64   `json:"validation_consistency" yaml:"validation_consistency"`
	Scores      []float64 `json:"scores" yaml:"scores"`
	Statuses    []bool    `json:"validation_statuses" yaml:"validation_statuses"`
}

// LevelFor maps a score in [0,1] to its validation level.
func LevelFor(score float64) string {
	switch {
	case score >= 0.95:
		return "EXCEPTIONAL"
	case score >= 0.90:
		return "STRONG"
	case score >= 0.75:
		return "GOOD"
	case score >= 0.60:
		return "MODERATE"
	default:
		return "WEAK"
	}
}
