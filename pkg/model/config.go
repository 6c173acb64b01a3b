package model

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Validation modes.
const (
	ModeComprehensive = "comprehensive"
	ModeQuick         = "quick"
)

// QuickBootstrapIterations replaces BootstrapIterations in quick mode.
const QuickBootstrapIterations = 100

// Config holds every recognized option of a validation run.
// Field tags double as the YAML/JSON keys of a config file.
type Config struct {
	// TargetFrequency is the detection center frequency in Hz.
	TargetFrequency float64 `yaml:"target_frequency" json:"target_frequency" validate:"gt=0"`
	// Tolerance is the acceptance band around TargetFrequency in Hz.
	Tolerance float64 `yaml:"tolerance" json:"tolerance" validate:"gt=0"`
	// ValidationThreshold is the mean pattern overlap a corpus must exceed.
	ValidationThreshold float64 `yaml:"validation_threshold" json:"validation_threshold" validate:"gte=0,lte=1"`
	// VocabularyThreshold is the mean vocabulary overlap a corpus must exceed.
	VocabularyThreshold float64 `yaml:"vocabulary_threshold" json:"vocabulary_threshold" validate:"gte=0,lte=1"`
	// SignificanceAlpha is the p-value cutoff of the frequency detector.
	SignificanceAlpha float64 `yaml:"significance_alpha" json:"significance_alpha" validate:"gt=0,lt=1"`
	// SNRThreshold is the minimum signal-to-noise ratio of the frequency detector.
	SNRThreshold float64 `yaml:"snr_threshold" json:"snr_threshold" validate:"gt=0"`
	// ConfidenceThreshold flags components whose confidence falls below it.
	ConfidenceThreshold float64 `yaml:"confidence_threshold" json:"confidence_threshold" validate:"gte=0,lte=1"`

	ValidationMode      string `yaml:"validation_mode" json:"validation_mode" validate:"oneof=comprehensive quick"`
	EnableMetaDetection bool   `yaml:"enable_meta_detection" json:"enable_meta_detection"`
	GenerateReport      bool   `yaml:"generate_report" json:"generate_report"`
	SaveRawData         bool   `yaml:"save_raw_data" json:"save_raw_data"`
	OutputFormat        string `yaml:"output_format" json:"output_format" validate:"oneof=json yaml"`
	OutputDir           string `yaml:"output_dir" json:"output_dir"`

	BootstrapIterations  int     `yaml:"bootstrap_iterations" json:"bootstrap_iterations" validate:"gte=0,lte=100000"`
	CrossValidationFolds int     `yaml:"cross_validation_folds" json:"cross_validation_folds" validate:"gte=2,lte=50"`
	FoldNoiseScale       float64 `yaml:"fold_noise_scale" json:"fold_noise_scale" validate:"gte=0"`
	RandomSeed           int64   `yaml:"random_seed" json:"random_seed"`
	// Workers bounds pairwise scoring parallelism; 0 means GOMAXPROCS.
	Workers int `yaml:"workers" json:"workers" validate:"gte=0,lte=256"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		TargetFrequency:      0.67,
		Tolerance:            0.01,
		ValidationThreshold:  0.7,
		VocabularyThreshold:  0.65,
		SignificanceAlpha:    0.05,
		SNRThreshold:         2.0,
		ConfidenceThreshold:  0.7,
		ValidationMode:       ModeComprehensive,
		EnableMetaDetection:  true,
		GenerateReport:       true,
		SaveRawData:          false,
		OutputFormat:         "json",
		OutputDir:            ".",
		BootstrapIterations:  1000,
		CrossValidationFolds: 5,
		FoldNoiseScale:       0.1,
		RandomSeed:           42,
		Workers:              0,
	}
}

var configValidate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every option against its documented range.
func (c Config) Validate() error {
	err := configValidate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: must satisfy %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Quick switches the config to quick mode.
func (c *Config) Quick() {
	c.ValidationMode = ModeQuick
	c.BootstrapIterations = QuickBootstrapIterations
}

// LoadConfig reads a YAML or JSON config file over DefaultConfig.
// An empty path yields the defaults. Keys absent from the file keep their
// default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
