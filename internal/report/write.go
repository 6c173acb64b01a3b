package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/store"
)

// Files names the outputs of Write.
type Files struct {
	Report  string
	Summary string
}

// Marshal encodes rep as indented JSON or as YAML.
func Marshal(rep Report, format string) ([]byte, error) {
	switch format {
	case "", "json":
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "yaml":
		return yaml.Marshal(rep)
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}

// Write saves the detailed report and the text summary under dir, named
// after now.
func Write(dir string, rep Report, format string, now time.Time) (Files, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Files{}, fmt.Errorf("create %s: %w", dir, err)
	}

	data, err := Marshal(rep, format)
	if err != nil {
		return Files{}, err
	}
	ext := "json"
	if format == "yaml" {
		ext = "yaml"
	}

	stamp := Stamp(now)
	files := Files{
		Report:  filepath.Join(dir, fmt.Sprintf("validation_report_%s.%s", stamp, ext)),
		Summary: filepath.Join(dir, fmt.Sprintf("validation_summary_%s.txt", stamp)),
	}
	return files, writeFiles(files, rep, data)
}

// FormatForPath returns the report format implied by the extension of
// path, or "" when path does not name a report file.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	}
	return ""
}

// WriteFile saves the detailed report at path, in the format its extension
// names, and the text summary next to it named after now.
func WriteFile(path string, rep Report, now time.Time) (Files, error) {
	format := FormatForPath(path)
	if format == "" {
		return Files{}, fmt.Errorf("unknown output format: %s", filepath.Ext(path))
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Files{}, fmt.Errorf("create %s: %w", dir, err)
	}

	data, err := Marshal(rep, format)
	if err != nil {
		return Files{}, err
	}
	files := Files{
		Report:  path,
		Summary: filepath.Join(dir, fmt.Sprintf("validation_summary_%s.txt", Stamp(now))),
	}
	return files, writeFiles(files, rep, data)
}

func writeFiles(files Files, rep Report, data []byte) error {
	if err := store.AtomicWriteFile(files.Report, data); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := store.AtomicWriteFile(files.Summary, []byte(Summary(rep))); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// Summary renders the human-readable text summary of rep.
func Summary(rep Report) string {
	var b strings.Builder
	rule := strings.Repeat("=", 80)
	sub := strings.Repeat("-", 40)

	fmt.Fprintf(&b, "%s\nVALIDATION SUMMARY\n%s\n\n", rule, rule)
	fmt.Fprintf(&b, "Report ID: %s\n", rep.ReportID)
	fmt.Fprintf(&b, "Timestamp: %s\n", rep.Timestamp)
	fmt.Fprintf(&b, "Score: %.3f\n", rep.Score)
	fmt.Fprintf(&b, "Validation Level: %s\n", rep.ValidationLevel)
	fmt.Fprintf(&b, "Overall Validated: %t\n", rep.OverallValidated)
	fmt.Fprintf(&b, "Meta-Validated: %t\n\n", rep.MetaValidated)

	fmt.Fprintf(&b, "EXECUTIVE SUMMARY:\n%s\n%s\n\n", sub, rep.ExecutiveSummary)

	fmt.Fprintf(&b, "COMPONENT VALIDATION:\n%s\n", sub)
	names := make([]string, 0, len(rep.ComponentValidation))
	for name := range rep.ComponentValidation {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := rep.ComponentValidation[name]
		status := "NOT VALIDATED"
		if c.Validated {
			status = "VALIDATED"
		}
		fmt.Fprintf(&b, "%s: %s (confidence: %.3f)\n", name, status, c.Confidence)
	}

	s := rep.StatisticalSummary
	fmt.Fprintf(&b, "\nSTATISTICAL SUMMARY:\n%s\n", sub)
	fmt.Fprintf(&b, "score: %.3f\n", s.Score)
	fmt.Fprintf(&b, "n_components_tested: %d\n", s.ComponentsTested)
	fmt.Fprintf(&b, "n_components_validated: %d\n", s.ComponentsValidated)
	fmt.Fprintf(&b, "mean_confidence: %.3f\n", s.MeanConfidence)
	fmt.Fprintf(&b, "std_confidence: %.3f\n", s.StdConfidence)
	fmt.Fprintf(&b, "mean_significance: %.3f\n", s.MeanSignificance)
	fmt.Fprintf(&b, "meta_validation_rate: %.3f\n", s.MetaValidationRate)

	if cv := rep.CrossValidation; cv != nil {
		fmt.Fprintf(&b, "\nCROSS-VALIDATION:\n%s\n", sub)
		fmt.Fprintf(&b, "folds: %d\n", cv.Folds)
		fmt.Fprintf(&b, "score: %.3f ± %.3f (min %.3f, max %.3f)\n", cv.MeanScore, cv.StdScore, cv.MinScore, cv.MaxScore)
		fmt.Fprintf(&b, "validation_consistency: %.3f\n", cv.Consistency)
	}

	fmt.Fprintf(&b, "\nRECOMMENDATIONS:\n%s\n", sub)
	for i, r := range rep.Recommendations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}

	fmt.Fprintf(&b, "\nNEXT STEPS:\n%s\n", sub)
	for i, step := range rep.NextSteps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	fmt.Fprintf(&b, "\n%s\nEND OF REPORT\n%s\n", rule, rule)
	return b.String()
}
