package parser

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/pkg/model"
)

// Dataset section keys.
const (
	SectionTelemetry  = "telemetry"
	SectionPatterns   = "pattern_data"
	SectionDialogue   = "conversation_data"
	SectionTranscript = "validation_transcript"
)

// RequiredSections lists the top-level keys of a dataset document.
var RequiredSections = []string{SectionTelemetry, SectionPatterns, SectionDialogue, SectionTranscript}

// sectionAliases maps a section to the older key it may be stored under.
// The section's own key wins when both are present.
var sectionAliases = map[string]string{
	SectionTelemetry: "quantum_telemetry",
}

// LoadDataset reads a JSON dataset document. A missing section is replaced
// by an empty one and reported through logger; it is not an error.
func LoadDataset(path string, logger *slog.Logger) (model.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Dataset{}, err
	}
	return DecodeDataset(data, logger)
}

// DecodeDataset is LoadDataset over an in-memory document.
func DecodeDataset(data []byte, logger *slog.Logger) (model.Dataset, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}

	var ds model.Dataset
	targets := map[string]any{
		SectionTelemetry:  &ds.Telemetry,
		SectionPatterns:   &ds.PatternData,
		SectionDialogue:   &ds.ConversationData,
		SectionTranscript: &ds.ValidationTranscript,
	}
	for _, section := range RequiredSections {
		body, ok := raw[section]
		if alias, has := sectionAliases[section]; has && (!ok || string(body) == "null") {
			body, ok = raw[alias]
		}
		if !ok || string(body) == "null" {
			logger.Warn("missing dataset section, using empty data", slog.String("section", section))
			continue
		}
		if err := json.Unmarshal(body, targets[section]); err != nil {
			return model.Dataset{}, fmt.Errorf("decode %s: %w", section, err)
		}
	}

	for _, c := range []*model.Corpus{&ds.PatternData, &ds.ConversationData, &ds.ValidationTranscript} {
		if c.Sessions == nil {
			c.Sessions = map[string]model.Tokens{}
		}
	}
	return ds, nil
}

// ReadSeries reads a numeric series. JSON files hold either an array of
// numbers or an object {"samples": [...], "sampling_rate": r}; any other
// file holds numbers separated by commas or whitespace, with '#' comments.
// The returned signal's SamplingRate is 0 when the file does not state one.
func ReadSeries(path string) (model.Signal, error) {
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return model.Signal{}, err
		}
		sig, err := decodeSeriesJSON(data)
		if err != nil {
			return model.Signal{}, fmt.Errorf("decode %s: %w", path, err)
		}
		sig.ID = id
		return sig, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return model.Signal{}, err
	}
	defer f.Close()

	sig := model.Signal{ID: id}
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == ';'
		})
		for _, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return model.Signal{}, fmt.Errorf("%s:%d: invalid sample %q: %w", path, lineNo, field, err)
			}
			sig.Samples = append(sig.Samples, v)
		}
	}
	return sig, scanner.Err()
}

func decodeSeriesJSON(data []byte) (model.Signal, error) {
	var samples []float64
	if err := json.Unmarshal(data, &samples); err == nil {
		return model.Signal{Samples: samples}, nil
	}

	var sig model.Signal
	if err := json.Unmarshal(data, &sig); err != nil {
		return model.Signal{}, err
	}
	return sig, nil
}
