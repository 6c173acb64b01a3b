package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Tokens is an ordered word sequence. In JSON it may be written either as
// a whitespace-delimited string or as an array of strings.
type Tokens []string

// UnmarshalJSON accepts a string or an array of strings.
func (t *Tokens) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = strings.Fields(s)
		return nil
	}

	var words []string
	if err := json.Unmarshal(data, &words); err != nil {
		return fmt.Errorf("tokens must be a string or an array of strings: %w", err)
	}
	*t = words
	return nil
}

// Session is an identified token sequence, immutable once loaded.
type Session struct {
	ID     string `json:"id"`
	Tokens Tokens `json:"tokens"`
}

// Signal is an identified, uniformly sampled time series.
type Signal struct {
	ID           string    `json:"id"`
	Samples      []float64 `json:"samples"`
	SamplingRate float64   `json:"sampling_rate"`
}

// Corpus maps session identifiers to token sequences.
type Corpus struct {
	Sessions map[string]Tokens `json:"sessions"`
}

// List returns the corpus sessions ordered by ID.
func (c Corpus) List() []Session {
	ids := make([]string, 0, len(c.Sessions))
	for id := range c.Sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Session, 0, len(ids))
	for _, id := range ids {
		out = append(out, Session{ID: id, Tokens: c.Sessions[id]})
	}
	return out
}

// Telemetry holds sampled numeric channels sharing one sampling rate.
// CoherenceSignal is the primary channel the frequency verdict is based on.
type Telemetry struct {
	SamplingRate    float64              `json:"sampling_rate"`
	CoherenceSignal []float64            `json:"coherence_signal"`
	Channels        map[string][]float64 `json:"channels,omitempty"`
}

// Signals returns the coherence signal (when present) followed by the
// remaining channels ordered by name.
func (t Telemetry) Signals() []Signal {
	var out []Signal
	if len(t.CoherenceSignal) > 0 {
		out = append(out, Signal{ID: CoherenceSignalID, Samples: t.CoherenceSignal, SamplingRate: t.SamplingRate})
	}
	names := make([]string, 0, len(t.Channels))
	for name := range t.Channels {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, Signal{ID: name, Samples: t.Channels[name], SamplingRate: t.SamplingRate})
	}
	return out
}

// CoherenceSignalID names the primary telemetry channel.
const CoherenceSignalID = "coherence_signal"

// Dataset is the input document of a validation run.
type Dataset struct {
	Telemetry            Telemetry `json:"telemetry"`
	PatternData          Corpus    `json:"pattern_data"`
	ConversationData     Corpus    `json:"conversation_data"`
	ValidationTranscript Corpus    `json:"validation_transcript"`
}

// Clone returns a copy whose telemetry can be modified without touching d.
// Token sequences are shared since nothing mutates them.
func (d Dataset) Clone() Dataset {
	out := d
	out.Telemetry.CoherenceSignal = append([]float64(nil), d.Telemetry.CoherenceSignal...)
	if d.Telemetry.Channels != nil {
		out.Telemetry.Channels = make(map[string][]float64, len(d.Telemetry.Channels))
		for name, samples := range d.Telemetry.Channels {
			out.Telemetry.Channels[name] = append([]float64(nil), samples...)
		}
	}
	return out
}
