package parser

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/pkg/model"
)

// jsonRow represents a single line from a JSONL conversation log.
type jsonRow struct {
	Type    string          `json:"type"`
	Text    string          `json:"text"`
	Message *messageWrapper `json:"message"`
}

type messageWrapper struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ParseSessionFile reads a JSONL conversation log and returns its words as
// one session. Each line is either {"text": "..."} or a chat row carrying a
// message whose content is a string or an array of blocks; only text blocks
// count. Malformed lines and tool traffic are skipped.
func ParseSessionFile(path string, sessionID string) (model.Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Session{}, err
	}
	defer f.Close()

	var tokens []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		var row jsonRow
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			continue
		}

		text := row.Text
		if row.Message != nil {
			if row.Type == "user" && !isHumanPrompt(row.Message.Content) {
				continue
			}
			text = messageText(row.Message.Content)
		}
		tokens = append(tokens, strings.Fields(cleanText(text))...)
	}

	return model.Session{ID: sessionID, Tokens: tokens}, scanner.Err()
}

// LoadSessionDir parses every *.jsonl file in dir into a corpus keyed by
// file name without extension. A missing directory yields an empty corpus.
func LoadSessionDir(dir string) (model.Corpus, error) {
	corpus := model.Corpus{Sessions: map[string]model.Tokens{}}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return corpus, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	if err != nil {
		return corpus, err
	}
	sort.Strings(matches)

	for _, path := range matches {
		id := strings.TrimSuffix(filepath.Base(path), ".jsonl")
		s, err := ParseSessionFile(path, id)
		if err != nil {
			return corpus, err
		}
		corpus.Sessions[id] = s.Tokens
	}
	return corpus, nil
}

// isHumanPrompt checks if a user message content represents a human prompt
// (not just tool_result responses).
func isHumanPrompt(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return true
	}

	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err == nil {
		if len(blocks) == 0 {
			return true
		}
		// If ALL blocks are tool_result, it's not a human prompt
		for _, b := range blocks {
			if b.Type != "tool_result" {
				return true
			}
		}
		return false
	}

	return true
}

// messageText extracts text content from a message.
func messageText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var parts []string
		for _, b := range blocks {
			if b.Type == "text" {
				parts = append(parts, b.Text)
			}
		}
		return strings.Join(parts, " ")
	}

	return ""
}

// cleanText normalizes whitespace in text.
func cleanText(s string) string {
	replacer := strings.NewReplacer("\t", " ", "\r", " ", "\n", " ")
	s = replacer.Replace(s)
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return strings.TrimSpace(s)
}
