package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/internal/parser"
	"github.com/renaissancefieldlite/Codex-67-36-Node-Validation-E/pkg/model"
)

// newLogger builds the process logger writing to w.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("unknown log level: %s", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format: %s", format)
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// readSession loads a file as one session: JSONL chat logs through the
// session parser, anything else as whitespace-separated text.
func readSession(path string) (model.Session, error) {
	if strings.HasSuffix(path, ".jsonl") {
		return parser.ParseSessionFile(path, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Session{}, err
	}
	return model.Session{ID: path, Tokens: strings.Fields(string(data))}, nil
}
