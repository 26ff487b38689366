package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/raysh454/plateproxy/internal/logging"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("line is not JSON: %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestStdoutLogger_WritesJSONLines(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := logging.NewStdoutLogger("test")
	logger.SetOutput(&buf)

	logger.Info("hello", logging.Field{Key: "n", Value: 3})

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e["level"] != "info" || e["msg"] != "hello" || e["component"] != "test" {
		t.Errorf("unexpected entry: %v", e)
	}
	fields, _ := e["fields"].(map[string]any)
	if fields["n"] != float64(3) {
		t.Errorf("expected field n=3, got %v", fields["n"])
	}
}

func TestStdoutLogger_LevelFilters(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := logging.NewStdoutLogger("test")
	logger.SetOutput(&buf)
	logger.SetLevel(logging.LevelWarn)

	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries above warn, got %d: %s", len(entries), buf.String())
	}
	if entries[0]["msg"] != "w" || entries[1]["msg"] != "e" {
		t.Errorf("unexpected messages: %v", entries)
	}
}

func TestStdoutLogger_WithKeepsFieldsAndComponent(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := logging.NewStdoutLogger("root")
	logger.SetOutput(&buf)

	child := logger.With(
		logging.Field{Key: "component", Value: "fetcher"},
		logging.Field{Key: "backend", Value: "nethttp"},
	)
	child.Warn("retrying", logging.Field{Key: "error", Value: errors.New("boom")})

	e := decodeLines(t, &buf)[0]
	if e["component"] != "fetcher" {
		t.Errorf("expected component fetcher, got %v", e["component"])
	}
	fields := e["fields"].(map[string]any)
	if fields["backend"] != "nethttp" {
		t.Errorf("expected persistent backend field, got %v", fields["backend"])
	}
	if fields["error"] != "boom" {
		t.Errorf("expected error rendered as string, got %v", fields["error"])
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	cases := map[string]logging.Level{
		"debug":   logging.LevelDebug,
		"":        logging.LevelInfo,
		"INFO":    logging.LevelInfo,
		"warning": logging.LevelWarn,
		" error ": logging.LevelError,
	}
	for in, want := range cases {
		got, err := logging.ParseLevel(in)
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := logging.ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
