package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInterpolateEnv(t *testing.T) {
	getenv := func(key string) string {
		switch key {
		case "TEST_LOCALE":
			return "de-DE"
		case "TEST_DB":
			return "events.db"
		default:
			return ""
		}
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple substitution",
			input:    "locale: ${TEST_LOCALE}",
			expected: "locale: de-DE",
		},
		{
			name:     "with default (env set)",
			input:    "locale: ${TEST_LOCALE:-en-US}",
			expected: "locale: de-DE",
		},
		{
			name:     "with default (env not set)",
			input:    "locale: ${UNSET_VAR:-en-US}",
			expected: "locale: en-US",
		},
		{
			name:     "multiple substitutions",
			input:    "dsn: ${TEST_DB}?tz=${UNSET_VAR:-UTC}",
			expected: "dsn: events.db?tz=UTC",
		},
		{
			name:     "unset without default",
			input:    "dsn: ${UNSET_VAR}",
			expected: "dsn: ",
		},
		{
			name:     "no substitution needed",
			input:    "format: long",
			expected: "format: long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := string(interpolateEnv([]byte(tt.input), getenv))
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "datespan.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
parse:
  day_first: true
  max_iteration_days: 1000

output:
  format: long
  locale: ${LOCALE:-en-GB}

logging:
  level: debug

repl:
  history_file: .history

query:
  driver: sqlite
  dsn: data/events.db
  table: events
  column: created_at
`)

	cfg, resolved, err := LoadWithPath(path, func(string) string { return "" })
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if resolved != path {
		t.Errorf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.BaseDir != dir {
		t.Errorf("expected base dir %q, got %q", dir, cfg.BaseDir)
	}
	if !cfg.Parse.DayFirst || cfg.Parse.MaxIterationDays != 1000 {
		t.Errorf("parse section not loaded: %+v", cfg.Parse)
	}
	if cfg.Parse.MinYear != 1900 {
		t.Errorf("expected unset min_year to keep its default, got %d", cfg.Parse.MinYear)
	}
	if cfg.Output.Format != "long" || cfg.Output.Locale != "en-GB" {
		t.Errorf("output section not loaded: %+v", cfg.Output)
	}
	if !cfg.Debug() {
		t.Error("expected debug logging")
	}
	if cfg.REPL.HistoryFile != filepath.Join(dir, ".history") {
		t.Errorf("expected history file resolved against config dir, got %q", cfg.REPL.HistoryFile)
	}
	if cfg.Query.DSN != filepath.Join(dir, "data", "events.db") {
		t.Errorf("expected sqlite dsn resolved against config dir, got %q", cfg.Query.DSN)
	}
	if cfg.Query.Table != "events" || cfg.Query.Column != "created_at" {
		t.Errorf("query section not loaded: %+v", cfg.Query)
	}
}

func TestLoad_PostgresDSNUntouched(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
query:
  driver: postgres
  dsn: postgres://localhost/events
`)
	cfg, err := Load(path, func(string) string { return "" })
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Query.DSN != "postgres://localhost/events" {
		t.Errorf("expected dsn unchanged, got %q", cfg.Query.DSN)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "parse: [unclosed")
	_, err := Load(path, func(string) string { return "" })
	if err == nil || !strings.Contains(err.Error(), "failed to parse config") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "output:\n  format: xml\n")
	_, err := Load(path, func(string) string { return "" })
	if err == nil || !strings.Contains(err.Error(), "configuration errors") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestLoad_MissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), func(string) string { return "" })
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestLoad_EnvPath(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "output:\n  format: json\n")
	getenv := func(key string) string {
		if key == "DATESPAN_CONFIG" {
			return path
		}
		return ""
	}
	cfg, err := Load("", getenv)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("expected format from DATESPAN_CONFIG, got %q", cfg.Output.Format)
	}

	missing := func(key string) string {
		if key == "DATESPAN_CONFIG" {
			return "/does/not/exist.yaml"
		}
		return ""
	}
	if _, err := Load("", missing); err == nil || !strings.Contains(err.Error(), "DATESPAN_CONFIG") {
		t.Errorf("expected DATESPAN_CONFIG error, got %v", err)
	}
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, path, err := LoadWithPath("", func(string) string { return "" })
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if path != "" {
		t.Errorf("expected no path, got %q", path)
	}
	if cfg.Output.Format != "iso" {
		t.Errorf("expected defaults, got %+v", cfg.Output)
	}
}

func TestLoad_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "logging:\n  level: warn\n")
	t.Chdir(dir)

	cfg, path, err := LoadWithPath("", func(string) string { return "" })
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected level from ./datespan.yaml, got %q", cfg.Logging.Level)
	}
	if filepath.Base(path) != "datespan.yaml" {
		t.Errorf("expected ./datespan.yaml, got %q", path)
	}
}
