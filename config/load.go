package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sambeau/datespan/pkg/datespan/filter"
	"github.com/sambeau/datespan/pkg/datespan/format"
)

// Load reads configuration from a file with ENV interpolation.
// If configPath is empty, it searches default locations and falls back to
// Defaults() when none exists.
func Load(configPath string, getenv func(string) string) (*Config, error) {
	cfg, _, err := LoadWithPath(configPath, getenv)
	return cfg, err
}

// LoadWithPath reads configuration and returns both the config and the resolved path.
// The path is empty when defaults were used.
func LoadWithPath(configPath string, getenv func(string) string) (*Config, string, error) {
	path, err := resolveConfigPath(configPath, getenv)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return Defaults(), "", nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	baseDir := filepath.Dir(absPath)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	data = interpolateEnv(data, getenv)

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.BaseDir = baseDir

	if cfg.REPL.HistoryFile != "" && !filepath.IsAbs(cfg.REPL.HistoryFile) {
		cfg.REPL.HistoryFile = filepath.Join(baseDir, cfg.REPL.HistoryFile)
	}

	// Relative sqlite database paths are relative to the config file
	if dialect, err := filter.ParseDialect(cfg.Query.Driver); err == nil && dialect == filter.SQLite {
		dsn := cfg.Query.DSN
		if dsn != "" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") && !filepath.IsAbs(dsn) {
			cfg.Query.DSN = filepath.Join(baseDir, dsn)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, "", err
	}

	return cfg, absPath, nil
}

// Validate checks the configuration for errors. Call it again after
// applying CLI overrides.
func Validate(cfg *Config) error {
	var errs []string

	p := cfg.Parse
	if p.MinYear < 1 || p.MaxYear > 9999 {
		errs = append(errs, fmt.Sprintf("parse: year bounds %d-%d must lie within 1-9999", p.MinYear, p.MaxYear))
	}
	if p.MinYear > p.MaxYear {
		errs = append(errs, fmt.Sprintf("parse: min_year %d is after max_year %d", p.MinYear, p.MaxYear))
	}
	if p.MaxIterationDays < 1 {
		errs = append(errs, fmt.Sprintf("parse: max_iteration_days must be positive, got %d", p.MaxIterationDays))
	}

	if _, err := format.ParseStyle(cfg.Output.Format); err != nil {
		errs = append(errs, "output: "+err.Error())
	}
	if _, err := format.Locale(cfg.Output.Locale); err != nil {
		errs = append(errs, "output: "+err.Error())
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Logging.Level))
	}

	if cfg.Query.Driver != "" {
		if _, err := filter.ParseDialect(cfg.Query.Driver); err != nil {
			errs = append(errs, "query: "+err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Warnings returns non-fatal configuration issues that should be reported to the user.
func Warnings(cfg *Config) []string {
	var warnings []string

	if cfg.Parse.MaxIterationDays > 366*100 {
		warnings = append(warnings, fmt.Sprintf("parse: max_iteration_days %d allows iterating over more than a century", cfg.Parse.MaxIterationDays))
	}

	if cfg.Query.DSN != "" && cfg.Query.Table == "" {
		warnings = append(warnings, "query: dsn configured but no table - `datespan query` will need --table")
	}

	if cfg.Debug() && cfg.Logging.Output == "stdout" {
		warnings = append(warnings, "logging: debug output to stdout is interleaved with results")
	}

	if cfg.Output.Format != "long" && cfg.Output.Locale != "" && !strings.EqualFold(cfg.Output.Locale, "en-US") {
		warnings = append(warnings, fmt.Sprintf("output: locale %s only affects the long format", cfg.Output.Locale))
	}

	return warnings
}

// resolveConfigPath finds the config file to use. It returns "" when no
// path was requested and none of the default locations exist.
// Search order: explicit path > DATESPAN_CONFIG env > ./datespan.yaml > ~/.config/datespan/datespan.yaml
func resolveConfigPath(explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	if envPath := getenv("DATESPAN_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("DATESPAN_CONFIG file not found: %s", envPath)
		}
		return envPath, nil
	}

	if _, err := os.Stat("datespan.yaml"); err == nil {
		return "datespan.yaml", nil
	}

	home, err := os.UserHomeDir()
	if err == nil {
		xdgPath := filepath.Join(home, ".config", "datespan", "datespan.yaml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
	}

	return "", nil
}

// envPattern matches ${VAR} or ${VAR:-default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// interpolateEnv replaces ${VAR} and ${VAR:-default} patterns with environment values.
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := string(parts[1])
		value := getenv(varName)

		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}

		return []byte(value)
	})
}
