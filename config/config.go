package config

import (
	"github.com/sambeau/datespan/pkg/datespan/evaluator"
)

// Config represents the complete datespan configuration
type Config struct {
	BaseDir string        `yaml:"-"` // Directory containing config file, for resolving relative paths
	Parse   ParseConfig   `yaml:"parse"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	REPL    REPLConfig    `yaml:"repl"`
	Query   QueryConfig   `yaml:"query"`
}

// ParseConfig holds evaluator settings
type ParseConfig struct {
	DayFirst         bool `yaml:"day_first"`          // Read 03/04/2024 as 3 April
	MinYear          int  `yaml:"min_year"`           // Smallest 4-digit number treated as a year
	MaxYear          int  `yaml:"max_year"`           // Largest 4-digit number treated as a year
	MaxIterationDays int  `yaml:"max_iteration_days"` // Longest period an "every ..." phrase may walk
}

// OutputConfig holds rendering settings
type OutputConfig struct {
	Format string `yaml:"format"` // iso, long or json
	Locale string `yaml:"locale"` // BCP 47 tag for long output
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Output string `yaml:"output"` // stderr, stdout, or file path
}

// REPLConfig holds interactive shell settings
type REPLConfig struct {
	HistoryFile string `yaml:"history_file"` // Empty: a file in the temp directory
}

// QueryConfig holds defaults for `datespan query`
type QueryConfig struct {
	Driver string `yaml:"driver"` // sqlite, postgres or mysql
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
	Column string `yaml:"column"`
}

// Defaults returns a Config with sensible defaults
func Defaults() *Config {
	ev := evaluator.DefaultConfig()
	return &Config{
		Parse: ParseConfig{
			DayFirst:         ev.DayFirst,
			MinYear:          ev.MinYear,
			MaxYear:          ev.MaxYear,
			MaxIterationDays: ev.MaxIterationDays,
		},
		Output: OutputConfig{
			Format: "iso",
			Locale: "en-US",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
		},
		Query: QueryConfig{
			Driver: "sqlite",
		},
	}
}

// EvaluatorConfig returns the parse section as evaluator settings.
func (c *Config) EvaluatorConfig() evaluator.Config {
	return evaluator.Config{
		DayFirst:         c.Parse.DayFirst,
		MinYear:          c.Parse.MinYear,
		MaxYear:          c.Parse.MaxYear,
		MaxIterationDays: c.Parse.MaxIterationDays,
	}
}

// Debug reports whether evaluation tracing is enabled.
func (c *Config) Debug() bool {
	return c.Logging.Level == "debug"
}
