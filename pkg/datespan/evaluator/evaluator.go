// Package evaluator resolves parsed statements into concrete time spans.
//
// An Evaluator captures a single reference instant at construction and
// resolves every node against it, so all expressions within one evaluation
// agree on what "today" means. Range, since and iterative nodes hold raw
// token runs; the evaluator parses those runs again with
// parser.ParseStatement and evaluates the result recursively.
package evaluator

import (
	"fmt"
	"time"

	"github.com/sambeau/datespan/pkg/datespan/ast"
	"github.com/sambeau/datespan/pkg/datespan/errors"
	"github.com/sambeau/datespan/pkg/datespan/lexer"
	"github.com/sambeau/datespan/pkg/datespan/parser"
	"github.com/sambeau/datespan/pkg/datespan/period"
)

// Logger receives trace output. It matches the logger used by the wrapper
// package and the CLI.
type Logger interface {
	Log(values ...any)
	LogLine(values ...any)
}

// Config holds the tunables of an evaluation.
type Config struct {
	// DayFirst resolves ambiguous numeric dates such as 03/04/2024 as
	// 3 April rather than 4 March.
	DayFirst bool

	// Bare numbers within [MinYear, MaxYear] are read as years, not counts.
	MinYear int
	MaxYear int

	// MaxIterationDays caps the number of days an iterative expression may scan.
	MaxIterationDays int
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		MinYear:          1900,
		MaxYear:          2200,
		MaxIterationDays: 36600,
	}
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithConfig replaces the default configuration. Zero-valued limits fall
// back to their defaults.
func WithConfig(cfg Config) Option {
	return func(e *Evaluator) {
		def := DefaultConfig()
		if cfg.MinYear == 0 {
			cfg.MinYear = def.MinYear
		}
		if cfg.MaxYear == 0 {
			cfg.MaxYear = def.MaxYear
		}
		if cfg.MaxIterationDays <= 0 {
			cfg.MaxIterationDays = def.MaxIterationDays
		}
		e.config = cfg
	}
}

// WithLogger sets a logger for tracing node resolution.
func WithLogger(l Logger) Option {
	return func(e *Evaluator) {
		e.logger = l
	}
}

// Evaluator resolves AST nodes against a fixed reference instant.
type Evaluator struct {
	now    time.Time
	config Config
	logger Logger
	dates  *DateParser
}

// New creates an evaluator anchored at now.
func New(now time.Time, opts ...Option) *Evaluator {
	e := &Evaluator{now: now, config: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	e.dates = NewDateParser(e.config.DayFirst)
	return e
}

// Evaluate resolves program against now with the default configuration.
func Evaluate(program *ast.Program, now time.Time) ([][]period.Value, error) {
	return New(now).Evaluate(program)
}

// Now returns the reference instant.
func (e *Evaluator) Now() time.Time {
	return e.now
}

// Config returns the active configuration.
func (e *Evaluator) Config() Config {
	return e.config
}

// Evaluate resolves every statement. The result has one entry per statement.
func (e *Evaluator) Evaluate(program *ast.Program) ([][]period.Value, error) {
	if program == nil {
		return nil, nil
	}
	result := make([][]period.Value, 0, len(program.Statements))
	for _, stmt := range program.Statements {
		spans, err := e.EvaluateStatement(stmt)
		if err != nil {
			return nil, err
		}
		result = append(result, spans)
	}
	return result, nil
}

// EvaluateStatement resolves sibling nodes independently and concatenates
// their spans in order. Spans are neither merged nor deduplicated.
func (e *Evaluator) EvaluateStatement(stmt *ast.Statement) ([]period.Value, error) {
	var spans []period.Value
	for _, node := range stmt.Nodes {
		resolved, err := e.EvaluateNode(node)
		if err != nil {
			return nil, err
		}
		spans = append(spans, resolved...)
	}
	return spans, nil
}

// EvaluateNode dispatches on the node type.
func (e *Evaluator) EvaluateNode(node ast.Node) ([]period.Value, error) {
	var (
		spans []period.Value
		err   error
	)

	switch node := node.(type) {
	case *ast.SpecificDate:
		spans, err = e.evalSpecificDate(node)
	case *ast.Special:
		spans = e.special(node.Value, e.now)
	case *ast.Triplet:
		spans, err = e.evalTriplet(node.Code, node.Token)
	case *ast.Relative:
		spans, err = e.evalRelative(node)
	case *ast.Months:
		spans = e.evalMonths(node)
	case *ast.Days:
		spans = e.evalDays(node)
	case *ast.Range:
		spans, err = e.evalRange(node)
	case *ast.Since:
		spans, err = e.evalSince(node)
	case *ast.Iterative:
		spans, err = e.evalIterative(node)
	default:
		// Recognized but unhandled nodes resolve to nothing.
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	e.trace(node, spans)
	return spans, nil
}

func (e *Evaluator) trace(node ast.Node, spans []period.Value) {
	if e.logger == nil {
		return
	}
	e.logger.LogLine(fmt.Sprintf("%s -> %d span(s)", node, len(spans)))
	for _, s := range spans {
		e.logger.LogLine("  " + s.String())
	}
}

// firstSpan parses an isolated token run, evaluates its first node and
// returns the first resolved span. Failures are wrapped with role, which
// names the part of the enclosing expression being resolved.
func (e *Evaluator) firstSpan(tokens []lexer.Token, role string) (period.Value, error) {
	stmt, err := parser.ParseStatement(tokens)
	if err != nil {
		return period.Value{}, errors.Wrap(errors.CodeUnresolvable, err,
			map[string]any{"Stage": "parse", "Role": role})
	}

	node := stmt.Nodes[0]
	spans, err := e.EvaluateNode(node)
	if err != nil {
		return period.Value{}, errors.Wrap(errors.CodeUnresolvable, err,
			map[string]any{"Stage": "evaluate", "Role": role})
	}
	if len(spans) == 0 {
		pos := node.Pos()
		return period.Value{}, errors.NewWithPosition(errors.CodeUnresolvable, pos.Line, pos.Column,
			map[string]any{"Stage": "resolve", "Role": role, "Token": pos.Raw})
	}
	return spans[0], nil
}

// anchorYear returns now moved to year, clamping the day to the month length.
func anchorYear(now time.Time, year int) time.Time {
	if year == now.Year() {
		return now
	}
	day := now.Day()
	if last := period.DaysIn(year, now.Month()); day > last {
		day = last
	}
	return time.Date(year, now.Month(), day, now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), now.Location())
}
