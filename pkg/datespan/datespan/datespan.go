// Package datespan turns period phrases such as "last 3 months" or
// "every 1st Monday of this quarter" into concrete time spans.
//
//	set, err := datespan.Parse("since August 2024", datespan.WithNow(now))
//	for _, span := range set.Spans() {
//		fmt.Println(span.Start, span.End)
//	}
package datespan

import (
	"strings"
	"time"

	"github.com/sambeau/datespan/pkg/datespan/ast"
	"github.com/sambeau/datespan/pkg/datespan/evaluator"
	"github.com/sambeau/datespan/pkg/datespan/filter"
	"github.com/sambeau/datespan/pkg/datespan/lexer"
	"github.com/sambeau/datespan/pkg/datespan/parser"
	"github.com/sambeau/datespan/pkg/datespan/period"
)

// Span is a resolved inclusive interval.
type Span = period.Value

// Option configures Parse.
type Option func(*options)

type options struct {
	now    time.Time
	config evaluator.Config
	logger Logger
}

// WithNow sets the reference instant. The default is time.Now().
func WithNow(t time.Time) Option {
	return func(o *options) {
		o.now = t
	}
}

// WithConfig sets the evaluator configuration.
func WithConfig(cfg evaluator.Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithLogger traces node resolution to l.
func WithLogger(l Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// SpanSet is the result of parsing one phrase: one span list per
// semicolon-separated statement.
type SpanSet struct {
	Text       string
	Now        time.Time
	Program    *ast.Program
	Statements [][]Span
}

// Parse tokenizes, parses and evaluates text.
func Parse(text string, opts ...Option) (*SpanSet, error) {
	o := options{config: evaluator.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.now.IsZero() {
		o.now = time.Now()
	}

	program, err := parser.Parse(lexer.Tokenize(text))
	if err != nil {
		return nil, err
	}

	evalOpts := []evaluator.Option{evaluator.WithConfig(o.config)}
	if o.logger != nil {
		evalOpts = append(evalOpts, evaluator.WithLogger(o.logger))
	}
	statements, err := evaluator.New(o.now, evalOpts...).Evaluate(program)
	if err != nil {
		return nil, err
	}

	return &SpanSet{Text: text, Now: o.now, Program: program, Statements: statements}, nil
}

// MustParse is like Parse but panics on error. For tests and static tables.
func MustParse(text string, opts ...Option) *SpanSet {
	set, err := Parse(text, opts...)
	if err != nil {
		panic("datespan: Parse(" + text + "): " + err.Error())
	}
	return set
}

// Spans returns every span in statement order.
func (s *SpanSet) Spans() []Span {
	var all []Span
	for _, stmt := range s.Statements {
		all = append(all, stmt...)
	}
	return all
}

// Len returns the total number of spans.
func (s *SpanSet) Len() int {
	n := 0
	for _, stmt := range s.Statements {
		n += len(stmt)
	}
	return n
}

// Contains reports whether t lies inside any span.
func (s *SpanSet) Contains(t time.Time) bool {
	for _, stmt := range s.Statements {
		for _, span := range stmt {
			if span.Contains(t) {
				return true
			}
		}
	}
	return false
}

// Bounds returns the interval from the earliest start to the latest end,
// and false when the set is empty.
func (s *SpanSet) Bounds() (Span, bool) {
	spans := s.Spans()
	if len(spans) == 0 {
		return Span{}, false
	}
	b := spans[0]
	for _, span := range spans[1:] {
		if span.Start.Before(b.Start) {
			b.Start = span.Start
		}
		if span.End.After(b.End) {
			b.End = span.End
		}
	}
	return b, true
}

// Start returns the earliest start, or the zero time for an empty set.
func (s *SpanSet) Start() time.Time {
	b, _ := s.Bounds()
	return b.Start
}

// End returns the latest end, or the zero time for an empty set.
func (s *SpanSet) End() time.Time {
	b, _ := s.Bounds()
	return b.End
}

// Filter returns a mask with one entry per timestamp.
func (s *SpanSet) Filter(ts []time.Time) []bool {
	return filter.Mask(ts, s.Spans())
}

// String renders spans as "(start, end)", statements separated by "; ".
func (s *SpanSet) String() string {
	stmts := make([]string, len(s.Statements))
	for i, stmt := range s.Statements {
		parts := make([]string, len(stmt))
		for j, span := range stmt {
			parts[j] = span.String()
		}
		stmts[i] = strings.Join(parts, ", ")
	}
	return strings.Join(stmts, "; ")
}
