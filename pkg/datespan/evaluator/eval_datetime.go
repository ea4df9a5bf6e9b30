package evaluator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/sambeau/datespan/pkg/datespan/ast"
	"github.com/sambeau/datespan/pkg/datespan/errors"
	"github.com/sambeau/datespan/pkg/datespan/lexer"
	"github.com/sambeau/datespan/pkg/datespan/period"
)

// DateLiteral is a parsed date or time literal together with the precision
// it was written in.
type DateLiteral struct {
	Time      time.Time
	Precision period.Unit
	Instant   bool // fractional seconds: the literal names a single instant
	TimeOnly  bool // no date part; the date came from the base
	Fuzzy     bool // matched by the natural-language fallback
}

// Span expands the literal to the full unit it names.
func (d DateLiteral) Span() period.Value {
	if d.Instant {
		return period.At(d.Time)
	}
	return period.At(d.Time).TruncateTo(d.Precision)
}

// DateParser resolves date and time literals: bare times through fixed
// layouts, dates through dateparse, and anything left through a
// natural-language matcher.
type DateParser struct {
	dayFirst bool
	fuzzy    *when.Parser
}

// NewDateParser creates a parser. dayFirst resolves 03/04/2024 as 3 April.
func NewDateParser(dayFirst bool) *DateParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &DateParser{dayFirst: dayFirst, fuzzy: w}
}

var (
	ordinalSuffixRe = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)
	timeOnlyRe      = regexp.MustCompile(`(?i)^\d{1,2}(:\d{2}(:\d{2}([.,]\d+)?)?)?\s*(am|pm)?$`)
	fractionRe      = regexp.MustCompile(`\d:\d{2}:\d{2}[.,]\d+`)
	secondsRe       = regexp.MustCompile(`\d:\d{2}:\d{2}`)
	minutesRe       = regexp.MustCompile(`\d:\d{2}`)
	meridiemRe      = regexp.MustCompile(`(?i)\d\s*(am|pm)\b`)
	yearRe          = regexp.MustCompile(`\b\d{4}\b`)
	numericDateRe   = regexp.MustCompile(`(?i)^[\d\s/.\-:t]+$`)
)

// timeLayouts are tried in order for literals without a date part.
var timeLayouts = []string{
	"15:04:05.999999999",
	"15:04:05",
	"15:04",
	"3:04:05pm",
	"3:04:05 pm",
	"3:04pm",
	"3:04 pm",
	"3pm",
	"3 pm",
}

// Parse resolves literal. base supplies the date for bare times and the
// year when the literal has none; its Location is used for the result.
func (p *DateParser) Parse(literal string, base time.Time) (DateLiteral, error) {
	s := normalizeLiteral(literal)
	if s == "" {
		return DateLiteral{}, fmt.Errorf("empty date literal")
	}

	precision, instant := detectPrecision(s)

	if timeOnlyRe.MatchString(s) && (strings.Contains(s, ":") || meridiemRe.MatchString(s)) {
		t, err := parseTimeOnly(s)
		if err != nil {
			return DateLiteral{}, err
		}
		combined := time.Date(base.Year(), base.Month(), base.Day(),
			t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), base.Location())
		return DateLiteral{Time: combined, Precision: precision, Instant: instant, TimeOnly: true}, nil
	}

	if t, err := p.parseDate(s, base); err == nil {
		return DateLiteral{Time: t, Precision: precision, Instant: instant}, nil
	}

	// Numeric literals that dateparse rejected are out of range (2024-02-30);
	// when would match a fragment of them as a time of day.
	if !numericDateRe.MatchString(s) {
		if r, err := p.fuzzy.Parse(s, base); err == nil && r != nil && r.Index == 0 && len(r.Text) == len(s) {
			return DateLiteral{Time: r.Time, Precision: precision, Instant: instant, Fuzzy: true}, nil
		}
	}

	return DateLiteral{}, fmt.Errorf("cannot parse date: %s", literal)
}

// parseDate runs dateparse, retrying with the other day/month order and
// with the base year appended when the literal has no year of its own.
func (p *DateParser) parseDate(s string, base time.Time) (time.Time, error) {
	t, err := p.parseIn(s, base.Location())
	if err == nil && t.Year() == 0 {
		t = anchorYear(t, base.Year())
	}
	if err == nil || yearRe.MatchString(s) {
		return t, err
	}

	year := strconv.Itoa(base.Year())
	for _, candidate := range []string{s + ", " + year, s + " " + year} {
		if t, err2 := p.parseIn(candidate, base.Location()); err2 == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func (p *DateParser) parseIn(s string, loc *time.Location) (time.Time, error) {
	t, err := dateparse.ParseIn(s, loc, dateparse.PreferMonthFirst(!p.dayFirst))
	if err != nil && !p.dayFirst {
		// 15.08.2024 only makes sense day first.
		t, err = dateparse.ParseIn(s, loc, dateparse.PreferMonthFirst(false))
	}
	return t, err
}

// parseTimeOnly parses a bare time of day such as "14:00" or "3pm".
func parseTimeOnly(s string) (time.Time, error) {
	s = strings.ToLower(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}

// normalizeLiteral trims the literal and drops ordinal suffixes ("15th").
func normalizeLiteral(s string) string {
	s = strings.TrimSpace(s)
	return ordinalSuffixRe.ReplaceAllString(s, "$1")
}

// detectPrecision reports the finest unit written in the literal.
func detectPrecision(s string) (period.Unit, bool) {
	switch {
	case fractionRe.MatchString(s):
		return period.Millisecond, true
	case secondsRe.MatchString(s):
		return period.Second, false
	case minutesRe.MatchString(s):
		return period.Minute, false
	case meridiemRe.MatchString(s):
		return period.Hour, false
	}
	return period.Day, false
}

func (e *Evaluator) evalSpecificDate(node *ast.SpecificDate) ([]period.Value, error) {
	lit, err := e.parseLiteral(node, e.now)
	if err != nil {
		return nil, err
	}
	return []period.Value{lit.Span()}, nil
}

// parseLiteral resolves a specific-date node against base and reports
// failures at the node's position.
func (e *Evaluator) parseLiteral(node *ast.SpecificDate, base time.Time) (DateLiteral, error) {
	lit, err := e.dates.Parse(node.Literal, base)
	if err != nil {
		dsErr := errors.NewWithPosition(errors.CodeInvalidDate, node.Token.Line, node.Token.Column,
			map[string]any{"Literal": node.Literal, "Token": node.Token.Raw})
		dsErr.Cause = err
		if suggestion := errors.FindClosestMatch(strings.ToLower(node.Literal), lexer.Vocabulary()); suggestion != "" {
			dsErr.Hints = append(dsErr.Hints, "Did you mean `"+suggestion+"`?")
		}
		return DateLiteral{}, dsErr
	}
	if lit.Fuzzy && e.logger != nil {
		e.logger.LogLine(fmt.Sprintf("fuzzy match for %q: %s", node.Literal, lit.Time.Format(period.Layout)))
	}
	return lit, nil
}
