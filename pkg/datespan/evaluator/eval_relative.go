package evaluator

import (
	"strconv"
	"time"

	"github.com/sambeau/datespan/pkg/datespan/ast"
	"github.com/sambeau/datespan/pkg/datespan/errors"
	"github.com/sambeau/datespan/pkg/datespan/lexer"
	"github.com/sambeau/datespan/pkg/datespan/period"
)

// tripletUnits maps the unit letter of a compact code.
var tripletUnits = map[byte]period.Unit{
	'd': period.Day,
	'w': period.Week,
	'm': period.Month,
	'q': period.Quarter,
	'y': period.Year,
}

// tripletDirections maps the relation letter of a compact code.
var tripletDirections = map[byte]string{
	'r': "rolling",
	'p': "previous",
	'l': "previous",
	'n': "next",
}

// relativeScan collects what a relative run says. Only the last number,
// ordinal and unit seen are kept; directions accumulate.
type relativeScan struct {
	directions map[string]bool
	number     int
	ordinal    int
	hasOrdinal bool
	unit       period.Unit
	hasUnit    bool
	year       int
	hasYear    bool
	special    string
	weekday    time.Weekday
	hasWeekday bool
	month      time.Month
	hasMonth   bool
}

func (e *Evaluator) evalRelative(node *ast.Relative) ([]period.Value, error) {
	scan := relativeScan{directions: map[string]bool{}, number: 1, unit: period.Day}

	for _, tok := range node.Tokens {
		switch tok.Type {
		case lexer.NUMBER:
			if len(tok.Raw) == 4 && tok.Num >= e.config.MinYear && tok.Num <= e.config.MaxYear {
				scan.year, scan.hasYear = tok.Num, true
				continue
			}
			scan.number = tok.Num
		case lexer.ORDINAL:
			scan.ordinal, scan.hasOrdinal = tok.Num, true
		case lexer.TIME_UNIT:
			u, ok := period.ParseUnit(tok.Literal)
			if !ok {
				return nil, unknownUnit(tok)
			}
			scan.unit, scan.hasUnit = u, true
		case lexer.SPECIAL:
			if !lexer.IsTriplet(tok.Literal) {
				scan.special = tok.Literal
				continue
			}
			dir, n, u, err := decodeTriplet(tok.Literal, tok)
			if err != nil {
				return nil, err
			}
			scan.directions[dir] = true
			scan.number = n
			scan.unit, scan.hasUnit = u, true
		case lexer.IDENTIFIER:
			if dir, ok := lexer.Direction(tok.Literal); ok {
				scan.directions[dir] = true
				continue
			}
			if wd, ok := lexer.WeekdayOf(tok.Literal); ok {
				scan.weekday, scan.hasWeekday = wd, true
				continue
			}
			if m, ok := lexer.MonthOf(tok.Literal); ok {
				scan.month, scan.hasMonth = m, true
				continue
			}
			return nil, unknownUnit(tok)
		}
	}

	if scan.hasYear && !scan.hasUnit {
		scan.unit, scan.hasUnit = period.Year, true
	}
	return e.resolveRelative(scan), nil
}

// resolveRelative applies the fixed priority: previous, rolling, next,
// this, ordinal, bare unit. Input order does not matter.
func (e *Evaluator) resolveRelative(s relativeScan) []period.Value {
	anchor := e.now
	if s.hasYear {
		anchor = anchorYear(e.now, s.year)
	}
	dirs := s.directions

	if s.special != "" {
		return e.special(s.special, anchor)
	}

	if s.hasWeekday && !s.hasOrdinal {
		switch {
		case dirs["previous"]:
			return []period.Value{weekdayOccurrence(anchor, s.weekday, -1)}
		case dirs["next"]:
			return []period.Value{weekdayOccurrence(anchor, s.weekday, 1)}
		}
		return []period.Value{weekdayOccurrence(anchor, s.weekday, 0)}
	}

	if s.hasMonth {
		year := anchor.Year()
		switch {
		case dirs["previous"] || dirs["rolling"]:
			if s.month >= anchor.Month() {
				year--
			}
		case dirs["next"]:
			if s.month <= anchor.Month() {
				year++
			}
		}
		return []period.Value{fullMonth(year, s.month, anchor.Location())}
	}

	n := s.number
	if s.hasOrdinal && n == 1 {
		n = s.ordinal
	}
	if n < 1 {
		return nil
	}

	switch {
	case dirs["previous"]:
		return []period.Value{previous(anchor, n, s.unit)}
	case dirs["rolling"]:
		return []period.Value{rolling(anchor, n, s.unit)}
	case dirs["next"]:
		return []period.Value{future(anchor, n, s.unit)}
	case dirs["this"]:
		return []period.Value{thisPeriod(anchor, s.unit)}
	case s.hasOrdinal:
		wd, u := anchor.Weekday(), s.unit
		if s.hasWeekday {
			wd = s.weekday
			if !s.hasUnit {
				u = period.Month
			}
		}
		if v, ok := nthWeekday(anchor, s.ordinal, wd, u); ok {
			return []period.Value{v}
		}
		return nil
	case s.hasUnit:
		return []period.Value{thisPeriod(anchor, s.unit)}
	}
	return nil
}

func (e *Evaluator) evalTriplet(code string, tok lexer.Token) ([]period.Value, error) {
	dir, n, u, err := decodeTriplet(code, tok)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, nil
	}
	switch dir {
	case "rolling":
		return []period.Value{rolling(e.now, n, u)}, nil
	case "previous":
		return []period.Value{previous(e.now, n, u)}, nil
	}
	return []period.Value{future(e.now, n, u)}, nil
}

// decodeTriplet splits a compact code such as "r3m" into direction, count
// and unit.
func decodeTriplet(code string, tok lexer.Token) (string, int, period.Unit, error) {
	malformed := func() error {
		return errors.NewWithPosition(errors.CodeUnresolvable, tok.Line, tok.Column,
			map[string]any{"Stage": "decode", "Role": "code '" + code + "'", "Token": tok.Raw})
	}

	if len(code) < 3 {
		return "", 0, 0, malformed()
	}
	dir, ok := tripletDirections[code[0]]
	if !ok {
		return "", 0, 0, malformed()
	}
	n, err := strconv.Atoi(code[1 : len(code)-1])
	if err != nil || n < 0 {
		return "", 0, 0, malformed()
	}
	u, ok := tripletUnits[code[len(code)-1]]
	if !ok {
		return "", 0, 0, errors.NewWithPosition(errors.CodeUnknownUnit, tok.Line, tok.Column,
			map[string]any{"Unit": code[len(code)-1:], "Token": tok.Raw})
	}
	return dir, n, u, nil
}

// special resolves a single keyword against anchor.
func (e *Evaluator) special(value string, anchor time.Time) []period.Value {
	switch value {
	case "today":
		return []period.Value{fullDay(anchor)}
	case "yesterday":
		return []period.Value{fullDay(anchor.AddDate(0, 0, -1))}
	case "tomorrow":
		return []period.Value{fullDay(anchor.AddDate(0, 0, 1))}
	case "now":
		return []period.Value{period.At(anchor)}
	case "ytd":
		return []period.Value{period.New(period.Floor(anchor, period.Year), anchor)}
	case "qtd":
		return []period.Value{period.New(period.Floor(anchor, period.Quarter), anchor)}
	case "mtd":
		return []period.Value{period.New(period.Floor(anchor, period.Month), anchor)}
	case "wtd":
		return []period.Value{period.New(period.Floor(anchor, period.Week), anchor)}
	case "q1", "q2", "q3", "q4":
		q := int(value[1] - '0')
		first := time.Date(anchor.Year(), time.Month((q-1)*3+1), 1, 0, 0, 0, 0, anchor.Location())
		return []period.Value{period.At(first).TruncateTo(period.Quarter)}
	case "py", "ly":
		return []period.Value{thisPeriod(anchor, period.Year).Shift(period.Year, -1)}
	case "cy":
		return []period.Value{thisPeriod(anchor, period.Year)}
	case "ny":
		return []period.Value{thisPeriod(anchor, period.Year).Shift(period.Year, 1)}
	}

	if u, ok := period.ParseUnit(value); ok {
		return []period.Value{thisPeriod(anchor, u)}
	}
	if lexer.IsTriplet(value) {
		spans, _ := e.evalTriplet(value, lexer.Token{Literal: value, Raw: value})
		return spans
	}
	return nil
}

func unknownUnit(tok lexer.Token) *errors.DateSpanError {
	err := errors.NewWithPosition(errors.CodeUnknownUnit, tok.Line, tok.Column,
		map[string]any{"Unit": tok.Raw, "Token": tok.Raw})
	if hint := errors.DidYouMean(tok.Literal, lexer.Vocabulary()); hint != "" {
		err.Hints = append([]string{hint}, err.Hints...)
	}
	return err
}
