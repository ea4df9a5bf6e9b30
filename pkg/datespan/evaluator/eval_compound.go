package evaluator

import (
	"time"

	"github.com/sambeau/datespan/pkg/datespan/ast"
	"github.com/sambeau/datespan/pkg/datespan/errors"
	"github.com/sambeau/datespan/pkg/datespan/lexer"
	"github.com/sambeau/datespan/pkg/datespan/parser"
	"github.com/sambeau/datespan/pkg/datespan/period"
)

// listYear returns the year a month or weekday list refers to: a trailing
// number, or a direction followed by "year", or now's year.
func (e *Evaluator) listYear(tokens []lexer.Token) int {
	year := e.now.Year()
	for i, tok := range tokens {
		switch tok.Type {
		case lexer.NUMBER:
			year = tok.Num
		case lexer.IDENTIFIER:
			dir, ok := lexer.Direction(tok.Literal)
			if !ok || i+1 >= len(tokens) || !tokens[i+1].Is(lexer.TIME_UNIT, "year") {
				continue
			}
			switch dir {
			case "previous", "rolling":
				year = e.now.Year() - 1
			case "next":
				year = e.now.Year() + 1
			}
		}
	}
	return year
}

// evalMonths resolves each month name to its full month in the target year.
func (e *Evaluator) evalMonths(node *ast.Months) []period.Value {
	year := e.listYear(node.Tokens)
	var spans []period.Value
	for _, tok := range node.Tokens {
		if m, ok := lexer.MonthOf(tok.Literal); ok && tok.Type == lexer.IDENTIFIER {
			spans = append(spans, fullMonth(year, m, e.now.Location()))
		}
	}
	return spans
}

// evalDays resolves each weekday name to its current or next occurrence.
func (e *Evaluator) evalDays(node *ast.Days) []period.Value {
	anchor := anchorYear(e.now, e.listYear(node.Tokens))
	var spans []period.Value
	for _, tok := range node.Tokens {
		if wd, ok := lexer.WeekdayOf(tok.Literal); ok && tok.Type == lexer.IDENTIFIER {
			spans = append(spans, nextOrCurrent(anchor, wd))
		}
	}
	return spans
}

// evalRange takes the start of the first start-side span and the end of the
// first end-side span. A date literal on the end side contributes its start
// instant; a bare time there takes its date from the start side.
func (e *Evaluator) evalRange(node *ast.Range) ([]period.Value, error) {
	start, err := e.firstSpan(node.Start, "start date in range")
	if err != nil {
		return nil, err
	}

	const role = "end date in range"
	stmt, err := parser.ParseStatement(node.End)
	if err != nil {
		return nil, errors.Wrap(errors.CodeUnresolvable, err, map[string]any{"Stage": "parse", "Role": role})
	}

	if date, ok := stmt.Nodes[0].(*ast.SpecificDate); ok {
		lit, err := e.parseLiteral(date, period.Floor(start.Start, period.Day))
		if err != nil {
			return nil, errors.Wrap(errors.CodeUnresolvable, err, map[string]any{"Stage": "evaluate", "Role": role})
		}
		return []period.Value{period.New(start.Start, lit.Span().Start)}, nil
	}

	end, err := e.firstSpan(node.End, role)
	if err != nil {
		return nil, err
	}
	return []period.Value{period.New(start.Start, end.End)}, nil
}

// evalSince runs from the start of the embedded expression to now. A start
// after now is swapped, as for a reversed range.
func (e *Evaluator) evalSince(node *ast.Since) ([]period.Value, error) {
	start, err := e.firstSpan(node.Tokens, "start date in since expression")
	if err != nil {
		return nil, err
	}
	return []period.Value{period.New(start.Start, e.now)}, nil
}

// evalIterative yields one full day for every selected weekday inside the
// bounding period. With ordinals, a day is kept once for each ordinal it
// satisfies within its own month.
func (e *Evaluator) evalIterative(node *ast.Iterative) ([]period.Value, error) {
	bounds, err := e.firstSpan(node.Period, "period in iterative expression")
	if err != nil {
		return nil, err
	}

	var ordinals []int
	weekdays := map[time.Weekday]bool{}
	for _, tok := range node.Selector {
		switch {
		case tok.Type == lexer.ORDINAL:
			ordinals = append(ordinals, tok.Num)
		case tok.Is(lexer.IDENTIFIER, "last"):
			ordinals = append(ordinals, -1)
		case tok.Is(lexer.TIME_UNIT, "second"):
			ordinals = append(ordinals, 2)
		case tok.Type == lexer.IDENTIFIER:
			if wd, ok := lexer.WeekdayOf(tok.Literal); ok {
				weekdays[wd] = true
			}
		}
	}

	if len(weekdays) == 0 {
		return nil, errors.NewWithPosition(errors.CodeNoWeekdays, node.Token.Line, node.Token.Column,
			map[string]any{"Selector": lexer.Join(node.Selector), "Token": node.Token.Raw})
	}

	first := period.Floor(bounds.Start, period.Day)
	if days := int(bounds.End.Sub(first).Hours()/24) + 1; days > e.config.MaxIterationDays {
		return nil, errors.NewWithPosition(errors.CodeUnresolvable, node.Token.Line, node.Token.Column,
			map[string]any{"Stage": "iterate", "Role": "period in iterative expression", "Token": node.Token.Raw})
	}

	var spans []period.Value
	for day := first; !day.After(bounds.End); day = day.AddDate(0, 0, 1) {
		if !weekdays[day.Weekday()] {
			continue
		}
		if len(ordinals) == 0 {
			spans = append(spans, fullDay(day))
			continue
		}
		for _, n := range ordinals {
			if isNthWeekdayOfMonth(day, n) {
				spans = append(spans, fullDay(day))
			}
		}
	}
	return spans, nil
}
