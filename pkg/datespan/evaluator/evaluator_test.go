package evaluator

import (
	"strings"
	"testing"
	"time"

	"github.com/sambeau/datespan/pkg/datespan/errors"
	"github.com/sambeau/datespan/pkg/datespan/lexer"
	"github.com/sambeau/datespan/pkg/datespan/parser"
	"github.com/sambeau/datespan/pkg/datespan/period"
)

// Saturday 15 June 2024.
var june15 = time.Date(2024, 6, 15, 13, 45, 30, 123456000, time.UTC)

// Friday 20 September 2024.
var sept20 = time.Date(2024, 9, 20, 10, 0, 0, 0, time.UTC)

func at(y int, m time.Month, d, h, mi, s int) time.Time {
	return time.Date(y, m, d, h, mi, s, 0, time.UTC)
}

func day(y int, m time.Month, d int) time.Time {
	return at(y, m, d, 0, 0, 0)
}

func endOf(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 23, 59, 59, 999999000, time.UTC)
}

func span(start, end time.Time) period.Value {
	return period.Value{Start: start, End: end}
}

func evaluate(t *testing.T, input string, now time.Time, opts ...Option) ([][]period.Value, error) {
	t.Helper()
	program, err := parser.Parse(lexer.Tokenize(input))
	if err != nil {
		return nil, err
	}
	return New(now, opts...).Evaluate(program)
}

func mustEvaluate(t *testing.T, input string, now time.Time, opts ...Option) []period.Value {
	t.Helper()
	result, err := evaluate(t, input, now, opts...)
	if err != nil {
		t.Fatalf("evaluate(%q) error: %v", input, err)
	}
	if len(result) != 1 {
		t.Fatalf("evaluate(%q) returned %d statements, want 1", input, len(result))
	}
	return result[0]
}

func checkSpans(t *testing.T, input string, got, want []period.Value) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%q: got %d spans %v, want %d %v", input, len(got), got, len(want), want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("%q span %d = %s, want %s", input, i, got[i], want[i])
		}
	}
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		input string
		now   time.Time
		want  []period.Value
	}{
		{"this month", june15, []period.Value{span(day(2024, 6, 1), endOf(2024, 6, 30))}},
		{"Jan, Feb and August of 2024", june15, []period.Value{
			span(day(2024, 1, 1), endOf(2024, 1, 31)),
			span(day(2024, 2, 1), endOf(2024, 2, 29)),
			span(day(2024, 8, 1), endOf(2024, 8, 31)),
		}},
		{"from 2024-09-01 to 2024-09-15", june15, []period.Value{span(day(2024, 9, 1), day(2024, 9, 15))}},
		{"since August 2024", sept20, []period.Value{span(day(2024, 8, 1), sept20)}},
		{"every Friday of next month", june15, []period.Value{
			span(day(2024, 7, 5), endOf(2024, 7, 5)),
			span(day(2024, 7, 12), endOf(2024, 7, 12)),
			span(day(2024, 7, 19), endOf(2024, 7, 19)),
			span(day(2024, 7, 26), endOf(2024, 7, 26)),
		}},
		{"r3m", sept20, []period.Value{span(day(2024, 6, 20), sept20)}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			checkSpans(t, tt.input, mustEvaluate(t, tt.input, tt.now), tt.want)
		})
	}
}

func TestSpecials(t *testing.T) {
	tests := []struct {
		input string
		want  period.Value
	}{
		{"today", span(day(2024, 6, 15), endOf(2024, 6, 15))},
		{"yesterday", span(day(2024, 6, 14), endOf(2024, 6, 14))},
		{"tomorrow", span(day(2024, 6, 16), endOf(2024, 6, 16))},
		{"now", period.At(june15)},
		{"right now", period.At(june15)},
		{"ytd", span(day(2024, 1, 1), june15)},
		{"year to date", span(day(2024, 1, 1), june15)},
		{"qtd", span(day(2024, 4, 1), june15)},
		{"mtd", span(day(2024, 6, 1), june15)},
		{"wtd", span(day(2024, 6, 10), june15)},
		{"q1", span(day(2024, 1, 1), endOf(2024, 3, 31))},
		{"Q3", span(day(2024, 7, 1), endOf(2024, 9, 30))},
		{"py", span(day(2023, 1, 1), endOf(2023, 12, 31))},
		{"ly", span(day(2023, 1, 1), endOf(2023, 12, 31))},
		{"cy", span(day(2024, 1, 1), endOf(2024, 12, 31))},
		{"ny", span(day(2025, 1, 1), endOf(2025, 12, 31))},
		{"month", span(day(2024, 6, 1), endOf(2024, 6, 30))},
		{"quarter", span(day(2024, 4, 1), endOf(2024, 6, 30))},
		{"week", span(day(2024, 6, 10), endOf(2024, 6, 16))},
		{"hour", span(at(2024, 6, 15, 13, 0, 0), time.Date(2024, 6, 15, 13, 59, 59, 999999000, time.UTC))},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			checkSpans(t, tt.input, mustEvaluate(t, tt.input, june15), []period.Value{tt.want})
		})
	}
}

func TestTriplets(t *testing.T) {
	tests := []struct {
		input string
		want  []period.Value
	}{
		{"r7d", []period.Value{span(day(2024, 6, 8), june15)}},
		{"r2w", []period.Value{span(day(2024, 5, 27), endOf(2024, 6, 9))}},
		{"p1m", []period.Value{span(day(2024, 5, 1), endOf(2024, 5, 31))}},
		{"l2m", []period.Value{span(day(2024, 4, 1), endOf(2024, 5, 31))}},
		{"p1q", []period.Value{span(day(2024, 1, 1), endOf(2024, 3, 31))}},
		{"n1y", []period.Value{span(day(2025, 1, 1), endOf(2025, 12, 31))}},
		{"n2w", []period.Value{span(day(2024, 6, 17), endOf(2024, 6, 30))}},
		{"r0m", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			checkSpans(t, tt.input, mustEvaluate(t, tt.input, june15), tt.want)
		})
	}
}

func TestDecodeTriplet(t *testing.T) {
	tests := []struct {
		code string
		kind errors.Kind
	}{
		{"r3", errors.KindUnresolvable},
		{"x3m", errors.KindUnresolvable},
		{"rxm", errors.KindUnresolvable},
		{"r3x", errors.KindUnknownUnit},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			_, _, _, err := decodeTriplet(tt.code, lexer.Token{Literal: tt.code, Raw: tt.code, Line: 1, Column: 1})
			if !errors.HasKind(err, tt.kind) {
				t.Errorf("decodeTriplet(%q) = %v, want %s", tt.code, err, tt.kind)
			}
		})
	}

	dir, n, u, err := decodeTriplet("p12q", lexer.Token{})
	if err != nil || dir != "previous" || n != 12 || u != period.Quarter {
		t.Errorf("decodeTriplet(p12q) = %s %d %s %v", dir, n, u, err)
	}
}

func TestRelative(t *testing.T) {
	tests := []struct {
		input string
		want  []period.Value
	}{
		{"last month", []period.Value{span(day(2024, 5, 1), endOf(2024, 5, 31))}},
		{"last 3 months", []period.Value{span(day(2024, 3, 1), endOf(2024, 5, 31))}},
		{"past 2 weeks", []period.Value{span(day(2024, 5, 27), endOf(2024, 6, 9))}},
		{"previous year", []period.Value{span(day(2023, 1, 1), endOf(2023, 12, 31))}},
		{"3 days ago", []period.Value{span(day(2024, 6, 12), endOf(2024, 6, 14))}},
		{"next 2 weeks", []period.Value{span(day(2024, 6, 17), endOf(2024, 6, 30))}},
		{"3 days from now", []period.Value{span(day(2024, 6, 16), endOf(2024, 6, 18))}},
		{"next quarter", []period.Value{span(day(2024, 7, 1), endOf(2024, 9, 30))}},
		{"this week", []period.Value{span(day(2024, 6, 10), endOf(2024, 6, 16))}},
		{"current year", []period.Value{span(day(2024, 1, 1), endOf(2024, 12, 31))}},
		{"this second", []period.Value{span(at(2024, 6, 15, 13, 45, 30), time.Date(2024, 6, 15, 13, 45, 30, 999999000, time.UTC))}},
		{"rolling 7 days", []period.Value{span(day(2024, 6, 8), june15)}},
		{"trailing 3 months", []period.Value{span(day(2024, 3, 15), june15)}},
		{"last", []period.Value{span(day(2024, 6, 14), endOf(2024, 6, 14))}},
		{"2024", []period.Value{span(day(2024, 1, 1), endOf(2024, 12, 31))}},
		{"2023", []period.Value{span(day(2023, 1, 1), endOf(2023, 12, 31))}},
		{"2024 YTD", []period.Value{span(day(2024, 1, 1), june15)}},
		{"2023 ytd", []period.Value{span(day(2023, 1, 1), time.Date(2023, 6, 15, 13, 45, 30, 123456000, time.UTC))}},
		{"Q3 2023", []period.Value{span(day(2023, 7, 1), endOf(2023, 9, 30))}},
		{"last friday", []period.Value{span(day(2024, 6, 14), endOf(2024, 6, 14))}},
		{"next friday", []period.Value{span(day(2024, 6, 21), endOf(2024, 6, 21))}},
		{"this friday", []period.Value{span(day(2024, 6, 14), endOf(2024, 6, 14))}},
		{"next saturday", []period.Value{span(day(2024, 6, 22), endOf(2024, 6, 22))}},
		{"last march", []period.Value{span(day(2024, 3, 1), endOf(2024, 3, 31))}},
		{"last august", []period.Value{span(day(2023, 8, 1), endOf(2023, 8, 31))}},
		{"next march", []period.Value{span(day(2025, 3, 1), endOf(2025, 3, 31))}},
		{"3rd friday", []period.Value{span(day(2024, 6, 21), endOf(2024, 6, 21))}},
		{"5th friday", nil},
		{"last 0 days", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			checkSpans(t, tt.input, mustEvaluate(t, tt.input, june15), tt.want)
		})
	}
}

// "last 3 months" could mean a rolling window or full calendar months; the
// direction priority picks full months, and "rolling" must be explicit.
func TestPreviousBeatsRolling(t *testing.T) {
	got := mustEvaluate(t, "rolling last 3 months", june15)
	checkSpans(t, "rolling last 3 months", got, []period.Value{span(day(2024, 3, 1), endOf(2024, 5, 31))})

	got = mustEvaluate(t, "next this month", june15)
	checkSpans(t, "next this month", got, []period.Value{span(day(2024, 7, 1), endOf(2024, 7, 31))})
}

func TestMonthsAndDays(t *testing.T) {
	tests := []struct {
		input string
		want  []period.Value
	}{
		{"march", []period.Value{span(day(2024, 3, 1), endOf(2024, 3, 31))}},
		{"Jan 2023", []period.Value{span(day(2023, 1, 1), endOf(2023, 1, 31))}},
		{"august last year", []period.Value{span(day(2023, 8, 1), endOf(2023, 8, 31))}},
		{"feb of next year", []period.Value{span(day(2025, 2, 1), endOf(2025, 2, 28))}},
		{"monday and friday", []period.Value{
			span(day(2024, 6, 17), endOf(2024, 6, 17)),
			span(day(2024, 6, 21), endOf(2024, 6, 21)),
		}},
		{"saturday", []period.Value{span(day(2024, 6, 15), endOf(2024, 6, 15))}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			checkSpans(t, tt.input, mustEvaluate(t, tt.input, june15), tt.want)
		})
	}
}

func TestSpecificDates(t *testing.T) {
	tests := []struct {
		input string
		want  period.Value
	}{
		{"2024-09-01", span(day(2024, 9, 1), endOf(2024, 9, 1))},
		{"2024-09-05 12:00:30", span(at(2024, 9, 5, 12, 0, 30), time.Date(2024, 9, 5, 12, 0, 30, 999999000, time.UTC))},
		{"2024-09-05 12:00:00.123456", period.At(time.Date(2024, 9, 5, 12, 0, 0, 123456000, time.UTC))},
		{"March 15th, 2024", span(day(2024, 3, 15), endOf(2024, 3, 15))},
		{"14:00", span(at(2024, 6, 15, 14, 0, 0), time.Date(2024, 6, 15, 14, 0, 59, 999999000, time.UTC))},
		{"3pm", span(at(2024, 6, 15, 15, 0, 0), time.Date(2024, 6, 15, 15, 59, 59, 999999000, time.UTC))},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			checkSpans(t, tt.input, mustEvaluate(t, tt.input, june15), []period.Value{tt.want})
		})
	}
}

func TestDayFirst(t *testing.T) {
	got := mustEvaluate(t, "03/04/2024", june15)
	checkSpans(t, "03/04/2024", got, []period.Value{span(day(2024, 3, 4), endOf(2024, 3, 4))})

	got = mustEvaluate(t, "03/04/2024", june15, WithConfig(Config{DayFirst: true}))
	checkSpans(t, "03/04/2024 day first", got, []period.Value{span(day(2024, 4, 3), endOf(2024, 4, 3))})
}

func TestRanges(t *testing.T) {
	tests := []struct {
		input string
		now   time.Time
		want  period.Value
	}{
		{"from 2024-09-01 to 2024-09-15", june15, span(day(2024, 9, 1), day(2024, 9, 15))},
		{"2024-09-01 - 2024-09-03", june15, span(day(2024, 9, 1), day(2024, 9, 3))},
		{"2024-09-05 12:00:30 to 14:00", june15, span(at(2024, 9, 5, 12, 0, 30), at(2024, 9, 5, 14, 0, 0))},
		{"between march and june", june15, span(day(2024, 3, 1), endOf(2024, 6, 30))},
		{"from last month to this month", june15, span(day(2024, 5, 1), endOf(2024, 6, 30))},
		{"from 2024-09-15 until 2024-09-01", june15, span(day(2024, 9, 1), day(2024, 9, 15))},
		{"since 2024-08-15", sept20, span(day(2024, 8, 15), sept20)},
		{"since last week", sept20, span(day(2024, 9, 9), sept20)},
		// a future start is ordered like a reversed range
		{"since tomorrow", sept20, span(sept20, day(2024, 9, 21))},
		{"since 2030-01-01", june15, span(june15, day(2030, 1, 1))},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			checkSpans(t, tt.input, mustEvaluate(t, tt.input, tt.now), []period.Value{tt.want})
		})
	}
}

func TestIterative(t *testing.T) {
	got := mustEvaluate(t, "every 1st Monday, 3rd Friday of this quarter", june15)
	wantDays := []time.Time{
		day(2024, 4, 1), day(2024, 4, 5), day(2024, 4, 15), day(2024, 4, 19),
		day(2024, 5, 3), day(2024, 5, 6), day(2024, 5, 17), day(2024, 5, 20),
		day(2024, 6, 3), day(2024, 6, 7), day(2024, 6, 17), day(2024, 6, 21),
	}
	want := make([]period.Value, len(wantDays))
	for i, d := range wantDays {
		want[i] = fullDay(d)
	}
	checkSpans(t, "ordinals", got, want)

	got = mustEvaluate(t, "every last friday of the year", june15)
	if len(got) != 12 {
		t.Fatalf("got %d last fridays, want 12", len(got))
	}
	if !got[11].Start.Equal(day(2024, 12, 27)) {
		t.Errorf("last friday of December = %s", got[11])
	}

	got = mustEvaluate(t, "every monday and wednesday in next week", june15)
	checkSpans(t, "two weekdays", got, []period.Value{
		fullDay(day(2024, 6, 17)),
		fullDay(day(2024, 6, 19)),
	})
}

func TestErrors(t *testing.T) {
	tests := []struct {
		input   string
		kind    errors.Kind
		wrapped errors.Kind
		message string
	}{
		{"", errors.KindEmptyInput, "", ""},
		{"every month of this year", errors.KindNoWeekdays, "", "no weekdays specified in 'month'"},
		{"last 3 fortnights", errors.KindUnknownUnit, "", "unknown unit 'fortnights'"},
		{"sinse", errors.KindInvalidDate, "", "invalid date literal 'sinse'"},
		{"from sinse to today", errors.KindUnresolvable, errors.KindInvalidDate,
			"failed to evaluate start date in range: invalid date literal 'sinse'"},
		{"since blah", errors.KindUnresolvable, errors.KindInvalidDate,
			"failed to evaluate start date in since expression: invalid date literal 'blah'"},
		{"every friday of 5th friday", errors.KindUnresolvable, "",
			"failed to resolve period in iterative expression"},
		{"2024-02-30", errors.KindInvalidDate, "", ""},
		{"2023-02-29", errors.KindInvalidDate, "", ""},
		{"2024-13-45", errors.KindInvalidDate, "", ""},
		{"from 2024-02-30 to 2024-03-05", errors.KindUnresolvable, errors.KindInvalidDate, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := evaluate(t, tt.input, june15)
			if err == nil {
				t.Fatalf("evaluate(%q) succeeded", tt.input)
			}
			dsErr, ok := errors.As(err)
			if !ok {
				t.Fatalf("error %T is not a DateSpanError", err)
			}
			if dsErr.Kind != tt.kind {
				t.Errorf("kind = %s, want %s (%v)", dsErr.Kind, tt.kind, err)
			}
			if tt.wrapped != "" && !errors.HasKind(err, tt.wrapped) {
				t.Errorf("error %v does not wrap %s", err, tt.wrapped)
			}
			if tt.message != "" && dsErr.Message != tt.message {
				t.Errorf("message = %q, want %q", dsErr.Message, tt.message)
			}
		})
	}
}

func TestInvalidDateHint(t *testing.T) {
	_, err := evaluate(t, "sinse", june15)
	dsErr, ok := errors.As(err)
	if !ok {
		t.Fatalf("error = %v", err)
	}
	if dsErr.Line != 1 || dsErr.Column != 1 {
		t.Errorf("position = %d:%d, want 1:1", dsErr.Line, dsErr.Column)
	}
	if len(dsErr.Hints) == 0 || !strings.Contains(dsErr.Hints[0], "since") {
		t.Errorf("hints = %v, want a suggestion of 'since'", dsErr.Hints)
	}
}

func TestIterationLimit(t *testing.T) {
	_, err := evaluate(t, "every monday of this month", june15, WithConfig(Config{MaxIterationDays: 10}))
	if !errors.HasKind(err, errors.KindUnresolvable) {
		t.Errorf("error = %v, want UNRESOLVABLE_SUBEXPRESSION", err)
	}
}

func TestStatements(t *testing.T) {
	result, err := evaluate(t, "today; yesterday, tomorrow", june15)
	if err != nil {
		t.Fatal(err)
	}
	if len(result) != 2 || len(result[0]) != 1 || len(result[1]) != 2 {
		t.Fatalf("shape = %v", result)
	}
	if !result[1][1].Start.Equal(day(2024, 6, 16)) {
		t.Errorf("second sibling = %s, want tomorrow", result[1][1])
	}
}

func TestStartNeverAfterEnd(t *testing.T) {
	inputs := []string{
		"now", "today", "last 3 months", "r3m", "r2w", "n2q", "ytd", "wtd",
		"from 2024-09-15 to 2024-09-01", "since 2030-01-01", "every friday of this year",
		"2024-09-05 12:00:00.123456",
	}
	for _, input := range inputs {
		for _, s := range mustEvaluate(t, input, june15) {
			if s.Start.After(s.End) {
				t.Errorf("%q: start %s after end %s", input, s.Start, s.End)
			}
		}
	}
}

func TestPreviousMatchesShiftedThis(t *testing.T) {
	for _, u := range []period.Unit{period.Day, period.Week, period.Month, period.Quarter, period.Year} {
		for _, now := range []time.Time{june15, sept20, day(2024, 3, 31), day(2024, 1, 31)} {
			got := previous(now, 1, u)
			want := thisPeriod(now, u).Shift(u, -1)
			if !got.Equal(want) {
				t.Errorf("previous(%s, 1, %s) = %s, want %s", now, u, got, want)
			}
		}
	}
}

func TestNthWeekday(t *testing.T) {
	v, ok := nthWeekday(june15, 1, time.Monday, period.Month)
	if !ok || !v.Start.Equal(day(2024, 6, 3)) {
		t.Errorf("1st Monday of June = %s, %v", v, ok)
	}
	if _, ok := nthWeekday(june15, 5, time.Monday, period.Month); ok {
		t.Error("June 2024 has four Mondays")
	}
	if _, ok := nthWeekday(june15, 0, time.Monday, period.Month); ok {
		t.Error("0th weekday should be empty")
	}
	if v := lastWeekday(june15, time.Friday, period.Month); !v.Start.Equal(day(2024, 6, 28)) {
		t.Errorf("last Friday of June = %s", v)
	}
}

func TestReferenceInstantIsFixed(t *testing.T) {
	e := New(june15)
	if !e.Now().Equal(june15) {
		t.Errorf("Now() = %s", e.Now())
	}
	program, err := parser.Parse(lexer.Tokenize("now, now"))
	if err != nil {
		t.Fatal(err)
	}
	result, err := e.Evaluate(program)
	if err != nil {
		t.Fatal(err)
	}
	if !result[0][0].Equal(result[0][1]) {
		t.Error("two reads of now differ within one evaluation")
	}
}

type recordLogger struct {
	lines []string
}

func (l *recordLogger) Log(values ...any) {}

func (l *recordLogger) LogLine(values ...any) {
	for _, v := range values {
		l.lines = append(l.lines, v.(string))
	}
}

func TestTraceLogging(t *testing.T) {
	logger := &recordLogger{}
	mustEvaluate(t, "last month", june15, WithLogger(logger))
	if len(logger.lines) != 2 {
		t.Fatalf("got %d trace lines, want 2: %v", len(logger.lines), logger.lines)
	}
	if logger.lines[0] != "relative(last month) -> 1 span(s)" {
		t.Errorf("trace = %q", logger.lines[0])
	}
}

func TestDefaultConfig(t *testing.T) {
	e := New(june15, WithConfig(Config{DayFirst: true}))
	cfg := e.Config()
	if !cfg.DayFirst || cfg.MinYear != 1900 || cfg.MaxYear != 2200 || cfg.MaxIterationDays != 36600 {
		t.Errorf("config = %+v", cfg)
	}
}
