package datespan

import (
	"bytes"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sambeau/datespan/pkg/datespan/errors"
	"github.com/sambeau/datespan/pkg/datespan/evaluator"
)

var now = time.Date(2024, 6, 15, 13, 45, 30, 0, time.UTC)

func TestParse(t *testing.T) {
	set, err := Parse("this month", WithNow(now))
	if err != nil {
		t.Fatal(err)
	}
	want := "(2024-06-01T00:00:00.000000, 2024-06-30T23:59:59.999999)"
	if got := set.String(); got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
	if set.Text != "this month" || !set.Now.Equal(now) {
		t.Errorf("Text/Now = %q, %s", set.Text, set.Now)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		kind  errors.Kind
	}{
		{"", errors.KindEmptyInput},
		{"  \t ", errors.KindEmptyInput},
		{"to march", errors.KindUnexpectedToken},
		{"every month of this year", errors.KindNoWeekdays},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input, WithNow(now))
			if !errors.HasKind(err, tt.kind) {
				t.Errorf("Parse(%q) error = %v, want %s", tt.input, err, tt.kind)
			}
		})
	}
}

func TestSpanSetAccessors(t *testing.T) {
	set := MustParse("march; jan and august", WithNow(now))

	if set.Len() != 3 || len(set.Spans()) != 3 || len(set.Statements) != 2 {
		t.Fatalf("Len() = %d, statements = %d", set.Len(), len(set.Statements))
	}

	if !set.Start().Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Start() = %s", set.Start())
	}
	if !set.End().Equal(time.Date(2024, 8, 31, 23, 59, 59, 999999000, time.UTC)) {
		t.Errorf("End() = %s", set.End())
	}

	if !set.Contains(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Error("Contains(March 10) = false")
	}
	if set.Contains(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)) {
		t.Error("Contains(May 10) = true")
	}

	mask := set.Filter([]time.Time{
		time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
	})
	if !slices.Equal(mask, []bool{true, false, true}) {
		t.Errorf("Filter() = %v", mask)
	}
}

func TestEmptySet(t *testing.T) {
	set := MustParse("5th friday", WithNow(now))
	if set.Len() != 0 {
		t.Fatalf("Len() = %d", set.Len())
	}
	if _, ok := set.Bounds(); ok {
		t.Error("Bounds() ok for an empty set")
	}
	if !set.Start().IsZero() || set.String() != "" {
		t.Errorf("Start() = %s, String() = %q", set.Start(), set.String())
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse did not panic")
		}
	}()
	MustParse("")
}

func TestWithConfig(t *testing.T) {
	set := MustParse("03/04/2024", WithNow(now), WithConfig(evaluator.Config{DayFirst: true}))
	if set.Start().Month() != time.April {
		t.Errorf("day-first start = %s", set.Start())
	}
}

func TestDefaultNow(t *testing.T) {
	before := time.Now()
	set := MustParse("now")
	if set.Now.Before(before) {
		t.Errorf("Now = %s, want at or after %s", set.Now, before)
	}
}

func TestConcurrentParse(t *testing.T) {
	inputs := []string{"last 3 months", "every friday of next month", "r3m", "since 2024-01-01", "Q1; Q2"}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		for _, input := range inputs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := Parse(input, WithNow(now)); err != nil {
					t.Errorf("Parse(%q): %v", input, err)
				}
			}()
		}
	}
	wg.Wait()
}

func TestLoggers(t *testing.T) {
	buffered := NewBufferedLogger()
	MustParse("today", WithNow(now), WithLogger(buffered))
	lines := buffered.Lines()
	if len(lines) != 2 || lines[0] != "special(today) -> 1 span(s)" {
		t.Errorf("Lines() = %q", lines)
	}

	buffered.Reset()
	buffered.Log("a", 1)
	buffered.LogLine("b")
	buffered.Log("pending")
	if got := buffered.String(); got != "a 1b\npending" {
		t.Errorf("String() = %q", got)
	}

	var buf bytes.Buffer
	MustParse("today", WithNow(now), WithLogger(WriterLogger(&buf, "[DEBUG] ")))
	if !strings.HasPrefix(buf.String(), "[DEBUG] special(today)") {
		t.Errorf("writer output = %q", buf.String())
	}

	MustParse("today", WithNow(now), WithLogger(NullLogger()))
}
