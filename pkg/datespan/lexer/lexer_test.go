package lexer

import (
	"testing"
)

type expected struct {
	typ     TokenType
	literal string
}

func checkTokens(t *testing.T, input string, want []expected) []Token {
	t.Helper()
	tokens := Tokenize(input)
	if len(tokens) != len(want)+1 {
		t.Fatalf("Tokenize(%q) returned %d tokens, want %d: %v", input, len(tokens), len(want)+1, tokens)
	}
	for i, w := range want {
		if tokens[i].Type != w.typ {
			t.Errorf("Tokenize(%q)[%d] type = %s, want %s", input, i, tokens[i].Type, w.typ)
		}
		if tokens[i].Literal != w.literal {
			t.Errorf("Tokenize(%q)[%d] literal = %q, want %q", input, i, tokens[i].Literal, w.literal)
		}
	}
	if last := tokens[len(tokens)-1]; last.Type != EOF {
		t.Errorf("Tokenize(%q) last token = %s, want EOF", input, last.Type)
	}
	return tokens
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []expected
	}{
		{"last 3 months", []expected{{IDENTIFIER, "last"}, {NUMBER, "3"}, {TIME_UNIT, "month"}}},
		{"Past 2 Weeks", []expected{{IDENTIFIER, "past"}, {NUMBER, "2"}, {TIME_UNIT, "week"}}},
		{"r3m", []expected{{SPECIAL, "r3m"}}},
		{"P2Y", []expected{{SPECIAL, "p2y"}}},
		{"x3m", []expected{{IDENTIFIER, "x3m"}}},
		{"today; yesterday", []expected{{SPECIAL, "today"}, {PUNCTUATION, ";"}, {SPECIAL, "yesterday"}}},
		{"Q3 2024", []expected{{SPECIAL, "q3"}, {NUMBER, "2024"}}},
		{"Jan, Feb and Aug", []expected{
			{IDENTIFIER, "january"}, {PUNCTUATION, ","}, {IDENTIFIER, "february"},
			{KEYWORD, "and"}, {IDENTIFIER, "august"},
		}},
		{"every 1st Mon of this qtr", []expected{
			{KEYWORD, "every"}, {ORDINAL, "1st"}, {IDENTIFIER, "monday"},
			{KEYWORD, "of"}, {IDENTIFIER, "this"}, {TIME_UNIT, "quarter"},
		}},
		{"22nd 3rd 4TH", []expected{{ORDINAL, "22nd"}, {ORDINAL, "3rd"}, {ORDINAL, "4th"}}},
		{"third friday", []expected{{ORDINAL, "third"}, {IDENTIFIER, "friday"}}},
		{"this second", []expected{{IDENTIFIER, "this"}, {TIME_UNIT, "second"}}},
		{"2024-09-01", []expected{
			{NUMBER, "2024"}, {PUNCTUATION, "-"}, {NUMBER, "09"}, {PUNCTUATION, "-"}, {NUMBER, "01"},
		}},
		{"2024-09-05T12:00", []expected{
			{NUMBER, "2024"}, {PUNCTUATION, "-"}, {NUMBER, "09"}, {PUNCTUATION, "-"}, {NUMBER, "05"},
			{PUNCTUATION, "t"}, {NUMBER, "12"}, {PUNCTUATION, ":"}, {NUMBER, "00"},
		}},
		{"15.08.2024", []expected{
			{NUMBER, "15"}, {PUNCTUATION, "."}, {NUMBER, "08"}, {PUNCTUATION, "."}, {NUMBER, "2024"},
		}},
		{"from A to B", []expected{{KEYWORD, "from"}, {IDENTIFIER, "a"}, {KEYWORD, "to"}, {IDENTIFIER, "b"}}},
		{"until thru through till", []expected{{KEYWORD, "to"}, {KEYWORD, "to"}, {KEYWORD, "to"}, {KEYWORD, "to"}}},
		{"prev. month", []expected{{IDENTIFIER, "prev"}, {TIME_UNIT, "month"}}},
		{"year to date", []expected{{SPECIAL, "ytd"}}},
		{"2024 Year To Date", []expected{{NUMBER, "2024"}, {SPECIAL, "ytd"}}},
		{"month to march", []expected{{TIME_UNIT, "month"}, {KEYWORD, "to"}, {IDENTIFIER, "march"}}},
		{"right now", []expected{{SPECIAL, "now"}}},
		{"3 days from now", []expected{{NUMBER, "3"}, {TIME_UNIT, "day"}, {IDENTIFIER, "hence"}}},
		{"from now", []expected{{KEYWORD, "from"}, {SPECIAL, "now"}}},
		{"3pm", []expected{{NUMBER, "3"}, {IDENTIFIER, "pm"}}},
		{"a – b", []expected{{IDENTIFIER, "a"}, {PUNCTUATION, "-"}, {IDENTIFIER, "b"}}},
		{"@", []expected{{IDENTIFIER, "@"}}},
		{"", nil},
		{"   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			checkTokens(t, tt.input, tt.want)
		})
	}
}

func TestTokenPositions(t *testing.T) {
	tokens := Tokenize("last  3\nmonths")

	want := []struct{ line, column int }{
		{1, 1},
		{1, 7},
		{2, 1},
		{2, 7},
	}
	for i, w := range want {
		if tokens[i].Line != w.line || tokens[i].Column != w.column {
			t.Errorf("token %d (%q) at %d:%d, want %d:%d",
				i, tokens[i].Literal, tokens[i].Line, tokens[i].Column, w.line, w.column)
		}
	}
}

func TestNumberValues(t *testing.T) {
	tokens := Tokenize("2024 1st r12w")
	if tokens[0].Num != 2024 {
		t.Errorf("NUMBER Num = %d, want 2024", tokens[0].Num)
	}
	if tokens[1].Num != 1 {
		t.Errorf("ORDINAL Num = %d, want 1", tokens[1].Num)
	}
	if tokens[2].Num != 12 {
		t.Errorf("triplet Num = %d, want 12", tokens[2].Num)
	}
}

func TestRawAndSpacing(t *testing.T) {
	tokens := Tokenize("Aug 15, 2024 14:00")

	if tokens[0].Raw != "Aug" || tokens[0].Literal != "august" {
		t.Errorf("month token raw=%q literal=%q", tokens[0].Raw, tokens[0].Literal)
	}
	if tokens[0].SpaceBefore {
		t.Error("first token should not have SpaceBefore")
	}
	if tokens[2].SpaceBefore {
		t.Error("comma should be glued to the day")
	}

	if got := Join(tokens); got != "Aug 15, 2024 14:00" {
		t.Errorf("Join() = %q", got)
	}
}

func TestJoinMergedPhrase(t *testing.T) {
	tokens := Tokenize("Year  To Date")
	if got := Join(tokens); got != "Year  To Date" {
		t.Errorf("Join() = %q, want raw phrase", got)
	}
}

func TestLookups(t *testing.T) {
	if m, ok := MonthOf("september"); !ok || m.String() != "September" {
		t.Errorf("MonthOf(september) = %v, %v", m, ok)
	}
	if _, ok := MonthOf("sept"); ok {
		t.Error("MonthOf takes canonical names only")
	}
	if d, ok := WeekdayOf("friday"); !ok || d.String() != "Friday" {
		t.Errorf("WeekdayOf(friday) = %v, %v", d, ok)
	}

	directions := map[string]string{
		"last": "previous", "past": "previous", "ago": "previous",
		"rolling": "rolling", "next": "next", "hence": "next",
		"this": "this", "actual": "this",
	}
	for word, want := range directions {
		if got, ok := Direction(word); !ok || got != want {
			t.Errorf("Direction(%q) = %q, %v; want %q", word, got, ok, want)
		}
	}
	if !IsTriplet("n2w") || IsTriplet("n2x") {
		t.Error("IsTriplet mismatch")
	}
	if !IsFiller("the") {
		t.Error("IsFiller(the) = false")
	}
}

func TestVocabularySorted(t *testing.T) {
	words := Vocabulary()
	if len(words) == 0 {
		t.Fatal("empty vocabulary")
	}
	for i := 1; i < len(words); i++ {
		if words[i-1] >= words[i] {
			t.Fatalf("vocabulary not sorted/unique at %q, %q", words[i-1], words[i])
		}
	}
}

func TestTokenTypeString(t *testing.T) {
	if SPECIAL.String() != "SPECIAL" || TokenType(99).String() != "TokenType(99)" {
		t.Errorf("unexpected String() output")
	}
}
