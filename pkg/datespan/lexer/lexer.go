// Package lexer turns a date phrase into a stream of typed tokens.
//
// The lexer never fails: characters it does not understand become
// single-character IDENTIFIER tokens and are rejected later by the parser or
// evaluator. Identifiers are case-folded and aliases are resolved to their
// canonical spelling ("Sept" -> "september", "mths" -> "month"); direction
// words such as "last" or "rolling" are left as written.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TokenType represents different types of tokens
type TokenType int

const (
	EOF         TokenType = iota
	IDENTIFIER            // months, weekdays, directions, unknown words
	NUMBER                // 3, 2024
	ORDINAL               // 1st, 22nd, third
	TIME_UNIT             // day, week, month, ...
	SPECIAL               // today, ytd, q1, r3m, ...
	PUNCTUATION           // , ; - : / .
	KEYWORD               // from to since between and every of in
)

// String returns a string representation of the token type
func (tt TokenType) String() string {
	switch tt {
	case EOF:
		return "EOF"
	case IDENTIFIER:
		return "IDENTIFIER"
	case NUMBER:
		return "NUMBER"
	case ORDINAL:
		return "ORDINAL"
	case TIME_UNIT:
		return "TIME_UNIT"
	case SPECIAL:
		return "SPECIAL"
	case PUNCTUATION:
		return "PUNCTUATION"
	case KEYWORD:
		return "KEYWORD"
	default:
		return fmt.Sprintf("TokenType(%d)", int(tt))
	}
}

// Token represents a single token
type Token struct {
	Type        TokenType
	Literal     string // canonical, lower-cased form
	Raw         string // text as written in the input
	Num         int    // value of NUMBER and ORDINAL tokens
	Line        int
	Column      int
	Offset      int  // byte offset of Raw in the input
	SpaceBefore bool // whitespace separated this token from the previous one
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %s, Line: %d, Column: %d}",
		t.Type.String(), t.Literal, t.Line, t.Column)
}

// Is reports whether the token has the given type and canonical literal.
func (t Token) Is(tt TokenType, literal string) bool {
	return t.Type == tt && t.Literal == literal
}

// Lexer scans one input string. A Lexer is not safe for concurrent use;
// create one per input.
type Lexer struct {
	input        string
	position     int  // byte offset of ch
	readPosition int  // byte offset after ch
	ch           rune // current character
	line         int
	column       int
	prevNewline  bool

	lastType TokenType
	lastEnd  int // byte offset just after the previous token, -1 at start

	caser cases.Caser
}

// state is the subset of the lexer that phrase lookahead rewinds.
type state struct {
	position, readPosition int
	ch                     rune
	line, column           int
	prevNewline            bool
	lastType               TokenType
	lastEnd                int
}

// New creates a new lexer instance
func New(input string) *Lexer {
	l := &Lexer{
		input:   input,
		line:    1,
		lastEnd: -1,
		caser:   cases.Lower(language.Und),
	}
	l.readChar()
	return l
}

// Tokenize returns every token of text, ending with a single EOF token.
func Tokenize(text string) []Token {
	l := New(text)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens
		}
	}
}

func (l *Lexer) save() state {
	return state{l.position, l.readPosition, l.ch, l.line, l.column, l.prevNewline, l.lastType, l.lastEnd}
}

func (l *Lexer) restore(s state) {
	l.position, l.readPosition, l.ch = s.position, s.readPosition, s.ch
	l.line, l.column, l.prevNewline = s.line, s.column, s.prevNewline
	l.lastType, l.lastEnd = s.lastType, s.lastEnd
}

// readChar reads the next character and advances position.
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.position = len(l.input)
		l.ch = 0
		return
	}

	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.position = l.readPosition
	l.readPosition += size
	l.ch = r

	if l.prevNewline {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.prevNewline = r == '\n'
}

// peekChar returns the next character without advancing position
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) atEOF() bool {
	return l.position >= len(l.input)
}

// NextToken scans the input and returns the next token, collapsing
// multi-word aliases such as "year to date" into one token.
func (l *Lexer) NextToken() Token {
	before := l.lastType
	tok := l.scanToken()

	for _, p := range phrases {
		if p.words[0] != tok.Literal || (p.afterUnit && before != TIME_UNIT) {
			continue
		}
		if merged, ok := l.matchPhrase(tok, p); ok {
			return merged
		}
	}
	return tok
}

// matchPhrase consumes the rest of p if it follows first, or rewinds.
func (l *Lexer) matchPhrase(first Token, p phrase) (Token, bool) {
	saved := l.save()
	for _, word := range p.words[1:] {
		next := l.scanToken()
		if next.Literal != word || next.Type == EOF {
			l.restore(saved)
			return Token{}, false
		}
	}
	end := l.lastEnd
	l.lastType = p.typ
	return Token{
		Type:        p.typ,
		Literal:     p.literal,
		Raw:         l.input[first.Offset:end],
		Line:        first.Line,
		Column:      first.Column,
		Offset:      first.Offset,
		SpaceBefore: first.SpaceBefore,
	}, true
}

// scanToken reads one token without phrase merging.
func (l *Lexer) scanToken() Token {
	space := l.skipWhitespace()

	tok := Token{
		Line:        l.line,
		Column:      l.column,
		Offset:      l.position,
		SpaceBefore: space && l.lastEnd >= 0,
	}

	switch {
	case l.atEOF():
		tok.Type = EOF
		tok.Column = l.column + 1
		tok.Raw = ""
	case isDigit(l.ch):
		l.readNumberToken(&tok)
	case l.isDateTimeSeparator():
		l.readChar()
		tok.Type = PUNCTUATION
		tok.Literal = "t"
	case isLetter(l.ch):
		l.readWordToken(&tok)
	case isPunctuation(l.ch):
		tok.Type = PUNCTUATION
		tok.Literal = normalizePunctuation(l.ch)
		l.readChar()
	default:
		tok.Type = IDENTIFIER
		tok.Literal = string(l.ch)
		l.readChar()
	}

	if tok.Raw == "" && tok.Type != EOF {
		tok.Raw = l.input[tok.Offset:l.position]
	}
	l.lastType = tok.Type
	l.lastEnd = l.position
	return tok
}

// skipWhitespace reports whether any whitespace was skipped.
func (l *Lexer) skipWhitespace() bool {
	skipped := false
	for !l.atEOF() && unicode.IsSpace(l.ch) {
		skipped = true
		l.readChar()
	}
	return skipped
}

// readNumberToken reads digits and an optional ordinal suffix.
func (l *Lexer) readNumberToken(tok *Token) {
	start := l.position
	for !l.atEOF() && isDigit(l.ch) {
		l.readChar()
	}
	digits := l.input[start:l.position]
	n, err := strconv.Atoi(digits)
	if err != nil {
		n = 0
	}
	tok.Num = n

	suffix := l.peekLetters()
	if ordinalSuffixes[strings.ToLower(suffix)] {
		for range suffix {
			l.readChar()
		}
		tok.Type = ORDINAL
		tok.Literal = l.caser.String(l.input[start:l.position])
		return
	}

	tok.Type = NUMBER
	tok.Literal = digits
}

// peekLetters returns the run of letters starting at the current character
// without consuming it.
func (l *Lexer) peekLetters() string {
	end := l.position
	for end < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[end:])
		if !isLetter(r) {
			break
		}
		end += size
	}
	if end < len(l.input) {
		if r, _ := utf8.DecodeRuneInString(l.input[end:]); isDigit(r) {
			return ""
		}
	}
	return l.input[l.position:end]
}

// isDateTimeSeparator reports an ISO "T" glued between two digit runs.
func (l *Lexer) isDateTimeSeparator() bool {
	return (l.ch == 't' || l.ch == 'T') &&
		l.lastType == NUMBER && l.lastEnd == l.position &&
		isDigit(l.peekChar())
}

// readWordToken reads a run of letters and digits and classifies it.
func (l *Lexer) readWordToken(tok *Token) {
	start := l.position
	lettersOnly := true
	for !l.atEOF() && (isLetter(l.ch) || isDigit(l.ch)) {
		if isDigit(l.ch) {
			lettersOnly = false
		}
		l.readChar()
	}
	tok.Raw = l.input[start:l.position]
	word := l.caser.String(tok.Raw)
	classifyWord(tok, word)

	// abbreviation dot: "prev.", "Aug."
	if lettersOnly && l.ch == '.' && !isDigit(l.peekChar()) {
		l.readChar()
	}
}

// classifyWord sets the type and canonical literal of a lower-cased word.
func classifyWord(tok *Token, word string) {
	switch {
	case tripletPattern.MatchString(word):
		tok.Type = SPECIAL
		tok.Literal = word
		tok.Num, _ = strconv.Atoi(word[1 : len(word)-1])
	case specialWords[word]:
		tok.Type = SPECIAL
		tok.Literal = word
	case keywordAliases[word] != "":
		tok.Type = KEYWORD
		tok.Literal = keywordAliases[word]
	case unitAliases[word] != "":
		tok.Type = TIME_UNIT
		tok.Literal = unitAliases[word]
	case ordinalWords[word] != 0:
		tok.Type = ORDINAL
		tok.Literal = word
		tok.Num = ordinalWords[word]
	case monthAliases[word] != "":
		tok.Type = IDENTIFIER
		tok.Literal = monthAliases[word]
	case dayAliases[word] != "":
		tok.Type = IDENTIFIER
		tok.Literal = dayAliases[word]
	default:
		tok.Type = IDENTIFIER
		tok.Literal = word
	}
}

func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isPunctuation(ch rune) bool {
	switch ch {
	case ',', ';', '-', ':', '/', '.', '–', '—':
		return true
	}
	return false
}

// normalizePunctuation maps typographic dashes to '-'.
func normalizePunctuation(ch rune) string {
	if ch == '–' || ch == '—' {
		return "-"
	}
	return string(ch)
}

// Join rebuilds source text from tokens, keeping the original spacing
// between them. Abbreviation dots dropped by the lexer are not restored.
func Join(tokens []Token) string {
	var sb strings.Builder
	for i, tok := range tokens {
		if tok.Type == EOF {
			break
		}
		if i > 0 && tok.SpaceBefore {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok.Raw)
	}
	return sb.String()
}
