// Package errors provides structured error types for date span phrases.
//
// DateSpanError represents both parse errors (grammar violations) and
// evaluation errors (well-formed input that cannot be resolved to a span).
// Messages come from a code catalog so that callers can match on Code or
// Kind rather than on message text.
package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// ErrorClass separates grammar failures from resolution failures.
type ErrorClass string

const (
	ClassParse      ErrorClass = "parse"      // Grammar violations
	ClassEvaluation ErrorClass = "evaluation" // Well-formed but unresolvable
)

// Kind is the machine-readable failure category.
type Kind string

const (
	KindUnexpectedToken Kind = "UNEXPECTED_TOKEN"
	KindUnterminated    Kind = "UNTERMINATED_EXPRESSION"
	KindEmptyInput      Kind = "EMPTY_INPUT"
	KindInvalidDate     Kind = "INVALID_DATE_LITERAL"
	KindUnresolvable    Kind = "UNRESOLVABLE_SUBEXPRESSION"
	KindUnknownUnit     Kind = "UNKNOWN_UNIT"
	KindNoWeekdays      Kind = "NO_WEEKDAYS_SPECIFIED"
	KindUnknown         Kind = "UNKNOWN"
)

// Catalog codes.
const (
	CodeUnexpectedToken = "PARSE-0001"
	CodeUnterminated    = "PARSE-0002"
	CodeEmptyInput      = "PARSE-0003"
	CodeInvalidDate     = "EVAL-0001"
	CodeUnresolvable    = "EVAL-0002"
	CodeUnknownUnit     = "EVAL-0003"
	CodeNoWeekdays      = "EVAL-0004"
)

// DateSpanError represents any error from parsing or evaluating a phrase.
type DateSpanError struct {
	Class   ErrorClass     `json:"class"`           // Error category
	Kind    Kind           `json:"kind"`            // Failure kind (e.g. UNEXPECTED_TOKEN)
	Code    string         `json:"code"`            // Error code (e.g. "PARSE-0001")
	Message string         `json:"message"`         // Human-readable message
	Hints   []string       `json:"hints,omitempty"` // Suggestions for fixing
	Line    int            `json:"line"`            // 1-based line (0 if unknown)
	Column  int            `json:"column"`          // 1-based column (0 if unknown)
	Token   string         `json:"token,omitempty"` // Offending token literal
	Data    map[string]any `json:"data,omitempty"`  // Template variables
	Cause   error          `json:"-"`               // Wrapped failure, if any
}

// Error implements the error interface.
func (e *DateSpanError) Error() string {
	return e.String()
}

// Unwrap exposes the wrapped sub-expression failure.
func (e *DateSpanError) Unwrap() error {
	return e.Cause
}

// String returns a formatted string representation of the error.
func (e *DateSpanError) String() string {
	var sb strings.Builder

	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d, column %d: ", e.Line, e.Column))
	}
	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// PrettyString returns a multi-line formatted string for display.
func (e *DateSpanError) PrettyString() string {
	var sb strings.Builder

	switch {
	case e.IsParseError():
		sb.WriteString("Parse error")
	case e.IsEvaluationError():
		sb.WriteString("Evaluation error")
	default:
		sb.WriteString("Error")
	}

	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf(": line %d, column %d", e.Line, e.Column))
		if e.Token != "" {
			sb.WriteString(fmt.Sprintf(" near '%s'", e.Token))
		}
		sb.WriteString("\n  ")
	} else {
		sb.WriteString(":\n  ")
	}

	sb.WriteString(e.Message)

	for i, hint := range e.Hints {
		sb.WriteString("\n  ")
		if i == 0 {
			sb.WriteString("Hint: ")
		} else {
			sb.WriteString("  or: ")
		}
		sb.WriteString(hint)
	}

	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *DateSpanError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WithPosition returns a copy of the error with line and column set.
func (e *DateSpanError) WithPosition(line, column int) *DateSpanError {
	copy := *e
	copy.Line = line
	copy.Column = column
	return &copy
}

// WithToken returns a copy of the error carrying the offending token and its position.
func (e *DateSpanError) WithToken(literal string, line, column int) *DateSpanError {
	copy := *e
	copy.Token = literal
	copy.Line = line
	copy.Column = column
	return &copy
}

// IsParseError returns true if this is a grammar error.
func (e *DateSpanError) IsParseError() bool {
	return e.Class == ClassParse
}

// IsEvaluationError returns true if this is a resolution error.
func (e *DateSpanError) IsEvaluationError() bool {
	return e.Class == ClassEvaluation
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass // Error category
	Kind     Kind       // Failure kind
	Template string     // Message template with {{.placeholders}}
	Hints    []string   // Hint templates (may use {{.placeholders}})
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	CodeUnexpectedToken: {
		Class:    ClassParse,
		Kind:     KindUnexpectedToken,
		Template: "unexpected token '{{.Token}}'",
	},
	CodeUnterminated: {
		Class:    ClassParse,
		Kind:     KindUnterminated,
		Template: "unterminated {{.Construct}}: expected {{.Expected}}",
	},
	CodeEmptyInput: {
		Class:    ClassParse,
		Kind:     KindEmptyInput,
		Template: "empty input",
		Hints:    []string{"try a phrase such as \"last 3 months\" or \"since 2024-08-15\""},
	},
	CodeInvalidDate: {
		Class:    ClassEvaluation,
		Kind:     KindInvalidDate,
		Template: "invalid date literal '{{.Literal}}'",
	},
	CodeUnresolvable: {
		Class:    ClassEvaluation,
		Kind:     KindUnresolvable,
		Template: "failed to {{.Stage}} {{.Role}}",
	},
	CodeUnknownUnit: {
		Class:    ClassEvaluation,
		Kind:     KindUnknownUnit,
		Template: "unknown unit '{{.Unit}}'",
		Hints:    []string{"units are d, w, m, q or y in codes such as r3m"},
	},
	CodeNoWeekdays: {
		Class:    ClassEvaluation,
		Kind:     KindNoWeekdays,
		Template: "no weekdays specified in '{{.Selector}}'",
		Hints:    []string{"every 1st monday of this quarter"},
	},
}

// New creates a DateSpanError from the catalog.
func New(code string, data map[string]any) *DateSpanError {
	def, ok := ErrorCatalog[code]
	if !ok {
		msg := fmt.Sprintf("unknown error code: %s", code)
		if m, exists := data["Message"]; exists {
			msg = fmt.Sprintf("%v", m)
		}
		return &DateSpanError{
			Class:   ClassEvaluation,
			Kind:    KindUnknown,
			Code:    code,
			Message: msg,
			Data:    data,
		}
	}

	msg := renderTemplate(def.Template, data)

	var hints []string
	for _, hintTmpl := range def.Hints {
		rendered := renderTemplate(hintTmpl, data)
		if rendered != "" {
			hints = append(hints, rendered)
		}
	}

	e := &DateSpanError{
		Class:   def.Class,
		Kind:    def.Kind,
		Code:    code,
		Message: msg,
		Hints:   hints,
		Data:    data,
	}
	if tok, ok := data["Token"].(string); ok {
		e.Token = tok
	}
	return e
}

// NewWithPosition creates a DateSpanError with position information.
func NewWithPosition(code string, line, column int, data map[string]any) *DateSpanError {
	err := New(code, data)
	err.Line = line
	err.Column = column
	return err
}

// Wrap creates a catalog error around a failed sub-expression. The cause's
// message is appended and its position is inherited when it has one.
func Wrap(code string, cause error, data map[string]any) *DateSpanError {
	err := New(code, data)
	if cause == nil {
		return err
	}
	err.Cause = cause

	var inner *DateSpanError
	if stderrors.As(cause, &inner) {
		err.Message += ": " + inner.Message
		if err.Line == 0 {
			err.Line, err.Column, err.Token = inner.Line, inner.Column, inner.Token
		}
		err.Hints = append(err.Hints, inner.Hints...)
	} else {
		err.Message += ": " + cause.Error()
	}
	return err
}

// As returns the DateSpanError in err's chain, if any.
func As(err error) (*DateSpanError, bool) {
	var e *DateSpanError
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HasKind reports whether err (or anything it wraps) is a DateSpanError of kind k.
func HasKind(err error, k Kind) bool {
	for err != nil {
		var e *DateSpanError
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == k {
			return true
		}
		err = e.Cause
	}
	return false
}

// renderTemplate renders a Go template with the given data.
func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}

// ============================================================================
// Fuzzy Matching - "Did you mean?" suggestions
// ============================================================================

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// threshold allows one edit for short words, two for medium and three for long ones.
func threshold(input string) int {
	switch {
	case len(input) >= 7:
		return 3
	case len(input) >= 4:
		return 2
	default:
		return 1
	}
}

// FindClosestMatch finds the closest match to the given string from candidates.
// Returns the empty string when nothing is within the length-based threshold
// or when the input is itself a candidate.
func FindClosestMatch(input string, candidates []string) string {
	if len(input) == 0 || len(candidates) == 0 {
		return ""
	}

	inputLower := strings.ToLower(input)

	var bestMatch string
	bestDistance := -1

	for _, candidate := range candidates {
		dist := levenshteinDistance(inputLower, strings.ToLower(candidate))
		if bestDistance == -1 || dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}

	if bestDistance <= 0 || bestDistance > threshold(input) {
		return ""
	}

	return bestMatch
}

// FindTopMatches returns up to n candidates within threshold, closest first.
func FindTopMatches(input string, candidates []string, n int) []string {
	if len(input) == 0 || len(candidates) == 0 || n <= 0 {
		return nil
	}

	type match struct {
		value    string
		distance int
	}

	inputLower := strings.ToLower(input)
	var matches []match
	for _, candidate := range candidates {
		dist := levenshteinDistance(inputLower, strings.ToLower(candidate))
		if dist > 0 && dist <= threshold(input) {
			matches = append(matches, match{candidate, dist})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	var result []string
	for i := 0; i < len(matches) && i < n; i++ {
		result = append(result, matches[i].value)
	}
	return result
}

// DidYouMean renders a hint naming up to two vocabulary words close to
// input, or "" when input is itself a word or nothing is close.
func DidYouMean(input string, vocabulary []string) string {
	for _, w := range vocabulary {
		if strings.EqualFold(w, input) {
			return ""
		}
	}
	matches := FindTopMatches(input, vocabulary, 2)
	if len(matches) == 0 {
		return ""
	}
	return "Did you mean `" + strings.Join(matches, "` or `") + "`?"
}

// NewUnexpectedToken creates an UNEXPECTED_TOKEN error at the token's
// position, with a "Did you mean" hint drawn from vocabulary.
func NewUnexpectedToken(token string, line, column int, vocabulary []string) *DateSpanError {
	err := New(CodeUnexpectedToken, map[string]any{"Token": token}).WithToken(token, line, column)
	if hint := DidYouMean(token, vocabulary); hint != "" {
		err.Hints = append(err.Hints, hint)
	}
	return err
}
