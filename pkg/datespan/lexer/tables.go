package lexer

import (
	"regexp"
	"sort"
	"time"
)

// The tables below are built once at package init and never written again,
// so concurrent lexers may read them without locking.

var monthAliases = map[string]string{
	"jan": "january", "january": "january",
	"feb": "february", "february": "february",
	"mar": "march", "march": "march",
	"apr": "april", "april": "april",
	"may": "may",
	"jun": "june", "june": "june",
	"jul": "july", "july": "july",
	"aug": "august", "august": "august",
	"sep": "september", "sept": "september", "september": "september",
	"oct": "october", "october": "october",
	"nov": "november", "november": "november",
	"dec": "december", "december": "december",
}

var dayAliases = map[string]string{
	"mon": "monday", "monday": "monday", "mondays": "monday",
	"tue": "tuesday", "tues": "tuesday", "tuesday": "tuesday", "tuesdays": "tuesday",
	"wed": "wednesday", "weds": "wednesday", "wednesday": "wednesday", "wednesdays": "wednesday",
	"thu": "thursday", "thur": "thursday", "thurs": "thursday", "thursday": "thursday", "thursdays": "thursday",
	"fri": "friday", "friday": "friday", "fridays": "friday",
	"sat": "saturday", "saturday": "saturday", "saturdays": "saturday",
	"sun": "sunday", "sunday": "sunday", "sundays": "sunday",
}

var unitAliases = map[string]string{
	"millisecond": "millisecond", "milliseconds": "millisecond", "ms": "millisecond", "msec": "millisecond", "msecs": "millisecond",
	"second": "second", "seconds": "second", "sec": "second", "secs": "second",
	"minute": "minute", "minutes": "minute", "min": "minute", "mins": "minute",
	"hour": "hour", "hours": "hour", "hr": "hour", "hrs": "hour",
	"day": "day", "days": "day",
	"week": "week", "weeks": "week", "wk": "week", "wks": "week",
	"month": "month", "months": "month", "mth": "month", "mths": "month",
	"quarter": "quarter", "quarters": "quarter", "qtr": "quarter", "qtrs": "quarter", "qrt": "quarter",
	"year": "year", "years": "year", "yr": "year", "yrs": "year",
}

var keywordAliases = map[string]string{
	"from":    "from",
	"to":      "to",
	"until":   "to",
	"till":    "to",
	"til":     "to",
	"through": "to",
	"thru":    "to",
	"since":   "since",
	"between": "between",
	"and":     "and",
	"every":   "every",
	"each":    "every",
	"of":      "of",
	"in":      "in",
}

var specialWords = map[string]bool{
	"today": true, "yesterday": true, "tomorrow": true, "now": true,
	"ytd": true, "qtd": true, "mtd": true, "wtd": true,
	"q1": true, "q2": true, "q3": true, "q4": true,
	"py": true, "cy": true, "ny": true, "ly": true,
}

// "second" lexes as a unit, not an ordinal.
var ordinalWords = map[string]int{
	"first":  1,
	"third":  3,
	"fourth": 4,
	"fifth":  5,
}

var ordinalSuffixes = map[string]bool{"st": true, "nd": true, "rd": true, "th": true}

var directionWords = map[string]string{
	"last":      "previous",
	"past":      "previous",
	"previous":  "previous",
	"prev":      "previous",
	"preceding": "previous",
	"ago":       "previous",
	"rolling":   "rolling",
	"trailing":  "rolling",
	"next":      "next",
	"coming":    "next",
	"upcoming":  "next",
	"following": "next",
	"hence":     "next",
	"this":      "this",
	"current":   "this",
	"actual":    "this",
	"present":   "this",
}

// fillerWords are skipped by the parser.
var fillerWords = map[string]bool{"the": true}

var tripletPattern = regexp.MustCompile(`^[rpln]\d+[dwmqy]$`)

// phrase is a multi-word alias collapsed into a single token. A phrase with
// afterUnit only applies directly after a TIME_UNIT ("3 days from now").
type phrase struct {
	words     []string
	typ       TokenType
	literal   string
	afterUnit bool
}

var phrases = []phrase{
	{words: []string{"year", "to", "date"}, typ: SPECIAL, literal: "ytd"},
	{words: []string{"quarter", "to", "date"}, typ: SPECIAL, literal: "qtd"},
	{words: []string{"month", "to", "date"}, typ: SPECIAL, literal: "mtd"},
	{words: []string{"week", "to", "date"}, typ: SPECIAL, literal: "wtd"},
	{words: []string{"right", "now"}, typ: SPECIAL, literal: "now"},
	{words: []string{"from", "now"}, typ: IDENTIFIER, literal: "hence", afterUnit: true},
}

var monthNumbers = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

var weekdayNumbers = map[string]time.Weekday{
	"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
	"sunday": time.Sunday,
}

var vocabulary = buildVocabulary()

func buildVocabulary() []string {
	seen := map[string]bool{}
	for _, table := range []map[string]string{monthAliases, dayAliases, unitAliases, keywordAliases, directionWords} {
		for alias, canonical := range table {
			seen[alias] = true
			seen[canonical] = true
		}
	}
	for w := range specialWords {
		seen[w] = true
	}
	for w := range ordinalWords {
		seen[w] = true
	}
	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// Vocabulary returns every word the lexer recognizes, sorted. Callers must
// not modify the returned slice.
func Vocabulary() []string {
	return vocabulary
}

// MonthOf returns the month for a canonical month name.
func MonthOf(literal string) (time.Month, bool) {
	m, ok := monthNumbers[literal]
	return m, ok
}

// WeekdayOf returns the weekday for a canonical weekday name.
func WeekdayOf(literal string) (time.Weekday, bool) {
	d, ok := weekdayNumbers[literal]
	return d, ok
}

// Direction maps a direction word to "previous", "rolling", "next" or "this".
func Direction(literal string) (string, bool) {
	d, ok := directionWords[literal]
	return d, ok
}

// IsFiller reports whether the word carries no meaning ("the").
func IsFiller(literal string) bool {
	return fillerWords[literal]
}

// IsTriplet reports whether literal is a compact code such as "r3m".
func IsTriplet(literal string) bool {
	return tripletPattern.MatchString(literal)
}
