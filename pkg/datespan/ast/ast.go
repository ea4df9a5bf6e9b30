// Package ast defines the node set produced by the parser.
//
// The set is closed: the unexported marker method keeps other packages from
// adding node types. Compound nodes (Range, Since, Iterative, Relative,
// Months, Days) carry raw token runs; the evaluator interprets them and, for
// ranges, since and iterative expressions, parses them again on their own.
package ast

import (
	"fmt"
	"strings"

	"github.com/sambeau/datespan/pkg/datespan/lexer"
)

// NodeKind identifies one of the nine node types.
type NodeKind int

const (
	SpecificDateKind NodeKind = iota
	RelativeKind
	SpecialKind
	TripletKind
	MonthsKind
	DaysKind
	RangeKind
	SinceKind
	IterativeKind
)

var kindNames = [...]string{
	SpecificDateKind: "specific_date",
	RelativeKind:     "relative",
	SpecialKind:      "special",
	TripletKind:      "triplet",
	MonthsKind:       "months",
	DaysKind:         "days",
	RangeKind:        "range",
	SinceKind:        "since",
	IterativeKind:    "iterative",
}

func (k NodeKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
	return kindNames[k]
}

// Node is implemented by every AST node.
type Node interface {
	TokenLiteral() string
	String() string
	Kind() NodeKind
	// Pos returns the first token of the node for error reporting.
	Pos() lexer.Token
	node()
}

// SpecificDate is a literal date or time such as "2024-09-01" or "Aug 15 14:00".
type SpecificDate struct {
	Token   lexer.Token
	Literal string
	Tokens  []lexer.Token
}

func (n *SpecificDate) node()                {}
func (n *SpecificDate) Kind() NodeKind       { return SpecificDateKind }
func (n *SpecificDate) Pos() lexer.Token     { return n.Token }
func (n *SpecificDate) TokenLiteral() string { return n.Token.Literal }
func (n *SpecificDate) String() string       { return fmt.Sprintf("specific_date(%s)", n.Literal) }

// Relative is a direction, count and unit run such as "last 3 months".
type Relative struct {
	Token  lexer.Token
	Tokens []lexer.Token
}

func (n *Relative) node()                {}
func (n *Relative) Kind() NodeKind       { return RelativeKind }
func (n *Relative) Pos() lexer.Token     { return n.Token }
func (n *Relative) TokenLiteral() string { return n.Token.Literal }
func (n *Relative) String() string       { return "relative(" + literals(n.Tokens) + ")" }

// Special is a single keyword: today, ytd, q1, py, or a bare unit word.
type Special struct {
	Token lexer.Token
	Value string
}

func (n *Special) node()                {}
func (n *Special) Kind() NodeKind       { return SpecialKind }
func (n *Special) Pos() lexer.Token     { return n.Token }
func (n *Special) TokenLiteral() string { return n.Token.Literal }
func (n *Special) String() string       { return "special(" + n.Value + ")" }

// Triplet is a compact code such as "r3m" or "p2y".
type Triplet struct {
	Token lexer.Token
	Code  string
}

func (n *Triplet) node()                {}
func (n *Triplet) Kind() NodeKind       { return TripletKind }
func (n *Triplet) Pos() lexer.Token     { return n.Token }
func (n *Triplet) TokenLiteral() string { return n.Token.Literal }
func (n *Triplet) String() string       { return "triplet(" + n.Code + ")" }

// Months is a list of month names with an optional year.
type Months struct {
	Token  lexer.Token
	Tokens []lexer.Token
}

func (n *Months) node()                {}
func (n *Months) Kind() NodeKind       { return MonthsKind }
func (n *Months) Pos() lexer.Token     { return n.Token }
func (n *Months) TokenLiteral() string { return n.Token.Literal }
func (n *Months) String() string       { return "months(" + literals(n.Tokens) + ")" }

// Days is a list of weekday names with an optional year.
type Days struct {
	Token  lexer.Token
	Tokens []lexer.Token
}

func (n *Days) node()                {}
func (n *Days) Kind() NodeKind       { return DaysKind }
func (n *Days) Pos() lexer.Token     { return n.Token }
func (n *Days) TokenLiteral() string { return n.Token.Literal }
func (n *Days) String() string       { return "days(" + literals(n.Tokens) + ")" }

// Range holds the unevaluated start and end expressions of "from X to Y".
type Range struct {
	Token lexer.Token
	Start []lexer.Token
	End   []lexer.Token
}

func (n *Range) node()                {}
func (n *Range) Kind() NodeKind       { return RangeKind }
func (n *Range) Pos() lexer.Token     { return n.Token }
func (n *Range) TokenLiteral() string { return n.Token.Literal }
func (n *Range) String() string {
	return "range(" + literals(n.Start) + " | " + literals(n.End) + ")"
}

// Since holds the start expression of "since X"; the end is always now.
type Since struct {
	Token  lexer.Token
	Tokens []lexer.Token
}

func (n *Since) node()                {}
func (n *Since) Kind() NodeKind       { return SinceKind }
func (n *Since) Pos() lexer.Token     { return n.Token }
func (n *Since) TokenLiteral() string { return n.Token.Literal }
func (n *Since) String() string       { return "since(" + literals(n.Tokens) + ")" }

// Iterative is "every <selector> of <period>".
type Iterative struct {
	Token    lexer.Token
	Selector []lexer.Token
	Period   []lexer.Token
}

func (n *Iterative) node()                {}
func (n *Iterative) Kind() NodeKind       { return IterativeKind }
func (n *Iterative) Pos() lexer.Token     { return n.Token }
func (n *Iterative) TokenLiteral() string { return n.Token.Literal }
func (n *Iterative) String() string {
	return "iterative(" + literals(n.Selector) + " | " + literals(n.Period) + ")"
}

// Statement is one semicolon-delimited clause. Its nodes are evaluated
// independently and their spans concatenated in order.
type Statement struct {
	Token lexer.Token
	Nodes []Node
}

func (s *Statement) String() string {
	parts := make([]string, len(s.Nodes))
	for i, n := range s.Nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}

// Program is the root node of every parse.
type Program struct {
	Statements []*Statement
}

func (p *Program) String() string {
	parts := make([]string, len(p.Statements))
	for i, s := range p.Statements {
		parts[i] = s.String()
	}
	return strings.Join(parts, "; ")
}

func literals(tokens []lexer.Token) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t.Type == lexer.EOF {
			continue
		}
		parts = append(parts, t.Literal)
	}
	return strings.Join(parts, " ")
}
