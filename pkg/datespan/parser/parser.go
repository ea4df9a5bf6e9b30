// Package parser builds statements of AST nodes from a token stream.
//
// The parser recognizes shape only. Relative, range, since and iterative
// constructs keep their raw token runs so the evaluator can interpret them,
// parsing the nested runs again with ParseStatement where needed.
package parser

import (
	"unicode"
	"unicode/utf8"

	"github.com/sambeau/datespan/pkg/datespan/ast"
	"github.com/sambeau/datespan/pkg/datespan/errors"
	"github.com/sambeau/datespan/pkg/datespan/lexer"
)

// Parser consumes one token slice.
type Parser struct {
	tokens []lexer.Token
	pos    int

	curToken  lexer.Token
	peekToken lexer.Token

	errors           []string
	structuredErrors []*errors.DateSpanError
}

// New creates a parser over tokens. A missing EOF terminator is added.
func New(tokens []lexer.Token) *Parser {
	toks := make([]lexer.Token, 0, len(tokens)+1)
	for _, t := range tokens {
		if t.Type == lexer.EOF {
			break
		}
		toks = append(toks, t)
	}
	toks = append(toks, eofAfter(toks))

	p := &Parser{tokens: toks, pos: -1}
	p.nextToken()
	return p
}

// eofAfter builds an EOF token positioned just past the last token.
func eofAfter(toks []lexer.Token) lexer.Token {
	eof := lexer.Token{Type: lexer.EOF, Line: 1, Column: 1}
	if n := len(toks); n > 0 {
		last := toks[n-1]
		eof.Line = last.Line
		eof.Column = last.Column + utf8.RuneCountInString(last.Raw)
		eof.Offset = last.Offset + len(last.Raw)
	}
	return eof
}

// Parse parses a complete program and returns its first error, if any.
func Parse(tokens []lexer.Token) (*ast.Program, error) {
	p := New(tokens)
	program := p.ParseProgram()
	if errs := p.StructuredErrors(); len(errs) > 0 {
		return nil, errs[0]
	}
	return program, nil
}

// ParseStatement parses exactly one statement from an isolated token run.
// The evaluator uses it for the inner expressions of ranges, since and
// iterative constructs.
func ParseStatement(tokens []lexer.Token) (*ast.Statement, error) {
	p := New(tokens)
	p.skipFiller()
	if p.curTokenIs(lexer.EOF) {
		return nil, p.emptyInput()
	}

	stmt := p.parseStatement()
	if len(p.structuredErrors) > 0 {
		return nil, p.structuredErrors[0]
	}
	if p.curIsPunct(";") {
		p.nextToken()
	}
	if !p.curTokenIs(lexer.EOF) {
		return nil, p.unexpected(p.curToken)
	}
	return stmt, nil
}

// Errors returns the error messages.
func (p *Parser) Errors() []string {
	return p.errors
}

// StructuredErrors returns the structured errors. Only the first error is
// kept; a malformed statement aborts the whole parse.
func (p *Parser) StructuredErrors() []*errors.DateSpanError {
	return p.structuredErrors
}

func (p *Parser) addError(err *errors.DateSpanError) *errors.DateSpanError {
	if len(p.structuredErrors) == 0 {
		p.structuredErrors = append(p.structuredErrors, err)
		p.errors = append(p.errors, err.Error())
	}
	return err
}

func (p *Parser) failed() bool {
	return len(p.structuredErrors) > 0
}

func (p *Parser) tokenAt(i int) lexer.Token {
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) nextToken() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	p.curToken = p.tokenAt(p.pos)
	p.peekToken = p.tokenAt(p.pos + 1)
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t lexer.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) curIsPunct(lit string) bool {
	return p.curToken.Is(lexer.PUNCTUATION, lit)
}

func (p *Parser) curIsKeyword(lits ...string) bool {
	if !p.curTokenIs(lexer.KEYWORD) {
		return false
	}
	for _, lit := range lits {
		if p.curToken.Literal == lit {
			return true
		}
	}
	return false
}

func (p *Parser) skipFiller() {
	for p.curTokenIs(lexer.IDENTIFIER) && lexer.IsFiller(p.curToken.Literal) {
		p.nextToken()
	}
}

// ParseProgram parses statements separated by ';'. One trailing ';' is allowed.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}

	p.skipFiller()
	if p.curTokenIs(lexer.EOF) {
		p.emptyInput()
		return program
	}

	for !p.curTokenIs(lexer.EOF) {
		stmt := p.parseStatement()
		if stmt == nil || p.failed() {
			return program
		}
		program.Statements = append(program.Statements, stmt)

		if p.curIsPunct(";") {
			p.nextToken()
			continue
		}
		if !p.curTokenIs(lexer.EOF) {
			p.unexpected(p.curToken)
			return program
		}
	}

	return program
}

// parseStatement parses clauses joined by ',' or 'and'.
func (p *Parser) parseStatement() *ast.Statement {
	stmt := &ast.Statement{Token: p.curToken}

	for {
		node := p.parseClause()
		if node == nil {
			return nil
		}
		stmt.Nodes = append(stmt.Nodes, node)

		if !p.curIsPunct(",") && !p.curIsKeyword("and") {
			return stmt
		}
		p.nextToken()
	}
}

func (p *Parser) parseClause() ast.Node {
	p.skipFiller()
	start := p.pos

	var node ast.Node
	switch {
	case p.curTokenIs(lexer.EOF):
		p.unterminated("list", "another expression")
		return nil
	case p.curIsKeyword("from", "between"):
		return p.parseRange()
	case p.curIsKeyword("since"):
		return p.parseSince()
	case p.curIsKeyword("every"):
		return p.parseIterative()
	case p.curTokenIs(lexer.KEYWORD), p.curTokenIs(lexer.PUNCTUATION), isSymbol(p.curToken):
		p.unexpected(p.curToken)
		return nil
	case isMonth(p.curToken):
		node = p.parseMonthClause()
	case isWeekday(p.curToken):
		node = p.parseDayList()
	case p.isDateStart():
		node = p.parseSpecificDate()
	default:
		node = p.parseRun()
	}

	if node == nil || p.failed() {
		return nil
	}
	if p.isRangeSeparator(false) {
		return p.parseImplicitRange(start)
	}
	return node
}

// parseRange parses "from X to Y", "from X - Y" and "between X and Y".
func (p *Parser) parseRange() ast.Node {
	tok := p.curToken
	between := tok.Literal == "between"
	p.nextToken()

	startToks := p.collectUntil(func() bool {
		return p.isRangeSeparator(between) || p.curIsPunct(";")
	})
	if p.failed() {
		return nil
	}
	if len(startToks) == 0 {
		if p.curTokenIs(lexer.EOF) {
			p.unterminated("range", "a start expression")
		} else {
			p.unexpected(p.curToken)
		}
		return nil
	}
	if !p.isRangeSeparator(between) {
		if between {
			p.unterminated("range", "'and'")
		} else {
			p.unterminated("range", "'to'")
		}
		return nil
	}
	p.nextToken()

	endToks := p.collectUntil(p.isClauseEnd)
	if p.failed() {
		return nil
	}
	if len(endToks) == 0 {
		p.unterminated("range", "an end expression")
		return nil
	}

	return &ast.Range{Token: tok, Start: startToks, End: endToks}
}

// parseImplicitRange turns "X to Y" into a range once X has been parsed.
func (p *Parser) parseImplicitRange(start int) ast.Node {
	var startToks []lexer.Token
	for _, t := range p.tokens[start:p.pos] {
		if !isFiller(t) {
			startToks = append(startToks, t)
		}
	}
	p.nextToken()

	endToks := p.collectUntil(p.isClauseEnd)
	if p.failed() {
		return nil
	}
	if len(endToks) == 0 {
		p.unterminated("range", "an end expression")
		return nil
	}
	return &ast.Range{Token: p.tokens[start], Start: startToks, End: endToks}
}

func (p *Parser) parseSince() ast.Node {
	tok := p.curToken
	p.nextToken()

	toks := p.collectUntil(p.isClauseEnd)
	if p.failed() {
		return nil
	}
	if len(toks) == 0 {
		p.unterminated("since expression", "a start expression")
		return nil
	}
	return &ast.Since{Token: tok, Tokens: toks}
}

// parseIterative parses "every <selector> of|in <period>". The selector may
// itself contain ',' and 'and'.
func (p *Parser) parseIterative() ast.Node {
	tok := p.curToken
	p.nextToken()

	selector := p.collectUntil(func() bool {
		return p.curIsKeyword("of", "in") || p.curIsPunct(";")
	})
	if p.failed() {
		return nil
	}
	if !p.curIsKeyword("of", "in") {
		p.unterminated("iterative expression", "'of' or 'in'")
		return nil
	}
	if len(selector) == 0 {
		p.unexpected(p.curToken)
		return nil
	}
	p.nextToken()

	period := p.collectUntil(p.isClauseEnd)
	if p.failed() {
		return nil
	}
	if len(period) == 0 {
		p.unterminated("iterative expression", "a period")
		return nil
	}
	return &ast.Iterative{Token: tok, Selector: selector, Period: period}
}

// parseMonthClause handles a clause starting with a month name: either a
// date ("March 15") or a month list ("Jan, Feb and August of 2024").
func (p *Parser) parseMonthClause() ast.Node {
	if p.peekTokenIs(lexer.ORDINAL) || (p.peekTokenIs(lexer.NUMBER) && len(p.peekToken.Raw) <= 2) {
		return p.parseSpecificDate()
	}
	return p.parseNameList(isMonth, func(tok lexer.Token, toks []lexer.Token) ast.Node {
		return &ast.Months{Token: tok, Tokens: toks}
	})
}

func (p *Parser) parseDayList() ast.Node {
	return p.parseNameList(isWeekday, func(tok lexer.Token, toks []lexer.Token) ast.Node {
		return &ast.Days{Token: tok, Tokens: toks}
	})
}

// parseNameList collects names joined by ',' or 'and' plus an optional year
// suffix: "2024", "of 2024", "last year", "of next year".
func (p *Parser) parseNameList(match func(lexer.Token) bool, build func(lexer.Token, []lexer.Token) ast.Node) ast.Node {
	tok := p.curToken
	toks := []lexer.Token{p.curToken}
	p.nextToken()

	for (p.curIsPunct(",") || p.curIsKeyword("and")) && match(p.peekToken) {
		p.nextToken()
		toks = append(toks, p.curToken)
		p.nextToken()
	}

	if p.curIsKeyword("of", "in") && (isYear(p.peekToken) || isDirection(p.peekToken)) {
		p.nextToken()
	}
	p.skipFiller()
	switch {
	case isYear(p.curToken):
		toks = append(toks, p.curToken)
		p.nextToken()
	case isDirection(p.curToken) && p.peekToken.Is(lexer.TIME_UNIT, "year"):
		toks = append(toks, p.curToken, p.peekToken)
		p.nextToken()
		p.nextToken()
	}

	return build(tok, toks)
}

// isDateStart reports whether the current number starts a date or time
// literal rather than a count.
func (p *Parser) isDateStart() bool {
	cur, peek := p.curToken, p.peekToken
	switch cur.Type {
	case lexer.NUMBER:
		if peek.Type == lexer.PUNCTUATION && !peek.SpaceBefore {
			switch peek.Literal {
			case "-", "/", ".", ":", "t":
				return true
			}
		}
		return isMonth(peek) || isMeridiem(peek)
	case lexer.ORDINAL:
		return isMonth(peek)
	}
	return false
}

// parseSpecificDate collects a run of date and time tokens.
func (p *Parser) parseSpecificDate() ast.Node {
	tok := p.curToken
	var toks []lexer.Token

	for p.isDateToken() {
		toks = append(toks, p.curToken)
		p.nextToken()
	}
	if len(toks) == 0 {
		p.unexpected(p.curToken)
		return nil
	}
	return &ast.SpecificDate{Token: tok, Literal: lexer.Join(toks), Tokens: toks}
}

func (p *Parser) isDateToken() bool {
	cur := p.curToken
	switch cur.Type {
	case lexer.NUMBER, lexer.ORDINAL:
		return true
	case lexer.IDENTIFIER:
		return isMonth(cur) || isWeekday(cur) || isMeridiem(cur)
	case lexer.PUNCTUATION:
		switch cur.Literal {
		case "/", ".", ":", "t":
			return true
		case "-":
			return !p.isSpacedDash()
		case ",":
			return p.isDateComma()
		}
	}
	return false
}

// parseRun collects a free-form run and classifies its shape.
func (p *Parser) parseRun() ast.Node {
	tok := p.curToken
	toks := p.collectUntil(func() bool {
		return p.isClauseEnd() || p.curTokenIs(lexer.KEYWORD) || p.isRangeSeparator(false)
	})
	if p.failed() {
		return nil
	}
	if len(toks) == 0 {
		p.unexpected(p.curToken)
		return nil
	}

	if len(toks) == 1 {
		switch t := toks[0]; t.Type {
		case lexer.SPECIAL:
			if lexer.IsTriplet(t.Literal) {
				return &ast.Triplet{Token: t, Code: t.Literal}
			}
			return &ast.Special{Token: t, Value: t.Literal}
		case lexer.TIME_UNIT:
			return &ast.Special{Token: t, Value: t.Literal}
		}
	}

	for _, t := range toks {
		switch t.Type {
		case lexer.NUMBER, lexer.ORDINAL, lexer.TIME_UNIT, lexer.SPECIAL:
			return &ast.Relative{Token: tok, Tokens: toks}
		case lexer.IDENTIFIER:
			if isDirection(t) {
				return &ast.Relative{Token: tok, Tokens: toks}
			}
		}
	}

	return &ast.SpecificDate{Token: tok, Literal: lexer.Join(toks), Tokens: toks}
}

// collectUntil gathers tokens until stop reports true, ';' or EOF, skipping
// filler words. Symbols abort with UNEXPECTED_TOKEN.
func (p *Parser) collectUntil(stop func() bool) []lexer.Token {
	var toks []lexer.Token
	for !p.curTokenIs(lexer.EOF) && !p.curIsPunct(";") && !stop() {
		if isSymbol(p.curToken) {
			p.unexpected(p.curToken)
			return nil
		}
		if !isFiller(p.curToken) {
			toks = append(toks, p.curToken)
		}
		p.nextToken()
	}
	return toks
}

// isClauseEnd reports a sibling or statement boundary.
func (p *Parser) isClauseEnd() bool {
	if p.curIsPunct(",") {
		return !p.isDateComma()
	}
	return p.curTokenIs(lexer.EOF) || p.curIsPunct(";") || p.curIsKeyword("and")
}

// isRangeSeparator reports 'to', a dash with spaces on both sides, or,
// for "between", 'and'.
func (p *Parser) isRangeSeparator(allowAnd bool) bool {
	if p.curIsKeyword("to") || (allowAnd && p.curIsKeyword("and")) {
		return true
	}
	return p.isSpacedDash()
}

func (p *Parser) isSpacedDash() bool {
	return p.curIsPunct("-") && p.curToken.SpaceBefore &&
		p.peekToken.SpaceBefore && !p.peekTokenIs(lexer.EOF)
}

// isDateComma reports the comma in "March 15, 2024".
func (p *Parser) isDateComma() bool {
	if !p.curIsPunct(",") || p.pos == 0 {
		return false
	}
	prev := p.tokenAt(p.pos - 1)
	isDay := prev.Type == lexer.ORDINAL || (prev.Type == lexer.NUMBER && len(prev.Raw) <= 2)
	return isDay && isYear(p.peekToken)
}

// ============================================================================
// Errors
// ============================================================================

func (p *Parser) unexpected(tok lexer.Token) *errors.DateSpanError {
	literal := tok.Raw
	if tok.Type == lexer.EOF {
		literal = "EOF"
	}
	return p.addError(errors.NewUnexpectedToken(literal, tok.Line, tok.Column, lexer.Vocabulary()))
}

func (p *Parser) unterminated(construct, expected string) *errors.DateSpanError {
	err := errors.New(errors.CodeUnterminated, map[string]any{"Construct": construct, "Expected": expected})
	return p.addError(err.WithToken(p.curToken.Raw, p.curToken.Line, p.curToken.Column))
}

func (p *Parser) emptyInput() *errors.DateSpanError {
	return p.addError(errors.New(errors.CodeEmptyInput, nil).WithPosition(p.curToken.Line, p.curToken.Column))
}

// ============================================================================
// Token classes
// ============================================================================

func isMonth(t lexer.Token) bool {
	if t.Type != lexer.IDENTIFIER {
		return false
	}
	_, ok := lexer.MonthOf(t.Literal)
	return ok
}

func isWeekday(t lexer.Token) bool {
	if t.Type != lexer.IDENTIFIER {
		return false
	}
	_, ok := lexer.WeekdayOf(t.Literal)
	return ok
}

func isDirection(t lexer.Token) bool {
	if t.Type != lexer.IDENTIFIER {
		return false
	}
	_, ok := lexer.Direction(t.Literal)
	return ok
}

func isYear(t lexer.Token) bool {
	return t.Type == lexer.NUMBER && len(t.Raw) == 4
}

func isMeridiem(t lexer.Token) bool {
	return t.Type == lexer.IDENTIFIER && (t.Literal == "am" || t.Literal == "pm")
}

func isFiller(t lexer.Token) bool {
	return t.Type == lexer.IDENTIFIER && lexer.IsFiller(t.Literal)
}

// isSymbol reports single-character identifiers that are not letters, such
// as '@' or '+'.
func isSymbol(t lexer.Token) bool {
	if t.Type != lexer.IDENTIFIER {
		return false
	}
	r, size := utf8.DecodeRuneInString(t.Literal)
	return size == len(t.Literal) && !unicode.IsLetter(r)
}
