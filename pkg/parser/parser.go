package parser

import (
	"expresso/pkg/ast"
	"expresso/pkg/lexer"
)

// Operator precedences, lowest first.
const (
	_ int = iota
	LOWEST
	OR       // or
	AND      // and
	NOT      // not x
	EQUALS   // == !=
	COMPARE  // < <= > >=
	RANGE    // .. ..=
	SUM      // + -
	PRODUCT  // * / %
	POWER    // **
	PREFIX   // -x
	POSTFIX  // f(x) a[i] a.b T{...}
)

var precedences = map[lexer.TokenType]int{
	lexer.OR:         OR,
	lexer.AND:        AND,
	lexer.EQ:         EQUALS,
	lexer.NE:         EQUALS,
	lexer.LT:         COMPARE,
	lexer.LE:         COMPARE,
	lexer.GT:         COMPARE,
	lexer.GE:         COMPARE,
	lexer.RANGE:      RANGE,
	lexer.RANGE_INCL: RANGE,
	lexer.PLUS:       SUM,
	lexer.MINUS:      SUM,
	lexer.MULT:       PRODUCT,
	lexer.DIV:        PRODUCT,
	lexer.MOD:        PRODUCT,
	lexer.POW:        POWER,
	lexer.LPAREN:     POSTFIX,
	lexer.LSBRACE:    POSTFIX,
	lexer.DOT:        POSTFIX,
	lexer.LBRACE:     POSTFIX,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	lexer        *lexer.Lexer // lexer instance
	currentToken lexer.Token  // next unconsumed token
	prevToken    lexer.Token  // last consumed token
	errors       []string     // list of errors

	// noStructLit > 0 while parsing a condition or iterable, where `{`
	// opens the statement body rather than a struct literal.
	noStructLit int

	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn
}

// NewParser creates a new parser instance
func NewParser(l *lexer.Lexer) *Parser {
	p := &Parser{
		lexer:  l,
		errors: []string{},
	}

	p.prefixParseFns = map[lexer.TokenType]prefixParseFn{
		lexer.ID:      p.parseIdentifier,
		lexer.NUM:     p.parseNumber,
		lexer.STRING:  p.parseString,
		lexer.TRUE:    p.parseBoolean,
		lexer.FALSE:   p.parseBoolean,
		lexer.NULL:    p.parseNull,
		lexer.MINUS:   p.parsePrefixExpression,
		lexer.NOT:     p.parsePrefixExpression,
		lexer.LPAREN:  p.parseGroupedExpression,
		lexer.LSBRACE: p.parseListLiteral,
		lexer.FUNC:    p.parseFunctionLiteral,
	}

	p.infixParseFns = make(map[lexer.TokenType]infixParseFn)
	for _, t := range []lexer.TokenType{
		lexer.PLUS, lexer.MINUS, lexer.MULT, lexer.DIV, lexer.MOD, lexer.POW,
		lexer.EQ, lexer.NE, lexer.LT, lexer.LE, lexer.GT, lexer.GE,
	} {
		p.infixParseFns[t] = p.parseInfixExpression
	}
	p.infixParseFns[lexer.AND] = p.parseLogicalExpression
	p.infixParseFns[lexer.OR] = p.parseLogicalExpression
	p.infixParseFns[lexer.RANGE] = p.parseRangeExpression
	p.infixParseFns[lexer.RANGE_INCL] = p.parseRangeExpression
	p.infixParseFns[lexer.LPAREN] = p.parseCallExpression
	p.infixParseFns[lexer.LSBRACE] = p.parseIndexExpression
	p.infixParseFns[lexer.DOT] = p.parseMemberExpression
	p.infixParseFns[lexer.LBRACE] = p.parseStructLiteral

	// Initialize current token
	p.nextToken()

	return p
}

// Parse parses a whole compilation unit
func (p *Parser) Parse() *ast.Module {
	mod := &ast.Module{Base: ast.Base{At: p.currentToken.Pos}}

	if p.curTokenIs(lexer.MODULE) {
		p.nextToken()
		if name, ok := p.expect(lexer.ID); ok {
			mod.Name = name.Literal
		}
		p.expect(lexer.SEMICOLON)
	}

	for !p.curTokenIs(lexer.EOF) {
		before := len(p.errors)
		if stmt := p.parseStatement(); stmt != nil {
			mod.Body = append(mod.Body, stmt)
		}
		if len(p.errors) > before {
			p.synchronize()
		}
	}

	return mod
}

// ParseSource is a convenience wrapper over NewParser(NewLexer(src)).Parse
func ParseSource(src string) (*ast.Module, []string) {
	p := NewParser(lexer.NewLexer(src))
	mod := p.Parse()
	return mod, p.Errors()
}

// nextToken advances to the next token from the lexer
func (p *Parser) nextToken() {
	p.prevToken = p.currentToken
	p.currentToken = p.lexer.NextToken()
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.currentToken.Type == t
}

func (p *Parser) peekTokenIs(t lexer.TokenType) bool {
	return p.lexer.Peek().Type == t
}

// accept consumes the current token if it has type t
func (p *Parser) accept(t lexer.TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes a token of type t or records an error without advancing
func (p *Parser) expect(t lexer.TokenType) (lexer.Token, bool) {
	if p.curTokenIs(t) {
		tok := p.currentToken
		p.nextToken()
		return tok, true
	}

	p.handleTerminalError(t)
	return p.currentToken, false
}

// synchronize skips tokens up to the end of the broken statement
func (p *Parser) synchronize() {
	for !p.curTokenIs(lexer.EOF) {
		if p.accept(lexer.SEMICOLON) || p.accept(lexer.RBRACE) {
			return
		}
		p.nextToken()
	}
}

func (p *Parser) curPrecedence() int {
	if p.curTokenIs(lexer.LBRACE) && p.noStructLit > 0 {
		return LOWEST
	}
	if prec, ok := precedences[p.currentToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) base() ast.Base {
	return ast.Base{At: p.currentToken.Pos}
}
