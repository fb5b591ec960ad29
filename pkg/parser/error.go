package parser

import (
	"fmt"

	"expresso/pkg/color"
	"expresso/pkg/lexer"
)

// handleTerminalError is called when the current token is not the expected one.
// It only reports an error. It does NOT advance tokens.
func (p *Parser) handleTerminalError(expected lexer.TokenType) {
	// Heuristic: if we expected ';' but current token clearly starts a new statement,
	// closes a block, or ends input, report "Missing semicolon".
	if expected == lexer.SEMICOLON && p.isStatementBoundary(p.currentToken.Type) {
		p.addError("Missing semicolon")
		return
	}

	// Specific: declaration without identifier like `let = 42;`
	if expected == lexer.ID && p.currentToken.Type == lexer.ASSIGN {
		p.addError("Missing identifier")
		return
	}

	p.addContextualError(expected.String())
}

// handleNonTerminalError is called when no expression can start at the current token.
func (p *Parser) handleNonTerminalError(expected string) {
	if p.curTokenIs(lexer.EOF) {
		p.handleUnexpectedEndOfInput()
		return
	}

	// Empty condition: if () or while ()
	if p.prevToken.Type == lexer.LPAREN && p.curTokenIs(lexer.RPAREN) {
		p.addError("Empty condition")
		return
	}

	p.addContextualError(expected)
}

// handleUnexpectedEndOfInput is called when input ends inside a construct
func (p *Parser) handleUnexpectedEndOfInput() {
	p.addError(fmt.Sprintf("Unexpected end of input after '%s'", p.prevToken.Lexeme))
}

// addError records a parsing error with location
func (p *Parser) addError(msg string) {
	pos := p.currentToken.Pos
	formatted := color.RedText(msg) + " at " + color.YellowText(fmt.Sprintf("Line: %d, Column %d", pos.Line, pos.Column))
	p.errors = append(p.errors, formatted)
}

// Errors returns the list of parsing errors
func (p *Parser) Errors() []string {
	return p.errors
}

// isStatementBoundary checks if a token type indicates the start of a new statement or block boundary
func (p *Parser) isStatementBoundary(t lexer.TokenType) bool {
	switch t {
	case lexer.LET, lexer.VAR, lexer.CONST, lexer.FUNC, lexer.TYPE, lexer.IMPORT, lexer.EXPORT,
		lexer.IF, lexer.WHILE, lexer.FOR, lexer.SWITCH, lexer.TRY, lexer.THROW, lexer.DELETE,
		lexer.RETURN, lexer.CONTINUE, lexer.BREAK, lexer.ELSE, lexer.RBRACE, lexer.EOF:
		return true
	default:
		return false
	}
}

// addContextualError generates a contextual error message based on expected and current token
func (p *Parser) addContextualError(expected string) {
	p.addError(p.categorizeError(expected, p.currentToken))
}

// categorizeError provides a specific error message based on expected symbol and current token
func (p *Parser) categorizeError(expected string, current lexer.Token) string {
	// Delimiters
	switch expected {
	case ")":
		return "Missing closing parenthesis"
	case "}":
		return "Missing closing brace"
	case "]":
		return "Missing closing bracket"
	case "{":
		return "Missing opening brace"
	case ";":
		return "Missing semicolon"
	case "=":
		return "Missing assignment operator"
	case ":":
		return "Missing colon"
	case "(":
		if current.Type == lexer.LBRACE {
			return "Wrong bracket type - expected parenthesis"
		}
		return "Missing opening parenthesis"
	}

	// Identifiers and literals
	switch expected {
	case "id":
		if current.Type == lexer.ASSIGN || current.Type == lexer.SEMICOLON {
			return "Missing identifier"
		}
		if p.isReservedKeywordAsId(current) {
			return fmt.Sprintf("Cannot use reserved keyword '%s' as identifier", current.Lexeme)
		}
		return "Expected identifier"
	case "num":
		return "Expected number"
	case "string":
		if current.Type == lexer.ID {
			return "Missing quotes around string"
		}
		return "Expected string"
	}

	// Expressions missing before ) or ; or ]
	if expected == "Expr" {
		switch current.Type {
		case lexer.SEMICOLON, lexer.RPAREN, lexer.RSBRACE, lexer.COMMA:
			return "Missing expression"
		}
		return fmt.Sprintf("Unexpected token '%s'", current.Lexeme)
	}

	if current.Type == lexer.ILLEGAL {
		return fmt.Sprintf("Illegal character '%s'", current.Lexeme)
	}

	return fmt.Sprintf("Syntax error: expected '%s', found '%s'", expected, current.Lexeme)
}

// isReservedKeywordAsId checks if a keyword appears where an identifier was expected
func (p *Parser) isReservedKeywordAsId(current lexer.Token) bool {
	return current.Type.GetCategory() == lexer.KEYWORD
}
