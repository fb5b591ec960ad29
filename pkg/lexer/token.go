package lexer

import (
	"fmt"
)

type TokenType int
type TokenCategory int

type Token struct {
	Type    TokenType // Type of the token
	Lexeme  string    // Actual string from source code
	Literal string    // Literal value (if applicable), empty string if not
	Pos     Position  // Position in source code
}

// NewToken creates a new Token instance
func NewToken(tokenType TokenType, lexeme string, literal string, Pos Position) Token {
	return Token{
		Type:    tokenType,
		Lexeme:  lexeme,
		Literal: literal,
		Pos:     Pos,
	}
}

const (
	NONE TokenCategory = iota
	KEYWORD
	IDENTIFIER
	LITERAL
	OPERATOR
	DELIMITER
)

const (
	EOF TokenType = iota // End of file

	LET      // let
	VAR      // var
	CONST    // const
	FUNC     // func
	RETURN   // return
	IF       // if
	ELSE     // else
	WHILE    // while
	FOR      // for
	IN       // in
	BREAK    // break
	CONTINUE // continue
	UPTO     // upto
	TRY      // try
	CATCH    // catch
	FINALLY  // finally
	THROW    // throw
	SWITCH   // switch
	CASE     // case
	DEFAULT  // default
	TYPE     // type
	EXTENDS  // extends
	IMPORT   // import
	EXPORT   // export
	MODULE   // module
	DELETE   // delete
	AND      // and
	OR       // or
	NOT      // not
	TRUE     // true
	FALSE    // false
	NULL     // null

	ID     // id (identifier)
	NUM    // num (number)
	STRING // string literal

	ASSIGN     // =
	PLUS       // +
	MINUS      // -
	MULT       // *
	DIV        // /
	MOD        // %
	POW        // **
	LT         // <
	GT         // >
	LE         // <=
	GE         // >=
	EQ         // ==
	NE         // !=
	RANGE      // ..
	RANGE_INCL // ..=
	DOT        // .

	SEMICOLON // ;
	COMMA     // ,
	COLON     // :
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LSBRACE   // [
	RSBRACE   // ]

	ILLEGAL // illegal token
)

var Keywords = map[string]TokenType{
	"let":      LET,
	"var":      VAR,
	"const":    CONST,
	"func":     FUNC,
	"return":   RETURN,
	"if":       IF,
	"else":     ELSE,
	"while":    WHILE,
	"for":      FOR,
	"in":       IN,
	"break":    BREAK,
	"continue": CONTINUE,
	"upto":     UPTO,
	"try":      TRY,
	"catch":    CATCH,
	"finally":  FINALLY,
	"throw":    THROW,
	"switch":   SWITCH,
	"case":     CASE,
	"default":  DEFAULT,
	"type":     TYPE,
	"extends":  EXTENDS,
	"import":   IMPORT,
	"export":   EXPORT,
	"module":   MODULE,
	"delete":   DELETE,
	"and":      AND,
	"or":       OR,
	"not":      NOT,
	"true":     TRUE,
	"false":    FALSE,
	"null":     NULL,
}

var tokenNames = withKeywordNames(map[TokenType]string{
	ASSIGN:     "=",
	PLUS:       "+",
	MINUS:      "-",
	MULT:       "*",
	DIV:        "/",
	MOD:        "%",
	POW:        "**",
	LT:         "<",
	GT:         ">",
	LE:         "<=",
	GE:         ">=",
	EQ:         "==",
	NE:         "!=",
	RANGE:      "..",
	RANGE_INCL: "..=",
	DOT:        ".",
	SEMICOLON:  ";",
	COMMA:      ",",
	COLON:      ":",
	LPAREN:     "(",
	RPAREN:     ")",
	LBRACE:     "{",
	RBRACE:     "}",
	LSBRACE:    "[",
	RSBRACE:    "]",
	ID:         "id",
	NUM:        "num",
	STRING:     "string",
	EOF:        "$",
})

func withKeywordNames(names map[TokenType]string) map[TokenType]string {
	for word, t := range Keywords {
		names[t] = word
	}
	return names
}

// TokenToString converts a TokenType to its string representation
func (t Token) TokenToString() (string, bool) {
	str, ok := tokenNames[t.Type]
	return str, ok
}

// String returns a string representation of the Token
func (t Token) String() string {
	if t.Literal == "" {

		return fmt.Sprintf("T_{%s, %v, nil, %s}",
			t.Type, t.Lexeme, t.Pos.String())
	}

	return fmt.Sprintf("T_{%s, %v, %q, %s}",
		t.Type, t.Lexeme, t.Literal, t.Pos.String())
}

// String returns a string representation of the TokenType
func (t TokenType) String() string {
	if str, ok := (Token{Type: t}).TokenToString(); ok {
		return str
	}

	return fmt.Sprintf("UNKNOWN(%d)", int(t))
}

// GetCategory returns the category of the token
func (t TokenType) GetCategory() TokenCategory {
	switch {
	case t >= LET && t <= NULL:
		return KEYWORD
	case t == ID:
		return IDENTIFIER
	case t == NUM || t == STRING:
		return LITERAL
	case t >= ASSIGN && t <= DOT:
		return OPERATOR
	case t >= SEMICOLON && t <= RSBRACE:
		return DELIMITER
	default:
		return NONE
	}
}

// IsKeyword checks if the given identifier is a keyword and returns its TokenType if it is
func IsKeyword(identifier string) (TokenType, bool) {
	tokenType, ok := Keywords[identifier]
	return tokenType, ok
}
