package lexer

import (
	"regexp"
)

type tokenRegex struct {
	Pattern *regexp.Regexp
	Raw     string
}

func newTokenRegex(raw string) tokenRegex {
	return tokenRegex{regexp.MustCompile(raw), raw}
}

// Token regex patterns; keyword patterns are added in init from Keywords.
var tokenRegexes = map[TokenType]tokenRegex{
	LE:         newTokenRegex(`^<=`),
	GE:         newTokenRegex(`^>=`),
	EQ:         newTokenRegex(`^==`),
	NE:         newTokenRegex(`^!=`),
	POW:        newTokenRegex(`^\*\*`),
	RANGE_INCL: newTokenRegex(`^\.\.=`),
	RANGE:      newTokenRegex(`^\.\.`),

	ASSIGN: newTokenRegex(`^=`),
	PLUS:   newTokenRegex(`^\+`),
	MINUS:  newTokenRegex(`^-`),
	MULT:   newTokenRegex(`^\*`),
	DIV:    newTokenRegex(`^/`),
	MOD:    newTokenRegex(`^%`),
	LT:     newTokenRegex(`^<`),
	GT:     newTokenRegex(`^>`),
	DOT:    newTokenRegex(`^\.`),

	SEMICOLON: newTokenRegex(`^;`),
	COMMA:     newTokenRegex(`^,`),
	COLON:     newTokenRegex(`^:`),
	LPAREN:    newTokenRegex(`^\(`),
	RPAREN:    newTokenRegex(`^\)`),
	LBRACE:    newTokenRegex(`^\{`),
	RBRACE:    newTokenRegex(`^\}`),
	LSBRACE:   newTokenRegex(`^\[`),
	RSBRACE:   newTokenRegex(`^\]`),

	NUM:    newTokenRegex(`^\d+(\.\d+)?([eE][+-]?\d+)?`),
	STRING: newTokenRegex(`^"([^"\\]|\\.)*"`),
	ID:     newTokenRegex(`^[a-zA-Z_][a-zA-Z0-9_]*`),
}

var (
	whitespaceRegex = regexp.MustCompile(`^\s+`)
	commentRegex    = regexp.MustCompile(`^//.*`)
)

// Token precedence order for matching (longer patterns first). Keywords are
// prepended in init since their patterns end on a word boundary.
var tokenPrecedenceOrder = []TokenType{
	LE, GE, EQ, NE, POW, RANGE_INCL, RANGE,
	ASSIGN, PLUS, MINUS, MULT, DIV, MOD, LT, GT, DOT,
	SEMICOLON, COMMA, COLON, LPAREN, RPAREN, LBRACE, RBRACE, LSBRACE, RSBRACE,
	NUM, STRING, ID,
}

func init() {
	keywords := make([]TokenType, 0, len(Keywords))
	for t := LET; t <= NULL; t++ {
		word := t.String()
		raw := `^` + word + `\b`
		tokenRegexes[t] = newTokenRegex(raw)
		keywords = append(keywords, t)
	}
	tokenPrecedenceOrder = append(keywords, tokenPrecedenceOrder...)
}

// Get the regex pattern for a token type
func (t TokenType) Regex() *regexp.Regexp {
	if regex, ok := tokenRegexes[t]; ok {
		return regex.Pattern
	}

	return nil
}

// Get the raw regex string for a token type
func (t TokenType) RawRegex() string {
	if regex, ok := tokenRegexes[t]; ok {
		return regex.Raw
	}

	return ""
}

// Match the longest token at the start of the string
func MatchToken(s string) (TokenType, string, bool) {
	if s == "" {
		return EOF, "", false
	} else if match := whitespaceRegex.FindString(s); match != "" {
		return EOF, match, true
	} else if match := commentRegex.FindString(s); match != "" {
		return EOF, match, true
	}

	for _, tokenType := range tokenPrecedenceOrder {
		if regex, ok := tokenRegexes[tokenType]; ok {
			if match := regex.Pattern.FindString(s); match != "" {
				return tokenType, match, true
			}
		}
	}

	return ILLEGAL, string(s[0]), false
}

// Check if a byte is a digit
func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
