package lexer_test

import (
	"expresso/pkg/lexer"
	"testing"
)

func TestTokens(t *testing.T) {
	input := "let x : int = 10 / 2;\n" + "while x < 20 {\n" + "	x = x ** 2;\n" + "if (x == 5) {\n" + "		break upto 2;\n" + "	}\n" + "}\nfor i in 0..=3 { s.total = a[i]; }"
	mylexer := lexer.NewLexer(input)

	expectedTokens := []lexer.TokenType{
		lexer.LET, lexer.ID, lexer.COLON, lexer.ID, lexer.ASSIGN, lexer.NUM, lexer.DIV, lexer.NUM, lexer.SEMICOLON,
		lexer.WHILE, lexer.ID, lexer.LT, lexer.NUM, lexer.LBRACE,
		lexer.ID, lexer.ASSIGN, lexer.ID, lexer.POW, lexer.NUM, lexer.SEMICOLON,
		lexer.IF, lexer.LPAREN, lexer.ID, lexer.EQ, lexer.NUM, lexer.RPAREN, lexer.LBRACE,
		lexer.BREAK, lexer.UPTO, lexer.NUM, lexer.SEMICOLON,
		lexer.RBRACE, lexer.RBRACE,
		lexer.FOR, lexer.ID, lexer.IN, lexer.NUM, lexer.RANGE_INCL, lexer.NUM, lexer.LBRACE,
		lexer.ID, lexer.DOT, lexer.ID, lexer.ASSIGN, lexer.ID, lexer.LSBRACE, lexer.ID, lexer.RSBRACE, lexer.SEMICOLON, lexer.RBRACE,
		lexer.EOF,
	}

	for i, expected := range expectedTokens {
		token := mylexer.NextToken()
		if token.Type != expected {
			t.Errorf("Token %d: expected %s, got %s", i, expected, token.Type)
		}
	}
}

func TestKeywordPrefixIsIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected lexer.TokenType
	}{
		{"index", lexer.ID},
		{"in", lexer.IN},
		{"letter", lexer.ID},
		{"try_again", lexer.ID},
		{"_", lexer.ID},
		{"nullable", lexer.ID},
		{"null", lexer.NULL},
	}

	for _, test := range tests {
		tok := lexer.NewLexer(test.input).NextToken()
		if tok.Type != test.expected {
			t.Errorf("Input %q: expected %s, got %s", test.input, test.expected, tok.Type)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	tok := lexer.NewLexer(`"a\tb\"c"`).NextToken()
	if tok.Type != lexer.STRING {
		t.Fatalf("expected string, got %s", tok.Type)
	}
	if tok.Literal != "a\tb\"c" {
		t.Errorf("unexpected literal %q", tok.Literal)
	}
}

func TestUnaryMinusFolding(t *testing.T) {
	l := lexer.NewLexer("x - 1; y = -2; z = [3, -4];")
	var nums []string
	for tok := l.NextToken(); tok.Type != lexer.EOF; tok = l.NextToken() {
		if tok.Type == lexer.NUM {
			nums = append(nums, tok.Literal)
		}
	}

	expected := []string{"1", "-2", "3", "-4"}
	if len(nums) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, nums)
	}
	for i := range expected {
		if nums[i] != expected[i] {
			t.Errorf("number %d: expected %s, got %s", i, expected[i], nums[i])
		}
	}
}
