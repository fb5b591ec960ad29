package parser

import (
	"fmt"
	"strconv"
	"strings"

	"expresso/pkg/ast"
	"expresso/pkg/lexer"
)

// parseExpression is the Pratt loop: a prefix function for the current
// token, then infix functions while the next operator binds tighter.
func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.currentToken.Type]
	if prefix == nil {
		p.handleNonTerminalError("Expr")
		return nil
	}
	left := prefix()
	if left == nil {
		return nil
	}

	for precedence < p.curPrecedence() {
		infix := p.infixParseFns[p.currentToken.Type]
		if infix == nil {
			return left
		}
		left = infix(left)
		if left == nil {
			return nil
		}
	}

	return left
}

// parseHeadExpression parses a condition or iterable in front of a block.
func (p *Parser) parseHeadExpression() ast.Expression {
	p.noStructLit++
	defer func() { p.noStructLit-- }()
	return p.parseExpression(LOWEST)
}

// parseNested parses an expression inside brackets, where struct
// literals are allowed again.
func (p *Parser) parseNested(precedence int) ast.Expression {
	saved := p.noStructLit
	p.noStructLit = 0
	defer func() { p.noStructLit = saved }()
	return p.parseExpression(precedence)
}

func (p *Parser) parseIdentifier() ast.Expression {
	tok := p.currentToken
	p.nextToken()
	return &ast.Ident{Base: ast.Base{At: tok.Pos}, Name: tok.Literal}
}

func (p *Parser) parseNumber() ast.Expression {
	tok := p.currentToken
	p.nextToken()

	if strings.ContainsAny(tok.Literal, ".eE") {
		f, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.addError(fmt.Sprintf("Invalid number %q", tok.Literal))
			return nil
		}
		return &ast.FloatLit{Base: ast.Base{At: tok.Pos}, Value: f}
	}

	i, err := strconv.ParseInt(tok.Literal, 10, 64)
	if err != nil {
		p.addError(fmt.Sprintf("Integer literal %s out of range", tok.Literal))
		return nil
	}
	return &ast.IntLit{Base: ast.Base{At: tok.Pos}, Value: i}
}

func (p *Parser) parseString() ast.Expression {
	tok := p.currentToken
	p.nextToken()
	return &ast.StringLit{Base: ast.Base{At: tok.Pos}, Value: tok.Literal}
}

func (p *Parser) parseBoolean() ast.Expression {
	tok := p.currentToken
	p.nextToken()
	return &ast.BoolLit{Base: ast.Base{At: tok.Pos}, Value: tok.Type == lexer.TRUE}
}

func (p *Parser) parseNull() ast.Expression {
	tok := p.currentToken
	p.nextToken()
	return &ast.NullLit{Base: ast.Base{At: tok.Pos}}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	tok := p.currentToken
	p.nextToken()

	op, precedence := ast.OpNeg, PREFIX
	if tok.Type == lexer.NOT {
		op, precedence = ast.OpNot, NOT
	}

	x := p.parseExpression(precedence)
	if x == nil {
		return nil
	}
	return &ast.UnaryExpr{Base: ast.Base{At: tok.Pos}, Op: op, X: x}
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()
	x := p.parseNested(LOWEST)
	if _, ok := p.expect(lexer.RPAREN); !ok {
		return nil
	}
	return x
}

// parseListLiteral parses `[a, b]` and `[e for x in xs if c]`.
func (p *Parser) parseListLiteral() ast.Expression {
	b := p.base()
	p.nextToken()

	if p.accept(lexer.RSBRACE) {
		return &ast.ListLit{Base: b}
	}

	first := p.parseNested(LOWEST)
	if first == nil {
		return nil
	}

	if p.accept(lexer.FOR) {
		comp := &ast.Comprehension{Base: b, Elem: first}
		name, ok := p.expectIdentifier()
		if !ok {
			return nil
		}
		comp.Var = name
		if _, ok := p.expect(lexer.IN); !ok {
			return nil
		}
		if comp.Iter = p.parseNested(LOWEST); comp.Iter == nil {
			return nil
		}
		if p.accept(lexer.IF) {
			if comp.Cond = p.parseNested(LOWEST); comp.Cond == nil {
				return nil
			}
		}
		if _, ok := p.expect(lexer.RSBRACE); !ok {
			return nil
		}
		return comp
	}

	list := &ast.ListLit{Base: b, Elems: []ast.Expression{first}}
	for p.accept(lexer.COMMA) {
		if p.curTokenIs(lexer.RSBRACE) {
			break
		}
		e := p.parseNested(LOWEST)
		if e == nil {
			return nil
		}
		list.Elems = append(list.Elems, e)
	}
	if _, ok := p.expect(lexer.RSBRACE); !ok {
		return nil
	}
	return list
}

func (p *Parser) parseFunctionLiteral() ast.Expression {
	b := p.base()
	p.nextToken()
	if fn := p.parseFunctionRest(b, ""); fn != nil {
		return fn
	}
	return nil
}

// parseFunctionRest parses `(params) [: type] { body }`.
func (p *Parser) parseFunctionRest(b ast.Base, name string) *ast.FuncLit {
	fn := &ast.FuncLit{Base: b, Name: name}

	if _, ok := p.expect(lexer.LPAREN); !ok {
		return nil
	}
	for !p.curTokenIs(lexer.RPAREN) {
		param := &ast.Param{Base: p.base()}
		id, ok := p.expectIdentifier()
		if !ok {
			return nil
		}
		param.Name = id
		if p.accept(lexer.COLON) {
			if param.TypeName, ok = p.parseTypeName(); !ok {
				return nil
			}
		}
		if p.accept(lexer.ASSIGN) {
			if param.Default = p.parseNested(LOWEST); param.Default == nil {
				return nil
			}
		}
		fn.Params = append(fn.Params, param)
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	if _, ok := p.expect(lexer.RPAREN); !ok {
		return nil
	}

	if p.accept(lexer.COLON) {
		var ok bool
		if fn.ReturnType, ok = p.parseTypeName(); !ok {
			return nil
		}
	}

	saved := p.noStructLit
	p.noStructLit = 0
	fn.Body = p.parseBlock()
	p.noStructLit = saved
	if fn.Body == nil {
		return nil
	}
	return fn
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	tok := p.currentToken
	op, _ := ast.GetLexOperator(tok.Type)
	precedence := p.curPrecedence()
	p.nextToken()

	// ** is right associative
	if op == ast.OpPow {
		precedence--
	}

	right := p.parseExpression(precedence)
	if right == nil {
		return nil
	}
	return &ast.BinaryExpr{Base: ast.Base{At: tok.Pos}, Op: op, Left: left, Right: right}
}

func (p *Parser) parseLogicalExpression(left ast.Expression) ast.Expression {
	tok := p.currentToken
	op, _ := ast.GetLexOperator(tok.Type)
	precedence := p.curPrecedence()
	p.nextToken()

	right := p.parseExpression(precedence)
	if right == nil {
		return nil
	}
	return &ast.LogicalExpr{Base: ast.Base{At: tok.Pos}, Op: op, Left: left, Right: right}
}

func (p *Parser) parseRangeExpression(left ast.Expression) ast.Expression {
	tok := p.currentToken
	p.nextToken()

	end := p.parseExpression(RANGE)
	if end == nil {
		return nil
	}
	return &ast.RangeExpr{
		Base:      ast.Base{At: tok.Pos},
		Start:     left,
		End:       end,
		Inclusive: tok.Type == lexer.RANGE_INCL,
	}
}

func (p *Parser) parseCallExpression(callee ast.Expression) ast.Expression {
	call := &ast.CallExpr{Base: p.base(), Callee: callee}
	p.nextToken()

	for !p.curTokenIs(lexer.RPAREN) {
		arg := p.parseNested(LOWEST)
		if arg == nil {
			return nil
		}
		call.Args = append(call.Args, arg)
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	if _, ok := p.expect(lexer.RPAREN); !ok {
		return nil
	}
	return call
}

func (p *Parser) parseIndexExpression(x ast.Expression) ast.Expression {
	b := p.base()
	p.nextToken()

	index := p.parseNested(LOWEST)
	if index == nil {
		return nil
	}
	if _, ok := p.expect(lexer.RSBRACE); !ok {
		return nil
	}
	return &ast.IndexExpr{Base: b, X: x, Index: index}
}

func (p *Parser) parseMemberExpression(x ast.Expression) ast.Expression {
	b := p.base()
	p.nextToken()

	name, ok := p.expect(lexer.ID)
	if !ok {
		return nil
	}
	return &ast.MemberExpr{Base: b, X: x, Name: name.Literal}
}

// parseStructLiteral parses `Type{field: value, ...}`.
func (p *Parser) parseStructLiteral(left ast.Expression) ast.Expression {
	typ, ok := left.(*ast.Ident)
	if !ok {
		p.addError("Struct literal requires a type name")
		return nil
	}
	lit := &ast.StructLit{Base: typ.Base, Type: typ}
	p.nextToken()

	for !p.curTokenIs(lexer.RBRACE) {
		b := p.base()
		name, ok := p.expect(lexer.ID)
		if !ok {
			return nil
		}
		if _, ok := p.expect(lexer.COLON); !ok {
			return nil
		}
		value := p.parseNested(LOWEST)
		if value == nil {
			return nil
		}
		if lit.Field(name.Literal) != nil {
			p.addError(fmt.Sprintf("Duplicate field %s in struct literal", name.Literal))
			return nil
		}
		lit.Fields = append(lit.Fields, &ast.FieldInit{Base: b, Name: name.Literal, Value: value})
		if !p.accept(lexer.COMMA) {
			break
		}
	}
	if _, ok := p.expect(lexer.RBRACE); !ok {
		return nil
	}
	return lit
}

func (p *Parser) expectIdentifier() (*ast.Ident, bool) {
	tok, ok := p.expect(lexer.ID)
	if !ok {
		return nil, false
	}
	return &ast.Ident{Base: ast.Base{At: tok.Pos}, Name: tok.Literal}, true
}

// parseTypeName parses a type annotation; `func` and `null` are accepted
// as names even though they are keywords.
func (p *Parser) parseTypeName() (string, bool) {
	switch p.currentToken.Type {
	case lexer.FUNC, lexer.NULL, lexer.TYPE:
		name := p.currentToken.Lexeme
		p.nextToken()
		return name, true
	}
	tok, ok := p.expect(lexer.ID)
	return tok.Literal, ok
}
