package parser

import (
	"fmt"
	"strconv"

	"expresso/pkg/ast"
	"expresso/pkg/lexer"
)

func (p *Parser) parseStatement() ast.Statement {
	switch p.currentToken.Type {
	case lexer.LET, lexer.VAR, lexer.CONST:
		return p.parseLetStatement()
	case lexer.FUNC:
		if p.peekTokenIs(lexer.ID) {
			return p.parseFuncDecl()
		}
	case lexer.TYPE:
		return p.parseTypeDecl()
	case lexer.EXPORT:
		return p.parseExport()
	case lexer.IMPORT:
		return p.parseImport()
	case lexer.IF:
		return p.parseIfStatement()
	case lexer.WHILE:
		return p.parseWhileStatement()
	case lexer.FOR:
		return p.parseForStatement()
	case lexer.BREAK, lexer.CONTINUE:
		return p.parseJump()
	case lexer.RETURN:
		return p.parseReturn()
	case lexer.THROW:
		return p.parseThrow()
	case lexer.TRY:
		return p.parseTry()
	case lexer.SWITCH:
		return p.parseSwitch()
	case lexer.DELETE:
		return p.parseDelete()
	case lexer.LBRACE:
		if block := p.parseBlock(); block != nil {
			return block
		}
		return nil
	case lexer.SEMICOLON:
		p.nextToken()
		return nil
	}

	return p.parseSimpleStatement()
}

// parseBlock parses `{ stmt* }`
func (p *Parser) parseBlock() *ast.Block {
	block := &ast.Block{Base: p.base()}
	if _, ok := p.expect(lexer.LBRACE); !ok {
		return nil
	}

	for !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		before := len(p.errors)
		if stmt := p.parseStatement(); stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
		if len(p.errors) > before {
			return nil
		}
	}

	if _, ok := p.expect(lexer.RBRACE); !ok {
		return nil
	}
	return block
}

func (p *Parser) parseLetStatement() ast.Statement {
	stmt := &ast.LetStmt{Base: p.base()}
	switch p.currentToken.Type {
	case lexer.VAR:
		stmt.Kind = ast.DeclVar
	case lexer.CONST:
		stmt.Kind = ast.DeclConst
	default:
		stmt.Kind = ast.DeclLet
	}
	p.nextToken()

	name, ok := p.expectIdentifier()
	if !ok {
		return nil
	}
	stmt.Name = name

	if p.accept(lexer.COLON) {
		if stmt.TypeName, ok = p.parseTypeName(); !ok {
			return nil
		}
	}

	if p.accept(lexer.ASSIGN) {
		if stmt.Value = p.parseExpression(LOWEST); stmt.Value == nil {
			return nil
		}
	} else if stmt.Kind == ast.DeclConst {
		p.addError(fmt.Sprintf("Missing value for constant %s", name.Name))
		return nil
	}

	if _, ok := p.expect(lexer.SEMICOLON); !ok {
		return nil
	}
	return stmt
}

func (p *Parser) parseFuncDecl() ast.Statement {
	decl := &ast.FuncDecl{Base: p.base()}
	p.nextToken()

	name, ok := p.expectIdentifier()
	if !ok {
		return nil
	}
	decl.Name = name

	if decl.Func = p.parseFunctionRest(decl.Base, name.Name); decl.Func == nil {
		return nil
	}
	return decl
}

// parseTypeDecl parses `type Name [extends Base] { field [: T] [= default], ... }`
func (p *Parser) parseTypeDecl() ast.Statement {
	decl := &ast.TypeDecl{Base: p.base()}
	p.nextToken()

	name, ok := p.expectIdentifier()
	if !ok {
		return nil
	}
	decl.Name = name

	if p.accept(lexer.EXTENDS) {
		if decl.Extends, ok = p.expectIdentifier(); !ok {
			return nil
		}
	}

	if _, ok := p.expect(lexer.LBRACE); !ok {
		return nil
	}
	for !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		field := &ast.Field{Base: p.base()}
		if field.Name, ok = p.expectIdentifier(); !ok {
			return nil
		}
		if p.accept(lexer.COLON) {
			if field.TypeName, ok = p.parseTypeName(); !ok {
				return nil
			}
		}
		if p.accept(lexer.ASSIGN) {
			if field.Default = p.parseNested(LOWEST); field.Default == nil {
				return nil
			}
		}
		decl.Fields = append(decl.Fields, field)

		if !p.accept(lexer.COMMA) && !p.accept(lexer.SEMICOLON) {
			break
		}
	}
	if _, ok := p.expect(lexer.RBRACE); !ok {
		return nil
	}
	return decl
}

func (p *Parser) parseExport() ast.Statement {
	p.nextToken()

	switch p.currentToken.Type {
	case lexer.LET, lexer.VAR, lexer.CONST:
		if stmt, ok := p.parseLetStatement().(*ast.LetStmt); ok && stmt != nil {
			stmt.Exported = true
			return stmt
		}
	case lexer.FUNC:
		if stmt, ok := p.parseFuncDecl().(*ast.FuncDecl); ok && stmt != nil {
			stmt.Exported = true
			return stmt
		}
	case lexer.TYPE:
		if stmt, ok := p.parseTypeDecl().(*ast.TypeDecl); ok && stmt != nil {
			stmt.Exported = true
			return stmt
		}
	default:
		p.addError("Only declarations can be exported")
	}
	return nil
}

func (p *Parser) parseImport() ast.Statement {
	stmt := &ast.ImportStmt{Base: p.base()}
	p.nextToken()

	name, ok := p.expectIdentifier()
	if !ok {
		return nil
	}
	stmt.Name = name

	if _, ok := p.expect(lexer.SEMICOLON); !ok {
		return nil
	}
	return stmt
}

func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.IfStmt{Base: p.base()}
	p.nextToken()

	if stmt.Cond = p.parseHeadExpression(); stmt.Cond == nil {
		return nil
	}
	if stmt.Then = p.parseBlock(); stmt.Then == nil {
		return nil
	}

	if p.accept(lexer.ELSE) {
		if p.curTokenIs(lexer.IF) {
			elif, ok := p.parseIfStatement().(*ast.IfStmt)
			if !ok || elif == nil {
				return nil
			}
			stmt.Else = elif
		} else {
			els := p.parseBlock()
			if els == nil {
				return nil
			}
			stmt.Else = els
		}
	}
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStmt{Base: p.base()}
	p.nextToken()

	if stmt.Cond = p.parseHeadExpression(); stmt.Cond == nil {
		return nil
	}
	if stmt.Body = p.parseBlock(); stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseForStatement() ast.Statement {
	stmt := &ast.ForStmt{Base: p.base()}
	p.nextToken()

	v, ok := p.expectIdentifier()
	if !ok {
		return nil
	}
	stmt.Var = v

	if _, ok := p.expect(lexer.IN); !ok {
		return nil
	}
	if stmt.Iter = p.parseHeadExpression(); stmt.Iter == nil {
		return nil
	}
	if stmt.Body = p.parseBlock(); stmt.Body == nil {
		return nil
	}
	return stmt
}

// parseJump parses `break [upto N];` and `continue [upto N];`
func (p *Parser) parseJump() ast.Statement {
	tok := p.currentToken
	p.nextToken()

	count := 1
	if p.accept(lexer.UPTO) {
		num, ok := p.expect(lexer.NUM)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(num.Literal)
		if err != nil || n < 1 {
			p.addError(fmt.Sprintf("Invalid loop count %s after upto", num.Lexeme))
			return nil
		}
		count = n
	}

	if _, ok := p.expect(lexer.SEMICOLON); !ok {
		return nil
	}

	b := ast.Base{At: tok.Pos}
	if tok.Type == lexer.BREAK {
		return &ast.BreakStmt{Base: b, Count: count}
	}
	return &ast.ContinueStmt{Base: b, Count: count}
}

func (p *Parser) parseReturn() ast.Statement {
	stmt := &ast.ReturnStmt{Base: p.base()}
	p.nextToken()

	if !p.curTokenIs(lexer.SEMICOLON) {
		if stmt.Value = p.parseExpression(LOWEST); stmt.Value == nil {
			return nil
		}
	}
	if _, ok := p.expect(lexer.SEMICOLON); !ok {
		return nil
	}
	return stmt
}

func (p *Parser) parseThrow() ast.Statement {
	stmt := &ast.ThrowStmt{Base: p.base()}
	p.nextToken()

	if stmt.Value = p.parseExpression(LOWEST); stmt.Value == nil {
		return nil
	}
	if _, ok := p.expect(lexer.SEMICOLON); !ok {
		return nil
	}
	return stmt
}

// parseTry parses `try {} catch e [: T] {} ... [finally {}]`
func (p *Parser) parseTry() ast.Statement {
	stmt := &ast.TryStmt{Base: p.base()}
	p.nextToken()

	if stmt.Body = p.parseBlock(); stmt.Body == nil {
		return nil
	}

	for p.curTokenIs(lexer.CATCH) {
		clause := &ast.CatchClause{Base: p.base()}
		p.nextToken()

		var ok bool
		if clause.Name, ok = p.expectIdentifier(); !ok {
			return nil
		}
		if p.accept(lexer.COLON) {
			typ, ok := p.expect(lexer.ID)
			if !ok {
				return nil
			}
			clause.TypeName = typ.Literal
		}
		if clause.Body = p.parseBlock(); clause.Body == nil {
			return nil
		}
		stmt.Catches = append(stmt.Catches, clause)
	}

	if p.accept(lexer.FINALLY) {
		if stmt.Finally = p.parseBlock(); stmt.Finally == nil {
			return nil
		}
	}

	if len(stmt.Catches) == 0 && stmt.Finally == nil {
		p.addError("Try statement needs a catch or finally clause")
		return nil
	}
	return stmt
}

// parseSwitch parses `switch x { case a, b {} default {} }`
func (p *Parser) parseSwitch() ast.Statement {
	stmt := &ast.SwitchStmt{Base: p.base()}
	p.nextToken()

	if stmt.Subject = p.parseHeadExpression(); stmt.Subject == nil {
		return nil
	}
	if _, ok := p.expect(lexer.LBRACE); !ok {
		return nil
	}

	seenDefault := false
	for !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		clause := &ast.CaseClause{Base: p.base()}

		switch {
		case p.accept(lexer.DEFAULT):
			if seenDefault {
				p.addError("Multiple default clauses in switch")
				return nil
			}
			seenDefault = true
			clause.Default = true
		case p.accept(lexer.CASE):
			for {
				label := p.parseCaseLabel()
				if label == nil {
					return nil
				}
				clause.Labels = append(clause.Labels, label)
				if !p.accept(lexer.COMMA) {
					break
				}
			}
		default:
			p.addContextualError("case")
			return nil
		}

		if clause.Body = p.parseBlock(); clause.Body == nil {
			return nil
		}
		stmt.Cases = append(stmt.Cases, clause)
	}

	if _, ok := p.expect(lexer.RBRACE); !ok {
		return nil
	}
	return stmt
}

// parseCaseLabel parses one label; a bare `_` matches anything.
func (p *Parser) parseCaseLabel() ast.Expression {
	if p.curTokenIs(lexer.ID) && p.currentToken.Literal == "_" {
		b := p.base()
		p.nextToken()
		return &ast.Wildcard{Base: b}
	}
	return p.parseHeadExpression()
}

func (p *Parser) parseDelete() ast.Statement {
	stmt := &ast.DeleteStmt{Base: p.base()}
	p.nextToken()

	target, ok := p.expectIdentifier()
	if !ok {
		return nil
	}
	stmt.Target = target

	if _, ok := p.expect(lexer.SEMICOLON); !ok {
		return nil
	}
	return stmt
}

// parseSimpleStatement parses an expression statement or an assignment.
func (p *Parser) parseSimpleStatement() ast.Statement {
	b := p.base()

	x := p.parseExpression(LOWEST)
	if x == nil {
		return nil
	}

	var stmt ast.Statement = &ast.ExprStmt{Base: b, X: x}
	if p.curTokenIs(lexer.ASSIGN) {
		switch x.(type) {
		case *ast.Ident, *ast.IndexExpr, *ast.MemberExpr:
		default:
			p.addError("Invalid assignment target")
			return nil
		}
		p.nextToken()

		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil
		}
		stmt = &ast.AssignStmt{Base: b, Target: x, Value: value}
	}

	if _, ok := p.expect(lexer.SEMICOLON); !ok {
		return nil
	}
	return stmt
}
