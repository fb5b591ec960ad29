package parser_test

import (
	"strings"
	"testing"

	"expresso/pkg/ast"
	"expresso/pkg/parser"
)

func mustParse(t *testing.T, src string) *ast.Module {
	t.Helper()
	mod, errs := parser.ParseSource(src)
	if len(errs) > 0 {
		t.Fatalf("unexpected parse errors for %q: %v", src, errs)
	}
	return mod
}

func TestModuleHeader(t *testing.T) {
	mod := mustParse(t, "module geometry; export const pi = 3.14;")
	if mod.Name != "geometry" {
		t.Errorf("expected module name geometry, got %q", mod.Name)
	}
	let, ok := mod.Body[0].(*ast.LetStmt)
	if !ok {
		t.Fatalf("expected let statement, got %T", mod.Body[0])
	}
	if !let.Exported || let.Kind != ast.DeclConst {
		t.Errorf("expected exported const, got kind=%s exported=%v", let.Kind, let.Exported)
	}
	if f, ok := let.Value.(*ast.FloatLit); !ok || f.Value != 3.14 {
		t.Errorf("expected float literal 3.14, got %#v", let.Value)
	}
}

func TestPrecedence(t *testing.T) {
	mod := mustParse(t, "x = 1 + 2 * 3 ** 2 ** 2;")
	assign := mod.Body[0].(*ast.AssignStmt)

	sum, ok := assign.Value.(*ast.BinaryExpr)
	if !ok || sum.Op != ast.OpAdd {
		t.Fatalf("expected + at the root, got %#v", assign.Value)
	}
	prod := sum.Right.(*ast.BinaryExpr)
	if prod.Op != ast.OpMul {
		t.Fatalf("expected * under +, got %s", prod.Op)
	}
	pow := prod.Right.(*ast.BinaryExpr)
	if pow.Op != ast.OpPow {
		t.Fatalf("expected ** under *, got %s", pow.Op)
	}
	// right associative: 3 ** (2 ** 2)
	if inner, ok := pow.Right.(*ast.BinaryExpr); !ok || inner.Op != ast.OpPow {
		t.Errorf("expected ** to be right associative, got %#v", pow.Right)
	}
}

func TestLogicalAndRange(t *testing.T) {
	mod := mustParse(t, "let ok = not a and b or c; let r = 1 + 1..=n;")

	or := mod.Body[0].(*ast.LetStmt).Value.(*ast.LogicalExpr)
	if or.Op != ast.OpOr {
		t.Fatalf("expected or at the root, got %s", or.Op)
	}
	and := or.Left.(*ast.LogicalExpr)
	if and.Op != ast.OpAnd {
		t.Fatalf("expected and under or, got %s", and.Op)
	}
	if not, ok := and.Left.(*ast.UnaryExpr); !ok || not.Op != ast.OpNot {
		t.Errorf("expected not under and, got %#v", and.Left)
	}

	r := mod.Body[1].(*ast.LetStmt).Value.(*ast.RangeExpr)
	if !r.Inclusive {
		t.Errorf("expected inclusive range")
	}
	if _, ok := r.Start.(*ast.BinaryExpr); !ok {
		t.Errorf("expected range start to be 1 + 1, got %#v", r.Start)
	}
}

func TestFunctionDeclaration(t *testing.T) {
	mod := mustParse(t, "func f(a, b: int = 10): int { return a + b; }")
	decl, ok := mod.Body[0].(*ast.FuncDecl)
	if !ok {
		t.Fatalf("expected func decl, got %T", mod.Body[0])
	}
	fn := decl.Func
	if fn.Name != "f" || len(fn.Params) != 2 || fn.ReturnType != "int" {
		t.Fatalf("unexpected function shape: name=%s params=%d ret=%s", fn.Name, len(fn.Params), fn.ReturnType)
	}
	b := fn.Params[1]
	if b.TypeName != "int" {
		t.Errorf("expected b: int, got %q", b.TypeName)
	}
	if d, ok := b.Default.(*ast.IntLit); !ok || d.Value != 10 {
		t.Errorf("expected default 10, got %#v", b.Default)
	}
	if fn.Params[0].Default != nil {
		t.Errorf("expected no default for a")
	}
}

func TestStructLiteralInCondition(t *testing.T) {
	mod := mustParse(t, `
type Point { x = 0, y = 0 }
if ready { p = Point{x: 2, y: 3}; }
if p == (Point{x: 1}) { }
while ready { }
`)
	td := mod.Body[0].(*ast.TypeDecl)
	if len(td.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(td.Fields))
	}

	ifs := mod.Body[1].(*ast.IfStmt)
	if _, ok := ifs.Cond.(*ast.Ident); !ok {
		t.Fatalf("expected the condition to stop before `{`, got %#v", ifs.Cond)
	}
	assign := ifs.Then.Stmts[0].(*ast.AssignStmt)
	if _, ok := assign.Value.(*ast.StructLit); !ok {
		t.Errorf("expected struct literal inside the body, got %#v", assign.Value)
	}

	eq := mod.Body[2].(*ast.IfStmt).Cond.(*ast.BinaryExpr)
	if _, ok := eq.Right.(*ast.StructLit); !ok {
		t.Errorf("expected parenthesized struct literal in condition, got %#v", eq.Right)
	}

	w := mod.Body[3].(*ast.WhileStmt)
	if len(w.Body.Stmts) != 0 {
		t.Errorf("expected empty while body")
	}
}

func TestStructLiteralFields(t *testing.T) {
	mod := mustParse(t, "let p = Point{x: 1, y: f(2)};")
	lit, ok := mod.Body[0].(*ast.LetStmt).Value.(*ast.StructLit)
	if !ok {
		t.Fatalf("expected struct literal")
	}
	if lit.Type.Name != "Point" || len(lit.Fields) != 2 {
		t.Fatalf("unexpected literal %s with %d fields", lit.Type.Name, len(lit.Fields))
	}
	if _, ok := lit.Field("y").Value.(*ast.CallExpr); !ok {
		t.Errorf("expected call as y value")
	}
}

func TestControlFlowStatements(t *testing.T) {
	mod := mustParse(t, `
for i in 0..3 {
	for j in xs {
		if j > i { break upto 2; } else if j == i { continue; } else { continue upto 2; }
	}
}
try { throw Err{}; } catch e: Err { return 1; } catch other { } finally { log(); }
switch n { case 1, 2 { } case 3..10 { } case _ { } default { } }
delete x;
`)
	outer := mod.Body[0].(*ast.ForStmt)
	inner := outer.Body.Stmts[0].(*ast.ForStmt)
	ifs := inner.Body.Stmts[0].(*ast.IfStmt)
	if brk := ifs.Then.Stmts[0].(*ast.BreakStmt); brk.Count != 2 {
		t.Errorf("expected break upto 2, got %d", brk.Count)
	}
	elif := ifs.Else.(*ast.IfStmt)
	if cont := elif.Then.Stmts[0].(*ast.ContinueStmt); cont.Count != 1 {
		t.Errorf("expected plain continue, got upto %d", cont.Count)
	}

	try := mod.Body[1].(*ast.TryStmt)
	if len(try.Catches) != 2 || try.Finally == nil {
		t.Fatalf("expected two catches and a finally")
	}
	if try.Catches[0].TypeName != "Err" || try.Catches[1].TypeName != "" {
		t.Errorf("unexpected catch types %q, %q", try.Catches[0].TypeName, try.Catches[1].TypeName)
	}

	sw := mod.Body[2].(*ast.SwitchStmt)
	if len(sw.Cases) != 4 {
		t.Fatalf("expected 4 cases, got %d", len(sw.Cases))
	}
	if len(sw.Cases[0].Labels) != 2 {
		t.Errorf("expected two labels in first case")
	}
	if _, ok := sw.Cases[1].Labels[0].(*ast.RangeExpr); !ok {
		t.Errorf("expected range label")
	}
	if _, ok := sw.Cases[2].Labels[0].(*ast.Wildcard); !ok {
		t.Errorf("expected wildcard label")
	}
	if !sw.Cases[3].Default {
		t.Errorf("expected default clause")
	}

	if del := mod.Body[3].(*ast.DeleteStmt); del.Target.Name != "x" {
		t.Errorf("expected delete x")
	}
}

func TestComprehension(t *testing.T) {
	mod := mustParse(t, "let evens = [x * 2 for x in 0..10 if x % 2 == 0]; let xs = [1, 2, 3,];")

	comp, ok := mod.Body[0].(*ast.LetStmt).Value.(*ast.Comprehension)
	if !ok {
		t.Fatalf("expected comprehension")
	}
	if comp.Var.Name != "x" || comp.Cond == nil {
		t.Errorf("unexpected comprehension %#v", comp)
	}

	list := mod.Body[1].(*ast.LetStmt).Value.(*ast.ListLit)
	if len(list.Elems) != 3 {
		t.Errorf("expected 3 elements, got %d", len(list.Elems))
	}
}

func TestPostfixChains(t *testing.T) {
	mod := mustParse(t, "a.b[0](1).c = func(x) { return x; };")
	assign := mod.Body[0].(*ast.AssignStmt)
	member, ok := assign.Target.(*ast.MemberExpr)
	if !ok || member.Name != "c" {
		t.Fatalf("expected .c target, got %#v", assign.Target)
	}
	call := member.X.(*ast.CallExpr)
	index := call.Callee.(*ast.IndexExpr)
	if _, ok := index.X.(*ast.MemberExpr); !ok {
		t.Errorf("expected a.b under index")
	}
	if _, ok := assign.Value.(*ast.FuncLit); !ok {
		t.Errorf("expected function literal value")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"let x = 1\nlet y = 2;", "Missing semicolon"},
		{"let = 4;", "Missing identifier"},
		{"let if = 4;", "Cannot use reserved keyword"},
		{"f(1, 2;", "Missing closing parenthesis"},
		{"let x = ;", "Missing expression"},
		{"if x { y = 1;", "Missing closing brace"},
		{"1 + 2 = 3;", "Invalid assignment target"},
		{"break upto x;", "Expected number"},
		{"try { }", "Try statement needs a catch or finally clause"},
		{"let x = 99999999999999999999;", "out of range"},
		{"const c;", "Missing value for constant c"},
	}

	for _, test := range tests {
		_, errs := parser.ParseSource(test.input)
		if len(errs) == 0 {
			t.Errorf("Input %q: expected an error", test.input)
			continue
		}
		if !strings.Contains(errs[0], test.expected) {
			t.Errorf("Input %q: expected %q, got %q", test.input, test.expected, errs[0])
		}
	}
}

func TestRecoversAfterError(t *testing.T) {
	mod, errs := parser.ParseSource("let = 1; let y = 2;")
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error, got %v", errs)
	}
	if len(mod.Body) != 1 {
		t.Fatalf("expected the second statement to survive, got %d statements", len(mod.Body))
	}
}
