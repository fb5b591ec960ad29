package binder_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"expresso/pkg/ast"
	"expresso/pkg/binder"
	"expresso/pkg/parser"
)

func bind(t *testing.T, src string, opts ...binder.Option) *ast.Module {
	t.Helper()
	mod, errs := parser.ParseSource(src)
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	if errs := binder.Bind(mod, opts...); len(errs) > 0 {
		t.Fatalf("bind errors: %v", errs)
	}
	return mod
}

type refSnapshot struct {
	Name   string
	Kind   string
	Level  int
	Index  int
	Offset int
	Scope  string
}

func snapshot(mod *ast.Module) []refSnapshot {
	var out []refSnapshot
	ast.Inspect(mod, func(n ast.Node) bool {
		id, ok := n.(*ast.Ident)
		if !ok {
			return true
		}
		s := refSnapshot{Name: id.Name, Offset: -1}
		switch {
		case id.Var != nil:
			s.Kind = "decl"
			s.Offset = id.Var.Offset
			s.Scope = id.Var.Scope.Kind.String()
		case id.Ref != nil:
			s.Kind = id.Ref.Kind.String()
			s.Level = id.Ref.Level
			s.Index = id.Ref.Index
			if id.Ref.Var != nil {
				s.Offset = id.Ref.Var.Offset
				s.Scope = id.Ref.Var.Scope.Kind.String()
			}
		}
		out = append(out, s)
		return true
	})
	return out
}

func TestInnerBlockShadows(t *testing.T) {
	mod := bind(t, "{ let x = 1; { let x = 2; return x; } }")

	outer := mod.Body[0].(*ast.Block)
	inner := outer.Stmts[1].(*ast.Block)
	ret := inner.Stmts[1].(*ast.ReturnStmt)
	use := ret.Value.(*ast.Ident)

	want := inner.Scope.Lookup("x")
	if use.Ref.Var != want {
		t.Fatalf("x resolved to %+v, want the inner declaration", use.Ref.Var)
	}
	if use.Ref.Kind != ast.RefLocal || use.Ref.Level != 0 || want.Offset != 0 {
		t.Errorf("unexpected reference %+v (offset %d)", use.Ref, want.Offset)
	}
	if outer.Scope.Lookup("x").Offset != 0 {
		t.Errorf("outer x should also start at offset 0 of its own scope")
	}
}

func TestBindIsIdempotent(t *testing.T) {
	src := `
let a = 1;
func outer(p, q = p + 1) {
	let b = 2;
	for i in 0..q {
		let inner = func() { return a + b + i; };
	}
	return [x * p for x in [1, 2, 3] if x > a];
}
type Point { x = a, y = 0 }
try { throw Point{x: 1}; } catch e: Point { a = e.x; }
`
	mod := bind(t, src)
	first := snapshot(mod)

	if errs := binder.Bind(mod); len(errs) > 0 {
		t.Fatalf("rebind errors: %v", errs)
	}
	second := snapshot(mod)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("rebinding changed references (-first +second):\n%s", diff)
	}
}

func TestFreeVariables(t *testing.T) {
	mod := bind(t, `
let a = 1;
func outer(p) {
	let b = 2;
	let inner = func() { return a + b + p; };
	return inner;
}
`)
	outerFn := mod.Body[1].(*ast.FuncDecl).Func
	innerFn := outerFn.Body.Stmts[1].(*ast.LetStmt).Value.(*ast.FuncLit)

	if diff := cmp.Diff([]string{"a", "b", "p"}, innerFn.Scope.FreeNames()); diff != "" {
		t.Errorf("inner free variables (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a"}, outerFn.Scope.FreeNames()); diff != "" {
		t.Errorf("outer free variables (-want +got):\n%s", diff)
	}
	if len(mod.Scope.FreeVars) != 0 {
		t.Errorf("module scope cannot have free variables")
	}

	for _, name := range []string{"b", "p"} {
		if v := outerFn.Scope.Lookup(name); !v.Captured {
			t.Errorf("%s should be captured", name)
		}
	}
	if outerFn.Scope.Lookup("inner").Captured {
		t.Errorf("inner is never referenced from a nested function")
	}

	// captures are loaded in the context where the closure is created
	got := map[string]ast.RefKind{}
	for _, c := range innerFn.Scope.Captures {
		got[c.Var.Name] = c.From.Kind
	}
	want := map[string]ast.RefKind{"a": ast.RefFree, "b": ast.RefLocal, "p": ast.RefLocal}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("capture sources (-want +got):\n%s", diff)
	}

	ret := innerFn.Body.Stmts[0].(*ast.ReturnStmt)
	sum := ret.Value.(*ast.BinaryExpr)
	b := sum.Left.(*ast.BinaryExpr).Right.(*ast.Ident)
	if b.Ref.Kind != ast.RefFree || b.Ref.Index != 1 {
		t.Errorf("b inside inner should be free with capture index 1, got %+v", b.Ref)
	}
}

func TestFreeSetExcludesOwnDeclarations(t *testing.T) {
	mod := bind(t, `
let g = 0;
let f = func(x) {
	let y = x;
	{ let z = y + g; }
	return y;
};
`)
	fn := mod.Body[1].(*ast.LetStmt).Value.(*ast.FuncLit)
	if diff := cmp.Diff([]string{"g"}, fn.Scope.FreeNames()); diff != "" {
		t.Errorf("free variables (-want +got):\n%s", diff)
	}

	block := fn.Body.Stmts[1].(*ast.Block)
	if diff := cmp.Diff([]string{"y", "g"}, block.Scope.FreeNames()); diff != "" {
		t.Errorf("block free variables (-want +got):\n%s", diff)
	}
}

func TestOffsetsAndHoisting(t *testing.T) {
	mod := bind(t, `
func f(a, b) {
	let c = g();
	func g() { return a; }
	let d = 2;
	return c + d + b;
}
`)
	fn := mod.Body[0].(*ast.FuncDecl).Func
	got := map[string]int{}
	for _, v := range fn.Scope.Vars {
		got[v.Name] = v.Offset
	}
	want := map[string]int{"a": 0, "b": 1, "g": 2, "c": 3, "d": 4}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("offsets (-want +got):\n%s", diff)
	}
	if fn.Scope.NumParams != 2 {
		t.Errorf("expected 2 params, got %d", fn.Scope.NumParams)
	}
	if len(fn.Scope.Hoisted) != 1 {
		t.Errorf("expected g to be hoisted")
	}
}

func TestMutualRecursion(t *testing.T) {
	mod := bind(t, `
func even(n) { if n == 0 { return true; } return odd(n - 1); }
func odd(n) { if n == 0 { return false; } return even(n - 1); }
`)
	even := mod.Body[0].(*ast.FuncDecl).Func
	if diff := cmp.Diff([]string{"odd"}, even.Scope.FreeNames()); diff != "" {
		t.Errorf("even free variables (-want +got):\n%s", diff)
	}
}

func TestCaptureSurvivesShadowing(t *testing.T) {
	mod := bind(t, "let x = 1; let f = func() { return x; }; let x = 2;")
	fn := mod.Body[1].(*ast.LetStmt).Value.(*ast.FuncLit)

	c := fn.Scope.Captures[0]
	if c.Var.Offset != 0 || c.From.Var != c.Var {
		t.Errorf("capture should load the first x, got offset %d", c.Var.Offset)
	}
	if mod.Scope.Lookup("x").Offset != 2 {
		t.Errorf("the second x should live at offset 2")
	}
}

func TestTypeInference(t *testing.T) {
	mod := bind(t, `
let a = 1;
let b = 1.5;
let c = "s" + "t";
let d = a < 2;
let e = [n for n in 0..3];
type P { x = 0 }
let p = P{};
for i in 0..=3 { }
for s in ["a", "b"] { }
for m in [1, "x"] { }
`)
	want := map[string]string{"a": "int", "b": "float", "c": "string", "d": "bool", "e": "list", "P": "type", "p": "P"}
	for name, typ := range want {
		if got := mod.Scope.Lookup(name).Type; got != typ {
			t.Errorf("%s: expected type %q, got %q", name, typ, got)
		}
	}

	loops := map[int]string{7: "int", 8: "string", 9: ""}
	for idx, typ := range loops {
		loop := mod.Body[idx].(*ast.ForStmt)
		if got := loop.Scope.Lookup(loop.Var.Name).Type; got != typ {
			t.Errorf("loop %d: expected element type %q, got %q", idx, typ, got)
		}
	}

	comp := mod.Body[4].(*ast.LetStmt).Value.(*ast.Comprehension)
	if got := comp.Scope.Lookup("n").Type; got != "int" {
		t.Errorf("comprehension binding: expected int, got %q", got)
	}
}

func TestGlobals(t *testing.T) {
	globals := func(name string) bool { return name == "print" }
	mod := bind(t, "print(1);", binder.WithGlobals(globals))

	call := mod.Body[0].(*ast.ExprStmt).X.(*ast.CallExpr)
	if ref := call.Callee.(*ast.Ident).Ref; ref.Kind != ast.RefGlobal {
		t.Errorf("expected a global reference, got %s", ref.Kind)
	}
}

func TestConstFolding(t *testing.T) {
	mod := bind(t, "const limit = -10; const name = \"x\";")
	if v := mod.Scope.Lookup("limit"); !v.Const || v.ConstValue != int64(-10) {
		t.Errorf("unexpected constant %+v", v)
	}
	if v := mod.Scope.Lookup("name"); v.ConstValue != "x" {
		t.Errorf("unexpected constant value %v", v.ConstValue)
	}
}

func TestDiagnostics(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"return y;", "Undefined variable"},
		{"const x = 1; const x = 2;", "Redeclaration of constant"},
		{"const x = 1; x = 2;", "Cannot assign to constant"},
		{"const x = 1; delete x;", "Cannot assign to constant"},
		{"let x: int = \"s\";", "Type mismatch"},
		{"break;", "Break outside of a loop"},
		{"while true { func f() { continue; } }", "Continue outside of a loop"},
		{"while true { break upto 2; }", "Break exceeds the enclosing loop depth"},
		{"func f() { export let x = 1; }", "Misplaced export"},
		{"{ import m; }", "Misplaced import"},
		{"type T { a, a }", "Redeclaration of field"},
		{"print = 1;", "Cannot assign to global"},
	}

	globals := binder.WithGlobals(func(name string) bool { return name == "print" })
	for _, test := range tests {
		mod, errs := parser.ParseSource(test.input)
		if len(errs) > 0 {
			t.Fatalf("Input %q: parse errors %v", test.input, errs)
		}
		errs = binder.Bind(mod, globals)
		if len(errs) == 0 {
			t.Errorf("Input %q: expected an error", test.input)
			continue
		}
		if !strings.Contains(errs[0], test.expected) {
			t.Errorf("Input %q: expected %q, got %q", test.input, test.expected, errs[0])
		}
	}
}

func TestNestedLoopDepth(t *testing.T) {
	bind(t, "for i in 0..3 { for j in 0..3 { if j > i { break upto 2; } continue upto 2; } }")
}
