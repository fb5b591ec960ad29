package interpreter_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"expresso/pkg/ast"
	"expresso/pkg/binder"
	"expresso/pkg/interpreter"
	"expresso/pkg/parser"
)

func compile(t *testing.T, it *interpreter.Interpreter, src string) *ast.Module {
	t.Helper()
	mod, errs := parser.ParseSource(src)
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	if errs := binder.Bind(mod, binder.WithGlobals(it.IsGlobal)); len(errs) > 0 {
		t.Fatalf("bind errors: %v", errs)
	}
	return mod
}

func eval(t *testing.T, src string, opts ...interpreter.Option) (interpreter.Value, *interpreter.Interpreter, error) {
	t.Helper()
	it := interpreter.NewInterpreter(opts...)
	v, err := it.Evaluate(compile(t, it, src))
	return v, it, err
}

func mustEval(t *testing.T, src string, opts ...interpreter.Option) interpreter.Value {
	t.Helper()
	v, it, err := eval(t, src, opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.Depth() != 0 || it.Height() > 1 {
		t.Errorf("machine not drained: %d frames, %d operands", it.Depth(), it.Height())
	}
	return v
}

func TestForLoopSum(t *testing.T) {
	v := mustEval(t, "let sum = 0; for i in 0..3 { sum = sum + i; } return sum;")
	if v.Kind != interpreter.KindInt || v.I64 != 3 {
		t.Errorf("expected 3, got %s", v)
	}
}

func TestFinallyRunsOnce(t *testing.T) {
	var out bytes.Buffer
	v := mustEval(t, `
type Err { }
try { throw Err{}; } catch e: Err { return 1; } finally { print("finally"); }
return 2;
`, interpreter.WithWriter(&out))

	if v.I64 != 1 {
		t.Errorf("expected 1, got %s", v)
	}
	if diff := cmp.Diff("finally\n", out.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestFinallyRunsWithoutMatchingCatch(t *testing.T) {
	var out bytes.Buffer
	_, _, err := eval(t, `
type Err { }
type Other { }
try { throw Err{}; } catch e: Other { print("caught"); } finally { print("finally"); }
`, interpreter.WithWriter(&out))

	var uncaught *interpreter.UncaughtError
	if !errors.As(err, &uncaught) || uncaught.TypeName != "Err" {
		t.Fatalf("expected uncaught Err, got %v", err)
	}
	if diff := cmp.Diff("finally\n", out.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestBreakUptoSkipsIfFrames(t *testing.T) {
	v := mustEval(t, `
let hits = 0;
for i in 0..3 {
	for j in 0..3 {
		if j == 1 { if i == 1 { break upto 2; } }
		hits = hits + 1;
	}
}
return hits;
`)
	if v.I64 != 4 {
		t.Errorf("expected 4, got %s", v)
	}
}

func TestContinueUpto(t *testing.T) {
	v := mustEval(t, `
let hits = 0;
for i in 0..3 {
	for j in 0..3 {
		if j == 1 { continue upto 2; }
		hits = hits + 1;
	}
	hits = hits + 100;
}
return hits;
`)
	if v.I64 != 3 {
		t.Errorf("expected 3, got %s", v)
	}
}

func TestDefaultArguments(t *testing.T) {
	v := mustEval(t, `
func f(a, b = 10) { return [a, b]; }
func g(a, b = a * 2) { return b; }
return f(5) + [g(4)];
`)
	if diff := cmp.Diff("[5, 10, 8]", v.String()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestFramePointersIncrease(t *testing.T) {
	var seen []int
	observe := &interpreter.Builtin{
		Name:  "observe",
		Arity: 0,
		Fn: func(i *interpreter.Interpreter, _ []interpreter.Value) (interpreter.Value, error) {
			seen = append(seen, i.FramePointers()...)
			return interpreter.Null, nil
		},
	}

	mustEval(t, `
func down(n) {
	if n == 0 { observe(); return 0; }
	return down(n - 1);
}
return down(3);
`, interpreter.WithBuiltins(interpreter.NewBuiltins(observe)))

	if len(seen) != 4 {
		t.Fatalf("expected 4 active calls, got %v", seen)
	}
	for n := 1; n < len(seen); n++ {
		if seen[n] <= seen[n-1] {
			t.Errorf("frame pointers must grow with depth, got %v", seen)
		}
	}
}

func TestIsEvaluatingRecursiveCall(t *testing.T) {
	var recursive, after ast.Node
	depth := 0
	inside := false
	check := &interpreter.Builtin{
		Name:  "check",
		Arity: 0,
		Fn: func(i *interpreter.Interpreter, _ []interpreter.Value) (interpreter.Value, error) {
			depth = len(i.FramePointers())
			inside = i.IsEvaluating(recursive) && !i.IsEvaluating(after)
			return interpreter.Null, nil
		},
	}

	it := interpreter.NewInterpreter(interpreter.WithBuiltins(interpreter.NewBuiltins(check)))
	mod := compile(t, it, `
func down(n) {
	if n == 0 { check(); return 0; }
	return down(n - 1);
}
let result = down(2);
let after = result;
`)
	ast.Inspect(mod.Body[0], func(n ast.Node) bool {
		if call, ok := n.(*ast.CallExpr); ok {
			if id, ok := call.Callee.(*ast.Ident); ok && id.Name == "down" {
				recursive = call
			}
		}
		return true
	})
	after = mod.Body[2]
	if recursive == nil {
		t.Fatalf("recursive call not found")
	}

	if _, err := it.Evaluate(mod); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if depth <= 1 {
		t.Errorf("expected nested calls, got depth %d", depth)
	}
	if !inside {
		t.Errorf("expected the recursive call to be evaluating and the later statement not")
	}
	if it.IsEvaluating(recursive) {
		t.Errorf("no node is evaluating once the module completes")
	}
}

func TestSelfReferentialContainers(t *testing.T) {
	var out bytes.Buffer
	v := mustEval(t, `
type Node { next = null }
let a = [0];
a[0] = a;
let b = [0];
b[0] = b;
let n = Node{};
n.next = n;
print(a, n);
return [a == a, a == b, n == n, a == [a], [a, 1] == [a, 2], str(a)];
`, interpreter.WithWriter(&out))

	if diff := cmp.Diff(`[true, true, true, true, false, "[[...]]"]`, v.String()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("[[...]] Node{next: Node{...}}\n", out.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestSharedContainersRenderInFull(t *testing.T) {
	v := mustEval(t, "let xs = [1]; return [xs, xs];")
	if diff := cmp.Diff("[[1], [1]]", v.String()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestHugeRanges(t *testing.T) {
	v := mustEval(t, `
let r = 0..=9223372036854775807;
return [len(1..=9223372036854775807), r[9223372036854775807], len(5..=4), len(5..5)];
`)
	if diff := cmp.Diff("[9223372036854775807, 9223372036854775807, 0, 0]", v.String()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	_, _, err := eval(t, "return len(0..=9223372036854775807);")
	var uncaught *interpreter.UncaughtError
	if !errors.As(err, &uncaught) || uncaught.TypeName != "ValueError" {
		t.Errorf("expected a ValueError, got %v", err)
	}
}

func TestPowerResultTooLarge(t *testing.T) {
	tests := []string{
		"2 ** -3000000000;",
		"(1 / 3) ** 100000000;",
		"(2 / 3) ** -9223372036854775807;",
	}

	for _, src := range tests {
		v := mustEval(t, "try { "+src+" } catch e: ArithmeticError { return e.message; } return null;")
		if v.Kind != interpreter.KindString || !strings.Contains(v.Str, "too large") {
			t.Errorf("Input %q: expected a result too large error, got %s", src, v)
		}
	}

	if v := mustEval(t, "return [2 ** -20, 1 ** -3000000000, (-1) ** 3000000001];"); v.String() != "[1/1048576, 1, -1]" {
		t.Errorf("expected small powers to succeed, got %s", v)
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"return 1 + 2 * 3;", "7"},
		{"return 7 / 2;", "7/2"},
		{"return 8 / 2;", "4"},
		{"return 1 / 2 + 1 / 2;", "1"},
		{"return -7 % 3;", "2"},
		{"return 2 ** 10;", "1024"},
		{"return 2 ** -2;", "1/4"},
		{"return 1.5 + 1;", "2.5"},
		{"return 3.0;", "3.0"},
		{"return \"ab\" * 3;", "ababab"},
		{"return \"a\" + \"b\";", "ab"},
		{"return 1 == 1.0;", "true"},
		{"return 1 / 2 == 0.5;", "true"},
		{"return 1 < 2 and not false;", "true"},
		{"return [1] + [2, 3];", "[1, 2, 3]"},
	}

	for _, test := range tests {
		v := mustEval(t, test.input)
		if got := v.String(); got != test.expected {
			t.Errorf("Input %q: expected %s, got %s", test.input, test.expected, got)
		}
	}
}

func TestArithmeticErrorsAreCatchable(t *testing.T) {
	tests := []string{
		"1 / 0;",
		"1 % 0;",
		"9223372036854775807 + 1;",
		"-9223372036854775807 - 2;",
	}

	for _, src := range tests {
		v := mustEval(t, "try { "+src+" } catch e: ArithmeticError { return e.message; } return null;")
		if v.Kind != interpreter.KindString || v.Str == "" {
			t.Errorf("Input %q: expected an ArithmeticError message, got %s", src, v)
		}
	}
}

func TestRuntimeErrorTypes(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"let xs = [1]; return xs[3];", "IndexError"},
		{"return int(\"nope\");", "ValueError"},
		{"assert(false, \"boom\");", "AssertionError"},
	}

	for _, test := range tests {
		_, _, err := eval(t, test.input)
		var uncaught *interpreter.UncaughtError
		if !errors.As(err, &uncaught) {
			t.Errorf("Input %q: expected an uncaught error, got %v", test.input, err)
			continue
		}
		if uncaught.TypeName != test.expected {
			t.Errorf("Input %q: expected %s, got %s", test.input, test.expected, uncaught.TypeName)
		}
	}
}

func TestCatchHonorsExtends(t *testing.T) {
	v := mustEval(t, `
type Base { code = 1 }
type Derived extends Base { detail = 2 }
try {
	throw Derived{};
} catch e: Base {
	return e.detail;
}
`)
	if v.I64 != 2 {
		t.Errorf("expected 2, got %s", v)
	}

	v = mustEval(t, "try { 1 / 0; } catch e: Error { return typeof(e); }")
	if v.Str != "ArithmeticError" {
		t.Errorf("expected builtin errors to extend Error, got %s", v)
	}
}

func TestClosures(t *testing.T) {
	v := mustEval(t, `
func counter() {
	let n = 0;
	return func() { n = n + 1; return n; };
}
let c = counter();
let d = counter();
c(); c();
return [c(), d()];
`)
	if diff := cmp.Diff("[3, 1]", v.String()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestLoopVariablesAreFreshPerIteration(t *testing.T) {
	v := mustEval(t, `
let fs = [];
for i in 0..3 { fs = append(fs, func() { return i; }); }
return [f() for f in fs];
`)
	if diff := cmp.Diff("[0, 1, 2]", v.String()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestMutualRecursion(t *testing.T) {
	v := mustEval(t, `
func even(n) { if n == 0 { return true; } return odd(n - 1); }
func odd(n) { if n == 0 { return false; } return even(n - 1); }
return [even(10), odd(7)];
`)
	if diff := cmp.Diff("[true, true]", v.String()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestSwitch(t *testing.T) {
	src := `
func kind(n) {
	switch n {
		case 1, 2 { return "small"; }
		case 3..10 { return "medium"; }
		case "x" { return "letter"; }
		default { return "other"; }
	}
}
func wild(n) { switch n { case _ { return "any"; } } }
return [kind(2), kind(9), kind(10), kind("x"), wild(null)];
`
	v := mustEval(t, src)
	want := `["small", "medium", "other", "letter", "any"]`
	if diff := cmp.Diff(want, v.String()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestStructs(t *testing.T) {
	v := mustEval(t, `
type Point { x = 0, y = x + 1 }
type Point3 extends Point { z = 2 }
let p = Point3{x: 4};
p.y = p.y + 1;
return [p.x, p.y, p.z, typeof(p)];
`)
	if diff := cmp.Diff(`[4, 6, 2, "Point3"]`, v.String()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestComprehensionAndStrings(t *testing.T) {
	v := mustEval(t, `
let evens = [x * 2 for x in 0..=4 if x % 2 == 0];
let letters = [c for c in "héllo" if c != "l"];
return [evens, letters, len("héllo")];
`)
	if diff := cmp.Diff(`[[0, 4, 8], ["h", "é", "o"], 5]`, v.String()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestWhileAndDelete(t *testing.T) {
	v := mustEval(t, `
let n = 0;
while n < 5 { n = n + 1; }
let x = 1;
delete x;
return [n, x];
`)
	if diff := cmp.Diff("[5, null]", v.String()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestFaults(t *testing.T) {
	tests := []struct {
		input    string
		expected error
	}{
		{"if 1 { }", interpreter.ErrInvalidType},
		{"let x = 1; x();", interpreter.ErrInvalidType},
		{"return 1 + \"a\";", interpreter.ErrInvalidType},
		{"import missing;", interpreter.ErrImport},
		{"let T = 1; let t = T{};", interpreter.ErrMissingType},
		{"type A extends A { }", interpreter.ErrInvalidType},
		{"func f(n) { return f(n + 1); } f(0);", interpreter.ErrStackOverflow},
	}

	for _, test := range tests {
		_, it, err := eval(t, test.input, interpreter.WithMaxStack(512))
		if !errors.Is(err, test.expected) {
			t.Errorf("Input %q: expected %v, got %v", test.input, test.expected, err)
		}
		if it.Depth() != 0 || it.Height() != 0 {
			t.Errorf("Input %q: machine not cleared after a fault", test.input)
		}
	}
}

func TestFaultsAreNotCatchable(t *testing.T) {
	_, _, err := eval(t, "try { if 1 { } } catch e { return 1; }")
	if !errors.Is(err, interpreter.ErrInvalidType) {
		t.Errorf("expected InvalidType fault, got %v", err)
	}
}

func TestMaxSteps(t *testing.T) {
	_, _, err := eval(t, "while true { }", interpreter.WithMaxSteps(1000))
	if !errors.Is(err, interpreter.ErrMaxStepsExceeded) {
		t.Errorf("expected ErrMaxStepsExceeded, got %v", err)
	}
}

func TestUncaughtErrorMessage(t *testing.T) {
	_, _, err := eval(t, "throw ValueError{message: \"bad input\"};")
	if err == nil || !strings.Contains(err.Error(), "uncaught ValueError: bad input") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestModuleRecordAndImport(t *testing.T) {
	it := interpreter.NewInterpreter()
	lib := compile(t, it, `
module geometry;
export const pi = 3;
export func area(r) { return pi * r * r; }
let hidden = 1;
`)
	if _, err := it.Evaluate(lib); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := it.Record()
	if _, ok := rec.Export("hidden"); ok {
		t.Errorf("hidden must not be exported")
	}
	if v, ok := rec.Export("pi"); !ok || v.I64 != 3 {
		t.Errorf("expected exported pi = 3, got %s", v)
	}
	it.Publish("geometry", rec)

	v, err := it.Evaluate(compile(t, it, "import geometry; return geometry.area(2);"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.I64 != 12 {
		t.Errorf("expected 12, got %s", v)
	}

	_, err = it.Evaluate(compile(t, it, "import geometry; return geometry.hidden;"))
	if !errors.Is(err, interpreter.ErrReference) {
		t.Errorf("expected a reference fault, got %v", err)
	}
}

func TestDefinedGlobals(t *testing.T) {
	it := interpreter.NewInterpreter()
	it.Define("answer", interpreter.NewInt(42))

	v, err := it.Evaluate(compile(t, it, "return answer + 1;"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.I64 != 43 {
		t.Errorf("expected 43, got %s", v)
	}
}
