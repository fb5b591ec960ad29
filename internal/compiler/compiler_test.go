package compiler

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"expresso/internal/logger"
	"expresso/pkg/interpreter"
)

func newCompiler(t *testing.T, dirs ...string) (*Compiler, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	return &Compiler{
		ShouldInterpret: true,
		SearchPaths:     dirs,
		MaxStack:        interpreter.DefaultMaxStack,
		Stdout:          &stdout,
		Stderr:          &stderr,
		Logger:          logger.New(&stderr, false, true),
	}, &stdout, &stderr
}

func writeModule(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name+SourceExt)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestCompileRunsFile(t *testing.T) {
	dir := t.TempDir()
	c, stdout, _ := newCompiler(t)
	c.SourceFile = writeModule(t, dir, "main", `
let total = 0;
for i in 0..=4 { total = total + i; }
print("total", total);
`)

	if err := c.Compile(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff("total 10\n", stdout.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestImportsLoadDependenciesFirst(t *testing.T) {
	dir := t.TempDir()
	lib := t.TempDir()
	writeModule(t, lib, "shapes", `
module shapes;
import units;
export func square(n) { return units.scale * n * n; }
`)
	writeModule(t, lib, "units", `
module units;
print("loading units");
export const scale = 2;
`)

	c, stdout, _ := newCompiler(t, lib)
	v, err := c.Run("main", "import shapes; import units; return shapes.square(3) + units.scale;", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.I64 != 20 {
		t.Errorf("expected 20, got %s", v)
	}
	if diff := cmp.Diff("loading units\n", stdout.String()); diff != "" {
		t.Errorf("units must be evaluated once (-want +got):\n%s", diff)
	}
}

func TestImportCycle(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "a", "import b;")
	writeModule(t, dir, "b", "import a;")

	c, _, _ := newCompiler(t)
	_, err := c.Run("main", "import a;", dir)
	if !errors.Is(err, ErrImportCycle) {
		t.Fatalf("expected an import cycle, got %v", err)
	}
	if !strings.Contains(err.Error(), "a -> b -> a") {
		t.Errorf("expected the cycle in the message, got %v", err)
	}
}

func TestMissingModule(t *testing.T) {
	c, _, _ := newCompiler(t)
	if _, err := c.Run("main", "import nowhere;", t.TempDir()); err == nil || !strings.Contains(err.Error(), "module nowhere not found") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestFrontEndErrors(t *testing.T) {
	tests := []struct {
		input    string
		header   string
		expected string
	}{
		{"let x = ;", "Syntax Errors", "parsing main failed"},
		{"return y;", "Semantic Errors", "semantic analysis of main failed"},
	}

	for _, test := range tests {
		c, _, stderr := newCompiler(t)
		_, err := c.Run("main", test.input, "")
		if err == nil || !strings.Contains(err.Error(), test.expected) {
			t.Errorf("Input %q: expected %q, got %v", test.input, test.expected, err)
		}
		if !strings.Contains(stderr.String(), test.header) {
			t.Errorf("Input %q: expected %q in diagnostics, got %q", test.input, test.header, stderr.String())
		}
	}
}

func TestEvaluationErrorsAreWrapped(t *testing.T) {
	c, _, _ := newCompiler(t)
	c.MaxSteps = 100
	_, err := c.Run("main", "while true { }", "")
	if !errors.Is(err, interpreter.ErrMaxStepsExceeded) {
		t.Errorf("expected ErrMaxStepsExceeded, got %v", err)
	}
}

func TestVerboseDumpsScopesAndWarnings(t *testing.T) {
	c, stdout, _ := newCompiler(t)
	c.Verbose = true
	if _, err := c.Run("main", "var x; if true { x = 1; } print(x);", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := stdout.String()
	for _, want := range []string{"=== Scopes: main ===", "module scope", "=== Flow Warnings ===", "may be used before it is assigned"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in verbose output:\n%s", want, out)
		}
	}
}

func TestSessionKeepsBindings(t *testing.T) {
	c, _, _ := newCompiler(t)
	s := c.NewSession()

	entries := []struct {
		input    string
		expected string
	}{
		{"let x = 20;", "null"},
		{"func double(n) { return n * 2; }", "null"},
		{"double(x) + 2;", "42"},
		{"let x = x + 1; x;", "21"},
		{"return [x, double(1)];", "[21, 2]"},
	}

	for _, entry := range entries {
		v, err := s.Eval(entry.input)
		if err != nil {
			t.Fatalf("Input %q: unexpected error: %v", entry.input, err)
		}
		if got := v.String(); got != entry.expected {
			t.Errorf("Input %q: expected %s, got %s", entry.input, entry.expected, got)
		}
	}

	if _, err := s.Eval("undefined_name;"); err == nil {
		t.Errorf("expected an error for an undefined name")
	}
	if v, err := s.Eval("x;"); err != nil || v.I64 != 21 {
		t.Errorf("a failed entry must not affect earlier bindings, got %s, %v", v, err)
	}
}

func TestBalanced(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"let x = 1;", true},
		{"func f() {", false},
		{"func f() {\n return [1,\n", false},
		{"func f() {\n return 1;\n}", true},
		{`print("{");`, true},
		{`print("\"{");`, true},
		{"let s = \"open", false},
		{"// {\nlet x = 1;", true},
	}

	for _, test := range tests {
		if got := Balanced(test.input); got != test.expected {
			t.Errorf("Input %q: expected %v, got %v", test.input, test.expected, got)
		}
	}
}
