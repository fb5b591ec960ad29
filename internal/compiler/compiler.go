package compiler

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"expresso/pkg/ast"
	"expresso/pkg/binder"
	"expresso/pkg/color"
	"expresso/pkg/flow"
	"expresso/pkg/interpreter"
	"expresso/pkg/parser"
)

// SourceExt is the file extension of Expresso modules
const SourceExt = ".exp"

type Compiler struct {
	Help            bool     // Show help message
	Verbose         bool     // Dump scopes and flow warnings
	ShouldInterpret bool     // Run the source file
	Interactive     bool     // Start the REPL
	NoColor         bool     // Disable colored output
	ConfigFile      string   // Path to expresso.yml
	SourceFile      string   // Path to the source file
	SearchPaths     []string // Directories searched by import
	MaxSteps        int      // Step limit per evaluation (0 = unlimited)
	MaxStack        int      // Operand and frame stack limit
	HistoryFile     string   // REPL history

	Stdout io.Writer // program output and reports
	Stderr io.Writer // diagnostics
	Logger *log.Logger
}

func (opts *Compiler) stdout() io.Writer {
	if opts.Stdout == nil {
		return os.Stdout
	}
	return opts.Stdout
}

func (opts *Compiler) stderr() io.Writer {
	if opts.Stderr == nil {
		return os.Stderr
	}
	return opts.Stderr
}

func (opts *Compiler) logger() *log.Logger {
	if opts.Logger == nil {
		return log.Default()
	}
	return opts.Logger
}

// Compile processes the source file: it is parsed, bound, flow checked and
// evaluated together with every module it imports.
func (opts *Compiler) Compile() error {
	opts.logger().Info("Processing file", "file", opts.SourceFile)

	input, err := os.ReadFile(opts.SourceFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", opts.SourceFile, err)
	}

	name := strings.TrimSuffix(filepath.Base(opts.SourceFile), SourceExt)
	_, err = opts.Run(name, string(input), filepath.Dir(opts.SourceFile))
	return err
}

// Run compiles and evaluates src as the module name. Imports are resolved
// relative to dir first, then over the search paths.
func (opts *Compiler) Run(name, src, dir string) (interpreter.Value, error) {
	it := opts.NewInterpreter()
	loader := NewLoader(opts, dir)

	mod, err := opts.CompileModule(it, name, src)
	if err != nil {
		return interpreter.Null, err
	}
	if err := loader.Require(it, mod); err != nil {
		return interpreter.Null, err
	}

	if opts.Verbose {
		fmt.Fprintln(opts.stdout(), color.GreenText("\n=== Program Output ==="))
	}
	v, err := it.Evaluate(mod)
	if err != nil {
		return interpreter.Null, fmt.Errorf("evaluation of %s failed: %w", name, err)
	}
	return v, nil
}

// NewInterpreter creates an interpreter with the configured limits
func (opts *Compiler) NewInterpreter() *interpreter.Interpreter {
	return interpreter.NewInterpreter(
		interpreter.WithWriter(opts.stdout()),
		interpreter.WithLogger(opts.logger()),
		interpreter.WithMaxSteps(opts.MaxSteps),
		interpreter.WithMaxStack(opts.MaxStack),
	)
}

// CompileModule runs the front end over src. Names the interpreter
// defines globally are bound as globals.
func (opts *Compiler) CompileModule(it *interpreter.Interpreter, name, src string) (*ast.Module, error) {
	mod, syntaxErrors := parser.ParseSource(src)
	if len(syntaxErrors) > 0 {
		fmt.Fprintln(opts.stderr(), color.BrightRedText("=== Syntax Errors ==="))
		fmt.Fprintln(opts.stderr(), syntaxErrors[0])
		return nil, fmt.Errorf("parsing %s failed with %d errors", name, len(syntaxErrors))
	}
	if mod.Name == "" {
		mod.Name = name
	}

	b := binder.New(binder.WithGlobals(it.IsGlobal), binder.WithLogger(opts.logger()))
	semanticErrors := b.Bind(mod)
	if len(semanticErrors) > 0 {
		fmt.Fprintln(opts.stderr(), color.BrightRedText("=== Semantic Errors ==="))
		fmt.Fprintln(opts.stderr(), semanticErrors[0])
		return nil, fmt.Errorf("semantic analysis of %s failed with %d errors", name, len(semanticErrors))
	}

	warnings := flow.Check(mod, flow.WithLogger(opts.logger()))

	if opts.Verbose {
		fmt.Fprintln(opts.stdout(), color.GreenText("\n=== Scopes: "+mod.Name+" ==="))
		binder.Dump(opts.stdout(), mod.Scope)

		fmt.Fprintln(opts.stdout(), color.GreenText("\n=== Flow Warnings ==="))
		if len(warnings) == 0 {
			fmt.Fprintln(opts.stdout(), color.GrayText("No warnings."))
		}
		for _, w := range warnings {
			fmt.Fprintln(opts.stdout(), w)
		}
	}
	return mod, nil
}
