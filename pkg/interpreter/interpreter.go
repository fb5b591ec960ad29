// Package interpreter evaluates bound modules on an explicit stack
// machine. Expression recursion and function calls never use the host
// call stack: every node in progress owns a Frame, locals and temporaries
// share one operand stack, and a dispatch loop either enters the current
// node or resumes its frame.
package interpreter

import (
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"expresso/pkg/ast"
	"expresso/pkg/lexer"
	"expresso/pkg/stack"
)

// DefaultMaxStack is the default operand stack limit, in slots.
const DefaultMaxStack = 1 << 16

type Interpreter struct {
	stack  []Value              // operand stack: locals and temporaries
	frames *stack.Stack[*Frame] // nodes in progress

	current ast.Node // node the dispatch loop acts on next
	last    Value    // value of the last expression statement
	rec     *ModuleRecord

	builtins *Builtins
	globals  map[string]Value // published bindings, consulted before builtins
	modules  Modules

	out    io.Writer // output writer for print
	logger *log.Logger

	// Exec hook (implemented in another file, via SetExecStep)
	execStep func(*Interpreter) (halted bool, err error)

	maxSteps int // maximum steps (0 = unlimited)
	steps    int // steps executed
	maxStack int
}

type Option func(*Interpreter)

// WithWriter sets the output writer for print
func WithWriter(w io.Writer) Option {
	return func(i *Interpreter) { i.out = w }
}

// WithMaxSteps sets a maximum number of interpreter steps before returning ErrMaxStepsExceeded
func WithMaxSteps(n int) Option {
	return func(i *Interpreter) { i.maxSteps = n }
}

// WithMaxStack bounds the operand and frame stacks
func WithMaxStack(n int) Option {
	return func(i *Interpreter) {
		if n > 0 {
			i.maxStack = n
		}
	}
}

// WithLogger sets the logger used for debug tracing
func WithLogger(l *log.Logger) Option {
	return func(i *Interpreter) { i.logger = l }
}

// WithBuiltins replaces the default builtin table
func WithBuiltins(b *Builtins) Option {
	return func(i *Interpreter) { i.builtins = b }
}

// WithModules sets the table import statements resolve against
func WithModules(m Modules) Option {
	return func(i *Interpreter) { i.modules = m }
}

// NewInterpreter creates a new Interpreter instance
func NewInterpreter(opts ...Option) *Interpreter {
	it := &Interpreter{
		frames:   stack.NewStack[*Frame](),
		globals:  make(map[string]Value),
		maxStack: DefaultMaxStack,
	}
	for _, o := range opts {
		o(it)
	}

	if it.out == nil {
		it.out = os.Stdout
	}
	if it.logger == nil {
		it.logger = log.Default()
	}
	if it.builtins == nil {
		it.builtins = NewBuiltins()
	}
	if it.modules == nil {
		it.modules = make(Modules)
	}
	if it.execStep == nil {
		it.execStep = coreStep
	}
	return it
}

// Reset clears the machine state. Globals and modules are kept.
func (i *Interpreter) Reset() {
	i.stack = i.stack[:0]
	i.frames = stack.NewStack[*Frame]()
	i.current = nil
	i.last = Null
	i.rec = nil
	i.steps = 0
}

// SetExecStep replaces the single-step function
func (i *Interpreter) SetExecStep(fn func(*Interpreter) (bool, error)) {
	i.execStep = fn
}

// Global returns a published binding or a builtin
func (i *Interpreter) Global(name string) (Value, bool) {
	if v, ok := i.globals[name]; ok {
		return v, true
	}
	return i.builtins.Lookup(name)
}

// IsGlobal reports whether name resolves in the global table
func (i *Interpreter) IsGlobal(name string) bool {
	_, ok := i.Global(name)
	return ok
}

// Define publishes a global binding. It must not be called while a
// module is being evaluated.
func (i *Interpreter) Define(name string, v Value) {
	i.globals[name] = v
}

// Publish makes a module record importable under name
func (i *Interpreter) Publish(name string, rec *ModuleRecord) {
	i.modules[name] = rec
}

// Modules returns the import table
func (i *Interpreter) Modules() Modules {
	return i.modules
}

// Record returns the module record of the last successful evaluation
func (i *Interpreter) Record() *ModuleRecord {
	return i.rec
}

// LastValue returns the value of the last expression statement evaluated
func (i *Interpreter) LastValue() Value {
	return i.last
}

// Evaluate runs a bound module to completion and returns the value of its
// top-level return statement, or null
func (i *Interpreter) Evaluate(mod *ast.Module) (Value, error) {
	i.Reset()
	i.current = mod
	if err := i.Run(); err != nil {
		i.logger.Debug("evaluation failed", "module", mod.Name, "steps", i.steps, "err", err)
		i.stack = i.stack[:0]
		i.frames = stack.NewStack[*Frame]()
		i.current = nil
		return Null, err
	}

	i.logger.Debug("evaluated module", "module", mod.Name, "steps", i.steps)
	if len(i.stack) == 0 {
		return Null, nil
	}
	return i.TopValue()
}

// Step executes exactly one dispatch iteration. It returns (halted, error).
func (i *Interpreter) Step() (bool, error) {
	if i.execStep == nil {
		return false, ErrNotImplemented
	}
	if i.maxSteps > 0 && i.steps >= i.maxSteps {
		return false, ErrMaxStepsExceeded
	}
	i.steps++
	halted, err := i.execStep(i)
	if err != nil {
		return false, i.locate(err)
	}
	return halted, nil
}

// Run steps until the frame stack is empty or an error occurs
func (i *Interpreter) Run() error {
	for {
		halted, err := i.Step()
		if err != nil {
			return err
		}
		if halted {
			return nil
		}
	}
}

// locate attaches the position of the current node to a fault without one
func (i *Interpreter) locate(err error) error {
	var f *Fault
	if errors.As(err, &f) && f.Pos.Line == 0 {
		f.Pos = i.pos()
	}
	return err
}

func (i *Interpreter) pos() (p lexer.Position) {
	switch {
	case i.current != nil:
		return i.current.Pos()
	case i.frames.Peek() != nil:
		return i.frames.Peek().Node.Pos()
	}
	return p
}
