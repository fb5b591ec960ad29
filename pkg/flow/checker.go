// Package flow implements the definite-assignment checker. Each
// function-like scope is analysed on its own with a bit vector holding an
// assigned and an initialized bit per variable. The checker annotates
// identifier uses and never fails.
package flow

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/charmbracelet/log"

	"expresso/pkg/ast"
	"expresso/pkg/color"
	"expresso/pkg/lexer"
)

// Warning reports a read of a variable that may not be assigned.
type Warning struct {
	Name  string
	State ast.FlowState
	Pos   lexer.Position
}

func (w Warning) String() string {
	msg := "Variable `" + color.BlueText(w.Name) + "` may be used before it is assigned"
	if w.State == ast.FlowCleared {
		msg = "Variable `" + color.BlueText(w.Name) + "` may be used after delete"
	}
	return color.Warning(msg) + " at " + color.YellowText(fmt.Sprintf("Line: %d, Column %d", w.Pos.Line, w.Pos.Column))
}

type Checker struct {
	logger   *log.Logger
	warnings []Warning
}

// Option configures a Checker
type Option func(*Checker)

// WithLogger sets the logger used for debug tracing
func WithLogger(l *log.Logger) Option {
	return func(c *Checker) {
		c.logger = l
	}
}

// New creates a new Checker
func New(opts ...Option) *Checker {
	c := &Checker{logger: log.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check analyses a bound module and returns advisory warnings
func (c *Checker) Check(mod *ast.Module) []Warning {
	c.warnings = nil

	a := c.newAnalysis(mod.Scope)
	a.enterScope(mod.Scope)
	a.stmts(mod.Body)

	c.logger.Debug("flow checked module", "name", mod.Name, "warnings", len(c.warnings))
	return c.warnings
}

// Check is a convenience wrapper over New(opts...).Check(mod)
func Check(mod *ast.Module, opts ...Option) []Warning {
	return New(opts...).Check(mod)
}

// analysis is the state of one function-like scope
type analysis struct {
	checker *Checker
	index   map[*ast.Variable]uint
	size    uint
	bits    *bitset.BitSet
	exits   []*bitset.BitSet // break targets, innermost last
}

func (c *Checker) newAnalysis(fn *ast.Scope) *analysis {
	a := &analysis{checker: c, index: make(map[*ast.Variable]uint)}
	a.collect(fn)
	a.size = 2 * uint(len(a.index))
	a.bits = bitset.New(a.size)
	return a
}

// collect numbers the variables of fn and its nested block scopes
func (a *analysis) collect(s *ast.Scope) {
	for _, v := range s.Vars {
		v.ReadBeforeInitialized = false
		a.index[v] = uint(len(a.index))
	}
	for _, child := range s.Children {
		if !child.IsFunctionLike() {
			a.collect(child)
		}
	}
}

func (a *analysis) unreachable() *bitset.BitSet {
	return bitset.New(a.size).SetAll()
}

func (a *analysis) assign(v *ast.Variable) {
	if i, ok := a.index[v]; ok {
		a.bits.Set(2 * i).Set(2*i + 1)
	}
}

func (a *analysis) clear(v *ast.Variable) {
	if i, ok := a.index[v]; ok {
		a.bits.Clear(2 * i).Set(2*i + 1)
	}
}

// enterScope resets the variables of a scope that is entered afresh.
// Hoisted declarations exist from the start.
func (a *analysis) enterScope(s *ast.Scope) {
	for _, v := range s.Vars {
		if i, ok := a.index[v]; ok {
			a.bits.Clear(2 * i).Clear(2*i + 1)
		}
	}
	for _, decl := range s.Hoisted {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			a.assign(d.Name.Var)
		case *ast.TypeDecl:
			a.assign(d.Name.Var)
		}
	}
}

func (a *analysis) stmts(list []ast.Statement) {
	for _, s := range list {
		a.stmt(s)
	}
}

func (a *analysis) block(b *ast.Block) {
	if b.Scope != nil {
		a.enterScope(b.Scope)
	}
	a.stmts(b.Stmts)
}

func (a *analysis) stmt(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.Block:
		a.block(s)

	case *ast.LetStmt:
		// a declaration without initializer leaves the variable unassigned
		if s.Value != nil {
			a.expr(s.Value)
			a.assign(s.Name.Var)
		}

	case *ast.FuncDecl:
		a.checker.function(s.Func)

	case *ast.TypeDecl:
		if s.Extends != nil {
			a.expr(s.Extends)
		}
		a.checker.typeBody(s)

	case *ast.ImportStmt:
		a.assign(s.Name.Var)

	case *ast.IfStmt:
		a.expr(s.Cond)
		pre := a.bits.Clone()

		a.block(s.Then)
		then := a.bits

		a.bits = pre
		if s.Else != nil {
			a.stmt(s.Else)
		}
		a.bits.InPlaceIntersection(then)

	case *ast.WhileStmt:
		a.expr(s.Cond)
		a.loop(func() { a.block(s.Body) })

	case *ast.ForStmt:
		a.expr(s.Iter)
		pre := a.bits.Clone()
		a.enterScope(s.Scope)
		a.assign(s.Var.Var)
		a.loopFrom(pre, func() { a.stmts(s.Body.Stmts) })

	case *ast.BreakStmt:
		if n := len(a.exits); s.Count <= n {
			a.exits[n-s.Count].InPlaceIntersection(a.bits)
		}
		a.bits = a.unreachable()

	case *ast.ContinueStmt:
		a.bits = a.unreachable()

	case *ast.ReturnStmt:
		if s.Value != nil {
			a.expr(s.Value)
		}
		a.bits = a.unreachable()

	case *ast.ThrowStmt:
		a.expr(s.Value)
		a.bits = a.unreachable()

	case *ast.TryStmt:
		a.try(s)

	case *ast.SwitchStmt:
		a.expr(s.Subject)
		pre := a.bits.Clone()
		for _, c := range s.Cases {
			a.bits = pre.Clone()
			for _, label := range c.Labels {
				a.expr(label)
			}
			a.block(c.Body)
		}
		a.bits = pre

	case *ast.DeleteStmt:
		if s.Target.Ref != nil && s.Target.Ref.Kind == ast.RefLocal {
			a.clear(s.Target.Ref.Var)
		}

	case *ast.ExprStmt:
		a.expr(s.X)

	case *ast.AssignStmt:
		a.expr(s.Value)
		switch t := s.Target.(type) {
		case *ast.Ident:
			if t.Ref != nil && t.Ref.Kind == ast.RefLocal {
				a.assign(t.Ref.Var)
			}
			t.Flow = ast.FlowAssigned
		default:
			a.expr(t)
		}
	}
}

func (a *analysis) loop(body func()) {
	a.loopFrom(a.bits.Clone(), body)
}

// loopFrom walks body once. The state after the loop is the intersection
// of pre and every break exit, which assumes zero iterations are possible.
func (a *analysis) loopFrom(pre *bitset.BitSet, body func()) {
	a.exits = append(a.exits, a.unreachable())
	body()
	exit := a.exits[len(a.exits)-1]
	a.exits = a.exits[:len(a.exits)-1]

	exit.InPlaceIntersection(pre)
	a.bits = exit
}

func (a *analysis) try(s *ast.TryStmt) {
	entry := a.bits.Clone()

	a.block(s.Body)
	merged := a.bits

	// a catch may start anywhere in the body, so it flows from the entry
	for _, c := range s.Catches {
		a.bits = entry.Clone()
		a.enterScope(c.Scope)
		a.assign(c.Name.Var)
		a.stmts(c.Body.Stmts)
		merged.InPlaceIntersection(a.bits)
	}

	a.bits = merged
	if s.Finally != nil {
		a.block(s.Finally)
	}
}

func (a *analysis) expr(expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.Ident:
		a.read(e)

	case *ast.ListLit:
		for _, elem := range e.Elems {
			a.expr(elem)
		}

	case *ast.Comprehension:
		a.enterScope(e.Scope)
		a.expr(e.Iter)
		a.assign(e.Var.Var)
		if e.Cond != nil {
			a.expr(e.Cond)
		}
		a.expr(e.Elem)

	case *ast.RangeExpr:
		a.expr(e.Start)
		a.expr(e.End)

	case *ast.BinaryExpr:
		a.expr(e.Left)
		a.expr(e.Right)

	case *ast.LogicalExpr:
		a.expr(e.Left)
		a.expr(e.Right)

	case *ast.UnaryExpr:
		a.expr(e.X)

	case *ast.FuncLit:
		a.checker.function(e)

	case *ast.CallExpr:
		a.expr(e.Callee)
		for _, arg := range e.Args {
			a.expr(arg)
		}

	case *ast.IndexExpr:
		a.expr(e.X)
		a.expr(e.Index)

	case *ast.MemberExpr:
		a.expr(e.X)

	case *ast.StructLit:
		a.expr(e.Type)
		for _, f := range e.Fields {
			a.expr(f.Value)
		}
	}
}

// read classifies one identifier use
func (a *analysis) read(id *ast.Ident) {
	if id.Ref == nil {
		return
	}

	switch id.Ref.Kind {
	case ast.RefFree, ast.RefGlobal:
		id.Flow = ast.FlowAssigned
		return
	case ast.RefUnresolved:
		id.Flow = ast.FlowUnknown
		return
	}

	i, ok := a.index[id.Ref.Var]
	if !ok {
		id.Flow = ast.FlowAssigned
		return
	}

	switch {
	case a.bits.Test(2 * i):
		id.Flow = ast.FlowAssigned
	case a.bits.Test(2*i + 1):
		id.Flow = ast.FlowCleared
		a.checker.warn(id)
	default:
		id.Flow = ast.FlowUnassigned
		if !id.Ref.Var.ReadBeforeInitialized {
			id.Ref.Var.ReadBeforeInitialized = true
			a.checker.warn(id)
		}
	}
}

func (c *Checker) warn(id *ast.Ident) {
	c.warnings = append(c.warnings, Warning{Name: id.Name, State: id.Flow, Pos: id.Pos()})
}

// function analyses a function literal in its own bit vector
func (c *Checker) function(fn *ast.FuncLit) {
	a := c.newAnalysis(fn.Scope)
	for _, p := range fn.Params {
		if p.Default != nil {
			a.expr(p.Default)
		}
		a.assign(p.Name.Var)
	}
	for _, decl := range fn.Scope.Hoisted {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			a.assign(d.Name.Var)
		case *ast.TypeDecl:
			a.assign(d.Name.Var)
		}
	}
	a.stmts(fn.Body.Stmts)
}

// typeBody analyses field defaults; earlier fields are visible to later ones
func (c *Checker) typeBody(td *ast.TypeDecl) {
	a := c.newAnalysis(td.Scope)
	for _, f := range td.Fields {
		if f.Default != nil {
			a.expr(f.Default)
		}
		a.assign(f.Name.Var)
	}
}
