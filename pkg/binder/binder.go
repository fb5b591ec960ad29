// Package binder assigns every declared name a storage slot in a Scope and
// resolves every identifier use to a Reference. Binding happens in two
// passes: a pre-order walk that builds scopes and resolves names, and a
// post-order pass over the collected scopes that computes free variables
// and closure captures.
package binder

import (
	"github.com/charmbracelet/log"

	"expresso/pkg/ast"
	"expresso/pkg/lexer"
	"expresso/pkg/stack"
)

// GlobalLookup reports whether name is defined in the global table.
type GlobalLookup func(name string) bool

type Binder struct {
	globals GlobalLookup
	logger  *log.Logger

	scopes *stack.Stack[*ast.Scope] // current scope chain
	loops  *stack.Stack[int]        // loop depth per function-like scope
	all    []*ast.Scope             // every scope in pre-order
	uses   map[*ast.Scope][]*ast.Ident

	errors []string
}

// Option configures a Binder
type Option func(*Binder)

// WithGlobals sets the fallback used for names no scope declares
func WithGlobals(lookup GlobalLookup) Option {
	return func(b *Binder) {
		b.globals = lookup
	}
}

// WithLogger sets the logger used for debug tracing
func WithLogger(l *log.Logger) Option {
	return func(b *Binder) {
		b.logger = l
	}
}

// New creates a new Binder
func New(opts ...Option) *Binder {
	b := &Binder{
		globals: func(string) bool { return false },
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bind annotates mod in place. Rebinding an already bound module rebuilds
// every scope and yields the same offsets and reference targets.
func (b *Binder) Bind(mod *ast.Module) []string {
	b.scopes = stack.NewStack[*ast.Scope]()
	b.loops = stack.NewStack[int]()
	b.all = nil
	b.uses = make(map[*ast.Scope][]*ast.Ident)
	b.errors = nil

	mod.Scope = b.push(ast.ScopeModule, mod)
	b.hoist(mod.Body)
	b.bindStmts(mod.Body)
	b.pop()

	b.resolveCaptures()

	b.logger.Debug("bound module", "name", mod.Name, "scopes", len(b.all), "errors", len(b.errors))
	return b.errors
}

// Errors returns the diagnostics of the last Bind
func (b *Binder) Errors() []string {
	return b.errors
}

// Scopes returns every scope created by the last Bind, in pre-order
func (b *Binder) Scopes() []*ast.Scope {
	return b.all
}

// Bind is a convenience wrapper over New(opts...).Bind(mod)
func Bind(mod *ast.Module, opts ...Option) []string {
	return New(opts...).Bind(mod)
}

func (b *Binder) current() *ast.Scope {
	return b.scopes.Peek()
}

func (b *Binder) push(kind ast.ScopeKind, node ast.Node) *ast.Scope {
	var parent *ast.Scope
	if b.scopes.Size() > 0 {
		parent = b.current()
	}
	s := ast.NewScope(kind, node, parent)
	b.scopes.Push(s)
	b.all = append(b.all, s)
	if s.IsFunctionLike() {
		b.loops.Push(0)
	}
	return s
}

func (b *Binder) pop() {
	if s := b.scopes.Pop(); s.IsFunctionLike() {
		b.loops.Pop()
	}
}

func (b *Binder) enterLoop() {
	b.loops.Push(b.loops.Pop() + 1)
}

func (b *Binder) leaveLoop() {
	b.loops.Push(b.loops.Pop() - 1)
}

// declare allocates a variable for id in the current scope
func (b *Binder) declare(id *ast.Ident, kind ast.DeclKind) *ast.Variable {
	scope := b.current()
	if prev := scope.Lookup(id.Name); prev != nil {
		switch {
		case prev.Const:
			b.addConstRedeclarationError(id.Name, id.Pos())
		case kind == ast.DeclField && prev.Kind == ast.DeclField:
			b.addRedeclarationError(id.Name, id.Pos())
		}
	}

	v := scope.Declare(id.Name, kind, id)
	id.Var = v
	id.Ref = nil
	return v
}

// hoist declares function and type names before the statements of a scope
// are bound, so declarations can refer to each other in any order.
func (b *Binder) hoist(stmts []ast.Statement) {
	scope := b.current()
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.FuncDecl:
			v := b.declare(s.Name, ast.DeclFunc)
			v.Type = "func"
			v.Exported = s.Exported
			scope.Hoisted = append(scope.Hoisted, s)
		case *ast.TypeDecl:
			v := b.declare(s.Name, ast.DeclType)
			v.Type = "type"
			v.Exported = s.Exported
			scope.Hoisted = append(scope.Hoisted, s)
		}
	}
}

func (b *Binder) bindStmts(stmts []ast.Statement) {
	for _, stmt := range stmts {
		b.bindStmt(stmt)
	}
}

// bindBlock binds a block that owns its scope
func (b *Binder) bindBlock(block *ast.Block) {
	block.Scope = b.push(ast.ScopeBlock, block)
	b.hoist(block.Stmts)
	b.bindStmts(block.Stmts)
	b.pop()
}

func (b *Binder) bindStmt(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.Block:
		b.bindBlock(s)

	case *ast.LetStmt:
		b.bindLet(s)

	case *ast.FuncDecl:
		b.checkExport(s.Exported, s.Pos())
		b.bindFunc(s.Func)

	case *ast.TypeDecl:
		b.checkExport(s.Exported, s.Pos())
		b.bindType(s)

	case *ast.ImportStmt:
		if b.current().Kind != ast.ScopeModule {
			b.addPlacementError("import", s.Pos())
		}
		v := b.declare(s.Name, ast.DeclImport)
		v.Type = "module"

	case *ast.IfStmt:
		b.bindExpr(s.Cond)
		b.bindBlock(s.Then)
		if s.Else != nil {
			b.bindStmt(s.Else)
		}

	case *ast.WhileStmt:
		b.bindExpr(s.Cond)
		b.enterLoop()
		b.bindBlock(s.Body)
		b.leaveLoop()

	case *ast.ForStmt:
		s.Scope = b.push(ast.ScopeBlock, s)
		// the iterable cannot see the loop variable
		b.bindExpr(s.Iter)
		v := b.declare(s.Var, ast.DeclFor)
		v.Type = b.elementType(s.Iter)
		b.enterLoop()
		b.hoist(s.Body.Stmts)
		b.bindStmts(s.Body.Stmts)
		b.leaveLoop()
		b.pop()

	case *ast.BreakStmt:
		b.checkJump("break", s.Count, s.Pos())

	case *ast.ContinueStmt:
		b.checkJump("continue", s.Count, s.Pos())

	case *ast.ReturnStmt:
		if s.Value != nil {
			b.bindExpr(s.Value)
		}

	case *ast.ThrowStmt:
		b.bindExpr(s.Value)

	case *ast.TryStmt:
		b.bindBlock(s.Body)
		for _, c := range s.Catches {
			c.Scope = b.push(ast.ScopeBlock, c)
			v := b.declare(c.Name, ast.DeclCatch)
			v.Type = c.TypeName
			b.hoist(c.Body.Stmts)
			b.bindStmts(c.Body.Stmts)
			b.pop()
		}
		if s.Finally != nil {
			b.bindBlock(s.Finally)
		}

	case *ast.SwitchStmt:
		b.bindExpr(s.Subject)
		for _, c := range s.Cases {
			for _, label := range c.Labels {
				b.bindExpr(label)
			}
			b.bindBlock(c.Body)
		}

	case *ast.DeleteStmt:
		b.resolve(s.Target)
		b.checkWritable(s.Target)

	case *ast.ExprStmt:
		b.bindExpr(s.X)

	case *ast.AssignStmt:
		b.bindExpr(s.Value)
		if id, ok := s.Target.(*ast.Ident); ok {
			b.resolve(id)
			b.checkWritable(id)
		} else {
			b.bindExpr(s.Target)
		}
	}
}

func (b *Binder) bindLet(s *ast.LetStmt) {
	b.checkExport(s.Exported, s.Pos())

	// the initializer is bound before the name exists: `let x = x` reads an
	// outer x
	if s.Value != nil {
		b.bindExpr(s.Value)
	}

	v := b.declare(s.Name, s.Kind)
	v.Exported = s.Exported
	v.Type = s.TypeName

	if s.Value != nil {
		inferred := b.inferType(s.Value)
		if v.Type == "" {
			v.Type = inferred
		} else if isLiteral(s.Value) && !assignable(v.Type, inferred) {
			b.addTypeMismatchError(v.Type, inferred, s.Value.Pos())
		}
		if v.Const {
			v.ConstValue = literalValue(s.Value)
		}
	}
}

func (b *Binder) bindFunc(fn *ast.FuncLit) {
	fn.Scope = b.push(ast.ScopeFunction, fn)

	for _, p := range fn.Params {
		// defaults run in the callee and see the parameters before them
		if p.Default != nil {
			b.bindExpr(p.Default)
		}
		v := b.declare(p.Name, ast.DeclParam)
		v.Type = p.TypeName
		if v.Type == "" && p.Default != nil {
			v.Type = b.inferType(p.Default)
		}
	}

	b.hoist(fn.Body.Stmts)
	b.bindStmts(fn.Body.Stmts)
	b.pop()
}

func (b *Binder) bindType(td *ast.TypeDecl) {
	if td.Extends != nil {
		b.resolve(td.Extends)
	}

	td.Scope = b.push(ast.ScopeType, td)
	for _, f := range td.Fields {
		if f.Default != nil {
			b.bindExpr(f.Default)
		}
		v := b.declare(f.Name, ast.DeclField)
		v.Type = f.TypeName
		if v.Type == "" && f.Default != nil {
			v.Type = b.inferType(f.Default)
		}
	}
	b.pop()
}

func (b *Binder) bindExpr(expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.Ident:
		b.resolve(e)

	case *ast.ListLit:
		for _, elem := range e.Elems {
			b.bindExpr(elem)
		}

	case *ast.Comprehension:
		e.Scope = b.push(ast.ScopeBlock, e)
		b.bindExpr(e.Iter)
		v := b.declare(e.Var, ast.DeclFor)
		v.Type = b.elementType(e.Iter)
		if e.Cond != nil {
			b.bindExpr(e.Cond)
		}
		b.bindExpr(e.Elem)
		b.pop()

	case *ast.RangeExpr:
		b.bindExpr(e.Start)
		b.bindExpr(e.End)

	case *ast.BinaryExpr:
		b.bindExpr(e.Left)
		b.bindExpr(e.Right)

	case *ast.LogicalExpr:
		b.bindExpr(e.Left)
		b.bindExpr(e.Right)

	case *ast.UnaryExpr:
		b.bindExpr(e.X)

	case *ast.FuncLit:
		b.bindFunc(e)

	case *ast.CallExpr:
		b.bindExpr(e.Callee)
		for _, arg := range e.Args {
			b.bindExpr(arg)
		}

	case *ast.IndexExpr:
		b.bindExpr(e.X)
		b.bindExpr(e.Index)

	case *ast.MemberExpr:
		b.bindExpr(e.X)

	case *ast.StructLit:
		b.resolve(e.Type)
		for _, f := range e.Fields {
			b.bindExpr(f.Value)
		}
	}
}

// resolve attaches a Reference to an identifier use
func (b *Binder) resolve(id *ast.Ident) {
	scope := b.current()
	ref := lookup(scope, id.Name)

	if ref.Kind == ast.RefUnresolved && b.globals(id.Name) {
		ref.Kind = ast.RefGlobal
	}
	if ref.Kind == ast.RefUnresolved {
		b.addUndefinedVariableError(id.Name, id.Pos())
	}

	id.Var = nil
	id.Ref = &ref
	id.Flow = ast.FlowUnknown
	b.uses[scope] = append(b.uses[scope], id)
}

// lookup searches from scope outward. Leaving a function-like scope on the
// way makes the reference free.
func lookup(scope *ast.Scope, name string) ast.Reference {
	crossed := false
	level := 0
	for cur := scope; cur != nil; cur = cur.Parent {
		if v := cur.Lookup(name); v != nil {
			kind := ast.RefLocal
			if crossed {
				kind = ast.RefFree
			}
			return ast.Reference{Kind: kind, Var: v, Level: level, Index: -1, Name: name}
		}
		if cur.IsFunctionLike() {
			crossed = true
		}
		level++
	}
	return ast.Reference{Kind: ast.RefUnresolved, Index: -1, Name: name}
}

func (b *Binder) checkWritable(id *ast.Ident) {
	switch id.Ref.Kind {
	case ast.RefGlobal:
		b.addGlobalAssignmentError(id.Name, id.Pos())
	case ast.RefLocal, ast.RefFree:
		if id.Ref.Var.Const {
			b.addConstAssignmentError(id.Name, id.Pos())
		}
	}
}

func (b *Binder) checkJump(keyword string, count int, pos lexer.Position) {
	depth := b.loops.Peek()
	if depth == 0 {
		b.addJumpError(keyword+" outside of a loop", pos)
		return
	}
	if count > depth {
		b.addJumpError(keyword+" exceeds the enclosing loop depth", pos)
	}
}

func (b *Binder) checkExport(exported bool, pos lexer.Position) {
	if exported && b.current().Kind != ast.ScopeModule {
		b.addPlacementError("export", pos)
	}
}
