package ast

// This file defines the resolver data types referenced by the syntax tree.
// Scopes describe static structure only; runtime instances of locals live
// on the interpreter's operand stack.

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeModule   ScopeKind = iota // module top level
	ScopeFunction                  // function or closure
	ScopeType                      // type body
	ScopeBlock                     // block, for, catch or comprehension
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeFunction:
		return "function"
	case ScopeType:
		return "type"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// Variable is the static descriptor of one declared name.
type Variable struct {
	Name   string
	Type   string // declared or inferred type annotation, "" if unknown
	Offset int    // slot index within the declaring scope
	Kind   DeclKind

	Const      bool
	ConstValue any // folded literal value of a constant, if any

	// ReadBeforeInitialized is set by the flow checker on the first read
	// along a path where the variable was never assigned.
	ReadBeforeInitialized bool

	// Captured marks variables referenced from a nested function or type
	// scope; their slots hold a shared cell at runtime.
	Captured bool
	Exported bool

	Scope *Scope
	Decl  *Ident
}

// IsParam reports whether v is a formal parameter.
func (v *Variable) IsParam() bool {
	return v.Kind == DeclParam
}

// Capture is one entry of a function or type scope's capture list. From
// loads the variable in the context where the closure is created.
type Capture struct {
	Var  *Variable
	From Reference
}

// Scope is the static record of one lexical region.
type Scope struct {
	Kind     ScopeKind
	Node     Node
	Parent   *Scope
	Children []*Scope

	Vars  []*Variable
	names map[string]*Variable

	// FreeVars holds variables referenced inside this scope or a nested one
	// but declared in a proper ancestor, in first-reference order.
	FreeVars []*Variable

	// Captures is populated for function and type scopes only.
	Captures []*Capture

	// Hoisted lists the function and type declarations instantiated when
	// the scope is entered, in source order.
	Hoisted []Statement

	NumParams int
}

// NewScope creates a scope nested in parent (nil for a module scope).
func NewScope(kind ScopeKind, node Node, parent *Scope) *Scope {
	s := &Scope{
		Kind:   kind,
		Node:   node,
		Parent: parent,
		names:  make(map[string]*Variable),
	}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// Declare allocates a new Variable with the next unused offset. A later
// declaration of the same name shadows the earlier one.
func (s *Scope) Declare(name string, kind DeclKind, decl *Ident) *Variable {
	v := &Variable{
		Name:   name,
		Offset: len(s.Vars),
		Kind:   kind,
		Const:  kind == DeclConst,
		Scope:  s,
		Decl:   decl,
	}
	s.Vars = append(s.Vars, v)
	s.names[name] = v
	if kind == DeclParam {
		s.NumParams++
	}
	return v
}

// Lookup returns the latest declaration of name in this scope only.
func (s *Scope) Lookup(name string) *Variable {
	return s.names[name]
}

// NumLocals is the number of slots the scope occupies at runtime.
func (s *Scope) NumLocals() int {
	return len(s.Vars)
}

// IsFunctionLike reports whether crossing this scope's boundary requires a
// closure capture.
func (s *Scope) IsFunctionLike() bool {
	return s.Kind != ScopeBlock
}

// Function returns the nearest function-like scope, s included.
func (s *Scope) Function() *Scope {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.IsFunctionLike() {
			return cur
		}
	}
	return nil
}

// Encloses reports whether s is other or one of its ancestors.
func (s *Scope) Encloses(other *Scope) bool {
	for cur := other; cur != nil; cur = cur.Parent {
		if cur == s {
			return true
		}
	}
	return false
}

// CaptureIndex returns the index of v in the capture list, or -1.
func (s *Scope) CaptureIndex(v *Variable) int {
	for i, c := range s.Captures {
		if c.Var == v {
			return i
		}
	}
	return -1
}

// FreeNames returns the names of the free variables.
func (s *Scope) FreeNames() []string {
	names := make([]string, len(s.FreeVars))
	for i, v := range s.FreeVars {
		names[i] = v.Name
	}
	return names
}

// RefKind tells the interpreter how to reach a referenced variable.
type RefKind uint8

const (
	RefUnresolved RefKind = iota // name is not defined
	RefLocal                     // declared in the current function's block chain
	RefFree                      // captured from an enclosing function
	RefGlobal                    // builtin or published top-level binding
)

var refKindNames = [...]string{
	RefUnresolved: "unresolved",
	RefLocal:      "local",
	RefFree:       "free",
	RefGlobal:     "global",
}

func (k RefKind) String() string { return refKindNames[k] }

// Reference is the resolved binding of an identifier use.
type Reference struct {
	Kind  RefKind
	Var   *Variable
	Level int    // scope hops from the point of use to the declaring scope
	Index int    // capture index, if Kind == RefFree
	Name  string // for globals and unresolved names
}

// FlowState classifies an identifier read.
type FlowState uint8

const (
	FlowUnknown    FlowState = iota // not analysed
	FlowAssigned                    // definitely assigned on every path
	FlowCleared                     // explicitly deleted on some path
	FlowUnassigned                  // possibly never assigned
)

func (f FlowState) String() string {
	switch f {
	case FlowAssigned:
		return "assigned"
	case FlowCleared:
		return "cleared"
	case FlowUnassigned:
		return "unassigned"
	default:
		return "unknown"
	}
}
