package interpreter

import "expresso/pkg/ast"

// step is the resumption state of a frame. Each node family defines its
// own steps.
type step uint8

// Frame tracks the in-progress evaluation of one node.
type Frame struct {
	Node  ast.Node
	FP    int // start of the activation record the node runs in
	Base  int // operand height to restore when the frame is discarded
	Step  step
	Child int  // next operand or statement to schedule
	Env   *Env // scope chain the next child is evaluated in
	Saved *Env // env to restore after a catch clause

	Iter    iterator
	Acc     []Value
	Label   int
	Default *ast.CaseClause
	Pending *completion

	call  *callState
	build *buildState
}

// Env is the runtime instance of one static scope. Its slots start at Base
// on the operand stack, in Variable.Offset order.
type Env struct {
	Scope *ast.Scope
	Base  int
	Outer *Env
	Cells []*Cell // captures of the enclosing function or type
}

type completionKind uint8

const (
	completeBreak completionKind = iota
	completeContinue
	completeReturn
	completeThrow
)

// completion is an abrupt exit travelling down the frame stack
type completion struct {
	kind   completionKind
	count  int // loops left to leave for break and continue
	value  Value
	thrown *Thrown
}

type callState struct {
	caller  *Env
	callee  *Env
	closure *Closure
	builtin *Builtin
}

type buildState struct {
	caller *Env
	chain  []*TypeValue
	layer  int
	field  int
	env    *Env // env of the layer being filled, nil between layers
	inst   *Instance
}

// isCallType reports whether node starts a fresh activation record
func isCallType(node ast.Node) bool {
	switch node.(type) {
	case *ast.CallExpr, *ast.Module, *ast.StructLit:
		return true
	default:
		return false
	}
}
