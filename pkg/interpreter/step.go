package interpreter

import (
	"errors"

	"expresso/pkg/ast"
)

// coreStep is the main single-step execution function. If the top frame
// does not belong to the current node the node is entered, otherwise its
// frame is resumed. It returns (halted, error).
func coreStep(i *Interpreter) (bool, error) {
	node := i.current
	if node == nil {
		return true, nil
	}

	var err error
	if top := i.frames.Peek(); top != nil && top.Node == node {
		err = i.resume(top)
	} else {
		err = i.enter(node)
	}
	if err != nil {
		if err = i.fail(err); err != nil {
			return false, err
		}
	}
	return i.current == nil, nil
}

// enter starts evaluating node: leaves push their value at once, other
// nodes push a frame and schedule their first child
func (i *Interpreter) enter(node ast.Node) error {
	switch n := node.(type) {
	case *ast.Module:
		return i.enterModule(n)
	case *ast.Block:
		return i.enterBlock(n)
	case *ast.LetStmt:
		return i.enterLet(n)
	case *ast.FuncDecl, *ast.TypeDecl:
		// instantiated when their scope was entered
		i.resumeParent()
		return nil
	case *ast.ImportStmt:
		return i.execImport(n)
	case *ast.IfStmt:
		return i.enterIf(n)
	case *ast.WhileStmt:
		return i.enterWhile(n)
	case *ast.ForStmt:
		return i.enterFor(n)
	case *ast.BreakStmt:
		return i.unwind(&completion{kind: completeBreak, count: n.Count})
	case *ast.ContinueStmt:
		return i.unwind(&completion{kind: completeContinue, count: n.Count})
	case *ast.ReturnStmt:
		if n.Value == nil {
			return i.unwind(&completion{kind: completeReturn})
		}
		return i.enterWithFrame(n)
	case *ast.ThrowStmt:
		return i.enterWithFrame(n)
	case *ast.TryStmt:
		return i.enterTry(n)
	case *ast.SwitchStmt:
		return i.enterSwitch(n)
	case *ast.DeleteStmt:
		if err := i.write(i.env(), n.Target, Null); err != nil {
			return err
		}
		i.resumeParent()
		return nil
	case *ast.ExprStmt, *ast.AssignStmt:
		return i.enterWithFrame(n)

	case *ast.Ident:
		return i.load(i.env(), n)
	case *ast.IntLit:
		return i.produce(NewInt(n.Value))
	case *ast.FloatLit:
		return i.produce(NewFloat(n.Value))
	case *ast.StringLit:
		return i.produce(NewString(n.Value))
	case *ast.BoolLit:
		return i.produce(NewBool(n.Value))
	case *ast.NullLit:
		return i.produce(Null)
	case *ast.Wildcard:
		return fault(FaultInvalidType, "_ is only valid as a case label")
	case *ast.FuncLit:
		cells, err := i.captures(i.env(), n.Scope)
		if err != nil {
			return err
		}
		return i.produce(closureValue(&Closure{Name: n.Name, Func: n, Cells: cells}))
	case *ast.ListLit, *ast.RangeExpr, *ast.BinaryExpr, *ast.LogicalExpr, *ast.UnaryExpr,
		*ast.IndexExpr, *ast.MemberExpr:
		return i.enterWithFrame(n)
	case *ast.Comprehension:
		return i.enterComprehension(n)
	case *ast.CallExpr:
		return i.enterCall(n)
	case *ast.StructLit:
		return i.enterStruct(n)
	}
	return fault(FaultSystem, "cannot evaluate %T", node)
}

// enterWithFrame pushes a frame for a node whose resume schedules all of
// its work
func (i *Interpreter) enterWithFrame(node ast.Node) error {
	f, err := i.PushFrame(node)
	if err != nil {
		return err
	}
	return i.resume(f)
}

// resume continues a frame after one of its children finished
func (i *Interpreter) resume(f *Frame) error {
	switch n := f.Node.(type) {
	case *ast.Module:
		return i.resumeModule(f, n)
	case *ast.Block:
		return i.resumeBlock(f, n)
	case *ast.LetStmt:
		return i.resumeLet(f, n)
	case *ast.IfStmt:
		return i.resumeIf(f, n)
	case *ast.WhileStmt:
		return i.resumeWhile(f, n)
	case *ast.ForStmt:
		return i.resumeFor(f, n)
	case *ast.ReturnStmt:
		return i.resumeReturn(f, n)
	case *ast.ThrowStmt:
		return i.resumeThrow(f, n)
	case *ast.TryStmt:
		return i.resumeTry(f, n)
	case *ast.SwitchStmt:
		return i.resumeSwitch(f, n)
	case *ast.ExprStmt:
		return i.resumeExprStmt(f, n)
	case *ast.AssignStmt:
		return i.resumeAssign(f, n)

	case *ast.ListLit:
		return i.resumeList(f, n)
	case *ast.Comprehension:
		return i.resumeComprehension(f, n)
	case *ast.RangeExpr:
		return i.resumeRange(f, n)
	case *ast.BinaryExpr:
		return i.resumeBinary(f, n)
	case *ast.LogicalExpr:
		return i.resumeLogical(f, n)
	case *ast.UnaryExpr:
		return i.resumeUnary(f, n)
	case *ast.CallExpr:
		return i.resumeCall(f, n)
	case *ast.IndexExpr:
		return i.resumeIndex(f, n)
	case *ast.MemberExpr:
		return i.resumeMember(f, n)
	case *ast.StructLit:
		return i.resumeStruct(f, n)
	}
	return fault(FaultSystem, "cannot resume %T", f.Node)
}

// env returns the scope chain the current node runs in
func (i *Interpreter) env() *Env {
	if top := i.frames.Peek(); top != nil {
		return top.Env
	}
	return nil
}

// fail routes thrown values into the unwinding machinery. Faults are
// returned unchanged and end the evaluation.
func (i *Interpreter) fail(err error) error {
	var rt *runtimeError
	if errors.As(err, &rt) {
		err = i.raise(rt)
	}

	var thrown *Thrown
	if !errors.As(err, &thrown) {
		return err
	}
	if thrown.Pos.Line == 0 {
		thrown.Pos = i.pos()
	}
	return i.unwind(&completion{kind: completeThrow, thrown: thrown})
}

// raise turns a runtime error into an instance of its builtin error type
func (i *Interpreter) raise(rt *runtimeError) *Thrown {
	t := i.builtins.errorType(rt.Type)
	if t == nil {
		t = &TypeValue{Name: rt.Type, fields: []string{"message"}}
	}
	inst := &Instance{Type: t, Fields: make(map[string]Value)}
	inst.Set("message", NewString(rt.Message))
	return &Thrown{Value: instanceValue(inst), Pos: i.pos()}
}

// unwind pops frames until one of them takes the completion: a loop for
// break and continue, a call for return, a try statement for throw, or a
// try statement with a finally clause for any of them
func (i *Interpreter) unwind(c *completion) error {
	for {
		f := i.frames.Peek()
		if f == nil {
			return fault(FaultSystem, "%s escaped every frame", c.kind)
		}

		switch n := f.Node.(type) {
		case *ast.TryStmt:
			if handled, err := i.unwindTry(f, n, c); handled || err != nil {
				return err
			}

		case *ast.WhileStmt, *ast.ForStmt:
			if c.kind == completeBreak || c.kind == completeContinue {
				c.count--
				if c.count == 0 {
					if c.kind == completeBreak {
						return i.finish()
					}
					return i.nextIteration(f)
				}
			}

		case *ast.CallExpr:
			if c.kind == completeReturn && f.call != nil && f.call.callee != nil {
				return i.yield(c.value)
			}

		case *ast.Module:
			switch c.kind {
			case completeReturn:
				return i.finishModule(f, n, c.value)
			case completeThrow:
				i.truncate(0)
				return &UncaughtError{TypeName: c.thrown.TypeName(), Value: c.thrown.Value, Pos: c.thrown.Pos}
			}
			return fault(FaultSystem, "%s outside of a loop", c.kind)
		}

		if _, err := i.PopFrame(); err != nil {
			return err
		}
		i.truncate(f.Base)
	}
}

func (k completionKind) String() string {
	switch k {
	case completeBreak:
		return "break"
	case completeContinue:
		return "continue"
	case completeReturn:
		return "return"
	default:
		return "throw"
	}
}
