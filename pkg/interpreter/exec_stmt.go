package interpreter

import (
	"expresso/pkg/ast"
)

const (
	ifCond step = iota
	ifBranch
)

const (
	loopCond step = iota
	loopIter
	loopBody
)

const (
	tryBody step = iota
	tryCatch
	tryFinally
)

const (
	switchSubject step = iota
	switchLabel
	switchBody
)

func (i *Interpreter) enterModule(m *ast.Module) error {
	f, err := i.PushFrame(m)
	if err != nil {
		return err
	}
	if f.Env, err = i.openScope(m.Scope, nil); err != nil {
		return err
	}
	return i.nextStatement(f, m.Body, func() error {
		return i.finishModule(f, m, Null)
	})
}

func (i *Interpreter) resumeModule(f *Frame, m *ast.Module) error {
	return i.nextStatement(f, m.Body, func() error {
		return i.finishModule(f, m, Null)
	})
}

// finishModule captures the module record and leaves the result as the
// only operand
func (i *Interpreter) finishModule(f *Frame, m *ast.Module, result Value) error {
	rec, err := i.record(m, f.Env)
	if err != nil {
		return err
	}
	i.rec = rec
	return i.yield(result)
}

// nextStatement schedules the next statement of f, or calls done
func (i *Interpreter) nextStatement(f *Frame, stmts []ast.Statement, done func() error) error {
	if f.Child < len(stmts) {
		i.current = stmts[f.Child]
		f.Child++
		return nil
	}
	return done()
}

func (i *Interpreter) enterBlock(b *ast.Block) error {
	f, err := i.PushFrame(b)
	if err != nil {
		return err
	}
	if b.Scope != nil {
		if f.Env, err = i.openScope(b.Scope, f.Env); err != nil {
			return err
		}
	}
	return i.resumeBlock(f, b)
}

func (i *Interpreter) resumeBlock(f *Frame, b *ast.Block) error {
	return i.nextStatement(f, b.Stmts, i.finish)
}

func (i *Interpreter) enterLet(s *ast.LetStmt) error {
	if s.Value == nil {
		// the slot was cleared when its scope was entered
		i.resumeParent()
		return nil
	}
	return i.enterWithFrame(s)
}

func (i *Interpreter) resumeLet(f *Frame, s *ast.LetStmt) error {
	if i.schedule(f, s.Value) {
		return nil
	}
	v, err := i.PopValue()
	if err != nil {
		return err
	}
	if err := i.declare(f.Env, s.Name.Var, v); err != nil {
		return err
	}
	return i.finish()
}

func (i *Interpreter) execImport(s *ast.ImportStmt) error {
	rec, ok := i.modules[s.Name.Name]
	if !ok {
		return &Fault{Kind: FaultImport, Message: "module " + s.Name.Name + " is not loaded", Pos: s.Pos()}
	}
	if err := i.declare(i.env(), s.Name.Var, moduleValue(rec)); err != nil {
		return err
	}
	i.resumeParent()
	return nil
}

func (i *Interpreter) enterIf(s *ast.IfStmt) error {
	f, err := i.PushFrame(s)
	if err != nil {
		return err
	}
	f.Step = ifCond
	i.current = s.Cond
	return nil
}

func (i *Interpreter) resumeIf(f *Frame, s *ast.IfStmt) error {
	if f.Step == ifBranch {
		return i.finish()
	}

	v, err := i.PopValue()
	if err != nil {
		return err
	}
	ok, err := condition(v)
	if err != nil {
		return err
	}

	f.Step = ifBranch
	switch {
	case ok:
		i.current = s.Then
	case s.Else != nil:
		i.current = s.Else
	default:
		return i.finish()
	}
	return nil
}

func (i *Interpreter) enterWhile(s *ast.WhileStmt) error {
	f, err := i.PushFrame(s)
	if err != nil {
		return err
	}
	return i.nextIteration(f)
}

func (i *Interpreter) resumeWhile(f *Frame, s *ast.WhileStmt) error {
	if f.Step == loopBody {
		return i.nextIteration(f)
	}

	v, err := i.PopValue()
	if err != nil {
		return err
	}
	ok, err := condition(v)
	if err != nil {
		return err
	}
	if !ok {
		return i.finish()
	}
	f.Step = loopBody
	i.current = s.Body
	return nil
}

func (i *Interpreter) enterFor(s *ast.ForStmt) error {
	f, err := i.PushFrame(s)
	if err != nil {
		return err
	}
	// the iterable is evaluated inside the loop scope
	if f.Env, err = i.openScope(s.Scope, f.Env); err != nil {
		return err
	}
	f.Step = loopIter
	i.current = s.Iter
	return nil
}

func (i *Interpreter) resumeFor(f *Frame, s *ast.ForStmt) error {
	if f.Step == loopIter {
		v, err := i.PopValue()
		if err != nil {
			return err
		}
		if f.Iter, err = iterate(v); err != nil {
			return err
		}
		f.Step = loopBody
	}
	return i.nextIteration(f)
}

// nextIteration re-enters the body of the loop owning f, or finishes the
// loop. The body node is reused; only the loop scope is refreshed.
func (i *Interpreter) nextIteration(f *Frame) error {
	switch s := f.Node.(type) {
	case *ast.WhileStmt:
		i.truncate(f.Base)
		f.Step = loopCond
		i.current = s.Cond
		return nil

	case *ast.ForStmt:
		i.truncate(f.Base + s.Scope.NumLocals())
		v, ok := f.Iter.next()
		if !ok {
			return i.finish()
		}
		if err := i.resetScope(f.Env); err != nil {
			return err
		}
		if err := i.declare(f.Env, s.Var.Var, v); err != nil {
			return err
		}
		i.current = s.Body
		return nil
	}
	return fault(FaultSystem, "%T is not a loop", f.Node)
}

func (i *Interpreter) resumeReturn(f *Frame, s *ast.ReturnStmt) error {
	if i.schedule(f, s.Value) {
		return nil
	}
	v, err := i.PopValue()
	if err != nil {
		return err
	}
	return i.unwind(&completion{kind: completeReturn, value: v})
}

func (i *Interpreter) resumeThrow(f *Frame, s *ast.ThrowStmt) error {
	if i.schedule(f, s.Value) {
		return nil
	}
	v, err := i.PopValue()
	if err != nil {
		return err
	}
	return &Thrown{Value: v, Pos: s.Pos()}
}

func (i *Interpreter) enterTry(s *ast.TryStmt) error {
	f, err := i.PushFrame(s)
	if err != nil {
		return err
	}
	f.Saved = f.Env
	f.Step = tryBody
	i.current = s.Body
	return nil
}

func (i *Interpreter) resumeTry(f *Frame, s *ast.TryStmt) error {
	switch f.Step {
	case tryBody, tryCatch:
		if s.Finally == nil {
			return i.finish()
		}
		return i.enterFinally(f, s, nil)
	}

	// finally completed normally: carry on with whatever interrupted the
	// body or catch clause
	pending := f.Pending
	if pending == nil {
		return i.finish()
	}
	if _, err := i.PopFrame(); err != nil {
		return err
	}
	i.truncate(f.Base)
	return i.unwind(pending)
}

// unwindTry lets a try statement take a completion passing through it
func (i *Interpreter) unwindTry(f *Frame, s *ast.TryStmt, c *completion) (bool, error) {
	switch f.Step {
	case tryBody:
		if c.kind == completeThrow {
			for _, clause := range s.Catches {
				if c.thrown.Matches(clause.TypeName) {
					return true, i.enterCatch(f, clause, c.thrown)
				}
			}
		}
		if s.Finally != nil {
			return true, i.enterFinally(f, s, c)
		}
	case tryCatch:
		if s.Finally != nil {
			return true, i.enterFinally(f, s, c)
		}
	}
	// a jump out of finally replaces the pending completion
	return false, nil
}

func (i *Interpreter) enterCatch(f *Frame, clause *ast.CatchClause, thrown *Thrown) error {
	i.truncate(f.Base)
	env, err := i.openScope(clause.Scope, f.Saved)
	if err != nil {
		return err
	}
	if err := i.declare(env, clause.Name.Var, thrown.Value); err != nil {
		return err
	}
	f.Env = env
	f.Step = tryCatch
	i.current = clause.Body
	return nil
}

func (i *Interpreter) enterFinally(f *Frame, s *ast.TryStmt, pending *completion) error {
	i.truncate(f.Base)
	f.Env = f.Saved
	f.Pending = pending
	f.Step = tryFinally
	i.current = s.Finally
	return nil
}

func (i *Interpreter) enterSwitch(s *ast.SwitchStmt) error {
	f, err := i.PushFrame(s)
	if err != nil {
		return err
	}
	f.Step = switchSubject
	i.current = s.Subject
	return nil
}

// resumeSwitch keeps the subject in the slot at f.Base while the labels
// are tried in order
func (i *Interpreter) resumeSwitch(f *Frame, s *ast.SwitchStmt) error {
	switch f.Step {
	case switchSubject:
		f.Step = switchLabel
		f.Child, f.Label = 0, 0
		return i.nextLabel(f, s)

	case switchLabel:
		label, err := i.PopValue()
		if err != nil {
			return err
		}
		subject, err := i.Get(f.Base)
		if err != nil {
			return err
		}
		if matches(subject, label) {
			return i.enterCase(f, s.Cases[f.Child])
		}
		f.Label++
		return i.nextLabel(f, s)
	}
	return i.finish()
}

func (i *Interpreter) nextLabel(f *Frame, s *ast.SwitchStmt) error {
	for f.Child < len(s.Cases) {
		c := s.Cases[f.Child]
		if c.Default {
			f.Default = c
		} else if f.Label < len(c.Labels) {
			label := c.Labels[f.Label]
			if _, ok := label.(*ast.Wildcard); ok {
				return i.enterCase(f, c)
			}
			i.current = label
			return nil
		}
		f.Child++
		f.Label = 0
	}

	if f.Default != nil {
		return i.enterCase(f, f.Default)
	}
	return i.finish()
}

func (i *Interpreter) enterCase(f *Frame, c *ast.CaseClause) error {
	f.Step = switchBody
	i.current = c.Body
	return nil
}

// matches tests a case label. Ranges match the integers they contain.
func matches(subject, label Value) bool {
	if label.Kind == KindRange && subject.Kind == KindInt {
		return label.AsRange().Contains(subject.I64)
	}
	return Equal(subject, label)
}

func (i *Interpreter) resumeExprStmt(f *Frame, s *ast.ExprStmt) error {
	if i.schedule(f, s.X) {
		return nil
	}
	v, err := i.PopValue()
	if err != nil {
		return err
	}
	i.last = v
	return i.finish()
}

func (i *Interpreter) resumeAssign(f *Frame, s *ast.AssignStmt) error {
	switch t := s.Target.(type) {
	case *ast.Ident:
		if i.schedule(f, s.Value) {
			return nil
		}
		v, err := i.PopValue()
		if err != nil {
			return err
		}
		if err := i.write(f.Env, t, v); err != nil {
			return err
		}

	case *ast.IndexExpr:
		if i.schedule(f, t.X, t.Index, s.Value) {
			return nil
		}
		vals, err := i.popN(3)
		if err != nil {
			return err
		}
		if err := setIndex(vals[0], vals[1], vals[2]); err != nil {
			return err
		}

	case *ast.MemberExpr:
		if i.schedule(f, t.X, s.Value) {
			return nil
		}
		vals, err := i.popN(2)
		if err != nil {
			return err
		}
		if err := setMember(vals[0], t.Name, vals[1]); err != nil {
			return err
		}

	default:
		return fault(FaultInvalidType, "cannot assign to %T", s.Target)
	}
	return i.finish()
}
