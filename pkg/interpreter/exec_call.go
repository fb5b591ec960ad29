package interpreter

import (
	"expresso/pkg/ast"
)

const (
	callCallee step = iota
	callArgs
	callParams
	callBody
)

func (i *Interpreter) enterCall(e *ast.CallExpr) error {
	f, err := i.PushFrame(e)
	if err != nil {
		return err
	}
	f.Step = callCallee
	i.current = e.Callee
	return nil
}

// resumeCall drives a call. The callee value stays in the slot at f.Base;
// a closure's activation record starts right above it, with one slot per
// parameter followed by the remaining locals of the function scope.
func (i *Interpreter) resumeCall(f *Frame, e *ast.CallExpr) error {
	switch f.Step {
	case callCallee:
		callee, err := i.TopValue()
		if err != nil {
			return err
		}
		switch callee.Kind {
		case KindBuiltin:
			f.call = &callState{caller: f.Env, builtin: callee.AsBuiltin()}
			f.Step = callArgs
			return i.nextArgument(f, e)
		case KindFunc:
			return i.openCall(f, e, callee.AsClosure())
		}
		return fault(FaultInvalidType, "%s is not callable", callee.TypeName())

	case callArgs:
		return i.nextArgument(f, e)

	case callParams:
		param := f.call.closure.Func.Params[f.Child-1]
		if param.Name.Var.Captured {
			v, err := i.PopValue()
			if err != nil {
				return err
			}
			if err := i.PushValue(newCell(v)); err != nil {
				return err
			}
		}
		return i.nextParameter(f, e)
	}

	// the body finished without a return statement
	return i.yield(Null)
}

func (i *Interpreter) openCall(f *Frame, e *ast.CallExpr, fn *Closure) error {
	if len(e.Args) > len(fn.Func.Params) {
		return fault(FaultInvalidType, "%s takes %d arguments, got %d", fn, len(fn.Func.Params), len(e.Args))
	}

	f.FP = len(i.stack)
	f.call = &callState{
		caller:  f.Env,
		callee:  &Env{Scope: fn.Func.Scope, Base: f.FP, Cells: fn.Cells},
		closure: fn,
	}
	f.Step = callParams
	i.logger.Debug("call", "func", fn, "fp", f.FP, "depth", i.frames.Size())
	return i.nextParameter(f, e)
}

// nextArgument evaluates builtin arguments in the caller, then calls the
// builtin
func (i *Interpreter) nextArgument(f *Frame, e *ast.CallExpr) error {
	if i.schedule(f, e.Args...) {
		return nil
	}

	args, err := i.popN(len(e.Args))
	if err != nil {
		return err
	}
	b := f.call.builtin
	if b.Arity >= 0 && len(args) != b.Arity {
		return fault(FaultInvalidType, "%s takes %d arguments, got %d", b.Name, b.Arity, len(args))
	}
	v, err := b.Fn(i, args)
	if err != nil {
		return err
	}
	return i.yield(v)
}

// nextParameter pushes the next parameter: an actual argument evaluated
// in the caller, or the default evaluated in the callee. Once every
// parameter is in place the body starts.
func (i *Interpreter) nextParameter(f *Frame, e *ast.CallExpr) error {
	fn := f.call.closure
	params := fn.Func.Params

	if k := f.Child; k < len(params) {
		f.Child++
		switch {
		case k < len(e.Args):
			f.Env = f.call.caller
			i.current = e.Args[k]
		case params[k].Default != nil:
			f.Env = f.call.callee
			i.current = params[k].Default
		default:
			return fault(FaultInvalidType, "missing argument %s in call to %s", params[k].Name.Name, fn)
		}
		return nil
	}

	callee := f.call.callee
	for n := fn.Func.Scope.NumParams; n < fn.Func.Scope.NumLocals(); n++ {
		if err := i.PushValue(Null); err != nil {
			return err
		}
	}
	if err := i.resetScope(callee); err != nil {
		return err
	}
	f.Env = callee
	f.Step = callBody
	i.current = fn.Func.Body
	return nil
}

func (i *Interpreter) enterStruct(e *ast.StructLit) error {
	tv, err := i.read(i.env(), e.Type)
	if err != nil {
		return err
	}
	if tv.Kind != KindType {
		return &Fault{Kind: FaultMissingType, Message: e.Type.Name + " is not a type", Pos: e.Type.Pos()}
	}
	t := tv.AsType()
	for _, init := range e.Fields {
		if !t.HasField(init.Name) {
			return &Fault{Kind: FaultInvalidType, Message: t.Name + " has no field " + init.Name, Pos: init.Pos()}
		}
	}

	f, err := i.PushFrame(e)
	if err != nil {
		return err
	}
	f.build = &buildState{
		caller: f.Env,
		chain:  t.Chain(),
		inst:   &Instance{Type: t, Fields: make(map[string]Value)},
	}
	return i.nextField(f, e)
}

// resumeStruct stores the field value that just finished
func (i *Interpreter) resumeStruct(f *Frame, e *ast.StructLit) error {
	b := f.build
	t := b.chain[b.layer]
	if t.Decl != nil && t.Decl.Fields[b.field].Name.Var.Captured {
		v, err := i.PopValue()
		if err != nil {
			return err
		}
		if err := i.PushValue(newCell(v)); err != nil {
			return err
		}
	}
	b.field++
	return i.nextField(f, e)
}

// nextField fills the instance one type of the extends chain at a time,
// root first. Each layer lays its fields out as the locals of the type
// scope, so defaults can read the fields declared before them.
func (i *Interpreter) nextField(f *Frame, e *ast.StructLit) error {
	b := f.build
	for b.layer < len(b.chain) {
		t := b.chain[b.layer]
		names := t.FieldNames()

		if b.env == nil {
			b.env = &Env{Base: len(i.stack), Cells: t.Cells}
			if t.Decl != nil {
				b.env.Scope = t.Decl.Scope
			}
			b.field = 0
		}

		if b.field < len(names) {
			if init := e.Field(names[b.field]); init != nil {
				f.Env = b.caller
				i.current = init.Value
				return nil
			}
			if t.Decl != nil && t.Decl.Fields[b.field].Default != nil {
				f.Env = b.env
				i.current = t.Decl.Fields[b.field].Default
				return nil
			}
			if err := i.PushValue(Null); err != nil {
				return err
			}
			if t.Decl != nil && t.Decl.Fields[b.field].Name.Var.Captured {
				if err := i.Set(len(i.stack)-1, newCell(Null)); err != nil {
					return err
				}
			}
			b.field++
			continue
		}

		for n, name := range names {
			v, err := i.Get(b.env.Base + n)
			if err != nil {
				return err
			}
			if v.Kind == KindCell {
				v = v.cell().Value
			}
			b.inst.Set(name, v)
		}
		i.truncate(b.env.Base)
		b.env = nil
		b.layer++
	}
	return i.yield(instanceValue(b.inst))
}
