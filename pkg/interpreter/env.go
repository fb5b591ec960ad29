package interpreter

import (
	"expresso/pkg/ast"
)

// openScope reserves the slots of scope on top of the operand stack and
// initializes them
func (i *Interpreter) openScope(scope *ast.Scope, outer *Env) (*Env, error) {
	env := &Env{Scope: scope, Base: len(i.stack), Outer: outer}
	if outer != nil {
		env.Cells = outer.Cells
	}
	for range scope.Vars {
		if err := i.PushValue(Null); err != nil {
			return nil, err
		}
	}
	return env, i.resetScope(env)
}

// resetScope gives every slot except parameters a fresh value. Captured
// variables get a new cell, so closures created in different iterations
// do not share state. Hoisted declarations are instantiated last.
func (i *Interpreter) resetScope(env *Env) error {
	for _, v := range env.Scope.Vars {
		if v.IsParam() {
			continue
		}
		val := Null
		if v.Captured {
			val = newCell(Null)
		}
		if err := i.Set(env.Base+v.Offset, val); err != nil {
			return err
		}
	}
	return i.hoist(env)
}

func (i *Interpreter) hoist(env *Env) error {
	var types []*TypeValue
	for _, decl := range env.Scope.Hoisted {
		if td, ok := decl.(*ast.TypeDecl); ok {
			t := &TypeValue{Name: td.Name.Name, Decl: td}
			types = append(types, t)
			if err := i.declare(env, td.Name.Var, typeValue(t)); err != nil {
				return err
			}
		}
	}

	// bases may be declared in any order within the scope
	for _, t := range types {
		cells, err := i.captures(env, t.Decl.Scope)
		if err != nil {
			return err
		}
		t.Cells = cells
		if err := i.linkBase(env, t); err != nil {
			return err
		}
	}

	for _, decl := range env.Scope.Hoisted {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		cells, err := i.captures(env, fd.Func.Scope)
		if err != nil {
			return err
		}
		fn := &Closure{Name: fd.Name.Name, Func: fd.Func, Cells: cells}
		if err := i.declare(env, fd.Name.Var, closureValue(fn)); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) linkBase(env *Env, t *TypeValue) error {
	ext := t.Decl.Extends
	if ext == nil {
		return nil
	}
	base, err := i.read(env, ext)
	if err != nil {
		return err
	}
	if base.Kind != KindType {
		return &Fault{Kind: FaultMissingType, Message: t.Name + " extends " + ext.Name + ", which is not a type", Pos: ext.Pos()}
	}
	for cur := base.AsType(); cur != nil; cur = cur.Base {
		if cur == t {
			return &Fault{Kind: FaultInvalidType, Message: "type " + t.Name + " extends itself", Pos: ext.Pos()}
		}
	}
	t.Base = base.AsType()
	return nil
}

// captures loads the cells a closure over scope shares with env
func (i *Interpreter) captures(env *Env, scope *ast.Scope) ([]*Cell, error) {
	if len(scope.Captures) == 0 {
		return nil, nil
	}
	cells := make([]*Cell, len(scope.Captures))
	for n, c := range scope.Captures {
		cell, err := i.captureCell(env, c.From)
		if err != nil {
			return nil, err
		}
		cells[n] = cell
	}
	return cells, nil
}

func (i *Interpreter) captureCell(env *Env, ref ast.Reference) (*Cell, error) {
	switch ref.Kind {
	case ast.RefLocal:
		scope, err := walk(env, ref)
		if err != nil {
			return nil, err
		}
		slot, err := i.Get(scope.Base + ref.Var.Offset)
		if err != nil {
			return nil, err
		}
		if slot.Kind != KindCell {
			return nil, fault(FaultSystem, "captured variable %s is not boxed", ref.Name)
		}
		return slot.cell(), nil
	case ast.RefFree:
		return freeCell(env, ref)
	default:
		return nil, fault(FaultReference, "cannot capture %s", ref.Name)
	}
}

func walk(env *Env, ref ast.Reference) (*Env, error) {
	for n := 0; n < ref.Level && env != nil; n++ {
		env = env.Outer
	}
	if env == nil {
		return nil, fault(FaultSystem, "scope chain too short for %s", ref.Name)
	}
	return env, nil
}

func freeCell(env *Env, ref ast.Reference) (*Cell, error) {
	if env == nil || ref.Index < 0 || ref.Index >= len(env.Cells) {
		return nil, fault(FaultSystem, "no capture %d for %s", ref.Index, ref.Name)
	}
	return env.Cells[ref.Index], nil
}

// read loads the variable an identifier use refers to
func (i *Interpreter) read(env *Env, id *ast.Ident) (Value, error) {
	ref := id.Ref
	if ref == nil {
		return Null, &Fault{Kind: FaultSystem, Message: "identifier " + id.Name + " is not bound", Pos: id.Pos()}
	}

	switch ref.Kind {
	case ast.RefLocal:
		scope, err := walk(env, *ref)
		if err != nil {
			return Null, err
		}
		v, err := i.Get(scope.Base + ref.Var.Offset)
		if err != nil {
			return Null, err
		}
		if v.Kind == KindCell {
			return v.cell().Value, nil
		}
		return v, nil

	case ast.RefFree:
		cell, err := freeCell(env, *ref)
		if err != nil {
			return Null, err
		}
		return cell.Value, nil

	case ast.RefGlobal:
		if v, ok := i.Global(ref.Name); ok {
			return v, nil
		}
	}
	return Null, &Fault{Kind: FaultReference, Message: "undefined variable " + id.Name, Pos: id.Pos()}
}

// load pushes the value of an identifier use. A local slot that holds no
// cell is duplicated in place.
func (i *Interpreter) load(env *Env, id *ast.Ident) error {
	if ref := id.Ref; ref != nil && ref.Kind == ast.RefLocal {
		scope, err := walk(env, *ref)
		if err != nil {
			return err
		}
		abs := scope.Base + ref.Var.Offset
		slot, err := i.Get(abs)
		if err != nil {
			return err
		}
		if slot.Kind != KindCell {
			if err := i.Dup(abs); err != nil {
				return err
			}
			i.resumeParent()
			return nil
		}
	}
	v, err := i.read(env, id)
	if err != nil {
		return err
	}
	return i.produce(v)
}

// write stores v into the variable an identifier use refers to
func (i *Interpreter) write(env *Env, id *ast.Ident, v Value) error {
	ref := id.Ref
	if ref == nil {
		return &Fault{Kind: FaultSystem, Message: "identifier " + id.Name + " is not bound", Pos: id.Pos()}
	}

	switch ref.Kind {
	case ast.RefLocal:
		scope, err := walk(env, *ref)
		if err != nil {
			return err
		}
		return i.store(scope.Base+ref.Var.Offset, v)
	case ast.RefFree:
		cell, err := freeCell(env, *ref)
		if err != nil {
			return err
		}
		cell.Value = v
		return nil
	case ast.RefGlobal:
		return &Fault{Kind: FaultReference, Message: "cannot assign to global " + id.Name, Pos: id.Pos()}
	}
	return &Fault{Kind: FaultReference, Message: "undefined variable " + id.Name, Pos: id.Pos()}
}

// declare initializes v, which belongs to env or one of its outer scopes
func (i *Interpreter) declare(env *Env, v *ast.Variable, val Value) error {
	for scope := env; scope != nil; scope = scope.Outer {
		if scope.Scope == v.Scope {
			return i.store(scope.Base+v.Offset, val)
		}
	}
	return fault(FaultSystem, "no active scope declares %s", v.Name)
}

// store writes a slot, through its cell when the slot is boxed
func (i *Interpreter) store(abs int, v Value) error {
	slot, err := i.Get(abs)
	if err != nil {
		return err
	}
	if slot.Kind == KindCell {
		slot.cell().Value = v
		return nil
	}
	return i.Set(abs, v)
}
