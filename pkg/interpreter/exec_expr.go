package interpreter

import (
	"unicode/utf8"

	"expresso/pkg/ast"
)

const (
	compIter step = iota
	compCond
	compElem
)

const (
	logicLeft step = iota
	logicRight
)

func (i *Interpreter) resumeList(f *Frame, e *ast.ListLit) error {
	if i.schedule(f, e.Elems...) {
		return nil
	}
	vals, err := i.popN(len(e.Elems))
	if err != nil {
		return err
	}
	return i.yield(NewList(vals...))
}

func (i *Interpreter) enterComprehension(e *ast.Comprehension) error {
	f, err := i.PushFrame(e)
	if err != nil {
		return err
	}
	if f.Env, err = i.openScope(e.Scope, f.Env); err != nil {
		return err
	}
	f.Step = compIter
	i.current = e.Iter
	return nil
}

func (i *Interpreter) resumeComprehension(f *Frame, e *ast.Comprehension) error {
	v, err := i.PopValue()
	if err != nil {
		return err
	}

	switch f.Step {
	case compIter:
		if f.Iter, err = iterate(v); err != nil {
			return err
		}
		f.Acc = make([]Value, 0)
	case compCond:
		ok, err := condition(v)
		if err != nil {
			return err
		}
		if ok {
			f.Step = compElem
			i.current = e.Elem
			return nil
		}
	case compElem:
		f.Acc = append(f.Acc, v)
	}
	return i.nextElement(f, e)
}

func (i *Interpreter) nextElement(f *Frame, e *ast.Comprehension) error {
	i.truncate(f.Base + e.Scope.NumLocals())
	v, ok := f.Iter.next()
	if !ok {
		return i.yield(NewList(f.Acc...))
	}
	if err := i.resetScope(f.Env); err != nil {
		return err
	}
	if err := i.declare(f.Env, e.Var.Var, v); err != nil {
		return err
	}

	if e.Cond != nil {
		f.Step = compCond
		i.current = e.Cond
		return nil
	}
	f.Step = compElem
	i.current = e.Elem
	return nil
}

func (i *Interpreter) resumeRange(f *Frame, e *ast.RangeExpr) error {
	if i.schedule(f, e.Start, e.End) {
		return nil
	}
	vals, err := i.popN(2)
	if err != nil {
		return err
	}
	start, end := vals[0], vals[1]
	if start.Kind != KindInt || end.Kind != KindInt {
		return fault(FaultInvalidType, "range bounds must be int, got %s and %s", start.TypeName(), end.TypeName())
	}
	return i.yield(NewRange(start.I64, end.I64, e.Inclusive))
}

func (i *Interpreter) resumeBinary(f *Frame, e *ast.BinaryExpr) error {
	if i.schedule(f, e.Left, e.Right) {
		return nil
	}
	vals, err := i.popN(2)
	if err != nil {
		return err
	}
	v, err := binary(e.Op, vals[0], vals[1])
	if err != nil {
		return err
	}
	return i.yield(v)
}

// resumeLogical only schedules the right operand when the left one does
// not decide the result
func (i *Interpreter) resumeLogical(f *Frame, e *ast.LogicalExpr) error {
	if f.Child == 0 {
		i.schedule(f, e.Left)
		return nil
	}

	v, err := i.PopValue()
	if err != nil {
		return err
	}
	ok, err := condition(v)
	if err != nil {
		return err
	}

	if f.Step == logicLeft && ok == (e.Op == ast.OpAnd) {
		f.Step = logicRight
		i.current = e.Right
		return nil
	}
	return i.yield(NewBool(ok))
}

func (i *Interpreter) resumeUnary(f *Frame, e *ast.UnaryExpr) error {
	if i.schedule(f, e.X) {
		return nil
	}
	x, err := i.PopValue()
	if err != nil {
		return err
	}
	v, err := unary(e.Op, x)
	if err != nil {
		return err
	}
	return i.yield(v)
}

func (i *Interpreter) resumeIndex(f *Frame, e *ast.IndexExpr) error {
	if i.schedule(f, e.X, e.Index) {
		return nil
	}
	vals, err := i.popN(2)
	if err != nil {
		return err
	}
	v, err := index(vals[0], vals[1])
	if err != nil {
		return err
	}
	return i.yield(v)
}

func (i *Interpreter) resumeMember(f *Frame, e *ast.MemberExpr) error {
	if i.schedule(f, e.X) {
		return nil
	}
	x, err := i.PopValue()
	if err != nil {
		return err
	}
	v, err := member(x, e.Name)
	if err != nil {
		return err
	}
	return i.yield(v)
}

func position(x, idx Value, n int) (int, error) {
	if idx.Kind != KindInt {
		return 0, fault(FaultInvalidType, "%s index must be int, got %s", x.TypeName(), idx.TypeName())
	}
	if idx.I64 < 0 || idx.I64 >= int64(n) {
		return 0, indexError("index %d out of range for length %d", idx.I64, n)
	}
	return int(idx.I64), nil
}

func index(x, idx Value) (Value, error) {
	switch x.Kind {
	case KindList:
		elems := x.AsList().Elems
		n, err := position(x, idx, len(elems))
		if err != nil {
			return Null, err
		}
		return elems[n], nil
	case KindString:
		runes := []rune(x.Str)
		n, err := position(x, idx, len(runes))
		if err != nil {
			return Null, err
		}
		return NewString(string(runes[n])), nil
	case KindRange:
		r := x.AsRange()
		if idx.Kind != KindInt {
			return Null, fault(FaultInvalidType, "range index must be int, got %s", idx.TypeName())
		}
		// a range too long for int64 accepts every non-negative index
		n, ok := r.Len()
		if idx.I64 < 0 || (ok && idx.I64 >= n) {
			return Null, indexError("index %d out of range for length %d", idx.I64, n)
		}
		return NewInt(r.Start + idx.I64), nil
	}
	return Null, fault(FaultInvalidType, "%s is not indexable", x.TypeName())
}

func setIndex(x, idx, v Value) error {
	if x.Kind != KindList {
		return fault(FaultInvalidType, "cannot assign to an index of %s", x.TypeName())
	}
	elems := x.AsList().Elems
	n, err := position(x, idx, len(elems))
	if err != nil {
		return err
	}
	elems[n] = v
	return nil
}

func member(x Value, name string) (Value, error) {
	switch x.Kind {
	case KindInstance:
		in := x.AsInstance()
		if v, ok := in.Get(name); ok {
			return v, nil
		}
		return Null, fault(FaultReference, "%s has no field %s", in.Type.Name, name)
	case KindModule:
		m := x.AsModule()
		if v, ok := m.Export(name); ok {
			return v, nil
		}
		return Null, fault(FaultReference, "module %s has no exported member %s", m.Name, name)
	}
	return Null, fault(FaultInvalidType, "%s has no members", x.TypeName())
}

func setMember(x Value, name string, v Value) error {
	if x.Kind != KindInstance {
		return fault(FaultInvalidType, "cannot assign to a member of %s", x.TypeName())
	}
	in := x.AsInstance()
	if _, ok := in.Get(name); !ok {
		return fault(FaultReference, "%s has no field %s", in.Type.Name, name)
	}
	in.Set(name, v)
	return nil
}

// iterator yields the elements a for loop or comprehension binds
type iterator interface {
	next() (Value, bool)
}

type rangeIterator struct {
	cur, end  int64
	inclusive bool
	done      bool
}

func (it *rangeIterator) next() (Value, bool) {
	if it.done || it.cur > it.end || (!it.inclusive && it.cur == it.end) {
		return Null, false
	}
	v := it.cur
	if v == it.end {
		it.done = true
	} else {
		it.cur++
	}
	return NewInt(v), true
}

// listIterator walks the elements present when the loop started
type listIterator struct {
	elems []Value
	pos   int
}

func (it *listIterator) next() (Value, bool) {
	if it.pos >= len(it.elems) {
		return Null, false
	}
	v := it.elems[it.pos]
	it.pos++
	return v, true
}

type stringIterator struct {
	s string
}

func (it *stringIterator) next() (Value, bool) {
	if it.s == "" {
		return Null, false
	}
	r, size := utf8.DecodeRuneInString(it.s)
	it.s = it.s[size:]
	return NewString(string(r)), true
}

func iterate(v Value) (iterator, error) {
	switch v.Kind {
	case KindRange:
		r := v.AsRange()
		return &rangeIterator{cur: r.Start, end: r.End, inclusive: r.Inclusive}, nil
	case KindList:
		return &listIterator{elems: v.AsList().Elems}, nil
	case KindString:
		return &stringIterator{s: v.Str}, nil
	}
	return nil, fault(FaultInvalidType, "cannot iterate over %s", v.TypeName())
}
