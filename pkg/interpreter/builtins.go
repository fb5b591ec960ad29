package interpreter

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// BuiltinFunc implements a builtin. Returning a runtime error raises the
// matching builtin error type in the program.
type BuiltinFunc func(i *Interpreter, args []Value) (Value, error)

// Builtin is a host function callable from programs.
type Builtin struct {
	Name  string
	Arity int // -1 accepts any number of arguments
	Fn    BuiltinFunc
}

// Builtins is the read-only global table shared by one interpreter.
type Builtins struct {
	values map[string]Value
}

// builtin error types, base first
var errorTypes = []struct {
	name, base string
}{
	{"Error", ""},
	{"ArithmeticError", "Error"},
	{"IndexError", "Error"},
	{"ValueError", "Error"},
	{"AssertionError", "Error"},
}

// NewBuiltins builds the default table. Extra builtins are added after the
// defaults and replace those with the same name.
func NewBuiltins(extra ...*Builtin) *Builtins {
	b := &Builtins{values: make(map[string]Value)}

	for _, fn := range []*Builtin{
		{Name: "print", Arity: -1, Fn: builtinPrint},
		{Name: "len", Arity: 1, Fn: builtinLen},
		{Name: "str", Arity: 1, Fn: builtinStr},
		{Name: "typeof", Arity: 1, Fn: builtinTypeof},
		{Name: "int", Arity: 1, Fn: builtinInt},
		{Name: "float", Arity: 1, Fn: builtinFloat},
		{Name: "fraction", Arity: -1, Fn: builtinFraction},
		{Name: "append", Arity: -1, Fn: builtinAppend},
		{Name: "assert", Arity: -1, Fn: builtinAssert},
	} {
		b.add(fn)
	}

	types := make(map[string]*TypeValue)
	for _, et := range errorTypes {
		t := &TypeValue{Name: et.name, Base: types[et.base]}
		if et.base == "" {
			t.fields = []string{"message"}
		}
		types[et.name] = t
		b.values[et.name] = typeValue(t)
	}

	for _, fn := range extra {
		b.add(fn)
	}
	return b
}

func (b *Builtins) add(fn *Builtin) {
	b.values[fn.Name] = Value{Kind: KindBuiltin, Ref: fn}
}

// Lookup returns the builtin bound to name
func (b *Builtins) Lookup(name string) (Value, bool) {
	v, ok := b.values[name]
	return v, ok
}

// Names returns the builtin names in sorted order
func (b *Builtins) Names() []string {
	names := make([]string, 0, len(b.values))
	for name := range b.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (b *Builtins) errorType(name string) *TypeValue {
	if v, ok := b.values[name]; ok && v.Kind == KindType {
		return v.AsType()
	}
	return nil
}

func builtinPrint(i *Interpreter, args []Value) (Value, error) {
	parts := make([]string, len(args))
	for n, arg := range args {
		parts[n] = arg.String()
	}
	if _, err := fmt.Fprintln(i.out, strings.Join(parts, " ")); err != nil {
		return Null, fault(FaultSystem, "print: %v", err)
	}
	return Null, nil
}

func builtinLen(_ *Interpreter, args []Value) (Value, error) {
	switch v := args[0]; v.Kind {
	case KindString:
		return NewInt(int64(utf8.RuneCountInString(v.Str))), nil
	case KindList:
		return NewInt(int64(len(v.AsList().Elems))), nil
	case KindRange:
		n, ok := v.AsRange().Len()
		if !ok {
			return Null, valueError("len: range %s is too long", v)
		}
		return NewInt(n), nil
	default:
		return Null, fault(FaultInvalidType, "len: unsupported type %s", v.TypeName())
	}
}

func builtinStr(_ *Interpreter, args []Value) (Value, error) {
	return NewString(args[0].String()), nil
}

func builtinTypeof(_ *Interpreter, args []Value) (Value, error) {
	return NewString(args[0].TypeName()), nil
}

func builtinInt(_ *Interpreter, args []Value) (Value, error) {
	n, err := args[0].AsInt64()
	if err != nil {
		return Null, valueError("%v", err)
	}
	return NewInt(n), nil
}

func builtinFloat(_ *Interpreter, args []Value) (Value, error) {
	f, err := args[0].AsFloat64()
	if err != nil {
		return Null, valueError("%v", err)
	}
	return NewFloat(f), nil
}

func builtinFraction(_ *Interpreter, args []Value) (Value, error) {
	switch len(args) {
	case 1:
		switch v := args[0]; v.Kind {
		case KindFraction:
			return v, nil
		case KindInt:
			return NewFractionValue(fractionFromInt(v.I64)), nil
		}
		return Null, fault(FaultInvalidType, "fraction: unsupported type %s", args[0].TypeName())
	case 2:
		if args[0].Kind != KindInt || args[1].Kind != KindInt {
			return Null, fault(FaultInvalidType, "fraction: expected two ints, got %s and %s", args[0].TypeName(), args[1].TypeName())
		}
		f, err := NewFraction(args[0].I64, args[1].I64)
		if err != nil {
			return Null, arithmeticError("division by zero")
		}
		return NewFractionValue(f), nil
	}
	return Null, fault(FaultInvalidType, "fraction expects 1 or 2 arguments, got %d", len(args))
}

func builtinAppend(_ *Interpreter, args []Value) (Value, error) {
	if len(args) == 0 || args[0].Kind != KindList {
		return Null, fault(FaultInvalidType, "append expects a list as its first argument")
	}
	list := args[0].AsList()
	list.Elems = append(list.Elems, args[1:]...)
	return args[0], nil
}

func builtinAssert(_ *Interpreter, args []Value) (Value, error) {
	if len(args) == 0 || len(args) > 2 {
		return Null, fault(FaultInvalidType, "assert expects 1 or 2 arguments, got %d", len(args))
	}
	ok, err := condition(args[0])
	if err != nil {
		return Null, err
	}
	if ok {
		return Null, nil
	}
	msg := "assertion failed"
	if len(args) == 2 {
		msg = args[1].String()
	}
	return Null, &runtimeError{Type: "AssertionError", Message: msg}
}
