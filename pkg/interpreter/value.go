package interpreter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"expresso/pkg/ast"
)

type ValueKind int

const (
	KindNull ValueKind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindFraction
	KindList
	KindRange
	KindFunc
	KindBuiltin
	KindType
	KindInstance
	KindModule
	KindCell // boxed slot of a captured variable, never seen by programs
)

var kindNames = [...]string{
	KindNull:     "null",
	KindInt:      "int",
	KindFloat:    "float",
	KindBool:     "bool",
	KindString:   "string",
	KindFraction: "fraction",
	KindList:     "list",
	KindRange:    "range",
	KindFunc:     "func",
	KindBuiltin:  "func",
	KindType:     "type",
	KindInstance: "instance",
	KindModule:   "module",
	KindCell:     "cell",
}

func (k ValueKind) String() string { return kindNames[k] }

// Value represents a dynamically-typed value in the interpreter. The zero
// Value is null.
type Value struct {
	Kind ValueKind
	I64  int64
	F64  float64
	Bool bool
	Str  string
	Ref  any // *Fraction, *List, *Range, *Closure, *Builtin, *TypeValue, *Instance, *ModuleRecord or *Cell
}

// Null is the null value
var Null = Value{}

// List is a mutable, shared sequence of values.
type List struct {
	Elems []Value
}

// Range is the integer interval produced by `a..b` and `a..=b`.
type Range struct {
	Start, End int64
	Inclusive  bool
}

// Contains reports whether n lies in the range
func (r *Range) Contains(n int64) bool {
	if r.Inclusive {
		return n >= r.Start && n <= r.End
	}
	return n >= r.Start && n < r.End
}

// Len returns the number of integers in the range. ok is false when the
// count does not fit in an int64.
func (r *Range) Len() (n int64, ok bool) {
	if r.End < r.Start || (r.End == r.Start && !r.Inclusive) {
		return 0, true
	}
	count := uint64(r.End) - uint64(r.Start)
	if r.Inclusive {
		count++
	}
	if count == 0 || count > math.MaxInt64 {
		return 0, false
	}
	return int64(count), true
}

// Cell holds a captured variable shared between a scope and its closures.
type Cell struct {
	Value Value
}

// Closure is a function literal together with the cells it captured.
type Closure struct {
	Name  string
	Func  *ast.FuncLit
	Cells []*Cell
}

func (c *Closure) String() string {
	if c.Name == "" {
		return "<func>"
	}
	return c.Name
}

// TypeValue is a declared or builtin type. Declared types evaluate their
// field defaults through Cells; builtin types only carry field names.
type TypeValue struct {
	Name   string
	Decl   *ast.TypeDecl
	Base   *TypeValue
	Cells  []*Cell
	fields []string
}

// FieldNames returns the fields the type itself declares
func (t *TypeValue) FieldNames() []string {
	if t.Decl == nil {
		return t.fields
	}
	names := make([]string, len(t.Decl.Fields))
	for i, f := range t.Decl.Fields {
		names[i] = f.Name.Name
	}
	return names
}

// Chain returns the type and its ancestors, root first
func (t *TypeValue) Chain() []*TypeValue {
	var chain []*TypeValue
	for cur := t; cur != nil; cur = cur.Base {
		chain = append([]*TypeValue{cur}, chain...)
	}
	return chain
}

// Is reports whether t is named name or extends a type named name
func (t *TypeValue) Is(name string) bool {
	for cur := t; cur != nil; cur = cur.Base {
		if cur.Name == name {
			return true
		}
	}
	return false
}

// HasField reports whether t or one of its ancestors declares name
func (t *TypeValue) HasField(name string) bool {
	for cur := t; cur != nil; cur = cur.Base {
		for _, f := range cur.FieldNames() {
			if f == name {
				return true
			}
		}
	}
	return false
}

// Instance is a value constructed by a struct literal.
type Instance struct {
	Type   *TypeValue
	Names  []string // field order, base type fields first
	Fields map[string]Value
}

// Get returns the value of field name
func (in *Instance) Get(name string) (Value, bool) {
	v, ok := in.Fields[name]
	return v, ok
}

// Set writes field name, appending it to the field order when new
func (in *Instance) Set(name string, v Value) {
	if _, ok := in.Fields[name]; !ok {
		in.Names = append(in.Names, name)
	}
	in.Fields[name] = v
}

// NewInt creates a new integer Value.
func NewInt(i int64) Value {
	return Value{Kind: KindInt, I64: i}
}

// NewFloat creates a new float Value.
func NewFloat(f float64) Value {
	return Value{Kind: KindFloat, F64: f}
}

// NewBool creates a new boolean Value.
func NewBool(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// NewString creates a new string Value.
func NewString(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// NewList creates a list Value that owns elems.
func NewList(elems ...Value) Value {
	return Value{Kind: KindList, Ref: &List{Elems: elems}}
}

// NewRange creates a range Value.
func NewRange(start, end int64, inclusive bool) Value {
	return Value{Kind: KindRange, Ref: &Range{Start: start, End: end, Inclusive: inclusive}}
}

// NewFractionValue wraps f.
func NewFractionValue(f *Fraction) Value {
	return Value{Kind: KindFraction, Ref: f}
}

func newCell(v Value) Value {
	return Value{Kind: KindCell, Ref: &Cell{Value: v}}
}

func closureValue(c *Closure) Value {
	return Value{Kind: KindFunc, Ref: c}
}

func typeValue(t *TypeValue) Value {
	return Value{Kind: KindType, Ref: t}
}

func instanceValue(in *Instance) Value {
	return Value{Kind: KindInstance, Ref: in}
}

func moduleValue(m *ModuleRecord) Value {
	return Value{Kind: KindModule, Ref: m}
}

func (v Value) IsNull() bool { return v.Kind == KindNull }

func (v Value) AsList() *List {
	l, _ := v.Ref.(*List)
	return l
}

func (v Value) AsRange() *Range {
	r, _ := v.Ref.(*Range)
	return r
}

func (v Value) AsFraction() *Fraction {
	f, _ := v.Ref.(*Fraction)
	return f
}

func (v Value) AsClosure() *Closure {
	c, _ := v.Ref.(*Closure)
	return c
}

func (v Value) AsBuiltin() *Builtin {
	b, _ := v.Ref.(*Builtin)
	return b
}

func (v Value) AsType() *TypeValue {
	t, _ := v.Ref.(*TypeValue)
	return t
}

func (v Value) AsInstance() *Instance {
	in, _ := v.Ref.(*Instance)
	return in
}

func (v Value) AsModule() *ModuleRecord {
	m, _ := v.Ref.(*ModuleRecord)
	return m
}

func (v Value) cell() *Cell {
	c, _ := v.Ref.(*Cell)
	return c
}

// TypeName is the runtime type name used by typeof and catch clauses.
// Instances report the name of their type.
func (v Value) TypeName() string {
	if in := v.AsInstance(); v.Kind == KindInstance && in != nil {
		return in.Type.Name
	}
	return v.Kind.String()
}

// String renders the value as a string. A list or instance that contains
// itself renders the repeated occurrence as [...] or Type{...}.
func (v Value) String() string {
	switch v.Kind {
	case KindList, KindInstance, KindCell:
		var b strings.Builder
		writeValue(&b, v, make(map[any]bool), false)
		return b.String()
	}
	return v.scalar()
}

func (v Value) scalar() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.I64, 10)
	case KindFloat:
		return formatFloat(v.F64)
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindString:
		return v.Str
	case KindFraction:
		return v.AsFraction().String()
	case KindRange:
		r := v.AsRange()
		op := ".."
		if r.Inclusive {
			op = "..="
		}
		return fmt.Sprintf("%d%s%d", r.Start, op, r.End)
	case KindFunc:
		if name := v.AsClosure().Name; name != "" {
			return "<func " + name + ">"
		}
		return "<func>"
	case KindBuiltin:
		return "<builtin " + v.AsBuiltin().Name + ">"
	case KindType:
		return "<type " + v.AsType().Name + ">"
	case KindModule:
		return "<module " + v.AsModule().Name + ">"
	default:
		return "null"
	}
}

// writeValue renders v into b. open holds the containers on the path from
// the outermost value; nested strings are quoted.
func writeValue(b *strings.Builder, v Value, open map[any]bool, nested bool) {
	switch v.Kind {
	case KindCell:
		writeValue(b, v.cell().Value, open, nested)
	case KindList:
		l := v.AsList()
		if open[l] {
			b.WriteString("[...]")
			return
		}
		open[l] = true
		b.WriteByte('[')
		for i, e := range l.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, e, open, true)
		}
		b.WriteByte(']')
		delete(open, l)
	case KindInstance:
		in := v.AsInstance()
		b.WriteString(in.Type.Name)
		if open[in] {
			b.WriteString("{...}")
			return
		}
		open[in] = true
		b.WriteByte('{')
		for i, name := range in.Names {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(name + ": ")
			writeValue(b, in.Fields[name], open, true)
		}
		b.WriteByte('}')
		delete(open, in)
	case KindString:
		if nested {
			b.WriteString(strconv.Quote(v.Str))
			return
		}
		b.WriteString(v.Str)
	default:
		b.WriteString(v.scalar())
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}

// AsFloat64 converts the value to float64 if possible.
func (v Value) AsFloat64() (float64, error) {
	switch v.Kind {
	case KindFloat:
		return v.F64, nil
	case KindInt:
		return float64(v.I64), nil
	case KindFraction:
		return v.AsFraction().Float64(), nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to float", v.Str)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot convert %v to float", v.Kind)
	}
}

// AsInt64 converts the value to int64 if possible. Floats and fractions
// are truncated toward zero.
func (v Value) AsInt64() (int64, error) {
	switch v.Kind {
	case KindInt:
		return v.I64, nil
	case KindFloat:
		if math.IsNaN(v.F64) || math.IsInf(v.F64, 0) || math.Abs(v.F64) >= math.MaxInt64 {
			return 0, fmt.Errorf("cannot convert %s to int", formatFloat(v.F64))
		}
		return int64(v.F64), nil
	case KindFraction:
		n, ok := v.AsFraction().Trunc()
		if !ok {
			return 0, fmt.Errorf("cannot convert %s to int", v.AsFraction())
		}
		return n, nil
	case KindBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case KindString:
		i, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to int", v.Str)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("cannot convert %v to int", v.Kind)
	}
}

// Equal reports structural equality. Numbers compare by value across the
// int, float and fraction families. Containers that refer back to
// themselves compare equal when no differing element is found.
func Equal(a, b Value) bool {
	seen := make(map[[2]any]bool)
	work := [][2]Value{{a, b}}
	for len(work) > 0 {
		pair := work[len(work)-1]
		work = work[:len(work)-1]
		x, y := pair[0], pair[1]

		if isNumber(x) && isNumber(y) {
			c, err := compareNumbers(x, y)
			if err != nil || c != 0 {
				return false
			}
			continue
		}
		if x.Kind != y.Kind {
			return false
		}

		switch x.Kind {
		case KindNull:
		case KindBool:
			if x.Bool != y.Bool {
				return false
			}
		case KindString:
			if x.Str != y.Str {
				return false
			}
		case KindRange:
			if *x.AsRange() != *y.AsRange() {
				return false
			}
		case KindList:
			l, m := x.AsList(), y.AsList()
			key := [2]any{l, m}
			if seen[key] {
				continue
			}
			seen[key] = true
			if len(l.Elems) != len(m.Elems) {
				return false
			}
			for i := range l.Elems {
				work = append(work, [2]Value{l.Elems[i], m.Elems[i]})
			}
		case KindInstance:
			p, q := x.AsInstance(), y.AsInstance()
			key := [2]any{p, q}
			if seen[key] {
				continue
			}
			seen[key] = true
			if p.Type != q.Type || len(p.Fields) != len(q.Fields) {
				return false
			}
			for name, v := range p.Fields {
				w, ok := q.Fields[name]
				if !ok {
					return false
				}
				work = append(work, [2]Value{v, w})
			}
		default:
			if x.Ref != y.Ref {
				return false
			}
		}
	}
	return true
}
