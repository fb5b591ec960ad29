package interpreter

import (
	"errors"
	"math"
	"strings"

	"expresso/pkg/ast"
)

func isNumber(v Value) bool {
	return v.Kind == KindInt || v.Kind == KindFloat || v.Kind == KindFraction
}

func operandError(op ast.Operator, a, b Value) error {
	return fault(FaultInvalidType, "unsupported operand types for %s: %s and %s", op, a.TypeName(), b.TypeName())
}

// binary evaluates a non short-circuit binary operator
func binary(op ast.Operator, a, b Value) (Value, error) {
	switch op {
	case ast.OpEq:
		return NewBool(Equal(a, b)), nil
	case ast.OpNeq:
		return NewBool(!Equal(a, b)), nil
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return comparison(op, a, b)
	}

	switch {
	case a.Kind == KindString:
		return stringOp(op, a, b)
	case a.Kind == KindList && op == ast.OpAdd && b.Kind == KindList:
		x, y := a.AsList().Elems, b.AsList().Elems
		elems := make([]Value, 0, len(x)+len(y))
		return NewList(append(append(elems, x...), y...)...), nil
	case a.Kind == KindInt && b.Kind == KindString && op == ast.OpMul:
		return stringOp(op, b, a)
	case !isNumber(a) || !isNumber(b):
		return Null, operandError(op, a, b)
	case a.Kind == KindFloat || b.Kind == KindFloat:
		x, _ := a.AsFloat64()
		y, _ := b.AsFloat64()
		return floatOp(op, x, y)
	case a.Kind == KindFraction || b.Kind == KindFraction:
		return fractionOp(op, toFraction(a), toFraction(b))
	default:
		return intOp(op, a.I64, b.I64)
	}
}

func stringOp(op ast.Operator, a, b Value) (Value, error) {
	switch {
	case op == ast.OpAdd && b.Kind == KindString:
		return NewString(a.Str + b.Str), nil
	case op == ast.OpMul && b.Kind == KindInt:
		if b.I64 < 0 {
			return Null, fault(FaultInvalidType, "cannot repeat a string a negative number of times")
		}
		if b.I64 > 0 && int64(len(a.Str)) > math.MaxInt32/b.I64 {
			return Null, arithmeticError("string repetition too large")
		}
		return NewString(strings.Repeat(a.Str, int(b.I64))), nil
	}
	return Null, operandError(op, a, b)
}

func intOp(op ast.Operator, a, b int64) (Value, error) {
	switch op {
	case ast.OpAdd:
		r := a + b
		if (a^r)&(b^r) < 0 {
			return Null, arithmeticError("integer overflow")
		}
		return NewInt(r), nil

	case ast.OpSub:
		r := a - b
		if (a^b)&(a^r) < 0 {
			return Null, arithmeticError("integer overflow")
		}
		return NewInt(r), nil

	case ast.OpMul:
		r, ok := mulInt(a, b)
		if !ok {
			return Null, arithmeticError("integer overflow")
		}
		return NewInt(r), nil

	case ast.OpDiv:
		if b == 0 {
			return Null, arithmeticError("division by zero")
		}
		if a == math.MinInt64 && b == -1 {
			return Null, arithmeticError("integer overflow")
		}
		if a%b == 0 {
			return NewInt(a / b), nil
		}
		f, _ := NewFraction(a, b)
		return NewFractionValue(f), nil

	case ast.OpMod:
		if b == 0 {
			return Null, arithmeticError("modulo by zero")
		}
		r := a % b
		if r != 0 && (r < 0) != (b < 0) {
			r += b
		}
		return NewInt(r), nil

	case ast.OpPow:
		if b < 0 {
			if a == 0 {
				return Null, arithmeticError("division by zero")
			}
			f, err := fractionFromInt(a).Pow(b)
			if err != nil {
				return Null, powError(err)
			}
			return NewFractionValue(f), nil
		}
		r, ok := powInt(a, b)
		if !ok {
			return Null, arithmeticError("integer overflow")
		}
		return NewInt(r), nil
	}
	return Null, operandError(op, NewInt(a), NewInt(b))
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	r := a * b
	if r/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	return r, true
}

func powInt(base, exp int64) (int64, bool) {
	result := int64(1)
	for exp > 0 {
		var ok bool
		if exp&1 == 1 {
			if result, ok = mulInt(result, base); !ok {
				return 0, false
			}
		}
		exp >>= 1
		if exp > 0 {
			if base, ok = mulInt(base, base); !ok {
				return 0, false
			}
		}
	}
	return result, true
}

func floatOp(op ast.Operator, a, b float64) (Value, error) {
	switch op {
	case ast.OpAdd:
		return NewFloat(a + b), nil
	case ast.OpSub:
		return NewFloat(a - b), nil
	case ast.OpMul:
		return NewFloat(a * b), nil
	case ast.OpDiv:
		return NewFloat(a / b), nil
	case ast.OpMod:
		r := math.Mod(a, b)
		if r != 0 && (r < 0) != (b < 0) {
			r += b
		}
		return NewFloat(r), nil
	case ast.OpPow:
		return NewFloat(math.Pow(a, b)), nil
	}
	return Null, operandError(op, NewFloat(a), NewFloat(b))
}

func toFraction(v Value) *Fraction {
	if v.Kind == KindInt {
		return fractionFromInt(v.I64)
	}
	return v.AsFraction()
}

func fractionOp(op ast.Operator, a, b *Fraction) (Value, error) {
	switch op {
	case ast.OpAdd:
		return NewFractionValue(a.Add(b)), nil
	case ast.OpSub:
		return NewFractionValue(a.Sub(b)), nil
	case ast.OpMul:
		return NewFractionValue(a.Mul(b)), nil
	case ast.OpDiv:
		r, err := a.Quo(b)
		if err != nil {
			return Null, arithmeticError("division by zero")
		}
		return NewFractionValue(r), nil
	case ast.OpMod:
		r, err := a.Mod(b)
		if err != nil {
			return Null, arithmeticError("modulo by zero")
		}
		return NewFractionValue(r), nil
	case ast.OpPow:
		exp, ok := b.Trunc()
		if !b.IsInteger() || !ok {
			return NewFloat(math.Pow(a.Float64(), b.Float64())), nil
		}
		if a.Sign() == 0 && exp < 0 {
			return Null, arithmeticError("division by zero")
		}
		r, err := a.Pow(exp)
		if err != nil {
			return Null, powError(err)
		}
		return NewFractionValue(r), nil
	}
	return Null, operandError(op, NewFractionValue(a), NewFractionValue(b))
}

func powError(err error) error {
	if errors.Is(err, errTooLarge) {
		return arithmeticError("result too large")
	}
	return arithmeticError("division by zero")
}

// compareNumbers orders two numbers of any family
func compareNumbers(a, b Value) (int, error) {
	switch {
	case a.Kind == KindInt && b.Kind == KindInt:
		switch {
		case a.I64 < b.I64:
			return -1, nil
		case a.I64 > b.I64:
			return 1, nil
		}
		return 0, nil
	case a.Kind == KindFloat || b.Kind == KindFloat:
		x, _ := a.AsFloat64()
		y, _ := b.AsFloat64()
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		case x == y:
			return 0, nil
		}
		return 0, arithmeticError("cannot order NaN")
	default:
		return toFraction(a).Cmp(toFraction(b)), nil
	}
}

func comparison(op ast.Operator, a, b Value) (Value, error) {
	var c int
	switch {
	case isNumber(a) && isNumber(b):
		var err error
		if c, err = compareNumbers(a, b); err != nil {
			return Null, err
		}
	case a.Kind == KindString && b.Kind == KindString:
		c = strings.Compare(a.Str, b.Str)
	default:
		return Null, operandError(op, a, b)
	}

	switch op {
	case ast.OpLt:
		return NewBool(c < 0), nil
	case ast.OpLe:
		return NewBool(c <= 0), nil
	case ast.OpGt:
		return NewBool(c > 0), nil
	default:
		return NewBool(c >= 0), nil
	}
}

func unary(op ast.Operator, v Value) (Value, error) {
	switch op {
	case ast.OpNot:
		if v.Kind != KindBool {
			return Null, fault(FaultInvalidType, "unsupported operand type for not: %s", v.TypeName())
		}
		return NewBool(!v.Bool), nil

	case ast.OpNeg:
		switch v.Kind {
		case KindInt:
			if v.I64 == math.MinInt64 {
				return Null, arithmeticError("integer overflow")
			}
			return NewInt(-v.I64), nil
		case KindFloat:
			return NewFloat(-v.F64), nil
		case KindFraction:
			return NewFractionValue(v.AsFraction().Neg()), nil
		}
		return Null, fault(FaultInvalidType, "unsupported operand type for -: %s", v.TypeName())
	}
	return Null, fault(FaultSystem, "unknown unary operator %s", op)
}

// condition requires a boolean test value
func condition(v Value) (bool, error) {
	if v.Kind != KindBool {
		return false, fault(FaultInvalidType, "condition must be bool, got %s", v.TypeName())
	}
	return v.Bool, nil
}
