package binder

import "expresso/pkg/ast"

// inferType returns the static type name of expr, or "" when unknown.
func (b *Binder) inferType(expr ast.Expression) string {
	switch e := expr.(type) {
	case *ast.IntLit:
		return "int"
	case *ast.FloatLit:
		return "float"
	case *ast.StringLit:
		return "string"
	case *ast.BoolLit:
		return "bool"
	case *ast.NullLit:
		return "null"
	case *ast.ListLit, *ast.Comprehension:
		return "list"
	case *ast.RangeExpr:
		return "range"
	case *ast.FuncLit:
		return "func"
	case *ast.StructLit:
		return e.Type.Name
	case *ast.LogicalExpr:
		return "bool"
	case *ast.Ident:
		if e.Ref != nil && e.Ref.Var != nil {
			return e.Ref.Var.Type
		}
	case *ast.UnaryExpr:
		if e.Op == ast.OpNot {
			return "bool"
		}
		return b.inferType(e.X)
	case *ast.BinaryExpr:
		return b.inferBinary(e)
	}
	return ""
}

func (b *Binder) inferBinary(e *ast.BinaryExpr) string {
	switch e.Op {
	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return "bool"
	}

	left, right := b.inferType(e.Left), b.inferType(e.Right)
	switch {
	case left == "string" && (e.Op == ast.OpAdd || e.Op == ast.OpMul):
		return "string"
	case left == "int" && right == "int" && e.Op != ast.OpDiv:
		// int ** negative and int / int may produce fractions
		if e.Op == ast.OpPow {
			return ""
		}
		return "int"
	case left == "float" && isNumeric(right), right == "float" && isNumeric(left):
		return "float"
	}
	return ""
}

// elementType infers the type of a for binding from its iterable.
func (b *Binder) elementType(iter ast.Expression) string {
	if list, ok := iter.(*ast.ListLit); ok {
		kind := ""
		for i, elem := range list.Elems {
			t := b.inferType(elem)
			if i > 0 && t != kind {
				return ""
			}
			kind = t
		}
		return kind
	}

	switch b.inferType(iter) {
	case "range":
		return "int"
	case "string":
		return "string"
	}
	return ""
}

func isNumeric(t string) bool {
	return t == "int" || t == "float" || t == "fraction"
}

func isLiteral(expr ast.Expression) bool {
	switch e := expr.(type) {
	case *ast.IntLit, *ast.FloatLit, *ast.StringLit, *ast.BoolLit, *ast.NullLit, *ast.ListLit, *ast.FuncLit:
		return true
	case *ast.UnaryExpr:
		return e.Op == ast.OpNeg && isLiteral(e.X)
	}
	return false
}

// assignable reports whether a literal of type found may initialize a
// variable annotated as declared.
func assignable(declared, found string) bool {
	switch {
	case declared == found, found == "", declared == "any":
		return true
	case found == "null":
		return true
	case found == "int" && (declared == "float" || declared == "fraction"):
		return true
	}
	return false
}

// literalValue folds a constant initializer
func literalValue(expr ast.Expression) any {
	switch e := expr.(type) {
	case *ast.IntLit:
		return e.Value
	case *ast.FloatLit:
		return e.Value
	case *ast.StringLit:
		return e.Value
	case *ast.BoolLit:
		return e.Value
	case *ast.UnaryExpr:
		switch v := literalValue(e.X).(type) {
		case int64:
			if e.Op == ast.OpNeg {
				return -v
			}
		case float64:
			if e.Op == ast.OpNeg {
				return -v
			}
		case bool:
			if e.Op == ast.OpNot {
				return !v
			}
		}
	}
	return nil
}
