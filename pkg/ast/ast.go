// Package ast defines the Expresso syntax tree. Nodes are produced by the
// parser, annotated in place by the binder (scopes, references) and the flow
// checker (flow states), and then executed by the interpreter.
package ast

import (
	"expresso/pkg/lexer"
)

// Node is implemented by every syntax tree node.
type Node interface {
	Pos() lexer.Position
}

// Statement nodes do not leave a value on the operand stack.
type Statement interface {
	Node
	statementNode()
}

// Expression nodes leave exactly one value on the operand stack.
type Expression interface {
	Node
	expressionNode()
}

// Base carries the source position shared by all nodes.
type Base struct {
	At lexer.Position
}

func (b Base) Pos() lexer.Position { return b.At }

// Operator names a unary or binary operator.
type Operator string

const (
	OpAdd Operator = "+"
	OpSub Operator = "-"
	OpMul Operator = "*"
	OpDiv Operator = "/"
	OpMod Operator = "%"
	OpPow Operator = "**"
	OpEq  Operator = "=="
	OpNeq Operator = "!="
	OpLt  Operator = "<"
	OpLe  Operator = "<="
	OpGt  Operator = ">"
	OpGe  Operator = ">="
	OpAnd Operator = "and"
	OpOr  Operator = "or"
	OpNot Operator = "not"
	OpNeg Operator = "neg"
)

// GetLexOperator maps a lexer token type to an operator
func GetLexOperator(t lexer.TokenType) (Operator, bool) {
	switch t {
	case lexer.PLUS:
		return OpAdd, true
	case lexer.MINUS:
		return OpSub, true
	case lexer.MULT:
		return OpMul, true
	case lexer.DIV:
		return OpDiv, true
	case lexer.MOD:
		return OpMod, true
	case lexer.POW:
		return OpPow, true
	case lexer.EQ:
		return OpEq, true
	case lexer.NE:
		return OpNeq, true
	case lexer.LT:
		return OpLt, true
	case lexer.LE:
		return OpLe, true
	case lexer.GT:
		return OpGt, true
	case lexer.GE:
		return OpGe, true
	case lexer.AND:
		return OpAnd, true
	case lexer.OR:
		return OpOr, true
	case lexer.NOT:
		return OpNot, true
	default:
		return "", false
	}
}

// DeclKind tells which construct declared a variable.
type DeclKind uint8

const (
	DeclLet DeclKind = iota
	DeclVar
	DeclConst
	DeclParam
	DeclFunc
	DeclType
	DeclImport
	DeclFor
	DeclCatch
	DeclField
)

var declKindNames = [...]string{
	DeclLet:    "let",
	DeclVar:    "var",
	DeclConst:  "const",
	DeclParam:  "param",
	DeclFunc:   "func",
	DeclType:   "type",
	DeclImport: "import",
	DeclFor:    "for",
	DeclCatch:  "catch",
	DeclField:  "field",
}

func (k DeclKind) String() string { return declKindNames[k] }

// ---------------------------------------------------------------------------
// Top level and statements

// Module is the root of a compilation unit.
type Module struct {
	Base
	Name  string
	Body  []Statement
	Scope *Scope
}

// Block is a braced statement list. Scope is nil when the block is the
// direct body of a node that owns the scope (function, for, catch).
type Block struct {
	Base
	Stmts []Statement
	Scope *Scope
}

type LetStmt struct {
	Base
	Kind     DeclKind // DeclLet, DeclVar or DeclConst
	Name     *Ident
	TypeName string
	Value    Expression // nil when declared without an initializer
	Exported bool
}

type FuncDecl struct {
	Base
	Name     *Ident
	Func     *FuncLit
	Exported bool
}

type Param struct {
	Base
	Name     *Ident
	TypeName string
	Default  Expression
}

type TypeDecl struct {
	Base
	Name     *Ident
	Extends  *Ident // nil without an `extends` clause
	Fields   []*Field
	Scope    *Scope
	Exported bool
}

type Field struct {
	Base
	Name     *Ident
	TypeName string
	Default  Expression
}

type ImportStmt struct {
	Base
	Name *Ident
}

type IfStmt struct {
	Base
	Cond Expression
	Then *Block
	Else Statement // nil, *Block or *IfStmt
}

type WhileStmt struct {
	Base
	Cond Expression
	Body *Block
}

type ForStmt struct {
	Base
	Var   *Ident
	Iter  Expression
	Body  *Block
	Scope *Scope
}

// BreakStmt leaves Count enclosing loops (`break upto Count`).
type BreakStmt struct {
	Base
	Count int
}

// ContinueStmt resumes the Count-th enclosing loop (`continue upto Count`).
type ContinueStmt struct {
	Base
	Count int
}

type ReturnStmt struct {
	Base
	Value Expression
}

type ThrowStmt struct {
	Base
	Value Expression
}

type TryStmt struct {
	Base
	Body    *Block
	Catches []*CatchClause
	Finally *Block
}

// CatchClause matches thrown values by type name; an empty TypeName
// catches everything.
type CatchClause struct {
	Base
	Name     *Ident
	TypeName string
	Body     *Block
	Scope    *Scope
}

type SwitchStmt struct {
	Base
	Subject Expression
	Cases   []*CaseClause
}

type CaseClause struct {
	Base
	Labels  []Expression
	Default bool
	Body    *Block
}

type DeleteStmt struct {
	Base
	Target *Ident
}

type ExprStmt struct {
	Base
	X Expression
}

// AssignStmt writes Value to an identifier, index or member target.
type AssignStmt struct {
	Base
	Target Expression
	Value  Expression
}

func (*Block) statementNode()        {}
func (*LetStmt) statementNode()      {}
func (*FuncDecl) statementNode()     {}
func (*TypeDecl) statementNode()     {}
func (*ImportStmt) statementNode()   {}
func (*IfStmt) statementNode()       {}
func (*WhileStmt) statementNode()    {}
func (*ForStmt) statementNode()      {}
func (*BreakStmt) statementNode()    {}
func (*ContinueStmt) statementNode() {}
func (*ReturnStmt) statementNode()   {}
func (*ThrowStmt) statementNode()    {}
func (*TryStmt) statementNode()      {}
func (*SwitchStmt) statementNode()   {}
func (*DeleteStmt) statementNode()   {}
func (*ExprStmt) statementNode()     {}
func (*AssignStmt) statementNode()   {}

// ---------------------------------------------------------------------------
// Expressions

// Ident is both a declaration site (Var set by the binder) and a use site
// (Ref and Flow set by the binder and the flow checker).
type Ident struct {
	Base
	Name string
	Var  *Variable
	Ref  *Reference
	Flow FlowState
}

type IntLit struct {
	Base
	Value int64
}

type FloatLit struct {
	Base
	Value float64
}

type StringLit struct {
	Base
	Value string
}

type BoolLit struct {
	Base
	Value bool
}

type NullLit struct {
	Base
}

// Wildcard is the `_` case label.
type Wildcard struct {
	Base
}

type ListLit struct {
	Base
	Elems []Expression
}

// Comprehension is `[Elem for Var in Iter if Cond]`.
type Comprehension struct {
	Base
	Elem  Expression
	Var   *Ident
	Iter  Expression
	Cond  Expression
	Scope *Scope
}

type RangeExpr struct {
	Base
	Start     Expression
	End       Expression
	Inclusive bool
}

type BinaryExpr struct {
	Base
	Op    Operator
	Left  Expression
	Right Expression
}

// LogicalExpr is a short-circuiting `and` / `or`.
type LogicalExpr struct {
	Base
	Op    Operator
	Left  Expression
	Right Expression
}

type UnaryExpr struct {
	Base
	Op Operator
	X  Expression
}

type FuncLit struct {
	Base
	Name       string
	Params     []*Param
	ReturnType string
	Body       *Block
	Scope      *Scope
}

type CallExpr struct {
	Base
	Callee Expression
	Args   []Expression
}

type IndexExpr struct {
	Base
	X     Expression
	Index Expression
}

type MemberExpr struct {
	Base
	X    Expression
	Name string
}

type FieldInit struct {
	Base
	Name  string
	Value Expression
}

// StructLit constructs an instance of a declared type: `Type{f: v}`.
type StructLit struct {
	Base
	Type   *Ident
	Fields []*FieldInit
}

func (*Ident) expressionNode()         {}
func (*IntLit) expressionNode()        {}
func (*FloatLit) expressionNode()      {}
func (*StringLit) expressionNode()     {}
func (*BoolLit) expressionNode()       {}
func (*NullLit) expressionNode()       {}
func (*Wildcard) expressionNode()      {}
func (*ListLit) expressionNode()       {}
func (*Comprehension) expressionNode() {}
func (*RangeExpr) expressionNode()     {}
func (*BinaryExpr) expressionNode()    {}
func (*LogicalExpr) expressionNode()   {}
func (*UnaryExpr) expressionNode()     {}
func (*FuncLit) expressionNode()       {}
func (*CallExpr) expressionNode()      {}
func (*IndexExpr) expressionNode()     {}
func (*MemberExpr) expressionNode()    {}
func (*StructLit) expressionNode()     {}

// Field returns the initializer for name, if present.
func (s *StructLit) Field(name string) *FieldInit {
	for _, f := range s.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// IsLoop reports whether n is a loop statement for break/continue counting.
func IsLoop(n Node) bool {
	switch n.(type) {
	case *WhileStmt, *ForStmt:
		return true
	default:
		return false
	}
}
