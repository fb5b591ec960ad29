package ast

// Inspect traverses the tree rooted at node in depth-first order, calling
// f for each node. Children are skipped when f returns false.
func Inspect(node Node, f func(Node) bool) {
	if node == nil || !f(node) {
		return
	}

	for _, child := range Children(node) {
		Inspect(child, f)
	}
}

// Children returns the direct children of node in evaluation order.
func Children(node Node) []Node {
	var out []Node
	add := func(ns ...Node) {
		for _, n := range ns {
			if !isNil(n) {
				out = append(out, n)
			}
		}
	}

	switch n := node.(type) {
	case *Module:
		for _, s := range n.Body {
			add(s)
		}
	case *Block:
		for _, s := range n.Stmts {
			add(s)
		}
	case *LetStmt:
		add(n.Name, n.Value)
	case *FuncDecl:
		add(n.Name, n.Func)
	case *FuncLit:
		for _, p := range n.Params {
			add(p)
		}
		add(n.Body)
	case *Param:
		add(n.Name, n.Default)
	case *TypeDecl:
		add(n.Name, n.Extends)
		for _, f := range n.Fields {
			add(f)
		}
	case *Field:
		add(n.Name, n.Default)
	case *ImportStmt:
		add(n.Name)
	case *IfStmt:
		add(n.Cond, n.Then, n.Else)
	case *WhileStmt:
		add(n.Cond, n.Body)
	case *ForStmt:
		add(n.Iter, n.Var, n.Body)
	case *ReturnStmt:
		add(n.Value)
	case *ThrowStmt:
		add(n.Value)
	case *TryStmt:
		add(n.Body)
		for _, c := range n.Catches {
			add(c)
		}
		add(n.Finally)
	case *CatchClause:
		add(n.Name, n.Body)
	case *SwitchStmt:
		add(n.Subject)
		for _, c := range n.Cases {
			add(c)
		}
	case *CaseClause:
		for _, l := range n.Labels {
			add(l)
		}
		add(n.Body)
	case *DeleteStmt:
		add(n.Target)
	case *ExprStmt:
		add(n.X)
	case *AssignStmt:
		add(n.Target, n.Value)
	case *ListLit:
		for _, e := range n.Elems {
			add(e)
		}
	case *Comprehension:
		add(n.Iter, n.Var, n.Cond, n.Elem)
	case *RangeExpr:
		add(n.Start, n.End)
	case *BinaryExpr:
		add(n.Left, n.Right)
	case *LogicalExpr:
		add(n.Left, n.Right)
	case *UnaryExpr:
		add(n.X)
	case *CallExpr:
		add(n.Callee)
		for _, a := range n.Args {
			add(a)
		}
	case *IndexExpr:
		add(n.X, n.Index)
	case *MemberExpr:
		add(n.X)
	case *StructLit:
		add(n.Type)
		for _, f := range n.Fields {
			add(f)
		}
	case *FieldInit:
		add(n.Value)
	}

	return out
}

// isNil catches typed nil pointers stored in interfaces.
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case *Block:
		return v == nil
	case *Ident:
		return v == nil
	case *IfStmt:
		return v == nil
	case *FuncLit:
		return v == nil
	}
	return false
}

// Idents returns every identifier use (not declaration site) under node
// with the given name, in traversal order.
func Idents(node Node, name string) []*Ident {
	var out []*Ident
	Inspect(node, func(n Node) bool {
		if id, ok := n.(*Ident); ok && id.Name == name && id.Var == nil {
			out = append(out, id)
		}
		return true
	})
	return out
}
