package binder

import "expresso/pkg/ast"

// resolveCaptures is the second pass. Scopes are visited most nested
// first, so a child's free set is final before its parent is computed.
func (b *Binder) resolveCaptures() {
	for i := len(b.all) - 1; i >= 0; i-- {
		s := b.all[i]
		s.FreeVars = nil
		seen := make(map[*ast.Variable]bool)

		add := func(v *ast.Variable) {
			if v == nil || v.Scope == s || seen[v] || !v.Scope.Encloses(s) {
				return
			}
			seen[v] = true
			s.FreeVars = append(s.FreeVars, v)
		}

		for _, id := range b.uses[s] {
			add(id.Ref.Var)
		}
		for _, child := range s.Children {
			for _, v := range child.FreeVars {
				add(v)
			}
		}
	}

	// every function-like scope turns its free set into a capture list
	for _, s := range b.all {
		s.Captures = nil
		if !s.IsFunctionLike() || s.Parent == nil {
			continue
		}
		for _, v := range s.FreeVars {
			v.Captured = true
			s.Captures = append(s.Captures, &ast.Capture{Var: v})
		}
	}

	// capture indices are known now
	for _, s := range b.all {
		for _, c := range s.Captures {
			c.From = b.reference(s.Parent, c.Var)
		}
		for _, id := range b.uses[s] {
			if id.Ref.Kind == ast.RefFree {
				id.Ref.Index = s.Function().CaptureIndex(id.Ref.Var)
			}
		}
	}
}

// reference computes how v is reached from scope. Names are matched by
// identity, since a later declaration may shadow v by the end of binding.
func (b *Binder) reference(scope *ast.Scope, v *ast.Variable) ast.Reference {
	ref := ast.Reference{Kind: ast.RefLocal, Var: v, Index: -1, Name: v.Name}
	for cur := scope; cur != nil && cur != v.Scope; cur = cur.Parent {
		if cur.IsFunctionLike() {
			ref.Kind = ast.RefFree
		}
		ref.Level++
	}
	if ref.Kind == ast.RefFree {
		ref.Index = scope.Function().CaptureIndex(v)
	}
	return ref
}
