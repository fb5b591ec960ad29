package interpreter

import "expresso/pkg/ast"

// Member is one top-level binding of an evaluated module.
type Member struct {
	Name     string
	Offset   int
	Exported bool
	Value    Value
}

// ModuleRecord is published for every evaluated module. Values are taken
// at the end of its top-level evaluation.
type ModuleRecord struct {
	Name    string
	Members []Member
}

// Modules maps module names to their published records.
type Modules map[string]*ModuleRecord

// Lookup returns the latest member called name, exported or not
func (m *ModuleRecord) Lookup(name string) (Member, bool) {
	for i := len(m.Members) - 1; i >= 0; i-- {
		if m.Members[i].Name == name {
			return m.Members[i], true
		}
	}
	return Member{}, false
}

// Export returns the value of an exported member
func (m *ModuleRecord) Export(name string) (Value, bool) {
	member, ok := m.Lookup(name)
	if !ok || !member.Exported {
		return Null, false
	}
	return member.Value, true
}

// Bindings returns the latest value of every member, keyed by name
func (m *ModuleRecord) Bindings() map[string]Value {
	out := make(map[string]Value, len(m.Members))
	for _, member := range m.Members {
		out[member.Name] = member.Value
	}
	return out
}

// Imports lists the module names a module imports, in source order
func Imports(mod *ast.Module) []string {
	var names []string
	for _, stmt := range mod.Body {
		if imp, ok := stmt.(*ast.ImportStmt); ok {
			names = append(names, imp.Name.Name)
		}
	}
	return names
}

// record reads the module scope's slots into a ModuleRecord
func (i *Interpreter) record(mod *ast.Module, env *Env) (*ModuleRecord, error) {
	rec := &ModuleRecord{Name: mod.Name}
	for _, v := range mod.Scope.Vars {
		val, err := i.Get(env.Base + v.Offset)
		if err != nil {
			return nil, err
		}
		if val.Kind == KindCell {
			val = val.cell().Value
		}
		rec.Members = append(rec.Members, Member{
			Name:     v.Name,
			Offset:   v.Offset,
			Exported: v.Exported,
			Value:    val,
		})
	}
	return rec, nil
}
