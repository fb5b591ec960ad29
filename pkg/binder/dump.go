package binder

import (
	"fmt"
	"io"
	"strings"

	"expresso/pkg/ast"
	"expresso/pkg/color"
)

// Dump writes the scope tree rooted at root, one variable per line
func Dump(w io.Writer, root *ast.Scope) {
	dump(w, root, 0)
}

func dump(w io.Writer, s *ast.Scope, depth int) {
	indent := strings.Repeat("  ", depth)

	header := fmt.Sprintf("%s%s scope", indent, s.Kind)
	if len(s.FreeVars) > 0 {
		header += " free=" + strings.Join(s.FreeNames(), ",")
	}
	fmt.Fprintln(w, color.CyanText(header))

	for _, v := range s.Vars {
		var flags []string
		if v.Const {
			flags = append(flags, "const")
		}
		if v.Captured {
			flags = append(flags, "captured")
		}
		if v.Exported {
			flags = append(flags, "exported")
		}
		if v.ReadBeforeInitialized {
			flags = append(flags, "read-before-init")
		}
		typ := v.Type
		if typ == "" {
			typ = "?"
		}
		fmt.Fprintf(w, "%s  [%d] %s %s: %s %s\n", indent, v.Offset, v.Kind, v.Name, typ, color.GrayText(strings.Join(flags, " ")))
	}

	for _, child := range s.Children {
		dump(w, child, depth+1)
	}
}
