package binder

import (
	"fmt"

	"expresso/pkg/color"
	"expresso/pkg/lexer"
)

func (b *Binder) addError(e string) {
	b.errors = append(b.errors, e)
}

func at(pos lexer.Position) string {
	return " at " + color.YellowText(fmt.Sprintf("Line: %d, Column %d", pos.Line, pos.Column))
}

func (b *Binder) addUndefinedVariableError(varName string, pos lexer.Position) {
	msg := color.RedText("Undefined variable") + " `" + color.BlueText(varName) + "`"
	b.addError(msg + at(pos))
}

func (b *Binder) addTypeMismatchError(expected, found string, pos lexer.Position) {
	msg := color.RedText("Type mismatch") + " expected " + color.BlueText(expected) + ", found " + color.BlueText(found)
	b.addError(msg + at(pos))
}

func (b *Binder) addRedeclarationError(name string, pos lexer.Position) {
	msg := color.RedText("Redeclaration of field") + " `" + color.BlueText(name) + "`"
	b.addError(msg + at(pos))
}

func (b *Binder) addConstRedeclarationError(name string, pos lexer.Position) {
	msg := color.RedText("Redeclaration of constant") + " `" + color.BlueText(name) + "`"
	b.addError(msg + at(pos))
}

func (b *Binder) addConstAssignmentError(name string, pos lexer.Position) {
	msg := color.RedText("Cannot assign to constant") + " `" + color.BlueText(name) + "`"
	b.addError(msg + at(pos))
}

func (b *Binder) addGlobalAssignmentError(name string, pos lexer.Position) {
	msg := color.RedText("Cannot assign to global") + " `" + color.BlueText(name) + "`"
	b.addError(msg + at(pos))
}

func (b *Binder) addJumpError(what string, pos lexer.Position) {
	b.addError(color.RedText(capitalize(what)) + at(pos))
}

func (b *Binder) addPlacementError(keyword string, pos lexer.Position) {
	msg := color.RedText("Misplaced "+keyword) + ", only allowed at module level"
	b.addError(msg + at(pos))
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
