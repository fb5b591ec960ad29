package interpreter

import (
	"errors"
	"fmt"

	"expresso/pkg/lexer"
)

var (
	ErrNotImplemented   = errors.New("interpreter step function not linked")
	ErrMaxStepsExceeded = errors.New("maximum steps exceeded")
)

// FaultKind classifies internal faults.
type FaultKind int

const (
	FaultSystem FaultKind = iota
	FaultInvalidType
	FaultReference
	FaultImport
	FaultMissingType
	FaultStackOverflow
)

var faultKindNames = [...]string{
	FaultSystem:        "SystemError",
	FaultInvalidType:   "InvalidTypeError",
	FaultReference:     "ReferenceError",
	FaultImport:        "ImportError",
	FaultMissingType:   "MissingTypeError",
	FaultStackOverflow: "StackOverflow",
}

func (k FaultKind) String() string { return faultKindNames[k] }

// Fault is a fatal runtime failure. Programs cannot catch faults.
type Fault struct {
	Kind    FaultKind
	Message string
	Pos     lexer.Position
}

func (f *Fault) Error() string {
	if f.Pos.Line == 0 {
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	}
	return fmt.Sprintf("%s: %s at Line: %d, Column %d", f.Kind, f.Message, f.Pos.Line, f.Pos.Column)
}

// Is matches faults of the same kind, so errors.Is(err, ErrStackOverflow)
// holds for any overflow.
func (f *Fault) Is(target error) bool {
	t, ok := target.(*Fault)
	return ok && t.Kind == f.Kind && t.Message == ""
}

var (
	ErrSystem        = &Fault{Kind: FaultSystem}
	ErrInvalidType   = &Fault{Kind: FaultInvalidType}
	ErrReference     = &Fault{Kind: FaultReference}
	ErrImport        = &Fault{Kind: FaultImport}
	ErrMissingType   = &Fault{Kind: FaultMissingType}
	ErrStackOverflow = &Fault{Kind: FaultStackOverflow}
)

func fault(kind FaultKind, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Thrown wraps a value raised by `throw` or by a failing operation. It
// travels as an error until a catch clause takes it.
type Thrown struct {
	Value Value
	Pos   lexer.Position
}

func (t *Thrown) Error() string {
	return "thrown " + t.TypeName() + ": " + t.Value.String()
}

// TypeName returns the runtime type name of the thrown value
func (t *Thrown) TypeName() string {
	return t.Value.TypeName()
}

// Matches reports whether a catch clause for typeName takes the value. An
// empty name catches everything; instances also match their base types.
func (t *Thrown) Matches(typeName string) bool {
	if typeName == "" {
		return true
	}
	if in := t.Value.AsInstance(); t.Value.Kind == KindInstance && in != nil {
		return in.Type.Is(typeName)
	}
	return t.TypeName() == typeName
}

// UncaughtError reports a thrown value that no catch clause took.
type UncaughtError struct {
	TypeName string
	Value    Value
	Pos      lexer.Position
}

func (e *UncaughtError) Error() string {
	msg := e.Value.String()
	if in := e.Value.AsInstance(); e.Value.Kind == KindInstance && in != nil {
		if m, ok := in.Get("message"); ok && m.Kind == KindString {
			msg = m.Str
		}
	}
	if e.Pos.Line == 0 {
		return fmt.Sprintf("uncaught %s: %s", e.TypeName, msg)
	}
	return fmt.Sprintf("uncaught %s: %s at Line: %d, Column %d", e.TypeName, msg, e.Pos.Line, e.Pos.Column)
}

// runtimeError is raised by operations and builtins. The interpreter turns
// it into a thrown instance of the named builtin error type.
type runtimeError struct {
	Type    string
	Message string
}

func (e *runtimeError) Error() string {
	return e.Type + ": " + e.Message
}

func arithmeticError(format string, args ...any) error {
	return &runtimeError{Type: "ArithmeticError", Message: fmt.Sprintf(format, args...)}
}

func indexError(format string, args ...any) error {
	return &runtimeError{Type: "IndexError", Message: fmt.Sprintf(format, args...)}
}

func valueError(format string, args ...any) error {
	return &runtimeError{Type: "ValueError", Message: fmt.Sprintf(format, args...)}
}
