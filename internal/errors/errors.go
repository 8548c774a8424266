// Package errors defines the engine-level error kinds of the core (§7) and
// the call-stack formatting used to report uncaught exceptions.
package errors

import (
	"fmt"
	"strings"
)

// Kind identifies one of the error kinds the core recognizes natively.
// Each kind corresponds to a distinct built-in error prototype so that
// user code can distinguish them with instanceof.
type Kind string

const (
	KindSyntax    Kind = "SyntaxError"
	KindReference Kind = "ReferenceError"
	KindType      Kind = "TypeError"
	KindRange     Kind = "RangeError"
	KindGeneric   Kind = "Error"
	KindInternal  Kind = "InternalError"
)

// EngineError is a host-level error carrying the kind, a message, and the
// call stack captured at the point the error was constructed. The
// Interpreter converts one of these into a Value on the context's
// exception slot; EngineError itself is also returned to Go callers that
// cross the host boundary (e.g. pkg/quanta.Eval).
type EngineError struct {
	Kind  Kind
	Msg   string
	Stack StackTrace
}

// New constructs an EngineError of the given kind with no captured stack.
// Use NewWithStack from the Context when a call stack is available.
func New(kind Kind, format string, args ...any) *EngineError {
	return &EngineError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NewWithStack constructs an EngineError carrying a captured call stack.
func NewWithStack(kind Kind, stack StackTrace, format string, args ...any) *EngineError {
	return &EngineError{Kind: kind, Msg: fmt.Sprintf(format, args...), Stack: stack}
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if len(e.Stack) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", e.Kind, e.Msg)
	sb.WriteString(e.Stack.String())
	return sb.String()
}

// Is supports errors.Is comparisons against a bare Kind sentinel created
// with New(kind, "").
func (e *EngineError) Is(target error) bool {
	other, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// IsKind reports whether err is an *EngineError of the given kind.
func IsKind(err error, kind Kind) bool {
	ee, ok := err.(*EngineError)
	return ok && ee.Kind == kind
}
