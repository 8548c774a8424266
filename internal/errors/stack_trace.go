package errors

import (
	"fmt"
	"strings"
)

// StackFrame is a single entry in a captured call stack: the function
// name, originating file, and source position of the call site.
type StackFrame struct {
	FunctionName string
	FileName     string
	Line         int
	Column       int
}

// String formats a frame as "FunctionName (file:line:column)". Frames with
// no associated file (native/host frames) omit the location.
func (sf StackFrame) String() string {
	if sf.FileName == "" {
		return sf.FunctionName
	}
	return fmt.Sprintf("%s (%s:%d:%d)", sf.FunctionName, sf.FileName, sf.Line, sf.Column)
}

// StackTrace is a complete call stack, ordered oldest (bottom) to newest
// (top) — the same order frames are pushed in by the Context.
type StackTrace []StackFrame

// String renders the trace newest-frame-first, the conventional order for
// an uncaught-exception report.
func (st StackTrace) String() string {
	if len(st) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := len(st) - 1; i >= 0; i-- {
		sb.WriteString("    at ")
		sb.WriteString(st[i].String())
		if i > 0 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Top returns the most recently pushed frame, or the zero frame if empty.
func (st StackTrace) Top() (StackFrame, bool) {
	if len(st) == 0 {
		return StackFrame{}, false
	}
	return st[len(st)-1], true
}

// Depth returns the number of frames currently captured.
func (st StackTrace) Depth() int {
	return len(st)
}
