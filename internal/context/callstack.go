package context

import "github.com/solarbrowser/quanta/internal/errors"

// defaultMaxDepth is the call-frame bound of spec §3/§4.4: "Frames live on
// a bounded stack (default 1024 deep)".
const defaultMaxDepth = 1024

// CallStack tracks the chain of active invocations for an engine, gating
// recursion depth and producing the frames an uncaught exception reports,
// adapted from internal/interp/runtime's CallStack.
type CallStack struct {
	frames   errors.StackTrace
	maxDepth int
}

// NewCallStack creates a call stack with the given maximum depth; a
// non-positive maxDepth falls back to the spec default of 1024.
func NewCallStack(maxDepth int) *CallStack {
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}
	return &CallStack{maxDepth: maxDepth}
}

// Push adds a frame, returning a RangeError-kind *errors.EngineError when
// doing so would exceed the configured maximum depth ("call stack size
// exceeded", spec §3).
func (cs *CallStack) Push(frame errors.StackFrame) error {
	if len(cs.frames) >= cs.maxDepth {
		return errors.New(errors.KindRange, "call stack size exceeded")
	}
	cs.frames = append(cs.frames, frame)
	return nil
}

// Pop removes the most recently pushed frame. No-op on an empty stack.
func (cs *CallStack) Pop() {
	if len(cs.frames) > 0 {
		cs.frames = cs.frames[:len(cs.frames)-1]
	}
}

// Depth returns the number of active frames.
func (cs *CallStack) Depth() int { return len(cs.frames) }

// WillOverflow reports whether one more Push would exceed the max depth.
func (cs *CallStack) WillOverflow() bool { return len(cs.frames) >= cs.maxDepth }

// Frames returns a copy of the captured frames, oldest first, suitable for
// attaching to an EngineError via errors.NewWithStack.
func (cs *CallStack) Frames() errors.StackTrace {
	out := make(errors.StackTrace, len(cs.frames))
	copy(out, cs.frames)
	return out
}

// Current returns the top-of-stack frame, if any.
func (cs *CallStack) Current() (errors.StackFrame, bool) {
	if len(cs.frames) == 0 {
		return errors.StackFrame{}, false
	}
	return cs.frames[len(cs.frames)-1], true
}
