// Package context implements the per-invocation execution state of spec
// §3/§4.4 (Context / Call stack), adapted from internal/interp/runtime's
// ExecutionContext: the call-stack depth guard, the exception channel, and
// the this/new.target bindings a Context exposes to the Interpreter.
package context

import (
	"github.com/solarbrowser/quanta/internal/environment"
	"github.com/solarbrowser/quanta/internal/errors"
	"github.com/solarbrowser/quanta/internal/value"
)

// Engine owns the shared call stack and the survivor pool of Contexts kept
// alive past function return because they still back a Promise's deferred
// callback (spec §3 "Lifecycles" / §4.4). One Engine backs one script
// execution; it is not safe for concurrent use by design (single OS
// thread, spec §1).
type Engine struct {
	callStack    *CallStack
	survivors    []*Context
	filename     string
	globalObject value.Value
}

// NewEngine creates an Engine with the given call-stack depth (0 for the
// spec default of 1024) and source filename (reported by
// get_current_filename).
func NewEngine(maxCallDepth int, filename string) *Engine {
	return &Engine{callStack: NewCallStack(maxCallDepth), filename: filename}
}

// CallStack returns the engine's shared call stack.
func (e *Engine) CallStack() *CallStack { return e.callStack }

// SetGlobalObject records the engine's global object, used as the `this`
// binding of non-strict function calls invoked with a null/undefined
// receiver (spec §4.6).
func (e *Engine) SetGlobalObject(v value.Value) { e.globalObject = v }

// GlobalObject returns the engine's global object (Undefined if unset).
func (e *Engine) GlobalObject() value.Value { return e.globalObject }

// Promote moves ctx to the survivor pool, keeping it alive past its
// invocation's return because a Promise it backs may still resolve
// asynchronously (spec §3).
func (e *Engine) Promote(ctx *Context) {
	e.survivors = append(e.survivors, ctx)
}

// ReleaseSurvivors drops every promoted Context.
func (e *Engine) ReleaseSurvivors() {
	e.survivors = nil
}

// Context is one invocation's execution state: the function's this-binding,
// new.target, the active exception (if any), strict-mode flag, and the
// variable/lexical environment chains for that invocation (spec's "Call
// frame" record).
type Context struct {
	engine      *Engine
	caller      *Context
	variableEnv *environment.Environment
	lexicalEnv  *environment.Environment

	thisBinding value.Value
	newTarget   value.Value

	strict        bool
	inConstructor bool
	superCalled   bool

	exception      *errors.EngineError
	exceptionValue value.Value
	returnValue    value.Value
	hasReturned    bool

	// active holds the function.Closure currently executing in this
	// Context, stashed as `any` the same way object.Object.Internal avoids
	// an import cycle (internal/function already imports internal/context,
	// so the reverse import is impossible). Used by super() call resolution.
	active any
}

// SetActive records the Closure driving this invocation.
func (c *Context) SetActive(v any) { c.active = v }

// Active returns the Closure set by SetActive, or nil.
func (c *Context) Active() any { return c.active }

// New creates a Context for one invocation, pushing a call-stack frame
// named functionName. The returned error is a RangeError-kind
// *errors.EngineError ("call stack size exceeded") when the engine's call
// stack is already at its configured maximum depth; callers must not use
// the Context further in that case.
func New(engine *Engine, caller *Context, functionName string, frame errors.StackFrame, variableEnv *environment.Environment, thisBinding value.Value, strict bool) (*Context, error) {
	if err := engine.callStack.Push(frame); err != nil {
		return nil, err
	}
	return &Context{
		engine:      engine,
		caller:      caller,
		variableEnv: variableEnv,
		lexicalEnv:  variableEnv,
		thisBinding: thisBinding,
		newTarget:   value.Undefined(),
		strict:      strict,
	}, nil
}

// Release pops this Context's frame from the engine's call stack. Callers
// invoke this on return; promoting a Context to the survivor pool (see
// Engine.Promote) does not pop or release its frame.
func (c *Context) Release() {
	c.engine.callStack.Pop()
}

// Engine returns the owning Engine.
func (c *Context) Engine() *Engine { return c.engine }

// Caller returns the invocation that created this one, or nil at the top
// of the call stack.
func (c *Context) Caller() *Context { return c.caller }

// VariableEnv returns the invocation's variable environment (hoisted var
// bindings, function-scoped).
func (c *Context) VariableEnv() *environment.Environment { return c.variableEnv }

// LexicalEnv returns the innermost active lexical (let/const/block)
// environment. It starts out equal to VariableEnv and is swapped by the
// Interpreter as block scopes are entered and left.
func (c *Context) LexicalEnv() *environment.Environment { return c.lexicalEnv }

// PushBlockScope enters a new lexical environment nested under the
// current one, returning it so the caller can restore the previous value
// on block exit.
func (c *Context) PushBlockScope() (restore func()) {
	prev := c.lexicalEnv
	c.lexicalEnv = environment.NewLexicalEnvironment(prev)
	return func() { c.lexicalEnv = prev }
}

// ThrowException sets the active exception from a Value (e.g. a thrown
// user object) wrapped as a generic EngineError carrying that value's
// string form; the Interpreter is responsible for preserving the original
// Value on the Error object it throws. Any subsequent operation on this
// Context should check HasException and short-circuit (spec §4.4).
func (c *Context) ThrowException(v value.Value) {
	c.exception = &errors.EngineError{Kind: errors.KindGeneric, Msg: v.ToString()}
	c.exceptionValue = v
}

// ThrowError sets the active exception from an already-constructed
// EngineError (the common path for host-raised TypeError/RangeError/etc).
func (c *Context) ThrowError(err *errors.EngineError) {
	c.exception = err
	c.exceptionValue = value.Undefined()
}

// HasException reports whether an exception is currently active.
func (c *Context) HasException() bool { return c.exception != nil }

// Exception returns the active EngineError, or nil if none.
func (c *Context) Exception() *errors.EngineError { return c.exception }

// ExceptionValue returns the thrown Value when ThrowException was used
// (for `throw someObject`), or Undefined when the exception originated as
// a host EngineError.
func (c *Context) ExceptionValue() value.Value { return c.exceptionValue }

// ClearException clears the active exception, e.g. on entering a catch
// block.
func (c *Context) ClearException() {
	c.exception = nil
	c.exceptionValue = value.Value{}
}

// SetReturnValue records the invocation's result and marks it as having
// returned, used by the Interpreter to unwind out of nested statements on
// a `return`.
func (c *Context) SetReturnValue(v value.Value) {
	c.returnValue = v
	c.hasReturned = true
}

// ReturnValue returns the recorded return value (Undefined if none was
// set) and whether a return has occurred.
func (c *Context) ReturnValue() (value.Value, bool) { return c.returnValue, c.hasReturned }

// IsStrictMode reports whether this invocation runs under strict-mode
// semantics.
func (c *Context) IsStrictMode() bool { return c.strict }

// ThisBinding returns the invocation's `this` value.
func (c *Context) ThisBinding() value.Value { return c.thisBinding }

// SetNewTarget records the constructor-call's new.target value (Undefined
// for an ordinary call).
func (c *Context) SetNewTarget(v value.Value) { c.newTarget = v }

// NewTarget returns the current new.target value.
func (c *Context) NewTarget() value.Value { return c.newTarget }

// SetInConstructorCall marks whether this invocation is a `new` call.
func (c *Context) SetInConstructorCall(b bool) { c.inConstructor = b }

// IsInConstructorCall reports whether this invocation is a `new` call.
func (c *Context) IsInConstructorCall() bool { return c.inConstructor }

// SetSuperCalled records that `super(...)` has run in this constructor
// invocation, required before `this` may be used in a derived class
// constructor.
func (c *Context) SetSuperCalled() { c.superCalled = true }

// SuperCalled reports whether `super(...)` has already run.
func (c *Context) SuperCalled() bool { return c.superCalled }

// GetCurrentFilename returns the source filename associated with the
// owning engine, used in stack frames and error reports.
func (c *Context) GetCurrentFilename() string { return c.engine.filename }
