// Package interpreter implements the tree-walking evaluator of spec §4.5:
// a switch-on-node-kind visitor over the AST, grounded on the teacher's
// evaluator.go/visitor_statements.go dispatch shape and its
// Config{MaxRecursionDepth} default, adapted from Pascal node kinds to
// ECMAScript's. It is the component that wires every lower package
// together: it sets function.EvalBodyHook/BindPatternHook/DefaultEvalHook
// and object.CallHook/TypeErrorHook so that internal/function and
// internal/object, which cannot import internal/interpreter without a
// cycle, can still reach evaluation.
package interpreter

import (
	gocontext "context"

	"github.com/solarbrowser/quanta/internal/ast"
	"github.com/solarbrowser/quanta/internal/context"
	"github.com/solarbrowser/quanta/internal/environment"
	"github.com/solarbrowser/quanta/internal/errors"
	"github.com/solarbrowser/quanta/internal/function"
	"github.com/solarbrowser/quanta/internal/jit"
	"github.com/solarbrowser/quanta/internal/object"
	"github.com/solarbrowser/quanta/internal/profiler"
	"github.com/solarbrowser/quanta/internal/promise"
	"github.com/solarbrowser/quanta/internal/value"
)

// Prototypes bundles the handful of built-in prototype objects the
// interpreter consults while evaluating (e.g. the prototype new Array
// literals get, or the prototype a thrown host error gets wrapped with).
// internal/builtins populates this at engine start-up; every field is
// nil-safe (a nil prototype just means "no inherited methods").
type Prototypes struct {
	Object   *object.Object
	Function *object.Object
	Array    *object.Object
	String   *object.Object
	Error    *object.Object
	Promise  *object.Object
}

// Interpreter owns the engine, the global scope, and the built-in
// prototypes, and is the receiver for every Eval/Exec method.
type Interpreter struct {
	Engine    *context.Engine
	GlobalEnv *environment.Environment
	Protos    Prototypes
	Profiler  *profiler.Profiler
	// JIT is the node-keyed native-code cache spec §4.10 describes; it
	// exists on every architecture (jit.Supported is false off amd64, at
	// which point every CompileXxx call simply reports ErrUnsupported and
	// evalBinary/evalUnary stay on the interpreter/bytecode tiers).
	JIT       *jit.Cache
	Loop      *promise.EventLoop
	filename  string

	// Awaiter, when set, drives an await expression's suspension through
	// internal/promise's event loop (pumping microtasks until the awaited
	// value settles). Left nil the await evaluates its operand eagerly,
	// which is enough for already-settled values and lets the interpreter
	// be used standalone before the event loop is wired in.
	Awaiter func(ctx *context.Context, v value.Value) (value.Value, error)

	// ErrorObjectHook, when set by internal/builtins, turns a host-raised
	// errors.EngineError into a script-visible Error instance (so a catch
	// block sees .message/.name and can instanceof it) instead of the bare
	// string execTry falls back to when nothing is wired.
	ErrorObjectHook func(kind errors.Kind, msg string) value.Value

	// globalObj is the object internal/builtins.Register built (holding
	// parseInt, Math, JSON, the Object/Array/String/Error constructors,
	// ...). BindGlobals snapshots its own properties into GlobalEnv as var
	// bindings so a bare `parseInt(...)`/`Math.PI` identifier resolves;
	// RunProgram also uses it as the script's `this`/global object instead
	// of an empty one.
	globalObj *object.Object
}

// BindGlobals records obj (typically internal/builtins.Register's return
// value) as the interpreter's global object, and declares each of its own
// properties as a var binding in GlobalEnv. Call once, after Register and
// before the first RunProgram.
func (i *Interpreter) BindGlobals(obj *object.Object) {
	i.globalObj = obj
	if obj == nil {
		return
	}
	for _, key := range obj.OwnPropertyKeys() {
		v, err := obj.Get(nil, key, value.Object(obj))
		if err != nil {
			continue
		}
		_ = i.GlobalEnv.CreateBinding(key, v, environment.KindVar)
	}
}

// wrapError converts ee into the Value a catch block binds, preferring
// ErrorObjectHook's real Error instance over a bare message string.
func (i *Interpreter) wrapError(ee *errors.EngineError) value.Value {
	if ee == nil {
		return value.Undefined()
	}
	if i.ErrorObjectHook != nil {
		return i.ErrorObjectHook(ee.Kind, ee.Msg)
	}
	return value.String(ee.Error())
}

// New creates an Interpreter over a fresh Engine and global environment,
// and wires the cross-package hooks function/object need to reach
// evaluation without an import cycle (spec §9's resolution of that
// Open Question).
func New(maxCallDepth int, filename string) *Interpreter {
	return NewWithThresholds(maxCallDepth, filename, profiler.DefaultThresholds())
}

// NewWithThresholds is New, tuned to t (pkg/quanta.WithJITThresholds/
// WithConfig's entry point into the tier-promotion machinery).
func NewWithThresholds(maxCallDepth int, filename string, t profiler.Thresholds) *Interpreter {
	engine := context.NewEngine(maxCallDepth, filename)
	i := &Interpreter{
		Engine:    engine,
		GlobalEnv: environment.NewVariableEnvironment(nil),
		Profiler:  profiler.NewWithThresholds(t),
		JIT:       jit.NewCache(),
		Loop:      promise.NewEventLoop(),
		filename:  filename,
	}
	i.Awaiter = func(ctx *context.Context, v value.Value) (value.Value, error) {
		rv, err := promise.Await(gocontext.Background(), i.Loop, v)
		if err != nil {
			if re, ok := err.(*promise.RejectedError); ok {
				ctx.ThrowException(re.Reason)
				return value.Undefined(), nil
			}
			return value.Undefined(), err
		}
		return rv, nil
	}
	i.wire()
	return i
}

// RunMicrotasks drains the interpreter's event loop, running every queued
// Promise reaction to quiescence (spec §4.7). Call after RunProgram for a
// script whose top-level completion leaves microtasks pending.
func (i *Interpreter) RunMicrotasks() error {
	return i.Loop.Run(gocontext.Background())
}

func (i *Interpreter) wire() {
	function.EvalBodyHook = i.evalBody
	function.BindPatternHook = i.bindPattern
	function.DefaultEvalHook = func(ctx *context.Context, expr ast.Expression) (value.Value, error) {
		return i.Eval(ctx, expr)
	}
	object.CallHook = func(ctx any, fn value.Value, this value.Value, args []value.Value) (value.Value, error) {
		return function.Call(asContext(ctx), i.Engine, fn, errors.StackFrame{FunctionName: "<accessor>"}, this, args)
	}
	object.TypeErrorHook = func(format string, args ...any) error {
		return errors.New(errors.KindType, format, args...)
	}
}

func asContext(ctx any) *context.Context {
	c, _ := ctx.(*context.Context)
	return c
}

// RunProgram evaluates every top-level statement of prog in a fresh root
// Context bound to the interpreter's global environment, pre-scanning for
// var/function hoisting first (spec §4.5). It returns the completion
// value of the last ExpressionStatement evaluated (Undefined if the
// program had none), or the error of an uncaught exception/host failure.
func (i *Interpreter) RunProgram(prog *ast.Program) (value.Value, error) {
	global := value.Undefined()
	switch {
	case i.globalObj != nil:
		global = value.Object(i.globalObj)
	case i.Protos.Object != nil:
		global = value.Object(object.New(i.Protos.Object))
	}
	i.Engine.SetGlobalObject(global)

	ctx, err := context.New(i.Engine, nil, "<script>", errors.StackFrame{FunctionName: "<script>", FileName: i.filename}, i.GlobalEnv, global, false)
	if err != nil {
		return value.Undefined(), err
	}
	defer ctx.Release()

	function.Hoist(prog.Body, i.GlobalEnv)
	i.hoistLexical(i.GlobalEnv, prog.Body)

	var last value.Value = value.Undefined()
	for _, stmt := range prog.Body {
		if es, ok := stmt.(*ast.ExpressionStatement); ok {
			v, err := i.Eval(ctx, es.Expr)
			if err != nil {
				return value.Undefined(), err
			}
			if ctx.HasException() {
				return value.Undefined(), i.uncaught(ctx)
			}
			last = v
			continue
		}
		sig, err := i.execStatement(ctx, stmt)
		if err != nil {
			return value.Undefined(), err
		}
		if ctx.HasException() {
			return value.Undefined(), i.uncaught(ctx)
		}
		if sig.kind == sigReturn {
			rv, _ := ctx.ReturnValue()
			return rv, nil
		}
	}
	return last, nil
}

func (i *Interpreter) uncaught(ctx *context.Context) error {
	if v := ctx.ExceptionValue(); !v.IsUndefined() {
		return &function.ThrownValue{V: v}
	}
	return ctx.Exception()
}

// evalBody is installed as function.EvalBodyHook: it runs a closure's
// block body (or evaluates its concise arrow expression body) inside the
// already-prepared calleeCtx.
func (i *Interpreter) evalBody(ctx *context.Context, cl *function.Closure) error {
	cl.Touch()
	i.Profiler.RecordCall(cl)
	if cl.AutoSuperCall && cl.SuperCtor != nil {
		if err := i.callAutoSuper(ctx, cl); err != nil {
			return err
		}
		if ctx.HasException() {
			return nil
		}
	}
	if len(cl.InstanceFields) > 0 {
		if err := i.initInstanceFields(ctx, cl); err != nil {
			return err
		}
		if ctx.HasException() {
			return nil
		}
	}
	if cl.ExprBody != nil {
		v, err := i.Eval(ctx, cl.ExprBody)
		if err != nil {
			return err
		}
		if !ctx.HasException() {
			ctx.SetReturnValue(v)
		}
		return nil
	}
	if cl.Body == nil {
		return nil
	}
	_, err := i.execStatements(ctx, cl.Body.Body)
	return err
}

// callAutoSuper runs the default-constructor `super(...arguments)` call a
// derived class with no explicit constructor implies (spec §4.6).
func (i *Interpreter) callAutoSuper(ctx *context.Context, cl *function.Closure) error {
	argsVal, found, _ := ctx.VariableEnv().GetBinding("arguments")
	var args []value.Value
	if found {
		args = iterableValues(argsVal)
	}
	superCl, ok := cl.SuperCtor.Internal.(*function.Closure)
	if !ok {
		ctx.ThrowError(errors.New(errors.KindType, "super constructor is not callable"))
		return nil
	}
	frame := errors.StackFrame{FunctionName: "super", FileName: i.filename}
	_, err := superCl.Call(ctx, ctx.Engine(), frame, ctx.ThisBinding(), args)
	if err != nil {
		i.propagateCallError(ctx, err)
		return nil
	}
	ctx.SetSuperCalled()
	return nil
}

// bindPattern is installed as function.BindPatternHook: it destructures v
// into an array/object binding pattern, declaring each name in ctx's
// current lexical environment.
func (i *Interpreter) bindPattern(ctx *context.Context, pattern ast.Expression, v value.Value, kind environment.BindingKind) error {
	return i.destructureInto(ctx, ctx.LexicalEnv(), pattern, v, kind)
}
