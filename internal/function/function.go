// Package function implements the Function/Closure call and construct
// protocol of spec §4.6, grounded on internal/interp's function-value
// dispatch (CallUserFunction/ConstructUserFunction in the teacher) but
// reworked around *object.Object as the Function-kind value and a Closure
// stashed in its Internal slot.
//
// function does not import internal/interpreter, which would create an
// import cycle (interpreter needs to call functions; functions need to
// evaluate bodies, which only the interpreter knows how to do). Instead
// the package exposes EvalBodyHook and BindPatternHook, package-level
// hook variables the interpreter sets once at engine wiring time — the
// same pattern internal/object uses for CallHook/TypeErrorHook.
package function

import (
	"github.com/solarbrowser/quanta/internal/ast"
	"github.com/solarbrowser/quanta/internal/context"
	"github.com/solarbrowser/quanta/internal/environment"
	"github.com/solarbrowser/quanta/internal/errors"
	"github.com/solarbrowser/quanta/internal/object"
	"github.com/solarbrowser/quanta/internal/value"
)

// EvalBodyHook evaluates a closure's body (or, for a concise arrow body,
// its single expression) inside calleeCtx, which is already set up with
// the bound parameters and `this`. It records the result via
// calleeCtx.SetReturnValue and/or signals a thrown exception via
// calleeCtx.ThrowException/ThrowError; EvalBodyHook itself returns a
// non-nil error only for a host-level failure unrelated to a script
// exception (which should never happen once wired). Set once by
// internal/interpreter at engine construction time.
var EvalBodyHook func(calleeCtx *context.Context, cl *Closure) error

// BindPatternHook destructures v into pattern (an ArrayLiteral or
// ObjectLiteral used as a binding target) inside ctx's current lexical
// environment, declaring bindings of the given kind. Set by
// internal/interpreter; Closure.Call only needs it for parameters that
// are destructuring patterns rather than plain identifiers.
var BindPatternHook func(ctx *context.Context, pattern ast.Expression, v value.Value, kind environment.BindingKind) error

// ThrownValue wraps a thrown script Value (e.g. `throw {code: 1}`) as a Go
// error, preserving object identity across the Go-level Call/Construct
// return rather than collapsing it to a string (spec §4.4's exception
// channel keeps the original Value, not just a message).
type ThrownValue struct {
	V value.Value
}

func (t *ThrownValue) Error() string { return t.V.ToString() }

// Closure is the internal slot stashed on a Function-kind *object.Object
// (spec §4.6): parameter list, body, captured environment, and the flags
// that govern its call/construct behavior.
type Closure struct {
	Name string

	Params   []ast.Param
	Body     *ast.BlockStatement
	ExprBody ast.Expression // concise arrow body; nil for block bodies

	Env *environment.Environment // lexically captured defining environment

	Obj       *object.Object // the Function-kind object this Closure backs
	ProtoObj  *object.Object // the object installed as Obj's own "prototype" property, for `new`
	ObjectProto *object.Object // Object.prototype, used for arguments/bound-fn internals

	IsNative  bool
	Native    object.NativeCall
	IsCtor    bool
	IsArrow   bool
	IsClassCtor bool
	IsDerived bool // class constructor of a class with an `extends` clause
	SuperCtor *object.Object // superclass constructor, set for derived classes

	// InstanceFields holds a class's field initializers (`x = expr`
	// members), applied to `this` once at the start of the constructor's
	// body by EvalBodyHook's caller (see interpreter.evalBody).
	InstanceFields []ast.ClassMember

	// AutoSuperCall marks a derived class with no explicit constructor:
	// evalBody must call SuperCtor with the incoming arguments forwarded
	// before running instance field initializers, the default-constructor
	// behavior spec §4.6 describes as `constructor(...args){ super(...args); }`.
	AutoSuperCall bool
	IsStrict  bool
	IsGenerator bool
	IsAsync   bool

	// CapturedThis/CapturedNewTarget hold the lexical this/new.target an
	// arrow function closes over at creation time (spec §4.6: arrows never
	// bind their own `this`).
	CapturedThis      value.Value
	CapturedNewTarget value.Value

	// BoundThis/BoundArgs/Target are set for a function produced by Bind;
	// Target is the underlying Closure the bound function forwards to.
	Target    *Closure
	BoundThis value.Value
	BoundArgs []value.Value

	execCount uint32
	hotTier   int
}

// ExecCount returns the number of times this closure has been entered,
// the profiler's primary hot-spot signal (spec §4.8).
func (cl *Closure) ExecCount() uint32 { return cl.execCount }

// Touch increments the closure's invocation counter; called once per
// Call/Construct that actually runs the script body (not for native
// closures, which have no tier to promote).
func (cl *Closure) Touch() { cl.execCount++ }

// Tier returns the closure's current execution tier as tracked by the
// profiler (0 == interpreter-only; spec §4.8 owns the tier transitions
// and writes this field through SetTier).
func (cl *Closure) Tier() int { return cl.hotTier }

// SetTier records the closure's current execution tier.
func (cl *Closure) SetTier(tier int) { cl.hotTier = tier }

func closureOf(v value.Value) *Closure {
	if !v.IsObject() {
		return nil
	}
	obj, ok := v.AsObject().(*object.Object)
	if !ok {
		return nil
	}
	cl, _ := obj.Internal.(*Closure)
	return cl
}

// New allocates a Function-kind object for a script-defined function and
// installs cl in its Internal slot. protoForFn is the prototype of the
// function object itself (normally Function.prototype); when isCtor, a
// fresh ordinary object is installed as the function's own "prototype"
// property (the object `new`-calls use as the constructed instance's
// prototype), linked back to objectProto.
func New(protoForFn *object.Object, objectProto *object.Object, cl *Closure) *object.Object {
	fn := object.NewTagged(protoForFn, object.Function)
	fn.IsCtor = cl.IsCtor
	fn.IsArrow = cl.IsArrow
	fn.Class = "Function"
	cl.Obj = fn
	cl.ObjectProto = objectProto
	fn.Internal = cl

	paramCount := 0
	for _, p := range cl.Params {
		if p.Rest || p.Default != nil {
			break
		}
		paramCount++
	}
	fn.DefineDataWithAttrs("length", value.Number(float64(paramCount)), object.Configurable)
	fn.DefineDataWithAttrs("name", value.String(cl.Name), object.Configurable)

	if cl.IsCtor {
		proto := object.New(objectProto)
		proto.DefineDataWithAttrs("constructor", value.Object(fn), object.Writable|object.Configurable)
		fn.DefineDataWithAttrs("prototype", value.Object(proto), object.Writable)
		cl.ProtoObj = proto
	}
	return fn
}

// NewNative wraps a Go-implemented function as a Function-kind object,
// per the host function contract of spec §6: register_built_in_function
// installs exactly this shape.
func NewNative(protoForFn *object.Object, name string, arity int, native object.NativeCall, isCtor bool) *object.Object {
	cl := &Closure{Name: name, IsNative: true, Native: native, IsCtor: isCtor, IsStrict: true}
	fn := object.NewTagged(protoForFn, object.Function)
	fn.IsCtor = isCtor
	fn.Class = "Function"
	fn.Native = native
	cl.Obj = fn
	fn.Internal = cl
	fn.DefineDataWithAttrs("length", value.Number(float64(arity)), object.Configurable)
	fn.DefineDataWithAttrs("name", value.String(name), object.Configurable)
	return fn
}

// Call implements spec §4.6's ordinary-call algorithm. frame is the
// caller-constructed stack frame (function name/file/position of the
// call site); callerCtx is nil only when invoking from outside any script
// context (e.g. a host-triggered microtask callback).
func Call(callerCtx *context.Context, engine *context.Engine, callee value.Value, frame errors.StackFrame, this value.Value, args []value.Value) (value.Value, error) {
	cl := closureOf(callee)
	if cl == nil {
		return value.Undefined(), errors.New(errors.KindType, "value is not a function")
	}
	return cl.Call(callerCtx, engine, frame, this, args)
}

// Call invokes this closure with an already-resolved `this` and
// positional arguments.
func (cl *Closure) Call(callerCtx *context.Context, engine *context.Engine, frame errors.StackFrame, this value.Value, args []value.Value) (value.Value, error) {
	if cl.Target != nil { // bound function
		full := append(append([]value.Value{}, cl.BoundArgs...), args...)
		return cl.Target.Call(callerCtx, engine, frame, cl.BoundThis, full)
	}
	if cl.IsNative {
		return cl.Native(callerCtx, this, args)
	}
	if EvalBodyHook == nil {
		return value.Undefined(), errors.New(errors.KindInternal, "function body evaluator not wired")
	}

	thisBinding := this
	if cl.IsArrow {
		thisBinding = cl.CapturedThis
	} else if !cl.IsStrict && this.IsNullish() {
		thisBinding = engine.GlobalObject()
	}

	variableEnv := environment.NewVariableEnvironment(cl.Env)
	calleeCtx, err := context.New(engine, callerCtx, cl.Name, frame, variableEnv, thisBinding, cl.IsStrict)
	if err != nil {
		return value.Undefined(), err
	}
	defer calleeCtx.Release()
	calleeCtx.SetActive(cl)
	if cl.IsArrow {
		calleeCtx.SetNewTarget(cl.CapturedNewTarget)
	}

	if err := cl.bindParameters(calleeCtx, variableEnv, args); err != nil {
		return value.Undefined(), err
	}
	if !cl.IsArrow {
		cl.materializeArguments(calleeCtx, variableEnv, args)
	}
	if cl.Body != nil {
		Hoist(cl.Body.Body, variableEnv)
	}

	if err := EvalBodyHook(calleeCtx, cl); err != nil {
		return value.Undefined(), err
	}
	if calleeCtx.HasException() {
		return value.Undefined(), translateException(calleeCtx)
	}
	rv, _ := calleeCtx.ReturnValue()
	return rv, nil
}

func translateException(ctx *context.Context) error {
	if ev := ctx.ExceptionValue(); !ev.IsUndefined() || ctx.Exception() == nil {
		return &ThrownValue{V: ev}
	}
	return ctx.Exception()
}

// bindParameters implements spec §4.6's left-to-right parameter binding:
// positional value, else default-expression, else Undefined; a trailing
// rest parameter collects every remaining argument into an Array.
func (cl *Closure) bindParameters(ctx *context.Context, env *environment.Environment, args []value.Value) error {
	for i, p := range cl.Params {
		if p.Rest {
			rest := object.NewTagged(cl.ObjectProto, object.Array)
			rest.ArrayFastPath = true
			if i < len(args) {
				for _, v := range args[i:] {
					rest.SetIndex(rest.Length(), v)
				}
			}
			return cl.bindPattern(ctx, env, p.Pattern, value.Object(rest))
		}

		var v value.Value
		if i < len(args) {
			v = args[i]
		} else {
			v = value.Undefined()
		}
		if v.IsUndefined() && p.Default != nil {
			dv, err := evalDefault(ctx, p.Default)
			if err != nil {
				return err
			}
			v = dv
		}
		if err := cl.bindPattern(ctx, env, p.Pattern, v); err != nil {
			return err
		}
	}
	return nil
}

// DefaultEvalHook evaluates a parameter default-value expression in ctx;
// set by internal/interpreter alongside EvalBodyHook. Kept separate so a
// caller that never uses default parameters need not wire it.
var DefaultEvalHook func(ctx *context.Context, expr ast.Expression) (value.Value, error)

func evalDefault(ctx *context.Context, expr ast.Expression) (value.Value, error) {
	if DefaultEvalHook == nil {
		return value.Undefined(), nil
	}
	return DefaultEvalHook(ctx, expr)
}

func (cl *Closure) bindPattern(ctx *context.Context, env *environment.Environment, pattern ast.Expression, v value.Value) error {
	if ident, ok := pattern.(*ast.Identifier); ok {
		return env.CreateBinding(ident.Name, v, environment.KindVar)
	}
	if BindPatternHook == nil {
		return errors.New(errors.KindInternal, "destructuring pattern evaluator not wired")
	}
	return BindPatternHook(ctx, pattern, v, environment.KindVar)
}

// materializeArguments builds the `arguments` object (spec §4.6): an
// Arguments-kind object with indexed own properties plus a "length". In
// strict mode (or a strict-declared function) its "callee"/"caller"
// accessors are poisoned rather than wired to this closure.
func (cl *Closure) materializeArguments(ctx *context.Context, env *environment.Environment, args []value.Value) {
	obj := object.NewTagged(cl.ObjectProto, object.Arguments)
	for i, v := range args {
		obj.DefineDataWithAttrs(indexKey(i), v, object.DefaultDataAttrs)
	}
	obj.DefineDataWithAttrs("length", value.Number(float64(len(args))), object.Writable|object.Configurable)
	if cl.IsStrict {
		poisoned := value.Undefined()
		obj.DefineAccessor("callee", poisoned, poisoned, 0)
		obj.DefineAccessor("caller", poisoned, poisoned, 0)
	} else if cl.Obj != nil {
		obj.DefineDataWithAttrs("callee", value.Object(cl.Obj), object.Writable|object.Configurable)
	}
	_ = env.CreateBinding("arguments", value.Object(obj), environment.KindVar)
}

func indexKey(i int) string {
	if i < 10 {
		return string(rune('0' + i))
	}
	return itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}

// Hoist implements spec §4.5's pre-scan: every `var` declarator and
// function declaration reachable without crossing into a nested function
// body is bound in env before the body runs, so forward references and
// re-entrant recursion see a stable binding. Nested function
// declarations are bound eagerly to a callable Closure, capturing env
// itself as their defining environment; `var` names are bound to
// Undefined unless already a function binding from the same pre-scan
// (function bindings win per spec's declaration-order rule). Used both
// for a function body (by Call/Construct) and for a top-level script or
// module body (by the interpreter, against the global variable
// environment).
func Hoist(body []ast.Statement, env *environment.Environment) {
	for _, stmt := range body {
		hoistStatement(stmt, env)
	}
}

func hoistStatement(stmt ast.Statement, env *environment.Environment) {
	switch s := stmt.(type) {
	case *ast.VariableDeclaration:
		if s.Kind == ast.DeclVar {
			for _, d := range s.Declarations {
				hoistPatternNames(d.Target, env)
			}
		}
	case *ast.FunctionDeclaration:
		fn := New(nil, nil, &Closure{
			Name:        s.Function.Name,
			Params:      s.Function.Params,
			Body:        s.Function.Body,
			ExprBody:    s.Function.ExprBody,
			Env:         env,
			IsCtor:      !s.Function.IsAsync && !s.Function.IsGen,
			IsAsync:     s.Function.IsAsync,
			IsGenerator: s.Function.IsGen,
		})
		if err := env.CreateBinding(s.Function.Name, value.Object(fn), environment.KindFunction); err != nil {
			env.InitializeBinding(s.Function.Name, value.Object(fn))
		}
	case *ast.BlockStatement:
		for _, inner := range s.Body {
			hoistVarOnly(inner, env)
		}
	case *ast.IfStatement:
		hoistVarOnly(s.Consequent, env)
		if s.Alternate != nil {
			hoistVarOnly(s.Alternate, env)
		}
	case *ast.ForStatement:
		if decl, ok := s.Init.(*ast.VariableDeclaration); ok && decl.Kind == ast.DeclVar {
			for _, d := range decl.Declarations {
				hoistPatternNames(d.Target, env)
			}
		}
		hoistVarOnly(s.Body, env)
	case *ast.ForInStatement:
		if s.IsDecl && s.Decl == ast.DeclVar {
			hoistPatternNames(s.Left, env)
		}
		hoistVarOnly(s.Body, env)
	case *ast.ForOfStatement:
		if s.IsDecl && s.Decl == ast.DeclVar {
			hoistPatternNames(s.Left, env)
		}
		hoistVarOnly(s.Body, env)
	case *ast.WhileStatement:
		hoistVarOnly(s.Body, env)
	case *ast.DoWhileStatement:
		hoistVarOnly(s.Body, env)
	case *ast.TryStatement:
		if s.Block != nil {
			for _, inner := range s.Block.Body {
				hoistVarOnly(inner, env)
			}
		}
		if s.Catch != nil && s.Catch.Body != nil {
			for _, inner := range s.Catch.Body.Body {
				hoistVarOnly(inner, env)
			}
		}
		if s.Finally != nil {
			for _, inner := range s.Finally.Body {
				hoistVarOnly(inner, env)
			}
		}
	case *ast.LabeledStatement:
		hoistVarOnly(s.Body, env)
	case *ast.SwitchStatement:
		for _, c := range s.Cases {
			for _, inner := range c.Body {
				hoistVarOnly(inner, env)
			}
		}
	}
}

// hoistVarOnly is hoistStatement restricted to var-declarator names; used
// once inside a nested block so a nested function declaration there is
// not re-bound in the outer variable environment (block-scoped function
// declarations keep their own lexical binding, created when the block
// itself runs, not at hoist time).
func hoistVarOnly(stmt ast.Statement, env *environment.Environment) {
	switch s := stmt.(type) {
	case *ast.VariableDeclaration:
		if s.Kind == ast.DeclVar {
			for _, d := range s.Declarations {
				hoistPatternNames(d.Target, env)
			}
		}
	case *ast.BlockStatement:
		for _, inner := range s.Body {
			hoistVarOnly(inner, env)
		}
	case *ast.IfStatement:
		hoistVarOnly(s.Consequent, env)
		if s.Alternate != nil {
			hoistVarOnly(s.Alternate, env)
		}
	case *ast.ForStatement:
		if decl, ok := s.Init.(*ast.VariableDeclaration); ok && decl.Kind == ast.DeclVar {
			for _, d := range decl.Declarations {
				hoistPatternNames(d.Target, env)
			}
		}
		hoistVarOnly(s.Body, env)
	case *ast.WhileStatement:
		hoistVarOnly(s.Body, env)
	case *ast.DoWhileStatement:
		hoistVarOnly(s.Body, env)
	case *ast.TryStatement:
		if s.Block != nil {
			for _, inner := range s.Block.Body {
				hoistVarOnly(inner, env)
			}
		}
		if s.Catch != nil && s.Catch.Body != nil {
			for _, inner := range s.Catch.Body.Body {
				hoistVarOnly(inner, env)
			}
		}
		if s.Finally != nil {
			for _, inner := range s.Finally.Body {
				hoistVarOnly(inner, env)
			}
		}
	case *ast.LabeledStatement:
		hoistVarOnly(s.Body, env)
	}
}

func hoistPatternNames(pattern ast.Expression, env *environment.Environment) {
	if ident, ok := pattern.(*ast.Identifier); ok {
		if !env.HasOwnBinding(ident.Name) {
			_ = env.CreateBinding(ident.Name, value.Undefined(), environment.KindVar)
		}
	}
	// Destructuring-pattern var declarations are named by BindPatternHook
	// at declaration-execution time; their hoisted bindings are seeded
	// Undefined the same way once the interpreter walks the pattern, so no
	// further recursion is required here.
}

// Construct implements spec §4.6's `new` algorithm: TypeError if the
// target is not a constructor; otherwise a fresh ordinary object linked
// to the constructor's own "prototype" property (or Object.prototype
// when that property has been overwritten with a non-object), bound as
// `this`, with the explicit-object-return override and auto-super() for
// derived classes that never called it.
func (cl *Closure) Construct(callerCtx *context.Context, engine *context.Engine, frame errors.StackFrame, newTarget value.Value, args []value.Value) (value.Value, error) {
	if !cl.IsCtor {
		return value.Undefined(), errors.New(errors.KindType, "%s is not a constructor", cl.Name)
	}

	proto := cl.ObjectProto
	if cl.ProtoObj != nil {
		proto = cl.ProtoObj
	} else if cl.Obj != nil {
		if v, err := cl.Obj.Get(callerCtx, "prototype", value.Object(cl.Obj)); err == nil && v.IsObject() {
			if po, ok := v.AsObject().(*object.Object); ok {
				proto = po
			}
		}
	}
	instance := object.New(proto)
	instanceVal := value.Object(instance)

	rv, err := cl.callConstructing(callerCtx, engine, frame, instanceVal, newTarget, args)
	if err != nil {
		return value.Undefined(), err
	}
	if rv.IsObject() {
		return rv, nil
	}
	return instanceVal, nil
}

// callConstructing is Call with inConstructor/new.target set, split out
// so Construct doesn't duplicate the parameter-binding and hoisting
// logic above.
func (cl *Closure) callConstructing(callerCtx *context.Context, engine *context.Engine, frame errors.StackFrame, this value.Value, newTarget value.Value, args []value.Value) (value.Value, error) {
	if cl.IsNative {
		return cl.Native(callerCtx, this, args)
	}
	if EvalBodyHook == nil {
		return value.Undefined(), errors.New(errors.KindInternal, "function body evaluator not wired")
	}

	variableEnv := environment.NewVariableEnvironment(cl.Env)
	calleeCtx, err := context.New(engine, callerCtx, cl.Name, frame, variableEnv, this, cl.IsStrict)
	if err != nil {
		return value.Undefined(), err
	}
	defer calleeCtx.Release()
	calleeCtx.SetActive(cl)
	calleeCtx.SetInConstructorCall(true)
	calleeCtx.SetNewTarget(newTarget)
	if !cl.IsDerived {
		calleeCtx.SetSuperCalled()
	}

	if err := cl.bindParameters(calleeCtx, variableEnv, args); err != nil {
		return value.Undefined(), err
	}
	cl.materializeArguments(calleeCtx, variableEnv, args)
	if cl.Body != nil {
		Hoist(cl.Body.Body, variableEnv)
	}

	if err := EvalBodyHook(calleeCtx, cl); err != nil {
		return value.Undefined(), err
	}
	if calleeCtx.HasException() {
		return value.Undefined(), translateException(calleeCtx)
	}
	rv, _ := calleeCtx.ReturnValue()
	return rv, nil
}

// Bind implements Function.prototype.bind (spec §4.6): the returned
// Closure forwards every call to cl with boundThis and boundArgs
// prepended, preserving cl's construct behavior (`new (fn.bind(x))(y)`
// still constructs, ignoring boundThis for the instance's `this`).
func (cl *Closure) Bind(boundThis value.Value, boundArgs []value.Value) *Closure {
	bound := &Closure{
		Name:      "bound " + cl.Name,
		IsCtor:    cl.IsCtor,
		IsStrict:  true,
		Target:    cl,
		BoundThis: boundThis,
		BoundArgs: append([]value.Value{}, boundArgs...),
	}
	return bound
}
