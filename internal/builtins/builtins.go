// Package builtins populates an Interpreter's global object and prototype
// set (spec §6's "Built-ins registration": register_built_in_object called
// for each of Object/Function/Array/String/Error+subtypes/Math/JSON/Promise
// during engine construction). Grounded on the teacher's
// internal/bytecode/vm_builtins*.go split — one file per builtin domain,
// a single registerXBuiltins entry point per file — adapted from the
// teacher's flat name->NativeCall map into ECMAScript's prototype-chain
// shape (methods live on Foo.prototype, not a global namespace).
package builtins

import (
	"github.com/solarbrowser/quanta/internal/context"
	"github.com/solarbrowser/quanta/internal/errors"
	"github.com/solarbrowser/quanta/internal/function"
	"github.com/solarbrowser/quanta/internal/interpreter"
	"github.com/solarbrowser/quanta/internal/object"
	"github.com/solarbrowser/quanta/internal/value"
)

// registry carries the handful of objects built-in constructors need to
// cross-reference while they're being assembled (Function.prototype as the
// proto of every native function object; Object.prototype as the root of
// every prototype chain).
type registry struct {
	i            *interpreter.Interpreter
	global       *object.Object
	objectProto  *object.Object
	functionProto *object.Object
	arrayProto   *object.Object
	stringProto  *object.Object
	errorProto   *object.Object
	promiseProto *object.Object
}

// Register builds the built-in object graph and binds it onto a fresh
// global object, populating i.Protos so the interpreter can seed new
// literals/functions/arrays with the right prototype (spec §6's stated
// core dependency: Object/Function/Array.prototype, Promise, Error+subtypes).
// Call once, before RunProgram.
func Register(i *interpreter.Interpreter) *object.Object {
	r := &registry{i: i}

	r.objectProto = object.New(nil)
	r.functionProto = function.NewNative(r.objectProto, "", 0, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		return value.Undefined(), nil
	}, false)

	r.global = object.New(r.objectProto)

	r.registerObject()
	r.registerFunction()
	r.registerArray()
	r.registerString()
	r.registerError()
	r.registerMath()
	r.registerJSON()
	r.registerPromise()
	r.registerGlobals()

	i.ErrorObjectHook = func(kind errors.Kind, msg string) value.Value {
		return value.Object(r.newErrorInstance(string(kind), msg))
	}

	i.Protos = interpreter.Prototypes{
		Object:   r.objectProto,
		Function: r.functionProto,
		Array:    r.arrayProto,
		String:   r.stringProto,
		Error:    r.errorProto,
		Promise:  r.promiseProto,
	}
	return r.global
}

// newConstructor wraps native as a Function-kind constructor object whose
// own "prototype" property is proto, with proto's "constructor" linked
// back — the two-way wiring `new` (function.Closure.Construct) and
// instanceof (interpreter.evalInstanceof) both depend on.
func (r *registry) newConstructor(name string, arity int, proto *object.Object, native object.NativeCall) *object.Object {
	ctor := function.NewNative(r.functionProto, name, arity, native, true)
	cl := ctor.Internal.(*function.Closure)
	cl.ProtoObj = proto
	cl.ObjectProto = r.objectProto
	ctor.DefineDataWithAttrs("prototype", value.Object(proto), 0)
	proto.DefineDataWithAttrs("constructor", value.Object(ctor), object.Writable|object.Configurable)
	return ctor
}

// defineMethod installs a non-enumerable native method on proto, the
// attribute combination every built-in prototype method of spec §6 uses
// (present on the prototype, writable and configurable, but invisible to
// for-in/Object.keys).
func (r *registry) defineMethod(proto *object.Object, name string, arity int, native object.NativeCall) {
	fn := function.NewNative(r.functionProto, name, arity, native, false)
	fn.Internal.(*function.Closure).ObjectProto = r.objectProto
	proto.DefineDataWithAttrs(name, value.Object(fn), object.Writable|object.Configurable)
}

// defineGlobalFunc installs a free function (parseInt, isNaN, ...) directly
// on the global object.
func (r *registry) defineGlobalFunc(name string, arity int, native object.NativeCall) {
	fn := function.NewNative(r.functionProto, name, arity, native, false)
	fn.Internal.(*function.Closure).ObjectProto = r.objectProto
	r.global.DefineDataWithAttrs(name, value.Object(fn), object.Writable|object.Configurable)
}

func arg(args []value.Value, n int) value.Value {
	if n < len(args) {
		return args[n]
	}
	return value.Undefined()
}

func asCtx(ctx any) *context.Context {
	c, _ := ctx.(*context.Context)
	return c
}

// call invokes a callable Value (a forEach/map/reduce callback, a Promise
// executor, ...) via internal/function directly: internal/builtins already
// imports internal/function for NewNative, so reaching for object.CallHook
// here (the cross-package hook interpreter wires for internal/object,
// which cannot import function) would just be an extra indirection.
func call(ctx any, fn value.Value, this value.Value, args []value.Value) (value.Value, error) {
	cc := asCtx(ctx)
	var engine *context.Engine
	if cc != nil {
		engine = cc.Engine()
	}
	return function.Call(cc, engine, fn, errors.StackFrame{FunctionName: "<native>"}, this, args)
}

// newArray allocates an empty Array-kind object rooted at r's Array.prototype.
func newArray(r *registry) *object.Object {
	a := object.NewTagged(r.arrayProto, object.Array)
	a.Class = "Array"
	return a
}

// funcNative wraps native as a plain (non-constructor) Function-kind
// object, for statics (Object.keys, Array.isArray, ...) that live directly
// on a constructor rather than on its .prototype.
func funcNative(r *registry, name string, arity int, native object.NativeCall) *object.Object {
	fn := function.NewNative(r.functionProto, name, arity, native, false)
	fn.Internal.(*function.Closure).ObjectProto = r.objectProto
	return fn
}

func asObject(v value.Value) (*object.Object, bool) {
	if !v.IsObject() {
		return nil, false
	}
	o, ok := v.AsObject().(*object.Object)
	return o, ok
}

func typeError(format string, args ...any) error {
	return errors.New(errors.KindType, format, args...)
}
