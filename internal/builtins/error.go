package builtins

import (
	"github.com/solarbrowser/quanta/internal/object"
	"github.com/solarbrowser/quanta/internal/value"
)

// registerError installs Error.prototype, the TypeError/RangeError/
// ReferenceError/SyntaxError/InternalError subtype prototypes, and binds
// every constructor onto the global object — spec §6's "Error and its
// subtype prototypes for built-in error throwing". interpreter.wrapError
// consults newErrorInstance (via Interpreter.ErrorObjectHook, wired in
// builtins.go) to turn a host-raised errors.EngineError into a
// script-visible Value a catch block can inspect with .message/.name or
// instanceof.
func (r *registry) registerError() {
	proto := object.New(r.objectProto)
	r.errorProto = proto
	proto.DefineDataWithAttrs("name", value.String("Error"), object.Writable|object.Configurable)
	proto.DefineDataWithAttrs("message", value.String(""), object.Writable|object.Configurable)

	r.defineMethod(proto, "toString", 0, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o, ok := asObject(this)
		if !ok {
			return value.String("Error"), nil
		}
		name, _ := o.Get(ctx, "name", this)
		msg, _ := o.Get(ctx, "message", this)
		n := name.ToString()
		m := msg.ToString()
		if m == "" {
			return value.String(n), nil
		}
		return value.String(n + ": " + m), nil
	})

	newErrorCtor := func(name string, proto *object.Object) {
		ctor := r.newConstructor(name, 1, proto, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
			o, ok := asObject(this)
			if !ok {
				o = object.New(proto)
			}
			if m := arg(args, 0); !m.IsUndefined() {
				o.DefineDataWithAttrs("message", value.String(m.ToString()), object.Writable|object.Configurable)
			}
			return value.Object(o), nil
		})
		r.global.DefineDataWithAttrs(name, value.Object(ctor), object.Writable|object.Configurable)
	}

	newErrorCtor("Error", proto)

	for _, name := range []string{"TypeError", "RangeError", "ReferenceError", "SyntaxError", "InternalError"} {
		sub := object.New(proto)
		sub.DefineDataWithAttrs("name", value.String(name), object.Writable|object.Configurable)
		newErrorCtor(name, sub)
	}
}

// newErrorInstance allocates an Error-shaped instance of the given
// built-in kind (one of the names registerError bound onto global),
// falling back to the base Error.prototype for an unrecognized kind (e.g.
// errors.KindGeneric's "Error", already covered, or a future kind this
// list hasn't caught up with).
func (r *registry) newErrorInstance(kind, message string) *object.Object {
	proto := r.errorProto
	if ctor, ok := asObject(propOf(r.global, kind)); ok {
		if p, ok := asObject(propOf(ctor, "prototype")); ok {
			proto = p
		}
	}
	o := object.New(proto)
	o.Class = kind
	o.DefineDataWithAttrs("message", value.String(message), object.Writable|object.Configurable)
	return o
}

func propOf(o *object.Object, key string) value.Value {
	v, _ := o.Get(nil, key, value.Object(o))
	return v
}
