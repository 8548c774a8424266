package builtins

import (
	"github.com/solarbrowser/quanta/internal/object"
	"github.com/solarbrowser/quanta/internal/value"
)

// registerObject installs Object.prototype (toString/valueOf/hasOwnProperty/
// isPrototypeOf/propertyIsEnumerable) and the Object constructor's statics
// (keys/values/entries/assign/freeze/isFrozen/create/getPrototypeOf),
// spec §6's "Object.prototype existing to seed newly created ordinary
// objects".
func (r *registry) registerObject() {
	proto := r.objectProto

	r.defineMethod(proto, "toString", 0, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		if o, ok := asObject(this); ok {
			class := o.Class
			if class == "" {
				class = "Object"
			}
			return value.String("[object " + class + "]"), nil
		}
		return value.String("[object Object]"), nil
	})
	r.defineMethod(proto, "valueOf", 0, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		return this, nil
	})
	r.defineMethod(proto, "hasOwnProperty", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o, ok := asObject(this)
		if !ok {
			return value.Boolean(false), nil
		}
		return value.Boolean(o.HasOwn(arg(args, 0).ToString())), nil
	})
	r.defineMethod(proto, "isPrototypeOf", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		self, ok := asObject(this)
		if !ok {
			return value.Boolean(false), nil
		}
		other, ok := asObject(arg(args, 0))
		if !ok {
			return value.Boolean(false), nil
		}
		for cur := other.Proto; cur != nil; cur = cur.Proto {
			if cur == self {
				return value.Boolean(true), nil
			}
		}
		return value.Boolean(false), nil
	})
	r.defineMethod(proto, "propertyIsEnumerable", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o, ok := asObject(this)
		if !ok {
			return value.Boolean(false), nil
		}
		attrs, ok := o.OwnAttrs(arg(args, 0).ToString())
		return value.Boolean(ok && attrs.Has(object.Enumerable)), nil
	})

	ctor := r.newConstructor("Object", 1, proto, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		a := arg(args, 0)
		if a.IsNullish() || !a.IsObject() {
			return value.Object(object.New(proto)), nil
		}
		return a, nil
	})
	r.global.DefineDataWithAttrs("Object", value.Object(ctor), object.Writable|object.Configurable)

	defineStatic := func(name string, arity int, native object.NativeCall) {
		fn := funcNative(r, name, arity, native)
		ctor.DefineDataWithAttrs(name, value.Object(fn), object.Writable|object.Configurable)
	}

	defineStatic("keys", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o, ok := asObject(arg(args, 0))
		if !ok {
			return value.Object(newArray(r)), nil
		}
		out := newArray(r)
		for _, k := range o.OwnPropertyKeys() {
			if attrs, ok := o.OwnAttrs(k); ok && !attrs.Has(object.Enumerable) {
				continue
			}
			out.SetIndex(out.Length(), value.String(k))
		}
		return value.Object(out), nil
	})
	defineStatic("values", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o, ok := asObject(arg(args, 0))
		if !ok {
			return value.Object(newArray(r)), nil
		}
		out := newArray(r)
		for _, k := range o.OwnPropertyKeys() {
			v, _ := o.Get(ctx, k, arg(args, 0))
			out.SetIndex(out.Length(), v)
		}
		return value.Object(out), nil
	})
	defineStatic("entries", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o, ok := asObject(arg(args, 0))
		if !ok {
			return value.Object(newArray(r)), nil
		}
		out := newArray(r)
		for _, k := range o.OwnPropertyKeys() {
			v, _ := o.Get(ctx, k, arg(args, 0))
			pair := newArray(r)
			pair.SetIndex(0, value.String(k))
			pair.SetIndex(1, v)
			out.SetIndex(out.Length(), value.Object(pair))
		}
		return value.Object(out), nil
	})
	defineStatic("assign", 2, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		target, ok := asObject(arg(args, 0))
		if !ok {
			return arg(args, 0), nil
		}
		for _, src := range args[1:] {
			so, ok := asObject(src)
			if !ok {
				continue
			}
			for _, k := range so.OwnPropertyKeys() {
				v, _ := so.Get(ctx, k, src)
				_ = target.Set(ctx, k, v, value.Object(target), false)
			}
		}
		return value.Object(target), nil
	})
	defineStatic("freeze", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		if o, ok := asObject(arg(args, 0)); ok {
			o.Freeze()
		}
		return arg(args, 0), nil
	})
	defineStatic("isFrozen", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o, ok := asObject(arg(args, 0))
		if !ok {
			return value.Boolean(true), nil
		}
		return value.Boolean(o.Frozen), nil
	})
	defineStatic("create", 2, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		var p *object.Object
		if po, ok := asObject(arg(args, 0)); ok {
			p = po
		}
		return value.Object(object.New(p)), nil
	})
	defineStatic("getPrototypeOf", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o, ok := asObject(arg(args, 0))
		if !ok || o.Proto == nil {
			return value.Null(), nil
		}
		return value.Object(o.Proto), nil
	})
}
