package builtins

import (
	"github.com/solarbrowser/quanta/internal/object"
	"github.com/solarbrowser/quanta/internal/promise"
	"github.com/solarbrowser/quanta/internal/value"
)

// registerPromise installs the Promise constructor/prototype and sets
// promise.UnwrapHook, the cross-package hook (internal/promise cannot
// import internal/object without an import-direction inversion, so it
// doesn't know how a *promise.Promise is wrapped as a Value) that lets
// Promise.Resolve detect a thenable and Await detect an awaited Promise.
// Grounded on spec §6's "Promise constructor and its prototype for
// async/await integration".
func (r *registry) registerPromise() {
	proto := object.New(r.objectProto)
	r.promiseProto = proto

	promise.UnwrapHook = func(v value.Value) (*promise.Promise, bool) {
		o, ok := asObject(v)
		if !ok {
			return nil, false
		}
		p, ok := o.Internal.(*promise.Promise)
		return p, ok
	}

	ctor := r.newConstructor("Promise", 1, proto, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o, ok := asObject(this)
		if !ok {
			return value.Undefined(), typeError("Promise constructor requires 'new'")
		}
		executor := arg(args, 0)
		if !executor.IsCallable() {
			return value.Undefined(), typeError("Promise resolver %s is not a function", executor.TypeOf())
		}
		p := promise.New(r.i.Loop)
		o.Internal = p
		o.Class = "Promise"

		resolve := funcNative(r, "", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
			p.Resolve(arg(args, 0))
			return value.Undefined(), nil
		})
		reject := funcNative(r, "", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
			p.Reject(arg(args, 0))
			return value.Undefined(), nil
		})
		if _, err := call(ctx, executor, value.Undefined(), []value.Value{value.Object(resolve), value.Object(reject)}); err != nil {
			p.Reject(errToValue(err))
		}
		return value.Object(o), nil
	})

	r.defineMethod(proto, "then", 2, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		p, ok := promiseOf(this)
		if !ok {
			return value.Undefined(), typeError("Promise.prototype.then called on incompatible receiver")
		}
		onFulfilled, onRejected := arg(args, 0), arg(args, 1)
		next := promise.New(r.i.Loop)
		p.Then(
			func(v value.Value) {
				if onFulfilled.IsCallable() {
					rv, err := call(ctx, onFulfilled, value.Undefined(), []value.Value{v})
					if err != nil {
						next.Reject(errToValue(err))
						return
					}
					next.Resolve(rv)
					return
				}
				next.Resolve(v)
			},
			func(reason value.Value) {
				if onRejected.IsCallable() {
					rv, err := call(ctx, onRejected, value.Undefined(), []value.Value{reason})
					if err != nil {
						next.Reject(errToValue(err))
						return
					}
					next.Resolve(rv)
					return
				}
				next.Reject(reason)
			},
		)
		return value.Object(wrapPromise(r, next)), nil
	})
	r.defineMethod(proto, "catch", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		thenFn, _ := proto.Get(ctx, "then", this)
		return call(ctx, thenFn, this, []value.Value{value.Undefined(), arg(args, 0)})
	})
	r.defineMethod(proto, "finally", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		onFinally := arg(args, 0)
		wrap := funcNative(r, "", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
			if onFinally.IsCallable() {
				if _, err := call(ctx, onFinally, value.Undefined(), nil); err != nil {
					return value.Undefined(), err
				}
			}
			return arg(args, 0), nil
		})
		thenFn, _ := proto.Get(ctx, "then", this)
		return call(ctx, thenFn, this, []value.Value{value.Object(wrap), value.Object(wrap)})
	})

	resolveStatic := funcNative(r, "resolve", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		v := arg(args, 0)
		if _, ok := promiseOf(v); ok {
			return v, nil
		}
		p := promise.New(r.i.Loop)
		p.Resolve(v)
		return value.Object(wrapPromise(r, p)), nil
	})
	rejectStatic := funcNative(r, "reject", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		p := promise.New(r.i.Loop)
		p.Reject(arg(args, 0))
		return value.Object(wrapPromise(r, p)), nil
	})
	ctor.DefineDataWithAttrs("resolve", value.Object(resolveStatic), object.Writable|object.Configurable)
	ctor.DefineDataWithAttrs("reject", value.Object(rejectStatic), object.Writable|object.Configurable)
	r.global.DefineDataWithAttrs("Promise", value.Object(ctor), object.Writable|object.Configurable)
}

func promiseOf(v value.Value) (*promise.Promise, bool) {
	o, ok := asObject(v)
	if !ok {
		return nil, false
	}
	p, ok := o.Internal.(*promise.Promise)
	return p, ok
}

// wrapPromise boxes an already-built *promise.Promise (one this package
// created directly, e.g. Promise.resolve/then's chained promise) as a
// Value, the same Internal-slot convention the constructor native uses.
func wrapPromise(r *registry, p *promise.Promise) *object.Object {
	o := object.New(r.promiseProto)
	o.Class = "Promise"
	o.Internal = p
	return o
}

func errToValue(err error) value.Value {
	if tv, ok := err.(interface{ ThrownValueOf() value.Value }); ok {
		return tv.ThrownValueOf()
	}
	return value.String(err.Error())
}
