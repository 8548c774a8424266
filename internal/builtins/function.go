package builtins

import (
	"github.com/solarbrowser/quanta/internal/function"
	"github.com/solarbrowser/quanta/internal/value"
)

// registerFunction installs Function.prototype.call/apply/bind/toString,
// spec §6's "Function.prototype to seed functions".
func (r *registry) registerFunction() {
	proto := r.functionProto

	r.defineMethod(proto, "call", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		if !this.IsCallable() {
			return value.Undefined(), typeError("value is not a function")
		}
		callThis := arg(args, 0)
		var rest []value.Value
		if len(args) > 1 {
			rest = args[1:]
		}
		return call(ctx, this, callThis, rest)
	})
	r.defineMethod(proto, "apply", 2, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		if !this.IsCallable() {
			return value.Undefined(), typeError("value is not a function")
		}
		callThis := arg(args, 0)
		argArray := arg(args, 1)
		var rest []value.Value
		if o, ok := asObject(argArray); ok {
			for i := 0; i < o.Length(); i++ {
				v, _ := o.GetIndex(i)
				rest = append(rest, v)
			}
		}
		return call(ctx, this, callThis, rest)
	})
	r.defineMethod(proto, "bind", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		cl := closureOf(this)
		if cl == nil {
			return value.Undefined(), typeError("value is not a function")
		}
		boundThis := arg(args, 0)
		var boundArgs []value.Value
		if len(args) > 1 {
			boundArgs = args[1:]
		}
		bound := cl.Bind(boundThis, boundArgs)
		fn := function.New(r.functionProto, r.objectProto, bound)
		return value.Object(fn), nil
	})
	r.defineMethod(proto, "toString", 0, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		cl := closureOf(this)
		if cl == nil {
			return value.String("function () { [native code] }"), nil
		}
		return value.String("function " + cl.Name + "() { [code] }"), nil
	})
}

func closureOf(v value.Value) *function.Closure {
	o, ok := asObject(v)
	if !ok {
		return nil
	}
	cl, _ := o.Internal.(*function.Closure)
	return cl
}
