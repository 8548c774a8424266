package builtins

import (
	"strings"

	"github.com/solarbrowser/quanta/internal/object"
	"github.com/solarbrowser/quanta/internal/value"
)

// registerArray installs Array.prototype's mutator/iteration methods and
// the Array constructor (spec §6's "Array.prototype to seed arrays"),
// grounded on the teacher's vm_builtins_misc.go array helpers (length,
// index access) generalized to the full ECMAScript method set.
func (r *registry) registerArray() {
	proto := object.New(r.objectProto)
	r.arrayProto = proto

	elems := func(this value.Value) *object.Object {
		o, ok := asObject(this)
		if !ok {
			return nil
		}
		return o
	}

	r.defineMethod(proto, "push", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o := elems(this)
		if o == nil {
			return value.Number(0), nil
		}
		for _, v := range args {
			o.SetIndex(o.Length(), v)
		}
		return value.Number(float64(o.Length())), nil
	})
	r.defineMethod(proto, "pop", 0, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o := elems(this)
		if o == nil || o.Length() == 0 {
			return value.Undefined(), nil
		}
		n := o.Length() - 1
		v, _ := o.GetIndex(n)
		o.SetLength(n)
		return v, nil
	})
	r.defineMethod(proto, "shift", 0, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o := elems(this)
		if o == nil || o.Length() == 0 {
			return value.Undefined(), nil
		}
		first, _ := o.GetIndex(0)
		rest := collect(o)[1:]
		replaceElements(o, rest)
		return first, nil
	})
	r.defineMethod(proto, "unshift", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o := elems(this)
		if o == nil {
			return value.Number(0), nil
		}
		replaceElements(o, append(append([]value.Value{}, args...), collect(o)...))
		return value.Number(float64(o.Length())), nil
	})
	r.defineMethod(proto, "slice", 2, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o := elems(this)
		out := newArray(r)
		if o == nil {
			return value.Object(out), nil
		}
		all := collect(o)
		start, end := sliceRange(len(all), arg(args, 0), arg(args, 1))
		for _, v := range all[start:end] {
			out.SetIndex(out.Length(), v)
		}
		return value.Object(out), nil
	})
	r.defineMethod(proto, "splice", 2, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o := elems(this)
		removed := newArray(r)
		if o == nil {
			return value.Object(removed), nil
		}
		all := collect(o)
		start, _ := sliceRange(len(all), arg(args, 0), value.Undefined())
		deleteCount := len(all) - start
		if len(args) > 1 {
			dc := int(arg(args, 1).ToNumber())
			if dc < 0 {
				dc = 0
			}
			if dc < deleteCount {
				deleteCount = dc
			}
		}
		for _, v := range all[start : start+deleteCount] {
			removed.SetIndex(removed.Length(), v)
		}
		var insert []value.Value
		if len(args) > 2 {
			insert = args[2:]
		}
		next := append(append(append([]value.Value{}, all[:start]...), insert...), all[start+deleteCount:]...)
		replaceElements(o, next)
		return value.Object(removed), nil
	})
	r.defineMethod(proto, "indexOf", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o := elems(this)
		if o == nil {
			return value.Number(-1), nil
		}
		target := arg(args, 0)
		for i, v := range collect(o) {
			if value.StrictEquals(v, target) {
				return value.Number(float64(i)), nil
			}
		}
		return value.Number(-1), nil
	})
	r.defineMethod(proto, "includes", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o := elems(this)
		if o == nil {
			return value.Boolean(false), nil
		}
		target := arg(args, 0)
		for _, v := range collect(o) {
			if value.SameValueZero(v, target) {
				return value.Boolean(true), nil
			}
		}
		return value.Boolean(false), nil
	})
	r.defineMethod(proto, "join", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o := elems(this)
		if o == nil {
			return value.String(""), nil
		}
		sep := ","
		if s := arg(args, 0); !s.IsUndefined() {
			sep = s.ToString()
		}
		parts := make([]string, 0, o.Length())
		for _, v := range collect(o) {
			if v.IsNullish() {
				parts = append(parts, "")
				continue
			}
			parts = append(parts, v.ToString())
		}
		return value.String(strings.Join(parts, sep)), nil
	})
	r.defineMethod(proto, "reverse", 0, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o := elems(this)
		if o == nil {
			return this, nil
		}
		all := collect(o)
		for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
			all[i], all[j] = all[j], all[i]
		}
		replaceElements(o, all)
		return this, nil
	})
	r.defineMethod(proto, "concat", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		out := newArray(r)
		if o := elems(this); o != nil {
			for _, v := range collect(o) {
				out.SetIndex(out.Length(), v)
			}
		}
		for _, a := range args {
			if ao, ok := asObject(a); ok && ao.ArrayFastPath {
				for _, v := range collect(ao) {
					out.SetIndex(out.Length(), v)
				}
				continue
			}
			out.SetIndex(out.Length(), a)
		}
		return value.Object(out), nil
	})

	r.defineMethod(proto, "forEach", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o := elems(this)
		cb := arg(args, 0)
		if o == nil || !cb.IsCallable() {
			return value.Undefined(), nil
		}
		for i, v := range collect(o) {
			if _, err := call(ctx, cb, value.Undefined(), []value.Value{v, value.Number(float64(i)), this}); err != nil {
				return value.Undefined(), err
			}
		}
		return value.Undefined(), nil
	})
	r.defineMethod(proto, "map", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o := elems(this)
		out := newArray(r)
		cb := arg(args, 0)
		if o == nil || !cb.IsCallable() {
			return value.Object(out), nil
		}
		for i, v := range collect(o) {
			rv, err := call(ctx, cb, value.Undefined(), []value.Value{v, value.Number(float64(i)), this})
			if err != nil {
				return value.Undefined(), err
			}
			out.SetIndex(out.Length(), rv)
		}
		return value.Object(out), nil
	})
	r.defineMethod(proto, "filter", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o := elems(this)
		out := newArray(r)
		cb := arg(args, 0)
		if o == nil || !cb.IsCallable() {
			return value.Object(out), nil
		}
		for i, v := range collect(o) {
			rv, err := call(ctx, cb, value.Undefined(), []value.Value{v, value.Number(float64(i)), this})
			if err != nil {
				return value.Undefined(), err
			}
			if rv.ToBoolean() {
				out.SetIndex(out.Length(), v)
			}
		}
		return value.Object(out), nil
	})
	r.defineMethod(proto, "find", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o := elems(this)
		cb := arg(args, 0)
		if o == nil || !cb.IsCallable() {
			return value.Undefined(), nil
		}
		for i, v := range collect(o) {
			rv, err := call(ctx, cb, value.Undefined(), []value.Value{v, value.Number(float64(i)), this})
			if err != nil {
				return value.Undefined(), err
			}
			if rv.ToBoolean() {
				return v, nil
			}
		}
		return value.Undefined(), nil
	})
	r.defineMethod(proto, "some", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o := elems(this)
		cb := arg(args, 0)
		if o == nil || !cb.IsCallable() {
			return value.Boolean(false), nil
		}
		for i, v := range collect(o) {
			rv, err := call(ctx, cb, value.Undefined(), []value.Value{v, value.Number(float64(i)), this})
			if err != nil {
				return value.Undefined(), err
			}
			if rv.ToBoolean() {
				return value.Boolean(true), nil
			}
		}
		return value.Boolean(false), nil
	})
	r.defineMethod(proto, "every", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o := elems(this)
		cb := arg(args, 0)
		if o == nil || !cb.IsCallable() {
			return value.Boolean(true), nil
		}
		for i, v := range collect(o) {
			rv, err := call(ctx, cb, value.Undefined(), []value.Value{v, value.Number(float64(i)), this})
			if err != nil {
				return value.Undefined(), err
			}
			if !rv.ToBoolean() {
				return value.Boolean(false), nil
			}
		}
		return value.Boolean(true), nil
	})
	r.defineMethod(proto, "reduce", 2, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o := elems(this)
		cb := arg(args, 0)
		if o == nil || !cb.IsCallable() {
			return value.Undefined(), typeError("Reduce of empty array with no initial value")
		}
		all := collect(o)
		acc := arg(args, 1)
		start := 0
		if len(args) < 2 {
			if len(all) == 0 {
				return value.Undefined(), typeError("Reduce of empty array with no initial value")
			}
			acc = all[0]
			start = 1
		}
		for i := start; i < len(all); i++ {
			rv, err := call(ctx, cb, value.Undefined(), []value.Value{acc, all[i], value.Number(float64(i)), this})
			if err != nil {
				return value.Undefined(), err
			}
			acc = rv
		}
		return acc, nil
	})
	r.defineMethod(proto, "toString", 0, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o := elems(this)
		if o == nil {
			return value.String(""), nil
		}
		parts := make([]string, 0, o.Length())
		for _, v := range collect(o) {
			if v.IsNullish() {
				parts = append(parts, "")
				continue
			}
			parts = append(parts, v.ToString())
		}
		return value.String(strings.Join(parts, ",")), nil
	})

	ctor := r.newConstructor("Array", 1, proto, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		out := newArray(r)
		if len(args) == 1 && args[0].IsNumber() {
			n := int(args[0].ToNumber())
			out.SetLength(0)
			if n > 0 {
				out.SetIndex(n-1, value.Undefined())
			}
			return value.Object(out), nil
		}
		for _, v := range args {
			out.SetIndex(out.Length(), v)
		}
		return value.Object(out), nil
	})
	isArray := funcNative(r, "isArray", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		o, ok := asObject(arg(args, 0))
		return value.Boolean(ok && o.KindTag == object.Array), nil
	})
	ctor.DefineDataWithAttrs("isArray", value.Object(isArray), object.Writable|object.Configurable)
	r.global.DefineDataWithAttrs("Array", value.Object(ctor), object.Writable|object.Configurable)
}

// collect snapshots an Array-kind object's fast-path elements, for methods
// that need a stable slice to iterate or rebuild from (a callback that
// mutates the array mid-iteration must not see half-old/half-new state).
func collect(o *object.Object) []value.Value {
	out := make([]value.Value, o.Length())
	for i := range out {
		v, _ := o.GetIndex(i)
		out[i] = v
	}
	return out
}

func replaceElements(o *object.Object, vs []value.Value) {
	o.SetLength(0)
	for i, v := range vs {
		o.SetIndex(i, v)
	}
}

func sliceRange(length int, startV, endV value.Value) (int, int) {
	start := normalizeIndex(length, startV, 0)
	end := normalizeIndex(length, endV, length)
	if end < start {
		end = start
	}
	return start, end
}

func normalizeIndex(length int, v value.Value, def int) int {
	if v.IsUndefined() {
		return def
	}
	n := int(v.ToNumber())
	if n < 0 {
		n += length
	}
	if n < 0 {
		n = 0
	}
	if n > length {
		n = length
	}
	return n
}
