package builtins

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/solarbrowser/quanta/internal/object"
	"github.com/solarbrowser/quanta/internal/value"
)

// registerJSON installs the JSON namespace (parse/stringify). gjson's
// result-tree walk is a natural fit for parse (spec's "JSON.parse" builds
// a Value tree from text we don't otherwise need to mutate in place), but
// sjson's API sets one path at a time against an existing JSON document —
// it has no "serialize this whole Value tree from scratch" entry point, so
// stringify is hand-rolled recursion instead (documented in DESIGN.md).
func (r *registry) registerJSON() {
	j := object.New(r.objectProto)

	j.DefineDataWithAttrs("parse", value.Object(funcNative(r, "parse", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		text := arg(args, 0).ToString()
		if !gjson.Valid(text) {
			return value.Undefined(), typeError("Unexpected token in JSON")
		}
		return r.fromGJSON(gjson.Parse(text)), nil
	})), object.Writable|object.Configurable)

	j.DefineDataWithAttrs("stringify", value.Object(funcNative(r, "stringify", 3, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		var b strings.Builder
		if !writeJSON(&b, arg(args, 0)) {
			return value.Undefined(), nil
		}
		return value.String(b.String()), nil
	})), object.Writable|object.Configurable)

	r.global.DefineDataWithAttrs("JSON", value.Object(j), object.Writable|object.Configurable)
}

// fromGJSON converts a parsed gjson.Result into a Value, building
// Array/Ordinary objects rooted at this registry's prototypes so the
// result behaves like any other script value (has .length, .push, ...).
func (r *registry) fromGJSON(res gjson.Result) value.Value {
	switch res.Type {
	case gjson.Null:
		return value.Null()
	case gjson.False:
		return value.Boolean(false)
	case gjson.True:
		return value.Boolean(true)
	case gjson.Number:
		return value.Number(res.Num)
	case gjson.String:
		return value.String(res.Str)
	case gjson.JSON:
		if res.IsArray() {
			out := newArray(r)
			for _, el := range res.Array() {
				out.SetIndex(out.Length(), r.fromGJSON(el))
			}
			return value.Object(out)
		}
		out := object.New(r.objectProto)
		res.ForEach(func(key, v gjson.Result) bool {
			out.DefineDataWithAttrs(key.Str, r.fromGJSON(v), object.DefaultDataAttrs)
			return true
		})
		return value.Object(out)
	default:
		return value.Undefined()
	}
}

// writeJSON appends v's JSON text to b, reporting false for a value with
// no JSON representation (undefined, a function) so the caller can mirror
// JSON.stringify(undefined) === undefined.
func writeJSON(b *strings.Builder, v value.Value) bool {
	switch {
	case v.IsUndefined():
		return false
	case v.IsNull():
		b.WriteString("null")
	case v.Tag() == value.TagBoolean:
		b.WriteString(v.ToString())
	case v.IsNumber():
		n := v.ToNumber()
		if n != n || n > 1.7976931348623157e+308 || n < -1.7976931348623157e+308 {
			b.WriteString("null")
			break
		}
		b.WriteString(strconv.FormatFloat(n, 'g', -1, 64))
	case v.IsString():
		b.WriteString(strconv.Quote(v.AsStringUnchecked()))
	case v.IsCallable():
		return false
	case v.IsObject():
		o, ok := asObject(v)
		if !ok {
			return false
		}
		if o.KindTag == object.Array {
			b.WriteByte('[')
			n := o.Length()
			for i := 0; i < n; i++ {
				if i > 0 {
					b.WriteByte(',')
				}
				el, _ := o.GetIndex(i)
				if !writeJSON(b, el) {
					b.WriteString("null")
				}
			}
			b.WriteByte(']')
			return true
		}
		b.WriteByte('{')
		first := true
		for _, k := range o.OwnPropertyKeys() {
			if attrs, ok := o.OwnAttrs(k); ok && !attrs.Has(object.Enumerable) {
				continue
			}
			fv, _ := o.Get(nil, k, v)
			var sub strings.Builder
			if !writeJSON(&sub, fv) {
				continue
			}
			if !first {
				b.WriteByte(',')
			}
			first = false
			b.WriteString(strconv.Quote(k))
			b.WriteByte(':')
			b.WriteString(sub.String())
		}
		b.WriteByte('}')
	default:
		return false
	}
	return true
}
