package builtins

import (
	"math"
	"math/rand"

	"github.com/solarbrowser/quanta/internal/object"
	"github.com/solarbrowser/quanta/internal/value"
)

// registerMath installs the Math namespace object, grounded on the
// teacher's vm_builtins_math.go function set (Pi/Sign/Random/...)
// generalized from the teacher's flat builtin-function table to
// ECMAScript's Math.foo property access.
func (r *registry) registerMath() {
	m := object.New(r.objectProto)

	m.DefineDataWithAttrs("PI", value.Number(math.Pi), 0)
	m.DefineDataWithAttrs("E", value.Number(math.E), 0)
	m.DefineDataWithAttrs("LN2", value.Number(math.Ln2), 0)
	m.DefineDataWithAttrs("LN10", value.Number(math.Log(10)), 0)
	m.DefineDataWithAttrs("SQRT2", value.Number(math.Sqrt2), 0)

	unary := func(name string, fn func(float64) float64) {
		m.DefineDataWithAttrs(name, value.Object(funcNative(r, name, 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
			return value.Number(fn(arg(args, 0).ToNumber())), nil
		})), object.Writable|object.Configurable)
	}
	unary("abs", math.Abs)
	unary("floor", math.Floor)
	unary("ceil", math.Ceil)
	unary("trunc", math.Trunc)
	unary("sqrt", math.Sqrt)
	unary("cbrt", math.Cbrt)
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	unary("log", math.Log)
	unary("log2", math.Log2)
	unary("log10", math.Log10)
	unary("exp", math.Exp)
	unary("sign", func(n float64) float64 {
		switch {
		case math.IsNaN(n):
			return math.NaN()
		case n > 0:
			return 1
		case n < 0:
			return -1
		default:
			return n
		}
	})
	unary("round", func(n float64) float64 { return math.Floor(n + 0.5) })

	m.DefineDataWithAttrs("pow", value.Object(funcNative(r, "pow", 2, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		return value.Number(math.Pow(arg(args, 0).ToNumber(), arg(args, 1).ToNumber())), nil
	})), object.Writable|object.Configurable)

	variadic := func(name string, reduce func(a, b float64) float64, seed float64) {
		m.DefineDataWithAttrs(name, value.Object(funcNative(r, name, 2, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
			if len(args) == 0 {
				return value.Number(seed), nil
			}
			acc := args[0].ToNumber()
			for _, a := range args[1:] {
				acc = reduce(acc, a.ToNumber())
			}
			return value.Number(acc), nil
		})), object.Writable|object.Configurable)
	}
	variadic("max", math.Max, math.Inf(-1))
	variadic("min", math.Min, math.Inf(1))

	m.DefineDataWithAttrs("random", value.Object(funcNative(r, "random", 0, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		return value.Number(rand.Float64()), nil
	})), object.Writable|object.Configurable)

	r.global.DefineDataWithAttrs("Math", value.Object(m), object.Writable|object.Configurable)
}
