package builtins

import (
	"math"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/solarbrowser/quanta/internal/errors"
	"github.com/solarbrowser/quanta/internal/object"
	"github.com/solarbrowser/quanta/internal/value"
)

// registerString installs String.prototype, consulted by
// interpreter.evalMember's primitive-string fallback (strings are never
// boxed into Object-kind values here — spec §4.1 keeps them an inline Tag
// payload — so method lookup walks straight to this prototype with the
// primitive Value itself as the receiver) plus a bare conversion-only
// String() global (no `new String(x)` boxed-wrapper support, out of scope
// for the core's primitive-string representation).
func (r *registry) registerString() {
	proto := object.New(r.objectProto)
	r.stringProto = proto

	str := func(this value.Value) string {
		if this.IsString() {
			return this.AsStringUnchecked()
		}
		return this.ToString()
	}

	r.defineMethod(proto, "toString", 0, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		return value.String(str(this)), nil
	})
	r.defineMethod(proto, "valueOf", 0, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		return value.String(str(this)), nil
	})
	r.defineMethod(proto, "charAt", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		runes := []rune(str(this))
		i := int(arg(args, 0).ToNumber())
		if i < 0 || i >= len(runes) {
			return value.String(""), nil
		}
		return value.String(string(runes[i])), nil
	})
	r.defineMethod(proto, "charCodeAt", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		runes := []rune(str(this))
		i := int(arg(args, 0).ToNumber())
		if i < 0 || i >= len(runes) {
			return value.Number(math.NaN()), nil
		}
		return value.Number(float64(runes[i])), nil
	})
	r.defineMethod(proto, "indexOf", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		return value.Number(float64(strings.Index(str(this), arg(args, 0).ToString()))), nil
	})
	r.defineMethod(proto, "includes", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		return value.Boolean(strings.Contains(str(this), arg(args, 0).ToString())), nil
	})
	r.defineMethod(proto, "startsWith", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		return value.Boolean(strings.HasPrefix(str(this), arg(args, 0).ToString())), nil
	})
	r.defineMethod(proto, "endsWith", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		return value.Boolean(strings.HasSuffix(str(this), arg(args, 0).ToString())), nil
	})
	r.defineMethod(proto, "slice", 2, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		runes := []rune(str(this))
		start, end := sliceRange(len(runes), arg(args, 0), arg(args, 1))
		return value.String(string(runes[start:end])), nil
	})
	r.defineMethod(proto, "substring", 2, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		runes := []rune(str(this))
		start := clamp(int(arg(args, 0).ToNumber()), 0, len(runes))
		end := len(runes)
		if !arg(args, 1).IsUndefined() {
			end = clamp(int(arg(args, 1).ToNumber()), 0, len(runes))
		}
		if start > end {
			start, end = end, start
		}
		return value.String(string(runes[start:end])), nil
	})
	r.defineMethod(proto, "toUpperCase", 0, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		return value.String(strings.ToUpper(str(this))), nil
	})
	r.defineMethod(proto, "toLowerCase", 0, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		return value.String(strings.ToLower(str(this))), nil
	})
	r.defineMethod(proto, "trim", 0, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		return value.String(strings.TrimSpace(str(this))), nil
	})
	r.defineMethod(proto, "split", 2, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		out := newArray(r)
		sepV := arg(args, 0)
		s := str(this)
		if sepV.IsUndefined() {
			out.SetIndex(0, value.String(s))
			return value.Object(out), nil
		}
		for _, part := range strings.Split(s, sepV.ToString()) {
			out.SetIndex(out.Length(), value.String(part))
		}
		return value.Object(out), nil
	})
	r.defineMethod(proto, "replace", 2, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		s := str(this)
		old := arg(args, 0).ToString()
		repl := arg(args, 1)
		if repl.IsCallable() {
			idx := strings.Index(s, old)
			if idx < 0 {
				return value.String(s), nil
			}
			rv, err := call(ctx, repl, value.Undefined(), []value.Value{value.String(old), value.Number(float64(idx)), value.String(s)})
			if err != nil {
				return value.Undefined(), err
			}
			return value.String(s[:idx] + rv.ToString() + s[idx+len(old):]), nil
		}
		return value.String(strings.Replace(s, old, repl.ToString(), 1)), nil
	})
	r.defineMethod(proto, "replaceAll", 2, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		return value.String(strings.ReplaceAll(str(this), arg(args, 0).ToString(), arg(args, 1).ToString())), nil
	})
	r.defineMethod(proto, "repeat", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		n := int(arg(args, 0).ToNumber())
		if n < 0 {
			return value.Undefined(), errors.New(errors.KindRange, "Invalid count value")
		}
		return value.String(strings.Repeat(str(this), n)), nil
	})
	r.defineMethod(proto, "padStart", 2, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		return value.String(pad(str(this), args, true)), nil
	})
	r.defineMethod(proto, "padEnd", 2, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		return value.String(pad(str(this), args, false)), nil
	})
	r.defineMethod(proto, "concat", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		s := str(this)
		for _, a := range args {
			s += a.ToString()
		}
		return value.String(s), nil
	})
	r.defineMethod(proto, "trimStart", 0, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		return value.String(strings.TrimLeft(str(this), " \t\n\r")), nil
	})
	r.defineMethod(proto, "trimEnd", 0, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		return value.String(strings.TrimRight(str(this), " \t\n\r")), nil
	})
	// localeCompare(that[, locale]) orders by a language-tagged collation key
	// instead of raw code-point order (grounded on the teacher's
	// CompareLocaleStr, minus its French accent-weighting special case,
	// which has no ECMAScript equivalent to generalize to).
	r.defineMethod(proto, "localeCompare", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		a, b := str(this), arg(args, 0).ToString()
		tag := language.English
		if loc := arg(args, 1); !loc.IsUndefined() {
			if parsed, err := language.Parse(loc.ToString()); err == nil {
				tag = parsed
			}
		}
		cmp := collate.New(tag).CompareString(a, b)
		return value.Number(float64(cmp)), nil
	})
	// normalize([form]) applies one of the four Unicode normalization forms
	// ("NFC" default, "NFD", "NFKC", "NFKD"); the teacher's stripAccentsLocal
	// uses norm.NFD directly for the same decomposition this wraps.
	r.defineMethod(proto, "normalize", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		s := str(this)
		form := "NFC"
		if f := arg(args, 0); !f.IsUndefined() {
			form = f.ToString()
		}
		var n norm.Form
		switch form {
		case "NFC":
			n = norm.NFC
		case "NFD":
			n = norm.NFD
		case "NFKC":
			n = norm.NFKC
		case "NFKD":
			n = norm.NFKD
		default:
			return value.Undefined(), errors.New(errors.KindRange, "invalid normalization form %q", form)
		}
		return value.String(n.String(s)), nil
	})

	r.defineGlobalFunc("String", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.String(""), nil
		}
		return value.String(arg(args, 0).ToString()), nil
	})
}

func pad(s string, args []value.Value, start bool) string {
	targetLen := int(arg(args, 0).ToNumber())
	if targetLen <= len([]rune(s)) {
		return s
	}
	filler := " "
	if f := arg(args, 1); !f.IsUndefined() {
		filler = f.ToString()
	}
	if filler == "" {
		return s
	}
	need := targetLen - len([]rune(s))
	var b strings.Builder
	for b.Len() < need {
		b.WriteString(filler)
	}
	fill := string([]rune(b.String())[:need])
	if start {
		return fill + s
	}
	return s + fill
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
