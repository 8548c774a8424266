package builtins

import (
	"math"
	"strconv"
	"strings"

	"github.com/solarbrowser/quanta/internal/value"
)

// registerGlobals installs the free-standing global functions (parseInt,
// parseFloat, isNaN, isFinite) grounded on the teacher's
// vm_builtins_conversion.go StrToInt/StrToFloat pair, generalized from the
// teacher's strict fixed-format Sscanf parse into ECMAScript's
// leading-prefix parse (parseInt("  42px") === 42, a trailing non-digit
// doesn't fail the whole parse, it just ends it).
func (r *registry) registerGlobals() {
	r.defineGlobalFunc("parseInt", 2, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		s := strings.TrimSpace(arg(args, 0).ToString())
		radix := 0
		if rv := arg(args, 1).ToNumber(); !math.IsNaN(rv) && !math.IsInf(rv, 0) {
			radix = int(rv)
		}

		neg := false
		if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
			neg = s[0] == '-'
			s = s[1:]
		}
		if radix == 0 {
			switch {
			case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
				radix = 16
				s = s[2:]
			default:
				radix = 10
			}
		} else if radix == 16 && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
			s = s[2:]
		}
		if radix < 2 || radix > 36 {
			return value.Number(math.NaN()), nil
		}

		end := 0
		for end < len(s) && digitValue(s[end]) < radix {
			end++
		}
		if end == 0 {
			return value.Number(math.NaN()), nil
		}
		n, err := strconv.ParseInt(s[:end], radix, 64)
		if err != nil {
			// Overflow past int64: fall back to a float accumulation.
			var f float64
			for i := 0; i < end; i++ {
				f = f*float64(radix) + float64(digitValue(s[i]))
			}
			if neg {
				f = -f
			}
			return value.Number(f), nil
		}
		if neg {
			n = -n
		}
		return value.Number(float64(n)), nil
	})

	r.defineGlobalFunc("parseFloat", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		s := strings.TrimSpace(arg(args, 0).ToString())
		end := len(s)
		for end > 0 {
			if _, err := strconv.ParseFloat(s[:end], 64); err == nil {
				break
			}
			end--
		}
		if end == 0 {
			return value.Number(math.NaN()), nil
		}
		f, err := strconv.ParseFloat(s[:end], 64)
		if err != nil {
			return value.Number(math.NaN()), nil
		}
		return value.Number(f), nil
	})

	r.defineGlobalFunc("isNaN", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		n := arg(args, 0).ToNumber()
		return value.Boolean(n != n), nil
	})
	r.defineGlobalFunc("isFinite", 1, func(ctx any, this value.Value, args []value.Value) (value.Value, error) {
		n := arg(args, 0).ToNumber()
		return value.Boolean(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
	})

	r.global.DefineDataWithAttrs("NaN", value.Number(math.NaN()), 0)
	r.global.DefineDataWithAttrs("Infinity", value.Number(math.Inf(1)), 0)
	r.global.DefineDataWithAttrs("undefined", value.Undefined(), 0)
}

// digitValue returns c's value in base 36 (0-9, a-z/A-Z), or 99 if c isn't
// a digit character at all — always greater than any valid radix so the
// parseInt scan loop's `< radix` comparison naturally stops there.
func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	default:
		return 99
	}
}
