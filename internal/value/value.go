// Package value implements the tagged Value union of the core (spec §3/§4.1):
// the runtime representation shared by the interpreter, the bytecode VM, and
// the JIT, plus the ECMAScript coercion and equality rules.
//
// Object-ref and Function-ref are collapsed into a single Tag (TagObject):
// a Function is simply an object whose object-type tag (owned by the
// internal/object package) is Function. This mirrors how ECMAScript itself
// treats functions as callable objects and avoids a redundant Go type for
// what spec §9's tagged-variant note already calls "a tagged variant in the
// object header plus per-type method tables resolved by tag".
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Tag identifies which payload field of a Value is meaningful.
type Tag uint8

const (
	TagUndefined Tag = iota
	TagNull
	TagBoolean
	TagNumber
	TagString
	TagBigInt
	TagSymbol
	TagObject
)

func (t Tag) String() string {
	switch t {
	case TagUndefined:
		return "undefined"
	case TagNull:
		return "null"
	case TagBoolean:
		return "boolean"
	case TagNumber:
		return "number"
	case TagString:
		return "string"
	case TagBigInt:
		return "bigint"
	case TagSymbol:
		return "symbol"
	case TagObject:
		return "object"
	default:
		return "unknown"
	}
}

// ObjectRef is the minimal capability the value package requires of an
// object reference: identity for equality/hashing and enough of the
// object-type tag to answer typeof/instanceof without importing the
// internal/object package (which itself imports value). internal/object's
// *Object satisfies this interface.
type ObjectRef interface {
	// RefID is a stable, process-unique identifier for the referenced
	// object; used by strict/loose equality and Map/Set hashing.
	RefID() uint64
	// IsCallable reports whether the object has a [[Call]] slot (i.e. its
	// object-type tag is Function).
	IsCallable() bool
}

// Value is a by-copy tagged union. Object payloads are non-owning
// references (ObjectRef); everything else is inline.
type Value struct {
	tag Tag
	num float64
	str string
	b   bool
	big *BigInt
	sym *Symbol
	obj ObjectRef
}

// BigInt is a minimal arbitrary-precision integer payload; the engine does
// not need full bigint arithmetic coverage to satisfy spec §3, only a
// distinguishable tag and string/number coercion.
type BigInt struct {
	Text string // canonical decimal representation, sign included
}

func Undefined() Value { return Value{tag: TagUndefined} }
func Null() Value      { return Value{tag: TagNull} }

func Boolean(b bool) Value { return Value{tag: TagBoolean, b: b} }
func Number(n float64) Value { return Value{tag: TagNumber, num: n} }
func String(s string) Value  { return Value{tag: TagString, str: s} }
func BigIntValue(b *BigInt) Value { return Value{tag: TagBigInt, big: b} }
func SymbolValue(s *Symbol) Value { return Value{tag: TagSymbol, sym: s} }
func Object(o ObjectRef) Value    { return Value{tag: TagObject, obj: o} }

func (v Value) Tag() Tag { return v.tag }

func (v Value) IsUndefined() bool { return v.tag == TagUndefined }
func (v Value) IsNull() bool      { return v.tag == TagNull }
func (v Value) IsNullish() bool   { return v.tag == TagUndefined || v.tag == TagNull }
func (v Value) IsObject() bool    { return v.tag == TagObject }
func (v Value) IsCallable() bool  { return v.tag == TagObject && v.obj != nil && v.obj.IsCallable() }
func (v Value) IsNumber() bool    { return v.tag == TagNumber }
func (v Value) IsString() bool    { return v.tag == TagString }

// AsObject returns the underlying ObjectRef; callers that need the concrete
// *object.Object type assert on the result (internal/object satisfies
// ObjectRef). Panics if the receiver is not TagObject — callers must check
// IsObject() first, per spec §4.1's "programmer error" contract for
// as_number/as_object style accessors.
func (v Value) AsObject() ObjectRef {
	if v.tag != TagObject {
		panic("value: AsObject on non-object Value")
	}
	return v.obj
}

// AsNumberUnchecked returns the float64 payload without coercion. Calling
// this on a non-numeric tag is a programmer error per spec §4.1; callers
// must coerce with ToNumber first.
func (v Value) AsNumberUnchecked() float64 {
	if v.tag != TagNumber {
		panic("value: AsNumberUnchecked on non-number Value")
	}
	return v.num
}

func (v Value) AsStringUnchecked() string {
	if v.tag != TagString {
		panic("value: AsStringUnchecked on non-string Value")
	}
	return v.str
}

func (v Value) AsBooleanUnchecked() bool {
	if v.tag != TagBoolean {
		panic("value: AsBooleanUnchecked on non-boolean Value")
	}
	return v.b
}

func (v Value) AsSymbol() *Symbol { return v.sym }
func (v Value) AsBigInt() *BigInt { return v.big }

// TypeOf implements the `typeof` operator (spec §4.1): Function objects
// report "function"; Null reports "object" (the historical ECMAScript
// quirk spec §4.1 calls out explicitly).
func (v Value) TypeOf() string {
	switch v.tag {
	case TagUndefined:
		return "undefined"
	case TagNull:
		return "object"
	case TagBoolean:
		return "boolean"
	case TagNumber:
		return "number"
	case TagString:
		return "string"
	case TagBigInt:
		return "bigint"
	case TagSymbol:
		return "symbol"
	case TagObject:
		if v.obj != nil && v.obj.IsCallable() {
			return "function"
		}
		return "object"
	default:
		return "undefined"
	}
}

// ToBoolean implements ToBoolean coercion.
func (v Value) ToBoolean() bool {
	switch v.tag {
	case TagUndefined, TagNull:
		return false
	case TagBoolean:
		return v.b
	case TagNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case TagString:
		return v.str != ""
	case TagBigInt:
		return v.big != nil && v.big.Text != "" && v.big.Text != "0"
	case TagSymbol:
		return true
	case TagObject:
		return true
	default:
		return false
	}
}

// ToNumber implements ToNumber coercion. to_number("")=0, to_number(undefined)=NaN
// per spec §4.1. Symbol conversion is a programmer error at this layer —
// callers needing the throwing ECMAScript behaviour should check TagSymbol
// first and raise TypeError themselves (the interpreter does this).
func (v Value) ToNumber() float64 {
	switch v.tag {
	case TagUndefined:
		return math.NaN()
	case TagNull:
		return 0
	case TagBoolean:
		if v.b {
			return 1
		}
		return 0
	case TagNumber:
		return v.num
	case TagString:
		return stringToNumber(v.str)
	case TagBigInt:
		n, err := strconv.ParseFloat(v.big.Text, 64)
		if err != nil {
			return math.NaN()
		}
		return n
	default:
		return math.NaN()
	}
}

func stringToNumber(s string) float64 {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0
	}
	if strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X") {
		n, err := strconv.ParseInt(t[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	n, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

// ToInt32 / ToUint32 implement the ECMAScript modular-reduction conversions.
func (v Value) ToInt32() int32 {
	n := v.ToNumber()
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	u := uint32(int64(math.Trunc(n)))
	return int32(u)
}

func (v Value) ToUint32() uint32 {
	n := v.ToNumber()
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return uint32(int64(math.Trunc(n)))
}

// ToString implements ToString coercion for the non-object tags; object
// ToString (via toString()/Symbol.toPrimitive) is layered on by the
// interpreter, which has visibility into the object's method table.
func (v Value) ToString() string {
	switch v.tag {
	case TagUndefined:
		return "undefined"
	case TagNull:
		return "null"
	case TagBoolean:
		if v.b {
			return "true"
		}
		return "false"
	case TagNumber:
		return formatNumber(v.num)
	case TagString:
		return v.str
	case TagBigInt:
		return v.big.Text
	case TagSymbol:
		return v.sym.String()
	case TagObject:
		return "[object]"
	default:
		return ""
	}
}

func formatNumber(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	if n == 0 {
		if math.Signbit(n) {
			return "0"
		}
		return "0"
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// Hint selects the preferred primitive conversion for ToPrimitive.
type Hint int

const (
	HintDefault Hint = iota
	HintNumber
	HintString
)

// StrictEquals implements === (spec §4.1): same tag and bitwise-equivalent
// payload, NaN is never equal to itself, and +0 strictly equals -0.
func StrictEquals(a, b Value) bool {
	if a.tag != b.tag {
		return false
	}
	switch a.tag {
	case TagUndefined, TagNull:
		return true
	case TagBoolean:
		return a.b == b.b
	case TagNumber:
		if math.IsNaN(a.num) || math.IsNaN(b.num) {
			return false
		}
		return a.num == b.num // +0 == -0 by IEEE754 ==
	case TagString:
		return a.str == b.str
	case TagBigInt:
		return a.big != nil && b.big != nil && a.big.Text == b.big.Text
	case TagSymbol:
		return a.sym == b.sym
	case TagObject:
		if a.obj == nil || b.obj == nil {
			return a.obj == b.obj
		}
		return a.obj.RefID() == b.obj.RefID()
	default:
		return false
	}
}

// SameValueZero implements the Map/Set key-equality relation (spec §3):
// identical to StrictEquals except NaN equals NaN.
func SameValueZero(a, b Value) bool {
	if a.tag == TagNumber && b.tag == TagNumber && math.IsNaN(a.num) && math.IsNaN(b.num) {
		return true
	}
	return StrictEquals(a, b)
}

// LooseEquals implements == with the ECMAScript abstract equality
// coercion table (spec §4.1).
func LooseEquals(a, b Value) bool {
	if a.tag == b.tag {
		return StrictEquals(a, b)
	}
	if a.IsNullish() && b.IsNullish() {
		return true
	}
	if a.IsNullish() || b.IsNullish() {
		return false
	}
	switch {
	case a.tag == TagNumber && b.tag == TagString:
		return a.num == b.ToNumber()
	case a.tag == TagString && b.tag == TagNumber:
		return a.ToNumber() == b.num
	case a.tag == TagBoolean:
		return LooseEquals(Number(boolToFloat(a.b)), b)
	case b.tag == TagBoolean:
		return LooseEquals(a, Number(boolToFloat(b.b)))
	case a.tag == TagObject && (b.tag == TagNumber || b.tag == TagString):
		return LooseEquals(Value{tag: TagString, str: a.ToString()}, b)
	case b.tag == TagObject && (a.tag == TagNumber || a.tag == TagString):
		return LooseEquals(a, Value{tag: TagString, str: b.ToString()})
	default:
		return false
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// HashKey returns a tag-mixed hash key suitable for use in a Go map as the
// backing store for Map/Set (spec §3: "Hashing for use as Map key:
// tag-mixed"). Object identity is used for object keys.
func (v Value) HashKey() string {
	switch v.tag {
	case TagNumber:
		if math.IsNaN(v.num) {
			return "n:NaN"
		}
		if v.num == 0 {
			return "n:0" // +0 and -0 share a Map/Set slot
		}
		return fmt.Sprintf("n:%x", math.Float64bits(v.num))
	case TagString:
		return "s:" + v.str
	case TagBoolean:
		return fmt.Sprintf("b:%v", v.b)
	case TagUndefined:
		return "u"
	case TagNull:
		return "z"
	case TagBigInt:
		return "g:" + v.big.Text
	case TagSymbol:
		return "y:" + v.sym.key
	case TagObject:
		if v.obj == nil {
			return "o:nil"
		}
		return fmt.Sprintf("o:%d", v.obj.RefID())
	default:
		return "?"
	}
}
