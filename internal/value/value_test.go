package value

import (
	"math"
	"testing"
)

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"undefined", Undefined(), "undefined"},
		{"null", Null(), "object"},
		{"boolean", Boolean(true), "boolean"},
		{"number", Number(42), "number"},
		{"string", String("hi"), "string"},
		{"symbol", SymbolValue(NewSymbol("x")), "symbol"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.TypeOf(); got != tt.want {
				t.Errorf("TypeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToNumber(t *testing.T) {
	if n := String("").ToNumber(); n != 0 {
		t.Errorf("ToNumber(\"\") = %v, want 0", n)
	}
	if n := Undefined().ToNumber(); !math.IsNaN(n) {
		t.Errorf("ToNumber(undefined) = %v, want NaN", n)
	}
	if n := String("0x2A").ToNumber(); n != 42 {
		t.Errorf("ToNumber(0x2A) = %v, want 42", n)
	}
}

func TestStrictEquals(t *testing.T) {
	nan := Number(math.NaN())
	if StrictEquals(nan, nan) {
		t.Error("NaN should not strict-equal itself")
	}
	if !StrictEquals(Number(0), Number(math.Copysign(0, -1))) {
		t.Error("+0 should strict-equal -0")
	}
	if !StrictEquals(String("a"), String("a")) {
		t.Error("equal strings should strict-equal")
	}
}

func TestSameValueZero(t *testing.T) {
	nan := Number(math.NaN())
	if !SameValueZero(nan, nan) {
		t.Error("SameValueZero should treat NaN as equal to itself")
	}
}

func TestLooseEquals(t *testing.T) {
	if !LooseEquals(Number(1), String("1")) {
		t.Error("1 == \"1\" should be true")
	}
	if !LooseEquals(Null(), Undefined()) {
		t.Error("null == undefined should be true")
	}
	if LooseEquals(Number(0), Null()) {
		t.Error("0 == null should be false")
	}
}

func TestHashKeyZero(t *testing.T) {
	if Number(0).HashKey() != Number(math.Copysign(0, -1)).HashKey() {
		t.Error("+0 and -0 should share a hash key for Map/Set semantics")
	}
}
