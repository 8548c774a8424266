package object

import (
	"testing"

	"github.com/solarbrowser/quanta/internal/value"
)

func TestGetOwnThenPrototype(t *testing.T) {
	proto := New(nil)
	proto.Set(nil, "greeting", value.String("hi"), value.Undefined(), false)

	child := New(proto)
	got, err := child.Get(nil, "greeting", value.Object(child))
	if err != nil {
		t.Fatal(err)
	}
	if got.ToString() != "hi" {
		t.Errorf("expected inherited value, got %v", got.ToString())
	}
}

func TestGetMissReturnsUndefined(t *testing.T) {
	o := New(nil)
	got, err := o.Get(nil, "nope", value.Object(o))
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsUndefined() {
		t.Errorf("expected undefined on miss, got %v", got.TypeOf())
	}
}

func TestShapeSharingAcrossSamePath(t *testing.T) {
	a := New(nil)
	b := New(nil)
	a.Set(nil, "x", value.Number(1), value.Object(a), false)
	b.Set(nil, "x", value.Number(2), value.Object(b), false)

	if a.shape != b.shape {
		t.Error("objects built through the same property-addition sequence should share a shape")
	}
}

func TestFrozenObjectRejectsWriteInStrictMode(t *testing.T) {
	o := New(nil)
	o.Set(nil, "x", value.Number(1), value.Object(o), false)
	o.Freeze()

	if err := o.Set(nil, "x", value.Number(2), value.Object(o), true); err == nil {
		t.Error("expected strict-mode write to a frozen property to fail")
	}
	if err := o.Set(nil, "x", value.Number(2), value.Object(o), false); err != nil {
		t.Error("non-strict write to frozen property should silently no-op, not error")
	}
	got, _ := o.Get(nil, "x", value.Object(o))
	if got.ToNumber() != 1 {
		t.Error("frozen property value should not have changed")
	}
}

func TestArrayLengthTruncates(t *testing.T) {
	arr := NewTagged(nil, Array)
	arr.SetIndex(0, value.Number(1))
	arr.SetIndex(1, value.Number(2))
	arr.SetIndex(2, value.Number(3))
	if arr.Length() != 3 {
		t.Fatalf("expected length 3, got %d", arr.Length())
	}
	arr.SetLength(1)
	if arr.Length() != 1 {
		t.Errorf("expected length 1 after truncation, got %d", arr.Length())
	}
}

func TestOwnPropertyKeysOrder(t *testing.T) {
	o := New(nil)
	o.Set(nil, "b", value.Number(1), value.Object(o), false)
	o.Set(nil, "2", value.Number(1), value.Object(o), false)
	o.Set(nil, "a", value.Number(1), value.Object(o), false)
	o.Set(nil, "0", value.Number(1), value.Object(o), false)

	keys := o.OwnPropertyKeys()
	want := []string{"0", "2", "b", "a"}
	if len(keys) != len(want) {
		t.Fatalf("got %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("position %d: got %q, want %q (full: %v)", i, keys[i], want[i], keys)
		}
	}
}

func TestDeleteNonConfigurableFails(t *testing.T) {
	o := New(nil)
	o.DefineDataWithAttrs("x", value.Number(1), Writable)
	if o.Delete("x") {
		t.Error("delete of non-configurable property should fail")
	}
}
