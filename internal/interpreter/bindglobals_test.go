package interpreter

import (
	"testing"

	"github.com/solarbrowser/quanta/internal/object"
	"github.com/solarbrowser/quanta/internal/parser"
	"github.com/solarbrowser/quanta/internal/value"
)

// TestBindGlobalsExposesOwnProperties verifies that every own property of
// the object BindGlobals is given becomes a bare, readable identifier in
// GlobalEnv -- the fix for built-ins being registered onto an object
// RunProgram's identifier-resolution path never consulted.
func TestBindGlobalsExposesOwnProperties(t *testing.T) {
	i := New(2048, "<test>")
	globalObj := object.New(nil)
	globalObj.DefineDataWithAttrs("greeting", value.String("hi"), object.Writable|object.Configurable)
	i.BindGlobals(globalObj)

	p := parser.New("greeting;")
	prog := p.ParseProgram()
	v, err := i.RunProgram(prog)
	if err != nil {
		t.Fatalf("RunProgram: %v", err)
	}
	if v.ToString() != "hi" {
		t.Errorf("expected bare identifier `greeting` to resolve to %q, got %q", "hi", v.ToString())
	}
}

// TestBindGlobalsSurvivesVarRedeclaration checks that a script's own `var`
// declaration of a name BindGlobals already bound does not panic or get
// silently clobbered out from under a later reference -- it keeps
// whichever binding hoisting saw first, per ordinary var-hoisting rules.
func TestBindGlobalsSurvivesVarRedeclaration(t *testing.T) {
	i := New(2048, "<test>")
	globalObj := object.New(nil)
	globalObj.DefineDataWithAttrs("greeting", value.String("hi"), object.Writable|object.Configurable)
	i.BindGlobals(globalObj)

	p := parser.New("var greeting; greeting;")
	prog := p.ParseProgram()
	if _, err := i.RunProgram(prog); err != nil {
		t.Fatalf("RunProgram panicked/errored on var redeclaration: %v", err)
	}

	if _, found, err := i.GlobalEnv.GetBinding("greeting"); err != nil || !found {
		t.Fatalf("expected `greeting` binding to still exist, found=%v err=%v", found, err)
	}
}

func TestBindGlobalsNilObjectIsNoop(t *testing.T) {
	i := New(2048, "<test>")
	i.BindGlobals(nil)
	if _, found, _ := i.GlobalEnv.GetBinding("anything"); found {
		t.Fatal("expected no bindings after BindGlobals(nil)")
	}
}
