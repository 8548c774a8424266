package environment

import (
	"testing"

	"github.com/solarbrowser/quanta/internal/errors"
	"github.com/solarbrowser/quanta/internal/value"
)

func TestTDZAccessBeforeDeclarationFails(t *testing.T) {
	env := NewLexicalEnvironment(nil)
	if err := env.CreateTDZBinding("x", KindLet); err != nil {
		t.Fatal(err)
	}
	_, found, err := env.GetBinding("x")
	if !found {
		t.Fatal("expected binding to be found (in TDZ)")
	}
	if !errors.IsKind(err, errors.KindReference) {
		t.Errorf("expected ReferenceError accessing TDZ binding, got %v", err)
	}
}

func TestConstWriteRejected(t *testing.T) {
	env := NewLexicalEnvironment(nil)
	if err := env.CreateBinding("x", value.Number(1), KindConst); err != nil {
		t.Fatal(err)
	}
	err := env.SetBinding("x", value.Number(2))
	if !errors.IsKind(err, errors.KindType) {
		t.Errorf("expected TypeError writing to const, got %v", err)
	}
}

func TestShadowingInNestedBlock(t *testing.T) {
	outer := NewLexicalEnvironment(nil)
	outer.CreateBinding("x", value.Number(1), KindLet)
	inner := NewLexicalEnvironment(outer)
	inner.CreateBinding("x", value.Number(2), KindLet)

	got, _, _ := inner.GetBinding("x")
	if got.ToNumber() != 2 {
		t.Errorf("inner scope should see its own binding, got %v", got.ToNumber())
	}
	got, _, _ = outer.GetBinding("x")
	if got.ToNumber() != 1 {
		t.Errorf("outer scope should be unaffected by shadowing, got %v", got.ToNumber())
	}
}

func TestClosureObservesLatestWrite(t *testing.T) {
	env := NewLexicalEnvironment(nil)
	env.CreateBinding("x", value.Number(1), KindLet)

	if err := env.SetBinding("x", value.Number(2)); err != nil {
		t.Fatal(err)
	}
	got, _, _ := env.GetBinding("x")
	if got.ToNumber() != 2 {
		t.Errorf("expected closure-visible write to be observed, got %v", got.ToNumber())
	}
}

func TestRedeclareVarTwiceIsFine(t *testing.T) {
	env := NewVariableEnvironment(nil)
	if err := env.CreateBinding("x", value.Number(1), KindVar); err != nil {
		t.Fatal(err)
	}
	if err := env.CreateBinding("x", value.Number(2), KindVar); err != nil {
		t.Errorf("redeclaring var twice should not error, got %v", err)
	}
}

func TestRedeclareLetFails(t *testing.T) {
	env := NewLexicalEnvironment(nil)
	if err := env.CreateBinding("x", value.Number(1), KindLet); err != nil {
		t.Fatal(err)
	}
	err := env.CreateBinding("x", value.Number(2), KindLet)
	if !errors.IsKind(err, errors.KindSyntax) {
		t.Errorf("expected SyntaxError redeclaring let, got %v", err)
	}
}

func TestSetUndeclaredNameFailsWithReferenceError(t *testing.T) {
	env := NewLexicalEnvironment(nil)
	err := env.SetBinding("ghost", value.Number(1))
	if !errors.IsKind(err, errors.KindReference) {
		t.Errorf("expected ReferenceError, got %v", err)
	}
}

func TestDeleteBinding(t *testing.T) {
	env := NewLexicalEnvironment(nil)
	env.CreateBinding("x", value.Number(1), KindLet)
	if !env.DeleteBinding("x") {
		t.Error("expected delete to report success")
	}
	if env.HasOwnBinding("x") {
		t.Error("binding should be gone after delete")
	}
}
