package context

import (
	"testing"

	"github.com/solarbrowser/quanta/internal/environment"
	"github.com/solarbrowser/quanta/internal/errors"
	"github.com/solarbrowser/quanta/internal/value"
)

func newTestContext(t *testing.T, engine *Engine) *Context {
	t.Helper()
	env := environment.NewVariableEnvironment(nil)
	ctx, err := New(engine, nil, "test", errors.StackFrame{FunctionName: "test"}, env, value.Undefined(), false)
	if err != nil {
		t.Fatal(err)
	}
	return ctx
}

func TestCallStackOverflow(t *testing.T) {
	engine := NewEngine(2, "test.js")
	ctx1 := newTestContext(t, engine)
	ctx2 := newTestContext(t, engine)
	_, err := New(engine, ctx2, "deep", errors.StackFrame{FunctionName: "deep"}, environment.NewVariableEnvironment(nil), value.Undefined(), false)
	if !errors.IsKind(err, errors.KindRange) {
		t.Fatalf("expected RangeError on stack overflow, got %v", err)
	}
	ctx1.Release()
	ctx2.Release()
}

func TestThrowAndClearException(t *testing.T) {
	engine := NewEngine(0, "test.js")
	ctx := newTestContext(t, engine)
	defer ctx.Release()

	if ctx.HasException() {
		t.Fatal("new context should not have an exception")
	}
	ctx.ThrowError(errors.New(errors.KindType, "bad"))
	if !ctx.HasException() {
		t.Error("expected HasException after ThrowError")
	}
	ctx.ClearException()
	if ctx.HasException() {
		t.Error("expected no exception after ClearException")
	}
}

func TestReturnValue(t *testing.T) {
	engine := NewEngine(0, "test.js")
	ctx := newTestContext(t, engine)
	defer ctx.Release()

	if _, ok := ctx.ReturnValue(); ok {
		t.Fatal("fresh context should not have returned")
	}
	ctx.SetReturnValue(value.Number(42))
	v, ok := ctx.ReturnValue()
	if !ok || v.ToNumber() != 42 {
		t.Errorf("expected return value 42, got %v (ok=%v)", v.ToNumber(), ok)
	}
}

func TestBlockScopeRestoresLexicalEnv(t *testing.T) {
	engine := NewEngine(0, "test.js")
	ctx := newTestContext(t, engine)
	defer ctx.Release()

	outer := ctx.LexicalEnv()
	restore := ctx.PushBlockScope()
	if ctx.LexicalEnv() == outer {
		t.Error("expected a new lexical environment after PushBlockScope")
	}
	restore()
	if ctx.LexicalEnv() != outer {
		t.Error("expected lexical environment restored after block exit")
	}
}

func TestPromoteSurvivor(t *testing.T) {
	engine := NewEngine(0, "test.js")
	ctx := newTestContext(t, engine)
	engine.Promote(ctx)
	if len(engine.survivors) != 1 {
		t.Fatalf("expected 1 survivor, got %d", len(engine.survivors))
	}
	engine.ReleaseSurvivors()
	if len(engine.survivors) != 0 {
		t.Error("expected survivors cleared after ReleaseSurvivors")
	}
}
