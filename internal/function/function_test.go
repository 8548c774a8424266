package function

import (
	"testing"

	"github.com/solarbrowser/quanta/internal/ast"
	"github.com/solarbrowser/quanta/internal/context"
	"github.com/solarbrowser/quanta/internal/errors"
	"github.com/solarbrowser/quanta/internal/object"
	"github.com/solarbrowser/quanta/internal/value"
)

func ident(name string) *ast.Identifier { return &ast.Identifier{Name: name} }

func newEngine(maxDepth int) *context.Engine { return context.NewEngine(maxDepth, "test.js") }

func init() {
	DefaultEvalHook = func(ctx *context.Context, expr ast.Expression) (value.Value, error) {
		if n, ok := expr.(*ast.NumberLiteral); ok {
			return value.Number(n.Value), nil
		}
		return value.Undefined(), nil
	}
}

// withBody installs body as the stubbed EvalBodyHook for the duration of
// one test, restoring whatever hook (if any) was previously installed.
func withBody(t *testing.T, body func(ctx *context.Context) error) {
	t.Helper()
	prev := EvalBodyHook
	EvalBodyHook = func(ctx *context.Context, cl *Closure) error { return body(ctx) }
	t.Cleanup(func() { EvalBodyHook = prev })
}

func TestCallBindsPositionalParameters(t *testing.T) {
	withBody(t, func(ctx *context.Context) error {
		x, _, _ := ctx.VariableEnv().GetBinding("x")
		y, _, _ := ctx.VariableEnv().GetBinding("y")
		ctx.SetReturnValue(value.Number(x.ToNumber() + y.ToNumber()))
		return nil
	})

	cl := &Closure{
		Name:   "add",
		Params: []ast.Param{{Pattern: ident("x")}, {Pattern: ident("y")}},
	}
	engine := newEngine(0)
	rv, err := cl.Call(nil, engine, errors.StackFrame{FunctionName: "add"}, value.Undefined(), []value.Value{value.Number(2), value.Number(3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rv.ToNumber() != 5 {
		t.Fatalf("expected 5, got %v", rv.ToNumber())
	}
}

func TestDefaultParameterUsedWhenArgMissing(t *testing.T) {
	withBody(t, func(ctx *context.Context) error {
		x, _, _ := ctx.VariableEnv().GetBinding("x")
		ctx.SetReturnValue(x)
		return nil
	})

	cl := &Closure{
		Name:   "withDefault",
		Params: []ast.Param{{Pattern: ident("x"), Default: &ast.NumberLiteral{Value: 9}}},
	}
	engine := newEngine(0)
	rv, err := cl.Call(nil, engine, errors.StackFrame{}, value.Undefined(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rv.ToNumber() != 9 {
		t.Fatalf("expected default 9, got %v", rv.ToNumber())
	}
}

func TestRestParameterCollectsRemaining(t *testing.T) {
	withBody(t, func(ctx *context.Context) error {
		rest, _, _ := ctx.VariableEnv().GetBinding("rest")
		obj, ok := rest.AsObject().(*object.Object)
		if !ok {
			t.Fatalf("expected rest to be an object value")
		}
		ctx.SetReturnValue(value.Number(float64(obj.Length())))
		return nil
	})

	cl := &Closure{
		Name:   "variadic",
		Params: []ast.Param{{Pattern: ident("first")}, {Pattern: ident("rest"), Rest: true}},
	}
	engine := newEngine(0)
	rv, err := cl.Call(nil, engine, errors.StackFrame{}, value.Undefined(),
		[]value.Value{value.Number(1), value.Number(2), value.Number(3), value.Number(4)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rv.ToNumber() != 3 {
		t.Fatalf("expected 3 trailing args collected, got %v", rv.ToNumber())
	}
}

func TestArgumentsObjectMaterialized(t *testing.T) {
	withBody(t, func(ctx *context.Context) error {
		args, found, err := ctx.VariableEnv().GetBinding("arguments")
		if err != nil || !found {
			t.Fatalf("expected arguments binding, found=%v err=%v", found, err)
		}
		obj := args.AsObject().(*object.Object)
		length, _ := obj.Get(ctx, "length", args)
		ctx.SetReturnValue(length)
		return nil
	})

	cl := &Closure{Name: "f"}
	engine := newEngine(0)
	rv, err := cl.Call(nil, engine, errors.StackFrame{}, value.Undefined(),
		[]value.Value{value.Number(1), value.Number(2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rv.ToNumber() != 2 {
		t.Fatalf("expected arguments.length == 2, got %v", rv.ToNumber())
	}
}

func TestNonStrictUndefinedThisBecomesGlobalObject(t *testing.T) {
	engine := newEngine(0)
	global := object.New(nil)
	engine.SetGlobalObject(value.Object(global))

	var seenThis value.Value
	withBody(t, func(ctx *context.Context) error {
		seenThis = ctx.ThisBinding()
		return nil
	})

	cl := &Closure{Name: "f"}
	_, err := cl.Call(nil, engine, errors.StackFrame{}, value.Undefined(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seenThis.AsObject() != global {
		t.Fatal("expected non-strict undefined this to coerce to the global object")
	}
}

func TestStrictThisNotCoerced(t *testing.T) {
	engine := newEngine(0)
	global := object.New(nil)
	engine.SetGlobalObject(value.Object(global))

	var seenThis value.Value
	withBody(t, func(ctx *context.Context) error {
		seenThis = ctx.ThisBinding()
		return nil
	})

	cl := &Closure{Name: "f", IsStrict: true}
	_, err := cl.Call(nil, engine, errors.StackFrame{}, value.Undefined(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !seenThis.IsUndefined() {
		t.Fatal("expected strict-mode this to remain undefined")
	}
}

func TestArrowIgnoresPassedThisUsesCaptured(t *testing.T) {
	engine := newEngine(0)
	captured := object.New(nil)
	passed := object.New(nil)

	var seenThis value.Value
	withBody(t, func(ctx *context.Context) error {
		seenThis = ctx.ThisBinding()
		return nil
	})

	cl := &Closure{
		Name:         "arrow",
		IsArrow:      true,
		CapturedThis: value.Object(captured),
	}
	_, err := cl.Call(nil, engine, errors.StackFrame{}, value.Object(passed), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seenThis.AsObject() != captured {
		t.Fatal("expected arrow function to ignore the passed this and use its captured this")
	}
}

func TestConstructLinksInstanceToPrototypeAndHonorsObjectReturnOverride(t *testing.T) {
	engine := newEngine(0)
	objectProto := object.New(nil)
	fnProto := object.New(objectProto)

	cl := &Closure{Name: "Point", IsCtor: true}
	fnObj := New(fnProto, objectProto, cl)

	withBody(t, func(ctx *context.Context) error {
		this := ctx.ThisBinding()
		obj := this.AsObject().(*object.Object)
		if obj.Proto != cl.ProtoObj {
			t.Fatal("expected constructed instance's prototype to be the closure's own prototype object")
		}
		return nil
	})
	rv, err := cl.Construct(nil, engine, errors.StackFrame{}, value.Object(fnObj), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rv.IsObject() {
		t.Fatal("expected constructed value to be an object")
	}

	explicit := object.New(nil)
	EvalBodyHook = func(ctx *context.Context, cl *Closure) error {
		ctx.SetReturnValue(value.Object(explicit))
		return nil
	}
	rv2, err := cl.Construct(nil, engine, errors.StackFrame{}, value.Object(fnObj), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rv2.AsObject() != explicit {
		t.Fatal("expected explicit object return to override the constructed instance")
	}
}

func TestBindPrependsFixedArgumentsAndThis(t *testing.T) {
	engine := newEngine(0)
	boundThisObj := object.New(nil)

	var gotThis value.Value
	var gotArgs []value.Value
	withBody(t, func(ctx *context.Context) error {
		gotThis = ctx.ThisBinding()
		a, _, _ := ctx.VariableEnv().GetBinding("a")
		b, _, _ := ctx.VariableEnv().GetBinding("b")
		gotArgs = []value.Value{a, b}
		return nil
	})

	cl := &Closure{
		Name:   "f",
		Params: []ast.Param{{Pattern: ident("a")}, {Pattern: ident("b")}},
	}
	bound := cl.Bind(value.Object(boundThisObj), []value.Value{value.Number(1)})

	_, err := bound.Call(nil, engine, errors.StackFrame{}, value.Undefined(), []value.Value{value.Number(2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotThis.AsObject() != boundThisObj {
		t.Fatal("expected bound this to be used regardless of the call-site this")
	}
	if gotArgs[0].ToNumber() != 1 || gotArgs[1].ToNumber() != 2 {
		t.Fatalf("expected bound arg 1 then call-site arg 2, got %v, %v", gotArgs[0], gotArgs[1])
	}
}

func TestCallStackOverflowPropagatesRangeError(t *testing.T) {
	engine := newEngine(1)
	engine.CallStack().Push(errors.StackFrame{FunctionName: "outer"})

	cl := &Closure{Name: "f"}
	_, err := cl.Call(nil, engine, errors.StackFrame{FunctionName: "f"}, value.Undefined(), nil)
	if err == nil {
		t.Fatal("expected call-stack overflow error")
	}
	if !errors.IsKind(err, errors.KindRange) {
		t.Fatalf("expected RangeError, got %v", err)
	}
}

func TestHoistBindsVarAndNestedFunctionDeclarations(t *testing.T) {
	withBody(t, func(ctx *context.Context) error {
		if !ctx.VariableEnv().HasOwnBinding("counter") {
			t.Fatal("expected var-hoisted 'counter' binding")
		}
		fnVal, found, err := ctx.VariableEnv().GetBinding("helper")
		if err != nil || !found || !fnVal.IsCallable() {
			t.Fatalf("expected hoisted 'helper' function binding, found=%v err=%v", found, err)
		}
		return nil
	})

	cl := &Closure{
		Name: "f",
		Body: &ast.BlockStatement{Body: []ast.Statement{
			&ast.VariableDeclaration{Kind: ast.DeclVar, Declarations: []ast.VariableDeclarator{{Target: ident("counter")}}},
			&ast.FunctionDeclaration{Function: &ast.FunctionLiteral{Name: "helper", Body: &ast.BlockStatement{}}},
		}},
	}
	engine := newEngine(0)
	_, err := cl.Call(nil, engine, errors.StackFrame{}, value.Undefined(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
