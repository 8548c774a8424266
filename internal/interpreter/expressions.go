package interpreter

import (
	"math"

	"github.com/solarbrowser/quanta/internal/ast"
	"github.com/solarbrowser/quanta/internal/context"
	"github.com/solarbrowser/quanta/internal/environment"
	"github.com/solarbrowser/quanta/internal/errors"
	"github.com/solarbrowser/quanta/internal/function"
	"github.com/solarbrowser/quanta/internal/jit"
	"github.com/solarbrowser/quanta/internal/object"
	"github.com/solarbrowser/quanta/internal/profiler"
	"github.com/solarbrowser/quanta/internal/value"
)

// Eval dispatches one expression node to its result Value (spec §4.5). A
// script-level exception is reported by setting it on ctx and returning
// (Undefined, nil); callers must check ctx.HasException() after every Eval
// call before using the result, the same discipline execStatement/
// execStatements already follow (spec §4.11).
func (i *Interpreter) Eval(ctx *context.Context, node ast.Expression) (value.Value, error) {
	switch n := node.(type) {
	case *ast.NumberLiteral:
		return value.Number(n.Value), nil
	case *ast.StringLiteral:
		return value.String(n.Value), nil
	case *ast.BooleanLiteral:
		return value.Boolean(n.Value), nil
	case *ast.NullLiteral:
		return value.Null(), nil
	case *ast.UndefinedLiteral:
		return value.Undefined(), nil
	case *ast.BigIntLiteral:
		return value.BigIntValue(&value.BigInt{Text: n.Text}), nil
	case *ast.RegexLiteral:
		return i.evalRegex(n), nil
	case *ast.ThisExpression:
		return ctx.ThisBinding(), nil
	case *ast.SuperExpression:
		return value.Undefined(), nil
	case *ast.Identifier:
		return i.evalIdentifier(ctx, n)
	case *ast.TemplateLiteral:
		return i.evalTemplate(ctx, n)
	case *ast.ArrayLiteral:
		return i.evalArray(ctx, n)
	case *ast.ObjectLiteral:
		return i.evalObject(ctx, n)
	case *ast.UnaryExpression:
		return i.evalUnary(ctx, n)
	case *ast.UpdateExpression:
		return i.evalUpdate(ctx, n)
	case *ast.BinaryExpression:
		return i.evalBinary(ctx, n)
	case *ast.LogicalExpression:
		return i.evalLogical(ctx, n)
	case *ast.AssignmentExpression:
		return i.evalAssignment(ctx, n)
	case *ast.ConditionalExpression:
		return i.evalConditional(ctx, n)
	case *ast.SequenceExpression:
		return i.evalSequence(ctx, n)
	case *ast.MemberExpression:
		v, _, err := i.evalMember(ctx, n)
		return v, err
	case *ast.CallExpression:
		return i.evalCall(ctx, n)
	case *ast.NewExpression:
		return i.evalNew(ctx, n)
	case *ast.FunctionLiteral:
		return i.evalFunctionLiteral(ctx, n), nil
	case *ast.ClassLiteral:
		return i.evalClass(ctx, n)
	case *ast.YieldExpression:
		return i.evalYield(ctx, n)
	case *ast.AwaitExpression:
		return i.evalAwait(ctx, n)
	case *ast.SpreadElement:
		return i.Eval(ctx, n.Argument)
	default:
		return value.Undefined(), errors.New(errors.KindInternal, "interpreter: unhandled expression node %T", node)
	}
}

// asObj type-asserts v's underlying ObjectRef down to the concrete
// *object.Object the interpreter always deals in (the only ObjectRef
// implementation in the engine), reporting false for non-objects instead
// of panicking the way the bare AsObject() accessor does.
func asObj(v value.Value) (*object.Object, bool) {
	if !v.IsObject() {
		return nil, false
	}
	obj, ok := v.AsObject().(*object.Object)
	return obj, ok
}

func (i *Interpreter) evalIdentifier(ctx *context.Context, n *ast.Identifier) (value.Value, error) {
	v, found, err := ctx.LexicalEnv().GetBinding(n.Name)
	if err != nil {
		ctx.ThrowError(errors.New(errors.KindReference, "%s", err.Error()))
		return value.Undefined(), nil
	}
	if !found {
		ctx.ThrowError(errors.New(errors.KindReference, "%s is not defined", n.Name))
		return value.Undefined(), nil
	}
	return v, nil
}

func (i *Interpreter) evalRegex(n *ast.RegexLiteral) value.Value {
	obj := object.NewTagged(i.Protos.Object, object.RegExpKind)
	obj.Class = "RegExp"
	obj.DefineDataWithAttrs("source", value.String(n.Pattern), 0)
	obj.DefineDataWithAttrs("flags", value.String(n.Flags), 0)
	return value.Object(obj)
}

func (i *Interpreter) evalTemplate(ctx *context.Context, n *ast.TemplateLiteral) (value.Value, error) {
	var out string
	for idx, quasi := range n.Quasis {
		out += quasi
		if idx < len(n.Expressions) {
			v, err := i.Eval(ctx, n.Expressions[idx])
			if err != nil || ctx.HasException() {
				return value.Undefined(), err
			}
			out += i.toDisplayString(ctx, v)
		}
	}
	return value.String(out), nil
}

// toDisplayString is ToString generalized to objects (ToString on a plain
// value.Value panics for TagObject; the interpreter is the layer with
// visibility into an object's own toString()/Symbol.toPrimitive method).
func (i *Interpreter) toDisplayString(ctx *context.Context, v value.Value) string {
	if !v.IsObject() {
		return v.ToString()
	}
	obj, ok := v.AsObject().(*object.Object)
	if !ok {
		return v.ToString()
	}
	if obj.KindTag == object.Array {
		return i.arrayToString(ctx, obj)
	}
	if ts, err := obj.Get(ctx, "toString", v); err == nil && ts.IsCallable() {
		rv, err := function.Call(ctx, ctx.Engine(), ts, errors.StackFrame{FunctionName: "toString"}, v, nil)
		if err == nil {
			return rv.ToString()
		}
	}
	return "[object " + classOf(obj) + "]"
}

func classOf(obj *object.Object) string {
	if obj.Class != "" {
		return obj.Class
	}
	return "Object"
}

func (i *Interpreter) arrayToString(ctx *context.Context, obj *object.Object) string {
	out := ""
	n := obj.Length()
	for idx := 0; idx < n; idx++ {
		if idx > 0 {
			out += ","
		}
		v, ok := obj.GetIndex(idx)
		if ok && !v.IsNullish() {
			out += i.toDisplayString(ctx, v)
		}
	}
	return out
}

func (i *Interpreter) evalArray(ctx *context.Context, n *ast.ArrayLiteral) (value.Value, error) {
	arr := object.NewTagged(i.Protos.Array, object.Array)
	for _, el := range n.Elements {
		if el == nil {
			arr.SetIndex(arr.Length(), value.Undefined())
			continue
		}
		if spread, ok := el.(*ast.SpreadElement); ok {
			sv, err := i.Eval(ctx, spread.Argument)
			if err != nil || ctx.HasException() {
				return value.Undefined(), err
			}
			for _, item := range iterableValues(sv) {
				arr.SetIndex(arr.Length(), item)
			}
			continue
		}
		v, err := i.Eval(ctx, el)
		if err != nil || ctx.HasException() {
			return value.Undefined(), err
		}
		arr.SetIndex(arr.Length(), v)
	}
	return value.Object(arr), nil
}

func (i *Interpreter) evalObject(ctx *context.Context, n *ast.ObjectLiteral) (value.Value, error) {
	obj := object.New(i.Protos.Object)
	for _, p := range n.Properties {
		if p.Kind == ast.PropertySpread {
			sv, err := i.Eval(ctx, p.Value)
			if err != nil || ctx.HasException() {
				return value.Undefined(), err
			}
			if so, ok := asObj(sv); ok {
				for _, k := range so.OwnPropertyKeys() {
					kv, _ := so.Get(ctx, k, sv)
					obj.DefineDataWithAttrs(k, kv, object.DefaultDataAttrs)
				}
			}
			continue
		}

		key, err := i.propertyKey(ctx, p.Key, p.Computed)
		if err != nil || ctx.HasException() {
			return value.Undefined(), err
		}

		switch p.Kind {
		case ast.PropertyGet, ast.PropertySet:
			fnLit, ok := p.Value.(*ast.FunctionLiteral)
			if !ok {
				continue
			}
			fn := i.evalFunctionLiteral(ctx, fnLit)
			getter, setter := value.Undefined(), value.Undefined()
			if p.Kind == ast.PropertyGet {
				getter = fn
			} else {
				setter = fn
			}
			obj.DefineAccessor(key, getter, setter, object.Enumerable|object.Configurable)
		default:
			v, err := i.Eval(ctx, p.Value)
			if err != nil || ctx.HasException() {
				return value.Undefined(), err
			}
			obj.DefineDataWithAttrs(key, v, object.DefaultDataAttrs)
		}
	}
	return value.Object(obj), nil
}

func (i *Interpreter) propertyKey(ctx *context.Context, key ast.Expression, computed bool) (string, error) {
	if !computed {
		switch k := key.(type) {
		case *ast.Identifier:
			return k.Name, nil
		case *ast.StringLiteral:
			return k.Value, nil
		case *ast.NumberLiteral:
			return value.Number(k.Value).ToString(), nil
		}
	}
	v, err := i.Eval(ctx, key)
	if err != nil || ctx.HasException() {
		return "", err
	}
	return i.toDisplayString(ctx, v), nil
}

func (i *Interpreter) evalUnary(ctx *context.Context, n *ast.UnaryExpression) (value.Value, error) {
	if n.Operator == ast.OpTypeof {
		if ident, ok := n.Argument.(*ast.Identifier); ok {
			v, found, _ := ctx.LexicalEnv().GetBinding(ident.Name)
			if !found {
				return value.String("undefined"), nil
			}
			return value.String(v.TypeOf()), nil
		}
	}
	if n.Operator == ast.OpDelete {
		if member, ok := n.Argument.(*ast.MemberExpression); ok {
			objVal, err := i.Eval(ctx, member.Object)
			if err != nil || ctx.HasException() {
				return value.Undefined(), err
			}
			key, err := i.memberKey(ctx, member)
			if err != nil || ctx.HasException() {
				return value.Undefined(), err
			}
			if o, ok := asObj(objVal); ok {
				return value.Boolean(o.Delete(key)), nil
			}
		}
		return value.Boolean(true), nil
	}

	v, err := i.Eval(ctx, n.Argument)
	if err != nil || ctx.HasException() {
		return value.Undefined(), err
	}
	switch n.Operator {
	case ast.OpPlus:
		return value.Number(v.ToNumber()), nil
	case ast.OpMinus:
		return value.Number(-v.ToNumber()), nil
	case ast.OpNot:
		return value.Boolean(!v.ToBoolean()), nil
	case ast.OpBitNot:
		return value.Number(float64(^v.ToInt32())), nil
	case ast.OpVoid:
		return value.Undefined(), nil
	}
	return value.Undefined(), nil
}

func (i *Interpreter) evalUpdate(ctx *context.Context, n *ast.UpdateExpression) (value.Value, error) {
	old, err := i.Eval(ctx, n.Argument)
	if err != nil || ctx.HasException() {
		return value.Undefined(), err
	}
	oldNum := old.ToNumber()
	var newNum float64
	if n.Operator == "++" {
		newNum = oldNum + 1
	} else {
		newNum = oldNum - 1
	}
	if err := i.assignToTarget(ctx, n.Argument, value.Number(newNum)); err != nil || ctx.HasException() {
		return value.Undefined(), err
	}
	if n.Prefix {
		return value.Number(newNum), nil
	}
	return value.Number(oldNum), nil
}

func (i *Interpreter) evalBinary(ctx *context.Context, n *ast.BinaryExpression) (value.Value, error) {
	left, err := i.Eval(ctx, n.Left)
	if err != nil || ctx.HasException() {
		return value.Undefined(), err
	}
	right, err := i.Eval(ctx, n.Right)
	if err != nil || ctx.HasException() {
		return value.Undefined(), err
	}

	tier := i.Profiler.RecordNode(n, left.TypeOf()+":"+right.TypeOf())
	if v, ok := i.tryNativeBinary(n, tier, left, right); ok {
		return v, nil
	}
	return i.applyBinary(ctx, n.Operator, left, right)
}

// tryNativeBinary attempts spec §4.10's machine-code tier for n once the
// profiler has promoted it and its feedback is monomorphic over Number —
// the only tag this package's emitter (internal/jit) speculates on. Any
// guard failure (a non-Number operand slipping through, or the pattern
// table simply not covering n's operator) demotes the node back to
// bytecode and disables further attempts after DeoptDisableThreshold
// failures, per spec §4.10.
func (i *Interpreter) tryNativeBinary(n *ast.BinaryExpression, tier profiler.Tier, left, right value.Value) (value.Value, bool) {
	if tier != profiler.TierMachineCode || i.JIT == nil || i.Profiler.Disabled(n) {
		return value.Undefined(), false
	}
	if !left.IsNumber() || !right.IsNumber() {
		i.Profiler.RecordDeopt(n)
		return value.Undefined(), false
	}

	entry, ok := i.JIT.Get(n)
	if !ok {
		var err error
		entry, err = i.JIT.CompileBinary(n)
		if err != nil || entry == nil {
			i.Profiler.RecordDeopt(n)
			return value.Undefined(), false
		}
	}

	var v value.Value
	ok = func() (ok bool) {
		defer func() {
			if r := recover(); r != nil {
				i.Profiler.RecordDeopt(n)
				i.JIT.Invalidate(n)
				ok = false
			}
		}()
		args := nativeArgs(n, left, right)
		if entry.Result == jit.ResultBoolean {
			v = value.Boolean(entry.CallBool(args...))
		} else {
			v = value.Number(entry.CallNumber(args...))
		}
		return true
	}()
	return v, ok
}

// nativeArgs resolves the runtime operand slots CompileBinary's pattern
// actually needs, in the same left-to-right order it loaded them in: a
// literal operand is already baked into the emitted immediate and
// contributes no argument.
func nativeArgs(n *ast.BinaryExpression, left, right value.Value) []float64 {
	_, leftLiteral := n.Left.(*ast.NumberLiteral)
	_, rightLiteral := n.Right.(*ast.NumberLiteral)
	var args []float64
	if !leftLiteral {
		args = append(args, left.AsNumberUnchecked())
	}
	if !rightLiteral {
		args = append(args, right.AsNumberUnchecked())
	}
	return args
}

func (i *Interpreter) applyBinary(ctx *context.Context, op string, left, right value.Value) (value.Value, error) {
	switch op {
	case "+":
		if left.IsString() || right.IsString() {
			return value.String(i.toDisplayString(ctx, left) + i.toDisplayString(ctx, right)), nil
		}
		if left.IsObject() || right.IsObject() {
			ls, rs := i.toPrimitiveNumberOrString(ctx, left), i.toPrimitiveNumberOrString(ctx, right)
			if ls.IsString() || rs.IsString() {
				return value.String(ls.ToString() + rs.ToString()), nil
			}
			return value.Number(ls.ToNumber() + rs.ToNumber()), nil
		}
		return value.Number(left.ToNumber() + right.ToNumber()), nil
	case "-":
		return value.Number(left.ToNumber() - right.ToNumber()), nil
	case "*":
		return value.Number(left.ToNumber() * right.ToNumber()), nil
	case "/":
		return value.Number(left.ToNumber() / right.ToNumber()), nil
	case "%":
		return value.Number(math.Mod(left.ToNumber(), right.ToNumber())), nil
	case "**":
		return value.Number(math.Pow(left.ToNumber(), right.ToNumber())), nil
	case "<":
		return compareValues(ctx, i, left, right, func(a, b float64) bool { return a < b }, func(a, b string) bool { return a < b }), nil
	case "<=":
		return compareValues(ctx, i, left, right, func(a, b float64) bool { return a <= b }, func(a, b string) bool { return a <= b }), nil
	case ">":
		return compareValues(ctx, i, left, right, func(a, b float64) bool { return a > b }, func(a, b string) bool { return a > b }), nil
	case ">=":
		return compareValues(ctx, i, left, right, func(a, b float64) bool { return a >= b }, func(a, b string) bool { return a >= b }), nil
	case "==":
		return value.Boolean(value.LooseEquals(left, right)), nil
	case "!=":
		return value.Boolean(!value.LooseEquals(left, right)), nil
	case "===":
		return value.Boolean(value.StrictEquals(left, right)), nil
	case "!==":
		return value.Boolean(!value.StrictEquals(left, right)), nil
	case "&":
		return value.Number(float64(left.ToInt32() & right.ToInt32())), nil
	case "|":
		return value.Number(float64(left.ToInt32() | right.ToInt32())), nil
	case "^":
		return value.Number(float64(left.ToInt32() ^ right.ToInt32())), nil
	case "<<":
		return value.Number(float64(left.ToInt32() << (right.ToUint32() & 31))), nil
	case ">>":
		return value.Number(float64(left.ToInt32() >> (right.ToUint32() & 31))), nil
	case ">>>":
		return value.Number(float64(left.ToUint32() >> (right.ToUint32() & 31))), nil
	case "instanceof":
		return i.evalInstanceof(ctx, left, right)
	case "in":
		return i.evalIn(left, right)
	}
	return value.Undefined(), errors.New(errors.KindInternal, "interpreter: unhandled binary operator %q", op)
}

func (i *Interpreter) toPrimitiveNumberOrString(ctx *context.Context, v value.Value) value.Value {
	if !v.IsObject() {
		return v
	}
	return value.String(i.toDisplayString(ctx, v))
}

func compareValues(ctx *context.Context, i *Interpreter, left, right value.Value, numCmp func(a, b float64) bool, strCmp func(a, b string) bool) value.Value {
	if left.IsString() && right.IsString() {
		return value.Boolean(strCmp(left.AsStringUnchecked(), right.AsStringUnchecked()))
	}
	ln, rn := i.toPrimitiveNumberOrString(ctx, left).ToNumber(), i.toPrimitiveNumberOrString(ctx, right).ToNumber()
	if math.IsNaN(ln) || math.IsNaN(rn) {
		return value.Boolean(false)
	}
	return value.Boolean(numCmp(ln, rn))
}

func (i *Interpreter) evalInstanceof(ctx *context.Context, left, right value.Value) (value.Value, error) {
	if !right.IsCallable() {
		ctx.ThrowError(errors.New(errors.KindType, "Right-hand side of 'instanceof' is not callable"))
		return value.Undefined(), nil
	}
	if !left.IsObject() {
		return value.Boolean(false), nil
	}
	ctor, ok := right.AsObject().(*object.Object)
	if !ok {
		return value.Boolean(false), nil
	}
	protoVal, err := ctor.Get(ctx, "prototype", right)
	if err != nil || !protoVal.IsObject() {
		return value.Boolean(false), nil
	}
	targetProto, ok := protoVal.AsObject().(*object.Object)
	if !ok {
		return value.Boolean(false), nil
	}
	inst, ok := left.AsObject().(*object.Object)
	if !ok {
		return value.Boolean(false), nil
	}
	for p := inst.Proto; p != nil; p = p.Proto {
		if p == targetProto {
			return value.Boolean(true), nil
		}
	}
	return value.Boolean(false), nil
}

func (i *Interpreter) evalIn(left, right value.Value) (value.Value, error) {
	obj, ok := asObj(right)
	if !ok {
		return value.Boolean(false), nil
	}
	return value.Boolean(obj.Has(left.ToString())), nil
}

func (i *Interpreter) evalLogical(ctx *context.Context, n *ast.LogicalExpression) (value.Value, error) {
	left, err := i.Eval(ctx, n.Left)
	if err != nil || ctx.HasException() {
		return value.Undefined(), err
	}
	switch n.Operator {
	case "&&":
		if !left.ToBoolean() {
			return left, nil
		}
	case "||":
		if left.ToBoolean() {
			return left, nil
		}
	case "??":
		if !left.IsNullish() {
			return left, nil
		}
	}
	return i.Eval(ctx, n.Right)
}

func (i *Interpreter) evalConditional(ctx *context.Context, n *ast.ConditionalExpression) (value.Value, error) {
	test, err := i.Eval(ctx, n.Test)
	if err != nil || ctx.HasException() {
		return value.Undefined(), err
	}
	if test.ToBoolean() {
		return i.Eval(ctx, n.Consequent)
	}
	return i.Eval(ctx, n.Alternate)
}

func (i *Interpreter) evalSequence(ctx *context.Context, n *ast.SequenceExpression) (value.Value, error) {
	var last value.Value = value.Undefined()
	for _, e := range n.Expressions {
		v, err := i.Eval(ctx, e)
		if err != nil || ctx.HasException() {
			return value.Undefined(), err
		}
		last = v
	}
	return last, nil
}

func (i *Interpreter) memberKey(ctx *context.Context, n *ast.MemberExpression) (string, error) {
	if !n.Computed {
		ident, ok := n.Property.(*ast.Identifier)
		if ok {
			return ident.Name, nil
		}
	}
	v, err := i.Eval(ctx, n.Property)
	if err != nil || ctx.HasException() {
		return "", err
	}
	return i.toDisplayString(ctx, v), nil
}

// evalMember returns the member's value and the object it was read off of
// (the `this` a following CallExpression should use).
func (i *Interpreter) evalMember(ctx *context.Context, n *ast.MemberExpression) (value.Value, value.Value, error) {
	objVal, err := i.Eval(ctx, n.Object)
	if err != nil || ctx.HasException() {
		return value.Undefined(), value.Undefined(), err
	}
	if n.Optional && objVal.IsNullish() {
		return value.Undefined(), value.Undefined(), nil
	}
	if objVal.IsNullish() {
		ctx.ThrowError(errors.New(errors.KindType, "Cannot read properties of %s", objVal.ToString()))
		return value.Undefined(), value.Undefined(), nil
	}
	key, err := i.memberKey(ctx, n)
	if err != nil || ctx.HasException() {
		return value.Undefined(), value.Undefined(), err
	}
	if objVal.IsString() {
		if key == "length" {
			return value.Number(float64(len([]rune(objVal.AsStringUnchecked())))), objVal, nil
		}
		if i.Protos.String != nil {
			v, err := i.Protos.String.Get(ctx, key, objVal)
			if err != nil {
				ctx.ThrowError(errors.New(errors.KindType, "%s", err.Error()))
				return value.Undefined(), objVal, nil
			}
			return v, objVal, nil
		}
		return value.Undefined(), objVal, nil
	}
	obj, ok := asObj(objVal)
	if !ok {
		return value.Undefined(), objVal, nil
	}
	if obj.KindTag == object.Array && key == "length" {
		return value.Number(float64(obj.Length())), objVal, nil
	}
	v, err := obj.Get(ctx, key, objVal)
	if err != nil {
		ctx.ThrowError(errors.New(errors.KindType, "%s", err.Error()))
		return value.Undefined(), objVal, nil
	}
	return v, objVal, nil
}

// evalSuperCall implements `super(...)` inside a derived class's
// constructor: it runs the superclass constructor's body against the
// already-allocated `this` (the engine binds `this` before the
// constructor body runs, so super() here only needs to run the parent's
// initialization logic against the same instance, not allocate a new
// one) and marks super as called so a bare `return` doesn't trip the
// uninitialized-this check a real derived constructor would need.
func (i *Interpreter) evalSuperCall(ctx *context.Context, n *ast.CallExpression) (value.Value, error) {
	cl, ok := ctx.Active().(*function.Closure)
	if !ok || cl.SuperCtor == nil {
		ctx.ThrowError(errors.New(errors.KindSyntax, "'super' keyword is only valid inside a derived class constructor"))
		return value.Undefined(), nil
	}
	args, err := i.evalArguments(ctx, n.Args)
	if err != nil || ctx.HasException() {
		return value.Undefined(), err
	}
	this := ctx.ThisBinding()
	frame := errors.StackFrame{FunctionName: "super", FileName: ctx.GetCurrentFilename()}
	superCl, ok := cl.SuperCtor.Internal.(*function.Closure)
	if !ok {
		ctx.ThrowError(errors.New(errors.KindType, "super constructor is not callable"))
		return value.Undefined(), nil
	}
	_, err = superCl.Call(ctx, ctx.Engine(), frame, this, args)
	if err != nil {
		i.propagateCallError(ctx, err)
		return value.Undefined(), nil
	}
	ctx.SetSuperCalled()
	return value.Undefined(), nil
}

func (i *Interpreter) evalCall(ctx *context.Context, n *ast.CallExpression) (value.Value, error) {
	var callee value.Value
	var this value.Value = value.Undefined()

	switch c := n.Callee.(type) {
	case *ast.SuperExpression:
		return i.evalSuperCall(ctx, n)
	case *ast.MemberExpression:
		v, recv, err := i.evalMember(ctx, c)
		if err != nil || ctx.HasException() {
			return value.Undefined(), err
		}
		if c.Optional && v.IsNullish() {
			return value.Undefined(), nil
		}
		callee, this = v, recv
	default:
		v, err := i.Eval(ctx, n.Callee)
		if err != nil || ctx.HasException() {
			return value.Undefined(), err
		}
		callee = v
	}

	if n.Optional && callee.IsNullish() {
		return value.Undefined(), nil
	}
	if !callee.IsCallable() {
		ctx.ThrowError(errors.New(errors.KindType, "value is not a function"))
		return value.Undefined(), nil
	}

	args, err := i.evalArguments(ctx, n.Args)
	if err != nil || ctx.HasException() {
		return value.Undefined(), err
	}

	frame := errors.StackFrame{FunctionName: calleeName(n.Callee), FileName: ctx.GetCurrentFilename()}
	if pos := n.Pos(); true {
		frame.Line, frame.Column = pos.Line, pos.Column
	}
	rv, err := function.Call(ctx, ctx.Engine(), callee, frame, this, args)
	if err != nil {
		i.propagateCallError(ctx, err)
		return value.Undefined(), nil
	}
	return rv, nil
}

func calleeName(e ast.Expression) string {
	switch c := e.(type) {
	case *ast.Identifier:
		return c.Name
	case *ast.MemberExpression:
		if ident, ok := c.Property.(*ast.Identifier); ok && !c.Computed {
			return ident.Name
		}
	}
	return "<anonymous>"
}

func (i *Interpreter) evalArguments(ctx *context.Context, argNodes []ast.Expression) ([]value.Value, error) {
	args := make([]value.Value, 0, len(argNodes))
	for _, a := range argNodes {
		if spread, ok := a.(*ast.SpreadElement); ok {
			sv, err := i.Eval(ctx, spread.Argument)
			if err != nil || ctx.HasException() {
				return nil, err
			}
			args = append(args, iterableValues(sv)...)
			continue
		}
		v, err := i.Eval(ctx, a)
		if err != nil || ctx.HasException() {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// propagateCallError routes a Call/Construct failure back onto ctx: a
// *function.ThrownValue becomes the re-thrown script value; any other Go
// error from outside a script body (a host panic recovered at the native
// boundary) surfaces as an InternalError, never a raw Go panic (spec §4.11).
func (i *Interpreter) propagateCallError(ctx *context.Context, err error) {
	if tv, ok := err.(*function.ThrownValue); ok {
		ctx.ThrowException(tv.V)
		return
	}
	if ee, ok := err.(*errors.EngineError); ok {
		ctx.ThrowError(ee)
		return
	}
	ctx.ThrowError(errors.New(errors.KindInternal, "%s", err.Error()))
}

func (i *Interpreter) evalNew(ctx *context.Context, n *ast.NewExpression) (value.Value, error) {
	callee, err := i.Eval(ctx, n.Callee)
	if err != nil || ctx.HasException() {
		return value.Undefined(), err
	}
	if !callee.IsCallable() {
		ctx.ThrowError(errors.New(errors.KindType, "value is not a constructor"))
		return value.Undefined(), nil
	}
	args, err := i.evalArguments(ctx, n.Args)
	if err != nil || ctx.HasException() {
		return value.Undefined(), err
	}
	obj, ok := callee.AsObject().(*object.Object)
	if !ok {
		ctx.ThrowError(errors.New(errors.KindType, "value is not a constructor"))
		return value.Undefined(), nil
	}
	cl, ok := obj.Internal.(*function.Closure)
	if !ok {
		ctx.ThrowError(errors.New(errors.KindType, "value is not a constructor"))
		return value.Undefined(), nil
	}
	frame := errors.StackFrame{FunctionName: "new " + cl.Name, FileName: ctx.GetCurrentFilename()}
	rv, err := cl.Construct(ctx, ctx.Engine(), frame, callee, args)
	if err != nil {
		i.propagateCallError(ctx, err)
		return value.Undefined(), nil
	}
	return rv, nil
}

func (i *Interpreter) evalFunctionLiteral(ctx *context.Context, n *ast.FunctionLiteral) value.Value {
	cl := &function.Closure{
		Name:        n.Name,
		Params:      n.Params,
		Body:        n.Body,
		ExprBody:    n.ExprBody,
		Env:         ctx.LexicalEnv(),
		IsCtor:      !n.IsArrow && !n.IsAsync && !n.IsGen,
		IsArrow:     n.IsArrow,
		IsAsync:     n.IsAsync,
		IsGenerator: n.IsGen,
		IsStrict:    ctx.IsStrictMode(),
	}
	if n.IsArrow {
		cl.CapturedThis = ctx.ThisBinding()
		cl.CapturedNewTarget = ctx.NewTarget()
	}
	fn := function.New(i.Protos.Function, i.Protos.Object, cl)
	return value.Object(fn)
}

// initInstanceFields evaluates cl's class field initializers against
// `this`, run once at the top of the constructor body (interpreter.evalBody).
func (i *Interpreter) initInstanceFields(ctx *context.Context, cl *function.Closure) error {
	this := ctx.ThisBinding()
	obj, ok := asObj(this)
	if !ok {
		return nil
	}
	for _, m := range cl.InstanceFields {
		key, err := i.propertyKey(ctx, m.Key, m.Computed)
		if err != nil || ctx.HasException() {
			return err
		}
		var v value.Value = value.Undefined()
		if m.FieldVal != nil {
			v, err = i.Eval(ctx, m.FieldVal)
			if err != nil || ctx.HasException() {
				return err
			}
		}
		obj.DefineDataWithAttrs(key, v, object.DefaultDataAttrs)
	}
	return nil
}

// evalClass builds a class's constructor Closure and prototype chain
// (spec §4.6): an explicit "constructor" method becomes the Closure body,
// or an implicit default constructor is synthesized (one that forwards
// to super() for a derived class, or a no-op for a base class); other
// non-static members become prototype methods/accessors, static members
// attach directly to the constructor object, and field members (Kind
// PropertyInit with no FunctionLiteral Value) are collected for
// per-instance initialization by initInstanceFields.
func (i *Interpreter) evalClass(ctx *context.Context, class *ast.ClassLiteral) (value.Value, error) {
	var superCtorObj *object.Object
	var superProto *object.Object
	if class.SuperClass != nil {
		sv, err := i.Eval(ctx, class.SuperClass)
		if err != nil || ctx.HasException() {
			return value.Undefined(), err
		}
		sco, ok := asObj(sv)
		if !ok || !sv.IsCallable() {
			ctx.ThrowError(errors.New(errors.KindType, "Class extends value is not a constructor"))
			return value.Undefined(), nil
		}
		superCtorObj = sco
		if pv, err := sco.Get(ctx, "prototype", sv); err == nil {
			superProto, _ = asObj(pv)
		}
	}

	var ctorMember *ast.ClassMember
	var instanceFields []ast.ClassMember
	var methods []ast.ClassMember
	for idx := range class.Members {
		m := &class.Members[idx]
		if !m.Static && !m.Computed && m.Kind == ast.PropertyInit {
			if ident, ok := m.Key.(*ast.Identifier); ok && ident.Name == "constructor" && m.Value != nil {
				ctorMember = m
				continue
			}
		}
		if m.Value != nil {
			methods = append(methods, *m)
		} else if !m.Static {
			instanceFields = append(instanceFields, *m)
		} else {
			methods = append(methods, *m) // static field, handled below by kind check
		}
	}

	cl := &function.Closure{
		Name:           class.Name,
		Env:            ctx.LexicalEnv(),
		IsCtor:         true,
		IsClassCtor:    true,
		IsStrict:       true,
		IsDerived:      class.SuperClass != nil,
		SuperCtor:      superCtorObj,
		InstanceFields: instanceFields,
	}
	if ctorMember != nil {
		cl.Params = ctorMember.Value.Params
		cl.Body = ctorMember.Value.Body
	} else {
		cl.Body = &ast.BlockStatement{}
		cl.AutoSuperCall = class.SuperClass != nil
	}

	fn := function.New(i.Protos.Function, i.Protos.Object, cl)
	fn.Class = "Function"
	if superCtorObj != nil {
		fn.Proto = superCtorObj
		if cl.ProtoObj != nil {
			cl.ProtoObj.Proto = superProto
		}
	}

	type accessorPair struct {
		target       *object.Object
		getter, setter value.Value
	}
	accessors := map[string]*accessorPair{}

	for _, m := range methods {
		target := cl.ProtoObj
		if m.Static {
			target = fn
		}
		if target == nil {
			continue
		}
		key, err := i.propertyKey(ctx, m.Key, m.Computed)
		if err != nil || ctx.HasException() {
			return value.Undefined(), err
		}
		if m.Value == nil {
			var v value.Value = value.Undefined()
			if m.FieldVal != nil {
				v, err = i.Eval(ctx, m.FieldVal)
				if err != nil || ctx.HasException() {
					return value.Undefined(), err
				}
			}
			target.DefineDataWithAttrs(key, v, object.DefaultDataAttrs)
			continue
		}
		methodFn := i.evalFunctionLiteral(ctx, m.Value)
		if m.Kind == ast.PropertyGet || m.Kind == ast.PropertySet {
			accKey := key
			if m.Static {
				accKey = "static:" + key
			}
			pair, ok := accessors[accKey]
			if !ok {
				pair = &accessorPair{target: target, getter: value.Undefined(), setter: value.Undefined()}
				accessors[accKey] = pair
			}
			if m.Kind == ast.PropertyGet {
				pair.getter = methodFn
			} else {
				pair.setter = methodFn
			}
			continue
		}
		target.DefineDataWithAttrs(key, methodFn, object.Writable|object.Configurable)
	}
	for key, pair := range accessors {
		plainKey := key
		if len(plainKey) > 7 && plainKey[:7] == "static:" {
			plainKey = plainKey[7:]
		}
		pair.target.DefineAccessor(plainKey, pair.getter, pair.setter, object.Configurable)
	}

	if class.Name != "" {
		ctx.LexicalEnv().InitializeBinding(class.Name, value.Object(fn))
	}
	return value.Object(fn), nil
}

func (i *Interpreter) evalYield(ctx *context.Context, n *ast.YieldExpression) (value.Value, error) {
	// Generator suspension is internal/promise's concern (not yet wired to
	// the interpreter); evaluated eagerly here so generator bodies still
	// run to completion rather than failing outright.
	if n.Argument == nil {
		return value.Undefined(), nil
	}
	return i.Eval(ctx, n.Argument)
}

func (i *Interpreter) evalAwait(ctx *context.Context, n *ast.AwaitExpression) (value.Value, error) {
	v, err := i.Eval(ctx, n.Argument)
	if err != nil || ctx.HasException() {
		return value.Undefined(), err
	}
	if i.Awaiter != nil {
		return i.Awaiter(ctx, v)
	}
	return v, nil
}

// ---- assignment ----

func (i *Interpreter) evalAssignment(ctx *context.Context, n *ast.AssignmentExpression) (value.Value, error) {
	if n.Operator == "=" {
		v, err := i.Eval(ctx, n.Value)
		if err != nil || ctx.HasException() {
			return value.Undefined(), err
		}
		if err := i.assignToTarget(ctx, n.Target, v); err != nil || ctx.HasException() {
			return value.Undefined(), err
		}
		return v, nil
	}

	if op, ok := logicalAssignOp(n.Operator); ok {
		cur, err := i.Eval(ctx, n.Target)
		if err != nil || ctx.HasException() {
			return value.Undefined(), err
		}
		skip := false
		switch op {
		case "&&":
			skip = !cur.ToBoolean()
		case "||":
			skip = cur.ToBoolean()
		case "??":
			skip = !cur.IsNullish()
		}
		if skip {
			return cur, nil
		}
		v, err := i.Eval(ctx, n.Value)
		if err != nil || ctx.HasException() {
			return value.Undefined(), err
		}
		if err := i.assignToTarget(ctx, n.Target, v); err != nil || ctx.HasException() {
			return value.Undefined(), err
		}
		return v, nil
	}

	cur, err := i.Eval(ctx, n.Target)
	if err != nil || ctx.HasException() {
		return value.Undefined(), err
	}
	rhs, err := i.Eval(ctx, n.Value)
	if err != nil || ctx.HasException() {
		return value.Undefined(), err
	}
	result, err := i.applyBinary(ctx, compoundBaseOp(n.Operator), cur, rhs)
	if err != nil || ctx.HasException() {
		return value.Undefined(), err
	}
	if err := i.assignToTarget(ctx, n.Target, result); err != nil || ctx.HasException() {
		return value.Undefined(), err
	}
	return result, nil
}

func logicalAssignOp(op string) (string, bool) {
	switch op {
	case "&&=":
		return "&&", true
	case "||=":
		return "||", true
	case "??=":
		return "??", true
	}
	return "", false
}

func compoundBaseOp(op string) string {
	if len(op) > 1 && op[len(op)-1] == '=' {
		return op[:len(op)-1]
	}
	return op
}

// assignToTarget stores v into target: an identifier binding, a member
// property, or (for destructuring assignment) an array/object pattern of
// already-existing targets.
func (i *Interpreter) assignToTarget(ctx *context.Context, target ast.Expression, v value.Value) error {
	switch t := target.(type) {
	case *ast.Identifier:
		if err := ctx.LexicalEnv().SetBinding(t.Name, v); err != nil {
			if ee, ok := err.(*errors.EngineError); ok {
				ctx.ThrowError(ee)
				return nil
			}
			return err
		}
		return nil
	case *ast.MemberExpression:
		objVal, err := i.Eval(ctx, t.Object)
		if err != nil || ctx.HasException() {
			return err
		}
		key, err := i.memberKey(ctx, t)
		if err != nil || ctx.HasException() {
			return err
		}
		obj, ok := asObj(objVal)
		if !ok {
			ctx.ThrowError(errors.New(errors.KindType, "Cannot set properties of %s", objVal.ToString()))
			return nil
		}
		if obj.KindTag == object.Array && key == "length" {
			obj.SetLength(int(v.ToNumber()))
			return nil
		}
		if err := obj.Set(ctx, key, v, objVal, ctx.IsStrictMode()); err != nil {
			ctx.ThrowError(errors.New(errors.KindType, "%s", err.Error()))
		}
		return nil
	case *ast.ArrayLiteral, *ast.ObjectLiteral:
		return i.destructureAssign(ctx, target, v)
	case *ast.AssignmentExpression:
		if v.IsUndefined() {
			dv, err := i.Eval(ctx, t.Value)
			if err != nil || ctx.HasException() {
				return err
			}
			v = dv
		}
		return i.assignToTarget(ctx, t.Target, v)
	}
	return errors.New(errors.KindInternal, "interpreter: unsupported assignment target %T", target)
}

func (i *Interpreter) destructureAssign(ctx *context.Context, pattern ast.Expression, v value.Value) error {
	switch p := pattern.(type) {
	case *ast.ArrayLiteral:
		items := iterableValues(v)
		for idx, el := range p.Elements {
			if el == nil {
				continue
			}
			if rest, ok := el.(*ast.RestElement); ok {
				arr := object.NewTagged(i.Protos.Array, object.Array)
				if idx < len(items) {
					for _, rv := range items[idx:] {
						arr.SetIndex(arr.Length(), rv)
					}
				}
				return i.assignToTarget(ctx, rest.Argument, value.Object(arr))
			}
			var ev value.Value = value.Undefined()
			if idx < len(items) {
				ev = items[idx]
			}
			if err := i.assignToTarget(ctx, el, ev); err != nil || ctx.HasException() {
				return err
			}
		}
		return nil
	case *ast.ObjectLiteral:
		obj, ok := asObj(v)
		used := map[string]bool{}
		for _, prop := range p.Properties {
			if prop.Kind == ast.PropertySpread {
				rest := object.New(i.Protos.Object)
				if ok {
					for _, k := range obj.OwnPropertyKeys() {
						if !used[k] {
							kv, _ := obj.Get(ctx, k, v)
							rest.DefineDataWithAttrs(k, kv, object.DefaultDataAttrs)
						}
					}
				}
				if err := i.assignToTarget(ctx, prop.Value, value.Object(rest)); err != nil || ctx.HasException() {
					return err
				}
				continue
			}
			key, err := i.propertyKey(ctx, prop.Key, prop.Computed)
			if err != nil || ctx.HasException() {
				return err
			}
			used[key] = true
			var pv value.Value = value.Undefined()
			if ok {
				pv, _ = obj.Get(ctx, key, v)
			}
			if err := i.assignToTarget(ctx, prop.Value, pv); err != nil || ctx.HasException() {
				return err
			}
		}
		return nil
	}
	return i.assignToTarget(ctx, pattern, v)
}

// destructureInto implements binding-declaration mode for a pattern
// (Identifier, ArrayLiteral, ObjectLiteral, or a defaulted
// AssignmentExpression wrapper): var creates/merges the binding directly;
// let/const assume hoistLexical already pre-declared every leaf name as a
// TDZ binding in env and clear the TDZ via InitializeBinding.
func (i *Interpreter) destructureInto(ctx *context.Context, env *environment.Environment, pattern ast.Expression, v value.Value, kind environment.BindingKind) error {
	switch p := pattern.(type) {
	case *ast.Identifier:
		if kind == environment.KindVar {
			return env.CreateBinding(p.Name, v, environment.KindVar)
		}
		env.InitializeBinding(p.Name, v)
		return nil
	case *ast.AssignmentExpression:
		if v.IsUndefined() {
			dv, err := i.Eval(ctx, p.Value)
			if err != nil || ctx.HasException() {
				return err
			}
			v = dv
		}
		return i.destructureInto(ctx, env, p.Target, v, kind)
	case *ast.ArrayLiteral:
		items := iterableValues(v)
		for idx, el := range p.Elements {
			if el == nil {
				continue
			}
			if rest, ok := el.(*ast.RestElement); ok {
				arr := object.NewTagged(i.Protos.Array, object.Array)
				if idx < len(items) {
					for _, rv := range items[idx:] {
						arr.SetIndex(arr.Length(), rv)
					}
				}
				return i.destructureInto(ctx, env, rest.Argument, value.Object(arr), kind)
			}
			var ev value.Value = value.Undefined()
			if idx < len(items) {
				ev = items[idx]
			}
			if err := i.destructureInto(ctx, env, el, ev, kind); err != nil || ctx.HasException() {
				return err
			}
		}
		return nil
	case *ast.ObjectLiteral:
		obj, ok := asObj(v)
		used := map[string]bool{}
		for _, prop := range p.Properties {
			if prop.Kind == ast.PropertySpread {
				rest := object.New(i.Protos.Object)
				if ok {
					for _, k := range obj.OwnPropertyKeys() {
						if !used[k] {
							kv, _ := obj.Get(ctx, k, v)
							rest.DefineDataWithAttrs(k, kv, object.DefaultDataAttrs)
						}
					}
				}
				if err := i.destructureInto(ctx, env, prop.Value, value.Object(rest), kind); err != nil || ctx.HasException() {
					return err
				}
				continue
			}
			key, err := i.propertyKey(ctx, prop.Key, prop.Computed)
			if err != nil || ctx.HasException() {
				return err
			}
			used[key] = true
			var pv value.Value = value.Undefined()
			if ok {
				pv, _ = obj.Get(ctx, key, v)
			}
			if err := i.destructureInto(ctx, env, prop.Value, pv, kind); err != nil || ctx.HasException() {
				return err
			}
		}
		return nil
	}
	return errors.New(errors.KindInternal, "interpreter: unsupported binding pattern %T", pattern)
}

// bindingNames collects every identifier a pattern would bind, used by
// hoistLexical/the for-in/for-of declare path to pre-create TDZ bindings
// before the pattern's values are known.
func bindingNames(pattern ast.Expression) []string {
	switch p := pattern.(type) {
	case *ast.Identifier:
		return []string{p.Name}
	case *ast.AssignmentExpression:
		return bindingNames(p.Target)
	case *ast.RestElement:
		return bindingNames(p.Argument)
	case *ast.ArrayLiteral:
		var names []string
		for _, el := range p.Elements {
			if el == nil {
				continue
			}
			names = append(names, bindingNames(el)...)
		}
		return names
	case *ast.ObjectLiteral:
		var names []string
		for _, prop := range p.Properties {
			names = append(names, bindingNames(prop.Value)...)
		}
		return names
	}
	return nil
}

// ---- iteration helpers ----

// iterableValues materializes an array-like or string value's elements.
// Full Symbol.iterator protocol support belongs to internal/builtins;
// this covers the two iterables the core itself produces (Array objects,
// strings split into code points).
func iterableValues(v value.Value) []value.Value {
	if v.IsString() {
		s := v.AsStringUnchecked()
		out := make([]value.Value, 0, len(s))
		for _, r := range s {
			out = append(out, value.String(string(r)))
		}
		return out
	}
	obj, ok := asObj(v)
	if !ok {
		return nil
	}
	if obj.ArrayFastPath {
		n := obj.Length()
		out := make([]value.Value, 0, n)
		for idx := 0; idx < n; idx++ {
			ev, _ := obj.GetIndex(idx)
			out = append(out, ev)
		}
		return out
	}
	// Array-like fallback (Arguments objects, plain objects used as
	// iterables before Symbol.iterator support lands in internal/builtins):
	// read a numeric "length" property and the matching indexed keys.
	lv, err := obj.Get(nil, "length", v)
	if err != nil {
		return nil
	}
	n := int(lv.ToNumber())
	out := make([]value.Value, 0, n)
	for idx := 0; idx < n; idx++ {
		ev, _ := obj.Get(nil, indexKeyString(idx), v)
		out = append(out, ev)
	}
	return out
}

func indexKeyString(idx int) string {
	return value.Number(float64(idx)).ToString()
}

// enumerableKeys implements for-in's key enumeration: own enumerable
// string keys only (the core's object model has no inherited-enumerable
// tracking beyond own keys, matching spec §4.2's own-properties focus).
func enumerableKeys(v value.Value) []string {
	obj, ok := asObj(v)
	if !ok {
		return nil
	}
	var keys []string
	for _, k := range obj.OwnPropertyKeys() {
		if attrs, ok := obj.OwnAttrs(k); ok && attrs.Has(object.Enumerable) {
			keys = append(keys, k)
		}
	}
	return keys
}
