package bytecode

import (
	"math"

	"github.com/solarbrowser/quanta/internal/environment"
	"github.com/solarbrowser/quanta/internal/errors"
	"github.com/solarbrowser/quanta/internal/object"
	"github.com/solarbrowser/quanta/internal/value"
)

func numberConst(n float64) value.Value    { return value.Number(n) }
func stringConst(s string) value.Value     { return value.String(s) }
func boolConst(b bool) value.Value         { return value.Boolean(b) }
func nullConst() value.Value               { return value.Null() }
func undefinedConst() value.Value          { return value.Undefined() }

// Caller is the minimum the VM needs from the host to execute OpCall:
// resolving a callee Value to a script function and invoking it with the
// VM's own value arguments. internal/interpreter supplies this via
// function.Call, kept as an interface here so bytecode never imports
// internal/interpreter (which would be a cycle back through
// internal/function -> internal/interpreter -> internal/bytecode).
type Caller interface {
	Call(callee value.Value, args []value.Value) (value.Value, error)
}

// VM executes one Chunk against an environment, mirroring the teacher's
// stack-machine vm.go shape: a value stack, an instruction pointer, and a
// switch-on-opcode dispatch loop — generalized from DWScript's typed stack
// slots to value.Value and from the teacher's global/local/upvalue slot
// indices to plain environment.Environment lookups, since the compiler
// only ever targets a single already-hoisted scope (see compiler.go's
// refusal to lower closures).
type VM struct {
	stack []value.Value
	env   *environment.Environment
	this  value.Value
	caller Caller
}

// New creates a VM that reads/writes env's bindings and resolves member
// access against env's `this` binding semantics are not needed for: the
// compiled subset never emits `this`.
func New(env *environment.Environment, caller Caller) *VM {
	return &VM{env: env, caller: caller}
}

func (vm *VM) push(v value.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() value.Value {
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack = vm.stack[:n]
	return v
}

func (vm *VM) peek() value.Value { return vm.stack[len(vm.stack)-1] }

// Run executes chunk to completion, returning the value of its first
// OpReturn (or Undefined if the chunk runs off the end without one).
func (vm *VM) Run(chunk *Chunk) (value.Value, error) {
	ip := 0
	for ip < len(chunk.Code) {
		in := chunk.Code[ip]
		switch in.Op {
		case OpNop:
			ip++

		case OpHalt:
			return value.Undefined(), nil

		case OpLoadConst:
			vm.push(chunk.Constants[in.Operand])
			ip++

		case OpLoadVar:
			name := chunk.Names[in.Operand]
			v, found, err := vm.env.GetBinding(name)
			if err != nil {
				return value.Undefined(), err
			}
			if !found {
				return value.Undefined(), errors.New(errors.KindReference, "%s is not defined", name)
			}
			vm.push(v)
			ip++

		case OpStoreVar:
			v := vm.pop()
			name := chunk.Names[in.Operand]
			if err := vm.env.SetBinding(name, v); err != nil {
				return value.Undefined(), err
			}
			vm.push(v)
			ip++

		case OpLoadProp:
			obj := vm.pop()
			v, err := vm.getProp(obj, chunk.Names[in.Operand])
			if err != nil {
				return value.Undefined(), err
			}
			vm.push(v)
			ip++

		case OpStoreProp:
			v := vm.pop()
			obj := vm.pop()
			if err := vm.setProp(obj, chunk.Names[in.Operand], v); err != nil {
				return value.Undefined(), err
			}
			vm.push(v)
			ip++

		case OpDup:
			vm.push(vm.peek())
			ip++

		case OpPop:
			vm.pop()
			ip++

		case OpAdd, OpFastAddNum:
			r, l := vm.pop(), vm.pop()
			if in.Op == OpFastAddNum || (l.IsNumber() && r.IsNumber()) {
				vm.push(value.Number(l.ToNumber() + r.ToNumber()))
			} else if l.IsString() || r.IsString() {
				vm.push(value.String(l.ToString() + r.ToString()))
			} else {
				vm.push(value.Number(l.ToNumber() + r.ToNumber()))
			}
			ip++

		case OpSub:
			r, l := vm.pop(), vm.pop()
			vm.push(value.Number(l.ToNumber() - r.ToNumber()))
			ip++
		case OpMul:
			r, l := vm.pop(), vm.pop()
			vm.push(value.Number(l.ToNumber() * r.ToNumber()))
			ip++
		case OpDiv:
			r, l := vm.pop(), vm.pop()
			vm.push(value.Number(l.ToNumber() / r.ToNumber()))
			ip++
		case OpMod:
			r, l := vm.pop(), vm.pop()
			vm.push(value.Number(math.Mod(l.ToNumber(), r.ToNumber())))
			ip++
		case OpPow:
			r, l := vm.pop(), vm.pop()
			vm.push(value.Number(math.Pow(l.ToNumber(), r.ToNumber())))
			ip++

		case OpBitAnd:
			r, l := vm.pop(), vm.pop()
			vm.push(value.Number(float64(l.ToInt32() & r.ToInt32())))
			ip++
		case OpBitOr:
			r, l := vm.pop(), vm.pop()
			vm.push(value.Number(float64(l.ToInt32() | r.ToInt32())))
			ip++
		case OpBitXor:
			r, l := vm.pop(), vm.pop()
			vm.push(value.Number(float64(l.ToInt32() ^ r.ToInt32())))
			ip++
		case OpShl:
			r, l := vm.pop(), vm.pop()
			vm.push(value.Number(float64(l.ToInt32() << (r.ToUint32() & 31))))
			ip++
		case OpShr:
			r, l := vm.pop(), vm.pop()
			vm.push(value.Number(float64(l.ToInt32() >> (r.ToUint32() & 31))))
			ip++
		case OpUShr:
			r, l := vm.pop(), vm.pop()
			vm.push(value.Number(float64(l.ToUint32() >> (r.ToUint32() & 31))))
			ip++

		case OpEq:
			r, l := vm.pop(), vm.pop()
			vm.push(value.Boolean(value.LooseEquals(l, r)))
			ip++
		case OpNeq:
			r, l := vm.pop(), vm.pop()
			vm.push(value.Boolean(!value.LooseEquals(l, r)))
			ip++
		case OpStrictEq:
			r, l := vm.pop(), vm.pop()
			vm.push(value.Boolean(value.StrictEquals(l, r)))
			ip++
		case OpStrictNeq:
			r, l := vm.pop(), vm.pop()
			vm.push(value.Boolean(!value.StrictEquals(l, r)))
			ip++
		case OpLt:
			r, l := vm.pop(), vm.pop()
			vm.push(compareLess(l, r))
			ip++
		case OpLe:
			r, l := vm.pop(), vm.pop()
			vm.push(value.Boolean(!compareLess(r, l).ToBoolean() && !bothNaN(l, r)))
			ip++
		case OpGt:
			r, l := vm.pop(), vm.pop()
			vm.push(compareLess(r, l))
			ip++
		case OpGe:
			r, l := vm.pop(), vm.pop()
			vm.push(value.Boolean(!compareLess(l, r).ToBoolean() && !bothNaN(l, r)))
			ip++

		case OpNeg:
			v := vm.pop()
			vm.push(value.Number(-v.ToNumber()))
			ip++
		case OpNot:
			v := vm.pop()
			vm.push(value.Boolean(!v.ToBoolean()))
			ip++
		case OpBitNot:
			v := vm.pop()
			vm.push(value.Number(float64(^v.ToInt32())))
			ip++

		case OpJump:
			ip = in.Operand
		case OpJumpIfFalse:
			if !vm.pop().ToBoolean() {
				ip = in.Operand
			} else {
				ip++
			}
		case OpJumpIfTrue:
			if vm.pop().ToBoolean() {
				ip = in.Operand
			} else {
				ip++
			}

		case OpCall:
			argc := in.Operand
			callee := vm.pop()
			args := make([]value.Value, argc)
			for i := argc - 1; i >= 0; i-- {
				args[i] = vm.pop()
			}
			if vm.caller == nil {
				return value.Undefined(), errors.New(errors.KindInternal, "bytecode: VM has no Caller wired for OpCall")
			}
			rv, err := vm.caller.Call(callee, args)
			if err != nil {
				return value.Undefined(), err
			}
			vm.push(rv)
			ip++

		case OpReturn:
			return vm.pop(), nil

		default:
			return value.Undefined(), errors.New(errors.KindInternal, "bytecode: unknown opcode %d", byte(in.Op))
		}
	}
	return value.Undefined(), nil
}

func bothNaN(a, b value.Value) bool {
	return math.IsNaN(a.ToNumber()) || math.IsNaN(b.ToNumber())
}

func compareLess(l, r value.Value) value.Value {
	if l.IsString() && r.IsString() {
		return value.Boolean(l.AsStringUnchecked() < r.AsStringUnchecked())
	}
	ln, rn := l.ToNumber(), r.ToNumber()
	if math.IsNaN(ln) || math.IsNaN(rn) {
		return value.Boolean(false)
	}
	return value.Boolean(ln < rn)
}

func (vm *VM) getProp(v value.Value, name string) (value.Value, error) {
	if !v.IsObject() {
		return value.Undefined(), errors.New(errors.KindType, "Cannot read properties of %s (reading %q)", v.TypeOf(), name)
	}
	o, ok := v.AsObject().(*object.Object)
	if !ok {
		return value.Undefined(), errors.New(errors.KindType, "property access on foreign object reference")
	}
	return o.Get(nil, name, v)
}

func (vm *VM) setProp(v value.Value, name string, newVal value.Value) error {
	if !v.IsObject() {
		return errors.New(errors.KindType, "Cannot set properties of %s (setting %q)", v.TypeOf(), name)
	}
	o, ok := v.AsObject().(*object.Object)
	if !ok {
		return errors.New(errors.KindType, "property assignment on foreign object reference")
	}
	return o.Set(nil, name, newVal, v, false)
}
