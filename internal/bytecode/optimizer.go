package bytecode

import "github.com/solarbrowser/quanta/internal/value"

// Optimize runs the three passes spec §4.9 names over chunk in place:
// constant folding, a peephole pass, and dead-code elimination. Grounded
// on the teacher's optimizer.go (same three-pass shape and ordering —
// fold before peephole so peephole sees the folded constants, DCE last
// so it sees the final instruction count) but rebuilt against this
// package's much smaller opcode set.
func Optimize(c *Chunk) {
	foldConstants(c)
	peephole(c)
	eliminateDeadCode(c)
}

// foldConstants collapses `LOAD_CONST a; LOAD_CONST b; <binop>` into a
// single LOAD_CONST of the computed result. ADD/SUB/MUL/DIV and the four
// relational opcodes fold only when both constants are numbers (a string
// `+` stays a plain OpAdd); the equality opcodes fold for constants of
// any type. MOD, POW and the bitwise/shift opcodes pass isFoldableBinOp
// but foldBinOp declines them, so they stay unfolded. This is a single
// forward pass: a folded result is not re-examined together with the
// instruction before it.
func foldConstants(c *Chunk) {
	old := c.Code
	out := make([]Instruction, 0, len(old))
	old2new := make(map[int]int, len(old))

	i := 0
	for i < len(old) {
		old2new[i] = len(out)
		in := old[i]
		if in.Op == OpLoadConst && i+2 < len(old) &&
			old[i+1].Op == OpLoadConst && isFoldableBinOp(old[i+2].Op) {
			a := c.Constants[in.Operand]
			b := c.Constants[old[i+1].Operand]
			if folded, ok := foldBinOp(old[i+2].Op, a, b); ok {
				out = append(out, Instruction{Op: OpLoadConst, Operand: c.addConstant(folded)})
				old2new[i+1] = len(out) - 1
				old2new[i+2] = len(out) - 1
				i += 3
				continue
			}
		}
		out = append(out, in)
		i++
	}
	// a jump targeting one-past-the-end has no entry above.
	old2new[len(old)] = len(out)

	for idx := range out {
		switch out[idx].Op {
		case OpJump, OpJumpIfFalse, OpJumpIfTrue:
			if n, ok := old2new[out[idx].Operand]; ok {
				out[idx].Operand = n
			}
		}
	}
	c.Code = out
}

func isFoldableBinOp(op OpCode) bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpPow,
		OpBitAnd, OpBitOr, OpBitXor, OpShl, OpShr, OpUShr,
		OpLt, OpLe, OpGt, OpGe, OpEq, OpNeq, OpStrictEq, OpStrictNeq:
		return true
	default:
		return false
	}
}

func foldBinOp(op OpCode, a, b value.Value) (value.Value, bool) {
	if !a.IsNumber() || !b.IsNumber() {
		if op != OpEq && op != OpNeq && op != OpStrictEq && op != OpStrictNeq {
			return value.Value{}, false
		}
	}
	switch op {
	case OpAdd:
		return value.Number(a.ToNumber() + b.ToNumber()), true
	case OpSub:
		return value.Number(a.ToNumber() - b.ToNumber()), true
	case OpMul:
		return value.Number(a.ToNumber() * b.ToNumber()), true
	case OpDiv:
		return value.Number(a.ToNumber() / b.ToNumber()), true
	case OpLt:
		return value.Boolean(a.ToNumber() < b.ToNumber()), true
	case OpLe:
		return value.Boolean(a.ToNumber() <= b.ToNumber()), true
	case OpGt:
		return value.Boolean(a.ToNumber() > b.ToNumber()), true
	case OpGe:
		return value.Boolean(a.ToNumber() >= b.ToNumber()), true
	case OpStrictEq:
		return value.Boolean(value.StrictEquals(a, b)), true
	case OpStrictNeq:
		return value.Boolean(!value.StrictEquals(a, b)), true
	case OpEq:
		return value.Boolean(value.LooseEquals(a, b)), true
	case OpNeq:
		return value.Boolean(!value.LooseEquals(a, b)), true
	default:
		return value.Value{}, false
	}
}

// peephole fuses a plain OpAdd into OpFastAddNum whenever both producing
// instructions immediately before it are LOAD_CONST of a number from the
// constant pool (a LOAD_VAR operand is never fused) — a narrower, static
// version of the profiler's runtime monomorphic-type check, applied at
// compile time wherever it's provable without feedback.
func peephole(c *Chunk) {
	for i := 2; i < len(c.Code); i++ {
		if c.Code[i].Op != OpAdd {
			continue
		}
		if c.Code[i-1].Op == OpLoadConst && c.Constants[c.Code[i-1].Operand].IsNumber() &&
			c.Code[i-2].Op == OpLoadConst && c.Constants[c.Code[i-2].Operand].IsNumber() {
			c.Code[i].Op = OpFastAddNum
		}
	}
}

// eliminateDeadCode drops any instruction run immediately following an
// unconditional OpJump or OpReturn up to the next instruction any jump
// in the chunk targets — standard basic-block-local DCE, not a full
// control-flow-graph reachability analysis (the compiled subset's
// control flow is simple enough — structured if/while/for only, no
// labeled break/continue — that a single forward scan suffices).
func eliminateDeadCode(c *Chunk) {
	targets := make(map[int]bool)
	for _, in := range c.Code {
		switch in.Op {
		case OpJump, OpJumpIfFalse, OpJumpIfTrue:
			targets[in.Operand] = true
		}
	}
	out := c.Code[:0]
	old2new := make(map[int]int, len(c.Code))
	dead := false
	for i, in := range c.Code {
		if targets[i] {
			dead = false
		}
		if dead {
			continue
		}
		old2new[i] = len(out)
		out = append(out, in)
		if in.Op == OpJump || in.Op == OpReturn || in.Op == OpHalt {
			dead = true
		}
	}
	for i := range out {
		switch out[i].Op {
		case OpJump, OpJumpIfFalse, OpJumpIfTrue:
			if n, ok := old2new[out[i].Operand]; ok {
				out[i].Operand = n
			}
		}
	}
	c.Code = out
}

