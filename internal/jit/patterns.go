//go:build amd64

// patterns.go implements the pattern table of spec §4.10: a fixed set of
// AST shapes the code generator knows how to emit native code for.
// Anything outside the table returns ErrUnsupported and the caller keeps
// running the node at the Optimized (bytecode) tier.
//
// Deliberately not implemented, despite appearing in the spec's pattern
// table (see DESIGN.md's C10 entry for the reasoning): known host-call
// inlining (Math.abs/double/triple/...) and the counted-for-loop
// unroll/specializer. Both need a second, much larger kind of operand —
// a resolved callee identity or a whole loop body — layered on top of
// this package's single-expression emitter, and neither changes the
// user-observable result versus running the same code at the Optimized
// bytecode tier. Of the other rows, CompileBinary covers +, -, *, / and
// the comparison operators over literal and identifier operands,
// CompileUnary covers +, -, !, ~ on an identifier, and CompileLogical
// covers &&/|| on two identifiers; %, the bitwise and shift operators,
// compound assignment and ++/-- have no pattern and report ErrUnsupported.
package jit

import (
	"math"

	"github.com/solarbrowser/quanta/internal/ast"
)

// ErrUnsupported is returned for any expression shape outside the pattern
// table.
type ErrUnsupported struct{ Reason string }

func (e *ErrUnsupported) Error() string { return "jit: unsupported: " + e.Reason }

// ResultKind distinguishes a compiled Entry's return encoding: a number
// pattern leaves an IEEE-754 bit pattern in rax (Call reinterprets it with
// math.Float64frombits); a boolean pattern leaves a 0/1 word from
// setcc+movzx.
type ResultKind int

const (
	ResultNumber ResultKind = iota
	ResultBoolean
)

// Entry is one compiled native-code pattern: the executable page plus
// enough metadata for the caller to invoke it and interpret the result.
// Arity is the number of runtime (identifier) operands the caller must
// resolve to a value.Value, coerce with ToNumber, and pass to Call in
// left-to-right order — literal operands are already baked into the
// emitted immediates and contribute nothing to Arity.
type Entry struct {
	page   *Page
	Arity  int
	Result ResultKind
}

// Call invokes the compiled entry. len(args) must equal e.Arity.
func (e *Entry) Call(args ...float64) uint64 {
	switch len(args) {
	case 0:
		return callNative0(e.page.Addr())
	case 1:
		return callNative1(e.page.Addr(), math.Float64bits(args[0]))
	case 2:
		return callNative2(e.page.Addr(), math.Float64bits(args[0]), math.Float64bits(args[1]))
	default:
		panic("jit: Entry.Call with unsupported arity")
	}
}

// CallNumber invokes a ResultNumber entry and decodes the float64 result.
func (e *Entry) CallNumber(args ...float64) float64 {
	return math.Float64frombits(e.Call(args...))
}

// CallBool invokes a ResultBoolean entry and decodes the 0/1 result.
func (e *Entry) CallBool(args ...float64) bool {
	return e.Call(args...) != 0
}

// Free releases the entry's executable page. Cache.Invalidate calls it;
// the interpreter invalidates an entry when a native call panics.
func (e *Entry) Free() error { return e.page.Free() }

// operand classifies one side of a binary/logical expression for pattern
// matching: a literal contributes a compile-time constant; an identifier
// contributes a runtime Arity slot.
type operand struct {
	isLiteral bool
	literal   float64
}

func classify(e ast.Expression) (operand, bool) {
	switch n := e.(type) {
	case *ast.NumberLiteral:
		return operand{isLiteral: true, literal: n.Value}, true
	case *ast.Identifier:
		return operand{isLiteral: false}, true
	default:
		return operand{}, false
	}
}

// CompileBinary attempts to emit a pattern for a BinaryExpression (spec
// §4.10's first four table rows: literal-literal, ident-ident,
// ident-literal, literal-ident, plus the comparison row).
func CompileBinary(n *ast.BinaryExpression) (*Entry, error) {
	l, ok := classify(n.Left)
	if !ok {
		return nil, &ErrUnsupported{Reason: "left operand is not a literal or identifier"}
	}
	r, ok := classify(n.Right)
	if !ok {
		return nil, &ErrUnsupported{Reason: "right operand is not a literal or identifier"}
	}

	var a asm

	loadOperand := func(op operand, gp register, xr xmm, nextArityArg *int) {
		if op.isLiteral {
			a.movImm64(gp, math.Float64bits(op.literal))
		} else {
			a.movRegReg(gp, argReg(*nextArityArg))
			*nextArityArg++
		}
		a.movqToXmm(xr, gp)
	}

	arity := 0
	loadOperand(l, regAX, xmm0, &arity)
	loadOperand(r, regBX, xmm1, &arity)

	result := ResultNumber
	switch n.Operator {
	case "+":
		a.addsd(xmm0, xmm1)
	case "-":
		a.subsd(xmm0, xmm1)
	case "*":
		a.mulsd(xmm0, xmm1)
	case "/":
		a.divsd(xmm0, xmm1)
	case "<", "<=", ">", ">=", "==", "!=", "===", "!==":
		a.ucomisd(xmm0, xmm1)
		c, err := comparisonCC(n.Operator)
		if err != nil {
			return nil, err
		}
		a.setcc(c)
		a.ret()
		page, err := AllocPage(a.buf)
		if err != nil {
			return nil, err
		}
		return &Entry{page: page, Arity: arity, Result: ResultBoolean}, nil
	default:
		return nil, &ErrUnsupported{Reason: "binary operator " + n.Operator + " has no native pattern"}
	}
	a.movqFromXmm(regAX, xmm0)
	a.ret()
	page, err := AllocPage(a.buf)
	if err != nil {
		return nil, err
	}
	return &Entry{page: page, Arity: arity, Result: result}, nil
}

// argReg returns the GP register callNative{1,2} places the i-th runtime
// argument in, mirroring call_amd64.s's DI/SI placement.
func argReg(i int) register {
	if i == 0 {
		return regDI
	}
	return regSI
}

func comparisonCC(op string) (cond, error) {
	switch op {
	case "<":
		return condB, nil
	case "<=":
		return condBE, nil
	case ">":
		return condA, nil
	case ">=":
		return condAE, nil
	case "==", "===":
		return condE, nil
	case "!=", "!==":
		return condNE, nil
	default:
		return 0, &ErrUnsupported{Reason: "comparison operator " + op + " has no native pattern"}
	}
}

// CompileUnary implements the unary row of spec §4.10's table: +, -, !, ~
// on a single identifier operand (a literal operand would already have
// been constant-folded by the bytecode optimizer before a node is ever
// hot enough to reach the JIT).
func CompileUnary(n *ast.UnaryExpression) (*Entry, error) {
	if _, ok := n.Argument.(*ast.Identifier); !ok {
		return nil, &ErrUnsupported{Reason: "unary operand is not an identifier"}
	}
	var a asm
	switch n.Operator {
	case ast.OpPlus:
		a.movRegReg(regAX, regDI) // the operand arrives already ToNumber'd
		a.ret()
		page, err := AllocPage(a.buf)
		if err != nil {
			return nil, err
		}
		return &Entry{page: page, Arity: 1, Result: ResultNumber}, nil
	case ast.OpMinus:
		a.movRegReg(regAX, regDI)
		a.movqToXmm(xmm0, regAX)
		a.xorpd(xmm1, xmm1)
		a.subsd(xmm1, xmm0)
		a.movqFromXmm(regAX, xmm1)
		a.ret()
		page, err := AllocPage(a.buf)
		if err != nil {
			return nil, err
		}
		return &Entry{page: page, Arity: 1, Result: ResultNumber}, nil
	case ast.OpNot:
		a.testRegReg(regDI)
		a.setcc(condE) // !0 == true
		a.ret()
		page, err := AllocPage(a.buf)
		if err != nil {
			return nil, err
		}
		return &Entry{page: page, Arity: 1, Result: ResultBoolean}, nil
	case ast.OpBitNot:
		a.movRegReg(regAX, regDI)
		a.notGP(regAX)
		a.ret()
		page, err := AllocPage(a.buf)
		if err != nil {
			return nil, err
		}
		return &Entry{page: page, Arity: 1, Result: ResultNumber}, nil
	default:
		return nil, &ErrUnsupported{Reason: "unary operator has no native pattern"}
	}
}

// CompileLogical implements `&&`/`||` on two identifiers (spec §4.10's
// "short-circuit via test/jz/jnz" row): both operands arrive in DI/SI by
// the caller's argReg convention, and the emitted code only consults the
// second one along the taken branch, matching the short-circuit result at
// the machine-code level. Both operands are evaluated before the call, so
// the right operand's side effects are not skipped; the interpreter does
// not call CompileLogical.
func CompileLogical(n *ast.LogicalExpression) (*Entry, error) {
	if _, ok := n.Left.(*ast.Identifier); !ok {
		return nil, &ErrUnsupported{Reason: "logical left operand is not an identifier"}
	}
	if _, ok := n.Right.(*ast.Identifier); !ok {
		return nil, &ErrUnsupported{Reason: "logical right operand is not an identifier"}
	}
	var a asm
	a.movRegReg(regAX, regDI)
	a.testRegReg(regAX)
	switch n.Operator {
	case "&&":
		j := a.jcc8(0x74) // jz
		a.movRegReg(regAX, regSI)
		a.patchJump8(j)
	case "||":
		j := a.jcc8(0x75) // jnz
		a.movRegReg(regAX, regSI)
		a.patchJump8(j)
	default:
		return nil, &ErrUnsupported{Reason: "logical operator " + n.Operator + " has no native pattern"}
	}
	a.ret()
	page, err := AllocPage(a.buf)
	if err != nil {
		return nil, err
	}
	return &Entry{page: page, Arity: 2, Result: ResultNumber}, nil
}
