//go:build amd64

package jit

import (
	"testing"

	"github.com/solarbrowser/quanta/internal/ast"
)

func num(v float64) *ast.NumberLiteral { return &ast.NumberLiteral{Value: v} }

// TestCompileBinaryArithmetic exercises the literal-literal row of spec
// §4.10's pattern table end to end: emit native code for a binary
// expression, run it, and check the result against plain Go arithmetic —
// the same "compile, execute, compare" shape the teacher uses to verify
// its own codegen, just without a disassembler-snapshot step since the
// emitted bytes vary with operand encoding from case to case.
func TestCompileBinaryArithmetic(t *testing.T) {
	cases := []struct {
		op   string
		a, b float64
		want float64
	}{
		{"+", 2, 3, 5},
		{"-", 10, 4, 6},
		{"*", 6, 7, 42},
		{"/", 9, 2, 4.5},
	}
	for _, c := range cases {
		t.Run(c.op, func(t *testing.T) {
			n := &ast.BinaryExpression{Operator: c.op, Left: num(c.a), Right: num(c.b)}
			entry, err := CompileBinary(n)
			if err != nil {
				t.Fatalf("CompileBinary(%q): %v", c.op, err)
			}
			defer entry.Free()
			if entry.Arity != 0 {
				t.Fatalf("expected arity 0 for two literal operands, got %d", entry.Arity)
			}
			if got := entry.CallNumber(); got != c.want {
				t.Errorf("%v %s %v = %v, want %v", c.a, c.op, c.b, got, c.want)
			}
		})
	}
}

func TestCompileBinaryComparison(t *testing.T) {
	n := &ast.BinaryExpression{Operator: "<", Left: num(1), Right: num(2)}
	entry, err := CompileBinary(n)
	if err != nil {
		t.Fatalf("CompileBinary: %v", err)
	}
	defer entry.Free()
	if !entry.CallBool() {
		t.Error("expected 1 < 2 to be true")
	}
}

func TestCompileBinaryRejectsCall(t *testing.T) {
	n := &ast.BinaryExpression{
		Operator: "+",
		Left:     num(1),
		Right:    &ast.CallExpression{Callee: &ast.Identifier{Name: "f"}},
	}
	if _, err := CompileBinary(n); err == nil {
		t.Fatal("expected ErrUnsupported for a call-expression operand, got nil")
	}
}
