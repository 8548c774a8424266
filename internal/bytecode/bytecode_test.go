package bytecode

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/solarbrowser/quanta/internal/parser"
)

// compileOK parses src (a single function body, i.e. no top-level
// declarations the compiler refuses to lower) and compiles+optimizes it,
// failing the test on any parse or compile error.
func compileOK(t *testing.T, src string) *Chunk {
	t.Helper()
	p := parser.New(src)
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) != 0 {
		t.Fatalf("unexpected parse errors for %q: %v", src, errs)
	}
	c, err := Compile(prog.Body)
	if err != nil {
		t.Fatalf("compile %q: %v", src, err)
	}
	Optimize(c)
	return c
}

// TestDisassembly snapshot-tests Chunk.Disassemble's output for a handful
// of representative bodies, the same "record the exact rendering, diff
// against a committed golden file" shape the teacher's fixture_test.go
// uses go-snaps for.
func TestDisassembly(t *testing.T) {
	cases := map[string]string{
		"arithmetic":  "let x = 1 + 2 * 3; x;",
		"comparison":  "let a = 1; let b = 2; a < b;",
		"if_else":     "let x = 1; if (x > 0) { x = x + 1; } else { x = x - 1; }",
		"while_loop":  "let i = 0; while (i < 10) { i = i + 1; }",
		"property":    "let o = x; o.y = o.y + 1;",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			c := compileOK(t, src)
			snaps.MatchSnapshot(t, c.Disassemble())
		})
	}
}

func TestConstantFolding(t *testing.T) {
	c := compileOK(t, "let x = 1 + 2 * 3;")
	for _, in := range c.Code {
		if in.Op == OpAdd || in.Op == OpMul {
			t.Fatalf("expected constant folding to remove arithmetic opcodes, found %v", in.Op)
		}
	}
}

func TestCompileRefusesClosures(t *testing.T) {
	p := parser.New("let f = function() { return 1; };")
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	if _, err := Compile(prog.Body); err == nil {
		t.Fatal("expected ErrUnsupported compiling a function literal, got nil")
	} else if _, ok := err.(*ErrUnsupported); !ok {
		t.Fatalf("expected *ErrUnsupported, got %T: %v", err, err)
	}
}
