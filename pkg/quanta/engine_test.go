package quanta

import (
	"bytes"
	"testing"

	"github.com/solarbrowser/quanta/internal/profiler"
)

func TestEvalArithmetic(t *testing.T) {
	e := New()
	v, err := e.Eval("1 + 2 * 3;")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if v.ToNumber() != 7 {
		t.Errorf("expected 7, got %v", v.ToNumber())
	}
}

// TestGlobalBuiltinsReachableByBareIdentifier exercises the
// Interpreter.BindGlobals wiring: internal/builtins.Register's Math/
// parseInt/isNaN must be callable as bare script identifiers, not just
// reachable through an explicit global-object reference.
func TestGlobalBuiltinsReachableByBareIdentifier(t *testing.T) {
	e := New()
	cases := map[string]float64{
		"parseInt(\"42px\");":  42,
		"Math.PI;":             3.141592653589793,
		"Math.max(1, 2, 3);":   3,
		"parseFloat(\"3.5\");": 3.5,
	}
	for src, want := range cases {
		v, err := e.Eval(src)
		if err != nil {
			t.Fatalf("Eval(%q): %v", src, err)
		}
		if v.ToNumber() != want {
			t.Errorf("Eval(%q) = %v, want %v", src, v.ToNumber(), want)
		}
	}
}

func TestEvalParseErrorReported(t *testing.T) {
	e := New()
	_, err := e.Eval("let = ;")
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
}

func TestRunReusesParsedProgram(t *testing.T) {
	e := New()
	prog, err := Parse("let x = 1; x;")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for i := 0; i < 3; i++ {
		v, err := e.Run(prog)
		if err != nil {
			t.Fatalf("Run iteration %d: %v", i, err)
		}
		if v.ToNumber() != 1 {
			t.Errorf("iteration %d: expected 1, got %v", i, v.ToNumber())
		}
	}
}

func TestWithOutputIsHandedBackUnwritten(t *testing.T) {
	var buf bytes.Buffer
	e := New(WithOutput(&buf))
	if e.Stdout() != &buf {
		t.Fatal("expected Stdout() to return the buffer passed to WithOutput")
	}
	if _, err := e.Eval("1;"); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected the engine itself to never write to stdout, got %q", buf.String())
	}
}

func TestWithJITThresholdsAppliesToProfiler(t *testing.T) {
	e := New(WithJITThresholds(1, 2, 3, 0.5))
	if _, err := e.Eval("let x = 1; let y = x + x; let z = x + x;"); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	spots := e.Profiler().Snapshot()
	if len(spots) == 0 {
		t.Fatal("expected the profiler to have recorded the x + x nodes")
	}
	for _, s := range spots {
		if s.Tier < profiler.TierBytecode {
			t.Errorf("expected bytecode threshold 1 to promote %d:%d after %d hit(s), got tier %v", s.Line, s.Column, s.Count, s.Tier)
		}
	}
}
