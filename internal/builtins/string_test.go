package builtins

import (
	"testing"

	"github.com/solarbrowser/quanta/internal/interpreter"
	"github.com/solarbrowser/quanta/internal/parser"
)

// evalOK parses and runs src against a fresh interpreter with every
// built-in registered, the same wiring pkg/quanta.Engine.New performs
// (internal/builtins cannot import pkg/quanta without a cycle, so this
// test package reproduces just the Register+BindGlobals step directly).
func evalOK(t *testing.T, src string) string {
	t.Helper()
	i := interpreter.New(2048, "<test>")
	i.BindGlobals(Register(i))

	p := parser.New(src)
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) != 0 {
		t.Fatalf("unexpected parse errors for %q: %v", src, errs)
	}
	v, err := i.RunProgram(prog)
	if err != nil {
		t.Fatalf("RunProgram(%q): %v", src, err)
	}
	return v.ToString()
}

func TestLocaleCompareOrdersLexically(t *testing.T) {
	if got := evalOK(t, `"a".localeCompare("b");`); got != "-1" {
		t.Errorf(`"a".localeCompare("b") = %s, want -1`, got)
	}
	if got := evalOK(t, `"b".localeCompare("a");`); got != "1" {
		t.Errorf(`"b".localeCompare("a") = %s, want 1`, got)
	}
	if got := evalOK(t, `"a".localeCompare("a");`); got != "0" {
		t.Errorf(`"a".localeCompare("a") = %s, want 0`, got)
	}
}

func TestNormalizeDecomposesAndRecomposes(t *testing.T) {
	// U+00E9 (LATIN SMALL LETTER E WITH ACUTE) decomposes under NFD into
	// "e" + COMBINING ACUTE ACCENT (U+0301) -- two runes instead of one.
	if got := evalOK(t, `"é".normalize("NFD").length;`); got != "2" {
		t.Errorf(`normalize("NFD") length = %s, want 2`, got)
	}
	if got := evalOK(t, `"é".normalize("NFD").normalize("NFC") === "é";`); got != "true" {
		t.Errorf(`round-tripping NFD -> NFC should recover the original string, got %s`, got)
	}
}

func TestNormalizeRejectsUnknownForm(t *testing.T) {
	i := interpreter.New(2048, "<test>")
	i.BindGlobals(Register(i))
	p := parser.New(`"x".normalize("bogus");`)
	prog := p.ParseProgram()
	if _, err := i.RunProgram(prog); err == nil {
		t.Fatal("expected an error for an unrecognized normalization form")
	}
}
