package parser

import (
	"testing"

	"github.com/solarbrowser/quanta/internal/ast"
)

func parseOK(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := New(src)
	prog := p.ParseProgram()
	if len(p.Errors()) != 0 {
		t.Fatalf("unexpected parse errors for %q: %v", src, p.Errors())
	}
	return prog
}

func TestParseVariableDeclaration(t *testing.T) {
	prog := parseOK(t, "let x = 1 + 2;")
	if len(prog.Body) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Body))
	}
	decl, ok := prog.Body[0].(*ast.VariableDeclaration)
	if !ok {
		t.Fatalf("expected VariableDeclaration, got %T", prog.Body[0])
	}
	if decl.Kind != ast.DeclLet {
		t.Errorf("expected let, got %v", decl.Kind)
	}
	bin, ok := decl.Declarations[0].Init.(*ast.BinaryExpression)
	if !ok || bin.Operator != "+" {
		t.Errorf("expected 1+2 binary expression, got %#v", decl.Declarations[0].Init)
	}
}

func TestParseArrowFunction(t *testing.T) {
	prog := parseOK(t, "let g = x => x + 1;")
	decl := prog.Body[0].(*ast.VariableDeclaration)
	fn, ok := decl.Declarations[0].Init.(*ast.FunctionLiteral)
	if !ok || !fn.IsArrow {
		t.Fatalf("expected arrow function, got %#v", decl.Declarations[0].Init)
	}
	if len(fn.Params) != 1 {
		t.Fatalf("expected 1 param, got %d", len(fn.Params))
	}
	if fn.ExprBody == nil {
		t.Error("expected concise arrow body")
	}
}

func TestParseCountedForLoop(t *testing.T) {
	prog := parseOK(t, "let x = 0; for (let i = 0; i < 32; i++) { x = x + 1; }")
	forStmt, ok := prog.Body[1].(*ast.ForStatement)
	if !ok {
		t.Fatalf("expected ForStatement, got %T", prog.Body[1])
	}
	if forStmt.Test == nil || forStmt.Update == nil {
		t.Error("expected test and update expressions")
	}
}

func TestParseTryFinally(t *testing.T) {
	prog := parseOK(t, "function t(){ try { return 1 } finally { return 2 } }")
	fd := prog.Body[0].(*ast.FunctionDeclaration)
	tryStmt := fd.Function.Body.Body[0].(*ast.TryStatement)
	if tryStmt.Finally == nil {
		t.Fatal("expected finally block")
	}
}

func TestParseGeneratorFunction(t *testing.T) {
	prog := parseOK(t, "function* g(){ yield 1; yield 2; return 3 }")
	fd := prog.Body[0].(*ast.FunctionDeclaration)
	if !fd.Function.IsGen {
		t.Error("expected generator flag set")
	}
}

func TestParseAsyncAwait(t *testing.T) {
	prog := parseOK(t, "async function f(){ return 1 + await Promise.resolve(2); }")
	fd := prog.Body[0].(*ast.FunctionDeclaration)
	if !fd.Function.IsAsync {
		t.Error("expected async flag set")
	}
}

func TestParseObjectAndArrayLiterals(t *testing.T) {
	prog := parseOK(t, `let o = {a: 1, b: 2, ...rest}; let a = [1,2,3];`)
	decl := prog.Body[0].(*ast.VariableDeclaration)
	obj := decl.Declarations[0].Init.(*ast.ObjectLiteral)
	if len(obj.Properties) != 3 {
		t.Fatalf("expected 3 properties, got %d", len(obj.Properties))
	}
	if obj.Properties[2].Kind != ast.PropertySpread {
		t.Error("expected trailing spread property")
	}
}

func TestParseTemplateLiteral(t *testing.T) {
	prog := parseOK(t, "let s = `hi ${name}!`;")
	decl := prog.Body[0].(*ast.VariableDeclaration)
	tmpl := decl.Declarations[0].Init.(*ast.TemplateLiteral)
	if len(tmpl.Quasis) != 2 || len(tmpl.Expressions) != 1 {
		t.Fatalf("unexpected template shape: %#v", tmpl)
	}
}

func TestParseClassWithExtends(t *testing.T) {
	prog := parseOK(t, "class Dog extends Animal { speak() { return 1; } }")
	cd := prog.Body[0].(*ast.ClassDeclaration)
	if cd.Class.SuperClass == nil {
		t.Error("expected superclass")
	}
	if len(cd.Class.Members) != 1 {
		t.Fatalf("expected 1 member, got %d", len(cd.Class.Members))
	}
}
