package lexer

import "testing"

func collect(input string) []Token {
	l := New(input)
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == EOF {
			break
		}
	}
	return toks
}

func TestBasicTokens(t *testing.T) {
	toks := collect("let x = 1 + 2;")
	want := []TokenType{LET, IDENT, ASSIGN, NUMBER, PLUS, NUMBER, SEMICOLON, EOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d (%v)", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Type, w)
		}
	}
}

func TestStrictEqualityAndArrow(t *testing.T) {
	toks := collect("a === b => c !== d")
	want := []TokenType{IDENT, EQ_STRICT, IDENT, ARROW, IDENT, NEQ_STRICT, IDENT, EOF}
	for i, w := range want {
		if toks[i].Type != w {
			t.Fatalf("token %d: got %v, want %v (%v)", i, toks[i].Type, w, toks)
		}
	}
}

func TestTemplateLiteral(t *testing.T) {
	toks := collect("`hello ${name}!`")
	if toks[0].Type != TEMPLATE_STRING {
		t.Fatalf("expected TEMPLATE_STRING, got %v", toks[0].Type)
	}
	if toks[0].Literal != "hello ${name}!" {
		t.Errorf("unexpected template literal text: %q", toks[0].Literal)
	}
}

func TestRegexAfterAssign(t *testing.T) {
	toks := collect("x = /ab+c/gi")
	if toks[2].Type != REGEX {
		t.Fatalf("expected REGEX, got %v (%v)", toks[2].Type, toks)
	}
}

func TestDivisionAfterIdentifier(t *testing.T) {
	toks := collect("a / b")
	if toks[1].Type != SLASH {
		t.Fatalf("expected SLASH (division), got %v", toks[1].Type)
	}
}

func TestKeywordClassification(t *testing.T) {
	toks := collect("const let var function")
	want := []TokenType{CONST, LET, VAR, FUNCTION, EOF}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Type, w)
		}
	}
}

func TestNewlineBeforeFlagsASI(t *testing.T) {
	toks := collect("a\nb")
	if toks[1].NewlineBefore != true {
		t.Error("expected NewlineBefore on token after line break")
	}
}

func TestHexAndBigInt(t *testing.T) {
	toks := collect("0x2A 10n")
	if toks[0].Type != NUMBER || toks[0].Literal != "0x2A" {
		t.Errorf("unexpected hex token: %+v", toks[0])
	}
	if toks[1].Type != BIGINT || toks[1].Literal != "10" {
		t.Errorf("unexpected bigint token: %+v", toks[1])
	}
}
