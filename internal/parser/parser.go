// Package parser implements a Pratt expression parser plus recursive-descent
// statement parser over internal/lexer's token stream, producing internal/ast
// trees (spec §4.5/§6). Grounded in the teacher's precedence-table /
// prefix-infix parse-function style, rewritten for JS grammar.
package parser

import (
	"fmt"
	"strconv"

	"github.com/solarbrowser/quanta/internal/ast"
	"github.com/solarbrowser/quanta/internal/lexer"
)

// precedence levels, lowest to highest.
const (
	_ int = iota
	lowest
	assignPrec
	condPrec
	nullishPrec
	orPrec
	andPrec
	bitOrPrec
	bitXorPrec
	bitAndPrec
	equalsPrec
	relPrec
	shiftPrec
	sumPrec
	productPrec
	expPrec
	unaryPrec
	callPrec
	memberPrec
)

var precedences = map[lexer.TokenType]int{
	lexer.ASSIGN: assignPrec, lexer.PLUS_ASSIGN: assignPrec, lexer.MINUS_ASSIGN: assignPrec,
	lexer.STAR_ASSIGN: assignPrec, lexer.SLASH_ASSIGN: assignPrec, lexer.PERCENT_ASSIGN: assignPrec,
	lexer.AND_ASSIGN: assignPrec, lexer.OR_ASSIGN: assignPrec, lexer.NULLISH_ASSIGN: assignPrec,
	lexer.QUESTION: condPrec,
	lexer.NULLISH:  nullishPrec,
	lexer.OR_OR:    orPrec,
	lexer.AND_AND:  andPrec,
	lexer.PIPE:     bitOrPrec,
	lexer.CARET:    bitXorPrec,
	lexer.AMP:      bitAndPrec,
	lexer.EQ:       equalsPrec, lexer.NEQ: equalsPrec, lexer.EQ_STRICT: equalsPrec, lexer.NEQ_STRICT: equalsPrec,
	lexer.LT: relPrec, lexer.GT: relPrec, lexer.LE: relPrec, lexer.GE: relPrec,
	lexer.INSTANCEOF: relPrec, lexer.IN: relPrec,
	lexer.SHL: shiftPrec, lexer.SHR: shiftPrec, lexer.USHR: shiftPrec,
	lexer.PLUS: sumPrec, lexer.MINUS: sumPrec,
	lexer.STAR: productPrec, lexer.SLASH: productPrec, lexer.PERCENT: productPrec,
	lexer.STAR_STAR: expPrec,
	lexer.LPAREN:    callPrec,
	lexer.DOT:       memberPrec, lexer.LBRACKET: memberPrec, lexer.QUESTION_DOT: memberPrec,
	lexer.PLUS_PLUS: callPrec, lexer.MINUS_MINUS: callPrec,
}

// Error is a parse failure at a source position.
type Error struct {
	Message string
	Pos     lexer.Position
}

func (e *Error) Error() string { return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message) }

// Parser turns a token stream into an *ast.Program.
type Parser struct {
	l      *lexer.Lexer
	cur    lexer.Token
	peek   lexer.Token
	errors []error
}

// New creates a Parser over source text.
func New(source string) *Parser {
	p := &Parser{l: lexer.New(source)}
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) Errors() []error { return p.errors }

func (p *Parser) errorf(format string, args ...any) {
	p.errors = append(p.errors, &Error{Message: fmt.Sprintf(format, args...), Pos: p.cur.Pos})
}

func (p *Parser) expect(t lexer.TokenType) lexer.Token {
	tok := p.cur
	if tok.Type != t {
		p.errorf("expected token %d, got %d (%q)", t, tok.Type, tok.Literal)
	}
	p.next()
	return tok
}

func (p *Parser) at(t lexer.TokenType) bool  { return p.cur.Type == t }
func (p *Parser) atPeek(t lexer.TokenType) bool { return p.peek.Type == t }

// ParseProgram parses a complete script.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	prog.P = p.cur.Pos
	for !p.at(lexer.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Body = append(prog.Body, stmt)
		}
	}
	return prog
}

func (p *Parser) consumeSemicolon() {
	if p.at(lexer.SEMICOLON) {
		p.next()
	}
	// else: automatic semicolon insertion — accept newline or '}' or EOF silently.
}

// ---- Statements ----

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur.Type {
	case lexer.VAR, lexer.LET, lexer.CONST:
		return p.parseVariableDeclaration()
	case lexer.FUNCTION:
		return p.parseFunctionDeclaration(false)
	case lexer.ASYNC:
		if p.atPeek(lexer.FUNCTION) {
			p.next()
			return p.parseFunctionDeclaration(true)
		}
	case lexer.CLASS:
		return &ast.ClassDeclaration{Base: ast.BaseAt(p.cur.Pos), Class: p.parseClassLiteral()}
	case lexer.LBRACE:
		return p.parseBlockStatement()
	case lexer.IF:
		return p.parseIfStatement()
	case lexer.WHILE:
		return p.parseWhileStatement()
	case lexer.DO:
		return p.parseDoWhileStatement()
	case lexer.FOR:
		return p.parseForStatement()
	case lexer.BREAK:
		return p.parseBreakStatement()
	case lexer.CONTINUE:
		return p.parseContinueStatement()
	case lexer.RETURN:
		return p.parseReturnStatement()
	case lexer.THROW:
		return p.parseThrowStatement()
	case lexer.TRY:
		return p.parseTryStatement()
	case lexer.SWITCH:
		return p.parseSwitchStatement()
	case lexer.SEMICOLON:
		pos := p.cur.Pos
		p.next()
		return &ast.EmptyStatement{Base: ast.BaseAt(pos)}
	case lexer.IMPORT:
		return p.parseImportDeclaration()
	case lexer.EXPORT:
		return p.parseExportDeclaration()
	}
	if p.at(lexer.IDENT) && p.atPeek(lexer.COLON) {
		return p.parseLabeledStatement()
	}
	return p.parseExpressionStatement()
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	pos := p.cur.Pos
	expr := p.parseExpression(lowest)
	p.consumeSemicolon()
	return &ast.ExpressionStatement{Base: ast.BaseAt(pos), Expr: expr}
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	pos := p.cur.Pos
	p.expect(lexer.LBRACE)
	blk := &ast.BlockStatement{Base: ast.BaseAt(pos)}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		if s := p.parseStatement(); s != nil {
			blk.Body = append(blk.Body, s)
		}
	}
	p.expect(lexer.RBRACE)
	return blk
}

func declKind(t lexer.TokenType) ast.DeclarationKind {
	switch t {
	case lexer.LET:
		return ast.DeclLet
	case lexer.CONST:
		return ast.DeclConst
	default:
		return ast.DeclVar
	}
}

func (p *Parser) parseVariableDeclaration() *ast.VariableDeclaration {
	pos := p.cur.Pos
	kind := declKind(p.cur.Type)
	p.next()
	decl := &ast.VariableDeclaration{Base: ast.BaseAt(pos), Kind: kind}
	for {
		target := p.parseBindingTarget()
		var init ast.Expression
		if p.at(lexer.ASSIGN) {
			p.next()
			init = p.parseExpression(assignPrec)
		}
		decl.Declarations = append(decl.Declarations, ast.VariableDeclarator{Target: target, Init: init})
		if !p.at(lexer.COMMA) {
			break
		}
		p.next()
	}
	p.consumeSemicolon()
	return decl
}

// parseBindingTarget parses an identifier or a destructuring pattern,
// represented as nested ObjectLiteral/ArrayLiteral expressions.
func (p *Parser) parseBindingTarget() ast.Expression {
	switch p.cur.Type {
	case lexer.LBRACKET:
		return p.parseArrayLiteral()
	case lexer.LBRACE:
		return p.parseObjectLiteral()
	default:
		return p.parseIdentifier()
	}
}

func (p *Parser) parseIdentifier() *ast.Identifier {
	tok := p.cur
	name := tok.Literal
	if tok.Type != lexer.IDENT {
		name = identLiteralForKeyword(tok.Type, tok.Literal)
	}
	p.next()
	return &ast.Identifier{Base: ast.BaseAt(tok.Pos), Name: name}
}

func identLiteralForKeyword(t lexer.TokenType, lit string) string { return lit }

func (p *Parser) parseFunctionDeclaration(isAsync bool) *ast.FunctionDeclaration {
	fn := p.parseFunctionLiteral(isAsync)
	return &ast.FunctionDeclaration{Base: ast.BaseAt(fn.Pos()), Function: fn}
}

func (p *Parser) parseIfStatement() *ast.IfStatement {
	pos := p.cur.Pos
	p.expect(lexer.IF)
	p.expect(lexer.LPAREN)
	test := p.parseExpression(lowest)
	p.expect(lexer.RPAREN)
	cons := p.parseStatement()
	var alt ast.Statement
	if p.at(lexer.ELSE) {
		p.next()
		alt = p.parseStatement()
	}
	return &ast.IfStatement{Base: ast.BaseAt(pos), Test: test, Consequent: cons, Alternate: alt}
}

func (p *Parser) parseWhileStatement() *ast.WhileStatement {
	pos := p.cur.Pos
	p.expect(lexer.WHILE)
	p.expect(lexer.LPAREN)
	test := p.parseExpression(lowest)
	p.expect(lexer.RPAREN)
	body := p.parseStatement()
	return &ast.WhileStatement{Base: ast.BaseAt(pos), Test: test, Body: body}
}

func (p *Parser) parseDoWhileStatement() *ast.DoWhileStatement {
	pos := p.cur.Pos
	p.expect(lexer.DO)
	body := p.parseStatement()
	p.expect(lexer.WHILE)
	p.expect(lexer.LPAREN)
	test := p.parseExpression(lowest)
	p.expect(lexer.RPAREN)
	p.consumeSemicolon()
	return &ast.DoWhileStatement{Base: ast.BaseAt(pos), Body: body, Test: test}
}

func (p *Parser) parseForStatement() ast.Statement {
	pos := p.cur.Pos
	p.expect(lexer.FOR)
	p.expect(lexer.LPAREN)

	var init ast.Node
	isDecl := false
	declKindVal := ast.DeclVar
	if p.at(lexer.VAR) || p.at(lexer.LET) || p.at(lexer.CONST) {
		isDecl = true
		declKindVal = declKind(p.cur.Type)
		p.next()
		target := p.parseBindingTarget()
		if p.at(lexer.IN) {
			p.next()
			right := p.parseExpression(lowest)
			p.expect(lexer.RPAREN)
			body := p.parseStatement()
			return &ast.ForInStatement{Base: ast.BaseAt(pos), Decl: declKindVal, Left: target, IsDecl: true, Right: right, Body: body}
		}
		if p.at(lexer.OF) {
			p.next()
			right := p.parseExpression(assignPrec)
			p.expect(lexer.RPAREN)
			body := p.parseStatement()
			return &ast.ForOfStatement{Base: ast.BaseAt(pos), Decl: declKindVal, Left: target, IsDecl: true, Right: right, Body: body}
		}
		decl := &ast.VariableDeclaration{Base: ast.BaseAt(pos), Kind: declKindVal}
		var firstInit ast.Expression
		if p.at(lexer.ASSIGN) {
			p.next()
			firstInit = p.parseExpression(assignPrec)
		}
		decl.Declarations = append(decl.Declarations, ast.VariableDeclarator{Target: target, Init: firstInit})
		for p.at(lexer.COMMA) {
			p.next()
			t := p.parseBindingTarget()
			var in ast.Expression
			if p.at(lexer.ASSIGN) {
				p.next()
				in = p.parseExpression(assignPrec)
			}
			decl.Declarations = append(decl.Declarations, ast.VariableDeclarator{Target: t, Init: in})
		}
		init = decl
	} else if !p.at(lexer.SEMICOLON) {
		expr := p.parseExpression(lowest)
		if p.at(lexer.IN) {
			p.next()
			right := p.parseExpression(lowest)
			p.expect(lexer.RPAREN)
			body := p.parseStatement()
			return &ast.ForInStatement{Base: ast.BaseAt(pos), Left: expr, IsDecl: isDecl, Right: right, Body: body}
		}
		if p.at(lexer.OF) {
			p.next()
			right := p.parseExpression(assignPrec)
			p.expect(lexer.RPAREN)
			body := p.parseStatement()
			return &ast.ForOfStatement{Base: ast.BaseAt(pos), Left: expr, IsDecl: isDecl, Right: right, Body: body}
		}
		init = &ast.ExpressionStatement{Base: ast.BaseAt(pos), Expr: expr}
	}
	p.expect(lexer.SEMICOLON)

	var test ast.Expression
	if !p.at(lexer.SEMICOLON) {
		test = p.parseExpression(lowest)
	}
	p.expect(lexer.SEMICOLON)

	var update ast.Expression
	if !p.at(lexer.RPAREN) {
		update = p.parseExpression(lowest)
	}
	p.expect(lexer.RPAREN)
	body := p.parseStatement()
	return &ast.ForStatement{Base: ast.BaseAt(pos), Init: init, Test: test, Update: update, Body: body}
}

func (p *Parser) parseBreakStatement() *ast.BreakStatement {
	pos := p.cur.Pos
	p.expect(lexer.BREAK)
	label := ""
	if p.at(lexer.IDENT) && !p.cur.NewlineBefore {
		label = p.cur.Literal
		p.next()
	}
	p.consumeSemicolon()
	return &ast.BreakStatement{Base: ast.BaseAt(pos), Label: label}
}

func (p *Parser) parseContinueStatement() *ast.ContinueStatement {
	pos := p.cur.Pos
	p.expect(lexer.CONTINUE)
	label := ""
	if p.at(lexer.IDENT) && !p.cur.NewlineBefore {
		label = p.cur.Literal
		p.next()
	}
	p.consumeSemicolon()
	return &ast.ContinueStatement{Base: ast.BaseAt(pos), Label: label}
}

func (p *Parser) parseReturnStatement() *ast.ReturnStatement {
	pos := p.cur.Pos
	p.expect(lexer.RETURN)
	var arg ast.Expression
	if !p.at(lexer.SEMICOLON) && !p.at(lexer.RBRACE) && !p.at(lexer.EOF) && !p.cur.NewlineBefore {
		arg = p.parseExpression(lowest)
	}
	p.consumeSemicolon()
	return &ast.ReturnStatement{Base: ast.BaseAt(pos), Argument: arg}
}

func (p *Parser) parseThrowStatement() *ast.ThrowStatement {
	pos := p.cur.Pos
	p.expect(lexer.THROW)
	arg := p.parseExpression(lowest)
	p.consumeSemicolon()
	return &ast.ThrowStatement{Base: ast.BaseAt(pos), Argument: arg}
}

func (p *Parser) parseTryStatement() *ast.TryStatement {
	pos := p.cur.Pos
	p.expect(lexer.TRY)
	block := p.parseBlockStatement()
	stmt := &ast.TryStatement{Base: ast.BaseAt(pos), Block: block}
	if p.at(lexer.CATCH) {
		p.next()
		var param ast.Expression
		if p.at(lexer.LPAREN) {
			p.next()
			param = p.parseBindingTarget()
			p.expect(lexer.RPAREN)
		}
		body := p.parseBlockStatement()
		stmt.Catch = &ast.CatchClause{Param: param, Body: body}
	}
	if p.at(lexer.FINALLY) {
		p.next()
		stmt.Finally = p.parseBlockStatement()
	}
	return stmt
}

func (p *Parser) parseSwitchStatement() *ast.SwitchStatement {
	pos := p.cur.Pos
	p.expect(lexer.SWITCH)
	p.expect(lexer.LPAREN)
	disc := p.parseExpression(lowest)
	p.expect(lexer.RPAREN)
	p.expect(lexer.LBRACE)
	stmt := &ast.SwitchStatement{Base: ast.BaseAt(pos), Discriminant: disc}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		var c ast.SwitchCase
		if p.at(lexer.CASE) {
			p.next()
			c.Test = p.parseExpression(lowest)
		} else {
			p.expect(lexer.DEFAULT)
		}
		p.expect(lexer.COLON)
		for !p.at(lexer.CASE) && !p.at(lexer.DEFAULT) && !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
			c.Body = append(c.Body, p.parseStatement())
		}
		stmt.Cases = append(stmt.Cases, c)
	}
	p.expect(lexer.RBRACE)
	return stmt
}

func (p *Parser) parseLabeledStatement() *ast.LabeledStatement {
	pos := p.cur.Pos
	label := p.cur.Literal
	p.next()
	p.expect(lexer.COLON)
	body := p.parseStatement()
	return &ast.LabeledStatement{Base: ast.BaseAt(pos), Label: label, Body: body}
}

func (p *Parser) parseImportDeclaration() ast.Statement {
	pos := p.cur.Pos
	for !p.at(lexer.SEMICOLON) && !p.at(lexer.EOF) && !p.cur.NewlineBefore {
		p.next()
	}
	p.consumeSemicolon()
	return &ast.ImportDeclaration{Base: ast.BaseAt(pos)}
}

func (p *Parser) parseExportDeclaration() ast.Statement {
	pos := p.cur.Pos
	p.expect(lexer.EXPORT)
	if p.at(lexer.DEFAULT) {
		p.next()
		expr := p.parseExpression(lowest)
		p.consumeSemicolon()
		return &ast.ExportDeclaration{Base: ast.BaseAt(pos), Expr: expr}
	}
	decl := p.parseStatement()
	return &ast.ExportDeclaration{Base: ast.BaseAt(pos), Decl: decl}
}

// ---- Expressions (Pratt parser) ----

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peek.Type]; ok {
		return pr
	}
	return lowest
}

func (p *Parser) parseExpression(prec int) ast.Expression {
	left := p.parsePrefix()
	for !p.at(lexer.SEMICOLON) && prec < p.curPrecedenceForInfix() {
		left = p.parseInfix(left)
	}
	return left
}

func (p *Parser) curPrecedenceForInfix() int {
	if pr, ok := precedences[p.cur.Type]; ok {
		return pr
	}
	return lowest
}

func (p *Parser) parsePrefix() ast.Expression {
	tok := p.cur
	switch tok.Type {
	case lexer.NUMBER:
		p.next()
		return &ast.NumberLiteral{Base: ast.BaseAt(tok.Pos), Value: parseNumber(tok.Literal)}
	case lexer.BIGINT:
		p.next()
		return &ast.BigIntLiteral{Base: ast.BaseAt(tok.Pos), Text: tok.Literal}
	case lexer.STRING:
		p.next()
		return &ast.StringLiteral{Base: ast.BaseAt(tok.Pos), Value: tok.Literal}
	case lexer.TEMPLATE_STRING:
		p.next()
		return parseTemplateLiteral(tok)
	case lexer.REGEX:
		p.next()
		return parseRegexLiteral(tok)
	case lexer.TRUE, lexer.FALSE:
		p.next()
		return &ast.BooleanLiteral{Base: ast.BaseAt(tok.Pos), Value: tok.Type == lexer.TRUE}
	case lexer.NULL:
		p.next()
		return &ast.NullLiteral{Base: ast.BaseAt(tok.Pos)}
	case lexer.UNDEFINED:
		p.next()
		return &ast.UndefinedLiteral{Base: ast.BaseAt(tok.Pos)}
	case lexer.THIS:
		p.next()
		return &ast.ThisExpression{Base: ast.BaseAt(tok.Pos)}
	case lexer.SUPER:
		p.next()
		return &ast.SuperExpression{Base: ast.BaseAt(tok.Pos)}
	case lexer.IDENT, lexer.GET, lexer.SET, lexer.STATIC, lexer.OF:
		if p.atPeek(lexer.ARROW) {
			return p.parseArrowFromIdent()
		}
		p.next()
		return &ast.Identifier{Base: ast.BaseAt(tok.Pos), Name: tok.Literal}
	case lexer.FUNCTION:
		return p.parseFunctionLiteral(false)
	case lexer.ASYNC:
		if p.atPeek(lexer.FUNCTION) {
			p.next()
			return p.parseFunctionLiteral(true)
		}
		p.next()
		return p.parseArrowOrExpressionAsync()
	case lexer.CLASS:
		return p.parseClassLiteral()
	case lexer.NEW:
		return p.parseNewExpression()
	case lexer.LPAREN:
		return p.parseParenOrArrow()
	case lexer.LBRACKET:
		return p.parseArrayLiteral()
	case lexer.LBRACE:
		return p.parseObjectLiteral()
	case lexer.DOT_DOT_DOT:
		p.next()
		arg := p.parseExpression(assignPrec)
		return &ast.SpreadElement{Base: ast.BaseAt(tok.Pos), Argument: arg}
	case lexer.YIELD:
		p.next()
		delegate := false
		if p.at(lexer.STAR) {
			delegate = true
			p.next()
		}
		var arg ast.Expression
		if !p.at(lexer.SEMICOLON) && !p.at(lexer.RPAREN) && !p.at(lexer.RBRACE) && !p.at(lexer.RBRACKET) && !p.at(lexer.COMMA) && !p.cur.NewlineBefore {
			arg = p.parseExpression(assignPrec)
		}
		return &ast.YieldExpression{Base: ast.BaseAt(tok.Pos), Argument: arg, Delegate: delegate}
	case lexer.AWAIT:
		p.next()
		arg := p.parseExpression(unaryPrec)
		return &ast.AwaitExpression{Base: ast.BaseAt(tok.Pos), Argument: arg}
	case lexer.PLUS, lexer.MINUS, lexer.BANG, lexer.TILDE, lexer.TYPEOF, lexer.DELETE:
		p.next()
		arg := p.parseExpression(unaryPrec)
		return &ast.UnaryExpression{Base: ast.BaseAt(tok.Pos), Operator: unaryOpFor(tok), Argument: arg}
	case lexer.PLUS_PLUS, lexer.MINUS_MINUS:
		p.next()
		arg := p.parseExpression(unaryPrec)
		return &ast.UpdateExpression{Base: ast.BaseAt(tok.Pos), Operator: tok.Literal, Argument: arg, Prefix: true}
	}
	p.errorf("unexpected token %q in expression position", tok.Literal)
	p.next()
	return &ast.UndefinedLiteral{Base: ast.BaseAt(tok.Pos)}
}

func unaryOpFor(tok lexer.Token) ast.UnaryOperator {
	switch tok.Type {
	case lexer.TYPEOF:
		return ast.OpTypeof
	case lexer.DELETE:
		return ast.OpDelete
	case lexer.PLUS:
		return ast.OpPlus
	case lexer.MINUS:
		return ast.OpMinus
	case lexer.BANG:
		return ast.OpNot
	case lexer.TILDE:
		return ast.OpBitNot
	default:
		return ast.UnaryOperator(tok.Literal)
	}
}

func (p *Parser) parseInfix(left ast.Expression) ast.Expression {
	tok := p.cur
	switch tok.Type {
	case lexer.PLUS_PLUS, lexer.MINUS_MINUS:
		p.next()
		return &ast.UpdateExpression{Base: ast.BaseAt(tok.Pos), Operator: tok.Literal, Argument: left, Prefix: false}
	case lexer.DOT:
		p.next()
		name := p.expect(lexer.IDENT)
		return &ast.MemberExpression{Base: ast.BaseAt(tok.Pos), Object: left, Property: &ast.Identifier{Base: ast.BaseAt(name.Pos), Name: name.Literal}}
	case lexer.QUESTION_DOT:
		p.next()
		if p.at(lexer.LPAREN) {
			args := p.parseArguments()
			return &ast.CallExpression{Base: ast.BaseAt(tok.Pos), Callee: left, Args: args, Optional: true}
		}
		name := p.expect(lexer.IDENT)
		return &ast.MemberExpression{Base: ast.BaseAt(tok.Pos), Object: left, Property: &ast.Identifier{Base: ast.BaseAt(name.Pos), Name: name.Literal}, Optional: true}
	case lexer.LBRACKET:
		p.next()
		prop := p.parseExpression(lowest)
		p.expect(lexer.RBRACKET)
		return &ast.MemberExpression{Base: ast.BaseAt(tok.Pos), Object: left, Property: prop, Computed: true}
	case lexer.LPAREN:
		args := p.parseArguments()
		return &ast.CallExpression{Base: ast.BaseAt(tok.Pos), Callee: left, Args: args}
	case lexer.QUESTION:
		p.next()
		cons := p.parseExpression(assignPrec)
		p.expect(lexer.COLON)
		alt := p.parseExpression(assignPrec)
		return &ast.ConditionalExpression{Base: ast.BaseAt(tok.Pos), Test: left, Consequent: cons, Alternate: alt}
	case lexer.AND_AND, lexer.OR_OR, lexer.NULLISH:
		p.next()
		right := p.parseExpression(precedences[tok.Type])
		return &ast.LogicalExpression{Base: ast.BaseAt(tok.Pos), Operator: tok.Literal, Left: left, Right: right}
	case lexer.ASSIGN, lexer.PLUS_ASSIGN, lexer.MINUS_ASSIGN, lexer.STAR_ASSIGN, lexer.SLASH_ASSIGN,
		lexer.PERCENT_ASSIGN, lexer.AND_ASSIGN, lexer.OR_ASSIGN, lexer.NULLISH_ASSIGN:
		p.next()
		right := p.parseExpression(assignPrec - 1)
		return &ast.AssignmentExpression{Base: ast.BaseAt(tok.Pos), Operator: tok.Literal, Target: left, Value: right}
	default:
		p.next()
		right := p.parseExpression(precedences[tok.Type])
		return &ast.BinaryExpression{Base: ast.BaseAt(tok.Pos), Operator: tok.Literal, Left: left, Right: right}
	}
}

func (p *Parser) parseArguments() []ast.Expression {
	p.expect(lexer.LPAREN)
	var args []ast.Expression
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		if p.at(lexer.DOT_DOT_DOT) {
			pos := p.cur.Pos
			p.next()
			args = append(args, &ast.SpreadElement{Base: ast.BaseAt(pos), Argument: p.parseExpression(assignPrec)})
		} else {
			args = append(args, p.parseExpression(assignPrec))
		}
		if p.at(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RPAREN)
	return args
}

func (p *Parser) parseNewExpression() ast.Expression {
	pos := p.cur.Pos
	p.expect(lexer.NEW)
	callee := p.parseExpression(memberPrec)
	var args []ast.Expression
	if call, ok := callee.(*ast.CallExpression); ok {
		return &ast.NewExpression{Base: ast.BaseAt(pos), Callee: call.Callee, Args: call.Args}
	}
	if p.at(lexer.LPAREN) {
		args = p.parseArguments()
	}
	return &ast.NewExpression{Base: ast.BaseAt(pos), Callee: callee, Args: args}
}

func (p *Parser) parseParenOrArrow() ast.Expression {
	start := p.cur.Pos
	// Attempt arrow-function parse by scanning a balanced paren group and
	// checking for a following `=>`.
	if p.isArrowAhead() {
		params := p.parseParamList()
		p.expect(lexer.ARROW)
		return p.finishArrow(start, params, false)
	}
	p.expect(lexer.LPAREN)
	if p.at(lexer.RPAREN) {
		p.next()
		return &ast.UndefinedLiteral{Base: ast.BaseAt(start)}
	}
	expr := p.parseExpression(lowest)
	for p.at(lexer.COMMA) {
		p.next()
		seq, ok := expr.(*ast.SequenceExpression)
		if !ok {
			seq = &ast.SequenceExpression{Base: ast.BaseAt(start), Expressions: []ast.Expression{expr}}
		}
		seq.Expressions = append(seq.Expressions, p.parseExpression(assignPrec))
		expr = seq
	}
	p.expect(lexer.RPAREN)
	return expr
}

// isArrowAhead performs bounded lookahead over the lexer to detect
// `(params) =>` without committing to either parse path; it clones the
// lexer's cursor state by re-lexing from a saved token pair, which is
// sufficient because Quanta's lexer is a pure function of input position.
func (p *Parser) isArrowAhead() bool {
	savedCur, savedPeek, savedLexer := p.cur, p.peek, *p.l
	depth := 0
	ok := false
	for {
		if p.at(lexer.LPAREN) {
			depth++
		} else if p.at(lexer.RPAREN) {
			depth--
			if depth == 0 {
				ok = p.atPeek(lexer.ARROW)
				break
			}
		} else if p.at(lexer.EOF) {
			break
		}
		p.next()
	}
	p.cur, p.peek, *p.l = savedCur, savedPeek, savedLexer
	return ok
}

func (p *Parser) parseArrowFromIdent() ast.Expression {
	start := p.cur.Pos
	name := p.cur.Literal
	p.next()
	p.expect(lexer.ARROW)
	param := ast.Param{Pattern: &ast.Identifier{Base: ast.BaseAt(start), Name: name}}
	return p.finishArrow(start, []ast.Param{param}, false)
}

func (p *Parser) parseArrowOrExpressionAsync() ast.Expression {
	start := p.cur.Pos
	if p.at(lexer.IDENT) && p.atPeek(lexer.ARROW) {
		name := p.cur.Literal
		p.next()
		p.next()
		param := ast.Param{Pattern: &ast.Identifier{Base: ast.BaseAt(start), Name: name}}
		return p.finishArrow(start, []ast.Param{param}, true)
	}
	if p.at(lexer.LPAREN) && p.isArrowAhead() {
		params := p.parseParamList()
		p.expect(lexer.ARROW)
		return p.finishArrow(start, params, true)
	}
	return &ast.Identifier{Base: ast.BaseAt(start), Name: "async"}
}

func (p *Parser) finishArrow(pos lexer.Position, params []ast.Param, isAsync bool) *ast.FunctionLiteral {
	fn := &ast.FunctionLiteral{Base: ast.BaseAt(pos), Params: params, IsArrow: true, IsAsync: isAsync}
	if p.at(lexer.LBRACE) {
		fn.Body = p.parseBlockStatement()
	} else {
		fn.ExprBody = p.parseExpression(assignPrec)
	}
	return fn
}

func (p *Parser) parseParamList() []ast.Param {
	p.expect(lexer.LPAREN)
	var params []ast.Param
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		var param ast.Param
		if p.at(lexer.DOT_DOT_DOT) {
			p.next()
			param.Rest = true
			param.Pattern = p.parseBindingTarget()
		} else {
			param.Pattern = p.parseBindingTarget()
			if p.at(lexer.ASSIGN) {
				p.next()
				param.Default = p.parseExpression(assignPrec)
			}
		}
		params = append(params, param)
		if p.at(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RPAREN)
	return params
}

func (p *Parser) parseFunctionLiteral(isAsync bool) *ast.FunctionLiteral {
	pos := p.cur.Pos
	p.expect(lexer.FUNCTION)
	isGen := false
	if p.at(lexer.STAR) {
		isGen = true
		p.next()
	}
	name := ""
	if p.at(lexer.IDENT) {
		name = p.cur.Literal
		p.next()
	}
	params := p.parseParamList()
	body := p.parseBlockStatement()
	return &ast.FunctionLiteral{Base: ast.BaseAt(pos), Name: name, Params: params, Body: body, IsAsync: isAsync, IsGen: isGen}
}

func (p *Parser) parseClassLiteral() *ast.ClassLiteral {
	pos := p.cur.Pos
	p.expect(lexer.CLASS)
	name := ""
	if p.at(lexer.IDENT) {
		name = p.cur.Literal
		p.next()
	}
	cls := &ast.ClassLiteral{Base: ast.BaseAt(pos), Name: name}
	if p.at(lexer.EXTENDS) {
		p.next()
		cls.SuperClass = p.parseExpression(callPrec)
	}
	p.expect(lexer.LBRACE)
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		if p.at(lexer.SEMICOLON) {
			p.next()
			continue
		}
		cls.Members = append(cls.Members, p.parseClassMember())
	}
	p.expect(lexer.RBRACE)
	return cls
}

func (p *Parser) parseClassMember() ast.ClassMember {
	var m ast.ClassMember
	if p.at(lexer.STATIC) {
		m.Static = true
		p.next()
	}
	if p.at(lexer.GET) && !p.atPeek(lexer.LPAREN) {
		m.Kind = ast.PropertyGet
		p.next()
	} else if p.at(lexer.SET) && !p.atPeek(lexer.LPAREN) {
		m.Kind = ast.PropertySet
		p.next()
	}
	key := p.parseIdentifier()
	m.Key = key
	if p.at(lexer.LPAREN) {
		params := p.parseParamList()
		body := p.parseBlockStatement()
		m.Value = &ast.FunctionLiteral{Base: ast.BaseAt(key.Pos()), Name: key.Name, Params: params, Body: body}
		return m
	}
	if p.at(lexer.ASSIGN) {
		p.next()
		m.FieldVal = p.parseExpression(assignPrec)
	}
	p.consumeSemicolon()
	return m
}

func (p *Parser) parseArrayLiteral() *ast.ArrayLiteral {
	pos := p.cur.Pos
	p.expect(lexer.LBRACKET)
	arr := &ast.ArrayLiteral{Base: ast.BaseAt(pos)}
	for !p.at(lexer.RBRACKET) && !p.at(lexer.EOF) {
		if p.at(lexer.COMMA) {
			arr.Elements = append(arr.Elements, nil)
			p.next()
			continue
		}
		if p.at(lexer.DOT_DOT_DOT) {
			spos := p.cur.Pos
			p.next()
			arr.Elements = append(arr.Elements, &ast.SpreadElement{Base: ast.BaseAt(spos), Argument: p.parseExpression(assignPrec)})
		} else {
			arr.Elements = append(arr.Elements, p.parseExpression(assignPrec))
		}
		if p.at(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RBRACKET)
	return arr
}

func (p *Parser) parseObjectLiteral() *ast.ObjectLiteral {
	pos := p.cur.Pos
	p.expect(lexer.LBRACE)
	obj := &ast.ObjectLiteral{Base: ast.BaseAt(pos)}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		if p.at(lexer.DOT_DOT_DOT) {
			p.next()
			obj.Properties = append(obj.Properties, ast.Property{Kind: ast.PropertySpread, Value: p.parseExpression(assignPrec)})
		} else {
			obj.Properties = append(obj.Properties, p.parseObjectProperty())
		}
		if p.at(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RBRACE)
	return obj
}

func (p *Parser) parseObjectProperty() ast.Property {
	var prop ast.Property
	if (p.at(lexer.GET) || p.at(lexer.SET)) && !p.atPeek(lexer.COLON) && !p.atPeek(lexer.COMMA) && !p.atPeek(lexer.RBRACE) {
		if p.at(lexer.GET) {
			prop.Kind = ast.PropertyGet
		} else {
			prop.Kind = ast.PropertySet
		}
		p.next()
		key := p.parseIdentifier()
		prop.Key = key
		params := p.parseParamList()
		body := p.parseBlockStatement()
		prop.Value = &ast.FunctionLiteral{Base: ast.BaseAt(key.Pos()), Params: params, Body: body}
		return prop
	}
	if p.at(lexer.LBRACKET) {
		p.next()
		prop.Key = p.parseExpression(lowest)
		prop.Computed = true
		p.expect(lexer.RBRACKET)
	} else {
		tok := p.cur
		prop.Key = &ast.Identifier{Base: ast.BaseAt(tok.Pos), Name: tok.Literal}
		p.next()
	}
	if p.at(lexer.LPAREN) {
		params := p.parseParamList()
		body := p.parseBlockStatement()
		prop.Value = &ast.FunctionLiteral{Base: ast.BaseAt(prop.Key.Pos()), Params: params, Body: body}
		return prop
	}
	if p.at(lexer.COLON) {
		p.next()
		prop.Value = p.parseExpression(assignPrec)
		return prop
	}
	// shorthand `{ x }`
	if id, ok := prop.Key.(*ast.Identifier); ok {
		prop.Value = id
		prop.Shorthand = true
	}
	return prop
}

func parseNumber(lit string) float64 {
	if len(lit) > 1 && lit[0] == '0' && (lit[1] == 'x' || lit[1] == 'X') {
		n, _ := strconv.ParseInt(lit[2:], 16, 64)
		return float64(n)
	}
	f, _ := strconv.ParseFloat(lit, 64)
	return f
}

func parseRegexLiteral(tok lexer.Token) *ast.RegexLiteral {
	lit := tok.Literal
	end := len(lit) - 1
	for end > 0 && lit[end] != '/' {
		end--
	}
	return &ast.RegexLiteral{Base: ast.BaseAt(tok.Pos), Pattern: lit[1:end], Flags: lit[end+1:]}
}

func parseTemplateLiteral(tok lexer.Token) *ast.TemplateLiteral {
	raw := tok.Literal
	tl := &ast.TemplateLiteral{Base: ast.BaseAt(tok.Pos)}
	var quasi []byte
	i := 0
	for i < len(raw) {
		if raw[i] == '\\' && i+1 < len(raw) {
			quasi = append(quasi, raw[i+1])
			i += 2
			continue
		}
		if raw[i] == '$' && i+1 < len(raw) && raw[i+1] == '{' {
			tl.Quasis = append(tl.Quasis, string(quasi))
			quasi = nil
			depth := 1
			j := i + 2
			start := j
			for j < len(raw) && depth > 0 {
				switch raw[j] {
				case '{':
					depth++
				case '}':
					depth--
				}
				if depth == 0 {
					break
				}
				j++
			}
			sub := New(raw[start:j])
			tl.Expressions = append(tl.Expressions, sub.parseExpression(lowest))
			i = j + 1
			continue
		}
		quasi = append(quasi, raw[i])
		i++
	}
	tl.Quasis = append(tl.Quasis, string(quasi))
	return tl
}
