package interpreter

import (
	"github.com/solarbrowser/quanta/internal/ast"
	"github.com/solarbrowser/quanta/internal/context"
	"github.com/solarbrowser/quanta/internal/environment"
	"github.com/solarbrowser/quanta/internal/errors"
	"github.com/solarbrowser/quanta/internal/function"
	"github.com/solarbrowser/quanta/internal/value"
)

// sigKind is the completion-type of a statement or statement list (spec
// §4.5's abstract "Completion Record": normal, break, continue, return).
// A thrown exception is not modeled as a sigKind — it is carried on the
// Context (HasException) and checked by every caller in this file instead,
// matching spec §4.11's "exceptions are routed through Context, never Go
// panics" rule.
type sigKind uint8

const (
	sigNone sigKind = iota
	sigBreak
	sigContinue
	sigReturn
)

type signal struct {
	kind  sigKind
	label string
}

// execStatements runs stmts in order, stopping at the first non-sigNone
// signal or the first active exception.
func (i *Interpreter) execStatements(ctx *context.Context, stmts []ast.Statement) (signal, error) {
	for _, stmt := range stmts {
		sig, err := i.execStatement(ctx, stmt)
		if err != nil {
			return signal{}, err
		}
		if ctx.HasException() {
			return signal{}, nil
		}
		if sig.kind != sigNone {
			return sig, nil
		}
	}
	return signal{}, nil
}

func (i *Interpreter) execStatement(ctx *context.Context, stmt ast.Statement) (signal, error) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		_, err := i.Eval(ctx, s.Expr)
		return signal{}, err

	case *ast.EmptyStatement:
		return signal{}, nil

	case *ast.BlockStatement:
		return i.execBlock(ctx, s.Body)

	case *ast.VariableDeclaration:
		return signal{}, i.execVariableDeclaration(ctx, s)

	case *ast.FunctionDeclaration:
		// Top-level/function-scoped function declarations are bound by
		// function.Hoist before the body runs; a function declaration
		// nested directly in a block is bound by execBlock (hoistLexical
		// plus bindBlockFunction) on block entry. Nothing is left to do here.
		return signal{}, nil

	case *ast.ClassDeclaration:
		v, err := i.evalClass(ctx, s.Class)
		if err != nil || ctx.HasException() {
			return signal{}, err
		}
		ctx.LexicalEnv().InitializeBinding(s.Class.Name, v)
		return signal{}, nil

	case *ast.IfStatement:
		return i.execIf(ctx, s)

	case *ast.WhileStatement:
		return i.execWhile(ctx, s, "")

	case *ast.DoWhileStatement:
		return i.execDoWhile(ctx, s, "")

	case *ast.ForStatement:
		return i.execFor(ctx, s, "")

	case *ast.ForInStatement:
		return i.execForIn(ctx, s, "")

	case *ast.ForOfStatement:
		return i.execForOf(ctx, s, "")

	case *ast.BreakStatement:
		return signal{kind: sigBreak, label: s.Label}, nil

	case *ast.ContinueStatement:
		return signal{kind: sigContinue, label: s.Label}, nil

	case *ast.ReturnStatement:
		var v value.Value = value.Undefined()
		if s.Argument != nil {
			var err error
			v, err = i.Eval(ctx, s.Argument)
			if err != nil || ctx.HasException() {
				return signal{}, err
			}
		}
		ctx.SetReturnValue(v)
		return signal{kind: sigReturn}, nil

	case *ast.ThrowStatement:
		v, err := i.Eval(ctx, s.Argument)
		if err != nil || ctx.HasException() {
			return signal{}, err
		}
		ctx.ThrowException(v)
		return signal{}, nil

	case *ast.TryStatement:
		return i.execTry(ctx, s)

	case *ast.SwitchStatement:
		return i.execSwitch(ctx, s, "")

	case *ast.LabeledStatement:
		return i.execLabeled(ctx, s)

	case *ast.ImportDeclaration, *ast.ExportDeclaration:
		// Recognized at the syntax level only; the interpreter never runs a
		// module system (spec's additional Non-goals).
		return signal{}, nil

	default:
		return signal{}, errors.New(errors.KindInternal, "interpreter: unhandled statement node %T", stmt)
	}
}

// execBlock runs a block's statements in a fresh lexical environment,
// pre-scanning it first for let/const TDZ bindings and block-scoped
// function declarations (spec §4.5's BlockStatement pre-scan).
func (i *Interpreter) execBlock(ctx *context.Context, body []ast.Statement) (signal, error) {
	restore := ctx.PushBlockScope()
	defer restore()

	i.hoistLexical(ctx.LexicalEnv(), body)
	for _, stmt := range body {
		if fd, ok := stmt.(*ast.FunctionDeclaration); ok {
			i.bindBlockFunction(ctx, fd)
		}
	}
	return i.execStatements(ctx, body)
}

// hoistLexical pre-declares every let/const/class binding introduced
// directly in body (not crossing into nested blocks or functions) as a
// TDZ binding, and every block-scoped function declaration as a TDZ
// binding later initialized by bindBlockFunction. Var and function
// declarations are the separate concern of function.Hoist.
func (i *Interpreter) hoistLexical(env *environment.Environment, body []ast.Statement) {
	for _, stmt := range body {
		switch s := stmt.(type) {
		case *ast.VariableDeclaration:
			if s.Kind == ast.DeclLet || s.Kind == ast.DeclConst {
				for _, d := range s.Declarations {
					for _, name := range bindingNames(d.Target) {
						_ = env.CreateTDZBinding(name, lexicalKind(s.Kind))
					}
				}
			}
		case *ast.ClassDeclaration:
			_ = env.CreateTDZBinding(s.Class.Name, environment.KindLet)
		case *ast.FunctionDeclaration:
			_ = env.CreateTDZBinding(s.Function.Name, environment.KindFunction)
		}
	}
}

func (i *Interpreter) bindBlockFunction(ctx *context.Context, fd *ast.FunctionDeclaration) {
	cl := &function.Closure{
		Name:        fd.Function.Name,
		Params:      fd.Function.Params,
		Body:        fd.Function.Body,
		ExprBody:    fd.Function.ExprBody,
		Env:         ctx.LexicalEnv(),
		IsCtor:      !fd.Function.IsAsync && !fd.Function.IsGen,
		IsAsync:     fd.Function.IsAsync,
		IsGenerator: fd.Function.IsGen,
	}
	fn := function.New(i.Protos.Function, i.Protos.Object, cl)
	ctx.LexicalEnv().InitializeBinding(fd.Function.Name, value.Object(fn))
}

func lexicalKind(k ast.DeclarationKind) environment.BindingKind {
	if k == ast.DeclConst {
		return environment.KindConst
	}
	return environment.KindLet
}

func (i *Interpreter) execVariableDeclaration(ctx *context.Context, s *ast.VariableDeclaration) error {
	for _, d := range s.Declarations {
		if d.Init == nil && s.Kind == ast.DeclVar {
			if id, ok := d.Target.(*ast.Identifier); ok && ctx.VariableEnv().HasOwnBinding(id.Name) {
				continue // `var x;` leaves an existing binding's value alone
			}
		}
		var v value.Value = value.Undefined()
		if d.Init != nil {
			var err error
			v, err = i.Eval(ctx, d.Init)
			if err != nil || ctx.HasException() {
				return err
			}
		}
		if s.Kind == ast.DeclVar {
			if err := i.destructureInto(ctx, ctx.VariableEnv(), d.Target, v, environment.KindVar); err != nil {
				return err
			}
		} else {
			if err := i.destructureInto(ctx, ctx.LexicalEnv(), d.Target, v, lexicalKind(s.Kind)); err != nil {
				return err
			}
		}
		if ctx.HasException() {
			return nil
		}
	}
	return nil
}

func (i *Interpreter) execIf(ctx *context.Context, s *ast.IfStatement) (signal, error) {
	test, err := i.Eval(ctx, s.Test)
	if err != nil || ctx.HasException() {
		return signal{}, err
	}
	if test.ToBoolean() {
		return i.execStatement(ctx, s.Consequent)
	}
	if s.Alternate != nil {
		return i.execStatement(ctx, s.Alternate)
	}
	return signal{}, nil
}

// loopSignal interprets a body's completion for an enclosing loop: it
// reports whether the loop should stop (sigReturn always propagates;
// sigBreak targeting this loop or unlabeled is absorbed; sigContinue
// targeting this loop or unlabeled is absorbed and the loop continues;
// a signal with a different label propagates to an outer labeled loop).
func loopSignal(sig signal, label string) (stop bool, propagate signal) {
	switch sig.kind {
	case sigNone:
		return false, signal{}
	case sigBreak:
		if sig.label == "" || sig.label == label {
			return true, signal{}
		}
		return true, sig
	case sigContinue:
		if sig.label == "" || sig.label == label {
			return false, signal{}
		}
		return true, sig
	case sigReturn:
		return true, sig
	}
	return true, sig
}

func (i *Interpreter) execWhile(ctx *context.Context, s *ast.WhileStatement, label string) (signal, error) {
	for {
		test, err := i.Eval(ctx, s.Test)
		if err != nil || ctx.HasException() {
			return signal{}, err
		}
		if !test.ToBoolean() {
			return signal{}, nil
		}
		sig, err := i.execStatement(ctx, s.Body)
		if err != nil || ctx.HasException() {
			return signal{}, err
		}
		if stop, prop := loopSignal(sig, label); stop {
			return prop, nil
		}
	}
}

func (i *Interpreter) execDoWhile(ctx *context.Context, s *ast.DoWhileStatement, label string) (signal, error) {
	for {
		sig, err := i.execStatement(ctx, s.Body)
		if err != nil || ctx.HasException() {
			return signal{}, err
		}
		if stop, prop := loopSignal(sig, label); stop {
			return prop, nil
		}
		test, err := i.Eval(ctx, s.Test)
		if err != nil || ctx.HasException() {
			return signal{}, err
		}
		if !test.ToBoolean() {
			return signal{}, nil
		}
	}
}

func (i *Interpreter) execFor(ctx *context.Context, s *ast.ForStatement, label string) (signal, error) {
	restore := ctx.PushBlockScope()
	defer restore()

	if decl, ok := s.Init.(*ast.VariableDeclaration); ok {
		if decl.Kind != ast.DeclVar {
			for _, d := range decl.Declarations {
				for _, name := range bindingNames(d.Target) {
					_ = ctx.LexicalEnv().CreateTDZBinding(name, lexicalKind(decl.Kind))
				}
			}
		}
		if err := i.execVariableDeclaration(ctx, decl); err != nil || ctx.HasException() {
			return signal{}, err
		}
	} else if initExpr, ok := s.Init.(ast.Expression); ok && initExpr != nil {
		if _, err := i.Eval(ctx, initExpr); err != nil || ctx.HasException() {
			return signal{}, err
		}
	}

	for {
		if s.Test != nil {
			test, err := i.Eval(ctx, s.Test)
			if err != nil || ctx.HasException() {
				return signal{}, err
			}
			if !test.ToBoolean() {
				return signal{}, nil
			}
		}
		sig, err := i.execStatement(ctx, s.Body)
		if err != nil || ctx.HasException() {
			return signal{}, err
		}
		if stop, prop := loopSignal(sig, label); stop {
			return prop, nil
		}
		if s.Update != nil {
			if _, err := i.Eval(ctx, s.Update); err != nil || ctx.HasException() {
				return signal{}, err
			}
		}
	}
}

func (i *Interpreter) execForIn(ctx *context.Context, s *ast.ForInStatement, label string) (signal, error) {
	rv, err := i.Eval(ctx, s.Right)
	if err != nil || ctx.HasException() {
		return signal{}, err
	}
	keys := enumerableKeys(rv)
	for _, k := range keys {
		restore := ctx.PushBlockScope()
		if err := i.bindForTarget(ctx, s.Left, s.IsDecl, s.Decl, value.String(k)); err != nil || ctx.HasException() {
			restore()
			return signal{}, err
		}
		sig, err := i.execStatement(ctx, s.Body)
		restore()
		if err != nil || ctx.HasException() {
			return signal{}, err
		}
		if stop, prop := loopSignal(sig, label); stop {
			return prop, nil
		}
	}
	return signal{}, nil
}

func (i *Interpreter) execForOf(ctx *context.Context, s *ast.ForOfStatement, label string) (signal, error) {
	rv, err := i.Eval(ctx, s.Right)
	if err != nil || ctx.HasException() {
		return signal{}, err
	}
	items := iterableValues(rv)
	for _, item := range items {
		restore := ctx.PushBlockScope()
		if err := i.bindForTarget(ctx, s.Left, s.IsDecl, s.Decl, item); err != nil || ctx.HasException() {
			restore()
			return signal{}, err
		}
		sig, err := i.execStatement(ctx, s.Body)
		restore()
		if err != nil || ctx.HasException() {
			return signal{}, err
		}
		if stop, prop := loopSignal(sig, label); stop {
			return prop, nil
		}
	}
	return signal{}, nil
}

func (i *Interpreter) bindForTarget(ctx *context.Context, target ast.Expression, isDecl bool, kind ast.DeclarationKind, v value.Value) error {
	if !isDecl {
		return i.assignToTarget(ctx, target, v)
	}
	if kind == ast.DeclVar {
		return i.destructureInto(ctx, ctx.VariableEnv(), target, v, environment.KindVar)
	}
	for _, name := range bindingNames(target) {
		_ = ctx.LexicalEnv().CreateTDZBinding(name, lexicalKind(kind))
	}
	return i.destructureInto(ctx, ctx.LexicalEnv(), target, v, lexicalKind(kind))
}

func (i *Interpreter) execTry(ctx *context.Context, s *ast.TryStatement) (signal, error) {
	sig, err := i.execBlock(ctx, s.Block.Body)
	if err != nil {
		return signal{}, err
	}

	if ctx.HasException() && s.Catch != nil {
		thrown := ctx.ExceptionValue()
		if thrown.IsUndefined() && ctx.Exception() != nil {
			thrown = i.wrapError(ctx.Exception())
		}
		ctx.ClearException()

		restore := ctx.PushBlockScope()
		if s.Catch.Param != nil {
			for _, name := range bindingNames(s.Catch.Param) {
				_ = ctx.LexicalEnv().CreateTDZBinding(name, environment.KindLet)
			}
			if derr := i.destructureInto(ctx, ctx.LexicalEnv(), s.Catch.Param, thrown, environment.KindLet); derr != nil {
				restore()
				return signal{}, derr
			}
		}
		sig, err = i.execStatements(ctx, s.Catch.Body.Body)
		restore()
		if err != nil {
			return signal{}, err
		}
	}

	if s.Finally != nil {
		// A completion from the finally block (return/break/continue/throw)
		// overrides whatever the try/catch above produced (spec §4.11).
		// An exception still pending from try/catch is set aside while the
		// finally block runs and re-raised if that block completes normally.
		pendingErr, pendingVal := ctx.Exception(), ctx.ExceptionValue()
		ctx.ClearException()
		finSig, ferr := i.execBlock(ctx, s.Finally.Body)
		if ferr != nil {
			return signal{}, ferr
		}
		if ctx.HasException() || finSig.kind != sigNone {
			return finSig, nil
		}
		if pendingErr != nil {
			if !pendingVal.IsUndefined() {
				ctx.ThrowException(pendingVal)
			} else {
				ctx.ThrowError(pendingErr)
			}
		}
	}
	return sig, nil
}

func (i *Interpreter) execSwitch(ctx *context.Context, s *ast.SwitchStatement, label string) (signal, error) {
	disc, err := i.Eval(ctx, s.Discriminant)
	if err != nil || ctx.HasException() {
		return signal{}, err
	}

	restore := ctx.PushBlockScope()
	defer restore()
	for _, c := range s.Cases {
		i.hoistLexical(ctx.LexicalEnv(), c.Body)
	}

	matchedIdx := -1
	defaultIdx := -1
	for idx, c := range s.Cases {
		if c.Test == nil {
			defaultIdx = idx
			continue
		}
		cv, err := i.Eval(ctx, c.Test)
		if err != nil || ctx.HasException() {
			return signal{}, err
		}
		if value.StrictEquals(disc, cv) {
			matchedIdx = idx
			break
		}
	}
	if matchedIdx == -1 {
		matchedIdx = defaultIdx
	}
	if matchedIdx == -1 {
		return signal{}, nil
	}
	for idx := matchedIdx; idx < len(s.Cases); idx++ {
		sig, err := i.execStatements(ctx, s.Cases[idx].Body)
		if err != nil || ctx.HasException() {
			return signal{}, err
		}
		if sig.kind == sigBreak && (sig.label == "" || sig.label == label) {
			return signal{}, nil
		}
		if sig.kind != sigNone {
			return sig, nil
		}
	}
	return signal{}, nil
}

func (i *Interpreter) execLabeled(ctx *context.Context, s *ast.LabeledStatement) (signal, error) {
	var sig signal
	var err error
	switch body := s.Body.(type) {
	case *ast.WhileStatement:
		sig, err = i.execWhile(ctx, body, s.Label)
	case *ast.DoWhileStatement:
		sig, err = i.execDoWhile(ctx, body, s.Label)
	case *ast.ForStatement:
		sig, err = i.execFor(ctx, body, s.Label)
	case *ast.ForInStatement:
		sig, err = i.execForIn(ctx, body, s.Label)
	case *ast.ForOfStatement:
		sig, err = i.execForOf(ctx, body, s.Label)
	case *ast.SwitchStatement:
		sig, err = i.execSwitch(ctx, body, s.Label)
	default:
		sig, err = i.execStatement(ctx, s.Body)
	}
	if err != nil || ctx.HasException() {
		return signal{}, err
	}
	if sig.kind == sigBreak && sig.label == s.Label {
		return signal{}, nil
	}
	return sig, nil
}
