package bytecode

import (
	"fmt"

	"github.com/solarbrowser/quanta/internal/ast"
)

// ErrUnsupported is returned (wrapped with the offending node's shape) for
// any AST construct compile refuses to lower; the caller — the
// interpreter's tier-promotion path — falls back to tree-walking that
// subtree rather than failing the whole program, per spec §4.9's "a node
// the compiler cannot lower simply never promotes past the interpreter
// tier."
type ErrUnsupported struct {
	Reason string
}

func (e *ErrUnsupported) Error() string { return "bytecode: unsupported: " + e.Reason }

func unsupported(format string, args ...any) error {
	return &ErrUnsupported{Reason: fmt.Sprintf(format, args...)}
}

// Compile lowers a bounded subset of statements to a Chunk: straight-line
// arithmetic/comparison expressions, plain identifier and property
// access, assignment, if/while/for, and return — the shapes spec §4.9
// calls out as the ones worth promoting past tree-walking. Anything else
// (destructuring, generators, try/catch, classes, spreads, closures
// capturing anything beyond simple identifiers) returns ErrUnsupported.
func Compile(body []ast.Statement) (*Chunk, error) {
	c := &Chunk{}
	for _, stmt := range body {
		if err := compileStatement(c, stmt); err != nil {
			return nil, err
		}
	}
	c.emit(OpHalt, 0)
	return c, nil
}

func compileStatement(c *Chunk, stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		if err := compileExpr(c, s.Expr); err != nil {
			return err
		}
		c.emit(OpPop, 0)
		return nil

	case *ast.VariableDeclaration:
		for _, d := range s.Declarations {
			id, ok := d.Target.(*ast.Identifier)
			if !ok {
				return unsupported("destructuring declarator")
			}
			if d.Init != nil {
				if err := compileExpr(c, d.Init); err != nil {
					return err
				}
			} else {
				c.emit(OpLoadConst, c.addConstant(undefinedConst()))
			}
			c.emit(OpStoreVar, c.nameIndex(id.Name))
			c.emit(OpPop, 0)
		}
		return nil

	case *ast.BlockStatement:
		for _, inner := range s.Body {
			if err := compileStatement(c, inner); err != nil {
				return err
			}
		}
		return nil

	case *ast.IfStatement:
		return compileIf(c, s)

	case *ast.WhileStatement:
		return compileWhile(c, s)

	case *ast.ForStatement:
		return compileFor(c, s)

	case *ast.ReturnStatement:
		if s.Argument != nil {
			if err := compileExpr(c, s.Argument); err != nil {
				return err
			}
		} else {
			c.emit(OpLoadConst, c.addConstant(undefinedConst()))
		}
		c.emit(OpReturn, 0)
		return nil

	case *ast.EmptyStatement:
		return nil

	default:
		return unsupported("statement kind %T", stmt)
	}
}

func compileIf(c *Chunk, s *ast.IfStatement) error {
	if err := compileExpr(c, s.Test); err != nil {
		return err
	}
	jz := c.emit(OpJumpIfFalse, 0)
	if err := compileStatement(c, s.Consequent); err != nil {
		return err
	}
	if s.Alternate == nil {
		c.patchJump(jz)
		return nil
	}
	jmp := c.emit(OpJump, 0)
	c.patchJump(jz)
	if err := compileStatement(c, s.Alternate); err != nil {
		return err
	}
	c.patchJump(jmp)
	return nil
}

func compileWhile(c *Chunk, s *ast.WhileStatement) error {
	top := len(c.Code)
	if err := compileExpr(c, s.Test); err != nil {
		return err
	}
	jz := c.emit(OpJumpIfFalse, 0)
	if err := compileStatement(c, s.Body); err != nil {
		return err
	}
	c.emit(OpJump, top)
	c.patchJump(jz)
	return nil
}

// compileFor lowers the common counted-loop shape `for (init; test; update)
// body`; break/continue and a missing clause are left to the interpreter
// (ErrUnsupported), matching spec §4.9's note that the bytecode tier only
// needs to cover the profitable common case, not every legal for-loop.
func compileFor(c *Chunk, s *ast.ForStatement) error {
	if s.Init == nil || s.Test == nil || s.Update == nil {
		return unsupported("for-statement with an omitted clause")
	}
	switch init := s.Init.(type) {
	case *ast.VariableDeclaration:
		if err := compileStatement(c, init); err != nil {
			return err
		}
	case ast.Expression:
		if err := compileExpr(c, init); err != nil {
			return err
		}
		c.emit(OpPop, 0)
	default:
		return unsupported("for-statement init kind %T", s.Init)
	}

	top := len(c.Code)
	if err := compileExpr(c, s.Test); err != nil {
		return err
	}
	jz := c.emit(OpJumpIfFalse, 0)
	if err := compileStatement(c, s.Body); err != nil {
		return err
	}
	if err := compileExpr(c, s.Update); err != nil {
		return err
	}
	c.emit(OpPop, 0)
	c.emit(OpJump, top)
	c.patchJump(jz)
	return nil
}

func compileExpr(c *Chunk, expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		c.emit(OpLoadConst, c.addConstant(numberConst(e.Value)))
		return nil

	case *ast.StringLiteral:
		c.emit(OpLoadConst, c.addConstant(stringConst(e.Value)))
		return nil

	case *ast.BooleanLiteral:
		c.emit(OpLoadConst, c.addConstant(boolConst(e.Value)))
		return nil

	case *ast.NullLiteral:
		c.emit(OpLoadConst, c.addConstant(nullConst()))
		return nil

	case *ast.UndefinedLiteral:
		c.emit(OpLoadConst, c.addConstant(undefinedConst()))
		return nil

	case *ast.Identifier:
		c.emit(OpLoadVar, c.nameIndex(e.Name))
		return nil

	case *ast.MemberExpression:
		if e.Computed || e.Optional {
			return unsupported("computed/optional member access")
		}
		prop, ok := e.Property.(*ast.Identifier)
		if !ok {
			return unsupported("non-identifier member property")
		}
		if err := compileExpr(c, e.Object); err != nil {
			return err
		}
		c.emit(OpLoadProp, c.nameIndex(prop.Name))
		return nil

	case *ast.UnaryExpression:
		if err := compileExpr(c, e.Argument); err != nil {
			return err
		}
		switch e.Operator {
		case ast.OpMinus:
			c.emit(OpNeg, 0)
		case ast.OpNot:
			c.emit(OpNot, 0)
		case ast.OpBitNot:
			c.emit(OpBitNot, 0)
		case ast.OpPlus:
			// unary + is ToNumber, which every binary op already performs
			// on its operands; nothing to emit.
		default:
			return unsupported("unary operator %q", e.Operator)
		}
		return nil

	case *ast.BinaryExpression:
		if err := compileExpr(c, e.Left); err != nil {
			return err
		}
		if err := compileExpr(c, e.Right); err != nil {
			return err
		}
		op, ok := binaryOp[e.Operator]
		if !ok {
			return unsupported("binary operator %q", e.Operator)
		}
		c.emit(op, 0)
		return nil

	case *ast.LogicalExpression:
		return compileLogical(c, e)

	case *ast.ConditionalExpression:
		if err := compileExpr(c, e.Test); err != nil {
			return err
		}
		jz := c.emit(OpJumpIfFalse, 0)
		if err := compileExpr(c, e.Consequent); err != nil {
			return err
		}
		jmp := c.emit(OpJump, 0)
		c.patchJump(jz)
		if err := compileExpr(c, e.Alternate); err != nil {
			return err
		}
		c.patchJump(jmp)
		return nil

	case *ast.AssignmentExpression:
		return compileAssignment(c, e)

	case *ast.CallExpression:
		for _, a := range e.Args {
			if _, spread := a.(*ast.SpreadElement); spread {
				return unsupported("spread call argument")
			}
			if err := compileExpr(c, a); err != nil {
				return err
			}
		}
		if err := compileExpr(c, e.Callee); err != nil {
			return err
		}
		c.emit(OpCall, len(e.Args))
		return nil

	default:
		return unsupported("expression kind %T", expr)
	}
}

var binaryOp = map[string]OpCode{
	"+":   OpAdd,
	"-":   OpSub,
	"*":   OpMul,
	"/":   OpDiv,
	"%":   OpMod,
	"**":  OpPow,
	"&":   OpBitAnd,
	"|":   OpBitOr,
	"^":   OpBitXor,
	"<<":  OpShl,
	">>":  OpShr,
	">>>": OpUShr,
	"==":  OpEq,
	"!=":  OpNeq,
	"===": OpStrictEq,
	"!==": OpStrictNeq,
	"<":   OpLt,
	"<=":  OpLe,
	">":   OpGt,
	">=":  OpGe,
}

// compileLogical lowers && / || with short-circuit jumps rather than
// folding them into a plain binary opcode, since (unlike BinaryExpression)
// the right operand must not evaluate at all when the left already
// decides the result (spec §4.5).
func compileLogical(c *Chunk, e *ast.LogicalExpression) error {
	if err := compileExpr(c, e.Left); err != nil {
		return err
	}
	switch e.Operator {
	case "&&":
		c.emit(OpDup, 0)
		j := c.emit(OpJumpIfFalse, 0)
		c.emit(OpPop, 0)
		if err := compileExpr(c, e.Right); err != nil {
			return err
		}
		c.patchJump(j)
		return nil
	case "||":
		c.emit(OpDup, 0)
		j := c.emit(OpJumpIfTrue, 0)
		c.emit(OpPop, 0)
		if err := compileExpr(c, e.Right); err != nil {
			return err
		}
		c.patchJump(j)
		return nil
	default:
		return unsupported("logical operator %q", e.Operator)
	}
}

func compileAssignment(c *Chunk, e *ast.AssignmentExpression) error {
	if e.Operator != "=" {
		return unsupported("compound assignment operator %q", e.Operator)
	}
	switch target := e.Target.(type) {
	case *ast.Identifier:
		if err := compileExpr(c, e.Value); err != nil {
			return err
		}
		c.emit(OpStoreVar, c.nameIndex(target.Name))
		return nil
	case *ast.MemberExpression:
		if target.Computed {
			return unsupported("computed assignment target")
		}
		prop, ok := target.Property.(*ast.Identifier)
		if !ok {
			return unsupported("non-identifier assignment target property")
		}
		if err := compileExpr(c, target.Object); err != nil {
			return err
		}
		if err := compileExpr(c, e.Value); err != nil {
			return err
		}
		c.emit(OpStoreProp, c.nameIndex(prop.Name))
		return nil
	default:
		return unsupported("assignment target kind %T", e.Target)
	}
}
