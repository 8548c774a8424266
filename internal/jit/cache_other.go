//go:build !amd64

package jit

import "github.com/solarbrowser/quanta/internal/ast"

// ResultKind/Entry mirror the amd64 build's shapes (see patterns.go) so
// callers outside this package — internal/interpreter in particular —
// can be written once against a single API regardless of target
// architecture. Entry is never actually produced on this build: Cache's
// Get/CompileXxx always report a miss, so these methods exist only to
// satisfy the type checker and are never reached at runtime.
type ResultKind int

const (
	ResultNumber ResultKind = iota
	ResultBoolean
)

type Entry struct {
	Arity  int
	Result ResultKind
}

func (e *Entry) Call(args ...float64) uint64     { panic("jit: native codegen is amd64-only") }
func (e *Entry) CallNumber(args ...float64) float64 { panic("jit: native codegen is amd64-only") }
func (e *Entry) CallBool(args ...float64) bool   { panic("jit: native codegen is amd64-only") }
func (e *Entry) Free() error                     { return nil }

type Cache struct{}

func NewCache() *Cache { return &Cache{} }

func (c *Cache) Get(node ast.Node) (*Entry, bool) { return nil, false }

func (c *Cache) CompileBinary(n *ast.BinaryExpression) (*Entry, error) {
	return nil, &ErrUnsupported{Reason: "native codegen is amd64-only"}
}

func (c *Cache) CompileUnary(n *ast.UnaryExpression) (*Entry, error) {
	return nil, &ErrUnsupported{Reason: "native codegen is amd64-only"}
}

func (c *Cache) CompileLogical(n *ast.LogicalExpression) (*Entry, error) {
	return nil, &ErrUnsupported{Reason: "native codegen is amd64-only"}
}

func (c *Cache) Invalidate(node ast.Node) {}

// ErrUnsupported mirrors the amd64 build's error type so callers can
// type-switch on it regardless of architecture.
type ErrUnsupported struct{ Reason string }

func (e *ErrUnsupported) Error() string { return "jit: unsupported: " + e.Reason }
