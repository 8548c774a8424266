//go:build amd64

// Cache is the node-keyed table of compiled native-code entries the
// interpreter's evalBinary (through tryNativeBinary) consults once the
// profiler promotes a node to TierMachineCode. One Cache is owned by one
// Interpreter, mirroring Profiler's own one-per-engine lifetime.
package jit

import (
	"sync"

	"github.com/solarbrowser/quanta/internal/ast"
)

type Cache struct {
	mu      sync.Mutex
	entries map[ast.Node]*Entry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[ast.Node]*Entry)}
}

// Get returns node's compiled entry, if any.
func (c *Cache) Get(node ast.Node) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[node]
	return e, ok
}

// CompileBinary compiles and caches n's native pattern, or returns the
// ErrUnsupported that blocked it. A failed compile is not cached (store
// ignores a nil entry), so a later call for the same node compiles again.
func (c *Cache) CompileBinary(n *ast.BinaryExpression) (*Entry, error) {
	e, err := CompileBinary(n)
	c.store(n, e)
	return e, err
}

func (c *Cache) CompileUnary(n *ast.UnaryExpression) (*Entry, error) {
	e, err := CompileUnary(n)
	c.store(n, e)
	return e, err
}

func (c *Cache) CompileLogical(n *ast.LogicalExpression) (*Entry, error) {
	e, err := CompileLogical(n)
	c.store(n, e)
	return e, err
}

func (c *Cache) store(node ast.Node, e *Entry) {
	if e == nil {
		return
	}
	c.mu.Lock()
	c.entries[node] = e
	c.mu.Unlock()
}

// Invalidate frees and forgets node's compiled entry — the deopt path
// spec §4.10 describes ("the compiled code is freed, the profile records
// a deopt").
func (c *Cache) Invalidate(node ast.Node) {
	c.mu.Lock()
	e, ok := c.entries[node]
	delete(c.entries, node)
	c.mu.Unlock()
	if ok && e != nil {
		_ = e.Free()
	}
}
