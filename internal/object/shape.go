package object

import "sync"

// Attribute flags a property's writable/enumerable/configurable bits
// (spec §3 PropertyDescriptor, §4.2).
type Attribute uint8

const (
	Writable Attribute = 1 << iota
	Enumerable
	Configurable
)

// DefaultDataAttrs is the default attribute set for user-created
// properties: Writable|Enumerable|Configurable.
const DefaultDataAttrs = Writable | Enumerable | Configurable

func (a Attribute) Has(flag Attribute) bool { return a&flag != 0 }

// transitionKey is the (parent shape, property key, attributes) triple
// that the process-wide transition table memoizes (spec §4.2/§9, grounded
// on ShapeOptimization.cpp's shape-cache).
type transitionKey struct {
	parent *Shape
	key    string
	attrs  Attribute
}

// transitionTable is the process-global, insert-only memoization of shape
// transitions: two objects following the same sequence of property
// additions converge on the same Shape, which is what makes monomorphic
// inline caches possible. Entries are never removed or mutated once
// inserted — only ever added — matching spec §9's "pure memoization"
// requirement.
var transitionTable = struct {
	mu    sync.Mutex
	edges map[transitionKey]*Shape
}{edges: make(map[transitionKey]*Shape)}

// Shape is a hidden class: an ordered list of (key, attributes, slot)
// triples shared by every object that was built through the same sequence
// of property additions.
type Shape struct {
	parent *Shape
	key    string    // property key that produced this shape from parent (root: "")
	attrs  Attribute // attributes that key was defined with
	slot   int       // slot index of key, or -1 for the root
	depth  int       // number of properties in this shape, i.e. slot+1
	// children indexes shapes reached by adding ONE more property to this
	// shape; kept alongside the global transitionTable for fast local
	// lookup without the table's mutex on the hot path.
	children map[string]*Shape
	// order lists keys in declaration order for this shape's lineage,
	// lazily built the first time OwnKeys is needed.
	cachedKeys []string
}

// RootShape is the empty shape every new ordinary object starts from.
var RootShape = &Shape{slot: -1, children: make(map[string]*Shape)}

// Lookup finds (slot, attrs, ok) for key by walking this shape's lineage
// from itself back to the root. This is the "walk the own-shape's slot
// table" step of spec §4.2's get algorithm.
func (s *Shape) Lookup(key string) (slot int, attrs Attribute, ok bool) {
	for cur := s; cur != nil && cur.slot >= 0; cur = cur.parent {
		if cur.key == key {
			return cur.slot, cur.attrs, true
		}
	}
	return 0, 0, false
}

// Has reports whether key exists anywhere in this shape's lineage.
func (s *Shape) Has(key string) bool {
	_, _, ok := s.Lookup(key)
	return ok
}

// Transition returns the (possibly newly created) child shape for adding
// key with attrs, reusing a cached transition when one already exists for
// this exact (shape, key, attrs) triple.
func (s *Shape) Transition(key string, attrs Attribute) *Shape {
	if child, ok := s.children[key]; ok && child.attrs == attrs {
		return child
	}

	tk := transitionKey{parent: s, key: key, attrs: attrs}
	transitionTable.mu.Lock()
	defer transitionTable.mu.Unlock()

	if child, ok := transitionTable.edges[tk]; ok {
		if s.children == nil {
			s.children = make(map[string]*Shape)
		}
		s.children[key] = child
		return child
	}

	child := &Shape{
		parent: s,
		key:    key,
		attrs:  attrs,
		slot:   s.depth,
		depth:  s.depth + 1,
	}
	transitionTable.edges[tk] = child
	if s.children == nil {
		s.children = make(map[string]*Shape)
	}
	s.children[key] = child
	return child
}

// OwnKeys returns the shape's lineage keys in declaration order (oldest
// first), memoized on the shape since shapes are immutable once created.
func (s *Shape) OwnKeys() []string {
	if s.cachedKeys != nil {
		return s.cachedKeys
	}
	keys := make([]string, s.depth)
	for cur := s; cur != nil && cur.slot >= 0; cur = cur.parent {
		keys[cur.slot] = cur.key
	}
	s.cachedKeys = keys
	return keys
}

// Depth returns the number of properties described by this shape.
func (s *Shape) Depth() int { return s.depth }
