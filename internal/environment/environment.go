// Package environment implements the lexical/variable scope chains of
// spec §3/§4.3, adapted from internal/interp/runtime's case-insensitive
// single-chain Environment into the two-chain, binding-kind-aware model
// ECMAScript scoping needs: a variable environment for `var`/function
// hoisting and a lexical environment for `let`/`const`/block scope.
package environment

import (
	"github.com/solarbrowser/quanta/internal/errors"
	"github.com/solarbrowser/quanta/internal/value"
)

// BindingKind distinguishes var/let/const for the rules of spec §4.3:
// redeclaration checks, TDZ, and assignment to immutable bindings.
type BindingKind uint8

const (
	KindVar BindingKind = iota
	KindLet
	KindConst
	KindFunction // function declarations: var-scoped but hoisted with a value
)

type binding struct {
	value    value.Value
	kind     BindingKind
	inTDZ    bool // true between block entry and the declarator's initializer running
}

// Environment is one scope in a chain: either a variable environment
// (function/global, holds `var`) or a lexical environment (block, holds
// `let`/`const`). Each Context tracks its own pair of chains per spec §4.3.
type Environment struct {
	names  map[string]*binding
	order  []string // declaration order, used by pre-scan diagnostics
	outer  *Environment
	isVar  bool // true for a variable environment, false for lexical
}

// NewVariableEnvironment creates a root variable environment (function or
// global scope), enclosed by outer (nil for the global scope).
func NewVariableEnvironment(outer *Environment) *Environment {
	return &Environment{names: make(map[string]*binding), outer: outer, isVar: true}
}

// NewLexicalEnvironment creates a block-scoped lexical environment
// enclosed by outer.
func NewLexicalEnvironment(outer *Environment) *Environment {
	return &Environment{names: make(map[string]*binding), outer: outer, isVar: false}
}

// CreateBinding declares name in this environment. Redeclaring a name
// already present in THIS environment is a SyntaxError-kind failure
// unless both declarations are `var` (spec §3's "Declaring a binding
// twice in the same lexical environment fails ... unless both are var").
func (e *Environment) CreateBinding(name string, v value.Value, kind BindingKind) error {
	if existing, ok := e.names[name]; ok {
		if kind == KindVar && existing.kind == KindVar {
			existing.value = v
			return nil
		}
		return errors.New(errors.KindSyntax, "Identifier %q has already been declared", name)
	}
	e.names[name] = &binding{value: v, kind: kind, inTDZ: kind == KindLet || kind == KindConst}
	e.order = append(e.order, name)
	return nil
}

// CreateTDZBinding pre-declares a let/const name with no value, marking it
// in the temporal dead zone until its declarator runs (spec §4.5's
// BlockStatement pre-scan).
func (e *Environment) CreateTDZBinding(name string, kind BindingKind) error {
	return e.CreateBinding(name, value.Undefined(), kind)
}

// InitializeBinding clears the TDZ flag and assigns the declarator's
// initial value; called when a let/const declarator's initializer
// finishes evaluating.
func (e *Environment) InitializeBinding(name string, v value.Value) {
	if b, ok := e.names[name]; ok {
		b.value = v
		b.inTDZ = false
	}
}

// GetBinding looks up name, walking outward through this environment's
// chain only; there is no separate lookup that combines two chains.
// Accessing a let/const binding still in its TDZ is a ReferenceError
// (spec §4.3).
func (e *Environment) GetBinding(name string) (v value.Value, found bool, err error) {
	for cur := e; cur != nil; cur = cur.outer {
		if b, ok := cur.names[name]; ok {
			if b.inTDZ {
				return value.Undefined(), true, errors.New(errors.KindReference,
					"Cannot access %q before initialization", name)
			}
			return b.value, true, nil
		}
	}
	return value.Undefined(), false, nil
}

// HasBinding reports whether name is bound anywhere in this chain,
// including TDZ-pending bindings (used by hoisting pre-scans).
func (e *Environment) HasBinding(name string) bool {
	for cur := e; cur != nil; cur = cur.outer {
		if _, ok := cur.names[name]; ok {
			return true
		}
	}
	return false
}

// HasOwnBinding reports whether name is bound in THIS environment only.
func (e *Environment) HasOwnBinding(name string) bool {
	_, ok := e.names[name]
	return ok
}

// SetBinding assigns to an existing binding, walking outward. Writing to a
// const (or otherwise immutable) binding is a TypeError (spec §4.3).
func (e *Environment) SetBinding(name string, v value.Value) error {
	for cur := e; cur != nil; cur = cur.outer {
		if b, ok := cur.names[name]; ok {
			if b.inTDZ {
				return errors.New(errors.KindReference, "Cannot access %q before initialization", name)
			}
			if b.kind == KindConst {
				return errors.New(errors.KindType, "Assignment to constant variable %q", name)
			}
			b.value = v
			return nil
		}
	}
	return errors.New(errors.KindReference, "%s is not defined", name)
}

// DeleteBinding removes name from THIS environment only, returning
// whether a binding was removed. `var`/`let`/`const` bindings are never
// configurable in ECMAScript so callers (the `delete` operator) should
// treat this as a no-op for identifier deletes; DeleteBinding exists for
// completeness of spec §4.3's binding-operation list and is used
// internally when a `catch` binding's scope is torn down.
func (e *Environment) DeleteBinding(name string) bool {
	if _, ok := e.names[name]; !ok {
		return false
	}
	delete(e.names, name)
	for i, n := range e.order {
		if n == name {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return true
}

// Outer returns the enclosing environment in this chain, or nil at the root.
func (e *Environment) Outer() *Environment { return e.outer }

// IsVariableEnvironment reports whether this is a variable (var-hosting)
// environment as opposed to a lexical (let/const) one.
func (e *Environment) IsVariableEnvironment() bool { return e.isVar }

// Names returns the declared names of this environment in declaration order.
func (e *Environment) Names() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}
