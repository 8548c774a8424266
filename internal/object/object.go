// Package object implements the Object/Shape/PropertyDescriptor model of
// spec §3/§4.2: prototype-based records with a hidden-class property
// layout, grounded on ShapeOptimization.cpp's shape-cache and the
// teacher's map-based, memoized registries (ClassInfo/InterfaceInfo in
// internal/interp/class.go).
package object

import (
	"sort"
	"strconv"
	"sync/atomic"

	"github.com/solarbrowser/quanta/internal/value"
)

// Kind is the object-type tag from spec §3/§9's tagged-variant design:
// it replaces deep inheritance (Object <- Array/Function/Promise/...)
// with a single tag plus per-kind method tables.
type Kind uint8

const (
	Ordinary Kind = iota
	Array
	Function
	Arguments
	PromiseKind
	ErrorKind
	RegExpKind
	MapKind
	SetKind
	WeakMapKind
	WeakSetKind
	ArrayBufferKind
	TypedArrayKind
	Custom
)

// Descriptor is a property descriptor: either a data descriptor (Value +
// attributes) or an accessor descriptor (getter/setter + attributes).
// Exactly one of (has a slot via the Shape) or (lives in Overflow) holds
// the descriptor at a time; see Object.Get/Set.
type Descriptor struct {
	Value   value.Value
	Getter  value.Value // callable Object, or Undefined
	Setter  value.Value // callable Object, or Undefined
	Attrs   Attribute
	IsAccessor bool
}

var refSeq uint64

func nextRefID() uint64 { return atomic.AddUint64(&refSeq, 1) }

// NativeCall is the host function contract of spec §6: a host function is
// (context, args) -> value. Call is deliberately untyped on ctx/value here
// (via `any`) to avoid an import cycle with internal/context; callers type
// assert to *context.Context.
type NativeCall func(ctx any, this value.Value, args []value.Value) (value.Value, error)

// Object is a prototype-based record: a Shape pointer plus a dense slot
// vector parallel to the shape's layout, an optional overflow descriptor
// map for accessors/non-default attributes/deleted slots, and a
// prototype pointer.
type Object struct {
	id        uint64
	shape     *Shape
	slots     []value.Value // parallel to shape.OwnKeys(); nil entry means "see overflow"
	overflow  map[string]*Descriptor // present once the object enters dictionary mode, or for accessors
	dict      bool                   // true once delete/attribute-change drops the fast path
	dictOrder []string               // insertion order of dict-mode keys (needed once overflow is authoritative)

	Proto      *Object
	KindTag    Kind
	Class      string // e.g. "Array", "TypeError" — used by instanceof/toString
	Extensible bool
	Sealed     bool
	Frozen     bool

	// Array-only fast path (spec §4.2 "writing past length-1 updates
	// length"); ported from the original's fast_array flag, kept distinct
	// from dictionary mode.
	ArrayFastPath bool
	Elements      []value.Value

	// Function-only fields (spec §4.6); nil unless KindTag == Function.
	Native  NativeCall
	IsCtor  bool
	IsArrow bool

	// ArrayBuffer/TypedArray-only payload (spec SPEC_FULL §4 supplement).
	Bytes []byte

	// Internal is an ECMAScript-style internal slot: packages above object
	// (function, promise) stash their own state here (e.g. *function.Closure,
	// *promise.State) so object need not import them. Opaque to this package.
	Internal any
}

// New allocates a fresh ordinary object rooted at RootShape with the given
// prototype. The Engine/arena is responsible for retaining the returned
// pointer; Object itself does no bookkeeping beyond its own fields.
func New(proto *Object) *Object {
	return &Object{
		id:         nextRefID(),
		shape:      RootShape,
		Proto:      proto,
		KindTag:    Ordinary,
		Extensible: true,
	}
}

// NewTagged allocates an object of the given Kind (Array, Function, ...).
func NewTagged(proto *Object, kind Kind) *Object {
	o := New(proto)
	o.KindTag = kind
	if kind == Array {
		o.ArrayFastPath = true
	}
	return o
}

func (o *Object) RefID() uint64    { return o.id }
func (o *Object) IsCallable() bool { return o.KindTag == Function }

// CallHook and TypeErrorHook are wired by internal/function and
// internal/errors respectively at engine construction time, letting
// Object.Get/Set invoke accessor functions and raise TypeError without an
// import cycle (internal/function needs *Object for the closure's
// receiver and prototype slot, so it cannot be imported here).
var (
	CallHook      func(ctx any, fn value.Value, this value.Value, args []value.Value) (value.Value, error)
	TypeErrorHook func(format string, args ...any) error
)

// Get implements spec §4.2's property-read algorithm: walk the own shape,
// fall back to the overflow map, then the prototype chain, returning
// Undefined at the end of the chain.
func (o *Object) Get(ctx any, key string, receiver value.Value) (value.Value, error) {
	for cur := o; cur != nil; cur = cur.Proto {
		if d, ok := cur.ownDescriptor(key); ok {
			if d.IsAccessor {
				if d.Getter.IsCallable() {
					return callFunction(ctx, d.Getter, receiver, nil)
				}
				return value.Undefined(), nil
			}
			return d.Value, nil
		}
	}
	return value.Undefined(), nil
}

// ownDescriptor looks up key on this object only (no prototype walk),
// consulting the shape's slot table first and the overflow map second.
func (o *Object) ownDescriptor(key string) (*Descriptor, bool) {
	if o.dict {
		d, ok := o.overflow[key]
		return d, ok
	}
	if slot, attrs, ok := o.shape.Lookup(key); ok {
		if slot < len(o.slots) {
			if d, over := o.overflowFor(key); over {
				return d, true
			}
			return &Descriptor{Value: o.slots[slot], Attrs: attrs}, true
		}
	}
	if o.overflow != nil {
		if d, ok := o.overflow[key]; ok {
			return d, true
		}
	}
	return nil, false
}

func (o *Object) overflowFor(key string) (*Descriptor, bool) {
	if o.overflow == nil {
		return nil, false
	}
	d, ok := o.overflow[key]
	return d, ok
}

// Set implements spec §4.2's property-write algorithm: look up the own
// slot first; if absent, walk the prototype chain only to detect an
// inherited accessor or non-writable property that blocks assignment.
// strict selects whether a blocked write throws (true) or is silently
// ignored (false).
func (o *Object) Set(ctx any, key string, v value.Value, receiver value.Value, strict bool) error {
	if d, ok := o.ownDescriptor(key); ok {
		if d.IsAccessor {
			if d.Setter.IsCallable() {
				_, err := callFunction(ctx, d.Setter, receiver, []value.Value{v})
				return err
			}
			return blockedWrite(strict, "Cannot set property %q which has only a getter", key)
		}
		if !d.Attrs.Has(Writable) {
			return blockedWrite(strict, "Cannot assign to read only property %q", key)
		}
		o.writeOwn(key, v)
		return nil
	}

	for cur := o.Proto; cur != nil; cur = cur.Proto {
		if d, ok := cur.ownDescriptor(key); ok {
			if d.IsAccessor {
				if d.Setter.IsCallable() {
					_, err := callFunction(ctx, d.Setter, receiver, []value.Value{v})
					return err
				}
				return blockedWrite(strict, "Cannot set property %q which has only a getter", key)
			}
			if !d.Attrs.Has(Writable) {
				return blockedWrite(strict, "Cannot assign to read only property %q", key)
			}
			break
		}
	}

	if !o.Extensible {
		return blockedWrite(strict, "Cannot add property %q, object is not extensible", key)
	}
	o.defineOwn(key, v, DefaultDataAttrs)
	return nil
}

func blockedWrite(strict bool, format string, args ...any) error {
	if !strict {
		return nil
	}
	return typeError(format, args...)
}

func callFunction(ctx any, fn value.Value, this value.Value, args []value.Value) (value.Value, error) {
	if CallHook == nil {
		return value.Undefined(), nil
	}
	return CallHook(ctx, fn, this, args)
}

func typeError(format string, args ...any) error {
	if TypeErrorHook == nil {
		return &fallbackError{msg: "TypeError"}
	}
	return TypeErrorHook(format, args...)
}

type fallbackError struct{ msg string }

func (e *fallbackError) Error() string { return e.msg }

// writeOwn overwrites an existing own slot (data descriptor path).
func (o *Object) writeOwn(key string, v value.Value) {
	if o.dict {
		o.overflow[key].Value = v
		return
	}
	if slot, _, ok := o.shape.Lookup(key); ok && slot < len(o.slots) {
		o.slots[slot] = v
		return
	}
	if o.overflow != nil {
		if d, ok := o.overflow[key]; ok {
			d.Value = v
		}
	}
}

// defineOwn creates a brand-new own data property, transitioning the
// shape to a cached child shape (spec §4.2's "On successful new-property
// creation the shape transitions to a cached child shape").
func (o *Object) defineOwn(key string, v value.Value, attrs Attribute) {
	if o.dict {
		o.overflow[key] = &Descriptor{Value: v, Attrs: attrs}
		o.dictOrder = append(o.dictOrder, key)
		return
	}
	o.shape = o.shape.Transition(key, attrs)
	o.slots = append(o.slots, v)
}

// DefineAccessor installs an accessor descriptor for key, dropping the
// object into dictionary mode (spec §4.2: "Deletions and attribute
// changes fall off the fast path").
func (o *Object) DefineAccessor(key string, getter, setter value.Value, attrs Attribute) {
	o.enterDictMode()
	o.overflow[key] = &Descriptor{Getter: getter, Setter: setter, Attrs: attrs, IsAccessor: true}
	if !containsString(o.dictOrder, key) {
		o.dictOrder = append(o.dictOrder, key)
	}
}

// DefineDataWithAttrs installs (or overwrites) a data property with
// explicit attributes, used by built-ins for non-default attribute
// combinations (e.g. Writable-only constants, non-enumerable length).
func (o *Object) DefineDataWithAttrs(key string, v value.Value, attrs Attribute) {
	if !o.dict {
		if _, ok := o.shape.Lookup(key); ok && attrs == DefaultDataAttrs {
			o.writeOwn(key, v)
			return
		}
		if attrs == DefaultDataAttrs {
			o.defineOwn(key, v, attrs)
			return
		}
	}
	o.enterDictMode()
	o.overflow[key] = &Descriptor{Value: v, Attrs: attrs}
	if !containsString(o.dictOrder, key) {
		o.dictOrder = append(o.dictOrder, key)
	}
}

// Delete removes an own property. Returns false (blocking deletion) if the
// property is non-configurable; true otherwise (including when the
// property did not exist, per typeof's non-throwing-miss convention).
func (o *Object) Delete(key string) bool {
	if d, ok := o.ownDescriptor(key); ok {
		if !d.Attrs.Has(Configurable) {
			return false
		}
	} else {
		return true
	}
	o.enterDictMode()
	delete(o.overflow, key)
	for i, k := range o.dictOrder {
		if k == key {
			o.dictOrder = append(o.dictOrder[:i], o.dictOrder[i+1:]...)
			break
		}
	}
	return true
}

// enterDictMode migrates all current shape-backed slots into the overflow
// map and marks the object dictionary-mode, after which the overflow map
// is authoritative (spec §4.2/§9).
func (o *Object) enterDictMode() {
	if o.dict {
		return
	}
	o.overflow = make(map[string]*Descriptor)
	keys := o.shape.OwnKeys()
	o.dictOrder = make([]string, 0, len(keys))
	for i, k := range keys {
		if i < len(o.slots) {
			o.overflow[k] = &Descriptor{Value: o.slots[i], Attrs: DefaultDataAttrs}
			o.dictOrder = append(o.dictOrder, k)
		}
	}
	o.dict = true
	o.slots = nil
}

// HasOwn reports whether key is an own property.
func (o *Object) HasOwn(key string) bool {
	_, ok := o.ownDescriptor(key)
	return ok
}

// OwnAttrs returns the attribute bits of an own property, for callers
// (Object.keys/Object.values/for-in) that need to filter on Enumerable
// without reaching into the Descriptor directly.
func (o *Object) OwnAttrs(key string) (Attribute, bool) {
	d, ok := o.ownDescriptor(key)
	if !ok {
		return 0, false
	}
	return d.Attrs, true
}

// Has walks the prototype chain.
func (o *Object) Has(key string) bool {
	for cur := o; cur != nil; cur = cur.Proto {
		if cur.HasOwn(key) {
			return true
		}
	}
	return false
}

// OwnPropertyKeys implements spec §4.2's OrdinaryOwnPropertyKeys order:
// integer-like keys ascending, then string keys insertion order, then
// symbol keys (symbols are out of scope for string-keyed Objects here —
// Symbol-keyed properties are tracked separately by callers that need
// them, e.g. well-known symbols on built-in prototypes).
func (o *Object) OwnPropertyKeys() []string {
	var all []string
	if o.dict {
		all = append(all, o.dictOrder...)
	} else {
		all = append(all, o.shape.OwnKeys()...)
	}

	var ints, strs []string
	for _, k := range all {
		if isArrayIndex(k) {
			ints = append(ints, k)
		} else {
			strs = append(strs, k)
		}
	}
	sort.Slice(ints, func(i, j int) bool {
		ni, _ := strconv.ParseUint(ints[i], 10, 64)
		nj, _ := strconv.ParseUint(ints[j], 10, 64)
		return ni < nj
	})
	return append(ints, strs...)
}

func isArrayIndex(s string) bool {
	if s == "" {
		return false
	}
	if s == "0" {
		return true
	}
	if s[0] == '0' {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	_, err := strconv.ParseUint(s, 10, 32)
	return err == nil
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// PreventExtensions / Seal / Freeze are monotonic per spec §4.2: once set
// they can never be relaxed.
func (o *Object) PreventExtensions() { o.Extensible = false }

func (o *Object) Seal() {
	o.PreventExtensions()
	if o.Sealed {
		return
	}
	o.Sealed = true
	o.enterDictMode()
	for _, d := range o.overflow {
		d.Attrs &^= Configurable
	}
}

func (o *Object) Freeze() {
	o.Seal()
	if o.Frozen {
		return
	}
	o.Frozen = true
	for _, d := range o.overflow {
		if !d.IsAccessor {
			d.Attrs &^= Writable
		}
	}
}

// Length returns the Array fast-path length, i.e. len(Elements).
func (o *Object) Length() int {
	if o.ArrayFastPath {
		return len(o.Elements)
	}
	return 0
}

// SetLength implements spec §4.2's Array length-write semantics: writing
// length truncates elements above the new length, and is a no-op
// extending-wise (growth happens through indexed writes, not SetLength).
func (o *Object) SetLength(n int) {
	if !o.ArrayFastPath {
		return
	}
	if n < len(o.Elements) {
		o.Elements = o.Elements[:n]
	}
}

// SetIndex writes an Array element, growing Elements (and thus Length)
// when index >= current length, per spec §4.2 "writing past length-1 on
// an Array updates length".
func (o *Object) SetIndex(index int, v value.Value) {
	if index < 0 {
		return
	}
	if index >= len(o.Elements) {
		grown := make([]value.Value, index+1)
		copy(grown, o.Elements)
		for i := len(o.Elements); i < index; i++ {
			grown[i] = value.Undefined()
		}
		o.Elements = grown
	}
	o.Elements[index] = v
}

func (o *Object) GetIndex(index int) (value.Value, bool) {
	if index < 0 || index >= len(o.Elements) {
		return value.Undefined(), false
	}
	return o.Elements[index], true
}
