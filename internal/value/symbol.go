package value

import "github.com/google/uuid"

// Symbol is a unique, optionally-described value used as a property key or
// opaque token (Symbol.iterator, Symbol.toPrimitive, ...). Grounded on
// funvibe-funxy's use of google/uuid for host-allocated unique ids,
// generalized from that example's request/session-id use to Symbol's
// ECMAScript requirement that every Symbol() call produce a value no
// other Symbol, ever, compares equal to — a plain incrementing counter
// would satisfy that within one process; a uuid key is also unique
// across processes.
type Symbol struct {
	Description string
	key         string
}

// NewSymbol allocates a fresh, globally-unique Symbol.
func NewSymbol(description string) *Symbol {
	return &Symbol{Description: description, key: uuid.NewString()}
}

// Key returns the Symbol's unique identity string, used by HashKey as the
// Map/Set hashing key and by well-known-symbol registries that need a
// stable string rather than pointer identity.
func (s *Symbol) Key() string { return s.key }

func (s *Symbol) String() string {
	return "Symbol(" + s.Description + ")"
}
