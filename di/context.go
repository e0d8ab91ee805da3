package di

import "github.com/google/uuid"

// Context owns the slots of one initialization.
//
// A Context is only ever returned fully built and sealed: every parameter,
// default and computed slot is filled and no method mutates it afterwards, so
// it is safe for concurrent reads without locking.
type Context struct {
	id     uuid.UUID
	slots  map[TypeID]*slot
	order  []TypeID
	sealed bool
}

func newContext(size int) *Context {
	return &Context{
		id:    uuid.New(),
		slots: make(map[TypeID]*slot, size),
		order: make([]TypeID, 0, size),
	}
}

// add registers an empty slot. Declarations are deduplicated by Schema, so a
// second add for the same id never happens.
func (c *Context) add(id TypeID, kind SlotKind) *slot {
	s := &slot{id: id, kind: kind}
	c.slots[id] = s
	c.order = append(c.order, id)
	return s
}

// ID returns the unique identifier of this context instance.
func (c *Context) ID() uuid.UUID { return c.id }

// Provide implements Provider.
func (c *Context) Provide(id TypeID) (any, error) {
	s, ok := c.slots[id]
	if !ok {
		return nil, MissingProviderError{Type: id}
	}
	return s.read()
}

// Has reports whether the context has a slot for id.
func (c *Context) Has(id TypeID) bool {
	_, ok := c.slots[id]
	return ok
}

// Kind returns the slot kind for id.
func (c *Context) Kind(id TypeID) (SlotKind, bool) {
	s, ok := c.slots[id]
	if !ok {
		return 0, false
	}
	return s.kind, true
}

// Types returns the slot types in declaration order.
func (c *Context) Types() []TypeID {
	out := make([]TypeID, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of slots.
func (c *Context) Len() int { return len(c.order) }

// Sealed reports whether initialization has completed.
func (c *Context) Sealed() bool { return c.sealed }
