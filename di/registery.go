package di

import (
	"cmp"
	"fmt"
)

// TypeRegistry assigns every registered type a stable ordinal.
//
// It is intentionally:
// - explicit (each Schema owns one; there is no process-wide table)
// - append-only (ordinals never change once assigned)
//
// Ordinals follow first-registration order and give TypeIDs a total order.
type TypeRegistry struct {
	ordinals map[TypeID]int
	types    []TypeID
}

// NewTypeRegistry returns an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{ordinals: map[TypeID]int{}}
}

// Register records id and returns its ordinal. Registering twice returns the
// ordinal assigned the first time.
func (r *TypeRegistry) Register(id TypeID) int {
	if n, ok := r.ordinals[id]; ok {
		return n
	}
	n := len(r.types)
	r.ordinals[id] = n
	r.types = append(r.types, id)
	return n
}

// Ordinal returns the ordinal of id if present (no panic).
func (r *TypeRegistry) Ordinal(id TypeID) (int, bool) {
	n, ok := r.ordinals[id]
	return n, ok
}

// MustOrdinal returns the ordinal or panics with a helpful message.
func (r *TypeRegistry) MustOrdinal(id TypeID) int {
	n, ok := r.ordinals[id]
	if !ok {
		panic(fmt.Errorf("di: registry missing type %q", id.String()))
	}
	return n
}

// Len returns the number of registered types.
func (r *TypeRegistry) Len() int { return len(r.types) }

// Types returns the registered types in ordinal order.
func (r *TypeRegistry) Types() []TypeID {
	out := make([]TypeID, len(r.types))
	copy(out, r.types)
	return out
}

// Compare orders two TypeIDs by ordinal. A type seen for the first time is
// registered on the spot (a before b), so Compare returns 0 only for the same
// type, even when two distinct types print the same name.
//
// Like Register, Compare must not run concurrently with other registry calls.
func (r *TypeRegistry) Compare(a, b TypeID) int {
	na := r.Register(a)
	nb := r.Register(b)
	return cmp.Compare(na, nb)
}
