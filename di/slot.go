package di

// slot is a write-once cell holding a *T behind an erased interface.
//
// A slot starts empty (computed kinds) or filled (parameters and defaults).
// Once filled, the pointer never changes, so references handed out by Get stay
// valid for the lifetime of the owning Context.
type slot struct {
	id     TypeID
	kind   SlotKind
	ptr    any
	filled bool
}

func (s *slot) fill(ptr any) error {
	if s.filled {
		return AlreadyFilledError{Type: s.id}
	}
	s.ptr = ptr
	s.filled = true
	return nil
}

func (s *slot) read() (any, error) {
	if !s.filled {
		return nil, PrematureReadError{Type: s.id}
	}
	return s.ptr, nil
}
