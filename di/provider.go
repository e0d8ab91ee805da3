package di

import "reflect"

// Provider hands out pointers to already-built values by type.
//
// Provide returns the stored *T as any. Callers normally use Get or MustGet.
// A *Context is a Provider; constructors receive a Provider scoped to their
// declared dependencies.
type Provider interface {
	Provide(id TypeID) (any, error)
}

// Get returns the value of type T held by p.
//
// It returns:
//   - MissingProviderError if p has no slot for T
//   - PrematureReadError if the slot exists but has not been built yet
//   - UndeclaredDependencyError if p is a constructor scope that did not declare T
//   - WrongTypeError if the provider returned something other than *T
func Get[T any](p Provider) (*T, error) {
	if p == nil {
		return nil, ErrNilProvider
	}
	id := TypeOf[T]()
	raw, err := p.Provide(id)
	if err != nil {
		return nil, err
	}
	v, ok := raw.(*T)
	if !ok || v == nil {
		got := "<nil>"
		if raw != nil {
			got = reflect.TypeOf(raw).String()
		}
		return nil, WrongTypeError{Type: id, GotType: got}
	}
	return v, nil
}

// MustGet returns the value of type T or panics with the error from Get.
func MustGet[T any](p Provider) *T {
	v, err := Get[T](p)
	if err != nil {
		panic(err)
	}
	return v
}

// scope is the Provider handed to a constructor. It only serves the types the
// constructor's declaration listed.
type scope struct {
	ctx   *Context
	owner TypeID
	deps  []TypeID
}

func (s scope) Provide(id TypeID) (any, error) {
	for _, d := range s.deps {
		if d == id {
			return s.ctx.Provide(id)
		}
	}
	return nil, UndeclaredDependencyError{Dependent: s.owner, Type: id}
}
