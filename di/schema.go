package di

import (
	"reflect"

	"github.com/sirupsen/logrus"
)

// declaration is one slot description.
//
// build returns a *T for defaults and computed slots; parameters have no build.
type declaration struct {
	id    TypeID
	kind  SlotKind
	deps  []TypeID
	build func(p Provider) (any, error)
}

// Schema is the static declaration set a Context is built from.
//
// Declarations are registered once at startup with Parameter, Default, Computed,
// Declare or Derive. Registration errors are sticky: the first one is kept,
// reported by Err, and returned by every call to New.
//
// A Schema may be used to build any number of independent contexts. Registration
// must not run concurrently with New.
type Schema struct {
	types  *TypeRegistry
	decls  []*declaration
	byID   map[TypeID]*declaration
	params []*declaration
	logger *logrus.Logger
	fields logrus.Fields
	log    *logrus.Entry
	err    error
}

// Option configures a Schema.
type Option func(*Schema)

// WithLogger sets the logger used for construction diagnostics.
// Slot fills are logged at debug level, the dependency graph at trace level.
func WithLogger(l *logrus.Logger) Option {
	return func(s *Schema) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFields adds fields to every log entry emitted by the schema. Fields from
// several WithFields options are merged; later values win. The order relative
// to WithLogger does not matter.
func WithFields(fields logrus.Fields) Option {
	return func(s *Schema) {
		for k, v := range fields {
			s.fields[k] = v
		}
	}
}

// NewSchema returns an empty schema. Options are applied in order.
func NewSchema(opts ...Option) *Schema {
	s := &Schema{
		types:  NewTypeRegistry(),
		byID:   map[TypeID]*declaration{},
		logger: logrus.StandardLogger(),
		fields: logrus.Fields{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.log = logrus.NewEntry(s.logger).WithFields(s.fields)
	return s
}

// Err returns the first registration error, if any.
func (s *Schema) Err() error { return s.err }

// Registry returns the type registry; ordinals follow declaration order.
func (s *Schema) Registry() *TypeRegistry { return s.types }

// Types returns the declared types in declaration order.
func (s *Schema) Types() []TypeID {
	out := make([]TypeID, len(s.decls))
	for i, d := range s.decls {
		out[i] = d.id
	}
	return out
}

// Kind returns the slot kind declared for id.
func (s *Schema) Kind(id TypeID) (SlotKind, bool) {
	d, ok := s.byID[id]
	if !ok {
		return 0, false
	}
	return d.kind, true
}

// Dependencies returns the dependency list declared for id.
// Parameters and defaults have none.
func (s *Schema) Dependencies(id TypeID) ([]TypeID, bool) {
	d, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	out := make([]TypeID, len(d.deps))
	copy(out, d.deps)
	return out, true
}

// Parameters returns the parameter types in the order New expects them.
func (s *Schema) Parameters() []TypeID {
	out := make([]TypeID, len(s.params))
	for i, d := range s.params {
		out[i] = d.id
	}
	return out
}

func (s *Schema) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *Schema) declare(d *declaration) {
	if existing, ok := s.byID[d.id]; ok {
		s.fail(DuplicateTypeError{Type: d.id, Existing: existing.kind})
		return
	}
	for _, dep := range d.deps {
		if dep.IsZero() {
			s.fail(InvalidDeclarationError{Type: d.id, Reason: "zero TypeID in dependency list"})
			return
		}
	}
	s.types.Register(d.id)
	s.decls = append(s.decls, d)
	s.byID[d.id] = d
	if d.kind == KindParameter {
		s.params = append(s.params, d)
	}
}

// Defaulter is implemented by types that fill their own defaults. Default calls
// SetDefaults on the zero value when no default function is given.
type Defaulter interface {
	SetDefaults()
}

// Parameter declares a slot for T supplied by the caller of New.
// Parameters are passed to New in the order they were declared.
func Parameter[T any](s *Schema) {
	s.declare(&declaration{id: TypeOf[T](), kind: KindParameter})
}

// Default declares a slot for T built without dependencies.
//
// If fn is nil, the slot holds the zero value of T, with SetDefaults applied
// when *T implements Defaulter.
func Default[T any](s *Schema, fn func() T) {
	s.declare(&declaration{
		id:   TypeOf[T](),
		kind: KindDefault,
		build: func(Provider) (any, error) {
			v := new(T)
			if fn != nil {
				*v = fn()
				return v, nil
			}
			if d, ok := any(v).(Defaulter); ok {
				d.SetDefaults()
			}
			return v, nil
		},
	})
}

// Computed declares a slot for T built by ctor.
//
// deps lists every type ctor reads from its Provider. A dependency may be a
// parameter, a default or another computed type; computed dependencies are
// always built before ctor runs.
func Computed[T any](s *Schema, deps []TypeID, ctor func(p Provider) (T, error)) {
	id := TypeOf[T]()
	if ctor == nil {
		s.fail(InvalidDeclarationError{Type: id, Reason: "nil constructor"})
		return
	}
	s.declare(&declaration{
		id:   id,
		kind: KindComputed,
		deps: append([]TypeID(nil), deps...),
		build: func(p Provider) (any, error) {
			v, err := ctor(p)
			if err != nil {
				return nil, err
			}
			return &v, nil
		},
	})
}

// Dependency is implemented by types that report their own dependencies and
// know how to build themselves from a Provider.
//
// Both methods are called on the zero value of T, so they must not rely on
// receiver state.
type Dependency[T any] interface {
	Dependencies() []TypeID
	Instantiate(p Provider) (T, error)
}

// Declare declares a computed slot for a type implementing Dependency.
func Declare[T Dependency[T]](s *Schema) {
	var zero T
	Computed[T](s, zero.Dependencies(), zero.Instantiate)
}

// Derive declares a computed slot for struct type T whose exported fields are
// all pointers to other declared types.
//
// Each exported field of type *X becomes a dependency on X and is set to the
// value returned by Get[X]. Unexported fields are left at their zero value.
func Derive[T any](s *Schema) {
	id := TypeOf[T]()
	rt := id.Type()
	if rt.Kind() != reflect.Struct {
		s.fail(InvalidDeclarationError{Type: id, Reason: "derive target must be a struct, got " + rt.Kind().String()})
		return
	}

	var (
		fields []int
		deps   []TypeID
	)
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Type.Kind() != reflect.Pointer {
			s.fail(InvalidDeclarationError{Type: id, Reason: "field " + f.Name + " must be a pointer, got " + f.Type.String()})
			return
		}
		fields = append(fields, i)
		deps = append(deps, TypeID{rt: f.Type.Elem()})
	}

	s.declare(&declaration{
		id:   id,
		kind: KindComputed,
		deps: deps,
		build: func(p Provider) (any, error) {
			v := reflect.New(rt)
			for i, idx := range fields {
				raw, err := p.Provide(deps[i])
				if err != nil {
					return nil, err
				}
				v.Elem().Field(idx).Set(reflect.ValueOf(raw))
			}
			return v.Interface(), nil
		},
	})
}
