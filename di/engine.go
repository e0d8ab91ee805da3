package di

import (
	"errors"
	"reflect"

	"github.com/sirupsen/logrus"

	"github.com/sghaida/tinfoil/internal/dag"
)

// plan is the dependency graph of the computed declarations.
type plan struct {
	g     *dag.Graph
	root  dag.NodeID
	nodes map[TypeID]dag.NodeID
	types map[dag.NodeID]TypeID
}

// plan builds the graph: one node per computed type, a synthetic root pointing
// at every node, and an edge dependent -> dependency for every computed
// dependency. Parameter and default dependencies need no edge; they are filled
// at allocation.
func (s *Schema) plan() (*plan, error) {
	p := &plan{
		g:     dag.New(),
		nodes: map[TypeID]dag.NodeID{},
		types: map[dag.NodeID]TypeID{},
	}
	p.root = p.g.AddNode()

	for _, d := range s.decls {
		if d.kind != KindComputed {
			continue
		}
		n := p.g.AddNode()
		p.nodes[d.id] = n
		p.types[n] = d.id
		if err := p.g.AddEdge(p.root, n); err != nil {
			return nil, err
		}
	}

	for _, d := range s.decls {
		if d.kind != KindComputed {
			continue
		}
		for _, dep := range d.deps {
			target, ok := s.byID[dep]
			if !ok {
				return nil, MissingProviderError{Type: dep, Dependent: d.id}
			}
			if target.kind != KindComputed {
				continue
			}
			if err := p.g.AddEdge(p.nodes[d.id], p.nodes[dep]); err != nil {
				return nil, p.translate(err)
			}
		}
	}
	return p, nil
}

func (p *plan) translate(err error) error {
	var ce *dag.CycleError
	if !errors.As(err, &ce) {
		return err
	}
	ids := make([]TypeID, 0, len(ce.Path))
	for _, n := range ce.Path {
		ids = append(ids, p.types[n])
	}
	return CycleError{Types: ids}
}

func (p *plan) label(n dag.NodeID) string {
	if n == p.root {
		return "root"
	}
	return p.types[n].String()
}

// Dot renders the dependency graph of the computed declarations in Graphviz
// DOT format. It fails with the same errors New would (cycles, missing providers).
func (s *Schema) Dot() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	p, err := s.plan()
	if err != nil {
		return "", err
	}
	return p.g.Dot(p.label), nil
}

// New builds a fully initialized, sealed Context.
//
// params must hold exactly one value per Parameter declaration, in declaration
// order. New either returns a complete context or an error; a partially built
// context is never returned.
//
// Construction order: parameters and defaults are stored first, then computed
// slots are built in post-order of the dependency graph, so every computed
// dependency is filled before the constructor that declared it runs.
func (s *Schema) New(params ...any) (*Context, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(params) != len(s.params) {
		return nil, ParameterCountError{Want: len(s.params), Got: len(params)}
	}

	ctx := newContext(len(s.decls))
	log := s.log.WithField("context_id", ctx.id.String())

	next := 0
	for _, d := range s.decls {
		sl := ctx.add(d.id, d.kind)
		switch d.kind {
		case KindParameter:
			ptr, err := parameterPointer(next, d.id, params[next])
			if err != nil {
				return nil, err
			}
			next++
			if err := sl.fill(ptr); err != nil {
				return nil, err
			}
		case KindDefault:
			ptr, err := construct(ctx, d)
			if err != nil {
				return nil, err
			}
			if err := sl.fill(ptr); err != nil {
				return nil, err
			}
		}
	}

	p, err := s.plan()
	if err != nil {
		return nil, err
	}
	if log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		log.WithField("graph", p.g.Dot(p.label)).Trace("di: dependency graph")
	}

	w := p.g.Walk(p.root)
	for n, ok := w.Next(); ok; n, ok = w.Next() {
		if n == p.root {
			continue
		}
		id, known := p.types[n]
		d := s.byID[id]
		if !known || d == nil || d.build == nil {
			return nil, UnknownTypeError{Node: int(n), Type: id}
		}

		ptr, err := construct(ctx, d)
		if err != nil {
			return nil, err
		}
		if err := ctx.slots[id].fill(ptr); err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{"type": id.String(), "kind": d.kind.String()}).Debug("di: slot filled")
	}

	ctx.sealed = true
	log.WithField("slots", ctx.Len()).Debug("di: context sealed")
	return ctx, nil
}

// MustNew is like New but panics on error.
func (s *Schema) MustNew(params ...any) *Context {
	ctx, err := s.New(params...)
	if err != nil {
		panic(err)
	}
	return ctx
}

// construct runs a declaration's build function with a scoped provider and
// converts panics into ConstructorPanicError.
func construct(ctx *Context, d *declaration) (ptr any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ptr = nil
			err = ConstructorPanicError{Type: d.id, Value: rec}
		}
	}()

	ptr, err = d.build(scope{ctx: ctx, owner: d.id, deps: d.deps})
	if err != nil {
		return nil, ConstructError{Type: d.id, Err: err}
	}
	return ptr, nil
}

// parameterPointer copies a caller-supplied parameter into a fresh *T.
func parameterPointer(index int, id TypeID, param any) (any, error) {
	rt := id.Type()
	v := reflect.New(rt)

	if param == nil {
		switch rt.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return v.Interface(), nil
		default:
			return nil, ParameterTypeError{Index: index, Want: id, GotType: "<nil>"}
		}
	}

	pv := reflect.ValueOf(param)
	if pv.Type() != rt && !(rt.Kind() == reflect.Interface && pv.Type().Implements(rt)) {
		return nil, ParameterTypeError{Index: index, Want: id, GotType: pv.Type().String()}
	}
	v.Elem().Set(pv)
	return v.Interface(), nil
}
