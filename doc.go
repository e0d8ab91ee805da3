// Package tinfoil builds object graphs whose construction order is derived from
// the dependencies each type declares.
//
// A context is declared once as a di.Schema with three kinds of slots:
//
//   - parameter: supplied by the caller of Schema.New, in declaration order
//   - default:   built from a function or the zero value (plus SetDefaults)
//   - computed:  built by a constructor from a Provider that serves the
//     declared dependencies
//
// Schema.New orders the computed slots topologically, rejects cycles before any
// constructor runs, and returns a sealed, read-only di.Context. Values are
// stored behind stable pointers, so a value may keep *T references to the
// values it was built from.
//
// Layout:
//   - di: schema, context, provider and instantiation engine
//   - internal/dag: the dependency graph (cycle-checked edges, post-order walk)
//   - cmd/tinfoilgen: generates a typed context wrapper from a YAML/JSON description
//   - examples/greeting: a generated context
//   - examples/app: an HTTP service whose router and server are computed slots
package tinfoil
