// Package di builds initialization contexts from static dependency declarations.
//
// A Schema describes every slot of a context:
//
//   - Parameter[T]: supplied by the caller of Schema.New, in declaration order
//   - Default[T]:   built from a default function (or the zero value) with no dependencies
//   - Computed[T]:  built by the engine from a constructor and a declared dependency list
//
// Schema.New allocates the context, builds the dependency graph of computed slots,
// rejects cycles, and runs constructors in topological order (dependencies first).
// Each constructor receives a Provider scoped to the dependencies it declared, so a
// constructor can never observe an empty slot or reach a type it did not declare.
//
// After New returns, the Context is sealed: it has no mutating API and may be read
// concurrently. Values are stored behind stable pointers, so a value may hold
// *T references to sibling slots for the lifetime of the context.
//
// Declaration styles
//
//   - Computed: explicit dependency list + constructor closure
//   - Declare:  the type implements Dependency[T] and reports its own dependencies
//   - Derive:   a struct whose exported pointer fields are its dependencies
//
// Example
//
//	s := di.NewSchema()
//	di.Parameter[Greeting](s)
//	di.Derive[Greeter](s)
//
//	ctx, err := s.New(Greeting("yo"))
//	if err != nil {
//		return err
//	}
//	g := di.MustGet[Greeter](ctx)
//
// Import
//
//	"github.com/sghaida/tinfoil/di"
package di
