package di_test

import (
	"errors"
	"strings"

	"github.com/sghaida/tinfoil/di"
)

// A wraps the string parameter; B depends on A; C depends on A and B.
type A struct{ Value string }

type B struct{ A *A }

type C struct {
	A *A
	B *B
}

// Port has a custom default.
type Port struct{ N uint64 }

func (p *Port) SetDefaults() { p.N = 32 }

// Greeter self-reports its dependencies.
type Greeter struct {
	Greeting string
}

func (Greeter) Dependencies() []di.TypeID {
	return di.TypeIDs(di.TypeOf[A](), di.TypeOf[Port]())
}

func (Greeter) Instantiate(p di.Provider) (Greeter, error) {
	a, err := di.Get[A](p)
	if err != nil {
		return Greeter{}, err
	}
	port, err := di.Get[Port](p)
	if err != nil {
		return Greeter{}, err
	}
	return Greeter{Greeting: a.Value + ":" + strings.Repeat("!", int(port.N%4))}, nil
}

// X and Y depend on each other.
type X struct{ Y *Y }

type Y struct{ X *X }

// Z depends on itself.
type Z struct{ Z *Z }

// N1..N5 form a small diamond-shaped graph used by ordering tests.
type (
	N1 struct{ S string }
	N2 struct{ S string }
	N3 struct{ S string }
	N4 struct{ S string }
	N5 struct{ S string }
)

var errBoom = errors.New("boom")

// newABC returns the canonical A/B/C schema using Derive.
func newABC() *di.Schema {
	s := di.NewSchema()
	di.Parameter[A](s)
	di.Derive[C](s)
	di.Derive[B](s)
	return s
}
