package di_test

import (
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sghaida/tinfoil/di"
)

//
// -----------------------------------------------------------------------------
// Scenarios
// -----------------------------------------------------------------------------

func TestNew_ABCScenario(t *testing.T) {
	t.Parallel()

	ctx, err := newABC().New(A{Value: "yo"})
	require.NoError(t, err)
	require.True(t, ctx.Sealed())

	a := di.MustGet[A](ctx)
	assert.Equal(t, "yo", a.Value)

	b, err := di.Get[B](ctx)
	require.NoError(t, err)
	c, err := di.Get[C](ctx)
	require.NoError(t, err)

	// values hold references to sibling slots, not copies
	assert.Same(t, a, b.A)
	assert.Same(t, a, c.A)
	assert.Same(t, b, c.B)
}

func TestNew_MutualCycle(t *testing.T) {
	t.Parallel()

	s := di.NewSchema()
	di.Derive[X](s)
	di.Derive[Y](s)

	ctx, err := s.New()
	require.Error(t, err)
	assert.Nil(t, ctx)
	assert.True(t, errors.Is(err, di.ErrCycle))

	var ce di.CycleError
	require.True(t, errors.As(err, &ce))
	require.Len(t, ce.Types, 3)
	assert.Equal(t, ce.Types[0], ce.Types[2])
	assert.ElementsMatch(t, []di.TypeID{di.TypeOf[X](), di.TypeOf[Y]()}, ce.Types[:2])
}

func TestNew_Cycles(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		declare func(s *di.Schema)
		wantLen int
	}{
		{
			name:    "self_cycle",
			declare: func(s *di.Schema) { di.Derive[Z](s) },
			wantLen: 2,
		},
		{
			name: "indirect_cycle_of_three",
			declare: func(s *di.Schema) {
				di.Computed[N1](s, di.TypeIDs(di.TypeOf[N2]()), func(di.Provider) (N1, error) { return N1{}, nil })
				di.Computed[N2](s, di.TypeIDs(di.TypeOf[N3]()), func(di.Provider) (N2, error) { return N2{}, nil })
				di.Computed[N3](s, di.TypeIDs(di.TypeOf[N1]()), func(di.Provider) (N3, error) { return N3{}, nil })
			},
			wantLen: 4,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := di.NewSchema()
			tc.declare(s)

			ctx, err := s.New()
			require.ErrorIs(t, err, di.ErrCycle)
			assert.Nil(t, ctx)

			var ce di.CycleError
			require.True(t, errors.As(err, &ce))
			assert.Len(t, ce.Types, tc.wantLen)
			assert.Equal(t, ce.Types[0], ce.Types[len(ce.Types)-1])
		})
	}
}

func TestCycleError_Message(t *testing.T) {
	t.Parallel()

	err := di.CycleError{Types: []di.TypeID{di.TypeOf[X](), di.TypeOf[Y](), di.TypeOf[X]()}}
	assert.Equal(t,
		"di: dependency cycle: github.com/sghaida/tinfoil/di_test.X -> github.com/sghaida/tinfoil/di_test.Y -> github.com/sghaida/tinfoil/di_test.X",
		err.Error())
	assert.Equal(t, "di: dependency cycle", di.CycleError{}.Error())
}

//
// -----------------------------------------------------------------------------
// Properties
// -----------------------------------------------------------------------------

// Every computed constructor runs exactly once per context.
func TestNew_EachComputedSlotFilledOnce(t *testing.T) {
	t.Parallel()

	calls := map[string]int{}
	s := di.NewSchema()
	di.Parameter[A](s)
	di.Computed[B](s, di.TypeIDs(di.TypeOf[A]()), func(p di.Provider) (B, error) {
		calls["B"]++
		a, err := di.Get[A](p)
		return B{A: a}, err
	})
	di.Computed[C](s, di.TypeIDs(di.TypeOf[A](), di.TypeOf[B]()), func(p di.Provider) (C, error) {
		calls["C"]++
		a, err := di.Get[A](p)
		if err != nil {
			return C{}, err
		}
		b, err := di.Get[B](p)
		return C{A: a, B: b}, err
	})

	_, err := s.New(A{Value: "x"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"B": 1, "C": 1}, calls)

	_, err = s.New(A{Value: "y"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"B": 2, "C": 2}, calls)
}

func TestNew_IndependentContexts(t *testing.T) {
	t.Parallel()

	s := newABC()
	c1, err := s.New(A{Value: "yo"})
	require.NoError(t, err)
	c2, err := s.New(A{Value: "yo"})
	require.NoError(t, err)

	assert.NotEqual(t, c1.ID(), c2.ID())

	a1, a2 := di.MustGet[A](c1), di.MustGet[A](c2)
	assert.Equal(t, *a1, *a2)
	assert.NotSame(t, a1, a2)

	// mutating one context's value does not leak into the other
	a1.Value = "changed"
	assert.Equal(t, "yo", a2.Value)
	assert.Equal(t, "yo", di.MustGet[C](c2).A.Value)
}

type registration func(s *di.Schema, shuffle func([]di.TypeID) []di.TypeID)

func orderingRegistrations() []registration {
	get := func(p di.Provider, id string) string {
		switch id {
		case "a":
			return di.MustGet[A](p).Value
		case "n1":
			return di.MustGet[N1](p).S
		case "n2":
			return di.MustGet[N2](p).S
		case "n3":
			return di.MustGet[N3](p).S
		case "n4":
			return di.MustGet[N4](p).S
		}
		panic("unknown id " + id)
	}

	return []registration{
		func(s *di.Schema, sh func([]di.TypeID) []di.TypeID) {
			di.Computed[N1](s, sh(di.TypeIDs(di.TypeOf[A]())), func(p di.Provider) (N1, error) {
				return N1{S: "n1(" + get(p, "a") + ")"}, nil
			})
		},
		func(s *di.Schema, sh func([]di.TypeID) []di.TypeID) {
			di.Computed[N2](s, sh(di.TypeIDs(di.TypeOf[N1]())), func(p di.Provider) (N2, error) {
				return N2{S: "n2(" + get(p, "n1") + ")"}, nil
			})
		},
		func(s *di.Schema, sh func([]di.TypeID) []di.TypeID) {
			di.Computed[N3](s, sh(di.TypeIDs(di.TypeOf[N1](), di.TypeOf[N2]())), func(p di.Provider) (N3, error) {
				return N3{S: "n3(" + get(p, "n1") + "," + get(p, "n2") + ")"}, nil
			})
		},
		func(s *di.Schema, sh func([]di.TypeID) []di.TypeID) {
			di.Computed[N4](s, sh(di.TypeIDs(di.TypeOf[N3]())), func(p di.Provider) (N4, error) {
				return N4{S: "n4(" + get(p, "n3") + ")"}, nil
			})
		},
		func(s *di.Schema, sh func([]di.TypeID) []di.TypeID) {
			di.Computed[N5](s, sh(di.TypeIDs(di.TypeOf[N2](), di.TypeOf[N4](), di.TypeOf[A]())), func(p di.Provider) (N5, error) {
				return N5{S: "n5(" + get(p, "n2") + "," + get(p, "n4") + "," + get(p, "a") + ")"}, nil
			})
		},
	}
}

// Permuting declarations and dependency lists never changes the result, and no
// constructor ever sees an unfilled dependency (MustGet would panic).
func TestNew_OrderIndependence(t *testing.T) {
	t.Parallel()

	const want = "n5(n2(n1(yo)),n4(n3(n1(yo),n2(n1(yo)))),yo)"

	rng := rand.New(rand.NewSource(42))
	shuffle := func(ids []di.TypeID) []di.TypeID {
		rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		return ids
	}

	for round := 0; round < 30; round++ {
		regs := orderingRegistrations()
		rng.Shuffle(len(regs), func(i, j int) { regs[i], regs[j] = regs[j], regs[i] })

		s := di.NewSchema()
		paramAt := rng.Intn(len(regs) + 1)
		for i, reg := range regs {
			if i == paramAt {
				di.Parameter[A](s)
			}
			reg(s, shuffle)
		}
		if paramAt == len(regs) {
			di.Parameter[A](s)
		}

		ctx, err := s.New(A{Value: "yo"})
		require.NoError(t, err, "round %d", round)
		assert.Equal(t, want, di.MustGet[N5](ctx).S, "round %d", round)
	}
}

// Sealed contexts are read concurrently without synchronization.
func TestContext_ConcurrentReads(t *testing.T) {
	t.Parallel()

	ctx, err := newABC().New(A{Value: "yo"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := di.Get[C](ctx)
			if err != nil {
				errs <- err
				return
			}
			if c.B.A.Value != "yo" {
				errs <- errors.New("unexpected value " + c.B.A.Value)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

//
// -----------------------------------------------------------------------------
// Parameters and defaults
// -----------------------------------------------------------------------------

func TestNew_ParameterErrors(t *testing.T) {
	t.Parallel()

	s := newABC()

	_, err := s.New()
	var pc di.ParameterCountError
	require.True(t, errors.As(err, &pc))
	assert.Equal(t, di.ParameterCountError{Want: 1, Got: 0}, pc)
	assert.Equal(t, "di: want 1 parameters, got 0", err.Error())

	_, err = s.New("yo")
	var pt di.ParameterTypeError
	require.True(t, errors.As(err, &pt))
	assert.Equal(t, 0, pt.Index)
	assert.Equal(t, di.TypeOf[A](), pt.Want)
	assert.Equal(t, "string", pt.GotType)

	_, err = s.New(nil)
	require.True(t, errors.As(err, &pt))
	assert.Equal(t, "<nil>", pt.GotType)
}

type Namer interface{ Name() string }

type fixedName string

func (f fixedName) Name() string { return string(f) }

func TestNew_InterfaceAndNilableParameters(t *testing.T) {
	t.Parallel()

	s := di.NewSchema()
	di.Parameter[Namer](s)
	di.Parameter[*A](s)

	ctx, err := s.New(fixedName("svc"), nil)
	require.NoError(t, err)

	n := di.MustGet[Namer](ctx)
	assert.Equal(t, "svc", (*n).Name())
	assert.Nil(t, *di.MustGet[*A](ctx))
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	s := di.NewSchema()
	di.Default[Port](s, nil)
	di.Default[N1](s, func() N1 { return N1{S: "default"} })
	di.Default[N2](s, nil)
	di.Parameter[A](s)
	di.Declare[Greeter](s)

	ctx, err := s.New(A{Value: "hi"})
	require.NoError(t, err)

	assert.Equal(t, uint64(32), di.MustGet[Port](ctx).N)
	assert.Equal(t, "default", di.MustGet[N1](ctx).S)
	assert.Equal(t, "", di.MustGet[N2](ctx).S)
	assert.Equal(t, "hi:", di.MustGet[Greeter](ctx).Greeting)

	kind, ok := ctx.Kind(di.TypeOf[Port]())
	require.True(t, ok)
	assert.Equal(t, di.KindDefault, kind)
}

//
// -----------------------------------------------------------------------------
// Error taxonomy
// -----------------------------------------------------------------------------

func TestNew_MissingProvider(t *testing.T) {
	t.Parallel()

	s := di.NewSchema()
	di.Derive[B](s)

	_, err := s.New()
	var mp di.MissingProviderError
	require.True(t, errors.As(err, &mp))
	assert.Equal(t, di.TypeOf[A](), mp.Type)
	assert.Equal(t, di.TypeOf[B](), mp.Dependent)
	assert.Contains(t, err.Error(), "required by")
}

func TestNew_UndeclaredDependency(t *testing.T) {
	t.Parallel()

	s := di.NewSchema()
	di.Parameter[A](s)
	di.Computed[B](s, nil, func(p di.Provider) (B, error) {
		a, err := di.Get[A](p)
		return B{A: a}, err
	})

	_, err := s.New(A{})
	var ud di.UndeclaredDependencyError
	require.True(t, errors.As(err, &ud))
	assert.Equal(t, di.TypeOf[B](), ud.Dependent)
	assert.Equal(t, di.TypeOf[A](), ud.Type)

	var ce di.ConstructError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, di.TypeOf[B](), ce.Type)
}

func TestNew_ConstructorErrorAndPanic(t *testing.T) {
	t.Parallel()

	t.Run("error", func(t *testing.T) {
		t.Parallel()

		s := di.NewSchema()
		di.Computed[N1](s, nil, func(di.Provider) (N1, error) { return N1{}, errBoom })

		ctx, err := s.New()
		assert.Nil(t, ctx)
		require.ErrorIs(t, err, errBoom)
		assert.Contains(t, err.Error(), "di: construct")
	})

	t.Run("panic_with_error", func(t *testing.T) {
		t.Parallel()

		s := di.NewSchema()
		di.Computed[N1](s, nil, func(di.Provider) (N1, error) { panic(errBoom) })

		_, err := s.New()
		require.ErrorIs(t, err, di.ErrConstructorPanic)
		require.ErrorIs(t, err, errBoom)

		var cp di.ConstructorPanicError
		require.True(t, errors.As(err, &cp))
		assert.Equal(t, di.TypeOf[N1](), cp.Type)
	})

	t.Run("panic_with_string", func(t *testing.T) {
		t.Parallel()

		s := di.NewSchema()
		di.Computed[N1](s, nil, func(di.Provider) (N1, error) { panic("nope") })

		_, err := s.New()
		require.ErrorIs(t, err, di.ErrConstructorPanic)
		assert.Contains(t, err.Error(), "nope")
	})
}

// A failing constructor stops the walk: later constructors never run.
func TestNew_AbortsOnFirstFailure(t *testing.T) {
	t.Parallel()

	ran := false
	s := di.NewSchema()
	di.Computed[N1](s, nil, func(di.Provider) (N1, error) { return N1{}, errBoom })
	di.Computed[N2](s, di.TypeIDs(di.TypeOf[N1]()), func(di.Provider) (N2, error) {
		ran = true
		return N2{}, nil
	})

	_, err := s.New()
	require.ErrorIs(t, err, errBoom)
	assert.False(t, ran)
}

func TestMustNew_Panics(t *testing.T) {
	t.Parallel()

	s := di.NewSchema()
	di.Derive[Z](s)

	assert.Panics(t, func() { _ = s.MustNew() })
	assert.NotPanics(t, func() { _ = newABC().MustNew(A{}) })
}

//
// -----------------------------------------------------------------------------
// Dot / logging
// -----------------------------------------------------------------------------

func TestSchema_Dot(t *testing.T) {
	t.Parallel()

	dot, err := newABC().Dot()
	require.NoError(t, err)
	assert.Contains(t, dot, `0 [ label = "root" ]`)
	assert.Contains(t, dot, `label = "github.com/sghaida/tinfoil/di_test.C"`)
	// C (node 1) depends on B (node 2)
	assert.Contains(t, dot, "1 -> 2 [ ]")
	assert.Contains(t, dot, "0 -> 1 [ ]")

	s := di.NewSchema()
	di.Derive[Z](s)
	_, err = s.Dot()
	require.ErrorIs(t, err, di.ErrCycle)
}

func TestNew_LogsSlotFills(t *testing.T) {
	t.Parallel()

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.TraceLevel)

	s := di.NewSchema(di.WithLogger(logger), di.WithFields(logrus.Fields{"component": "test"}))
	di.Parameter[A](s)
	di.Derive[B](s)

	ctx, err := s.New(A{Value: "yo"})
	require.NoError(t, err)

	var filled, graph bool
	for _, e := range hook.AllEntries() {
		assert.Equal(t, ctx.ID().String(), e.Data["context_id"])
		assert.Equal(t, "test", e.Data["component"])
		switch e.Message {
		case "di: slot filled":
			filled = true
			assert.Equal(t, di.TypeOf[B]().String(), e.Data["type"])
			assert.Equal(t, "computed", e.Data["kind"])
		case "di: dependency graph":
			graph = true
			assert.Contains(t, e.Data["graph"], "digraph")
		}
	}
	assert.True(t, filled)
	assert.True(t, graph)
}

func TestNewSchema_FieldsSurviveLoggerOption(t *testing.T) {
	t.Parallel()

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	s := di.NewSchema(
		di.WithFields(logrus.Fields{"app": "x", "component": "a"}),
		di.WithLogger(logger),
		di.WithFields(logrus.Fields{"component": "b"}),
	)
	di.Parameter[A](s)

	_, err := s.New(A{Value: "yo"})
	require.NoError(t, err)

	require.NotEmpty(t, hook.AllEntries())
	last := hook.LastEntry()
	assert.Equal(t, "di: context sealed", last.Message)
	assert.Equal(t, "x", last.Data["app"])
	assert.Equal(t, "b", last.Data["component"])
}
