package di

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrCycle is wrapped by CycleError.
	ErrCycle = errors.New("di: dependency cycle")

	// ErrConstructorPanic is wrapped by ConstructorPanicError.
	ErrConstructorPanic = errors.New("di: constructor panicked")

	// ErrNilProvider is returned by Get when the provider is nil.
	ErrNilProvider = errors.New("di: nil provider")
)

// SlotKind classifies a context slot.
type SlotKind int

const (
	// KindParameter slots are supplied by the caller of Schema.New.
	KindParameter SlotKind = iota + 1
	// KindDefault slots are built from a default function with no dependencies.
	KindDefault
	// KindComputed slots are built by the engine from a constructor.
	KindComputed
)

func (k SlotKind) String() string {
	switch k {
	case KindParameter:
		return "parameter"
	case KindDefault:
		return "default"
	case KindComputed:
		return "computed"
	default:
		return "unknown"
	}
}

// CycleError is returned by Schema.New when the computed declarations contain a
// cycle. Types is closed and follows dependency direction, e.g. [X Y X] for
// X depending on Y depending on X.
type CycleError struct{ Types []TypeID }

// Error implements the error interface.
func (e CycleError) Error() string {
	// Example: di: dependency cycle: app.X -> app.Y -> app.X
	if len(e.Types) == 0 {
		return ErrCycle.Error()
	}
	parts := make([]string, len(e.Types))
	for i, id := range e.Types {
		parts[i] = id.String()
	}
	return ErrCycle.Error() + ": " + strings.Join(parts, " -> ")
}

// Unwrap returns ErrCycle.
func (e CycleError) Unwrap() error { return ErrCycle }

// UnknownTypeError indicates a graph node with no registered constructor.
// It means the graph and the constructor table diverged; it is never caused by
// user declarations. Type is zero when the node maps to no type at all.
type UnknownTypeError struct {
	Node int
	Type TypeID
}

// Error implements the error interface.
func (e UnknownTypeError) Error() string {
	msg := "di: graph node " + strconv.Itoa(e.Node)
	if !e.Type.IsZero() {
		msg += " (" + strconv.Quote(e.Type.String()) + ")"
	}
	return msg + " has no registered constructor"
}

// PrematureReadError is returned when a computed slot is read before the engine
// has filled it.
type PrematureReadError struct{ Type TypeID }

// Error implements the error interface.
func (e PrematureReadError) Error() string {
	return "di: " + strconv.Quote(e.Type.String()) + " read before it was constructed"
}

// AlreadyFilledError is returned when a slot would be written a second time.
type AlreadyFilledError struct{ Type TypeID }

// Error implements the error interface.
func (e AlreadyFilledError) Error() string {
	return "di: " + strconv.Quote(e.Type.String()) + " already filled"
}

// MissingProviderError is returned when no slot exists for a type.
//
// Dependent is set when the missing type was named in a dependency list.
type MissingProviderError struct {
	Type      TypeID
	Dependent TypeID
}

// Error implements the error interface.
func (e MissingProviderError) Error() string {
	// Example: di: no provider for "app.DB" (required by "app.Repo")
	msg := "di: no provider for " + strconv.Quote(e.Type.String())
	if !e.Dependent.IsZero() {
		msg += " (required by " + strconv.Quote(e.Dependent.String()) + ")"
	}
	return msg
}

// UndeclaredDependencyError is returned when a constructor asks its provider for
// a type missing from its dependency list.
type UndeclaredDependencyError struct {
	Dependent TypeID
	Type      TypeID
}

// Error implements the error interface.
func (e UndeclaredDependencyError) Error() string {
	return "di: " + strconv.Quote(e.Dependent.String()) + " did not declare a dependency on " + strconv.Quote(e.Type.String())
}

// WrongTypeError is returned when a provider hands back a value that is not a *T.
type WrongTypeError struct {
	Type TypeID

	// GotType is reflect.TypeOf(raw).String() for the provided value.
	GotType string
}

// Error implements the error interface.
func (e WrongTypeError) Error() string {
	return "di: provider for " + strconv.Quote(e.Type.String()) + " returned wrong type (" + e.GotType + ")"
}

// DuplicateTypeError is returned when a type is declared twice in one schema.
type DuplicateTypeError struct {
	Type     TypeID
	Existing SlotKind
}

// Error implements the error interface.
func (e DuplicateTypeError) Error() string {
	return "di: " + strconv.Quote(e.Type.String()) + " already declared as " + e.Existing.String()
}

// InvalidDeclarationError is returned for malformed declarations (nil constructor,
// zero TypeID in a dependency list, unsupported derive target, ...).
type InvalidDeclarationError struct {
	Type   TypeID
	Reason string
}

// Error implements the error interface.
func (e InvalidDeclarationError) Error() string {
	return "di: invalid declaration for " + strconv.Quote(e.Type.String()) + ": " + e.Reason
}

// ParameterCountError is returned when Schema.New gets the wrong number of parameters.
type ParameterCountError struct{ Want, Got int }

// Error implements the error interface.
func (e ParameterCountError) Error() string {
	return "di: want " + strconv.Itoa(e.Want) + " parameters, got " + strconv.Itoa(e.Got)
}

// ParameterTypeError is returned when a parameter does not match its declared type.
type ParameterTypeError struct {
	Index   int
	Want    TypeID
	GotType string
}

// Error implements the error interface.
func (e ParameterTypeError) Error() string {
	return "di: parameter " + strconv.Itoa(e.Index) + ": want " + strconv.Quote(e.Want.String()) + ", got " + e.GotType
}

// ConstructError wraps an error returned by a constructor.
type ConstructError struct {
	Type TypeID
	Err  error
}

// Error implements the error interface.
func (e ConstructError) Error() string {
	return "di: construct " + strconv.Quote(e.Type.String()) + ": " + e.Err.Error()
}

// Unwrap returns the constructor error.
func (e ConstructError) Unwrap() error { return e.Err }

// ConstructorPanicError is returned when a constructor panics.
//
// It matches ErrConstructorPanic and, when the panic value is an error, that
// error as well.
type ConstructorPanicError struct {
	Type  TypeID
	Value any
}

// Error implements the error interface.
func (e ConstructorPanicError) Error() string {
	return ErrConstructorPanic.Error() + ": " + strconv.Quote(e.Type.String()) + ": " + fmt.Sprint(e.Value)
}

// Unwrap exposes ErrConstructorPanic and the panic value if it is an error.
func (e ConstructorPanicError) Unwrap() []error {
	if err, ok := e.Value.(error); ok {
		return []error{ErrConstructorPanic, err}
	}
	return []error{ErrConstructorPanic}
}
