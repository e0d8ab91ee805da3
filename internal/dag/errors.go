package dag

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrCycle is the sentinel wrapped by every CycleError.
	ErrCycle = errors.New("dag: cycle detected")

	// ErrUnknownNode is returned when a NodeID was not allocated by the graph.
	ErrUnknownNode = errors.New("dag: unknown node")
)

// CycleError is returned by AddEdge when the edge would close a cycle.
//
// Path is closed: it starts and ends with the same node, e.g. [a b c a]
// for the rejected edge a -> b when b already reaches a through c.
type CycleError struct {
	Path []NodeID
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	if e == nil || len(e.Path) == 0 {
		return ErrCycle.Error()
	}
	parts := make([]string, len(e.Path))
	for i, n := range e.Path {
		parts[i] = strconv.Itoa(int(n))
	}
	return ErrCycle.Error() + ": " + strings.Join(parts, " -> ")
}

// Unwrap returns ErrCycle.
func (e *CycleError) Unwrap() error { return ErrCycle }
