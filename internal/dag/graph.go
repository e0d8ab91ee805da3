package dag

import (
	"strconv"
	"strings"
)

// NodeID is a handle returned by AddNode. Handles are dense, starting at 0.
type NodeID int

// Graph is a write-once, read-many directed acyclic graph.
//
// It is not safe for concurrent mutation. Once construction is finished the
// graph may be read from multiple goroutines.
type Graph struct {
	out   [][]NodeID
	edges int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{}
}

// AddNode allocates a new node. It always succeeds.
func (g *Graph) AddNode() NodeID {
	g.out = append(g.out, nil)
	return NodeID(len(g.out) - 1)
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.out) }

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int { return g.edges }

// Contains reports whether n was allocated by this graph.
func (g *Graph) Contains(n NodeID) bool {
	return n >= 0 && int(n) < len(g.out)
}

// Successors returns the nodes n points at, in insertion order.
func (g *Graph) Successors(n NodeID) []NodeID {
	if !g.Contains(n) {
		return nil
	}
	out := make([]NodeID, len(g.out[n]))
	copy(out, g.out[n])
	return out
}

// HasEdge reports whether the edge from -> to exists.
func (g *Graph) HasEdge(from, to NodeID) bool {
	if !g.Contains(from) {
		return false
	}
	for _, m := range g.out[from] {
		if m == to {
			return true
		}
	}
	return false
}

// AddEdge inserts the directed edge from -> to.
//
// It fails with *CycleError if to already reaches from (including from == to),
// leaving the graph unchanged. Inserting an existing edge is a no-op.
func (g *Graph) AddEdge(from, to NodeID) error {
	if !g.Contains(from) || !g.Contains(to) {
		return ErrUnknownNode
	}
	if from == to {
		return &CycleError{Path: []NodeID{from, from}}
	}
	if g.HasEdge(from, to) {
		return nil
	}
	if back := g.path(to, from); back != nil {
		return &CycleError{Path: append([]NodeID{from}, back...)}
	}
	g.out[from] = append(g.out[from], to)
	g.edges++
	return nil
}

// Reachable reports whether to can be reached from from by following edges.
// A node always reaches itself.
func (g *Graph) Reachable(from, to NodeID) bool {
	if !g.Contains(from) || !g.Contains(to) {
		return false
	}
	return g.path(from, to) != nil
}

// path returns one path from -> ... -> to found by breadth-first search,
// or nil if to is unreachable.
func (g *Graph) path(from, to NodeID) []NodeID {
	if from == to {
		return []NodeID{from}
	}

	parent := make([]NodeID, len(g.out))
	for i := range parent {
		parent[i] = -1
	}
	parent[from] = from

	queue := []NodeID{from}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, m := range g.out[n] {
			if parent[m] != -1 {
				continue
			}
			parent[m] = n
			if m == to {
				var rev []NodeID
				for cur := to; cur != from; cur = parent[cur] {
					rev = append(rev, cur)
				}
				rev = append(rev, from)
				out := make([]NodeID, len(rev))
				for i, v := range rev {
					out[len(rev)-1-i] = v
				}
				return out
			}
			queue = append(queue, m)
		}
	}
	return nil
}

// Dot renders the graph in Graphviz DOT format.
//
// label may be nil, in which case node handles are used as labels.
func (g *Graph) Dot(label func(NodeID) string) string {
	var sb strings.Builder
	sb.WriteString("digraph {\n")
	for i := range g.out {
		n := NodeID(i)
		name := strconv.Itoa(i)
		if label != nil {
			name = label(n)
		}
		sb.WriteString("    " + strconv.Itoa(i) + " [ label = " + strconv.Quote(name) + " ]\n")
	}
	for i, succ := range g.out {
		for _, m := range succ {
			sb.WriteString("    " + strconv.Itoa(i) + " -> " + strconv.Itoa(int(m)) + " [ ]\n")
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}
