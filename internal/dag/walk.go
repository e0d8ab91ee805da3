package dag

// Walker is a lazy, finite, non-restartable post-order traversal.
//
// Every node reachable from the root is yielded exactly once, and only after
// all of its successors have been yielded. On a DAG whose edges point from
// dependent to dependency, that means dependencies always come first.
type Walker struct {
	g     *Graph
	stack []frame
	seen  []bool
}

type frame struct {
	node NodeID
	next int
}

// Walk starts a post-order traversal from root. An unknown root yields nothing.
//
// The graph must not be mutated while the walker is in use.
func (g *Graph) Walk(root NodeID) *Walker {
	w := &Walker{g: g, seen: make([]bool, len(g.out))}
	if g.Contains(root) {
		w.seen[root] = true
		w.stack = append(w.stack, frame{node: root})
	}
	return w
}

// Next returns the next node, or false once the traversal is exhausted.
func (w *Walker) Next() (NodeID, bool) {
	for len(w.stack) > 0 {
		top := &w.stack[len(w.stack)-1]
		succ := w.g.out[top.node]
		if top.next < len(succ) {
			m := succ[top.next]
			top.next++
			if !w.seen[m] {
				w.seen[m] = true
				w.stack = append(w.stack, frame{node: m})
			}
			continue
		}
		n := top.node
		w.stack = w.stack[:len(w.stack)-1]
		return n, true
	}
	return 0, false
}

// Collect drains the walker into a slice.
func (w *Walker) Collect() []NodeID {
	var out []NodeID
	for n, ok := w.Next(); ok; n, ok = w.Next() {
		out = append(out, n)
	}
	return out
}
