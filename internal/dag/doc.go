// Package dag implements the dependency graph used by the instantiation engine.
//
// The graph is a plain adjacency list over dense NodeID handles:
//   - nodes carry no payload; callers keep their own identifier <-> NodeID map
//   - edges point from a dependent node to the node it depends on
//   - AddEdge rejects any edge that would close a cycle, so the graph is a DAG
//     after every successful insertion
//   - Walk yields reachable nodes in post-order, which is a topological order
//     with dependencies first
//
// Nothing in this package recurses over the graph, so deep dependency chains
// cannot exhaust the goroutine stack.
package dag
