// Package ordering implements the plan's before/after relation over steps:
// a directed acyclic graph with path queries, parent/child lookups, and a
// topological sort (spec.md §4.1).
//
// The representation follows dungo's pkg/graph: an adjacency-map-backed
// directed graph with BFS reachability and DFS cycle detection, rather
// than a pointer/node graph — this keeps Clone an O(n) map copy
// independent of memory layout, as spec.md §5 "Ownership" requires.
package ordering

import (
	"fmt"
	"sort"
)

// DAG is the ordering graph over step ids. It supports AddEdge, HasPath,
// Parents, Children, TopologicalSort, and an internal-consistency check
// that an added edge does not close a cycle (spec.md §4.1).
type DAG struct {
	nodes    map[string]bool
	children map[string][]string
	parents  map[string][]string
}

// New returns an empty ordering DAG.
func New() *DAG {
	return &DAG{
		nodes:    make(map[string]bool),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
}

// AddNode registers a step id with no edges, idempotently.
func (d *DAG) AddNode(id string) {
	if d.nodes[id] {
		return
	}
	d.nodes[id] = true
	d.children[id] = nil
	d.parents[id] = nil
}

// AddEdge adds a directed edge u -> v ("u before v"). Both endpoints are
// registered if new. The edge is added even if it would close a cycle;
// callers check IsInternallyConsistent (or HasPath(v, u) before adding) to
// detect that case, matching spec.md §4.1's "returns false when an added
// edge closes a cycle" contract applied lazily at plan-pop time rather
// than eagerly inside AddEdge (the refinement operators clone-then-check,
// per spec.md §4.7 TCLF promote/demote).
func (d *DAG) AddEdge(u, v string) {
	d.AddNode(u)
	d.AddNode(v)
	for _, c := range d.children[u] {
		if c == v {
			return
		}
	}
	d.children[u] = append(d.children[u], v)
	d.parents[v] = append(d.parents[v], u)
}

// HasPath reports whether there is a directed path from u to v (u == v
// counts as a trivial path). A straightforward BFS over the transitive
// closure, as spec.md §4.1 permits.
func (d *DAG) HasPath(u, v string) bool {
	if u == v {
		return d.nodes[u]
	}
	if !d.nodes[u] || !d.nodes[v] {
		return false
	}
	visited := map[string]bool{u: true}
	queue := []string{u}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range d.children[cur] {
			if next == v {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

// Parents returns the direct predecessors of v, in insertion order.
func (d *DAG) Parents(v string) []string {
	return append([]string(nil), d.parents[v]...)
}

// Children returns the direct successors of u, in insertion order.
func (d *DAG) Children(u string) []string {
	return append([]string(nil), d.children[u]...)
}

// Nodes returns every registered step id, sorted by id.
func (d *DAG) Nodes() []string {
	out := make([]string, 0, len(d.nodes))
	for _, id := range d.insertionOrder() {
		out = append(out, id)
	}
	return out
}

// insertionOrder returns every node id sorted for deterministic traversal.
func (d *DAG) insertionOrder() []string {
	out := make([]string, 0, len(d.nodes))
	for id := range d.nodes {
		out = append(out, id)
	}
	sortStrings(out)
	return out
}

// IsInternallyConsistent reports whether the graph is acyclic. It is
// checked lazily, at plan-pop time, rather than on every AddEdge, because
// a refinement operator may add several edges before the resulting clone
// is ever inserted into the frontier (spec.md §4.7).
func (d *DAG) IsInternallyConsistent() bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	state := make(map[string]int, len(d.nodes))
	var visit func(string) bool
	visit = func(id string) bool {
		state[id] = gray
		for _, next := range d.children[id] {
			switch state[next] {
			case gray:
				return false
			case white:
				if !visit(next) {
					return false
				}
			}
		}
		state[id] = black
		return true
	}
	for _, id := range d.insertionOrder() {
		if state[id] == white {
			if !visit(id) {
				return false
			}
		}
	}
	return true
}

// TopologicalSort returns a linear ordering of all nodes consistent with
// every edge, or an error if the graph contains a cycle. Ties (nodes with
// no ordering relation) are broken by id, for determinism.
func (d *DAG) TopologicalSort() ([]string, error) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	state := make(map[string]int, len(d.nodes))
	order := make([]string, 0, len(d.nodes))
	var visit func(string) error
	visit = func(id string) error {
		state[id] = gray
		children := append([]string(nil), d.children[id]...)
		sortStrings(children)
		for _, next := range children {
			switch state[next] {
			case gray:
				return fmt.Errorf("ordering: cycle detected at %s", next)
			case white:
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		state[id] = black
		order = append(order, id)
		return nil
	}
	for _, id := range d.insertionOrder() {
		if state[id] == white {
			if err := visit(id); err != nil {
				return nil, err
			}
		}
	}
	// order is currently post-order; reverse it.
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}

// Clone returns a structurally independent deep copy of d (spec.md §5
// "Ownership": every plan owns its own ordering DAG and clones must be
// O(n) and layout-independent).
func (d *DAG) Clone() *DAG {
	clone := New()
	for _, id := range d.insertionOrder() {
		clone.AddNode(id)
	}
	for _, u := range d.insertionOrder() {
		for _, v := range d.children[u] {
			clone.AddEdge(u, v)
		}
	}
	return clone
}

func sortStrings(s []string) {
	sort.Strings(s)
}
