// Package causallink implements the plan's causal-link graph: provider to
// consumer edges labelled with the concrete (effect, precondition) pair
// they establish (spec.md §3, §4.1).
package causallink

import "github.com/PetervDooren/PyDPOCL/pkg/ptypes"

// Link is one causal link: Source's Effect establishes Sink's Precond.
type Link struct {
	Source string
	Sink   string
	Effect ptypes.Literal
	Precond ptypes.Literal
}

// Equal reports whether two links are the same edge: same source, sink,
// effect id, and precondition id (spec.md §4.1).
func (l Link) Equal(o Link) bool {
	return l.Source == o.Source && l.Sink == o.Sink &&
		l.Effect.ID == o.Effect.ID && l.Precond.ID == o.Precond.ID
}

// Graph is the causal-link graph: a multigraph since two causal links may
// share a (source, sink) pair over different conditions.
type Graph struct {
	links       []Link
	bySink      map[string][]int // sink step id -> indices into links
	bySource    map[string][]int
	byPrecondID map[string][]int // consumer precondition literal id -> indices
}

// New returns an empty causal-link graph.
func New() *Graph {
	return &Graph{
		bySink:      make(map[string][]int),
		bySource:    make(map[string][]int),
		byPrecondID: make(map[string][]int),
	}
}

// Add records a new causal link, unless an equal one is already present.
func (g *Graph) Add(l Link) {
	for _, idx := range g.bySink[l.Sink] {
		if g.links[idx].Equal(l) {
			return
		}
	}
	idx := len(g.links)
	g.links = append(g.links, l)
	g.bySink[l.Sink] = append(g.bySink[l.Sink], idx)
	g.bySource[l.Source] = append(g.bySource[l.Source], idx)
	g.byPrecondID[l.Precond.ID] = append(g.byPrecondID[l.Precond.ID], idx)
}

// All returns every causal link currently in the graph.
func (g *Graph) All() []Link {
	return append([]Link(nil), g.links...)
}

// IncomingTo returns every link whose sink is step.
func (g *Graph) IncomingTo(step string) []Link {
	return g.collect(g.bySink[step])
}

// OutgoingFrom returns every link whose source is step.
func (g *Graph) OutgoingFrom(step string) []Link {
	return g.collect(g.bySource[step])
}

// SupportingPrecondition returns the link (if any) that supports the given
// consumer precondition literal id. spec.md §6.4 requires every step
// precondition be supported by exactly one incoming causal link, so this
// returns at most one link in a valid plan; it returns every match found
// so callers can detect a validity violation instead of silently picking
// one.
func (g *Graph) SupportingPrecondition(precondID string) []Link {
	return g.collect(g.byPrecondID[precondID])
}

func (g *Graph) collect(idxs []int) []Link {
	out := make([]Link, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, g.links[i])
	}
	return out
}

// Clone returns a structurally independent deep copy of g.
func (g *Graph) Clone() *Graph {
	clone := New()
	for _, l := range g.links {
		clone.Add(l)
	}
	return clone
}

// Len returns the number of causal links in the graph.
func (g *Graph) Len() int { return len(g.links) }
