// Package symbolic implements the plan's symbolic variable bindings: a
// disjoint-set structure over typed argument variables, enriched with a
// per-group exclusion set and an optional constant binding (spec.md §4.2).
//
// The disjoint-set core (path compression, union by rank) is styled on
// katalvlaran/lvlath's inline DSU in prim_kruskal.Kruskal, generalized from
// plain string-keyed union-find to carry the extra bookkeeping spec.md
// requires: a merged type tag, a constant slot, and mutual exclusions that
// block future merges.
package symbolic

import (
	"fmt"

	"github.com/PetervDooren/PyDPOCL/pkg/ptypes"
)

// group is one equivalence class of co-designated variables.
type group struct {
	members  map[string]bool // argument ids in this group
	rank     int
	typeTag  string          // merged (most specific common) type
	constant *ptypes.Argument // bound object, if any
	excluded map[string]bool // ids of other groups' representatives this one may never merge with
}

// Bindings is the symbolic variable bindings aggregate (spec.md §4.2).
type Bindings struct {
	ontology *ptypes.TypeOntology
	parent   map[string]string // argument id -> parent id (path-compressed)
	groups   map[string]*group // representative id -> group
}

// New returns an empty symbolic bindings aggregate over the given type
// ontology (nil is permitted; Compatible then degrades to exact-match).
func New(ontology *ptypes.TypeOntology) *Bindings {
	return &Bindings{
		ontology: ontology,
		parent:   make(map[string]string),
		groups:   make(map[string]*group),
	}
}

// Register adds arg to the bindings, idempotently. Objects (constants,
// identified by the caller passing asConstant=true) are auto-bound as
// their own constant; variables are added to their own singleton group
// (spec.md §4.2, "register").
func (b *Bindings) Register(arg ptypes.Argument, asConstant bool) {
	if _, ok := b.parent[arg.ID]; ok {
		return
	}
	b.parent[arg.ID] = arg.ID
	g := &group{
		members:  map[string]bool{arg.ID: true},
		typeTag:  arg.Type,
		excluded: make(map[string]bool),
	}
	if asConstant {
		a := arg
		g.constant = &a
	}
	b.groups[arg.ID] = g
}

// find returns the representative id of arg's group, compressing the path.
func (b *Bindings) find(id string) string {
	root := id
	for b.parent[root] != root {
		root = b.parent[root]
	}
	for id != root {
		next := b.parent[id]
		b.parent[id] = root
		id = next
	}
	return root
}

// IsCodesignated reports whether a and b are in the same group.
func (b *Bindings) IsCodesignated(a, b2 ptypes.Argument) bool {
	return b.find(a.ID) == b.find(b2.ID)
}

// Representative returns the representative argument id of arg's group.
func (b *Bindings) Representative(arg ptypes.Argument) string {
	return b.find(arg.ID)
}

// Constant returns the constant bound to arg's group, if any.
func (b *Bindings) Constant(arg ptypes.Argument) (ptypes.Argument, bool) {
	g := b.groups[b.find(arg.ID)]
	if g == nil || g.constant == nil {
		return ptypes.Argument{}, false
	}
	return *g.constant, true
}

// GroupType returns the merged type tag of arg's group.
func (b *Bindings) GroupType(arg ptypes.Argument) string {
	g := b.groups[b.find(arg.ID)]
	if g == nil {
		return arg.Type
	}
	return g.typeTag
}

// CanCodesignate reports whether a and b could be merged: false if their
// groups are mutually excluded, false if both hold distinct constants,
// false if their types are incompatible, true otherwise (spec.md §4.2).
func (b *Bindings) CanCodesignate(a, b2 ptypes.Argument) bool {
	ra, rb := b.find(a.ID), b.find(b2.ID)
	if ra == rb {
		return true
	}
	ga, gb := b.groups[ra], b.groups[rb]
	if ga == nil || gb == nil {
		return false
	}
	if ga.excluded[rb] || gb.excluded[ra] {
		return false
	}
	if ga.constant != nil && gb.constant != nil && ga.constant.ID != gb.constant.ID {
		return false
	}
	if !b.typesCompatible(ga.typeTag, gb.typeTag) {
		return false
	}
	return true
}

func (b *Bindings) typesCompatible(t1, t2 string) bool {
	if t1 == t2 {
		return true
	}
	if b.ontology == nil {
		return false
	}
	return b.ontology.Compatible(t1, t2)
}

// AddCodesignation merges a's and b's groups. Returns false (and leaves
// the bindings unchanged) if CanCodesignate(a, b) is false. The group
// with the higher rank survives, ties going to the group with more
// members (and then to a's group); a's group gains one rank whenever it
// survives. Type intersection, exclusion-set union, and constant
// propagation are carried onto the surviving representative (spec.md §4.2).
func (b *Bindings) AddCodesignation(a, b2 ptypes.Argument) bool {
	if !b.CanCodesignate(a, b2) {
		return false
	}
	ra, rb := b.find(a.ID), b.find(b2.ID)
	if ra == rb {
		return true
	}
	ga, gb := b.groups[ra], b.groups[rb]

	survivor, absorbed, survivorID, absorbedID := ga, gb, ra, rb
	if ga.rank < gb.rank || (ga.rank == gb.rank && len(ga.members) < len(gb.members)) {
		survivor, absorbed, survivorID, absorbedID = gb, ga, rb, ra
	}

	for id := range absorbed.members {
		survivor.members[id] = true
		b.parent[id] = survivorID
	}
	b.parent[absorbedID] = survivorID

	if b.ontology != nil {
		survivor.typeTag = b.ontology.Intersect(survivor.typeTag, absorbed.typeTag)
	} else if survivor.typeTag != absorbed.typeTag {
		// Incompatible-looking types only reach here if CanCodesignate
		// allowed it via a nil ontology falling back to exact match,
		// which it cannot — kept for defensive symmetry with Intersect.
		survivor.typeTag = absorbed.typeTag
	}

	if survivor.constant == nil {
		survivor.constant = absorbed.constant
	}

	// Rewrite every outgoing exclusion of the absorbed group onto the
	// survivor, and fix up any other group's exclusion that pointed at
	// the absorbed representative.
	for excludedID := range absorbed.excluded {
		survivor.excluded[excludedID] = true
		if eg, ok := b.groups[excludedID]; ok {
			delete(eg.excluded, absorbedID)
			eg.excluded[survivorID] = true
		}
	}
	if survivorID == ra {
		survivor.rank++
	}
	delete(b.groups, absorbedID)
	return true
}

// AddNonCodesignation records a mutual exclusion between a's and b's
// groups. Returns false if they are already co-designated (an exclusion
// that conflicts with existing state is a contradiction, not a silent
// no-op) (spec.md §4.2).
func (b *Bindings) AddNonCodesignation(a, b2 ptypes.Argument) bool {
	ra, rb := b.find(a.ID), b.find(b2.ID)
	if ra == rb {
		return false
	}
	ga, gb := b.groups[ra], b.groups[rb]
	if ga == nil || gb == nil {
		return false
	}
	ga.excluded[rb] = true
	gb.excluded[ra] = true
	return true
}

// SeedPairwiseExclusions pre-seeds mutual exclusions among every pair of
// distinct constants, enforcing invariant I1 ("any two constants are
// mutually excluded") at problem load time (spec.md §4.2).
func (b *Bindings) SeedPairwiseExclusions(constants []ptypes.Argument) {
	for i := 0; i < len(constants); i++ {
		for j := i + 1; j < len(constants); j++ {
			if constants[i].ID == constants[j].ID {
				continue
			}
			b.Register(constants[i], true)
			b.Register(constants[j], true)
			b.AddNonCodesignation(constants[i], constants[j])
		}
	}
}

// Clone returns a structurally independent deep copy of b.
func (b *Bindings) Clone() *Bindings {
	clone := &Bindings{
		ontology: b.ontology,
		parent:   make(map[string]string, len(b.parent)),
		groups:   make(map[string]*group, len(b.groups)),
	}
	for id, p := range b.parent {
		clone.parent[id] = p
	}
	for rep, g := range b.groups {
		ng := &group{
			members:  make(map[string]bool, len(g.members)),
			rank:     g.rank,
			typeTag:  g.typeTag,
			excluded: make(map[string]bool, len(g.excluded)),
		}
		for m := range g.members {
			ng.members[m] = true
		}
		for e := range g.excluded {
			ng.excluded[e] = true
		}
		if g.constant != nil {
			c := *g.constant
			ng.constant = &c
		}
		clone.groups[rep] = ng
	}
	return clone
}

// DescribeGroup renders a group's state for debugging and error messages.
func (b *Bindings) DescribeGroup(arg ptypes.Argument) string {
	g := b.groups[b.find(arg.ID)]
	if g == nil {
		return fmt.Sprintf("<unregistered %s>", arg.ID)
	}
	if g.constant != nil {
		return fmt.Sprintf("group(%s, const=%s)", g.typeTag, g.constant.ID)
	}
	return fmt.Sprintf("group(%s, size=%d)", g.typeTag, len(g.members))
}
