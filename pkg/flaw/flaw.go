// Package flaw implements the plan's flaw library: a tagged union over the
// seven flaw kinds a partial plan can carry, routed into six ordered
// priority buckets and popped in deterministic order (spec.md §4.5,
// §9 "Tagged flaws").
//
// The sum-type-as-struct-with-kind-tag shape, and the idea of a library
// type that owns insertion routing plus a single `Next` accessor, is
// styled on dungo's pkg/dungeon/constraint.go (a Constraint tagged union
// routed by Kind) and pkg/dungeon/validator.go (an ordered list of checks
// consulted front to back).
package flaw

import "sort"

// Kind identifies which of the seven flaw variants a Flaw carries.
type Kind int

const (
	KindOPF  Kind = iota // Open Precondition Flaw
	KindTCLF             // Threatened Causal-Link Flaw
	KindUGSV             // Ungrounded Symbolic Variable
	KindUGGV             // Ungrounded Geometric Variable
	KindUGPV             // Ungrounded Path Variable
	KindGTF              // Geometric (Placement) Threat Flaw
	KindGPTF             // Geometric Path Threat Flaw
)

func (k Kind) String() string {
	switch k {
	case KindOPF:
		return "OPF"
	case KindTCLF:
		return "TCLF"
	case KindUGSV:
		return "UGSV"
	case KindUGGV:
		return "UGGV"
	case KindUGPV:
		return "UGPV"
	case KindGTF:
		return "GTF"
	case KindGPTF:
		return "GPTF"
	default:
		return "UNKNOWN"
	}
}

// bucket identifies one of the flaw library's six ordered priority
// buckets (spec.md §4.5), highest priority first.
type bucket int

const (
	bucketStatics bucket = iota
	bucketInits
	bucketThreats
	bucketUnsafe
	bucketReusable
	bucketNonreusable
	bucketCount
)

// OpenPrecond carries an OPF's payload: the consuming step's number and
// the open precondition literal.
type OpenPrecond struct {
	ConsumerStep     int
	ConsumerInstance string
	PrecondID        string
	PrecondName      string
	SchemaLen     int // len(schema name) of the consuming step, a tiebreak component
	ArgNameLen    int // summed arg name lengths, a tiebreak component
	HasCandidate  bool
	HasThreatener bool
	NeverAnEffect bool // true if PrecondName appears as no operator's effect (statics bucket)
	InInit        bool // true if the literal holds in the initial state (inits bucket)
}

// ThreatenedLink carries a TCLF's payload: the threatening step and the
// causal link it threatens. Potential is true for a not-yet-promoted
// potential threat (spec.md §4.6 step 8, §4.7). ThreatStep is the pool
// step number (used for the deterministic tiebreak); ThreatStepID is the
// actual instance id of the threatening step in this plan, used to add
// the promote/demote ordering edge.
type ThreatenedLink struct {
	ThreatStep      int
	ThreatStepID    string
	ThreatEffectIdx int
	LinkSource      string
	LinkSink        string
	PrecondID       string
	EffectID        string
	Potential       bool
}

// UngroundedVar carries the payload shared by UGSV, UGGV, and UGPV: the
// ungrounded argument's id and owning step.
type UngroundedVar struct {
	ArgID   string
	ArgType string
	Step    int
}

// GeometricThreat carries the payload shared by GTF and GPTF: the
// threatened region variable and the threatening one.
type GeometricThreat struct {
	ThreatenedID string
	ThreatID     string
	IsPath       bool // GPTF when true, GTF when false
}

// Flaw is a tagged union over the seven flaw variants. Exactly one of the
// payload fields is meaningful, selected by Kind.
type Flaw struct {
	ID   string
	Kind Kind

	OpenPrecond     OpenPrecond
	ThreatenedLink  ThreatenedLink
	UngroundedVar   UngroundedVar
	GeometricThreat GeometricThreat
}

// bucketOf routes a flaw to one of the six ordered buckets (spec.md
// §4.5). Ungrounded-variable flaws and geometric threats share the
// threats bucket with TCLFs, ahead of ordinary OPF resolution, so that
// grounding and threat resolution happen before new steps are inserted.
func bucketOf(f Flaw) bucket {
	switch f.Kind {
	case KindTCLF, KindUGSV, KindUGGV, KindUGPV, KindGTF, KindGPTF:
		return bucketThreats
	case KindOPF:
		switch {
		case f.OpenPrecond.NeverAnEffect:
			return bucketStatics
		case f.OpenPrecond.InInit:
			return bucketInits
		case f.OpenPrecond.HasThreatener:
			return bucketUnsafe
		case f.OpenPrecond.HasCandidate:
			return bucketReusable
		default:
			return bucketNonreusable
		}
	default:
		return bucketNonreusable
	}
}

// tiebreak returns the deterministic secondary-sort key for f within its
// bucket: a tuple of small integers derived from the payload (spec.md
// §4.5). The exact weighting is one of the spec's acknowledged open
// questions (§9c) — any deterministic total order is conformant.
func tiebreak(f Flaw) [4]int {
	switch f.Kind {
	case KindOPF:
		boolInt := func(b bool) int {
			if b {
				return 0
			}
			return 1
		}
		return [4]int{f.OpenPrecond.SchemaLen, f.OpenPrecond.ArgNameLen, boolInt(f.OpenPrecond.HasCandidate), f.OpenPrecond.ConsumerStep}
	case KindTCLF:
		return [4]int{f.ThreatenedLink.ThreatStep, len(f.ThreatenedLink.LinkSource), len(f.ThreatenedLink.LinkSink), 0}
	case KindUGSV, KindUGGV, KindUGPV:
		return [4]int{f.UngroundedVar.Step, len(f.UngroundedVar.ArgID), len(f.UngroundedVar.ArgType), 0}
	case KindGTF, KindGPTF:
		return [4]int{len(f.GeometricThreat.ThreatenedID), len(f.GeometricThreat.ThreatID), 0, 0}
	default:
		return [4]int{}
	}
}

func less(a, b Flaw) bool {
	ka, kb := tiebreak(a), tiebreak(b)
	for i := range ka {
		if ka[i] != kb[i] {
			return ka[i] < kb[i]
		}
	}
	return a.ID < b.ID
}

// Library is the plan's flaw library: six ordered buckets popped
// front-of-highest-priority-nonempty-bucket first (spec.md §4.5).
type Library struct {
	buckets [bucketCount][]Flaw
}

// New returns an empty flaw library.
func New() *Library {
	return &Library{}
}

// Insert adds f to its routed bucket, keeping the bucket sorted by the
// deterministic tiebreak key.
func (l *Library) Insert(f Flaw) {
	b := bucketOf(f)
	bucketSlice := l.buckets[b]
	idx := sort.Search(len(bucketSlice), func(i int) bool { return !less(bucketSlice[i], f) })
	bucketSlice = append(bucketSlice, Flaw{})
	copy(bucketSlice[idx+1:], bucketSlice[idx:])
	bucketSlice[idx] = f
	l.buckets[b] = bucketSlice
}

// Next returns the front flaw of the highest-priority non-empty bucket,
// and true. Returns false if the library is empty.
func (l *Library) Next() (Flaw, bool) {
	for b := bucket(0); b < bucketCount; b++ {
		if len(l.buckets[b]) > 0 {
			return l.buckets[b][0], true
		}
	}
	return Flaw{}, false
}

// Remove deletes the flaw with the given id from whichever bucket holds
// it. A no-op if the id is not present.
func (l *Library) Remove(id string) {
	for b := range l.buckets {
		for i, f := range l.buckets[b] {
			if f.ID == id {
				l.buckets[b] = append(l.buckets[b][:i], l.buckets[b][i+1:]...)
				return
			}
		}
	}
}

// Len returns the total number of flaws across all buckets.
func (l *Library) Len() int {
	n := 0
	for _, b := range l.buckets {
		n += len(b)
	}
	return n
}

// All returns every flaw across all buckets, bucket order then
// within-bucket order.
func (l *Library) All() []Flaw {
	out := make([]Flaw, 0, l.Len())
	for _, b := range l.buckets {
		out = append(out, b...)
	}
	return out
}

// Clone returns a structurally independent deep copy of l.
func (l *Library) Clone() *Library {
	clone := &Library{}
	for b := range l.buckets {
		clone.buckets[b] = append([]Flaw(nil), l.buckets[b]...)
	}
	return clone
}
