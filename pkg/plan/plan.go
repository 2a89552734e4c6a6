// Package plan implements the Plan aggregate: a partial plan's step list,
// ordering DAG, causal-link graph, symbolic and geometric bindings, and
// flaw library, plus the two structural operations that grow a plan,
// `insert_primitive` and `resolve_with_primitive` (spec.md §4.6).
//
// The aggregate-plus-clone-on-branch shape is styled on dungo's
// pkg/dungeon/dungeon.go (a Dungeon aggregate carrying rooms, connectors,
// and a generation Artifact through a staged pipeline); every mutable
// substructure here is map-backed precisely so Clone stays an O(n)
// structural copy, per spec.md §5 "Ownership".
package plan

import (
	"fmt"

	"github.com/PetervDooren/PyDPOCL/pkg/causallink"
	"github.com/PetervDooren/PyDPOCL/pkg/flaw"
	"github.com/PetervDooren/PyDPOCL/pkg/geometry"
	"github.com/PetervDooren/PyDPOCL/pkg/idgen"
	"github.com/PetervDooren/PyDPOCL/pkg/ordering"
	"github.com/PetervDooren/PyDPOCL/pkg/ptypes"
	"github.com/PetervDooren/PyDPOCL/pkg/symbolic"
)

// MaxHeight bounds the step-height term in the add-step cost contribution
// (spec.md §4.7). Hierarchical decomposition is out of scope (spec.md §9,
// open question b) so every step's Height is 0 and the contribution is
// always MaxHeight^2 + 1.
const MaxHeight = 1

// ReachConstraint records that Robot must be able to physically address
// Area (spec.md §4.6 step 5).
type ReachConstraint struct {
	AreaID  string
	RobotID string
}

// Plan is one node of the POCL search: a partial plan with its own
// ordering DAG, causal-link graph, symbolic bindings, geometric bindings,
// and flaw library (spec.md §4.6, §5 "Ownership": no state is shared
// between sibling plans).
type Plan struct {
	ID        string
	Cost      float64
	Heuristic float64
	Depth     int
	Solved    bool

	InitID string
	GoalID string

	steps        map[string]*ptypes.Operator
	stepOrder    []string // insertion order, for deterministic iteration
	stepNumIndex map[int][]string

	Ordering    *ordering.DAG
	CausalLinks *causallink.Graph
	Symbolic    *symbolic.Bindings
	Geometric   *geometry.Bindings
	Flaws       *flaw.Library
	Reach       []ReachConstraint

	ids *idgen.Source // shared, process-owned id stream (spec.md §9)
}

// New returns a plan containing only the init and goal sentinels, wired
// init -> goal, with empty bindings and an empty flaw library. The
// caller (pkg/domain's problem loader) is responsible for registering
// the problem's constants, defined areas, and the init step's effects
// before any refinement runs.
func New(id string, initStep, goalStep *ptypes.Operator, ontology *ptypes.TypeOntology, baseAreaID string, ids *idgen.Source) *Plan {
	p := &Plan{
		ID:           id,
		InitID:       initStep.InstanceID,
		GoalID:       goalStep.InstanceID,
		steps:        make(map[string]*ptypes.Operator),
		stepNumIndex: make(map[int][]string),
		Ordering:     ordering.New(),
		CausalLinks:  causallink.New(),
		Symbolic:     symbolic.New(ontology),
		Geometric:    geometry.New(baseAreaID),
		Flaws:        flaw.New(),
		ids:          ids,
	}
	p.addStep(initStep)
	p.addStep(goalStep)
	p.Ordering.AddEdge(initStep.InstanceID, goalStep.InstanceID)
	return p
}

func (p *Plan) addStep(step *ptypes.Operator) {
	p.steps[step.InstanceID] = step
	p.stepOrder = append(p.stepOrder, step.InstanceID)
	p.stepNumIndex[step.StepNum] = append(p.stepNumIndex[step.StepNum], step.InstanceID)
	p.Ordering.AddNode(step.InstanceID)
}

// StepByID returns the step with the given instance id.
func (p *Plan) StepByID(id string) (*ptypes.Operator, bool) {
	s, ok := p.steps[id]
	return s, ok
}

// Steps returns every step in the plan in insertion order.
func (p *Plan) Steps() []*ptypes.Operator {
	out := make([]*ptypes.Operator, 0, len(p.stepOrder))
	for _, id := range p.stepOrder {
		out = append(out, p.steps[id])
	}
	return out
}

// InstancesOf returns the instance ids of every step in the plan grounded
// from the given pool step number.
func (p *Plan) InstancesOf(stepNum int) []string {
	return append([]string(nil), p.stepNumIndex[stepNum]...)
}

// InsertPrimitive adds a fully-instantiated step to the plan, performing
// every structural consequence spec.md §4.6 describes: ordering edges,
// bindings registration, non-equality and reach constraints, and the
// flaws the new step's own preconditions and variables raise.
func (p *Plan) InsertPrimitive(step *ptypes.Operator) error {
	if _, exists := p.steps[step.InstanceID]; exists {
		return fmt.Errorf("plan: step %s already present", step.InstanceID)
	}

	// 1. Append step; wire init -> step -> goal.
	p.addStep(step)
	p.Ordering.AddEdge(p.InitID, step.InstanceID)
	p.Ordering.AddEdge(step.InstanceID, p.GoalID)

	// 2. Register every argument into the bindings matching its kind.
	for _, arg := range step.Args {
		switch arg.Kind {
		case ptypes.KindObject:
			p.Symbolic.Register(arg, false)
		case ptypes.KindArea:
			p.Geometric.RegisterArea(arg.ID)
		case ptypes.KindPath:
			p.Geometric.RegisterPath(arg.ID)
		}
	}

	// 3. For every `within` precondition or effect, link the area's owner;
	// for every `traverse` precondition or effect, link the path's mover
	// and start/goal areas (spec.md §4.6 step 3, extended to paths).
	linkOwner := func(lit ptypes.Literal) {
		switch {
		case lit.Name == ptypes.PredicateWithin && len(lit.Args) == 2:
			p.Geometric.SetOwner(lit.Args[1].ID, lit.Args[0])
		case lit.Name == ptypes.PredicateTraverse && len(lit.Args) == 4:
			if rec, ok := p.Geometric.Paths[lit.Args[1].ID]; ok {
				rec.Mover = lit.Args[0]
				rec.StartArea = lit.Args[2].ID
				rec.GoalArea = lit.Args[3].ID
			}
		}
	}
	for _, l := range step.Preconds {
		linkOwner(l)
	}
	for _, l := range step.Effects {
		linkOwner(l)
	}

	// 4. Non-equality pairs become symbolic non-codesignations.
	for _, pair := range step.NonEq {
		p.Symbolic.AddNonCodesignation(step.Args[pair.I], step.Args[pair.J])
	}

	// 5. Reach pairs register the reach constraint.
	for _, r := range step.Reach {
		p.Reach = append(p.Reach, ReachConstraint{
			AreaID:  step.Args[r.AreaIdx].ID,
			RobotID: step.Args[r.RobotIdx].ID,
		})
	}

	// 6. Every open precondition raises an OPF. A freshly inserted step has
	// no supporting causal link for any of its preconditions yet, so every
	// precondition is open.
	for _, precond := range step.Preconds {
		p.Flaws.Insert(p.classifyOPF(step, precond))
	}

	// 7. Every area or symbolic argument raises an ungrounded-variable
	// flaw; extended here to path arguments too, since §4.6 describes no
	// other point at which a UGPV could originate.
	for _, arg := range step.Args {
		switch arg.Kind {
		case ptypes.KindObject:
			if _, bound := p.Symbolic.Constant(arg); !bound {
				p.Flaws.Insert(flaw.Flaw{
					ID:   p.ids.NextID(),
					Kind: flaw.KindUGSV,
					UngroundedVar: flaw.UngroundedVar{ArgID: arg.ID, ArgType: arg.Type, Step: step.StepNum},
				})
			}
		case ptypes.KindArea:
			p.Flaws.Insert(flaw.Flaw{
				ID:   p.ids.NextID(),
				Kind: flaw.KindUGGV,
				UngroundedVar: flaw.UngroundedVar{ArgID: arg.ID, ArgType: arg.Type, Step: step.StepNum},
			})
		case ptypes.KindPath:
			p.Flaws.Insert(flaw.Flaw{
				ID:   p.ids.NextID(),
				Kind: flaw.KindUGPV,
				UngroundedVar: flaw.UngroundedVar{ArgID: arg.ID, ArgType: arg.Type, Step: step.StepNum},
			})
		}
	}

	// 8. The new step may threaten an existing causal link.
	for _, link := range p.CausalLinks.All() {
		sink, ok := p.steps[link.Sink]
		if !ok {
			continue
		}
		for _, ref := range sink.ThreatMap[link.Precond.ID] {
			if ref.StepNum != step.StepNum {
				continue
			}
			if p.Ordering.HasPath(step.InstanceID, link.Source) || p.Ordering.HasPath(link.Sink, step.InstanceID) {
				continue
			}
			p.Flaws.Insert(flaw.Flaw{
				ID:   p.ids.NextID(),
				Kind: flaw.KindTCLF,
				ThreatenedLink: flaw.ThreatenedLink{
					ThreatStep:      step.StepNum,
					ThreatStepID:    step.InstanceID,
					ThreatEffectIdx: ref.EffectIdx,
					LinkSource:      link.Source,
					LinkSink:        link.Sink,
					PrecondID:       link.Precond.ID,
					EffectID:        link.Effect.ID,
					Potential:       true,
				},
			})
		}
	}

	return nil
}

// classifyOPF builds the OPF payload for a newly-open precondition,
// computing the bucket-routing fields dynamically against the plan's
// current state (spec.md §4.5).
func (p *Plan) classifyOPF(step *ptypes.Operator, precond ptypes.Literal) flaw.Flaw {
	argNameLen := 0
	for _, a := range precond.Args {
		argNameLen += len(a.Name)
	}
	hasCandidate := false
	inInit := false
	initStep := p.steps[p.InitID]
	for _, ref := range step.CandidateMap[precond.ID] {
		hasCandidate = true
		if ref.StepNum == initStep.StepNum && ref.EffectIdx >= 0 && ref.EffectIdx < len(initStep.Effects) &&
			initStep.Effects[ref.EffectIdx].Equal(precond) {
			inInit = true
		}
	}
	hasThreatener := false
	for _, ref := range step.ThreatMap[precond.ID] {
		if len(p.stepNumIndex[ref.StepNum]) > 0 {
			hasThreatener = true
			break
		}
	}
	return flaw.Flaw{
		ID:   p.ids.NextID(),
		Kind: flaw.KindOPF,
		OpenPrecond: flaw.OpenPrecond{
			ConsumerStep:     step.StepNum,
			ConsumerInstance: step.InstanceID,
			PrecondID:        precond.ID,
			PrecondName:      precond.Name,
			SchemaLen:        len(step.SchemaName),
			ArgNameLen:       argNameLen,
			HasCandidate:     hasCandidate,
			HasThreatener:    hasThreatener,
			NeverAnEffect:    precond.IsStatic,
			InInit:           inInit,
		},
	}
}

// RaiseOpenPrecond inserts an OPF for one of step's preconditions
// directly, without going through InsertPrimitive. The goal sentinel is
// added to a fresh plan by New, not InsertPrimitive, so none of its
// preconditions get an OPF raised automatically; the problem loader
// calls this once per goal precondition after New returns so the
// initial plan starts with a non-empty flaw library (spec.md §4.6,
// §6.2: the goal's conditions are exactly the flaws search must resolve).
func (p *Plan) RaiseOpenPrecond(step *ptypes.Operator, precond ptypes.Literal) {
	p.Flaws.Insert(p.classifyOPF(step, precond))
}

// ResolveWithPrimitive wires a provider's effect to a consumer's open
// precondition: an ordering edge, a causal link, and the potential TCLFs
// the new link exposes (spec.md §4.6 `resolve_with_primitive`).
func (p *Plan) ResolveWithPrimitive(providerID, consumerID string, effect, precond ptypes.Literal) error {
	consumer, ok := p.steps[consumerID]
	if !ok {
		return fmt.Errorf("plan: unknown consumer step %s", consumerID)
	}
	if _, ok := p.steps[providerID]; !ok {
		return fmt.Errorf("plan: unknown provider step %s", providerID)
	}

	// 1. precond is marked fulfilled implicitly: SupportingPrecondition on
	// the causal-link graph becomes non-empty once the link below is added.

	// 2. Ordering provider -> consumer.
	p.Ordering.AddEdge(providerID, consumerID)

	// 3. Causal link.
	p.CausalLinks.Add(causallink.Link{Source: providerID, Sink: consumerID, Effect: effect, Precond: precond})

	// 4. Potential TCLFs for every instance of every schema-level threat.
	for _, ref := range consumer.ThreatMap[precond.ID] {
		for _, instID := range p.stepNumIndex[ref.StepNum] {
			if p.Ordering.HasPath(instID, providerID) || p.Ordering.HasPath(consumerID, instID) {
				continue
			}
			p.Flaws.Insert(flaw.Flaw{
				ID:   p.ids.NextID(),
				Kind: flaw.KindTCLF,
				ThreatenedLink: flaw.ThreatenedLink{
					ThreatStep:      ref.StepNum,
					ThreatStepID:    instID,
					ThreatEffectIdx: ref.EffectIdx,
					LinkSource:      providerID,
					LinkSink:        consumerID,
					PrecondID:       precond.ID,
					EffectID:        effect.ID,
					Potential:       true,
				},
			})
		}
	}
	return nil
}

// StepCost returns the cost contribution of inserting step, per spec.md
// §4.7: (MaxHeight^2 + 1) - step.Height^2, which is MaxHeight^2+1 for
// every primitive step since Height is always 0.
func StepCost(step *ptypes.Operator) float64 {
	return float64(MaxHeight*MaxHeight+1) - float64(step.Height*step.Height)
}

// IsInternallyConsistent reports whether the plan's ordering graph is
// acyclic (spec.md §4.1, §6.4). Refinement operators check this lazily,
// at pop time, rather than rejecting an edge eagerly.
func (p *Plan) IsInternallyConsistent() bool {
	return p.Ordering.IsInternallyConsistent()
}

// Clone returns a structurally independent deep copy of p under a fresh
// id, sharing only the process-owned id stream (spec.md §5 "Ownership",
// §9 "Determinism and ids").
func (p *Plan) Clone(newID string) *Plan {
	clone := &Plan{
		ID:           newID,
		Cost:         p.Cost,
		Heuristic:    p.Heuristic,
		Depth:        p.Depth,
		Solved:       p.Solved,
		InitID:       p.InitID,
		GoalID:       p.GoalID,
		steps:        make(map[string]*ptypes.Operator, len(p.steps)),
		stepOrder:    append([]string(nil), p.stepOrder...),
		stepNumIndex: make(map[int][]string, len(p.stepNumIndex)),
		Ordering:     p.Ordering.Clone(),
		CausalLinks:  p.CausalLinks.Clone(),
		Symbolic:     p.Symbolic.Clone(),
		Geometric:    p.Geometric.Clone(),
		Flaws:        p.Flaws.Clone(),
		Reach:        append([]ReachConstraint(nil), p.Reach...),
		ids:          p.ids,
	}
	for id, s := range p.steps {
		cp := *s
		cp.Args = append([]ptypes.Argument(nil), s.Args...)
		cp.Preconds = append([]ptypes.Literal(nil), s.Preconds...)
		cp.Effects = append([]ptypes.Literal(nil), s.Effects...)
		clone.steps[id] = &cp
	}
	for num, ids := range p.stepNumIndex {
		clone.stepNumIndex[num] = append([]string(nil), ids...)
	}
	return clone
}

// NextID draws the next id from the plan's shared id stream.
func (p *Plan) NextID() string {
	return p.ids.NextID()
}
