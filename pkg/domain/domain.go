// Package domain implements the planner's external interfaces: the
// grounded operator pool the compiler hands the planner, and the problem
// description the loader hands it (spec.md §6.1, §6.2). It also builds
// the initial plan (init and goal sentinels wired together, geometry and
// symbolic constants registered) that search starts from.
//
// The pool's "immutable array indexed by step number, schema + candidate
// map + threat map" shape, and a loader that turns a separate
// configuration surface into one aggregate, are both styled on dungo's
// pkg/dungeon/config.go (DefaultGenerator building a Dungeon from a
// Config) and specs/contracts/types.go (the plain data-contract structs
// the generator consumes).
package domain

import (
	"fmt"

	"github.com/PetervDooren/PyDPOCL/pkg/geometry"
	"github.com/PetervDooren/PyDPOCL/pkg/idgen"
	"github.com/PetervDooren/PyDPOCL/pkg/plan"
	"github.com/PetervDooren/PyDPOCL/pkg/ptypes"
)

// OperatorPool is the immutable, step-number-indexed array of grounded
// operator schemas the compiler hands the planner (spec.md §6.1). The
// final two entries are always the init and goal sentinels.
type OperatorPool struct {
	Entries []*ptypes.Operator
}

// NewOperatorPool validates and wraps schemas, appending init and goal as
// the pool's final two non-instantiable entries.
func NewOperatorPool(schemas []*ptypes.Operator, init, goal *ptypes.Operator) (*OperatorPool, error) {
	for i, s := range schemas {
		s.StepNum = i
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("domain: schema %d: %w", i, err)
		}
	}
	init.StepNum = len(schemas)
	goal.StepNum = len(schemas) + 1
	init.Instantiable = false
	goal.Instantiable = false
	if len(init.Preconds) != 0 {
		return nil, fmt.Errorf("domain: init sentinel must have no preconditions")
	}
	if len(goal.Effects) != 0 {
		return nil, fmt.Errorf("domain: goal sentinel must have no effects")
	}
	entries := append(append([]*ptypes.Operator(nil), schemas...), init, goal)
	computeCandidateThreatMaps(entries)
	return &OperatorPool{Entries: entries}, nil
}

// computeCandidateThreatMaps fills in every entry's CandidateMap and
// ThreatMap: for each of an entry's preconditions, every other entry's
// (and its own) effect of the same predicate name is a candidate if its
// sign matches and a threat if it doesn't (spec.md §6.1's "grounded
// operator pool" contract — the candidate/threat maps are the pool's
// job to compute, not the problem loader's or the refinement
// operators'). This is schema-level, computed once over the whole pool,
// since a precondition literal's id is stable across every instance a
// later Instantiate call produces.
func computeCandidateThreatMaps(entries []*ptypes.Operator) {
	everAnEffect := make(map[string]bool)
	for _, entry := range entries {
		for _, eff := range entry.Effects {
			everAnEffect[eff.Name] = true
		}
	}
	for _, consumer := range entries {
		for i, precond := range consumer.Preconds {
			consumer.Preconds[i].IsStatic = !everAnEffect[precond.Name]
		}
		if len(consumer.Preconds) == 0 {
			continue
		}
		consumer.CandidateMap = make(map[string][]ptypes.CandidateRef, len(consumer.Preconds))
		consumer.ThreatMap = make(map[string][]ptypes.CandidateRef, len(consumer.Preconds))
		for _, precond := range consumer.Preconds {
			for _, provider := range entries {
				for effIdx, eff := range provider.Effects {
					if eff.Name != precond.Name {
						continue
					}
					ref := ptypes.CandidateRef{StepNum: provider.StepNum, EffectIdx: effIdx}
					if eff.Truth == precond.Truth {
						consumer.CandidateMap[precond.ID] = append(consumer.CandidateMap[precond.ID], ref)
					} else {
						consumer.ThreatMap[precond.ID] = append(consumer.ThreatMap[precond.ID], ref)
					}
				}
			}
		}
	}
}

// InitIndex returns the pool index of the init sentinel.
func (p *OperatorPool) InitIndex() int { return len(p.Entries) - 2 }

// GoalIndex returns the pool index of the goal sentinel.
func (p *OperatorPool) GoalIndex() int { return len(p.Entries) - 1 }

// Init returns the init sentinel schema.
func (p *OperatorPool) Init() *ptypes.Operator { return p.Entries[p.InitIndex()] }

// Goal returns the goal sentinel schema.
func (p *OperatorPool) Goal() *ptypes.Operator { return p.Entries[p.GoalIndex()] }

// Schema returns the pool entry at stepNum.
func (p *OperatorPool) Schema(stepNum int) (*ptypes.Operator, error) {
	if stepNum < 0 || stepNum >= len(p.Entries) {
		return nil, fmt.Errorf("domain: step number %d out of range", stepNum)
	}
	return p.Entries[stepNum], nil
}

// Instantiate returns a fresh copy of the schema at stepNum with every
// argument renamed to a new id drawn from ids, preserving literal ids
// (candidate/threat maps key on literal id, not argument id, so renaming
// arguments never invalidates them) and non-equality/reach index pairs
// (argument order is preserved, so the indices they reference stay
// valid) (spec.md §4.7 "instantiate a fresh copy").
func (p *OperatorPool) Instantiate(stepNum int, ids *idgen.Source) (*ptypes.Operator, error) {
	schema, err := p.Schema(stepNum)
	if err != nil {
		return nil, err
	}
	if !schema.Instantiable {
		return nil, fmt.Errorf("domain: schema %d is not instantiable", stepNum)
	}

	remap := make(map[string]string, len(schema.Args))
	newArgs := make([]ptypes.Argument, len(schema.Args))
	for i, a := range schema.Args {
		newID := ids.NextID()
		remap[a.ID] = newID
		newArgs[i] = ptypes.Argument{ID: newID, Type: a.Type, Name: a.Name, Role: a.Role, Kind: a.Kind}
	}
	remapLit := func(lits []ptypes.Literal) []ptypes.Literal {
		out := make([]ptypes.Literal, len(lits))
		for i, l := range lits {
			args := make([]ptypes.Argument, len(l.Args))
			for j, a := range l.Args {
				na := a
				if nid, ok := remap[a.ID]; ok {
					na.ID = nid
				}
				args[j] = na
			}
			out[i] = ptypes.Literal{ID: l.ID, Name: l.Name, Args: args, Truth: l.Truth, IsStatic: l.IsStatic}
		}
		return out
	}

	return &ptypes.Operator{
		SchemaName:   schema.SchemaName,
		StepNum:      schema.StepNum,
		InstanceID:   ids.NextID(),
		Args:         newArgs,
		Preconds:     remapLit(schema.Preconds),
		Effects:      remapLit(schema.Effects),
		NonEq:        append([]ptypes.NonEqPair(nil), schema.NonEq...),
		Reach:        append([]ptypes.ReachPair(nil), schema.Reach...),
		Height:       schema.Height,
		Instantiable: schema.Instantiable,
		CandidateMap: schema.CandidateMap, // shared immutable reference data
		ThreatMap:    schema.ThreatMap,
	}, nil
}

// Problem is the loader's problem description (spec.md §6.2).
type Problem struct {
	Objects          []ptypes.Argument
	ObjectTypes      map[string]map[string]bool // type -> subtype set, reflexive-transitive closure
	ObjectDimensions map[string][2]float64      // object id -> (width, length)
	InitialPositions map[string]string          // object id -> area id naming its starting polygon
	Areas            map[string]geometry.Poly   // area id -> polygon
	BaseArea         string
	RobotReach       map[string]string // robot object id -> area id naming its reach region
}

// TypeableObjects returns every object of type t or a subtype of t, per
// the problem's precomputed type ontology (used by the UGSV refinement
// operator to enumerate grounding candidates, spec.md §4.7).
func (pr *Problem) TypeableObjects(t string) []ptypes.Argument {
	var out []ptypes.Argument
	subs := pr.ObjectTypes[t]
	for _, o := range pr.Objects {
		if o.Type == t || (subs != nil && subs[o.Type]) {
			out = append(out, o)
		}
	}
	return out
}

// Ontology builds a ptypes.TypeOntology from the problem's precomputed
// type-subtype closure.
func (pr *Problem) Ontology() *ptypes.TypeOntology {
	return &ptypes.TypeOntology{Subtypes: pr.ObjectTypes}
}

// BuildInitialPlan constructs the starting plan: init and goal sentinels
// wired together, every problem object registered as a symbolic
// constant with pairwise exclusions seeded, every defined area (base,
// goal regions, reach bands) registered into the geometric bindings,
// and an OPF raised for each of the goal sentinel's own preconditions
// (spec.md §4.6, §6.2). plan.New wires init and goal into the plan
// directly rather than through InsertPrimitive, so without this last
// step the goal's conditions would never appear in the flaw library and
// a fresh plan would look solved before any refinement ran.

func BuildInitialPlan(pr *Problem, pool *OperatorPool, planID string, ids *idgen.Source) (*plan.Plan, error) {
	base, ok := pr.Areas[pr.BaseArea]
	if !ok {
		return nil, fmt.Errorf("domain: base area %q not found in problem areas", pr.BaseArea)
	}

	p := plan.New(planID, pool.Init(), pool.Goal(), pr.Ontology(), pr.BaseArea, ids)

	p.Geometric.RegisterDefined(pr.BaseArea, base, nil)
	for id, poly := range pr.Areas {
		if id == pr.BaseArea {
			continue
		}
		p.Geometric.RegisterDefined(id, poly, []string{pr.BaseArea})
	}

	for _, obj := range pr.Objects {
		p.Symbolic.Register(obj, true)
	}
	p.Symbolic.SeedPairwiseExclusions(pr.Objects)

	goal := pool.Goal()
	for _, precond := range goal.Preconds {
		p.RaiseOpenPrecond(goal, precond)
	}

	return p, nil
}
