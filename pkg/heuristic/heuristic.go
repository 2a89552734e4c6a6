// Package heuristic implements the plan's admissible-in-practice cost
// estimate: h_condition, h_step, and h_plan (spec.md §4.9), plus the
// frontier's lexicographic ordering key.
//
// h_condition/h_step are computed over the grounded operator POOL, not
// any one plan's instances — the candidate map a literal carries is
// schema-level, so "the cost of establishing this condition" is a
// property of the domain graph, shared by every plan in the search. This
// is why they memoize on (literal id, stepnum) alone, independent of
// plan identity, mirroring dungo's pkg/dungeon/validation/metrics.go
// memoized-by-key scoring pattern generalized from dungeon-layout
// metrics to a recursive domain-graph cost.
package heuristic

import (
	"fmt"
	"sort"

	"github.com/PetervDooren/PyDPOCL/pkg/domain"
	"github.com/PetervDooren/PyDPOCL/pkg/flaw"
	"github.com/PetervDooren/PyDPOCL/pkg/plan"
	"github.com/PetervDooren/PyDPOCL/pkg/ptypes"
)

// state tracks memoization progress; stateInProgress is the
// recursion-breaking marker spec.md §4.9 requires: a literal caught
// mid-computation contributes 0, a step caught mid-computation
// contributes 1.
type state int

const (
	stateNone state = iota
	stateInProgress
	stateDone
)

// Calculator memoizes h_condition and h_step over one operator pool,
// shared read-only across every plan the search visits.
type Calculator struct {
	pool *domain.OperatorPool

	condState map[string]state
	condValue map[string]float64

	stepState map[int]state
	stepValue map[int]float64
}

// New returns a calculator over pool, with empty memoization tables.
func New(pool *domain.OperatorPool) *Calculator {
	return &Calculator{
		pool:      pool,
		condState: make(map[string]state),
		condValue: make(map[string]float64),
		stepState: make(map[int]state),
		stepValue: make(map[int]float64),
	}
}

func condKey(literalID string, ownerStepNum int) string {
	return fmt.Sprintf("%d:%s", ownerStepNum, literalID)
}

// HCondition returns h_condition(stepnum, literalID): 0 if the literal is
// static or already holds in the initial state; otherwise the minimum
// h_step over every primitive, instantiable candidate provider (spec.md
// §4.9).
func (c *Calculator) HCondition(ownerStepNum int, literalID string) float64 {
	key := condKey(literalID, ownerStepNum)
	if c.condState[key] == stateInProgress {
		return 0
	}
	if c.condState[key] == stateDone {
		return c.condValue[key]
	}

	schema, err := c.pool.Schema(ownerStepNum)
	if err != nil {
		return 0
	}
	lit, ok := schema.FindPrecond(literalID)
	if !ok {
		lit, ok = schema.FindEffect(literalID)
	}
	if !ok {
		return 0
	}
	if lit.IsStatic || c.holdsInInit(schema, lit) {
		c.condState[key] = stateDone
		c.condValue[key] = 0
		return 0
	}

	c.condState[key] = stateInProgress
	best := -1.0
	for _, ref := range schema.CandidateMap[literalID] {
		provider, err := c.pool.Schema(ref.StepNum)
		if err != nil || !provider.Instantiable {
			continue
		}
		cost := c.HStep(ref.StepNum)
		if best < 0 || cost < best {
			best = cost
		}
	}
	if best < 0 {
		best = 0
	}
	c.condState[key] = stateDone
	c.condValue[key] = best
	return best
}

// HStep returns h_step(stepnum): 1 plus the sum of h_condition over the
// schema's own preconditions (spec.md §4.9).
func (c *Calculator) HStep(stepNum int) float64 {
	if c.stepState[stepNum] == stateInProgress {
		return 1
	}
	if c.stepState[stepNum] == stateDone {
		return c.stepValue[stepNum]
	}
	schema, err := c.pool.Schema(stepNum)
	if err != nil {
		return 1
	}

	c.stepState[stepNum] = stateInProgress
	total := 1.0
	for _, precond := range schema.Preconds {
		total += c.HCondition(stepNum, precond.ID)
	}
	c.stepState[stepNum] = stateDone
	c.stepValue[stepNum] = total
	return total
}

// holdsInInit reports whether lit is one of the init sentinel's effects:
// a candidate (stepnum, effect) pair pointing at the init sentinel whose
// effect literal equals lit (same name, arguments, and truth).
func (c *Calculator) holdsInInit(schema *ptypes.Operator, lit ptypes.Literal) bool {
	initIdx := c.pool.InitIndex()
	initEffects := c.pool.Init().Effects
	for _, ref := range schema.CandidateMap[lit.ID] {
		if ref.StepNum == initIdx && ref.EffectIdx < len(initEffects) && initEffects[ref.EffectIdx].Equal(lit) {
			return true
		}
	}
	return false
}

// HPlan returns h_plan(p): the sum of h_condition over every open-
// precondition flaw currently in p's flaw library (spec.md §4.9). Every
// OPF still in the library has no existing provider choice by
// construction — resolving one removes it. A solved plan (empty flaw
// library) has h_plan 0.
func (c *Calculator) HPlan(p *plan.Plan) float64 {
	total := 0.0
	for _, f := range p.Flaws.All() {
		if f.Kind != flaw.KindOPF {
			continue
		}
		total += c.HCondition(f.OpenPrecond.ConsumerStep, f.OpenPrecond.PrecondID)
	}
	return total
}

// OrderKey is the frontier's deterministic lexicographic comparison key
// (spec.md §4.9): (cost+heuristic, cost, heuristic, flaw-count,
// -causal-link-count, -ordering-count, sum of step numbers, canonical
// ordering-graph form).
type OrderKey struct {
	CostPlusHeuristic float64
	Cost              float64
	Heuristic         float64
	FlawCount         int
	NegCausalLinks    int
	NegOrderingEdges  int
	StepNumSum        int
	OrderingCanonical string
}

// KeyOf computes p's frontier ordering key.
func KeyOf(p *plan.Plan) OrderKey {
	stepSum := 0
	edgeCount := 0
	for _, s := range p.Steps() {
		stepSum += s.StepNum
		edgeCount += len(p.Ordering.Children(s.InstanceID))
	}
	return OrderKey{
		CostPlusHeuristic: p.Cost + p.Heuristic,
		Cost:              p.Cost,
		Heuristic:         p.Heuristic,
		FlawCount:         p.Flaws.Len(),
		NegCausalLinks:    -p.CausalLinks.Len(),
		NegOrderingEdges:  -edgeCount,
		StepNumSum:        stepSum,
		OrderingCanonical: canonicalOrdering(p),
	}
}

// Less reports whether a sorts strictly before b in the frontier.
func (a OrderKey) Less(b OrderKey) bool {
	if a.CostPlusHeuristic != b.CostPlusHeuristic {
		return a.CostPlusHeuristic < b.CostPlusHeuristic
	}
	if a.Cost != b.Cost {
		return a.Cost < b.Cost
	}
	if a.Heuristic != b.Heuristic {
		return a.Heuristic < b.Heuristic
	}
	if a.FlawCount != b.FlawCount {
		return a.FlawCount < b.FlawCount
	}
	if a.NegCausalLinks != b.NegCausalLinks {
		return a.NegCausalLinks < b.NegCausalLinks
	}
	if a.NegOrderingEdges != b.NegOrderingEdges {
		return a.NegOrderingEdges < b.NegOrderingEdges
	}
	if a.StepNumSum != b.StepNumSum {
		return a.StepNumSum < b.StepNumSum
	}
	return a.OrderingCanonical < b.OrderingCanonical
}

// canonicalOrdering renders the ordering DAG as a sorted "u->v" edge list
// string, a deterministic canonical form for final tiebreaking.
func canonicalOrdering(p *plan.Plan) string {
	var edges []string
	for _, s := range p.Steps() {
		for _, child := range p.Ordering.Children(s.InstanceID) {
			edges = append(edges, s.InstanceID+"->"+child)
		}
	}
	sort.Strings(edges)
	out := ""
	for _, e := range edges {
		out += e + ";"
	}
	return out
}
