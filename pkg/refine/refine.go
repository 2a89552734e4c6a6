// Package refine implements the plan's refinement operators: the search
// transitions that take a popped plan and its selected flaw and produce
// zero or more successor plans (spec.md §4.7), plus the unification
// routine they share (spec.md §4.8).
//
// Each operator clones the parent plan per candidate resolution and
// mutates only the clone, matching dungo's pkg/synthesis/grammar.go
// staged-rule pipeline: a rule is tried against a working copy, and a
// failed attempt is discarded rather than patched up in place.
package refine

import (
	"github.com/PetervDooren/PyDPOCL/pkg/domain"
	"github.com/PetervDooren/PyDPOCL/pkg/flaw"
	"github.com/PetervDooren/PyDPOCL/pkg/idgen"
	"github.com/PetervDooren/PyDPOCL/pkg/plan"
	"github.com/PetervDooren/PyDPOCL/pkg/ptypes"
)

// Env bundles the read-only, process-wide context every refinement
// operator needs alongside the plan it is expanding: the grounded
// operator pool, the problem description, and the shared id stream
// (spec.md §5 "Ownership": schemas and candidate/threat maps are
// immutable shared reference data).
type Env struct {
	Pool    *domain.OperatorPool
	Problem *domain.Problem
	IDs     *idgen.Source
}

// Expand pops p's highest-priority flaw and returns every successor
// plan that flaw's refinement operator produces. It returns nil if p has
// no flaws (p is a candidate solution).
func Expand(env *Env, p *plan.Plan) []*plan.Plan {
	f, ok := p.Flaws.Next()
	if !ok {
		return nil
	}
	switch f.Kind {
	case flaw.KindOPF:
		return expandOPF(env, p, f)
	case flaw.KindTCLF:
		return expandTCLF(env, p, f)
	case flaw.KindUGSV:
		return expandUGSV(env, p, f)
	case flaw.KindUGGV:
		return expandUGGV(env, p, f)
	case flaw.KindUGPV:
		return expandUGPV(env, p, f)
	case flaw.KindGTF:
		return expandGTF(env, p, f)
	case flaw.KindGPTF:
		return expandGPTF(env, p, f)
	default:
		return nil
	}
}

// Unify implements spec.md §4.8: a `within` effect/precondition pair
// unifies by symbolic codesignation of the object arguments and
// geometric mutual containment of the area arguments; any other
// predicate unifies by pairwise codesignation of corresponding
// arguments. Failure at any sub-step rolls back nothing itself — the
// caller discards the whole clone.
func Unify(child *plan.Plan, providerEffect, consumerPrecond ptypes.Literal) bool {
	if providerEffect.Name == ptypes.PredicateWithin {
		if len(providerEffect.Args) != 2 || len(consumerPrecond.Args) != 2 {
			return false
		}
		if !child.Symbolic.AddCodesignation(providerEffect.Args[0], consumerPrecond.Args[0]) {
			return false
		}
		return unifyArea(child, providerEffect.Args[1].ID, consumerPrecond.Args[1].ID)
	}
	if len(providerEffect.Args) != len(consumerPrecond.Args) {
		return false
	}
	for i := range providerEffect.Args {
		if !child.Symbolic.AddCodesignation(providerEffect.Args[i], consumerPrecond.Args[i]) {
			return false
		}
	}
	return true
}

// unifyArea identifies two area variables as denoting the same region by
// narrowing each one's max-region within the other's (spec.md §4.3's
// `unify(A, B)` applied in both directions, since geometric unification
// asserts equality, not one-way containment). geometry.Bindings.Within
// requires its first argument to be a registered Areas CSP variable, so
// when one side names an immutable Defined region instead (a goal
// precondition naming a fixed target region rather than a free area
// variable), only the variable side can narrow — the Defined side has
// no max-region to shrink, so the single direction is the whole of
// unification. If neither side is a registered variable, unification
// degrades to id equality.
func unifyArea(child *plan.Plan, areaA, areaB string) bool {
	_, aIsVar := child.Geometric.Areas[areaA]
	_, bIsVar := child.Geometric.Areas[areaB]
	switch {
	case aIsVar && bIsVar:
		return child.Geometric.Within(areaA, areaB) && child.Geometric.Within(areaB, areaA)
	case aIsVar:
		return child.Geometric.Within(areaA, areaB)
	case bIsVar:
		return child.Geometric.Within(areaB, areaA)
	default:
		return areaA == areaB
	}
}

func cloneChild(env *Env, p *plan.Plan, f flaw.Flaw) *plan.Plan {
	child := p.Clone(env.IDs.NextID())
	child.Flaws.Remove(f.ID)
	return child
}
