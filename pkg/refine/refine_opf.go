package refine

import (
	"github.com/PetervDooren/PyDPOCL/pkg/flaw"
	"github.com/PetervDooren/PyDPOCL/pkg/plan"
	"github.com/PetervDooren/PyDPOCL/pkg/ptypes"
)

// expandOPF implements spec.md §4.7's three open-precondition expansions:
// add a fresh step, reuse an existing one, or ground in the initial
// state. All three try to unify a candidate provider effect with the
// flaw's open precondition and, on success, wire the causal link.
func expandOPF(env *Env, p *plan.Plan, f flaw.Flaw) []*plan.Plan {
	consumerOp, ok := p.StepByID(f.OpenPrecond.ConsumerInstance)
	if !ok {
		return nil
	}
	consumerPrecond, ok := consumerOp.FindPrecond(f.OpenPrecond.PrecondID)
	if !ok {
		return nil
	}
	candidates := consumerOp.CandidateMap[f.OpenPrecond.PrecondID]

	var children []*plan.Plan
	children = append(children, addStepExpansions(env, p, f, consumerPrecond, candidates)...)
	children = append(children, reuseStepExpansions(env, p, f, consumerPrecond, candidates)...)
	children = append(children, groundInInitExpansions(env, p, f, consumerPrecond, candidates)...)
	return children
}

// addStepExpansions instantiates a fresh copy of each instantiable
// candidate schema, inserts it, and attempts to unify-then-resolve its
// named effect with the open precondition (spec.md §4.7 "Add step").
func addStepExpansions(env *Env, p *plan.Plan, f flaw.Flaw, consumerPrecond ptypes.Literal, candidates []ptypes.CandidateRef) []*plan.Plan {
	var out []*plan.Plan
	for _, ref := range candidates {
		schema, err := env.Pool.Schema(ref.StepNum)
		if err != nil || !schema.Instantiable {
			continue
		}
		child := cloneChild(env, p, f)
		fresh, err := env.Pool.Instantiate(ref.StepNum, env.IDs)
		if err != nil {
			continue
		}
		if err := child.InsertPrimitive(fresh); err != nil {
			continue
		}
		if ref.EffectIdx < 0 || ref.EffectIdx >= len(fresh.Effects) {
			continue
		}
		providerEffect := fresh.Effects[ref.EffectIdx]
		consumerInChild, ok := child.StepByID(f.OpenPrecond.ConsumerInstance)
		if !ok {
			continue
		}
		consumerPrecondInChild, ok := consumerInChild.FindPrecond(consumerPrecond.ID)
		if !ok {
			continue
		}
		if !Unify(child, providerEffect, consumerPrecondInChild) {
			continue
		}
		if err := child.ResolveWithPrimitive(fresh.InstanceID, consumerInChild.InstanceID, providerEffect, consumerPrecondInChild); err != nil {
			continue
		}
		child.Cost = p.Cost + plan.StepCost(fresh)
		child.Depth = p.Depth + 1
		out = append(out, child)
	}
	return out
}

// reuseStepExpansions attempts unify-then-resolve against every already
// non-init step in the plan that is a candidate provider and not already
// forced after the consumer by ordering (spec.md §4.7 "Reuse step").
func reuseStepExpansions(env *Env, p *plan.Plan, f flaw.Flaw, consumerPrecond ptypes.Literal, candidates []ptypes.CandidateRef) []*plan.Plan {
	var out []*plan.Plan
	for _, existing := range p.Steps() {
		if existing.InstanceID == p.InitID || existing.InstanceID == p.GoalID {
			continue
		}
		if existing.InstanceID == f.OpenPrecond.ConsumerInstance {
			continue
		}
		for _, ref := range candidates {
			if ref.StepNum != existing.StepNum {
				continue
			}
			if p.Ordering.HasPath(f.OpenPrecond.ConsumerInstance, existing.InstanceID) {
				continue
			}
			if ref.EffectIdx < 0 || ref.EffectIdx >= len(existing.Effects) {
				continue
			}
			child := cloneChild(env, p, f)
			providerStep, ok := child.StepByID(existing.InstanceID)
			if !ok {
				continue
			}
			providerEffect := providerStep.Effects[ref.EffectIdx]
			consumerInChild, ok := child.StepByID(f.OpenPrecond.ConsumerInstance)
			if !ok {
				continue
			}
			consumerPrecondInChild, ok := consumerInChild.FindPrecond(consumerPrecond.ID)
			if !ok {
				continue
			}
			if !Unify(child, providerEffect, consumerPrecondInChild) {
				continue
			}
			if err := child.ResolveWithPrimitive(providerStep.InstanceID, consumerInChild.InstanceID, providerEffect, consumerPrecondInChild); err != nil {
				continue
			}
			out = append(out, child)
		}
	}
	return out
}

// groundInInitExpansions resolves the open precondition directly against
// the init sentinel's effects (spec.md §4.7 "Ground in init"). For
// `within` preconditions this follows the owning object's own
// initial-position effect rather than a generic candidate-ref match,
// since the correct provider effect depends on which object the
// consumer's object argument actually denotes.
func groundInInitExpansions(env *Env, p *plan.Plan, f flaw.Flaw, consumerPrecond ptypes.Literal, candidates []ptypes.CandidateRef) []*plan.Plan {
	initOp, ok := p.StepByID(p.InitID)
	if !ok {
		return nil
	}

	attempt := func(effect ptypes.Literal) *plan.Plan {
		child := cloneChild(env, p, f)
		consumerInChild, ok := child.StepByID(f.OpenPrecond.ConsumerInstance)
		if !ok {
			return nil
		}
		consumerPrecondInChild, ok := consumerInChild.FindPrecond(consumerPrecond.ID)
		if !ok {
			return nil
		}
		if !Unify(child, effect, consumerPrecondInChild) {
			return nil
		}
		if err := child.ResolveWithPrimitive(p.InitID, consumerInChild.InstanceID, effect, consumerPrecondInChild); err != nil {
			return nil
		}
		return child
	}

	var out []*plan.Plan
	if consumerPrecond.Name == ptypes.PredicateWithin && len(consumerPrecond.Args) == 2 {
		obj := consumerPrecond.Args[0]
		for _, eff := range initOp.Effects {
			if eff.Name != ptypes.PredicateWithin || len(eff.Args) != 2 {
				continue
			}
			if eff.Args[0].ID != obj.ID && !p.Symbolic.IsCodesignated(eff.Args[0], obj) {
				continue
			}
			if c := attempt(eff); c != nil {
				out = append(out, c)
			}
		}
		return out
	}

	for _, ref := range candidates {
		if ref.StepNum != env.Pool.InitIndex() {
			continue
		}
		if ref.EffectIdx < 0 || ref.EffectIdx >= len(initOp.Effects) {
			continue
		}
		if c := attempt(initOp.Effects[ref.EffectIdx]); c != nil {
			out = append(out, c)
		}
	}
	return out
}
