package refine

import (
	"github.com/PetervDooren/PyDPOCL/pkg/flaw"
	"github.com/PetervDooren/PyDPOCL/pkg/plan"
	"github.com/PetervDooren/PyDPOCL/pkg/ptypes"
)

// expandGTF implements spec.md §4.7's geometric-placement-threat
// resolution. If the threatening area's object never moves in this
// plan (its only `within` causal link runs init -> goal), the fix adds
// a move step that relocates it out of the threatened area's way.
// Otherwise the two placements' enclosing causal-link windows are
// promoted/demoted exactly as TCLF orders a threatening step around a
// link.
func expandGTF(env *Env, p *plan.Plan, f flaw.Flaw) []*plan.Plan {
	gt := f.GeometricThreat
	if isStaticArea(p, gt.ThreatID) {
		return addMoveStepExpansions(env, p, f, gt)
	}
	return promoteDemoteWindows(env, p, f, gt)
}

// isStaticArea reports whether areaID's owning object is positioned by
// a single `within` causal link running directly from init to goal,
// i.e. nothing in the plan ever repositions it (spec.md §4.7).
func isStaticArea(p *plan.Plan, areaID string) bool {
	area, ok := p.Geometric.Areas[areaID]
	if !ok || area.Owner.ID == "" {
		return false
	}
	found := false
	for _, link := range p.CausalLinks.All() {
		if link.Effect.Name != ptypes.PredicateWithin || len(link.Effect.Args) != 2 {
			continue
		}
		if !p.Symbolic.IsCodesignated(link.Effect.Args[0], area.Owner) {
			continue
		}
		if link.Source != p.InitID || link.Sink != p.GoalID {
			return false
		}
		found = true
	}
	return found
}

// addMoveStepExpansions spawns one clone per instantiable schema
// carrying a positive `within` effect: instantiate it, insert it,
// codesignate its moved-object parameter with the threatening area's
// static owner, and declare the new placement disjoint from the
// threatened region (spec.md §4.7).
func addMoveStepExpansions(env *Env, p *plan.Plan, f flaw.Flaw, gt flaw.GeometricThreat) []*plan.Plan {
	threatArea, ok := p.Geometric.Areas[gt.ThreatID]
	if !ok || threatArea.Owner.ID == "" {
		return nil
	}
	staticObj := threatArea.Owner
	if obj, bound := p.Symbolic.Constant(threatArea.Owner); bound {
		staticObj = obj
	}

	var out []*plan.Plan
	for _, schema := range env.Pool.Entries {
		if !schema.Instantiable {
			continue
		}
		effectIdx := -1
		for i, eff := range schema.Effects {
			if eff.Name == ptypes.PredicateWithin && eff.Truth && len(eff.Args) == 2 {
				effectIdx = i
				break
			}
		}
		if effectIdx < 0 {
			continue
		}

		child := cloneChild(env, p, f)
		fresh, err := env.Pool.Instantiate(schema.StepNum, env.IDs)
		if err != nil {
			continue
		}
		if err := child.InsertPrimitive(fresh); err != nil {
			continue
		}
		movedArg := fresh.Effects[effectIdx].Args[0]
		newAreaID := fresh.Effects[effectIdx].Args[1].ID
		if !child.Symbolic.AddCodesignation(movedArg, staticObj) {
			continue
		}
		child.Geometric.AddDisjunction(newAreaID, gt.ThreatenedID)
		out = append(out, child)
	}
	return out
}

// enclosingLink finds the causal link whose positive `within` effect
// grounds areaID, if any.
func enclosingLink(p *plan.Plan, areaID string) (source, sink string, ok bool) {
	for _, link := range p.CausalLinks.All() {
		if link.Effect.Name == ptypes.PredicateWithin && len(link.Effect.Args) == 2 && link.Effect.Args[1].ID == areaID {
			return link.Source, link.Sink, true
		}
	}
	return "", "", false
}

// windowFor returns the enclosing causal-link window for an area
// variable, or, for a path variable (which has no `within` effect of
// its own), the degenerate window of the step that owns the traverse
// literal naming it.
func windowFor(p *plan.Plan, id string) (source, sink string, ok bool) {
	if src, snk, ok := enclosingLink(p, id); ok {
		return src, snk, true
	}
	for _, step := range p.Steps() {
		for _, lit := range step.Preconds {
			if lit.Name == ptypes.PredicateTraverse && len(lit.Args) == 4 && lit.Args[1].ID == id {
				return step.InstanceID, step.InstanceID, true
			}
		}
		for _, lit := range step.Effects {
			if lit.Name == ptypes.PredicateTraverse && len(lit.Args) == 4 && lit.Args[1].ID == id {
				return step.InstanceID, step.InstanceID, true
			}
		}
	}
	return "", "", false
}

// promoteDemoteWindows produces the two symmetric orderings between the
// threatened and threatening placements' windows, exactly as TCLF
// orders a threat around a link, kept only where the ordering graph
// stays acyclic (spec.md §4.7).
func promoteDemoteWindows(env *Env, p *plan.Plan, f flaw.Flaw, gt flaw.GeometricThreat) []*plan.Plan {
	srcA, sinkA, okA := windowFor(p, gt.ThreatenedID)
	srcB, sinkB, okB := windowFor(p, gt.ThreatID)
	if !okA || !okB {
		return nil
	}

	var out []*plan.Plan

	first := cloneChild(env, p, f)
	first.Ordering.AddEdge(sinkA, srcB)
	if first.IsInternallyConsistent() {
		out = append(out, first)
	}

	second := cloneChild(env, p, f)
	second.Ordering.AddEdge(sinkB, srcA)
	if second.IsInternallyConsistent() {
		out = append(out, second)
	}

	return out
}
