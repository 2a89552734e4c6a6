package refine

import (
	"github.com/PetervDooren/PyDPOCL/pkg/flaw"
	"github.com/PetervDooren/PyDPOCL/pkg/plan"
)

// expandUGGV implements spec.md §4.7's ungrounded-geometric-variable
// resolution: seed the area's disjunctions against every other
// registered area whose owner is symbolically excluded from
// co-designating with this one, set its object dimensions, then
// resolve. A resolve blocked by already-assigned placements is not a
// dead end: the blocking areas become forced disjunctions (so resolve
// can route around them) and each also raises a geometric threat flaw
// so the search can later choose to relocate the obstacle instead.
func expandUGGV(env *Env, p *plan.Plan, f flaw.Flaw) []*plan.Plan {
	id := f.UngroundedVar.ArgID
	child := cloneChild(env, p, f)

	if _, ok := child.Geometric.Areas[id]; !ok {
		return nil
	}
	if dims, ok := ownerDimensions(env, child, id); ok {
		child.Geometric.SetDimensions(id, dims[0], dims[1])
	}
	seedAreaDisjunctions(child, id)

	if child.Geometric.Resolve(id) {
		return []*plan.Plan{child}
	}

	conflicts := child.Geometric.ConflictingAssigned(id)
	if len(conflicts) == 0 {
		return nil
	}
	for _, other := range conflicts {
		child.Geometric.AddDisjunction(id, other)
		child.Flaws.Insert(flaw.Flaw{
			ID:   env.IDs.NextID(),
			Kind: flaw.KindGTF,
			GeometricThreat: flaw.GeometricThreat{
				ThreatenedID: id,
				ThreatID:     other,
				IsPath:       false,
			},
		})
	}

	if child.Geometric.Resolve(id) {
		return []*plan.Plan{child}
	}

	child.Flaws.Insert(flaw.Flaw{
		ID:            env.IDs.NextID(),
		Kind:          flaw.KindUGGV,
		UngroundedVar: f.UngroundedVar,
	})
	return []*plan.Plan{child}
}

// ownerDimensions resolves the area's owning object (if SetOwner has
// linked one, and it is grounded to a constant) to its problem
// dimensions.
func ownerDimensions(env *Env, p *plan.Plan, areaID string) (dims [2]float64, ok bool) {
	area, found := p.Geometric.Areas[areaID]
	if !found || area.Owner.ID == "" {
		return dims, false
	}
	objArg, bound := p.Symbolic.Constant(area.Owner)
	if !bound {
		return dims, false
	}
	d, found := env.Problem.ObjectDimensions[objArg.ID]
	if !found {
		return dims, false
	}
	return d, true
}

// seedAreaDisjunctions adds a disjunction between areaID and every other
// registered area whose owner is symbolically excluded from
// co-designating with areaID's owner, so resolve never places two
// distinct objects' areas on top of one another.
func seedAreaDisjunctions(p *plan.Plan, areaID string) {
	area := p.Geometric.Areas[areaID]
	if area == nil || area.Owner.ID == "" {
		return
	}
	for otherID, other := range p.Geometric.Areas {
		if otherID == areaID || other.Owner.ID == "" {
			continue
		}
		if p.Symbolic.CanCodesignate(area.Owner, other.Owner) {
			continue
		}
		p.Geometric.AddDisjunction(areaID, otherID)
	}
}
