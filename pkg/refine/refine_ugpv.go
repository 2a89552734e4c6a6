package refine

import (
	"github.com/PetervDooren/PyDPOCL/pkg/flaw"
	"github.com/PetervDooren/PyDPOCL/pkg/pathplan"
	"github.com/PetervDooren/PyDPOCL/pkg/plan"
)

// expandUGPV implements spec.md §4.7's ungrounded-path-variable
// resolution: attempt resolve_path directly; on failure run
// movable-obstacle discovery and spawn one clone per discovered
// obstacle set, each lifting the path's disjunction against every
// obstacle in the set and raising a GPTF per obstacle before
// re-attempting resolve_path (spec.md §4.4 step 4).
func expandUGPV(env *Env, p *plan.Plan, f flaw.Flaw) []*plan.Plan {
	id := f.UngroundedVar.ArgID

	direct := cloneChild(env, p, f)
	setPathDimensions(env, direct, id)
	if pathplan.Resolve(direct.Geometric, id) {
		return []*plan.Plan{direct}
	}

	sets := pathplan.DiscoverMovableObstacles(p.Geometric, id)
	var out []*plan.Plan
	for _, set := range sets {
		child := cloneChild(env, p, f)
		setPathDimensions(env, child, id)
		for _, obstacle := range set {
			child.Geometric.RemoveDisjunction(id, obstacle)
			child.Flaws.Insert(flaw.Flaw{
				ID:   env.IDs.NextID(),
				Kind: flaw.KindGPTF,
				GeometricThreat: flaw.GeometricThreat{
					ThreatenedID: id,
					ThreatID:     obstacle,
					IsPath:       true,
				},
			})
		}
		if !pathplan.Resolve(child.Geometric, id) {
			continue
		}
		out = append(out, child)
	}
	return out
}

// setPathDimensions sets the path variable's width/length from its
// mover's problem dimensions, once the mover is grounded to a constant.
func setPathDimensions(env *Env, p *plan.Plan, pathID string) {
	rec, ok := p.Geometric.Paths[pathID]
	if !ok || rec.Mover.ID == "" {
		return
	}
	objArg, bound := p.Symbolic.Constant(rec.Mover)
	var moverID string
	if bound {
		moverID = objArg.ID
	} else {
		moverID = rec.Mover.ID
	}
	d, found := env.Problem.ObjectDimensions[moverID]
	if !found {
		return
	}
	p.Geometric.SetDimensions(pathID, d[0], d[1])
}
