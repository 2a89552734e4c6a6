package refine

import (
	"github.com/PetervDooren/PyDPOCL/pkg/flaw"
	"github.com/PetervDooren/PyDPOCL/pkg/plan"
)

// expandGPTF implements spec.md §4.7's geometric-path-threat
// resolution, symmetric to GTF over a path variable: a static
// obstacle is relocated by a move step, a dynamic one is handled by
// promoting/demoting the path-owning step around the obstacle's
// placement window.
func expandGPTF(env *Env, p *plan.Plan, f flaw.Flaw) []*plan.Plan {
	gt := f.GeometricThreat
	if isStaticArea(p, gt.ThreatID) {
		return addMoveStepExpansions(env, p, f, gt)
	}
	return promoteDemoteWindows(env, p, f, gt)
}
