package refine

import (
	"github.com/PetervDooren/PyDPOCL/pkg/flaw"
	"github.com/PetervDooren/PyDPOCL/pkg/plan"
	"github.com/PetervDooren/PyDPOCL/pkg/ptypes"
)

// expandUGSV implements spec.md §4.7's ungrounded-symbolic-variable
// resolution: one clone per typeable object, kept only if the
// codesignation succeeds. A grounding that binds a robot argument
// carrying a reach pair immediately unifies that pair's area variable
// against the robot's reach region; failure there prunes the clone.
func expandUGSV(env *Env, p *plan.Plan, f flaw.Flaw) []*plan.Plan {
	arg, ok := findArgument(p, f.UngroundedVar.ArgID)
	if !ok {
		return nil
	}

	var out []*plan.Plan
	for _, obj := range env.Problem.TypeableObjects(arg.Type) {
		child := cloneChild(env, p, f)
		if !child.Symbolic.AddCodesignation(arg, obj) {
			continue
		}
		if !resolveReachFor(env, child, arg, obj) {
			continue
		}
		out = append(out, child)
	}
	return out
}

// findArgument locates the Argument value for id among every step's
// argument list currently in the plan.
func findArgument(p *plan.Plan, id string) (ptypes.Argument, bool) {
	for _, step := range p.Steps() {
		for _, a := range step.Args {
			if a.ID == id {
				return a, true
			}
		}
	}
	return ptypes.Argument{}, false
}

// resolveReachFor checks every reach constraint binding arg as the
// robot slot and, once grounded to obj, unifies that constraint's area
// argument within obj's registered reach region (spec.md §4.7).
func resolveReachFor(env *Env, child *plan.Plan, arg, obj ptypes.Argument) bool {
	reachAreaID, hasReach := env.Problem.RobotReach[obj.ID]
	for _, rc := range child.Reach {
		if rc.RobotID != arg.ID {
			continue
		}
		if !hasReach {
			return false
		}
		if !child.Geometric.Within(rc.AreaID, reachAreaID) {
			return false
		}
	}
	return true
}
