package planio

import (
	"fmt"
	"math"

	"github.com/PetervDooren/PyDPOCL/pkg/domain"
	"github.com/PetervDooren/PyDPOCL/pkg/geometry"
	"github.com/PetervDooren/PyDPOCL/pkg/plan"
	"github.com/PetervDooren/PyDPOCL/pkg/ptypes"
)

// Result is check_plan's outcome: Valid iff Violations is empty. Every
// check below keeps running after a failure so a single call surfaces
// every violation at once, styled on dshills/dungo's
// pkg/validation/validator.go DefaultValidator.Validate, which
// accumulates ConstraintResult failures into one ValidationReport
// instead of stopping at the first error.
type Result struct {
	Valid      bool
	Violations []string
}

func (r *Result) fail(format string, args ...any) {
	r.Violations = append(r.Violations, fmt.Sprintf(format, args...))
}

// CheckPlan implements spec.md §6.4's validity predicate: the plan must
// be internally consistent, fully grounded, every precondition supported
// exactly once, every causal link threat-free and unified, every
// geometric placement adequate and reachable, every overlap rule
// respected, and an executable total order must exist. pr supplies the
// reach-region geometry the plan itself does not carry (a robot's reach
// band is named in the problem description, not the plan).
func CheckPlan(p *plan.Plan, pr *domain.Problem) Result {
	var r Result
	checkInternalConsistency(p, &r)
	checkGrounding(p, &r)
	checkPrecondSupport(p, &r)
	checkThreatFreedom(p, &r)
	checkCausalLinkUnification(p, &r)
	checkGeometricSufficiency(p, &r)
	checkReach(p, pr, &r)
	checkOverlapRules(p, &r)
	checkExecutableOrder(p, &r)
	r.Valid = len(r.Violations) == 0
	return r
}

func checkInternalConsistency(p *plan.Plan, r *Result) {
	if !p.Ordering.IsInternallyConsistent() {
		r.fail("ordering graph contains a cycle")
	}
	if err := p.Geometric.Validate(); err != nil {
		r.fail("geometric bindings: %v", err)
	}
}

func checkGrounding(p *plan.Plan, r *Result) {
	for _, step := range p.Steps() {
		for _, a := range step.Args {
			switch a.Kind {
			case ptypes.KindObject:
				if _, bound := p.Symbolic.Constant(a); !bound {
					r.fail("step %s: argument %s (%s) is not grounded to a constant", step.InstanceID, a.Role, a.ID)
				}
			case ptypes.KindArea:
				if _, defined := p.Geometric.Defined[a.ID]; defined {
					continue // an immutable named region is grounded by definition
				}
				area, ok := p.Geometric.Areas[a.ID]
				if !ok || area.Assigned == nil {
					r.fail("step %s: area argument %s has no assigned placement", step.InstanceID, a.ID)
				}
			case ptypes.KindPath:
				path, ok := p.Geometric.Paths[a.ID]
				if !ok || path.Corridor == nil {
					r.fail("step %s: path argument %s has no assigned corridor", step.InstanceID, a.ID)
				}
			}
		}
	}
}

// checkPrecondSupport implements spec.md §6.4's "every step precondition
// is supported by exactly one incoming causal link". It uses
// CausalLinks.IncomingTo(step), scoped by instance id, rather than the
// causal-link graph's global SupportingPrecondition(precondID) index:
// ptypes.Literal.ID is schema-level and reused verbatim across every
// instance of the same schema (pkg/domain's Instantiate preserves it, so
// candidate/threat maps keep working), so two instances of the same
// schema in one plan would otherwise collide in a precondition-id-keyed
// global lookup. IncomingTo is already instance-scoped via Sink, so no
// such collision is possible here.
func checkPrecondSupport(p *plan.Plan, r *Result) {
	for _, step := range p.Steps() {
		if step.InstanceID == p.InitID {
			continue
		}
		incoming := p.CausalLinks.IncomingTo(step.InstanceID)
		for _, precond := range step.Preconds {
			count := 0
			for _, link := range incoming {
				if link.Precond.ID == precond.ID {
					count++
				}
			}
			switch {
			case count == 0:
				r.fail("step %s: precondition %s has no supporting causal link", step.InstanceID, precond.String())
			case count > 1:
				r.fail("step %s: precondition %s is supported by %d causal links", step.InstanceID, precond.String(), count)
			}
		}
	}
}

// checkThreatFreedom implements spec.md §6.4's "no causal link is
// threatened by any step": for every link and every other step with an
// effect of the same predicate and opposite sign as the link's
// precondition, either the step falls outside the link's window, or its
// effect's arguments fail to codesignate with the precondition's
// (so the literal it asserts is not actually the negation in force).
func checkThreatFreedom(p *plan.Plan, r *Result) {
	for _, link := range p.CausalLinks.All() {
		for _, step := range p.Steps() {
			if step.InstanceID == link.Source || step.InstanceID == link.Sink {
				continue
			}
			for _, eff := range step.Effects {
				if eff.Name != link.Precond.Name || eff.Truth == link.Precond.Truth {
					continue
				}
				if !literalArgsCodesignate(p, eff, link.Precond) {
					continue
				}
				if p.Ordering.HasPath(step.InstanceID, link.Source) || p.Ordering.HasPath(link.Sink, step.InstanceID) {
					continue
				}
				r.fail("causal link %s->%s (%s) is threatened by step %s's effect %s",
					link.Source, link.Sink, link.Precond.String(), step.InstanceID, eff.String())
			}
		}
	}
}

// checkCausalLinkUnification implements spec.md §6.4's "every causal
// link's effect and precondition are unified": same predicate and sign,
// with every argument pair codesignated (objects) or equivalent
// (areas/paths, compared by assigned geometry rather than the mutating
// geometry.Bindings.Within, which would record new state as a side
// effect of a read-only check).
func checkCausalLinkUnification(p *plan.Plan, r *Result) {
	for _, link := range p.CausalLinks.All() {
		if link.Effect.Name != link.Precond.Name || link.Effect.Truth != link.Precond.Truth {
			r.fail("causal link %s->%s: effect %s does not unify with precondition %s",
				link.Source, link.Sink, link.Effect.String(), link.Precond.String())
			continue
		}
		if !literalArgsCodesignate(p, link.Effect, link.Precond) {
			r.fail("causal link %s->%s: arguments of %s and %s are not unified",
				link.Source, link.Sink, link.Effect.String(), link.Precond.String())
		}
	}
}

// literalArgsCodesignate reports whether a and b (same predicate, same
// arity) have pairwise-equivalent arguments: symbolic codesignation for
// object args, assigned-polygon equality for area args, assigned-corridor
// equality for path args.
func literalArgsCodesignate(p *plan.Plan, a, b ptypes.Literal) bool {
	if len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		x, y := a.Args[i], b.Args[i]
		switch x.Kind {
		case ptypes.KindObject:
			if !p.Symbolic.IsCodesignated(x, y) {
				return false
			}
		case ptypes.KindArea:
			if !geometricEquivalent(p.Geometric.Areas[x.ID], p.Geometric.Areas[y.ID]) {
				return false
			}
		case ptypes.KindPath:
			ax, ay := p.Geometric.Paths[x.ID], p.Geometric.Paths[y.ID]
			if ax == nil || ay == nil || ax.Corridor == nil || ay.Corridor == nil {
				return false
			}
			if !samePoly(*ax.Corridor, *ay.Corridor) {
				return false
			}
		}
	}
	return true
}

func geometricEquivalent(a, b *geometry.Placeloc) bool {
	if a == nil || b == nil || a.Assigned == nil || b.Assigned == nil {
		return false
	}
	return samePoly(*a.Assigned, *b.Assigned)
}

func samePoly(a, b geometry.Poly) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func checkGeometricSufficiency(p *plan.Plan, r *Result) {
	if err := p.Geometric.Validate(); err != nil {
		r.fail("geometric sufficiency: %v", err)
	}
}

// checkReach implements spec.md §6.4's "every reach constraint is
// satisfied": the area must lie within the robot's reach region, named
// by the problem description (the plan's own bindings have no notion of
// "which defined area is robot X's reach band" — only the problem loader
// does).
func checkReach(p *plan.Plan, pr *domain.Problem, r *Result) {
	for _, rc := range p.Reach {
		area, ok := p.Geometric.Areas[rc.AreaID]
		if !ok || area.Assigned == nil {
			r.fail("reach constraint on area %s: area is not grounded", rc.AreaID)
			continue
		}
		robot, bound := p.Symbolic.Constant(ptypes.Argument{ID: rc.RobotID, Kind: ptypes.KindObject})
		if !bound {
			r.fail("reach constraint on area %s: robot argument %s is not grounded", rc.AreaID, rc.RobotID)
			continue
		}
		reachAreaID, ok := pr.RobotReach[robot.ID]
		if !ok {
			r.fail("reach constraint on area %s: problem names no reach region for robot %s", rc.AreaID, robot.String())
			continue
		}
		reachPoly, ok := pr.Areas[reachAreaID]
		if !ok {
			r.fail("reach constraint on area %s: reach region %s not found in problem areas", rc.AreaID, reachAreaID)
			continue
		}
		if !withinBuffer(reachPoly, *area.Assigned) {
			r.fail("area %s's placement escapes robot %s's reach region %s", rc.AreaID, robot.String(), reachAreaID)
		}
	}
}

func withinBuffer(outer, inner geometry.Poly) bool {
	pieces := geometry.Intersect(outer, inner)
	if len(pieces) != 1 {
		return false
	}
	const tolerance = 1e-6
	return math.Abs(pieces[0].Area()-inner.Area()) <= tolerance+1e-9*inner.Area()
}

// checkOverlapRules implements spec.md §6.4's static/dynamic overlap
// rule via the disjunction sets the geometric bindings already track:
// every declared disjunction between two grounded areas or paths must
// hold (their assigned polygons must not intersect). This is the
// planner's own record of which placements must never overlap, recorded
// by RegisterArea/AddDisjunction at step-insertion and refinement time
// (spec.md §4.3, §4.7 GTF/GPTF), so it is checked directly rather than
// recomputing a universal pairwise-overlap scan that the plan's data
// model has no other use for.
func checkOverlapRules(p *plan.Plan, r *Result) {
	for id, area := range p.Geometric.Areas {
		if area.Assigned == nil {
			continue
		}
		for _, otherID := range area.Disjoint {
			otherPoly, ok := assignedPolygon(p, otherID)
			if !ok {
				continue
			}
			if len(geometry.Intersect(*area.Assigned, otherPoly)) > 0 {
				r.fail("area %s overlaps %s despite a declared disjunction", id, otherID)
			}
		}
	}
}

func assignedPolygon(p *plan.Plan, id string) (geometry.Poly, bool) {
	if a, ok := p.Geometric.Areas[id]; ok && a.Assigned != nil {
		return *a.Assigned, true
	}
	if path, ok := p.Geometric.Paths[id]; ok && path.Corridor != nil {
		return *path.Corridor, true
	}
	if d, ok := p.Geometric.Defined[id]; ok {
		return d.Polygon, true
	}
	return nil, false
}

// checkExecutableOrder implements spec.md §6.4's "an executable total
// order exists": a topological walk of the ordering DAG must succeed,
// and every move step's assigned corridor must be collision-free
// against whatever it was declared disjoint from (the obstacles GTF/
// GPTF resolution identified as needing to stay clear of that corridor).
func checkExecutableOrder(p *plan.Plan, r *Result) {
	if _, err := p.Ordering.TopologicalSort(); err != nil {
		r.fail("no executable total order: %v", err)
		return
	}
	for id, path := range p.Geometric.Paths {
		if path.Corridor == nil {
			continue
		}
		for _, otherID := range path.Disjoint {
			otherPoly, ok := assignedPolygon(p, otherID)
			if !ok {
				continue
			}
			if len(geometry.Intersect(*path.Corridor, otherPoly)) > 0 {
				r.fail("path %s's corridor collides with %s", id, otherID)
			}
		}
	}
}
