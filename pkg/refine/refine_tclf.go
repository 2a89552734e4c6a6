package refine

import (
	"github.com/PetervDooren/PyDPOCL/pkg/flaw"
	"github.com/PetervDooren/PyDPOCL/pkg/plan"
	"github.com/PetervDooren/PyDPOCL/pkg/ptypes"
)

// expandTCLF implements spec.md §4.7's threatened-causal-link
// resolution. A potential TCLF is only acted on once it is promoted to
// real — every argument of the threatening effect co-designates with the
// corresponding argument of the threatened link's effect (spec.md
// §4.6). Until then it costs nothing: this operator simply drops it.
// Once real, it produces the two symmetric orderings, each kept only if
// the resulting ordering graph stays acyclic.
func expandTCLF(env *Env, p *plan.Plan, f flaw.Flaw) []*plan.Plan {
	tl := f.ThreatenedLink
	if !isRealThreat(p, tl) {
		child := cloneChild(env, p, f)
		return []*plan.Plan{child}
	}

	var out []*plan.Plan

	promote := cloneChild(env, p, f)
	promote.Ordering.AddEdge(tl.LinkSink, tl.ThreatStepID)
	if promote.IsInternallyConsistent() {
		out = append(out, promote)
	}

	demote := cloneChild(env, p, f)
	demote.Ordering.AddEdge(tl.ThreatStepID, tl.LinkSource)
	if demote.IsInternallyConsistent() {
		out = append(out, demote)
	}

	return out
}

// isRealThreat reports whether the threatening effect actually
// co-designates with the causal link's effect at every argument
// position (spec.md §4.6).
func isRealThreat(p *plan.Plan, tl flaw.ThreatenedLink) bool {
	threatStep, ok := p.StepByID(tl.ThreatStepID)
	if !ok {
		return false
	}
	if tl.ThreatEffectIdx < 0 || tl.ThreatEffectIdx >= len(threatStep.Effects) {
		return false
	}
	threatEffect := threatStep.Effects[tl.ThreatEffectIdx]

	var linkEffect ptypes.Literal
	found := false
	for _, l := range p.CausalLinks.IncomingTo(tl.LinkSink) {
		if l.Precond.ID == tl.PrecondID && l.Source == tl.LinkSource {
			linkEffect = l.Effect
			found = true
			break
		}
	}
	if !found {
		return false
	}
	if len(threatEffect.Args) != len(linkEffect.Args) {
		return false
	}
	for i := range threatEffect.Args {
		if !p.Symbolic.IsCodesignated(threatEffect.Args[i], linkEffect.Args[i]) {
			return false
		}
	}
	return true
}

