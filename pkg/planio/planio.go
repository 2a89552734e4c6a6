// Package planio implements the plan's two external I/O contracts: the
// JSON wire format of spec.md §6.3 and the `check_plan` validity
// predicate of §6.4.
//
// Both are backfilled from the original implementation's
// plan_utility.py: plan_to_json/plan_from_json for the wire format
// (styled here on dshills/dungo's pkg/export/json.go explicit-wire-struct
// idiom) and check_plan/check_plan_execution for the validity predicate
// (styled on pkg/validation/validator.go's ordered-checks-into-a-report
// idiom).
package planio

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/PetervDooren/PyDPOCL/pkg/causallink"
	"github.com/PetervDooren/PyDPOCL/pkg/domain"
	"github.com/PetervDooren/PyDPOCL/pkg/flaw"
	"github.com/PetervDooren/PyDPOCL/pkg/geometry"
	"github.com/PetervDooren/PyDPOCL/pkg/idgen"
	"github.com/PetervDooren/PyDPOCL/pkg/plan"
	"github.com/PetervDooren/PyDPOCL/pkg/ptypes"
)

// Meta carries the plan-JSON fields that live outside the Plan aggregate
// itself: the domain and problem names the plan was built against, and a
// display name (spec.md §6.3 top-level "name", "domain", "problem").
type Meta struct {
	Name    string
	Domain  string
	Problem string
}

// wirePlan mirrors spec.md §6.3's top-level field list exactly.
type wirePlan struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Domain      string           `json:"domain"`
	Problem     string           `json:"problem"`
	Solved      bool             `json:"solved"`
	Cost        float64          `json:"cost"`
	Heuristic   float64          `json:"heuristic"`
	Depth       int              `json:"depth"`
	InitState   string           `json:"init_state"`
	GoalState   string           `json:"goal_state"`
	Steps       []wireStep       `json:"steps"`
	Orderings   []wireOrdering   `json:"orderings"`
	CausalLinks []wireCausalLink `json:"causal_links"`
	Bindings    wireBindings     `json:"variableBindings"`
}

type wireStep struct {
	ID       string        `json:"id"`
	Schema   string        `json:"schema"`
	Args     []string      `json:"args"`
	Preconds []wireLiteral `json:"preconds"`
	Effects  []wireLiteral `json:"effects"`
	StepNum  int           `json:"stepnum"`
	Height   int           `json:"height"`
}

type wireLiteral struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Args  []string `json:"args"`
	Truth bool     `json:"truth"`
}

type wireOrdering struct {
	Source string `json:"source"`
	Sink   string `json:"sink"`
}

type wireCausalLink struct {
	Source    string `json:"source"`
	Sink      string `json:"sink"`
	Effect    string `json:"effect"`
	Precond   string `json:"precondition"`
}

type wireBindings struct {
	Symbolic  map[string]string        `json:"symbolic"`
	Geometric map[string][][2]float64  `json:"geometric"`
}

// MarshalPlan renders p as spec.md §6.3's JSON wire format.
func MarshalPlan(p *plan.Plan, meta Meta) ([]byte, error) {
	w := wirePlan{
		ID:        p.ID,
		Name:      meta.Name,
		Domain:    meta.Domain,
		Problem:   meta.Problem,
		Solved:    p.Solved,
		Cost:      p.Cost,
		Heuristic: p.Heuristic,
		Depth:     p.Depth,
		InitState: p.InitID,
		GoalState: p.GoalID,
		Bindings: wireBindings{
			Symbolic:  map[string]string{},
			Geometric: map[string][][2]float64{},
		},
	}

	for _, step := range p.Steps() {
		args := make([]string, len(step.Args))
		for i, a := range step.Args {
			args[i] = a.ID
		}
		w.Steps = append(w.Steps, wireStep{
			ID:       step.InstanceID,
			Schema:   step.SchemaName,
			Args:     args,
			Preconds: literalsToWire(step.Preconds),
			Effects:  literalsToWire(step.Effects),
			StepNum:  step.StepNum,
			Height:   step.Height,
		})
		for _, a := range step.Args {
			switch a.Kind {
			case ptypes.KindObject:
				if c, ok := p.Symbolic.Constant(a); ok {
					w.Bindings.Symbolic[a.ID] = c.String()
				}
			case ptypes.KindArea:
				if area, ok := p.Geometric.Areas[a.ID]; ok && area.Assigned != nil {
					w.Bindings.Geometric[a.ID] = polyToCoords(*area.Assigned)
				}
			case ptypes.KindPath:
				if path, ok := p.Geometric.Paths[a.ID]; ok && path.Corridor != nil {
					w.Bindings.Geometric[a.ID] = polyToCoords(*path.Corridor)
				}
			}
		}
	}

	for _, u := range p.Ordering.Nodes() {
		for _, v := range p.Ordering.Children(u) {
			w.Orderings = append(w.Orderings, wireOrdering{Source: u, Sink: v})
		}
	}

	for _, l := range p.CausalLinks.All() {
		w.CausalLinks = append(w.CausalLinks, wireCausalLink{
			Source: l.Source, Sink: l.Sink, Effect: l.Effect.ID, Precond: l.Precond.ID,
		})
	}

	return json.MarshalIndent(w, "", "  ")
}

func literalsToWire(lits []ptypes.Literal) []wireLiteral {
	out := make([]wireLiteral, len(lits))
	for i, l := range lits {
		args := make([]string, len(l.Args))
		for j, a := range l.Args {
			args[j] = a.ID
		}
		out[i] = wireLiteral{ID: l.ID, Name: l.Name, Args: args, Truth: l.Truth}
	}
	return out
}

func polyToCoords(p geometry.Poly) [][2]float64 {
	out := make([][2]float64, len(p))
	for i, pt := range p {
		out[i] = [2]float64{pt[0], pt[1]}
	}
	return out
}

func coordsToPoly(c [][2]float64) geometry.Poly {
	out := make(geometry.Poly, len(c))
	for i, pt := range c {
		out[i] = orb.Point{pt[0], pt[1]}
	}
	return out
}

// UnmarshalPlan reconstructs a plan from spec.md §6.3 JSON, against the
// same grounded operator pool and problem description the original plan
// was built from (spec.md §6.3: "the deserializer MUST reconstruct a
// plan that passes the §8 validity check given the same Domain and
// Problem"). The schema each step instantiated is recovered by stepnum;
// the step's own argument, precondition, and effect ids are taken
// verbatim from the wire data rather than regenerated, so causal links
// and orderings referencing those ids resolve correctly.
func UnmarshalPlan(data []byte, pool *domain.OperatorPool, pr *domain.Problem, ids *idgen.Source) (*plan.Plan, Meta, error) {
	var w wirePlan
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, Meta{}, fmt.Errorf("planio: decode: %w", err)
	}

	steps := make(map[string]*ptypes.Operator, len(w.Steps))
	for _, ws := range w.Steps {
		schema, err := pool.Schema(ws.StepNum)
		if err != nil {
			return nil, Meta{}, fmt.Errorf("planio: step %s: %w", ws.ID, err)
		}
		op, err := rebuildOperator(schema, ws)
		if err != nil {
			return nil, Meta{}, fmt.Errorf("planio: step %s: %w", ws.ID, err)
		}
		steps[ws.ID] = op
	}

	initOp, ok := steps[w.InitState]
	if !ok {
		return nil, Meta{}, fmt.Errorf("planio: init step %s not found among steps", w.InitState)
	}
	goalOp, ok := steps[w.GoalState]
	if !ok {
		return nil, Meta{}, fmt.Errorf("planio: goal step %s not found among steps", w.GoalState)
	}

	p := plan.New(w.ID, initOp, goalOp, pr.Ontology(), pr.BaseArea, ids)
	p.Geometric.RegisterDefined(pr.BaseArea, pr.Areas[pr.BaseArea], nil)
	for id, poly := range pr.Areas {
		if id == pr.BaseArea {
			continue
		}
		p.Geometric.RegisterDefined(id, poly, []string{pr.BaseArea})
	}
	for _, obj := range pr.Objects {
		p.Symbolic.Register(obj, true)
	}
	p.Symbolic.SeedPairwiseExclusions(pr.Objects)

	for _, ws := range w.Steps {
		if ws.ID == w.InitState || ws.ID == w.GoalState {
			continue
		}
		if err := p.InsertPrimitive(steps[ws.ID]); err != nil {
			return nil, Meta{}, fmt.Errorf("planio: insert %s: %w", ws.ID, err)
		}
	}

	for _, o := range w.Orderings {
		p.Ordering.AddEdge(o.Source, o.Sink)
	}

	supported := make(map[string]bool, len(w.CausalLinks))
	for _, cl := range w.CausalLinks {
		consumer, ok := steps[cl.Sink]
		if !ok {
			continue
		}
		provider, ok := steps[cl.Source]
		if !ok {
			continue
		}
		effect, ok := provider.FindEffect(cl.Effect)
		if !ok {
			continue
		}
		precond, ok := consumer.FindPrecond(cl.Precond)
		if !ok {
			continue
		}
		p.CausalLinks.Add(causallink.Link{Source: cl.Source, Sink: cl.Sink, Effect: effect, Precond: precond})
		supported[cl.Precond] = true
	}

	byName := make(map[string]ptypes.Argument, len(pr.Objects))
	for _, o := range pr.Objects {
		byName[o.String()] = o
	}
	for argID, constName := range w.Bindings.Symbolic {
		obj, ok := byName[constName]
		if !ok {
			continue
		}
		p.Symbolic.AddCodesignation(ptypes.Argument{ID: argID, Kind: ptypes.KindObject}, obj)
	}

	for id, coords := range w.Bindings.Geometric {
		poly := coordsToPoly(coords)
		if area, ok := p.Geometric.Areas[id]; ok {
			area.Assigned = &poly
			if owner, bound := p.Symbolic.Constant(area.Owner); bound {
				if wl, ok := pr.ObjectDimensions[owner.ID]; ok {
					p.Geometric.SetDimensions(id, wl[0], wl[1])
				}
			}
			continue
		}
		if path, ok := p.Geometric.Paths[id]; ok {
			path.Corridor = &poly
		}
	}

	stripResolvedFlaws(p, supported)

	meta := Meta{Name: w.Name, Domain: w.Domain, Problem: w.Problem}
	p.Cost = w.Cost
	p.Heuristic = w.Heuristic
	p.Depth = w.Depth
	p.Solved = w.Solved
	return p, meta, nil
}

func rebuildOperator(schema *ptypes.Operator, ws wireStep) (*ptypes.Operator, error) {
	if len(ws.Args) != len(schema.Args) {
		return nil, fmt.Errorf("schema %s expects %d args, wire step has %d", schema.SchemaName, len(schema.Args), len(ws.Args))
	}
	argByTemplate := make(map[string]ptypes.Argument, len(ws.Args))
	args := make([]ptypes.Argument, len(ws.Args))
	for i, id := range ws.Args {
		tmpl := schema.Args[i]
		args[i] = ptypes.Argument{ID: id, Type: tmpl.Type, Name: tmpl.Name, Role: tmpl.Role, Kind: tmpl.Kind}
		argByTemplate[tmpl.ID] = args[i]
	}
	remapLit := func(wireLits []wireLiteral, tmplLits []ptypes.Literal) ([]ptypes.Literal, error) {
		out := make([]ptypes.Literal, len(wireLits))
		for i, wl := range wireLits {
			var tmpl ptypes.Literal
			found := false
			for _, t := range tmplLits {
				if t.ID == wl.ID {
					tmpl, found = t, true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("literal %s not found on schema %s", wl.ID, schema.SchemaName)
			}
			litArgs := make([]ptypes.Argument, len(wl.Args))
			for j, tArg := range tmpl.Args {
				remapped, ok := argByTemplate[tArg.ID]
				if !ok {
					return nil, fmt.Errorf("literal %s references unknown template arg %s", wl.ID, tArg.ID)
				}
				litArgs[j] = remapped
			}
			out[i] = ptypes.Literal{ID: wl.ID, Name: wl.Name, Args: litArgs, Truth: wl.Truth, IsStatic: tmpl.IsStatic}
		}
		return out, nil
	}
	preconds, err := remapLit(ws.Preconds, schema.Preconds)
	if err != nil {
		return nil, err
	}
	effects, err := remapLit(ws.Effects, schema.Effects)
	if err != nil {
		return nil, err
	}
	return &ptypes.Operator{
		SchemaName:   schema.SchemaName,
		StepNum:      schema.StepNum,
		InstanceID:   ws.ID,
		Args:         args,
		Preconds:     preconds,
		Effects:      effects,
		NonEq:        append([]ptypes.NonEqPair(nil), schema.NonEq...),
		Reach:        append([]ptypes.ReachPair(nil), schema.Reach...),
		Height:       ws.Height,
		Instantiable: schema.Instantiable,
		CandidateMap: schema.CandidateMap,
		ThreatMap:    schema.ThreatMap,
	}, nil
}

// stripResolvedFlaws removes the OPF/ungrounded-variable/TCLF flaws that
// InsertPrimitive raised speculatively for every step but that the wire
// plan's causal links, bindings, and final ordering show are actually
// resolved. InsertPrimitive has no way to know this at insertion time
// (it raises a flaw per precondition/variable unconditionally, per
// spec.md §4.6 steps 6-8); the deserializer replays that insertion and
// then reconciles against the rest of the wire data.
func stripResolvedFlaws(p *plan.Plan, supportedPrecond map[string]bool) {
	for _, f := range p.Flaws.All() {
		switch f.Kind {
		case flaw.KindOPF:
			if supportedPrecond[f.OpenPrecond.PrecondID] {
				p.Flaws.Remove(f.ID)
			}
		case flaw.KindUGSV:
			if _, bound := p.Symbolic.Constant(ptypes.Argument{ID: f.UngroundedVar.ArgID}); bound {
				p.Flaws.Remove(f.ID)
			}
		case flaw.KindUGGV:
			if a, ok := p.Geometric.Areas[f.UngroundedVar.ArgID]; ok && a.Assigned != nil {
				p.Flaws.Remove(f.ID)
			}
		case flaw.KindUGPV:
			if pr, ok := p.Geometric.Paths[f.UngroundedVar.ArgID]; ok && pr.Corridor != nil {
				p.Flaws.Remove(f.ID)
			}
		case flaw.KindTCLF:
			if p.Ordering.HasPath(f.ThreatenedLink.ThreatStepID, f.ThreatenedLink.LinkSource) ||
				p.Ordering.HasPath(f.ThreatenedLink.LinkSink, f.ThreatenedLink.ThreatStepID) {
				p.Flaws.Remove(f.ID)
			}
		}
	}
}
