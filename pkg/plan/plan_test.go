package plan

import (
	"testing"

	"github.com/PetervDooren/PyDPOCL/pkg/idgen"
	"github.com/PetervDooren/PyDPOCL/pkg/ptypes"
)

func newIDs() *idgen.Source { return idgen.NewSource(1, "plan_test") }

func objArg(id string) ptypes.Argument {
	return ptypes.Argument{ID: id, Kind: ptypes.KindObject}
}

func within(id string, obj, area ptypes.Argument, truth bool) ptypes.Literal {
	return ptypes.Literal{ID: id, Name: ptypes.PredicateWithin, Args: []ptypes.Argument{obj, area}, Truth: truth}
}

func newInitGoal() (*ptypes.Operator, *ptypes.Operator) {
	box := objArg("boxA")
	from := ptypes.Argument{ID: "from", Kind: ptypes.KindArea}
	init := &ptypes.Operator{
		SchemaName: "init",
		StepNum:    0,
		InstanceID: "init",
		Args:       []ptypes.Argument{box, from},
		Effects:    []ptypes.Literal{within("init.within", box, from, true)},
	}
	to := ptypes.Argument{ID: "to", Kind: ptypes.KindArea}
	goal := &ptypes.Operator{
		SchemaName: "goal",
		StepNum:    1,
		InstanceID: "goal",
		Args:       []ptypes.Argument{box, to},
		Preconds:   []ptypes.Literal{within("goal.within", box, to, true)},
	}
	return init, goal
}

func TestNewWiresInitGoal(t *testing.T) {
	init, goal := newInitGoal()
	p := New("plan1", init, goal, nil, "base", newIDs())

	if !p.Ordering.HasPath(p.InitID, p.GoalID) {
		t.Error("expected New to wire init before goal")
	}
	if len(p.Steps()) != 2 {
		t.Errorf("expected exactly 2 steps, got %d", len(p.Steps()))
	}
	if p.Flaws.Len() != 0 {
		t.Errorf("expected a fresh plan from New to carry no flaws, got %d", p.Flaws.Len())
	}
}

func TestRaiseOpenPrecondSeedsGoalFlaws(t *testing.T) {
	init, goal := newInitGoal()
	p := New("plan1", init, goal, nil, "base", newIDs())

	for _, precond := range goal.Preconds {
		p.RaiseOpenPrecond(goal, precond)
	}

	if p.Flaws.Len() != 1 {
		t.Fatalf("expected 1 OPF raised for the goal's single precondition, got %d", p.Flaws.Len())
	}
	f, ok := p.Flaws.Next()
	if !ok || f.OpenPrecond.ConsumerInstance != "goal" {
		t.Errorf("expected the raised flaw to target the goal step, got %+v", f)
	}
}

func TestInsertPrimitiveRaisesOPFAndUngroundedFlaws(t *testing.T) {
	init, goal := newInitGoal()
	p := New("plan1", init, goal, nil, "base", newIDs())

	box := objArg("boxA")
	from := ptypes.Argument{ID: "from", Kind: ptypes.KindArea}
	to := ptypes.Argument{ID: "to", Kind: ptypes.KindArea}
	step := &ptypes.Operator{
		SchemaName: "movemono",
		StepNum:    2,
		InstanceID: "step1",
		Args:       []ptypes.Argument{box, from, to},
		Preconds:   []ptypes.Literal{within("step1.pre", box, from, true)},
		Effects:    []ptypes.Literal{within("step1.eff", box, to, true)},
	}

	if err := p.InsertPrimitive(step); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !p.Ordering.HasPath(p.InitID, "step1") || !p.Ordering.HasPath("step1", p.GoalID) {
		t.Error("expected the new step to be wired between init and goal")
	}

	var sawOPF, sawUGGV bool
	for _, f := range p.Flaws.All() {
		if f.Kind.String() == "OPF" && f.OpenPrecond.ConsumerInstance == "step1" {
			sawOPF = true
		}
		if f.Kind.String() == "UGGV" {
			sawUGGV = true
		}
	}
	if !sawOPF {
		t.Error("expected an OPF for step1's open precondition")
	}
	if !sawUGGV {
		t.Error("expected a UGGV for step1's ungrounded area arguments")
	}
}

func TestResolveWithPrimitiveLinksCausally(t *testing.T) {
	init, goal := newInitGoal()
	p := New("plan1", init, goal, nil, "base", newIDs())

	box := objArg("boxA")
	from := ptypes.Argument{ID: "from", Kind: ptypes.KindArea}
	effect := within("init.within", box, from, true)
	precond := goal.Preconds[0]

	if err := p.ResolveWithPrimitive(p.InitID, p.GoalID, effect, precond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	links := p.CausalLinks.IncomingTo(p.GoalID)
	if len(links) != 1 || links[0].Source != p.InitID {
		t.Errorf("expected one causal link init->goal, got %v", links)
	}
	if !p.Ordering.HasPath(p.InitID, p.GoalID) {
		t.Error("expected an ordering edge from provider to consumer")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	init, goal := newInitGoal()
	p := New("plan1", init, goal, nil, "base", newIDs())
	p.RaiseOpenPrecond(goal, goal.Preconds[0])

	clone := p.Clone("plan2")
	clone.Flaws.Remove(clone.Flaws.All()[0].ID)

	if p.Flaws.Len() != 1 {
		t.Errorf("mutating the clone's flaw library should not affect the original, got %d", p.Flaws.Len())
	}
	if clone.Flaws.Len() != 0 {
		t.Errorf("expected the clone's removal to take effect on the clone, got %d", clone.Flaws.Len())
	}
	if clone.ID != "plan2" || p.ID != "plan1" {
		t.Error("expected Clone to assign the given id without touching the original's id")
	}
}
