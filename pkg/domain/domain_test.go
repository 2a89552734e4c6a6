package domain

import (
	"testing"

	"github.com/PetervDooren/PyDPOCL/pkg/idgen"
	"github.com/PetervDooren/PyDPOCL/pkg/ptypes"
)

func TestNewOperatorPoolAssignsSentinelIndices(t *testing.T) {
	schema := &ptypes.Operator{SchemaName: "move", Instantiable: true}
	init := &ptypes.Operator{SchemaName: "init"}
	goal := &ptypes.Operator{SchemaName: "goal"}

	pool, err := NewOperatorPool([]*ptypes.Operator{schema}, init, goal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.InitIndex() != 1 || pool.GoalIndex() != 2 {
		t.Errorf("expected init/goal at indices 1/2, got %d/%d", pool.InitIndex(), pool.GoalIndex())
	}
	if pool.Init().Instantiable || pool.Goal().Instantiable {
		t.Error("expected init and goal sentinels to be non-instantiable")
	}
}

func TestNewOperatorPoolRejectsInitPreconds(t *testing.T) {
	init := &ptypes.Operator{
		SchemaName: "init",
		Preconds:   []ptypes.Literal{{ID: "p", Name: "x"}},
	}
	goal := &ptypes.Operator{SchemaName: "goal"}
	if _, err := NewOperatorPool(nil, init, goal); err == nil {
		t.Error("expected an error when the init sentinel carries a precondition")
	}
}

func TestNewOperatorPoolRejectsGoalEffects(t *testing.T) {
	init := &ptypes.Operator{SchemaName: "init"}
	goal := &ptypes.Operator{
		SchemaName: "goal",
		Effects:    []ptypes.Literal{{ID: "e", Name: "x"}},
	}
	if _, err := NewOperatorPool(nil, init, goal); err == nil {
		t.Error("expected an error when the goal sentinel carries an effect")
	}
}

func TestComputeCandidateThreatMapsSplitsBySign(t *testing.T) {
	obj := ptypes.Argument{ID: "o", Kind: ptypes.KindObject}
	schema := &ptypes.Operator{
		SchemaName:   "toggle",
		Args:         []ptypes.Argument{obj},
		Preconds:     []ptypes.Literal{{ID: "pre", Name: "on", Args: []ptypes.Argument{obj}, Truth: true}},
		Effects:      []ptypes.Literal{{ID: "eff.on", Name: "on", Args: []ptypes.Argument{obj}, Truth: true}, {ID: "eff.off", Name: "on", Args: []ptypes.Argument{obj}, Truth: false}},
		Instantiable: true,
	}
	init := &ptypes.Operator{SchemaName: "init"}
	goal := &ptypes.Operator{SchemaName: "goal"}

	pool, err := NewOperatorPool([]*ptypes.Operator{schema}, init, goal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	toggle := pool.Entries[0]
	if len(toggle.CandidateMap["pre"]) != 1 {
		t.Errorf("expected exactly one same-sign candidate (eff.on), got %v", toggle.CandidateMap["pre"])
	}
	if len(toggle.ThreatMap["pre"]) != 1 {
		t.Errorf("expected exactly one opposite-sign threat (eff.off), got %v", toggle.ThreatMap["pre"])
	}
	if toggle.Preconds[0].IsStatic {
		t.Error("expected 'on' to not be static since it does appear as an effect")
	}
}

func TestInstantiatePreservesLiteralIDsAndRemapsArgs(t *testing.T) {
	obj := ptypes.Argument{ID: "schema.obj", Kind: ptypes.KindObject}
	schema := &ptypes.Operator{
		SchemaName:   "move",
		Args:         []ptypes.Argument{obj},
		Preconds:     []ptypes.Literal{{ID: "precond1", Name: "at", Args: []ptypes.Argument{obj}, Truth: true}},
		Instantiable: true,
	}
	init := &ptypes.Operator{SchemaName: "init"}
	goal := &ptypes.Operator{SchemaName: "goal"}
	pool, err := NewOperatorPool([]*ptypes.Operator{schema}, init, goal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids := idgen.NewSource(1, "domain_test")
	inst, err := pool.Instantiate(0, ids)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inst.Args[0].ID == obj.ID {
		t.Error("expected Instantiate to assign a fresh argument id")
	}
	if inst.Preconds[0].ID != "precond1" {
		t.Errorf("expected the literal id to be preserved across instantiation, got %q", inst.Preconds[0].ID)
	}
	if inst.Preconds[0].Args[0].ID != inst.Args[0].ID {
		t.Error("expected the precondition's argument to be remapped to the fresh instance argument")
	}
}

func TestTwoBoxSwapBuilds(t *testing.T) {
	pr, pool, err := TwoBoxSwap()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pr.Objects) != 3 {
		t.Errorf("expected 3 objects (robot, boxA, boxB), got %d", len(pr.Objects))
	}
	if pool.Init().SchemaName != "init" || pool.Goal().SchemaName != "goal" {
		t.Error("expected the pool's sentinels to be named init/goal")
	}

	ids := idgen.NewSource(1, "domain_test_fixture")
	p, err := BuildInitialPlan(pr, pool, ids.NextID(), ids)
	if err != nil {
		t.Fatalf("failed to build initial plan: %v", err)
	}
	if p.Flaws.Len() == 0 {
		t.Error("expected a non-empty flaw library seeded from the goal's preconditions")
	}
}
