package search

import (
	"testing"
	"time"

	"github.com/PetervDooren/PyDPOCL/pkg/domain"
	"github.com/PetervDooren/PyDPOCL/pkg/geometry"
	"github.com/PetervDooren/PyDPOCL/pkg/heuristic"
	"github.com/PetervDooren/PyDPOCL/pkg/idgen"
	"github.com/PetervDooren/PyDPOCL/pkg/ptypes"
	"github.com/PetervDooren/PyDPOCL/pkg/refine"
)

// trivialProblem builds a domain with no instantiable schemas at all: the
// goal's only precondition is already established by the init sentinel's
// own effect over the same constant, so the only flaw the search needs to
// resolve is one OPF, grounded directly in the init sentinel's effect (no
// add-step refinement, no geometry involved).
func trivialProblem(t *testing.T) (*domain.Problem, *domain.OperatorPool) {
	t.Helper()
	x := ptypes.Argument{ID: "x", Type: "thing", Kind: ptypes.KindObject}
	init := &ptypes.Operator{
		SchemaName: "init",
		InstanceID: "init",
		Args:       []ptypes.Argument{x},
		Effects:    []ptypes.Literal{{ID: "init.done", Name: "done", Args: []ptypes.Argument{x}, Truth: true}},
	}
	goal := &ptypes.Operator{
		SchemaName: "goal",
		InstanceID: "goal",
		Args:       []ptypes.Argument{x},
		Preconds:   []ptypes.Literal{{ID: "goal.done", Name: "done", Args: []ptypes.Argument{x}, Truth: true}},
	}
	pool, err := domain.NewOperatorPool(nil, init, goal)
	if err != nil {
		t.Fatalf("failed to build pool: %v", err)
	}
	pr := &domain.Problem{
		Objects:     []ptypes.Argument{x},
		ObjectTypes: map[string]map[string]bool{"thing": {"thing": true}},
		Areas:       map[string]geometry.Poly{"base": geometry.Rect(0, 0, 1, 1)},
		BaseArea:    "base",
	}
	return pr, pool
}

func TestRunSolvesATriviallySatisfiedGoal(t *testing.T) {
	pr, pool := trivialProblem(t)
	ids := idgen.NewSource(1, "search_test")
	initial, err := domain.BuildInitialPlan(pr, pool, ids.NextID(), ids)
	if err != nil {
		t.Fatalf("failed to build initial plan: %v", err)
	}

	env := &refine.Env{Pool: pool, Problem: pr, IDs: ids}
	calc := heuristic.New(pool)
	solutions, report := Run(env, calc, initial, Options{K: 1, Cutoff: time.Second}, nil)

	if len(solutions) != 1 {
		t.Fatalf("expected exactly one solution, got %d (report: %+v)", len(solutions), report)
	}
	if !solutions[0].Solved {
		t.Error("expected the returned plan to be marked Solved")
	}
	if solutions[0].Flaws.Len() != 0 {
		t.Errorf("expected a solved plan to carry no flaws, got %d", solutions[0].Flaws.Len())
	}
	if report.PlansFound != 1 {
		t.Errorf("expected report.PlansFound == 1, got %d", report.PlansFound)
	}
}

func TestRunReportsFrontierExhaustionWhenUnsatisfiable(t *testing.T) {
	x := ptypes.Argument{ID: "x", Type: "thing", Kind: ptypes.KindObject}
	y := ptypes.Argument{ID: "y", Type: "thing", Kind: ptypes.KindObject}
	init := &ptypes.Operator{SchemaName: "init", InstanceID: "init", Args: []ptypes.Argument{x, y}}
	goal := &ptypes.Operator{
		SchemaName: "goal",
		InstanceID: "goal",
		Args:       []ptypes.Argument{x, y},
		Preconds:   []ptypes.Literal{{ID: "goal.done", Name: "done", Args: []ptypes.Argument{x}, Truth: true}},
	}
	pool, err := domain.NewOperatorPool(nil, init, goal)
	if err != nil {
		t.Fatalf("failed to build pool: %v", err)
	}
	pr := &domain.Problem{
		Objects:     []ptypes.Argument{x, y},
		ObjectTypes: map[string]map[string]bool{"thing": {"thing": true}},
		Areas:       map[string]geometry.Poly{"base": geometry.Rect(0, 0, 1, 1)},
		BaseArea:    "base",
	}
	ids := idgen.NewSource(1, "search_test_unsat")
	initial, err := domain.BuildInitialPlan(pr, pool, ids.NextID(), ids)
	if err != nil {
		t.Fatalf("failed to build initial plan: %v", err)
	}

	env := &refine.Env{Pool: pool, Problem: pr, IDs: ids}
	calc := heuristic.New(pool)
	solutions, report := Run(env, calc, initial, Options{K: 1, Cutoff: time.Second}, nil)

	if len(solutions) != 0 {
		t.Errorf("expected no solution when no schema can ever establish 'done', got %d", len(solutions))
	}
	if report.Terminated {
		t.Error("expected the frontier to exhaust on its own well within a 1s cutoff, not hit the cutoff")
	}
}
