package heuristic

import (
	"testing"

	"github.com/PetervDooren/PyDPOCL/pkg/domain"
	"github.com/PetervDooren/PyDPOCL/pkg/idgen"
)

func TestHPlanOfFreshPlanMatchesGoalConditions(t *testing.T) {
	pr, pool, err := domain.TwoBoxSwap()
	if err != nil {
		t.Fatalf("failed to build fixture: %v", err)
	}
	ids := idgen.NewSource(1, "heuristic_test")
	p, err := domain.BuildInitialPlan(pr, pool, ids.NextID(), ids)
	if err != nil {
		t.Fatalf("failed to build initial plan: %v", err)
	}

	calc := New(pool)
	h := calc.HPlan(p)
	if h <= 0 {
		t.Errorf("expected a positive heuristic for an unsolved plan with open goal conditions, got %v", h)
	}
}

func TestHStepIsAtLeastOne(t *testing.T) {
	_, pool, err := domain.TwoBoxSwap()
	if err != nil {
		t.Fatalf("failed to build fixture: %v", err)
	}
	calc := New(pool)

	for i := 0; i < len(pool.Entries); i++ {
		if got := calc.HStep(i); got < 1 {
			t.Errorf("HStep(%d) = %v, want >= 1", i, got)
		}
	}
}

func TestHStepIsMemoized(t *testing.T) {
	_, pool, err := domain.TwoBoxSwap()
	if err != nil {
		t.Fatalf("failed to build fixture: %v", err)
	}
	calc := New(pool)

	first := calc.HStep(0)
	second := calc.HStep(0)
	if first != second {
		t.Errorf("expected memoized HStep to return the same value twice, got %v then %v", first, second)
	}
}

func TestOrderKeyLessPrefersLowerCostPlusHeuristic(t *testing.T) {
	a := OrderKey{CostPlusHeuristic: 1}
	b := OrderKey{CostPlusHeuristic: 2}
	if !a.Less(b) {
		t.Error("expected the lower cost+heuristic key to sort first")
	}
	if b.Less(a) {
		t.Error("expected the higher cost+heuristic key to not sort first")
	}
}

func TestOrderKeyLessFallsThroughTiebreaks(t *testing.T) {
	a := OrderKey{CostPlusHeuristic: 1, Cost: 1, FlawCount: 1}
	b := OrderKey{CostPlusHeuristic: 1, Cost: 1, FlawCount: 2}
	if !a.Less(b) {
		t.Error("expected the key with fewer flaws to sort first once cost and heuristic tie")
	}
}
