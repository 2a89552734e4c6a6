package geometry

import "testing"

func TestWithinShrinksMaxRegion(t *testing.T) {
	b := New("base")
	b.RegisterDefined("base", Rect(0, 0, 10, 10), nil)
	b.RegisterDefined("goal", Rect(1, 1, 2, 2), []string{"base"})
	b.RegisterArea("a1")

	if !b.Within("a1", "goal") {
		t.Fatal("expected Within(a1, goal) to succeed")
	}
	got := b.Areas["a1"].MaxRegion.Area()
	want := Rect(1, 1, 2, 2).Area()
	if got != want {
		t.Errorf("expected a1's max-region to shrink to goal's area %v, got %v", want, got)
	}
}

func TestWithinIsIdempotent(t *testing.T) {
	b := New("base")
	b.RegisterDefined("base", Rect(0, 0, 10, 10), nil)
	b.RegisterDefined("goal", Rect(1, 1, 2, 2), []string{"base"})
	b.RegisterArea("a1")

	b.Within("a1", "goal")
	first := b.Areas["a1"].MaxRegion.Area()
	if !b.Within("a1", "goal") {
		t.Fatal("expected re-asserting an existing Within to still report success")
	}
	if b.Areas["a1"].MaxRegion.Area() != first {
		t.Error("expected a repeated Within to be a no-op, not re-intersect")
	}
}

func TestWithinRejectsTooSmallForObject(t *testing.T) {
	b := New("base")
	b.RegisterDefined("base", Rect(0, 0, 10, 10), nil)
	b.RegisterDefined("tiny", Rect(0, 0, 0.1, 0.1), []string{"base"})
	b.RegisterArea("a1")
	b.SetDimensions("a1", 1.0, 1.0)

	if b.Within("a1", "tiny") {
		t.Error("expected Within to reject a region too small for the object's footprint")
	}
}

func TestResolveProducesAssignedWithinMaxRegion(t *testing.T) {
	b := New("base")
	b.RegisterDefined("base", Rect(0, 0, 10, 10), nil)
	b.RegisterArea("a1")
	b.SetDimensions("a1", 1, 1)

	if !b.Resolve("a1") {
		t.Fatal("expected Resolve to succeed in an empty 10x10 base")
	}
	a := b.Areas["a1"]
	if a.Assigned == nil {
		t.Fatal("expected a1 to have an assigned polygon")
	}
	if !containsWithBuffer(a.MaxRegion, *a.Assigned) {
		t.Error("assigned polygon must lie within the max-region")
	}
	if err := b.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestResolveAvoidsDisjointAssigned(t *testing.T) {
	b := New("base")
	b.RegisterDefined("base", Rect(0, 0, 10, 10), nil)
	b.RegisterArea("obstacle")
	b.SetDimensions("obstacle", 10, 1)
	if !b.Resolve("obstacle") {
		t.Fatal("expected obstacle to resolve")
	}

	b.RegisterArea("a1")
	b.SetDimensions("a1", 1, 1)
	b.AddDisjunction("a1", "obstacle")

	if !b.Resolve("a1") {
		t.Fatal("expected a1 to resolve around the obstacle")
	}
	if len(Intersect(*b.Areas["a1"].Assigned, *b.Areas["obstacle"].Assigned)) > 0 {
		t.Error("expected a1's placement to avoid the disjoint obstacle")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b := New("base")
	b.RegisterDefined("base", Rect(0, 0, 10, 10), nil)
	b.RegisterArea("a1")

	clone := b.Clone()
	clone.SetDimensions("a1", 1, 1)
	clone.Resolve("a1")

	if b.Areas["a1"].Assigned != nil {
		t.Error("mutating the clone's resolution should not affect the original")
	}
	if clone.Areas["a1"].Assigned == nil {
		t.Error("expected the clone to carry its own resolution")
	}
}
