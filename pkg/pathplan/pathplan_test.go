package pathplan

import (
	"testing"

	"github.com/PetervDooren/PyDPOCL/pkg/geometry"
)

func freeBindings() *geometry.Bindings {
	b := geometry.New("base")
	b.RegisterDefined("base", geometry.Rect(0, 0, 10, 10), nil)
	b.RegisterArea("start")
	b.RegisterArea("goal")
	startBox := geometry.Rect(0, 0, 1, 1)
	goalBox := geometry.Rect(8, 8, 1, 1)
	b.Areas["start"].Assigned = &startBox
	b.Areas["goal"].Assigned = &goalBox
	b.RegisterPath("p1")
	b.Paths["p1"].StartArea = "start"
	b.Paths["p1"].GoalArea = "goal"
	b.Paths["p1"].Width = 0.2
	b.Paths["p1"].Length = 10
	return b
}

func TestResolveRoutesACorridorThroughOpenSpace(t *testing.T) {
	b := freeBindings()
	if !Resolve(b, "p1") {
		t.Fatal("expected Resolve to succeed in open, unobstructed free space")
	}
	p := b.Paths["p1"]
	if p.Corridor == nil {
		t.Error("expected a swept corridor to be assigned")
	}
	if len(p.Centerline) < 2 {
		t.Errorf("expected at least a start and goal point on the centerline, got %d", len(p.Centerline))
	}
}

func TestResolveIsIdempotentOnceAssigned(t *testing.T) {
	b := freeBindings()
	if !Resolve(b, "p1") {
		t.Fatal("expected the first Resolve to succeed")
	}
	if !Resolve(b, "p1") {
		t.Error("expected a second Resolve on an already-resolved path to be a no-op returning true")
	}
}

func TestResolveReportsUnknownPathID(t *testing.T) {
	b := freeBindings()
	if Resolve(b, "nonexistent") {
		t.Error("expected Resolve to return false for an unregistered path id")
	}
}

func TestDiscoverMovableObstaclesReportsUnknownPathID(t *testing.T) {
	b := freeBindings()
	if got := DiscoverMovableObstacles(b, "nonexistent"); got != nil {
		t.Errorf("expected nil for an unregistered path id, got %v", got)
	}
}

func TestDiscoverMovableObstaclesFindsEmptySetWhenAlreadyConnected(t *testing.T) {
	b := freeBindings()
	sets := DiscoverMovableObstacles(b, "p1")
	if len(sets) != 1 {
		t.Fatalf("expected exactly one minimum-cost set when start and goal already share a free component, got %d", len(sets))
	}
	if len(sets[0]) != 0 {
		t.Errorf("expected the set to name zero obstacles, got %v", sets[0])
	}
}
