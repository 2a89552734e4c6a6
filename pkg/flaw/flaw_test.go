package flaw

import "testing"

func TestNextPrefersThreatsOverOrdinaryOPF(t *testing.T) {
	l := New()
	l.Insert(Flaw{ID: "opf1", Kind: KindOPF, OpenPrecond: OpenPrecond{HasCandidate: true}})
	l.Insert(Flaw{ID: "tclf1", Kind: KindTCLF})

	got, ok := l.Next()
	if !ok || got.ID != "tclf1" {
		t.Errorf("expected TCLF to be popped before an ordinary reusable OPF, got %v ok=%v", got, ok)
	}
}

func TestOPFBucketOrdering(t *testing.T) {
	l := New()
	l.Insert(Flaw{ID: "nonreusable", Kind: KindOPF, OpenPrecond: OpenPrecond{}})
	l.Insert(Flaw{ID: "reusable", Kind: KindOPF, OpenPrecond: OpenPrecond{HasCandidate: true}})
	l.Insert(Flaw{ID: "unsafe", Kind: KindOPF, OpenPrecond: OpenPrecond{HasCandidate: true, HasThreatener: true}})
	l.Insert(Flaw{ID: "init", Kind: KindOPF, OpenPrecond: OpenPrecond{InInit: true}})
	l.Insert(Flaw{ID: "static", Kind: KindOPF, OpenPrecond: OpenPrecond{NeverAnEffect: true}})

	wantOrder := []string{"static", "init", "unsafe", "reusable", "nonreusable"}
	for _, want := range wantOrder {
		got, ok := l.Next()
		if !ok || got.ID != want {
			t.Fatalf("expected %q next, got %v ok=%v", want, got, ok)
		}
		l.Remove(got.ID)
	}
}

func TestRemoveIsANoOpForUnknownID(t *testing.T) {
	l := New()
	l.Insert(Flaw{ID: "a", Kind: KindOPF})
	l.Remove("nonexistent")

	if l.Len() != 1 {
		t.Errorf("expected Remove of an unknown id to be a no-op, got len %d", l.Len())
	}
}

func TestLenAndAll(t *testing.T) {
	l := New()
	l.Insert(Flaw{ID: "a", Kind: KindOPF})
	l.Insert(Flaw{ID: "b", Kind: KindTCLF})

	if l.Len() != 2 {
		t.Errorf("expected len 2, got %d", l.Len())
	}
	if len(l.All()) != 2 {
		t.Errorf("expected All to return 2 flaws, got %d", len(l.All()))
	}
}

func TestCloneIsIndependent(t *testing.T) {
	l := New()
	l.Insert(Flaw{ID: "a", Kind: KindOPF})

	clone := l.Clone()
	clone.Insert(Flaw{ID: "b", Kind: KindOPF})

	if l.Len() != 1 {
		t.Errorf("mutating the clone should not affect the original, got len %d", l.Len())
	}
	if clone.Len() != 2 {
		t.Errorf("expected the clone to have its own new flaw, got len %d", clone.Len())
	}
}
