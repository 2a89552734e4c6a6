package symbolic

import (
	"testing"

	"github.com/PetervDooren/PyDPOCL/pkg/ptypes"
)

func objArg(id, typ string) ptypes.Argument {
	return ptypes.Argument{ID: id, Type: typ, Kind: ptypes.KindObject}
}

func TestRegisterAndConstant(t *testing.T) {
	b := New(nil)
	c := objArg("boxA", "box")
	b.Register(c, true)

	got, ok := b.Constant(c)
	if !ok || got.ID != "boxA" {
		t.Errorf("expected boxA to be bound to itself, got %v ok=%v", got, ok)
	}
}

func TestAddCodesignationMergesGroups(t *testing.T) {
	b := New(nil)
	v1 := objArg("v1", "box")
	v2 := objArg("v2", "box")
	b.Register(v1, false)
	b.Register(v2, false)

	if b.IsCodesignated(v1, v2) {
		t.Fatal("v1 and v2 should not start codesignated")
	}
	if !b.AddCodesignation(v1, v2) {
		t.Fatal("expected AddCodesignation to succeed for two compatible free variables")
	}
	if !b.IsCodesignated(v1, v2) {
		t.Error("expected v1 and v2 to be codesignated after merge")
	}
}

func TestAddCodesignationRejectsDistinctConstants(t *testing.T) {
	b := New(nil)
	a := objArg("boxA", "box")
	c := objArg("boxB", "box")
	b.Register(a, true)
	b.Register(c, true)

	if b.AddCodesignation(a, c) {
		t.Error("expected two distinct bound constants to never codesignate")
	}
}

func TestAddNonCodesignationBlocksLaterMerge(t *testing.T) {
	b := New(nil)
	v1 := objArg("v1", "box")
	v2 := objArg("v2", "box")
	b.Register(v1, false)
	b.Register(v2, false)

	if !b.AddNonCodesignation(v1, v2) {
		t.Fatal("expected AddNonCodesignation to succeed for two distinct groups")
	}
	if b.AddCodesignation(v1, v2) {
		t.Error("expected codesignation to fail after an explicit exclusion")
	}
}

func TestAddNonCodesignationRejectsAlreadyMerged(t *testing.T) {
	b := New(nil)
	v1 := objArg("v1", "box")
	v2 := objArg("v2", "box")
	b.Register(v1, false)
	b.Register(v2, false)
	b.AddCodesignation(v1, v2)

	if b.AddNonCodesignation(v1, v2) {
		t.Error("expected a non-codesignation between already-merged groups to fail")
	}
}

func TestSeedPairwiseExclusionsIsInvariantI1(t *testing.T) {
	b := New(nil)
	objs := []ptypes.Argument{objArg("boxA", "box"), objArg("boxB", "box"), objArg("boxC", "box")}
	b.SeedPairwiseExclusions(objs)

	for i := range objs {
		for j := range objs {
			if i == j {
				continue
			}
			if b.AddCodesignation(objs[i], objs[j]) {
				t.Errorf("expected %s and %s to remain mutually excluded", objs[i].ID, objs[j].ID)
			}
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b := New(nil)
	v1 := objArg("v1", "box")
	v2 := objArg("v2", "box")
	b.Register(v1, false)
	b.Register(v2, false)

	clone := b.Clone()
	clone.AddCodesignation(v1, v2)

	if b.IsCodesignated(v1, v2) {
		t.Error("mutating the clone should not affect the original")
	}
	if !clone.IsCodesignated(v1, v2) {
		t.Error("expected the clone to see its own merge")
	}
}
