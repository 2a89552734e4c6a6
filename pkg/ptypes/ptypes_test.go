package ptypes

import "testing"

func TestArgumentEqualIsByIDOnly(t *testing.T) {
	a := Argument{ID: "x", Name: "boxA", Type: "box"}
	b := Argument{ID: "x", Name: "different-display-name", Type: "other-type"}
	if !a.Equal(b) {
		t.Error("expected arguments with the same id to be equal regardless of Name/Type")
	}
	c := Argument{ID: "y"}
	if a.Equal(c) {
		t.Error("expected arguments with different ids to not be equal")
	}
}

func TestLiteralEqualComparesNameArgsAndTruth(t *testing.T) {
	x := Argument{ID: "x"}
	y := Argument{ID: "y"}
	l1 := Literal{ID: "l1", Name: "within", Args: []Argument{x, y}, Truth: true}
	l2 := Literal{ID: "l2", Name: "within", Args: []Argument{x, y}, Truth: true}
	if !l1.Equal(l2) {
		t.Error("expected literals with the same name/args/truth to be equal regardless of ID")
	}

	l3 := Literal{ID: "l3", Name: "within", Args: []Argument{x, y}, Truth: false}
	if l1.Equal(l3) {
		t.Error("expected literals differing only in Truth to not be equal")
	}

	l4 := Literal{ID: "l4", Name: "within", Args: []Argument{y, x}, Truth: true}
	if l1.Equal(l4) {
		t.Error("expected literals with arguments in a different order to not be equal")
	}
}

func TestOperatorValidateRejectsForeignArgument(t *testing.T) {
	known := Argument{ID: "a"}
	foreign := Argument{ID: "b"}
	op := &Operator{
		SchemaName: "bad",
		Args:       []Argument{known},
		Preconds:   []Literal{{ID: "p", Name: "x", Args: []Argument{foreign}}},
	}
	if err := op.Validate(); err == nil {
		t.Error("expected Validate to reject a precondition referencing a foreign argument")
	}
}

func TestOperatorValidateRejectsOutOfRangeNonEq(t *testing.T) {
	op := &Operator{
		SchemaName: "bad",
		Args:       []Argument{{ID: "a"}},
		NonEq:      []NonEqPair{{I: 0, J: 5}},
	}
	if err := op.Validate(); err == nil {
		t.Error("expected Validate to reject an out-of-range NonEq pair")
	}
}

func TestOperatorValidateRejectsOutOfRangeReach(t *testing.T) {
	op := &Operator{
		SchemaName: "bad",
		Args:       []Argument{{ID: "a"}},
		Reach:      []ReachPair{{AreaIdx: 0, RobotIdx: 3}},
	}
	if err := op.Validate(); err == nil {
		t.Error("expected Validate to reject an out-of-range Reach pair")
	}
}

func TestOperatorValidateAcceptsWellFormedOperator(t *testing.T) {
	a := Argument{ID: "a"}
	b := Argument{ID: "b"}
	op := &Operator{
		SchemaName: "good",
		Args:       []Argument{a, b},
		Preconds:   []Literal{{ID: "p", Name: "x", Args: []Argument{a}}},
		Effects:    []Literal{{ID: "e", Name: "y", Args: []Argument{b}}},
		NonEq:      []NonEqPair{{I: 0, J: 1}},
	}
	if err := op.Validate(); err != nil {
		t.Errorf("expected a well-formed operator to validate, got %v", err)
	}
}

func TestFindPrecondAndFindEffect(t *testing.T) {
	op := &Operator{
		Preconds: []Literal{{ID: "p1", Name: "x"}},
		Effects:  []Literal{{ID: "e1", Name: "y"}},
	}
	if _, ok := op.FindPrecond("p1"); !ok {
		t.Error("expected to find precondition p1")
	}
	if _, ok := op.FindPrecond("missing"); ok {
		t.Error("expected not to find a precondition that does not exist")
	}
	if _, ok := op.FindEffect("e1"); !ok {
		t.Error("expected to find effect e1")
	}
}

func TestTypeOntologyCompatibleAndIntersect(t *testing.T) {
	o := NewTypeOntology(map[string]string{
		"box":    "rigid_object",
		"sphere": "rigid_object",
	})
	if !o.Compatible("box", "rigid_object") {
		t.Error("expected box to be compatible with its ancestor rigid_object")
	}
	if o.Compatible("box", "sphere") {
		t.Error("expected two unrelated siblings to not be compatible")
	}
	if got := o.Intersect("rigid_object", "box"); got != "box" {
		t.Errorf("expected Intersect to narrow to the more specific type, got %q", got)
	}
}

func TestTypeOntologyCompatibleWithNilOntology(t *testing.T) {
	var o *TypeOntology
	if !o.Compatible("a", "a") {
		t.Error("expected identical types to be compatible even with a nil ontology")
	}
	if o.Compatible("a", "b") {
		t.Error("expected distinct types to be incompatible with a nil ontology")
	}
}
