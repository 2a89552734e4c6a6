package domain

import (
	"github.com/PetervDooren/PyDPOCL/pkg/geometry"
	"github.com/PetervDooren/PyDPOCL/pkg/ptypes"
)

// arg is a small constructor helper for the fixtures below, reducing the
// literal clutter of repeated ptypes.Argument{...} struct literals.
func arg(id, typ, name string, kind ptypes.ArgKind) ptypes.Argument {
	return ptypes.Argument{ID: id, Type: typ, Name: name, Kind: kind}
}

// movemonoSchema is the one primitive action the fixture below uses: a
// robot relocates a single rigid object from one area to another,
// sweeping a corridor along the way. It is the schema the design notes
// describe: precond within(obj, from); effects not-within(obj, from),
// within(obj, to), traverse(robot, path, from, to); from and to must
// differ, and to must lie in the mover's reach (spec.md §3, §4.6 step 3
// extended to traverse, §4.6 step 5).
func movemonoSchema() *ptypes.Operator {
	robot := arg("movemono.robot", "robot", "robot", ptypes.KindObject)
	obj := arg("movemono.obj", "box", "obj", ptypes.KindObject)
	from := arg("movemono.from", "", "from", ptypes.KindArea)
	to := arg("movemono.to", "", "to", ptypes.KindArea)
	path := arg("movemono.path", "", "path", ptypes.KindPath)

	return &ptypes.Operator{
		SchemaName: "movemono",
		Args:       []ptypes.Argument{robot, obj, from, to, path},
		Preconds: []ptypes.Literal{
			{ID: "movemono.pre.within", Name: ptypes.PredicateWithin, Args: []ptypes.Argument{obj, from}, Truth: true},
		},
		Effects: []ptypes.Literal{
			{ID: "movemono.eff.leave", Name: ptypes.PredicateWithin, Args: []ptypes.Argument{obj, from}, Truth: false},
			{ID: "movemono.eff.arrive", Name: ptypes.PredicateWithin, Args: []ptypes.Argument{obj, to}, Truth: true},
			{ID: "movemono.eff.traverse", Name: ptypes.PredicateTraverse, Args: []ptypes.Argument{robot, path, from, to}, Truth: true},
		},
		NonEq:        []ptypes.NonEqPair{{I: 2, J: 3}},
		Reach:        []ptypes.ReachPair{{AreaIdx: 3, RobotIdx: 0}},
		Instantiable: true,
	}
}

func initSentinel(effects []ptypes.Literal, args []ptypes.Argument) *ptypes.Operator {
	return &ptypes.Operator{SchemaName: "init", InstanceID: "init", Args: args, Effects: effects}
}

func goalSentinel(preconds []ptypes.Literal, args []ptypes.Argument) *ptypes.Operator {
	return &ptypes.Operator{SchemaName: "goal", InstanceID: "goal", Args: args, Preconds: preconds}
}

// TwoBoxSwap builds spec.md §8's "two-box symbolic swap" fixture: a robot
// and two boxes on a shared table, each box starting in the other's
// destination region, solvable only by moving both (grounded from
// _examples/original_source/'s two-box scenario in the original test
// suite, carried forward since the distilled spec names it directly as
// a testable property).
func TwoBoxSwap() (*Problem, *OperatorPool, error) {
	const (
		base   = "base"
		left   = "goal_left"
		right  = "goal_right"
		reach  = "robot_reach"
		robotC = "robot1"
		boxA   = "boxA"
		boxB   = "boxB"
	)

	pr := &Problem{
		Objects: []ptypes.Argument{
			arg(robotC, "robot", "robot1", ptypes.KindObject),
			arg(boxA, "box", "boxA", ptypes.KindObject),
			arg(boxB, "box", "boxB", ptypes.KindObject),
		},
		ObjectTypes: map[string]map[string]bool{
			"robot": {"robot": true},
			"box":   {"box": true},
		},
		ObjectDimensions: map[string][2]float64{
			boxA: {0.3, 0.3},
			boxB: {0.3, 0.3},
		},
		InitialPositions: map[string]string{
			boxA: left,
			boxB: right,
		},
		Areas: map[string]geometry.Poly{
			base:  geometry.Rect(0, 0, 4, 4),
			left:  geometry.Rect(0.2, 0.2, 0.5, 0.5),
			right: geometry.Rect(3.3, 3.3, 0.5, 0.5),
			reach: geometry.Rect(0, 0, 4, 4),
		},
		BaseArea:   base,
		RobotReach: map[string]string{robotC: reach},
	}

	movemono := movemonoSchema()

	initArgs := []ptypes.Argument{
		arg(boxA, "box", "boxA", ptypes.KindObject),
		arg(left, "", left, ptypes.KindArea),
		arg(boxB, "box", "boxB", ptypes.KindObject),
		arg(right, "", right, ptypes.KindArea),
	}
	init := initSentinel([]ptypes.Literal{
		{ID: "init.boxA.within", Name: ptypes.PredicateWithin, Args: []ptypes.Argument{initArgs[0], initArgs[1]}, Truth: true},
		{ID: "init.boxB.within", Name: ptypes.PredicateWithin, Args: []ptypes.Argument{initArgs[2], initArgs[3]}, Truth: true},
	}, initArgs)

	goalArgs := []ptypes.Argument{
		arg(boxA, "box", "boxA", ptypes.KindObject),
		arg(right, "", right, ptypes.KindArea),
		arg(boxB, "box", "boxB", ptypes.KindObject),
		arg(left, "", left, ptypes.KindArea),
	}
	goal := goalSentinel([]ptypes.Literal{
		{ID: "goal.boxA.within", Name: ptypes.PredicateWithin, Args: []ptypes.Argument{goalArgs[0], goalArgs[1]}, Truth: true},
		{ID: "goal.boxB.within", Name: ptypes.PredicateWithin, Args: []ptypes.Argument{goalArgs[2], goalArgs[3]}, Truth: true},
	}, goalArgs)

	pool, err := NewOperatorPool([]*ptypes.Operator{movemono}, init, goal)
	if err != nil {
		return nil, nil, err
	}
	return pr, pool, nil
}
