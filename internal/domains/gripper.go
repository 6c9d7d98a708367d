package domains

import (
	"fmt"

	"github.com/operator-framework/fsplan/internal/formula"
	"github.com/operator-framework/fsplan/internal/strips"
	"github.com/operator-framework/fsplan/pkg/fsplan"
)

// Objects of the gripper domain.
const (
	RoomA fsplan.ObjectID = iota
	RoomB
	Left
	Right
)

// Gripper returns the classic gripper task: a robot with two hands
// carries the given number of balls from room A to room B.
func Gripper(balls int) (*fsplan.Problem, error) {
	if balls < 1 {
		return nil, fmt.Errorf("invalid number of balls: %d", balls)
	}
	rooms := []fsplan.ObjectID{RoomA, RoomB}
	hands := []fsplan.ObjectID{Left, Right}
	places := []fsplan.Value{fsplan.Object(RoomA), fsplan.Object(RoomB), fsplan.Object(Left), fsplan.Object(Right)}

	robby := fsplan.VariableID(0)
	free := map[fsplan.ObjectID]fsplan.VariableID{Left: 1, Right: 2}
	ball := func(b int) fsplan.VariableID {
		return fsplan.VariableID(3 + b)
	}

	variables := []fsplan.Variable{
		{Name: "at-robby", Domain: []fsplan.Value{fsplan.Object(RoomA), fsplan.Object(RoomB)}},
		predicate("free(left)"),
		predicate("free(right)"),
	}
	for b := 0; b < balls; b++ {
		variables = append(variables, fsplan.Variable{Name: fmt.Sprintf("at(ball%d)", b), Domain: places})
	}
	idx := fsplan.NewAtomIndex(variables, fsplan.WithObjectNames([]string{"rooma", "roomb", "left", "right"}))

	var actions []strips.Action
	for _, from := range rooms {
		for _, to := range rooms {
			if from == to {
				continue
			}
			actions = append(actions, strips.Action{
				Name:         fmt.Sprintf("move(%s, %s)", idx.FormatValue(fsplan.Object(from)), idx.FormatValue(fsplan.Object(to))),
				Precondition: formula.Lit(robby, fsplan.Object(from)),
				Effects:      []strips.Effect{strips.Set(robby, fsplan.Object(to))},
			})
		}
	}
	for b := 0; b < balls; b++ {
		for _, room := range rooms {
			for _, hand := range hands {
				actions = append(actions, strips.Action{
					Name: fmt.Sprintf("pick(ball%d, %s, %s)", b, idx.FormatValue(fsplan.Object(room)), idx.FormatValue(fsplan.Object(hand))),
					Precondition: formula.All(
						formula.Lit(ball(b), fsplan.Object(room)),
						formula.Lit(robby, fsplan.Object(room)),
						yes(free[hand]),
					),
					Effects: []strips.Effect{
						strips.Set(ball(b), fsplan.Object(hand)),
						strips.Set(free[hand], fsplan.Bool(false)),
					},
				}, strips.Action{
					Name: fmt.Sprintf("drop(ball%d, %s, %s)", b, idx.FormatValue(fsplan.Object(room)), idx.FormatValue(fsplan.Object(hand))),
					Precondition: formula.All(
						formula.Lit(ball(b), fsplan.Object(hand)),
						formula.Lit(robby, fsplan.Object(room)),
					),
					Effects: []strips.Effect{
						strips.Set(ball(b), fsplan.Object(room)),
						strips.Set(free[hand], fsplan.Bool(true)),
					},
				})
			}
		}
	}

	init := []fsplan.Value{fsplan.Object(RoomA), fsplan.Bool(true), fsplan.Bool(true)}
	var goal []formula.Formula
	for b := 0; b < balls; b++ {
		init = append(init, fsplan.Object(RoomA))
		goal = append(goal, formula.Lit(ball(b), fsplan.Object(RoomB)))
	}
	return strips.NewProblem(idx, fsplan.NewState(init), actions, formula.All(goal...))
}
