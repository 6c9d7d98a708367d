package domains

import (
	"github.com/operator-framework/fsplan/internal/formula"
	"github.com/operator-framework/fsplan/internal/strips"
	"github.com/operator-framework/fsplan/pkg/fsplan"
)

func predicate(name string) fsplan.Variable {
	return fsplan.Variable{Name: name, Predicative: true, Domain: []fsplan.Value{fsplan.Bool(false), fsplan.Bool(true)}}
}

func yes(v fsplan.VariableID) formula.Formula {
	return formula.Lit(v, fsplan.Bool(true))
}

func no(v fsplan.VariableID) formula.Formula {
	return formula.Lit(v, fsplan.Bool(false))
}

// Variables of the toy domain.
const (
	A fsplan.VariableID = iota
	B
	C
)

// Toy returns the three-variable domain with actions
// A: pre={¬a}, eff={a, b} and B: pre={a}, eff={c}, the goal c and
// every variable initially false.
func Toy() *fsplan.Problem {
	idx := fsplan.NewAtomIndex([]fsplan.Variable{predicate("a"), predicate("b"), predicate("c")})
	actions := []strips.Action{
		{
			Name:         "A",
			Precondition: no(A),
			Effects:      []strips.Effect{strips.Set(A, fsplan.Bool(true)), strips.Set(B, fsplan.Bool(true))},
		},
		{
			Name:         "B",
			Precondition: yes(A),
			Effects:      []strips.Effect{strips.Set(C, fsplan.Bool(true))},
		},
	}
	init := fsplan.NewState([]fsplan.Value{fsplan.Bool(false), fsplan.Bool(false), fsplan.Bool(false)})
	return must(strips.NewProblem(idx, init, actions, yes(C)))
}

// DeadEnd returns a variant of Toy in which no action is ever
// applicable from the initial state.
func DeadEnd() *fsplan.Problem {
	idx := fsplan.NewAtomIndex([]fsplan.Variable{predicate("a"), predicate("b"), predicate("c")})
	actions := []strips.Action{
		{
			Name:         "A",
			Precondition: yes(B),
			Effects:      []strips.Effect{strips.Set(A, fsplan.Bool(true))},
		},
		{
			Name:         "B",
			Precondition: yes(A),
			Effects:      []strips.Effect{strips.Set(C, fsplan.Bool(true))},
		},
	}
	init := fsplan.NewState([]fsplan.Value{fsplan.Bool(false), fsplan.Bool(false), fsplan.Bool(false)})
	return must(strips.NewProblem(idx, init, actions, yes(C)))
}

func must(p *fsplan.Problem, err error) *fsplan.Problem {
	if err != nil {
		panic(err)
	}
	return p
}
