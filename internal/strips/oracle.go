package strips

import (
	"fmt"

	"github.com/operator-framework/fsplan/internal/formula"
	"github.com/operator-framework/fsplan/pkg/fsplan"
)

// Effect assigns Atom when Condition holds in the state the action
// is applied to.
type Effect struct {
	Condition formula.Formula
	Atom      fsplan.Atom
}

// Set is an unconditional effect.
func Set(variable fsplan.VariableID, value fsplan.Value) Effect {
	return Effect{Condition: formula.True(), Atom: fsplan.NewAtom(variable, value)}
}

// When is a conditional effect.
func When(condition formula.Formula, variable fsplan.VariableID, value fsplan.Value) Effect {
	return Effect{Condition: condition, Atom: fsplan.NewAtom(variable, value)}
}

// Action is a ground action.
type Action struct {
	Name         string
	Precondition formula.Formula
	Effects      []Effect
}

type compiledEffect struct {
	condition *formula.Checker
	atom      fsplan.Atom
	id        fsplan.AtomID
}

type compiledAction struct {
	name         string
	precondition *formula.Checker
	effects      []compiledEffect
}

// Oracle is an fsplan.ActionOracle over a fixed set of ground
// actions.
type Oracle struct {
	actions []compiledAction
}

var _ fsplan.ActionOracle = &Oracle{}

// NewOracle compiles actions against idx. Every atom an action
// mentions or produces must be registered in idx.
func NewOracle(idx *fsplan.AtomIndex, actions []Action) (*Oracle, error) {
	o := &Oracle{actions: make([]compiledAction, len(actions))}
	for i, action := range actions {
		pre, err := formula.Compile(action.Precondition, idx)
		if err != nil {
			return nil, fmt.Errorf("action %s: precondition: %w", action.Name, err)
		}
		compiled := compiledAction{name: action.Name, precondition: pre}
		for j, effect := range action.Effects {
			condition, err := formula.Compile(effect.Condition, idx)
			if err != nil {
				return nil, fmt.Errorf("action %s: effect %d: %w", action.Name, j, err)
			}
			id, ok := idx.Lookup(effect.Atom)
			if !ok {
				return nil, fmt.Errorf("action %s: effect %d: %w", action.Name, j, formula.UnindexedAtom(effect.Atom))
			}
			compiled.effects = append(compiled.effects, compiledEffect{condition: condition, atom: effect.Atom, id: id})
		}
		o.actions[i] = compiled
	}
	return o, nil
}

func (o *Oracle) NumActions() int {
	return len(o.actions)
}

func (o *Oracle) ActionName(a fsplan.ActionID) string {
	if a == fsplan.InvalidAction {
		return "<none>"
	}
	return o.actions[a].name
}

func (o *Oracle) Applicable(s *fsplan.State, dst []fsplan.ActionID) []fsplan.ActionID {
	for i := range o.actions {
		if o.actions[i].precondition.Holds(s) {
			dst = append(dst, fsplan.ActionID(i))
		}
	}
	return dst
}

// Apply evaluates every effect condition in s before any effect
// takes place.
func (o *Oracle) Apply(s *fsplan.State, a fsplan.ActionID, dst []fsplan.Atom) []fsplan.Atom {
	for _, effect := range o.actions[a].effects {
		if effect.condition.Holds(s) {
			dst = append(dst, effect.atom)
		}
	}
	return dst
}

func (o *Oracle) SeekNovelTuples(a fsplan.ActionID, layer fsplan.RelaxedLayer, emit func(fsplan.AtomID, []fsplan.AtomID)) {
	action := &o.actions[a]
	var pre []fsplan.AtomID
	var checked bool
	for _, effect := range action.effects {
		if layer.Reached(effect.id) {
			continue
		}
		if !checked {
			var ok bool
			if pre, ok = action.precondition.Support(layer); !ok {
				return
			}
			checked = true
		}
		cond, ok := effect.condition.Support(layer)
		if !ok {
			continue
		}
		support := make([]fsplan.AtomID, 0, len(pre)+len(cond))
		support = append(support, pre...)
		support = append(support, cond...)
		emit(effect.id, support)
	}
}
