package fsplan

import "fmt"

// VariableID identifies a state variable. Variables are numbered
// densely from 0.
type VariableID int

// AtomID is the dense identifier an AtomIndex assigns to an Atom.
type AtomID int

// ActionID identifies a ground action known to an ActionOracle.
type ActionID int

// InvalidAction is the action of a root search node.
const InvalidAction ActionID = -1

// Atom is a ground fact: a variable holding a value.
type Atom struct {
	Variable VariableID
	Value    Value
}

// NewAtom is a convenience constructor.
func NewAtom(variable VariableID, value Value) Atom {
	return Atom{Variable: variable, Value: value}
}

// Compare orders atoms by variable, then by value.
func (a Atom) Compare(o Atom) int {
	switch {
	case a.Variable < o.Variable:
		return -1
	case a.Variable > o.Variable:
		return 1
	}
	return a.Value.Compare(o.Value)
}

func (a Atom) String() string {
	return fmt.Sprintf("v%d=%s", a.Variable, a.Value)
}
