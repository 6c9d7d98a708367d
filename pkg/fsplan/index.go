package fsplan

import (
	"fmt"
)

// Variable declares a state variable together with every value it
// can ever hold.
type Variable struct {
	Name string
	// Predicative variables are boolean variables obtained from a
	// predicate symbol. Their false value is a negated literal.
	Predicative bool
	Domain      []Value
}

// AtomIndex is a bijection between the atoms of a problem and dense
// AtomIDs. The atom universe is closed: every atom that can ever be
// asserted during search is registered when the index is built.
type AtomIndex struct {
	variables  []Variable
	objects    []string
	atoms      []Atom
	ids        map[Atom]AtomID
	byVariable [][]AtomID
	negated    bool
}

type IndexOption func(idx *AtomIndex)

// IndexNegatedLiterals controls whether the false value of
// predicative variables is registered. It defaults to true.
func IndexNegatedLiterals(b bool) IndexOption {
	return func(idx *AtomIndex) {
		idx.negated = b
	}
}

// WithObjectNames attaches the names used to print object values.
func WithObjectNames(names []string) IndexOption {
	return func(idx *AtomIndex) {
		idx.objects = names
	}
}

// NewAtomIndex enumerates the atoms of variables in variable order,
// then in domain order, and assigns them consecutive AtomIDs.
func NewAtomIndex(variables []Variable, options ...IndexOption) *AtomIndex {
	idx := &AtomIndex{
		variables:  variables,
		ids:        make(map[Atom]AtomID),
		byVariable: make([][]AtomID, len(variables)),
		negated:    true,
	}
	for _, option := range options {
		option(idx)
	}
	for i, variable := range variables {
		for _, value := range variable.Domain {
			if variable.Predicative && !value.Bool() && !idx.negated {
				continue
			}
			atom := Atom{Variable: VariableID(i), Value: value}
			if _, ok := idx.ids[atom]; ok {
				continue
			}
			id := AtomID(len(idx.atoms))
			idx.atoms = append(idx.atoms, atom)
			idx.ids[atom] = id
			idx.byVariable[i] = append(idx.byVariable[i], id)
		}
	}
	return idx
}

// Size returns the number of registered atoms.
func (idx *AtomIndex) Size() int {
	return len(idx.atoms)
}

func (idx *AtomIndex) NumVariables() int {
	return len(idx.variables)
}

func (idx *AtomIndex) Variable(v VariableID) Variable {
	return idx.variables[v]
}

// IndexesNegatedLiterals reports whether the false values of
// predicative variables are registered.
func (idx *AtomIndex) IndexesNegatedLiterals() bool {
	return idx.negated
}

// ToIndex returns the AtomID of variable=value. Querying an atom
// outside the registered universe is a programming error and
// panics.
func (idx *AtomIndex) ToIndex(variable VariableID, value Value) AtomID {
	id, ok := idx.ids[Atom{Variable: variable, Value: value}]
	if !ok {
		panic(fmt.Sprintf("atom %s is not indexed", idx.FormatAtom(Atom{Variable: variable, Value: value})))
	}
	return id
}

// Lookup is the non-panicking form of ToIndex.
func (idx *AtomIndex) Lookup(atom Atom) (AtomID, bool) {
	id, ok := idx.ids[atom]
	return id, ok
}

// IsIndexed reports whether variable=value was registered.
func (idx *AtomIndex) IsIndexed(variable VariableID, value Value) bool {
	_, ok := idx.ids[Atom{Variable: variable, Value: value}]
	return ok
}

// ToAtom returns the atom identified by id.
func (idx *AtomIndex) ToAtom(id AtomID) Atom {
	return idx.atoms[id]
}

// VariableAtoms returns the AtomIDs registered for variable.
func (idx *AtomIndex) VariableAtoms(variable VariableID) []AtomID {
	return idx.byVariable[variable]
}

// IsNegative reports whether the atom is the false value of a
// predicative variable.
func (idx *AtomIndex) IsNegative(id AtomID) bool {
	atom := idx.atoms[id]
	return idx.variables[atom.Variable].Predicative && !atom.Value.Bool()
}

// StateAtoms appends to dst the registered atoms that hold in s.
func (idx *AtomIndex) StateAtoms(s *State, dst []AtomID) []AtomID {
	for i, v := range s.Values() {
		if id, ok := idx.ids[Atom{Variable: VariableID(i), Value: v}]; ok {
			dst = append(dst, id)
		}
	}
	return dst
}

// FormatAtom renders an atom with variable and object names.
func (idx *AtomIndex) FormatAtom(atom Atom) string {
	name := fmt.Sprintf("v%d", atom.Variable)
	if int(atom.Variable) < len(idx.variables) && idx.variables[atom.Variable].Name != "" {
		name = idx.variables[atom.Variable].Name
	}
	return name + "=" + idx.FormatValue(atom.Value)
}

// FormatValue renders a value, resolving object names when known.
func (idx *AtomIndex) FormatValue(v Value) string {
	if v.Kind() == KindObject && int(v.Object()) < len(idx.objects) && v.Object() >= 0 {
		return idx.objects[v.Object()]
	}
	return v.String()
}
