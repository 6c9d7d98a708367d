package formula

import (
	"fmt"
	"strings"

	"github.com/operator-framework/fsplan/pkg/fsplan"
)

// Op is the connective at the root of a Formula.
type Op uint8

const (
	OpTrue Op = iota
	OpAtom
	OpAll
	OpAny
	OpAtLeast
)

// Formula is a monotone condition over atoms. Negative facts are
// written as atoms holding the false value of a predicative
// variable, which keeps every formula monotone and therefore
// meaningful in the delete relaxation.
type Formula struct {
	Op       Op
	Atom     fsplan.Atom
	K        int
	Children []Formula
}

// True is the condition that always holds.
func True() Formula {
	return Formula{Op: OpTrue}
}

// Atom holds iff atom holds.
func Atom(atom fsplan.Atom) Formula {
	return Formula{Op: OpAtom, Atom: atom}
}

// Lit holds iff variable currently has value.
func Lit(variable fsplan.VariableID, value fsplan.Value) Formula {
	return Atom(fsplan.NewAtom(variable, value))
}

// All holds iff every child holds. All() is True.
func All(children ...Formula) Formula {
	return Formula{Op: OpAll, Children: children}
}

// Any holds iff at least one child holds. Any() never holds.
func Any(children ...Formula) Formula {
	return Formula{Op: OpAny, Children: children}
}

// AtLeast holds iff at least k children hold.
func AtLeast(k int, children ...Formula) Formula {
	return Formula{Op: OpAtLeast, K: k, Children: children}
}

// Holds evaluates f in s.
func (f Formula) Holds(s *fsplan.State) bool {
	switch f.Op {
	case OpTrue:
		return true
	case OpAtom:
		return s.Contains(f.Atom)
	case OpAll:
		for _, c := range f.Children {
			if !c.Holds(s) {
				return false
			}
		}
		return true
	case OpAny:
		for _, c := range f.Children {
			if c.Holds(s) {
				return true
			}
		}
		return false
	case OpAtLeast:
		n := 0
		for _, c := range f.Children {
			if c.Holds(s) {
				n++
				if n >= f.K {
					return true
				}
			}
		}
		return n >= f.K
	}
	return false
}

// Atoms returns the distinct atoms mentioned by f, in order of first
// occurrence.
func (f Formula) Atoms() []fsplan.Atom {
	seen := make(map[fsplan.Atom]struct{})
	var atoms []fsplan.Atom
	var walk func(Formula)
	walk = func(f Formula) {
		if f.Op == OpAtom {
			if _, ok := seen[f.Atom]; !ok {
				seen[f.Atom] = struct{}{}
				atoms = append(atoms, f.Atom)
			}
			return
		}
		for _, c := range f.Children {
			walk(c)
		}
	}
	walk(f)
	return atoms
}

// Conjuncts flattens nested All connectives at the root of f.
func (f Formula) Conjuncts() []Formula {
	switch f.Op {
	case OpTrue:
		return nil
	case OpAll:
		var cs []Formula
		for _, c := range f.Children {
			cs = append(cs, c.Conjuncts()...)
		}
		return cs
	}
	return []Formula{f}
}

// IsConjunctive reports whether f is a plain conjunction of atoms.
func (f Formula) IsConjunctive() bool {
	for _, c := range f.Conjuncts() {
		if c.Op != OpAtom {
			return false
		}
	}
	return true
}

func (f Formula) String() string {
	children := func() string {
		s := make([]string, len(f.Children))
		for i, c := range f.Children {
			s[i] = c.String()
		}
		return strings.Join(s, ", ")
	}
	switch f.Op {
	case OpTrue:
		return "true"
	case OpAtom:
		return f.Atom.String()
	case OpAll:
		return "all(" + children() + ")"
	case OpAny:
		return "any(" + children() + ")"
	case OpAtLeast:
		return fmt.Sprintf("atLeast(%d; %s)", f.K, children())
	}
	return "<invalid>"
}
