package novelty

import (
	"github.com/operator-framework/fsplan/pkg/fsplan"
)

// Feature is an auxiliary state feature appended to the valuation
// after the state variables.
type Feature struct {
	Name  string
	Value func(s *fsplan.State) fsplan.Value
}

// Count is a feature holding the number of atoms that hold in s.
func Count(name string, atoms ...fsplan.Atom) Feature {
	return Feature{
		Name: name,
		Value: func(s *fsplan.State) fsplan.Value {
			var n int32
			for _, atom := range atoms {
				if s.Contains(atom) {
					n++
				}
			}
			return fsplan.Int(n)
		},
	}
}

// Sum is a feature holding the sum of integer variables.
func Sum(name string, variables ...fsplan.VariableID) Feature {
	return Feature{
		Name: name,
		Value: func(s *fsplan.State) fsplan.Value {
			var n int32
			for _, v := range variables {
				if value := s.Value(v); value.Kind() == fsplan.KindInt {
					n += value.Int()
				}
			}
			return fsplan.Int(n)
		},
	}
}

// Featurizer maps states to valuations. Entry i of a valuation is the
// value of state variable i, followed by the extra features. Entries
// that must not feed novelty tables are fsplan.Invalid.
type Featurizer struct {
	idx            *fsplan.AtomIndex
	ignoreNegative bool
	extra          []Feature
}

type FeaturizerOption func(f *Featurizer)

// IgnoreNegative drops the false value of predicative variables.
func IgnoreNegative(b bool) FeaturizerOption {
	return func(f *Featurizer) {
		f.ignoreNegative = b
	}
}

func WithFeatures(features ...Feature) FeaturizerOption {
	return func(f *Featurizer) {
		f.extra = append(f.extra, features...)
	}
}

func NewFeaturizer(idx *fsplan.AtomIndex, options ...FeaturizerOption) *Featurizer {
	f := &Featurizer{idx: idx}
	for _, option := range options {
		option(f)
	}
	return f
}

// Size is the length of every valuation.
func (f *Featurizer) Size() int {
	return f.idx.NumVariables() + len(f.extra)
}

// HasExtraFeatures reports whether valuations go beyond the state
// variables.
func (f *Featurizer) HasExtraFeatures() bool {
	return len(f.extra) > 0
}

// Valuation writes the valuation of s into dst, growing it as
// needed.
func (f *Featurizer) Valuation(s *fsplan.State, dst []fsplan.Value) []fsplan.Value {
	dst = dst[:0]
	for i, v := range s.Values() {
		variable := fsplan.VariableID(i)
		if !f.idx.IsIndexed(variable, v) || (f.ignoreNegative && f.idx.Variable(variable).Predicative && !v.Bool()) {
			dst = append(dst, fsplan.Invalid)
			continue
		}
		dst = append(dst, v)
	}
	for _, feature := range f.extra {
		dst = append(dst, feature.Value(s))
	}
	return dst
}
