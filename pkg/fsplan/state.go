package fsplan

import (
	"encoding/binary"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// State is a full assignment of values to the state variables of a
// problem. States are immutable once built: Apply returns a new
// State and leaves the receiver untouched, so a State may be shared
// between any number of search nodes.
type State struct {
	values []Value
	hash   uint64
}

// NewState builds a State holding a copy of values.
func NewState(values []Value) *State {
	s := &State{values: make([]Value, len(values))}
	copy(s.values, values)
	for i, v := range s.values {
		s.hash ^= atomKey(VariableID(i), v)
	}
	return s
}

// atomKey is the hash contribution of a single variable assignment.
// The state hash is the xor of the keys of all its assignments,
// which lets Apply update it in O(|changeset|).
func atomKey(variable VariableID, value Value) uint64 {
	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[:4], uint32(variable))
	binary.LittleEndian.PutUint64(buf[4:], value.Raw())
	return xxhash.Sum64(buf[:])
}

// NumVariables returns the number of variables of the state.
func (s *State) NumVariables() int {
	return len(s.values)
}

// Value returns the value held by variable.
func (s *State) Value(variable VariableID) Value {
	return s.values[variable]
}

// Values returns the backing value vector. Callers must not modify
// it.
func (s *State) Values() []Value {
	return s.values
}

// Contains reports whether atom holds in the state.
func (s *State) Contains(atom Atom) bool {
	if int(atom.Variable) >= len(s.values) {
		return false
	}
	return s.values[atom.Variable] == atom.Value
}

// Hash returns the state hash.
func (s *State) Hash() uint64 {
	return s.hash
}

// Equal reports whether both states assign the same values.
func (s *State) Equal(o *State) bool {
	if s == o {
		return true
	}
	if s.hash != o.hash || len(s.values) != len(o.values) {
		return false
	}
	for i := range s.values {
		if s.values[i] != o.values[i] {
			return false
		}
	}
	return true
}

// Apply returns the state that results from asserting every atom of
// changeset, in order, on a copy of s. Later atoms on the same
// variable overwrite earlier ones.
func (s *State) Apply(changeset []Atom) *State {
	next := &State{
		values: make([]Value, len(s.values)),
		hash:   s.hash,
	}
	copy(next.values, s.values)
	for _, atom := range changeset {
		old := next.values[atom.Variable]
		if old == atom.Value {
			continue
		}
		next.hash ^= atomKey(atom.Variable, old) ^ atomKey(atom.Variable, atom.Value)
		next.values[atom.Variable] = atom.Value
	}
	return next
}

// Diff appends to dst the variables on which s and o disagree.
func (s *State) Diff(o *State, dst []int) []int {
	for i := range s.values {
		if s.values[i] != o.values[i] {
			dst = append(dst, i)
		}
	}
	return dst
}

func (s *State) String() string {
	parts := make([]string, len(s.values))
	for i, v := range s.values {
		parts[i] = Atom{Variable: VariableID(i), Value: v}.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
