package fsplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateApply(t *testing.T) {
	type tc struct {
		Name      string
		Initial   []Value
		Changeset []Atom
		Expected  []Value
	}

	for _, tt := range []tc{
		{
			Name:     "empty changeset",
			Initial:  []Value{Bool(false), Int(3)},
			Expected: []Value{Bool(false), Int(3)},
		},
		{
			Name:      "single update",
			Initial:   []Value{Bool(false), Int(3)},
			Changeset: []Atom{NewAtom(0, Bool(true))},
			Expected:  []Value{Bool(true), Int(3)},
		},
		{
			Name:      "later atoms win",
			Initial:   []Value{Bool(false), Int(3)},
			Changeset: []Atom{NewAtom(1, Int(4)), NewAtom(1, Int(5))},
			Expected:  []Value{Bool(false), Int(5)},
		},
		{
			Name:      "assigning the current value is a no-op",
			Initial:   []Value{Bool(false), Int(3)},
			Changeset: []Atom{NewAtom(1, Int(3))},
			Expected:  []Value{Bool(false), Int(3)},
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			s := NewState(tt.Initial)
			next := s.Apply(tt.Changeset)
			assert.Equal(t, tt.Expected, next.Values())
			assert.Equal(t, NewState(tt.Expected).Hash(), next.Hash(), "incremental hash must match a fresh hash")
			assert.True(t, next.Equal(NewState(tt.Expected)))
			assert.Equal(t, tt.Initial, s.Values(), "parent state must not change")
		})
	}
}

func TestStateHashDistinguishesValues(t *testing.T) {
	a := NewState([]Value{Bool(true), Bool(false)})
	b := NewState([]Value{Bool(false), Bool(true)})
	assert.NotEqual(t, a.Hash(), b.Hash())
	assert.False(t, a.Equal(b))
	assert.Equal(t, []int{0, 1}, a.Diff(b, nil))
	assert.True(t, a.Contains(NewAtom(0, Bool(true))))
	assert.False(t, a.Contains(NewAtom(0, Bool(false))))
}

func TestValueCompare(t *testing.T) {
	assert.Equal(t, 0, Int(3).Compare(Int(3)))
	assert.Equal(t, -1, Int(2).Compare(Int(3)))
	assert.Equal(t, 1, Object(0).Compare(Int(5)))
	assert.Equal(t, -1, Invalid.Compare(Bool(false)))
	assert.NotEqual(t, Int(1).Raw(), Bool(true).Raw())
	assert.Equal(t, "true", Bool(true).String())
	assert.False(t, Invalid.IsValid())
}

func TestStatsAdd(t *testing.T) {
	var s Stats
	s.RecordNovelty(2)
	s.RecordNovelty(1)
	s.Add(Stats{Generated: 3, Novelty: map[int]uint64{1: 2}})
	assert.Equal(t, uint64(3), s.Generated)
	assert.Equal(t, []int{1, 2}, s.NoveltyWidths())
	assert.Equal(t, uint64(3), s.Novelty[1])
}
