package search

import (
	"github.com/operator-framework/fsplan/pkg/fsplan"
)

// Node is a search node. Its state is never mutated once the node is
// created; parent, action and g change only when a cheaper path to
// the same state is found while the node is open.
type Node struct {
	state  *fsplan.State
	parent *Node
	action fsplan.ActionID
	g      uint32

	// evaluation cache, filled once
	evaluated bool
	h         int64
	novelty   int
	unsat     int

	seq    uint64
	index  int
	closed bool
}

var _ fsplan.SearchPosition = &Node{}

func (n *Node) State() *fsplan.State {
	return n.state
}

func (n *Node) Action() fsplan.ActionID {
	return n.action
}

func (n *Node) G() uint32 {
	return n.g
}

func (n *Node) H() int64 {
	return n.h
}

func (n *Node) Novelty() int {
	return n.novelty
}

// Plan returns the actions on the path from the root to n.
func (n *Node) Plan() []fsplan.ActionID {
	plan := make([]fsplan.ActionID, 0, n.g)
	for ; n.parent != nil; n = n.parent {
		plan = append(plan, n.action)
	}
	for i, j := 0, len(plan)-1; i < j; i, j = i+1, j-1 {
		plan[i], plan[j] = plan[j], plan[i]
	}
	return plan
}

// reparent makes parent, via action, the predecessor of n. A node
// still waiting for its evaluation takes over the one of its new
// parent.
func (n *Node) reparent(parent *Node, action fsplan.ActionID) {
	n.parent = parent
	n.action = action
	n.g = parent.g + 1
	if !n.evaluated {
		n.inherit(parent)
	}
}

// inherit copies the evaluation of parent without marking n
// evaluated.
func (n *Node) inherit(parent *Node) {
	n.h = parent.h
	n.novelty = parent.novelty
	n.unsat = parent.unsat
}

// nodes maps states to the unique node holding them.
type nodes struct {
	buckets map[uint64][]*Node
	size    int
}

func newNodes() *nodes {
	return &nodes{buckets: make(map[uint64][]*Node)}
}

func (t *nodes) get(s *fsplan.State) *Node {
	for _, n := range t.buckets[s.Hash()] {
		if n.state.Equal(s) {
			return n
		}
	}
	return nil
}

func (t *nodes) put(n *Node) {
	h := n.state.Hash()
	t.buckets[h] = append(t.buckets[h], n)
	t.size++
}

func (t *nodes) len() int {
	return t.size
}
