package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/operator-framework/fsplan/internal/novelty"
	"github.com/operator-framework/fsplan/internal/rpg"
	"github.com/operator-framework/fsplan/pkg/fsplan"
)

// Algorithm names a search strategy.
type Algorithm string

const (
	BFS  Algorithm = "bfs"
	GBFS Algorithm = "gbfs"
	IW   Algorithm = "iw"
	BFWS Algorithm = "bfws"
)

// Policy decides when generated nodes are evaluated.
type Policy string

const (
	// Eager evaluates nodes when they are generated.
	Eager Policy = "eager"
	// Delayed queues nodes with the evaluation of their parent and
	// evaluates them when they are expanded.
	Delayed Policy = "delayed"
)

// ErrConfiguration wraps every error caused by invalid options.
var ErrConfiguration = errors.New("invalid search configuration")

// Engine runs one search episode at a time over a Problem. The
// Problem may be shared with other engines; everything else the
// engine allocates belongs to the episode.
type Engine struct {
	problem      *fsplan.Problem
	algorithm    Algorithm
	maxWidth     int
	policy       Policy
	estimate     rpg.Estimate
	features     *novelty.Featurizer
	tableBudget  int64
	memoryBudget uint64
	partition    bool
	validate     bool
	log          logrus.FieldLogger
	tracer       fsplan.Tracer
	heap         func() uint64

	stats fsplan.Stats
	guard *memoryGuard
	seq   uint64
}

type Option func(e *Engine) error

func WithAlgorithm(a Algorithm) Option {
	return func(e *Engine) error {
		switch a {
		case BFS, GBFS, IW, BFWS:
			e.algorithm = a
			return nil
		}
		return fmt.Errorf("%w: unknown algorithm %q", ErrConfiguration, a)
	}
}

// WithMaxWidth bounds novelty tables for BFWS and the width iterations
// of IW.
func WithMaxWidth(w int) Option {
	return func(e *Engine) error {
		if w < 1 {
			return fmt.Errorf("%w: width bound must be positive, got %d", ErrConfiguration, w)
		}
		e.maxWidth = w
		return nil
	}
}

func WithPolicy(p Policy) Option {
	return func(e *Engine) error {
		switch p {
		case Eager, Delayed:
			e.policy = p
			return nil
		}
		return fmt.Errorf("%w: unknown evaluation policy %q", ErrConfiguration, p)
	}
}

// WithEstimate selects the relaxed-plan estimate used by GBFS.
func WithEstimate(est rpg.Estimate) Option {
	return func(e *Engine) error {
		switch est {
		case rpg.FF, rpg.Max:
			e.estimate = est
			return nil
		}
		return fmt.Errorf("%w: unknown heuristic %s", ErrConfiguration, est)
	}
}

// WithFeaturizer sets how states are turned into novelty valuations.
func WithFeaturizer(f *novelty.Featurizer) Option {
	return func(e *Engine) error {
		e.features = f
		return nil
	}
}

// WithTableBudget bounds the bytes of the specialised novelty tables.
func WithTableBudget(n int64) Option {
	return func(e *Engine) error {
		if n < 0 {
			return fmt.Errorf("%w: negative novelty table budget", ErrConfiguration)
		}
		e.tableBudget = n
		return nil
	}
}

// WithMemoryBudget bounds the heap growth of an episode. Zero means
// no bound.
func WithMemoryBudget(bytes uint64) Option {
	return func(e *Engine) error {
		e.memoryBudget = bytes
		return nil
	}
}

// WithGoalPartitions keeps separate BFWS novelty tables per number of
// unsatisfied goals.
func WithGoalPartitions(b bool) Option {
	return func(e *Engine) error {
		e.partition = b
		return nil
	}
}

// WithValidation replays every plan before returning it.
func WithValidation(b bool) Option {
	return func(e *Engine) error {
		e.validate = b
		return nil
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) error {
		e.log = l
		return nil
	}
}

func WithTracer(t fsplan.Tracer) Option {
	return func(e *Engine) error {
		e.tracer = t
		return nil
	}
}

// WithHeapReader replaces the heap sampler used by the memory budget.
func WithHeapReader(read func() uint64) Option {
	return func(e *Engine) error {
		e.heap = read
		return nil
	}
}

var defaults = []Option{
	func(e *Engine) error {
		if e.algorithm == "" {
			e.algorithm = BFWS
		}
		if e.maxWidth == 0 {
			e.maxWidth = 2
		}
		if e.policy == "" {
			e.policy = Eager
		}
		if e.tableBudget == 0 {
			e.tableBudget = novelty.DefaultTableBudget
		}
		return nil
	},
	func(e *Engine) error {
		if e.features == nil {
			e.features = novelty.NewFeaturizer(e.problem.Index)
		}
		return nil
	},
	func(e *Engine) error {
		if e.log == nil {
			l := logrus.New()
			l.SetOutput(io.Discard)
			e.log = l
		}
		if e.tracer == nil {
			e.tracer = fsplan.DefaultTracer{}
		}
		if e.heap == nil {
			e.heap = HeapBytes
		}
		return nil
	},
}

func New(problem *fsplan.Problem, options ...Option) (*Engine, error) {
	if err := problem.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{problem: problem}
	for _, option := range append(options, defaults...) {
		if err := option(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Stats returns the counters of the last episode.
func (e *Engine) Stats() fsplan.Stats {
	return e.stats
}

func (e *Engine) Algorithm() Algorithm {
	return e.algorithm
}

// Run searches for a plan. It returns ErrUnsolvable, ErrTimeout or
// ErrOutOfMemory when no plan is found, and an InconsistencyError
// when the plan found does not replay.
func (e *Engine) Run(ctx context.Context) ([]fsplan.ActionID, error) {
	start := time.Now()
	e.stats = fsplan.Stats{}
	e.seq = 0
	e.guard = newMemoryGuard(e.memoryBudget, e.heap)
	defer func() {
		e.stats.Elapsed = time.Since(start)
	}()

	var (
		goal *Node
		err  error
	)
	switch e.algorithm {
	case BFS:
		goal, err = e.breadthFirst(ctx, nil)
	case IW:
		goal, err = e.iteratedWidth(ctx)
	default:
		goal, err = e.bestFirst(ctx)
	}
	if err != nil {
		return nil, err
	}

	plan := goal.Plan()
	if e.validate {
		if err := Validate(e.problem, plan); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

func (e *Engine) newNode(s *fsplan.State, parent *Node, action fsplan.ActionID) *Node {
	n := &Node{state: s, parent: parent, action: action, seq: e.seq, index: -1}
	if parent != nil {
		n.g = parent.g + 1
	}
	e.seq++
	return n
}

// checkpoint runs once per expansion.
func (e *Engine) checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	if e.guard.exceeded() {
		return ErrOutOfMemory
	}
	return nil
}

// newTable returns a novelty table of width w that charges the fixed
// size of every partition it allocates against the memory budget.
func (e *Engine) newTable(w int) *novelty.Table {
	return novelty.NewTable(e.problem.Index, e.features, w, e.tableBudget, novelty.WithReserve(e.guard.charge))
}

// evaluateNovelty fills in the novelty of n. parent is used to narrow
// the novel features only when it was evaluated in the same
// partition.
func (e *Engine) evaluateNovelty(table *novelty.Table, n, parent *Node) error {
	n.unsat = e.problem.Goal.Unsatisfied(n.state)
	n.h = int64(n.unsat)
	partitioned := e.partition && e.algorithm == BFWS
	partition := 0
	if partitioned {
		partition = n.unsat
	}
	var ps *fsplan.State
	if parent != nil && parent.evaluated && (!partitioned || parent.unsat == n.unsat) {
		ps = parent.state
	}
	w, err := table.Evaluate(n.state, partition, ps)
	if errors.Is(err, novelty.ErrNoRoom) {
		e.log.WithFields(logrus.Fields{
			"partitions": table.Partitions(),
			"reserved":   table.Reserved(),
		}).Debug("novelty tables exceed the memory budget")
		return ErrOutOfMemory
	}
	if err != nil {
		return err
	}
	n.novelty = w
	n.evaluated = true
	e.stats.Evaluated++
	if table.IsNovel(w) {
		e.stats.RecordNovelty(w)
	} else {
		e.stats.RecordNovelty(fsplan.NotNovel)
	}
	return nil
}

// breadthFirst tests goals on generation. With a novelty table it is
// the width-bounded search of one IW iteration: nodes that are not
// novel are pruned.
func (e *Engine) breadthFirst(ctx context.Context, table *novelty.Table) (*Node, error) {
	root := e.newNode(e.problem.Init, nil, fsplan.InvalidAction)
	if e.problem.Goal.IsGoal(root.state) {
		return root, nil
	}
	if table != nil {
		if err := e.evaluateNovelty(table, root, nil); err != nil {
			return nil, err
		}
	}
	seen := newNodes()
	seen.put(root)
	q := &fifo{}
	q.push(root)

	var (
		applicable []fsplan.ActionID
		changes    []fsplan.Atom
	)
	for q.len() > 0 {
		if err := e.checkpoint(ctx); err != nil {
			return nil, err
		}
		n := q.pop()
		n.closed = true
		e.stats.Expanded++
		e.tracer.Trace(n)

		applicable = e.problem.Actions.Applicable(n.state, applicable[:0])
		for _, a := range applicable {
			changes = e.problem.Actions.Apply(n.state, a, changes[:0])
			s := n.state.Apply(changes)
			e.stats.Generated++
			if seen.get(s) != nil {
				e.stats.Duplicates++
				continue
			}
			child := e.newNode(s, n, a)
			seen.put(child)
			if e.problem.Goal.IsGoal(s) {
				return child, nil
			}
			if table != nil {
				if err := e.evaluateNovelty(table, child, n); err != nil {
					return nil, err
				}
				if !table.IsNovel(child.novelty) {
					child.closed = true
					e.stats.Pruned++
					continue
				}
			}
			q.push(child)
		}
	}
	return nil, ErrUnsolvable
}

func (e *Engine) iteratedWidth(ctx context.Context) (*Node, error) {
	for w := 1; w <= e.maxWidth; w++ {
		table := e.newTable(w)
		pruned := e.stats.Pruned
		goal, err := e.breadthFirst(ctx, table)
		// the next iteration starts from a fresh table
		e.guard.release(table.Reserved())
		e.log.WithFields(logrus.Fields{
			"width":     w,
			"expanded":  e.stats.Expanded,
			"generated": e.stats.Generated,
		}).Debug("width iteration finished")
		if !errors.Is(err, ErrUnsolvable) {
			return goal, err
		}
		if e.stats.Pruned == pruned {
			// nothing was pruned, so the search was exhaustive
			return nil, ErrUnsolvable
		}
	}
	e.log.WithField("width", e.maxWidth).Debug("width bound reached")
	return nil, ErrUnsolvable
}

// bestFirst runs GBFS or BFWS. Goals are tested on expansion.
func (e *Engine) bestFirst(ctx context.Context) (*Node, error) {
	var (
		q        *priority
		evaluate func(n, parent *Node) error
	)
	switch e.algorithm {
	case GBFS:
		h := rpg.NewHeuristic(e.problem, e.estimate)
		q = newPriority(byHeuristic)
		evaluate = func(n, _ *Node) error {
			n.h = h.Evaluate(n.state)
			n.evaluated = true
			e.stats.Evaluated++
			return nil
		}
	case BFWS:
		table := e.newTable(e.maxWidth)
		q = newPriority(byNovelty)
		evaluate = func(n, parent *Node) error {
			return e.evaluateNovelty(table, n, parent)
		}
	}

	root := e.newNode(e.problem.Init, nil, fsplan.InvalidAction)
	if err := evaluate(root, nil); err != nil {
		return nil, err
	}
	if root.h == fsplan.Infinity {
		e.stats.DeadEnds++
		return nil, ErrUnsolvable
	}
	seen := newNodes()
	seen.put(root)
	q.push(root)

	var (
		applicable []fsplan.ActionID
		changes    []fsplan.Atom
	)
	for q.len() > 0 {
		if err := e.checkpoint(ctx); err != nil {
			return nil, err
		}
		n := q.pop()
		if !n.evaluated {
			if err := evaluate(n, n.parent); err != nil {
				return nil, err
			}
			if n.h == fsplan.Infinity {
				n.closed = true
				e.stats.DeadEnds++
				continue
			}
		}
		if e.problem.Goal.IsGoal(n.state) {
			return n, nil
		}
		n.closed = true
		e.stats.Expanded++
		e.tracer.Trace(n)

		applicable = e.problem.Actions.Applicable(n.state, applicable[:0])
		for _, a := range applicable {
			changes = e.problem.Actions.Apply(n.state, a, changes[:0])
			s := n.state.Apply(changes)
			e.stats.Generated++
			if existing := seen.get(s); existing != nil {
				if !existing.closed && n.g+1 < existing.g {
					existing.reparent(n, a)
					q.fix(existing)
					e.stats.Reparented++
				} else {
					e.stats.Duplicates++
				}
				continue
			}
			child := e.newNode(s, n, a)
			seen.put(child)
			if e.policy == Delayed {
				child.inherit(n)
			} else {
				if err := evaluate(child, n); err != nil {
					return nil, err
				}
				if child.h == fsplan.Infinity {
					child.closed = true
					e.stats.DeadEnds++
					continue
				}
			}
			q.push(child)
		}
	}
	return nil, ErrUnsolvable
}
