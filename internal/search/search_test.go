package search_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/operator-framework/fsplan/internal/domains"
	"github.com/operator-framework/fsplan/internal/novelty"
	"github.com/operator-framework/fsplan/internal/search"
	"github.com/operator-framework/fsplan/pkg/fsplan"
)

func TestSearch(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Search Suite")
}

// graph is a single-variable problem over explicit edges. Its
// relaxation uses a separate set of edges so that tests can shape the
// heuristic.
type graph struct {
	idx     *fsplan.AtomIndex
	edges   [][2]int32
	relaxed [][2]int32
	goal    int32
}

func newGraph(nodes int, goal int32, edges, relaxed [][2]int32) *fsplan.Problem {
	domain := make([]fsplan.Value, nodes)
	for i := range domain {
		domain[i] = fsplan.Int(int32(i))
	}
	g := &graph{
		idx:     fsplan.NewAtomIndex([]fsplan.Variable{{Name: "pos", Domain: domain}}),
		edges:   edges,
		relaxed: relaxed,
		goal:    goal,
	}
	return &fsplan.Problem{
		Index:   g.idx,
		Init:    fsplan.NewState([]fsplan.Value{fsplan.Int(0)}),
		Actions: g,
		Goal:    g,
	}
}

func (g *graph) at(n int32) fsplan.AtomID {
	return g.idx.ToIndex(0, fsplan.Int(n))
}

func (g *graph) edge(a fsplan.ActionID) [2]int32 {
	if int(a) < len(g.edges) {
		return g.edges[a]
	}
	return g.relaxed[int(a)-len(g.edges)]
}

func (g *graph) NumActions() int {
	return len(g.edges) + len(g.relaxed)
}

func (g *graph) ActionName(a fsplan.ActionID) string {
	e := g.edge(a)
	return fmt.Sprintf("%d->%d", e[0], e[1])
}

func (g *graph) Applicable(s *fsplan.State, dst []fsplan.ActionID) []fsplan.ActionID {
	for i, e := range g.edges {
		if s.Value(0).Int() == e[0] {
			dst = append(dst, fsplan.ActionID(i))
		}
	}
	return dst
}

func (g *graph) Apply(_ *fsplan.State, a fsplan.ActionID, dst []fsplan.Atom) []fsplan.Atom {
	return append(dst, fsplan.NewAtom(0, fsplan.Int(g.edges[a][1])))
}

// SeekNovelTuples relaxes the problem to the relaxed edges alone.
func (g *graph) SeekNovelTuples(a fsplan.ActionID, layer fsplan.RelaxedLayer, emit func(fsplan.AtomID, []fsplan.AtomID)) {
	if int(a) < len(g.edges) {
		return
	}
	e := g.edge(a)
	if layer.Reached(g.at(e[0])) && !layer.Reached(g.at(e[1])) {
		emit(g.at(e[1]), []fsplan.AtomID{g.at(e[0])})
	}
}

func (g *graph) IsGoal(s *fsplan.State) bool {
	return s.Value(0).Int() == g.goal
}

func (g *graph) Unsatisfied(s *fsplan.State) int {
	if g.IsGoal(s) {
		return 0
	}
	return 1
}

func (g *graph) RelaxedSupport(layer fsplan.RelaxedLayer) ([]fsplan.AtomID, bool) {
	if layer.Reached(g.at(g.goal)) {
		return []fsplan.AtomID{g.at(g.goal)}, true
	}
	return nil, false
}

// liar claims the first non-initial state it is asked about is a
// goal.
type liar struct {
	fsplan.GoalOracle
	init *fsplan.State
	lied bool
}

func (l *liar) IsGoal(s *fsplan.State) bool {
	if !l.lied && !s.Equal(l.init) {
		l.lied = true
		return true
	}
	return l.GoalOracle.IsGoal(s)
}

type recorder struct {
	h []int64
}

func (r *recorder) Trace(p fsplan.SearchPosition) {
	r.h = append(r.h, p.H())
}

func run(problem *fsplan.Problem, options ...search.Option) ([]fsplan.ActionID, *search.Engine, error) {
	e, err := search.New(problem, options...)
	Expect(err).ToNot(HaveOccurred())
	plan, err := e.Run(context.Background())
	return plan, e, err
}

var _ = Describe("Engine", func() {
	DescribeTable("solves the toy domain with [A, B]",
		func(options ...search.Option) {
			plan, e, err := run(domains.Toy(), options...)
			Expect(err).ToNot(HaveOccurred())
			Expect(plan).To(Equal([]fsplan.ActionID{0, 1}))
			Expect(e.Stats().Generated).To(BeNumerically(">=", 2))
		},
		Entry("bfs", search.WithAlgorithm(search.BFS)),
		Entry("gbfs", search.WithAlgorithm(search.GBFS)),
		Entry("gbfs with h_max", search.WithAlgorithm(search.GBFS), search.WithEstimate(1)),
		Entry("gbfs delayed", search.WithAlgorithm(search.GBFS), search.WithPolicy(search.Delayed)),
		Entry("iw", search.WithAlgorithm(search.IW), search.WithMaxWidth(1)),
		Entry("bfws", search.WithAlgorithm(search.BFWS)),
		Entry("bfws delayed", search.WithAlgorithm(search.BFWS), search.WithPolicy(search.Delayed)),
		Entry("bfws without partitions", search.WithAlgorithm(search.BFWS), search.WithGoalPartitions(false)),
	)

	It("tests goals on generation in breadth-first search", func() {
		_, e, err := run(domains.Toy(), search.WithAlgorithm(search.BFS))
		Expect(err).ToNot(HaveOccurred())
		Expect(e.Stats().Expanded).To(Equal(uint64(2)))
	})

	It("follows decreasing relaxed-plan estimates in greedy search", func() {
		r := &recorder{}
		_, _, err := run(domains.Toy(), search.WithAlgorithm(search.GBFS), search.WithTracer(r))
		Expect(err).ToNot(HaveOccurred())
		Expect(r.h).To(Equal([]int64{2, 1}))
	})

	It("finds optimal plans with breadth-first search", func() {
		problem, err := domains.Hanoi(3)
		Expect(err).ToNot(HaveOccurred())
		plan, _, err := run(problem, search.WithAlgorithm(search.BFS))
		Expect(err).ToNot(HaveOccurred())
		Expect(plan).To(HaveLen(7))
	})

	DescribeTable("reports dead ends as unsolvable",
		func(algorithm search.Algorithm) {
			plan, _, err := run(domains.DeadEnd(), search.WithAlgorithm(algorithm))
			Expect(err).To(MatchError(search.ErrUnsolvable))
			Expect(plan).To(BeNil())
		},
		Entry("bfs", search.BFS),
		Entry("gbfs", search.GBFS),
		Entry("iw", search.IW),
		Entry("bfws", search.BFWS),
	)

	It("prunes the initial state when it is a relaxed dead end", func() {
		_, e, err := run(domains.DeadEnd(), search.WithAlgorithm(search.GBFS))
		Expect(err).To(MatchError(search.ErrUnsolvable))
		Expect(e.Stats().DeadEnds).To(Equal(uint64(1)))
		Expect(e.Stats().Expanded).To(BeZero())
	})

	It("keeps the cheaper parent of an open node", func() {
		problem := newGraph(10, 5,
			[][2]int32{{0, 1}, {0, 2}, {1, 3}, {3, 4}, {2, 4}, {4, 5}},
			[][2]int32{{0, 5}, {1, 5}, {3, 5}, {2, 8}, {8, 5}, {4, 6}, {6, 7}, {7, 5}},
		)
		plan, e, err := run(problem, search.WithAlgorithm(search.GBFS))
		Expect(err).ToNot(HaveOccurred())
		Expect(plan).To(Equal([]fsplan.ActionID{1, 4, 5}))
		Expect(e.Stats().Reparented).To(Equal(uint64(1)))
	})

	It("stops with a timeout when the context is done", func() {
		problem, err := domains.Hanoi(4)
		Expect(err).ToNot(HaveOccurred())
		e, err := search.New(problem, search.WithAlgorithm(search.BFS))
		Expect(err).ToNot(HaveOccurred())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = e.Run(ctx)
		Expect(errors.Is(err, search.ErrTimeout)).To(BeTrue())
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(e.Stats().Expanded).To(BeZero())
	})

	It("stops when the heap grows past the memory budget", func() {
		problem, err := domains.Hanoi(5)
		Expect(err).ToNot(HaveOccurred())
		var heap uint64
		_, e, err := run(problem,
			search.WithAlgorithm(search.BFS),
			search.WithMemoryBudget(1),
			search.WithHeapReader(func() uint64 {
				heap += 1 << 10
				return heap
			}),
		)
		Expect(err).To(MatchError(search.ErrOutOfMemory))
		Expect(e.Stats().Expanded).To(BeNumerically(">", 0))
	})

	It("refuses novelty tables larger than the memory budget", func() {
		problem, err := domains.Hanoi(3)
		Expect(err).ToNot(HaveOccurred())
		_, _, err = run(problem, search.WithAlgorithm(search.BFWS), search.WithMemoryBudget(1))
		Expect(err).To(MatchError(search.ErrOutOfMemory))
	})

	It("charges every novelty partition against the memory budget", func() {
		problem, err := domains.Gripper(4)
		Expect(err).ToNot(HaveOccurred())
		oneTable := uint64(novelty.AtomsBytes(problem.Index.Size(), 2))
		options := []search.Option{
			search.WithAlgorithm(search.BFWS),
			search.WithMaxWidth(2),
			search.WithGoalPartitions(true),
			search.WithHeapReader(func() uint64 { return 1 << 20 }),
		}

		_, e, err := run(problem, append(options, search.WithMemoryBudget(oneTable))...)
		Expect(err).To(MatchError(search.ErrOutOfMemory))
		Expect(e.Stats().Evaluated).To(BeNumerically(">", 0))

		_, _, err = run(problem, append(options, search.WithMemoryBudget(8*oneTable))...)
		Expect(err).ToNot(HaveOccurred())
	})

	It("releases the tables of finished width iterations", func() {
		problem, err := domains.Hanoi(3)
		Expect(err).ToNot(HaveOccurred())
		_, e, err := run(problem,
			search.WithAlgorithm(search.IW),
			search.WithMaxWidth(2),
			search.WithMemoryBudget(uint64(novelty.AtomsBytes(problem.Index.Size(), 2))),
			search.WithHeapReader(func() uint64 { return 1 << 20 }),
		)
		Expect(errors.Is(err, search.ErrOutOfMemory)).To(BeFalse())
		// width 1 pruned states, so a width 2 table was allocated
		Expect(e.Stats().Pruned).To(BeNumerically(">", 0))
	})

	It("rejects plans that do not replay", func() {
		problem := domains.Toy()
		problem.Goal = &liar{GoalOracle: problem.Goal, init: problem.Init}
		_, _, err := run(problem, search.WithAlgorithm(search.BFS), search.WithValidation(true))
		var inconsistency search.InconsistencyError
		Expect(errors.As(err, &inconsistency)).To(BeTrue())
		Expect(inconsistency.Reason).To(ContainSubstring("goal"))
	})

	It("returns unvalidated plans when validation is off", func() {
		problem := domains.Toy()
		problem.Goal = &liar{GoalOracle: problem.Goal, init: problem.Init}
		plan, _, err := run(problem, search.WithAlgorithm(search.BFS))
		Expect(err).ToNot(HaveOccurred())
		Expect(plan).To(Equal([]fsplan.ActionID{0}))
	})

	It("records a novelty histogram in width-based searches", func() {
		problem, err := domains.Gripper(2)
		Expect(err).ToNot(HaveOccurred())
		plan, e, err := run(problem, search.WithAlgorithm(search.BFWS), search.WithValidation(true))
		Expect(err).ToNot(HaveOccurred())
		Expect(search.Validate(problem, plan)).To(Succeed())
		stats := e.Stats()
		Expect(stats.NoveltyWidths()).ToNot(BeEmpty())
		var total uint64
		for _, n := range stats.Novelty {
			total += n
		}
		Expect(total).To(Equal(stats.Evaluated))
	})

	It("keys states that were not novel apart from every width", func() {
		problem, err := domains.Hanoi(3)
		Expect(err).ToNot(HaveOccurred())
		_, e, err := run(problem,
			search.WithAlgorithm(search.IW),
			search.WithMaxWidth(problem.Index.NumVariables()),
		)
		Expect(err).ToNot(HaveOccurred())
		stats := e.Stats()
		Expect(stats.Pruned).To(BeNumerically(">", 0))
		// every state that is not novel is pruned, whatever the iteration
		Expect(stats.Novelty[fsplan.NotNovel]).To(Equal(stats.Pruned))
		for _, w := range stats.NoveltyWidths() {
			Expect(w).To(BeNumerically("<=", problem.Index.NumVariables()))
		}
	})

	It("completes iterated width once the bound reaches the number of variables", func() {
		problem, err := domains.Hanoi(3)
		Expect(err).ToNot(HaveOccurred())
		plan, _, err := run(problem,
			search.WithAlgorithm(search.IW),
			search.WithMaxWidth(problem.Index.NumVariables()),
			search.WithValidation(true),
		)
		Expect(err).ToNot(HaveOccurred())
		Expect(plan).ToNot(BeEmpty())
	})

	It("traces expansions", func() {
		var buf bytes.Buffer
		_, _, err := run(domains.Toy(), search.WithAlgorithm(search.BFWS), search.WithTracer(fsplan.LoggingTracer{Writer: &buf}))
		Expect(err).ToNot(HaveOccurred())
		Expect(buf.String()).To(ContainSubstring("Expand (g=0"))
	})

	DescribeTable("rejects invalid options",
		func(option search.Option) {
			_, err := search.New(domains.Toy(), option)
			Expect(err).To(MatchError(search.ErrConfiguration))
		},
		Entry("unknown algorithm", search.WithAlgorithm("dfs")),
		Entry("zero width", search.WithMaxWidth(0)),
		Entry("unknown policy", search.WithPolicy("lazy")),
		Entry("unknown heuristic", search.WithEstimate(7)),
		Entry("negative table budget", search.WithTableBudget(-1)),
	)
})

var _ = Describe("Validate", func() {
	It("rejects an inapplicable action", func() {
		err := search.Validate(domains.Toy(), []fsplan.ActionID{1})
		Expect(err).To(Equal(search.InconsistencyError{Step: 0, Action: "B", Reason: "action is not applicable"}))
	})

	It("rejects an unknown action", func() {
		err := search.Validate(domains.Toy(), []fsplan.ActionID{7})
		Expect(err).To(MatchError(ContainSubstring("unknown action")))
	})

	It("accepts the toy plan", func() {
		Expect(search.Validate(domains.Toy(), []fsplan.ActionID{0, 1})).To(Succeed())
	})
})
