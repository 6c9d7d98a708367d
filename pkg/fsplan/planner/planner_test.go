package planner_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/operator-framework/fsplan/internal/domains"
	"github.com/operator-framework/fsplan/pkg/fsplan"
	"github.com/operator-framework/fsplan/pkg/fsplan/planner"
)

func TestPlanner(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Planner Suite")
}

func config(mutate func(c *planner.Config)) planner.Config {
	c := planner.DefaultConfig()
	if mutate != nil {
		mutate(&c)
	}
	return c
}

var _ = Describe("Planner", func() {
	DescribeTable("finds the toy plan",
		func(algorithm string) {
			problem := domains.Toy()
			result, err := planner.Solve(context.Background(), problem, config(func(c *planner.Config) {
				c.Algorithm = algorithm
			}))
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Outcome).To(Equal(planner.PlanFound))
			Expect(result.ActionNames(problem.Actions)).To(Equal([]string{"A", "B"}))
			Expect(result.Episode).ToNot(BeEmpty())
		},
		Entry("bfs", "bfs"),
		Entry("gbfs", "gbfs"),
		Entry("iw", "iw"),
		Entry("bfws", "bfws"),
	)

	It("returns an empty plan when the goal holds initially", func() {
		problem := domains.Toy()
		problem.Init = fsplan.NewState([]fsplan.Value{fsplan.Bool(false), fsplan.Bool(false), fsplan.Bool(true)})
		result, err := planner.Solve(context.Background(), problem, planner.DefaultConfig())
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Outcome).To(Equal(planner.PlanFound))
		Expect(result.Plan).ToNot(BeNil())
		Expect(result.Plan).To(BeEmpty())
	})

	It("reports unsolvable problems", func() {
		result, err := planner.Solve(context.Background(), domains.DeadEnd(), planner.DefaultConfig())
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Outcome).To(Equal(planner.Unsolvable))
		Expect(result.Plan).To(BeNil())
	})

	It("reports invalid configurations as an outcome", func() {
		result, err := planner.Solve(context.Background(), domains.Toy(), config(func(c *planner.Config) {
			c.MaxNoveltyWidth = 0
		}))
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Outcome).To(Equal(planner.InvalidConfiguration))
		Expect(result.Reason).To(ContainSubstring("maxNoveltyWidth"))
	})

	It("fails fast on construction with an invalid configuration", func() {
		_, err := planner.New(config(func(c *planner.Config) {
			c.Algorithm = "astar"
		}))
		var cerr planner.ConfigurationError
		Expect(errors.As(err, &cerr)).To(BeTrue())
		Expect(cerr.Field).To(Equal("algorithm"))
	})

	It("reports a timeout when the context is done", func() {
		problem, err := domains.Hanoi(6)
		Expect(err).ToNot(HaveOccurred())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		result, err := planner.Solve(ctx, problem, planner.DefaultConfig())
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Outcome).To(Equal(planner.Timeout))
	})

	It("reports running out of memory", func() {
		problem, err := domains.Hanoi(50)
		Expect(err).ToNot(HaveOccurred())
		result, err := planner.Solve(context.Background(), problem, config(func(c *planner.Config) {
			c.MemoryBudgetKB = 1
		}))
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Outcome).To(Equal(planner.OutOfMemory))
	})

	It("returns validation failures as errors", func() {
		problem := domains.Toy()
		problem.Goal = &flipFlop{GoalOracle: problem.Goal}
		_, err := planner.Solve(context.Background(), problem, config(func(c *planner.Config) {
			c.Algorithm = "bfs"
		}))
		var inconsistency planner.InconsistencyError
		Expect(errors.As(err, &inconsistency)).To(BeTrue())
	})

	It("rejects incomplete problems", func() {
		_, err := planner.Solve(context.Background(), &fsplan.Problem{}, planner.DefaultConfig())
		Expect(err).To(MatchError(fsplan.ErrIncompleteProblem))
	})

	It("logs the outcome of every episode", func() {
		logger, hook := logtest.NewNullLogger()
		p, err := planner.New(planner.DefaultConfig(), planner.WithLogger(logger))
		Expect(err).ToNot(HaveOccurred())
		result, err := p.Solve(context.Background(), domains.Toy())
		Expect(err).ToNot(HaveOccurred())

		entry := hook.LastEntry()
		Expect(entry).ToNot(BeNil())
		Expect(entry.Level).To(Equal(logrus.InfoLevel))
		Expect(entry.Data).To(HaveKeyWithValue("outcome", planner.PlanFound))
		Expect(entry.Data).To(HaveKeyWithValue("episode", result.Episode))
		Expect(entry.Data).To(HaveKeyWithValue("algorithm", "bfws"))
	})

	It("exports metrics", func() {
		reg := prometheus.NewRegistry()
		p, err := planner.New(planner.DefaultConfig(), planner.WithMetrics(reg))
		Expect(err).ToNot(HaveOccurred())
		for i := 0; i < 2; i++ {
			_, err := p.Solve(context.Background(), domains.Toy())
			Expect(err).ToNot(HaveOccurred())
		}
		count, err := testutil.GatherAndCount(reg, "fsplan_search_episodes_total")
		Expect(err).ToNot(HaveOccurred())
		Expect(count).To(Equal(1))
	})

	It("uses extra features", func() {
		problem, err := domains.Gripper(2)
		Expect(err).ToNot(HaveOccurred())
		result, err := planner.Solve(context.Background(), problem, config(func(c *planner.Config) {
			c.UseExtraFeatures = true
			c.IgnoreNegativeLiterals = true
		}), planner.WithFeatures(planner.Feature{
			Name: "robot room",
			Value: func(s *fsplan.State) fsplan.Value {
				return s.Value(0)
			},
		}))
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Outcome).To(Equal(planner.PlanFound))
	})
})

// flipFlop accepts the first state generated after the initial one
// and changes its mind afterwards.
type flipFlop struct {
	fsplan.GoalOracle
	calls int
}

func (f *flipFlop) IsGoal(s *fsplan.State) bool {
	f.calls++
	if f.calls == 2 {
		return true
	}
	return f.GoalOracle.IsGoal(s)
}
