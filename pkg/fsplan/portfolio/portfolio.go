// Package portfolio runs several planner configurations concurrently
// on one problem.
package portfolio

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/operator-framework/fsplan/pkg/fsplan"
	"github.com/operator-framework/fsplan/pkg/fsplan/planner"
)

// Result is the outcome of a portfolio run.
type Result struct {
	planner.Result
	// Winner is the index of the configuration that produced Result,
	// or -1 when every configuration was invalid.
	Winner int
	// Results holds the result of every configuration, in input
	// order.
	Results []planner.Result
	// Total sums the statistics of every episode.
	Total fsplan.Stats
}

// rank orders outcomes by how much they tell about the problem.
var rank = map[planner.Outcome]int{
	planner.PlanFound:            4,
	planner.Unsolvable:           3,
	planner.Timeout:              2,
	planner.OutOfMemory:          1,
	planner.InvalidConfiguration: 0,
}

// Solve runs one episode per configuration. The first plan found
// cancels the other episodes. Without a plan, the most informative
// outcome is returned: Unsolvable, then Timeout, then OutOfMemory.
// An error from any episode cancels the others and is returned.
func Solve(ctx context.Context, problem *fsplan.Problem, configs []planner.Config, options ...planner.Option) (Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	results := make([]planner.Result, len(configs))
	var (
		mu     sync.Mutex
		winner = -1
	)
	for i, config := range configs {
		g.Go(func() error {
			r, err := planner.Solve(gctx, problem, config, options...)
			if err != nil {
				return err
			}
			results[i] = r
			if r.Outcome == planner.PlanFound {
				mu.Lock()
				if winner < 0 {
					winner = i
					cancel()
				}
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var total fsplan.Stats
	for _, r := range results {
		total.Add(r.Stats)
	}
	if winner < 0 {
		winner = best(results)
	}
	if winner < 0 {
		res := Result{Winner: -1, Results: results, Total: total}
		res.Outcome = planner.InvalidConfiguration
		if len(results) > 0 {
			res.Reason = results[0].Reason
		}
		return res, nil
	}
	return Result{Result: results[winner], Winner: winner, Results: results, Total: total}, nil
}

// best returns the index of the most informative valid result, or -1.
func best(results []planner.Result) int {
	winner := -1
	for i, r := range results {
		if r.Outcome == planner.InvalidConfiguration {
			continue
		}
		if winner < 0 || rank[r.Outcome] > rank[results[winner].Outcome] {
			winner = i
		}
	}
	return winner
}
