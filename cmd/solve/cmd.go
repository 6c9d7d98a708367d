package solve

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/operator-framework/fsplan/pkg/fsplan"
	"github.com/operator-framework/fsplan/pkg/fsplan/planner"
	"github.com/operator-framework/fsplan/pkg/fsplan/portfolio"
)

type flags struct {
	config     string
	algorithm  string
	width      int
	policy     string
	heuristic  string
	timeout    time.Duration
	memoryKB   uint64
	portfolio  []string
	trace      bool
	validation bool
}

func NewSolveCommand(log logrus.FieldLogger) *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "solve <path>",
		Short: "Solves a planning problem given in YAML format",
		Long: `Solves a ground planning problem given in YAML format. For instance:

objects: [rooma, roomb]
variables:
  - {name: door-open, type: bool}
  - {name: robot, type: object, values: [rooma, roomb]}
init: [door-open=false, robot=rooma]
goal: {atom: robot=roomb}
actions:
  - name: open
    pre: {atom: door-open=false}
    effects: [{set: door-open=true}]
  - name: cross
    pre: {all: [{atom: door-open=true}, {atom: robot=rooma}]}
    effects: [{set: robot=roomb}]
`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("file (%s) not found", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := f.resolve(cmd)
			if err != nil {
				return err
			}
			problem, err := load(args[0])
			if err != nil {
				return err
			}
			options := []planner.Option{planner.WithLogger(log)}
			if f.trace {
				options = append(options, planner.WithTracer(fsplan.LoggingTracer{Writer: cmd.ErrOrStderr()}))
			}
			return Run(cmd, problem, config, f.portfolio, options...)
		},
	}
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "path to a YAML planner configuration")
	cmd.Flags().StringVarP(&f.algorithm, "algorithm", "a", "", "search algorithm: bfs, gbfs, iw or bfws")
	cmd.Flags().IntVarP(&f.width, "width", "w", 0, "maximum novelty width")
	cmd.Flags().StringVar(&f.policy, "policy", "", "evaluation policy: eager or delayed")
	cmd.Flags().StringVar(&f.heuristic, "heuristic", "", "relaxed plan heuristic: hff or hmax")
	cmd.Flags().DurationVarP(&f.timeout, "timeout", "t", 0, "search time limit, 0 for none")
	cmd.Flags().Uint64Var(&f.memoryKB, "memory-kb", 0, "search memory budget in KiB, 0 for none")
	cmd.Flags().StringSliceVar(&f.portfolio, "portfolio", nil, "run these algorithms concurrently and report the first plan")
	cmd.Flags().BoolVar(&f.trace, "trace", false, "print every expanded node to stderr")
	cmd.Flags().BoolVar(&f.validation, "validate", true, "replay the plan before reporting it")
	return cmd
}

// resolve reads the configuration file, if any, then applies the
// flags that were set on the command line.
func (f *flags) resolve(cmd *cobra.Command) (planner.Config, error) {
	config := planner.DefaultConfig()
	if f.config != "" {
		file, err := os.Open(f.config)
		if err != nil {
			return planner.Config{}, fmt.Errorf("error opening configuration (%s): %w", f.config, err)
		}
		defer file.Close()
		if config, err = planner.LoadConfig(file); err != nil {
			return planner.Config{}, fmt.Errorf("error loading configuration (%s): %w", f.config, err)
		}
	}

	changed := cmd.Flags().Changed
	if changed("algorithm") {
		config.Algorithm = f.algorithm
	}
	if changed("width") {
		config.MaxNoveltyWidth = f.width
	}
	if changed("policy") {
		config.EvaluationPolicy = f.policy
	}
	if changed("heuristic") {
		config.Heuristic = f.heuristic
	}
	if changed("timeout") {
		config.Timeout = f.timeout
	}
	if changed("memory-kb") {
		config.MemoryBudgetKB = f.memoryKB
	}
	if changed("validate") {
		config.ValidatePlans = f.validation
	}
	return config, config.Validate()
}

func load(path string) (*fsplan.Problem, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening problem file (%s): %w", path, err)
	}
	defer file.Close()

	pf, err := ParseProblemFile(file)
	if err != nil {
		return nil, fmt.Errorf("error parsing problem file (%s): %w", path, err)
	}
	problem, err := pf.Build()
	if err != nil {
		return nil, fmt.Errorf("invalid problem file (%s): %w", path, err)
	}
	return problem, nil
}

// Run solves problem and prints the outcome. With a non-empty list of
// algorithms, one episode per algorithm runs concurrently on top of
// config.
func Run(cmd *cobra.Command, problem *fsplan.Problem, config planner.Config, algorithms []string, options ...planner.Option) error {
	var (
		result planner.Result
		label  = config.Algorithm
	)
	if len(algorithms) == 0 {
		r, err := planner.Solve(cmd.Context(), problem, config, options...)
		if err != nil {
			return err
		}
		result = r
	} else {
		configs := make([]planner.Config, len(algorithms))
		for i, algorithm := range algorithms {
			configs[i] = config
			configs[i].Algorithm = algorithm
		}
		r, err := portfolio.Solve(cmd.Context(), problem, configs, options...)
		if err != nil {
			return err
		}
		result = r.Result
		if r.Winner >= 0 {
			label = algorithms[r.Winner]
		}
	}
	return report(cmd.OutOrStdout(), problem, label, result)
}

func report(w io.Writer, problem *fsplan.Problem, algorithm string, result planner.Result) error {
	switch result.Outcome {
	case planner.PlanFound:
		fmt.Fprintf(w, "plan found by %s (%d steps):\n", algorithm, len(result.Plan))
		for i, name := range result.ActionNames(problem.Actions) {
			fmt.Fprintf(w, "%d: %s\n", i+1, name)
		}
	case planner.InvalidConfiguration:
		return errors.New(result.Reason)
	default:
		fmt.Fprintf(w, "no plan found: %s\n", strings.ReplaceAll(string(result.Outcome), "_", " "))
	}
	fmt.Fprintf(w, "generated %d, expanded %d, evaluated %d nodes in %s\n",
		result.Stats.Generated, result.Stats.Expanded, result.Stats.Evaluated, result.Stats.Elapsed)
	return nil
}
