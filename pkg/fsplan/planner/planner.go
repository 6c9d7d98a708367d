package planner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/operator-framework/fsplan/internal/metrics"
	"github.com/operator-framework/fsplan/internal/novelty"
	"github.com/operator-framework/fsplan/internal/rpg"
	"github.com/operator-framework/fsplan/internal/search"
	"github.com/operator-framework/fsplan/pkg/fsplan"
)

var tracer = otel.Tracer("fsplan")

// Outcome is how a search episode ended. Every outcome is an expected
// result of Solve.
type Outcome string

const (
	PlanFound            Outcome = "plan_found"
	Unsolvable           Outcome = "unsolvable"
	OutOfMemory          Outcome = "out_of_memory"
	Timeout              Outcome = "timeout"
	InvalidConfiguration Outcome = "configuration_error"
)

// Result describes a finished episode.
type Result struct {
	Outcome Outcome
	// Plan is set when Outcome is PlanFound. It is empty, not nil,
	// when the initial state already satisfies the goal.
	Plan []fsplan.ActionID
	// Reason explains an InvalidConfiguration outcome.
	Reason  string
	Episode string
	Stats   fsplan.Stats
}

// ActionNames renders the plan with the names known to actions.
func (r Result) ActionNames(actions fsplan.ActionOracle) []string {
	names := make([]string, len(r.Plan))
	for i, a := range r.Plan {
		names[i] = actions.ActionName(a)
	}
	return names
}

// Feature is an auxiliary novelty feature.
type Feature = novelty.Feature

// InconsistencyError is returned by Solve when a plan fails to replay.
type InconsistencyError = search.InconsistencyError

type Planner struct {
	config   Config
	log      logrus.FieldLogger
	tracer   fsplan.Tracer
	recorder *metrics.Recorder
	features []Feature
}

type Option func(p *Planner) error

func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Planner) error {
		p.log = l
		return nil
	}
}

func WithTracer(t fsplan.Tracer) Option {
	return func(p *Planner) error {
		p.tracer = t
		return nil
	}
}

// WithMetrics registers search metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(p *Planner) error {
		p.recorder = metrics.New(reg)
		return nil
	}
}

// WithFeatures adds novelty features used when UseExtraFeatures is
// set.
func WithFeatures(features ...Feature) Option {
	return func(p *Planner) error {
		p.features = append(p.features, features...)
		return nil
	}
}

var defaults = []Option{
	func(p *Planner) error {
		if p.log == nil {
			l := logrus.New()
			l.SetOutput(io.Discard)
			p.log = l
		}
		return nil
	},
	func(p *Planner) error {
		if p.tracer == nil {
			p.tracer = fsplan.DefaultTracer{}
		}
		return nil
	},
}

// New fails with a ConfigurationError when config is invalid.
func New(config Config, options ...Option) (*Planner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	p := &Planner{config: config}
	for _, option := range slices.Concat(options, defaults) {
		if err := option(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Planner) Config() Config {
	return p.config
}

// Solve runs one episode on problem. Problem may be shared by
// concurrent calls. An error is returned only when problem is
// malformed or the plan found fails validation.
func (p *Planner) Solve(ctx context.Context, problem *fsplan.Problem) (Result, error) {
	result := Result{Episode: uuid.NewString()}
	log := p.log.WithFields(logrus.Fields{
		"episode":   result.Episode,
		"algorithm": p.config.Algorithm,
	})

	ctx, span := tracer.Start(ctx, "planner.Solve",
		trace.WithAttributes(
			attribute.String("fsplan.episode", result.Episode),
			attribute.String("fsplan.algorithm", p.config.Algorithm),
		),
	)
	defer span.End()

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	if err := problem.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	engine, err := search.New(problem, p.engineOptions(problem, log)...)
	if errors.Is(err, search.ErrConfiguration) {
		result.Outcome = InvalidConfiguration
		result.Reason = err.Error()
		span.SetStatus(codes.Error, err.Error())
		return result, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, fmt.Errorf("failed to start search: %w", err)
	}

	log.Debug("search started")
	plan, err := engine.Run(ctx)
	result.Stats = engine.Stats()
	switch {
	case err == nil:
		result.Outcome = PlanFound
		result.Plan = plan
	case errors.Is(err, search.ErrUnsolvable):
		result.Outcome = Unsolvable
	case errors.Is(err, search.ErrTimeout):
		result.Outcome = Timeout
	case errors.Is(err, search.ErrOutOfMemory):
		result.Outcome = OutOfMemory
	default:
		log.WithError(err).Error("search returned an invalid plan")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	log.WithFields(logrus.Fields{
		"outcome":   result.Outcome,
		"generated": result.Stats.Generated,
		"expanded":  result.Stats.Expanded,
		"evaluated": result.Stats.Evaluated,
		"elapsed":   result.Stats.Elapsed,
	}).Info("search finished")
	span.SetAttributes(
		attribute.String("fsplan.outcome", string(result.Outcome)),
		attribute.Int64("fsplan.generated", int64(result.Stats.Generated)),
		attribute.Int64("fsplan.expanded", int64(result.Stats.Expanded)),
	)
	if p.recorder != nil {
		p.recorder.Observe(p.config.Algorithm, string(result.Outcome), result.Stats)
	}
	return result, nil
}

func (p *Planner) engineOptions(problem *fsplan.Problem, log logrus.FieldLogger) []search.Option {
	estimate := rpg.FF
	if p.config.Heuristic == "hmax" {
		estimate = rpg.Max
	}
	featurizer := []novelty.FeaturizerOption{novelty.IgnoreNegative(p.config.IgnoreNegativeLiterals)}
	if p.config.UseExtraFeatures {
		goal := problem.Goal
		featurizer = append(featurizer, novelty.WithFeatures(Feature{
			Name: "unsatisfied goals",
			Value: func(s *fsplan.State) fsplan.Value {
				return fsplan.Int(int32(goal.Unsatisfied(s)))
			},
		}), novelty.WithFeatures(p.features...))
	}
	return []search.Option{
		search.WithAlgorithm(search.Algorithm(p.config.Algorithm)),
		search.WithMaxWidth(p.config.MaxNoveltyWidth),
		search.WithPolicy(search.Policy(p.config.EvaluationPolicy)),
		search.WithEstimate(estimate),
		search.WithFeaturizer(novelty.NewFeaturizer(problem.Index, featurizer...)),
		search.WithTableBudget(p.config.NoveltyTableBudget),
		search.WithMemoryBudget(p.config.MemoryBudgetKB * 1024),
		search.WithGoalPartitions(p.config.PartitionNoveltyByGoals),
		search.WithValidation(p.config.ValidatePlans),
		search.WithLogger(log),
		search.WithTracer(p.tracer),
	}
}

// Solve runs a single episode with a throwaway Planner. An invalid
// config is reported as an InvalidConfiguration outcome.
func Solve(ctx context.Context, problem *fsplan.Problem, config Config, options ...Option) (Result, error) {
	p, err := New(config, options...)
	var cerr ConfigurationError
	if errors.As(err, &cerr) {
		return Result{Outcome: InvalidConfiguration, Reason: cerr.Error()}, nil
	}
	if err != nil {
		return Result{}, err
	}
	return p.Solve(ctx, problem)
}
