// Package orchestrator sequences one scheduling run: input validation,
// rules lookup, fairness scoring, planning, execution, and review, with
// the top-level fallback cascade around the oracle. An Orchestrator
// owns no cross-run state; build one per request or share freely.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/arnavshah/staff-scheduler-go/internal/oracle"
	"github.com/arnavshah/staff-scheduler-go/pkg/compliance"
	"github.com/arnavshah/staff-scheduler-go/pkg/executor"
	"github.com/arnavshah/staff-scheduler-go/pkg/fairness"
	"github.com/arnavshah/staff-scheduler-go/pkg/models"
	"github.com/arnavshah/staff-scheduler-go/pkg/planner"
	"github.com/arnavshah/staff-scheduler-go/pkg/reviewer"
	"github.com/arnavshah/staff-scheduler-go/pkg/rules"
	"github.com/arnavshah/staff-scheduler-go/pkg/scheduler"
)

// Sink receives step outcomes and finished runs for observability.
// Implementations must be safe for concurrent use.
type Sink interface {
	RecordStep(runID string, step models.StepResult)
	RecordRun(runID string, schedule models.Schedule)
}

// NopSink discards everything; the default when no sink is injected
type NopSink struct{}

func (NopSink) RecordStep(string, models.StepResult) {}
func (NopSink) RecordRun(string, models.Schedule)    {}

// Config assembles an orchestrator's collaborators
type Config struct {
	Rules           rules.Table
	FairnessWeights fairness.Weights
	Limits          compliance.Limits
	Thresholds      planner.Thresholds
	ReviewWeights   reviewer.Weights
	Executor        executor.Options
	// Oracle is the oracle-backed proposal source; nil forces the
	// deterministic fallback for every run
	Oracle scheduler.ProposalSource
	Sink   Sink
	// Prior carries the previous horizon's outcome for the planner
	Prior *planner.PriorRun
}

// Orchestrator runs the Planner -> Executor -> Reviewer pipeline
type Orchestrator struct {
	rulesTable rules.Table
	fairness   *fairness.Engine
	validator  *compliance.Validator
	planner    *planner.Planner
	reviewer   *reviewer.Reviewer
	oracleSrc  scheduler.ProposalSource
	fallback   scheduler.ProposalSource
	execOpts   executor.Options
	sink       Sink
	prior      *planner.PriorRun
}

// New wires an orchestrator from config, filling defaults for anything
// unset
func New(cfg Config) *Orchestrator {
	if cfg.Rules == nil {
		cfg.Rules = rules.Default()
	}
	if cfg.Sink == nil {
		cfg.Sink = NopSink{}
	}
	if cfg.Limits == (compliance.Limits{}) {
		cfg.Limits = compliance.DefaultLimits()
	}
	return &Orchestrator{
		rulesTable: cfg.Rules,
		fairness:   fairness.New(cfg.FairnessWeights),
		validator:  compliance.New(cfg.Limits),
		planner:    planner.New(cfg.Thresholds),
		reviewer:   reviewer.New(cfg.ReviewWeights),
		oracleSrc:  cfg.Oracle,
		fallback:   scheduler.NewGreedy(),
		execOpts:   cfg.Executor,
		sink:       cfg.Sink,
		prior:      cfg.Prior,
	}
}

// Run executes one scheduling request end to end. Only invalid input
// and caller cancellation return an error; oracle trouble degrades into
// the deterministic fallback and is reported in metadata.
func (o *Orchestrator) Run(ctx context.Context, req models.ScheduleRequest) (models.Schedule, error) {
	if err := models.ValidateRequest(req); err != nil {
		return models.Schedule{}, err
	}

	jurisdiction, ok := o.rulesTable.Lookup(req.Country)
	if !ok {
		return models.Schedule{}, fmt.Errorf("%w: unknown jurisdiction %q", models.ErrInvalidInput, req.Country)
	}

	scores := o.fairness.ScoreAll(req.Employees)
	strategy := o.planner.Plan(req.Tasks, req.Employees, o.prior)

	in := executor.Input{
		Tasks:     req.Tasks,
		Employees: req.Employees,
		Fairness:  scores,
		Rules:     jurisdiction,
		Overrides: req.Overrides,
	}

	primary := o.oracleSrc
	forced := false
	if primary == nil {
		primary = o.fallback
		forced = true
	}

	res, err := executor.New(primary, o.fallback, o.validator, o.execOpts).Execute(ctx, strategy, in)
	if err != nil {
		if ctx.Err() != nil {
			return models.Schedule{}, ctx.Err()
		}
		if forced || !errors.Is(err, oracle.ErrUnavailable) {
			return models.Schedule{}, fmt.Errorf("execution failed: %w", err)
		}
		// whole-run retry with the fallback forced from the start
		retryRes, retryErr := executor.New(o.fallback, o.fallback, o.validator, o.execOpts).Execute(ctx, strategy, in)
		if retryErr != nil {
			return models.Schedule{}, fmt.Errorf("execution failed after fallback: %w", retryErr)
		}
		retryRes.Degraded = true
		retryRes.Steps = append(res.Steps, retryRes.Steps...)
		res = retryRes
	}

	verdict := o.reviewer.Review(req.Tasks, res.Assignments, res.Violations, scores)

	runID := uuid.NewString()
	sched := models.Schedule{
		Date:        req.Date,
		Assignments: res.Assignments,
		Warnings:    verdict.Warnings,
		Metadata: models.Metadata{
			RunID:        runID,
			QualityScore: verdict.QualityScore,
			PlanStrategy: strategy,
			Degraded:     res.Degraded,
			Rejected:     verdict.Rejected,
			Rounds:       res.Rounds,
			Steps:        res.Steps,
		},
	}

	for _, step := range res.Steps {
		o.sink.RecordStep(runID, step)
	}
	o.sink.RecordRun(runID, sched)

	return sched, nil
}
