// Package executor drives the steps implied by the chosen strategy:
// proposal, validation, and the iterative narrowing loop. Each step is
// wrapped with a timeout and recorded for observability. Independent
// validation sub-steps fan out concurrently; a proposal and its
// validation stay sequential.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arnavshah/staff-scheduler-go/internal/oracle"
	"github.com/arnavshah/staff-scheduler-go/pkg/compliance"
	"github.com/arnavshah/staff-scheduler-go/pkg/models"
	"github.com/arnavshah/staff-scheduler-go/pkg/rules"
	"github.com/arnavshah/staff-scheduler-go/pkg/scheduler"
)

// Options tune the execution loop
type Options struct {
	MaxRounds        int
	StepTimeout      time.Duration
	ValidationGroups int
}

// DefaultOptions returns the stock execution parameters
func DefaultOptions() Options {
	return Options{
		MaxRounds:        3,
		StepTimeout:      45 * time.Second,
		ValidationGroups: 4,
	}
}

// Input is everything one execution needs, assembled by the orchestrator
type Input struct {
	Tasks            []models.Task
	Employees        []models.Employee
	Fairness         map[int]models.FairnessScore
	Rules            rules.Rules
	Overrides        *models.ConstraintLimits
	PreviousLastTask map[int]models.Task
}

// Result carries the executed proposal plus everything the reviewer and
// orchestrator need to judge it
type Result struct {
	Assignments []models.Assignment
	Violations  []models.ConstraintViolation
	Steps       []models.StepResult
	Degraded    bool
	Rounds      int
}

// Executor sequences proposal and validation steps
type Executor struct {
	primary   scheduler.ProposalSource
	fallback  scheduler.ProposalSource
	validator *compliance.Validator
	opts      Options
}

// New builds an executor. primary is usually the oracle-backed source;
// fallback must never block on external I/O.
func New(primary, fallback scheduler.ProposalSource, v *compliance.Validator, opts Options) *Executor {
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = DefaultOptions().MaxRounds
	}
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = DefaultOptions().StepTimeout
	}
	if opts.ValidationGroups <= 0 {
		opts.ValidationGroups = DefaultOptions().ValidationGroups
	}
	return &Executor{primary: primary, fallback: fallback, validator: v, opts: opts}
}

// Execute runs the strategy to completion. The only error conditions
// are caller cancellation and a proposal failure the fallback could not
// absorb; everything else degrades into violations and step outcomes.
func (e *Executor) Execute(ctx context.Context, strategy models.Strategy, in Input) (Result, error) {
	var res Result

	propIn := scheduler.Input{
		Tasks:     in.Tasks,
		Employees: in.Employees,
		Fairness:  in.Fairness,
		Exclude:   make(map[int]map[int]bool),
	}
	if in.Overrides != nil {
		propIn.Limits = *in.Overrides
	}

	if strategy == models.StrategyValidateFirst {
		e.step(&res, "prefilter", 0, func() error {
			excluded := prefilter(in.Tasks, in.Employees, propIn.Exclude)
			if excluded > 0 {
				propIn.Hint = fmt.Sprintf("%d ineligible task/employee pairs were pre-filtered; do not assign the forbidden pairs", excluded)
			}
			return nil
		})
	}

	rounds := 1
	if strategy == models.StrategyIterative {
		rounds = e.opts.MaxRounds
	}

	source := e.primary
	for round := 1; round <= rounds; round++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Rounds = round

		assignments, err := e.propose(ctx, &res, source, round, propIn)
		if err != nil {
			if ctx.Err() != nil || source == e.fallback {
				return res, err
			}
			// any primary failure, retryable or not, means the oracle is
			// unusable this run: deterministic fallback for the rest of
			// it, marked degraded
			source = e.fallback
			res.Degraded = true
			assignments, err = e.propose(ctx, &res, source, round, propIn)
			if err != nil {
				return res, err
			}
		}
		res.Assignments = assignments

		cand := compliance.Candidate{
			Assignments:      assignments,
			Tasks:            in.Tasks,
			Employees:        in.Employees,
			Rules:            in.Rules,
			Overrides:        in.Overrides,
			PreviousLastTask: in.PreviousLastTask,
		}
		res.Violations = e.validateConcurrently(ctx, &res, round, cand)

		blocking := offenders(res.Violations)
		if len(blocking) == 0 {
			break
		}
		if round == rounds {
			break
		}

		if !widenExclusions(propIn.Exclude, blocking) {
			// nothing new to exclude; another round would repeat itself
			break
		}
		propIn.Hint = hintFromViolations(res.Violations)
	}

	return res, nil
}

// propose runs one proposal step with the step timeout
func (e *Executor) propose(ctx context.Context, res *Result, source scheduler.ProposalSource, round int, in scheduler.Input) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := e.stepCtx(ctx, res, "propose/"+source.Name(), round, func(stepCtx context.Context) error {
		var err error
		assignments, err = source.Propose(stepCtx, in)
		return err
	})
	return assignments, err
}

// validateConcurrently fans the task-scoped checks out over disjoint
// task groups, runs the employee-scoped checks alongside them, and
// joins everything before returning
func (e *Executor) validateConcurrently(ctx context.Context, res *Result, round int, cand compliance.Candidate) []models.ConstraintViolation {
	var all []models.ConstraintViolation

	_ = e.stepCtx(ctx, res, "validate", round, func(stepCtx context.Context) error {
		groups := partition(cand.Tasks, e.opts.ValidationGroups)

		var mu sync.Mutex
		g, _ := errgroup.WithContext(stepCtx)

		for _, ids := range groups {
			ids := ids
			g.Go(func() error {
				vs := e.validator.CheckTasks(cand, ids)
				mu.Lock()
				all = append(all, vs...)
				mu.Unlock()
				return nil
			})
		}
		g.Go(func() error {
			vs := e.validator.CheckEmployees(cand)
			mu.Lock()
			all = append(all, vs...)
			mu.Unlock()
			return nil
		})

		_ = g.Wait()
		compliance.Sort(all)
		return nil
	})

	return all
}

// step records a synchronous in-process step
func (e *Executor) step(res *Result, name string, round int, fn func() error) {
	start := time.Now()
	err := fn()
	res.Steps = append(res.Steps, stepResult(name, round, start, err))
}

// stepCtx records a step that honors the step timeout
func (e *Executor) stepCtx(ctx context.Context, res *Result, name string, round int, fn func(context.Context) error) error {
	stepCtx, cancel := context.WithTimeout(ctx, e.opts.StepTimeout)
	defer cancel()

	start := time.Now()
	err := fn(stepCtx)
	res.Steps = append(res.Steps, stepResult(name, round, start, err))
	return err
}

func stepResult(name string, round int, start time.Time, err error) models.StepResult {
	sr := models.StepResult{
		Name:      name,
		Round:     round,
		Outcome:   "ok",
		Duration:  time.Since(start),
		LatencyMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		sr.Outcome = "error"
		sr.Error = err.Error()
		if errors.Is(err, oracle.ErrUnavailable) {
			sr.Outcome = "unavailable"
		}
	}
	return sr
}

// prefilter records every certification-ineligible pair in the
// exclusion map and returns how many it added
func prefilter(tasks []models.Task, employees []models.Employee, exclude map[int]map[int]bool) int {
	added := 0
	for _, t := range tasks {
		if t.IsVacation() || len(t.RequiredCerts) == 0 {
			continue
		}
		for _, e := range employees {
			if e.HasCerts(t.RequiredCerts) {
				continue
			}
			if exclude[t.TaskID] == nil {
				exclude[t.TaskID] = make(map[int]bool)
			}
			if !exclude[t.TaskID][e.EmployeeID] {
				exclude[t.TaskID][e.EmployeeID] = true
				added++
			}
		}
	}
	return added
}

// offenders extracts the task/employee pairs implicated in blocking
// violations. Legal-vacation violations name no task, so no pair
// exclusion can fix them; they are skipped. Id 0 is a legal task and
// employee id and carries no special meaning here.
func offenders(vs []models.ConstraintViolation) [][2]int {
	var pairs [][2]int
	for _, v := range vs {
		if !v.IsBlocking() || v.Kind == models.ViolationLegalVacation {
			continue
		}
		pairs = append(pairs, [2]int{v.TaskID, v.EmployeeID})
	}
	return pairs
}

// widenExclusions merges offending pairs into the exclusion map,
// reporting whether anything new was added
func widenExclusions(exclude map[int]map[int]bool, pairs [][2]int) bool {
	grew := false
	for _, p := range pairs {
		if exclude[p[0]] == nil {
			exclude[p[0]] = make(map[int]bool)
		}
		if !exclude[p[0]][p[1]] {
			exclude[p[0]][p[1]] = true
			grew = true
		}
	}
	return grew
}

// hintFromViolations summarizes blocking violations for the next round's
// prompt
func hintFromViolations(vs []models.ConstraintViolation) string {
	n := 0
	var first string
	for _, v := range vs {
		if v.IsBlocking() {
			if first == "" {
				first = v.Message
			}
			n++
		}
	}
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("previous proposal had %d blocking violations, e.g.: %s", n, first)
}

// partition splits task ids into up to n disjoint groups
func partition(tasks []models.Task, n int) [][]int {
	ids := make([]int, len(tasks))
	for i, t := range tasks {
		ids[i] = t.TaskID
	}
	sort.Ints(ids)

	if n > len(ids) {
		n = len(ids)
	}
	if n <= 1 {
		if len(ids) == 0 {
			return nil
		}
		return [][]int{ids}
	}

	groups := make([][]int, n)
	for i, id := range ids {
		groups[i%n] = append(groups[i%n], id)
	}
	return groups
}
