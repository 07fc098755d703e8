// Package planner picks an execution strategy from the shape of the
// input. It never calls the oracle and never validates anything.
package planner

import (
	"github.com/arnavshah/staff-scheduler-go/pkg/models"
)

// Thresholds tune the strategy decision
type Thresholds struct {
	// TaskRatio is the task-to-employee ratio above which the input is
	// considered contended
	TaskRatio float64
	// EligibilityDensity is the average fraction of employees eligible
	// per task below which certification overlap is considered sparse
	EligibilityDensity float64
	// BlockingRepeat is how many blocking violations in the prior run's
	// metadata force the iterative strategy
	BlockingRepeat int
}

// DefaultThresholds returns the stock decision parameters
func DefaultThresholds() Thresholds {
	return Thresholds{
		TaskRatio:          1.5,
		EligibilityDensity: 0.5,
		BlockingRepeat:     2,
	}
}

// PriorRun carries the only cross-run signal the planner consumes:
// how many blocking violations the previous horizon's run reported.
type PriorRun struct {
	BlockingViolations int
}

// Planner selects a strategy. Pure and deterministic.
type Planner struct {
	thresholds Thresholds
}

// New builds a planner; a zero Thresholds falls back to defaults
func New(t Thresholds) *Planner {
	if t.TaskRatio == 0 && t.EligibilityDensity == 0 && t.BlockingRepeat == 0 {
		t = DefaultThresholds()
	}
	return &Planner{thresholds: t}
}

// Plan decides the strategy for one run:
//   - a prior run with repeated blocking violations forces Iterative
//   - sparse certification overlap or a high task load picks
//     ValidateFirst, shrinking the oracle's candidate space up front
//   - otherwise ScheduleFirst: propose once, validate once
func (p *Planner) Plan(tasks []models.Task, employees []models.Employee, prior *PriorRun) models.Strategy {
	if prior != nil && prior.BlockingViolations >= p.thresholds.BlockingRepeat {
		return models.StrategyIterative
	}

	if len(employees) == 0 {
		return models.StrategyValidateFirst
	}

	workTasks := 0
	for _, t := range tasks {
		if !t.IsVacation() {
			workTasks++
		}
	}
	ratio := float64(workTasks) / float64(len(employees))

	if ratio > p.thresholds.TaskRatio {
		return models.StrategyValidateFirst
	}
	if p.eligibilityDensity(tasks, employees) < p.thresholds.EligibilityDensity {
		return models.StrategyValidateFirst
	}
	return models.StrategyScheduleFirst
}

// eligibilityDensity is the mean fraction of employees holding all
// required certifications, averaged over work tasks
func (p *Planner) eligibilityDensity(tasks []models.Task, employees []models.Employee) float64 {
	sum := 0.0
	counted := 0
	for _, t := range tasks {
		if t.IsVacation() {
			continue
		}
		eligible := 0
		for _, e := range employees {
			if e.HasCerts(t.RequiredCerts) {
				eligible++
			}
		}
		sum += float64(eligible) / float64(len(employees))
		counted++
	}
	if counted == 0 {
		return 1
	}
	return sum / float64(counted)
}
