// Package scheduler produces assignment proposals. Two interchangeable
// sources sit behind one interface: an oracle-backed source that asks
// the external reasoning service, and a deterministic greedy fallback
// that never leaves the process.
package scheduler

import (
	"context"
	"sort"

	"github.com/arnavshah/staff-scheduler-go/pkg/models"
)

// FallbackConfidence marks assignments produced without the oracle
const FallbackConfidence = 0.5

// preferenceBonus is added to an employee's fairness score when the
// task category appears in their preference list
const preferenceBonus = 0.1

// Input bundles one proposal request. Exclude lists task/employee pairs
// the iterative strategy has ruled out in earlier rounds.
type Input struct {
	Tasks     []models.Task
	Employees []models.Employee
	Fairness  map[int]models.FairnessScore
	Limits    models.ConstraintLimits
	Hint      string
	Exclude   map[int]map[int]bool
}

// Excluded reports whether a task/employee pair has been ruled out
func (in Input) Excluded(taskID, employeeID int) bool {
	if in.Exclude == nil {
		return false
	}
	return in.Exclude[taskID][employeeID]
}

// ProposalSource generates candidate assignments for a run
type ProposalSource interface {
	// Propose returns assignments for the given tasks. The error is
	// non-nil only when no usable proposal could be produced.
	Propose(ctx context.Context, in Input) ([]models.Assignment, error)
	// Name identifies the source in step metadata
	Name() string
}

// Greedy is the deterministic fallback: certified, non-conflicting
// employees ranked by fairness score with a preference bonus, stable
// tie-break on ascending employee id. Identical inputs always yield
// identical assignments.
type Greedy struct{}

// NewGreedy returns the fallback source
func NewGreedy() *Greedy {
	return &Greedy{}
}

// Name implements ProposalSource
func (g *Greedy) Name() string { return "greedy" }

// Propose implements ProposalSource. It never fails and never blocks on
// external I/O.
func (g *Greedy) Propose(_ context.Context, in Input) ([]models.Assignment, error) {
	maxHours := in.Limits.MaxHours
	if maxHours <= 0 {
		maxHours = 10
	}
	minRest := in.Limits.MinRestHours
	if minRest <= 0 {
		minRest = 11
	}

	tasks := make([]models.Task, len(in.Tasks))
	copy(tasks, in.Tasks)
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].Start.Equal(tasks[j].Start) {
			return tasks[i].TaskID < tasks[j].TaskID
		}
		return tasks[i].Start.Before(tasks[j].Start)
	})

	booked := make(map[int][]models.Task)
	hours := make(map[int]float64)
	var out []models.Assignment

	assign := func(task models.Task, emp models.Employee) {
		out = append(out, models.Assignment{
			TaskID:     task.TaskID,
			EmployeeID: emp.EmployeeID,
			Confidence: FallbackConfidence,
		})
		booked[emp.EmployeeID] = append(booked[emp.EmployeeID], task)
		hours[emp.EmployeeID] += task.DurationHours()
	}

	for _, task := range tasks {
		if task.IsVacation() {
			continue // vacation is filled last, from the leftover pool
		}

		candidates := g.rank(task, in, func(emp models.Employee) bool {
			if !emp.HasCerts(task.RequiredCerts) {
				return false
			}
			if hours[emp.EmployeeID]+task.DurationHours() > maxHours {
				return false
			}
			for _, prev := range booked[emp.EmployeeID] {
				if models.Overlap(prev, task) {
					return false
				}
				if !restSatisfied(prev, task, minRest) {
					return false
				}
			}
			return true
		})

		needed := task.NeededStaff()
		for _, emp := range candidates {
			if needed == 0 {
				break
			}
			assign(task, emp)
			needed--
		}
	}

	for _, task := range tasks {
		if !task.IsVacation() {
			continue
		}
		candidates := g.rank(task, in, func(emp models.Employee) bool {
			// vacation is exclusive: only employees with no work today
			return len(booked[emp.EmployeeID]) == 0 &&
				emp.WantsVacation() &&
				emp.VacationDaysRemaining > 0
		})
		needed := task.NeededStaff()
		for _, emp := range candidates {
			if needed == 0 {
				break
			}
			assign(task, emp)
			needed--
		}
	}

	return out, nil
}

// rank filters eligible employees and orders them by fairness score
// descending (plus the preference bonus), employee id ascending on ties
func (g *Greedy) rank(task models.Task, in Input, eligible func(models.Employee) bool) []models.Employee {
	type ranked struct {
		emp   models.Employee
		score float64
	}

	var cands []ranked
	for _, emp := range in.Employees {
		if in.Excluded(task.TaskID, emp.EmployeeID) {
			continue
		}
		if !eligible(emp) {
			continue
		}
		score := in.Fairness[emp.EmployeeID].Score
		if emp.PreferenceRank(task.Category) >= 0 {
			score += preferenceBonus
		}
		cands = append(cands, ranked{emp: emp, score: score})
	}

	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].emp.EmployeeID < cands[j].emp.EmployeeID
	})

	out := make([]models.Employee, len(cands))
	for i, c := range cands {
		out[i] = c.emp
	}
	return out
}

// restSatisfied checks the gap between two non-overlapping tasks
func restSatisfied(a, b models.Task, minRestHours float64) bool {
	gap := b.Start.Sub(a.End).Hours()
	if gap < 0 {
		gap = a.Start.Sub(b.End).Hours()
	}
	return gap >= minRestHours
}
