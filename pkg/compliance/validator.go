// Package compliance implements the constraint validator ("lawyer") for
// schedule candidates: certification, capacity, double-booking, rest
// period, accumulated hours, and vacation-law checks. Validation is a
// pure function of its inputs and produces deterministic output.
package compliance

import (
	"fmt"
	"sort"
	"time"

	"github.com/arnavshah/staff-scheduler-go/pkg/models"
	"github.com/arnavshah/staff-scheduler-go/pkg/rules"
)

// Limits are the tunable thresholds for the warning-class checks.
// Hours accumulate across the scheduling horizon.
type Limits struct {
	MaxHours         float64
	HardCeilingHours float64
	MinRestHours     float64
}

// DefaultLimits returns the stock thresholds
func DefaultLimits() Limits {
	return Limits{
		MaxHours:         10,
		HardCeilingHours: 14,
		MinRestHours:     11,
	}
}

// merge applies caller overrides on top of the defaults
func (l Limits) merge(o *models.ConstraintLimits) Limits {
	if o == nil {
		return l
	}
	if o.MaxHours > 0 {
		l.MaxHours = o.MaxHours
	}
	if o.HardCeilingHours > 0 {
		l.HardCeilingHours = o.HardCeilingHours
	}
	if o.MinRestHours > 0 {
		l.MinRestHours = o.MinRestHours
	}
	return l
}

// Candidate bundles everything the validator needs for one pass.
// PreviousLastTask optionally carries each employee's final task from
// the prior run so the rest-period check can span run boundaries.
type Candidate struct {
	Assignments      []models.Assignment
	Tasks            []models.Task
	Employees        []models.Employee
	Rules            rules.Rules
	Overrides        *models.ConstraintLimits
	PreviousLastTask map[int]models.Task
}

// Validator runs the full check suite. Stateless per call; safe for
// concurrent use.
type Validator struct {
	limits Limits
}

// New builds a validator with the given thresholds
func New(limits Limits) *Validator {
	return &Validator{limits: limits}
}

// Validate runs every check and returns violations sorted by
// (severity desc, task id, employee id)
func (v *Validator) Validate(c Candidate) []models.ConstraintViolation {
	var out []models.ConstraintViolation
	out = append(out, v.CheckTasks(c, nil)...)
	out = append(out, v.CheckEmployees(c)...)
	Sort(out)
	return out
}

// CheckTasks runs the task-scoped checks (certification, capacity) for
// the given task ids, or for every task when taskIDs is nil. Task
// subsets are disjoint, so callers may fan these out concurrently.
func (v *Validator) CheckTasks(c Candidate, taskIDs []int) []models.ConstraintViolation {
	empByID := indexEmployees(c.Employees)

	include := func(int) bool { return true }
	if taskIDs != nil {
		set := make(map[int]bool, len(taskIDs))
		for _, id := range taskIDs {
			set[id] = true
		}
		include = func(id int) bool { return set[id] }
	}

	var out []models.ConstraintViolation
	for _, task := range c.Tasks {
		if !include(task.TaskID) {
			continue
		}

		assigned := 0
		for _, a := range c.Assignments {
			if a.TaskID != task.TaskID {
				continue
			}
			assigned++

			emp, ok := empByID[a.EmployeeID]
			if !ok {
				out = append(out, models.ConstraintViolation{
					Kind:       models.ViolationCertMismatch,
					Severity:   models.SeverityBlocking,
					TaskID:     task.TaskID,
					EmployeeID: a.EmployeeID,
					Message:    fmt.Sprintf("unknown employee %d assigned to task %d", a.EmployeeID, task.TaskID),
				})
				continue
			}
			if !emp.HasCerts(task.RequiredCerts) {
				out = append(out, models.ConstraintViolation{
					Kind:       models.ViolationCertMismatch,
					Severity:   models.SeverityBlocking,
					TaskID:     task.TaskID,
					EmployeeID: emp.EmployeeID,
					Message: fmt.Sprintf("employee %d (%s) lacks certifications %v required by task %d",
						emp.EmployeeID, emp.Name, task.RequiredCerts, task.TaskID),
				})
			}
		}

		if task.IsVacation() {
			continue // the vacation task has no coverage floor
		}
		if needed := task.NeededStaff(); assigned < needed {
			out = append(out, models.ConstraintViolation{
				Kind:     models.ViolationUnderCapacity,
				Severity: models.SeverityWarning,
				TaskID:   task.TaskID,
				Message: fmt.Sprintf("task %d needs %d staff for capacity %d, has %d",
					task.TaskID, needed, task.CustomerCapacity, assigned),
			})
		}
	}
	return out
}

// CheckEmployees runs the employee-scoped checks: double-booking and
// vacation exclusivity, rest periods, accumulated hours, and the
// vacation-law heuristics against the jurisdiction rules.
func (v *Validator) CheckEmployees(c Candidate) []models.ConstraintViolation {
	limits := v.limits.merge(c.Overrides)
	taskByID := indexTasks(c.Tasks)

	byEmployee := make(map[int][]models.Task)
	onVacation := make(map[int]bool)
	for _, a := range c.Assignments {
		task, ok := taskByID[a.TaskID]
		if !ok {
			continue // unknown task ids are rejected at proposal parsing
		}
		byEmployee[a.EmployeeID] = append(byEmployee[a.EmployeeID], task)
		if task.IsVacation() {
			onVacation[a.EmployeeID] = true
		}
	}

	var out []models.ConstraintViolation
	for _, emp := range c.Employees {
		tasks := byEmployee[emp.EmployeeID]
		sort.Slice(tasks, func(i, j int) bool { return tasks[i].Start.Before(tasks[j].Start) })

		out = append(out, v.checkBooking(emp, tasks, onVacation[emp.EmployeeID])...)
		out = append(out, v.checkRest(emp, tasks, c.PreviousLastTask, limits)...)
		out = append(out, v.checkHours(emp, tasks, limits)...)
		out = append(out, v.checkVacationLaw(emp, onVacation[emp.EmployeeID], c.Rules)...)
	}
	return out
}

func (v *Validator) checkBooking(emp models.Employee, tasks []models.Task, vacation bool) []models.ConstraintViolation {
	var out []models.ConstraintViolation

	if vacation && len(tasks) > 1 {
		for _, t := range tasks {
			if t.IsVacation() {
				continue
			}
			out = append(out, models.ConstraintViolation{
				Kind:       models.ViolationDoubleBooking,
				Severity:   models.SeverityBlocking,
				TaskID:     t.TaskID,
				EmployeeID: emp.EmployeeID,
				Message: fmt.Sprintf("employee %d is on vacation and cannot also work task %d",
					emp.EmployeeID, t.TaskID),
			})
		}
		return out
	}

	for i := 0; i < len(tasks); i++ {
		for j := i + 1; j < len(tasks); j++ {
			if models.Overlap(tasks[i], tasks[j]) {
				out = append(out, models.ConstraintViolation{
					Kind:       models.ViolationDoubleBooking,
					Severity:   models.SeverityBlocking,
					TaskID:     tasks[j].TaskID,
					EmployeeID: emp.EmployeeID,
					Message: fmt.Sprintf("employee %d is booked on overlapping tasks %d and %d",
						emp.EmployeeID, tasks[i].TaskID, tasks[j].TaskID),
				})
			}
		}
	}
	return out
}

func (v *Validator) checkRest(emp models.Employee, tasks []models.Task, prev map[int]models.Task, limits Limits) []models.ConstraintViolation {
	var out []models.ConstraintViolation
	minRest := time.Duration(limits.MinRestHours * float64(time.Hour))

	check := func(earlier, later models.Task) {
		if later.Start.Sub(earlier.End) <= 0 {
			return // overlapping pairs are already blocked as double-booking
		}
		if later.Start.Sub(earlier.End) < minRest {
			out = append(out, models.ConstraintViolation{
				Kind:       models.ViolationRestPeriod,
				Severity:   models.SeverityWarning,
				TaskID:     later.TaskID,
				EmployeeID: emp.EmployeeID,
				Message: fmt.Sprintf("employee %d has %.1fh rest between tasks %d and %d, minimum is %.1fh",
					emp.EmployeeID, later.Start.Sub(earlier.End).Hours(), earlier.TaskID, later.TaskID, limits.MinRestHours),
			})
		}
	}

	if prev != nil {
		if last, ok := prev[emp.EmployeeID]; ok && len(tasks) > 0 {
			check(last, tasks[0])
		}
	}
	for i := 0; i+1 < len(tasks); i++ {
		check(tasks[i], tasks[i+1])
	}
	return out
}

func (v *Validator) checkHours(emp models.Employee, tasks []models.Task, limits Limits) []models.ConstraintViolation {
	var total float64
	var lastTask int
	for _, t := range tasks {
		if t.IsVacation() {
			continue
		}
		total += t.DurationHours()
		lastTask = t.TaskID
	}
	if total <= limits.MaxHours {
		return nil
	}

	severity := models.SeverityWarning
	if total > limits.HardCeilingHours {
		severity = models.SeverityBlocking
	}
	return []models.ConstraintViolation{{
		Kind:       models.ViolationMaxHours,
		Severity:   severity,
		TaskID:     lastTask,
		EmployeeID: emp.EmployeeID,
		Message: fmt.Sprintf("employee %d is scheduled %.1fh, limit %.1fh (hard ceiling %.1fh)",
			emp.EmployeeID, total, limits.MaxHours, limits.HardCeilingHours),
	}}
}

// checkVacationLaw flags denial patterns that breach the jurisdiction's
// entitlement floor. Low historical usage alone never triggers it: the
// employee must want vacation this run, still hold unused days, and sit
// at or past the denial-limit hint while being denied again.
func (v *Validator) checkVacationLaw(emp models.Employee, onVacation bool, r rules.Rules) []models.ConstraintViolation {
	if onVacation || r.MinDays <= 0 || r.DenialLimitHint <= 0 {
		return nil
	}
	if !emp.WantsVacation() || emp.VacationDaysRemaining <= 0 {
		return nil
	}
	if emp.DeniedRequests60d < r.DenialLimitHint {
		return nil
	}
	return []models.ConstraintViolation{{
		Kind:       models.ViolationLegalVacation,
		Severity:   models.SeverityBlocking,
		EmployeeID: emp.EmployeeID,
		Message: fmt.Sprintf("denying employee %d again breaches the %s entitlement floor: %d denials in 60 days, %d unused days against a %d-day minimum",
			emp.EmployeeID, r.Name, emp.DeniedRequests60d, emp.VacationDaysRemaining, r.MinDays),
	}}
}

// Sort orders violations by severity (blocking first), then task id,
// then employee id, for deterministic output
func Sort(vs []models.ConstraintViolation) {
	sort.SliceStable(vs, func(i, j int) bool {
		if vs[i].Severity != vs[j].Severity {
			return vs[i].Severity == models.SeverityBlocking
		}
		if vs[i].TaskID != vs[j].TaskID {
			return vs[i].TaskID < vs[j].TaskID
		}
		return vs[i].EmployeeID < vs[j].EmployeeID
	})
}

// CountBlocking returns how many violations are blocking
func CountBlocking(vs []models.ConstraintViolation) int {
	n := 0
	for _, v := range vs {
		if v.IsBlocking() {
			n++
		}
	}
	return n
}

func indexTasks(tasks []models.Task) map[int]models.Task {
	m := make(map[int]models.Task, len(tasks))
	for _, t := range tasks {
		m[t.TaskID] = t
	}
	return m
}

func indexEmployees(emps []models.Employee) map[int]models.Employee {
	m := make(map[int]models.Employee, len(emps))
	for _, e := range emps {
		m[e.EmployeeID] = e
	}
	return m
}
