package models

import "time"

// VacationCategory is the task category marking the full-day vacation
// task. A vacation assignment excludes every other assignment for that
// employee on the schedule date.
const VacationCategory = 0

// Task represents a time-boxed unit of work that needs staffing
type Task struct {
	TaskID           int       `json:"task_id"`
	Category         int       `json:"category"`
	CustomerCapacity int       `json:"customer_capacity"`
	CapacityPerStaff int       `json:"required_capacity_per_staff"`
	RequiredCerts    []int     `json:"required_certifications"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
}

// IsVacation reports whether this is the full-day vacation task
func (t Task) IsVacation() bool {
	return t.Category == VacationCategory
}

// NeededStaff returns how many employees the task requires,
// ceiling-rounded from customer capacity
func (t Task) NeededStaff() int {
	if t.CustomerCapacity == 0 {
		// vacation-style task: capacity per staff doubles as the slot count
		return t.CapacityPerStaff
	}
	if t.CapacityPerStaff <= 0 {
		return 1
	}
	n := (t.CustomerCapacity + t.CapacityPerStaff - 1) / t.CapacityPerStaff
	if n < 1 {
		n = 1
	}
	return n
}

// DurationHours returns the task length in hours
func (t Task) DurationHours() float64 {
	return t.End.Sub(t.Start).Hours()
}

// Employee represents a staff member available for assignment.
// All counters are read-only historical inputs supplied by the caller;
// the core never mutates an Employee during a run.
type Employee struct {
	EmployeeID            int    `json:"employee_id"`
	Name                  string `json:"name"`
	Preferences           []int  `json:"preferences"`
	Certifications        []int  `json:"certifications"`
	PreviousVacations60d  int    `json:"previous_vacations_60_days"`
	ApprovedRequests60d   int    `json:"approved_requests_60_days"`
	DeniedRequests60d     int    `json:"denied_requests_60_days"`
	VacationDaysRemaining int    `json:"vacation_days_remaining"`
	WorkedNights          int    `json:"worked_nights"`
	WorkedWeekends        int    `json:"worked_weekends"`
	WorkedHolidays        int    `json:"worked_holidays"`
}

// HasCerts reports whether the employee holds every required certification
func (e Employee) HasCerts(required []int) bool {
	for _, cert := range required {
		found := false
		for _, have := range e.Certifications {
			if have == cert {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// PreferenceRank returns the 0-based position of a category in the
// employee's ordered preference list, or -1 when absent
func (e Employee) PreferenceRank(category int) int {
	for i, p := range e.Preferences {
		if p == category {
			return i
		}
	}
	return -1
}

// WantsVacation reports whether the vacation category appears anywhere
// in the employee's preference list
func (e Employee) WantsVacation() bool {
	return e.PreferenceRank(VacationCategory) >= 0
}

// Assignment pairs one employee with one task. Confidence is the
// proposing mechanism's self-assessed certainty, not a validated
// probability.
type Assignment struct {
	TaskID     int     `json:"task_id"`
	EmployeeID int     `json:"employee_id"`
	Confidence float64 `json:"confidence"`
}

// Severity classifies how a constraint violation affects acceptance
type Severity string

const (
	SeverityBlocking Severity = "blocking"
	SeverityWarning  Severity = "warning"
)

// ViolationKind names the constraint that was breached
type ViolationKind string

const (
	ViolationCertMismatch  ViolationKind = "certification-mismatch"
	ViolationUnderCapacity ViolationKind = "under-capacity"
	ViolationLegalVacation ViolationKind = "legal-vacation"
	ViolationRestPeriod    ViolationKind = "rest-period"
	ViolationMaxHours      ViolationKind = "max-hours"
	ViolationDoubleBooking ViolationKind = "double-booking"
)

// ConstraintViolation describes a single constraint breach found by the
// compliance validator
type ConstraintViolation struct {
	Kind       ViolationKind `json:"kind"`
	Severity   Severity      `json:"severity"`
	TaskID     int           `json:"task_id"`
	EmployeeID int           `json:"employee_id"`
	Message    string        `json:"message"`
}

// IsBlocking reports whether the violation disqualifies a schedule
func (v ConstraintViolation) IsBlocking() bool {
	return v.Severity == SeverityBlocking
}

// FairnessScore is a per-employee scalar in [0,1]; higher means more
// historically under-served
type FairnessScore struct {
	EmployeeID int     `json:"employee_id"`
	Score      float64 `json:"score"`
}

// Strategy selects how the executor sequences proposal and validation
type Strategy string

const (
	StrategyScheduleFirst Strategy = "schedule_first"
	StrategyValidateFirst Strategy = "validate_first"
	StrategyIterative     Strategy = "iterative"
)

// StepResult records one executor step for observability
type StepResult struct {
	Name      string        `json:"name"`
	Round     int           `json:"round"`
	Outcome   string        `json:"outcome"`
	Error     string        `json:"error,omitempty"`
	LatencyMS int64         `json:"latency_ms"`
	Duration  time.Duration `json:"-"`
}

// Metadata carries per-run outcomes alongside the schedule
type Metadata struct {
	RunID        string       `json:"run_id"`
	QualityScore float64      `json:"quality_score"`
	PlanStrategy Strategy     `json:"plan_strategy"`
	Degraded     bool         `json:"degraded"`
	Rejected     bool         `json:"rejected"`
	Rounds       int          `json:"rounds"`
	Steps        []StepResult `json:"steps"`
}

// Schedule is the final product of one orchestration run
type Schedule struct {
	Date        string       `json:"date"`
	Assignments []Assignment `json:"assignments"`
	Warnings    []string     `json:"warnings"`
	Metadata    Metadata     `json:"metadata"`
}

// AssignedTo returns the employee ids assigned to a task
func (s Schedule) AssignedTo(taskID int) []int {
	var ids []int
	for _, a := range s.Assignments {
		if a.TaskID == taskID {
			ids = append(ids, a.EmployeeID)
		}
	}
	return ids
}

// ScheduleRequest is the transport-boundary input for one run
type ScheduleRequest struct {
	Tasks     []Task            `json:"tasks"`
	Employees []Employee        `json:"employees"`
	Date      string            `json:"date"`
	Country   string            `json:"country"`
	Overrides *ConstraintLimits `json:"constraint_overrides,omitempty"`
}

// ConstraintLimits are the tunable compliance thresholds. Zero values
// mean "use defaults".
type ConstraintLimits struct {
	MaxHours         float64 `json:"max_hours" yaml:"max_hours"`
	HardCeilingHours float64 `json:"hard_ceiling_hours" yaml:"hard_ceiling_hours"`
	MinRestHours     float64 `json:"min_rest_hours" yaml:"min_rest_hours"`
}

// ScheduleResponse is the transport-boundary output
type ScheduleResponse struct {
	Schedule Schedule `json:"schedule"`
	Success  bool     `json:"success"`
}
