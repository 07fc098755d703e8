package models

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks fatal request problems detected before any
// oracle call. Wrapped errors carry the precise reason.
var ErrInvalidInput = errors.New("invalid input")

// Overlap reports whether two tasks' time windows intersect
func Overlap(a, b Task) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// ValidateRequest checks structural sanity of one scheduling request.
// Any failure aborts the run with ErrInvalidInput; nothing here touches
// the oracle or the rule table.
func ValidateRequest(req ScheduleRequest) error {
	if len(req.Tasks) == 0 {
		return fmt.Errorf("%w: at least one task is required", ErrInvalidInput)
	}
	if len(req.Employees) == 0 {
		return fmt.Errorf("%w: at least one employee is required", ErrInvalidInput)
	}
	if req.Date == "" {
		return fmt.Errorf("%w: schedule date is required", ErrInvalidInput)
	}

	taskIDs := make(map[int]bool, len(req.Tasks))
	for _, t := range req.Tasks {
		if taskIDs[t.TaskID] {
			return fmt.Errorf("%w: duplicate task id %d", ErrInvalidInput, t.TaskID)
		}
		taskIDs[t.TaskID] = true

		if !t.End.After(t.Start) {
			return fmt.Errorf("%w: task %d has an inverted or empty time window", ErrInvalidInput, t.TaskID)
		}
		if t.CustomerCapacity < 0 {
			return fmt.Errorf("%w: task %d has negative customer capacity", ErrInvalidInput, t.TaskID)
		}
		if t.CapacityPerStaff < 0 {
			return fmt.Errorf("%w: task %d has negative capacity per staff", ErrInvalidInput, t.TaskID)
		}
		if !t.IsVacation() && t.CapacityPerStaff == 0 {
			return fmt.Errorf("%w: task %d has zero capacity per staff", ErrInvalidInput, t.TaskID)
		}
	}

	empIDs := make(map[int]bool, len(req.Employees))
	for _, e := range req.Employees {
		if empIDs[e.EmployeeID] {
			return fmt.Errorf("%w: duplicate employee id %d", ErrInvalidInput, e.EmployeeID)
		}
		empIDs[e.EmployeeID] = true

		if e.DeniedRequests60d < 0 || e.ApprovedRequests60d < 0 || e.PreviousVacations60d < 0 {
			return fmt.Errorf("%w: employee %d has negative history counters", ErrInvalidInput, e.EmployeeID)
		}
		if e.VacationDaysRemaining < 0 {
			return fmt.Errorf("%w: employee %d has negative vacation balance", ErrInvalidInput, e.EmployeeID)
		}
	}

	return nil
}
