package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/staff-scheduler-go/pkg/models"
)

func at(hour int) time.Time {
	return time.Date(2026, 9, 14, hour, 0, 0, 0, time.UTC)
}

func greedyInput() Input {
	return Input{
		Tasks: []models.Task{
			{TaskID: 10, Category: 1, CustomerCapacity: 8, CapacityPerStaff: 4, RequiredCerts: []int{1}, Start: at(9), End: at(13)},
			{TaskID: 11, Category: 2, CustomerCapacity: 4, CapacityPerStaff: 4, RequiredCerts: []int{2}, Start: at(14), End: at(18)},
			{TaskID: 0, Category: models.VacationCategory, CapacityPerStaff: 1, Start: at(0), End: at(23)},
		},
		Employees: []models.Employee{
			{EmployeeID: 1, Name: "A", Certifications: []int{1, 2}, Preferences: []int{1}},
			{EmployeeID: 2, Name: "B", Certifications: []int{1}},
			{EmployeeID: 3, Name: "C", Certifications: []int{2}},
			{EmployeeID: 4, Name: "D", Preferences: []int{0}, VacationDaysRemaining: 5},
		},
		Fairness: map[int]models.FairnessScore{
			1: {EmployeeID: 1, Score: 0.6},
			2: {EmployeeID: 2, Score: 0.5},
			3: {EmployeeID: 3, Score: 0.4},
			4: {EmployeeID: 4, Score: 0.9},
		},
	}
}

func TestGreedyIsDeterministic(t *testing.T) {
	g := NewGreedy()
	in := greedyInput()

	first, err := g.Propose(context.Background(), in)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	for i := 0; i < 5; i++ {
		again, err := g.Propose(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestGreedyNeverAssignsUncertified(t *testing.T) {
	g := NewGreedy()
	in := greedyInput()

	assignments, err := g.Propose(context.Background(), in)
	require.NoError(t, err)

	taskByID := map[int]models.Task{}
	for _, task := range in.Tasks {
		taskByID[task.TaskID] = task
	}
	empByID := map[int]models.Employee{}
	for _, emp := range in.Employees {
		empByID[emp.EmployeeID] = emp
	}

	for _, a := range assignments {
		task := taskByID[a.TaskID]
		if task.IsVacation() {
			continue
		}
		assert.True(t, empByID[a.EmployeeID].HasCerts(task.RequiredCerts),
			"employee %d on task %d", a.EmployeeID, a.TaskID)
	}
}

func TestGreedyVacationIsExclusive(t *testing.T) {
	g := NewGreedy()
	in := greedyInput()

	assignments, err := g.Propose(context.Background(), in)
	require.NoError(t, err)

	onVacation := map[int]bool{}
	for _, a := range assignments {
		if a.TaskID == 0 {
			onVacation[a.EmployeeID] = true
		}
	}
	require.NotEmpty(t, onVacation, "employee 4 wants vacation and has days left")

	for _, a := range assignments {
		if a.TaskID != 0 {
			assert.False(t, onVacation[a.EmployeeID],
				"employee %d is on vacation but also works task %d", a.EmployeeID, a.TaskID)
		}
	}
}

func TestGreedyHonorsExclusions(t *testing.T) {
	g := NewGreedy()
	in := greedyInput()
	in.Exclude = map[int]map[int]bool{
		10: {1: true, 2: true, 4: true},
	}

	assignments, err := g.Propose(context.Background(), in)
	require.NoError(t, err)

	for _, a := range assignments {
		if a.TaskID == 10 {
			t.Fatalf("task 10 should have no eligible employees left, got employee %d", a.EmployeeID)
		}
	}
}

func TestGreedyFairnessOrdersAssignment(t *testing.T) {
	g := NewGreedy()
	in := Input{
		Tasks: []models.Task{
			{TaskID: 1, Category: 1, CustomerCapacity: 1, CapacityPerStaff: 1, Start: at(9), End: at(12)},
		},
		Employees: []models.Employee{
			{EmployeeID: 1, Name: "A"},
			{EmployeeID: 2, Name: "B"},
		},
		Fairness: map[int]models.FairnessScore{
			1: {EmployeeID: 1, Score: 0.2},
			2: {EmployeeID: 2, Score: 0.8},
		},
	}

	assignments, err := g.Propose(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, 2, assignments[0].EmployeeID)
	assert.Equal(t, FallbackConfidence, assignments[0].Confidence)
}

func TestGreedyPreferenceBreaksNearTies(t *testing.T) {
	g := NewGreedy()
	in := Input{
		Tasks: []models.Task{
			{TaskID: 1, Category: 3, CustomerCapacity: 1, CapacityPerStaff: 1, Start: at(9), End: at(12)},
		},
		Employees: []models.Employee{
			{EmployeeID: 1, Name: "A"},
			{EmployeeID: 2, Name: "B", Preferences: []int{3}},
		},
		Fairness: map[int]models.FairnessScore{
			1: {EmployeeID: 1, Score: 0.5},
			2: {EmployeeID: 2, Score: 0.45},
		},
	}

	assignments, err := g.Propose(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, 2, assignments[0].EmployeeID)
}

func TestGreedyRespectsHourBudget(t *testing.T) {
	g := NewGreedy()
	in := Input{
		Tasks: []models.Task{
			{TaskID: 1, Category: 1, CustomerCapacity: 1, CapacityPerStaff: 1, Start: at(0), End: at(8)},
			{TaskID: 2, Category: 1, CustomerCapacity: 1, CapacityPerStaff: 1, Start: at(20), End: at(23)},
		},
		Employees: []models.Employee{{EmployeeID: 1, Name: "A"}},
		Limits:    models.ConstraintLimits{MaxHours: 10, MinRestHours: 11},
	}

	assignments, err := g.Propose(context.Background(), in)
	require.NoError(t, err)

	// 8h + 3h would breach the 10h budget, so only the first task fills
	require.Len(t, assignments, 1)
	assert.Equal(t, 1, assignments[0].TaskID)
}
