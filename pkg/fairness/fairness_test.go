package fairness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/staff-scheduler-go/pkg/models"
)

func TestScoreBounds(t *testing.T) {
	e := New(DefaultWeights())

	cases := []models.Employee{
		{EmployeeID: 1},
		{EmployeeID: 2, DeniedRequests60d: 50, WorkedNights: 100, WorkedWeekends: 100, WorkedHolidays: 100},
		{EmployeeID: 3, ApprovedRequests60d: 50, PreviousVacations60d: 50},
	}
	for _, emp := range cases {
		s := e.Score(emp)
		assert.GreaterOrEqual(t, s.Score, 0.0)
		assert.LessOrEqual(t, s.Score, 1.0)
		assert.Equal(t, emp.EmployeeID, s.EmployeeID)
	}
}

func TestMoreDenialsNeverLowersScore(t *testing.T) {
	e := New(DefaultWeights())

	base := models.Employee{
		EmployeeID:           1,
		ApprovedRequests60d:  4,
		PreviousVacations60d: 2,
		WorkedNights:         5,
	}

	prev := e.Score(base).Score
	for denied := 1; denied <= 20; denied++ {
		emp := base
		emp.DeniedRequests60d = denied
		got := e.Score(emp).Score
		require.GreaterOrEqual(t, got, prev, "denied=%d", denied)
		prev = got
	}
}

func TestDeniedEmployeeOutranksFreshOne(t *testing.T) {
	e := New(DefaultWeights())

	denied := models.Employee{EmployeeID: 1, DeniedRequests60d: 5}
	rested := models.Employee{EmployeeID: 2, ApprovedRequests60d: 5, PreviousVacations60d: 4}

	assert.Greater(t, e.Score(denied).Score, e.Score(rested).Score)
}

func TestHeavierBurdenRaisesUrgency(t *testing.T) {
	// more unfavorable shifts already worked lowers the score
	e := New(Weights{Denial: 0, Recency: 0, Burden: 1})

	light := models.Employee{EmployeeID: 1, WorkedNights: 1}
	heavy := models.Employee{EmployeeID: 2, WorkedNights: 15, WorkedWeekends: 10}

	assert.Greater(t, e.Score(light).Score, e.Score(heavy).Score)
}

func TestZeroWeightsFallBackToDefaults(t *testing.T) {
	def := New(DefaultWeights())
	zero := New(Weights{})

	emp := models.Employee{EmployeeID: 7, DeniedRequests60d: 3, ApprovedRequests60d: 1}
	assert.Equal(t, def.Score(emp), zero.Score(emp))
}

func TestScoreAllKeysByEmployee(t *testing.T) {
	e := New(DefaultWeights())
	emps := []models.Employee{{EmployeeID: 1}, {EmployeeID: 2, DeniedRequests60d: 2}}

	scores := e.ScoreAll(emps)
	require.Len(t, scores, 2)
	assert.Equal(t, e.Score(emps[0]), scores[1])
	assert.Equal(t, e.Score(emps[1]), scores[2])
}
