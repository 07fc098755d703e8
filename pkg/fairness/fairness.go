// Package fairness scores how under-served each employee is, based on
// recent denials, time since the last vacation, and how many unfavorable
// shifts they have already worked. Higher scores bias assignment toward
// the employee.
package fairness

import (
	"github.com/arnavshah/staff-scheduler-go/pkg/models"
)

// Weights control the blend of the three components; they must sum to 1
type Weights struct {
	Denial  float64
	Recency float64
	Burden  float64
}

// DefaultWeights returns the stock blend
func DefaultWeights() Weights {
	return Weights{Denial: 0.4, Recency: 0.35, Burden: 0.25}
}

// burdenScale is the unfavorable-shift count at which the burden
// component bottoms out
const burdenScale = 30.0

// Engine computes fairness scores. Stateless; safe for concurrent use.
type Engine struct {
	weights Weights
}

// New builds an engine; zero weights fall back to the defaults
func New(w Weights) *Engine {
	if w.Denial == 0 && w.Recency == 0 && w.Burden == 0 {
		w = DefaultWeights()
	}
	return &Engine{weights: w}
}

// Score returns the employee's fairness score in [0,1].
// The denial component is linear in the denial rate, so raising an
// employee's denial count while holding everything else fixed can never
// lower their score.
func (e *Engine) Score(emp models.Employee) models.FairnessScore {
	denialRate := 0.0
	if total := emp.ApprovedRequests60d + emp.DeniedRequests60d; total > 0 {
		denialRate = float64(emp.DeniedRequests60d) / float64(total)
	}

	// Fewer recent vacations means longer since the last one
	recency := 1.0 / (1.0 + float64(emp.PreviousVacations60d))

	burden := float64(emp.WorkedNights+emp.WorkedWeekends+emp.WorkedHolidays) / burdenScale
	if burden > 1 {
		burden = 1
	}

	score := e.weights.Denial*denialRate +
		e.weights.Recency*recency +
		e.weights.Burden*(1-burden)

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return models.FairnessScore{EmployeeID: emp.EmployeeID, Score: score}
}

// ScoreAll scores every employee and returns a lookup keyed by id
func (e *Engine) ScoreAll(emps []models.Employee) map[int]models.FairnessScore {
	scores := make(map[int]models.FairnessScore, len(emps))
	for _, emp := range emps {
		scores[emp.EmployeeID] = e.Score(emp)
	}
	return scores
}
