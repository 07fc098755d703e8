// Package reviewer scores a finished schedule on coverage, compliance,
// and fairness balance. A blocking violation reaching review means the
// executor broke its contract; the schedule is rejected, not scored.
package reviewer

import (
	"fmt"
	"math"

	"github.com/arnavshah/staff-scheduler-go/pkg/models"
)

// Weights blend the three quality components; they must sum to 1
type Weights struct {
	Coverage   float64
	Compliance float64
	Balance    float64
}

// DefaultWeights returns the stock blend
func DefaultWeights() Weights {
	return Weights{Coverage: 0.4, Compliance: 0.4, Balance: 0.2}
}

// Outcome is the reviewer's verdict
type Outcome struct {
	QualityScore float64
	Rejected     bool
	Warnings     []string
}

// Reviewer judges executed schedules. Stateless.
type Reviewer struct {
	weights Weights
}

// New builds a reviewer; zero weights fall back to defaults
func New(w Weights) *Reviewer {
	if w.Coverage == 0 && w.Compliance == 0 && w.Balance == 0 {
		w = DefaultWeights()
	}
	return &Reviewer{weights: w}
}

// Review computes the quality score and surfaces warning-severity
// violations verbatim
func (r *Reviewer) Review(tasks []models.Task, assignments []models.Assignment, violations []models.ConstraintViolation, fairness map[int]models.FairnessScore) Outcome {
	var out Outcome

	blocking := 0
	for _, v := range violations {
		if v.IsBlocking() {
			blocking++
			out.Warnings = append(out.Warnings, v.Message)
		}
	}
	if blocking > 0 {
		out.Rejected = true
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("schedule rejected: %d blocking violations survived execution", blocking))
		return out
	}

	for _, v := range violations {
		out.Warnings = append(out.Warnings, v.Message)
	}

	out.QualityScore = r.weights.Coverage*coverageRatio(tasks, assignments) +
		r.weights.Compliance*complianceRatio(tasks, assignments, violations) +
		r.weights.Balance*fairnessBalance(assignments, fairness)
	return out
}

// coverageRatio is the fraction of work tasks meeting their staffing
// floor
func coverageRatio(tasks []models.Task, assignments []models.Assignment) float64 {
	counts := make(map[int]int)
	for _, a := range assignments {
		counts[a.TaskID]++
	}

	work, covered := 0, 0
	for _, t := range tasks {
		if t.IsVacation() {
			continue
		}
		work++
		if counts[t.TaskID] >= t.NeededStaff() {
			covered++
		}
	}
	if work == 0 {
		return 1
	}
	return float64(covered) / float64(work)
}

// complianceRatio is 1 minus the violation rate over the total number
// of checks performed, floored at zero. The check count approximates
// one check per assignment per constraint family.
func complianceRatio(tasks []models.Task, assignments []models.Assignment, violations []models.ConstraintViolation) float64 {
	totalChecks := len(tasks) + len(assignments)*2
	if totalChecks == 0 {
		return 1
	}
	ratio := 1 - float64(len(violations))/float64(totalChecks)
	if ratio < 0 {
		return 0
	}
	return ratio
}

// fairnessBalance is 1 minus the normalized variance of fairness scores
// among assigned employees; a balanced schedule spreads work across
// score levels
func fairnessBalance(assignments []models.Assignment, fairness map[int]models.FairnessScore) float64 {
	seen := make(map[int]bool)
	var scores []float64
	for _, a := range assignments {
		if seen[a.EmployeeID] {
			continue
		}
		seen[a.EmployeeID] = true
		scores = append(scores, fairness[a.EmployeeID].Score)
	}
	if len(scores) < 2 {
		return 1
	}

	mean := 0.0
	for _, s := range scores {
		mean += s
	}
	mean /= float64(len(scores))

	variance := 0.0
	for _, s := range scores {
		variance += (s - mean) * (s - mean)
	}
	variance /= float64(len(scores))

	// variance of values in [0,1] is at most 0.25
	balance := 1 - math.Min(1, variance/0.25)
	return balance
}
