package handlers

import (
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/arnavshah/staff-scheduler-go/internal/metrics"
	"github.com/arnavshah/staff-scheduler-go/pkg/database"
	"github.com/arnavshah/staff-scheduler-go/pkg/models"
	"github.com/arnavshah/staff-scheduler-go/pkg/orchestrator"
)

// RunSink persists step metadata and finished runs, logs them, and
// feeds the Prometheus counters. Implements orchestrator.Sink.
type RunSink struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

var _ orchestrator.Sink = (*RunSink)(nil)

// RecordStep logs one executor step and observes its latency
func (s *RunSink) RecordStep(runID string, step models.StepResult) {
	metrics.StepLatency.WithLabelValues(step.Name, step.Outcome).Observe(float64(step.LatencyMS))

	s.Logger.Debug("step completed",
		zap.String("run_id", runID),
		zap.String("step", step.Name),
		zap.Int("round", step.Round),
		zap.String("outcome", step.Outcome),
		zap.Int64("latency_ms", step.LatencyMS),
	)
}

// RecordRun writes the persisted audit row. Persistence failures are
// logged and swallowed; the run result is already final.
func (s *RunSink) RecordRun(runID string, sched models.Schedule) {
	s.Logger.Info("run completed",
		zap.String("run_id", runID),
		zap.String("date", sched.Date),
		zap.String("strategy", string(sched.Metadata.PlanStrategy)),
		zap.Float64("quality", sched.Metadata.QualityScore),
		zap.Bool("degraded", sched.Metadata.Degraded),
		zap.Bool("rejected", sched.Metadata.Rejected),
		zap.Int("assignments", len(sched.Assignments)),
		zap.Int("warnings", len(sched.Warnings)),
	)

	if s.DB == nil {
		return
	}

	stepsJSON, err := json.Marshal(sched.Metadata.Steps)
	if err != nil {
		stepsJSON = []byte("[]")
	}

	row := database.ScheduleRun{
		RunID:        runID,
		Date:         sched.Date,
		Strategy:     string(sched.Metadata.PlanStrategy),
		QualityScore: sched.Metadata.QualityScore,
		Degraded:     sched.Metadata.Degraded,
		Rejected:     sched.Metadata.Rejected,
		Assignments:  len(sched.Assignments),
		Warnings:     len(sched.Warnings),
		StepsJSON:    string(stepsJSON),
	}
	if err := s.DB.Create(&row).Error; err != nil {
		s.Logger.Warn("could not persist schedule run", zap.String("run_id", runID), zap.Error(err))
	}
}
