// Package jobs contains implementations of scheduled jobs for the roster hub.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/church-register/roster-hub/internal/application/command"
	"github.com/church-register/roster-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATE ATTENDANCE JOB
// ══════════════════════════════════════════════════════════════════════════════

// EvaluateAttendanceJob runs the weekly attendance evaluation: children
// with three misses in the recent session window are flagged at risk,
// children with four or more are moved off the active roster.
//
// The job is scheduled after Sunday sessions are over, so the window it
// inspects never includes the session still in progress.
type EvaluateAttendanceJob struct {
	handler *command.EvaluateAttendanceHandler
	logger  *slog.Logger
	config  EvaluateAttendanceConfig

	lastRunStats atomic.Value // *EvaluateAttendanceStats
}

// EvaluateAttendanceConfig contains configuration for the evaluation job.
type EvaluateAttendanceConfig struct {
	// WindowSize is the number of completed sessions to inspect.
	// Zero uses the domain default.
	WindowSize int

	// DryRun reports outcomes without deactivating anyone.
	DryRun bool

	// Timeout is the maximum duration for the job.
	Timeout time.Duration
}

// DefaultEvaluateAttendanceConfig returns sensible defaults.
func DefaultEvaluateAttendanceConfig() EvaluateAttendanceConfig {
	return EvaluateAttendanceConfig{
		WindowSize: 0,
		DryRun:     false,
		Timeout:    2 * time.Minute,
	}
}

// EvaluateAttendanceStats contains statistics from an evaluation run.
type EvaluateAttendanceStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Evaluated   int
	AtRisk      int
	Deactivated int
}

// NewEvaluateAttendanceJob creates a new evaluation job.
func NewEvaluateAttendanceJob(
	handler *command.EvaluateAttendanceHandler,
	logger *slog.Logger,
	config EvaluateAttendanceConfig,
) *EvaluateAttendanceJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &EvaluateAttendanceJob{
		handler: handler,
		logger:  logger,
		config:  config,
	}
}

// Name returns the job name.
func (j *EvaluateAttendanceJob) Name() string {
	return "evaluate_attendance"
}

// Description returns a human-readable description.
func (j *EvaluateAttendanceJob) Description() string {
	return "Flags at-risk children and deactivates chronic absentees"
}

// Run executes the evaluation.
func (j *EvaluateAttendanceJob) Run(ctx context.Context) error {
	startedAt := time.Now()

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	j.logger.Info("starting evaluate_attendance job", "dry_run", j.config.DryRun)

	result, err := j.handler.Handle(ctx, command.EvaluateAttendanceCommand{
		ReferenceDate: timeutil.Today(),
		WindowSize:    j.config.WindowSize,
		DryRun:        j.config.DryRun,
	})
	if err != nil {
		return fmt.Errorf("evaluate attendance: %w", err)
	}

	stats := &EvaluateAttendanceStats{
		StartedAt:   startedAt,
		CompletedAt: time.Now(),
		Evaluated:   result.Evaluated,
		AtRisk:      len(result.AtRisk),
		Deactivated: len(result.Deactivated),
	}
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRunStats.Store(stats)

	j.logger.Info("evaluate_attendance job completed",
		"duration", stats.Duration.String(),
		"evaluated", stats.Evaluated,
		"at_risk", stats.AtRisk,
		"deactivated", stats.Deactivated,
	)

	return nil
}

// LastRunStats returns statistics from the last run.
func (j *EvaluateAttendanceJob) LastRunStats() *EvaluateAttendanceStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*EvaluateAttendanceStats)
}
