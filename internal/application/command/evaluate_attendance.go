package command

import (
	"context"
	"fmt"
	"time"

	"github.com/church-register/roster-hub/internal/domain/attendance"
	"github.com/church-register/roster-hub/internal/domain/person"
	"github.com/church-register/roster-hub/internal/domain/schedule"
	"github.com/church-register/roster-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATE ATTENDANCE COMMAND
// Evaluates every active child against the window of the last completed
// sessions and deactivates those who missed the whole window. A child at
// exactly three misses is reported as at-risk but left untouched.
// The run is idempotent: already-inactive children are out of scope.
// ══════════════════════════════════════════════════════════════════════════════

// EvaluateAttendanceCommand triggers an evaluation run.
type EvaluateAttendanceCommand struct {
	// ReferenceDate anchors the session window (defaults to today).
	ReferenceDate time.Time

	// WindowSize is the number of completed sessions to inspect
	// (defaults to schedule.DefaultWindowSize).
	WindowSize int

	// DryRun reports outcomes without committing any status change.
	DryRun bool
}

// PersonEvaluation is the per-child outcome of a run.
type PersonEvaluation struct {
	PersonID    string
	FullName    string
	Missed      int
	Outcome     attendance.Outcome
	Deactivated bool

	// Sessions is the per-session detail in window order
	// (most recent first).
	Sessions []attendance.SessionResult
}

// EvaluateAttendanceResult contains the result of a run.
type EvaluateAttendanceResult struct {
	// Window is the evaluated session window, most recent first.
	Window []time.Time

	// Evaluated is the number of active children inspected.
	Evaluated int

	// AtRisk lists children with exactly three misses.
	AtRisk []PersonEvaluation

	// Deactivated lists children moved to inactive this run.
	Deactivated []PersonEvaluation

	// RanAt is when the evaluation ran.
	RanAt time.Time
}

// AtRiskCount returns the number of at-risk children in the result,
// counting those about to be deactivated as well.
func (r *EvaluateAttendanceResult) AtRiskCount() int {
	return len(r.AtRisk) + len(r.Deactivated)
}

// EvaluateAttendanceHandler handles the EvaluateAttendanceCommand.
type EvaluateAttendanceHandler struct {
	personRepo person.Repository
	ledger     attendance.Ledger
	publisher  shared.EventPublisher
}

// NewEvaluateAttendanceHandler creates a new EvaluateAttendanceHandler.
func NewEvaluateAttendanceHandler(
	personRepo person.Repository,
	ledger attendance.Ledger,
	publisher shared.EventPublisher,
) *EvaluateAttendanceHandler {
	return &EvaluateAttendanceHandler{
		personRepo: personRepo,
		ledger:     ledger,
		publisher:  publisher,
	}
}

// Handle executes the evaluation run.
func (h *EvaluateAttendanceHandler) Handle(ctx context.Context, cmd EvaluateAttendanceCommand) (*EvaluateAttendanceResult, error) {
	ref := cmd.ReferenceDate
	if ref.IsZero() {
		ref = time.Now().UTC()
	}
	windowSize := cmd.WindowSize
	if windowSize <= 0 {
		windowSize = schedule.DefaultWindowSize
	}

	window, err := schedule.LastSessions(ref, windowSize)
	if err != nil {
		return nil, fmt.Errorf("evaluate_attendance: failed to build window: %w", err)
	}

	// Only active children are in scope; inactive and deleted stay untouched.
	active, err := h.personRepo.GetByStatus(ctx, person.StatusActive, person.DefaultListOptions())
	if err != nil {
		return nil, fmt.Errorf("evaluate_attendance: failed to list active persons: %w", err)
	}

	records, err := h.ledger.GetForSessions(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("evaluate_attendance: failed to load attendance: %w", err)
	}
	presence := attendance.BuildPresenceMap(records)

	result := &EvaluateAttendanceResult{
		Window:    window,
		Evaluated: len(active),
		RanAt:     time.Now().UTC(),
	}

	for _, p := range active {
		ev := attendance.Evaluate(p.ID, window, presence)
		pe := PersonEvaluation{
			PersonID: p.ID,
			FullName: p.FullName.String(),
			Missed:   ev.Missed,
			Outcome:  ev.Outcome,
			Sessions: ev.Sessions,
		}

		switch ev.Outcome {
		case attendance.OutcomeAtRisk:
			result.AtRisk = append(result.AtRisk, pe)

		case attendance.OutcomeDeactivate:
			if !cmd.DryRun {
				if err := p.Deactivate(); err != nil {
					return nil, fmt.Errorf("evaluate_attendance: failed to deactivate %s: %w", p.ID, err)
				}
				if err := h.personRepo.Update(ctx, p); err != nil {
					return nil, fmt.Errorf("evaluate_attendance: failed to persist %s: %w", p.ID, err)
				}
				pe.Deactivated = true

				if h.publisher != nil {
					_ = h.publisher.Publish(shared.NewPersonDeactivatedEvent(
						p.ID, p.FullName.String(), "attendance", ev.Missed,
					))
				}
			}
			result.Deactivated = append(result.Deactivated, pe)
		}
	}

	if h.publisher != nil && !cmd.DryRun {
		_ = h.publisher.Publish(shared.NewEvaluationCompletedEvent(
			result.Evaluated, len(result.AtRisk), len(result.Deactivated),
		))
	}

	return result, nil
}

// EvaluateAtRisk is a read-only evaluation: it reports the same outcomes
// as Handle but never commits a status change.
func (h *EvaluateAttendanceHandler) EvaluateAtRisk(ctx context.Context, ref time.Time) (*EvaluateAttendanceResult, error) {
	return h.Handle(ctx, EvaluateAttendanceCommand{ReferenceDate: ref, DryRun: true})
}
