package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/church-register/roster-hub/internal/domain/attendance"
	"github.com/church-register/roster-hub/internal/domain/person"
	"github.com/church-register/roster-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MARK ATTENDANCE COMMAND
// Writes presence marks for one session date. Marks are upserts: re-marking
// the same child and date overwrites the previous mark. Only explicit marks
// are stored; children without a mark are absent by default.
// ══════════════════════════════════════════════════════════════════════════════

// MarkAttendanceCommand contains presence marks for a single session.
type MarkAttendanceCommand struct {
	// SessionDate is the calendar date of the session.
	SessionDate time.Time

	// Presence maps person ID to presence. Persons absent from the map
	// are not written at all.
	Presence map[string]bool
}

// Validate validates the command.
func (c MarkAttendanceCommand) Validate() error {
	if c.SessionDate.IsZero() {
		return errors.New("mark_attendance: session_date is required")
	}
	if len(c.Presence) == 0 {
		return errors.New("mark_attendance: at least one mark is required")
	}
	return nil
}

// MarkAttendanceResult contains the result of marking.
type MarkAttendanceResult struct {
	// SessionDate is the session the marks were written for.
	SessionDate time.Time

	// Marked is the number of marks written.
	Marked int

	// Skipped lists person IDs that could not be resolved or are deleted.
	Skipped []string
}

// MarkAttendanceHandler handles the MarkAttendanceCommand.
type MarkAttendanceHandler struct {
	personRepo person.Repository
	ledger     attendance.Ledger
	publisher  shared.EventPublisher
}

// NewMarkAttendanceHandler creates a new MarkAttendanceHandler.
func NewMarkAttendanceHandler(
	personRepo person.Repository,
	ledger attendance.Ledger,
	publisher shared.EventPublisher,
) *MarkAttendanceHandler {
	return &MarkAttendanceHandler{
		personRepo: personRepo,
		ledger:     ledger,
		publisher:  publisher,
	}
}

// Handle executes the mark attendance command.
func (h *MarkAttendanceHandler) Handle(ctx context.Context, cmd MarkAttendanceCommand) (*MarkAttendanceResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("attendance", "Mark", shared.ErrValidation, "validation failed", err)
	}

	ids := make([]string, 0, len(cmd.Presence))
	for id := range cmd.Presence {
		ids = append(ids, id)
	}

	persons, err := h.personRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("mark_attendance: failed to resolve persons: %w", err)
	}

	known := make(map[string]*person.Person, len(persons))
	for _, p := range persons {
		known[p.ID] = p
	}

	result := &MarkAttendanceResult{SessionDate: cmd.SessionDate}

	for id, present := range cmd.Presence {
		p, ok := known[id]
		if !ok || p.Status == person.StatusDeleted {
			result.Skipped = append(result.Skipped, id)
			continue
		}

		rec, err := attendance.NewRecord(id, cmd.SessionDate, present)
		if err != nil {
			return nil, shared.WrapError("attendance", "Mark", shared.ErrValidation, "invalid record", err)
		}

		if err := h.ledger.Mark(ctx, rec); err != nil {
			return nil, fmt.Errorf("mark_attendance: failed to mark %s: %w", id, err)
		}
		result.Marked++

		if h.publisher != nil {
			_ = h.publisher.Publish(shared.NewAttendanceMarkedEvent(
				id, rec.SessionDate.Format("2006-01-02"), present,
			))
		}
	}

	return result, nil
}
