package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/church-register/roster-hub/internal/domain/attendance"
	"github.com/church-register/roster-hub/internal/domain/person"
	"github.com/church-register/roster-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MANAGE STATUS COMMAND
// Bulk manual activation/deactivation. Unresolved IDs are skipped.
// ══════════════════════════════════════════════════════════════════════════════

// StatusAction is the bulk action to apply.
type StatusAction string

const (
	// StatusActionActivate returns children to the active roster.
	StatusActionActivate StatusAction = "activate"
	// StatusActionDeactivate removes children from the active roster.
	StatusActionDeactivate StatusAction = "deactivate"
)

// ManageStatusCommand contains the bulk status change data.
type ManageStatusCommand struct {
	PersonIDs []string
	Action    StatusAction
}

// Validate validates the command.
func (c ManageStatusCommand) Validate() error {
	if len(c.PersonIDs) == 0 {
		return errors.New("manage_status: person_ids is required")
	}
	switch c.Action {
	case StatusActionActivate, StatusActionDeactivate:
		return nil
	default:
		return fmt.Errorf("manage_status: unknown action: %s", c.Action)
	}
}

// ManageStatusResult contains the result of a bulk status change.
type ManageStatusResult struct {
	// Updated is the number of records changed.
	Updated int

	// Skipped lists IDs that could not be resolved or are deleted.
	Skipped []string
}

// ManageStatusHandler handles the ManageStatusCommand.
type ManageStatusHandler struct {
	personRepo person.Repository
	publisher  shared.EventPublisher
}

// NewManageStatusHandler creates a new ManageStatusHandler.
func NewManageStatusHandler(
	personRepo person.Repository,
	publisher shared.EventPublisher,
) *ManageStatusHandler {
	return &ManageStatusHandler{personRepo: personRepo, publisher: publisher}
}

// Handle executes the bulk status change.
func (h *ManageStatusHandler) Handle(ctx context.Context, cmd ManageStatusCommand) (*ManageStatusResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("person", "ManageStatus", shared.ErrValidation, "validation failed", err)
	}

	persons, err := h.personRepo.GetByIDs(ctx, cmd.PersonIDs)
	if err != nil {
		return nil, fmt.Errorf("manage_status: failed to resolve persons: %w", err)
	}

	resolved := make(map[string]*person.Person, len(persons))
	for _, p := range persons {
		resolved[p.ID] = p
	}

	result := &ManageStatusResult{}

	for _, id := range cmd.PersonIDs {
		p, ok := resolved[id]
		if !ok {
			result.Skipped = append(result.Skipped, id)
			continue
		}

		var err error
		switch cmd.Action {
		case StatusActionActivate:
			err = p.Activate()
		case StatusActionDeactivate:
			err = p.Deactivate()
		}
		if err != nil {
			result.Skipped = append(result.Skipped, id)
			continue
		}

		if err := h.personRepo.Update(ctx, p); err != nil {
			return nil, fmt.Errorf("manage_status: failed to persist %s: %w", id, err)
		}
		result.Updated++

		if h.publisher != nil {
			switch cmd.Action {
			case StatusActionActivate:
				event := shared.NewBaseEvent(shared.EventPersonReactivated, p.ID)
				_ = h.publisher.Publish(personUpdatedEvent{BaseEvent: event})
			case StatusActionDeactivate:
				_ = h.publisher.Publish(shared.NewPersonDeactivatedEvent(
					p.ID, p.FullName.String(), "manual", 0,
				))
			}
		}
	}

	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DELETION WORKFLOW COMMAND
// Deletion is a two-step process: a request is raised against an active
// record, then approved (soft delete) or rejected. Permanent deletion
// removes the record and cascades into the attendance ledger.
// ══════════════════════════════════════════════════════════════════════════════

// DeletionAction is the workflow step to apply.
type DeletionAction string

const (
	// DeletionActionRequest raises a deletion request.
	DeletionActionRequest DeletionAction = "request"
	// DeletionActionApprove approves the request and soft-deletes.
	DeletionActionApprove DeletionAction = "approve"
	// DeletionActionReject clears the request.
	DeletionActionReject DeletionAction = "reject"
	// DeletionActionPurge permanently removes the record and its marks.
	DeletionActionPurge DeletionAction = "purge"
)

// ResolveDeletionCommand contains the deletion workflow data.
type ResolveDeletionCommand struct {
	PersonID string
	Action   DeletionAction
}

// Validate validates the command.
func (c ResolveDeletionCommand) Validate() error {
	if c.PersonID == "" {
		return errors.New("resolve_deletion: person_id is required")
	}
	switch c.Action {
	case DeletionActionRequest, DeletionActionApprove, DeletionActionReject, DeletionActionPurge:
		return nil
	default:
		return fmt.Errorf("resolve_deletion: unknown action: %s", c.Action)
	}
}

// ResolveDeletionResult contains the result of a workflow step.
type ResolveDeletionResult struct {
	PersonID string
	Status   person.Status

	// RecordsDeleted is the number of ledger marks removed (purge only).
	RecordsDeleted int
}

// ResolveDeletionHandler handles the ResolveDeletionCommand.
type ResolveDeletionHandler struct {
	personRepo person.Repository
	ledger     attendance.Ledger
	publisher  shared.EventPublisher
}

// NewResolveDeletionHandler creates a new ResolveDeletionHandler.
func NewResolveDeletionHandler(
	personRepo person.Repository,
	ledger attendance.Ledger,
	publisher shared.EventPublisher,
) *ResolveDeletionHandler {
	return &ResolveDeletionHandler{
		personRepo: personRepo,
		ledger:     ledger,
		publisher:  publisher,
	}
}

// Handle executes one deletion workflow step.
func (h *ResolveDeletionHandler) Handle(ctx context.Context, cmd ResolveDeletionCommand) (*ResolveDeletionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("person", "ResolveDeletion", shared.ErrValidation, "validation failed", err)
	}

	p, err := h.personRepo.GetByID(ctx, cmd.PersonID)
	if err != nil {
		return nil, fmt.Errorf("resolve_deletion: failed to get person: %w", err)
	}

	result := &ResolveDeletionResult{PersonID: p.ID}

	switch cmd.Action {
	case DeletionActionRequest:
		if err := p.RequestDeletion(); err != nil {
			return nil, shared.WrapError("person", "ResolveDeletion", shared.ErrInvalidState, "cannot request deletion", err)
		}
		if err := h.personRepo.Update(ctx, p); err != nil {
			return nil, fmt.Errorf("resolve_deletion: failed to persist request: %w", err)
		}
		h.publish(shared.EventDeletionRequested, p.ID)

	case DeletionActionReject:
		if err := p.RejectDeletion(); err != nil {
			return nil, shared.WrapError("person", "ResolveDeletion", shared.ErrInvalidState, "cannot reject deletion", err)
		}
		if err := h.personRepo.Update(ctx, p); err != nil {
			return nil, fmt.Errorf("resolve_deletion: failed to persist rejection: %w", err)
		}
		h.publish(shared.EventDeletionRejected, p.ID)

	case DeletionActionApprove:
		if err := p.ApproveDeletion(); err != nil {
			return nil, shared.WrapError("person", "ResolveDeletion", shared.ErrInvalidState, "cannot approve deletion", err)
		}
		if err := h.personRepo.Update(ctx, p); err != nil {
			return nil, fmt.Errorf("resolve_deletion: failed to persist approval: %w", err)
		}
		h.publish(shared.EventPersonDeleted, p.ID)

	case DeletionActionPurge:
		deleted, err := h.ledger.DeleteForPerson(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("resolve_deletion: failed to purge attendance: %w", err)
		}
		if err := h.personRepo.HardDelete(ctx, p.ID); err != nil {
			return nil, fmt.Errorf("resolve_deletion: failed to purge person: %w", err)
		}
		result.RecordsDeleted = deleted
		h.publish(shared.EventPersonDeleted, p.ID)
	}

	result.Status = p.Status
	return result, nil
}

func (h *ResolveDeletionHandler) publish(eventType shared.EventType, personID string) {
	if h.publisher == nil {
		return
	}
	_ = h.publisher.Publish(personUpdatedEvent{BaseEvent: shared.NewBaseEvent(eventType, personID)})
}
