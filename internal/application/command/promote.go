package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/church-register/roster-hub/internal/domain/person"
	"github.com/church-register/roster-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTOMATIC PROMOTION COMMAND
// Recomputes every enrolled child's band from the birth date and commits
// the stored band where it lags behind. Deleted records never move.
// ══════════════════════════════════════════════════════════════════════════════

// AutomaticPromotionCommand triggers an automatic promotion run.
type AutomaticPromotionCommand struct {
	// ReferenceDate anchors age computation (defaults to today).
	ReferenceDate time.Time
}

// PromotionChange describes one committed band change.
type PromotionChange struct {
	PersonID string
	FullName string
	FromBand person.Band
	ToBand   person.Band
}

// AutomaticPromotionResult contains the result of a run.
type AutomaticPromotionResult struct {
	// Examined is the number of enrolled children inspected.
	Examined int

	// Changes lists every committed band change.
	Changes []PromotionChange

	// RanAt is when the run happened.
	RanAt time.Time
}

// AutomaticPromotionHandler handles the AutomaticPromotionCommand.
type AutomaticPromotionHandler struct {
	personRepo person.Repository
	publisher  shared.EventPublisher
}

// NewAutomaticPromotionHandler creates a new AutomaticPromotionHandler.
func NewAutomaticPromotionHandler(
	personRepo person.Repository,
	publisher shared.EventPublisher,
) *AutomaticPromotionHandler {
	return &AutomaticPromotionHandler{
		personRepo: personRepo,
		publisher:  publisher,
	}
}

// Handle executes the automatic promotion run.
func (h *AutomaticPromotionHandler) Handle(ctx context.Context, cmd AutomaticPromotionCommand) (*AutomaticPromotionResult, error) {
	ref := cmd.ReferenceDate
	if ref.IsZero() {
		ref = time.Now().UTC()
	}

	// Only active children are re-banded; inactive ones keep their
	// stored band until reactivation.
	persons, err := h.personRepo.GetByStatus(ctx, person.StatusActive, person.DefaultListOptions())
	if err != nil {
		return nil, fmt.Errorf("automatic_promotion: failed to list persons: %w", err)
	}

	result := &AutomaticPromotionResult{
		Examined: len(persons),
		RanAt:    time.Now().UTC(),
	}

	for _, p := range persons {
		from := p.Band
		if !p.Reclassify(ref) {
			continue
		}

		if err := h.personRepo.Update(ctx, p); err != nil {
			return nil, fmt.Errorf("automatic_promotion: failed to persist %s: %w", p.ID, err)
		}

		result.Changes = append(result.Changes, PromotionChange{
			PersonID: p.ID,
			FullName: p.FullName.String(),
			FromBand: from,
			ToBand:   p.Band,
		})

		if h.publisher != nil {
			_ = h.publisher.Publish(shared.NewPersonPromotedEvent(
				p.ID, p.FullName.String(), from.String(), p.Band.String(), false,
			))
		}
	}

	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MANUAL PROMOTION COMMAND
// Moves an explicit set of children into a target band, overriding the
// age-derived band. IDs that resolve to nothing are skipped silently.
// ══════════════════════════════════════════════════════════════════════════════

// ManualPromotionCommand contains the manual promotion data.
type ManualPromotionCommand struct {
	// PersonIDs are the children to move.
	PersonIDs []string

	// TargetBand is the band to move them into.
	TargetBand person.Band
}

// Validate validates the command.
func (c ManualPromotionCommand) Validate() error {
	if len(c.PersonIDs) == 0 {
		return errors.New("manual_promotion: person_ids is required")
	}
	if !c.TargetBand.IsValid() {
		return errors.New("manual_promotion: unknown target band")
	}
	return nil
}

// ManualPromotionResult contains the result of a manual promotion.
type ManualPromotionResult struct {
	// Moved is the number of children whose band was updated.
	Moved int

	// Changes lists the committed changes.
	Changes []PromotionChange
}

// ManualPromotionHandler handles the ManualPromotionCommand.
type ManualPromotionHandler struct {
	personRepo person.Repository
	publisher  shared.EventPublisher
}

// NewManualPromotionHandler creates a new ManualPromotionHandler.
func NewManualPromotionHandler(
	personRepo person.Repository,
	publisher shared.EventPublisher,
) *ManualPromotionHandler {
	return &ManualPromotionHandler{
		personRepo: personRepo,
		publisher:  publisher,
	}
}

// Handle executes the manual promotion command.
func (h *ManualPromotionHandler) Handle(ctx context.Context, cmd ManualPromotionCommand) (*ManualPromotionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("person", "Promote", shared.ErrValidation, "validation failed", err)
	}

	persons, err := h.personRepo.GetByIDs(ctx, cmd.PersonIDs)
	if err != nil {
		return nil, fmt.Errorf("manual_promotion: failed to resolve persons: %w", err)
	}

	result := &ManualPromotionResult{}

	for _, p := range persons {
		from := p.Band
		if err := p.PromoteTo(cmd.TargetBand); err != nil {
			// Deleted records are skipped like unresolved IDs.
			continue
		}

		if err := h.personRepo.Update(ctx, p); err != nil {
			return nil, fmt.Errorf("manual_promotion: failed to persist %s: %w", p.ID, err)
		}

		result.Moved++
		result.Changes = append(result.Changes, PromotionChange{
			PersonID: p.ID,
			FullName: p.FullName.String(),
			FromBand: from,
			ToBand:   cmd.TargetBand,
		})

		if h.publisher != nil {
			_ = h.publisher.Publish(shared.NewPersonPromotedEvent(
				p.ID, p.FullName.String(), from.String(), cmd.TargetBand.String(), true,
			))
		}
	}

	return result, nil
}
