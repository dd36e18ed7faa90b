// Package command contains write operations (CQRS - Commands).
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
// REGISTER PERSON COMMAND
// Puts a child on the roster. The birth date may be given directly or
// synthesized from a known age when the exact date is unknown.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterPersonCommand contains the data to register a child.
type RegisterPersonCommand struct {
	// FullName is the child's full name (required).
	FullName string

	// BirthDate is the exact birth date. Zero when registering by age.
	BirthDate time.Time

	// Age is the known age in whole years, used when BirthDate is zero.
	Age *int

	// FamilyKey groups siblings (optional).
	FamilyKey string

	// GuardianName is the parent or guardian name (optional).
	GuardianName string

	// ContactPhone is the guardian contact (optional).
	ContactPhone string

	// Notes are free-form staff notes (optional).
	Notes string

	// ReferenceDate anchors age computation (defaults to today).
	ReferenceDate time.Time
}

// Validate validates the command.
func (c RegisterPersonCommand) Validate() error {
	if c.FullName == "" {
		return errors.New("register_person: full_name is required")
	}
	if c.BirthDate.IsZero() && c.Age == nil {
		return errors.New("register_person: birth_date or age is required")
	}
	return nil
}

// RegisterPersonResult contains the result of registration.
type RegisterPersonResult struct {
	// PersonID is the assigned identifier.
	PersonID string

	// Band is the age band the child was classified into.
	Band person.Band

	// BirthDateApproximate indicates the birth date was synthesized.
	BirthDateApproximate bool

	// RegisteredAt is the registration date.
	RegisteredAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RegisterPersonHandler handles the RegisterPersonCommand.
type RegisterPersonHandler struct {
	personRepo person.Repository
	publisher  shared.EventPublisher
}

// NewRegisterPersonHandler creates a new RegisterPersonHandler.
func NewRegisterPersonHandler(
	personRepo person.Repository,
	publisher shared.EventPublisher,
) *RegisterPersonHandler {
	return &RegisterPersonHandler{
		personRepo: personRepo,
		publisher:  publisher,
	}
}

// Handle executes the register person command.
func (h *RegisterPersonHandler) Handle(ctx context.Context, cmd RegisterPersonCommand) (*RegisterPersonResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("person", "Register", shared.ErrValidation, "validation failed", err)
	}

	ref := cmd.ReferenceDate
	if ref.IsZero() {
		ref = time.Now().UTC()
	}

	birthDate := cmd.BirthDate
	approximate := false
	if birthDate.IsZero() {
		var err error
		birthDate, err = person.ApproximateBirthDate(*cmd.Age, ref)
		if err != nil {
			return nil, shared.WrapError("person", "Register", shared.ErrValueOutOfRange, "invalid age", err)
		}
		approximate = true
	}

	p, err := person.NewPerson(person.NewPersonParams{
		ID:           shared.GeneratePersonID().String(),
		FullName:     person.FullName(cmd.FullName),
		BirthDate:    birthDate,
		Approximate:  approximate,
		FamilyKey:    cmd.FamilyKey,
		GuardianName: cmd.GuardianName,
		ContactPhone: cmd.ContactPhone,
		Notes:        cmd.Notes,
		RegisteredAt: ref,
	})
	if err != nil {
		return nil, shared.WrapError("person", "Register", shared.ErrValidation, "invalid person data", err)
	}

	if err := h.personRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("register_person: failed to create person: %w", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewPersonRegisteredEvent(
			p.ID, p.FullName.String(), p.Band.String(), p.FamilyKey,
		))
	}

	return &RegisterPersonResult{
		PersonID:             p.ID,
		Band:                 p.Band,
		BirthDateApproximate: p.BirthDateApproximate,
		RegisteredAt:         p.RegisteredAt,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE PERSON COMMAND
// Edits roster card fields. Changing the birth date reclassifies the band.
// ══════════════════════════════════════════════════════════════════════════════

// UpdatePersonCommand contains fields to update. Nil pointers are left as-is.
type UpdatePersonCommand struct {
	PersonID string

	FullName     *string
	BirthDate    *time.Time
	FamilyKey    *string
	GuardianName *string
	ContactPhone *string
	Notes        *string

	// ReferenceDate anchors band reclassification (defaults to today).
	ReferenceDate time.Time
}

// Validate validates the command.
func (c UpdatePersonCommand) Validate() error {
	if c.PersonID == "" {
		return errors.New("update_person: person_id is required")
	}
	if c.FullName != nil && *c.FullName == "" {
		return errors.New("update_person: full_name cannot be empty")
	}
	return nil
}

// UpdatePersonResult contains the result of the update.
type UpdatePersonResult struct {
	PersonID    string
	Band        person.Band
	BandChanged bool
}

// UpdatePersonHandler handles the UpdatePersonCommand.
type UpdatePersonHandler struct {
	personRepo person.Repository
	publisher  shared.EventPublisher
}

// NewUpdatePersonHandler creates a new UpdatePersonHandler.
func NewUpdatePersonHandler(
	personRepo person.Repository,
	publisher shared.EventPublisher,
) *UpdatePersonHandler {
	return &UpdatePersonHandler{
		personRepo: personRepo,
		publisher:  publisher,
	}
}

// Handle executes the update person command.
func (h *UpdatePersonHandler) Handle(ctx context.Context, cmd UpdatePersonCommand) (*UpdatePersonResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("person", "Update", shared.ErrValidation, "validation failed", err)
	}

	ref := cmd.ReferenceDate
	if ref.IsZero() {
		ref = time.Now().UTC()
	}

	p, err := h.personRepo.GetByID(ctx, cmd.PersonID)
	if err != nil {
		return nil, fmt.Errorf("update_person: failed to get person: %w", err)
	}
	if p.Status == person.StatusDeleted {
		return nil, shared.ErrPersonDeleted
	}

	oldBand := p.Band

	if cmd.FullName != nil {
		name := person.FullName(*cmd.FullName)
		if !name.IsValid() {
			return nil, shared.ErrEmptyName
		}
		p.FullName = name
	}
	if cmd.BirthDate != nil {
		if err := p.UpdateBirthDate(*cmd.BirthDate, ref); err != nil {
			return nil, shared.WrapError("person", "Update", shared.ErrValidation, "invalid birth date", err)
		}
	}
	if cmd.FamilyKey != nil {
		p.FamilyKey = *cmd.FamilyKey
	}
	if cmd.GuardianName != nil {
		p.GuardianName = *cmd.GuardianName
	}
	if cmd.ContactPhone != nil {
		p.ContactPhone = *cmd.ContactPhone
	}
	if cmd.Notes != nil {
		p.Notes = *cmd.Notes
	}
	p.UpdatedAt = time.Now().UTC()

	if err := h.personRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update_person: failed to update person: %w", err)
	}

	if h.publisher != nil {
		event := shared.NewBaseEvent(shared.EventPersonUpdated, p.ID)
		_ = h.publisher.Publish(personUpdatedEvent{BaseEvent: event})
	}

	return &UpdatePersonResult{
		PersonID:    p.ID,
		Band:        p.Band,
		BandChanged: p.Band != oldBand,
	}, nil
}

// personUpdatedEvent is a minimal event carrying no extra payload.
type personUpdatedEvent struct {
	shared.BaseEvent
}

// Payload implements shared.Event.
func (e personUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{}
}
