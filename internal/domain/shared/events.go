// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened to the roster.
const (
	// Person events
	EventPersonRegistered  EventType = "person.registered"
	EventPersonUpdated     EventType = "person.updated"
	EventPersonDeactivated EventType = "person.deactivated"
	EventPersonReactivated EventType = "person.reactivated"
	EventPersonPromoted    EventType = "person.promoted"
	EventPersonDeleted     EventType = "person.deleted"

	// Deletion workflow events
	EventDeletionRequested EventType = "person.deletion_requested"
	EventDeletionRejected  EventType = "person.deletion_rejected"

	// Attendance events
	EventAttendanceMarked EventType = "attendance.marked"

	// System events
	EventEvaluationCompleted EventType = "system.evaluation_completed"
	EventBackupCompleted     EventType = "system.backup_completed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Person Events
// ═══════════════════════════════════════════════════════════════════════════

// PersonRegisteredEvent is emitted when a new person is put on the roster.
type PersonRegisteredEvent struct {
	BaseEvent
	FullName  string `json:"full_name"`
	Band      string `json:"band"`
	FamilyKey string `json:"family_key,omitempty"`
}

// Payload implements Event interface.
func (e PersonRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"full_name":  e.FullName,
		"band":       e.Band,
		"family_key": e.FamilyKey,
	}
}

// NewPersonRegisteredEvent creates a new PersonRegisteredEvent.
func NewPersonRegisteredEvent(personID, fullName, band, familyKey string) PersonRegisteredEvent {
	return PersonRegisteredEvent{
		BaseEvent: NewBaseEvent(EventPersonRegistered, personID),
		FullName:  fullName,
		Band:      band,
		FamilyKey: familyKey,
	}
}

// PersonDeactivatedEvent is emitted when a person is moved to inactive,
// either manually or by the attendance evaluator.
type PersonDeactivatedEvent struct {
	BaseEvent
	FullName       string `json:"full_name"`
	MissedSessions int    `json:"missed_sessions"`
	Reason         string `json:"reason"` // "attendance" or "manual"
}

// Payload implements Event interface.
func (e PersonDeactivatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"full_name":       e.FullName,
		"missed_sessions": e.MissedSessions,
		"reason":          e.Reason,
	}
}

// NewPersonDeactivatedEvent creates a new PersonDeactivatedEvent.
func NewPersonDeactivatedEvent(personID, fullName, reason string, missed int) PersonDeactivatedEvent {
	return PersonDeactivatedEvent{
		BaseEvent:      NewBaseEvent(EventPersonDeactivated, personID),
		FullName:       fullName,
		MissedSessions: missed,
		Reason:         reason,
	}
}

// PersonPromotedEvent is emitted when a person's band changes.
type PersonPromotedEvent struct {
	BaseEvent
	FullName string `json:"full_name"`
	FromBand string `json:"from_band"`
	ToBand   string `json:"to_band"`
	Manual   bool   `json:"manual"`
}

// Payload implements Event interface.
func (e PersonPromotedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"full_name": e.FullName,
		"from_band": e.FromBand,
		"to_band":   e.ToBand,
		"manual":    e.Manual,
	}
}

// NewPersonPromotedEvent creates a new PersonPromotedEvent.
func NewPersonPromotedEvent(personID, fullName, from, to string, manual bool) PersonPromotedEvent {
	return PersonPromotedEvent{
		BaseEvent: NewBaseEvent(EventPersonPromoted, personID),
		FullName:  fullName,
		FromBand:  from,
		ToBand:    to,
		Manual:    manual,
	}
}

// AttendanceMarkedEvent is emitted when a presence record is written.
type AttendanceMarkedEvent struct {
	BaseEvent
	SessionDate string `json:"session_date"` // YYYY-MM-DD
	Present     bool   `json:"present"`
}

// Payload implements Event interface.
func (e AttendanceMarkedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"session_date": e.SessionDate,
		"present":      e.Present,
	}
}

// NewAttendanceMarkedEvent creates a new AttendanceMarkedEvent.
func NewAttendanceMarkedEvent(personID, sessionDate string, present bool) AttendanceMarkedEvent {
	return AttendanceMarkedEvent{
		BaseEvent:   NewBaseEvent(EventAttendanceMarked, personID),
		SessionDate: sessionDate,
		Present:     present,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// System Events
// ═══════════════════════════════════════════════════════════════════════════

// EvaluationCompletedEvent is emitted after an attendance evaluation run.
type EvaluationCompletedEvent struct {
	BaseEvent
	Evaluated   int `json:"evaluated"`
	AtRisk      int `json:"at_risk"`
	Deactivated int `json:"deactivated"`
}

// Payload implements Event interface.
func (e EvaluationCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"evaluated":   e.Evaluated,
		"at_risk":     e.AtRisk,
		"deactivated": e.Deactivated,
	}
}

// NewEvaluationCompletedEvent creates a new EvaluationCompletedEvent.
func NewEvaluationCompletedEvent(evaluated, atRisk, deactivated int) EvaluationCompletedEvent {
	return EvaluationCompletedEvent{
		BaseEvent:   NewBaseEvent(EventEvaluationCompleted, "evaluation"),
		Evaluated:   evaluated,
		AtRisk:      atRisk,
		Deactivated: deactivated,
	}
}

// BackupCompletedEvent is emitted after a backup archive is written.
type BackupCompletedEvent struct {
	BaseEvent
	Path    string `json:"path"`
	Persons int    `json:"persons"`
	Records int    `json:"records"`
}

// Payload implements Event interface.
func (e BackupCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"path":    e.Path,
		"persons": e.Persons,
		"records": e.Records,
	}
}

// NewBackupCompletedEvent creates a new BackupCompletedEvent.
func NewBackupCompletedEvent(path string, persons, records int) BackupCompletedEvent {
	return BackupCompletedEvent{
		BaseEvent: NewBaseEvent(EventBackupCompleted, "backup"),
		Path:      path,
		Persons:   persons,
		Records:   records,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID          string          `json:"id"`
	Type        EventType       `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	Timestamp   time.Time       `json:"timestamp"`
	Version     int             `json:"version"`
	Payload     json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
