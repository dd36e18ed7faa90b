// Package attendance содержит журнал посещаемости воскресных занятий.
// Журнал хранит только явные отметки; отсутствие записи трактуется
// как отсутствие на занятии.
package attendance

import (
	"context"
	"errors"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY: RECORD
// ══════════════════════════════════════════════════════════════════════════════

// Record - отметка посещаемости: ребёнок, дата занятия, присутствие.
// На пару (PersonID, SessionDate) существует не более одной записи.
type Record struct {
	// PersonID - идентификатор ребёнка.
	PersonID string

	// SessionDate - календарная дата занятия (UTC полночь).
	SessionDate time.Time

	// Present - присутствовал ли ребёнок.
	Present bool

	// MarkedAt - когда отметка была записана.
	MarkedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEmptyPersonID - не указан идентификатор ребёнка.
	ErrEmptyPersonID = errors.New("person id is required")

	// ErrZeroSessionDate - не указана дата занятия.
	ErrZeroSessionDate = errors.New("session date is required")
)

// NewRecord создаёт отметку посещаемости с валидацией.
func NewRecord(personID string, sessionDate time.Time, present bool) (*Record, error) {
	if personID == "" {
		return nil, ErrEmptyPersonID
	}
	if sessionDate.IsZero() {
		return nil, ErrZeroSessionDate
	}

	return &Record{
		PersonID:    personID,
		SessionDate: dateOnly(sessionDate),
		Present:     present,
		MarkedAt:    time.Now().UTC(),
	}, nil
}

// dateOnly отбрасывает время суток, оставляя календарную дату в UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ══════════════════════════════════════════════════════════════════════════════
// PRESENCE MAP
// ══════════════════════════════════════════════════════════════════════════════

// PresenceKey - ключ карты присутствия: (ребёнок, дата занятия).
type PresenceKey struct {
	PersonID    string
	SessionDate time.Time
}

// PresenceMap - карта явных отметок для быстрых проверок присутствия.
type PresenceMap map[PresenceKey]bool

// IsPresent возвращает true только при явной отметке присутствия.
// Отсутствие записи означает отсутствие на занятии.
func (m PresenceMap) IsPresent(personID string, sessionDate time.Time) bool {
	return m[PresenceKey{PersonID: personID, SessionDate: dateOnly(sessionDate)}]
}

// BuildPresenceMap строит карту присутствия из списка отметок.
func BuildPresenceMap(records []*Record) PresenceMap {
	m := make(PresenceMap, len(records))
	for _, r := range records {
		m[PresenceKey{PersonID: r.PersonID, SessionDate: dateOnly(r.SessionDate)}] = r.Present
	}
	return m
}

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER INTERFACE
// Реализация находится в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Ledger определяет операции журнала посещаемости.
type Ledger interface {
	// Mark записывает или перезаписывает отметку (upsert по паре
	// ребёнок + дата занятия).
	Mark(ctx context.Context, record *Record) error

	// Get возвращает отметку для пары (ребёнок, дата занятия).
	// Возвращает nil без ошибки, если отметки нет.
	Get(ctx context.Context, personID string, sessionDate time.Time) (*Record, error)

	// GetForPerson возвращает все отметки ребёнка в диапазоне дат
	// (включительно), по возрастанию даты.
	GetForPerson(ctx context.Context, personID string, from, to time.Time) ([]*Record, error)

	// GetRange возвращает все отметки всех детей в диапазоне дат
	// (включительно).
	GetRange(ctx context.Context, from, to time.Time) ([]*Record, error)

	// GetForSessions возвращает отметки по точному списку дат занятий.
	GetForSessions(ctx context.Context, sessions []time.Time) ([]*Record, error)

	// DeleteForPerson удаляет все отметки ребёнка. Используется при
	// безвозвратном удалении записи. Возвращает число удалённых отметок.
	DeleteForPerson(ctx context.Context, personID string) (int, error)

	// CountPresent возвращает число присутствовавших на дату занятия.
	CountPresent(ctx context.Context, sessionDate time.Time) (int, error)
}
