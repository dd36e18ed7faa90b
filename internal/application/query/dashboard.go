package query

import (
	"context"
	"fmt"
	"time"

	"github.com/church-register/roster-hub/internal/domain/attendance"
	"github.com/church-register/roster-hub/internal/domain/person"
	"github.com/church-register/roster-hub/internal/domain/schedule"
)

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD QUERY
// Сводка для главного экрана: численность состава, занятия текущего
// месяца с подсветкой сегодняшнего воскресенья и счётчик детей в зоне
// риска. Счётчик риска кешируется: он дорогой и меняется только при
// новых отметках посещаемости.
// ══════════════════════════════════════════════════════════════════════════════

// CountCache - кеш целочисленных счётчиков (реализуется поверх Redis).
type CountCache interface {
	// GetInt возвращает счётчик; ok=false при промахе кеша.
	GetInt(ctx context.Context, key string) (value int, ok bool)

	// SetInt сохраняет счётчик с TTL.
	SetInt(ctx context.Context, key string, value int, ttl time.Duration)

	// Delete сбрасывает счётчик.
	Delete(ctx context.Context, key string)
}

// AtRiskCountKey - ключ кеша счётчика зоны риска.
const AtRiskCountKey = "dashboard:at_risk_count"

// atRiskCountTTL - срок жизни кешированного счётчика.
const atRiskCountTTL = 10 * time.Minute

// DashboardQuery содержит параметры запроса сводки.
type DashboardQuery struct {
	// ReferenceDate - опорная дата (по умолчанию сегодня).
	ReferenceDate time.Time
}

// SessionDTO - занятие месяца для сводки.
type SessionDTO struct {
	// Date - дата занятия (YYYY-MM-DD).
	Date string `json:"date"`

	// IsToday - занятие приходится на опорную дату.
	IsToday bool `json:"is_today"`
}

// DashboardResult содержит сводку.
type DashboardResult struct {
	// ActiveCount - детей в активном составе.
	ActiveCount int `json:"active_count"`

	// InactiveCount - выведенных из состава.
	InactiveCount int `json:"inactive_count"`

	// PendingDeletion - записей с запросом на удаление.
	PendingDeletion int `json:"pending_deletion"`

	// MonthSessions - занятия текущего месяца.
	MonthSessions []SessionDTO `json:"month_sessions"`

	// AtRiskCount - детей с тремя и более пропусками в окне.
	AtRiskCount int `json:"at_risk_count"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// DashboardHandler обрабатывает DashboardQuery.
type DashboardHandler struct {
	personRepo person.Repository
	ledger     attendance.Ledger
	counts     CountCache // может быть nil
}

// NewDashboardHandler создаёт новый DashboardHandler.
func NewDashboardHandler(personRepo person.Repository, ledger attendance.Ledger, counts CountCache) *DashboardHandler {
	return &DashboardHandler{personRepo: personRepo, ledger: ledger, counts: counts}
}

// Handle строит сводку.
func (h *DashboardHandler) Handle(ctx context.Context, q DashboardQuery) (*DashboardResult, error) {
	ref := q.ReferenceDate
	if ref.IsZero() {
		ref = time.Now().UTC()
	}

	active, err := h.personRepo.CountByStatus(ctx, person.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("dashboard: failed to count active: %w", err)
	}
	inactive, err := h.personRepo.CountByStatus(ctx, person.StatusInactive)
	if err != nil {
		return nil, fmt.Errorf("dashboard: failed to count inactive: %w", err)
	}
	pending, err := h.personRepo.GetPendingDeletion(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard: failed to list pending deletions: %w", err)
	}

	sessions, err := schedule.SessionsInMonth(ref.Year(), ref.Month())
	if err != nil {
		return nil, fmt.Errorf("dashboard: failed to build sessions: %w", err)
	}

	result := &DashboardResult{
		ActiveCount:     active,
		InactiveCount:   inactive,
		PendingDeletion: len(pending),
		MonthSessions:   make([]SessionDTO, 0, len(sessions)),
		GeneratedAt:     time.Now().UTC(),
	}

	current, hasCurrent := schedule.CurrentSession(ref, sessions)
	for _, s := range sessions {
		result.MonthSessions = append(result.MonthSessions, SessionDTO{
			Date:    s.Format("2006-01-02"),
			IsToday: hasCurrent && s.Equal(current),
		})
	}

	atRisk, err := h.atRiskCount(ctx, ref)
	if err != nil {
		return nil, err
	}
	result.AtRiskCount = atRisk

	return result, nil
}

// atRiskCount считает детей с тремя и более пропусками в окне последних
// завершённых занятий, используя кеш при наличии.
func (h *DashboardHandler) atRiskCount(ctx context.Context, ref time.Time) (int, error) {
	if h.counts != nil {
		if v, ok := h.counts.GetInt(ctx, AtRiskCountKey); ok {
			return v, nil
		}
	}

	window, err := schedule.LastSessions(ref, schedule.DefaultWindowSize)
	if err != nil {
		return 0, fmt.Errorf("dashboard: failed to build window: %w", err)
	}

	activePersons, err := h.personRepo.GetByStatus(ctx, person.StatusActive, person.DefaultListOptions())
	if err != nil {
		return 0, fmt.Errorf("dashboard: failed to list active persons: %w", err)
	}

	records, err := h.ledger.GetForSessions(ctx, window)
	if err != nil {
		return 0, fmt.Errorf("dashboard: failed to load attendance: %w", err)
	}
	presence := attendance.BuildPresenceMap(records)

	count := 0
	for _, p := range activePersons {
		if attendance.Evaluate(p.ID, window, presence).Missed >= attendance.AtRiskThreshold {
			count++
		}
	}

	if h.counts != nil {
		h.counts.SetInt(ctx, AtRiskCountKey, count, atRiskCountTTL)
	}
	return count, nil
}
