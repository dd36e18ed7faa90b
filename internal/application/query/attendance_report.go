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
// ATTENDANCE REPORT QUERY
// Матрица посещаемости за месяц: занятия месяца на отфильтрованный состав.
// Отсутствие отметки трактуется как отсутствие на занятии.
// ══════════════════════════════════════════════════════════════════════════════

// ReportCache - кеш собранных месячных отчётов (реализуется поверх Redis).
// Кешируется только отчёт без фильтров: самый частый вариант при экспорте.
type ReportCache interface {
	// GetReport возвращает отчёт за месяц; ok=false при промахе кеша.
	GetReport(ctx context.Context, year int, month time.Month) (result *AttendanceReportResult, ok bool)

	// SetReport сохраняет отчёт за месяц.
	SetReport(ctx context.Context, year int, month time.Month, result *AttendanceReportResult)

	// InvalidateReport сбрасывает кеш отчёта за месяц.
	InvalidateReport(ctx context.Context, year int, month time.Month)
}

// AttendanceReportQuery содержит параметры отчёта.
type AttendanceReportQuery struct {
	// Year и Month задают отчётный месяц.
	Year  int
	Month time.Month

	// Band - фильтр по группе (nil = все группы).
	Band *person.Band

	// IncludeInactive - включать выведенных из состава.
	IncludeInactive bool
}

// Validate проверяет параметры запроса.
func (q AttendanceReportQuery) Validate() error {
	if q.Month < time.January || q.Month > time.December {
		return schedule.ErrInvalidMonth
	}
	if q.Year < 1900 || q.Year > 3000 {
		return fmt.Errorf("attendance_report: implausible year: %d", q.Year)
	}
	return nil
}

// AttendanceRowDTO - строка матрицы: ребёнок и его присутствие по занятиям.
type AttendanceRowDTO struct {
	// PersonID - внутренний ID.
	PersonID string `json:"person_id"`

	// FullName - полное имя.
	FullName string `json:"full_name"`

	// Band - возрастная группа.
	Band string `json:"band"`

	// Presence - присутствие по занятиям месяца, в порядке Sessions.
	Presence []bool `json:"presence"`

	// PresentCount - сколько занятий посещено.
	PresentCount int `json:"present_count"`
}

// AttendanceReportResult содержит матрицу посещаемости.
type AttendanceReportResult struct {
	// Sessions - занятия месяца по возрастанию (YYYY-MM-DD).
	Sessions []string `json:"sessions"`

	// Rows - строки матрицы, по имени без учёта регистра.
	Rows []AttendanceRowDTO `json:"rows"`

	// PresentTotals - число присутствовавших на каждое занятие,
	// в порядке Sessions.
	PresentTotals []int `json:"present_totals"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// AttendanceReportHandler обрабатывает AttendanceReportQuery.
type AttendanceReportHandler struct {
	personRepo person.Repository
	ledger     attendance.Ledger
	reports    ReportCache // может быть nil
}

// NewAttendanceReportHandler создаёт новый AttendanceReportHandler.
func NewAttendanceReportHandler(personRepo person.Repository, ledger attendance.Ledger, reports ReportCache) *AttendanceReportHandler {
	return &AttendanceReportHandler{personRepo: personRepo, ledger: ledger, reports: reports}
}

// Handle строит отчёт посещаемости за месяц.
func (h *AttendanceReportHandler) Handle(ctx context.Context, q AttendanceReportQuery) (*AttendanceReportResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	cacheable := q.Band == nil && !q.IncludeInactive && h.reports != nil
	if cacheable {
		if cached, ok := h.reports.GetReport(ctx, q.Year, q.Month); ok {
			return cached, nil
		}
	}

	sessions, err := schedule.SessionsInMonth(q.Year, q.Month)
	if err != nil {
		return nil, fmt.Errorf("attendance_report: failed to build sessions: %w", err)
	}

	opts := person.DefaultListOptions()
	if !q.IncludeInactive {
		opts = opts.ActiveOnly()
	}

	var persons []*person.Person
	if q.Band != nil {
		persons, err = h.personRepo.GetByBand(ctx, *q.Band, opts)
	} else {
		persons, err = h.personRepo.GetAll(ctx, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("attendance_report: failed to list persons: %w", err)
	}
	SortRoster(persons, SortByName)

	// Один диапазонный запрос на весь месяц вместо запроса на ячейку.
	var records []*attendance.Record
	if len(sessions) > 0 {
		records, err = h.ledger.GetRange(ctx, sessions[0], sessions[len(sessions)-1])
		if err != nil {
			return nil, fmt.Errorf("attendance_report: failed to load attendance: %w", err)
		}
	}
	presence := attendance.BuildPresenceMap(records)

	result := &AttendanceReportResult{
		Sessions:      make([]string, len(sessions)),
		Rows:          make([]AttendanceRowDTO, 0, len(persons)),
		PresentTotals: make([]int, len(sessions)),
		GeneratedAt:   time.Now().UTC(),
	}
	for i, s := range sessions {
		result.Sessions[i] = s.Format("2006-01-02")
	}

	for _, p := range persons {
		row := AttendanceRowDTO{
			PersonID: p.ID,
			FullName: p.FullName.String(),
			Band:     p.Band.String(),
			Presence: make([]bool, len(sessions)),
		}
		for i, s := range sessions {
			if presence.IsPresent(p.ID, s) {
				row.Presence[i] = true
				row.PresentCount++
				result.PresentTotals[i]++
			}
		}
		result.Rows = append(result.Rows, row)
	}

	if cacheable {
		h.reports.SetReport(ctx, q.Year, q.Month, result)
	}

	return result, nil
}
