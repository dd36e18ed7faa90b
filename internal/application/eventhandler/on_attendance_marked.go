package eventhandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/church-register/roster-hub/internal/application/query"
	"github.com/church-register/roster-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON ATTENDANCE MARKED HANDLER
// Обрабатывает событие отметки посещаемости.
//
// Ключевые функции:
// 1. Сброс кеша месячного отчёта за месяц занятия
// 2. Сброс счётчика зоны риска — новая отметка меняет окно пропусков
//
// Событие может прийти с другого экземпляра через Redis: тогда вместо
// конкретного типа приходит реконструированное событие, и дата занятия
// извлекается из payload.
// ═══════════════════════════════════════════════════════════════════════════

// OnAttendanceMarkedHandler инвалидирует производные данные при отметке.
type OnAttendanceMarkedHandler struct {
	reports query.ReportCache // может быть nil
	counts  query.CountCache  // может быть nil
	logger  *slog.Logger
}

// NewOnAttendanceMarkedHandler создаёт новый обработчик отметок посещаемости.
func NewOnAttendanceMarkedHandler(
	reports query.ReportCache,
	counts query.CountCache,
	logger *slog.Logger,
) *OnAttendanceMarkedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnAttendanceMarkedHandler{
		reports: reports,
		counts:  counts,
		logger:  logger.With("handler", "on_attendance_marked"),
	}
}

// EventType возвращает тип события, который обрабатывает этот handler.
func (h *OnAttendanceMarkedHandler) EventType() shared.EventType {
	return shared.EventAttendanceMarked
}

// Handle обрабатывает событие отметки посещаемости.
// Реализует интерфейс shared.EventHandler.
func (h *OnAttendanceMarkedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	sessionDate, ok := extractSessionDate(event)
	if !ok {
		h.logger.Warn("attendance event without session date",
			"person_id", event.AggregateID(),
		)
		return nil
	}

	h.logger.Info("processing attendance mark",
		"person_id", event.AggregateID(),
		"session_date", sessionDate.Format("2006-01-02"),
	)

	if h.reports != nil {
		h.reports.InvalidateReport(ctx, sessionDate.Year(), sessionDate.Month())
	}

	if h.counts != nil {
		h.counts.Delete(ctx, query.AtRiskCountKey)
	}

	return nil
}

// extractSessionDate достаёт дату занятия из события любого происхождения.
func extractSessionDate(event shared.Event) (time.Time, bool) {
	var raw string
	if marked, ok := event.(shared.AttendanceMarkedEvent); ok {
		raw = marked.SessionDate
	} else if v, ok := event.Payload()["session_date"].(string); ok {
		raw = v
	}
	if raw == "" {
		return time.Time{}, false
	}

	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
