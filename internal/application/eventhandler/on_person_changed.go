// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"context"
	"log/slog"

	"github.com/church-register/roster-hub/internal/application/query"
	"github.com/church-register/roster-hub/internal/domain/person"
	"github.com/church-register/roster-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON PERSON CHANGED HANDLER
// Обрабатывает все события жизненного цикла записи ребёнка.
//
// Ключевые функции:
// 1. Инвалидация кеша записи и кешированных представлений состава
// 2. Сброс счётчика зоны риска — смена статуса меняет его значение
//
// Обработчик терпим к ошибкам кеша: промах хуже устаревшего значения
// не бывает, поэтому ошибки логируются и не прерывают обработку.
// ═══════════════════════════════════════════════════════════════════════════

// OnPersonChangedHandler инвалидирует производные данные при изменении записи.
type OnPersonChangedHandler struct {
	personCache person.Cache     // может быть nil
	counts      query.CountCache // может быть nil
	logger      *slog.Logger
}

// NewOnPersonChangedHandler создаёт новый обработчик изменений записи.
func NewOnPersonChangedHandler(
	personCache person.Cache,
	counts query.CountCache,
	logger *slog.Logger,
) *OnPersonChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnPersonChangedHandler{
		personCache: personCache,
		counts:      counts,
		logger:      logger.With("handler", "on_person_changed"),
	}
}

// EventTypes возвращает типы событий, которые обрабатывает этот handler.
func (h *OnPersonChangedHandler) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventPersonRegistered,
		shared.EventPersonUpdated,
		shared.EventPersonDeactivated,
		shared.EventPersonReactivated,
		shared.EventPersonPromoted,
		shared.EventPersonDeleted,
		shared.EventDeletionRequested,
		shared.EventDeletionRejected,
	}
}

// Handle обрабатывает событие изменения записи.
// Реализует интерфейс shared.EventHandler.
func (h *OnPersonChangedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	h.logger.Info("processing person change",
		"event_type", event.EventType(),
		"person_id", event.AggregateID(),
	)

	if h.personCache != nil {
		if err := h.personCache.Invalidate(ctx, event.AggregateID()); err != nil {
			h.logger.Warn("failed to invalidate person cache",
				"person_id", event.AggregateID(),
				"error", err,
			)
		}
	}

	if h.counts != nil && affectsRiskCount(event.EventType()) {
		h.counts.Delete(ctx, query.AtRiskCountKey)
	}

	return nil
}

// affectsRiskCount сообщает, меняет ли событие множество детей в зоне
// риска. Правки имени или контактов счётчик не трогают.
func affectsRiskCount(eventType shared.EventType) bool {
	switch eventType {
	case shared.EventPersonRegistered,
		shared.EventPersonDeactivated,
		shared.EventPersonReactivated,
		shared.EventPersonDeleted:
		return true
	default:
		return false
	}
}
