package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/church-register/roster-hub/internal/domain/person"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROMOTION SUGGESTIONS QUERY
// Возвращает список детей с вычисленной и сохранённой группой:
// сначала те, кому нужен перевод, затем остальные; внутри каждой части -
// по имени без учёта регистра.
// ══════════════════════════════════════════════════════════════════════════════

// PromotionSuggestionsQuery содержит параметры запроса.
type PromotionSuggestionsQuery struct {
	// ReferenceDate - опорная дата для вычисления групп (по умолчанию сегодня).
	ReferenceDate time.Time

	// IncludeInactive - включать выведенных из состава.
	IncludeInactive bool
}

// PromotionSuggestionDTO - одна строка списка предложений.
type PromotionSuggestionDTO struct {
	// PersonID - внутренний ID.
	PersonID string `json:"person_id"`

	// FullName - полное имя.
	FullName string `json:"full_name"`

	// Age - полный возраст на опорную дату.
	Age int `json:"age"`

	// CurrentBand - сохранённая группа.
	CurrentBand string `json:"current_band"`

	// ExpectedBand - группа, вычисленная по дате рождения.
	ExpectedBand string `json:"expected_band"`

	// NeedsPromotion - сохранённая группа отстаёт от вычисленной.
	NeedsPromotion bool `json:"needs_promotion"`
}

// PromotionSuggestionsResult содержит результат запроса.
type PromotionSuggestionsResult struct {
	// Suggestions - список в каноническом порядке.
	Suggestions []PromotionSuggestionDTO `json:"suggestions"`

	// PendingCount - сколько детей нуждаются в переводе.
	PendingCount int `json:"pending_count"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// PromotionSuggestionsHandler обрабатывает PromotionSuggestionsQuery.
type PromotionSuggestionsHandler struct {
	personRepo person.Repository
}

// NewPromotionSuggestionsHandler создаёт новый PromotionSuggestionsHandler.
func NewPromotionSuggestionsHandler(personRepo person.Repository) *PromotionSuggestionsHandler {
	return &PromotionSuggestionsHandler{personRepo: personRepo}
}

// Handle выполняет запрос предложений по переводу.
func (h *PromotionSuggestionsHandler) Handle(ctx context.Context, q PromotionSuggestionsQuery) (*PromotionSuggestionsResult, error) {
	ref := q.ReferenceDate
	if ref.IsZero() {
		ref = time.Now().UTC()
	}

	opts := person.DefaultListOptions()
	if !q.IncludeInactive {
		opts = opts.ActiveOnly()
	}

	persons, err := h.personRepo.GetAll(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("promotion_suggestions: failed to list persons: %w", err)
	}

	result := &PromotionSuggestionsResult{
		Suggestions: make([]PromotionSuggestionDTO, 0, len(persons)),
		GeneratedAt: time.Now().UTC(),
	}

	folded := make(map[string]string, len(persons))
	for _, p := range persons {
		needs := p.NeedsPromotion(ref)
		if needs {
			result.PendingCount++
		}
		result.Suggestions = append(result.Suggestions, PromotionSuggestionDTO{
			PersonID:       p.ID,
			FullName:       p.FullName.String(),
			Age:            p.AgeAt(ref),
			CurrentBand:    p.Band.String(),
			ExpectedBand:   p.ExpectedBand(ref).String(),
			NeedsPromotion: needs,
		})
		folded[p.ID] = p.FullName.Fold()
	}

	// Нуждающиеся в переводе первыми; внутри каждой части - по имени.
	sort.SliceStable(result.Suggestions, func(i, j int) bool {
		a, b := result.Suggestions[i], result.Suggestions[j]
		if a.NeedsPromotion != b.NeedsPromotion {
			return a.NeedsPromotion
		}
		if folded[a.PersonID] != folded[b.PersonID] {
			return folded[a.PersonID] < folded[b.PersonID]
		}
		return a.PersonID < b.PersonID
	})

	return result, nil
}
