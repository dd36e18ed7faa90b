// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/church-register/roster-hub/internal/domain/person"
	"github.com/church-register/roster-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROSTER VIEW QUERY
// Возвращает состав программы в заданном порядке, плоским списком или
// сгруппированным по семьям. Все порядки сортировки тотальны: последним
// критерием всегда идёт имя без учёта регистра.
// ══════════════════════════════════════════════════════════════════════════════

// SortKey - критерий сортировки состава.
type SortKey string

const (
	// SortByName - по имени без учёта регистра.
	SortByName SortKey = "name"
	// SortByBand - по порядку возрастных групп, внутри группы по имени.
	SortByBand SortKey = "band"
	// SortByFamily - по ключу семьи (числовые раньше строковых), внутри
	// семьи по имени; записи без семьи в конце.
	SortByFamily SortKey = "family"
	// SortByBirthDate - по дате рождения (старшие раньше), затем по имени.
	SortByBirthDate SortKey = "birth_date"
)

// IsValid проверяет, что критерий известен.
func (k SortKey) IsValid() bool {
	switch k {
	case SortByName, SortByBand, SortByFamily, SortByBirthDate:
		return true
	default:
		return false
	}
}

// RosterViewQuery содержит параметры запроса состава.
type RosterViewQuery struct {
	// SortBy - критерий сортировки (по умолчанию name).
	SortBy SortKey

	// GroupByFamily - группировать по ключу семьи.
	GroupByFamily bool

	// Band - фильтр по группе (nil = все группы).
	Band *person.Band

	// IncludeInactive - включать выведенных из состава.
	IncludeInactive bool

	// ReferenceDate - опорная дата для возрастных полей (по умолчанию сегодня).
	ReferenceDate time.Time
}

// Validate проверяет и нормализует параметры запроса.
func (q *RosterViewQuery) Validate() error {
	if q.SortBy == "" {
		q.SortBy = SortByName
	}
	if !q.SortBy.IsValid() {
		return fmt.Errorf("roster_view: unknown sort key: %s", q.SortBy)
	}
	return nil
}

// RosterEntryDTO - запись состава для отображения.
type RosterEntryDTO struct {
	// PersonID - внутренний ID.
	PersonID string `json:"person_id"`

	// FullName - полное имя.
	FullName string `json:"full_name"`

	// BirthDate - дата рождения (YYYY-MM-DD).
	BirthDate string `json:"birth_date"`

	// BirthDateApproximate - дата синтезирована из возраста.
	BirthDateApproximate bool `json:"birth_date_approximate,omitempty"`

	// Age - полный возраст на опорную дату.
	Age int `json:"age"`

	// Band - сохранённая возрастная группа.
	Band string `json:"band"`

	// NeedsPromotion - сохранённая группа отстаёт от вычисленной.
	NeedsPromotion bool `json:"needs_promotion"`

	// FamilyKey - ключ семьи (пустой, если не задан).
	FamilyKey string `json:"family_key,omitempty"`

	// GuardianName - имя опекуна.
	GuardianName string `json:"guardian_name,omitempty"`

	// ContactPhone - контактный телефон.
	ContactPhone string `json:"contact_phone,omitempty"`

	// Status - статус записи.
	Status string `json:"status"`

	// DeletionRequested - есть ли запрос на удаление.
	DeletionRequested bool `json:"deletion_requested,omitempty"`
}

// FamilyGroupDTO - группа записей с общим ключом семьи.
type FamilyGroupDTO struct {
	// FamilyKey - ключ группы; пустая строка для записей без семьи.
	FamilyKey string `json:"family_key"`

	// Members - записи группы в текущем порядке сортировки.
	Members []RosterEntryDTO `json:"members"`
}

// RosterViewResult содержит результат запроса состава.
type RosterViewResult struct {
	// Entries - плоский список (когда группировка выключена).
	Entries []RosterEntryDTO `json:"entries,omitempty"`

	// Groups - семейные группы (когда группировка включена).
	Groups []FamilyGroupDTO `json:"groups,omitempty"`

	// TotalCount - количество записей в результате.
	TotalCount int `json:"total_count"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// RosterViewHandler обрабатывает RosterViewQuery.
type RosterViewHandler struct {
	personRepo person.Repository
}

// NewRosterViewHandler создаёт новый RosterViewHandler.
func NewRosterViewHandler(personRepo person.Repository) *RosterViewHandler {
	return &RosterViewHandler{personRepo: personRepo}
}

// Handle выполняет запрос состава.
func (h *RosterViewHandler) Handle(ctx context.Context, q RosterViewQuery) (*RosterViewResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	ref := q.ReferenceDate
	if ref.IsZero() {
		ref = time.Now().UTC()
	}

	opts := person.DefaultListOptions()
	if !q.IncludeInactive {
		opts = opts.ActiveOnly()
	}

	var persons []*person.Person
	var err error
	if q.Band != nil {
		persons, err = h.personRepo.GetByBand(ctx, *q.Band, opts)
	} else {
		persons, err = h.personRepo.GetAll(ctx, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("roster_view: failed to list persons: %w", err)
	}

	SortRoster(persons, q.SortBy)

	result := &RosterViewResult{
		TotalCount:  len(persons),
		GeneratedAt: time.Now().UTC(),
	}

	if q.GroupByFamily {
		result.Groups = groupByFamily(persons, ref)
	} else {
		result.Entries = make([]RosterEntryDTO, 0, len(persons))
		for _, p := range persons {
			result.Entries = append(result.Entries, toRosterEntry(p, ref))
		}
	}

	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// СОРТИРОВКА
// ══════════════════════════════════════════════════════════════════════════════

// SortRoster сортирует записи по заданному критерию. Сортировка
// стабильна; каждый порядок тотален благодаря финальному сравнению имён.
func SortRoster(persons []*person.Person, key SortKey) {
	sort.SliceStable(persons, func(i, j int) bool {
		return rosterLess(persons[i], persons[j], key)
	})
}

func rosterLess(a, b *person.Person, key SortKey) bool {
	switch key {
	case SortByBand:
		if a.Band != b.Band {
			return a.Band.Ordinal() < b.Band.Ordinal()
		}
	case SortByFamily:
		if c := compareFamilyKeys(a.FamilyKey, b.FamilyKey); c != 0 {
			return c < 0
		}
	case SortByBirthDate:
		if !a.BirthDate.Equal(b.BirthDate) {
			return a.BirthDate.Before(b.BirthDate)
		}
	}
	return nameLess(a, b)
}

func nameLess(a, b *person.Person) bool {
	an, bn := a.FullName.Fold(), b.FullName.Fold()
	if an != bn {
		return an < bn
	}
	// Детерминированность при полностью совпадающих именах.
	return a.ID < b.ID
}

// compareFamilyKeys упорядочивает ключи семей: числовые по значению
// раньше строковых, строковые лексикографически, пустые в конце.
func compareFamilyKeys(a, b string) int {
	aEmpty := strings.TrimSpace(a) == ""
	bEmpty := strings.TrimSpace(b) == ""
	switch {
	case aEmpty && bEmpty:
		return 0
	case aEmpty:
		return 1
	case bEmpty:
		return -1
	}
	return shared.NewFamilyKey(a).Compare(shared.NewFamilyKey(b))
}

// ══════════════════════════════════════════════════════════════════════════════
// ГРУППИРОВКА ПО СЕМЬЯМ
// ══════════════════════════════════════════════════════════════════════════════

// groupByFamily собирает записи в семейные группы. Порядок групп
// повторяет порядок первого вхождения ключа в отсортированном списке;
// записи без семьи образуют группу с пустым ключом на позиции первой
// такой записи. При сортировке по семье отсортированный список сам
// даёт канонический порядок ключей и ставит бессемейных в конец.
func groupByFamily(persons []*person.Person, ref time.Time) []FamilyGroupDTO {
	index := make(map[string]int)
	var groups []FamilyGroupDTO

	for _, p := range persons {
		fk := strings.TrimSpace(p.FamilyKey)
		i, ok := index[fk]
		if !ok {
			i = len(groups)
			index[fk] = i
			groups = append(groups, FamilyGroupDTO{FamilyKey: fk})
		}
		groups[i].Members = append(groups[i].Members, toRosterEntry(p, ref))
	}
	return groups
}

func toRosterEntry(p *person.Person, ref time.Time) RosterEntryDTO {
	return RosterEntryDTO{
		PersonID:             p.ID,
		FullName:             p.FullName.String(),
		BirthDate:            p.BirthDate.Format("2006-01-02"),
		BirthDateApproximate: p.BirthDateApproximate,
		Age:                  p.AgeAt(ref),
		Band:                 p.Band.String(),
		NeedsPromotion:       p.NeedsPromotion(ref),
		FamilyKey:            strings.TrimSpace(p.FamilyKey),
		GuardianName:         p.GuardianName,
		ContactPhone:         p.ContactPhone,
		Status:               string(p.Status),
		DeletionRequested:    p.DeletionRequested,
	}
}
