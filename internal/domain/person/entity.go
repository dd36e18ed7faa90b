// Package person содержит доменную модель ребёнка в воскресной программе.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package person

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// FullName представляет полное имя ребёнка.
type FullName string

// IsValid проверяет, что имя непустое и разумной длины.
func (n FullName) IsValid() bool {
	s := strings.TrimSpace(string(n))
	return len(s) >= 1 && len(s) <= 200
}

// String возвращает строковое представление имени.
func (n FullName) String() string {
	return string(n)
}

// Fold возвращает имя в нижнем регистре для сортировки без учёта регистра.
func (n FullName) Fold() string {
	return strings.ToLower(string(n))
}

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Status определяет текущий статус ребёнка в программе.
type Status string

const (
	// StatusActive - ребёнок числится в программе и посещает занятия.
	StatusActive Status = "active"
	// StatusInactive - ребёнок выведен из состава (вручную или по пропускам).
	StatusInactive Status = "inactive"
	// StatusDeleted - запись удалена по одобренному запросу (мягкое удаление).
	StatusDeleted Status = "deleted"
)

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusDeleted:
		return true
	default:
		return false
	}
}

// IsEnrolled возвращает true, если запись не удалена.
func (s Status) IsEnrolled() bool {
	return s == StatusActive || s == StatusInactive
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: PERSON
// ══════════════════════════════════════════════════════════════════════════════

// Person - центральная сущность системы: ребёнок в составе программы.
type Person struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// FullName - полное имя ребёнка.
	FullName FullName

	// BirthDate - дата рождения (только календарная дата, UTC полночь).
	BirthDate time.Time

	// BirthDateApproximate - true, если дата рождения синтезирована из возраста.
	BirthDateApproximate bool

	// Band - сохранённая возрастная группа. Может отставать от вычисленной
	// по дате рождения до следующего запуска перевода.
	Band Band

	// FamilyKey - ключ семьи для группировки братьев и сестёр (опционально).
	FamilyKey string

	// GuardianName - имя родителя или опекуна (опционально).
	GuardianName string

	// ContactPhone - контактный телефон (опционально).
	ContactPhone string

	// Notes - произвольные заметки служителя.
	Notes string

	// Status - текущий статус в программе.
	Status Status

	// DeletionRequested - есть ли неразрешённый запрос на удаление.
	DeletionRequested bool

	// RegisteredAt - дата постановки на учёт.
	RegisteredAt time.Time

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidName - невалидное имя.
	ErrInvalidName = errors.New("invalid full name: must be 1-200 chars")

	// ErrBirthDateInFuture - дата рождения в будущем.
	ErrBirthDateInFuture = errors.New("birth date cannot be in the future")

	// ErrAgeOutOfRange - возраст вне допустимого диапазона.
	ErrAgeOutOfRange = errors.New("age must be between 0 and 120")

	// ErrInvalidBand - неизвестная возрастная группа.
	ErrInvalidBand = errors.New("unknown age band")

	// ErrInvalidStatus - невалидный статус.
	ErrInvalidStatus = errors.New("invalid person status")

	// ErrPersonNotFound - запись не найдена.
	ErrPersonNotFound = errors.New("person not found")

	// ErrPersonDeleted - запись удалена и не может изменяться.
	ErrPersonDeleted = errors.New("person record is deleted")

	// ErrNotActive - операция допустима только для активной записи.
	ErrNotActive = errors.New("person is not active")

	// ErrNoDeletionRequest - нет ожидающего запроса на удаление.
	ErrNoDeletionRequest = errors.New("no pending deletion request")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewPersonParams содержит параметры для постановки ребёнка на учёт.
type NewPersonParams struct {
	ID           string
	FullName     FullName
	BirthDate    time.Time
	Approximate  bool
	FamilyKey    string
	GuardianName string
	ContactPhone string
	Notes        string
	RegisteredAt time.Time
}

// NewPerson создаёт новую запись с валидацией всех полей.
// Возрастная группа вычисляется по дате рождения на дату регистрации.
func NewPerson(params NewPersonParams) (*Person, error) {
	if params.ID == "" {
		return nil, errors.New("person id is required")
	}

	if !params.FullName.IsValid() {
		return nil, ErrInvalidName
	}

	ref := params.RegisteredAt
	if ref.IsZero() {
		ref = time.Now().UTC()
	}

	if params.BirthDate.IsZero() {
		return nil, errors.New("birth date is required")
	}
	if dateOnly(params.BirthDate).After(dateOnly(ref)) {
		return nil, ErrBirthDateInFuture
	}

	now := time.Now().UTC()

	return &Person{
		ID:                   params.ID,
		FullName:             FullName(strings.TrimSpace(string(params.FullName))),
		BirthDate:            dateOnly(params.BirthDate),
		BirthDateApproximate: params.Approximate,
		Band:                 ClassifyBirthDate(params.BirthDate, ref),
		FamilyKey:            strings.TrimSpace(params.FamilyKey),
		GuardianName:         strings.TrimSpace(params.GuardianName),
		ContactPhone:         strings.TrimSpace(params.ContactPhone),
		Notes:                params.Notes,
		Status:               StatusActive,
		DeletionRequested:    false,
		RegisteredAt:         dateOnly(ref),
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

// dateOnly отбрасывает время суток, оставляя календарную дату в UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// AgeAt возвращает полный возраст ребёнка на опорную дату.
func (p *Person) AgeAt(ref time.Time) int {
	return AgeAt(p.BirthDate, ref)
}

// ExpectedBand возвращает группу, вычисленную по дате рождения на опорную
// дату. Сохранённая группа может от неё отставать.
func (p *Person) ExpectedBand(ref time.Time) Band {
	return ClassifyBirthDate(p.BirthDate, ref)
}

// NeedsPromotion возвращает true, если сохранённая группа отстаёт от
// вычисленной на опорную дату.
func (p *Person) NeedsPromotion(ref time.Time) bool {
	return p.Band != p.ExpectedBand(ref)
}

// PromoteTo переводит ребёнка в указанную группу (ручной перевод не
// сверяется с возрастом).
func (p *Person) PromoteTo(band Band) error {
	if !band.IsValid() {
		return ErrInvalidBand
	}
	if p.Status == StatusDeleted {
		return ErrPersonDeleted
	}

	p.Band = band
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Reclassify пересчитывает группу по дате рождения на опорную дату.
// Возвращает true, если группа изменилась.
func (p *Person) Reclassify(ref time.Time) bool {
	expected := p.ExpectedBand(ref)
	if p.Band == expected {
		return false
	}
	p.Band = expected
	p.UpdatedAt = time.Now().UTC()
	return true
}

// UpdateBirthDate меняет дату рождения и пересчитывает группу.
func (p *Person) UpdateBirthDate(birthDate, ref time.Time) error {
	if p.Status == StatusDeleted {
		return ErrPersonDeleted
	}
	if dateOnly(birthDate).After(dateOnly(ref)) {
		return ErrBirthDateInFuture
	}

	p.BirthDate = dateOnly(birthDate)
	p.BirthDateApproximate = false
	p.Band = ClassifyBirthDate(p.BirthDate, ref)
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Deactivate выводит ребёнка из состава программы. Идемпотентно.
func (p *Person) Deactivate() error {
	if p.Status == StatusDeleted {
		return ErrPersonDeleted
	}

	p.Status = StatusInactive
	p.DeletionRequested = false
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Activate возвращает ребёнка в активный состав. Идемпотентно.
func (p *Person) Activate() error {
	if p.Status == StatusDeleted {
		return ErrPersonDeleted
	}

	p.Status = StatusActive
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// RequestDeletion помечает активную запись как ожидающую удаления.
func (p *Person) RequestDeletion() error {
	if p.Status != StatusActive {
		return ErrNotActive
	}

	p.DeletionRequested = true
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// RejectDeletion снимает запрос на удаление.
func (p *Person) RejectDeletion() error {
	if !p.DeletionRequested {
		return ErrNoDeletionRequest
	}

	p.DeletionRequested = false
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// ApproveDeletion мягко удаляет запись по одобренному запросу.
func (p *Person) ApproveDeletion() error {
	if !p.DeletionRequested {
		return ErrNoDeletionRequest
	}

	p.Status = StatusDeleted
	p.DeletionRequested = false
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// IsActive возвращает true, если ребёнок в активном составе.
func (p *Person) IsActive() bool {
	return p.Status == StatusActive
}

// HasFamily возвращает true, если задан ключ семьи.
func (p *Person) HasFamily() bool {
	return strings.TrimSpace(p.FamilyKey) != ""
}

// String возвращает строковое представление для логирования.
func (p *Person) String() string {
	return fmt.Sprintf(
		"Person{ID: %s, Name: %s, Band: %s, Status: %s}",
		p.ID, p.FullName, p.Band, p.Status,
	)
}

// Clone создаёт копию записи.
func (p *Person) Clone() *Person {
	if p == nil {
		return nil
	}

	clone := *p
	return &clone
}
