package person

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет основные операции CRUD для записей детей.
type Repository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// CRUD Operations
	// ─────────────────────────────────────────────────────────────────────────

	// Create создаёт новую запись.
	Create(ctx context.Context, p *Person) error

	// GetByID возвращает запись по внутреннему ID.
	// Возвращает ErrPersonNotFound, если запись не найдена.
	GetByID(ctx context.Context, id string) (*Person, error)

	// Update обновляет запись.
	// Возвращает ErrPersonNotFound, если запись не найдена.
	Update(ctx context.Context, p *Person) error

	// HardDelete безвозвратно удаляет запись из хранилища.
	// Возвращает ErrPersonNotFound, если запись не найдена.
	HardDelete(ctx context.Context, id string) error

	// ─────────────────────────────────────────────────────────────────────────
	// Bulk Operations
	// ─────────────────────────────────────────────────────────────────────────

	// GetAll возвращает все неудалённые записи.
	GetAll(ctx context.Context, opts ListOptions) ([]*Person, error)

	// GetByStatus возвращает записи с указанным статусом.
	GetByStatus(ctx context.Context, status Status, opts ListOptions) ([]*Person, error)

	// GetByBand возвращает неудалённые записи указанной группы.
	GetByBand(ctx context.Context, band Band, opts ListOptions) ([]*Person, error)

	// GetByIDs возвращает записи по списку ID. Ненайденные ID пропускаются.
	GetByIDs(ctx context.Context, ids []string) ([]*Person, error)

	// GetPendingDeletion возвращает записи с ожидающим запросом на удаление.
	GetPendingDeletion(ctx context.Context) ([]*Person, error)

	// Count возвращает количество неудалённых записей.
	Count(ctx context.Context) (int, error)

	// CountByStatus возвращает количество записей с указанным статусом.
	CountByStatus(ctx context.Context, status Status) (int, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Search & Filter
	// ─────────────────────────────────────────────────────────────────────────

	// Search выполняет поиск по имени (без учёта регистра, подстрока).
	Search(ctx context.Context, query string, opts ListOptions) ([]*Person, error)

	// GetByFamilyKey возвращает неудалённые записи с указанным ключом семьи.
	GetByFamilyKey(ctx context.Context, familyKey string) ([]*Person, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Existence Checks
	// ─────────────────────────────────────────────────────────────────────────

	// Exists проверяет существование записи по ID.
	Exists(ctx context.Context, id string) (bool, error)
}

// ListOptions содержит параметры для пагинации и сортировки.
type ListOptions struct {
	// Offset - смещение (для пагинации).
	Offset int

	// Limit - максимальное количество записей (0 - без ограничения).
	Limit int

	// SortBy - поле для сортировки.
	SortBy string

	// SortDesc - сортировка по убыванию.
	SortDesc bool

	// IncludeInactive - включать записи со статусом inactive.
	IncludeInactive bool
}

// DefaultListOptions возвращает параметры по умолчанию.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Offset:          0,
		Limit:           0,
		SortBy:          "full_name",
		SortDesc:        false,
		IncludeInactive: true,
	}
}

// WithOffset устанавливает смещение.
func (o ListOptions) WithOffset(offset int) ListOptions {
	o.Offset = offset
	return o
}

// WithLimit устанавливает лимит.
func (o ListOptions) WithLimit(limit int) ListOptions {
	o.Limit = limit
	return o
}

// WithSort устанавливает сортировку.
func (o ListOptions) WithSort(field string, desc bool) ListOptions {
	o.SortBy = field
	o.SortDesc = desc
	return o
}

// ActiveOnly исключает неактивные записи.
func (o ListOptions) ActiveOnly() ListOptions {
	o.IncludeInactive = false
	return o
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE INTERFACE
// Для кеширования часто запрашиваемых данных.
// ══════════════════════════════════════════════════════════════════════════════

// Cache определяет операции кеширования записей.
type Cache interface {
	// Get получает запись из кеша.
	Get(ctx context.Context, personID string) (*Person, error)

	// Set сохраняет запись в кеш.
	Set(ctx context.Context, p *Person, ttl time.Duration) error

	// Delete удаляет запись из кеша.
	Delete(ctx context.Context, personID string) error

	// Invalidate инвалидирует все записи кеша для данного ID.
	Invalidate(ctx context.Context, personID string) error

	// InvalidateAll очищает весь кеш записей.
	InvalidateAll(ctx context.Context) error
}
