// Package postgres implements the PostgreSQL persistence layer for the
// roster hub.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/church-register/roster-hub/internal/domain/person"
	"github.com/church-register/roster-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// PERSON REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const personColumns = `id, full_name, birth_date, birth_date_approximate, band,
	   family_key, guardian_name, contact_phone, notes, status,
	   deletion_requested, registered_at, created_at, updated_at`

// PersonRepository implements person.Repository for PostgreSQL.
type PersonRepository struct {
	conn *Connection
}

// NewPersonRepository creates a new PersonRepository.
func NewPersonRepository(conn *Connection) *PersonRepository {
	return &PersonRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// CRUD Operations
// ─────────────────────────────────────────────────────────────────────────────

// Create creates a new person record.
func (r *PersonRepository) Create(ctx context.Context, p *person.Person) error {
	query := `
		INSERT INTO persons (
			id, full_name, birth_date, birth_date_approximate, band,
			family_key, guardian_name, contact_phone, notes, status,
			deletion_requested, registered_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.conn.Exec(ctx, query,
		p.ID,
		p.FullName.String(),
		p.BirthDate,
		p.BirthDateApproximate,
		p.Band.String(),
		p.FamilyKey,
		p.GuardianName,
		p.ContactPhone,
		p.Notes,
		string(p.Status),
		p.DeletionRequested,
		p.RegisteredAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrPersonExists
		}
		return fmt.Errorf("failed to create person: %w", err)
	}

	return nil
}

// GetByID returns a person by internal ID.
func (r *PersonRepository) GetByID(ctx context.Context, id string) (*person.Person, error) {
	query := fmt.Sprintf(`SELECT %s FROM persons WHERE id = $1`, personColumns)

	row := r.conn.QueryRow(ctx, query, id)
	return r.scanPerson(row)
}

// Update updates a person record.
func (r *PersonRepository) Update(ctx context.Context, p *person.Person) error {
	query := `
		UPDATE persons SET
			full_name = $1,
			birth_date = $2,
			birth_date_approximate = $3,
			band = $4,
			family_key = $5,
			guardian_name = $6,
			contact_phone = $7,
			notes = $8,
			status = $9,
			deletion_requested = $10,
			updated_at = $11
		WHERE id = $12
	`

	result, err := r.conn.Exec(ctx, query,
		p.FullName.String(),
		p.BirthDate,
		p.BirthDateApproximate,
		p.Band.String(),
		p.FamilyKey,
		p.GuardianName,
		p.ContactPhone,
		p.Notes,
		string(p.Status),
		p.DeletionRequested,
		time.Now().UTC(),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update person: %w", err)
	}

	if result.RowsAffected() == 0 {
		return person.ErrPersonNotFound
	}

	return nil
}

// HardDelete permanently removes a person record. Attendance rows are
// removed by the ON DELETE CASCADE on attendance_records.
func (r *PersonRepository) HardDelete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, "DELETE FROM persons WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}

	if result.RowsAffected() == 0 {
		return person.ErrPersonNotFound
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Bulk Operations
// ─────────────────────────────────────────────────────────────────────────────

// GetAll returns all enrolled persons.
func (r *PersonRepository) GetAll(ctx context.Context, opts person.ListOptions) ([]*person.Person, error) {
	query, args := r.buildListQuery(opts, "", nil)
	return r.queryPersons(ctx, query, args...)
}

// GetByStatus returns persons with the given status.
func (r *PersonRepository) GetByStatus(ctx context.Context, status person.Status, opts person.ListOptions) ([]*person.Person, error) {
	query, args := r.buildListQuery(opts, "status = $%d", []interface{}{string(status)})
	return r.queryPersons(ctx, query, args...)
}

// GetByBand returns persons in the given age band.
func (r *PersonRepository) GetByBand(ctx context.Context, band person.Band, opts person.ListOptions) ([]*person.Person, error) {
	query, args := r.buildListQuery(opts, "band = $%d", []interface{}{band.String()})
	return r.queryPersons(ctx, query, args...)
}

// GetByIDs returns persons by a list of IDs. Unknown IDs are silently
// omitted from the result.
func (r *PersonRepository) GetByIDs(ctx context.Context, ids []string) ([]*person.Person, error) {
	if len(ids) == 0 {
		return []*person.Person{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT %s FROM persons WHERE id IN (%s)`,
		personColumns, strings.Join(placeholders, ", "))

	return r.queryPersons(ctx, query, args...)
}

// GetPendingDeletion returns persons with an open deletion request.
func (r *PersonRepository) GetPendingDeletion(ctx context.Context) ([]*person.Person, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM persons
		WHERE deletion_requested AND status != 'deleted'
		ORDER BY LOWER(full_name) ASC
	`, personColumns)

	return r.queryPersons(ctx, query)
}

// Count returns the number of enrolled persons.
func (r *PersonRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM persons WHERE status != 'deleted'",
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count persons: %w", err)
	}
	return count, nil
}

// CountByStatus returns the number of persons with the given status.
func (r *PersonRepository) CountByStatus(ctx context.Context, status person.Status) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM persons WHERE status = $1",
		string(status),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count persons by status: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Search & Filter
// ─────────────────────────────────────────────────────────────────────────────

// Search searches persons by a case-insensitive name fragment.
func (r *PersonRepository) Search(ctx context.Context, query string, opts person.ListOptions) ([]*person.Person, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	sqlQuery := fmt.Sprintf(`
		SELECT %s FROM persons
		WHERE LOWER(full_name) LIKE $1 AND status != 'deleted'
	`, personColumns)

	if !opts.IncludeInactive {
		sqlQuery += " AND status = 'active'"
	}
	sqlQuery += r.buildOrderBy(opts)

	return r.queryPersons(ctx, sqlQuery, pattern)
}

// GetByFamilyKey returns all enrolled persons sharing a family key.
func (r *PersonRepository) GetByFamilyKey(ctx context.Context, familyKey string) ([]*person.Person, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM persons
		WHERE family_key = $1 AND status != 'deleted'
		ORDER BY LOWER(full_name) ASC
	`, personColumns)

	return r.queryPersons(ctx, query, familyKey)
}

// Exists checks if a person exists by ID.
func (r *PersonRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM persons WHERE id = $1)",
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check person existence: %w", err)
	}
	return exists, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

// scanPerson scans a single person from a row.
func (r *PersonRepository) scanPerson(row pgx.Row) (*person.Person, error) {
	var p person.Person
	var fullName, band, status string

	err := row.Scan(
		&p.ID,
		&fullName,
		&p.BirthDate,
		&p.BirthDateApproximate,
		&band,
		&p.FamilyKey,
		&p.GuardianName,
		&p.ContactPhone,
		&p.Notes,
		&status,
		&p.DeletionRequested,
		&p.RegisteredAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, person.ErrPersonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan person: %w", err)
	}

	p.FullName = person.FullName(fullName)
	p.Status = person.Status(status)
	p.Band, err = person.ParseBand(band)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored band: %w", err)
	}
	p.BirthDate = p.BirthDate.UTC()

	return &p, nil
}

// queryPersons executes a query and scans all resulting persons.
func (r *PersonRepository) queryPersons(ctx context.Context, query string, args ...interface{}) ([]*person.Person, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query persons: %w", err)
	}
	defer rows.Close()

	var persons []*person.Person
	for rows.Next() {
		p, err := r.scanPerson(rows)
		if err != nil {
			return nil, err
		}
		persons = append(persons, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return persons, nil
}

// buildListQuery builds a SELECT query with filters, ordering and
// pagination. The where clause may contain a single $%d placeholder that
// is numbered after the pagination arguments.
func (r *PersonRepository) buildListQuery(opts person.ListOptions, whereClause string, whereArgs []interface{}) (string, []interface{}) {
	query := fmt.Sprintf(`SELECT %s FROM persons`, personColumns)
	var args []interface{}

	conditions := []string{"status != 'deleted'"}
	if !opts.IncludeInactive {
		conditions = append(conditions, "status = 'active'")
	}
	if whereClause != "" {
		args = append(args, whereArgs...)
		conditions = append(conditions, fmt.Sprintf(whereClause, len(args)))
	}

	query += " WHERE " + strings.Join(conditions, " AND ")
	query += r.buildOrderBy(opts)

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return query, args
}

// buildOrderBy builds the ORDER BY clause.
func (r *PersonRepository) buildOrderBy(opts person.ListOptions) string {
	orderField := "LOWER(full_name)"
	validFields := map[string]string{
		"full_name":     "LOWER(full_name)",
		"name":          "LOWER(full_name)",
		"birth_date":    "birth_date",
		"band":          "band",
		"family_key":    "family_key",
		"registered_at": "registered_at",
		"created_at":    "created_at",
	}

	if field, ok := validFields[opts.SortBy]; ok {
		orderField = field
	}

	direction := "ASC"
	if opts.SortDesc {
		direction = "DESC"
	}

	return fmt.Sprintf(" ORDER BY %s %s", orderField, direction)
}
