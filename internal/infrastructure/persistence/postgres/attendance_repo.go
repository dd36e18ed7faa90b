// Package postgres implements the PostgreSQL persistence layer for the
// roster hub.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/church-register/roster-hub/internal/domain/attendance"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AttendanceRepository implements attendance.Ledger for PostgreSQL.
// Only explicit marks are stored; a missing row means the child was
// absent at that session.
type AttendanceRepository struct {
	conn *Connection
}

// NewAttendanceRepository creates a new AttendanceRepository.
func NewAttendanceRepository(conn *Connection) *AttendanceRepository {
	return &AttendanceRepository{conn: conn}
}

// Mark records or overwrites the mark for one child at one session.
func (r *AttendanceRepository) Mark(ctx context.Context, rec *attendance.Record) error {
	query := `
		INSERT INTO attendance_records (person_id, session_date, present, marked_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (person_id, session_date) DO UPDATE SET
			present = EXCLUDED.present,
			marked_at = EXCLUDED.marked_at
	`

	_, err := r.conn.Exec(ctx, query,
		rec.PersonID,
		rec.SessionDate,
		rec.Present,
		rec.MarkedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to mark attendance: %w", err)
	}

	return nil
}

// Get returns the mark for one child at one session, or nil if the
// session was never marked for that child.
func (r *AttendanceRepository) Get(ctx context.Context, personID string, sessionDate time.Time) (*attendance.Record, error) {
	query := `
		SELECT person_id, session_date, present, marked_at
		FROM attendance_records
		WHERE person_id = $1 AND session_date = $2
	`

	row := r.conn.QueryRow(ctx, query, personID, sessionDate)
	rec, err := r.scanRecord(row)
	if IsNoRows(err) {
		return nil, nil
	}
	return rec, err
}

// GetForPerson returns all marks for one child within a date range.
func (r *AttendanceRepository) GetForPerson(ctx context.Context, personID string, from, to time.Time) ([]*attendance.Record, error) {
	query := `
		SELECT person_id, session_date, present, marked_at
		FROM attendance_records
		WHERE person_id = $1 AND session_date >= $2 AND session_date <= $3
		ORDER BY session_date ASC
	`

	return r.queryRecords(ctx, query, personID, from, to)
}

// GetRange returns all marks within a date range.
func (r *AttendanceRepository) GetRange(ctx context.Context, from, to time.Time) ([]*attendance.Record, error) {
	query := `
		SELECT person_id, session_date, present, marked_at
		FROM attendance_records
		WHERE session_date >= $1 AND session_date <= $2
		ORDER BY session_date ASC
	`

	return r.queryRecords(ctx, query, from, to)
}

// GetForSessions returns all marks for an explicit list of session dates.
func (r *AttendanceRepository) GetForSessions(ctx context.Context, sessions []time.Time) ([]*attendance.Record, error) {
	if len(sessions) == 0 {
		return []*attendance.Record{}, nil
	}

	placeholders := make([]string, len(sessions))
	args := make([]interface{}, len(sessions))
	for i, s := range sessions {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = s
	}

	query := fmt.Sprintf(`
		SELECT person_id, session_date, present, marked_at
		FROM attendance_records
		WHERE session_date IN (%s)
		ORDER BY session_date ASC
	`, strings.Join(placeholders, ", "))

	return r.queryRecords(ctx, query, args...)
}

// DeleteForPerson removes all marks for one child and returns how many
// rows were removed.
func (r *AttendanceRepository) DeleteForPerson(ctx context.Context, personID string) (int, error) {
	result, err := r.conn.Exec(ctx,
		"DELETE FROM attendance_records WHERE person_id = $1",
		personID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete attendance records: %w", err)
	}

	return int(result.RowsAffected()), nil
}

// CountPresent returns how many children were marked present at a session.
func (r *AttendanceRepository) CountPresent(ctx context.Context, sessionDate time.Time) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM attendance_records WHERE session_date = $1 AND present",
		sessionDate,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count present: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *AttendanceRepository) scanRecord(row pgx.Row) (*attendance.Record, error) {
	var rec attendance.Record

	err := row.Scan(
		&rec.PersonID,
		&rec.SessionDate,
		&rec.Present,
		&rec.MarkedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan attendance record: %w", err)
	}

	// DATE columns come back at midnight in the session's local zone;
	// the domain works in UTC midnights.
	rec.SessionDate = time.Date(
		rec.SessionDate.Year(), rec.SessionDate.Month(), rec.SessionDate.Day(),
		0, 0, 0, 0, time.UTC,
	)

	return &rec, nil
}

func (r *AttendanceRepository) queryRecords(ctx context.Context, query string, args ...interface{}) ([]*attendance.Record, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer rows.Close()

	var records []*attendance.Record
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}
