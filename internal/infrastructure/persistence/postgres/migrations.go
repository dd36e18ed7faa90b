// Package postgres implements the PostgreSQL persistence layer for the
// roster hub.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE PERSONS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create persons table
-- Version: 001

CREATE TABLE IF NOT EXISTS persons (
    id UUID PRIMARY KEY,
    full_name VARCHAR(200) NOT NULL,
    birth_date DATE NOT NULL,
    birth_date_approximate BOOLEAN NOT NULL DEFAULT FALSE,
    band VARCHAR(30) NOT NULL,
    family_key VARCHAR(100) NOT NULL DEFAULT '',
    guardian_name VARCHAR(200) NOT NULL DEFAULT '',
    contact_phone VARCHAR(50) NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT '',
    status VARCHAR(20) NOT NULL DEFAULT 'active',
    deletion_requested BOOLEAN NOT NULL DEFAULT FALSE,
    registered_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    -- Constraints for data integrity
    CONSTRAINT valid_status CHECK (status IN ('active', 'inactive', 'deleted')),
    CONSTRAINT valid_band CHECK (band IN (
        'Genesis', 'Exodus', 'Psalms', 'Proverbs', 'Revelation', 'High Schoolers'
    ))
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_persons_status ON persons(status);
CREATE INDEX IF NOT EXISTS idx_persons_band ON persons(band);
CREATE INDEX IF NOT EXISTS idx_persons_family_key ON persons(family_key) WHERE family_key != '';
CREATE INDEX IF NOT EXISTS idx_persons_full_name ON persons(LOWER(full_name));
CREATE INDEX IF NOT EXISTS idx_persons_deletion_requested ON persons(deletion_requested) WHERE deletion_requested;
`

const migration001Down = `
DROP TABLE IF EXISTS persons;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE ATTENDANCE RECORDS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create attendance_records table
-- Version: 002

-- One row per child per Sunday session. Absence of a row means absence
-- at the session, so only explicit marks are stored.
CREATE TABLE IF NOT EXISTS attendance_records (
    person_id UUID NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
    session_date DATE NOT NULL,
    present BOOLEAN NOT NULL,
    marked_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (person_id, session_date)
);

CREATE INDEX IF NOT EXISTS idx_attendance_session_date ON attendance_records(session_date);
CREATE INDEX IF NOT EXISTS idx_attendance_present ON attendance_records(session_date) WHERE present;
`

const migration002Down = `
DROP TABLE IF EXISTS attendance_records;
`
