package sqlstore

import (
	"context"
	"fmt"
)

// Table bootstrap. There is no migration framework: tables are created when
// missing and never altered.

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS leads (
		id                 VARCHAR PRIMARY KEY,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		intent             VARCHAR NOT NULL,
		industry           TEXT NOT NULL,
		amount_band        TEXT,
		cadence            TEXT,
		timeline           TEXT,
		strength_choice    TEXT,
		format             TEXT,
		packaging_goal     TEXT,
		ack_purity         BOOLEAN NOT NULL DEFAULT FALSE,
		notes              TEXT,
		companion_interest BOOLEAN NOT NULL DEFAULT FALSE,
		region_pref        TEXT,
		company            TEXT,
		contact_name       TEXT,
		email              TEXT,
		phone              TEXT,
		experience_level   TEXT,
		unknown_fields     JSONB,
		requirements       JSONB,
		score              INTEGER NOT NULL DEFAULT 0,
		status             TEXT NOT NULL DEFAULT 'new'
	)`,
	`CREATE TABLE IF NOT EXISTS partners (
		id                   VARCHAR PRIMARY KEY,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		company_name         TEXT NOT NULL,
		type                 VARCHAR NOT NULL,
		industries           JSONB NOT NULL,
		regions              JSONB NOT NULL,
		containers           JSONB NOT NULL,
		ppm_ranges           JSONB NOT NULL,
		moq_notes            TEXT,
		leadtime_range_weeks TEXT,
		certs_summary        TEXT,
		contact_email        TEXT,
		active               BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id         VARCHAR PRIMARY KEY,
		lead_id    VARCHAR NOT NULL REFERENCES leads(id),
		partner_id VARCHAR NOT NULL REFERENCES partners(id),
		matched_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		reason     TEXT
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS leads (
		id                 TEXT PRIMARY KEY,
		created_at         TEXT NOT NULL,
		intent             TEXT NOT NULL,
		industry           TEXT NOT NULL,
		amount_band        TEXT,
		cadence            TEXT,
		timeline           TEXT,
		strength_choice    TEXT,
		format             TEXT,
		packaging_goal     TEXT,
		ack_purity         INTEGER NOT NULL DEFAULT 0,
		notes              TEXT,
		companion_interest INTEGER NOT NULL DEFAULT 0,
		region_pref        TEXT,
		company            TEXT,
		contact_name       TEXT,
		email              TEXT,
		phone              TEXT,
		experience_level   TEXT,
		unknown_fields     TEXT,
		requirements       TEXT,
		score              INTEGER NOT NULL DEFAULT 0,
		status             TEXT NOT NULL DEFAULT 'new'
	)`,
	`CREATE TABLE IF NOT EXISTS partners (
		id                   TEXT PRIMARY KEY,
		created_at           TEXT NOT NULL,
		company_name         TEXT NOT NULL,
		type                 TEXT NOT NULL,
		industries           TEXT NOT NULL,
		regions              TEXT NOT NULL,
		containers           TEXT NOT NULL,
		ppm_ranges           TEXT NOT NULL,
		moq_notes            TEXT,
		leadtime_range_weeks TEXT,
		certs_summary        TEXT,
		contact_email        TEXT,
		active               INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id         TEXT PRIMARY KEY,
		lead_id    TEXT NOT NULL REFERENCES leads(id),
		partner_id TEXT NOT NULL REFERENCES partners(id),
		matched_at TEXT NOT NULL,
		reason     TEXT
	)`,
}

// EnsureSchema creates the leads, partners and matches tables if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := sqliteSchema
	if s.dialect == DialectPostgres {
		stmts = postgresSchema
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
