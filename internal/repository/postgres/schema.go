package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is applied at startup. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS clinics (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		location TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('patient', 'doctor')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS accounts_email_key ON accounts (lower(email))`,
	`CREATE TABLE IF NOT EXISTS doctors (
		account_id UUID PRIMARY KEY REFERENCES accounts(id) ON DELETE CASCADE,
		clinic_id UUID NOT NULL REFERENCES clinics(id),
		specialty TEXT NOT NULL,
		all_time TEXT[] NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS doctors_clinic_specialty_idx ON doctors (clinic_id, specialty)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id UUID PRIMARY KEY,
		doctor_id UUID NOT NULL REFERENCES doctors(account_id),
		patient_id UUID NOT NULL REFERENCES accounts(id),
		patient_email TEXT NOT NULL,
		slot TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT bookings_doctor_slot_key UNIQUE (doctor_id, slot)
	)`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
		id UUID PRIMARY KEY,
		event_type TEXT NOT NULL,
		payload JSONB NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		error_message TEXT,
		retry_count INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		processed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS outbox_events_status_idx ON outbox_events (status, created_at)`,
}

// Migrate creates the tables the repositories need.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
