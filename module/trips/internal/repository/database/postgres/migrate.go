package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate applies the schema. Statements are idempotent so the server can
// run it on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS schools (
			id UUID PRIMARY KEY,
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			radius_m DOUBLE PRECISION NOT NULL DEFAULT 100
		)`,
		`CREATE TABLE IF NOT EXISTS routes (
			id UUID PRIMARY KEY,
			school_id UUID REFERENCES schools(id)
		)`,
		`CREATE TABLE IF NOT EXISTS route_stops (
			id UUID PRIMARY KEY,
			route_id UUID NOT NULL REFERENCES routes(id),
			student_id UUID NOT NULL,
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			sequence INTEGER NOT NULL,
			UNIQUE (route_id, sequence)
		)`,
		`CREATE TABLE IF NOT EXISTS trips (
			id UUID PRIMARY KEY,
			route_id UUID NOT NULL REFERENCES routes(id),
			bus_id UUID NOT NULL,
			driver_id UUID NOT NULL,
			status TEXT NOT NULL DEFAULT 'scheduled',
			started_at TIMESTAMPTZ,
			finished_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS locations (
			id BIGSERIAL PRIMARY KEY,
			trip_id UUID NOT NULL REFERENCES trips(id),
			bus_id UUID NOT NULL,
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			speed DOUBLE PRECISION NOT NULL DEFAULT 0,
			ts TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS locations_trip_ts ON locations (trip_id, ts DESC)`,
		`CREATE TABLE IF NOT EXISTS events (
			id UUID PRIMARY KEY,
			trip_id UUID NOT NULL REFERENCES trips(id),
			stop_id UUID REFERENCES route_stops(id),
			student_id UUID,
			event_type TEXT NOT NULL,
			meta JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		// At-most-once guarantee for derived events under concurrent
		// samples. stop_id is coalesced so school_entered (stop_id NULL)
		// participates too.
		`CREATE UNIQUE INDEX IF NOT EXISTS events_derived_once
			ON events (trip_id, COALESCE(stop_id, '00000000-0000-0000-0000-000000000000'::uuid), event_type)
			WHERE event_type IN ('approaching', 'school_entered')`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS parents_students (
			parent_id UUID NOT NULL,
			student_id UUID NOT NULL,
			PRIMARY KEY (parent_id, student_id)
		)`,
		`CREATE TABLE IF NOT EXISTS attendance_confirmations (
			student_id UUID NOT NULL,
			parent_id UUID NOT NULL,
			trip_date DATE NOT NULL,
			status TEXT NOT NULL DEFAULT 'no_response',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (student_id, trip_date)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
