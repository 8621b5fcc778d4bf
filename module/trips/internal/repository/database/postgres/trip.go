package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/darbify/schoolbus-backend/module/trips/domain"
	"github.com/darbify/schoolbus-backend/module/trips/internal/repository/database"
)

var _ database.TripRepository = (*TripRepo)(nil)

type TripRepo struct {
	db *sql.DB
}

func NewTripRepo(db *sql.DB) *TripRepo {
	return &TripRepo{db: db}
}

func (r *TripRepo) GetByID(ctx context.Context, tripID string) (*domain.Trip, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, route_id, bus_id, driver_id, status, started_at, finished_at FROM trips WHERE id = $1`,
		tripID,
	)

	var t domain.Trip
	var started, finished sql.NullTime
	if err := row.Scan(&t.ID, &t.RouteID, &t.BusID, &t.DriverID, &t.Status, &started, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTripNotFound
		}
		return nil, err
	}
	if started.Valid {
		t.StartedAt = &started.Time
	}
	if finished.Valid {
		t.FinishedAt = &finished.Time
	}
	return &t, nil
}

func (r *TripRepo) MarkStarted(ctx context.Context, tripID string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE trips SET status = 'in_progress', started_at = $2 WHERE id = $1 AND status = 'scheduled'`,
		tripID, at,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *TripRepo) MarkFinished(ctx context.Context, tripID string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE trips SET status = 'completed', finished_at = $2 WHERE id = $1 AND status = 'in_progress'`,
		tripID, at,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}
