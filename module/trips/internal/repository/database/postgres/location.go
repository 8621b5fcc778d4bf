package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/darbify/schoolbus-backend/module/trips/domain"
	"github.com/darbify/schoolbus-backend/module/trips/internal/repository/database"
)

var _ database.LocationRepository = (*LocationRepo)(nil)

type LocationRepo struct {
	db *sql.DB
}

func NewLocationRepo(db *sql.DB) *LocationRepo {
	return &LocationRepo{db: db}
}

func (r *LocationRepo) Insert(ctx context.Context, loc *domain.LocationSample) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO locations (trip_id, bus_id, lat, lng, speed, ts) VALUES ($1, $2, $3, $4, $5, $6)`,
		loc.TripID, loc.BusID, loc.Lat, loc.Lng, loc.Speed, loc.Timestamp,
	)
	return err
}

func (r *LocationRepo) GetLatest(ctx context.Context, tripID string) (*domain.LocationSample, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT trip_id, bus_id, lat, lng, speed, ts FROM locations WHERE trip_id = $1 ORDER BY ts DESC LIMIT 1`,
		tripID,
	)

	var l domain.LocationSample
	if err := row.Scan(&l.TripID, &l.BusID, &l.Lat, &l.Lng, &l.Speed, &l.Timestamp); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LocationRepo) GetHistory(ctx context.Context, tripID string, start, end time.Time) ([]domain.LocationSample, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT trip_id, bus_id, lat, lng, speed, ts FROM locations WHERE trip_id = $1 AND ts >= $2 AND ts <= $3 ORDER BY ts ASC`,
		tripID, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.LocationSample
	for rows.Next() {
		var l domain.LocationSample
		if err := rows.Scan(&l.TripID, &l.BusID, &l.Lat, &l.Lng, &l.Speed, &l.Timestamp); err != nil {
			return nil, err
		}
		results = append(results, l)
	}
	return results, rows.Err()
}
