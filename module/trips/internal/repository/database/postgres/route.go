package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/darbify/schoolbus-backend/module/trips/domain"
	"github.com/darbify/schoolbus-backend/module/trips/internal/repository/database"
)

var _ database.RouteRepository = (*RouteRepo)(nil)

type RouteRepo struct {
	db *sql.DB
}

func NewRouteRepo(db *sql.DB) *RouteRepo {
	return &RouteRepo{db: db}
}

func (r *RouteRepo) StopsByRoute(ctx context.Context, routeID string) ([]domain.RouteStop, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, route_id, student_id, lat, lng, sequence FROM route_stops WHERE route_id = $1 ORDER BY sequence ASC`,
		routeID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var stops []domain.RouteStop
	for rows.Next() {
		var s domain.RouteStop
		if err := rows.Scan(&s.ID, &s.RouteID, &s.StudentID, &s.Lat, &s.Lng, &s.Sequence); err != nil {
			return nil, err
		}
		stops = append(stops, s)
	}
	return stops, rows.Err()
}

// SchoolByRoute returns nil without error when the route has no school
// configured; geofencing then skips the school check.
func (r *RouteRepo) SchoolByRoute(ctx context.Context, routeID string) (*domain.School, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT s.id, s.lat, s.lng, s.radius_m FROM schools s JOIN routes rt ON rt.school_id = s.id WHERE rt.id = $1`,
		routeID,
	)

	var s domain.School
	if err := row.Scan(&s.ID, &s.Lat, &s.Lng, &s.RadiusM); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}
