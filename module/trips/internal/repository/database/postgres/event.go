package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/darbify/schoolbus-backend/module/trips/domain"
	"github.com/darbify/schoolbus-backend/module/trips/internal/repository/database"
)

var _ database.EventRepository = (*EventRepo)(nil)

type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

func (r *EventRepo) ListByTrip(ctx context.Context, tripID string) ([]domain.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, trip_id, stop_id, student_id, event_type, meta, created_at FROM events WHERE trip_id = $1 ORDER BY created_at ASC`,
		tripID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var events []domain.Event
	for rows.Next() {
		var ev domain.Event
		var stopID, studentID sql.NullString
		var meta []byte
		if err := rows.Scan(&ev.ID, &ev.TripID, &stopID, &studentID, &ev.Type, &meta, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if stopID.Valid {
			ev.StopID = &stopID.String
		}
		if studentID.Valid {
			ev.StudentID = &studentID.String
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &ev.Meta); err != nil {
				return nil, fmt.Errorf("decode event meta: %w", err)
			}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Insert relies on the events_derived_once unique index for duplicate
// protection under concurrent samples; a unique violation maps to
// domain.ErrDuplicateEvent.
func (r *EventRepo) Insert(ctx context.Context, ev *domain.Event) error {
	meta, err := json.Marshal(ev.Meta)
	if err != nil {
		return fmt.Errorf("encode event meta: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO events (id, trip_id, stop_id, student_id, event_type, meta, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.ID, ev.TripID, ev.StopID, ev.StudentID, ev.Type, meta, ev.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return domain.ErrDuplicateEvent
		}
		return err
	}
	return nil
}
