package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/darbify/schoolbus-backend/module/trips/domain"
	"github.com/darbify/schoolbus-backend/module/trips/internal/repository/database"
)

var _ database.AttendanceRepository = (*AttendanceRepo)(nil)

type AttendanceRepo struct {
	db *sql.DB
}

func NewAttendanceRepo(db *sql.DB) *AttendanceRepo {
	return &AttendanceRepo{db: db}
}

func (r *AttendanceRepo) IsParentLinked(ctx context.Context, parentID, studentID string) (bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM parents_students WHERE parent_id = $1 AND student_id = $2)`,
		parentID, studentID,
	)
	var linked bool
	if err := row.Scan(&linked); err != nil {
		return false, err
	}
	return linked, nil
}

func (r *AttendanceRepo) UpdateStatus(ctx context.Context, studentID, tripDate string, status domain.AttendanceStatus, at time.Time) (*domain.AttendanceConfirmation, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE attendance_confirmations SET status = $3, updated_at = $4
		 WHERE student_id = $1 AND trip_date = $2
		 RETURNING student_id, parent_id, trip_date, status, updated_at`,
		studentID, tripDate, status, at,
	)

	var c domain.AttendanceConfirmation
	var date time.Time
	if err := row.Scan(&c.StudentID, &c.ParentID, &date, &c.Status, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAttendanceNotSeeded
		}
		return nil, err
	}
	c.TripDate = date.Format("2006-01-02")
	return &c, nil
}

// SeedDay inserts a no_response row per parent/student link for the date.
// ON CONFLICT DO NOTHING keeps the daily job idempotent.
func (r *AttendanceRepo) SeedDay(ctx context.Context, tripDate string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO attendance_confirmations (student_id, parent_id, trip_date, status, updated_at)
		 SELECT ps.student_id, ps.parent_id, $1, 'no_response', NOW()
		 FROM parents_students ps
		 ON CONFLICT (student_id, trip_date) DO NOTHING`,
		tripDate,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
