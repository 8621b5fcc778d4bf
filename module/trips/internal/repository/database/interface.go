package database

import (
	"context"
	"time"

	"github.com/darbify/schoolbus-backend/module/trips/domain"
)

type TripRepository interface {
	GetByID(ctx context.Context, tripID string) (*domain.Trip, error)
	// MarkStarted flips scheduled -> in_progress as a single conditional
	// update and reports whether a row changed.
	MarkStarted(ctx context.Context, tripID string, at time.Time) (bool, error)
	// MarkFinished flips in_progress -> completed, same contract.
	MarkFinished(ctx context.Context, tripID string, at time.Time) (bool, error)
}

type RouteRepository interface {
	StopsByRoute(ctx context.Context, routeID string) ([]domain.RouteStop, error)
	SchoolByRoute(ctx context.Context, routeID string) (*domain.School, error)
}

type EventRepository interface {
	ListByTrip(ctx context.Context, tripID string) ([]domain.Event, error)
	// Insert appends one event. For derived kinds it returns
	// domain.ErrDuplicateEvent when the (trip, stop, kind) tuple already
	// exists.
	Insert(ctx context.Context, ev *domain.Event) error
}

type LocationRepository interface {
	Insert(ctx context.Context, loc *domain.LocationSample) error
	GetLatest(ctx context.Context, tripID string) (*domain.LocationSample, error)
	GetHistory(ctx context.Context, tripID string, start, end time.Time) ([]domain.LocationSample, error)
}

type SettingsRepository interface {
	// ApproachRadiusMeters returns the configured radius and whether an
	// override is present.
	ApproachRadiusMeters(ctx context.Context) (float64, bool, error)
}

type AttendanceRepository interface {
	IsParentLinked(ctx context.Context, parentID, studentID string) (bool, error)
	UpdateStatus(ctx context.Context, studentID, tripDate string, status domain.AttendanceStatus, at time.Time) (*domain.AttendanceConfirmation, error)
	SeedDay(ctx context.Context, tripDate string) (int64, error)
}
