package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/darbify/schoolbus-backend/module/trips/domain"
	"github.com/darbify/schoolbus-backend/module/trips/internal/repository/database"
	"github.com/darbify/schoolbus-backend/module/trips/internal/repository/publisher"
)

// TripService guards trip lifecycle transitions and driver-reported stop
// events. Only the assigned driver may act on a trip.
type TripService struct {
	trips     database.TripRepository
	events    database.EventRepository
	publisher publisher.NotificationPublisher
}

func NewTripService(trips database.TripRepository, events database.EventRepository, pub publisher.NotificationPublisher) *TripService {
	return &TripService{trips: trips, events: events, publisher: pub}
}

// Start moves a scheduled trip to in_progress. The status flip is a single
// conditional update, so two concurrent calls cannot both succeed.
func (s *TripService) Start(ctx context.Context, tripID, driverID string) (*domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.DriverID != driverID {
		return nil, domain.ErrNotTripDriver
	}
	if trip.Status != domain.TripScheduled {
		return nil, fmt.Errorf("%w: status is %q", domain.ErrTripStateConflict, trip.Status)
	}

	changed, err := s.trips.MarkStarted(ctx, tripID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("start trip: %w", err)
	}
	if !changed {
		// lost the race to a concurrent start
		return nil, fmt.Errorf("%w: trip is no longer scheduled", domain.ErrTripStateConflict)
	}

	return s.trips.GetByID(ctx, tripID)
}

// Finish moves an in_progress trip to completed.
func (s *TripService) Finish(ctx context.Context, tripID, driverID string) (*domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.DriverID != driverID {
		return nil, domain.ErrNotTripDriver
	}
	if trip.Status != domain.TripInProgress {
		return nil, fmt.Errorf("%w: status is %q", domain.ErrTripStateConflict, trip.Status)
	}

	changed, err := s.trips.MarkFinished(ctx, tripID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("finish trip: %w", err)
	}
	if !changed {
		return nil, fmt.Errorf("%w: trip is no longer in progress", domain.ErrTripStateConflict)
	}

	return s.trips.GetByID(ctx, tripID)
}

// RecordStopEvent appends a driver-reported event (arrived, picked_up or
// absent) to the trip's event log and forwards it to the notification
// pipeline.
func (s *TripService) RecordStopEvent(ctx context.Context, tripID, driverID string, stopID, studentID string, kind domain.EventType) (*domain.Event, error) {
	if !domain.DriverEventTypes[kind] {
		return nil, domain.ErrInvalidEventType
	}

	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.DriverID != driverID {
		return nil, domain.ErrNotTripDriver
	}

	ev := &domain.Event{
		ID:        uuid.NewString(),
		TripID:    tripID,
		StudentID: &studentID,
		Type:      kind,
		Meta:      map[string]any{"created_by": "driver"},
		CreatedAt: time.Now().UTC(),
	}
	if stopID != "" {
		ev.StopID = &stopID
	}

	if err := s.events.Insert(ctx, ev); err != nil {
		return nil, fmt.Errorf("record %s event: %w", kind, err)
	}

	if err := s.publisher.PublishEvent(ctx, ev); err != nil {
		log.Printf("trip: publish %s event for trip %s: %v", kind, tripID, err)
	}
	return ev, nil
}
