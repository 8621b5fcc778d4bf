package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/darbify/schoolbus-backend/module/trips/domain"
	"github.com/darbify/schoolbus-backend/module/trips/internal/metrics"
	"github.com/darbify/schoolbus-backend/module/trips/internal/repository/database"
)

// geofenceDispatcher accepts evaluation work without blocking the caller.
type geofenceDispatcher interface {
	Submit(sample *domain.LocationSample) bool
}

type LocationService struct {
	trips      database.TripRepository
	locations  database.LocationRepository
	dispatcher geofenceDispatcher
	metrics    *metrics.Collector
}

func NewLocationService(trips database.TripRepository, locations database.LocationRepository, dispatcher geofenceDispatcher, col *metrics.Collector) *LocationService {
	return &LocationService{trips: trips, locations: locations, dispatcher: dispatcher, metrics: col}
}

// Ingest records one sample for an active trip and hands geofence evaluation
// to the dispatcher. The evaluation runs after Ingest returns; its failures
// never reach the caller. An empty driverID marks broker telemetry, which is
// trusted; otherwise the trip must belong to the caller.
func (s *LocationService) Ingest(ctx context.Context, tripID, driverID string, lat, lng, speed float64) error {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	if driverID != "" && trip.DriverID != driverID {
		return domain.ErrNotTripDriver
	}
	if trip.Status != domain.TripInProgress {
		return fmt.Errorf("%w: status is %q", domain.ErrTripNotActive, trip.Status)
	}

	sample := &domain.LocationSample{
		TripID:    tripID,
		BusID:     trip.BusID,
		Lat:       lat,
		Lng:       lng,
		Speed:     speed,
		Timestamp: time.Now().UTC(),
	}

	if err := s.locations.Insert(ctx, sample); err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	s.metrics.LocationIngested()

	if !s.dispatcher.Submit(sample) {
		log.Printf("location: geofence queue full, dropping evaluation for trip %s", tripID)
	}
	return nil
}

func (s *LocationService) GetLatest(ctx context.Context, tripID string) (*domain.LocationSample, error) {
	return s.locations.GetLatest(ctx, tripID)
}

func (s *LocationService) GetHistory(ctx context.Context, tripID string, start, end time.Time) ([]domain.LocationSample, error) {
	return s.locations.GetHistory(ctx, tripID, start, end)
}
