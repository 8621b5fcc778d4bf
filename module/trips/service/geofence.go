package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/darbify/schoolbus-backend/module/trips/domain"
	"github.com/darbify/schoolbus-backend/module/trips/internal/metrics"
	"github.com/darbify/schoolbus-backend/module/trips/internal/repository/database"
	"github.com/darbify/schoolbus-backend/module/trips/internal/repository/publisher"
)

const earthRadiusMeters = 6371000

// DefaultApproachRadiusMeters is used when no settings override exists.
const DefaultApproachRadiusMeters = 200

// PendingEvent is a derived event the evaluator decided should exist but
// that has not been persisted yet.
type PendingEvent struct {
	TripID    string
	StopID    *string
	StudentID *string
	Type      domain.EventType
	Meta      map[string]any
}

// Evaluate runs both proximity checks over a snapshot and returns the events
// that should be emitted for this sample. It performs no I/O.
func Evaluate(snap *TripSnapshot, sample *domain.LocationSample) []PendingEvent {
	var pending []PendingEvent

	if next := NextStop(snap.Stops, snap.Events); next != nil {
		d := haversine(sample.Lat, sample.Lng, next.Lat, next.Lng)
		if d <= snap.ApproachRadius && !hasStopEvent(snap.Events, next.ID, domain.EventApproaching) {
			stopID := next.ID
			studentID := next.StudentID
			pending = append(pending, PendingEvent{
				TripID:    snap.Trip.ID,
				StopID:    &stopID,
				StudentID: &studentID,
				Type:      domain.EventApproaching,
				Meta:      map[string]any{"distance": math.Round(d)},
			})
		}
	}

	if snap.School != nil {
		d := haversine(sample.Lat, sample.Lng, snap.School.Lat, snap.School.Lng)
		if d <= snap.School.RadiusM && !hasTripEvent(snap.Events, domain.EventSchoolEntered) {
			pending = append(pending, PendingEvent{
				TripID: snap.Trip.ID,
				Type:   domain.EventSchoolEntered,
				Meta:   map[string]any{"school_radius_m": snap.School.RadiusM},
			})
		}
	}

	return pending
}

type GeofenceService struct {
	trips     database.TripRepository
	routes    database.RouteRepository
	events    database.EventRepository
	settings  database.SettingsRepository
	publisher publisher.NotificationPublisher
	metrics   *metrics.Collector

	defaultRadius float64
}

func NewGeofenceService(
	trips database.TripRepository,
	routes database.RouteRepository,
	events database.EventRepository,
	settings database.SettingsRepository,
	pub publisher.NotificationPublisher,
	col *metrics.Collector,
	defaultRadius float64,
) *GeofenceService {
	if defaultRadius <= 0 {
		defaultRadius = DefaultApproachRadiusMeters
	}
	return &GeofenceService{
		trips:         trips,
		routes:        routes,
		events:        events,
		settings:      settings,
		publisher:     pub,
		metrics:       col,
		defaultRadius: defaultRadius,
	}
}

// Snapshot fetches the trip context needed for one evaluation pass.
func (s *GeofenceService) Snapshot(ctx context.Context, tripID string) (*TripSnapshot, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("load trip: %w", err)
	}

	stops, err := s.routes.StopsByRoute(ctx, trip.RouteID)
	if err != nil {
		return nil, fmt.Errorf("load stops: %w", err)
	}

	school, err := s.routes.SchoolByRoute(ctx, trip.RouteID)
	if err != nil {
		return nil, fmt.Errorf("load school: %w", err)
	}

	events, err := s.events.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	radius := s.defaultRadius
	if override, ok, err := s.settings.ApproachRadiusMeters(ctx); err != nil {
		log.Printf("geofence: settings read failed, using default radius: %v", err)
	} else if ok {
		radius = override
	}

	return &TripSnapshot{
		Trip:           trip,
		Stops:          stops,
		School:         school,
		ApproachRadius: radius,
		Events:         events,
	}, nil
}

// Process evaluates one sample and emits the resulting events. The stop and
// school emissions are independent: one failing or turning out to be a
// duplicate never suppresses the other. Emission failures are logged, not
// returned, since the next sample re-evaluates the same unresolved stop.
func (s *GeofenceService) Process(ctx context.Context, sample *domain.LocationSample) error {
	snap, err := s.Snapshot(ctx, sample.TripID)
	if err != nil {
		return err
	}

	pending := Evaluate(snap, sample)
	if len(pending) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	for _, pe := range pending {
		wg.Add(1)
		go func(pe PendingEvent) {
			defer wg.Done()
			s.emit(ctx, pe)
		}(pe)
	}
	wg.Wait()
	return nil
}

func (s *GeofenceService) emit(ctx context.Context, pe PendingEvent) {
	ev := &domain.Event{
		ID:        uuid.NewString(),
		TripID:    pe.TripID,
		StopID:    pe.StopID,
		StudentID: pe.StudentID,
		Type:      pe.Type,
		Meta:      pe.Meta,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.events.Insert(ctx, ev); err != nil {
		if errors.Is(err, domain.ErrDuplicateEvent) {
			s.metrics.EventDuplicate(string(pe.Type))
			return
		}
		s.metrics.EventFailed(string(pe.Type))
		log.Printf("geofence: insert %s event for trip %s: %v", pe.Type, pe.TripID, err)
		return
	}
	s.metrics.EventEmitted(string(pe.Type))

	if err := s.publisher.PublishEvent(ctx, ev); err != nil {
		log.Printf("geofence: publish %s event for trip %s: %v", pe.Type, pe.TripID, err)
	}
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
