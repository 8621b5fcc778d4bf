package service

import (
	"sort"

	"github.com/darbify/schoolbus-backend/module/trips/domain"
)

// TripSnapshot is everything geofence evaluation needs, fetched up front so
// the decision itself runs without touching the datastore.
type TripSnapshot struct {
	Trip           *domain.Trip
	Stops          []domain.RouteStop // ascending by sequence
	School         *domain.School     // nil when the route has no school
	ApproachRadius float64            // meters
	Events         []domain.Event     // all events recorded for the trip so far
}

// NextStop returns the first stop, in sequence order, that has no terminal
// event (picked_up or absent) attached. Nil when every stop is resolved or
// there are no stops.
func NextStop(stops []domain.RouteStop, events []domain.Event) *domain.RouteStop {
	resolved := make(map[string]bool, len(events))
	for _, ev := range events {
		if ev.StopID != nil && domain.TerminalStopEvent(ev.Type) {
			resolved[*ev.StopID] = true
		}
	}

	ordered := make([]domain.RouteStop, len(stops))
	copy(ordered, stops)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Sequence < ordered[j].Sequence })

	for i := range ordered {
		if !resolved[ordered[i].ID] {
			return &ordered[i]
		}
	}
	return nil
}

func hasStopEvent(events []domain.Event, stopID string, t domain.EventType) bool {
	for _, ev := range events {
		if ev.Type == t && ev.StopID != nil && *ev.StopID == stopID {
			return true
		}
	}
	return false
}

func hasTripEvent(events []domain.Event, t domain.EventType) bool {
	for _, ev := range events {
		if ev.Type == t {
			return true
		}
	}
	return false
}
