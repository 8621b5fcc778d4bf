package domain

import "time"

type EventType string

const (
	EventApproaching   EventType = "approaching"
	EventPickedUp      EventType = "picked_up"
	EventAbsent        EventType = "absent"
	EventArrived       EventType = "arrived"
	EventSchoolEntered EventType = "school_entered"
)

// DriverEventTypes are the kinds a driver may report directly.
var DriverEventTypes = map[EventType]bool{
	EventArrived:  true,
	EventPickedUp: true,
	EventAbsent:   true,
}

// TerminalStopEvent reports whether t resolves a stop for progression
// purposes.
func TerminalStopEvent(t EventType) bool {
	return t == EventPickedUp || t == EventAbsent
}

type Event struct {
	ID        string         `json:"id"`
	TripID    string         `json:"trip_id"`
	StopID    *string        `json:"stop_id,omitempty"`
	StudentID *string        `json:"student_id,omitempty"`
	Type      EventType      `json:"event_type"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
