package domain

import "time"

type TripStatus string

const (
	TripScheduled  TripStatus = "scheduled"
	TripInProgress TripStatus = "in_progress"
	TripCompleted  TripStatus = "completed"
)

type Trip struct {
	ID         string     `json:"id"`
	RouteID    string     `json:"route_id"`
	BusID      string     `json:"bus_id"`
	DriverID   string     `json:"driver_id"`
	Status     TripStatus `json:"status"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
