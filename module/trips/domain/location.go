package domain

import "time"

type LocationSample struct {
	TripID    string    `json:"trip_id"`
	BusID     string    `json:"bus_id"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Speed     float64   `json:"speed"`
	Timestamp time.Time `json:"timestamp"`
}
