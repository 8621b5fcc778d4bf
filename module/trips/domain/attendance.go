package domain

import "time"

type AttendanceStatus string

const (
	AttendanceNoResponse AttendanceStatus = "no_response"
	AttendanceConfirmed  AttendanceStatus = "confirmed"
	AttendanceAbsent     AttendanceStatus = "absent"
)

type AttendanceConfirmation struct {
	StudentID string           `json:"student_id"`
	ParentID  string           `json:"parent_id"`
	TripDate  string           `json:"trip_date"` // YYYY-MM-DD
	Status    AttendanceStatus `json:"status"`
	UpdatedAt time.Time        `json:"updated_at"`
}
