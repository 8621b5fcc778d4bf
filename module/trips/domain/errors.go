package domain

import "errors"

var (
	ErrTripNotFound      = errors.New("trip not found")
	ErrTripNotActive     = errors.New("trip is not in progress")
	ErrTripStateConflict = errors.New("trip status does not allow this transition")
	ErrNotTripDriver     = errors.New("trip does not belong to this driver")

	// ErrDuplicateEvent is returned when a derived event for the same
	// (trip, stop, kind) already exists. Emission treats it as a no-op.
	ErrDuplicateEvent = errors.New("event already recorded")

	ErrNotLinkedParent     = errors.New("parent is not linked to this student")
	ErrAttendanceNotSeeded = errors.New("attendance record not found for this date")
	ErrInvalidEventType    = errors.New("invalid event type")
	ErrInvalidAttendance   = errors.New("invalid attendance status")
)
