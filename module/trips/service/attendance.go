package service

import (
	"context"
	"fmt"
	"time"

	"github.com/darbify/schoolbus-backend/module/trips/domain"
	"github.com/darbify/schoolbus-backend/module/trips/internal/repository/database"
)

type AttendanceService struct {
	attendance database.AttendanceRepository
}

func NewAttendanceService(attendance database.AttendanceRepository) *AttendanceService {
	return &AttendanceService{attendance: attendance}
}

// Confirm lets a linked parent answer the daily attendance check for one
// student. The row must already exist (seeded by SeedDay).
func (s *AttendanceService) Confirm(ctx context.Context, parentID, studentID, tripDate string, status domain.AttendanceStatus) (*domain.AttendanceConfirmation, error) {
	if status != domain.AttendanceConfirmed && status != domain.AttendanceAbsent {
		return nil, domain.ErrInvalidAttendance
	}

	linked, err := s.attendance.IsParentLinked(ctx, parentID, studentID)
	if err != nil {
		return nil, fmt.Errorf("check parent link: %w", err)
	}
	if !linked {
		return nil, domain.ErrNotLinkedParent
	}

	return s.attendance.UpdateStatus(ctx, studentID, tripDate, status, time.Now().UTC())
}

// SeedDay creates a no_response placeholder for every parent/student link
// for the given date. Safe to run repeatedly; existing rows are kept.
func (s *AttendanceService) SeedDay(ctx context.Context, tripDate string) (int64, error) {
	n, err := s.attendance.SeedDay(ctx, tripDate)
	if err != nil {
		return 0, fmt.Errorf("seed attendance for %s: %w", tripDate, err)
	}
	return n, nil
}
