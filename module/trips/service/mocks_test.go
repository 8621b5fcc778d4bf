package service

import (
	"context"
	"sync"
	"time"

	"github.com/darbify/schoolbus-backend/module/trips/domain"
)

type mockTripRepo struct {
	getByIDFn      func(ctx context.Context, tripID string) (*domain.Trip, error)
	markStartedFn  func(ctx context.Context, tripID string, at time.Time) (bool, error)
	markFinishedFn func(ctx context.Context, tripID string, at time.Time) (bool, error)
}

func (m *mockTripRepo) GetByID(ctx context.Context, tripID string) (*domain.Trip, error) {
	return m.getByIDFn(ctx, tripID)
}

func (m *mockTripRepo) MarkStarted(ctx context.Context, tripID string, at time.Time) (bool, error) {
	return m.markStartedFn(ctx, tripID, at)
}

func (m *mockTripRepo) MarkFinished(ctx context.Context, tripID string, at time.Time) (bool, error) {
	return m.markFinishedFn(ctx, tripID, at)
}

type mockRouteRepo struct {
	stopsFn  func(ctx context.Context, routeID string) ([]domain.RouteStop, error)
	schoolFn func(ctx context.Context, routeID string) (*domain.School, error)
}

func (m *mockRouteRepo) StopsByRoute(ctx context.Context, routeID string) ([]domain.RouteStop, error) {
	return m.stopsFn(ctx, routeID)
}

func (m *mockRouteRepo) SchoolByRoute(ctx context.Context, routeID string) (*domain.School, error) {
	return m.schoolFn(ctx, routeID)
}

type mockEventRepo struct {
	mu       sync.Mutex
	listFn   func(ctx context.Context, tripID string) ([]domain.Event, error)
	insertFn func(ctx context.Context, ev *domain.Event) error
	inserted []*domain.Event
}

func (m *mockEventRepo) ListByTrip(ctx context.Context, tripID string) ([]domain.Event, error) {
	if m.listFn != nil {
		return m.listFn(ctx, tripID)
	}
	return nil, nil
}

func (m *mockEventRepo) Insert(ctx context.Context, ev *domain.Event) error {
	m.mu.Lock()
	m.inserted = append(m.inserted, ev)
	m.mu.Unlock()
	if m.insertFn != nil {
		return m.insertFn(ctx, ev)
	}
	return nil
}

func (m *mockEventRepo) insertedEvents() []*domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Event, len(m.inserted))
	copy(out, m.inserted)
	return out
}

type mockSettingsRepo struct {
	radiusFn func(ctx context.Context) (float64, bool, error)
}

func (m *mockSettingsRepo) ApproachRadiusMeters(ctx context.Context) (float64, bool, error) {
	if m.radiusFn != nil {
		return m.radiusFn(ctx)
	}
	return 0, false, nil
}

type mockPublisher struct {
	mu        sync.Mutex
	publishFn func(ctx context.Context, ev *domain.Event) error
	published []*domain.Event
}

func (m *mockPublisher) PublishEvent(ctx context.Context, ev *domain.Event) error {
	m.mu.Lock()
	m.published = append(m.published, ev)
	m.mu.Unlock()
	if m.publishFn != nil {
		return m.publishFn(ctx, ev)
	}
	return nil
}

func (m *mockPublisher) publishedEvents() []*domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Event, len(m.published))
	copy(out, m.published)
	return out
}

type mockLocationRepo struct {
	insertFn     func(ctx context.Context, loc *domain.LocationSample) error
	getLatestFn  func(ctx context.Context, tripID string) (*domain.LocationSample, error)
	getHistoryFn func(ctx context.Context, tripID string, start, end time.Time) ([]domain.LocationSample, error)
}

func (m *mockLocationRepo) Insert(ctx context.Context, loc *domain.LocationSample) error {
	return m.insertFn(ctx, loc)
}

func (m *mockLocationRepo) GetLatest(ctx context.Context, tripID string) (*domain.LocationSample, error) {
	return m.getLatestFn(ctx, tripID)
}

func (m *mockLocationRepo) GetHistory(ctx context.Context, tripID string, start, end time.Time) ([]domain.LocationSample, error) {
	return m.getHistoryFn(ctx, tripID, start, end)
}

type mockDispatcher struct {
	mu        sync.Mutex
	submitted []*domain.LocationSample
	full      bool
}

func (m *mockDispatcher) Submit(sample *domain.LocationSample) bool {
	if m.full {
		return false
	}
	m.mu.Lock()
	m.submitted = append(m.submitted, sample)
	m.mu.Unlock()
	return true
}

type mockAttendanceRepo struct {
	isLinkedFn     func(ctx context.Context, parentID, studentID string) (bool, error)
	updateStatusFn func(ctx context.Context, studentID, tripDate string, status domain.AttendanceStatus, at time.Time) (*domain.AttendanceConfirmation, error)
	seedDayFn      func(ctx context.Context, tripDate string) (int64, error)
}

func (m *mockAttendanceRepo) IsParentLinked(ctx context.Context, parentID, studentID string) (bool, error) {
	return m.isLinkedFn(ctx, parentID, studentID)
}

func (m *mockAttendanceRepo) UpdateStatus(ctx context.Context, studentID, tripDate string, status domain.AttendanceStatus, at time.Time) (*domain.AttendanceConfirmation, error) {
	return m.updateStatusFn(ctx, studentID, tripDate, status, at)
}

func (m *mockAttendanceRepo) SeedDay(ctx context.Context, tripDate string) (int64, error) {
	return m.seedDayFn(ctx, tripDate)
}
