package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/darbify/schoolbus-backend/module/trips/domain"
)

const testSecret = "test-secret"

type mockTripService struct {
	startFn       func(ctx context.Context, tripID, driverID string) (*domain.Trip, error)
	finishFn      func(ctx context.Context, tripID, driverID string) (*domain.Trip, error)
	recordEventFn func(ctx context.Context, tripID, driverID, stopID, studentID string, kind domain.EventType) (*domain.Event, error)
}

func (m *mockTripService) Start(ctx context.Context, tripID, driverID string) (*domain.Trip, error) {
	return m.startFn(ctx, tripID, driverID)
}

func (m *mockTripService) Finish(ctx context.Context, tripID, driverID string) (*domain.Trip, error) {
	return m.finishFn(ctx, tripID, driverID)
}

func (m *mockTripService) RecordStopEvent(ctx context.Context, tripID, driverID, stopID, studentID string, kind domain.EventType) (*domain.Event, error) {
	return m.recordEventFn(ctx, tripID, driverID, stopID, studentID, kind)
}

type mockLocationService struct {
	ingestFn     func(ctx context.Context, tripID, driverID string, lat, lng, speed float64) error
	getLatestFn  func(ctx context.Context, tripID string) (*domain.LocationSample, error)
	getHistoryFn func(ctx context.Context, tripID string, start, end time.Time) ([]domain.LocationSample, error)
}

func (m *mockLocationService) Ingest(ctx context.Context, tripID, driverID string, lat, lng, speed float64) error {
	return m.ingestFn(ctx, tripID, driverID, lat, lng, speed)
}

func (m *mockLocationService) GetLatest(ctx context.Context, tripID string) (*domain.LocationSample, error) {
	return m.getLatestFn(ctx, tripID)
}

func (m *mockLocationService) GetHistory(ctx context.Context, tripID string, start, end time.Time) ([]domain.LocationSample, error) {
	return m.getHistoryFn(ctx, tripID, start, end)
}

func signToken(t *testing.T, userID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, authClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func setupRouter(tripSvc tripService, locationSvc locationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewTripHandler(tripSvc, locationSvc)
	h.Register(r.Group("", Auth(testSecret)))
	return r
}

func doRequest(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStartTrip_Success(t *testing.T) {
	tripSvc := &mockTripService{
		startFn: func(_ context.Context, tripID, driverID string) (*domain.Trip, error) {
			if driverID != "d1" {
				t.Fatalf("expected driver d1 from token, got %s", driverID)
			}
			return &domain.Trip{ID: tripID, DriverID: driverID, Status: domain.TripInProgress}, nil
		},
	}
	r := setupRouter(tripSvc, &mockLocationService{})

	w := doRequest(r, "POST", "/trips/t1/start", signToken(t, "d1", "driver"), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var trip domain.Trip
	if err := json.Unmarshal(w.Body.Bytes(), &trip); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if trip.Status != domain.TripInProgress {
		t.Errorf("expected in_progress, got %s", trip.Status)
	}
}

func TestStartTrip_NoToken(t *testing.T) {
	r := setupRouter(&mockTripService{}, &mockLocationService{})

	w := doRequest(r, "POST", "/trips/t1/start", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestStartTrip_ParentForbidden(t *testing.T) {
	r := setupRouter(&mockTripService{}, &mockLocationService{})

	w := doRequest(r, "POST", "/trips/t1/start", signToken(t, "p1", "parent"), nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestStartTrip_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", domain.ErrTripNotFound, http.StatusNotFound},
		{"wrong driver", domain.ErrNotTripDriver, http.StatusForbidden},
		{"state conflict", fmt.Errorf("%w: status is %q", domain.ErrTripStateConflict, "completed"), http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tripSvc := &mockTripService{
				startFn: func(_ context.Context, _, _ string) (*domain.Trip, error) { return nil, tc.err },
			}
			r := setupRouter(tripSvc, &mockLocationService{})

			w := doRequest(r, "POST", "/trips/t1/start", signToken(t, "d1", "driver"), nil)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestPushLocation_Accepted(t *testing.T) {
	var gotTripID string
	locationSvc := &mockLocationService{
		ingestFn: func(_ context.Context, tripID, driverID string, lat, lng, speed float64) error {
			gotTripID = tripID
			if driverID != "d1" {
				t.Fatalf("unexpected driver id: %q", driverID)
			}
			if lat != 24.7226 || lng != 46.6853 {
				t.Fatalf("unexpected coordinates: %f, %f", lat, lng)
			}
			return nil
		},
	}
	r := setupRouter(&mockTripService{}, locationSvc)

	body := map[string]any{"lat": 24.7226, "lng": 46.6853, "speed": 30}
	w := doRequest(r, "POST", "/trips/t1/location", signToken(t, "d1", "driver"), body)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if gotTripID != "t1" {
		t.Errorf("expected trip t1, got %s", gotTripID)
	}
}

func TestPushLocation_MissingCoordinates(t *testing.T) {
	r := setupRouter(&mockTripService{}, &mockLocationService{})

	w := doRequest(r, "POST", "/trips/t1/location", signToken(t, "d1", "driver"), map[string]any{"speed": 30})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestPushLocation_OutOfRange(t *testing.T) {
	r := setupRouter(&mockTripService{}, &mockLocationService{})

	body := map[string]any{"lat": 123.0, "lng": 46.6853}
	w := doRequest(r, "POST", "/trips/t1/location", signToken(t, "d1", "driver"), body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestPushLocation_TripNotActive(t *testing.T) {
	locationSvc := &mockLocationService{
		ingestFn: func(_ context.Context, _, _ string, _, _, _ float64) error {
			return fmt.Errorf("%w: status is %q", domain.ErrTripNotActive, "scheduled")
		},
	}
	r := setupRouter(&mockTripService{}, locationSvc)

	body := map[string]any{"lat": 24.7226, "lng": 46.6853}
	w := doRequest(r, "POST", "/trips/t1/location", signToken(t, "d1", "driver"), body)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestRecordEvent_Created(t *testing.T) {
	tripSvc := &mockTripService{
		recordEventFn: func(_ context.Context, tripID, driverID, stopID, studentID string, kind domain.EventType) (*domain.Event, error) {
			return &domain.Event{ID: "e1", TripID: tripID, Type: kind}, nil
		},
	}
	r := setupRouter(tripSvc, &mockLocationService{})

	body := map[string]any{"stop_id": "s1", "student_id": "st1", "event_type": "picked_up"}
	w := doRequest(r, "POST", "/trips/t1/events", signToken(t, "d1", "driver"), body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRecordEvent_MissingFields(t *testing.T) {
	r := setupRouter(&mockTripService{}, &mockLocationService{})

	w := doRequest(r, "POST", "/trips/t1/events", signToken(t, "d1", "driver"), map[string]any{"stop_id": "s1"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetLatestLocation_OpenToAnyRole(t *testing.T) {
	locationSvc := &mockLocationService{
		getLatestFn: func(_ context.Context, tripID string) (*domain.LocationSample, error) {
			return &domain.LocationSample{TripID: tripID, Lat: 24.7226, Lng: 46.6853, Timestamp: time.Unix(1756500000, 0)}, nil
		},
	}
	r := setupRouter(&mockTripService{}, locationSvc)

	// parents watch the bus on the map
	w := doRequest(r, "GET", "/trips/t1/location", signToken(t, "p1", "parent"), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGetLatestLocation_NoRowsIs404(t *testing.T) {
	locationSvc := &mockLocationService{
		getLatestFn: func(_ context.Context, _ string) (*domain.LocationSample, error) {
			return nil, sql.ErrNoRows
		},
	}
	r := setupRouter(&mockTripService{}, locationSvc)

	w := doRequest(r, "GET", "/trips/t1/location", signToken(t, "p1", "parent"), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetLatestLocation_RepoFailureIs500(t *testing.T) {
	locationSvc := &mockLocationService{
		getLatestFn: func(_ context.Context, _ string) (*domain.LocationSample, error) {
			return nil, errors.New("db down")
		},
	}
	r := setupRouter(&mockTripService{}, locationSvc)

	// a datastore failure must not read as "no location recorded"
	w := doRequest(r, "GET", "/trips/t1/location", signToken(t, "p1", "parent"), nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
