package http

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/darbify/schoolbus-backend/module/trips/domain"
)

type tripService interface {
	Start(ctx context.Context, tripID, driverID string) (*domain.Trip, error)
	Finish(ctx context.Context, tripID, driverID string) (*domain.Trip, error)
	RecordStopEvent(ctx context.Context, tripID, driverID, stopID, studentID string, kind domain.EventType) (*domain.Event, error)
}

type locationService interface {
	Ingest(ctx context.Context, tripID, driverID string, lat, lng, speed float64) error
	GetLatest(ctx context.Context, tripID string) (*domain.LocationSample, error)
	GetHistory(ctx context.Context, tripID string, start, end time.Time) ([]domain.LocationSample, error)
}

type TripHandler struct {
	tripSvc     tripService
	locationSvc locationService
}

func NewTripHandler(tripSvc tripService, locationSvc locationService) *TripHandler {
	return &TripHandler{tripSvc: tripSvc, locationSvc: locationSvc}
}

func (h *TripHandler) Register(r *gin.RouterGroup) {
	driver := r.Group("/trips", RequireRole("driver"))
	driver.POST("/:trip_id/start", h.Start)
	driver.POST("/:trip_id/finish", h.Finish)
	driver.POST("/:trip_id/events", h.RecordEvent)
	driver.POST("/:trip_id/location", h.PushLocation)

	r.GET("/trips/:trip_id/location", h.GetLatestLocation)
	r.GET("/trips/:trip_id/history", h.GetHistory)
}

func (h *TripHandler) Start(c *gin.Context) {
	trip, err := h.tripSvc.Start(c.Request.Context(), c.Param("trip_id"), c.GetString(ctxUserID))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

func (h *TripHandler) Finish(c *gin.Context) {
	trip, err := h.tripSvc.Finish(c.Request.Context(), c.Param("trip_id"), c.GetString(ctxUserID))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

type recordEventRequest struct {
	StopID    string `json:"stop_id"`
	StudentID string `json:"student_id" binding:"required"`
	EventType string `json:"event_type" binding:"required"`
}

func (h *TripHandler) RecordEvent(c *gin.Context) {
	var req recordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student_id and event_type are required"})
		return
	}

	ev, err := h.tripSvc.RecordStopEvent(
		c.Request.Context(),
		c.Param("trip_id"),
		c.GetString(ctxUserID),
		req.StopID,
		req.StudentID,
		domain.EventType(req.EventType),
	)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ev)
}

type pushLocationRequest struct {
	Lat   *float64 `json:"lat" binding:"required"`
	Lng   *float64 `json:"lng" binding:"required"`
	Speed float64  `json:"speed"`
}

// PushLocation acknowledges the sample with 202; geofence evaluation runs
// after the response, on the dispatcher.
func (h *TripHandler) PushLocation(c *gin.Context) {
	var req pushLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required"})
		return
	}
	if *req.Lat < -90 || *req.Lat > 90 || *req.Lng < -180 || *req.Lng > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates out of range"})
		return
	}

	if err := h.locationSvc.Ingest(c.Request.Context(), c.Param("trip_id"), c.GetString(ctxUserID), *req.Lat, *req.Lng, req.Speed); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true, "message": "location received"})
}

func (h *TripHandler) GetLatestLocation(c *gin.Context) {
	loc, err := h.locationSvc.GetLatest(c.Request.Context(), c.Param("trip_id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no location recorded for this trip"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch location"})
		return
	}
	c.JSON(http.StatusOK, loc)
}

func (h *TripHandler) GetHistory(c *gin.Context) {
	start, err := strconv.ParseInt(c.Query("start"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start parameter"})
		return
	}
	end, err := strconv.ParseInt(c.Query("end"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end parameter"})
		return
	}

	locations, err := h.locationSvc.GetHistory(c.Request.Context(), c.Param("trip_id"), time.Unix(start, 0), time.Unix(end, 0))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}
	c.JSON(http.StatusOK, locations)
}

// abortWithError maps domain errors onto the HTTP taxonomy: 403 for
// ownership, 404 for missing records, 409 for state conflicts.
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrTripNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotTripDriver), errors.Is(err, domain.ErrNotLinkedParent):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrTripStateConflict), errors.Is(err, domain.ErrTripNotActive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAttendanceNotSeeded):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidEventType), errors.Is(err, domain.ErrInvalidAttendance):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
