package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/darbify/schoolbus-backend/module/trips/domain"
)

type attendanceService interface {
	Confirm(ctx context.Context, parentID, studentID, tripDate string, status domain.AttendanceStatus) (*domain.AttendanceConfirmation, error)
}

type AttendanceHandler struct {
	svc attendanceService
}

func NewAttendanceHandler(svc attendanceService) *AttendanceHandler {
	return &AttendanceHandler{svc: svc}
}

func (h *AttendanceHandler) Register(r *gin.RouterGroup) {
	r.POST("/attendance", RequireRole("parent"), h.Confirm)
}

type confirmRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	Date      string `json:"date" binding:"required,datetime=2006-01-02"`
	Status    string `json:"status" binding:"required"`
}

func (h *AttendanceHandler) Confirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student_id, date (YYYY-MM-DD) and status are required"})
		return
	}

	rec, err := h.svc.Confirm(
		c.Request.Context(),
		c.GetString(ctxUserID),
		req.StudentID,
		req.Date,
		domain.AttendanceStatus(req.Status),
	)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
