package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/classroll/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
	"github.com/saturnino-fabrica-de-software/classroll/internal/service"
	"github.com/saturnino-fabrica-de-software/classroll/internal/ws"
)

// AttendanceService interface for the service
type AttendanceService interface {
	MarkFace(ctx context.Context, caller domain.Caller, subjectID string, image []byte) (*domain.MarkFaceResult, error)
	MarkManual(ctx context.Context, caller domain.Caller, mark service.ManualMark) (*service.ManualMarkResult, error)
	List(ctx context.Context, caller domain.Caller, subjectID string, date *time.Time) ([]domain.AttendanceRecord, error)
	Dashboard(ctx context.Context, caller domain.Caller, subjectID string) (*domain.AttendanceDashboard, error)
}

// SubjectViewer authorizes live viewers of a subject
type SubjectViewer interface {
	AuthorizeView(ctx context.Context, caller domain.Caller, subjectID string) (*domain.Subject, error)
}

type AttendanceHandler struct {
	service AttendanceService
	viewer  SubjectViewer
	logger  *slog.Logger
}

func NewAttendanceHandler(service AttendanceService, viewer SubjectViewer, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{service: service, viewer: viewer, logger: logger}
}

type ManualMarkRequest struct {
	SubjectID string `json:"subject_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Status    string `json:"status" validate:"omitempty,oneof=present absent late excused"`
}

// MarkFace POST /api/attendance/mark-face
func (h *AttendanceHandler) MarkFace(c *fiber.Ctx) error {
	// 1. Extract caller from context
	caller, err := middleware.GetCaller(c)
	if err != nil {
		return err
	}

	// 2. Extract subject_id from form
	subjectID := strings.TrimSpace(c.FormValue("subject_id"))
	if subjectID == "" {
		return domain.ErrValidationFailed.WithMessage("subject_id is required")
	}

	// 3. Extract and validate image before any external call
	image, err := extractAndValidateImage(c)
	if err != nil {
		return fmt.Errorf("mark face: %w", err)
	}

	// 4. Recognize and record
	result, err := h.service.MarkFace(c.UserContext(), caller, subjectID, image)
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// MarkManual POST /api/attendance/manual
func (h *AttendanceHandler) MarkManual(c *fiber.Ctx) error {
	caller, err := middleware.GetCaller(c)
	if err != nil {
		return err
	}

	var req ManualMarkRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	mark := service.ManualMark{
		SubjectID: req.SubjectID,
		StudentID: req.StudentID,
		Status:    domain.AttendanceStatus(req.Status),
	}
	if req.Date != "" {
		if mark.Date, err = domain.ParseDate(req.Date); err != nil {
			return err
		}
	}

	result, err := h.service.MarkManual(c.UserContext(), caller, mark)
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// List GET /api/attendance/:subject_id?date=YYYY-MM-DD
func (h *AttendanceHandler) List(c *fiber.Ctx) error {
	caller, subjectID, err := callerAndParam(c, "subject_id")
	if err != nil {
		return err
	}

	var date *time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := domain.ParseDate(raw)
		if err != nil {
			return err
		}
		date = &parsed
	}

	records, err := h.service.List(c.UserContext(), caller, subjectID, date)
	if err != nil {
		return err
	}
	if records == nil {
		records = []domain.AttendanceRecord{}
	}

	return c.JSON(records)
}

// Dashboard GET /api/attendance/:subject_id/dashboard
func (h *AttendanceHandler) Dashboard(c *fiber.Ctx) error {
	caller, subjectID, err := callerAndParam(c, "subject_id")
	if err != nil {
		return err
	}

	dashboard, err := h.service.Dashboard(c.UserContext(), caller, subjectID)
	if err != nil {
		return err
	}

	return c.JSON(dashboard)
}

// AuthorizeLive runs before the websocket upgrade of
// GET /api/attendance/:subject_id/live and hands the subject to the socket.
func (h *AttendanceHandler) AuthorizeLive(c *fiber.Ctx) error {
	caller, subjectID, err := callerAndParam(c, "subject_id")
	if err != nil {
		return err
	}

	if _, err := h.viewer.AuthorizeView(c.UserContext(), caller, subjectID); err != nil {
		return err
	}

	c.Locals(ws.LocalSubjectID, subjectID)
	c.Locals(ws.LocalUserID, caller.UserID)
	return c.Next()
}
