package handler

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/classroll/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
	"github.com/saturnino-fabrica-de-software/classroll/internal/service"
)

// SubjectService interface for the service
type SubjectService interface {
	Create(ctx context.Context, caller domain.Caller, in service.CreateSubjectInput) (*domain.Subject, error)
	ListMine(ctx context.Context, caller domain.Caller) ([]domain.Subject, error)
	Join(ctx context.Context, caller domain.Caller, inviteCode string) (*service.JoinResult, error)
	Get(ctx context.Context, caller domain.Caller, subjectID string) (*domain.Subject, error)
	ListStudents(ctx context.Context, caller domain.Caller, subjectID string) ([]domain.EnrolledStudent, error)
	Delete(ctx context.Context, caller domain.Caller, subjectID string) error
}

type SubjectHandler struct {
	service SubjectService
	logger  *slog.Logger
}

func NewSubjectHandler(service SubjectService, logger *slog.Logger) *SubjectHandler {
	return &SubjectHandler{service: service, logger: logger}
}

type CreateSubjectRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description"`
}

type JoinSubjectRequest struct {
	InviteCode string `json:"invite_code" validate:"required"`
}

// Create POST /api/subjects
func (h *SubjectHandler) Create(c *fiber.Ctx) error {
	caller, err := middleware.GetCaller(c)
	if err != nil {
		return err
	}

	var req CreateSubjectRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	subject, err := h.service.Create(c.UserContext(), caller, service.CreateSubjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(subject)
}

// List GET /api/subjects
func (h *SubjectHandler) List(c *fiber.Ctx) error {
	caller, err := middleware.GetCaller(c)
	if err != nil {
		return err
	}

	subjects, err := h.service.ListMine(c.UserContext(), caller)
	if err != nil {
		return err
	}
	if subjects == nil {
		subjects = []domain.Subject{}
	}

	return c.JSON(subjects)
}

// Join POST /api/subjects/join
func (h *SubjectHandler) Join(c *fiber.Ctx) error {
	caller, err := middleware.GetCaller(c)
	if err != nil {
		return err
	}

	var req JoinSubjectRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := h.service.Join(c.UserContext(), caller, req.InviteCode)
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// Get GET /api/subjects/:id
func (h *SubjectHandler) Get(c *fiber.Ctx) error {
	caller, subjectID, err := callerAndParam(c, "id")
	if err != nil {
		return err
	}

	subject, err := h.service.Get(c.UserContext(), caller, subjectID)
	if err != nil {
		return err
	}

	return c.JSON(subject)
}

// Students GET /api/subjects/:id/students
func (h *SubjectHandler) Students(c *fiber.Ctx) error {
	caller, subjectID, err := callerAndParam(c, "id")
	if err != nil {
		return err
	}

	students, err := h.service.ListStudents(c.UserContext(), caller, subjectID)
	if err != nil {
		return err
	}
	if students == nil {
		students = []domain.EnrolledStudent{}
	}

	return c.JSON(students)
}

// Delete DELETE /api/subjects/:id
func (h *SubjectHandler) Delete(c *fiber.Ctx) error {
	caller, subjectID, err := callerAndParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.UserContext(), caller, subjectID); err != nil {
		return err
	}

	return c.JSON(MessageResponse{Message: "Subject deleted successfully"})
}

// callerAndParam returns the authenticated caller and a required path parameter
func callerAndParam(c *fiber.Ctx, name string) (domain.Caller, string, error) {
	caller, err := middleware.GetCaller(c)
	if err != nil {
		return domain.Caller{}, "", err
	}

	value := strings.TrimSpace(c.Params(name))
	if value == "" {
		return domain.Caller{}, "", domain.ErrValidationFailed.WithMessage(name + " is required")
	}
	return caller, value, nil
}
