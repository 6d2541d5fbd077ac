package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/classroll/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
	"github.com/saturnino-fabrica-de-software/classroll/internal/service"
)

// StudentService interface for the service
type StudentService interface {
	List(ctx context.Context, caller domain.Caller) ([]domain.Student, error)
	Get(ctx context.Context, caller domain.Caller, studentID string) (*domain.Student, error)
	Create(ctx context.Context, caller domain.Caller, in service.CreateStudentInput) (*domain.Student, error)
	Delete(ctx context.Context, caller domain.Caller, studentID string) error
	UploadPhoto(ctx context.Context, caller domain.Caller, studentID string, image []byte) error
	ReplacePhoto(ctx context.Context, caller domain.Caller, studentID string, image []byte) error
	Recognize(ctx context.Context, caller domain.Caller, image []byte) (*service.StudentRecognition, error)
}

type StudentHandler struct {
	service StudentService
	logger  *slog.Logger
}

func NewStudentHandler(service StudentService, logger *slog.Logger) *StudentHandler {
	return &StudentHandler{service: service, logger: logger}
}

type CreateStudentRequest struct {
	StudentID       string `json:"student_id" validate:"required,max=64"`
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"omitempty,email"`
	DepartmentID    string `json:"department_id" validate:"omitempty,max=64"`
	BatchYear       int    `json:"batch_year" validate:"required,gt=0"`
	CurrentSemester int    `json:"current_semester" validate:"required,gt=0"`
}

type PhotoResponse struct {
	Message            string `json:"message"`
	StudentID          string `json:"student_id"`
	FaceEncodingStored bool   `json:"face_encoding_stored"`
}

// List GET /api/students
func (h *StudentHandler) List(c *fiber.Ctx) error {
	caller, err := middleware.GetCaller(c)
	if err != nil {
		return err
	}

	students, err := h.service.List(c.UserContext(), caller)
	if err != nil {
		return err
	}
	if students == nil {
		students = []domain.Student{}
	}

	return c.JSON(students)
}

// Create POST /api/students
func (h *StudentHandler) Create(c *fiber.Ctx) error {
	caller, err := middleware.GetCaller(c)
	if err != nil {
		return err
	}

	var req CreateStudentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	student, err := h.service.Create(c.UserContext(), caller, service.CreateStudentInput{
		StudentID:       req.StudentID,
		Name:            req.Name,
		Email:           req.Email,
		DepartmentID:    req.DepartmentID,
		BatchYear:       req.BatchYear,
		CurrentSemester: req.CurrentSemester,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(student)
}

// Get GET /api/students/:id
func (h *StudentHandler) Get(c *fiber.Ctx) error {
	caller, studentID, err := callerAndParam(c, "id")
	if err != nil {
		return err
	}

	student, err := h.service.Get(c.UserContext(), caller, studentID)
	if err != nil {
		return err
	}

	return c.JSON(student)
}

// Delete DELETE /api/students/:id
func (h *StudentHandler) Delete(c *fiber.Ctx) error {
	caller, studentID, err := callerAndParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.UserContext(), caller, studentID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "Student deleted successfully", "student_id": studentID})
}

// UploadPhoto POST /api/students/:id/photo
func (h *StudentHandler) UploadPhoto(c *fiber.Ctx) error {
	// 1. Extract caller and student id
	caller, studentID, err := callerAndParam(c, "id")
	if err != nil {
		return err
	}

	// 2. Extract and validate image
	image, err := extractAndValidateImage(c)
	if err != nil {
		return fmt.Errorf("upload photo: %w", err)
	}

	// 3. Register the face
	if err := h.service.UploadPhoto(c.UserContext(), caller, studentID, image); err != nil {
		return err
	}

	return c.JSON(PhotoResponse{
		Message:            "Photo uploaded and face encoding stored successfully",
		StudentID:          studentID,
		FaceEncodingStored: true,
	})
}

// ReplacePhoto PUT /api/students/:id/photo
func (h *StudentHandler) ReplacePhoto(c *fiber.Ctx) error {
	caller, studentID, err := callerAndParam(c, "id")
	if err != nil {
		return err
	}

	image, err := extractAndValidateImage(c)
	if err != nil {
		return fmt.Errorf("replace photo: %w", err)
	}

	if err := h.service.ReplacePhoto(c.UserContext(), caller, studentID, image); err != nil {
		return err
	}

	return c.JSON(PhotoResponse{
		Message:            "Face encoding updated successfully",
		StudentID:          studentID,
		FaceEncodingStored: true,
	})
}

// Recognize POST /api/students/recognize
func (h *StudentHandler) Recognize(c *fiber.Ctx) error {
	caller, err := middleware.GetCaller(c)
	if err != nil {
		return err
	}

	image, err := extractAndValidateImage(c)
	if err != nil {
		return fmt.Errorf("recognize student: %w", err)
	}

	result, err := h.service.Recognize(c.UserContext(), caller, image)
	if err != nil {
		return err
	}

	return c.JSON(result)
}
