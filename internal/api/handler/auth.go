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

// AuthService interface for the service
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.Session, error)
	Login(ctx context.Context, email, password string) (*service.Session, error)
	Me(ctx context.Context, caller domain.Caller) (*domain.User, error)
	RegisterFace(ctx context.Context, caller domain.Caller, image []byte) error
	UpdateFace(ctx context.Context, caller domain.Caller, image []byte) error
}

type AuthHandler struct {
	service AuthService
	logger  *slog.Logger
}

func NewAuthHandler(service AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: logger}
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
	UserType string `json:"user_type" validate:"required,oneof=teacher student"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type FaceRegisteredResponse struct {
	Message        string `json:"message"`
	UserID         string `json:"user_id"`
	EncodingStored bool   `json:"encoding_stored"`
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	session, err := h.service.Register(c.UserContext(), service.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		UserType: domain.UserType(req.UserType),
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(session)
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	session, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(session)
}

// Me GET /api/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	caller, err := middleware.GetCaller(c)
	if err != nil {
		return err
	}

	user, err := h.service.Me(c.UserContext(), caller)
	if err != nil {
		return err
	}

	return c.JSON(user)
}

// Logout POST /api/auth/logout. Tokens are stateless; the client drops its copy.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	return c.JSON(MessageResponse{Message: "Successfully logged out"})
}

// RegisterFace POST /api/auth/register-face
func (h *AuthHandler) RegisterFace(c *fiber.Ctx) error {
	// 1. Extract caller from context
	caller, err := middleware.GetCaller(c)
	if err != nil {
		return err
	}

	// 2. Extract and validate image
	image, err := extractAndValidateImage(c)
	if err != nil {
		return fmt.Errorf("register face: %w", err)
	}

	// 3. Call service to register
	if err := h.service.RegisterFace(c.UserContext(), caller, image); err != nil {
		return err
	}

	return c.JSON(FaceRegisteredResponse{
		Message:        "Face registered successfully",
		UserID:         caller.UserID,
		EncodingStored: true,
	})
}

// UpdateFace PUT /api/auth/face
func (h *AuthHandler) UpdateFace(c *fiber.Ctx) error {
	caller, err := middleware.GetCaller(c)
	if err != nil {
		return err
	}

	image, err := extractAndValidateImage(c)
	if err != nil {
		return fmt.Errorf("update face: %w", err)
	}

	if err := h.service.UpdateFace(c.UserContext(), caller, image); err != nil {
		return err
	}

	return c.JSON(FaceRegisteredResponse{
		Message:        "Face updated successfully",
		UserID:         caller.UserID,
		EncodingStored: true,
	})
}
