package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/classroll/internal/audit"
	"github.com/saturnino-fabrica-de-software/classroll/internal/auth"
	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
	"github.com/saturnino-fabrica-de-software/classroll/internal/repository"
)

// TokenIssuer mints access tokens for authenticated users
type TokenIssuer interface {
	GenerateToken(userID string, userType domain.UserType) (string, error)
}

type RegisterInput struct {
	Email    string
	Name     string
	Password string
	UserType domain.UserType
}

// Session is the response of a successful register or login
type Session struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *domain.User `json:"user"`
}

type AuthService struct {
	users  repository.UserRepositoryInterface
	tokens TokenIssuer
	faces  FaceEnroller
	audit  audit.Logger
	logger *slog.Logger
}

func NewAuthService(users repository.UserRepositoryInterface, tokens TokenIssuer, faces FaceEnroller, auditLogger audit.Logger, logger *slog.Logger) *AuthService {
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	return &AuthService{
		users:  users,
		tokens: tokens,
		faces:  faces,
		audit:  auditLogger,
		logger: logger,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if len(in.Password) < 6 {
		return nil, domain.ErrValidationFailed.WithMessage("password must have at least 6 characters")
	}

	_, err := s.users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, domain.ErrEmailTaken
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, domain.ErrInternal.WithError(err)
	}

	user, err := domain.NewUser(uuid.NewString(), in.Email, in.Name, in.UserType, hash)
	if err != nil {
		return nil, err
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", created.ID, "user_type", created.Type)
	return s.session(created)
}

// Login checks the credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}

	return s.session(user)
}

// Me resolves the caller to its stored account
func (s *AuthService) Me(ctx context.Context, caller domain.Caller) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, caller.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrUnauthorized
	}
	return user, err
}

// RegisterFace stores the first reference embedding of a student account
func (s *AuthService) RegisterFace(ctx context.Context, caller domain.Caller, image []byte) error {
	user, err := s.faceOwner(ctx, caller)
	if err != nil {
		return err
	}
	if user.IsFaceRegistered {
		return domain.ErrFaceAlreadyRegistered
	}

	if err := s.faces.Register(ctx, user.ID, image); err != nil {
		s.logAudit(ctx, audit.EventFaceRegistered, user.ID, err)
		return err
	}

	if err := s.users.SetFaceRegistered(ctx, user.ID, true); err != nil {
		return err
	}

	s.logAudit(ctx, audit.EventFaceRegistered, user.ID, nil)
	return nil
}

// UpdateFace replaces the reference embedding of a student already registered
func (s *AuthService) UpdateFace(ctx context.Context, caller domain.Caller, image []byte) error {
	user, err := s.faceOwner(ctx, caller)
	if err != nil {
		return err
	}
	if !user.IsFaceRegistered {
		return domain.ErrFaceNotRegistered
	}

	err = s.faces.Update(ctx, user.ID, image)
	s.logAudit(ctx, audit.EventFaceUpdated, user.ID, err)
	return err
}

func (s *AuthService) faceOwner(ctx context.Context, caller domain.Caller) (*domain.User, error) {
	if !caller.IsStudent() {
		return nil, domain.ErrRoleForbidden.WithMessage("Only students can register faces")
	}
	return s.Me(ctx, caller)
}

func (s *AuthService) session(user *domain.User) (*Session, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Type)
	if err != nil {
		return nil, domain.ErrInternal.WithError(err)
	}
	return &Session{AccessToken: token, TokenType: "bearer", User: user}, nil
}

func (s *AuthService) logAudit(ctx context.Context, eventType audit.EventType, userID string, err error) {
	event := audit.Event{
		EventType: eventType,
		ActorID:   userID,
		StudentID: userID,
		Success:   err == nil,
	}
	if err != nil {
		event.Error = err.Error()
	}
	if auditErr := s.audit.Log(ctx, event); auditErr != nil {
		s.logger.ErrorContext(ctx, "audit log failed", "event_type", eventType, "error", auditErr)
	}
}
