package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
	"github.com/saturnino-fabrica-de-software/classroll/internal/repository"
)

const (
	subjectCodePrefix = "SUB-"
	subjectCodeLength = 8
	inviteCodeLength  = 8
)

type CreateSubjectInput struct {
	Name        string
	Description *string
}

// JoinResult describes the enrollment created by a join
type JoinResult struct {
	SubjectID   string    `json:"subject_id"`
	SubjectName string    `json:"subject_name"`
	SubjectCode string    `json:"subject_code"`
	TeacherName string    `json:"teacher_name"`
	EnrolledAt  time.Time `json:"enrolled_at"`
	IsActive    bool      `json:"is_active"`
}

type SubjectService struct {
	guard       *Guard
	subjects    repository.SubjectRepositoryInterface
	enrollments repository.EnrollmentRepositoryInterface
	users       repository.UserRepositoryInterface
	logger      *slog.Logger
	newCode     func(n int) string
}

func NewSubjectService(guard *Guard, subjects repository.SubjectRepositoryInterface, enrollments repository.EnrollmentRepositoryInterface, users repository.UserRepositoryInterface, logger *slog.Logger) *SubjectService {
	return &SubjectService{
		guard:       guard,
		subjects:    subjects,
		enrollments: enrollments,
		users:       users,
		logger:      logger,
		newCode:     randomCode,
	}
}

// randomCode returns n upper-case hex characters
func randomCode(n int) string {
	code := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return code[:n]
}

func (s *SubjectService) Create(ctx context.Context, caller domain.Caller, in CreateSubjectInput) (*domain.Subject, error) {
	if !caller.IsTeacher() {
		return nil, domain.ErrRoleForbidden.WithMessage("Only teachers can create subjects")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrValidationFailed.WithMessage("name is required")
	}

	teacherName := ""
	if teacher, err := s.users.GetByID(ctx, caller.UserID); err == nil {
		teacherName = teacher.Name
	}

	created, err := s.subjects.Create(ctx, &domain.Subject{
		ID:          uuid.NewString(),
		Code:        subjectCodePrefix + s.newCode(subjectCodeLength),
		Name:        name,
		Description: in.Description,
		TeacherID:   caller.UserID,
		TeacherName: teacherName,
		InviteCode:  s.newCode(inviteCodeLength),
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "subject created", "subject_id", created.ID, "teacher_id", caller.UserID)
	return created, nil
}

// ListMine returns owned subjects for teachers and enrolled subjects for students
func (s *SubjectService) ListMine(ctx context.Context, caller domain.Caller) ([]domain.Subject, error) {
	if caller.IsTeacher() {
		return s.subjects.ListByTeacher(ctx, caller.UserID)
	}
	return s.enrollments.ListSubjects(ctx, caller.UserID)
}

func (s *SubjectService) Join(ctx context.Context, caller domain.Caller, inviteCode string) (*JoinResult, error) {
	if !caller.IsStudent() {
		return nil, domain.ErrRoleForbidden.WithMessage("Only students can join subjects")
	}

	subject, err := s.subjects.GetByInviteCode(ctx, strings.TrimSpace(inviteCode))
	if errors.Is(err, domain.ErrSubjectNotFound) {
		return nil, domain.ErrInvalidInviteCode
	}
	if err != nil {
		return nil, err
	}

	enrolled, err := s.enrollments.IsEnrolled(ctx, subject.ID, caller.UserID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		return nil, domain.ErrAlreadyEnrolled
	}

	enrollment, err := s.enrollments.Enroll(ctx, subject.ID, caller.UserID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "student joined subject", "subject_id", subject.ID, "student_id", caller.UserID)

	return &JoinResult{
		SubjectID:   subject.ID,
		SubjectName: subject.Name,
		SubjectCode: subject.Code,
		TeacherName: subject.TeacherName,
		EnrolledAt:  enrollment.EnrolledAt,
		IsActive:    enrollment.IsActive,
	}, nil
}

func (s *SubjectService) Get(ctx context.Context, caller domain.Caller, subjectID string) (*domain.Subject, error) {
	return s.guard.AuthorizeView(ctx, caller, subjectID)
}

func (s *SubjectService) ListStudents(ctx context.Context, caller domain.Caller, subjectID string) ([]domain.EnrolledStudent, error) {
	if _, err := s.guard.AuthorizeSubject(ctx, caller, subjectID); err != nil {
		return nil, err
	}
	return s.enrollments.ListStudents(ctx, subjectID)
}

func (s *SubjectService) Delete(ctx context.Context, caller domain.Caller, subjectID string) error {
	if _, err := s.guard.AuthorizeSubject(ctx, caller, subjectID); err != nil {
		return err
	}
	if err := s.subjects.Delete(ctx, subjectID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "subject deleted", "subject_id", subjectID, "teacher_id", caller.UserID)
	return nil
}
