package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/classroll/internal/audit"
	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
	"github.com/saturnino-fabrica-de-software/classroll/internal/repository"
)

type CreateStudentInput struct {
	StudentID       string
	Name            string
	Email           string
	DepartmentID    string
	BatchYear       int
	CurrentSemester int
}

// StudentRecognition is the outcome of identifying a registry student from a photo
type StudentRecognition struct {
	Success         bool            `json:"success"`
	Message         string          `json:"message"`
	StudentID       string          `json:"student_id,omitempty"`
	Student         *domain.Student `json:"student,omitempty"`
	SimilarityScore float64         `json:"similarity_score,omitempty"`
	FacesDetected   int             `json:"faces_detected"`
}

// StudentService manages the institution's student registry. Every
// operation is reserved to teachers.
type StudentService struct {
	students repository.StudentRepositoryInterface
	faces    FaceEnroller
	matcher  FaceRecognizer
	audit    audit.Logger
	logger   *slog.Logger
}

func NewStudentService(students repository.StudentRepositoryInterface, faces FaceEnroller, matcher FaceRecognizer, auditLogger audit.Logger, logger *slog.Logger) *StudentService {
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	return &StudentService{
		students: students,
		faces:    faces,
		matcher:  matcher,
		audit:    auditLogger,
		logger:   logger,
	}
}

func requireTeacher(caller domain.Caller) error {
	if !caller.IsTeacher() {
		return domain.ErrRoleForbidden
	}
	return nil
}

func (s *StudentService) List(ctx context.Context, caller domain.Caller) ([]domain.Student, error) {
	if err := requireTeacher(caller); err != nil {
		return nil, err
	}
	return s.students.List(ctx)
}

func (s *StudentService) Get(ctx context.Context, caller domain.Caller, studentID string) (*domain.Student, error) {
	if err := requireTeacher(caller); err != nil {
		return nil, err
	}
	return s.students.GetByID(ctx, studentID)
}

func (s *StudentService) Create(ctx context.Context, caller domain.Caller, in CreateStudentInput) (*domain.Student, error) {
	if err := requireTeacher(caller); err != nil {
		return nil, err
	}

	student, err := domain.NewStudent(in.StudentID, in.Name, in.Email, in.DepartmentID, in.BatchYear, in.CurrentSemester)
	if err != nil {
		return nil, err
	}

	created, err := s.students.Create(ctx, student)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "student created", "student_id", created.ID)
	return created, nil
}

// Delete removes the student and its stored embedding. The index is cleared
// even when the row carries no encoding id, since a registration may have
// stored a vector before the row was updated. A failed embedding removal is
// logged and does not keep the registry row alive.
func (s *StudentService) Delete(ctx context.Context, caller domain.Caller, studentID string) error {
	student, err := s.Get(ctx, caller, studentID)
	if err != nil {
		return err
	}

	err = s.faces.Delete(ctx, student.ID)
	s.logAudit(ctx, audit.EventFaceDeleted, caller, student.ID, err)
	if err != nil {
		s.logger.WarnContext(ctx, "embedding delete failed", "student_id", student.ID, "error", err)
	}

	if err := s.students.Delete(ctx, student.ID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "student deleted", "student_id", student.ID)
	return nil
}

// UploadPhoto registers the student's reference face. When the registry row
// cannot be updated, a freshly stored embedding is removed again.
func (s *StudentService) UploadPhoto(ctx context.Context, caller domain.Caller, studentID string, image []byte) error {
	student, err := s.Get(ctx, caller, studentID)
	if err != nil {
		return err
	}

	err = s.faces.Register(ctx, student.ID, image)
	s.logAudit(ctx, audit.EventFaceRegistered, caller, student.ID, err)
	if err != nil {
		return err
	}

	encodingID := student.ID
	if err := s.students.SetFaceEncoding(ctx, student.ID, &encodingID); err != nil {
		if !student.HasFaceEncoding() {
			if rbErr := s.faces.Delete(ctx, student.ID); rbErr != nil {
				s.logger.ErrorContext(ctx, "embedding rollback failed", "student_id", student.ID, "error", rbErr)
			}
		}
		return err
	}
	return nil
}

// ReplacePhoto swaps the reference face of a student already registered
func (s *StudentService) ReplacePhoto(ctx context.Context, caller domain.Caller, studentID string, image []byte) error {
	student, err := s.Get(ctx, caller, studentID)
	if err != nil {
		return err
	}
	if !student.HasFaceEncoding() {
		return domain.ErrFaceNotRegistered
	}

	err = s.faces.Update(ctx, student.ID, image)
	s.logAudit(ctx, audit.EventFaceUpdated, caller, student.ID, err)
	return err
}

// Recognize identifies the best-matching student in image. When the match
// has no registry row, only its id is returned.
func (s *StudentService) Recognize(ctx context.Context, caller domain.Caller, image []byte) (*StudentRecognition, error) {
	if err := requireTeacher(caller); err != nil {
		return nil, err
	}

	result, err := s.matcher.Recognize(ctx, image)
	if err != nil {
		return nil, err
	}

	out := &StudentRecognition{
		Success:       result.Success,
		Message:       result.Message,
		FacesDetected: result.FacesDetected,
	}
	if !result.Success {
		return out, nil
	}

	out.StudentID = result.StudentID
	out.SimilarityScore = result.SimilarityScore

	student, err := s.students.GetByID(ctx, result.StudentID)
	switch {
	case err == nil:
		out.Student = student
	case !errors.Is(err, domain.ErrStudentNotFound):
		return nil, err
	}

	s.logAudit(ctx, audit.EventFaceRecognized, caller, result.StudentID, nil)
	return out, nil
}

func (s *StudentService) logAudit(ctx context.Context, eventType audit.EventType, caller domain.Caller, studentID string, err error) {
	event := audit.Event{
		EventType: eventType,
		ActorID:   caller.UserID,
		StudentID: studentID,
		Success:   err == nil,
	}
	if err != nil {
		event.Error = err.Error()
	}
	if auditErr := s.audit.Log(ctx, event); auditErr != nil {
		s.logger.ErrorContext(ctx, "audit log failed", "event_type", eventType, "error", auditErr)
	}
}
