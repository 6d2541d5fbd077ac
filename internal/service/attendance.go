package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/classroll/internal/audit"
	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
	"github.com/saturnino-fabrica-de-software/classroll/internal/repository"
)

// Guard decides whether a caller may act on a subject
type Guard struct {
	subjects    repository.SubjectRepositoryInterface
	enrollments repository.EnrollmentRepositoryInterface
}

func NewGuard(subjects repository.SubjectRepositoryInterface, enrollments repository.EnrollmentRepositoryInterface) *Guard {
	return &Guard{subjects: subjects, enrollments: enrollments}
}

// AuthorizeSubject admits only the teacher owning the subject
func (g *Guard) AuthorizeSubject(ctx context.Context, caller domain.Caller, subjectID string) (*domain.Subject, error) {
	if !caller.IsTeacher() {
		return nil, domain.ErrRoleForbidden
	}

	subject, err := g.subjects.GetByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	if !subject.OwnedBy(caller.UserID) {
		return nil, domain.ErrSubjectAccessDenied
	}
	return subject, nil
}

// AuthorizeMark admits the owning teacher when the student is actively enrolled
func (g *Guard) AuthorizeMark(ctx context.Context, caller domain.Caller, subjectID, studentID string) (*domain.Subject, error) {
	subject, err := g.AuthorizeSubject(ctx, caller, subjectID)
	if err != nil {
		return nil, err
	}
	if err := g.CheckEnrollment(ctx, subjectID, studentID); err != nil {
		return nil, err
	}
	return subject, nil
}

// AuthorizeView admits the owning teacher or an enrolled student
func (g *Guard) AuthorizeView(ctx context.Context, caller domain.Caller, subjectID string) (*domain.Subject, error) {
	subject, err := g.subjects.GetByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	switch {
	case caller.IsTeacher() && subject.OwnedBy(caller.UserID):
		return subject, nil
	case caller.IsStudent():
		if err := g.CheckEnrollment(ctx, subjectID, caller.UserID); err != nil {
			if errors.Is(err, domain.ErrNotEnrolled) {
				return nil, domain.ErrSubjectAccessDenied
			}
			return nil, err
		}
		return subject, nil
	default:
		return nil, domain.ErrSubjectAccessDenied
	}
}

func (g *Guard) CheckEnrollment(ctx context.Context, subjectID, studentID string) error {
	enrolled, err := g.enrollments.IsEnrolled(ctx, subjectID, studentID)
	if err != nil {
		return err
	}
	if !enrolled {
		return domain.ErrNotEnrolled
	}
	return nil
}

// Recorder writes attendance rows. Duplicates are never reported as errors.
type Recorder struct {
	repo repository.AttendanceRepositoryInterface
	now  func() time.Time
}

func NewRecorder(repo repository.AttendanceRepositoryInterface) *Recorder {
	return &Recorder{repo: repo, now: time.Now}
}

// Record applies policy to the event:
//   - append stamps the session time and always inserts
//   - noop skips the insert when the student already has a row that day
//
// A uniqueness conflict from the store yields AlreadyRecorded under both policies.
func (r *Recorder) Record(ctx context.Context, event *domain.AttendanceEvent, policy domain.DuplicatePolicy) (domain.RecordOutcome, error) {
	switch policy {
	case domain.PolicyAppend:
		if event.SessionTime == "" {
			event.SessionTime = r.now().Format(domain.SessionTimeLayout)
		}

	case domain.PolicyNoop:
		exists, err := r.repo.Exists(ctx, event.SubjectID, event.StudentID, event.Date)
		if err != nil {
			return 0, domain.ErrAttendanceRecordFailed.WithError(err)
		}
		if exists {
			return domain.AlreadyRecorded, nil
		}

	default:
		return 0, domain.ErrAttendanceRecordFailed.WithError(fmt.Errorf("unknown duplicate policy %q", policy))
	}

	stored, err := r.repo.Insert(ctx, event)
	if errors.Is(err, repository.ErrDuplicateAttendance) {
		return domain.AlreadyRecorded, nil
	}
	if err != nil {
		return 0, domain.ErrAttendanceRecordFailed.WithError(err)
	}

	event.ID = stored.ID
	event.CreatedAt = stored.CreatedAt
	return domain.Recorded, nil
}

// AttendancePublisher pushes new rows to live subscribers of a subject
type AttendancePublisher interface {
	PublishAttendance(subjectID string, record domain.AttendanceRecord)
}

// ManualMark is a teacher's explicit attendance entry
type ManualMark struct {
	SubjectID string
	StudentID string
	Date      time.Time
	Status    domain.AttendanceStatus
}

type ManualMarkResult struct {
	Message         string `json:"message"`
	Outcome         string `json:"outcome"`
	AlreadyRecorded bool   `json:"already_recorded"`
}

type AttendanceService struct {
	guard        *Guard
	recorder     *Recorder
	faces        FaceRecognizer
	users        repository.UserRepositoryInterface
	attendance   repository.AttendanceRepositoryInterface
	enrollments  repository.EnrollmentRepositoryInterface
	publisher    AttendancePublisher
	audit        audit.Logger
	logger       *slog.Logger
	facePolicy   domain.DuplicatePolicy
	manualPolicy domain.DuplicatePolicy
	now          func() time.Time
}

type AttendanceServiceConfig struct {
	Guard        *Guard
	Recorder     *Recorder
	Faces        FaceRecognizer
	Users        repository.UserRepositoryInterface
	Attendance   repository.AttendanceRepositoryInterface
	Enrollments  repository.EnrollmentRepositoryInterface
	Publisher    AttendancePublisher
	Audit        audit.Logger
	Logger       *slog.Logger
	FacePolicy   domain.DuplicatePolicy
	ManualPolicy domain.DuplicatePolicy
}

func NewAttendanceService(cfg AttendanceServiceConfig) *AttendanceService {
	if cfg.Audit == nil {
		cfg.Audit = &audit.NoOpLogger{}
	}
	if cfg.FacePolicy == "" {
		cfg.FacePolicy = domain.PolicyAppend
	}
	if cfg.ManualPolicy == "" {
		cfg.ManualPolicy = domain.PolicyNoop
	}

	return &AttendanceService{
		guard:        cfg.Guard,
		recorder:     cfg.Recorder,
		faces:        cfg.Faces,
		users:        cfg.Users,
		attendance:   cfg.Attendance,
		enrollments:  cfg.Enrollments,
		publisher:    cfg.Publisher,
		audit:        cfg.Audit,
		logger:       cfg.Logger,
		facePolicy:   cfg.FacePolicy,
		manualPolicy: cfg.ManualPolicy,
		now:          time.Now,
	}
}

// MarkFace recognizes the students in image and records the best match as
// present. Recognition that finds nobody, or a match outside the subject's
// roll, returns the diagnostics with success=false instead of an error.
func (s *AttendanceService) MarkFace(ctx context.Context, caller domain.Caller, subjectID string, image []byte) (*domain.MarkFaceResult, error) {
	// 1. Only the owning teacher marks attendance
	if _, err := s.guard.AuthorizeSubject(ctx, caller, subjectID); err != nil {
		return nil, err
	}

	// 2. Recognize every face in the photo
	recognition, err := s.faces.Recognize(ctx, image)
	if err != nil {
		s.logAudit(ctx, audit.Event{
			EventType: audit.EventFaceRecognized,
			ActorID:   caller.UserID,
			SubjectID: subjectID,
			Error:     err.Error(),
		})
		return nil, err
	}

	result := &domain.MarkFaceResult{RecognitionResult: *recognition, SubjectID: subjectID}
	if !recognition.Success {
		return result, nil
	}

	studentID := recognition.StudentID

	// 3. The match must be on the subject's roll
	enrolled := true
	if err := s.guard.CheckEnrollment(ctx, subjectID, studentID); err != nil {
		if !errors.Is(err, domain.ErrNotEnrolled) {
			return nil, err
		}
		enrolled = false
		result.Success = false
		result.Enrolled = &enrolled
		result.Message = "Student not enrolled in this subject."
		return result, nil
	}
	result.Enrolled = &enrolled

	// 4. Record under the face policy
	event, err := domain.NewAttendanceEvent(subjectID, studentID, caller.UserID, s.now(), domain.StatusPresent, domain.MethodFaceRecognition)
	if err != nil {
		return nil, err
	}
	score := recognition.SimilarityScore
	event.ConfidenceScore = &score

	outcome, err := s.recorder.Record(ctx, event, s.facePolicy)
	if err != nil {
		return nil, err
	}

	result.AttendanceMarked = true
	result.AlreadyRecorded = outcome == domain.AlreadyRecorded
	result.StudentName = s.studentName(ctx, studentID)
	if result.AlreadyRecorded {
		result.Message = "Attendance already recorded"
	} else {
		result.Message = "Attendance marked successfully!"
		s.recorded(ctx, caller, event, result.StudentName)
	}

	return result, nil
}

// MarkManual records an explicit status for an enrolled student
func (s *AttendanceService) MarkManual(ctx context.Context, caller domain.Caller, mark ManualMark) (*ManualMarkResult, error) {
	if _, err := s.guard.AuthorizeMark(ctx, caller, mark.SubjectID, mark.StudentID); err != nil {
		return nil, err
	}

	date := mark.Date
	if date.IsZero() {
		date = s.now()
	}
	status := mark.Status
	if status == "" {
		status = domain.StatusPresent
	}

	event, err := domain.NewAttendanceEvent(mark.SubjectID, mark.StudentID, caller.UserID, date, status, domain.MethodManual)
	if err != nil {
		return nil, err
	}

	outcome, err := s.recorder.Record(ctx, event, s.manualPolicy)
	if err != nil {
		return nil, err
	}

	result := &ManualMarkResult{
		Message:         "Attendance marked successfully",
		Outcome:         outcome.String(),
		AlreadyRecorded: outcome == domain.AlreadyRecorded,
	}
	if outcome == domain.Recorded {
		s.recorded(ctx, caller, event, s.studentName(ctx, mark.StudentID))
	}
	return result, nil
}

// List returns a subject's attendance, optionally for one date
func (s *AttendanceService) List(ctx context.Context, caller domain.Caller, subjectID string, date *time.Time) ([]domain.AttendanceRecord, error) {
	if _, err := s.guard.AuthorizeView(ctx, caller, subjectID); err != nil {
		return nil, err
	}
	return s.attendance.ListBySubject(ctx, subjectID, date)
}

func (s *AttendanceService) Dashboard(ctx context.Context, caller domain.Caller, subjectID string) (*domain.AttendanceDashboard, error) {
	subject, err := s.guard.AuthorizeSubject(ctx, caller, subjectID)
	if err != nil {
		return nil, err
	}

	records, err := s.attendance.ListBySubject(ctx, subjectID, nil)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.enrollments.ListStudents(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	return domain.BuildDashboard(subject, records, enrolled), nil
}

// studentName is best effort; a missing name never fails a mark
func (s *AttendanceService) studentName(ctx context.Context, studentID string) string {
	user, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		s.logger.WarnContext(ctx, "student name lookup failed", "student_id", studentID, "error", err)
		return ""
	}
	return user.Name
}

func (s *AttendanceService) recorded(ctx context.Context, caller domain.Caller, event *domain.AttendanceEvent, studentName string) {
	s.logger.InfoContext(ctx, "attendance marked",
		"subject_id", event.SubjectID,
		"student_id", event.StudentID,
		"method", event.Method,
		"session_time", event.SessionTime,
	)

	if s.publisher != nil {
		s.publisher.PublishAttendance(event.SubjectID, domain.AttendanceRecord{
			ID:              event.ID,
			SubjectID:       event.SubjectID,
			StudentID:       event.StudentID,
			StudentName:     studentName,
			Date:            event.DateString(),
			Status:          event.Status,
			Method:          event.Method,
			ConfidenceScore: event.ConfidenceScore,
			MarkedBy:        event.MarkedBy,
			SessionTime:     event.SessionTime,
			CreatedAt:       event.CreatedAt,
		})
	}

	metadata := map[string]string{"date": event.DateString()}
	if event.ConfidenceScore != nil {
		metadata["similarity"] = fmt.Sprintf("%.4f", *event.ConfidenceScore)
	}
	s.logAudit(ctx, audit.Event{
		EventType: audit.EventAttendanceMarked,
		ActorID:   caller.UserID,
		StudentID: event.StudentID,
		SubjectID: event.SubjectID,
		Method:    string(event.Method),
		Success:   true,
		Metadata:  metadata,
	})
}

func (s *AttendanceService) logAudit(ctx context.Context, event audit.Event) {
	if err := s.audit.Log(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit log failed", "event_type", event.EventType, "error", err)
	}
}
