package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/saturnino-fabrica-de-software/classroll/internal/audit"
	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
	"github.com/saturnino-fabrica-de-software/classroll/internal/provider"
	"github.com/saturnino-fabrica-de-software/classroll/internal/vectorindex"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockIndex struct {
	mock.Mock
}

func (m *MockIndex) Upsert(ctx context.Context, id string, vector []float64, metadata map[string]any) error {
	args := m.Called(ctx, id, vector, metadata)
	return args.Error(0)
}

func (m *MockIndex) Query(ctx context.Context, vector []float64, topK int) ([]vectorindex.Match, error) {
	args := m.Called(ctx, vector, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]vectorindex.Match), args.Error(1)
}

func (m *MockIndex) Delete(ctx context.Context, ids ...string) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) DetectAndEncode(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.DetectedFace), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) SetFaceRegistered(ctx context.Context, id string, registered bool) error {
	args := m.Called(ctx, id, registered)
	return args.Error(0)
}

type MockSubjectRepository struct {
	mock.Mock
}

func (m *MockSubjectRepository) Create(ctx context.Context, subject *domain.Subject) (*domain.Subject, error) {
	args := m.Called(ctx, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subject), args.Error(1)
}

func (m *MockSubjectRepository) GetByID(ctx context.Context, id string) (*domain.Subject, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subject), args.Error(1)
}

func (m *MockSubjectRepository) GetByInviteCode(ctx context.Context, code string) (*domain.Subject, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subject), args.Error(1)
}

func (m *MockSubjectRepository) ListByTeacher(ctx context.Context, teacherID string) ([]domain.Subject, error) {
	args := m.Called(ctx, teacherID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Subject), args.Error(1)
}

func (m *MockSubjectRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockEnrollmentRepository struct {
	mock.Mock
}

func (m *MockEnrollmentRepository) IsEnrolled(ctx context.Context, subjectID, studentID string) (bool, error) {
	args := m.Called(ctx, subjectID, studentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockEnrollmentRepository) Enroll(ctx context.Context, subjectID, studentID string) (*domain.Enrollment, error) {
	args := m.Called(ctx, subjectID, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Enrollment), args.Error(1)
}

func (m *MockEnrollmentRepository) ListStudents(ctx context.Context, subjectID string) ([]domain.EnrolledStudent, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EnrolledStudent), args.Error(1)
}

func (m *MockEnrollmentRepository) ListSubjects(ctx context.Context, studentID string) ([]domain.Subject, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Subject), args.Error(1)
}

type MockStudentRepository struct {
	mock.Mock
}

func (m *MockStudentRepository) List(ctx context.Context) ([]domain.Student, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Student), args.Error(1)
}

func (m *MockStudentRepository) GetByID(ctx context.Context, id string) (*domain.Student, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Student), args.Error(1)
}

func (m *MockStudentRepository) Create(ctx context.Context, student *domain.Student) (*domain.Student, error) {
	args := m.Called(ctx, student)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Student), args.Error(1)
}

func (m *MockStudentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStudentRepository) SetFaceEncoding(ctx context.Context, id string, encodingID *string) error {
	args := m.Called(ctx, id, encodingID)
	return args.Error(0)
}

type MockAttendanceRepository struct {
	mock.Mock
}

func (m *MockAttendanceRepository) Insert(ctx context.Context, event *domain.AttendanceEvent) (*domain.AttendanceEvent, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AttendanceEvent), args.Error(1)
}

func (m *MockAttendanceRepository) Exists(ctx context.Context, subjectID, studentID string, date time.Time) (bool, error) {
	args := m.Called(ctx, subjectID, studentID, date)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttendanceRepository) ListBySubject(ctx context.Context, subjectID string, date *time.Time) ([]domain.AttendanceRecord, error) {
	args := m.Called(ctx, subjectID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AttendanceRecord), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishAttendance(subjectID string, record domain.AttendanceRecord) {
	m.Called(subjectID, record)
}

// recordingAudit keeps every event for assertions
type recordingAudit struct {
	events []audit.Event
}

func (r *recordingAudit) Log(_ context.Context, event audit.Event) error {
	r.events = append(r.events, event)
	return nil
}

type MockFaceEnroller struct {
	mock.Mock
}

func (m *MockFaceEnroller) Register(ctx context.Context, studentID string, image []byte) error {
	args := m.Called(ctx, studentID, image)
	return args.Error(0)
}

func (m *MockFaceEnroller) Update(ctx context.Context, studentID string, image []byte) error {
	args := m.Called(ctx, studentID, image)
	return args.Error(0)
}

func (m *MockFaceEnroller) Delete(ctx context.Context, studentID string) error {
	args := m.Called(ctx, studentID)
	return args.Error(0)
}
