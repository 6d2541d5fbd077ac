package repository

import (
	"context"
	"time"

	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
	"github.com/saturnino-fabrica-de-software/classroll/internal/supabase"
)

// Store is the REST backing store the repositories talk to
type Store interface {
	Select(ctx context.Context, table string, q *supabase.Query, dest any) error
	Insert(ctx context.Context, table string, row any, dest any) error
	Update(ctx context.Context, table string, q *supabase.Query, patch any, dest any) error
	Delete(ctx context.Context, table string, q *supabase.Query) error
}

// UserRepositoryInterface defines operations for account data access
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	SetFaceRegistered(ctx context.Context, id string, registered bool) error
}

// SubjectRepositoryInterface defines operations for subject data access
type SubjectRepositoryInterface interface {
	Create(ctx context.Context, subject *domain.Subject) (*domain.Subject, error)
	GetByID(ctx context.Context, id string) (*domain.Subject, error)
	GetByInviteCode(ctx context.Context, code string) (*domain.Subject, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]domain.Subject, error)
	Delete(ctx context.Context, id string) error
}

// EnrollmentRepositoryInterface defines operations over subject_enrollments
type EnrollmentRepositoryInterface interface {
	IsEnrolled(ctx context.Context, subjectID, studentID string) (bool, error)
	Enroll(ctx context.Context, subjectID, studentID string) (*domain.Enrollment, error)
	ListStudents(ctx context.Context, subjectID string) ([]domain.EnrolledStudent, error)
	ListSubjects(ctx context.Context, studentID string) ([]domain.Subject, error)
}

// StudentRepositoryInterface defines operations for the student registry
type StudentRepositoryInterface interface {
	List(ctx context.Context) ([]domain.Student, error)
	GetByID(ctx context.Context, id string) (*domain.Student, error)
	Create(ctx context.Context, student *domain.Student) (*domain.Student, error)
	Delete(ctx context.Context, id string) error
	SetFaceEncoding(ctx context.Context, id string, encodingID *string) error
}

// AttendanceRepositoryInterface defines operations for attendance rows
type AttendanceRepositoryInterface interface {
	Insert(ctx context.Context, event *domain.AttendanceEvent) (*domain.AttendanceEvent, error)
	Exists(ctx context.Context, subjectID, studentID string, date time.Time) (bool, error)
	ListBySubject(ctx context.Context, subjectID string, date *time.Time) ([]domain.AttendanceRecord, error)
}
