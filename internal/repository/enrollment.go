package repository

import (
	"context"
	"errors"
	"time"

	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
	"github.com/saturnino-fabrica-de-software/classroll/internal/supabase"
)

type enrolledStudentRecord struct {
	UserID           string `json:"user_id" validate:"required"`
	Name             string `json:"name" validate:"required"`
	Email            string `json:"email"`
	IsFaceRegistered bool   `json:"is_face_registered"`
}

type enrollmentRecord struct {
	SubjectID  string                 `json:"subject_id" validate:"required"`
	StudentID  string                 `json:"student_id" validate:"required"`
	IsActive   bool                   `json:"is_active"`
	EnrolledAt time.Time              `json:"enrolled_at"`
	Student    *enrolledStudentRecord `json:"student,omitempty"`
	Subject    *subjectRecord         `json:"subject,omitempty"`
}

type EnrollmentRepository struct {
	store Store
}

func NewEnrollmentRepository(store Store) *EnrollmentRepository {
	return &EnrollmentRepository{store: store}
}

func (r *EnrollmentRepository) IsEnrolled(ctx context.Context, subjectID, studentID string) (bool, error) {
	var rows []enrollmentRecord
	q := supabase.NewQuery().
		Eq("subject_id", subjectID).
		Eq("student_id", studentID).
		Eq("is_active", true).
		Limit(1)
	if err := r.store.Select(ctx, tableEnrollments, q, &rows); err != nil {
		return false, storeError("check enrollment", err)
	}
	return len(rows) > 0, nil
}

func (r *EnrollmentRepository) Enroll(ctx context.Context, subjectID, studentID string) (*domain.Enrollment, error) {
	var rows []enrollmentRecord
	err := r.store.Insert(ctx, tableEnrollments, map[string]any{
		"subject_id": subjectID,
		"student_id": studentID,
		"is_active":  true,
	}, &rows)
	if errors.Is(err, supabase.ErrConflict) {
		return nil, domain.ErrAlreadyEnrolled
	}
	if err != nil {
		return nil, storeError("enroll student", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrInvalidStoreRecord.WithMessage("store returned no enrollment after insert")
	}
	if err := validateRows(rows); err != nil {
		return nil, err
	}

	return &domain.Enrollment{
		SubjectID:  rows[0].SubjectID,
		StudentID:  rows[0].StudentID,
		IsActive:   rows[0].IsActive,
		EnrolledAt: rows[0].EnrolledAt,
	}, nil
}

func (r *EnrollmentRepository) ListStudents(ctx context.Context, subjectID string) ([]domain.EnrolledStudent, error) {
	var rows []enrollmentRecord
	q := supabase.NewQuery().
		Eq("subject_id", subjectID).
		Eq("is_active", true).
		Select("*,student:users!student_id(user_id,name,email,is_face_registered)")
	if err := r.store.Select(ctx, tableEnrollments, q, &rows); err != nil {
		return nil, storeError("list subject students", err)
	}
	if err := validateRows(rows); err != nil {
		return nil, err
	}

	students := make([]domain.EnrolledStudent, 0, len(rows))
	for _, row := range rows {
		if row.Student == nil {
			return nil, domain.ErrInvalidStoreRecord.WithMessage("enrollment without student")
		}
		students = append(students, domain.EnrolledStudent{
			UserID:           row.Student.UserID,
			Name:             row.Student.Name,
			Email:            row.Student.Email,
			IsFaceRegistered: row.Student.IsFaceRegistered,
		})
	}
	return students, nil
}

func (r *EnrollmentRepository) ListSubjects(ctx context.Context, studentID string) ([]domain.Subject, error) {
	var rows []enrollmentRecord
	q := supabase.NewQuery().
		Eq("student_id", studentID).
		Eq("is_active", true).
		Select("*,subject:subjects(" + subjectSelect + ")")
	if err := r.store.Select(ctx, tableEnrollments, q, &rows); err != nil {
		return nil, storeError("list student subjects", err)
	}
	if err := validateRows(rows); err != nil {
		return nil, err
	}

	subjects := make([]domain.Subject, 0, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Subject == nil {
			return nil, domain.ErrInvalidStoreRecord.WithMessage("enrollment without subject")
		}
		subjects = append(subjects, row.Subject.toDomain())
		ids = append(ids, row.Subject.SubjectID)
	}

	counts, err := countEnrollments(ctx, r.store, ids...)
	if err != nil {
		return nil, err
	}
	for i := range subjects {
		subjects[i].StudentCount = counts[subjects[i].ID]
	}
	return subjects, nil
}

var _ EnrollmentRepositoryInterface = (*EnrollmentRepository)(nil)
