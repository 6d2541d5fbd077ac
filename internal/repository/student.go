package repository

import (
	"context"
	"errors"
	"time"

	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
	"github.com/saturnino-fabrica-de-software/classroll/internal/supabase"
)

type studentRecord struct {
	StudentID       string    `json:"student_id" validate:"required"`
	Name            string    `json:"name" validate:"required"`
	Email           *string   `json:"email"`
	DepartmentID    *string   `json:"department_id"`
	BatchYear       int       `json:"batch_year" validate:"gt=0"`
	CurrentSemester int       `json:"current_semester" validate:"gt=0"`
	FaceEncodingID  *string   `json:"face_encoding_id"`
	CreatedAt       time.Time `json:"created_at"`
}

func (r *studentRecord) toDomain() domain.Student {
	return domain.Student{
		ID:              r.StudentID,
		Name:            r.Name,
		Email:           deref(r.Email),
		DepartmentID:    deref(r.DepartmentID),
		BatchYear:       r.BatchYear,
		CurrentSemester: r.CurrentSemester,
		FaceEncodingID:  r.FaceEncodingID,
		CreatedAt:       r.CreatedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type StudentRepository struct {
	store Store
}

func NewStudentRepository(store Store) *StudentRepository {
	return &StudentRepository{store: store}
}

func (r *StudentRepository) List(ctx context.Context) ([]domain.Student, error) {
	var rows []studentRecord
	if err := r.store.Select(ctx, tableStudents, supabase.NewQuery().Order("student_id", true), &rows); err != nil {
		return nil, storeError("list students", err)
	}
	if err := validateRows(rows); err != nil {
		return nil, err
	}

	students := make([]domain.Student, 0, len(rows))
	for i := range rows {
		students = append(students, rows[i].toDomain())
	}
	return students, nil
}

func (r *StudentRepository) GetByID(ctx context.Context, id string) (*domain.Student, error) {
	var rows []studentRecord
	if err := r.store.Select(ctx, tableStudents, supabase.NewQuery().Eq("student_id", id).Limit(1), &rows); err != nil {
		return nil, storeError("get student", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrStudentNotFound
	}
	if err := validateRows(rows); err != nil {
		return nil, err
	}

	student := rows[0].toDomain()
	return &student, nil
}

func (r *StudentRepository) Create(ctx context.Context, student *domain.Student) (*domain.Student, error) {
	row := map[string]any{
		"student_id":       student.ID,
		"name":             student.Name,
		"batch_year":       student.BatchYear,
		"current_semester": student.CurrentSemester,
	}
	if student.Email != "" {
		row["email"] = student.Email
	}
	if student.DepartmentID != "" {
		row["department_id"] = student.DepartmentID
	}

	var rows []studentRecord
	err := r.store.Insert(ctx, tableStudents, row, &rows)
	if errors.Is(err, supabase.ErrConflict) {
		return nil, domain.ErrStudentExists
	}
	if err != nil {
		return nil, storeError("create student", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrInvalidStoreRecord.WithMessage("store returned no student after insert")
	}
	if err := validateRows(rows); err != nil {
		return nil, err
	}

	created := rows[0].toDomain()
	return &created, nil
}

func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, tableStudents, supabase.NewQuery().Eq("student_id", id)); err != nil {
		return storeError("delete student", err)
	}
	return nil
}

func (r *StudentRepository) SetFaceEncoding(ctx context.Context, id string, encodingID *string) error {
	var rows []studentRecord
	err := r.store.Update(ctx, tableStudents, supabase.NewQuery().Eq("student_id", id),
		map[string]any{"face_encoding_id": encodingID}, &rows)
	if err != nil {
		return storeError("set face encoding", err)
	}
	if len(rows) == 0 {
		return domain.ErrStudentNotFound
	}
	return nil
}

var _ StudentRepositoryInterface = (*StudentRepository)(nil)
