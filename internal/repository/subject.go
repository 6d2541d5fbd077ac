package repository

import (
	"context"
	"time"

	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
	"github.com/saturnino-fabrica-de-software/classroll/internal/supabase"
)

const subjectSelect = "*,teacher:users!teacher_id(name)"

type subjectRecord struct {
	SubjectID   string    `json:"subject_id" validate:"required"`
	SubjectCode string    `json:"subject_code" validate:"required"`
	Name        string    `json:"name" validate:"required"`
	Description *string   `json:"description"`
	TeacherID   string    `json:"teacher_id" validate:"required"`
	InviteCode  string    `json:"invite_code" validate:"required"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	Teacher     *nameRef  `json:"teacher,omitempty"`
}

func (r *subjectRecord) toDomain() domain.Subject {
	return domain.Subject{
		ID:          r.SubjectID,
		Code:        r.SubjectCode,
		Name:        r.Name,
		Description: r.Description,
		TeacherID:   r.TeacherID,
		TeacherName: refName(r.Teacher),
		InviteCode:  r.InviteCode,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
	}
}

type subjectInsert struct {
	SubjectID   string  `json:"subject_id"`
	SubjectCode string  `json:"subject_code"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	TeacherID   string  `json:"teacher_id"`
	InviteCode  string  `json:"invite_code"`
	IsActive    bool    `json:"is_active"`
}

type SubjectRepository struct {
	store Store
}

func NewSubjectRepository(store Store) *SubjectRepository {
	return &SubjectRepository{store: store}
}

func (r *SubjectRepository) Create(ctx context.Context, subject *domain.Subject) (*domain.Subject, error) {
	var rows []subjectRecord
	err := r.store.Insert(ctx, tableSubjects, subjectInsert{
		SubjectID:   subject.ID,
		SubjectCode: subject.Code,
		Name:        subject.Name,
		Description: subject.Description,
		TeacherID:   subject.TeacherID,
		InviteCode:  subject.InviteCode,
		IsActive:    true,
	}, &rows)
	if err != nil {
		return nil, storeError("create subject", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrInvalidStoreRecord.WithMessage("store returned no subject after insert")
	}
	if err := validateRows(rows); err != nil {
		return nil, err
	}

	created := rows[0].toDomain()
	created.TeacherName = subject.TeacherName
	return &created, nil
}

func (r *SubjectRepository) GetByID(ctx context.Context, id string) (*domain.Subject, error) {
	return r.getOne(ctx, "get subject by id", supabase.NewQuery().Eq("subject_id", id))
}

func (r *SubjectRepository) GetByInviteCode(ctx context.Context, code string) (*domain.Subject, error) {
	return r.getOne(ctx, "get subject by invite code",
		supabase.NewQuery().Eq("invite_code", code).Eq("is_active", true))
}

func (r *SubjectRepository) getOne(ctx context.Context, op string, q *supabase.Query) (*domain.Subject, error) {
	var rows []subjectRecord
	if err := r.store.Select(ctx, tableSubjects, q.Select(subjectSelect).Limit(1), &rows); err != nil {
		return nil, storeError(op, err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrSubjectNotFound
	}
	if err := validateRows(rows); err != nil {
		return nil, err
	}

	subject := rows[0].toDomain()
	counts, err := countEnrollments(ctx, r.store, subject.ID)
	if err != nil {
		return nil, err
	}
	subject.StudentCount = counts[subject.ID]
	return &subject, nil
}

func (r *SubjectRepository) ListByTeacher(ctx context.Context, teacherID string) ([]domain.Subject, error) {
	var rows []subjectRecord
	q := supabase.NewQuery().Eq("teacher_id", teacherID).Select(subjectSelect).Order("created_at", false)
	if err := r.store.Select(ctx, tableSubjects, q, &rows); err != nil {
		return nil, storeError("list teacher subjects", err)
	}
	if err := validateRows(rows); err != nil {
		return nil, err
	}

	subjects := make([]domain.Subject, 0, len(rows))
	ids := make([]string, 0, len(rows))
	for i := range rows {
		subjects = append(subjects, rows[i].toDomain())
		ids = append(ids, rows[i].SubjectID)
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

func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, tableSubjects, supabase.NewQuery().Eq("subject_id", id)); err != nil {
		return storeError("delete subject", err)
	}
	return nil
}

// countEnrollments returns active enrollment counts for the given subjects in one query
func countEnrollments(ctx context.Context, store Store, subjectIDs ...string) (map[string]int, error) {
	counts := make(map[string]int, len(subjectIDs))
	if len(subjectIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		SubjectID string `json:"subject_id"`
	}
	q := supabase.NewQuery().In("subject_id", subjectIDs...).Eq("is_active", true).Select("subject_id")
	if err := store.Select(ctx, tableEnrollments, q, &rows); err != nil {
		return nil, storeError("count enrollments", err)
	}

	for _, row := range rows {
		counts[row.SubjectID]++
	}
	return counts, nil
}

var _ SubjectRepositoryInterface = (*SubjectRepository)(nil)
