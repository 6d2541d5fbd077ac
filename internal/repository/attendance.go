package repository

import (
	"context"
	"errors"
	"time"

	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
	"github.com/saturnino-fabrica-de-software/classroll/internal/supabase"
)

const attendanceSelect = "*,student:users!student_id(name),subject:subjects!subject_id(name)"

type attendanceRecord struct {
	AttendanceID    string    `json:"attendance_id" validate:"required"`
	SubjectID       string    `json:"subject_id" validate:"required"`
	StudentID       string    `json:"student_id" validate:"required"`
	Date            string    `json:"date" validate:"required,datetime=2006-01-02"`
	Status          string    `json:"status" validate:"required,oneof=present absent late excused"`
	Method          string    `json:"method" validate:"required,oneof=face_recognition manual"`
	ConfidenceScore *float64  `json:"confidence_score"`
	MarkedBy        string    `json:"marked_by" validate:"required"`
	SessionTime     *string   `json:"session_time"`
	CreatedAt       time.Time `json:"created_at"`
	Student         *nameRef  `json:"student,omitempty"`
	Subject         *nameRef  `json:"subject,omitempty"`
}

func (r *attendanceRecord) toRecord() domain.AttendanceRecord {
	return domain.AttendanceRecord{
		ID:              r.AttendanceID,
		SubjectID:       r.SubjectID,
		StudentID:       r.StudentID,
		StudentName:     refName(r.Student),
		SubjectName:     refName(r.Subject),
		Date:            r.Date,
		Status:          domain.AttendanceStatus(r.Status),
		Method:          domain.AttendanceMethod(r.Method),
		ConfidenceScore: r.ConfidenceScore,
		MarkedBy:        r.MarkedBy,
		SessionTime:     deref(r.SessionTime),
		CreatedAt:       r.CreatedAt,
	}
}

type attendanceInsert struct {
	SubjectID       string   `json:"subject_id"`
	StudentID       string   `json:"student_id"`
	Date            string   `json:"date"`
	Status          string   `json:"status"`
	Method          string   `json:"method"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
	MarkedBy        string   `json:"marked_by"`
	SessionTime     *string  `json:"session_time,omitempty"`
}

type AttendanceRepository struct {
	store Store
}

func NewAttendanceRepository(store Store) *AttendanceRepository {
	return &AttendanceRepository{store: store}
}

// Insert stores one attendance row. A uniqueness conflict is reported as
// ErrDuplicateAttendance.
func (r *AttendanceRepository) Insert(ctx context.Context, event *domain.AttendanceEvent) (*domain.AttendanceEvent, error) {
	payload := attendanceInsert{
		SubjectID:       event.SubjectID,
		StudentID:       event.StudentID,
		Date:            event.DateString(),
		Status:          string(event.Status),
		Method:          string(event.Method),
		ConfidenceScore: event.ConfidenceScore,
		MarkedBy:        event.MarkedBy,
	}
	if event.SessionTime != "" {
		payload.SessionTime = &event.SessionTime
	}

	var rows []attendanceRecord
	err := r.store.Insert(ctx, tableAttendance, payload, &rows)
	if errors.Is(err, supabase.ErrConflict) {
		return nil, ErrDuplicateAttendance
	}
	if err != nil {
		return nil, storeError("insert attendance", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrInvalidStoreRecord.WithMessage("store returned no attendance row after insert")
	}
	if err := validateRows(rows); err != nil {
		return nil, err
	}

	stored := *event
	stored.ID = rows[0].AttendanceID
	stored.CreatedAt = rows[0].CreatedAt
	return &stored, nil
}

func (r *AttendanceRepository) Exists(ctx context.Context, subjectID, studentID string, date time.Time) (bool, error) {
	var rows []struct {
		AttendanceID string `json:"attendance_id"`
	}
	q := supabase.NewQuery().
		Eq("subject_id", subjectID).
		Eq("student_id", studentID).
		Eq("date", date.Format(domain.DateLayout)).
		Select("attendance_id").
		Limit(1)
	if err := r.store.Select(ctx, tableAttendance, q, &rows); err != nil {
		return false, storeError("check attendance", err)
	}
	return len(rows) > 0, nil
}

// ListBySubject returns the subject's rows, optionally restricted to one date
func (r *AttendanceRepository) ListBySubject(ctx context.Context, subjectID string, date *time.Time) ([]domain.AttendanceRecord, error) {
	q := supabase.NewQuery().Eq("subject_id", subjectID)
	if date != nil {
		q.Eq("date", date.Format(domain.DateLayout))
	}
	q.Select(attendanceSelect).Order("created_at", true)

	var rows []attendanceRecord
	if err := r.store.Select(ctx, tableAttendance, q, &rows); err != nil {
		return nil, storeError("list attendance", err)
	}
	if err := validateRows(rows); err != nil {
		return nil, err
	}

	records := make([]domain.AttendanceRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].toRecord())
	}
	return records, nil
}

var _ AttendanceRepositoryInterface = (*AttendanceRepository)(nil)
