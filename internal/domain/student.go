package domain

import (
	"strings"
	"time"
)

// Student is an entry of the institution's student registry
type Student struct {
	ID              string    `json:"student_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	DepartmentID    string    `json:"department_id"`
	BatchYear       int       `json:"batch_year"`
	CurrentSemester int       `json:"current_semester"`
	FaceEncodingID  *string   `json:"face_encoding_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// HasFaceEncoding reports whether an embedding is stored for the student
func (s *Student) HasFaceEncoding() bool {
	return s.FaceEncodingID != nil && *s.FaceEncodingID != ""
}

// NewStudent validates the registry fields of a student
func NewStudent(id, name, email, departmentID string, batchYear, semester int) (*Student, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)

	switch {
	case id == "":
		return nil, ErrValidationFailed.WithMessage("student_id is required")
	case name == "":
		return nil, ErrValidationFailed.WithMessage("name is required")
	case batchYear <= 0:
		return nil, ErrValidationFailed.WithMessage("batch_year must be positive")
	case semester <= 0:
		return nil, ErrValidationFailed.WithMessage("current_semester must be positive")
	}

	return &Student{
		ID:              id,
		Name:            name,
		Email:           strings.TrimSpace(email),
		DepartmentID:    strings.TrimSpace(departmentID),
		BatchYear:       batchYear,
		CurrentSemester: semester,
	}, nil
}
