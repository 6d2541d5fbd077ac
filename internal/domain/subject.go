package domain

import "time"

// Subject is a classroom owned by a teacher
type Subject struct {
	ID           string    `json:"subject_id"`
	Code         string    `json:"subject_code"`
	Name         string    `json:"name"`
	Description  *string   `json:"description"`
	TeacherID    string    `json:"teacher_id"`
	TeacherName  string    `json:"teacher_name"`
	InviteCode   string    `json:"invite_code"`
	IsActive     bool      `json:"is_active"`
	StudentCount int       `json:"student_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// OwnedBy reports whether the given teacher owns the subject
func (s *Subject) OwnedBy(teacherID string) bool {
	return s != nil && teacherID != "" && s.TeacherID == teacherID
}

// Enrollment links a student user to a subject
type Enrollment struct {
	SubjectID  string    `json:"subject_id"`
	StudentID  string    `json:"student_id"`
	IsActive   bool      `json:"is_active"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// EnrolledStudent is the public view of a student enrolled in a subject
type EnrolledStudent struct {
	UserID           string `json:"user_id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	IsFaceRegistered bool   `json:"is_face_registered"`
}
