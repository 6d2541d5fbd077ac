package domain

import (
	"strings"
	"time"
)

// DateLayout is the wire format of attendance dates
const DateLayout = "2006-01-02"

// SessionTimeLayout is the wire format of the session_time column
const SessionTimeLayout = "15:04:05"

type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
	StatusLate    AttendanceStatus = "late"
	StatusExcused AttendanceStatus = "excused"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	}
	return false
}

type AttendanceMethod string

const (
	MethodFaceRecognition AttendanceMethod = "face_recognition"
	MethodManual          AttendanceMethod = "manual"
)

// DuplicatePolicy controls what a second mark for the same day does.
//
//   - append stamps a session time and always inserts a new row
//   - noop leaves the existing row untouched
//
// In both cases a uniqueness conflict from the store is reported as AlreadyRecorded.
type DuplicatePolicy string

const (
	PolicyAppend DuplicatePolicy = "append"
	PolicyNoop   DuplicatePolicy = "noop"
)

func (p DuplicatePolicy) Valid() bool {
	return p == PolicyAppend || p == PolicyNoop
}

// RecordOutcome is the result of a successful Record call
type RecordOutcome int

const (
	Recorded RecordOutcome = iota + 1
	AlreadyRecorded
)

func (o RecordOutcome) String() string {
	switch o {
	case Recorded:
		return "recorded"
	case AlreadyRecorded:
		return "already_recorded"
	default:
		return "unknown"
	}
}

// AttendanceEvent is one attendance row
type AttendanceEvent struct {
	ID              string           `json:"attendance_id,omitempty"`
	SubjectID       string           `json:"subject_id"`
	StudentID       string           `json:"student_id"`
	Date            time.Time        `json:"-"`
	Status          AttendanceStatus `json:"status"`
	Method          AttendanceMethod `json:"method"`
	ConfidenceScore *float64         `json:"confidence_score,omitempty"`
	MarkedBy        string           `json:"marked_by"`
	SessionTime     string           `json:"session_time,omitempty"`
	CreatedAt       time.Time        `json:"created_at,omitempty"`
}

// DateString returns the event date in DateLayout
func (e *AttendanceEvent) DateString() string {
	return e.Date.Format(DateLayout)
}

// NewAttendanceEvent validates the fields every attendance row must carry.
// The date is truncated to a calendar day.
func NewAttendanceEvent(subjectID, studentID, markedBy string, date time.Time, status AttendanceStatus, method AttendanceMethod) (*AttendanceEvent, error) {
	switch {
	case strings.TrimSpace(subjectID) == "":
		return nil, ErrValidationFailed.WithMessage("subject_id is required")
	case strings.TrimSpace(studentID) == "":
		return nil, ErrValidationFailed.WithMessage("student_id is required")
	case strings.TrimSpace(markedBy) == "":
		return nil, ErrValidationFailed.WithMessage("marked_by is required")
	case date.IsZero():
		return nil, ErrValidationFailed.WithMessage("date is required")
	case !status.Valid():
		return nil, ErrInvalidAttendanceStatus
	case method != MethodFaceRecognition && method != MethodManual:
		return nil, ErrValidationFailed.WithMessage("method must be face_recognition or manual")
	}

	y, m, d := date.Date()
	return &AttendanceEvent{
		SubjectID: subjectID,
		StudentID: studentID,
		MarkedBy:  markedBy,
		Date:      time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Status:    status,
		Method:    method,
	}, nil
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrValidationFailed.WithMessage("date must be formatted as YYYY-MM-DD")
	}
	return t, nil
}

// AttendanceRecord is an attendance row joined with display names
type AttendanceRecord struct {
	ID              string           `json:"attendance_id"`
	SubjectID       string           `json:"subject_id"`
	StudentID       string           `json:"student_id"`
	StudentName     string           `json:"student_name,omitempty"`
	SubjectName     string           `json:"subject_name,omitempty"`
	Date            string           `json:"date"`
	Status          AttendanceStatus `json:"status"`
	Method          AttendanceMethod `json:"method"`
	ConfidenceScore *float64         `json:"confidence_score,omitempty"`
	MarkedBy        string           `json:"marked_by"`
	SessionTime     string           `json:"session_time,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// AttendanceDashboard aggregates a subject's attendance
type AttendanceDashboard struct {
	Subject             *Subject           `json:"subject"`
	TotalStudents       int                `json:"total_students"`
	TotalSessions       int                `json:"total_sessions"`
	TotalPresentRecords int                `json:"total_present_records"`
	Records             []AttendanceRecord `json:"attendance_records"`
	EnrolledStudents    []EnrolledStudent  `json:"enrolled_students"`
}

// BuildDashboard derives the aggregate counters from the raw rows.
// A session is a distinct date with at least one row.
func BuildDashboard(subject *Subject, records []AttendanceRecord, enrolled []EnrolledStudent) *AttendanceDashboard {
	dates := make(map[string]struct{}, len(records))
	present := 0
	for _, r := range records {
		dates[r.Date] = struct{}{}
		if r.Status == StatusPresent {
			present++
		}
	}

	if records == nil {
		records = []AttendanceRecord{}
	}
	if enrolled == nil {
		enrolled = []EnrolledStudent{}
	}

	return &AttendanceDashboard{
		Subject:             subject,
		TotalStudents:       len(enrolled),
		TotalSessions:       len(dates),
		TotalPresentRecords: present,
		Records:             records,
		EnrolledStudents:    enrolled,
	}
}
