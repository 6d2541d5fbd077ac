package ws

import (
	"time"
)

type EventType string

const (
	EventAttendanceMarked EventType = "attendance.marked"
)

// Event is pushed to every live viewer of a subject
type Event struct {
	SubjectID string      `json:"subject_id"`
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}
