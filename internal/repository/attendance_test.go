package repository

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
)

func newEvent(t *testing.T, sessionTime string) *domain.AttendanceEvent {
	t.Helper()

	event, err := domain.NewAttendanceEvent("s1", "u1", "t1",
		time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC), domain.StatusPresent, domain.MethodFaceRecognition)
	require.NoError(t, err)

	score := 0.92
	event.ConfidenceScore = &score
	event.SessionTime = sessionTime
	return event
}

func TestAttendanceRepository_Insert(t *testing.T) {
	ctx := context.Background()

	t.Run("sends date and session time", func(t *testing.T) {
		store := newTestStore(t, routes(t, map[string]http.HandlerFunc{
			"POST /attendance": func(w http.ResponseWriter, r *http.Request) {
				body := decodeBody(t, r)
				assert.Equal(t, "2024-03-04", body["date"])
				assert.Equal(t, "10:15:00", body["session_time"])
				assert.Equal(t, "face_recognition", body["method"])
				assert.InDelta(t, 0.92, body["confidence_score"], 1e-9)
				reply(`[{"attendance_id":"a1","subject_id":"s1","student_id":"u1","date":"2024-03-04","status":"present","method":"face_recognition","confidence_score":0.92,"marked_by":"t1","session_time":"10:15:00","created_at":"2024-03-04T10:15:00Z"}]`)(w, r)
			},
		}))

		stored, err := NewAttendanceRepository(store).Insert(ctx, newEvent(t, "10:15:00"))

		require.NoError(t, err)
		assert.Equal(t, "a1", stored.ID)
		assert.Equal(t, "10:15:00", stored.SessionTime)
	})

	t.Run("unstamped row omits session time", func(t *testing.T) {
		store := newTestStore(t, routes(t, map[string]http.HandlerFunc{
			"POST /attendance": func(w http.ResponseWriter, r *http.Request) {
				assert.NotContains(t, decodeBody(t, r), "session_time")
				reply(`[{"attendance_id":"a2","subject_id":"s1","student_id":"u1","date":"2024-03-04","status":"present","method":"face_recognition","marked_by":"t1"}]`)(w, r)
			},
		}))

		_, err := NewAttendanceRepository(store).Insert(ctx, newEvent(t, ""))

		require.NoError(t, err)
	})

	t.Run("conflict is a duplicate", func(t *testing.T) {
		store := newTestStore(t, routes(t, map[string]http.HandlerFunc{
			"POST /attendance": replyStatus(http.StatusConflict, `{"code":"23505"}`),
		}))

		_, err := NewAttendanceRepository(store).Insert(ctx, newEvent(t, ""))

		assert.True(t, errors.Is(err, ErrDuplicateAttendance))
	})

	t.Run("other failures are store errors", func(t *testing.T) {
		store := newTestStore(t, routes(t, map[string]http.HandlerFunc{
			"POST /attendance": replyStatus(http.StatusBadGateway, `upstream`),
		}))

		_, err := NewAttendanceRepository(store).Insert(ctx, newEvent(t, ""))

		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})
}

func TestAttendanceRepository_Exists(t *testing.T) {
	store := newTestStore(t, routes(t, map[string]http.HandlerFunc{
		"GET /attendance": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "eq.2024-03-04", q.Get("date"))
			assert.Equal(t, "1", q.Get("limit"))
			reply(`[{"attendance_id":"a1"}]`)(w, r)
		},
	}))

	ok, err := NewAttendanceRepository(store).Exists(context.Background(), "s1", "u1",
		time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAttendanceRepository_ListBySubject(t *testing.T) {
	ctx := context.Background()
	row := `{"attendance_id":"a1","subject_id":"s1","student_id":"u1","date":"2024-03-04","status":"present","method":"manual","marked_by":"t1","student":{"name":"Bea"},"subject":{"name":"Algorithms"}}`

	t.Run("with date filter", func(t *testing.T) {
		store := newTestStore(t, routes(t, map[string]http.HandlerFunc{
			"GET /attendance": func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				assert.Equal(t, "eq.s1", q.Get("subject_id"))
				assert.Equal(t, "eq.2024-03-04", q.Get("date"))
				assert.Equal(t, attendanceSelect, q.Get("select"))
				reply("[" + row + "]")(w, r)
			},
		}))

		date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
		records, err := NewAttendanceRepository(store).ListBySubject(ctx, "s1", &date)

		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Bea", records[0].StudentName)
		assert.Equal(t, "Algorithms", records[0].SubjectName)
		assert.Nil(t, records[0].ConfidenceScore)
	})

	t.Run("without date filter", func(t *testing.T) {
		store := newTestStore(t, routes(t, map[string]http.HandlerFunc{
			"GET /attendance": func(w http.ResponseWriter, r *http.Request) {
				assert.Empty(t, r.URL.Query().Get("date"))
				reply(`[]`)(w, r)
			},
		}))

		records, err := NewAttendanceRepository(store).ListBySubject(ctx, "s1", nil)

		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("rejects malformed status", func(t *testing.T) {
		store := newTestStore(t, routes(t, map[string]http.HandlerFunc{
			"GET /attendance": reply(`[{"attendance_id":"a1","subject_id":"s1","student_id":"u1","date":"2024-03-04","status":"maybe","method":"manual","marked_by":"t1"}]`),
		}))

		_, err := NewAttendanceRepository(store).ListBySubject(ctx, "s1", nil)

		assert.ErrorIs(t, err, domain.ErrInvalidStoreRecord)
	})
}
