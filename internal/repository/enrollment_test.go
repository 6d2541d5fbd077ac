package repository

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
)

func TestEnrollmentRepository_IsEnrolled(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"enrolled", `[{"subject_id":"s1","student_id":"u1","is_active":true}]`, true},
		{"not enrolled", `[]`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t, routes(t, map[string]http.HandlerFunc{
				"GET /subject_enrollments": func(w http.ResponseWriter, r *http.Request) {
					q := r.URL.Query()
					assert.Equal(t, "eq.s1", q.Get("subject_id"))
					assert.Equal(t, "eq.u1", q.Get("student_id"))
					assert.Equal(t, "eq.true", q.Get("is_active"))
					reply(tt.body)(w, r)
				},
			}))

			got, err := NewEnrollmentRepository(store).IsEnrolled(context.Background(), "s1", "u1")

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnrollmentRepository_Enroll(t *testing.T) {
	ctx := context.Background()

	t.Run("creates active enrollment", func(t *testing.T) {
		store := newTestStore(t, routes(t, map[string]http.HandlerFunc{
			"POST /subject_enrollments": func(w http.ResponseWriter, r *http.Request) {
				body := decodeBody(t, r)
				assert.Equal(t, "s1", body["subject_id"])
				assert.Equal(t, "u1", body["student_id"])
				assert.Equal(t, true, body["is_active"])
				reply(`[{"subject_id":"s1","student_id":"u1","is_active":true,"enrolled_at":"2024-03-01T10:00:00Z"}]`)(w, r)
			},
		}))

		enrollment, err := NewEnrollmentRepository(store).Enroll(ctx, "s1", "u1")

		require.NoError(t, err)
		assert.True(t, enrollment.IsActive)
	})

	t.Run("conflict means already enrolled", func(t *testing.T) {
		store := newTestStore(t, routes(t, map[string]http.HandlerFunc{
			"POST /subject_enrollments": replyStatus(http.StatusConflict, `{}`),
		}))

		_, err := NewEnrollmentRepository(store).Enroll(ctx, "s1", "u1")

		assert.ErrorIs(t, err, domain.ErrAlreadyEnrolled)
	})
}

func TestEnrollmentRepository_ListStudents(t *testing.T) {
	store := newTestStore(t, routes(t, map[string]http.HandlerFunc{
		"GET /subject_enrollments": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "*,student:users!student_id(user_id,name,email,is_face_registered)", r.URL.Query().Get("select"))
			reply(`[
				{"subject_id":"s1","student_id":"u1","is_active":true,"student":{"user_id":"u1","name":"Bea","email":"bea@school.edu","is_face_registered":true}},
				{"subject_id":"s1","student_id":"u2","is_active":true,"student":{"user_id":"u2","name":"Caio","email":"caio@school.edu","is_face_registered":false}}
			]`)(w, r)
		},
	}))

	students, err := NewEnrollmentRepository(store).ListStudents(context.Background(), "s1")

	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Bea", students[0].Name)
	assert.True(t, students[0].IsFaceRegistered)
	assert.False(t, students[1].IsFaceRegistered)
}

func TestEnrollmentRepository_ListSubjects(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("student_id") != "" {
			assert.Equal(t, "*,subject:subjects("+subjectSelect+")", q.Get("select"))
			reply(`[{"subject_id":"s1","student_id":"u1","is_active":true,"subject":{"subject_id":"s1","subject_code":"CS101","name":"Algorithms","teacher_id":"t1","invite_code":"AB12CD34","is_active":true,"teacher":{"name":"Ana"}}}]`)(w, r)
			return
		}
		assert.Equal(t, `in.("s1")`, q.Get("subject_id"))
		reply(`[{"subject_id":"s1"},{"subject_id":"s1"}]`)(w, r)
	})

	subjects, err := NewEnrollmentRepository(store).ListSubjects(context.Background(), "u1")

	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "Ana", subjects[0].TeacherName)
	assert.Equal(t, 2, subjects[0].StudentCount)
}
