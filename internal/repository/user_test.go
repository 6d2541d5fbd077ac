package repository

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
)

const userRow = `{"user_id":"u1","email":"ana@school.edu","name":"Ana","user_type":"teacher","password_hash":"$2a$10$hash","is_face_registered":false,"created_at":"2024-03-01T10:00:00Z"}`

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("returns stored user", func(t *testing.T) {
		store := newTestStore(t, routes(t, map[string]http.HandlerFunc{
			"POST /users": func(w http.ResponseWriter, r *http.Request) {
				body := decodeBody(t, r)
				assert.Equal(t, "ana@school.edu", body["email"])
				assert.Equal(t, "teacher", body["user_type"])
				reply("[" + userRow + "]")(w, r)
			},
		}))

		user, err := NewUserRepository(store).Create(ctx, &domain.User{
			ID: "u1", Email: "ana@school.edu", Name: "Ana", Type: domain.UserTypeTeacher, PasswordHash: "$2a$10$hash",
		})

		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		assert.Equal(t, domain.UserTypeTeacher, user.Type)
	})

	t.Run("conflict means email taken", func(t *testing.T) {
		store := newTestStore(t, routes(t, map[string]http.HandlerFunc{
			"POST /users": replyStatus(http.StatusConflict, `{"code":"23505"}`),
		}))

		_, err := NewUserRepository(store).Create(ctx, &domain.User{ID: "u1", Email: "ana@school.edu"})

		assert.ErrorIs(t, err, domain.ErrEmailTaken)
	})
}

func TestUserRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes email", func(t *testing.T) {
		store := newTestStore(t, routes(t, map[string]http.HandlerFunc{
			"GET /users": func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "eq.ana@school.edu", r.URL.Query().Get("email"))
				reply("[" + userRow + "]")(w, r)
			},
		}))

		user, err := NewUserRepository(store).GetByEmail(ctx, "  Ana@School.edu ")

		require.NoError(t, err)
		assert.Equal(t, "Ana", user.Name)
	})

	t.Run("not found", func(t *testing.T) {
		store := newTestStore(t, routes(t, map[string]http.HandlerFunc{
			"GET /users": reply(`[]`),
		}))

		_, err := NewUserRepository(store).GetByEmail(ctx, "nobody@school.edu")

		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("malformed row", func(t *testing.T) {
		store := newTestStore(t, routes(t, map[string]http.HandlerFunc{
			"GET /users": reply(`[{"user_id":"u1","email":"ana@school.edu","name":"Ana","user_type":"admin","password_hash":"x"}]`),
		}))

		_, err := NewUserRepository(store).GetByEmail(ctx, "ana@school.edu")

		assert.ErrorIs(t, err, domain.ErrInvalidStoreRecord)
	})

	t.Run("store failure", func(t *testing.T) {
		store := newTestStore(t, routes(t, map[string]http.HandlerFunc{
			"GET /users": replyStatus(http.StatusInternalServerError, `boom`),
		}))

		_, err := NewUserRepository(store).GetByEmail(ctx, "ana@school.edu")

		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})
}

func TestUserRepository_SetFaceRegistered(t *testing.T) {
	ctx := context.Background()

	t.Run("patches flag", func(t *testing.T) {
		store := newTestStore(t, routes(t, map[string]http.HandlerFunc{
			"PATCH /users": func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "eq.u1", r.URL.Query().Get("user_id"))
				assert.Equal(t, true, decodeBody(t, r)["is_face_registered"])
				reply("[" + userRow + "]")(w, r)
			},
		}))

		require.NoError(t, NewUserRepository(store).SetFaceRegistered(ctx, "u1", true))
	})

	t.Run("unknown user", func(t *testing.T) {
		store := newTestStore(t, routes(t, map[string]http.HandlerFunc{
			"PATCH /users": reply(`[]`),
		}))

		err := NewUserRepository(store).SetFaceRegistered(ctx, "u9", true)

		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}
