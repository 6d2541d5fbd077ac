package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
	"github.com/saturnino-fabrica-de-software/classroll/internal/service"
)

func newAuthApp(caller *domain.Caller, svc *MockAuthService) *fiber.App {
	h := NewAuthHandler(svc, testLogger())
	app := createTestApp(caller)
	app.Post("/auth/register", h.Register)
	app.Post("/auth/login", h.Login)
	app.Get("/auth/me", h.Me)
	app.Post("/auth/logout", h.Logout)
	app.Post("/auth/register-face", h.RegisterFace)
	app.Put("/auth/face", h.UpdateFace)
	return app
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name         string
		body         fiber.Map
		setup        func(*MockAuthService)
		expectedCode int
		expectedErr  string
	}{
		{
			name: "creates account",
			body: fiber.Map{"email": "ana@uni.edu", "name": "Ana", "password": "secret1", "user_type": "student"},
			setup: func(m *MockAuthService) {
				m.On("Register", mock.Anything, service.RegisterInput{
					Email:    "ana@uni.edu",
					Name:     "Ana",
					Password: "secret1",
					UserType: domain.UserTypeStudent,
				}).Return(&service.Session{
					AccessToken: "token",
					TokenType:   "bearer",
					User:        &domain.User{ID: "u1", Email: "ana@uni.edu", Type: domain.UserTypeStudent},
				}, nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name:         "short password",
			body:         fiber.Map{"email": "ana@uni.edu", "name": "Ana", "password": "123", "user_type": "student"},
			expectedCode: http.StatusUnprocessableEntity,
			expectedErr:  "VALIDATION_FAILED",
		},
		{
			name:         "unknown user type",
			body:         fiber.Map{"email": "ana@uni.edu", "name": "Ana", "password": "secret1", "user_type": "admin"},
			expectedCode: http.StatusUnprocessableEntity,
			expectedErr:  "VALIDATION_FAILED",
		},
		{
			name:         "malformed email",
			body:         fiber.Map{"email": "ana", "name": "Ana", "password": "secret1", "user_type": "teacher"},
			expectedCode: http.StatusUnprocessableEntity,
			expectedErr:  "VALIDATION_FAILED",
		},
		{
			name: "email taken",
			body: fiber.Map{"email": "ana@uni.edu", "name": "Ana", "password": "secret1", "user_type": "teacher"},
			setup: func(m *MockAuthService) {
				m.On("Register", mock.Anything, mock.Anything).Return(nil, domain.ErrEmailTaken)
			},
			expectedCode: http.StatusBadRequest,
			expectedErr:  "EMAIL_TAKEN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			if tt.setup != nil {
				tt.setup(svc)
			}

			code, body := doRequest(t, newAuthApp(nil, svc), jsonRequest(http.MethodPost, "/auth/register", tt.body))

			assert.Equal(t, tt.expectedCode, code)
			if tt.expectedErr != "" {
				assert.Equal(t, tt.expectedErr, errorCode(t, body))
			} else {
				var session service.Session
				require.NoError(t, json.Unmarshal(body, &session))
				assert.Equal(t, "token", session.AccessToken)
				assert.Equal(t, "u1", session.User.ID)
				assert.NotContains(t, string(body), "password")
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("Login", mock.Anything, "ana@uni.edu", "secret1").Return(&service.Session{AccessToken: "token", TokenType: "bearer"}, nil)
	svc.On("Login", mock.Anything, "ana@uni.edu", "wrong").Return(nil, domain.ErrInvalidCredentials)
	app := newAuthApp(nil, svc)

	code, _ := doRequest(t, app, jsonRequest(http.MethodPost, "/auth/login", fiber.Map{"email": "ana@uni.edu", "password": "secret1"}))
	assert.Equal(t, http.StatusOK, code)

	code, body := doRequest(t, app, jsonRequest(http.MethodPost, "/auth/login", fiber.Map{"email": "ana@uni.edu", "password": "wrong"}))
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, body))
}

func TestAuthHandler_Me(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("Me", mock.Anything, student).Return(&domain.User{ID: "u1", Name: "Ana", PasswordHash: "hash"}, nil)

	code, body := doRequest(t, newAuthApp(&student, svc), httptestGet("/auth/me"))

	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `"user_id":"u1"`)
	assert.NotContains(t, string(body), "hash")

	code, _ = doRequest(t, newAuthApp(nil, svc), httptestGet("/auth/me"))
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthHandler_Logout(t *testing.T) {
	code, body := doRequest(t, newAuthApp(&student, new(MockAuthService)), jsonRequest(http.MethodPost, "/auth/logout", nil))

	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"message":"Successfully logged out"}`, string(body))
}

func TestAuthHandler_RegisterFace(t *testing.T) {
	validImage := []byte("fake jpeg image content")

	t.Run("stores encoding", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("RegisterFace", mock.Anything, student, validImage).Return(nil)

		req := imageRequest(http.MethodPost, "/auth/register-face", nil, validImage, "image/jpeg")
		code, body := doRequest(t, newAuthApp(&student, svc), req)

		assert.Equal(t, http.StatusOK, code)
		var resp FaceRegisteredResponse
		require.NoError(t, json.Unmarshal(body, &resp))
		assert.Equal(t, "u1", resp.UserID)
		assert.True(t, resp.EncodingStored)
		svc.AssertExpectations(t)
	})

	t.Run("already registered", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("RegisterFace", mock.Anything, student, validImage).Return(domain.ErrFaceAlreadyRegistered)

		req := imageRequest(http.MethodPost, "/auth/register-face", nil, validImage, "image/jpeg")
		code, body := doRequest(t, newAuthApp(&student, svc), req)

		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "FACE_ALREADY_REGISTERED", errorCode(t, body))
	})

	t.Run("invalid image never reaches the provider", func(t *testing.T) {
		svc := new(MockAuthService)

		req := imageRequest(http.MethodPost, "/auth/register-face", nil, []byte("%PDF"), "application/pdf")
		code, body := doRequest(t, newAuthApp(&student, svc), req)

		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "INVALID_IMAGE", errorCode(t, body))
		svc.AssertNotCalled(t, "RegisterFace", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_UpdateFace(t *testing.T) {
	validImage := []byte("fake png image content")
	svc := new(MockAuthService)
	svc.On("UpdateFace", mock.Anything, student, validImage).Return(domain.ErrFaceNotRegistered)

	req := imageRequest(http.MethodPut, "/auth/face", nil, validImage, "image/png")
	code, body := doRequest(t, newAuthApp(&student, svc), req)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "FACE_NOT_REGISTERED", errorCode(t, body))
}
