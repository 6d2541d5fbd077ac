package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/classroll/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
	"github.com/saturnino-fabrica-de-software/classroll/internal/service"
)

var (
	teacher = domain.Caller{UserID: "t1", Type: domain.UserTypeTeacher}
	student = domain.Caller{UserID: "u1", Type: domain.UserTypeStudent}
)

// testLogger returns a logger that discards all output
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createMultipartRequest builds a form with the given fields and an optional image part
func createMultipartRequest(fields map[string]string, imageContent []byte, contentType string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for k, v := range fields {
		_ = writer.WriteField(k, v)
	}

	if imageContent != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="face.jpg"`)
		h.Set("Content-Type", contentType)

		part, _ := writer.CreatePart(h)
		_, _ = part.Write(imageContent)
	}

	_ = writer.Close()
	return body, writer.FormDataContentType()
}

// createTestApp simulates authentication with the given caller
func createTestApp(caller *domain.Caller) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(testLogger())})

	if caller != nil {
		app.Use(func(c *fiber.Ctx) error {
			c.Locals(middleware.LocalCaller, *caller)
			return c.Next()
		})
	}

	return app
}

func jsonRequest(method, target string, body any) *http.Request {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func imageRequest(method, target string, fields map[string]string, image []byte, contentType string) *http.Request {
	body, ct := createMultipartRequest(fields, image, contentType)
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", ct)
	return req
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Error.Code
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in service.RegisterInput) (*service.Session, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Session), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Session), args.Error(1)
}

func (m *MockAuthService) Me(ctx context.Context, caller domain.Caller) (*domain.User, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAuthService) RegisterFace(ctx context.Context, caller domain.Caller, image []byte) error {
	return m.Called(ctx, caller, image).Error(0)
}

func (m *MockAuthService) UpdateFace(ctx context.Context, caller domain.Caller, image []byte) error {
	return m.Called(ctx, caller, image).Error(0)
}

type MockSubjectService struct {
	mock.Mock
}

func (m *MockSubjectService) Create(ctx context.Context, caller domain.Caller, in service.CreateSubjectInput) (*domain.Subject, error) {
	args := m.Called(ctx, caller, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subject), args.Error(1)
}

func (m *MockSubjectService) ListMine(ctx context.Context, caller domain.Caller) ([]domain.Subject, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Subject), args.Error(1)
}

func (m *MockSubjectService) Join(ctx context.Context, caller domain.Caller, inviteCode string) (*service.JoinResult, error) {
	args := m.Called(ctx, caller, inviteCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.JoinResult), args.Error(1)
}

func (m *MockSubjectService) Get(ctx context.Context, caller domain.Caller, subjectID string) (*domain.Subject, error) {
	args := m.Called(ctx, caller, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subject), args.Error(1)
}

func (m *MockSubjectService) ListStudents(ctx context.Context, caller domain.Caller, subjectID string) ([]domain.EnrolledStudent, error) {
	args := m.Called(ctx, caller, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EnrolledStudent), args.Error(1)
}

func (m *MockSubjectService) Delete(ctx context.Context, caller domain.Caller, subjectID string) error {
	return m.Called(ctx, caller, subjectID).Error(0)
}

type MockStudentService struct {
	mock.Mock
}

func (m *MockStudentService) List(ctx context.Context, caller domain.Caller) ([]domain.Student, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Student), args.Error(1)
}

func (m *MockStudentService) Get(ctx context.Context, caller domain.Caller, studentID string) (*domain.Student, error) {
	args := m.Called(ctx, caller, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Student), args.Error(1)
}

func (m *MockStudentService) Create(ctx context.Context, caller domain.Caller, in service.CreateStudentInput) (*domain.Student, error) {
	args := m.Called(ctx, caller, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Student), args.Error(1)
}

func (m *MockStudentService) Delete(ctx context.Context, caller domain.Caller, studentID string) error {
	return m.Called(ctx, caller, studentID).Error(0)
}

func (m *MockStudentService) UploadPhoto(ctx context.Context, caller domain.Caller, studentID string, image []byte) error {
	return m.Called(ctx, caller, studentID, image).Error(0)
}

func (m *MockStudentService) ReplacePhoto(ctx context.Context, caller domain.Caller, studentID string, image []byte) error {
	return m.Called(ctx, caller, studentID, image).Error(0)
}

func (m *MockStudentService) Recognize(ctx context.Context, caller domain.Caller, image []byte) (*service.StudentRecognition, error) {
	args := m.Called(ctx, caller, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StudentRecognition), args.Error(1)
}

type MockAttendanceService struct {
	mock.Mock
}

func (m *MockAttendanceService) MarkFace(ctx context.Context, caller domain.Caller, subjectID string, image []byte) (*domain.MarkFaceResult, error) {
	args := m.Called(ctx, caller, subjectID, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MarkFaceResult), args.Error(1)
}

func (m *MockAttendanceService) MarkManual(ctx context.Context, caller domain.Caller, mark service.ManualMark) (*service.ManualMarkResult, error) {
	args := m.Called(ctx, caller, mark)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ManualMarkResult), args.Error(1)
}

func (m *MockAttendanceService) List(ctx context.Context, caller domain.Caller, subjectID string, date *time.Time) ([]domain.AttendanceRecord, error) {
	args := m.Called(ctx, caller, subjectID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AttendanceRecord), args.Error(1)
}

func (m *MockAttendanceService) Dashboard(ctx context.Context, caller domain.Caller, subjectID string) (*domain.AttendanceDashboard, error) {
	args := m.Called(ctx, caller, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AttendanceDashboard), args.Error(1)
}

type MockSubjectViewer struct {
	mock.Mock
}

func (m *MockSubjectViewer) AuthorizeView(ctx context.Context, caller domain.Caller, subjectID string) (*domain.Subject, error) {
	args := m.Called(ctx, caller, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subject), args.Error(1)
}

func httptestGet(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, target, nil)
}
