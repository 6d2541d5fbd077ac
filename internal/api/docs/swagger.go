package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// MessageResponse represents a plain confirmation
type MessageResponse struct {
	Message string `json:"message" example:"Successfully logged out"`
}

// Auth types

type RegisterRequest struct {
	Email    string `json:"email" example:"ana@uni.edu"`
	Name     string `json:"name" example:"Ana Souza"`
	Password string `json:"password" example:"secret1"`
	UserType string `json:"user_type" example:"student"`
}

type LoginRequest struct {
	Email    string `json:"email" example:"ana@uni.edu"`
	Password string `json:"password" example:"secret1"`
}

type UserResponse struct {
	UserID           string `json:"user_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Email            string `json:"email" example:"ana@uni.edu"`
	Name             string `json:"name" example:"Ana Souza"`
	UserType         string `json:"user_type" example:"student"`
	IsFaceRegistered bool   `json:"is_face_registered" example:"false"`
	CreatedAt        string `json:"created_at" example:"2024-03-04T10:15:00Z"`
}

type SessionResponse struct {
	AccessToken string       `json:"access_token" example:"eyJhbGciOiJIUzI1NiIs..."`
	TokenType   string       `json:"token_type" example:"bearer"`
	User        UserResponse `json:"user"`
}

type FaceRegisteredResponse struct {
	Message        string `json:"message" example:"Face registered successfully"`
	UserID         string `json:"user_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	EncodingStored bool   `json:"encoding_stored" example:"true"`
}

// Subject types

type CreateSubjectRequest struct {
	Name        string `json:"name" example:"Algorithms"`
	Description string `json:"description" example:"Graphs and trees"`
}

type JoinSubjectRequest struct {
	InviteCode string `json:"invite_code" example:"9F8E7D6C"`
}

type SubjectResponse struct {
	SubjectID    string `json:"subject_id" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	SubjectCode  string `json:"subject_code" example:"SUB-1A2B3C4D"`
	Name         string `json:"name" example:"Algorithms"`
	Description  string `json:"description" example:"Graphs and trees"`
	TeacherID    string `json:"teacher_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TeacherName  string `json:"teacher_name" example:"Prof. Lima"`
	InviteCode   string `json:"invite_code" example:"9F8E7D6C"`
	IsActive     bool   `json:"is_active" example:"true"`
	StudentCount int    `json:"student_count" example:"32"`
	CreatedAt    string `json:"created_at" example:"2024-03-04T10:15:00Z"`
}

type JoinSubjectResponse struct {
	SubjectID   string `json:"subject_id" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	SubjectName string `json:"subject_name" example:"Algorithms"`
	SubjectCode string `json:"subject_code" example:"SUB-1A2B3C4D"`
	TeacherName string `json:"teacher_name" example:"Prof. Lima"`
	EnrolledAt  string `json:"enrolled_at" example:"2024-03-04T10:15:00Z"`
	IsActive    bool   `json:"is_active" example:"true"`
}

type EnrolledStudentResponse struct {
	UserID           string `json:"user_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name             string `json:"name" example:"Ana Souza"`
	Email            string `json:"email" example:"ana@uni.edu"`
	IsFaceRegistered bool   `json:"is_face_registered" example:"true"`
}

// Student registry types

type CreateStudentRequest struct {
	StudentID       string `json:"student_id" example:"2024CS001"`
	Name            string `json:"name" example:"Ana Souza"`
	Email           string `json:"email" example:"ana@uni.edu"`
	DepartmentID    string `json:"department_id" example:"CS"`
	BatchYear       int    `json:"batch_year" example:"2024"`
	CurrentSemester int    `json:"current_semester" example:"1"`
}

type StudentResponse struct {
	StudentID       string `json:"student_id" example:"2024CS001"`
	Name            string `json:"name" example:"Ana Souza"`
	Email           string `json:"email" example:"ana@uni.edu"`
	DepartmentID    string `json:"department_id" example:"CS"`
	BatchYear       int    `json:"batch_year" example:"2024"`
	CurrentSemester int    `json:"current_semester" example:"1"`
	FaceEncodingID  string `json:"face_encoding_id" example:"2024CS001"`
	CreatedAt       string `json:"created_at" example:"2024-03-04T10:15:00Z"`
}

type PhotoResponse struct {
	Message            string `json:"message" example:"Photo uploaded and face encoding stored successfully"`
	StudentID          string `json:"student_id" example:"2024CS001"`
	FaceEncodingStored bool   `json:"face_encoding_stored" example:"true"`
}

type StudentRecognitionResponse struct {
	Success         bool            `json:"success" example:"true"`
	Message         string          `json:"message" example:"Student recognized"`
	StudentID       string          `json:"student_id" example:"2024CS001"`
	Student         StudentResponse `json:"student"`
	SimilarityScore float64         `json:"similarity_score" example:"0.88"`
	FacesDetected   int             `json:"faces_detected" example:"1"`
}

// Attendance types

type BoundingBox struct {
	X      int `json:"x" example:"40"`
	Y      int `json:"y" example:"30"`
	Width  int `json:"width" example:"160"`
	Height int `json:"height" example:"180"`
}

type RecognizedStudent struct {
	StudentID       string      `json:"student_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	SimilarityScore float64     `json:"similarity_score" example:"0.92"`
	FaceIndex       int         `json:"face_index" example:"1"`
	Location        BoundingBox `json:"location"`
}

type UnrecognizedFace struct {
	FaceIndex int         `json:"face_index" example:"2"`
	Location  BoundingBox `json:"location"`
}

type MarkFaceResponse struct {
	Success            bool                `json:"success" example:"true"`
	Message            string              `json:"message" example:"Attendance marked successfully"`
	StudentID          string              `json:"student_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	SimilarityScore    float64             `json:"similarity_score" example:"0.92"`
	FacesDetected      int                 `json:"faces_detected" example:"2"`
	FacesRecognized    int                 `json:"faces_recognized" example:"1"`
	FacesUnrecognized  int                 `json:"faces_unrecognized" example:"1"`
	RecognizedStudents []RecognizedStudent `json:"recognized_students"`
	UnrecognizedFaces  []UnrecognizedFace  `json:"unrecognized_faces"`
	FaceLocations      []BoundingBox       `json:"face_locations"`
	BestMatch          RecognizedStudent   `json:"best_match"`
	SubjectID          string              `json:"subject_id" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	Enrolled           bool                `json:"enrolled" example:"true"`
	AttendanceMarked   bool                `json:"attendance_marked" example:"true"`
	AlreadyRecorded    bool                `json:"already_recorded" example:"false"`
	StudentName        string              `json:"student_name" example:"Ana Souza"`
}

type ManualMarkRequest struct {
	SubjectID string `json:"subject_id" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	StudentID string `json:"student_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Date      string `json:"date" example:"2024-03-04"`
	Status    string `json:"status" example:"late"`
}

type ManualMarkResponse struct {
	Message         string `json:"message" example:"Attendance marked"`
	Outcome         string `json:"outcome" example:"recorded"`
	AlreadyRecorded bool   `json:"already_recorded" example:"false"`
}

type AttendanceRecordResponse struct {
	AttendanceID    string  `json:"attendance_id" example:"9b2f4a1e-2c57-4e55-8d0d-1f1c2c3d4e5f"`
	SubjectID       string  `json:"subject_id" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	StudentID       string  `json:"student_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	StudentName     string  `json:"student_name" example:"Ana Souza"`
	SubjectName     string  `json:"subject_name" example:"Algorithms"`
	Date            string  `json:"date" example:"2024-03-04"`
	Status          string  `json:"status" example:"present"`
	Method          string  `json:"method" example:"face_recognition"`
	ConfidenceScore float64 `json:"confidence_score" example:"0.92"`
	MarkedBy        string  `json:"marked_by" example:"550e8400-e29b-41d4-a716-446655440000"`
	SessionTime     string  `json:"session_time" example:"10:15:00"`
	CreatedAt       string  `json:"created_at" example:"2024-03-04T10:15:00Z"`
}

type DashboardResponse struct {
	Subject             SubjectResponse            `json:"subject"`
	TotalStudents       int                        `json:"total_students" example:"32"`
	TotalSessions       int                        `json:"total_sessions" example:"12"`
	TotalPresentRecords int                        `json:"total_present_records" example:"350"`
	AttendanceRecords   []AttendanceRecordResponse `json:"attendance_records"`
	EnrolledStudents    []EnrolledStudentResponse  `json:"enrolled_students"`
}

// Health types

type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version" example:"1.0.0"`
}

type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks"`
}

var (
	bearer    = endpoint.WithSecurity([]map[string][]string{{"BearerAuth": {}}})
	jsonOut   = endpoint.WithProduce([]mime.MIME{mime.JSON})
	jsonIn    = endpoint.WithConsume([]mime.MIME{mime.JSON})
	multipart = endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")})
)

// withInternal appends the generic 500 every endpoint can answer with
func withInternal(codes ...response.Response) []response.Response {
	return append(codes,
		response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error"),
	)
}

func unauthorized() response.Response {
	return response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Could not validate credentials"}, "401", "Unauthorized")
}

func invalid(msg string) response.Response {
	return response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: msg}, "422", "Unprocessable Entity")
}

func imageErrors() []response.Response {
	return []response.Response{
		response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "File must be an image"}, "400", "Bad Request"),
		unauthorized(),
		response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "No face detected in the image"}, "422", "Unprocessable Entity"),
		response.New(ErrorResponse{Code: "MULTIPLE_FACES", Message: "Multiple faces detected, please provide image with single face"}, "422", "Unprocessable Entity"),
	}
}

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Classroll API",
		Version:     "v1.0.0",
		Description: "Student management and face recognition attendance API",
		Host:        "localhost:3000",
		Path:        "/api",
	})

	endpoints := []*endpoint.EndPoint{
		// Auth endpoints

		endpoint.New(
			endpoint.POST,
			"/auth/register",
			endpoint.WithTags("Auth"),
			endpoint.WithSummary("Create an account"),
			endpoint.WithDescription("Creates a teacher or student account and returns an access token"),
			jsonIn, jsonOut,
			endpoint.WithBody(RegisterRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SessionResponse{}, "201", "Account created"),
			}),
			endpoint.WithErrors(withInternal(
				response.New(ErrorResponse{Code: "EMAIL_TAKEN", Message: "Email already registered"}, "400", "Bad Request"),
				invalid("password failed on min=6"),
			)),
		),

		endpoint.New(
			endpoint.POST,
			"/auth/login",
			endpoint.WithTags("Auth"),
			endpoint.WithSummary("Log in"),
			jsonIn, jsonOut,
			endpoint.WithBody(LoginRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SessionResponse{}, "200", "Authenticated"),
			}),
			endpoint.WithErrors(withInternal(
				response.New(ErrorResponse{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password"}, "401", "Unauthorized"),
			)),
		),

		endpoint.New(
			endpoint.GET,
			"/auth/me",
			endpoint.WithTags("Auth"),
			endpoint.WithSummary("Current user"),
			jsonOut,
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(UserResponse{}, "200", "Current user"),
			}),
			endpoint.WithErrors(withInternal(unauthorized())),
			bearer,
		),

		endpoint.New(
			endpoint.POST,
			"/auth/logout",
			endpoint.WithTags("Auth"),
			endpoint.WithSummary("Log out"),
			endpoint.WithDescription("Tokens are stateless; the client discards its token"),
			jsonOut,
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MessageResponse{}, "200", "Logged out"),
			}),
			endpoint.WithErrors(withInternal(unauthorized())),
			bearer,
		),

		endpoint.New(
			endpoint.POST,
			"/auth/register-face",
			endpoint.WithTags("Auth"),
			endpoint.WithSummary("Register the caller's face"),
			endpoint.WithDescription("Students only. The image must contain exactly one face."),
			multipart, jsonOut,
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FaceRegisteredResponse{}, "200", "Face registered"),
			}),
			endpoint.WithErrors(withInternal(append(imageErrors(),
				response.New(ErrorResponse{Code: "FACE_ALREADY_REGISTERED", Message: "Face already registered"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "ROLE_FORBIDDEN", Message: "Only students can register faces"}, "403", "Forbidden"),
			)...)),
			bearer,
		),

		endpoint.New(
			endpoint.PUT,
			"/auth/face",
			endpoint.WithTags("Auth"),
			endpoint.WithSummary("Replace the caller's face"),
			multipart, jsonOut,
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FaceRegisteredResponse{}, "200", "Face updated"),
			}),
			endpoint.WithErrors(withInternal(append(imageErrors(),
				response.New(ErrorResponse{Code: "FACE_NOT_REGISTERED", Message: "No face registered yet"}, "400", "Bad Request"),
			)...)),
			bearer,
		),

		// Subject endpoints

		endpoint.New(
			endpoint.POST,
			"/subjects",
			endpoint.WithTags("Subjects"),
			endpoint.WithSummary("Create a subject"),
			endpoint.WithDescription("Teachers only. Generates the subject code and invite code."),
			jsonIn, jsonOut,
			endpoint.WithBody(CreateSubjectRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SubjectResponse{}, "201", "Subject created"),
			}),
			endpoint.WithErrors(withInternal(
				unauthorized(),
				response.New(ErrorResponse{Code: "ROLE_FORBIDDEN", Message: "Only teachers can create subjects"}, "403", "Forbidden"),
				invalid("name failed on required"),
			)),
			bearer,
		),

		endpoint.New(
			endpoint.GET,
			"/subjects",
			endpoint.WithTags("Subjects"),
			endpoint.WithSummary("List the caller's subjects"),
			endpoint.WithDescription("Teachers see the subjects they own; students see the subjects they are enrolled in"),
			jsonOut,
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New([]SubjectResponse{}, "200", "Subjects"),
			}),
			endpoint.WithErrors(withInternal(unauthorized())),
			bearer,
		),

		endpoint.New(
			endpoint.POST,
			"/subjects/join",
			endpoint.WithTags("Subjects"),
			endpoint.WithSummary("Join a subject by invite code"),
			jsonIn, jsonOut,
			endpoint.WithBody(JoinSubjectRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(JoinSubjectResponse{}, "200", "Enrolled"),
			}),
			endpoint.WithErrors(withInternal(
				response.New(ErrorResponse{Code: "ALREADY_ENROLLED", Message: "Already enrolled in this subject"}, "400", "Bad Request"),
				unauthorized(),
				response.New(ErrorResponse{Code: "INVALID_INVITE_CODE", Message: "Invalid invite code"}, "404", "Not Found"),
			)),
			bearer,
		),

		endpoint.New(
			endpoint.GET,
			"/subjects/{id}",
			endpoint.WithTags("Subjects"),
			endpoint.WithSummary("Get a subject"),
			jsonOut,
			endpoint.WithParams(parameter.StrParam("id", parameter.Path, parameter.WithDescription("Subject ID"))),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SubjectResponse{}, "200", "Subject"),
			}),
			endpoint.WithErrors(withInternal(
				unauthorized(),
				response.New(ErrorResponse{Code: "SUBJECT_ACCESS_DENIED", Message: "Access denied"}, "403", "Forbidden"),
				response.New(ErrorResponse{Code: "SUBJECT_NOT_FOUND", Message: "Subject not found"}, "404", "Not Found"),
			)),
			bearer,
		),

		endpoint.New(
			endpoint.GET,
			"/subjects/{id}/students",
			endpoint.WithTags("Subjects"),
			endpoint.WithSummary("List enrolled students"),
			endpoint.WithDescription("Owning teacher only"),
			jsonOut,
			endpoint.WithParams(parameter.StrParam("id", parameter.Path, parameter.WithDescription("Subject ID"))),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New([]EnrolledStudentResponse{}, "200", "Enrolled students"),
			}),
			endpoint.WithErrors(withInternal(
				unauthorized(),
				response.New(ErrorResponse{Code: "SUBJECT_ACCESS_DENIED", Message: "Access denied"}, "403", "Forbidden"),
				response.New(ErrorResponse{Code: "SUBJECT_NOT_FOUND", Message: "Subject not found"}, "404", "Not Found"),
			)),
			bearer,
		),

		endpoint.New(
			endpoint.DELETE,
			"/subjects/{id}",
			endpoint.WithTags("Subjects"),
			endpoint.WithSummary("Delete a subject"),
			endpoint.WithDescription("Owning teacher only. Enrollments and attendance rows are removed with the subject."),
			jsonOut,
			endpoint.WithParams(parameter.StrParam("id", parameter.Path, parameter.WithDescription("Subject ID"))),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MessageResponse{}, "200", "Subject deleted"),
			}),
			endpoint.WithErrors(withInternal(
				unauthorized(),
				response.New(ErrorResponse{Code: "SUBJECT_ACCESS_DENIED", Message: "Access denied"}, "403", "Forbidden"),
				response.New(ErrorResponse{Code: "SUBJECT_NOT_FOUND", Message: "Subject not found"}, "404", "Not Found"),
			)),
			bearer,
		),

		// Student registry endpoints

		endpoint.New(
			endpoint.GET,
			"/students",
			endpoint.WithTags("Students"),
			endpoint.WithSummary("List registry students"),
			jsonOut,
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New([]StudentResponse{}, "200", "Students"),
			}),
			endpoint.WithErrors(withInternal(unauthorized())),
			bearer,
		),

		endpoint.New(
			endpoint.POST,
			"/students",
			endpoint.WithTags("Students"),
			endpoint.WithSummary("Create a registry student"),
			jsonIn, jsonOut,
			endpoint.WithBody(CreateStudentRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StudentResponse{}, "201", "Student created"),
			}),
			endpoint.WithErrors(withInternal(
				unauthorized(),
				response.New(ErrorResponse{Code: "STUDENT_EXISTS", Message: "Student already exists"}, "409", "Conflict"),
				invalid("current_semester failed on required"),
			)),
			bearer,
		),

		endpoint.New(
			endpoint.POST,
			"/students/recognize",
			endpoint.WithTags("Students"),
			endpoint.WithSummary("Identify a registry student from a photo"),
			multipart, jsonOut,
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StudentRecognitionResponse{}, "200", "Recognition completed"),
			}),
			endpoint.WithErrors(withInternal(append(imageErrors(),
				response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests"),
			)...)),
			bearer,
		),

		endpoint.New(
			endpoint.GET,
			"/students/{id}",
			endpoint.WithTags("Students"),
			endpoint.WithSummary("Get a registry student"),
			jsonOut,
			endpoint.WithParams(parameter.StrParam("id", parameter.Path, parameter.WithDescription("Student ID"))),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StudentResponse{}, "200", "Student"),
			}),
			endpoint.WithErrors(withInternal(
				unauthorized(),
				response.New(ErrorResponse{Code: "STUDENT_NOT_FOUND", Message: "Student not found"}, "404", "Not Found"),
			)),
			bearer,
		),

		endpoint.New(
			endpoint.DELETE,
			"/students/{id}",
			endpoint.WithTags("Students"),
			endpoint.WithSummary("Delete a registry student"),
			endpoint.WithDescription("Also removes the student's vector from the index"),
			jsonOut,
			endpoint.WithParams(parameter.StrParam("id", parameter.Path, parameter.WithDescription("Student ID"))),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MessageResponse{}, "200", "Student deleted"),
			}),
			endpoint.WithErrors(withInternal(
				unauthorized(),
				response.New(ErrorResponse{Code: "STUDENT_NOT_FOUND", Message: "Student not found"}, "404", "Not Found"),
			)),
			bearer,
		),

		endpoint.New(
			endpoint.POST,
			"/students/{id}/photo",
			endpoint.WithTags("Students"),
			endpoint.WithSummary("Upload a student's photo"),
			multipart, jsonOut,
			endpoint.WithParams(parameter.StrParam("id", parameter.Path, parameter.WithDescription("Student ID"))),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(PhotoResponse{}, "200", "Face encoding stored"),
			}),
			endpoint.WithErrors(withInternal(append(imageErrors(),
				response.New(ErrorResponse{Code: "STUDENT_NOT_FOUND", Message: "Student not found"}, "404", "Not Found"),
			)...)),
			bearer,
		),

		endpoint.New(
			endpoint.PUT,
			"/students/{id}/photo",
			endpoint.WithTags("Students"),
			endpoint.WithSummary("Replace a student's photo"),
			multipart, jsonOut,
			endpoint.WithParams(parameter.StrParam("id", parameter.Path, parameter.WithDescription("Student ID"))),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(PhotoResponse{}, "200", "Face encoding updated"),
			}),
			endpoint.WithErrors(withInternal(append(imageErrors(),
				response.New(ErrorResponse{Code: "FACE_NOT_REGISTERED", Message: "No face registered yet"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "STUDENT_NOT_FOUND", Message: "Student not found"}, "404", "Not Found"),
			)...)),
			bearer,
		),

		// Attendance endpoints

		endpoint.New(
			endpoint.POST,
			"/attendance/mark-face",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Mark attendance by face"),
			endpoint.WithDescription("Recognizes every face in the image and records today's attendance for the calling student when they are the best match. Form fields: subject_id, image."),
			multipart, jsonOut,
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MarkFaceResponse{}, "200", "Recognition completed"),
			}),
			endpoint.WithErrors(withInternal(append(imageErrors(),
				response.New(ErrorResponse{Code: "NOT_ENROLLED", Message: "Student not enrolled in this subject"}, "403", "Forbidden"),
				response.New(ErrorResponse{Code: "SUBJECT_NOT_FOUND", Message: "Subject not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests"),
			)...)),
			bearer,
		),

		endpoint.New(
			endpoint.POST,
			"/attendance/manual",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Mark attendance manually"),
			endpoint.WithDescription("Owning teacher only. Date defaults to today and status to present."),
			jsonIn, jsonOut,
			endpoint.WithBody(ManualMarkRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ManualMarkResponse{}, "200", "Attendance recorded"),
			}),
			endpoint.WithErrors(withInternal(
				unauthorized(),
				response.New(ErrorResponse{Code: "SUBJECT_ACCESS_DENIED", Message: "Access denied"}, "403", "Forbidden"),
				response.New(ErrorResponse{Code: "NOT_ENROLLED", Message: "Student not enrolled in this subject"}, "403", "Forbidden"),
				invalid("date failed on datetime=2006-01-02"),
			)),
			bearer,
		),

		endpoint.New(
			endpoint.GET,
			"/attendance/{subject_id}",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("List attendance rows"),
			endpoint.WithDescription("Teachers see every row of a subject they own; students see only their own rows"),
			jsonOut,
			endpoint.WithParams(
				parameter.StrParam("subject_id", parameter.Path, parameter.WithDescription("Subject ID")),
				parameter.StrParam("date", parameter.Query, parameter.WithDescription("Filter by day (YYYY-MM-DD)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New([]AttendanceRecordResponse{}, "200", "Attendance rows"),
			}),
			endpoint.WithErrors(withInternal(
				unauthorized(),
				response.New(ErrorResponse{Code: "SUBJECT_ACCESS_DENIED", Message: "Access denied"}, "403", "Forbidden"),
				invalid("date must be formatted as YYYY-MM-DD"),
			)),
			bearer,
		),

		endpoint.New(
			endpoint.GET,
			"/attendance/{subject_id}/dashboard",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Subject attendance dashboard"),
			endpoint.WithDescription("Owning teacher only. A session is a distinct date with at least one row."),
			jsonOut,
			endpoint.WithParams(parameter.StrParam("subject_id", parameter.Path, parameter.WithDescription("Subject ID"))),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DashboardResponse{}, "200", "Dashboard"),
			}),
			endpoint.WithErrors(withInternal(
				unauthorized(),
				response.New(ErrorResponse{Code: "SUBJECT_ACCESS_DENIED", Message: "Access denied"}, "403", "Forbidden"),
			)),
			bearer,
		),

		endpoint.New(
			endpoint.GET,
			"/attendance/{subject_id}/live",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Live attendance feed (WebSocket)"),
			endpoint.WithDescription("Upgrades to a WebSocket that receives an attendance.marked event for each recorded mark. The token may be passed as ?token= since browsers cannot set headers on WebSocket requests."),
			endpoint.WithParams(
				parameter.StrParam("subject_id", parameter.Path, parameter.WithDescription("Subject ID")),
				parameter.StrParam("token", parameter.Query, parameter.WithDescription("Access token")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MessageResponse{}, "101", "Switching Protocols"),
			}),
			endpoint.WithErrors(withInternal(
				response.New(ErrorResponse{Code: "HTTP_ERROR", Message: "Upgrade Required"}, "426", "Upgrade Required"),
				unauthorized(),
				response.New(ErrorResponse{Code: "SUBJECT_ACCESS_DENIED", Message: "Access denied"}, "403", "Forbidden"),
			)),
			bearer,
		),

		// Health

		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness probe"),
			jsonOut,
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Service is up"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
