package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so errors.Is works on
// copies produced by WithError.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// WithMessage returns a copy of the error with a more specific message
func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    msg,
		StatusCode: e.StatusCode,
		Err:        e.Err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Could not validate credentials",
		StatusCode: 401,
	}

	ErrForbidden = &AppError{
		Code:       "FORBIDDEN",
		Message:    "Access denied",
		StatusCode: 403,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	// Accounts

	ErrUserNotFound = &AppError{
		Code:       "USER_NOT_FOUND",
		Message:    "User not found",
		StatusCode: 404,
	}

	ErrEmailTaken = &AppError{
		Code:       "EMAIL_TAKEN",
		Message:    "Email already registered",
		StatusCode: 400,
	}

	ErrInvalidCredentials = &AppError{
		Code:       "INVALID_CREDENTIALS",
		Message:    "Invalid email or password",
		StatusCode: 401,
	}

	ErrRoleForbidden = &AppError{
		Code:       "ROLE_FORBIDDEN",
		Message:    "Operation not allowed for this user type",
		StatusCode: 403,
	}

	// Subjects and enrollment

	ErrSubjectNotFound = &AppError{
		Code:       "SUBJECT_NOT_FOUND",
		Message:    "Subject not found",
		StatusCode: 404,
	}

	ErrSubjectAccessDenied = &AppError{
		Code:       "SUBJECT_ACCESS_DENIED",
		Message:    "Access denied",
		StatusCode: 403,
	}

	ErrNotEnrolled = &AppError{
		Code:       "NOT_ENROLLED",
		Message:    "Student not enrolled in this subject",
		StatusCode: 403,
	}

	ErrAlreadyEnrolled = &AppError{
		Code:       "ALREADY_ENROLLED",
		Message:    "Already enrolled in this subject",
		StatusCode: 400,
	}

	ErrInvalidInviteCode = &AppError{
		Code:       "INVALID_INVITE_CODE",
		Message:    "Invalid invite code",
		StatusCode: 404,
	}

	// Students registry

	ErrStudentNotFound = &AppError{
		Code:       "STUDENT_NOT_FOUND",
		Message:    "Student not found",
		StatusCode: 404,
	}

	ErrStudentExists = &AppError{
		Code:       "STUDENT_EXISTS",
		Message:    "Student already exists",
		StatusCode: 409,
	}

	// Faces

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "File must be an image",
		StatusCode: 400,
	}

	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    "No face detected in the image",
		StatusCode: 422,
	}

	ErrMultipleFaces = &AppError{
		Code:       "MULTIPLE_FACES",
		Message:    "Multiple faces detected, please provide image with single face",
		StatusCode: 422,
	}

	ErrFaceAlreadyRegistered = &AppError{
		Code:       "FACE_ALREADY_REGISTERED",
		Message:    "Face already registered",
		StatusCode: 400,
	}

	ErrFaceNotRegistered = &AppError{
		Code:       "FACE_NOT_REGISTERED",
		Message:    "No face registered yet",
		StatusCode: 400,
	}

	// Attendance

	ErrAttendanceRecordFailed = &AppError{
		Code:       "ATTENDANCE_RECORD_FAILED",
		Message:    "Failed to mark attendance. Please try again.",
		StatusCode: 500,
	}

	ErrInvalidAttendanceStatus = &AppError{
		Code:       "INVALID_ATTENDANCE_STATUS",
		Message:    "Status must be one of present, absent, late, excused",
		StatusCode: 422,
	}

	// External collaborators

	ErrStoreUnavailable = &AppError{
		Code:       "STORE_UNAVAILABLE",
		Message:    "Backing store request failed",
		StatusCode: 500,
	}

	ErrInvalidStoreRecord = &AppError{
		Code:       "INVALID_STORE_RECORD",
		Message:    "Backing store returned a malformed record",
		StatusCode: 500,
	}

	ErrProviderUnavailable = &AppError{
		Code:       "PROVIDER_UNAVAILABLE",
		Message:    "Face embedding provider request failed",
		StatusCode: 500,
	}

	ErrIndexUnavailable = &AppError{
		Code:       "INDEX_UNAVAILABLE",
		Message:    "Similarity index request failed",
		StatusCode: 500,
	}
)
