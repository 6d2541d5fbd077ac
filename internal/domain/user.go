package domain

import (
	"strings"
	"time"
)

// UserType distinguishes the two account kinds
type UserType string

const (
	UserTypeTeacher UserType = "teacher"
	UserTypeStudent UserType = "student"
)

func (t UserType) Valid() bool {
	return t == UserTypeTeacher || t == UserTypeStudent
}

// User is an account of the platform
type User struct {
	ID               string    `json:"user_id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Type             UserType  `json:"user_type"`
	PasswordHash     string    `json:"-"`
	IsFaceRegistered bool      `json:"is_face_registered"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewUser builds a user ready to be stored
func NewUser(id, email, name string, userType UserType, passwordHash string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	switch {
	case id == "":
		return nil, ErrValidationFailed.WithMessage("user_id is required")
	case email == "":
		return nil, ErrValidationFailed.WithMessage("email is required")
	case name == "":
		return nil, ErrValidationFailed.WithMessage("name is required")
	case !userType.Valid():
		return nil, ErrValidationFailed.WithMessage("user_type must be teacher or student")
	case passwordHash == "":
		return nil, ErrValidationFailed.WithMessage("password hash is required")
	}

	return &User{
		ID:           id,
		Email:        email,
		Name:         name,
		Type:         userType,
		PasswordHash: passwordHash,
	}, nil
}

// Caller is the authenticated principal of a request
type Caller struct {
	UserID string
	Type   UserType
}

func (c Caller) IsTeacher() bool {
	return c.Type == UserTypeTeacher
}

func (c Caller) IsStudent() bool {
	return c.Type == UserTypeStudent
}
