package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
	"github.com/saturnino-fabrica-de-software/classroll/internal/supabase"
)

type userRecord struct {
	UserID           string    `json:"user_id" validate:"required"`
	Email            string    `json:"email" validate:"required,email"`
	Name             string    `json:"name" validate:"required"`
	UserType         string    `json:"user_type" validate:"required,oneof=teacher student"`
	PasswordHash     string    `json:"password_hash" validate:"required"`
	IsFaceRegistered bool      `json:"is_face_registered"`
	CreatedAt        time.Time `json:"created_at"`
}

func (r *userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:               r.UserID,
		Email:            r.Email,
		Name:             r.Name,
		Type:             domain.UserType(r.UserType),
		PasswordHash:     r.PasswordHash,
		IsFaceRegistered: r.IsFaceRegistered,
		CreatedAt:        r.CreatedAt,
	}
}

type userInsert struct {
	UserID           string `json:"user_id"`
	Email            string `json:"email"`
	Name             string `json:"name"`
	UserType         string `json:"user_type"`
	PasswordHash     string `json:"password_hash"`
	IsFaceRegistered bool   `json:"is_face_registered"`
}

type UserRepository struct {
	store Store
}

func NewUserRepository(store Store) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	var rows []userRecord
	err := r.store.Insert(ctx, tableUsers, userInsert{
		UserID:           user.ID,
		Email:            user.Email,
		Name:             user.Name,
		UserType:         string(user.Type),
		PasswordHash:     user.PasswordHash,
		IsFaceRegistered: user.IsFaceRegistered,
	}, &rows)
	if errors.Is(err, supabase.ErrConflict) {
		return nil, domain.ErrEmailTaken
	}
	if err != nil {
		return nil, storeError("create user", err)
	}

	if len(rows) == 0 {
		return nil, domain.ErrInvalidStoreRecord.WithMessage("store returned no user after insert")
	}
	if err := validateRows(rows); err != nil {
		return nil, err
	}
	return rows[0].toDomain(), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, "get user by id", supabase.NewQuery().Eq("user_id", id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getOne(ctx, "get user by email", supabase.NewQuery().Eq("email", email))
}

func (r *UserRepository) getOne(ctx context.Context, op string, q *supabase.Query) (*domain.User, error) {
	var rows []userRecord
	if err := r.store.Select(ctx, tableUsers, q.Limit(1), &rows); err != nil {
		return nil, storeError(op, err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrUserNotFound
	}
	if err := validateRows(rows); err != nil {
		return nil, err
	}
	return rows[0].toDomain(), nil
}

func (r *UserRepository) SetFaceRegistered(ctx context.Context, id string, registered bool) error {
	var rows []userRecord
	err := r.store.Update(ctx, tableUsers, supabase.NewQuery().Eq("user_id", id),
		map[string]any{"is_face_registered": registered}, &rows)
	if err != nil {
		return storeError("set face registered", err)
	}
	if len(rows) == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

var _ UserRepositoryInterface = (*UserRepository)(nil)
