package repository

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
	"github.com/saturnino-fabrica-de-software/classroll/internal/supabase"
)

const (
	tableUsers       = "users"
	tableSubjects    = "subjects"
	tableEnrollments = "subject_enrollments"
	tableStudents    = "students"
	tableAttendance  = "attendance"
)

// ErrDuplicateAttendance is returned when the store rejects an attendance row
// on its uniqueness constraint
var ErrDuplicateAttendance = errors.New("attendance already recorded")

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateRows rejects malformed rows before they reach the services
func validateRows[T any](rows []T) error {
	for i := range rows {
		if err := validate.Struct(&rows[i]); err != nil {
			return domain.ErrInvalidStoreRecord.WithError(err)
		}
	}
	return nil
}

// storeError classifies a store failure. Conflicts pass through untouched so
// callers can translate them to a domain outcome.
func storeError(op string, err error) error {
	if errors.Is(err, supabase.ErrConflict) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, supabase.ErrInvalidResponse) {
		return domain.ErrInvalidStoreRecord.WithError(fmt.Errorf("%s: %w", op, err))
	}
	return domain.ErrStoreUnavailable.WithError(fmt.Errorf("%s: %w", op, err))
}

// nameRef decodes a PostgREST embedded resource like teacher:users!teacher_id(name)
type nameRef struct {
	Name string `json:"name"`
}

func refName(r *nameRef) string {
	if r == nil {
		return ""
	}
	return r.Name
}
