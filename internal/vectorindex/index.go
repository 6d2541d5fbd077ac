// Package vectorindex stores one face embedding per student and answers
// nearest-neighbour queries over them. Scores are cosine similarities in
// [-1, 1], higher is better.
package vectorindex

import (
	"context"
	"errors"
)

var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrEmptyVector       = errors.New("empty vector")
	ErrEmptyID           = errors.New("empty vector id")
)

// Match is one hit of a similarity query
type Match struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Index is a nearest-neighbour store keyed by student id.
// Upsert replaces any vector already stored under the same id.
type Index interface {
	Upsert(ctx context.Context, id string, vector []float64, metadata map[string]any) error
	Query(ctx context.Context, vector []float64, topK int) ([]Match, error)
	Delete(ctx context.Context, ids ...string) error
}

// ValidateUpsert checks the arguments shared by every implementation
func ValidateUpsert(id string, vector []float64) error {
	if id == "" {
		return ErrEmptyID
	}
	if len(vector) == 0 {
		return ErrEmptyVector
	}
	return nil
}
