// Package pgvector keeps face embeddings in Postgres using the pgvector extension.
package pgvector

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/classroll/internal/vectorindex"
)

// Pool is the subset of pgxpool.Pool used by the index
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Index struct {
	pool Pool
}

func New(pool Pool) *Index {
	return &Index{pool: pool}
}

func (x *Index) Upsert(ctx context.Context, id string, values []float64, metadata map[string]any) error {
	if err := vectorindex.ValidateUpsert(id, values); err != nil {
		return err
	}

	query := `
		INSERT INTO face_embeddings (student_id, embedding, metadata, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (student_id) DO UPDATE
		SET embedding = EXCLUDED.embedding, metadata = EXCLUDED.metadata, updated_at = NOW()
	`

	if metadata == nil {
		metadata = map[string]any{}
	}

	vec := pgvector.NewVector(vectorindex.ToFloat32(values))
	if _, err := x.pool.Exec(ctx, query, id, vec, metadata); err != nil {
		return fmt.Errorf("upsert face embedding: %w", err)
	}
	return nil
}

func (x *Index) Query(ctx context.Context, values []float64, topK int) ([]vectorindex.Match, error) {
	if len(values) == 0 {
		return nil, vectorindex.ErrEmptyVector
	}

	query := `
		SELECT student_id, 1 - (embedding <=> $1) AS score, metadata
		FROM face_embeddings
		ORDER BY embedding <=> $1
		LIMIT $2
	`

	vec := pgvector.NewVector(vectorindex.ToFloat32(values))
	rows, err := x.pool.Query(ctx, query, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("query face embeddings: %w", err)
	}
	defer rows.Close()

	matches := make([]vectorindex.Match, 0, topK)
	for rows.Next() {
		var m vectorindex.Match
		if err := rows.Scan(&m.ID, &m.Score, &m.Metadata); err != nil {
			return nil, fmt.Errorf("scan face embedding: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate face embeddings: %w", err)
	}

	return matches, nil
}

func (x *Index) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	if _, err := x.pool.Exec(ctx, `DELETE FROM face_embeddings WHERE student_id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("delete face embeddings: %w", err)
	}
	return nil
}

var _ vectorindex.Index = (*Index)(nil)
