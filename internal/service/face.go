package service

import (
	"context"
	"fmt"
	"time"

	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
	"github.com/saturnino-fabrica-de-software/classroll/internal/provider"
	"github.com/saturnino-fabrica-de-software/classroll/internal/vectorindex"
)

// FaceRecognizer matches every face of an image against enrolled embeddings
type FaceRecognizer interface {
	Recognize(ctx context.Context, image []byte) (*domain.RecognitionResult, error)
}

// FaceEnroller stores and removes the reference embedding of a student
type FaceEnroller interface {
	Register(ctx context.Context, studentID string, image []byte) error
	Update(ctx context.Context, studentID string, image []byte) error
	Delete(ctx context.Context, studentID string) error
}

type FaceService struct {
	provider provider.EmbeddingProvider
	index    vectorindex.Index
	resolver *Resolver
	strict   bool
	now      func() time.Time
}

func NewFaceService(faceProvider provider.EmbeddingProvider, index vectorindex.Index, resolver *Resolver) *FaceService {
	return &FaceService{
		provider: faceProvider,
		index:    index,
		resolver: resolver,
		now:      time.Now,
	}
}

// WithStrictRegistration rejects registration images holding more than one face
func (s *FaceService) WithStrictRegistration(strict bool) *FaceService {
	s.strict = strict
	return s
}

// Register stores the embedding of the first face found in image
func (s *FaceService) Register(ctx context.Context, studentID string, image []byte) error {
	embedding, err := s.extractEmbedding(ctx, image)
	if err != nil {
		return err
	}
	return s.store(ctx, studentID, embedding)
}

// Update replaces the stored embedding. The new one is extracted before the
// index is touched, and the upsert swaps it in place, so a failed update
// leaves the previous embedding intact.
func (s *FaceService) Update(ctx context.Context, studentID string, image []byte) error {
	embedding, err := s.extractEmbedding(ctx, image)
	if err != nil {
		return err
	}
	return s.store(ctx, studentID, embedding)
}

func (s *FaceService) Delete(ctx context.Context, studentID string) error {
	if err := s.index.Delete(ctx, studentID); err != nil {
		return domain.ErrIndexUnavailable.WithError(fmt.Errorf("student %s: delete embedding: %w", studentID, err))
	}
	return nil
}

func (s *FaceService) Recognize(ctx context.Context, image []byte) (*domain.RecognitionResult, error) {
	detected, err := s.provider.DetectAndEncode(ctx, image)
	if err != nil {
		return nil, domain.ErrProviderUnavailable.WithError(fmt.Errorf("detect faces: %w", err))
	}

	faces := make([]domain.FaceDetection, 0, len(detected))
	for i, face := range detected {
		faces = append(faces, domain.FaceDetection{
			Index: i + 1,
			Location: domain.BoundingBox{
				X:      face.BoundingBox.X,
				Y:      face.BoundingBox.Y,
				Width:  face.BoundingBox.Width,
				Height: face.BoundingBox.Height,
			},
			Vector: face.Embedding,
		})
	}

	return s.resolver.Resolve(ctx, faces)
}

func (s *FaceService) extractEmbedding(ctx context.Context, image []byte) ([]float64, error) {
	detected, err := s.provider.DetectAndEncode(ctx, image)
	if err != nil {
		return nil, domain.ErrProviderUnavailable.WithError(fmt.Errorf("detect faces: %w", err))
	}

	if len(detected) == 0 {
		return nil, domain.ErrNoFaceDetected
	}

	if s.strict && len(detected) > 1 {
		return nil, domain.ErrMultipleFaces
	}

	return detected[0].Embedding, nil
}

func (s *FaceService) store(ctx context.Context, studentID string, embedding []float64) error {
	metadata := map[string]any{
		"student_id":    studentID,
		"registered_at": s.now().UTC().Format(time.RFC3339),
	}

	if err := s.index.Upsert(ctx, studentID, embedding, metadata); err != nil {
		return domain.ErrIndexUnavailable.WithError(fmt.Errorf("student %s: store embedding: %w", studentID, err))
	}
	return nil
}

var (
	_ FaceRecognizer = (*FaceService)(nil)
	_ FaceEnroller   = (*FaceService)(nil)
)
