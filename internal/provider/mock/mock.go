package mock

import (
	"context"
	"crypto/sha256"

	"github.com/saturnino-fabrica-de-software/classroll/internal/provider"
	"github.com/saturnino-fabrica-de-software/classroll/internal/vectorindex"
)

const (
	embeddingDimension = 512
	// minImageSize below which no face is reported
	minImageSize = 1000
)

// Provider implements provider.EmbeddingProvider for tests and local development.
// Every image large enough holds exactly one face whose embedding is derived
// from the image hash, so the same bytes always produce the same vector.
type Provider struct{}

func New() *Provider {
	return &Provider{}
}

func (p *Provider) DetectAndEncode(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(image) < minImageSize {
		return []provider.DetectedFace{}, nil
	}

	return []provider.DetectedFace{
		{
			BoundingBox: provider.BoundingBox{X: 40, Y: 30, Width: 160, Height: 180},
			Embedding:   generateEmbedding(image),
			Confidence:  0.99,
		},
	}, nil
}

// generateEmbedding derives a unit-length vector from the image hash
func generateEmbedding(image []byte) []float64 {
	hash := sha256.Sum256(image)
	embedding := make([]float64, embeddingDimension)
	hashLen := len(hash)

	for i := 0; i < embeddingDimension; i++ {
		idx := i % hashLen
		//nolint:gosec // idx is always < hashLen due to modulo operation
		embedding[i] = (float64(hash[idx])/255.0)*2 - 1
	}

	return vectorindex.Normalize(embedding)
}

var _ provider.EmbeddingProvider = (*Provider)(nil)
