package face

import (
	"errors"
	"fmt"

	"github.com/saturnino-fabrica-de-software/classroll/internal/config"
	"github.com/saturnino-fabrica-de-software/classroll/internal/provider"
	"github.com/saturnino-fabrica-de-software/classroll/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/classroll/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/classroll/internal/vectorindex"
	"github.com/saturnino-fabrica-de-software/classroll/internal/vectorindex/memory"
	"github.com/saturnino-fabrica-de-software/classroll/internal/vectorindex/pgvector"
	"github.com/saturnino-fabrica-de-software/classroll/internal/vectorindex/pinecone"
)

// ProviderType defines supported embedding provider types
type ProviderType string

const (
	// ProviderTypeDeepFace calls a DeepFace HTTP service
	ProviderTypeDeepFace ProviderType = "deepface"
	// ProviderTypeMock derives embeddings from image bytes, for dev and tests
	ProviderTypeMock ProviderType = "mock"
)

// IndexType defines supported similarity index backends
type IndexType string

const (
	IndexTypePinecone IndexType = "pinecone"
	IndexTypePgvector IndexType = "pgvector"
	IndexTypeMemory   IndexType = "memory"
)

// ErrPoolRequired is returned when pgvector is selected without a database pool
var ErrPoolRequired = errors.New("pgvector index requires a database pool")

// NewEmbeddingProvider creates the provider selected by PROVIDER_TYPE
//
// Environment variables:
//   - PROVIDER_TYPE: "deepface" or "mock" (default: "deepface")
//   - DEEPFACE_URL: DeepFace API URL (default: "http://localhost:5000")
//   - DEEPFACE_MODEL, DEEPFACE_DETECTOR, DEEPFACE_FALLBACK_DETECTOR
//   - PROVIDER_RETRY_COUNT: retries on transport and 5xx failures (default: 0)
func NewEmbeddingProvider(cfg *config.Config) (provider.EmbeddingProvider, error) {
	switch ProviderType(cfg.ProviderType) {
	case ProviderTypeDeepFace, "":
		return createDeepFaceProvider(cfg), nil

	case ProviderTypeMock:
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s)",
			cfg.ProviderType, ProviderTypeDeepFace, ProviderTypeMock)
	}
}

func createDeepFaceProvider(cfg *config.Config) provider.EmbeddingProvider {
	deepfaceConfig := deepface.DefaultConfig()

	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceModel != "" {
		deepfaceConfig.Model = cfg.DeepFaceModel
	}
	if cfg.DeepFaceDetector != "" {
		deepfaceConfig.Detector = cfg.DeepFaceDetector
	}
	deepfaceConfig.FallbackDetector = cfg.DeepFaceFallbackDetector
	deepfaceConfig.RetryCount = cfg.ProviderRetryCount

	return deepface.NewProvider(deepfaceConfig)
}

// NewVectorIndex creates the index selected by VECTOR_INDEX. pool is only
// used by the pgvector backend.
func NewVectorIndex(cfg *config.Config, pool pgvector.Pool) (vectorindex.Index, error) {
	switch IndexType(cfg.VectorIndex) {
	case IndexTypePinecone, "":
		return pinecone.NewClient(pinecone.Config{
			Host:      cfg.PineconeHost,
			APIKey:    cfg.PineconeAPIKey,
			Namespace: cfg.PineconeNamespace,
			Timeout:   cfg.StoreTimeout,
		}), nil

	case IndexTypePgvector:
		if pool == nil {
			return nil, ErrPoolRequired
		}
		return pgvector.New(pool), nil

	case IndexTypeMemory:
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unknown vector index: %s (supported: %s, %s, %s)",
			cfg.VectorIndex, IndexTypePinecone, IndexTypePgvector, IndexTypeMemory)
	}
}
