package deepface

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/saturnino-fabrica-de-software/classroll/internal/provider"
)

// Provider implements provider.EmbeddingProvider using DeepFace API
type Provider struct {
	client           *Client
	detector         string
	fallbackDetector string
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client:           NewClient(config),
		detector:         config.Detector,
		fallbackDetector: config.FallbackDetector,
	}
}

// DetectAndEncode runs the fast detector first and, when it finds nothing,
// repeats once with the more accurate fallback detector.
func (p *Provider) DetectAndEncode(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	img := encodeImage(image)

	faces, err := p.represent(ctx, img, p.detector)
	if err != nil {
		return nil, err
	}

	if len(faces) == 0 && p.fallbackDetector != "" && p.fallbackDetector != p.detector {
		faces, err = p.represent(ctx, img, p.fallbackDetector)
		if err != nil {
			return nil, err
		}
	}

	return faces, nil
}

func (p *Provider) represent(ctx context.Context, img, detector string) ([]provider.DetectedFace, error) {
	resp, err := p.client.Represent(ctx, img, detector)
	if err != nil {
		return nil, fmt.Errorf("represent with %s: %w", detector, err)
	}

	faces := make([]provider.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		// Without enforced detection DeepFace returns the whole frame with zero confidence
		if result.FaceConfidence <= 0 || len(result.Embedding) == 0 {
			continue
		}

		faces = append(faces, provider.DetectedFace{
			BoundingBox: provider.BoundingBox{
				X:      result.FacialArea.X,
				Y:      result.FacialArea.Y,
				Width:  result.FacialArea.W,
				Height: result.FacialArea.H,
			},
			Embedding:  result.Embedding,
			Confidence: result.FaceConfidence,
		})
	}

	return faces, nil
}

// encodeImage builds the data URI DeepFace expects for inline images
func encodeImage(image []byte) string {
	mime := http.DetectContentType(image)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)
}

var _ provider.EmbeddingProvider = (*Provider)(nil)
