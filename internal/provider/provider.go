package provider

import "context"

// EmbeddingProvider detects faces in an image and encodes each one into a
// fixed-length vector. Zero faces is a normal outcome, not an error.
type EmbeddingProvider interface {
	DetectAndEncode(ctx context.Context, image []byte) ([]DetectedFace, error)
}

// DetectedFace represents a detected face in the image
type DetectedFace struct {
	BoundingBox BoundingBox `json:"bounding_box"`
	Embedding   []float64   `json:"embedding"`
	Confidence  float64     `json:"confidence"`
}

// BoundingBox represents the face area in the image, in pixels
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}
