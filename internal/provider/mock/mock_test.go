package mock

import (
	"context"
	"math"
	"testing"
)

func TestProvider_DetectAndEncode(t *testing.T) {
	p := New()
	ctx := context.Background()

	tests := []struct {
		name      string
		image     []byte
		wantFaces int
	}{
		{"valid image", make([]byte, 5000), 1},
		{"image too small", make([]byte, 100), 0},
		{"empty image", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faces, err := p.DetectAndEncode(ctx, tt.image)
			if err != nil {
				t.Fatalf("DetectAndEncode() error = %v", err)
			}
			if len(faces) != tt.wantFaces {
				t.Errorf("DetectAndEncode() got %d faces, want %d", len(faces), tt.wantFaces)
			}
		})
	}
}

func TestProvider_DetectAndEncode_Deterministic(t *testing.T) {
	p := New()
	ctx := context.Background()

	image := make([]byte, 5000)
	for i := range image {
		image[i] = byte(i % 256)
	}

	first, err := p.DetectAndEncode(ctx, image)
	if err != nil {
		t.Fatalf("DetectAndEncode() error = %v", err)
	}
	second, _ := p.DetectAndEncode(ctx, image)

	if len(first[0].Embedding) != embeddingDimension {
		t.Fatalf("embedding length = %d, want %d", len(first[0].Embedding), embeddingDimension)
	}
	for i := range first[0].Embedding {
		if first[0].Embedding[i] != second[0].Embedding[i] {
			t.Fatalf("embedding differs at %d", i)
		}
	}

	var norm float64
	for _, v := range first[0].Embedding {
		norm += v * v
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-9 {
		t.Errorf("embedding should be unit length, got norm %v", math.Sqrt(norm))
	}

	other := make([]byte, 5000)
	other[0] = 1
	third, _ := p.DetectAndEncode(ctx, other)
	same := true
	for i := range third[0].Embedding {
		if third[0].Embedding[i] != first[0].Embedding[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different images should produce different embeddings")
	}
}

func TestProvider_DetectAndEncode_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New().DetectAndEncode(ctx, make([]byte, 5000)); err == nil {
		t.Error("expected context error")
	}
}
