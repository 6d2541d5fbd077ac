package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
	"github.com/saturnino-fabrica-de-software/classroll/internal/provider"
	"github.com/saturnino-fabrica-de-software/classroll/internal/vectorindex/memory"
)

func face(vector ...float64) provider.DetectedFace {
	return provider.DetectedFace{
		BoundingBox: provider.BoundingBox{X: 10, Y: 20, Width: 100, Height: 120},
		Embedding:   vector,
		Confidence:  0.99,
	}
}

func TestFaceService_Register(t *testing.T) {
	tests := []struct {
		name       string
		strict     bool
		setupMocks func(*MockProvider, *MockIndex)
		wantErr    error
	}{
		{
			name: "successful registration",
			setupMocks: func(fp *MockProvider, idx *MockIndex) {
				fp.On("DetectAndEncode", mock.Anything, mock.Anything).Return([]provider.DetectedFace{face(1, 0)}, nil)
				idx.On("Upsert", mock.Anything, "u1", []float64{1, 0}, mock.Anything).Return(nil)
			},
		},
		{
			name: "no face detected",
			setupMocks: func(fp *MockProvider, idx *MockIndex) {
				fp.On("DetectAndEncode", mock.Anything, mock.Anything).Return([]provider.DetectedFace{}, nil)
			},
			wantErr: domain.ErrNoFaceDetected,
		},
		{
			name: "multiple faces take the first one",
			setupMocks: func(fp *MockProvider, idx *MockIndex) {
				fp.On("DetectAndEncode", mock.Anything, mock.Anything).Return([]provider.DetectedFace{face(1, 0), face(0, 1)}, nil)
				idx.On("Upsert", mock.Anything, "u1", []float64{1, 0}, mock.Anything).Return(nil)
			},
		},
		{
			name:   "multiple faces rejected when strict",
			strict: true,
			setupMocks: func(fp *MockProvider, idx *MockIndex) {
				fp.On("DetectAndEncode", mock.Anything, mock.Anything).Return([]provider.DetectedFace{face(1, 0), face(0, 1)}, nil)
			},
			wantErr: domain.ErrMultipleFaces,
		},
		{
			name: "provider failure",
			setupMocks: func(fp *MockProvider, idx *MockIndex) {
				fp.On("DetectAndEncode", mock.Anything, mock.Anything).Return(nil, errors.New("deepface unavailable"))
			},
			wantErr: domain.ErrProviderUnavailable,
		},
		{
			name: "index failure",
			setupMocks: func(fp *MockProvider, idx *MockIndex) {
				fp.On("DetectAndEncode", mock.Anything, mock.Anything).Return([]provider.DetectedFace{face(1, 0)}, nil)
				idx.On("Upsert", mock.Anything, "u1", mock.Anything, mock.Anything).Return(errors.New("503"))
			},
			wantErr: domain.ErrIndexUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := new(MockProvider)
			idx := new(MockIndex)
			tt.setupMocks(fp, idx)

			svc := NewFaceService(fp, idx, NewResolver(idx, 0.6, 5, testLogger())).WithStrictRegistration(tt.strict)

			err := svc.Register(context.Background(), "u1", make([]byte, 5000))

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			fp.AssertExpectations(t)
			idx.AssertExpectations(t)
		})
	}
}

func TestFaceService_RegisterMetadata(t *testing.T) {
	fp := new(MockProvider)
	idx := new(MockIndex)
	fp.On("DetectAndEncode", mock.Anything, mock.Anything).Return([]provider.DetectedFace{face(1, 0)}, nil)
	idx.On("Upsert", mock.Anything, "u1", mock.Anything, map[string]any{
		"student_id":    "u1",
		"registered_at": "2024-03-04T10:00:00Z",
	}).Return(nil)

	svc := NewFaceService(fp, idx, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC) }

	require.NoError(t, svc.Register(context.Background(), "u1", []byte("img")))
	idx.AssertExpectations(t)
}

func TestFaceService_UpdateKeepsOldEmbeddingOnFailure(t *testing.T) {
	fp := new(MockProvider)
	idx := new(MockIndex)
	fp.On("DetectAndEncode", mock.Anything, mock.Anything).Return([]provider.DetectedFace{}, nil)

	svc := NewFaceService(fp, idx, nil)

	err := svc.Update(context.Background(), "u1", []byte("img"))

	assert.ErrorIs(t, err, domain.ErrNoFaceDetected)
	idx.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	idx.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFaceService_RegisterThenRecognize(t *testing.T) {
	index := memory.New()
	fp := new(MockProvider)
	registration := []byte("registration")
	classroom := []byte("classroom")
	fp.On("DetectAndEncode", mock.Anything, registration).Return([]provider.DetectedFace{face(0.9, 0.1, 0.2)}, nil)
	fp.On("DetectAndEncode", mock.Anything, classroom).Return([]provider.DetectedFace{face(0.91, 0.1, 0.19)}, nil)

	svc := NewFaceService(fp, index, NewResolver(index, 0.6, 5, testLogger()))
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "u1", registration))

	result, err := svc.Recognize(ctx, classroom)

	require.NoError(t, err)
	assert.True(t, result.Success)
	require.NotNil(t, result.BestMatch)
	assert.Equal(t, "u1", result.BestMatch.StudentID)
	assert.Equal(t, 1, result.BestMatch.FaceIndex)
	assert.Equal(t, domain.BoundingBox{X: 10, Y: 20, Width: 100, Height: 120}, result.BestMatch.Location)
}

func TestFaceService_UpdateReplacesAssociation(t *testing.T) {
	index := memory.New()
	fp := new(MockProvider)
	oldPhoto := []byte("old")
	newPhoto := []byte("new")
	fp.On("DetectAndEncode", mock.Anything, oldPhoto).Return([]provider.DetectedFace{face(1, 0, 0)}, nil)
	fp.On("DetectAndEncode", mock.Anything, newPhoto).Return([]provider.DetectedFace{face(0, 1, 0)}, nil)

	svc := NewFaceService(fp, index, NewResolver(index, 0.9, 5, testLogger()))
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "u1", oldPhoto))
	require.NoError(t, svc.Update(ctx, "u1", newPhoto))

	result, err := svc.Recognize(ctx, oldPhoto)
	require.NoError(t, err)
	assert.False(t, result.Success, "old embedding must no longer match")

	result, err = svc.Recognize(ctx, newPhoto)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, index.Len())
}

func TestFaceService_Delete(t *testing.T) {
	idx := new(MockIndex)
	idx.On("Delete", mock.Anything, []string{"u1"}).Return(nil).Once()
	idx.On("Delete", mock.Anything, []string{"u2"}).Return(errors.New("timeout")).Once()

	svc := NewFaceService(new(MockProvider), idx, nil)

	require.NoError(t, svc.Delete(context.Background(), "u1"))
	assert.ErrorIs(t, svc.Delete(context.Background(), "u2"), domain.ErrIndexUnavailable)
}

func TestFaceService_RecognizeProviderFailure(t *testing.T) {
	fp := new(MockProvider)
	fp.On("DetectAndEncode", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)

	_, err := NewFaceService(fp, new(MockIndex), nil).Recognize(context.Background(), []byte("img"))

	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
