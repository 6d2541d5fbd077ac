package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/classroll/internal/domain"
	"github.com/saturnino-fabrica-de-software/classroll/internal/vectorindex"
)

// Resolver turns the faces of one image into a deduplicated set of students.
//
// Scores are higher-is-better similarities. A face is accepted when its best
// index hit scores at least minSimilarity, which callers derive from the
// configured dissimilarity tolerance as 1 - FACE_THRESHOLD.
type Resolver struct {
	index         vectorindex.Index
	minSimilarity float64
	topK          int
	logger        *slog.Logger
}

func NewResolver(index vectorindex.Index, minSimilarity float64, topK int, logger *slog.Logger) *Resolver {
	if topK < 1 {
		topK = 1
	}
	return &Resolver{
		index:         index,
		minSimilarity: minSimilarity,
		topK:          topK,
		logger:        logger,
	}
}

// Resolve queries the index once per face. A student seen on several faces
// keeps only its highest-scoring face; a later face replaces the kept one only
// when strictly better. The best match overall becomes the primary result,
// ties going to the earlier face.
func (r *Resolver) Resolve(ctx context.Context, faces []domain.FaceDetection) (*domain.RecognitionResult, error) {
	result := &domain.RecognitionResult{
		FacesDetected:      len(faces),
		RecognizedStudents: []domain.ResolvedMatch{},
		UnrecognizedFaces:  []domain.UnrecognizedFace{},
		FaceLocations:      make([]domain.BoundingBox, 0, len(faces)),
	}

	if len(faces) == 0 {
		result.Message = "No faces detected in the image"
		return result, nil
	}

	best := make(map[string]*domain.ResolvedMatch, len(faces))
	order := make([]string, 0, len(faces))

	for _, face := range faces {
		result.FaceLocations = append(result.FaceLocations, face.Location)

		candidate, err := r.match(ctx, face)
		if err != nil {
			return nil, err
		}
		if candidate == nil {
			continue
		}

		kept, seen := best[candidate.StudentID]
		switch {
		case !seen:
			match := domain.ResolvedMatch(*candidate)
			best[candidate.StudentID] = &match
			order = append(order, candidate.StudentID)
		case candidate.SimilarityScore > kept.SimilarityScore:
			*kept = domain.ResolvedMatch(*candidate)
		default:
			r.logger.DebugContext(ctx, "duplicate face ignored",
				"student_id", candidate.StudentID,
				"face_index", face.Index,
				"score", candidate.SimilarityScore,
			)
		}
	}

	winners := make(map[int]bool, len(best))
	var primary *domain.ResolvedMatch
	for _, id := range order {
		match := best[id]
		result.RecognizedStudents = append(result.RecognizedStudents, *match)
		winners[match.FaceIndex] = true

		if primary == nil ||
			match.SimilarityScore > primary.SimilarityScore ||
			(match.SimilarityScore == primary.SimilarityScore && match.FaceIndex < primary.FaceIndex) {
			primary = match
		}
	}

	for _, face := range faces {
		if !winners[face.Index] {
			result.UnrecognizedFaces = append(result.UnrecognizedFaces, domain.UnrecognizedFace{
				FaceIndex: face.Index,
				Location:  face.Location,
			})
		}
	}

	result.FacesRecognized = len(best)
	result.FacesUnrecognized = len(faces) - len(best)

	if primary == nil {
		result.Message = fmt.Sprintf("No registered students found among %d detected face(s)", len(faces))
		return result, nil
	}

	bestMatch := *primary
	result.Success = true
	result.StudentID = bestMatch.StudentID
	result.SimilarityScore = bestMatch.SimilarityScore
	result.BestMatch = &bestMatch
	result.Message = fmt.Sprintf("Best match: Student %s with %.2f%% confidence", bestMatch.StudentID, bestMatch.SimilarityScore*100)

	return result, nil
}

// match returns the accepted candidate for one face, or nil
func (r *Resolver) match(ctx context.Context, face domain.FaceDetection) (*domain.MatchCandidate, error) {
	hits, err := r.index.Query(ctx, face.Vector, r.topK)
	if err != nil {
		return nil, domain.ErrIndexUnavailable.WithError(fmt.Errorf("query face %d: %w", face.Index, err))
	}

	for rank, hit := range hits {
		r.logger.DebugContext(ctx, "index hit",
			"face_index", face.Index,
			"rank", rank+1,
			"student_id", hit.ID,
			"score", hit.Score,
		)
	}

	if len(hits) == 0 {
		return nil, nil
	}

	top := hits[0]
	for _, hit := range hits[1:] {
		if hit.Score > top.Score {
			top = hit
		}
	}

	if top.ID == "" || top.Score < r.minSimilarity {
		return nil, nil
	}

	return &domain.MatchCandidate{
		StudentID:       top.ID,
		SimilarityScore: top.Score,
		FaceIndex:       face.Index,
		Location:        face.Location,
	}, nil
}
