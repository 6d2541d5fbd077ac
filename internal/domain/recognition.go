package domain

// BoundingBox locates a face in the source image, in pixels
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FaceDetection is one face found in a request image.
// Index is 1-based in detection order.
type FaceDetection struct {
	Index    int
	Location BoundingBox
	Vector   []float64
}

// MatchCandidate is a detection whose best index hit passed the threshold
type MatchCandidate struct {
	StudentID       string      `json:"student_id"`
	SimilarityScore float64     `json:"similarity_score"`
	FaceIndex       int         `json:"face_index"`
	Location        BoundingBox `json:"location"`
}

// ResolvedMatch is the best-scoring candidate of one student within a request
type ResolvedMatch MatchCandidate

type UnrecognizedFace struct {
	FaceIndex int         `json:"face_index"`
	Location  BoundingBox `json:"location"`
}

// RecognitionResult carries the outcome of matching every face of an image.
// FacesDetected always equals FacesRecognized + FacesUnrecognized, where
// FacesRecognized counts distinct students.
type RecognitionResult struct {
	Success            bool               `json:"success"`
	Message            string             `json:"message"`
	StudentID          string             `json:"student_id,omitempty"`
	SimilarityScore    float64            `json:"similarity_score,omitempty"`
	FacesDetected      int                `json:"faces_detected"`
	FacesRecognized    int                `json:"faces_recognized"`
	FacesUnrecognized  int                `json:"faces_unrecognized"`
	RecognizedStudents []ResolvedMatch    `json:"recognized_students"`
	UnrecognizedFaces  []UnrecognizedFace `json:"unrecognized_faces"`
	FaceLocations      []BoundingBox      `json:"face_locations"`
	BestMatch          *ResolvedMatch     `json:"best_match,omitempty"`
}

// MarkFaceResult is the response of a face attendance mark
type MarkFaceResult struct {
	RecognitionResult
	SubjectID        string `json:"subject_id"`
	Enrolled         *bool  `json:"enrolled,omitempty"`
	AttendanceMarked bool   `json:"attendance_marked"`
	AlreadyRecorded  bool   `json:"already_recorded"`
	StudentName      string `json:"student_name,omitempty"`
}
