package entities

import (
	"strings"
	"time"
)

type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"
	SubmissionStatusGrading  SubmissionStatus = "grading"
	SubmissionStatusGraded   SubmissionStatus = "graded"
	SubmissionStatusApproved SubmissionStatus = "approved"
)

// Submission is a student-uploaded document routed through grading and review.
// Status only advances pending -> grading -> graded -> approved, with the
// single failure edge grading -> pending when a grading pass fails.
type Submission struct {
	SubmissionID string
	StudentID    string
	RubricID     string
	FileName     string
	FilePath     string
	FileSize     int64
	ContentType  string
	Status       SubmissionStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (s Submission) ValidateCreate() bool {
	return strings.TrimSpace(s.StudentID) != "" &&
		strings.TrimSpace(s.FileName) != "" &&
		strings.TrimSpace(s.ContentType) != "" &&
		s.FileSize > 0
}

func (s Submission) HasRubric() bool {
	return strings.TrimSpace(s.RubricID) != ""
}

// ValidTransition reports whether from -> to is a legal status edge.
func ValidTransition(from, to SubmissionStatus) bool {
	switch from {
	case SubmissionStatusPending:
		return to == SubmissionStatusGrading
	case SubmissionStatusGrading:
		return to == SubmissionStatusGraded || to == SubmissionStatusPending
	case SubmissionStatusGraded:
		return to == SubmissionStatusApproved
	default:
		return false
	}
}
