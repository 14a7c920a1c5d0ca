package entities

import "time"

// SectionGrade is a marks-plus-feedback record for one rubric section,
// either AI-suggested or teacher-finalized.
type SectionGrade struct {
	SectionName           string
	MarksAwarded          float64
	MaxMarks              int
	Feedback              string
	SimilarityScore       *float64
	SimilarityExplanation string
}

// GradingResult is the one-to-one scoring record for a submission. The AI
// fields are written exactly once when a grading pass succeeds; the Final*
// override fields stay nil until a reviewer acts. TotalMaxMarks is copied
// from the rubric at grading time so later rubric edits cannot change a
// past grade.
type GradingResult struct {
	ResultID     string
	SubmissionID string
	RubricID     string

	SectionGrades     []SectionGrade
	TotalMarksAwarded float64
	TotalMaxMarks     int
	OverallFeedback   string
	GraderModel       string
	ProcessingTime    time.Duration

	PlagiarismScore       *float64
	PlagiarismRisk        string
	PlagiarismExplanation string

	FinalSectionGrades   []SectionGrade
	FinalTotalMarks      *float64
	FinalOverallFeedback *string
	IsFinalApproved      bool
	FinalApprovedBy      string
	FinalApprovedAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasFinalGrade reports whether the approved override fields are authoritative.
func (r GradingResult) HasFinalGrade() bool {
	return r.IsFinalApproved && r.FinalTotalMarks != nil && len(r.FinalSectionGrades) > 0
}

// DisplayedTotal applies the display selection rule every consumer must use:
// the approved final total when present, otherwise the AI total.
func (r GradingResult) DisplayedTotal() float64 {
	if r.HasFinalGrade() {
		return *r.FinalTotalMarks
	}
	return r.TotalMarksAwarded
}

func (r GradingResult) DisplayedSections() []SectionGrade {
	if r.HasFinalGrade() {
		return r.FinalSectionGrades
	}
	return r.SectionGrades
}

func (r GradingResult) DisplayedOverallFeedback() string {
	if r.HasFinalGrade() && r.FinalOverallFeedback != nil && *r.FinalOverallFeedback != "" {
		return *r.FinalOverallFeedback
	}
	return r.OverallFeedback
}

// ClampMarks forces marks into [0, max]. Out-of-range values are corrected
// silently in both the grading-ingestion and override paths.
func ClampMarks(marks float64, maxMarks int) float64 {
	if marks < 0 {
		return 0
	}
	if marks > float64(maxMarks) {
		return float64(maxMarks)
	}
	return marks
}
