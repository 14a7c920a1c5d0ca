package http

import "github.com/go-playground/validator/v10"

var payloadValidator = validator.New()

// ValidatePayload runs struct-tag validation on a transport request.
// Validation failures are surfaced verbatim to the caller.
func ValidatePayload(payload any) error {
	return payloadValidator.Struct(payload)
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateSubmissionRequest struct {
	FileName    string `json:"file_name" validate:"required"`
	ContentType string `json:"content_type" validate:"required"`
	Content     []byte `json:"content" validate:"required"`
	RubricID    string `json:"rubric_id,omitempty"`
}

type AssignRubricRequest struct {
	RubricID string `json:"rubric_id" validate:"required"`
}

type OverrideSectionPayload struct {
	SectionName  string  `json:"section_name" validate:"required"`
	MarksAwarded float64 `json:"marks_awarded"`
	Feedback     string  `json:"feedback,omitempty"`
}

type SaveOverrideRequest struct {
	Sections        []OverrideSectionPayload `json:"sections" validate:"required,min=1,dive"`
	OverallFeedback string                   `json:"overall_feedback,omitempty"`
	Approve         bool                     `json:"approve"`
}

type SubmissionDTO struct {
	SubmissionID string `json:"submission_id"`
	StudentID    string `json:"student_id"`
	RubricID     string `json:"rubric_id,omitempty"`
	FileName     string `json:"file_name"`
	FilePath     string `json:"file_path"`
	FileSize     int64  `json:"file_size"`
	ContentType  string `json:"content_type"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type SectionGradeDTO struct {
	SectionName           string   `json:"section_name"`
	MarksAwarded          float64  `json:"marks_awarded"`
	MaxMarks              int      `json:"max_marks"`
	Feedback              string   `json:"feedback"`
	SimilarityScore       *float64 `json:"similarity_score,omitempty"`
	SimilarityExplanation string   `json:"similarity_explanation,omitempty"`
}

type GradingResultDTO struct {
	ResultID     string `json:"result_id"`
	SubmissionID string `json:"submission_id"`
	RubricID     string `json:"rubric_id"`

	SectionGrades     []SectionGradeDTO `json:"section_grades"`
	TotalMarksAwarded float64           `json:"total_marks_awarded"`
	TotalMaxMarks     int               `json:"total_max_marks"`
	OverallFeedback   string            `json:"overall_feedback"`
	GraderModel       string            `json:"ai_model"`
	ProcessingTimeMs  int64             `json:"processing_time_ms"`

	PlagiarismScore       *float64 `json:"plagiarism_score,omitempty"`
	PlagiarismRisk        string   `json:"plagiarism_risk,omitempty"`
	PlagiarismExplanation string   `json:"plagiarism_explanation,omitempty"`

	FinalSectionGrades   []SectionGradeDTO `json:"final_section_grades,omitempty"`
	FinalTotalMarks      *float64          `json:"final_total_marks,omitempty"`
	FinalOverallFeedback *string           `json:"final_overall_feedback,omitempty"`
	IsFinalApproved      bool              `json:"is_final_approved"`
	FinalApprovedBy      string            `json:"final_approved_by,omitempty"`
	FinalApprovedAt      *string           `json:"final_approved_at,omitempty"`

	DisplayedTotal   float64 `json:"displayed_total"`
	DisplayedPercent int     `json:"displayed_percent"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

type CreateSubmissionResponse struct {
	Submission SubmissionDTO `json:"submission"`
}

type GetSubmissionResponse struct {
	Submission SubmissionDTO     `json:"submission"`
	Result     *GradingResultDTO `json:"result,omitempty"`
}

type ListSubmissionsResponse struct {
	Items []SubmissionDTO `json:"items"`
}

type TriggerGradeResponse struct {
	Result GradingResultDTO `json:"result"`
}

type SaveOverrideResponse struct {
	Result GradingResultDTO `json:"result"`
}

type DashboardSummaryResponse struct {
	TotalSubmissions int            `json:"total_submissions"`
	StatusCounts     map[string]int `json:"status_counts"`
}

type ResultRowDTO struct {
	SubmissionID    string   `json:"submission_id"`
	StudentID       string   `json:"student_id"`
	RubricID        string   `json:"rubric_id"`
	GradedAt        string   `json:"graded_at"`
	DisplayedTotal  float64  `json:"displayed_total"`
	TotalMaxMarks   int      `json:"total_max_marks"`
	Percentage      int      `json:"percentage"`
	Band            string   `json:"band"`
	IsFinalApproved bool     `json:"is_final_approved"`
	PlagiarismScore *float64 `json:"plagiarism_score,omitempty"`
}

type ClassAnalyticsResponse struct {
	TotalResults           int            `json:"total_results"`
	AveragePercentage      int            `json:"average_percentage"`
	AveragePlagiarismScore *int           `json:"average_plagiarism_score,omitempty"`
	Bands                  map[string]int `json:"bands"`
	Rows                   []ResultRowDTO `json:"rows"`
}
