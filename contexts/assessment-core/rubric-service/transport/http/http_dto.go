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

type SectionPayload struct {
	Name                string `json:"name" validate:"required"`
	Description         string `json:"description" validate:"required"`
	MaxMarks            int    `json:"max_marks" validate:"required,min=1"`
	Keywords            string `json:"keywords,omitempty"`
	ConceptExpectations string `json:"concept_expectations,omitempty"`
}

type CreateRubricRequest struct {
	Title       string           `json:"title" validate:"required"`
	Subject     string           `json:"subject" validate:"required"`
	Description string           `json:"description"`
	Sections    []SectionPayload `json:"sections" validate:"required,min=1,dive"`
}

type UpdateRubricRequest struct {
	Title       string           `json:"title" validate:"required"`
	Subject     string           `json:"subject" validate:"required"`
	Description string           `json:"description"`
	Sections    []SectionPayload `json:"sections" validate:"required,min=1,dive"`
}

type SetRubricActiveRequest struct {
	Active bool `json:"active"`
}

type RubricDTO struct {
	RubricID    string           `json:"rubric_id"`
	TeacherID   string           `json:"teacher_id"`
	Title       string           `json:"title"`
	Subject     string           `json:"subject"`
	Description string           `json:"description,omitempty"`
	Sections    []SectionPayload `json:"sections"`
	TotalMarks  int              `json:"total_marks"`
	IsActive    bool             `json:"is_active"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at"`
}

type CreateRubricResponse struct {
	Rubric RubricDTO `json:"rubric"`
}

type GetRubricResponse struct {
	Rubric RubricDTO `json:"rubric"`
}

type ListRubricsResponse struct {
	Items []RubricDTO `json:"items"`
}
