package errors

import "errors"

var (
	ErrSubmissionNotFound     = errors.New("submission not found")
	ErrResultNotFound         = errors.New("grading result not found")
	ErrRubricNotFound         = errors.New("rubric not found")
	ErrInvalidSubmissionInput = errors.New("invalid submission input")
	ErrUnsupportedFileType    = errors.New("unsupported file type")
	ErrFileTooLarge           = errors.New("file exceeds the upload size limit")
	ErrFileNotFound           = errors.New("submission file not found")
	ErrNoRubricAssigned       = errors.New("submission has no rubric assigned")
	ErrRubricInactive         = errors.New("rubric is not active")
	ErrGradingInProgress      = errors.New("a grading pass is already in progress")
	ErrInvalidStatusChange    = errors.New("submission status does not allow this operation")
	ErrResultAlreadyExists    = errors.New("submission already has a grading result")
	ErrSectionMismatch        = errors.New("section names do not match the graded sections")
	ErrGradingFailed          = errors.New("grading failed")
	ErrUnauthorizedActor      = errors.New("unauthorized actor")
	ErrActorNotPermitted      = errors.New("actor is not permitted to perform this action")
)
