package errors

import "errors"

var (
	ErrRubricNotFound       = errors.New("rubric not found")
	ErrInvalidRubricInput   = errors.New("invalid rubric input")
	ErrEmptySections        = errors.New("rubric requires at least one section")
	ErrDuplicateSectionName = errors.New("section names must be unique within a rubric")
	ErrZeroTotalMarks       = errors.New("rubric total marks must be greater than zero")
	ErrUnauthorizedActor    = errors.New("actor is not authorized")
	ErrActorNotPermitted    = errors.New("actor role is not permitted for this operation")
)
