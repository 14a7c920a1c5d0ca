package queries

import (
	"context"
	"errors"
	"log/slog"

	"intelligrade/contexts/assessment-core/grading-service/domain/entities"
	domainerrors "intelligrade/contexts/assessment-core/grading-service/domain/errors"
	"intelligrade/contexts/assessment-core/grading-service/ports"
)

type ListSubmissionsQuery struct {
	Actor     entities.Actor
	StudentID string
	RubricID  string
	Status    entities.SubmissionStatus
}

// SubmissionView pairs a submission with its grading result, when one exists.
type SubmissionView struct {
	Submission entities.Submission
	Result     *entities.GradingResult
}

type QueryUseCase struct {
	Submissions ports.SubmissionRepository
	Results     ports.ResultRepository
	Logger      *slog.Logger
}

func (uc QueryUseCase) GetSubmission(
	ctx context.Context,
	actor entities.Actor,
	submissionID string,
) (SubmissionView, error) {
	if !actor.Valid() {
		return SubmissionView{}, domainerrors.ErrUnauthorizedActor
	}
	submission, err := uc.Submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		return SubmissionView{}, err
	}
	if actor.Role == entities.RoleStudent && submission.StudentID != actor.UserID {
		return SubmissionView{}, domainerrors.ErrActorNotPermitted
	}

	view := SubmissionView{Submission: submission}
	result, err := uc.Results.GetResultForSubmission(ctx, submissionID)
	switch {
	case err == nil:
		view.Result = &result
	case errors.Is(err, domainerrors.ErrResultNotFound):
	default:
		return SubmissionView{}, err
	}
	return view, nil
}

// ListSubmissions returns submissions visible to the actor. Students are
// always scoped to their own uploads regardless of the requested filter.
func (uc QueryUseCase) ListSubmissions(
	ctx context.Context,
	query ListSubmissionsQuery,
) ([]entities.Submission, error) {
	if !query.Actor.Valid() {
		return nil, domainerrors.ErrUnauthorizedActor
	}
	filter := ports.SubmissionFilter{
		StudentID: query.StudentID,
		RubricID:  query.RubricID,
		Status:    query.Status,
	}
	if query.Actor.Role == entities.RoleStudent {
		filter.StudentID = query.Actor.UserID
	}

	return uc.Submissions.ListSubmissions(ctx, filter)
}

// DashboardSummary holds per-status submission counts for the caller's view:
// students see their own uploads, reviewers see the whole class.
type DashboardSummary struct {
	TotalSubmissions int
	StatusCounts     map[entities.SubmissionStatus]int
}

func (uc QueryUseCase) DashboardSummary(
	ctx context.Context,
	actor entities.Actor,
) (DashboardSummary, error) {
	if !actor.Valid() {
		return DashboardSummary{}, domainerrors.ErrUnauthorizedActor
	}
	filter := ports.SubmissionFilter{}
	if actor.Role == entities.RoleStudent {
		filter.StudentID = actor.UserID
	}
	items, err := uc.Submissions.ListSubmissions(ctx, filter)
	if err != nil {
		return DashboardSummary{}, err
	}

	summary := DashboardSummary{
		TotalSubmissions: len(items),
		StatusCounts: map[entities.SubmissionStatus]int{
			entities.SubmissionStatusPending:  0,
			entities.SubmissionStatusGrading:  0,
			entities.SubmissionStatusGraded:   0,
			entities.SubmissionStatusApproved: 0,
		},
	}
	for _, item := range items {
		summary.StatusCounts[item.Status]++
	}
	return summary, nil
}

func (uc QueryUseCase) GetResult(
	ctx context.Context,
	actor entities.Actor,
	resultID string,
) (entities.GradingResult, error) {
	if !actor.Valid() {
		return entities.GradingResult{}, domainerrors.ErrUnauthorizedActor
	}
	result, err := uc.Results.GetResult(ctx, resultID)
	if err != nil {
		return entities.GradingResult{}, err
	}
	if actor.Role == entities.RoleStudent {
		submission, err := uc.Submissions.GetSubmission(ctx, result.SubmissionID)
		if err != nil {
			return entities.GradingResult{}, err
		}
		if submission.StudentID != actor.UserID {
			return entities.GradingResult{}, domainerrors.ErrActorNotPermitted
		}
	}
	return result, nil
}
