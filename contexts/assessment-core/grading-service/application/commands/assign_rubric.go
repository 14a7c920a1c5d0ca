package commands

import (
	"context"
	"log/slog"
	"strings"

	"intelligrade/contexts/assessment-core/grading-service/application"
	"intelligrade/contexts/assessment-core/grading-service/domain/entities"
	domainerrors "intelligrade/contexts/assessment-core/grading-service/domain/errors"
	"intelligrade/contexts/assessment-core/grading-service/ports"
)

type AssignRubricCommand struct {
	Actor        entities.Actor
	SubmissionID string
	RubricID     string
}

type AssignRubricUseCase struct {
	Submissions ports.SubmissionRepository
	Rubrics     ports.RubricSource
	Clock       ports.Clock
	Logger      *slog.Logger
}

// Execute links a rubric to a submission. Students may relink their own
// pending submissions; teachers and admins may relink any submission that
// has not been graded yet.
func (uc AssignRubricUseCase) Execute(
	ctx context.Context,
	cmd AssignRubricCommand,
) (entities.Submission, error) {
	if !cmd.Actor.Valid() {
		return entities.Submission{}, domainerrors.ErrUnauthorizedActor
	}
	rubricID := strings.TrimSpace(cmd.RubricID)
	if rubricID == "" {
		return entities.Submission{}, domainerrors.ErrInvalidSubmissionInput
	}

	submission, err := uc.Submissions.GetSubmission(ctx, cmd.SubmissionID)
	if err != nil {
		return entities.Submission{}, err
	}
	if cmd.Actor.Role == entities.RoleStudent && submission.StudentID != cmd.Actor.UserID {
		return entities.Submission{}, domainerrors.ErrActorNotPermitted
	}
	if submission.Status != entities.SubmissionStatusPending {
		return entities.Submission{}, domainerrors.ErrInvalidStatusChange
	}

	snapshot, err := uc.Rubrics.GetRubricSnapshot(ctx, rubricID)
	if err != nil {
		return entities.Submission{}, err
	}
	if !snapshot.IsActive {
		return entities.Submission{}, domainerrors.ErrRubricInactive
	}

	now := uc.Clock.Now().UTC()
	if err := uc.Submissions.AssignRubric(ctx, submission.SubmissionID, rubricID, now); err != nil {
		return entities.Submission{}, err
	}
	submission.RubricID = rubricID
	submission.UpdatedAt = now

	application.ResolveLogger(uc.Logger).Info("rubric assigned to submission",
		"event", "rubric_assigned",
		"module", "assessment-core/grading-service",
		"layer", "application",
		"submission_id", submission.SubmissionID,
		"rubric_id", rubricID,
	)
	return submission, nil
}
