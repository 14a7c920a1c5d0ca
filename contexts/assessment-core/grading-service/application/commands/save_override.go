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

type OverrideSection struct {
	SectionName  string
	MarksAwarded float64
	Feedback     string
}

type SaveOverrideCommand struct {
	Actor           entities.Actor
	ResultID        string
	Sections        []OverrideSection
	OverallFeedback string
	Approve         bool
}

type SaveOverrideUseCase struct {
	Submissions ports.SubmissionRepository
	Results     ports.ResultRepository
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

// Execute records a teacher override of the AI grade. Section names must
// match the graded sections one-to-one; renaming or dropping a section is
// rejected. Saving a draft leaves the approval flag untouched, approving is
// idempotent, and approval flips the submission graded -> approved in the
// same store operation as the override write.
func (uc SaveOverrideUseCase) Execute(
	ctx context.Context,
	cmd SaveOverrideCommand,
) (entities.GradingResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	if !cmd.Actor.Valid() {
		return entities.GradingResult{}, domainerrors.ErrUnauthorizedActor
	}
	if !cmd.Actor.CanReview() {
		return entities.GradingResult{}, domainerrors.ErrActorNotPermitted
	}

	result, err := uc.Results.GetResult(ctx, cmd.ResultID)
	if err != nil {
		return entities.GradingResult{}, err
	}
	submission, err := uc.Submissions.GetSubmission(ctx, result.SubmissionID)
	if err != nil {
		return entities.GradingResult{}, err
	}
	if submission.Status != entities.SubmissionStatusGraded &&
		submission.Status != entities.SubmissionStatusApproved {
		return entities.GradingResult{}, domainerrors.ErrInvalidStatusChange
	}

	finalSections, err := mergeOverrideSections(result.SectionGrades, cmd.Sections)
	if err != nil {
		return entities.GradingResult{}, err
	}
	finalTotal := 0.0
	for _, section := range finalSections {
		finalTotal += section.MarksAwarded
	}

	now := uc.Clock.Now().UTC()
	result.FinalSectionGrades = finalSections
	result.FinalTotalMarks = &finalTotal
	feedback := strings.TrimSpace(cmd.OverallFeedback)
	if feedback == "" {
		feedback = result.OverallFeedback
	}
	result.FinalOverallFeedback = &feedback
	result.UpdatedAt = now

	markApproved := false
	if cmd.Approve {
		if !result.IsFinalApproved {
			result.IsFinalApproved = true
			result.FinalApprovedBy = cmd.Actor.UserID
			result.FinalApprovedAt = &now
		}
		markApproved = submission.Status == entities.SubmissionStatusGraded
	}

	if err := uc.Results.ApplyOverride(ctx, result, markApproved); err != nil {
		return entities.GradingResult{}, err
	}

	if cmd.Approve && markApproved {
		if err := appendGradingEvent(ctx, uc.Outbox, uc.IDGen, eventGradeApproved, result.SubmissionID, now, approvedEventData{
			SubmissionID:    result.SubmissionID,
			ResultID:        result.ResultID,
			FinalTotalMarks: finalTotal,
			ApprovedBy:      cmd.Actor.UserID,
		}); err != nil {
			logger.Error("failed to append approval event",
				"event", "override_outbox_append_failed",
				"module", "assessment-core/grading-service",
				"layer", "application",
				"result_id", result.ResultID,
				"error", err.Error(),
			)
		}
	}

	logger.Info("grade override saved",
		"event", "override_saved",
		"module", "assessment-core/grading-service",
		"layer", "application",
		"result_id", result.ResultID,
		"submission_id", result.SubmissionID,
		"final_total_marks", finalTotal,
		"approved", result.IsFinalApproved,
		"reviewer_id", cmd.Actor.UserID,
	)
	return result, nil
}

// mergeOverrideSections applies edits onto the AI sections, preserving the
// rubric order and the AI similarity fields. Marks are clamped to each
// section's maximum; an empty edited feedback keeps the AI feedback.
func mergeOverrideSections(
	graded []entities.SectionGrade,
	edits []OverrideSection,
) ([]entities.SectionGrade, error) {
	if len(edits) != len(graded) {
		return nil, domainerrors.ErrSectionMismatch
	}
	edited := make(map[string]OverrideSection, len(edits))
	for _, edit := range edits {
		if _, exists := edited[edit.SectionName]; exists {
			return nil, domainerrors.ErrSectionMismatch
		}
		edited[edit.SectionName] = edit
	}

	merged := make([]entities.SectionGrade, 0, len(graded))
	for _, section := range graded {
		edit, ok := edited[section.SectionName]
		if !ok {
			return nil, domainerrors.ErrSectionMismatch
		}
		feedback := strings.TrimSpace(edit.Feedback)
		if feedback == "" {
			feedback = section.Feedback
		}
		merged = append(merged, entities.SectionGrade{
			SectionName:           section.SectionName,
			MarksAwarded:          entities.ClampMarks(edit.MarksAwarded, section.MaxMarks),
			MaxMarks:              section.MaxMarks,
			Feedback:              feedback,
			SimilarityScore:       section.SimilarityScore,
			SimilarityExplanation: section.SimilarityExplanation,
		})
	}
	return merged, nil
}
