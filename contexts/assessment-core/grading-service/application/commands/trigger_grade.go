package commands

import (
	"context"
	"log/slog"
	"time"

	"intelligrade/contexts/assessment-core/grading-service/application"
	"intelligrade/contexts/assessment-core/grading-service/domain/entities"
	domainerrors "intelligrade/contexts/assessment-core/grading-service/domain/errors"
	"intelligrade/contexts/assessment-core/grading-service/ports"
)

// maxSubmissionChars caps the text handed to the grader so oversized
// documents cannot blow the model context window.
const maxSubmissionChars = 50000

const defaultGraderTimeout = 2 * time.Minute

type TriggerGradeCommand struct {
	Actor        entities.Actor
	SubmissionID string
}

type TriggerGradeUseCase struct {
	Submissions   ports.SubmissionRepository
	Results       ports.ResultRepository
	Rubrics       ports.RubricSource
	Files         ports.FileStore
	Extractor     ports.TextExtractor
	Grader        ports.Grader
	Outbox        ports.OutboxWriter
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	GraderTimeout time.Duration
	Logger        *slog.Logger
}

// Execute runs one grading pass end to end: claim the submission via a
// pending -> grading compare-and-swap, fetch rubric and document, call the
// grader under a deadline, validate and clamp its output, then persist the
// result and the graded status atomically. Any failure after the claim
// reverts the submission to pending and surfaces a generic grading error;
// the concrete cause is only logged, keyed by a correlation id.
func (uc TriggerGradeUseCase) Execute(
	ctx context.Context,
	cmd TriggerGradeCommand,
) (entities.GradingResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	if !cmd.Actor.Valid() {
		return entities.GradingResult{}, domainerrors.ErrUnauthorizedActor
	}
	if !cmd.Actor.CanReview() {
		return entities.GradingResult{}, domainerrors.ErrActorNotPermitted
	}

	submission, err := uc.Submissions.GetSubmission(ctx, cmd.SubmissionID)
	if err != nil {
		return entities.GradingResult{}, err
	}
	if !submission.HasRubric() {
		return entities.GradingResult{}, domainerrors.ErrNoRubricAssigned
	}
	switch submission.Status {
	case entities.SubmissionStatusPending:
	case entities.SubmissionStatusGrading:
		return entities.GradingResult{}, domainerrors.ErrGradingInProgress
	default:
		return entities.GradingResult{}, domainerrors.ErrInvalidStatusChange
	}

	startedAt := uc.Clock.Now().UTC()
	if err := uc.Submissions.TransitionStatus(
		ctx,
		submission.SubmissionID,
		entities.SubmissionStatusPending,
		entities.SubmissionStatusGrading,
		startedAt,
	); err != nil {
		return entities.GradingResult{}, err
	}

	correlationID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.GradingResult{}, uc.failGrading(ctx, submission.SubmissionID, "", "correlation_id", err)
	}
	logger.Info("grading pass started",
		"event", "grading_started",
		"module", "assessment-core/grading-service",
		"layer", "application",
		"submission_id", submission.SubmissionID,
		"rubric_id", submission.RubricID,
		"correlation_id", correlationID,
	)

	snapshot, err := uc.Rubrics.GetRubricSnapshot(ctx, submission.RubricID)
	if err != nil {
		return entities.GradingResult{}, uc.failGrading(ctx, submission.SubmissionID, correlationID, "rubric_lookup", err)
	}

	content, err := uc.Files.LoadFile(ctx, submission.FilePath)
	if err != nil {
		return entities.GradingResult{}, uc.failGrading(ctx, submission.SubmissionID, correlationID, "file_load", err)
	}
	text, err := uc.Extractor.ExtractText(ctx, content, submission.ContentType)
	if err != nil {
		return entities.GradingResult{}, uc.failGrading(ctx, submission.SubmissionID, correlationID, "text_extraction", err)
	}
	text = truncateText(text, maxSubmissionChars)

	timeout := uc.GraderTimeout
	if timeout <= 0 {
		timeout = defaultGraderTimeout
	}
	gradeCtx, cancel := context.WithTimeout(ctx, timeout)
	response, err := uc.Grader.Grade(gradeCtx, ports.GradeRequest{
		RubricTitle:    snapshot.Title,
		RubricSubject:  snapshot.Subject,
		Sections:       snapshot.Sections,
		SubmissionText: text,
	})
	cancel()
	if err != nil {
		return entities.GradingResult{}, uc.failGrading(ctx, submission.SubmissionID, correlationID, "grader_call", err)
	}

	sectionGrades, err := reconcileSections(snapshot.Sections, response.SectionScores)
	if err != nil {
		return entities.GradingResult{}, uc.failGrading(ctx, submission.SubmissionID, correlationID, "section_reconciliation", err)
	}

	total := 0.0
	for _, grade := range sectionGrades {
		total += grade.MarksAwarded
	}

	resultID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.GradingResult{}, uc.failGrading(ctx, submission.SubmissionID, correlationID, "result_id", err)
	}

	finishedAt := uc.Clock.Now().UTC()
	result := entities.GradingResult{
		ResultID:              resultID,
		SubmissionID:          submission.SubmissionID,
		RubricID:              submission.RubricID,
		SectionGrades:         sectionGrades,
		TotalMarksAwarded:     total,
		TotalMaxMarks:         snapshot.TotalMarks,
		OverallFeedback:       response.OverallFeedback,
		GraderModel:           response.GraderModel,
		ProcessingTime:        finishedAt.Sub(startedAt),
		PlagiarismScore:       response.PlagiarismScore,
		PlagiarismRisk:        response.PlagiarismRisk,
		PlagiarismExplanation: response.PlagiarismExplanation,
		CreatedAt:             finishedAt,
		UpdatedAt:             finishedAt,
	}

	if err := uc.Results.SaveResultAndMarkGraded(ctx, result); err != nil {
		return entities.GradingResult{}, uc.failGrading(ctx, submission.SubmissionID, correlationID, "result_persist", err)
	}

	if err := appendGradingEvent(ctx, uc.Outbox, uc.IDGen, eventSubmissionGraded, submission.SubmissionID, finishedAt, gradedEventData{
		SubmissionID:      submission.SubmissionID,
		ResultID:          result.ResultID,
		RubricID:          result.RubricID,
		TotalMarksAwarded: result.TotalMarksAwarded,
		TotalMaxMarks:     result.TotalMaxMarks,
		GraderModel:       result.GraderModel,
	}); err != nil {
		logger.Error("failed to append graded event",
			"event", "grading_outbox_append_failed",
			"module", "assessment-core/grading-service",
			"layer", "application",
			"submission_id", submission.SubmissionID,
			"correlation_id", correlationID,
			"error", err.Error(),
		)
	}

	logger.Info("grading pass completed",
		"event", "grading_completed",
		"module", "assessment-core/grading-service",
		"layer", "application",
		"submission_id", submission.SubmissionID,
		"result_id", result.ResultID,
		"total_marks_awarded", result.TotalMarksAwarded,
		"total_max_marks", result.TotalMaxMarks,
		"processing_time_ms", result.ProcessingTime.Milliseconds(),
		"correlation_id", correlationID,
	)
	return result, nil
}

// failGrading reverts the claimed submission back to pending and collapses
// the concrete cause into a generic grading error for the caller.
func (uc TriggerGradeUseCase) failGrading(
	ctx context.Context,
	submissionID string,
	correlationID string,
	cause string,
	err error,
) error {
	logger := application.ResolveLogger(uc.Logger)
	logger.Error("grading pass failed",
		"event", "grading_failed",
		"module", "assessment-core/grading-service",
		"layer", "application",
		"submission_id", submissionID,
		"cause", cause,
		"correlation_id", correlationID,
		"error", err.Error(),
	)
	revertErr := uc.Submissions.TransitionStatus(
		ctx,
		submissionID,
		entities.SubmissionStatusGrading,
		entities.SubmissionStatusPending,
		uc.Clock.Now().UTC(),
	)
	if revertErr != nil {
		logger.Error("failed to revert submission to pending",
			"event", "grading_revert_failed",
			"module", "assessment-core/grading-service",
			"layer", "application",
			"submission_id", submissionID,
			"correlation_id", correlationID,
			"error", revertErr.Error(),
		)
	}
	return domainerrors.ErrGradingFailed
}

// reconcileSections matches grader output to the rubric by section name and
// clamps marks into [0, max]. Every rubric section must be scored exactly
// once under its exact name.
func reconcileSections(
	specs []ports.RubricSectionSpec,
	scores []ports.SectionScore,
) ([]entities.SectionGrade, error) {
	if len(scores) != len(specs) {
		return nil, domainerrors.ErrSectionMismatch
	}
	scored := make(map[string]ports.SectionScore, len(scores))
	for _, score := range scores {
		if _, exists := scored[score.SectionName]; exists {
			return nil, domainerrors.ErrSectionMismatch
		}
		scored[score.SectionName] = score
	}

	grades := make([]entities.SectionGrade, 0, len(specs))
	for _, spec := range specs {
		score, ok := scored[spec.Name]
		if !ok {
			return nil, domainerrors.ErrSectionMismatch
		}
		grades = append(grades, entities.SectionGrade{
			SectionName:           spec.Name,
			MarksAwarded:          entities.ClampMarks(score.MarksAwarded, spec.MaxMarks),
			MaxMarks:              spec.MaxMarks,
			Feedback:              score.Feedback,
			SimilarityScore:       score.SimilarityScore,
			SimilarityExplanation: score.SimilarityExplanation,
		})
	}
	return grades, nil
}

func truncateText(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
