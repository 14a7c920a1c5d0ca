package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"intelligrade/contexts/assessment-core/grading-service/application"
	"intelligrade/contexts/assessment-core/grading-service/domain/entities"
	domainerrors "intelligrade/contexts/assessment-core/grading-service/domain/errors"
	"intelligrade/contexts/assessment-core/grading-service/ports"
)

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
}

var allowedContentTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

type CreateSubmissionCommand struct {
	Actor       entities.Actor
	FileName    string
	ContentType string
	Content     []byte
	RubricID    string
}

type CreateSubmissionUseCase struct {
	Submissions    ports.SubmissionRepository
	Files          ports.FileStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	MaxUploadBytes int64
	Logger         *slog.Logger
}

func (uc CreateSubmissionUseCase) Execute(
	ctx context.Context,
	cmd CreateSubmissionCommand,
) (entities.Submission, error) {
	if !cmd.Actor.Valid() {
		return entities.Submission{}, domainerrors.ErrUnauthorizedActor
	}

	ext := strings.ToLower(path.Ext(cmd.FileName))
	if !allowedExtensions[ext] || !allowedContentTypes[strings.ToLower(strings.TrimSpace(cmd.ContentType))] {
		return entities.Submission{}, domainerrors.ErrUnsupportedFileType
	}
	if uc.MaxUploadBytes > 0 && int64(len(cmd.Content)) > uc.MaxUploadBytes {
		return entities.Submission{}, domainerrors.ErrFileTooLarge
	}

	now := uc.Clock.Now().UTC()
	submissionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Submission{}, err
	}
	filePath := fmt.Sprintf("%s/%s%s", cmd.Actor.UserID, submissionID, ext)

	submission := entities.Submission{
		SubmissionID: submissionID,
		StudentID:    cmd.Actor.UserID,
		RubricID:     strings.TrimSpace(cmd.RubricID),
		FileName:     cmd.FileName,
		FilePath:     filePath,
		FileSize:     int64(len(cmd.Content)),
		ContentType:  cmd.ContentType,
		Status:       entities.SubmissionStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if !submission.ValidateCreate() {
		return entities.Submission{}, domainerrors.ErrInvalidSubmissionInput
	}

	if err := uc.Files.SaveFile(ctx, filePath, cmd.Content, cmd.ContentType); err != nil {
		return entities.Submission{}, err
	}
	if err := uc.Submissions.CreateSubmission(ctx, submission); err != nil {
		return entities.Submission{}, err
	}

	if err := appendGradingEvent(ctx, uc.Outbox, uc.IDGen, eventSubmissionCreated, submissionID, now, submissionEventData{
		SubmissionID: submissionID,
		StudentID:    submission.StudentID,
		RubricID:     submission.RubricID,
		Status:       string(submission.Status),
	}); err != nil {
		return entities.Submission{}, err
	}

	application.ResolveLogger(uc.Logger).Info("submission created",
		"event", "submission_created",
		"module", "assessment-core/grading-service",
		"layer", "application",
		"submission_id", submissionID,
		"student_id", submission.StudentID,
		"file_size", submission.FileSize,
	)
	return submission, nil
}
