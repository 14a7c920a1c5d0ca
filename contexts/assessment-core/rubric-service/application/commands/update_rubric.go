package commands

import (
	"context"
	"log/slog"
	"strings"

	application "intelligrade/contexts/assessment-core/rubric-service/application"
	"intelligrade/contexts/assessment-core/rubric-service/domain/entities"
	domainerrors "intelligrade/contexts/assessment-core/rubric-service/domain/errors"
	"intelligrade/contexts/assessment-core/rubric-service/ports"
)

type UpdateRubricCommand struct {
	Actor       entities.Actor
	RubricID    string
	Title       string
	Subject     string
	Description string
	Sections    []SectionInput
}

type SetRubricActiveCommand struct {
	Actor    entities.Actor
	RubricID string
	Active   bool
}

type UpdateRubricUseCase struct {
	Repository ports.Repository
	Outbox     ports.OutboxWriter
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc UpdateRubricUseCase) Execute(ctx context.Context, cmd UpdateRubricCommand) (entities.Rubric, error) {
	logger := application.ResolveLogger(uc.Logger)
	existing, err := uc.authorize(ctx, cmd.Actor, cmd.RubricID)
	if err != nil {
		return entities.Rubric{}, err
	}

	now := uc.Clock.Now().UTC()
	updated := existing
	updated.Title = strings.TrimSpace(cmd.Title)
	updated.Subject = strings.TrimSpace(cmd.Subject)
	updated.Description = strings.TrimSpace(cmd.Description)
	updated.Sections = normalizeSections(cmd.Sections)
	updated.UpdatedAt = now
	if err := validateRubric(&updated); err != nil {
		return entities.Rubric{}, err
	}

	if err := uc.Repository.UpdateRubric(ctx, updated); err != nil {
		return entities.Rubric{}, err
	}
	if uc.Outbox != nil {
		if err := appendRubricEvent(ctx, uc.Outbox, uc.IDGen, "rubric.updated", updated, now); err != nil {
			return entities.Rubric{}, err
		}
	}

	logger.Info("rubric updated",
		"event", "rubric_updated",
		"module", "assessment-core/rubric-service",
		"layer", "application",
		"rubric_id", updated.RubricID,
		"total_marks", updated.TotalMarks,
	)
	return updated, nil
}

func (uc UpdateRubricUseCase) SetActive(ctx context.Context, cmd SetRubricActiveCommand) (entities.Rubric, error) {
	logger := application.ResolveLogger(uc.Logger)
	existing, err := uc.authorize(ctx, cmd.Actor, cmd.RubricID)
	if err != nil {
		return entities.Rubric{}, err
	}

	now := uc.Clock.Now().UTC()
	existing.IsActive = cmd.Active
	existing.UpdatedAt = now
	if err := uc.Repository.UpdateRubric(ctx, existing); err != nil {
		return entities.Rubric{}, err
	}
	if uc.Outbox != nil {
		if err := appendRubricEvent(ctx, uc.Outbox, uc.IDGen, "rubric.updated", existing, now); err != nil {
			return entities.Rubric{}, err
		}
	}

	logger.Info("rubric active flag changed",
		"event", "rubric_active_changed",
		"module", "assessment-core/rubric-service",
		"layer", "application",
		"rubric_id", existing.RubricID,
		"is_active", existing.IsActive,
	)
	return existing, nil
}

func (uc UpdateRubricUseCase) authorize(ctx context.Context, actor entities.Actor, rubricID string) (entities.Rubric, error) {
	if !actor.Valid() {
		return entities.Rubric{}, domainerrors.ErrUnauthorizedActor
	}
	if !actor.CanManageRubrics() {
		return entities.Rubric{}, domainerrors.ErrActorNotPermitted
	}
	existing, err := uc.Repository.GetRubric(ctx, strings.TrimSpace(rubricID))
	if err != nil {
		return entities.Rubric{}, err
	}
	// Teachers own their templates; admins may edit any.
	if actor.Role == entities.RoleTeacher && existing.TeacherID != strings.TrimSpace(actor.UserID) {
		return entities.Rubric{}, domainerrors.ErrActorNotPermitted
	}
	return existing, nil
}
