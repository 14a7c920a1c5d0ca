package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "intelligrade/contexts/assessment-core/rubric-service/application"
	"intelligrade/contexts/assessment-core/rubric-service/domain/entities"
	domainerrors "intelligrade/contexts/assessment-core/rubric-service/domain/errors"
	"intelligrade/contexts/assessment-core/rubric-service/ports"
)

type SectionInput struct {
	Name                string
	Description         string
	MaxMarks            int
	Keywords            string
	ConceptExpectations string
}

type CreateRubricCommand struct {
	Actor       entities.Actor
	Title       string
	Subject     string
	Description string
	Sections    []SectionInput
}

type CreateRubricUseCase struct {
	Repository ports.Repository
	Outbox     ports.OutboxWriter
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc CreateRubricUseCase) Execute(ctx context.Context, cmd CreateRubricCommand) (entities.Rubric, error) {
	logger := application.ResolveLogger(uc.Logger)
	if !cmd.Actor.Valid() {
		return entities.Rubric{}, domainerrors.ErrUnauthorizedActor
	}
	if !cmd.Actor.CanManageRubrics() {
		return entities.Rubric{}, domainerrors.ErrActorNotPermitted
	}

	rubricID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Rubric{}, err
	}
	now := uc.Clock.Now().UTC()
	rubric := entities.Rubric{
		RubricID:    rubricID,
		TeacherID:   strings.TrimSpace(cmd.Actor.UserID),
		Title:       strings.TrimSpace(cmd.Title),
		Subject:     strings.TrimSpace(cmd.Subject),
		Description: strings.TrimSpace(cmd.Description),
		Sections:    normalizeSections(cmd.Sections),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validateRubric(&rubric); err != nil {
		return entities.Rubric{}, err
	}

	if err := uc.Repository.CreateRubric(ctx, rubric); err != nil {
		return entities.Rubric{}, err
	}

	if uc.Outbox != nil {
		if err := appendRubricEvent(ctx, uc.Outbox, uc.IDGen, "rubric.created", rubric, now); err != nil {
			return entities.Rubric{}, err
		}
	}

	logger.Info("rubric created",
		"event", "rubric_created",
		"module", "assessment-core/rubric-service",
		"layer", "application",
		"rubric_id", rubric.RubricID,
		"teacher_id", rubric.TeacherID,
		"total_marks", rubric.TotalMarks,
	)
	return rubric, nil
}

func normalizeSections(inputs []SectionInput) []entities.RubricSection {
	sections := make([]entities.RubricSection, 0, len(inputs))
	for _, input := range inputs {
		sections = append(sections, entities.RubricSection{
			Name:                strings.TrimSpace(input.Name),
			Description:         strings.TrimSpace(input.Description),
			MaxMarks:            input.MaxMarks,
			Keywords:            strings.TrimSpace(input.Keywords),
			ConceptExpectations: strings.TrimSpace(input.ConceptExpectations),
		})
	}
	return sections
}

// validateRubric enforces the template invariants and recomputes TotalMarks
// so the stored value always equals the section sum.
func validateRubric(rubric *entities.Rubric) error {
	if rubric.Title == "" || rubric.Subject == "" {
		return domainerrors.ErrInvalidRubricInput
	}
	if len(rubric.Sections) == 0 {
		return domainerrors.ErrEmptySections
	}
	seen := make(map[string]struct{}, len(rubric.Sections))
	for _, section := range rubric.Sections {
		if section.Name == "" || section.Description == "" {
			return domainerrors.ErrInvalidRubricInput
		}
		if section.MaxMarks < 1 {
			return domainerrors.ErrInvalidRubricInput
		}
		if _, dup := seen[section.Name]; dup {
			return domainerrors.ErrDuplicateSectionName
		}
		seen[section.Name] = struct{}{}
	}
	rubric.TotalMarks = rubric.SectionTotal()
	if rubric.TotalMarks <= 0 {
		return domainerrors.ErrZeroTotalMarks
	}
	return nil
}

func appendRubricEvent(
	ctx context.Context,
	outbox ports.OutboxWriter,
	idGen ports.IDGenerator,
	eventType string,
	rubric entities.Rubric,
	occurredAt time.Time,
) error {
	eventID, err := idGen.NewID(ctx)
	if err != nil {
		return err
	}
	sections := make([]map[string]any, 0, len(rubric.Sections))
	for _, section := range rubric.Sections {
		sections = append(sections, map[string]any{
			"name":                 section.Name,
			"description":          section.Description,
			"max_marks":            section.MaxMarks,
			"keywords":             section.Keywords,
			"concept_expectations": section.ConceptExpectations,
		})
	}
	envelope, err := newRubricEnvelope(eventID, eventType, rubric.RubricID, occurredAt,
		rubricEventData(rubric.RubricID, rubric.TeacherID, rubric.Title, rubric.Subject, rubric.TotalMarks, rubric.IsActive, sections))
	if err != nil {
		return err
	}
	return outbox.AppendOutbox(ctx, envelope)
}
