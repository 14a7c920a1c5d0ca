package queries

import (
	"context"
	"log/slog"
	"strings"

	"intelligrade/contexts/assessment-core/rubric-service/domain/entities"
	"intelligrade/contexts/assessment-core/rubric-service/ports"
)

type ListRubricsQuery struct {
	TeacherID  string
	ActiveOnly bool
}

type QueryUseCase struct {
	Repository ports.Repository
	Logger     *slog.Logger
}

func (uc QueryUseCase) GetRubric(ctx context.Context, rubricID string) (entities.Rubric, error) {
	return uc.Repository.GetRubric(ctx, strings.TrimSpace(rubricID))
}

func (uc QueryUseCase) ListRubrics(ctx context.Context, query ListRubricsQuery) ([]entities.Rubric, error) {
	return uc.Repository.ListRubrics(ctx, ports.RubricFilter{
		TeacherID:  strings.TrimSpace(query.TeacherID),
		ActiveOnly: query.ActiveOnly,
	})
}
