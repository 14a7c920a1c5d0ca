package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"intelligrade/contexts/assessment-core/rubric-service/application/commands"
	"intelligrade/contexts/assessment-core/rubric-service/application/queries"
	"intelligrade/contexts/assessment-core/rubric-service/domain/entities"
	httptransport "intelligrade/contexts/assessment-core/rubric-service/transport/http"
)

type Handler struct {
	CreateRubric commands.CreateRubricUseCase
	UpdateRubric commands.UpdateRubricUseCase
	Queries      queries.QueryUseCase
	Logger       *slog.Logger
}

func (h Handler) CreateRubricHandler(
	ctx context.Context,
	userID string,
	role string,
	req httptransport.CreateRubricRequest,
) (httptransport.CreateRubricResponse, error) {
	if err := httptransport.ValidatePayload(req); err != nil {
		return httptransport.CreateRubricResponse{}, err
	}
	item, err := h.CreateRubric.Execute(ctx, commands.CreateRubricCommand{
		Actor:       entities.Actor{UserID: userID, Role: entities.Role(role)},
		Title:       req.Title,
		Subject:     req.Subject,
		Description: req.Description,
		Sections:    mapSectionInputs(req.Sections),
	})
	if err != nil {
		return httptransport.CreateRubricResponse{}, err
	}
	return httptransport.CreateRubricResponse{Rubric: mapRubric(item)}, nil
}

func (h Handler) UpdateRubricHandler(
	ctx context.Context,
	userID string,
	role string,
	rubricID string,
	req httptransport.UpdateRubricRequest,
) (httptransport.GetRubricResponse, error) {
	if err := httptransport.ValidatePayload(req); err != nil {
		return httptransport.GetRubricResponse{}, err
	}
	item, err := h.UpdateRubric.Execute(ctx, commands.UpdateRubricCommand{
		Actor:       entities.Actor{UserID: userID, Role: entities.Role(role)},
		RubricID:    rubricID,
		Title:       req.Title,
		Subject:     req.Subject,
		Description: req.Description,
		Sections:    mapSectionInputs(req.Sections),
	})
	if err != nil {
		return httptransport.GetRubricResponse{}, err
	}
	return httptransport.GetRubricResponse{Rubric: mapRubric(item)}, nil
}

func (h Handler) SetRubricActiveHandler(
	ctx context.Context,
	userID string,
	role string,
	rubricID string,
	req httptransport.SetRubricActiveRequest,
) (httptransport.GetRubricResponse, error) {
	item, err := h.UpdateRubric.SetActive(ctx, commands.SetRubricActiveCommand{
		Actor:    entities.Actor{UserID: userID, Role: entities.Role(role)},
		RubricID: rubricID,
		Active:   req.Active,
	})
	if err != nil {
		return httptransport.GetRubricResponse{}, err
	}
	return httptransport.GetRubricResponse{Rubric: mapRubric(item)}, nil
}

func (h Handler) GetRubricHandler(ctx context.Context, rubricID string) (httptransport.GetRubricResponse, error) {
	item, err := h.Queries.GetRubric(ctx, rubricID)
	if err != nil {
		return httptransport.GetRubricResponse{}, err
	}
	return httptransport.GetRubricResponse{Rubric: mapRubric(item)}, nil
}

func (h Handler) ListRubricsHandler(
	ctx context.Context,
	teacherID string,
	activeOnly bool,
) (httptransport.ListRubricsResponse, error) {
	items, err := h.Queries.ListRubrics(ctx, queries.ListRubricsQuery{
		TeacherID:  teacherID,
		ActiveOnly: activeOnly,
	})
	if err != nil {
		return httptransport.ListRubricsResponse{}, err
	}
	result := make([]httptransport.RubricDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapRubric(item))
	}
	return httptransport.ListRubricsResponse{Items: result}, nil
}

func mapSectionInputs(payloads []httptransport.SectionPayload) []commands.SectionInput {
	inputs := make([]commands.SectionInput, 0, len(payloads))
	for _, payload := range payloads {
		inputs = append(inputs, commands.SectionInput{
			Name:                payload.Name,
			Description:         payload.Description,
			MaxMarks:            payload.MaxMarks,
			Keywords:            payload.Keywords,
			ConceptExpectations: payload.ConceptExpectations,
		})
	}
	return inputs
}

func mapRubric(item entities.Rubric) httptransport.RubricDTO {
	sections := make([]httptransport.SectionPayload, 0, len(item.Sections))
	for _, section := range item.Sections {
		sections = append(sections, httptransport.SectionPayload{
			Name:                section.Name,
			Description:         section.Description,
			MaxMarks:            section.MaxMarks,
			Keywords:            section.Keywords,
			ConceptExpectations: section.ConceptExpectations,
		})
	}
	return httptransport.RubricDTO{
		RubricID:    item.RubricID,
		TeacherID:   item.TeacherID,
		Title:       item.Title,
		Subject:     item.Subject,
		Description: item.Description,
		Sections:    sections,
		TotalMarks:  item.TotalMarks,
		IsActive:    item.IsActive,
		CreatedAt:   item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   item.UpdatedAt.Format(time.RFC3339),
	}
}
