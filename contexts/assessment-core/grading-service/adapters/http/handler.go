package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"intelligrade/contexts/assessment-core/grading-service/application/commands"
	"intelligrade/contexts/assessment-core/grading-service/application/queries"
	"intelligrade/contexts/assessment-core/grading-service/domain/entities"
	httptransport "intelligrade/contexts/assessment-core/grading-service/transport/http"
)

type Handler struct {
	CreateSubmission commands.CreateSubmissionUseCase
	AssignRubric     commands.AssignRubricUseCase
	TriggerGrade     commands.TriggerGradeUseCase
	SaveOverride     commands.SaveOverrideUseCase
	Queries          queries.QueryUseCase
	Analytics        queries.AnalyticsUseCase
	Logger           *slog.Logger
}

func (h Handler) CreateSubmissionHandler(
	ctx context.Context,
	userID string,
	role string,
	req httptransport.CreateSubmissionRequest,
) (httptransport.CreateSubmissionResponse, error) {
	if err := httptransport.ValidatePayload(req); err != nil {
		return httptransport.CreateSubmissionResponse{}, err
	}
	item, err := h.CreateSubmission.Execute(ctx, commands.CreateSubmissionCommand{
		Actor:       entities.Actor{UserID: userID, Role: entities.Role(role)},
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Content:     req.Content,
		RubricID:    req.RubricID,
	})
	if err != nil {
		return httptransport.CreateSubmissionResponse{}, err
	}
	return httptransport.CreateSubmissionResponse{Submission: mapSubmission(item)}, nil
}

func (h Handler) AssignRubricHandler(
	ctx context.Context,
	userID string,
	role string,
	submissionID string,
	req httptransport.AssignRubricRequest,
) (httptransport.CreateSubmissionResponse, error) {
	if err := httptransport.ValidatePayload(req); err != nil {
		return httptransport.CreateSubmissionResponse{}, err
	}
	item, err := h.AssignRubric.Execute(ctx, commands.AssignRubricCommand{
		Actor:        entities.Actor{UserID: userID, Role: entities.Role(role)},
		SubmissionID: submissionID,
		RubricID:     req.RubricID,
	})
	if err != nil {
		return httptransport.CreateSubmissionResponse{}, err
	}
	return httptransport.CreateSubmissionResponse{Submission: mapSubmission(item)}, nil
}

func (h Handler) TriggerGradeHandler(
	ctx context.Context,
	userID string,
	role string,
	submissionID string,
) (httptransport.TriggerGradeResponse, error) {
	result, err := h.TriggerGrade.Execute(ctx, commands.TriggerGradeCommand{
		Actor:        entities.Actor{UserID: userID, Role: entities.Role(role)},
		SubmissionID: submissionID,
	})
	if err != nil {
		return httptransport.TriggerGradeResponse{}, err
	}
	return httptransport.TriggerGradeResponse{Result: mapResult(result)}, nil
}

func (h Handler) SaveOverrideHandler(
	ctx context.Context,
	userID string,
	role string,
	resultID string,
	req httptransport.SaveOverrideRequest,
) (httptransport.SaveOverrideResponse, error) {
	if err := httptransport.ValidatePayload(req); err != nil {
		return httptransport.SaveOverrideResponse{}, err
	}
	sections := make([]commands.OverrideSection, 0, len(req.Sections))
	for _, section := range req.Sections {
		sections = append(sections, commands.OverrideSection{
			SectionName:  section.SectionName,
			MarksAwarded: section.MarksAwarded,
			Feedback:     section.Feedback,
		})
	}
	result, err := h.SaveOverride.Execute(ctx, commands.SaveOverrideCommand{
		Actor:           entities.Actor{UserID: userID, Role: entities.Role(role)},
		ResultID:        resultID,
		Sections:        sections,
		OverallFeedback: req.OverallFeedback,
		Approve:         req.Approve,
	})
	if err != nil {
		return httptransport.SaveOverrideResponse{}, err
	}
	return httptransport.SaveOverrideResponse{Result: mapResult(result)}, nil
}

func (h Handler) GetSubmissionHandler(
	ctx context.Context,
	userID string,
	role string,
	submissionID string,
) (httptransport.GetSubmissionResponse, error) {
	view, err := h.Queries.GetSubmission(ctx, entities.Actor{UserID: userID, Role: entities.Role(role)}, submissionID)
	if err != nil {
		return httptransport.GetSubmissionResponse{}, err
	}
	response := httptransport.GetSubmissionResponse{Submission: mapSubmission(view.Submission)}
	if view.Result != nil {
		result := mapResult(*view.Result)
		response.Result = &result
	}
	return response, nil
}

func (h Handler) ListSubmissionsHandler(
	ctx context.Context,
	userID string,
	role string,
	studentID string,
	rubricID string,
	status string,
) (httptransport.ListSubmissionsResponse, error) {
	items, err := h.Queries.ListSubmissions(ctx, queries.ListSubmissionsQuery{
		Actor:     entities.Actor{UserID: userID, Role: entities.Role(role)},
		StudentID: studentID,
		RubricID:  rubricID,
		Status:    entities.SubmissionStatus(status),
	})
	if err != nil {
		return httptransport.ListSubmissionsResponse{}, err
	}
	result := make([]httptransport.SubmissionDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapSubmission(item))
	}
	return httptransport.ListSubmissionsResponse{Items: result}, nil
}

func (h Handler) GetResultHandler(
	ctx context.Context,
	userID string,
	role string,
	resultID string,
) (httptransport.SaveOverrideResponse, error) {
	result, err := h.Queries.GetResult(ctx, entities.Actor{UserID: userID, Role: entities.Role(role)}, resultID)
	if err != nil {
		return httptransport.SaveOverrideResponse{}, err
	}
	return httptransport.SaveOverrideResponse{Result: mapResult(result)}, nil
}

func (h Handler) DashboardSummaryHandler(
	ctx context.Context,
	userID string,
	role string,
) (httptransport.DashboardSummaryResponse, error) {
	summary, err := h.Queries.DashboardSummary(ctx, entities.Actor{UserID: userID, Role: entities.Role(role)})
	if err != nil {
		return httptransport.DashboardSummaryResponse{}, err
	}
	counts := make(map[string]int, len(summary.StatusCounts))
	for status, count := range summary.StatusCounts {
		counts[string(status)] = count
	}
	return httptransport.DashboardSummaryResponse{
		TotalSubmissions: summary.TotalSubmissions,
		StatusCounts:     counts,
	}, nil
}

func (h Handler) ClassAnalyticsHandler(
	ctx context.Context,
	userID string,
	role string,
	rubricID string,
) (httptransport.ClassAnalyticsResponse, error) {
	analytics, err := h.Analytics.ClassAnalytics(ctx, queries.ClassAnalyticsQuery{
		Actor:    entities.Actor{UserID: userID, Role: entities.Role(role)},
		RubricID: rubricID,
	})
	if err != nil {
		return httptransport.ClassAnalyticsResponse{}, err
	}
	rows := make([]httptransport.ResultRowDTO, 0, len(analytics.Rows))
	for _, row := range analytics.Rows {
		rows = append(rows, httptransport.ResultRowDTO{
			SubmissionID:    row.SubmissionID,
			StudentID:       row.StudentID,
			RubricID:        row.RubricID,
			GradedAt:        row.GradedAt.Format(time.RFC3339),
			DisplayedTotal:  row.DisplayedTotal,
			TotalMaxMarks:   row.TotalMaxMarks,
			Percentage:      row.Percentage,
			Band:            row.Band,
			IsFinalApproved: row.IsFinalApproved,
			PlagiarismScore: row.PlagiarismScore,
		})
	}
	return httptransport.ClassAnalyticsResponse{
		TotalResults:           analytics.TotalResults,
		AveragePercentage:      analytics.AveragePercentage,
		AveragePlagiarismScore: analytics.AveragePlagiarismScore,
		Bands:                  analytics.Bands,
		Rows:                   rows,
	}, nil
}

func mapSubmission(item entities.Submission) httptransport.SubmissionDTO {
	return httptransport.SubmissionDTO{
		SubmissionID: item.SubmissionID,
		StudentID:    item.StudentID,
		RubricID:     item.RubricID,
		FileName:     item.FileName,
		FilePath:     item.FilePath,
		FileSize:     item.FileSize,
		ContentType:  item.ContentType,
		Status:       string(item.Status),
		CreatedAt:    item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    item.UpdatedAt.Format(time.RFC3339),
	}
}

func mapSectionGrades(sections []entities.SectionGrade) []httptransport.SectionGradeDTO {
	if sections == nil {
		return nil
	}
	result := make([]httptransport.SectionGradeDTO, 0, len(sections))
	for _, section := range sections {
		result = append(result, httptransport.SectionGradeDTO{
			SectionName:           section.SectionName,
			MarksAwarded:          section.MarksAwarded,
			MaxMarks:              section.MaxMarks,
			Feedback:              section.Feedback,
			SimilarityScore:       section.SimilarityScore,
			SimilarityExplanation: section.SimilarityExplanation,
		})
	}
	return result
}

func mapResult(item entities.GradingResult) httptransport.GradingResultDTO {
	dto := httptransport.GradingResultDTO{
		ResultID:              item.ResultID,
		SubmissionID:          item.SubmissionID,
		RubricID:              item.RubricID,
		SectionGrades:         mapSectionGrades(item.SectionGrades),
		TotalMarksAwarded:     item.TotalMarksAwarded,
		TotalMaxMarks:         item.TotalMaxMarks,
		OverallFeedback:       item.OverallFeedback,
		GraderModel:           item.GraderModel,
		ProcessingTimeMs:      item.ProcessingTime.Milliseconds(),
		PlagiarismScore:       item.PlagiarismScore,
		PlagiarismRisk:        item.PlagiarismRisk,
		PlagiarismExplanation: item.PlagiarismExplanation,
		FinalSectionGrades:    mapSectionGrades(item.FinalSectionGrades),
		FinalTotalMarks:       item.FinalTotalMarks,
		FinalOverallFeedback:  item.FinalOverallFeedback,
		IsFinalApproved:       item.IsFinalApproved,
		FinalApprovedBy:       item.FinalApprovedBy,
		DisplayedTotal:        item.DisplayedTotal(),
		DisplayedPercent:      queries.Percentage(item.DisplayedTotal(), item.TotalMaxMarks),
		CreatedAt:             item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             item.UpdatedAt.Format(time.RFC3339),
	}
	if item.FinalApprovedAt != nil {
		approvedAt := item.FinalApprovedAt.Format(time.RFC3339)
		dto.FinalApprovedAt = &approvedAt
	}
	return dto
}
