package queries

import (
	"context"
	"log/slog"
	"math"
	"time"

	"intelligrade/contexts/assessment-core/grading-service/domain/entities"
	domainerrors "intelligrade/contexts/assessment-core/grading-service/domain/errors"
	"intelligrade/contexts/assessment-core/grading-service/ports"
)

// Score bands partition displayed percentages for the class overview.
const (
	BandBelow50 = "0-49"
	Band50To69  = "50-69"
	Band70To84  = "70-84"
	Band85To100 = "85-100"
)

type ClassAnalyticsQuery struct {
	Actor    entities.Actor
	RubricID string
}

type ResultRow struct {
	SubmissionID    string
	StudentID       string
	RubricID        string
	GradedAt        time.Time
	DisplayedTotal  float64
	TotalMaxMarks   int
	Percentage      int
	Band            string
	IsFinalApproved bool
	PlagiarismScore *float64
}

type ClassAnalytics struct {
	TotalResults           int
	AveragePercentage      int
	AveragePlagiarismScore *int
	Bands                  map[string]int
	Rows                   []ResultRow
}

type AnalyticsUseCase struct {
	Submissions ports.SubmissionRepository
	Results     ports.ResultRepository
	Logger      *slog.Logger
}

// ClassAnalytics aggregates displayed scores across graded submissions.
// Each row uses the display selection rule, so an approved override replaces
// the AI score everywhere downstream. Averages skip rows that cannot
// contribute: a zero max-marks result for the score average, a null
// plagiarism score for the plagiarism average.
func (uc AnalyticsUseCase) ClassAnalytics(
	ctx context.Context,
	query ClassAnalyticsQuery,
) (ClassAnalytics, error) {
	if !query.Actor.Valid() {
		return ClassAnalytics{}, domainerrors.ErrUnauthorizedActor
	}
	if !query.Actor.CanReview() {
		return ClassAnalytics{}, domainerrors.ErrActorNotPermitted
	}

	results, err := uc.Results.ListResults(ctx, ports.ResultFilter{RubricID: query.RubricID})
	if err != nil {
		return ClassAnalytics{}, err
	}

	analytics := ClassAnalytics{
		Bands: map[string]int{
			BandBelow50: 0,
			Band50To69:  0,
			Band70To84:  0,
			Band85To100: 0,
		},
		Rows: make([]ResultRow, 0, len(results)),
	}

	percentageSum := 0
	percentageCount := 0
	plagiarismSum := 0.0
	plagiarismCount := 0

	for _, result := range results {
		submission, err := uc.Submissions.GetSubmission(ctx, result.SubmissionID)
		if err != nil {
			return ClassAnalytics{}, err
		}

		percentage := Percentage(result.DisplayedTotal(), result.TotalMaxMarks)
		row := ResultRow{
			SubmissionID:    result.SubmissionID,
			StudentID:       submission.StudentID,
			RubricID:        result.RubricID,
			GradedAt:        result.CreatedAt,
			DisplayedTotal:  result.DisplayedTotal(),
			TotalMaxMarks:   result.TotalMaxMarks,
			Percentage:      percentage,
			Band:            Band(percentage),
			IsFinalApproved: result.IsFinalApproved,
			PlagiarismScore: result.PlagiarismScore,
		}
		analytics.Rows = append(analytics.Rows, row)
		analytics.Bands[row.Band]++

		if result.TotalMaxMarks > 0 {
			percentageSum += percentage
			percentageCount++
		}
		if result.PlagiarismScore != nil {
			plagiarismSum += *result.PlagiarismScore
			plagiarismCount++
		}
	}

	analytics.TotalResults = len(results)
	if percentageCount > 0 {
		analytics.AveragePercentage = int(math.Round(float64(percentageSum) / float64(percentageCount)))
	}
	if plagiarismCount > 0 {
		average := int(math.Round(plagiarismSum / float64(plagiarismCount)))
		analytics.AveragePlagiarismScore = &average
	}

	return analytics, nil
}

// Percentage converts a displayed total into a rounded percent of the
// rubric maximum. A zero maximum yields zero rather than dividing.
func Percentage(displayedTotal float64, totalMaxMarks int) int {
	if totalMaxMarks <= 0 {
		return 0
	}
	return int(math.Round(100 * displayedTotal / float64(totalMaxMarks)))
}

func Band(percentage int) string {
	switch {
	case percentage < 50:
		return BandBelow50
	case percentage < 70:
		return Band50To69
	case percentage < 85:
		return Band70To84
	default:
		return Band85To100
	}
}
