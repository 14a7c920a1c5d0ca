package commands

import (
	"context"
	"encoding/json"
	"time"

	"intelligrade/contexts/assessment-core/grading-service/ports"
	"intelligrade/internal/shared/events"
)

const (
	eventSubmissionCreated = "submission.created"
	eventSubmissionGraded  = "submission.graded"
	eventGradeApproved     = "grade.approved"
)

func newGradingEnvelope(
	eventID string,
	eventType string,
	partitionKey string,
	occurredAt time.Time,
	data any,
) (events.Envelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return events.Envelope{}, err
	}
	return events.Envelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    occurredAt.UTC(),
		SourceService: "grading-service",
		TraceID:       eventID,
		SchemaVersion: 1,
		PartitionKey:  partitionKey,
		Data:          payload,
	}, nil
}

func appendGradingEvent(
	ctx context.Context,
	outbox ports.OutboxWriter,
	idGen ports.IDGenerator,
	eventType string,
	partitionKey string,
	occurredAt time.Time,
	data any,
) error {
	if outbox == nil {
		return nil
	}
	eventID, err := idGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newGradingEnvelope(eventID, eventType, partitionKey, occurredAt, data)
	if err != nil {
		return err
	}
	return outbox.AppendOutbox(ctx, envelope)
}

type submissionEventData struct {
	SubmissionID string `json:"submission_id"`
	StudentID    string `json:"student_id"`
	RubricID     string `json:"rubric_id,omitempty"`
	Status       string `json:"status"`
}

type gradedEventData struct {
	SubmissionID      string  `json:"submission_id"`
	ResultID          string  `json:"result_id"`
	RubricID          string  `json:"rubric_id"`
	TotalMarksAwarded float64 `json:"total_marks_awarded"`
	TotalMaxMarks     int     `json:"total_max_marks"`
	GraderModel       string  `json:"grader_model"`
}

type approvedEventData struct {
	SubmissionID    string  `json:"submission_id"`
	ResultID        string  `json:"result_id"`
	FinalTotalMarks float64 `json:"final_total_marks"`
	ApprovedBy      string  `json:"approved_by"`
}
