package commands

import (
	"encoding/json"
	"time"

	"intelligrade/internal/shared/events"
)

func newRubricEnvelope(
	eventID string,
	eventType string,
	rubricID string,
	occurredAt time.Time,
	data map[string]any,
) (events.Envelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return events.Envelope{}, err
	}
	return events.Envelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    occurredAt.UTC(),
		SourceService: "rubric-service",
		TraceID:       eventID,
		SchemaVersion: 1,
		PartitionKey:  rubricID,
		Data:          payload,
	}, nil
}

func rubricEventData(rubricID string, teacherID string, title string, subject string, totalMarks int, isActive bool, sections []map[string]any) map[string]any {
	return map[string]any{
		"rubric_id":   rubricID,
		"teacher_id":  teacherID,
		"title":       title,
		"subject":     subject,
		"total_marks": totalMarks,
		"is_active":   isActive,
		"sections":    sections,
	}
}
