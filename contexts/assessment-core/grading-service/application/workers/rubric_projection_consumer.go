package workers

import (
	"context"
	"encoding/json"
	"log/slog"

	application "intelligrade/contexts/assessment-core/grading-service/application"
	"intelligrade/contexts/assessment-core/grading-service/ports"
	"intelligrade/internal/shared/events"
)

// RubricProjectionConsumer keeps the local rubric snapshot in sync with the
// rubric-service by consuming its lifecycle events. Grading never crosses
// the context boundary at request time; it reads this projection instead.
type RubricProjectionConsumer struct {
	Subscriber    ports.EventSubscriber
	Projection    ports.RubricProjectionWriter
	ConsumerGroup string
	Logger        *slog.Logger
}

type rubricEventDoc struct {
	RubricID   string `json:"rubric_id"`
	TeacherID  string `json:"teacher_id"`
	Title      string `json:"title"`
	Subject    string `json:"subject"`
	TotalMarks int    `json:"total_marks"`
	IsActive   bool   `json:"is_active"`
	Sections   []struct {
		Name                string `json:"name"`
		Description         string `json:"description"`
		MaxMarks            int    `json:"max_marks"`
		Keywords            string `json:"keywords"`
		ConceptExpectations string `json:"concept_expectations"`
	} `json:"sections"`
}

func (c RubricProjectionConsumer) Start(ctx context.Context) error {
	group := c.ConsumerGroup
	if group == "" {
		group = "grading-service.rubric-projection"
	}
	for _, topic := range []string{"rubric.created", "rubric.updated"} {
		if err := c.Subscriber.Subscribe(ctx, topic, group, c.handle); err != nil {
			return err
		}
	}
	return nil
}

func (c RubricProjectionConsumer) handle(ctx context.Context, event events.Envelope) error {
	logger := application.ResolveLogger(c.Logger)

	var doc rubricEventDoc
	if err := json.Unmarshal(event.Data, &doc); err != nil {
		logger.Error("rubric projection decode failed",
			"event", "rubric_projection_decode_failed",
			"module", "assessment-core/grading-service",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}

	snapshot := ports.RubricSnapshot{
		RubricID:   doc.RubricID,
		Title:      doc.Title,
		Subject:    doc.Subject,
		TotalMarks: doc.TotalMarks,
		IsActive:   doc.IsActive,
		Sections:   make([]ports.RubricSectionSpec, 0, len(doc.Sections)),
	}
	for _, section := range doc.Sections {
		snapshot.Sections = append(snapshot.Sections, ports.RubricSectionSpec{
			Name:                section.Name,
			Description:         section.Description,
			MaxMarks:            section.MaxMarks,
			Keywords:            section.Keywords,
			ConceptExpectations: section.ConceptExpectations,
		})
	}

	if err := c.Projection.UpsertRubricSnapshot(ctx, snapshot); err != nil {
		logger.Error("rubric projection upsert failed",
			"event", "rubric_projection_upsert_failed",
			"module", "assessment-core/grading-service",
			"layer", "worker",
			"rubric_id", snapshot.RubricID,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("rubric projection updated",
		"event", "rubric_projection_updated",
		"module", "assessment-core/grading-service",
		"layer", "worker",
		"rubric_id", snapshot.RubricID,
		"event_type", event.EventType,
	)
	return nil
}
