package ports

import (
	"context"
	"time"

	"intelligrade/contexts/assessment-core/rubric-service/domain/entities"
	"intelligrade/internal/shared/events"
)

type RubricFilter struct {
	TeacherID  string
	ActiveOnly bool
}

type Repository interface {
	CreateRubric(ctx context.Context, rubric entities.Rubric) error
	UpdateRubric(ctx context.Context, rubric entities.Rubric) error
	GetRubric(ctx context.Context, rubricID string) (entities.Rubric, error)
	ListRubrics(ctx context.Context, filter RubricFilter) ([]entities.Rubric, error)
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope events.Envelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
