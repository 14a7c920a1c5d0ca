package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"intelligrade/contexts/assessment-core/rubric-service/domain/entities"
	domainerrors "intelligrade/contexts/assessment-core/rubric-service/domain/errors"
	"intelligrade/contexts/assessment-core/rubric-service/ports"
	"intelligrade/internal/shared/events"

	"github.com/google/uuid"
)

type outboxRow struct {
	message   ports.OutboxMessage
	published bool
}

type Store struct {
	mu sync.RWMutex

	rubrics map[string]entities.Rubric
	outbox  []outboxRow
}

func NewStore(seed []entities.Rubric) *Store {
	rubrics := make(map[string]entities.Rubric, len(seed))
	for _, item := range seed {
		rubrics[item.RubricID] = item
	}
	return &Store{rubrics: rubrics}
}

func (s *Store) CreateRubric(_ context.Context, rubric entities.Rubric) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rubrics[rubric.RubricID] = cloneRubric(rubric)
	return nil
}

func (s *Store) UpdateRubric(_ context.Context, rubric entities.Rubric) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rubrics[rubric.RubricID]; !exists {
		return domainerrors.ErrRubricNotFound
	}
	s.rubrics[rubric.RubricID] = cloneRubric(rubric)
	return nil
}

func (s *Store) GetRubric(_ context.Context, rubricID string) (entities.Rubric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.rubrics[strings.TrimSpace(rubricID)]
	if !exists {
		return entities.Rubric{}, domainerrors.ErrRubricNotFound
	}
	return cloneRubric(item), nil
}

func (s *Store) ListRubrics(_ context.Context, filter ports.RubricFilter) ([]entities.Rubric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Rubric, 0, len(s.rubrics))
	for _, item := range s.rubrics {
		if filter.TeacherID != "" && item.TeacherID != filter.TeacherID {
			continue
		}
		if filter.ActiveOnly && !item.IsActive {
			continue
		}
		items = append(items, cloneRubric(item))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope events.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.outbox = append(s.outbox, outboxRow{
		message: ports.OutboxMessage{
			OutboxID:     envelope.EventID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt,
		},
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.OutboxMessage, 0, limit)
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		if s.outbox[i].message.OutboxID == outboxID {
			s.outbox[i].published = true
			return nil
		}
	}
	return domainerrors.ErrRubricNotFound
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func cloneRubric(item entities.Rubric) entities.Rubric {
	item.Sections = append([]entities.RubricSection(nil), item.Sections...)
	return item
}
