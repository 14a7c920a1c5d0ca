package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"intelligrade/contexts/assessment-core/grading-service/domain/entities"
	domainerrors "intelligrade/contexts/assessment-core/grading-service/domain/errors"
	"intelligrade/contexts/assessment-core/grading-service/ports"
	"intelligrade/internal/shared/events"

	"github.com/google/uuid"
)

var errOutboxRowNotFound = errors.New("outbox row not found")

type outboxRow struct {
	message   ports.OutboxMessage
	published bool
}

type fileRow struct {
	content     []byte
	contentType string
}

type Store struct {
	mu sync.RWMutex

	submissions        map[string]entities.Submission
	results            map[string]entities.GradingResult
	resultBySubmission map[string]string
	rubrics            map[string]ports.RubricSnapshot
	files              map[string]fileRow
	outbox             []outboxRow
}

func NewStore(rubrics []ports.RubricSnapshot) *Store {
	snapshots := make(map[string]ports.RubricSnapshot, len(rubrics))
	for _, item := range rubrics {
		snapshots[item.RubricID] = cloneSnapshot(item)
	}
	return &Store{
		submissions:        make(map[string]entities.Submission),
		results:            make(map[string]entities.GradingResult),
		resultBySubmission: make(map[string]string),
		rubrics:            snapshots,
		files:              make(map[string]fileRow),
	}
}

func (s *Store) CreateSubmission(_ context.Context, submission entities.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.submissions[submission.SubmissionID] = submission
	return nil
}

func (s *Store) GetSubmission(_ context.Context, submissionID string) (entities.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.submissions[strings.TrimSpace(submissionID)]
	if !exists {
		return entities.Submission{}, domainerrors.ErrSubmissionNotFound
	}
	return item, nil
}

func (s *Store) ListSubmissions(_ context.Context, filter ports.SubmissionFilter) ([]entities.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Submission, 0, len(s.submissions))
	for _, item := range s.submissions {
		if filter.StudentID != "" && item.StudentID != filter.StudentID {
			continue
		}
		if filter.RubricID != "" && item.RubricID != filter.RubricID {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) AssignRubric(_ context.Context, submissionID string, rubricID string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.submissions[submissionID]
	if !exists {
		return domainerrors.ErrSubmissionNotFound
	}
	item.RubricID = rubricID
	item.UpdatedAt = updatedAt
	s.submissions[submissionID] = item
	return nil
}

func (s *Store) TransitionStatus(
	_ context.Context,
	submissionID string,
	from, to entities.SubmissionStatus,
	updatedAt time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.transitionStatusLocked(submissionID, from, to, updatedAt)
}

func (s *Store) transitionStatusLocked(
	submissionID string,
	from, to entities.SubmissionStatus,
	updatedAt time.Time,
) error {
	item, exists := s.submissions[submissionID]
	if !exists {
		return domainerrors.ErrSubmissionNotFound
	}
	if item.Status != from {
		if from == entities.SubmissionStatusPending && item.Status == entities.SubmissionStatusGrading {
			return domainerrors.ErrGradingInProgress
		}
		return domainerrors.ErrInvalidStatusChange
	}
	item.Status = to
	item.UpdatedAt = updatedAt
	s.submissions[submissionID] = item
	return nil
}

func (s *Store) SaveResultAndMarkGraded(_ context.Context, result entities.GradingResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.resultBySubmission[result.SubmissionID]; exists {
		return domainerrors.ErrResultAlreadyExists
	}
	if err := s.transitionStatusLocked(
		result.SubmissionID,
		entities.SubmissionStatusGrading,
		entities.SubmissionStatusGraded,
		result.CreatedAt,
	); err != nil {
		return err
	}
	s.results[result.ResultID] = cloneResult(result)
	s.resultBySubmission[result.SubmissionID] = result.ResultID
	return nil
}

func (s *Store) ApplyOverride(_ context.Context, result entities.GradingResult, markApproved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.results[result.ResultID]; !exists {
		return domainerrors.ErrResultNotFound
	}
	if markApproved {
		if err := s.transitionStatusLocked(
			result.SubmissionID,
			entities.SubmissionStatusGraded,
			entities.SubmissionStatusApproved,
			result.UpdatedAt,
		); err != nil {
			return err
		}
	}
	s.results[result.ResultID] = cloneResult(result)
	return nil
}

func (s *Store) GetResult(_ context.Context, resultID string) (entities.GradingResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.results[strings.TrimSpace(resultID)]
	if !exists {
		return entities.GradingResult{}, domainerrors.ErrResultNotFound
	}
	return cloneResult(item), nil
}

func (s *Store) GetResultForSubmission(_ context.Context, submissionID string) (entities.GradingResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resultID, exists := s.resultBySubmission[strings.TrimSpace(submissionID)]
	if !exists {
		return entities.GradingResult{}, domainerrors.ErrResultNotFound
	}
	return cloneResult(s.results[resultID]), nil
}

func (s *Store) ListResults(_ context.Context, filter ports.ResultFilter) ([]entities.GradingResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.GradingResult, 0, len(s.results))
	for _, item := range s.results {
		if filter.RubricID != "" && item.RubricID != filter.RubricID {
			continue
		}
		if filter.StudentID != "" {
			submission, exists := s.submissions[item.SubmissionID]
			if !exists || submission.StudentID != filter.StudentID {
				continue
			}
		}
		items = append(items, cloneResult(item))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) GetRubricSnapshot(_ context.Context, rubricID string) (ports.RubricSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.rubrics[strings.TrimSpace(rubricID)]
	if !exists {
		return ports.RubricSnapshot{}, domainerrors.ErrRubricNotFound
	}
	return cloneSnapshot(item), nil
}

func (s *Store) UpsertRubricSnapshot(_ context.Context, snapshot ports.RubricSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rubrics[snapshot.RubricID] = cloneSnapshot(snapshot)
	return nil
}

func (s *Store) SaveFile(_ context.Context, path string, content []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.files[path] = fileRow{
		content:     append([]byte(nil), content...),
		contentType: contentType,
	}
	return nil
}

func (s *Store) LoadFile(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, exists := s.files[path]
	if !exists {
		return nil, domainerrors.ErrFileNotFound
	}
	return append([]byte(nil), row.content...), nil
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
	return errOutboxRowNotFound
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func cloneResult(item entities.GradingResult) entities.GradingResult {
	item.SectionGrades = cloneSections(item.SectionGrades)
	item.FinalSectionGrades = cloneSections(item.FinalSectionGrades)
	item.PlagiarismScore = clonePtr(item.PlagiarismScore)
	item.FinalTotalMarks = clonePtr(item.FinalTotalMarks)
	item.FinalOverallFeedback = clonePtr(item.FinalOverallFeedback)
	item.FinalApprovedAt = clonePtr(item.FinalApprovedAt)
	return item
}

func cloneSections(sections []entities.SectionGrade) []entities.SectionGrade {
	if sections == nil {
		return nil
	}
	cloned := make([]entities.SectionGrade, len(sections))
	for i, section := range sections {
		section.SimilarityScore = clonePtr(section.SimilarityScore)
		cloned[i] = section
	}
	return cloned
}

func cloneSnapshot(item ports.RubricSnapshot) ports.RubricSnapshot {
	item.Sections = append([]ports.RubricSectionSpec(nil), item.Sections...)
	return item
}

func clonePtr[T any](value *T) *T {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
