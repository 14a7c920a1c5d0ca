package ports

import (
	"context"
	"time"

	"intelligrade/contexts/assessment-core/grading-service/domain/entities"
	"intelligrade/internal/shared/events"
)

type SubmissionFilter struct {
	StudentID string
	RubricID  string
	Status    entities.SubmissionStatus
}

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, submission entities.Submission) error
	GetSubmission(ctx context.Context, submissionID string) (entities.Submission, error)
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]entities.Submission, error)
	AssignRubric(ctx context.Context, submissionID string, rubricID string, updatedAt time.Time) error
	// TransitionStatus compare-and-swaps the status. It fails with
	// ErrGradingInProgress when a pending submission is already claimed by
	// another pass, and ErrInvalidStatusChange on any other mismatch.
	TransitionStatus(ctx context.Context, submissionID string, from, to entities.SubmissionStatus, updatedAt time.Time) error
}

type ResultFilter struct {
	RubricID  string
	StudentID string
}

type ResultRepository interface {
	// SaveResultAndMarkGraded persists a fresh grading result and flips the
	// owning submission grading -> graded in one atomic step.
	SaveResultAndMarkGraded(ctx context.Context, result entities.GradingResult) error
	// ApplyOverride persists the Final* fields and, when markApproved is set,
	// advances the submission graded -> approved in the same step.
	ApplyOverride(ctx context.Context, result entities.GradingResult, markApproved bool) error
	GetResult(ctx context.Context, resultID string) (entities.GradingResult, error)
	GetResultForSubmission(ctx context.Context, submissionID string) (entities.GradingResult, error)
	ListResults(ctx context.Context, filter ResultFilter) ([]entities.GradingResult, error)
}

// RubricSectionSpec is the grading-side view of one rubric section.
type RubricSectionSpec struct {
	Name                string
	Description         string
	MaxMarks            int
	Keywords            string
	ConceptExpectations string
}

// RubricSnapshot is the locally projected rubric state used to drive grading.
type RubricSnapshot struct {
	RubricID   string
	Title      string
	Subject    string
	TotalMarks int
	IsActive   bool
	Sections   []RubricSectionSpec
}

type RubricSource interface {
	GetRubricSnapshot(ctx context.Context, rubricID string) (RubricSnapshot, error)
}

type RubricProjectionWriter interface {
	UpsertRubricSnapshot(ctx context.Context, snapshot RubricSnapshot) error
}

type FileStore interface {
	SaveFile(ctx context.Context, path string, content []byte, contentType string) error
	LoadFile(ctx context.Context, path string) ([]byte, error)
}

type TextExtractor interface {
	ExtractText(ctx context.Context, content []byte, contentType string) (string, error)
}

// SectionScore is one graded section as returned by the grader.
type SectionScore struct {
	SectionName           string
	MarksAwarded          float64
	Feedback              string
	SimilarityScore       *float64
	SimilarityExplanation string
}

type GradeRequest struct {
	RubricTitle    string
	RubricSubject  string
	Sections       []RubricSectionSpec
	SubmissionText string
}

type GradeResponse struct {
	SectionScores         []SectionScore
	OverallFeedback       string
	GraderModel           string
	PlagiarismScore       *float64
	PlagiarismRisk        string
	PlagiarismExplanation string
}

// Grader scores a submission against a rubric. Implementations must honor
// context cancellation; the orchestrator runs them under a deadline.
type Grader interface {
	Grade(ctx context.Context, request GradeRequest) (GradeResponse, error)
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
	Publish(ctx context.Context, topic string, envelope events.Envelope) error
}

type EventHandler = func(ctx context.Context, envelope events.Envelope) error

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler EventHandler) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
