package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"intelligrade/contexts/assessment-core/grading-service/domain/entities"
	domainerrors "intelligrade/contexts/assessment-core/grading-service/domain/errors"
	"intelligrade/contexts/assessment-core/grading-service/ports"
	"intelligrade/internal/shared/events"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateSubmission(ctx context.Context, submission entities.Submission) error {
	row := submissionModelFromEntity(submission)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidSubmissionInput
		}
		return err
	}
	return nil
}

func (r *Repository) GetSubmission(ctx context.Context, submissionID string) (entities.Submission, error) {
	var row submissionModel
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", strings.TrimSpace(submissionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Submission{}, domainerrors.ErrSubmissionNotFound
		}
		return entities.Submission{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListSubmissions(ctx context.Context, filter ports.SubmissionFilter) ([]entities.Submission, error) {
	tx := r.db.WithContext(ctx).Model(&submissionModel{})
	if strings.TrimSpace(filter.StudentID) != "" {
		tx = tx.Where("student_id = ?", strings.TrimSpace(filter.StudentID))
	}
	if strings.TrimSpace(filter.RubricID) != "" {
		tx = tx.Where("rubric_id = ?", strings.TrimSpace(filter.RubricID))
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}

	var rows []submissionModel
	if err := tx.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.Submission, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) AssignRubric(ctx context.Context, submissionID string, rubricID string, updatedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&submissionModel{}).
		Where("submission_id = ?", strings.TrimSpace(submissionID)).
		Updates(map[string]any{
			"rubric_id":  strings.TrimSpace(rubricID),
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrSubmissionNotFound
	}
	return nil
}

func (r *Repository) TransitionStatus(
	ctx context.Context,
	submissionID string,
	from, to entities.SubmissionStatus,
	updatedAt time.Time,
) error {
	return transitionStatusTx(r.db.WithContext(ctx), submissionID, from, to, updatedAt)
}

// transitionStatusTx compare-and-swaps the submission status inside the
// given transaction. A zero-row update is re-read to tell a missing
// submission apart from a concurrent state change.
func transitionStatusTx(
	tx *gorm.DB,
	submissionID string,
	from, to entities.SubmissionStatus,
	updatedAt time.Time,
) error {
	result := tx.
		Model(&submissionModel{}).
		Where("submission_id = ? AND status = ?", strings.TrimSpace(submissionID), string(from)).
		Updates(map[string]any{
			"status":     string(to),
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var row submissionModel
	err := tx.
		Where("submission_id = ?", strings.TrimSpace(submissionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainerrors.ErrSubmissionNotFound
		}
		return err
	}
	if from == entities.SubmissionStatusPending &&
		entities.SubmissionStatus(row.Status) == entities.SubmissionStatusGrading {
		return domainerrors.ErrGradingInProgress
	}
	return domainerrors.ErrInvalidStatusChange
}

func (r *Repository) SaveResultAndMarkGraded(ctx context.Context, result entities.GradingResult) error {
	row, err := resultModelFromEntity(result)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrResultAlreadyExists
			}
			return err
		}
		return transitionStatusTx(
			tx,
			result.SubmissionID,
			entities.SubmissionStatusGrading,
			entities.SubmissionStatusGraded,
			result.CreatedAt,
		)
	})
}

func (r *Repository) ApplyOverride(ctx context.Context, result entities.GradingResult, markApproved bool) error {
	finalSections, err := marshalSections(result.FinalSectionGrades)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		update := tx.
			Model(&gradingResultModel{}).
			Where("result_id = ?", strings.TrimSpace(result.ResultID)).
			Updates(map[string]any{
				"final_section_grades":   finalSections,
				"final_total_marks":      result.FinalTotalMarks,
				"final_overall_feedback": result.FinalOverallFeedback,
				"is_final_approved":      result.IsFinalApproved,
				"final_approved_by":      result.FinalApprovedBy,
				"final_approved_at":      result.FinalApprovedAt,
				"updated_at":             result.UpdatedAt.UTC(),
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return domainerrors.ErrResultNotFound
		}
		if !markApproved {
			return nil
		}
		return transitionStatusTx(
			tx,
			result.SubmissionID,
			entities.SubmissionStatusGraded,
			entities.SubmissionStatusApproved,
			result.UpdatedAt,
		)
	})
}

func (r *Repository) GetResult(ctx context.Context, resultID string) (entities.GradingResult, error) {
	var row gradingResultModel
	err := r.db.WithContext(ctx).
		Where("result_id = ?", strings.TrimSpace(resultID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.GradingResult{}, domainerrors.ErrResultNotFound
		}
		return entities.GradingResult{}, err
	}
	return row.toEntity()
}

func (r *Repository) GetResultForSubmission(ctx context.Context, submissionID string) (entities.GradingResult, error) {
	var row gradingResultModel
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", strings.TrimSpace(submissionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.GradingResult{}, domainerrors.ErrResultNotFound
		}
		return entities.GradingResult{}, err
	}
	return row.toEntity()
}

func (r *Repository) ListResults(ctx context.Context, filter ports.ResultFilter) ([]entities.GradingResult, error) {
	tx := r.db.WithContext(ctx).Model(&gradingResultModel{})
	if strings.TrimSpace(filter.RubricID) != "" {
		tx = tx.Where("rubric_id = ?", strings.TrimSpace(filter.RubricID))
	}
	if strings.TrimSpace(filter.StudentID) != "" {
		tx = tx.Where(
			"submission_id IN (?)",
			r.db.Model(&submissionModel{}).
				Select("submission_id").
				Where("student_id = ?", strings.TrimSpace(filter.StudentID)),
		)
	}

	var rows []gradingResultModel
	if err := tx.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.GradingResult, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// GetRubricSnapshot reads the locally projected rubric state. The worker's
// projection consumer keeps it in sync with rubric-service events; grading
// never calls across the context boundary at request time.
func (r *Repository) GetRubricSnapshot(ctx context.Context, rubricID string) (ports.RubricSnapshot, error) {
	var row rubricProjectionModel
	err := r.db.WithContext(ctx).
		Where("rubric_id = ?", strings.TrimSpace(rubricID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.RubricSnapshot{}, domainerrors.ErrRubricNotFound
		}
		return ports.RubricSnapshot{}, err
	}
	return row.toSnapshot()
}

func (r *Repository) SaveFile(ctx context.Context, path string, content []byte, contentType string) error {
	row := fileModel{
		Path:        path,
		Content:     content,
		ContentType: contentType,
		CreatedAt:   time.Now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "path"}},
			UpdateAll: true,
		}).
		Create(&row).
		Error
}

func (r *Repository) LoadFile(ctx context.Context, path string) ([]byte, error) {
	var row fileModel
	err := r.db.WithContext(ctx).
		Where("path = ?", path).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrFileNotFound
		}
		return nil, err
	}
	return append([]byte(nil), row.Content...), nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope events.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "outbox_id"}},
			DoNothing: true,
		}).
		Create(&row).
		Error
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrResultNotFound
	}
	return nil
}

type submissionModel struct {
	SubmissionID string    `gorm:"column:submission_id;primaryKey"`
	StudentID    string    `gorm:"column:student_id"`
	RubricID     string    `gorm:"column:rubric_id"`
	FileName     string    `gorm:"column:file_name"`
	FilePath     string    `gorm:"column:file_path"`
	FileSize     int64     `gorm:"column:file_size"`
	ContentType  string    `gorm:"column:content_type"`
	Status       string    `gorm:"column:status"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (submissionModel) TableName() string {
	return "submissions"
}

func submissionModelFromEntity(item entities.Submission) submissionModel {
	return submissionModel{
		SubmissionID: strings.TrimSpace(item.SubmissionID),
		StudentID:    strings.TrimSpace(item.StudentID),
		RubricID:     strings.TrimSpace(item.RubricID),
		FileName:     item.FileName,
		FilePath:     item.FilePath,
		FileSize:     item.FileSize,
		ContentType:  item.ContentType,
		Status:       string(item.Status),
		CreatedAt:    item.CreatedAt.UTC(),
		UpdatedAt:    item.UpdatedAt.UTC(),
	}
}

func (m submissionModel) toEntity() entities.Submission {
	return entities.Submission{
		SubmissionID: m.SubmissionID,
		StudentID:    m.StudentID,
		RubricID:     m.RubricID,
		FileName:     m.FileName,
		FilePath:     m.FilePath,
		FileSize:     m.FileSize,
		ContentType:  m.ContentType,
		Status:       entities.SubmissionStatus(m.Status),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type gradingResultModel struct {
	ResultID              string     `gorm:"column:result_id;primaryKey"`
	SubmissionID          string     `gorm:"column:submission_id;uniqueIndex"`
	RubricID              string     `gorm:"column:rubric_id"`
	SectionGrades         []byte     `gorm:"column:section_grades"`
	TotalMarksAwarded     float64    `gorm:"column:total_marks_awarded"`
	TotalMaxMarks         int        `gorm:"column:total_max_marks"`
	OverallFeedback       string     `gorm:"column:overall_feedback"`
	AIModel               string     `gorm:"column:ai_model"`
	ProcessingTimeMs      int64      `gorm:"column:processing_time_ms"`
	PlagiarismScore       *float64   `gorm:"column:plagiarism_score"`
	PlagiarismRisk        string     `gorm:"column:plagiarism_risk"`
	PlagiarismExplanation string     `gorm:"column:plagiarism_explanation"`
	FinalSectionGrades    []byte     `gorm:"column:final_section_grades"`
	FinalTotalMarks       *float64   `gorm:"column:final_total_marks"`
	FinalOverallFeedback  *string    `gorm:"column:final_overall_feedback"`
	IsFinalApproved       bool       `gorm:"column:is_final_approved"`
	FinalApprovedBy       string     `gorm:"column:final_approved_by"`
	FinalApprovedAt       *time.Time `gorm:"column:final_approved_at"`
	CreatedAt             time.Time  `gorm:"column:created_at"`
	UpdatedAt             time.Time  `gorm:"column:updated_at"`
}

func (gradingResultModel) TableName() string {
	return "grading_results"
}

type sectionGradeDoc struct {
	SectionName           string   `json:"section_name"`
	MarksAwarded          float64  `json:"marks_awarded"`
	MaxMarks              int      `json:"max_marks"`
	Feedback              string   `json:"feedback"`
	SimilarityScore       *float64 `json:"similarity_score,omitempty"`
	SimilarityExplanation string   `json:"similarity_explanation,omitempty"`
}

func marshalSections(sections []entities.SectionGrade) ([]byte, error) {
	if sections == nil {
		return nil, nil
	}
	docs := make([]sectionGradeDoc, 0, len(sections))
	for _, section := range sections {
		docs = append(docs, sectionGradeDoc{
			SectionName:           section.SectionName,
			MarksAwarded:          section.MarksAwarded,
			MaxMarks:              section.MaxMarks,
			Feedback:              section.Feedback,
			SimilarityScore:       section.SimilarityScore,
			SimilarityExplanation: section.SimilarityExplanation,
		})
	}
	return json.Marshal(docs)
}

func unmarshalSections(payload []byte) ([]entities.SectionGrade, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	var docs []sectionGradeDoc
	if err := json.Unmarshal(payload, &docs); err != nil {
		return nil, err
	}
	sections := make([]entities.SectionGrade, 0, len(docs))
	for _, doc := range docs {
		sections = append(sections, entities.SectionGrade{
			SectionName:           doc.SectionName,
			MarksAwarded:          doc.MarksAwarded,
			MaxMarks:              doc.MaxMarks,
			Feedback:              doc.Feedback,
			SimilarityScore:       doc.SimilarityScore,
			SimilarityExplanation: doc.SimilarityExplanation,
		})
	}
	return sections, nil
}

func resultModelFromEntity(item entities.GradingResult) (gradingResultModel, error) {
	sections, err := marshalSections(item.SectionGrades)
	if err != nil {
		return gradingResultModel{}, err
	}
	finalSections, err := marshalSections(item.FinalSectionGrades)
	if err != nil {
		return gradingResultModel{}, err
	}
	return gradingResultModel{
		ResultID:              strings.TrimSpace(item.ResultID),
		SubmissionID:          strings.TrimSpace(item.SubmissionID),
		RubricID:              strings.TrimSpace(item.RubricID),
		SectionGrades:         sections,
		TotalMarksAwarded:     item.TotalMarksAwarded,
		TotalMaxMarks:         item.TotalMaxMarks,
		OverallFeedback:       item.OverallFeedback,
		AIModel:               item.GraderModel,
		ProcessingTimeMs:      item.ProcessingTime.Milliseconds(),
		PlagiarismScore:       item.PlagiarismScore,
		PlagiarismRisk:        item.PlagiarismRisk,
		PlagiarismExplanation: item.PlagiarismExplanation,
		FinalSectionGrades:    finalSections,
		FinalTotalMarks:       item.FinalTotalMarks,
		FinalOverallFeedback:  item.FinalOverallFeedback,
		IsFinalApproved:       item.IsFinalApproved,
		FinalApprovedBy:       item.FinalApprovedBy,
		FinalApprovedAt:       item.FinalApprovedAt,
		CreatedAt:             item.CreatedAt.UTC(),
		UpdatedAt:             item.UpdatedAt.UTC(),
	}, nil
}

func (m gradingResultModel) toEntity() (entities.GradingResult, error) {
	sections, err := unmarshalSections(m.SectionGrades)
	if err != nil {
		return entities.GradingResult{}, err
	}
	finalSections, err := unmarshalSections(m.FinalSectionGrades)
	if err != nil {
		return entities.GradingResult{}, err
	}
	return entities.GradingResult{
		ResultID:              m.ResultID,
		SubmissionID:          m.SubmissionID,
		RubricID:              m.RubricID,
		SectionGrades:         sections,
		TotalMarksAwarded:     m.TotalMarksAwarded,
		TotalMaxMarks:         m.TotalMaxMarks,
		OverallFeedback:       m.OverallFeedback,
		GraderModel:           m.AIModel,
		ProcessingTime:        time.Duration(m.ProcessingTimeMs) * time.Millisecond,
		PlagiarismScore:       m.PlagiarismScore,
		PlagiarismRisk:        m.PlagiarismRisk,
		PlagiarismExplanation: m.PlagiarismExplanation,
		FinalSectionGrades:    finalSections,
		FinalTotalMarks:       m.FinalTotalMarks,
		FinalOverallFeedback:  m.FinalOverallFeedback,
		IsFinalApproved:       m.IsFinalApproved,
		FinalApprovedBy:       m.FinalApprovedBy,
		FinalApprovedAt:       m.FinalApprovedAt,
		CreatedAt:             m.CreatedAt.UTC(),
		UpdatedAt:             m.UpdatedAt.UTC(),
	}, nil
}

func (r *Repository) UpsertRubricSnapshot(ctx context.Context, snapshot ports.RubricSnapshot) error {
	row, err := rubricProjectionFromSnapshot(snapshot)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "rubric_id"}},
			UpdateAll: true,
		}).
		Create(&row).
		Error
}

type rubricProjectionModel struct {
	RubricID   string    `gorm:"column:rubric_id;primaryKey"`
	Title      string    `gorm:"column:title"`
	Subject    string    `gorm:"column:subject"`
	Sections   []byte    `gorm:"column:sections"`
	TotalMarks int       `gorm:"column:total_marks"`
	IsActive   bool      `gorm:"column:is_active"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (rubricProjectionModel) TableName() string {
	return "grading_rubric_snapshots"
}

func rubricProjectionFromSnapshot(snapshot ports.RubricSnapshot) (rubricProjectionModel, error) {
	docs := make([]rubricSectionDoc, 0, len(snapshot.Sections))
	for _, section := range snapshot.Sections {
		docs = append(docs, rubricSectionDoc{
			Name:                section.Name,
			Description:         section.Description,
			MaxMarks:            section.MaxMarks,
			Keywords:            section.Keywords,
			ConceptExpectations: section.ConceptExpectations,
		})
	}
	sections, err := json.Marshal(docs)
	if err != nil {
		return rubricProjectionModel{}, err
	}
	return rubricProjectionModel{
		RubricID:   strings.TrimSpace(snapshot.RubricID),
		Title:      snapshot.Title,
		Subject:    snapshot.Subject,
		Sections:   sections,
		TotalMarks: snapshot.TotalMarks,
		IsActive:   snapshot.IsActive,
		UpdatedAt:  time.Now().UTC(),
	}, nil
}

type rubricSectionDoc struct {
	Name                string `json:"name"`
	Description         string `json:"description"`
	MaxMarks            int    `json:"max_marks"`
	Keywords            string `json:"keywords,omitempty"`
	ConceptExpectations string `json:"concept_expectations,omitempty"`
}

func (m rubricProjectionModel) toSnapshot() (ports.RubricSnapshot, error) {
	var docs []rubricSectionDoc
	if len(m.Sections) > 0 {
		if err := json.Unmarshal(m.Sections, &docs); err != nil {
			return ports.RubricSnapshot{}, err
		}
	}
	sections := make([]ports.RubricSectionSpec, 0, len(docs))
	for _, doc := range docs {
		sections = append(sections, ports.RubricSectionSpec{
			Name:                doc.Name,
			Description:         doc.Description,
			MaxMarks:            doc.MaxMarks,
			Keywords:            doc.Keywords,
			ConceptExpectations: doc.ConceptExpectations,
		})
	}
	return ports.RubricSnapshot{
		RubricID:   m.RubricID,
		Title:      m.Title,
		Subject:    m.Subject,
		TotalMarks: m.TotalMarks,
		IsActive:   m.IsActive,
		Sections:   sections,
	}, nil
}

type fileModel struct {
	Path        string    `gorm:"column:path;primaryKey"`
	Content     []byte    `gorm:"column:content"`
	ContentType string    `gorm:"column:content_type"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (fileModel) TableName() string {
	return "report_files"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "grading_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
