package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"intelligrade/contexts/assessment-core/rubric-service/domain/entities"
	domainerrors "intelligrade/contexts/assessment-core/rubric-service/domain/errors"
	"intelligrade/contexts/assessment-core/rubric-service/ports"
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

func (r *Repository) CreateRubric(ctx context.Context, rubric entities.Rubric) error {
	row, err := rubricModelFromEntity(rubric)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidRubricInput
		}
		return err
	}
	return nil
}

func (r *Repository) UpdateRubric(ctx context.Context, rubric entities.Rubric) error {
	row, err := rubricModelFromEntity(rubric)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&rubricModel{}).
		Where("rubric_id = ?", strings.TrimSpace(rubric.RubricID)).
		Updates(map[string]any{
			"teacher_id":  row.TeacherID,
			"title":       row.Title,
			"subject":     row.Subject,
			"description": row.Description,
			"sections":    row.Sections,
			"total_marks": row.TotalMarks,
			"is_active":   row.IsActive,
			"updated_at":  row.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRubricNotFound
	}
	return nil
}

func (r *Repository) GetRubric(ctx context.Context, rubricID string) (entities.Rubric, error) {
	var row rubricModel
	err := r.db.WithContext(ctx).
		Where("rubric_id = ?", strings.TrimSpace(rubricID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Rubric{}, domainerrors.ErrRubricNotFound
		}
		return entities.Rubric{}, err
	}
	return row.toEntity()
}

func (r *Repository) ListRubrics(ctx context.Context, filter ports.RubricFilter) ([]entities.Rubric, error) {
	tx := r.db.WithContext(ctx).Model(&rubricModel{})
	if strings.TrimSpace(filter.TeacherID) != "" {
		tx = tx.Where("teacher_id = ?", strings.TrimSpace(filter.TeacherID))
	}
	if filter.ActiveOnly {
		tx = tx.Where("is_active = ?", true)
	}

	var rows []rubricModel
	if err := tx.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.Rubric, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
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
		return domainerrors.ErrRubricNotFound
	}
	return nil
}

type rubricModel struct {
	RubricID    string    `gorm:"column:rubric_id;primaryKey"`
	TeacherID   string    `gorm:"column:teacher_id"`
	Title       string    `gorm:"column:title"`
	Subject     string    `gorm:"column:subject"`
	Description string    `gorm:"column:description"`
	Sections    []byte    `gorm:"column:sections"`
	TotalMarks  int       `gorm:"column:total_marks"`
	IsActive    bool      `gorm:"column:is_active"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (rubricModel) TableName() string {
	return "rubrics"
}

type sectionDoc struct {
	Name                string `json:"name"`
	Description         string `json:"description"`
	MaxMarks            int    `json:"max_marks"`
	Keywords            string `json:"keywords,omitempty"`
	ConceptExpectations string `json:"concept_expectations,omitempty"`
}

func rubricModelFromEntity(item entities.Rubric) (rubricModel, error) {
	docs := make([]sectionDoc, 0, len(item.Sections))
	for _, section := range item.Sections {
		docs = append(docs, sectionDoc{
			Name:                section.Name,
			Description:         section.Description,
			MaxMarks:            section.MaxMarks,
			Keywords:            section.Keywords,
			ConceptExpectations: section.ConceptExpectations,
		})
	}
	sections, err := json.Marshal(docs)
	if err != nil {
		return rubricModel{}, err
	}
	return rubricModel{
		RubricID:    strings.TrimSpace(item.RubricID),
		TeacherID:   strings.TrimSpace(item.TeacherID),
		Title:       strings.TrimSpace(item.Title),
		Subject:     strings.TrimSpace(item.Subject),
		Description: strings.TrimSpace(item.Description),
		Sections:    sections,
		TotalMarks:  item.TotalMarks,
		IsActive:    item.IsActive,
		CreatedAt:   item.CreatedAt.UTC(),
		UpdatedAt:   item.UpdatedAt.UTC(),
	}, nil
}

func (m rubricModel) toEntity() (entities.Rubric, error) {
	var docs []sectionDoc
	if len(m.Sections) > 0 {
		if err := json.Unmarshal(m.Sections, &docs); err != nil {
			return entities.Rubric{}, err
		}
	}
	sections := make([]entities.RubricSection, 0, len(docs))
	for _, doc := range docs {
		sections = append(sections, entities.RubricSection{
			Name:                doc.Name,
			Description:         doc.Description,
			MaxMarks:            doc.MaxMarks,
			Keywords:            doc.Keywords,
			ConceptExpectations: doc.ConceptExpectations,
		})
	}
	return entities.Rubric{
		RubricID:    m.RubricID,
		TeacherID:   m.TeacherID,
		Title:       m.Title,
		Subject:     m.Subject,
		Description: m.Description,
		Sections:    sections,
		TotalMarks:  m.TotalMarks,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}, nil
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
	return "rubric_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
