package forge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// RecordRepository defines persistence operations for knowledge records.
type RecordRepository interface {
	FindByID(ctx context.Context, id string) (*KnowledgeRecord, error)
	FindByTopic(ctx context.Context, topicID string) ([]KnowledgeRecord, error)
	Create(ctx context.Context, record *KnowledgeRecord) error
	MarkForged(ctx context.Context, id string, forgedAt time.Time) error
	WithTx(tx *sqlx.Tx) RecordRepository
}

// DBRecordRepository implements RecordRepository using SQLite.
type DBRecordRepository struct {
	ext sqlx.ExtContext
}

// NewDBRecordRepository creates a DBRecordRepository bound to the given database.
func NewDBRecordRepository(db *sqlx.DB) *DBRecordRepository {
	return &DBRecordRepository{ext: db}
}

// WithTx returns a copy of the repository that runs inside the transaction.
func (r *DBRecordRepository) WithTx(tx *sqlx.Tx) RecordRepository {
	return &DBRecordRepository{ext: tx}
}

// FindByID returns the record with the given id, or ErrRecordNotFound.
func (r *DBRecordRepository) FindByID(ctx context.Context, id string) (*KnowledgeRecord, error) {
	var record KnowledgeRecord
	err := sqlx.GetContext(ctx, r.ext, &record, "SELECT * FROM knowledge_records WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: record %s", ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("select knowledge record: %w", err)
	}
	return &record, nil
}

// FindByTopic returns all records belonging to a topic.
func (r *DBRecordRepository) FindByTopic(ctx context.Context, topicID string) ([]KnowledgeRecord, error) {
	var records []KnowledgeRecord
	if err := sqlx.SelectContext(ctx, r.ext, &records,
		"SELECT * FROM knowledge_records WHERE topic_id = ? ORDER BY created_at, id", topicID); err != nil {
		return nil, fmt.Errorf("select knowledge records by topic: %w", err)
	}
	return records, nil
}

// Create inserts a new knowledge record.
func (r *DBRecordRepository) Create(ctx context.Context, record *KnowledgeRecord) error {
	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	if _, err := sqlx.NamedExecContext(ctx, r.ext,
		`INSERT INTO knowledge_records (id, archetype, title, topic_id, structured_data,
			golden_ticket_value, image_path, audio_path, forged_at, created_at, updated_at)
		 VALUES (:id, :archetype, :title, :topic_id, :structured_data,
			:golden_ticket_value, :image_path, :audio_path, :forged_at, :created_at, :updated_at)`,
		record); err != nil {
		return fmt.Errorf("insert knowledge record: %w", err)
	}
	return nil
}

// MarkForged stamps the record's forge time.
func (r *DBRecordRepository) MarkForged(ctx context.Context, id string, forgedAt time.Time) error {
	result, err := r.ext.ExecContext(ctx,
		"UPDATE knowledge_records SET forged_at = ?, updated_at = ? WHERE id = ?",
		forgedAt, forgedAt, id)
	if err != nil {
		return fmt.Errorf("mark record forged: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark record forged rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: record %s", ErrRecordNotFound, id)
	}
	return nil
}
