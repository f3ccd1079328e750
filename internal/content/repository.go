// Package content exposes the read-only content-block listing consumed by
// the entry-quiz block selection.
package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// IntakeResultCorrect is the recorded outcome of a correct intake quiz.
const IntakeResultCorrect = "correct"

// Block is one content block of a topic with its selection metadata.
type Block struct {
	ID               string  `db:"id"`
	TopicID          string  `db:"topic_id"`
	Title            string  `db:"title"`
	Body             string  `db:"body"`
	PriorityScore    float64 `db:"priority_score"`
	CardCount        int     `db:"card_count"`
	LastIntakeResult string  `db:"last_intake_result"`
	Position         int     `db:"position"`
}

// Repository lists content blocks. The block store itself is maintained by
// the capture pipeline, which is outside this core.
type Repository interface {
	FindByTopic(ctx context.Context, topicID string) ([]Block, error)
	FindByID(ctx context.Context, id string) (*Block, error)
}

// DBRepository implements Repository using SQLite.
type DBRepository struct {
	db *sqlx.DB
}

// NewDBRepository creates a DBRepository bound to the given database.
func NewDBRepository(db *sqlx.DB) *DBRepository {
	return &DBRepository{db: db}
}

// FindByTopic returns the topic's blocks in document order.
func (r *DBRepository) FindByTopic(ctx context.Context, topicID string) ([]Block, error) {
	var blocks []Block
	if err := r.db.SelectContext(ctx, &blocks,
		"SELECT * FROM content_blocks WHERE topic_id = ? ORDER BY position, id", topicID); err != nil {
		return nil, fmt.Errorf("select content blocks: %w", err)
	}
	return blocks, nil
}

// FindByID returns a single block, or nil if not found.
func (r *DBRepository) FindByID(ctx context.Context, id string) (*Block, error) {
	var block Block
	err := r.db.GetContext(ctx, &block, "SELECT * FROM content_blocks WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select content block: %w", err)
	}
	return &block, nil
}
