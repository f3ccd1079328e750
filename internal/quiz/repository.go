// Package quiz implements the topic entry quiz: forgetting detection on
// topic re-entry and reactivation of dormant cards for forgotten blocks.
package quiz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// TopicVisit is the per-topic visit state.
type TopicVisit struct {
	TopicID       string    `db:"topic_id"`
	LastVisitedAt time.Time `db:"last_visited_at"`
}

// Attempt records one retention-probe question against one content block.
// Attempts are append-only.
type Attempt struct {
	ID                 string    `db:"id"`
	TopicID            string    `db:"topic_id"`
	BlockID            string    `db:"block_id"`
	QuestionText       string    `db:"question_text"`
	IsCorrect          bool      `db:"is_correct"`
	Skipped            bool      `db:"skipped"`
	AttemptedAt        time.Time `db:"attempted_at"`
	DaysSinceLastVisit float64   `db:"days_since_last_visit"`
}

// VisitRepository manages per-topic visit timestamps.
type VisitRepository interface {
	Find(ctx context.Context, topicID string) (*TopicVisit, error)
	Upsert(ctx context.Context, topicID string, visitedAt time.Time) error
}

// AttemptRepository manages the append-only quiz attempt log.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *Attempt) error
	FindByTopic(ctx context.Context, topicID string) ([]Attempt, error)
	FindIncorrectBlockIDs(ctx context.Context, topicID string, since *time.Time) ([]string, error)
}

// DBVisitRepository implements VisitRepository using SQLite.
type DBVisitRepository struct {
	db *sqlx.DB
}

// NewDBVisitRepository creates a DBVisitRepository bound to the given database.
func NewDBVisitRepository(db *sqlx.DB) *DBVisitRepository {
	return &DBVisitRepository{db: db}
}

// Find returns the topic's visit state, or nil if the topic was never visited.
func (r *DBVisitRepository) Find(ctx context.Context, topicID string) (*TopicVisit, error) {
	var visit TopicVisit
	err := r.db.GetContext(ctx, &visit, "SELECT * FROM topic_visits WHERE topic_id = ?", topicID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select topic visit: %w", err)
	}
	return &visit, nil
}

// Upsert stamps the topic's last visit time.
func (r *DBVisitRepository) Upsert(ctx context.Context, topicID string, visitedAt time.Time) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO topic_visits (topic_id, last_visited_at) VALUES (?, ?)
		 ON CONFLICT(topic_id) DO UPDATE SET last_visited_at = excluded.last_visited_at`,
		topicID, visitedAt); err != nil {
		return fmt.Errorf("upsert topic visit: %w", err)
	}
	return nil
}

// DBAttemptRepository implements AttemptRepository using SQLite.
type DBAttemptRepository struct {
	db *sqlx.DB
}

// NewDBAttemptRepository creates a DBAttemptRepository bound to the given database.
func NewDBAttemptRepository(db *sqlx.DB) *DBAttemptRepository {
	return &DBAttemptRepository{db: db}
}

// Create inserts a new quiz attempt.
func (r *DBAttemptRepository) Create(ctx context.Context, attempt *Attempt) error {
	if _, err := sqlx.NamedExecContext(ctx, r.db,
		`INSERT INTO quiz_attempts (id, topic_id, block_id, question_text, is_correct, skipped,
			attempted_at, days_since_last_visit)
		 VALUES (:id, :topic_id, :block_id, :question_text, :is_correct, :skipped,
			:attempted_at, :days_since_last_visit)`, attempt); err != nil {
		return fmt.Errorf("insert quiz attempt: %w", err)
	}
	return nil
}

// FindByTopic returns all attempts for a topic ordered by attempt time.
func (r *DBAttemptRepository) FindByTopic(ctx context.Context, topicID string) ([]Attempt, error) {
	var attempts []Attempt
	if err := r.db.SelectContext(ctx, &attempts,
		"SELECT * FROM quiz_attempts WHERE topic_id = ? ORDER BY attempted_at, id", topicID); err != nil {
		return nil, fmt.Errorf("select quiz attempts: %w", err)
	}
	return attempts, nil
}

// FindIncorrectBlockIDs returns the distinct block ids with at least one
// incorrect attempt, optionally filtered by recency.
func (r *DBAttemptRepository) FindIncorrectBlockIDs(ctx context.Context, topicID string, since *time.Time) ([]string, error) {
	query := "SELECT DISTINCT block_id FROM quiz_attempts WHERE topic_id = ? AND is_correct = 0"
	args := []any{topicID}
	if since != nil {
		query += " AND attempted_at >= ?"
		args = append(args, *since)
	}
	query += " ORDER BY block_id"

	var blockIDs []string
	if err := r.db.SelectContext(ctx, &blockIDs, query, args...); err != nil {
		return nil, fmt.Errorf("select forgotten block ids: %w", err)
	}
	return blockIDs, nil
}
