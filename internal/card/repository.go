package card

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Repository defines persistence operations for cards.
type Repository interface {
	FindByID(ctx context.Context, id string) (*Card, error)
	FindByActivationStatus(ctx context.Context, status ActivationStatus) ([]Card, error)
	FindActiveByTopic(ctx context.Context, topicID string) ([]Card, error)
	FindDormantByTopic(ctx context.Context, topicID string) ([]Card, error)
	FindByBlock(ctx context.Context, blockID string) ([]Card, error)
	FindDue(ctx context.Context, now time.Time) ([]Card, error)
	BulkInsert(ctx context.Context, cards []Card) error
	Update(ctx context.Context, c *Card) error
	WithTx(tx *sqlx.Tx) Repository
}

// DBRepository implements Repository on an embedded SQLite store.
type DBRepository struct {
	ext sqlx.ExtContext
}

// NewDBRepository creates a DBRepository bound to the given database.
func NewDBRepository(db *sqlx.DB) *DBRepository {
	return &DBRepository{ext: db}
}

// WithTx returns a copy of the repository that runs inside the transaction.
func (r *DBRepository) WithTx(tx *sqlx.Tx) Repository {
	return &DBRepository{ext: tx}
}

// FindByID returns the card with the given id, or ErrNotFound.
func (r *DBRepository) FindByID(ctx context.Context, id string) (*Card, error) {
	var c Card
	err := sqlx.GetContext(ctx, r.ext, &c, "SELECT * FROM cards WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: card %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("select card: %w", err)
	}
	return &c, nil
}

// FindByActivationStatus returns all cards with the given activation status.
func (r *DBRepository) FindByActivationStatus(ctx context.Context, status ActivationStatus) ([]Card, error) {
	var cards []Card
	if err := sqlx.SelectContext(ctx, r.ext, &cards,
		"SELECT * FROM cards WHERE activation_status = ? ORDER BY created_at, id", status); err != nil {
		return nil, fmt.Errorf("select cards by status: %w", err)
	}
	return cards, nil
}

// FindActiveByTopic returns the topic's active cards ordered by due date.
func (r *DBRepository) FindActiveByTopic(ctx context.Context, topicID string) ([]Card, error) {
	var cards []Card
	if err := sqlx.SelectContext(ctx, r.ext, &cards,
		`SELECT * FROM cards WHERE topic_id = ? AND activation_status = ?
		 ORDER BY due_date, id`, topicID, StatusActive); err != nil {
		return nil, fmt.Errorf("select active cards by topic: %w", err)
	}
	return cards, nil
}

// FindDormantByTopic returns the topic's dormant cards ordered by creation time.
func (r *DBRepository) FindDormantByTopic(ctx context.Context, topicID string) ([]Card, error) {
	var cards []Card
	if err := sqlx.SelectContext(ctx, r.ext, &cards,
		`SELECT * FROM cards WHERE topic_id = ? AND activation_status = ?
		 ORDER BY created_at, id`, topicID, StatusDormant); err != nil {
		return nil, fmt.Errorf("select dormant cards by topic: %w", err)
	}
	return cards, nil
}

// FindByBlock returns all cards derived from the given content block.
func (r *DBRepository) FindByBlock(ctx context.Context, blockID string) ([]Card, error) {
	var cards []Card
	if err := sqlx.SelectContext(ctx, r.ext, &cards,
		"SELECT * FROM cards WHERE block_id = ? ORDER BY created_at, id", blockID); err != nil {
		return nil, fmt.Errorf("select cards by block: %w", err)
	}
	return cards, nil
}

// FindDue returns active cards due at or before now, ordered by due date.
func (r *DBRepository) FindDue(ctx context.Context, now time.Time) ([]Card, error) {
	var cards []Card
	if err := sqlx.SelectContext(ctx, r.ext, &cards,
		`SELECT * FROM cards WHERE activation_status = ? AND due_date IS NOT NULL AND due_date <= ?
		 ORDER BY due_date, id`, StatusActive, now); err != nil {
		return nil, fmt.Errorf("select due cards: %w", err)
	}
	return cards, nil
}

const insertCardQuery = `INSERT INTO cards (
	id, record_id, topic_id, block_id, card_type, front, back, is_golden_ticket,
	review_state, learning_step, activation_status, activation_tier, activation_reasons,
	suspend_reason, suspended_at, maturity_state,
	stability, difficulty, elapsed_days, scheduled_days, reps, lapses,
	due_date, last_review, activated_at, retired_at, resurrect_count, created_at, updated_at
) VALUES (
	:id, :record_id, :topic_id, :block_id, :card_type, :front, :back, :is_golden_ticket,
	:review_state, :learning_step, :activation_status, :activation_tier, :activation_reasons,
	:suspend_reason, :suspended_at, :maturity_state,
	:stability, :difficulty, :elapsed_days, :scheduled_days, :reps, :lapses,
	:due_date, :last_review, :activated_at, :retired_at, :resurrect_count, :created_at, :updated_at
)`

// BulkInsert inserts all cards. When run inside a transaction the batch is atomic.
func (r *DBRepository) BulkInsert(ctx context.Context, cards []Card) error {
	for i := range cards {
		if _, err := sqlx.NamedExecContext(ctx, r.ext, insertCardQuery, &cards[i]); err != nil {
			return fmt.Errorf("insert card %s: %w", cards[i].ID, err)
		}
	}
	return nil
}

// Update persists all mutable fields of the card.
func (r *DBRepository) Update(ctx context.Context, c *Card) error {
	c.UpdatedAt = time.Now()
	result, err := sqlx.NamedExecContext(ctx, r.ext, `UPDATE cards SET
		card_type = :card_type, front = :front, back = :back,
		review_state = :review_state, learning_step = :learning_step,
		activation_status = :activation_status, activation_tier = :activation_tier,
		activation_reasons = :activation_reasons,
		suspend_reason = :suspend_reason, suspended_at = :suspended_at,
		maturity_state = :maturity_state,
		stability = :stability, difficulty = :difficulty,
		elapsed_days = :elapsed_days, scheduled_days = :scheduled_days,
		reps = :reps, lapses = :lapses,
		due_date = :due_date, last_review = :last_review,
		activated_at = :activated_at, retired_at = :retired_at,
		resurrect_count = :resurrect_count, updated_at = :updated_at
		WHERE id = :id`, c)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update card rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: card %s", ErrNotFound, c.ID)
	}
	return nil
}

// LogRepository defines persistence operations for the append-only review log.
type LogRepository interface {
	Append(ctx context.Context, entry *ReviewLogEntry) error
	FindByCard(ctx context.Context, cardID string) ([]ReviewLogEntry, error)
	WithTx(tx *sqlx.Tx) LogRepository
}

// DBLogRepository implements LogRepository using SQLite.
type DBLogRepository struct {
	ext sqlx.ExtContext
}

// NewDBLogRepository creates a DBLogRepository bound to the given database.
func NewDBLogRepository(db *sqlx.DB) *DBLogRepository {
	return &DBLogRepository{ext: db}
}

// WithTx returns a copy of the repository that runs inside the transaction.
func (r *DBLogRepository) WithTx(tx *sqlx.Tx) LogRepository {
	return &DBLogRepository{ext: tx}
}

// Append inserts a new review log entry and sets its generated id.
func (r *DBLogRepository) Append(ctx context.Context, entry *ReviewLogEntry) error {
	result, err := sqlx.NamedExecContext(ctx, r.ext,
		`INSERT INTO review_logs (card_id, rating, review_state, scheduled_days, elapsed_days,
			response_time_ms, response_time_modifier, reviewed_at)
		 VALUES (:card_id, :rating, :review_state, :scheduled_days, :elapsed_days,
			:response_time_ms, :response_time_modifier, :reviewed_at)`, entry)
	if err != nil {
		return fmt.Errorf("insert review log: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("review log last insert id: %w", err)
	}
	entry.ID = id
	return nil
}

// FindByCard returns all review log entries for a card ordered by review time.
func (r *DBLogRepository) FindByCard(ctx context.Context, cardID string) ([]ReviewLogEntry, error) {
	var entries []ReviewLogEntry
	if err := sqlx.SelectContext(ctx, r.ext, &entries,
		"SELECT * FROM review_logs WHERE card_id = ? ORDER BY reviewed_at, id", cardID); err != nil {
		return nil, fmt.Errorf("select review logs: %w", err)
	}
	return entries, nil
}
