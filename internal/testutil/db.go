// Package testutil provides shared fixtures for tests that need a real
// database.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/Dogebooch/doughub/internal/card"
	"github.com/Dogebooch/doughub/internal/content"
	"github.com/Dogebooch/doughub/internal/database"
)

// OpenDB opens a fresh in-memory database with all migrations applied. The
// connection is closed when the test finishes.
func OpenDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite", "file::memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

// CardOption mutates a fixture card before it is inserted.
type CardOption func(*card.Card)

// NewCard builds a plausible active review-state card. Options override the
// defaults.
func NewCard(opts ...CardOption) card.Card {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	due := now.Add(24 * time.Hour)
	c := card.Card{
		ID:            uuid.NewString(),
		RecordID:      uuid.NewString(),
		TopicID:       "topic-1",
		CardType:      "basic",
		Front:         "What is the mechanism of action of metformin?",
		Back:          "Decreases hepatic gluconeogenesis",
		ReviewState:   card.ReviewStateReview,
		Status:        card.StatusActive,
		Tier:          card.TierInitial,
		Maturity:      card.MaturityYoung,
		Stability:     5.0,
		Difficulty:    5.0,
		ScheduledDays: 5,
		Reps:          3,
		DueDate:       &due,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// InsertCard inserts a fixture card, creating its parent record, and returns it.
func InsertCard(t *testing.T, db *sqlx.DB, opts ...CardOption) card.Card {
	t.Helper()

	c := NewCard(opts...)
	InsertRecordRow(t, db, c.RecordID)
	repo := card.NewDBRepository(db)
	require.NoError(t, repo.BulkInsert(context.Background(), []card.Card{c}))
	return c
}

// InsertBlock inserts a content block row.
func InsertBlock(t *testing.T, db *sqlx.DB, b content.Block) content.Block {
	t.Helper()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err := db.NamedExec(
		`INSERT INTO content_blocks (id, topic_id, title, body, priority_score, card_count, last_intake_result, position)
		 VALUES (:id, :topic_id, :title, :body, :priority_score, :card_count, :last_intake_result, :position)`, &b)
	require.NoError(t, err)
	return b
}

// InsertRecordRow inserts a minimal knowledge record row so card foreign keys
// resolve.
func InsertRecordRow(t *testing.T, db *sqlx.DB, recordID string) {
	t.Helper()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	_, err := db.Exec(
		`INSERT INTO knowledge_records (id, archetype, title, created_at, updated_at)
		 VALUES (?, 'drug', 'fixture', ?, ?)`, recordID, now, now)
	require.NoError(t, err)
}
