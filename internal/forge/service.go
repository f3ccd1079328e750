package forge

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Dogebooch/doughub/internal/card"
	"github.com/Dogebooch/doughub/internal/database"
)

// Service forges records into persisted cards.
type Service struct {
	db        *sqlx.DB
	generator *Generator
	records   RecordRepository
	cards     card.Repository
}

// NewService creates a forge Service.
func NewService(db *sqlx.DB, generator *Generator, records RecordRepository, cards card.Repository) *Service {
	return &Service{db: db, generator: generator, records: records, cards: cards}
}

// Forge generates the record's cards and inserts them atomically, stamping
// the record's forge time. Forging is a one-time derivation: a record that
// was already forged is rejected with ErrAlreadyForged.
func (s *Service) Forge(ctx context.Context, recordID string, blockID string) ([]card.Card, error) {
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.ForgedAt != nil {
		return nil, fmt.Errorf("%w: record %s forged at %s", ErrAlreadyForged, recordID, record.ForgedAt)
	}
	if !s.generator.IsForgeReady(record) {
		return nil, fmt.Errorf("%w: record %s", ErrNotForgeReady, recordID)
	}

	now := time.Now()
	cards := s.generator.GenerateCards(record, blockID, now)
	if len(cards) == 0 {
		// Non-fatal: the archetype resolved to zero candidate cards.
		return nil, nil
	}

	err = database.RunInTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := s.cards.WithTx(tx).BulkInsert(ctx, cards); err != nil {
			return err
		}
		return s.records.WithTx(tx).MarkForged(ctx, recordID, now)
	})
	if err != nil {
		return nil, fmt.Errorf("forge record: %w", err)
	}
	return cards, nil
}

// Preview returns the expected card counts for a record without forging it.
func (s *Service) Preview(ctx context.Context, recordID string) (ExpectedCount, error) {
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return ExpectedCount{}, err
	}
	return s.generator.ExpectedCardCount(record), nil
}
