package card

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Dogebooch/doughub/internal/database"
)

// LeechReason is the suspend reason stamped by automatic leech suspension.
const LeechReason = "leech"

// LifecycleManager owns the activation-status state machine layered on top of
// the review state. The review state itself is owned by the scheduler.
type LifecycleManager struct {
	db    *sqlx.DB
	cards Repository
}

// NewLifecycleManager creates a LifecycleManager.
func NewLifecycleManager(db *sqlx.DB, cards Repository) *LifecycleManager {
	return &LifecycleManager{db: db, cards: cards}
}

// Activate transitions a card to active from any status. It clears the
// suspend fields, records the tier and reasons, and stamps the activation
// time. A card revived from dormancy counts as a resurrection.
func (m *LifecycleManager) Activate(ctx context.Context, cardID string, tier ActivationTier, reasons []string) (*Card, error) {
	c, err := m.cards.FindByID(ctx, cardID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if c.Status == StatusDormant {
		c.ResurrectCount++
	}
	c.Status = StatusActive
	c.Tier = tier
	c.Reasons = append(Reasons{}, reasons...)
	c.SuspendReason = ""
	c.SuspendedAt = nil
	c.ActivatedAt = &now
	if c.DueDate == nil {
		// An active card always has a due date.
		c.DueDate = &now
	}

	if err := m.cards.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Suspend transitions an active card to suspended, stamping the reason.
func (m *LifecycleManager) Suspend(ctx context.Context, cardID string, reason string) (*Card, error) {
	c, err := m.cards.FindByID(ctx, cardID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	c.Status = StatusSuspended
	c.SuspendReason = reason
	c.SuspendedAt = &now

	if err := m.cards.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// CheckAndSuspendLeech suspends the card with reason "leech" when it is
// active and has reached the authoritative lapse threshold. It reports
// whether a suspension happened; otherwise it is a no-op.
func (m *LifecycleManager) CheckAndSuspendLeech(ctx context.Context, cardID string) (bool, error) {
	c, err := m.cards.FindByID(ctx, cardID)
	if err != nil {
		return false, err
	}
	if !c.ShouldAutoSuspend() {
		return false, nil
	}

	if _, err := m.Suspend(ctx, cardID, LeechReason); err != nil {
		return false, err
	}
	slog.Default().Info("card auto-suspended as leech",
		slog.String("cardID", cardID),
		slog.Int("lapses", c.Lapses),
	)
	return true, nil
}

// BulkActivate activates all listed cards as a single atomic batch. The
// transition is applied unconditionally per item: the caller has explicitly
// selected these cards.
func (m *LifecycleManager) BulkActivate(ctx context.Context, cardIDs []string, tier ActivationTier, reasons []string) error {
	now := time.Now()
	err := database.RunInTx(ctx, m.db, func(ctx context.Context, tx *sqlx.Tx) error {
		repo := m.cards.WithTx(tx)
		for _, id := range cardIDs {
			c, err := repo.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if c.Status == StatusDormant {
				c.ResurrectCount++
			}
			c.Status = StatusActive
			c.Tier = tier
			c.Reasons = append(Reasons{}, reasons...)
			c.SuspendReason = ""
			c.SuspendedAt = nil
			c.ActivatedAt = &now
			if c.DueDate == nil {
				c.DueDate = &now
			}
			if err := repo.Update(ctx, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bulk activate: %w", err)
	}
	return nil
}

// BulkSuspend suspends all listed cards as a single atomic batch.
func (m *LifecycleManager) BulkSuspend(ctx context.Context, cardIDs []string, reason string) error {
	now := time.Now()
	err := database.RunInTx(ctx, m.db, func(ctx context.Context, tx *sqlx.Tx) error {
		repo := m.cards.WithTx(tx)
		for _, id := range cardIDs {
			c, err := repo.FindByID(ctx, id)
			if err != nil {
				return err
			}
			c.Status = StatusSuspended
			c.SuspendReason = reason
			c.SuspendedAt = &now
			if err := repo.Update(ctx, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bulk suspend: %w", err)
	}
	return nil
}

// BlockCard is a card joined with review-context display fields.
type BlockCard struct {
	Card
	SiblingCount int
	AtRisk       bool
}

// FindBySourceBlock returns the block's cards annotated with sibling count
// and the display-only leech flag.
func (m *LifecycleManager) FindBySourceBlock(ctx context.Context, blockID string) ([]BlockCard, error) {
	cards, err := m.cards.FindByBlock(ctx, blockID)
	if err != nil {
		return nil, err
	}

	result := make([]BlockCard, 0, len(cards))
	for i := range cards {
		result = append(result, BlockCard{
			Card:         cards[i],
			SiblingCount: len(cards) - 1,
			AtRisk:       cards[i].AtRiskForDisplay(),
		})
	}
	return result, nil
}
