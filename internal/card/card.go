// Package card provides the card domain model, its activation lifecycle,
// and repositories for cards and review logs.
package card

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReviewState tracks where a card is in the scheduling state machine.
// It is owned by the review scheduler.
type ReviewState string

const (
	ReviewStateNew        ReviewState = "new"
	ReviewStateLearning   ReviewState = "learning"
	ReviewStateReview     ReviewState = "review"
	ReviewStateRelearning ReviewState = "relearning"
)

// IsValid reports whether s is one of the declared review states.
func (s ReviewState) IsValid() bool {
	switch s {
	case ReviewStateNew, ReviewStateLearning, ReviewStateReview, ReviewStateRelearning:
		return true
	}
	return false
}

// ActivationStatus tracks whether a card participates in the review queue.
// It is owned by the lifecycle manager and is orthogonal to ReviewState.
type ActivationStatus string

const (
	StatusActive    ActivationStatus = "active"
	StatusDormant   ActivationStatus = "dormant"
	StatusSuspended ActivationStatus = "suspended"
)

// IsValid reports whether s is one of the declared activation statuses.
func (s ActivationStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusDormant, StatusSuspended:
		return true
	}
	return false
}

// ActivationTier records how a card most recently became active.
type ActivationTier string

const (
	TierInitial    ActivationTier = "initial"
	TierAuto       ActivationTier = "auto"
	TierUserManual ActivationTier = "user-manual"
)

// MaturityState is a coarse bucket derived from the scheduled interval length.
type MaturityState string

const (
	MaturityNew    MaturityState = "new"
	MaturityYoung  MaturityState = "young"
	MaturityMature MaturityState = "mature"
)

// MatureIntervalDays is the scheduled interval at which a card counts as mature.
const MatureIntervalDays = 21.0

// MaturityFor derives the maturity bucket from a scheduled interval and review count.
func MaturityFor(scheduledDays float64, reps int) MaturityState {
	if reps == 0 || scheduledDays <= 0 {
		return MaturityNew
	}
	if scheduledDays >= MatureIntervalDays {
		return MaturityMature
	}
	return MaturityYoung
}

// Reasons is an ordered list of free-text activation justifications.
// It serializes as JSON text in the relational layer.
type Reasons []string

// Value implements driver.Valuer.
func (r Reasons) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal activation reasons: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (r *Reasons) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*r = nil
		return nil
	case string:
		if v == "" {
			*r = nil
			return nil
		}
		return json.Unmarshal([]byte(v), r)
	case []byte:
		if len(v) == 0 {
			*r = nil
			return nil
		}
		return json.Unmarshal(v, r)
	}
	return fmt.Errorf("scan activation reasons: unsupported type %T", src)
}

// Card represents one reviewable unit derived from a knowledge record.
type Card struct {
	ID             string           `db:"id"`
	RecordID       string           `db:"record_id"`
	TopicID        string           `db:"topic_id"`
	BlockID        string           `db:"block_id"`
	CardType       string           `db:"card_type"`
	Front          string           `db:"front"`
	Back           string           `db:"back"`
	IsGoldenTicket bool             `db:"is_golden_ticket"`
	ReviewState    ReviewState      `db:"review_state"`
	LearningStep   *int             `db:"learning_step"`
	Status         ActivationStatus `db:"activation_status"`
	Tier           ActivationTier   `db:"activation_tier"`
	Reasons        Reasons          `db:"activation_reasons"`
	SuspendReason  string           `db:"suspend_reason"`
	SuspendedAt    *time.Time       `db:"suspended_at"`
	Maturity       MaturityState    `db:"maturity_state"`

	// Forgetting model parameters. Stability and Difficulty are zero until
	// the first review initializes them.
	Stability     float64 `db:"stability"`
	Difficulty    float64 `db:"difficulty"`
	ElapsedDays   float64 `db:"elapsed_days"`
	ScheduledDays float64 `db:"scheduled_days"`
	Reps          int     `db:"reps"`
	Lapses        int     `db:"lapses"`

	DueDate        *time.Time `db:"due_date"`
	LastReview     *time.Time `db:"last_review"`
	ActivatedAt    *time.Time `db:"activated_at"`
	RetiredAt      *time.Time `db:"retired_at"`
	ResurrectCount int        `db:"resurrect_count"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// LeechSuspendThreshold is the lapse count at which an active card is
// automatically suspended. This is the authoritative threshold; the looser
// display heuristic lives in AtRiskForDisplay.
const LeechSuspendThreshold = 6

// ShouldAutoSuspend reports whether the card qualifies for automatic leech
// suspension. Only active cards are ever auto-suspended.
func (c *Card) ShouldAutoSuspend() bool {
	return c.Status == StatusActive && c.Lapses >= LeechSuspendThreshold
}

// AtRiskForDisplay reports whether the card should be flagged as a likely
// leech in listings. Deliberately more sensitive than ShouldAutoSuspend and
// never used to trigger a suspension.
func (c *Card) AtRiskForDisplay() bool {
	if c.Lapses >= 5 {
		return true
	}
	if c.Lapses >= 3 && normalizedDifficulty(c.Difficulty) > 0.7 {
		return true
	}
	return c.Reps >= 5 && c.Stability > 0 && c.Stability < 7
}

// normalizedDifficulty maps the model's 1..10 difficulty to 0..1.
func normalizedDifficulty(d float64) float64 {
	if d <= 1 {
		return 0
	}
	return (d - 1) / 9
}

// ReviewLogEntry is an append-only record of one review event.
type ReviewLogEntry struct {
	ID                   int64       `db:"id"`
	CardID               string      `db:"card_id"`
	Rating               int         `db:"rating"`
	ReviewState          ReviewState `db:"review_state"`
	ScheduledDays        float64     `db:"scheduled_days"`
	ElapsedDays          float64     `db:"elapsed_days"`
	ResponseTimeMs       *int64      `db:"response_time_ms"`
	ResponseTimeModifier float64     `db:"response_time_modifier"`
	ReviewedAt           time.Time   `db:"reviewed_at"`
}
