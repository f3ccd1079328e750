package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Dogebooch/doughub/internal/card"
	"github.com/Dogebooch/doughub/internal/database"
)

// Response-latency modifier policy. Fast recall earns a longer interval,
// slow recall a shorter one; unknown latency leaves the interval unchanged.
const (
	FastAnswerMs = 5000
	SlowAnswerMs = 15000

	FastModifier = 1.15
	SlowModifier = 0.85
)

// minScheduledDays floors the modified interval so due dates never collapse
// onto or before the review time. One minute, expressed in days.
const minScheduledDays = 1.0 / 1440.0

// LatencyModifier returns the interval modifier for a response latency.
// A nil or non-positive latency means the latency was not measured.
func LatencyModifier(responseTimeMs *int64) float64 {
	if responseTimeMs == nil || *responseTimeMs <= 0 {
		return 1.0
	}
	switch {
	case *responseTimeMs < FastAnswerMs:
		return FastModifier
	case *responseTimeMs > SlowAnswerMs:
		return SlowModifier
	default:
		return 1.0
	}
}

// Result is the outcome of one committed review.
type Result struct {
	Card     *card.Card
	Log      *card.ReviewLogEntry
	Previews map[Rating]Prediction

	// RecalibrationDue signals that the model parameters are eligible for
	// offline recalibration. The scheduler only emits the signal.
	RecalibrationDue bool
}

// Scheduler applies the forgetting model to cards and persists the outcome.
type Scheduler struct {
	db      *sqlx.DB
	model   *Model
	cards   card.Repository
	logs    card.LogRepository
	counter CounterRepository
}

// New creates a Scheduler.
func New(db *sqlx.DB, model *Model, cards card.Repository, logs card.LogRepository, counter CounterRepository) *Scheduler {
	return &Scheduler{db: db, model: model, cards: cards, logs: logs, counter: counter}
}

// ScheduleReview commits one review of a card: it selects the forgetting-model
// prediction for the rating, applies the latency modifier, and persists the
// updated card, the review log entry, and the counter increment as a single
// atomic unit. A failed commit leaves the card unchanged.
func (s *Scheduler) ScheduleReview(ctx context.Context, cardID string, rating Rating, reviewTime time.Time, responseTimeMs *int64) (*Result, error) {
	if !rating.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}

	c, err := s.cards.FindByID(ctx, cardID)
	if err != nil {
		return nil, err
	}

	previews := s.model.Forecast(*c, reviewTime)
	pred := previews[rating]

	modifier := LatencyModifier(responseTimeMs)
	scheduledDays := pred.ScheduledDays * modifier
	if scheduledDays < minScheduledDays {
		scheduledDays = minScheduledDays
	}

	var elapsedDays float64
	if c.LastReview != nil {
		elapsedDays = reviewTime.Sub(*c.LastReview).Hours() / 24.0
	}

	updated := *c
	updated.Stability = pred.Stability
	updated.Difficulty = pred.Difficulty
	updated.ElapsedDays = elapsedDays
	updated.ScheduledDays = scheduledDays
	updated.Reps = c.Reps + 1
	if c.ReviewState == card.ReviewStateReview && rating == Again {
		updated.Lapses = c.Lapses + 1
	}
	updated.ReviewState = pred.State
	updated.LearningStep = cloneStep(pred.Step)
	due := reviewTime.Add(time.Duration(scheduledDays * 24 * float64(time.Hour)))
	updated.DueDate = &due
	reviewedAt := reviewTime
	updated.LastReview = &reviewedAt
	updated.Maturity = card.MaturityFor(scheduledDays, updated.Reps)

	entry := &card.ReviewLogEntry{
		CardID:               cardID,
		Rating:               int(rating),
		ReviewState:          pred.State,
		ScheduledDays:        scheduledDays,
		ElapsedDays:          elapsedDays,
		ResponseTimeMs:       responseTimeMs,
		ResponseTimeModifier: modifier,
		ReviewedAt:           reviewTime,
	}

	var total int64
	err = database.RunInTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := s.cards.WithTx(tx).Update(ctx, &updated); err != nil {
			return err
		}
		if err := s.logs.WithTx(tx).Append(ctx, entry); err != nil {
			return err
		}
		var err error
		total, err = s.counter.WithTx(tx).Increment(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("commit review: %w", err)
	}

	return &Result{
		Card:             &updated,
		Log:              entry,
		Previews:         previews,
		RecalibrationDue: RecalibrationDue(total),
	}, nil
}

// GetIntervalPreviews exposes the four-way prediction for a card without
// committing a review.
func (s *Scheduler) GetIntervalPreviews(ctx context.Context, cardID string, now time.Time) (map[Rating]Prediction, error) {
	c, err := s.cards.FindByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	return s.model.Forecast(*c, now), nil
}
