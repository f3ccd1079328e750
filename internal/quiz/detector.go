package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Dogebooch/doughub/internal/card"
	"github.com/Dogebooch/doughub/internal/content"
	"github.com/Dogebooch/doughub/internal/inference"
)

const (
	// EntryQuizMinInterval is the minimum gap since the last visit before a
	// returning visit warrants a retention probe.
	EntryQuizMinInterval = 7 * 24 * time.Hour

	// correctIntakeBoost is added to a block's priority score when its most
	// recent intake quiz was answered correctly.
	correctIntakeBoost = 20.0

	// MaxQuizBlocks caps how many blocks one entry quiz probes.
	MaxQuizBlocks = 5

	// ReactivationReason is stamped on cards revived by the entry quiz.
	ReactivationReason = "forgotten in topic entry quiz"
)

// PromptDecision is the outcome of the entry-quiz gate.
type PromptDecision struct {
	ShouldPrompt   bool
	DaysSinceVisit float64
}

// Detector decides when a returning topic visit warrants a retention probe,
// runs the probe, and reactivates dormant cards for forgotten blocks.
type Detector struct {
	visits    VisitRepository
	attempts  AttemptRepository
	blocks    content.Repository
	cards     card.Repository
	lifecycle *card.LifecycleManager
	client    inference.Client
}

// NewDetector creates a Detector.
func NewDetector(
	visits VisitRepository,
	attempts AttemptRepository,
	blocks content.Repository,
	cards card.Repository,
	lifecycle *card.LifecycleManager,
	client inference.Client,
) *Detector {
	return &Detector{
		visits:    visits,
		attempts:  attempts,
		blocks:    blocks,
		cards:     cards,
		lifecycle: lifecycle,
		client:    client,
	}
}

// ShouldPromptEntryQuiz reports whether the topic's returning visit warrants
// a retention probe. A topic never visited before does not prompt.
func (d *Detector) ShouldPromptEntryQuiz(ctx context.Context, topicID string, now time.Time) (PromptDecision, error) {
	visit, err := d.visits.Find(ctx, topicID)
	if err != nil {
		return PromptDecision{}, err
	}
	if visit == nil {
		// First visit is exempt.
		return PromptDecision{}, nil
	}

	elapsed := now.Sub(visit.LastVisitedAt)
	return PromptDecision{
		ShouldPrompt:   elapsed >= EntryQuizMinInterval,
		DaysSinceVisit: elapsed.Hours() / 24.0,
	}, nil
}

// UpdateLastVisited stamps the topic's visit time. Called once the user
// proceeds past (or skips) the prompt.
func (d *Detector) UpdateLastVisited(ctx context.Context, topicID string, now time.Time) error {
	return d.visits.Upsert(ctx, topicID, now)
}

// SelectQuizBlocks picks up to MaxQuizBlocks content blocks to probe, ranked
// by priority score with a boost for blocks whose intake quiz was answered
// correctly. When no block qualifies, the first blocks of the topic are used
// unranked.
func (d *Detector) SelectQuizBlocks(ctx context.Context, topicID string) ([]content.Block, error) {
	blocks, err := d.blocks.FindByTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}

	qualified := make([]content.Block, 0, len(blocks))
	for _, b := range blocks {
		if b.PriorityScore > 0 && b.CardCount > 0 {
			qualified = append(qualified, b)
		}
	}

	if len(qualified) == 0 {
		// Fallback: first blocks in document order.
		if len(blocks) > MaxQuizBlocks {
			blocks = blocks[:MaxQuizBlocks]
		}
		return blocks, nil
	}

	sort.SliceStable(qualified, func(i, j int) bool {
		return selectionScore(qualified[i]) > selectionScore(qualified[j])
	})
	if len(qualified) > MaxQuizBlocks {
		qualified = qualified[:MaxQuizBlocks]
	}
	return qualified, nil
}

func selectionScore(b content.Block) float64 {
	score := b.PriorityScore
	if b.LastIntakeResult == content.IntakeResultCorrect {
		score += correctIntakeBoost
	}
	return score
}

// AnswerFunc supplies the user's answer to a generated question. Returning
// skip records the attempt as skipped.
type AnswerFunc func(question string) (answer string, skip bool, err error)

// ProbeBlock generates a question for one block, collects and grades the
// answer, and records the attempt. Any failure of the external capability is
// treated as ungraded: the attempt is scored incorrect and flagged, never
// silently dropped.
func (d *Detector) ProbeBlock(ctx context.Context, topicTitle string, block content.Block, daysSinceVisit float64, answer AnswerFunc) (*Attempt, error) {
	attempt := &Attempt{
		ID:                 uuid.NewString(),
		TopicID:            block.TopicID,
		BlockID:            block.ID,
		AttemptedAt:        time.Now(),
		DaysSinceLastVisit: daysSinceVisit,
	}

	question, err := d.client.GenerateQuestion(ctx, inference.GenerateQuestionRequest{
		TopicTitle: topicTitle,
		BlockTitle: block.Title,
		BlockBody:  block.Body,
	})
	if err != nil {
		slog.Default().Warn("question generation failed, scoring attempt incorrect",
			slog.String("blockID", block.ID),
			slog.Any("error", err),
		)
		attempt.QuestionText = "(question generation failed)"
		return attempt, d.attempts.Create(ctx, attempt)
	}
	attempt.QuestionText = question.Question

	userAnswer, skip, err := answer(question.Question)
	if err != nil {
		return nil, fmt.Errorf("collect answer: %w", err)
	}
	if skip {
		// Skips count as incorrect for reactivation, tagged for analytics.
		attempt.Skipped = true
		return attempt, d.attempts.Create(ctx, attempt)
	}

	grade, err := d.client.GradeAnswer(ctx, inference.GradeAnswerRequest{
		Question:        question.Question,
		ReferenceAnswer: question.ReferenceAnswer,
		UserAnswer:      userAnswer,
	})
	if err != nil {
		slog.Default().Warn("grading failed, scoring attempt incorrect",
			slog.String("blockID", block.ID),
			slog.Any("error", err),
		)
		return attempt, d.attempts.Create(ctx, attempt)
	}

	attempt.IsCorrect = grade.Correct
	return attempt, d.attempts.Create(ctx, attempt)
}

// GetForgottenBlockIDs returns the distinct block ids with at least one
// incorrect quiz attempt, optionally filtered by recency.
func (d *Detector) GetForgottenBlockIDs(ctx context.Context, topicID string, since *time.Time) ([]string, error) {
	return d.attempts.FindIncorrectBlockIDs(ctx, topicID, since)
}

// ReactivateForgotten activates the dormant cards of every forgotten block.
// This is the sole path by which a dormant card returns to active without
// direct user action. A failure on one block does not block the others.
func (d *Detector) ReactivateForgotten(ctx context.Context, topicID string, since *time.Time) ([]string, error) {
	blockIDs, err := d.GetForgottenBlockIDs(ctx, topicID, since)
	if err != nil {
		return nil, err
	}

	var activated []string
	var errs []error
	for _, blockID := range blockIDs {
		cards, err := d.cards.FindByBlock(ctx, blockID)
		if err != nil {
			errs = append(errs, fmt.Errorf("block %s: %w", blockID, err))
			continue
		}
		for i := range cards {
			if cards[i].Status != card.StatusDormant {
				continue
			}
			if _, err := d.lifecycle.Activate(ctx, cards[i].ID, card.TierAuto, []string{ReactivationReason}); err != nil {
				errs = append(errs, fmt.Errorf("activate card %s: %w", cards[i].ID, err))
				continue
			}
			activated = append(activated, cards[i].ID)
		}
	}
	return activated, errors.Join(errs...)
}
