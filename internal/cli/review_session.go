// Package cli provides the interactive terminal sessions over the core
// services.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/Dogebooch/doughub/internal/card"
	"github.com/Dogebooch/doughub/internal/scheduler"
)

// ReviewSession manages the interactive CLI session for reviewing due cards.
type ReviewSession struct {
	scheduler   *scheduler.Scheduler
	lifecycle   *card.LifecycleManager
	cards       card.Repository
	stdinReader *bufio.Reader
	out         io.Writer
}

// NewReviewSession creates a review session reading answers from in and
// writing to out.
func NewReviewSession(
	sched *scheduler.Scheduler,
	lifecycle *card.LifecycleManager,
	cards card.Repository,
	in io.Reader,
	out io.Writer,
) *ReviewSession {
	return &ReviewSession{
		scheduler:   sched,
		lifecycle:   lifecycle,
		cards:       cards,
		stdinReader: bufio.NewReader(in),
		out:         out,
	}
}

// Run reviews all currently due cards, one at a time, until the queue is
// empty or the user quits.
func (s *ReviewSession) Run(ctx context.Context) error {
	dueCards, err := s.cards.FindDue(ctx, time.Now())
	if err != nil {
		return err
	}
	if len(dueCards) == 0 {
		fmt.Fprintln(s.out, "No cards due. Nothing to review.")
		return nil
	}

	fmt.Fprintf(s.out, "%d cards due.\n\n", len(dueCards))
	for i := range dueCards {
		quit, err := s.reviewOne(ctx, &dueCards[i])
		if err != nil {
			return err
		}
		if quit {
			fmt.Fprintln(s.out, "Review session ended.")
			return nil
		}
	}

	color.New(color.FgGreen).Fprintln(s.out, "All done!")
	return nil
}

func (s *ReviewSession) reviewOne(ctx context.Context, c *card.Card) (quit bool, err error) {
	color.New(color.FgCyan, color.Bold).Fprintln(s.out, c.Front)
	fmt.Fprint(s.out, "[press enter to reveal, q to quit] ")

	started := time.Now()
	line, err := s.stdinReader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("read reveal input: %w", err)
	}
	if strings.TrimSpace(line) == "q" {
		return true, nil
	}
	responseTimeMs := time.Since(started).Milliseconds()

	fmt.Fprintln(s.out, c.Back)
	fmt.Fprintln(s.out)

	previews, err := s.scheduler.GetIntervalPreviews(ctx, c.ID, time.Now())
	if err != nil {
		return false, err
	}
	for _, r := range scheduler.AllRatings {
		fmt.Fprintf(s.out, "  %d (%s): %s", int(r), r, formatInterval(previews[r].ScheduledDays))
	}
	fmt.Fprintln(s.out)

	rating, quit, err := s.readRating()
	if err != nil || quit {
		return quit, err
	}

	result, err := s.scheduler.ScheduleReview(ctx, c.ID, rating, time.Now(), &responseTimeMs)
	if err != nil {
		return false, err
	}
	fmt.Fprintf(s.out, "Next review: %s\n\n", formatInterval(result.Card.ScheduledDays))

	if result.RecalibrationDue {
		color.New(color.FgYellow).Fprintln(s.out, "Enough reviews collected to recalibrate the scheduling model.")
	}

	suspended, err := s.lifecycle.CheckAndSuspendLeech(ctx, c.ID)
	if err != nil {
		return false, err
	}
	if suspended {
		color.New(color.FgRed).Fprintln(s.out, "This card keeps lapsing and was suspended as a leech.")
	}
	return false, nil
}

func (s *ReviewSession) readRating() (scheduler.Rating, bool, error) {
	for {
		fmt.Fprint(s.out, "Rating [1-4, q to quit]: ")
		line, err := s.stdinReader.ReadString('\n')
		if err != nil {
			return 0, false, fmt.Errorf("read rating input: %w", err)
		}
		input := strings.TrimSpace(line)
		if input == "q" || input == "quit" {
			return 0, true, nil
		}

		value, err := strconv.Atoi(input)
		if err != nil || !scheduler.Rating(value).IsValid() {
			fmt.Fprintln(s.out, "Please enter 1 (again), 2 (hard), 3 (good) or 4 (easy).")
			continue
		}
		return scheduler.Rating(value), false, nil
	}
}

// formatInterval renders a fractional-day interval in a human unit.
func formatInterval(days float64) string {
	switch {
	case days < 1.0/24:
		return fmt.Sprintf("%.0fm", days*24*60)
	case days < 1:
		return fmt.Sprintf("%.1fh", days*24)
	case days < 30:
		return fmt.Sprintf("%.0fd", days)
	default:
		return fmt.Sprintf("%.1fmo", days/30)
	}
}
