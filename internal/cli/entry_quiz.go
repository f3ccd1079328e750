package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/Dogebooch/doughub/internal/quiz"
)

// EntryQuizSession runs the short free-recall quiz shown when entering a
// topic after a long absence.
type EntryQuizSession struct {
	detector    *quiz.Detector
	stdinReader *bufio.Reader
	out         io.Writer
}

func NewEntryQuizSession(detector *quiz.Detector, in io.Reader, out io.Writer) *EntryQuizSession {
	return &EntryQuizSession{
		detector:    detector,
		stdinReader: bufio.NewReader(in),
		out:         out,
	}
}

// Run checks whether the topic warrants an entry quiz and, if so, probes a
// handful of its blocks and reactivates cards for the ones the user has
// forgotten. The last-visited timestamp is always refreshed.
func (s *EntryQuizSession) Run(ctx context.Context, topicID string, topicTitle string) error {
	decision, err := s.detector.ShouldPromptEntryQuiz(ctx, topicID, time.Now())
	if err != nil {
		return err
	}
	if !decision.ShouldPrompt {
		return s.detector.UpdateLastVisited(ctx, topicID, time.Now())
	}

	fmt.Fprintf(s.out, "It has been %.0f days since you last visited this topic.\n", decision.DaysSinceVisit)
	fmt.Fprint(s.out, "Take a quick recall quiz? [Y/n] ")
	line, err := s.stdinReader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read quiz prompt input: %w", err)
	}
	if answer := strings.ToLower(strings.TrimSpace(line)); answer == "n" || answer == "no" {
		return s.detector.UpdateLastVisited(ctx, topicID, time.Now())
	}

	blocks, err := s.detector.SelectQuizBlocks(ctx, topicID)
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		fmt.Fprintln(s.out, "Nothing to quiz on yet in this topic.")
		return s.detector.UpdateLastVisited(ctx, topicID, time.Now())
	}

	sessionStart := time.Now()
	for i, block := range blocks {
		fmt.Fprintf(s.out, "\nQuestion %d of %d (%s)\n", i+1, len(blocks), block.Title)
		attempt, err := s.detector.ProbeBlock(ctx, topicTitle, block, decision.DaysSinceVisit, s.answerBlock)
		if err != nil {
			return err
		}
		switch {
		case attempt.Skipped:
			fmt.Fprintln(s.out, "Skipped, counted as forgotten.")
		case attempt.IsCorrect:
			color.New(color.FgGreen).Fprintln(s.out, "Correct.")
		default:
			color.New(color.FgRed).Fprintln(s.out, "Not quite.")
		}
	}

	reactivated, err := s.detector.ReactivateForgotten(ctx, topicID, &sessionStart)
	if err != nil {
		return err
	}
	if len(reactivated) > 0 {
		color.New(color.FgYellow).Fprintf(s.out, "\nReactivated %d cards for the blocks you missed.\n", len(reactivated))
	} else {
		fmt.Fprintln(s.out, "\nNo dormant cards needed reactivating. Nice recall.")
	}

	return s.detector.UpdateLastVisited(ctx, topicID, time.Now())
}

// answerBlock prints the generated question and collects a free-text answer.
// An empty line or "skip" skips the question.
func (s *EntryQuizSession) answerBlock(question string) (answer string, skipped bool, err error) {
	color.New(color.FgCyan).Fprintln(s.out, question)
	fmt.Fprint(s.out, "> ")
	line, err := s.stdinReader.ReadString('\n')
	if err != nil {
		return "", false, fmt.Errorf("read quiz answer: %w", err)
	}
	answer = strings.TrimSpace(line)
	if answer == "" || strings.EqualFold(answer, "skip") {
		return "", true, nil
	}
	return answer, false, nil
}
