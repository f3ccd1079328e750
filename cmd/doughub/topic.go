package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dogebooch/doughub/internal/bootstrap"
	"github.com/Dogebooch/doughub/internal/card"
	"github.com/Dogebooch/doughub/internal/cli"
	"github.com/Dogebooch/doughub/internal/content"
	"github.com/Dogebooch/doughub/internal/inference"
	"github.com/Dogebooch/doughub/internal/inference/openai"
	"github.com/Dogebooch/doughub/internal/quiz"
)

func newTopicCommand() *cobra.Command {
	topicCmd := &cobra.Command{
		Use:   "topic",
		Short: "Topic-level study flows",
	}

	topicCmd.AddCommand(newTopicEnterCommand())
	return topicCmd
}

func newTopicEnterCommand() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "enter [topic-id]",
		Short: "Enter a topic, running the recall quiz if it has been a while",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			topicID := args[0]

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.OpenAI.APIKey == "" {
				return fmt.Errorf("an OpenAI API key is required for the entry quiz")
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}

			client := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, inference.DefaultMaxRetryAttempts)

			app := bootstrap.New()
			app.AddShutdownHook(func(ctx context.Context) error {
				return client.Close()
			})
			app.AddShutdownHook(func(ctx context.Context) error {
				return db.Close()
			})

			cardRepo := card.NewDBRepository(db)
			detector := quiz.NewDetector(
				quiz.NewDBVisitRepository(db),
				quiz.NewDBAttemptRepository(db),
				content.NewDBRepository(db),
				cardRepo,
				card.NewLifecycleManager(db, cardRepo),
				client,
			)

			if title == "" {
				title = topicID
			}
			session := cli.NewEntryQuizSession(detector, os.Stdin, os.Stdout)
			return app.Run(ctx, func(ctx context.Context) error {
				return session.Run(ctx, topicID, title)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "topic title shown to the question model")
	return cmd
}
