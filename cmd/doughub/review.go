package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dogebooch/doughub/internal/bootstrap"
	"github.com/Dogebooch/doughub/internal/card"
	"github.com/Dogebooch/doughub/internal/cli"
	"github.com/Dogebooch/doughub/internal/scheduler"
)

func newReviewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Review all due cards interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}

			app := bootstrap.New()
			app.AddShutdownHook(func(ctx context.Context) error {
				return db.Close()
			})

			model, err := newModel(cfg)
			if err != nil {
				return err
			}

			cardRepo := card.NewDBRepository(db)
			logRepo := card.NewDBLogRepository(db)
			counterRepo := scheduler.NewDBCounterRepository(db)
			sched := scheduler.New(db, model, cardRepo, logRepo, counterRepo)
			lifecycle := card.NewLifecycleManager(db, cardRepo)

			session := cli.NewReviewSession(sched, lifecycle, cardRepo, os.Stdin, os.Stdout)
			return app.Run(ctx, session.Run)
		},
	}
}
