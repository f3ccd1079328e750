package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Dogebooch/doughub/internal/database"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
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
			defer func() { _ = db.Close() }()

			if err := database.Migrate(ctx, db); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			fmt.Println("database is up to date")
			return nil
		},
	}
}
