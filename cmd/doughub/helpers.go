package main

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Dogebooch/doughub/internal/config"
	"github.com/Dogebooch/doughub/internal/database"
	"github.com/Dogebooch/doughub/internal/scheduler"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func openDatabase(cfg *config.Config) (*sqlx.DB, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func newModel(cfg *config.Config) (*scheduler.Model, error) {
	model, err := scheduler.NewModel(scheduler.ModelConfig{
		DesiredRetention:    cfg.Scheduler.DesiredRetention,
		MaximumIntervalDays: cfg.Scheduler.MaximumIntervalDays,
	})
	if err != nil {
		return nil, fmt.Errorf("build forgetting model: %w", err)
	}
	return model, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}
