// Package config loads and validates application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
}

type DatabaseConfig struct {
	Path            string `mapstructure:"path" validate:"required"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

type SchedulerConfig struct {
	DesiredRetention    float64 `mapstructure:"desired_retention" validate:"gt=0,lte=1"`
	MaximumIntervalDays int     `mapstructure:"maximum_interval_days" validate:"gt=0"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/doughub")
	}

	v.SetDefault("database.path", defaultDatabasePath())
	v.SetDefault("scheduler.desired_retention", 0.9)
	v.SetDefault("scheduler.maximum_interval_days", 36500)
	v.SetDefault("openai.model", "gpt-4o-mini")

	// Bind OpenAI config to environment variables only (not from config file)
	if err := v.BindEnv("openai.api_key", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("openai.model", "OPENAI_MODEL"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_MODEL environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "doughub.db"
	}
	return filepath.Join(dir, "doughub", "doughub.db")
}
