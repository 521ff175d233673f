package main

import (
	"context"
	"fmt"

	"github.com/jonathan/context-matcher/internal/config"
	"github.com/jonathan/context-matcher/internal/db"
	"github.com/jonathan/context-matcher/internal/llm"
	"github.com/jonathan/context-matcher/internal/logging"
)

// loadSettings resolves the config file, environment and global flags into one Config
func loadSettings() (config.Config, error) {
	cfg := &config.Config{}
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	settings := cfg.MergeWithDefaults(config.Config{})
	if verbose {
		settings.Verbose = true
	}
	return settings, nil
}

func newLogger(settings config.Config) (*logging.Logger, error) {
	logger, err := logging.New(settings.LogMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

func connectDB(ctx context.Context, settings config.Config) (*db.DB, error) {
	if settings.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL is required: set DATABASE_URL or database_url in the config file")
	}
	database, err := db.Connect(ctx, settings.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return database, nil
}

func newLLMClient(ctx context.Context, settings config.Config) (llm.Client, error) {
	if settings.APIKey == "" {
		return nil, fmt.Errorf("API key is required: set GEMINI_API_KEY or api_key in the config file")
	}
	llmConfig := llm.DefaultConfig().WithEmbeddingModel(settings.EmbeddingModel)
	client, err := llm.NewClient(ctx, llmConfig, settings.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return client, nil
}
