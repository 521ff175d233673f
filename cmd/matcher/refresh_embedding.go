package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/context-matcher/internal/db"
	"github.com/jonathan/context-matcher/internal/embedding"
	"github.com/jonathan/context-matcher/internal/llm"
	"github.com/jonathan/context-matcher/internal/types"
)

var refreshEmbeddingCmd = &cobra.Command{
	Use:   "refresh-embedding",
	Short: "Recompute and store a user's context embedding",
	Long:  "Builds the context text of a stored profile, embeds it with the configured embedding model and stores the vector and the profile completeness.",
	RunE:  runRefreshEmbedding,
}

var refreshEmbeddingUserID string

func init() {
	refreshEmbeddingCmd.Flags().StringVar(&refreshEmbeddingUserID, "user-id", "", "User ID (UUID) whose embedding should be refreshed (required)")

	if err := refreshEmbeddingCmd.MarkFlagRequired("user-id"); err != nil {
		panic(fmt.Sprintf("failed to mark user-id flag as required: %v", err))
	}

	rootCmd.AddCommand(refreshEmbeddingCmd)
}

// embeddingStore is the slice of the database the refresh workflow touches
type embeddingStore interface {
	GetContextWindow(ctx context.Context, userID string) (*types.ContextWindow, error)
	UpdateEmbedding(ctx context.Context, userID string, embedding []float64) error
	UpdateCompleteness(ctx context.Context, userID string, completeness float64) error
}

var _ embeddingStore = (*db.DB)(nil)

func runRefreshEmbedding(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	database, err := connectDB(ctx, settings)
	if err != nil {
		return err
	}
	defer database.Close()

	client, err := newLLMClient(ctx, settings)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	dims, err := refreshEmbedding(ctx, database, client, refreshEmbeddingUserID)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated embedding for %s (%d dimensions)\n", refreshEmbeddingUserID, dims)
	return nil
}

// refreshEmbedding embeds and stores one profile, returning the vector length
func refreshEmbedding(ctx context.Context, store embeddingStore, embedder llm.Embedder, userID string) (int, error) {
	cw, err := store.GetContextWindow(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load context window: %w", err)
	}
	if cw == nil {
		return 0, fmt.Errorf("context window not found for user %s", userID)
	}

	vector, err := embedding.NewService(embedder).Embed(ctx, cw)
	if err != nil {
		return 0, fmt.Errorf("failed to refresh embedding: %w", err)
	}

	if err := store.UpdateEmbedding(ctx, userID, vector); err != nil {
		return 0, err
	}
	if err := store.UpdateCompleteness(ctx, userID, cw.Completeness()); err != nil {
		return 0, err
	}
	return len(vector), nil
}
