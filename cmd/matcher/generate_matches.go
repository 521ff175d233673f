package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/context-matcher/internal/db"
	"github.com/jonathan/context-matcher/internal/embedding"
	"github.com/jonathan/context-matcher/internal/explain"
	"github.com/jonathan/context-matcher/internal/llm"
	"github.com/jonathan/context-matcher/internal/logging"
	"github.com/jonathan/context-matcher/internal/matching"
	"github.com/jonathan/context-matcher/internal/observability"
	"github.com/jonathan/context-matcher/internal/types"
)

var generateMatchesCmd = &cobra.Command{
	Use:   "generate-matches",
	Short: "Find and explain the best matches for a stored user",
	Long: `Loads the user's profile from the database, gathers candidates that have an embedding,
are complete enough and have not already been matched with the user, counts shared
communities, ranks the pool and explains each match. Results are printed, not stored.`,
	RunE: runGenerateMatches,
}

var (
	generateMatchesUserID string
	generateMatchesLimit  int
	generateMatchesOutput string
)

func init() {
	generateMatchesCmd.Flags().StringVar(&generateMatchesUserID, "user-id", "", "User ID (UUID) to find matches for (required)")
	generateMatchesCmd.Flags().IntVarP(&generateMatchesLimit, "limit", "n", 0, "Maximum matches to return (default from config, 10)")
	generateMatchesCmd.Flags().StringVarP(&generateMatchesOutput, "out", "o", "", "Path to output MatchResults JSON file (default stdout)")

	if err := generateMatchesCmd.MarkFlagRequired("user-id"); err != nil {
		panic(fmt.Sprintf("failed to mark user-id flag as required: %v", err))
	}

	rootCmd.AddCommand(generateMatchesCmd)
}

// matchStore is the slice of the database the match workflow reads
type matchStore interface {
	GetContextWindow(ctx context.Context, userID string) (*types.ContextWindow, error)
	MatchedUserIDs(ctx context.Context, userID string) ([]string, error)
	ListCandidates(ctx context.Context, excludeIDs []string, minCompleteness float64) ([]types.ContextWindow, error)
	SharedCommunityCounts(ctx context.Context, userID string, candidateIDs []string) (map[string]int, error)
	UpdateEmbedding(ctx context.Context, userID string, embedding []float64) error
}

var _ matchStore = (*db.DB)(nil)

func runGenerateMatches(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	limit := settings.Limit
	if cmd.Flags().Changed("limit") {
		limit = generateMatchesLimit
	}
	if limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}

	logger, err := newLogger(settings)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	database, err := connectDB(ctx, settings)
	if err != nil {
		return err
	}
	defer database.Close()

	// Without an API key matches are still ranked, with signal labels for reasons
	var client llm.Client
	if settings.APIKey != "" {
		client, err = newLLMClient(ctx, settings)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
	} else {
		logger.Warn("no API key configured, match reasons will not be generated")
	}

	results, err := generateMatches(ctx, database, client, logger, generateMatchesUserID, limit, settings.Workers)
	if err != nil {
		return err
	}

	if settings.Verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintTopMatches(results)
	}
	if err := writeJSONOutput(cmd.OutOrStdout(), generateMatchesOutput, results); err != nil {
		return err
	}
	checkResults(generateMatchesOutput, cmd.ErrOrStderr())
	return nil
}

// generateMatches runs the stored-profile match workflow. client may be nil, in which case
// a missing user embedding is left missing and reasons are the strongest signal labels.
func generateMatches(ctx context.Context, store matchStore, client llm.Client, logger *logging.Logger, userID string, limit, workers int) (*types.MatchResults, error) {
	user, err := store.GetContextWindow(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load context window: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("context window not found for user %s", userID)
	}

	if !user.HasEmbedding() && client != nil {
		vector, err := embedding.NewService(client).Embed(ctx, user)
		if err != nil {
			logger.Warn("could not embed user context, semantic similarity will be 0", "user_id", userID, "error", err)
		} else {
			user.Embedding = vector
			if err := store.UpdateEmbedding(ctx, userID, vector); err != nil {
				logger.Warn("failed to store user embedding", "user_id", userID, "error", err)
			}
		}
	}

	matched, err := store.MatchedUserIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing matches: %w", err)
	}
	exclude := append([]string{userID}, matched...)

	candidates, err := store.ListCandidates(ctx, exclude, types.MinCandidateCompleteness)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}
	logger.Info("loaded candidates", "user_id", userID, "candidates", len(candidates), "excluded", len(exclude))

	results := &types.MatchResults{UserID: userID, Matches: []types.MatchScore{}}
	if len(candidates) == 0 {
		return results, nil
	}

	candidateIDs := make([]string, len(candidates))
	for i := range candidates {
		candidateIDs[i] = candidates[i].UserID
	}
	shared, err := store.SharedCommunityCounts(ctx, userID, candidateIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count shared communities: %w", err)
	}

	matches, err := matching.FindTopMatchesConcurrent(ctx, user, candidates, shared, limit, workers)
	if err != nil {
		return nil, fmt.Errorf("failed to rank candidates: %w", err)
	}

	if client != nil {
		explain.NewExplainer(client, logger).Annotate(ctx, user, matches, profileIndex(candidates))
	} else {
		for i := range matches {
			matches[i].Reason = matching.PrimaryMatchReason(matches[i].Breakdown)
		}
	}

	logger.Info("generated matches", "user_id", userID, "matches", len(matches))
	results.Matches = matches
	return results, nil
}
