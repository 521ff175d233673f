package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/context-matcher/internal/explain"
	"github.com/jonathan/context-matcher/internal/matching"
	"github.com/jonathan/context-matcher/internal/observability"
	"github.com/jonathan/context-matcher/internal/types"
)

var topMatchesCmd = &cobra.Command{
	Use:   "top-matches",
	Short: "Rank a candidate pool for a user",
	Long: `Scores every candidate in a pool against the user, keeps those at or above the match
threshold and writes the highest scoring ones as MatchResults JSON. With --explain each match
gets an AI-written reason; otherwise the reason is the strongest signal.`,
	RunE: runTopMatches,
}

var (
	topMatchesUser        string
	topMatchesCandidates  string
	topMatchesCommunities string
	topMatchesLimit       int
	topMatchesWorkers     int
	topMatchesExplain     bool
	topMatchesOutput      string
)

func init() {
	topMatchesCmd.Flags().StringVarP(&topMatchesUser, "user", "u", "", "Path to the user's ContextWindow JSON file (required)")
	topMatchesCmd.Flags().StringVarP(&topMatchesCandidates, "candidates", "c", "", "Path to a JSON array of candidate ContextWindows (required)")
	topMatchesCmd.Flags().StringVarP(&topMatchesCommunities, "communities", "m", "", "Path to a JSON object of candidate id to shared community count")
	topMatchesCmd.Flags().IntVarP(&topMatchesLimit, "limit", "n", 0, "Maximum matches to return (default from config, 10)")
	topMatchesCmd.Flags().IntVar(&topMatchesWorkers, "workers", 0, "Goroutines used for scoring (default from config, 4)")
	topMatchesCmd.Flags().BoolVar(&topMatchesExplain, "explain", false, "Generate match reasons with the LLM (requires GEMINI_API_KEY)")
	topMatchesCmd.Flags().StringVarP(&topMatchesOutput, "out", "o", "", "Path to output MatchResults JSON file (default stdout)")

	if err := topMatchesCmd.MarkFlagRequired("user"); err != nil {
		panic(fmt.Sprintf("failed to mark user flag as required: %v", err))
	}
	if err := topMatchesCmd.MarkFlagRequired("candidates"); err != nil {
		panic(fmt.Sprintf("failed to mark candidates flag as required: %v", err))
	}

	rootCmd.AddCommand(topMatchesCmd)
}

func runTopMatches(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	limit := settings.Limit
	if cmd.Flags().Changed("limit") {
		limit = topMatchesLimit
	}
	if limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}
	workers := settings.Workers
	if cmd.Flags().Changed("workers") {
		workers = topMatchesWorkers
	}

	warn := cmd.ErrOrStderr()
	user, err := loadProfile(topMatchesUser, warn)
	if err != nil {
		return err
	}
	candidates, err := loadCandidates(topMatchesCandidates, warn)
	if err != nil {
		return err
	}
	shared, err := loadSharedCounts(topMatchesCommunities, warn)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	matches, err := matching.FindTopMatchesConcurrent(ctx, user, candidates, shared, limit, workers)
	if err != nil {
		return fmt.Errorf("failed to rank candidates: %w", err)
	}

	if topMatchesExplain {
		logger, err := newLogger(settings)
		if err != nil {
			return err
		}
		defer logger.Sync()

		client, err := newLLMClient(ctx, settings)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		explain.NewExplainer(client, logger).Annotate(ctx, user, matches, profileIndex(candidates))
	} else {
		for i := range matches {
			matches[i].Reason = matching.PrimaryMatchReason(matches[i].Breakdown)
		}
	}

	results := &types.MatchResults{UserID: user.UserID, Matches: matches}
	if settings.Verbose {
		observability.NewPrinter(warn).PrintTopMatches(results)
	}

	if err := writeJSONOutput(cmd.OutOrStdout(), topMatchesOutput, results); err != nil {
		return err
	}
	if topMatchesOutput != "" {
		checkResults(topMatchesOutput, warn)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Found %d matches among %d candidates, written to %s\n", len(matches), len(candidates), topMatchesOutput)
	}
	return nil
}

// profileIndex maps user id to profile for explanation lookups
func profileIndex(candidates []types.ContextWindow) map[string]*types.ContextWindow {
	index := make(map[string]*types.ContextWindow, len(candidates))
	for i := range candidates {
		index[candidates[i].UserID] = &candidates[i]
	}
	return index
}
