package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/context-matcher/internal/matching"
	"github.com/jonathan/context-matcher/internal/observability"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one candidate profile against a user profile",
	Long:  "Computes the five-signal match score of a candidate ContextWindow against a user ContextWindow and writes the MatchScore JSON.",
	RunE:  runScore,
}

var (
	scoreUser      string
	scoreCandidate string
	scoreShared    int
	scoreOutput    string
)

func init() {
	scoreCmd.Flags().StringVarP(&scoreUser, "user", "u", "", "Path to the user's ContextWindow JSON file (required)")
	scoreCmd.Flags().StringVarP(&scoreCandidate, "candidate", "c", "", "Path to the candidate's ContextWindow JSON file (required)")
	scoreCmd.Flags().IntVar(&scoreShared, "shared", 0, "Number of communities the two users share")
	scoreCmd.Flags().StringVarP(&scoreOutput, "out", "o", "", "Path to output MatchScore JSON file (default stdout)")

	if err := scoreCmd.MarkFlagRequired("user"); err != nil {
		panic(fmt.Sprintf("failed to mark user flag as required: %v", err))
	}
	if err := scoreCmd.MarkFlagRequired("candidate"); err != nil {
		panic(fmt.Sprintf("failed to mark candidate flag as required: %v", err))
	}

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	if scoreShared < 0 {
		return fmt.Errorf("--shared must not be negative")
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	user, err := loadProfile(scoreUser, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	candidate, err := loadProfile(scoreCandidate, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	score, err := matching.CalculateMatchScore(user, candidate, scoreShared)
	if err != nil {
		return fmt.Errorf("failed to score candidate %s: %w", candidate.UserID, err)
	}
	score.Reason = matching.PrimaryMatchReason(score.Breakdown)

	if settings.Verbose {
		printer := observability.NewPrinter(cmd.ErrOrStderr())
		printer.PrintContextWindow(user)
		printer.PrintContextWindow(candidate)
		printer.PrintMatchScore(score)
	}

	if err := writeJSONOutput(cmd.OutOrStdout(), scoreOutput, score); err != nil {
		return err
	}
	if scoreOutput != "" {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Scored %s against %s: %.3f, written to %s\n", candidate.UserID, user.UserID, score.TotalScore, scoreOutput)
	}
	return nil
}
