package matching

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/context-matcher/internal/types"
)

// FindTopMatches scores every candidate except the user themself and returns those at or above
// MatchThreshold, highest first, at most limit of them. Candidates with equal scores keep their
// order from the pool. sharedCommunities maps candidate id to shared-community count; missing ids count as 0.
func FindTopMatches(user *types.ContextWindow, candidates []types.ContextWindow, sharedCommunities map[string]int, limit int) ([]types.MatchScore, error) {
	scores := make([]types.MatchScore, 0, len(candidates))
	for i := range candidates {
		candidate := &candidates[i]
		if candidate.UserID == user.UserID {
			continue
		}

		score, err := CalculateMatchScore(user, candidate, sharedCommunities[candidate.UserID])
		if err != nil {
			return nil, fmt.Errorf("failed to score candidate %s: %w", candidate.UserID, err)
		}
		if score.TotalScore >= MatchThreshold {
			scores = append(scores, *score)
		}
	}

	return selectTop(scores, limit), nil
}

// FindTopMatchesConcurrent is FindTopMatches with candidates scored on up to workers goroutines.
// Results, including their order, are identical to FindTopMatches for the same input.
func FindTopMatchesConcurrent(ctx context.Context, user *types.ContextWindow, candidates []types.ContextWindow, sharedCommunities map[string]int, limit, workers int) ([]types.MatchScore, error) {
	if workers < 1 {
		workers = 1
	}

	// One slot per candidate so pool order survives the fan-out
	slots := make([]*types.MatchScore, len(candidates))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range candidates {
		candidate := &candidates[i]
		if candidate.UserID == user.UserID {
			continue
		}

		if gCtx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			score, err := CalculateMatchScore(user, candidate, sharedCommunities[candidate.UserID])
			if err != nil {
				return fmt.Errorf("failed to score candidate %s: %w", candidate.UserID, err)
			}
			slots[i] = score
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scores := make([]types.MatchScore, 0, len(candidates))
	for _, score := range slots {
		if score != nil && score.TotalScore >= MatchThreshold {
			scores = append(scores, *score)
		}
	}

	return selectTop(scores, limit), nil
}

// selectTop stable-sorts scores by total descending and truncates to limit
func selectTop(scores []types.MatchScore, limit int) []types.MatchScore {
	if limit <= 0 {
		return []types.MatchScore{}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].TotalScore > scores[j].TotalScore
	})

	if len(scores) > limit {
		scores = scores[:limit]
	}
	return scores
}

// PrimaryMatchReason returns the label of the strongest signal in a breakdown.
// Ties go to the signal declared first.
func PrimaryMatchReason(b types.Breakdown) string {
	top := Signals[0]
	for _, s := range Signals[1:] {
		if signalValue(b, s) > signalValue(b, top) {
			top = s
		}
	}
	return top.Label()
}
