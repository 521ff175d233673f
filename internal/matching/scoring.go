package matching

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/context-matcher/internal/types"
)

// Location and travel contributions to spatial proximity
const (
	exactLocationScore    = 1.0
	containsLocationScore = 0.7
	sharedTokenScore      = 0.5
	travelOverlapScore    = 0.5
	minLocationTokenLen   = 3
)

// Skill overlap ratios strictly inside this range are boosted by sweetSpotBoost
const (
	sweetSpotLow   = 0.1
	sweetSpotHigh  = 0.6
	sweetSpotBoost = 0.5
)

// neutralAlignment is returned when either side has not stated preferences
const neutralAlignment = 0.5

// CalculateMatchScore scores candidate b against profile a.
// sharedCommunities is the number of communities both users belong to.
// The only error is a dimension mismatch between the two embeddings.
func CalculateMatchScore(a, b *types.ContextWindow, sharedCommunities int) (*types.MatchScore, error) {
	semantic, err := SemanticSimilarity(a, b)
	if err != nil {
		return nil, err
	}

	breakdown := types.Breakdown{
		SemanticSimilarity: semantic,
		SkillsComplement:   SkillsComplement(a, b),
		SeekingAlignment:   SeekingAlignment(a, b),
		SpatialProximity:   SpatialProximity(a, b),
		GraphSignals:       GraphSignals(sharedCommunities),
	}

	return &types.MatchScore{
		UserID:     b.UserID,
		TotalScore: TotalScore(breakdown),
		Breakdown:  breakdown,
	}, nil
}

// TotalScore returns the weighted sum of a breakdown, summed in signal declaration order
// and kept within [0,1].
func TotalScore(b types.Breakdown) float64 {
	total := 0.0
	for _, s := range Signals {
		total += Weights[s] * signalValue(b, s)
	}

	// Float rounding can push an all-ones breakdown a hair above 1
	return math.Max(0, math.Min(total, 1))
}

// SemanticSimilarity rescales the cosine similarity of the two embeddings to [0,1].
// Returns 0 when either side has no embedding.
func SemanticSimilarity(a, b *types.ContextWindow) (float64, error) {
	if !a.HasEmbedding() || !b.HasEmbedding() {
		return 0, nil
	}

	cos, err := CosineSimilarity(a.Embedding, b.Embedding)
	if err != nil {
		return 0, err
	}

	return (cos + 1) / 2, nil
}

// SkillsComplement averages up to three checks: a's skills named in b's seeking text,
// b's skills named in a's seeking text, and the reshaped overlap of the two skill sets.
// Checks whose inputs are missing are skipped; if none run the score is 0.
func SkillsComplement(a, b *types.ContextWindow) float64 {
	score := 0.0
	checks := 0

	if b.Seeking != "" && len(a.Skills) > 0 {
		score += skillsInText(a.Skills, b.Seeking)
		checks++
	}

	if a.Seeking != "" && len(b.Skills) > 0 {
		score += skillsInText(b.Skills, a.Seeking)
		checks++
	}

	if len(a.Skills) > 0 && len(b.Skills) > 0 {
		score += reshapeOverlap(skillOverlapRatio(a.Skills, b.Skills))
		checks++
	}

	if checks == 0 {
		return 0
	}
	return math.Min(score/float64(checks), 1)
}

// skillsInText returns the fraction of skills that appear, case-insensitively, inside text
func skillsInText(skills []string, text string) float64 {
	lower := strings.ToLower(text)
	matched := 0
	for _, skill := range skills {
		if strings.Contains(lower, strings.ToLower(skill)) {
			matched++
		}
	}
	return float64(matched) / float64(len(skills))
}

// skillOverlapRatio is |A∩B| / max(|A|,|B|) over case-insensitive skill sets
func skillOverlapRatio(a, b []string) float64 {
	setA := lowerSet(a)
	setB := lowerSet(b)

	overlap := 0
	for skill := range setA {
		if setB[skill] {
			overlap++
		}
	}

	return float64(overlap) / float64(max(len(setA), len(setB)))
}

// reshapeOverlap lifts partial overlap above both near-zero and near-total overlap.
// Ratios of exactly 0.1 or 0.6 are not boosted, so the curve jumps at both ends.
func reshapeOverlap(ratio float64) float64 {
	if ratio > sweetSpotLow && ratio < sweetSpotHigh {
		return sweetSpotBoost + ratio
	}
	return ratio
}

// SeekingAlignment is the Jaccard index of the two open_to tag sets.
// Returns a neutral 0.5 when either side has no tags.
func SeekingAlignment(a, b *types.ContextWindow) float64 {
	if len(a.OpenTo) == 0 || len(b.OpenTo) == 0 {
		return neutralAlignment
	}

	setA := stringSet(a.OpenTo)
	setB := stringSet(b.OpenTo)

	intersection := 0
	for tag := range setA {
		if setB[tag] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection

	return float64(intersection) / float64(union)
}

// SpatialProximity adds a location contribution and a single travel-overlap bonus, capped at 1.
func SpatialProximity(a, b *types.ContextWindow) float64 {
	score := 0.0

	if a.CurrentLocation != "" && b.CurrentLocation != "" {
		score += locationScore(strings.ToLower(a.CurrentLocation), strings.ToLower(b.CurrentLocation))
	}

	if travelOverlaps(a.UpcomingTravel, b.UpcomingTravel) {
		score += travelOverlapScore
	}

	return math.Min(score, 1)
}

// locationScore compares two lowercased locations. Shared tokens must be at least
// minLocationTokenLen characters long.
func locationScore(loc1, loc2 string) float64 {
	if loc1 == loc2 {
		return exactLocationScore
	}
	if strings.Contains(loc1, loc2) || strings.Contains(loc2, loc1) {
		return containsLocationScore
	}

	words2 := stringSet(locationTokens(loc2))
	for _, w := range locationTokens(loc1) {
		if utf8.RuneCountInString(w) >= minLocationTokenLen && words2[w] {
			return sharedTokenScore
		}
	}
	return 0
}

// locationTokens splits a location on whitespace and commas
func locationTokens(loc string) []string {
	return strings.FieldsFunc(loc, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
}

// travelOverlaps reports whether any pair of travel entries is equal or contains the other
func travelOverlaps(travel1, travel2 []string) bool {
	if len(travel1) == 0 || len(travel2) == 0 {
		return false
	}

	for _, t1 := range travel1 {
		t1 = strings.ToLower(t1)
		for _, t2 := range travel2 {
			t2 = strings.ToLower(t2)
			if t1 == t2 || strings.Contains(t1, t2) || strings.Contains(t2, t1) {
				return true
			}
		}
	}
	return false
}

// GraphSignals maps a shared-community count onto a concave curve:
// 0 communities score 0, 1 scores 0.5, and the score saturates at 1.
func GraphSignals(sharedCommunities int) float64 {
	if sharedCommunities <= 0 {
		return 0
	}
	return math.Min(0.3+0.2*math.Log2(float64(sharedCommunities)+1), 1)
}

// signalValue reads one signal out of a breakdown
func signalValue(b types.Breakdown, s Signal) float64 {
	switch s {
	case SignalSemanticSimilarity:
		return b.SemanticSimilarity
	case SignalSkillsComplement:
		return b.SkillsComplement
	case SignalSeekingAlignment:
		return b.SeekingAlignment
	case SignalSpatialProximity:
		return b.SpatialProximity
	case SignalGraphSignals:
		return b.GraphSignals
	default:
		return 0
	}
}

func lowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = true
	}
	return set
}

func stringSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
