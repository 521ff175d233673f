// Package types provides type definitions for structured data used throughout the context-matcher system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Breakdown holds the five sub-scores behind a match, each nominally in [0,1]
type Breakdown struct {
	SemanticSimilarity float64 `json:"semantic_similarity"`
	SkillsComplement   float64 `json:"skills_complement"`
	SeekingAlignment   float64 `json:"seeking_alignment"`
	SpatialProximity   float64 `json:"spatial_proximity"`
	GraphSignals       float64 `json:"graph_signals"`
}

// MatchScore is the score of one candidate against the querying profile
type MatchScore struct {
	// UserID is the candidate's id (the other side of the pair)
	UserID     string    `json:"user_id"`
	TotalScore float64   `json:"total_score"`
	Breakdown  Breakdown `json:"breakdown"`
	// Reason is a human-readable explanation filled in by callers, never by the scorer
	Reason string `json:"reason,omitempty"`
}

// MatchResults represents a ranked list of matches
type MatchResults struct {
	UserID  string       `json:"user_id,omitempty"`
	Matches []MatchScore `json:"matches"`
}
