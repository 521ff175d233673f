package matching

// Signal names one of the five sub-scores of a match
type Signal string

// Signals in declaration order. Ties between signals resolve in this order.
const (
	SignalSemanticSimilarity Signal = "semantic_similarity"
	SignalSkillsComplement   Signal = "skills_complement"
	SignalSeekingAlignment   Signal = "seeking_alignment"
	SignalSpatialProximity   Signal = "spatial_proximity"
	SignalGraphSignals       Signal = "graph_signals"
)

// Signals lists every signal in declaration order
var Signals = []Signal{
	SignalSemanticSimilarity,
	SignalSkillsComplement,
	SignalSeekingAlignment,
	SignalSpatialProximity,
	SignalGraphSignals,
}

// Weights is the fixed contribution of each signal to the total score. Must sum to 1.
var Weights = map[Signal]float64{
	SignalSemanticSimilarity: 0.40,
	SignalSkillsComplement:   0.20,
	SignalSeekingAlignment:   0.15,
	SignalSpatialProximity:   0.15,
	SignalGraphSignals:       0.10,
}

// signalLabels maps each signal to the short reason shown to users
var signalLabels = map[Signal]string{
	SignalSemanticSimilarity: "similar context",
	SignalSkillsComplement:   "complementary skills",
	SignalSeekingAlignment:   "aligned goals",
	SignalSpatialProximity:   "nearby location",
	SignalGraphSignals:       "shared communities",
}

// Label returns the human-readable reason for a signal
func (s Signal) Label() string {
	return signalLabels[s]
}

const (
	// MatchThreshold is the minimum total score for a candidate to be returned as a match
	MatchThreshold = 0.5
	// DefaultLimit is the number of matches returned when callers do not choose one
	DefaultLimit = 10
)
