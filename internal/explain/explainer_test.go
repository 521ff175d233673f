package explain

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/context-matcher/internal/llm"
	"github.com/jonathan/context-matcher/internal/types"
)

// fakeGenerator records prompts and returns a canned response
type fakeGenerator struct {
	mu       sync.Mutex
	prompts  []string
	tiers    []llm.ModelTier
	response string
	err      error
	// failFor makes calls whose prompt contains the substring fail
	failFor string

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	delay       time.Duration
}

func (f *fakeGenerator) GenerateContent(_ context.Context, prompt string, tier llm.ModelTier) (string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.tiers = append(f.tiers, tier)
	f.mu.Unlock()

	if f.failFor != "" && strings.Contains(prompt, f.failFor) {
		return "", errors.New("provider unavailable")
	}
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func sampleProfiles() (*types.ContextWindow, *types.ContextWindow) {
	user := &types.ContextWindow{
		UserID:          "u1",
		WorkingOn:       "A matching engine",
		Skills:          []string{"Go", "Postgres"},
		Seeking:         "a designer",
		CurrentLocation: "Singapore",
		OpenTo:          []string{types.OpenToCofounding},
	}
	other := &types.ContextWindow{
		UserID: "u2",
		Skills: []string{"Figma"},
	}
	return user, other
}

func sampleScore() types.MatchScore {
	return types.MatchScore{
		UserID:     "u2",
		TotalScore: 0.61,
		Breakdown: types.Breakdown{
			SemanticSimilarity: 0.876,
			SkillsComplement:   0.333,
			SeekingAlignment:   0.5,
			SpatialProximity:   0.7,
		},
	}
}

func TestMatchReason_PromptContents(t *testing.T) {
	gen := &fakeGenerator{response: "  You could design their onboarding flow.  "}
	e := NewExplainer(gen, nil)
	user, other := sampleProfiles()

	reason, err := e.MatchReason(context.Background(), user, other, sampleScore())
	require.NoError(t, err)
	assert.Equal(t, "You could design their onboarding flow.", reason)

	require.Equal(t, 1, gen.calls())
	prompt := gen.prompts[0]
	assert.Equal(t, llm.TierStandard, gen.tiers[0])
	assert.Contains(t, prompt, "- Working on: A matching engine")
	assert.Contains(t, prompt, "- Skills: Go, Postgres")
	assert.Contains(t, prompt, "- Open to: cofounding")
	assert.Contains(t, prompt, "- Skills: Figma")
	assert.Contains(t, prompt, "- Looking for: Not specified")
	assert.Contains(t, prompt, "Context similarity: 88%")
	assert.Contains(t, prompt, "Skills complement: 33%")
	assert.Contains(t, prompt, "Goals alignment: 50%")
	assert.Contains(t, prompt, "Location proximity: 70%")
	assert.NotContains(t, prompt, "{{.")
}

func TestMatchReason_BlankResponseFallsBack(t *testing.T) {
	e := NewExplainer(&fakeGenerator{response: "   "}, nil)
	user, other := sampleProfiles()

	reason, err := e.MatchReason(context.Background(), user, other, sampleScore())
	require.NoError(t, err)
	assert.Equal(t, DefaultMatchReason, reason)
}

func TestMatchReason_ErrorFallsBack(t *testing.T) {
	boom := errors.New("quota exceeded")
	e := NewExplainer(&fakeGenerator{err: boom}, nil)
	user, other := sampleProfiles()

	reason, err := e.MatchReason(context.Background(), user, other, sampleScore())
	assert.Equal(t, DefaultMatchReason, reason)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "match reason", genErr.Operation)
	assert.ErrorIs(t, err, boom)
}

func TestIcebreakerAndSummary(t *testing.T) {
	gen := &fakeGenerator{response: `"What does your design process look like?"`}
	e := NewExplainer(gen, nil)
	user, other := sampleProfiles()

	q, err := e.Icebreaker(context.Background(), user, other)
	require.NoError(t, err)
	assert.Equal(t, "What does your design process look like?", q)
	assert.Contains(t, gen.prompts[0], "Person 1 could ask Person 2")
	assert.Equal(t, llm.TierLite, gen.tiers[0])

	s, err := e.Summary(context.Background(), user)
	require.NoError(t, err)
	assert.NotEmpty(t, s)
	assert.Contains(t, gen.prompts[1], "Working on: A matching engine")
	assert.Contains(t, gen.prompts[1], "max 15 words")
}

func TestIcebreakerAndSummary_Fallbacks(t *testing.T) {
	e := NewExplainer(&fakeGenerator{response: ""}, nil)
	user, other := sampleProfiles()

	q, err := e.Icebreaker(context.Background(), user, other)
	require.NoError(t, err)
	assert.Equal(t, DefaultIcebreaker, q)

	s, err := e.Summary(context.Background(), &types.ContextWindow{UserID: "empty"})
	require.NoError(t, err)
	assert.Equal(t, DefaultSummary, s)
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("503")}
	e := NewExplainerWithOptions(gen, nil, Options{FailureThreshold: 2, OpenTimeout: time.Minute, BatchLimit: 1})
	user, other := sampleProfiles()

	for i := 0; i < 2; i++ {
		_, err := e.MatchReason(context.Background(), user, other, sampleScore())
		require.Error(t, err)
	}
	assert.Equal(t, 2, gen.calls())
	assert.Equal(t, gobreaker.StateOpen.String(), e.BreakerState())

	// Open breaker short-circuits without calling the model
	reason, err := e.MatchReason(context.Background(), user, other, sampleScore())
	assert.Equal(t, DefaultMatchReason, reason)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Contains(t, err.Error(), "circuit breaker rejected call")
	assert.Equal(t, 2, gen.calls())
}

func TestCircuitBreaker_IgnoresCancellation(t *testing.T) {
	gen := &fakeGenerator{err: context.Canceled}
	e := NewExplainerWithOptions(gen, nil, Options{FailureThreshold: 1, OpenTimeout: time.Minute, BatchLimit: 1})
	user, other := sampleProfiles()

	for i := 0; i < 3; i++ {
		_, _ = e.MatchReason(context.Background(), user, other, sampleScore())
	}
	assert.Equal(t, gobreaker.StateClosed.String(), e.BreakerState())
	assert.Equal(t, 3, gen.calls())
}

func TestMatchReasons_Batch(t *testing.T) {
	gen := &fakeGenerator{response: "Great fit.", failFor: "Rust", delay: 5 * time.Millisecond}
	e := NewExplainerWithOptions(gen, nil, Options{FailureThreshold: 100, OpenTimeout: time.Minute, BatchLimit: 3})
	user, _ := sampleProfiles()

	profiles := map[string]*types.ContextWindow{}
	var matches []types.MatchScore
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		skills := []string{"Figma"}
		if id == "c" {
			skills = []string{"Rust"}
		}
		profiles[id] = &types.ContextWindow{UserID: id, Skills: skills}
		matches = append(matches, types.MatchScore{UserID: id, TotalScore: 0.6})
	}
	// No profile for this one
	matches = append(matches, types.MatchScore{UserID: "ghost", TotalScore: 0.55})

	reasons := e.MatchReasons(context.Background(), user, matches, profiles)

	require.Len(t, reasons, len(matches))
	assert.Equal(t, "Great fit.", reasons["a"])
	assert.Equal(t, DefaultMatchReason, reasons["c"])
	assert.Equal(t, DefaultMatchReason, reasons["ghost"])
	assert.Equal(t, 7, gen.calls())
	assert.LessOrEqual(t, gen.maxInFlight.Load(), int32(3))
}

func TestAnnotate(t *testing.T) {
	gen := &fakeGenerator{response: "Both of you care about community."}
	e := NewExplainer(gen, nil)
	user, other := sampleProfiles()

	matches := []types.MatchScore{sampleScore()}
	e.Annotate(context.Background(), user, matches, map[string]*types.ContextWindow{"u2": other})

	assert.Equal(t, "Both of you care about community.", matches[0].Reason)
}

func TestMatchReasons_Empty(t *testing.T) {
	e := NewExplainer(&fakeGenerator{}, nil)
	user, _ := sampleProfiles()

	reasons := e.MatchReasons(context.Background(), user, nil, nil)
	assert.Empty(t, reasons)
}

func TestGenerationError(t *testing.T) {
	cause := errors.New("cause")
	err := &GenerationError{Operation: "summary", Message: "model call failed", Cause: cause}
	assert.Equal(t, "summary: model call failed: cause", err.Error())
	assert.ErrorIs(t, err, cause)

	noCause := &GenerationError{Operation: "summary", Message: "empty"}
	assert.Equal(t, "summary: empty", noCause.Error())
}
