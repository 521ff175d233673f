// Package explain turns match scores into short human-readable text using an LLM,
// falling back to fixed copy when the model is unavailable.
package explain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/context-matcher/internal/llm"
	"github.com/jonathan/context-matcher/internal/logging"
	"github.com/jonathan/context-matcher/internal/prompts"
	"github.com/jonathan/context-matcher/internal/types"
)

// Fallback copy used when the model fails or returns nothing
const (
	DefaultMatchReason = "You two might have interesting things to discuss!"
	DefaultIcebreaker  = "What's the most exciting part of what you're building right now?"
	DefaultSummary     = "Building something interesting"
)

const notSpecified = "Not specified"

// Options tunes the circuit breaker and batch fan-out
type Options struct {
	// FailureThreshold is the number of consecutive failures that opens the breaker
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before a trial call
	OpenTimeout time.Duration
	// BatchLimit caps concurrent model calls in MatchReasons
	BatchLimit int
}

// DefaultOptions returns the production settings
func DefaultOptions() Options {
	return Options{
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		BatchLimit:       5,
	}
}

// Explainer generates match reasons, icebreakers and profile summaries
type Explainer struct {
	generator  llm.Generator
	breaker    *gobreaker.CircuitBreaker
	logger     *logging.Logger
	batchLimit int
}

// NewExplainer creates an Explainer with DefaultOptions
func NewExplainer(generator llm.Generator, logger *logging.Logger) *Explainer {
	return NewExplainerWithOptions(generator, logger, DefaultOptions())
}

// NewExplainerWithOptions creates an Explainer with custom breaker and batch settings
func NewExplainerWithOptions(generator llm.Generator, logger *logging.Logger, opts Options) *Explainer {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.BatchLimit < 1 {
		opts.BatchLimit = 1
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 1
	}

	settings := gobreaker.Settings{
		Name:        "llm-explain",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.FailureThreshold
		},
		// Cancelled requests say nothing about the provider's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &Explainer{
		generator:  generator,
		breaker:    gobreaker.NewCircuitBreaker(settings),
		logger:     logger,
		batchLimit: opts.BatchLimit,
	}
}

// BreakerState reports the circuit breaker state, for health output
func (e *Explainer) BreakerState() string {
	return e.breaker.State().String()
}

// MatchReason explains why other is a good match for user.
// On failure it returns DefaultMatchReason together with a *GenerationError.
func (e *Explainer) MatchReason(ctx context.Context, user, other *types.ContextWindow, score types.MatchScore) (string, error) {
	prompt, err := prompts.Render(prompts.MatchingFile, prompts.KeyMatchReason, map[string]string{
		"UserWorkingOn":    orNotSpecified(user.WorkingOn),
		"UserSkills":       joinOrNotSpecified(user.Skills),
		"UserSeeking":      orNotSpecified(user.Seeking),
		"UserLocation":     orNotSpecified(user.CurrentLocation),
		"UserOpenTo":       joinOrNotSpecified(user.OpenTo),
		"OtherWorkingOn":   orNotSpecified(other.WorkingOn),
		"OtherSkills":      joinOrNotSpecified(other.Skills),
		"OtherSeeking":     orNotSpecified(other.Seeking),
		"OtherLocation":    orNotSpecified(other.CurrentLocation),
		"OtherOpenTo":      joinOrNotSpecified(other.OpenTo),
		"SemanticPercent":  percent(score.Breakdown.SemanticSimilarity),
		"SkillsPercent":    percent(score.Breakdown.SkillsComplement),
		"AlignmentPercent": percent(score.Breakdown.SeekingAlignment),
		"ProximityPercent": percent(score.Breakdown.SpatialProximity),
	})
	if err != nil {
		return DefaultMatchReason, &GenerationError{Operation: "match reason", Message: "failed to build prompt", Cause: err}
	}

	return e.generate(ctx, "match reason", prompt, llm.TierStandard, DefaultMatchReason)
}

// Icebreaker suggests one opening question user could ask other.
// On failure it returns DefaultIcebreaker together with a *GenerationError.
func (e *Explainer) Icebreaker(ctx context.Context, user, other *types.ContextWindow) (string, error) {
	prompt, err := prompts.Render(prompts.MatchingFile, prompts.KeyIcebreaker, map[string]string{
		"UserName":       "Person 1",
		"OtherName":      "Person 2",
		"UserWorkingOn":  orNotSpecified(user.WorkingOn),
		"UserSkills":     joinOrNotSpecified(user.Skills),
		"UserSeeking":    orNotSpecified(user.Seeking),
		"OtherWorkingOn": orNotSpecified(other.WorkingOn),
		"OtherSkills":    joinOrNotSpecified(other.Skills),
		"OtherSeeking":   orNotSpecified(other.Seeking),
	})
	if err != nil {
		return DefaultIcebreaker, &GenerationError{Operation: "icebreaker", Message: "failed to build prompt", Cause: err}
	}

	return e.generate(ctx, "icebreaker", prompt, llm.TierLite, DefaultIcebreaker)
}

// Summary condenses a profile into one short sentence.
// On failure it returns DefaultSummary together with a *GenerationError.
func (e *Explainer) Summary(ctx context.Context, cw *types.ContextWindow) (string, error) {
	prompt, err := prompts.Render(prompts.MatchingFile, prompts.KeyContextSummary, map[string]string{
		"WorkingOn": orNotSpecified(cw.WorkingOn),
		"Skills":    joinOrNotSpecified(cw.Skills),
		"Seeking":   orNotSpecified(cw.Seeking),
	})
	if err != nil {
		return DefaultSummary, &GenerationError{Operation: "summary", Message: "failed to build prompt", Cause: err}
	}

	return e.generate(ctx, "summary", prompt, llm.TierLite, DefaultSummary)
}

// MatchReasons explains a batch of matches with at most BatchLimit model calls in flight.
// profiles maps candidate id to profile. Every match gets a reason: failures and
// candidates without a profile fall back to DefaultMatchReason.
func (e *Explainer) MatchReasons(ctx context.Context, user *types.ContextWindow, matches []types.MatchScore, profiles map[string]*types.ContextWindow) map[string]string {
	reasons := make([]string, len(matches))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.batchLimit)

	for i := range matches {
		match := matches[i]
		other, ok := profiles[match.UserID]
		if !ok || other == nil {
			reasons[i] = DefaultMatchReason
			continue
		}

		g.Go(func() error {
			reason, err := e.MatchReason(gCtx, user, other, match)
			if err != nil {
				e.logger.Warn("using fallback match reason", "user_id", user.UserID, "candidate_id", match.UserID, "error", err)
			}
			reasons[i] = reason
			return nil
		})
	}
	_ = g.Wait()

	result := make(map[string]string, len(matches))
	for i, match := range matches {
		result[match.UserID] = reasons[i]
	}
	return result
}

// Annotate fills the Reason field of each match in place using MatchReasons
func (e *Explainer) Annotate(ctx context.Context, user *types.ContextWindow, matches []types.MatchScore, profiles map[string]*types.ContextWindow) {
	reasons := e.MatchReasons(ctx, user, matches, profiles)
	for i := range matches {
		matches[i].Reason = reasons[matches[i].UserID]
	}
}

// generate runs one model call through the breaker, mapping blank output to fallback
func (e *Explainer) generate(ctx context.Context, operation, prompt string, tier llm.ModelTier, fallback string) (string, error) {
	out, err := e.breaker.Execute(func() (interface{}, error) {
		return e.generator.GenerateContent(ctx, prompt, tier)
	})
	if err != nil {
		msg := "model call failed"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			msg = "circuit breaker rejected call"
		}
		return fallback, &GenerationError{Operation: operation, Message: msg, Cause: err}
	}

	text, _ := out.(string)
	text = llm.CleanText(text)
	if text == "" {
		return fallback, nil
	}
	return text, nil
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSpecified
	}
	return strings.TrimSpace(s)
}

func joinOrNotSpecified(values []string) string {
	if len(values) == 0 {
		return notSpecified
	}
	return strings.Join(values, ", ")
}

// percent renders a [0,1] score as a rounded whole percentage
func percent(v float64) string {
	return fmt.Sprintf("%d", int(math.Round(v*100)))
}
