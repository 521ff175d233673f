// Package types provides type definitions for structured data used throughout the context-matcher system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Connection-type preference tags accepted in ContextWindow.OpenTo
const (
	OpenToCollaborations = "collaborations"
	OpenToAdvice         = "advice"
	OpenToMentorship     = "mentorship"
	OpenToCofounding     = "cofounding"
	OpenToHiring         = "hiring"
	OpenToInvestment     = "investment"
	OpenToFriendship     = "friendship"
)

// OpenToTags lists the full preference vocabulary in display order.
var OpenToTags = []string{
	OpenToCollaborations,
	OpenToAdvice,
	OpenToMentorship,
	OpenToCofounding,
	OpenToHiring,
	OpenToInvestment,
	OpenToFriendship,
}

const (
	// MinCandidateCompleteness is the completeness a profile needs before it is offered as a candidate.
	MinCandidateCompleteness = 0.4
	// OnboardingCompleteness is the completeness at which onboarding counts as done.
	OnboardingCompleteness = 0.6
)

// ContextWindow is a community member's profile as consumed by the matcher.
// Empty strings and nil slices mean "not provided".
type ContextWindow struct {
	UserID          string    `json:"user_id" validate:"required"`
	WorkingOn       string    `json:"working_on,omitempty"`
	Skills          []string  `json:"skills" validate:"max=50,dive,max=100"`
	Seeking         string    `json:"seeking,omitempty"`
	Bio             string    `json:"bio,omitempty"`
	CurrentLocation string    `json:"current_location,omitempty"`
	UpcomingTravel  []string  `json:"upcoming_travel"`
	OpenTo          []string  `json:"open_to" validate:"dive,oneof=collaborations advice mentorship cofounding hiring investment friendship"`
	Embedding       []float64 `json:"embedding,omitempty"`
}

// Validate validates the ContextWindow using the validator.
func (c *ContextWindow) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// HasEmbedding reports whether an embedding vector is present.
func (c *ContextWindow) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// Completeness returns the fraction of the profile's descriptive fields that are filled in.
// Location, travel and embedding are not counted.
func (c *ContextWindow) Completeness() float64 {
	fields := []bool{
		strings.TrimSpace(c.WorkingOn) != "",
		len(c.Skills) > 0,
		strings.TrimSpace(c.Seeking) != "",
		strings.TrimSpace(c.Bio) != "",
		len(c.OpenTo) > 0,
	}

	filled := 0
	for _, ok := range fields {
		if ok {
			filled++
		}
	}
	return float64(filled) / float64(len(fields))
}

// OnboardingComplete reports whether the profile is complete enough to finish onboarding.
func (c *ContextWindow) OnboardingComplete() bool {
	return c.Completeness() >= OnboardingCompleteness
}

// ValidOpenTo reports whether tag belongs to the preference vocabulary.
func ValidOpenTo(tag string) bool {
	for _, t := range OpenToTags {
		if t == tag {
			return true
		}
	}
	return false
}
