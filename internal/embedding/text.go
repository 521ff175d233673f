// Package embedding builds the text that represents a profile and turns it into vectors.
package embedding

import (
	"errors"
	"strings"

	"github.com/jonathan/context-matcher/internal/types"
)

// ErrEmptyContext is returned when a profile has nothing to embed
var ErrEmptyContext = errors.New("context is empty, cannot generate embedding")

const sectionSeparator = "\n\n"

// BuildContextText combines the descriptive profile fields into one labelled text block.
// Empty fields are left out. Travel plans are not embedded.
func BuildContextText(cw *types.ContextWindow) (string, error) {
	var parts []string

	if hasText(cw.WorkingOn) {
		parts = append(parts, "Currently working on: "+strings.TrimSpace(cw.WorkingOn))
	}
	if len(cw.Skills) > 0 {
		parts = append(parts, "Skills and expertise: "+strings.Join(cw.Skills, ", "))
	}
	if hasText(cw.Seeking) {
		parts = append(parts, "Looking for: "+strings.TrimSpace(cw.Seeking))
	}
	if hasText(cw.Bio) {
		parts = append(parts, "About: "+strings.TrimSpace(cw.Bio))
	}
	if hasText(cw.CurrentLocation) {
		parts = append(parts, "Based in: "+strings.TrimSpace(cw.CurrentLocation))
	}
	if len(cw.OpenTo) > 0 {
		parts = append(parts, "Open to: "+strings.Join(cw.OpenTo, ", "))
	}

	text := strings.Join(parts, sectionSeparator)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyContext
	}
	return text, nil
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}
