package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text",
			input:    "You both build developer tools.",
			expected: "You both build developer tools.",
		},
		{
			name:     "surrounding whitespace",
			input:    "\n  What are you shipping next?  \n",
			expected: "What are you shipping next?",
		},
		{
			name:     "generic code block",
			input:    "```\nBuilding a matching engine\n```",
			expected: "Building a matching engine",
		},
		{
			name:     "code block with language",
			input:    "```text\nBuilding a matching engine\n```",
			expected: "Building a matching engine",
		},
		{
			name:     "double quoted",
			input:    `"What got you into robotics?"`,
			expected: "What got you into robotics?",
		},
		{
			name:     "single quoted",
			input:    `'Ships fast, learns faster'`,
			expected: "Ships fast, learns faster",
		},
		{
			name:     "inner quotes kept",
			input:    `She said "hello" first`,
			expected: `She said "hello" first`,
		},
		{
			name:     "empty",
			input:    "   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanText(tt.input))
		})
	}
}

func TestFloat64s(t *testing.T) {
	assert.Equal(t, []float64{0.5, -1, 0}, Float64s([]float32{0.5, -1, 0}))
	assert.Empty(t, Float64s(nil))
}
