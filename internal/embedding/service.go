package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/context-matcher/internal/llm"
	"github.com/jonathan/context-matcher/internal/types"
)

// ErrNoValidTexts is returned by EmbedBatch when every input is blank
var ErrNoValidTexts = errors.New("no valid texts to embed")

// Service produces profile embeddings through an llm.Embedder
type Service struct {
	embedder llm.Embedder
}

// NewService creates an embedding service
func NewService(embedder llm.Embedder) *Service {
	return &Service{embedder: embedder}
}

// Embed builds the context text for a profile and embeds it
func (s *Service) Embed(ctx context.Context, cw *types.ContextWindow) ([]float64, error) {
	text, err := BuildContextText(cw)
	if err != nil {
		return nil, err
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed context for %s: %w", cw.UserID, err)
	}
	return vec, nil
}

// EmbedBatch embeds the non-blank texts in one call. Blank texts are dropped,
// so the result has one vector per non-blank input, in input order.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	valid := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		return nil, ErrNoValidTexts
	}

	vectors, err := s.embedder.EmbedBatch(ctx, valid)
	if err != nil {
		return nil, fmt.Errorf("failed to embed batch: %w", err)
	}
	return vectors, nil
}
