package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/context-matcher/internal/embedding"
	"github.com/jonathan/context-matcher/internal/types"
)

func TestRefreshEmbedding(t *testing.T) {
	store := newFakeStore()
	store.add(types.ContextWindow{
		UserID:    "me",
		WorkingOn: "A matching engine",
		Skills:    []string{"Go"},
		OpenTo:    []string{types.OpenToAdvice},
	})
	client := &fakeClient{vector: []float64{0.1, 0.2, 0.3, 0.4}}

	dims, err := refreshEmbedding(context.Background(), store, client, "me")
	require.NoError(t, err)

	assert.Equal(t, 4, dims)
	assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.4}, store.embeddings["me"])
	assert.InDelta(t, 0.6, store.completeness["me"], 1e-9)
	require.Len(t, client.embedded, 1)
	assert.Contains(t, client.embedded[0], "Skills and expertise: Go")
}

func TestRefreshEmbedding_NotFound(t *testing.T) {
	_, err := refreshEmbedding(context.Background(), newFakeStore(), &fakeClient{}, "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRefreshEmbedding_EmptyContext(t *testing.T) {
	store := newFakeStore()
	store.add(types.ContextWindow{UserID: "me"})

	_, err := refreshEmbedding(context.Background(), store, &fakeClient{}, "me")
	require.Error(t, err)
	assert.ErrorIs(t, err, embedding.ErrEmptyContext)
	assert.Empty(t, store.embeddings)
}

func TestRefreshEmbedding_StoreFailure(t *testing.T) {
	store := newFakeStore()
	store.add(types.ContextWindow{UserID: "me", Bio: "Designer"})
	store.updateErr = errors.New("read-only transaction")

	_, err := refreshEmbedding(context.Background(), store, &fakeClient{vector: []float64{1}}, "me")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")
	assert.Empty(t, store.completeness)
}

func TestRefreshEmbeddingCommand_RequiresDatabase(t *testing.T) {
	_, _, err := execute(t, "refresh-embedding", "--user-id", "5f0c6c3e-7d7c-4a55-9a55-0c2f3d1f9f10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database URL is required")
}
