package main

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/context-matcher/internal/llm"
	"github.com/jonathan/context-matcher/internal/logging"
	"github.com/jonathan/context-matcher/internal/types"
)

// fakeStore is an in-memory matchStore and embeddingStore
type fakeStore struct {
	mu            sync.Mutex
	profiles      map[string]*types.ContextWindow
	matched       map[string][]string
	shared        map[string]int
	excluded      []string
	minComplete   float64
	embeddings    map[string][]float64
	completeness  map[string]float64
	listErr       error
	getErr        error
	updateErr     error
	sharedQueried []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles:     map[string]*types.ContextWindow{},
		matched:      map[string][]string{},
		shared:       map[string]int{},
		embeddings:   map[string][]float64{},
		completeness: map[string]float64{},
	}
}

func (s *fakeStore) add(cw types.ContextWindow) {
	s.profiles[cw.UserID] = &cw
}

func (s *fakeStore) GetContextWindow(_ context.Context, userID string) (*types.ContextWindow, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	cw, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	copied := *cw
	return &copied, nil
}

func (s *fakeStore) MatchedUserIDs(_ context.Context, userID string) ([]string, error) {
	return s.matched[userID], nil
}

func (s *fakeStore) ListCandidates(_ context.Context, excludeIDs []string, minCompleteness float64) ([]types.ContextWindow, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.excluded = excludeIDs
	s.minComplete = minCompleteness

	skip := map[string]bool{}
	for _, id := range excludeIDs {
		skip[id] = true
	}

	// Sorted ids keep the pool order deterministic
	ids := []string{"alice", "bob", "carol", "dave", "erin", "me"}
	candidates := []types.ContextWindow{}
	for _, id := range ids {
		if cw, ok := s.profiles[id]; ok && !skip[id] && cw.HasEmbedding() {
			candidates = append(candidates, *cw)
		}
	}
	return candidates, nil
}

func (s *fakeStore) SharedCommunityCounts(_ context.Context, _ string, candidateIDs []string) (map[string]int, error) {
	s.sharedQueried = candidateIDs
	return s.shared, nil
}

func (s *fakeStore) UpdateEmbedding(_ context.Context, userID string, embedding []float64) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeddings[userID] = embedding
	return nil
}

func (s *fakeStore) UpdateCompleteness(_ context.Context, userID string, completeness float64) error {
	s.completeness[userID] = completeness
	return nil
}

// fakeClient is an llm.Client with canned output
type fakeClient struct {
	mu        sync.Mutex
	reason    string
	vector    []float64
	embedErr  error
	embedded  []string
	generated int
}

func (c *fakeClient) GenerateContent(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generated++
	return c.reason, nil
}

func (c *fakeClient) Embed(_ context.Context, text string) ([]float64, error) {
	if c.embedErr != nil {
		return nil, c.embedErr
	}
	c.embedded = append(c.embedded, text)
	return c.vector, nil
}

func (c *fakeClient) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for _, text := range texts {
		v, err := c.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *fakeClient) Close() error { return nil }

func seededStore() *fakeStore {
	store := newFakeStore()
	me := profile("me", 1, 0, 0)
	me.WorkingOn = "A matching engine"
	store.add(me)
	store.add(profile("alice", 1, 0, 0))
	store.add(profile("bob", 0, 1, 0))
	store.add(profile("carol", 1, 0, 0))
	store.add(profile("dave", 1, 0, 0))
	store.add(types.ContextWindow{UserID: "erin"}) // no embedding
	store.matched["me"] = []string{"dave"}
	store.shared["carol"] = 2
	return store
}

func TestGenerateMatches_WithoutClient(t *testing.T) {
	store := seededStore()

	results, err := generateMatches(context.Background(), store, nil, logging.NewNop(), "me", 10, 2)
	require.NoError(t, err)

	assert.Equal(t, "me", results.UserID)
	assert.Equal(t, []string{"carol", "alice"}, resultIDs(*results))
	// Semantic similarity and alignment are both 1, so the earlier signal names the reason
	for _, m := range results.Matches {
		assert.Equal(t, "similar context", m.Reason)
	}
	assert.Greater(t, results.Matches[0].Breakdown.GraphSignals, 0.6)

	assert.Equal(t, []string{"me", "dave"}, store.excluded)
	assert.Equal(t, types.MinCandidateCompleteness, store.minComplete)
	assert.Equal(t, []string{"alice", "bob", "carol"}, store.sharedQueried)
}

func TestGenerateMatches_WithClient(t *testing.T) {
	store := seededStore()
	client := &fakeClient{reason: "You both build matching engines."}

	results, err := generateMatches(context.Background(), store, client, logging.NewNop(), "me", 1, 4)
	require.NoError(t, err)

	require.Len(t, results.Matches, 1)
	assert.Equal(t, "carol", results.Matches[0].UserID)
	assert.Equal(t, "You both build matching engines.", results.Matches[0].Reason)
	assert.Equal(t, 1, client.generated)
	assert.Empty(t, client.embedded, "user already has an embedding")
}

func TestGenerateMatches_EmbedsMissingUserEmbedding(t *testing.T) {
	store := seededStore()
	me := store.profiles["me"]
	me.Embedding = nil
	client := &fakeClient{reason: "ok", vector: []float64{1, 0, 0}}

	results, err := generateMatches(context.Background(), store, client, logging.NewNop(), "me", 10, 1)
	require.NoError(t, err)

	require.Len(t, client.embedded, 1)
	assert.Contains(t, client.embedded[0], "A matching engine")
	assert.Equal(t, []float64{1, 0, 0}, store.embeddings["me"])
	assert.Equal(t, []string{"carol", "alice"}, resultIDs(*results))
}

func TestGenerateMatches_EmbeddingFailureIsNotFatal(t *testing.T) {
	store := seededStore()
	store.profiles["me"].Embedding = nil
	client := &fakeClient{reason: "ok", embedErr: errors.New("quota exceeded")}

	results, err := generateMatches(context.Background(), store, client, logging.NewNop(), "me", 10, 1)
	require.NoError(t, err)

	// Without semantic similarity nobody clears the threshold
	assert.Empty(t, store.embeddings)
	assert.Empty(t, results.Matches)
}

func TestGenerateMatches_UserNotFound(t *testing.T) {
	store := newFakeStore()

	_, err := generateMatches(context.Background(), store, nil, logging.NewNop(), "ghost", 10, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGenerateMatches_NoCandidates(t *testing.T) {
	store := newFakeStore()
	store.add(profile("me", 1, 0, 0))

	results, err := generateMatches(context.Background(), store, nil, logging.NewNop(), "me", 10, 1)
	require.NoError(t, err)
	assert.NotNil(t, results.Matches)
	assert.Empty(t, results.Matches)
	assert.Nil(t, store.sharedQueried)
}

func TestGenerateMatches_StoreErrors(t *testing.T) {
	store := seededStore()
	store.getErr = errors.New("connection refused")

	_, err := generateMatches(context.Background(), store, nil, logging.NewNop(), "me", 10, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load context window")

	store = seededStore()
	store.listErr = errors.New("timeout")
	_, err = generateMatches(context.Background(), store, nil, logging.NewNop(), "me", 10, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load candidates")
}

func TestGenerateMatchesCommand_RequiresDatabase(t *testing.T) {
	_, _, err := execute(t, "generate-matches", "--user-id", "5f0c6c3e-7d7c-4a55-9a55-0c2f3d1f9f10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database URL is required")
}
