package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/context-matcher/internal/types"
)

func writePool(t *testing.T, dir string) (string, string, string) {
	t.Helper()
	user := writeJSON(t, dir, "user.json", profile("me", 1, 0, 0))
	candidates := writeJSON(t, dir, "candidates.json", []types.ContextWindow{
		profile("alice", 1, 0, 0),
		profile("bob", 0, 1, 0),
		profile("carol", 1, 0, 0),
		profile("me", 1, 0, 0),
		profile("dave", 1, 0, 0),
	})
	communities := writeJSON(t, dir, "communities.json", map[string]int{"carol": 1})
	return user, candidates, communities
}

func resultIDs(results types.MatchResults) []string {
	ids := make([]string, 0, len(results.Matches))
	for _, m := range results.Matches {
		ids = append(ids, m.UserID)
	}
	return ids
}

func TestTopMatchesCommand(t *testing.T) {
	dir := t.TempDir()
	user, candidates, communities := writePool(t, dir)

	stdout, _, err := execute(t, "top-matches", "--user", user, "--candidates", candidates, "--communities", communities)
	require.NoError(t, err)

	var results types.MatchResults
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	assert.Equal(t, "me", results.UserID)
	assert.Equal(t, []string{"carol", "alice", "dave"}, resultIDs(results))
	for _, m := range results.Matches {
		assert.Equal(t, "similar context", m.Reason)
	}
}

func TestTopMatchesCommand_WithoutCommunities(t *testing.T) {
	dir := t.TempDir()
	user, candidates, _ := writePool(t, dir)

	stdout, _, err := execute(t, "top-matches", "-u", user, "-c", candidates, "--workers", "3")
	require.NoError(t, err)

	var results types.MatchResults
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	assert.Equal(t, []string{"alice", "carol", "dave"}, resultIDs(results))
}

func TestTopMatchesCommand_Limit(t *testing.T) {
	dir := t.TempDir()
	user, candidates, communities := writePool(t, dir)

	stdout, _, err := execute(t, "top-matches", "-u", user, "-c", candidates, "-m", communities, "--limit", "1")
	require.NoError(t, err)
	var results types.MatchResults
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	assert.Equal(t, []string{"carol"}, resultIDs(results))

	stdout, _, err = execute(t, "top-matches", "-u", user, "-c", candidates, "--limit", "0")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	assert.NotNil(t, results.Matches)
	assert.Empty(t, results.Matches)

	_, _, err = execute(t, "top-matches", "-u", user, "-c", candidates, "--limit", "-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--limit")
}

func TestTopMatchesCommand_LimitFromConfig(t *testing.T) {
	dir := t.TempDir()
	user, candidates, communities := writePool(t, dir)
	cfg := writeJSON(t, dir, "config.json", map[string]any{"limit": 2})

	stdout, _, err := execute(t, "top-matches", "--config", cfg, "-u", user, "-c", candidates, "-m", communities)
	require.NoError(t, err)

	var results types.MatchResults
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	assert.Equal(t, []string{"carol", "alice"}, resultIDs(results))
}

func TestTopMatchesCommand_OutputFile(t *testing.T) {
	dir := t.TempDir()
	user, candidates, communities := writePool(t, dir)
	out := filepath.Join(dir, "out", "matches.json")

	stdout, stderr, err := execute(t, "top-matches", "-u", user, "-c", candidates, "-m", communities, "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Found 3 matches among 5 candidates")
	assert.NotContains(t, stderr, "Output validation failed")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var results types.MatchResults
	require.NoError(t, json.Unmarshal(data, &results))
	assert.Len(t, results.Matches, 3)
}

func TestTopMatchesCommand_Verbose(t *testing.T) {
	dir := t.TempDir()
	user, candidates, communities := writePool(t, dir)

	_, stderr, err := execute(t, "top-matches", "-u", user, "-c", candidates, "-m", communities, "-v")
	require.NoError(t, err)
	assert.Contains(t, stderr, "TOP MATCHES FOR me")
}

func TestTopMatchesCommand_ExplainRequiresAPIKey(t *testing.T) {
	dir := t.TempDir()
	user, candidates, _ := writePool(t, dir)

	_, _, err := execute(t, "top-matches", "-u", user, "-c", candidates, "--explain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestTopMatchesCommand_InvalidCommunities(t *testing.T) {
	dir := t.TempDir()
	user, candidates, _ := writePool(t, dir)
	communities := writeJSON(t, dir, "bad.json", map[string]any{"carol": -1})

	_, _, err := execute(t, "top-matches", "-u", user, "-c", candidates, "-m", communities)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation")
}

func TestTopMatchesCommand_CandidatesMustBeArray(t *testing.T) {
	dir := t.TempDir()
	user, _, _ := writePool(t, dir)
	candidates := writeJSON(t, dir, "single.json", profile("alice", 1, 0, 0))

	_, _, err := execute(t, "top-matches", "-u", user, "-c", candidates)
	require.Error(t, err)
}
