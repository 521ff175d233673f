package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// MatchedUserIDs returns the ids of everyone already paired with userID, in either position
func (db *DB) MatchedUserIDs(ctx context.Context, userID string) ([]string, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}

	rows, err := db.pool.Query(ctx,
		`SELECT DISTINCT CASE WHEN user1_id = $1 THEN user2_id ELSE user1_id END
		 FROM matches
		 WHERE user1_id = $1 OR user2_id = $1`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list matched users: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var other uuid.UUID
		if err := rows.Scan(&other); err != nil {
			return nil, fmt.Errorf("failed to scan matched user: %w", err)
		}
		ids = append(ids, other.String())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list matched users: %w", err)
	}
	return ids, nil
}

// SharedCommunityCounts returns, for each candidate that shares at least one community
// with userID, the number of shared communities. Candidates sharing none are absent.
func (db *DB) SharedCommunityCounts(ctx context.Context, userID string, candidateIDs []string) (map[string]int, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	if len(candidateIDs) == 0 {
		return counts, nil
	}

	rows, err := db.pool.Query(ctx,
		`SELECT other.user_id, COUNT(*)
		 FROM community_memberships mine
		 JOIN community_memberships other ON other.community_id = mine.community_id
		 WHERE mine.user_id = $1
		   AND other.user_id <> $1
		   AND other.user_id::text = ANY($2::text[])
		 GROUP BY other.user_id`,
		id, candidateIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count shared communities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var other uuid.UUID
		var n int
		if err := rows.Scan(&other, &n); err != nil {
			return nil, fmt.Errorf("failed to scan shared community count: %w", err)
		}
		counts[other.String()] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to count shared communities: %w", err)
	}
	return counts, nil
}

// FindOrCreateCommunity returns the id of the community with the given name, creating it if needed
func (db *DB) FindOrCreateCommunity(ctx context.Context, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO communities (name) VALUES ($1)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`,
		name,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to find or create community %s: %w", name, err)
	}
	return id, nil
}

// AddMembership puts a user in a community. Adding an existing membership is a no-op.
func (db *DB) AddMembership(ctx context.Context, userID string, communityID uuid.UUID) error {
	id, err := parseUserID(userID)
	if err != nil {
		return err
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO community_memberships (user_id, community_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		id, communityID,
	)
	if err != nil {
		return fmt.Errorf("failed to add membership: %w", err)
	}
	return nil
}
