package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/context-matcher/internal/types"
)

const contextWindowColumns = `user_id, working_on, skills, seeking, bio, current_location,
	upcoming_travel, open_to, embedding::text`

// rowScanner is satisfied by pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// scanContextWindow reads one row selected with contextWindowColumns
func scanContextWindow(row rowScanner) (*types.ContextWindow, error) {
	var (
		id                                uuid.UUID
		workingOn, seeking, bio, location *string
		skills, travel, openTo            []string
		embeddingText                     *string
	)

	if err := row.Scan(&id, &workingOn, &skills, &seeking, &bio, &location, &travel, &openTo, &embeddingText); err != nil {
		return nil, err
	}

	embedding, err := fromVectorText(embeddingText)
	if err != nil {
		return nil, err
	}

	return &types.ContextWindow{
		UserID:          id.String(),
		WorkingOn:       deref(workingOn),
		Skills:          skills,
		Seeking:         deref(seeking),
		Bio:             deref(bio),
		CurrentLocation: deref(location),
		UpcomingTravel:  travel,
		OpenTo:          openTo,
		Embedding:       embedding,
	}, nil
}

// GetContextWindow retrieves a user's profile. Returns nil if not found.
func (db *DB) GetContextWindow(ctx context.Context, userID string) (*types.ContextWindow, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}

	row := db.pool.QueryRow(ctx,
		`SELECT `+contextWindowColumns+` FROM context_windows WHERE user_id = $1`, id)

	cw, err := scanContextWindow(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get context window: %w", err)
	}
	return cw, nil
}

// ListCandidates returns profiles that have an embedding, are not in excludeIDs,
// and have stored completeness of at least minCompleteness, ordered by user id.
func (db *DB) ListCandidates(ctx context.Context, excludeIDs []string, minCompleteness float64) ([]types.ContextWindow, error) {
	if excludeIDs == nil {
		excludeIDs = []string{}
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+contextWindowColumns+`
		 FROM context_windows
		 WHERE embedding IS NOT NULL
		   AND NOT (user_id::text = ANY($1::text[]))
		   AND completeness >= $2
		 ORDER BY user_id`,
		excludeIDs, minCompleteness,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	candidates := []types.ContextWindow{}
	for rows.Next() {
		cw, err := scanContextWindow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, *cw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	return candidates, nil
}

// UpsertContextWindow stores a profile and its completeness. The embedding column is left
// untouched; use UpdateEmbedding for that.
func (db *DB) UpsertContextWindow(ctx context.Context, cw *types.ContextWindow) error {
	id, err := parseUserID(cw.UserID)
	if err != nil {
		return err
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO context_windows
			(user_id, working_on, skills, seeking, bio, current_location, upcoming_travel, open_to, completeness)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (user_id) DO UPDATE SET
			working_on = $2, skills = $3, seeking = $4, bio = $5, current_location = $6,
			upcoming_travel = $7, open_to = $8, completeness = $9, updated_at = NOW()`,
		id, nullIfEmpty(cw.WorkingOn), nonNil(cw.Skills), nullIfEmpty(cw.Seeking), nullIfEmpty(cw.Bio),
		nullIfEmpty(cw.CurrentLocation), nonNil(cw.UpcomingTravel), nonNil(cw.OpenTo), cw.Completeness(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert context window %s: %w", cw.UserID, err)
	}
	return nil
}

// UpdateEmbedding replaces a user's embedding
func (db *DB) UpdateEmbedding(ctx context.Context, userID string, embedding []float64) error {
	id, err := parseUserID(userID)
	if err != nil {
		return err
	}
	if len(embedding) == 0 {
		return fmt.Errorf("embedding for %s is empty", userID)
	}

	result, err := db.pool.Exec(ctx,
		`UPDATE context_windows SET embedding = $2::vector, updated_at = NOW() WHERE user_id = $1`,
		id, toVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("context window not found: %s", userID)
	}
	return nil
}

// UpdateCompleteness stores the completeness fraction used by ListCandidates
func (db *DB) UpdateCompleteness(ctx context.Context, userID string, completeness float64) error {
	id, err := parseUserID(userID)
	if err != nil {
		return err
	}

	result, err := db.pool.Exec(ctx,
		`UPDATE context_windows SET completeness = $2, updated_at = NOW() WHERE user_id = $1`,
		id, completeness,
	)
	if err != nil {
		return fmt.Errorf("failed to update completeness: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("context window not found: %s", userID)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
